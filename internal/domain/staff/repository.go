package staff

import "context"

type Filter struct {
	Role       Role
	Department string
	IsActive   *bool
	Query      string // nombre, email, employee_id, departamento o puesto

	Offset int
	Limit  int
}

// Repository: employee_id y email son únicos; Create y Update devuelven
// ErrDuplicateKey si chocan. Los listados van por created_at descendente.
type Repository interface {
	Create(ctx context.Context, s Staff) error
	GetByID(ctx context.Context, id string) (Staff, error)
	List(ctx context.Context, f Filter) ([]Staff, int, error)
	// Update no toca training_records ni performance_reviews.
	Update(ctx context.Context, s Staff) error
	// AppendTraining y AppendReview agregan al final sin reescribir el resto.
	AppendTraining(ctx context.Context, id string, rec TrainingRecord) (Staff, error)
	AppendReview(ctx context.Context, id string, rev PerformanceReview) (Staff, error)
}
