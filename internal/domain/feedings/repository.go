package feedings

import (
	"context"
	"time"
)

type Filter struct {
	AnimalID  string
	ExhibitID string
	Completed *bool
	FoodType  string // parcial, case-insensitive
	// CreatedFrom/CreatedTo acotan created_at a [from, to).
	CreatedFrom *time.Time
	CreatedTo   *time.Time

	Offset int
	Limit  int
}

// Los listados se ordenan por scheduled_time ascendente.
type Repository interface {
	Create(ctx context.Context, f Feeding) error
	GetByID(ctx context.Context, id string) (Feeding, error)
	List(ctx context.Context, f Filter) ([]Feeding, int, error)
	// Update reemplaza una alimentación pendiente; ErrAlreadyFinalized si
	// ya fue completada.
	Update(ctx context.Context, f Feeding) error
	// Complete marca completada solo si sigue pendiente (escritura
	// condicional); si no, ErrAlreadyFinalized.
	Complete(ctx context.Context, id, by, notes string, at time.Time) (Feeding, error)
	Delete(ctx context.Context, id string) error
}
