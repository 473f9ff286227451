package reports

import (
	"context"
	"time"
)

type Filter struct {
	Type        Type
	Period      Period
	Status      Status
	GeneratedBy string

	Offset int
	Limit  int // 0 = sin límite
}

// Repository lista por created_at descendente.
type Repository interface {
	Create(ctx context.Context, r Report) error
	GetByID(ctx context.Context, id string) (Report, error)
	List(ctx context.Context, f Filter) ([]Report, int, error)
	SetStatus(ctx context.Context, id string, status Status, at time.Time) (Report, error)
	Delete(ctx context.Context, id string) error
}
