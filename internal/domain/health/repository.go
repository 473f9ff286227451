package health

import (
	"context"
	"time"
)

type Filter struct {
	AnimalID     string
	Type         Type
	Status       Status
	Veterinarian string // parcial, case-insensitive
	// Query busca en animal, veterinario, diagnóstico, tratamiento y medicación.
	Query string
	// FollowUpDueAt filtra seguimientos pendientes vencidos a esa fecha.
	FollowUpDueAt *time.Time

	Offset int
	Limit  int
}

// Los listados vienen ordenados por date descendente, salvo FollowUpDueAt
// que ordena por follow_up_date ascendente.
type Repository interface {
	Create(ctx context.Context, rec Record) error
	GetByID(ctx context.Context, id string) (Record, error)
	List(ctx context.Context, f Filter) ([]Record, int, error)
	Update(ctx context.Context, rec Record) error
	Delete(ctx context.Context, id string) error
}
