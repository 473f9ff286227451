package visitors

import (
	"context"
	"time"
)

type Filter struct {
	VIPLevel       VIPLevel
	MembershipType MembershipType
	Source         Source
	IsVIP          *bool
	IsActive       *bool
	// Query busca por nombre, apellido, email o teléfono.
	Query string
	// VisitedSince filtra por last_visit_date >= la fecha.
	VisitedSince *time.Time

	Offset int
	Limit  int // 0 = sin límite
}

type Repository interface {
	// Create devuelve ErrDuplicateKey si el email ya está registrado.
	Create(ctx context.Context, v Visitor) error
	GetByID(ctx context.Context, id string) (Visitor, error)
	GetByEmail(ctx context.Context, email string) (Visitor, error)
	List(ctx context.Context, f Filter) ([]Visitor, int, error)
	// Save guarda con chequeo de versión (ErrConflict) y de email único
	// (ErrDuplicateKey); devuelve el visitante con la versión incrementada.
	Save(ctx context.Context, v Visitor) (Visitor, error)
}
