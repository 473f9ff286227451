package tickets

import (
	"context"
	"time"
)

type Filter struct {
	VisitorID     string
	Type          Type
	PaymentMethod PaymentMethod
	IsUsed        *bool
	Refunded      *bool
	// VisitFrom/VisitTo acotan visit_date a [from, to).
	VisitFrom *time.Time
	VisitTo   *time.Time
	// PurchasedFrom/PurchasedTo acotan purchase_date a [from, to).
	PurchasedFrom *time.Time
	PurchasedTo   *time.Time
	// Query busca por ticket id, transaction id o tipo.
	Query string

	Offset int
	Limit  int // 0 = sin límite
}

// Las operaciones condicionales devuelven el motivo del rechazo:
// ErrAlreadyUsed si el ticket ya se usó, ErrAlreadyFinalized si fue reembolsado.
type Repository interface {
	// Create devuelve ErrDuplicateKey si ticket_id ya existe.
	Create(ctx context.Context, t Ticket) error
	GetByID(ctx context.Context, id string) (Ticket, error)
	GetByTicketID(ctx context.Context, ticketID string) (Ticket, error)
	// List ordena por purchase_date descendente.
	List(ctx context.Context, f Filter) ([]Ticket, int, error)
	// Update reemplaza el ticket solo si sigue sin usar y sin reembolso.
	Update(ctx context.Context, t Ticket) error
	// MarkUsed es la escritura condicional de la validación
	// (is_used=false AND refunded=false).
	MarkUsed(ctx context.Context, ticketID string, at time.Time) (Ticket, error)
	// Refund marca el reembolso si sigue sin usar y sin reembolso.
	Refund(ctx context.Context, id string, amount float64, reason string, at time.Time) (Ticket, error)
	// Delete borra solo tickets sin usar.
	Delete(ctx context.Context, id string) error
}
