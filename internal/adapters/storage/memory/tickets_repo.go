package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"zoo-management/internal/domain/tickets"
	"zoo-management/internal/platform/sentinel"
)

type ticketRepo struct {
	mu         sync.RWMutex
	byID       map[string]tickets.Ticket
	byTicketID map[string]string
}

func NewTicketRepo() tickets.Repository {
	return &ticketRepo{
		byID:       make(map[string]tickets.Ticket),
		byTicketID: make(map[string]string),
	}
}

func (r *ticketRepo) Create(ctx context.Context, t tickets.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(t.ID) == "" || strings.TrimSpace(t.TicketID) == "" {
		return sentinel.Invalid("ticket id required")
	}
	if _, exists := r.byID[t.ID]; exists {
		return sentinel.ErrDuplicateKey
	}
	if _, exists := r.byTicketID[t.TicketID]; exists {
		return sentinel.ErrDuplicateKey
	}
	r.byID[t.ID] = t
	r.byTicketID[t.TicketID] = t.ID
	return nil
}

func (r *ticketRepo) GetByID(ctx context.Context, id string) (tickets.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.byID[id]
	if !ok {
		return tickets.Ticket{}, sentinel.ErrNotFound
	}
	return t, nil
}

func (r *ticketRepo) GetByTicketID(ctx context.Context, ticketID string) (tickets.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byTicketID[ticketID]
	if !ok {
		return tickets.Ticket{}, sentinel.ErrNotFound
	}
	return r.byID[id], nil
}

func (r *ticketRepo) List(ctx context.Context, f tickets.Filter) ([]tickets.Ticket, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]tickets.Ticket, 0)
	for _, t := range r.byID {
		if f.VisitorID != "" && t.VisitorID != f.VisitorID {
			continue
		}
		if f.Type != "" && t.Type != f.Type {
			continue
		}
		if f.PaymentMethod != "" && t.PaymentMethod != f.PaymentMethod {
			continue
		}
		if f.IsUsed != nil && t.IsUsed != *f.IsUsed {
			continue
		}
		if f.Refunded != nil && t.Refunded != *f.Refunded {
			continue
		}
		if !inRange(t.VisitDate, f.VisitFrom, f.VisitTo) || !inRange(t.PurchaseDate, f.PurchasedFrom, f.PurchasedTo) {
			continue
		}
		if f.Query != "" && !anyContainsFold(f.Query, t.TicketID, t.TransactionID, string(t.Type)) {
			continue
		}
		out = append(out, t)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].PurchaseDate.After(out[j].PurchaseDate) })

	items, total := page(out, f.Offset, f.Limit)
	return items, total, nil
}

func (r *ticketRepo) Update(ctx context.Context, t tickets.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[t.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if err := terminalErr(cur); err != nil {
		return err
	}
	// ticket_id y estado de uso/reembolso no cambian por Update
	t.TicketID = cur.TicketID
	t.IsUsed, t.UsedAt = cur.IsUsed, cur.UsedAt
	t.Refunded, t.RefundDate, t.RefundAmount, t.RefundReason = cur.Refunded, cur.RefundDate, cur.RefundAmount, cur.RefundReason
	r.byID[t.ID] = t
	return nil
}

func (r *ticketRepo) MarkUsed(ctx context.Context, ticketID string, at time.Time) (tickets.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byTicketID[ticketID]
	if !ok {
		return tickets.Ticket{}, sentinel.ErrNotFound
	}
	t := r.byID[id]
	if err := terminalErr(t); err != nil {
		return tickets.Ticket{}, err
	}
	t.IsUsed = true
	t.UsedAt = &at
	t.UpdatedAt = at
	r.byID[id] = t
	return t, nil
}

func (r *ticketRepo) Refund(ctx context.Context, id string, amount float64, reason string, at time.Time) (tickets.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byID[id]
	if !ok {
		return tickets.Ticket{}, sentinel.ErrNotFound
	}
	if err := terminalErr(t); err != nil {
		return tickets.Ticket{}, err
	}
	t.Refunded = true
	t.RefundDate = &at
	t.RefundAmount = amount
	t.RefundReason = reason
	t.UpdatedAt = at
	r.byID[id] = t
	return t, nil
}

func (r *ticketRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byID[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if t.IsUsed {
		return sentinel.ErrAlreadyUsed
	}
	delete(r.byTicketID, t.TicketID)
	delete(r.byID, id)
	return nil
}

func terminalErr(t tickets.Ticket) error {
	switch {
	case t.IsUsed:
		return sentinel.ErrAlreadyUsed
	case t.Refunded:
		return sentinel.ErrAlreadyFinalized
	}
	return nil
}
