package tickets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"zoo-management/internal/domain/visitors"
	"zoo-management/internal/platform/logger"
	"zoo-management/internal/platform/metrics"
	"zoo-management/internal/platform/sentinel"
	"zoo-management/internal/ports/events"
	"zoo-management/internal/ports/mail"
)

var (
	ErrNotFound        = sentinel.Wrap(sentinel.ErrNotFound, "ticket not found")
	ErrVisitorNotFound = sentinel.Invalid("visitor not found")
	ErrAlreadyUsed     = sentinel.Wrap(sentinel.ErrAlreadyUsed, "ticket has already been used")
	ErrRefunded        = sentinel.Wrap(sentinel.ErrAlreadyFinalized, "ticket has been refunded")
	ErrNotValidToday   = sentinel.Wrap(sentinel.ErrNotValidToday, "ticket is not valid for today")
	ErrUsedImmutable   = sentinel.Wrap(sentinel.ErrAlreadyFinalized, "used or refunded tickets cannot be modified")
	ErrIDExhausted     = sentinel.Wrap(sentinel.ErrConflict, "could not allocate a unique ticket id")
)

var tracer = otel.Tracer("zoo-management/internal/domain/tickets")

const DefaultMaxIDAttempts = 5

// VisitorBook es lo que tickets necesita del módulo de visitantes.
type VisitorBook interface {
	GetByID(ctx context.Context, id string) (visitors.Visitor, error)
	AppendTicket(ctx context.Context, id string, t visitors.TicketSummary) (visitors.Visitor, error)
}

type Service struct {
	repo          Repository
	visitors      VisitorBook
	mailer        mail.Sender
	publisher     events.Publisher
	onChange      func(ctx context.Context)
	newID         IDGenerator
	maxIDAttempts int
	loc           *time.Location
	now           func() time.Time
}

type Option func(*Service)

func WithMailer(m mail.Sender) Option {
	return func(s *Service) { s.mailer = m }
}

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// OnChange corre después de cada compra.
func OnChange(fn func(ctx context.Context)) Option {
	return func(s *Service) { s.onChange = fn }
}

func WithIDGenerator(gen IDGenerator) Option {
	return func(s *Service) { s.newID = gen }
}

func WithMaxIDAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxIDAttempts = n
		}
	}
}

// WithLocation fija la zona horaria del zoo; define qué es "hoy".
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func NewService(repo Repository, visitorBook VisitorBook, opts ...Option) *Service {
	s := &Service{
		repo:          repo,
		visitors:      visitorBook,
		newID:         NewTicketID,
		maxIDAttempts: DefaultMaxIDAttempts,
		loc:           time.Local,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type PurchaseInput struct {
	VisitorID       string
	Type            Type
	Price           float64
	DiscountApplied float64
	DiscountCode    string
	PaymentMethod   PaymentMethod
	TransactionID   string
	VisitDate       time.Time
	ValidUntil      *time.Time
	Notes           string
}

// Purchase emite el ticket: genera el id (reintentando ante colisión del
// índice único), lo guarda, copia el resumen al visitante y envía la
// confirmación. Mail y evento no revierten la compra si fallan.
func (s *Service) Purchase(ctx context.Context, in PurchaseInput) (Ticket, error) {
	ctx, span := tracer.Start(ctx, "tickets.Purchase",
		trace.WithAttributes(attribute.String("ticket.type", string(in.Type))),
	)
	defer span.End()

	t, visitor, err := s.purchase(ctx, in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Ticket{}, err
	}
	span.SetAttributes(
		attribute.String("ticket.id", t.TicketID),
		attribute.String("ticket.type", string(t.Type)),
		attribute.String("visitor.id", visitor.ID),
	)

	s.afterPurchase(ctx, t, visitor)
	return t, nil
}

// PurchaseForVisitor es la compra desde /visitors/{id}/tickets: un visitante
// inexistente es 404 y no 400.
func (s *Service) PurchaseForVisitor(ctx context.Context, visitorID string, in PurchaseInput) (Ticket, error) {
	if _, err := s.visitors.GetByID(ctx, strings.TrimSpace(visitorID)); err != nil {
		return Ticket{}, err
	}
	in.VisitorID = visitorID
	return s.Purchase(ctx, in)
}

func (s *Service) purchase(ctx context.Context, in PurchaseInput) (Ticket, visitors.Visitor, error) {
	now := s.now()
	in.VisitorID = strings.TrimSpace(in.VisitorID)
	if in.VisitorID == "" {
		return Ticket{}, visitors.Visitor{}, sentinel.Invalid("visitor_id is required")
	}
	if err := s.validatePurchase(in, now); err != nil {
		return Ticket{}, visitors.Visitor{}, err
	}

	visitor, err := s.visitors.GetByID(ctx, in.VisitorID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Ticket{}, visitors.Visitor{}, ErrVisitorNotFound
		}
		return Ticket{}, visitors.Visitor{}, err
	}
	if !visitor.IsActive {
		return Ticket{}, visitors.Visitor{}, visitors.ErrInactive
	}

	visitDay := s.day(in.VisitDate)
	t := Ticket{
		ID:              uuid.NewString(),
		VisitorID:       visitor.ID,
		Type:            in.Type,
		Price:           in.Price,
		DiscountApplied: in.DiscountApplied,
		DiscountCode:    strings.TrimSpace(in.DiscountCode),
		PaymentMethod:   in.PaymentMethod,
		TransactionID:   strings.TrimSpace(in.TransactionID),
		PurchaseDate:    now,
		VisitDate:       visitDay,
		ValidUntil:      in.ValidUntil,
		Notes:           strings.TrimSpace(in.Notes),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if t.ValidUntil == nil && t.Type == TypeAnnualPass {
		until := visitDay.AddDate(1, 0, 0)
		t.ValidUntil = &until
	}

	if err := s.insert(ctx, &t); err != nil {
		return Ticket{}, visitors.Visitor{}, err
	}
	return t, visitor, nil
}

// insert genera ticket ids hasta que uno entra sin colisión o se agotan
// los intentos.
func (s *Service) insert(ctx context.Context, t *Ticket) error {
	for attempt := 1; attempt <= s.maxIDAttempts; attempt++ {
		t.TicketID = NormalizeTicketID(s.newID(s.now()))
		err := s.repo.Create(ctx, *t)
		if err == nil {
			return nil
		}
		if !errors.Is(err, sentinel.ErrDuplicateKey) {
			return err
		}
		metrics.TicketIDCollision()
		logger.FromContext(ctx).Warn("ticket id collision, regenerating", map[string]any{
			"ticket_id": t.TicketID,
			"attempt":   attempt,
		})
	}
	return ErrIDExhausted
}

func (s *Service) afterPurchase(ctx context.Context, t Ticket, visitor visitors.Visitor) {
	log := logger.FromContext(ctx)
	metrics.TicketIssued(string(t.Type))

	if _, err := s.visitors.AppendTicket(ctx, visitor.ID, visitors.TicketSummary{
		TicketID:      t.TicketID,
		Type:          string(t.Type),
		Price:         t.Price,
		PurchaseDate:  t.PurchaseDate,
		VisitDate:     t.VisitDate,
		PaymentMethod: string(t.PaymentMethod),
	}); err != nil {
		log.Warn("append ticket to visitor failed", map[string]any{
			"ticket_id":  t.TicketID,
			"visitor_id": visitor.ID,
			"error":      err.Error(),
		})
	}

	if s.mailer != nil {
		if err := s.mailer.Send(ctx, confirmationMessage(t, visitor)); err != nil {
			metrics.NotificationFailed("mail")
			log.Warn("ticket confirmation mail failed", map[string]any{
				"ticket_id": t.TicketID,
				"error":     err.Error(),
			})
		}
	}

	events.Emit(ctx, s.publisher, events.TopicTicketPurchased, t.TicketID, purchaseEvent{
		TicketID:   t.TicketID,
		VisitorID:  t.VisitorID,
		Type:       t.Type,
		FinalPrice: t.FinalPrice(),
		VisitDate:  t.VisitDate,
	})
	log.Info("ticket purchased", map[string]any{
		"ticket_id":  t.TicketID,
		"visitor_id": visitor.ID,
		"type":       string(t.Type),
	})
	if s.onChange != nil {
		s.onChange(ctx)
	}
}

func (s *Service) GetByID(ctx context.Context, id string) (Ticket, error) {
	t, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if errors.Is(err, sentinel.ErrNotFound) {
		return Ticket{}, ErrNotFound
	}
	return t, err
}

// GetByTicketID no distingue mayúsculas.
func (s *Service) GetByTicketID(ctx context.Context, ticketID string) (Ticket, error) {
	t, err := s.repo.GetByTicketID(ctx, NormalizeTicketID(ticketID))
	if errors.Is(err, sentinel.ErrNotFound) {
		return Ticket{}, ErrNotFound
	}
	return t, err
}

func (s *Service) List(ctx context.Context, f Filter) ([]Ticket, int, error) {
	return s.repo.List(ctx, f)
}

// ListForVisitDay acota el listado al día calendario de day en la zona del zoo.
func (s *Service) ListForVisitDay(ctx context.Context, f Filter, day time.Time) ([]Ticket, int, error) {
	from := s.day(day)
	to := from.AddDate(0, 0, 1)
	f.VisitFrom, f.VisitTo = &from, &to
	return s.repo.List(ctx, f)
}

// Today lista los tickets con visita hoy.
func (s *Service) Today(ctx context.Context, offset, limit int) ([]Ticket, int, error) {
	return s.ListForVisitDay(ctx, Filter{Offset: offset, Limit: limit}, s.now().In(s.loc))
}

func (s *Service) ByVisitor(ctx context.Context, visitorID string, offset, limit int) ([]Ticket, int, error) {
	visitorID = strings.TrimSpace(visitorID)
	if visitorID == "" {
		return nil, 0, sentinel.Invalid("visitor id is required")
	}
	return s.repo.List(ctx, Filter{VisitorID: visitorID, Offset: offset, Limit: limit})
}

func (s *Service) Search(ctx context.Context, q string) ([]Ticket, error) {
	items, _, err := s.repo.List(ctx, Filter{Query: strings.TrimSpace(q), Limit: 20})
	return items, err
}

// Validate usa el ticket en la entrada. Rechaza tickets usados, reembolsados
// o con visita en otro día; la marca de uso es condicional, así que de dos
// validaciones simultáneas solo una gana.
func (s *Service) Validate(ctx context.Context, ticketID string) (Ticket, error) {
	ticketID = NormalizeTicketID(ticketID)
	ctx, span := tracer.Start(ctx, "tickets.Validate",
		trace.WithAttributes(attribute.String("ticket.id", ticketID)),
	)
	defer span.End()

	t, outcome, err := s.validate(ctx, ticketID)
	metrics.TicketValidation(outcome)
	span.SetAttributes(attribute.String("ticket.validation", outcome))
	if err != nil {
		if outcome == "error" {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		logger.FromContext(ctx).Info("ticket validation rejected", map[string]any{
			"ticket_id": ticketID,
			"outcome":   outcome,
		})
		return Ticket{}, err
	}

	events.Emit(ctx, s.publisher, events.TopicTicketValidated, t.TicketID, validationEvent{
		TicketID:  t.TicketID,
		VisitorID: t.VisitorID,
		UsedAt:    *t.UsedAt,
	})
	logger.FromContext(ctx).Info("ticket validated", map[string]any{"ticket_id": t.TicketID})
	return t, nil
}

func (s *Service) validate(ctx context.Context, ticketID string) (Ticket, string, error) {
	if ticketID == "" {
		return Ticket{}, "invalid", sentinel.Invalid("ticket id is required")
	}
	t, err := s.repo.GetByTicketID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Ticket{}, "not_found", ErrNotFound
		}
		return Ticket{}, "error", err
	}

	now := s.now()
	switch {
	case t.IsUsed:
		return Ticket{}, "already_used", ErrAlreadyUsed
	case t.Refunded:
		return Ticket{}, "refunded", ErrRefunded
	case !t.ValidOn(now, s.loc):
		return Ticket{}, "not_valid_today", ErrNotValidToday
	}

	used, err := s.repo.MarkUsed(ctx, ticketID, now)
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrAlreadyUsed):
			return Ticket{}, "already_used", ErrAlreadyUsed
		case errors.Is(err, sentinel.ErrAlreadyFinalized):
			return Ticket{}, "refunded", ErrRefunded
		case errors.Is(err, sentinel.ErrNotFound):
			return Ticket{}, "not_found", ErrNotFound
		}
		return Ticket{}, "error", err
	}
	return used, "ok", nil
}

// Refund reembolsa el precio final de un ticket sin usar.
func (s *Service) Refund(ctx context.Context, id, reason string) (Ticket, error) {
	cur, err := s.GetByID(ctx, id)
	if err != nil {
		return Ticket{}, err
	}
	t, err := s.repo.Refund(ctx, cur.ID, cur.FinalPrice(), strings.TrimSpace(reason), s.now())
	if err != nil {
		return Ticket{}, mapTerminal(err)
	}

	events.Emit(ctx, s.publisher, events.TopicTicketRefunded, t.TicketID, refundEvent{
		TicketID:  t.TicketID,
		VisitorID: t.VisitorID,
		Amount:    t.RefundAmount,
	})
	logger.FromContext(ctx).Info("ticket refunded", map[string]any{
		"ticket_id": t.TicketID,
		"amount":    t.RefundAmount,
	})
	return t, nil
}

type UpdateInput struct {
	Type            *Type
	Price           *float64
	DiscountApplied *float64
	DiscountCode    *string
	PaymentMethod   *PaymentMethod
	TransactionID   *string
	VisitDate       *time.Time
	ValidUntil      *time.Time
	Notes           *string
}

// Update no aplica a tickets usados o reembolsados; ticket_id y visitante
// no cambian.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Ticket, error) {
	t, err := s.GetByID(ctx, id)
	if err != nil {
		return Ticket{}, err
	}
	if t.IsUsed || t.Refunded {
		return Ticket{}, ErrUsedImmutable
	}

	if in.Type != nil {
		if !in.Type.Valid() {
			return Ticket{}, sentinel.Invalid("invalid ticket type")
		}
		t.Type = *in.Type
	}
	if in.Price != nil {
		if *in.Price < 0 {
			return Ticket{}, sentinel.Invalid("price must be >= 0")
		}
		t.Price = *in.Price
	}
	if in.DiscountApplied != nil {
		if *in.DiscountApplied < 0 || *in.DiscountApplied > 100 {
			return Ticket{}, sentinel.Invalid("discount_applied must be 0-100")
		}
		t.DiscountApplied = *in.DiscountApplied
	}
	if in.DiscountCode != nil {
		t.DiscountCode = strings.TrimSpace(*in.DiscountCode)
	}
	if in.PaymentMethod != nil {
		if !in.PaymentMethod.Valid() {
			return Ticket{}, sentinel.Invalid("invalid payment method")
		}
		t.PaymentMethod = *in.PaymentMethod
	}
	if in.TransactionID != nil {
		t.TransactionID = strings.TrimSpace(*in.TransactionID)
	}
	if in.VisitDate != nil {
		t.VisitDate = s.day(*in.VisitDate)
	}
	if in.ValidUntil != nil {
		until := *in.ValidUntil
		t.ValidUntil = &until
	}
	if in.Notes != nil {
		t.Notes = strings.TrimSpace(*in.Notes)
	}
	t.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, t); err != nil {
		return Ticket{}, mapImmutable(err)
	}
	return t, nil
}

// Delete borra tickets sin usar.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, strings.TrimSpace(id)); err != nil {
		return mapImmutable(err)
	}
	return nil
}

func mapTerminal(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return ErrAlreadyUsed
	case errors.Is(err, sentinel.ErrAlreadyFinalized):
		return ErrRefunded
	}
	return err
}

func mapImmutable(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, sentinel.ErrAlreadyUsed), errors.Is(err, sentinel.ErrAlreadyFinalized):
		return ErrUsedImmutable
	}
	return err
}

func (s *Service) validatePurchase(in PurchaseInput, now time.Time) error {
	if !in.Type.Valid() {
		return sentinel.Invalid("invalid ticket type")
	}
	if in.Price < 0 {
		return sentinel.Invalid("price must be >= 0")
	}
	if in.DiscountApplied < 0 || in.DiscountApplied > 100 {
		return sentinel.Invalid("discount_applied must be 0-100")
	}
	if !in.PaymentMethod.Valid() {
		return sentinel.Invalid("invalid payment method")
	}
	if in.VisitDate.IsZero() {
		return sentinel.Invalid("visit_date is required")
	}
	if s.day(in.VisitDate).Before(s.day(now.In(s.loc))) {
		return sentinel.Invalid("visit_date cannot be in the past")
	}
	if in.ValidUntil != nil && in.ValidUntil.Before(s.day(in.VisitDate)) {
		return sentinel.Invalid("valid_until cannot be before visit_date")
	}
	return nil
}

// day lleva t a la medianoche de su propio día calendario, expresada en la
// zona del zoo: "2026-10-18" llega como medianoche UTC y sigue siendo el 18.
func (s *Service) day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.loc)
}

func confirmationMessage(t Ticket, v visitors.Visitor) mail.Message {
	body := fmt.Sprintf(
		"Hola %s,\n\nTu ticket %s (%s) para el %s quedó confirmado.\nTotal: %.2f\n\nPresentalo en la entrada el día de la visita.\n",
		v.FullName(), t.TicketID, t.Type, t.VisitDate.Format(time.DateOnly), t.FinalPrice(),
	)
	return mail.Message{
		To:      v.Email,
		Subject: "Ticket " + t.TicketID,
		Body:    body,
		Tag:     "ticket_confirmation",
	}
}

type purchaseEvent struct {
	TicketID   string    `json:"ticket_id"`
	VisitorID  string    `json:"visitor_id"`
	Type       Type      `json:"type"`
	FinalPrice float64   `json:"final_price"`
	VisitDate  time.Time `json:"visit_date"`
}

type validationEvent struct {
	TicketID  string    `json:"ticket_id"`
	VisitorID string    `json:"visitor_id"`
	UsedAt    time.Time `json:"used_at"`
}

type refundEvent struct {
	TicketID  string  `json:"ticket_id"`
	VisitorID string  `json:"visitor_id"`
	Amount    float64 `json:"amount"`
}
