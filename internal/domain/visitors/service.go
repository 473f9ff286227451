package visitors

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"zoo-management/internal/platform/logger"
	"zoo-management/internal/platform/sentinel"
	"zoo-management/internal/ports/events"
)

var (
	ErrNotFound   = sentinel.Wrap(sentinel.ErrNotFound, "visitor not found")
	ErrEmailTaken = sentinel.Wrap(sentinel.ErrDuplicateKey, "visitor with this email already exists")
	ErrInactive   = sentinel.Invalid("visitor is inactive")
)

var (
	emailRe = regexp.MustCompile(`^\w+([.+-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,})+$`)
	phoneRe = regexp.MustCompile(`^\+?[1-9]\d{0,15}$`)
)

var tracer = otel.Tracer("zoo-management/internal/domain/visitors")

const maxSaveAttempts = 3

type Service struct {
	repo      Repository
	publisher events.Publisher
	onChange  func(ctx context.Context)
	now       func() time.Time
}

type Option func(*Service)

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// OnChange corre después de registrar una visita.
func OnChange(fn func(ctx context.Context)) Option {
	return func(s *Service) { s.onChange = fn }
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo: repo,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CreateInput struct {
	FirstName           string
	LastName            string
	Email               string
	Phone               string
	DateOfBirth         *time.Time
	Gender              Gender
	Address             Address
	EmergencyContact    *EmergencyContact
	Preferences         Preferences
	Membership          *Membership
	SpecialNeeds        []string
	DietaryRestrictions []string
	Allergies           []string
	Notes               string
	Source              Source
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Visitor, error) {
	now := s.now()
	v := Visitor{
		ID:                  uuid.NewString(),
		Address:             in.Address,
		EmergencyContact:    in.EmergencyContact,
		Preferences:         in.Preferences,
		Membership:          in.Membership,
		Tickets:             []TicketSummary{},
		VisitHistory:        []Visit{},
		SpecialNeeds:        nonNil(in.SpecialNeeds),
		DietaryRestrictions: nonNil(in.DietaryRestrictions),
		Allergies:           nonNil(in.Allergies),
		Notes:               strings.TrimSpace(in.Notes),
		Source:              in.Source,
		IsActive:            true,
		RegistrationDate:    now,
		VIPLevel:            VIPBronze,
		Version:             1,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if v.Source == "" {
		v.Source = SourceWebsite
	}
	if !v.Source.Valid() {
		return Visitor{}, sentinel.Invalid("invalid source")
	}
	if err := applyContact(&v, contactInput{
		FirstName:   &in.FirstName,
		LastName:    &in.LastName,
		Email:       &in.Email,
		Phone:       &in.Phone,
		DateOfBirth: in.DateOfBirth,
		Gender:      &in.Gender,
	}, now); err != nil {
		return Visitor{}, err
	}
	if err := normalizePreferences(&v.Preferences); err != nil {
		return Visitor{}, err
	}
	if err := validateMembership(v.Membership); err != nil {
		return Visitor{}, err
	}
	if v.Address.Country == "" {
		v.Address.Country = "USA"
	}
	Recalculate(&v)

	if err := s.repo.Create(ctx, v); err != nil {
		if errors.Is(err, sentinel.ErrDuplicateKey) {
			return Visitor{}, ErrEmailTaken
		}
		return Visitor{}, err
	}
	logger.FromContext(ctx).Info("visitor registered", map[string]any{
		"visitor_id": v.ID,
		"source":     string(v.Source),
	})
	return v, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Visitor, error) {
	v, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if errors.Is(err, sentinel.ErrNotFound) {
		return Visitor{}, ErrNotFound
	}
	return v, err
}

// GetByEmail compara en minúsculas, igual que se guarda.
func (s *Service) GetByEmail(ctx context.Context, email string) (Visitor, error) {
	v, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, sentinel.ErrNotFound) {
		return Visitor{}, ErrNotFound
	}
	return v, err
}

func (s *Service) List(ctx context.Context, f Filter) ([]Visitor, int, error) {
	return s.repo.List(ctx, f)
}

func (s *Service) Search(ctx context.Context, q string) ([]Visitor, error) {
	items, _, err := s.repo.List(ctx, Filter{Query: strings.TrimSpace(q), Limit: 20})
	return items, err
}

// UpdateInput cubre datos de contacto y preferencias. Historial, tickets,
// puntos y agregados no se modifican por acá.
type UpdateInput struct {
	FirstName           *string
	LastName            *string
	Email               *string
	Phone               *string
	DateOfBirth         *time.Time
	Gender              *Gender
	Address             *Address
	EmergencyContact    *EmergencyContact
	Preferences         *Preferences
	Membership          *Membership
	SpecialNeeds        *[]string
	DietaryRestrictions *[]string
	Allergies           *[]string
	Notes               *string
	Source              *Source
	IsVIP               *bool
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Visitor, error) {
	v, err := s.mutate(ctx, id, func(v *Visitor) error {
		if err := applyContact(v, contactInput{
			FirstName:   in.FirstName,
			LastName:    in.LastName,
			Email:       in.Email,
			Phone:       in.Phone,
			DateOfBirth: in.DateOfBirth,
			Gender:      in.Gender,
		}, s.now()); err != nil {
			return err
		}
		if in.Address != nil {
			v.Address = *in.Address
		}
		if in.EmergencyContact != nil {
			v.EmergencyContact = in.EmergencyContact
		}
		if in.Preferences != nil {
			p := *in.Preferences
			if err := normalizePreferences(&p); err != nil {
				return err
			}
			v.Preferences = p
		}
		if in.Membership != nil {
			if err := validateMembership(in.Membership); err != nil {
				return err
			}
			v.Membership = in.Membership
		}
		if in.SpecialNeeds != nil {
			v.SpecialNeeds = nonNil(*in.SpecialNeeds)
		}
		if in.DietaryRestrictions != nil {
			v.DietaryRestrictions = nonNil(*in.DietaryRestrictions)
		}
		if in.Allergies != nil {
			v.Allergies = nonNil(*in.Allergies)
		}
		if in.Notes != nil {
			v.Notes = strings.TrimSpace(*in.Notes)
		}
		if in.Source != nil {
			if !in.Source.Valid() {
				return sentinel.Invalid("invalid source")
			}
			v.Source = *in.Source
		}
		if in.IsVIP != nil {
			v.IsVIP = *in.IsVIP
		}
		return nil
	})
	if errors.Is(err, sentinel.ErrDuplicateKey) {
		return Visitor{}, ErrEmailTaken
	}
	return v, err
}

// Delete da de baja al visitante (is_active=false); tickets e historial
// siguen referenciándolo.
func (s *Service) Delete(ctx context.Context, id string) error {
	_, err := s.mutate(ctx, id, func(v *Visitor) error {
		v.IsActive = false
		return nil
	})
	return err
}

type VisitInput struct {
	VisitDate       *time.Time
	EntryTime       *time.Time
	ExitTime        *time.Time
	Duration        int
	ExhibitsVisited []ExhibitVisit
	Spending        Spending
	Feedback        *Feedback
	GroupSize       int
	Weather         string
}

// RecordVisit agrega la visita al historial y recalcula los agregados en el
// mismo guardado.
func (s *Service) RecordVisit(ctx context.Context, id string, in VisitInput) (Visitor, error) {
	ctx, span := tracer.Start(ctx, "visitors.RecordVisit")
	defer span.End()
	span.SetAttributes(attribute.String("visitor.id", id))

	visit, err := s.newVisit(in)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Visitor{}, err
	}

	v, err := s.mutate(ctx, id, func(v *Visitor) error {
		if !v.IsActive {
			return ErrInactive
		}
		v.VisitHistory = append(v.VisitHistory, visit)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Visitor{}, err
	}
	span.SetAttributes(
		attribute.Int("visitor.total_visits", v.TotalVisits),
		attribute.String("visitor.vip_level", string(v.VIPLevel)),
	)

	logger.FromContext(ctx).Info("visit recorded", map[string]any{
		"visitor_id":  v.ID,
		"total_spent": v.TotalSpent,
		"vip_level":   string(v.VIPLevel),
	})
	events.Emit(ctx, s.publisher, events.TopicVisitRecorded, v.ID, visitEvent{
		VisitorID:  v.ID,
		VisitID:    visit.ID,
		Spent:      visit.Spending.Total,
		TotalSpent: v.TotalSpent,
		VIPLevel:   v.VIPLevel,
	})
	if s.onChange != nil {
		s.onChange(ctx)
	}
	return v, nil
}

// AddLoyaltyPoints suma puntos positivos al saldo.
func (s *Service) AddLoyaltyPoints(ctx context.Context, id string, points int, reason string) (Visitor, error) {
	if points <= 0 {
		return Visitor{}, sentinel.Invalid("valid points amount is required")
	}
	v, err := s.mutate(ctx, id, func(v *Visitor) error {
		v.LoyaltyPoints += points
		return nil
	})
	if err != nil {
		return Visitor{}, err
	}
	logger.FromContext(ctx).Info("loyalty points added", map[string]any{
		"visitor_id": v.ID,
		"points":     points,
		"reason":     strings.TrimSpace(reason),
	})
	return v, nil
}

// AppendTicket guarda el resumen del ticket comprado en el visitante.
func (s *Service) AppendTicket(ctx context.Context, id string, t TicketSummary) (Visitor, error) {
	if strings.TrimSpace(t.TicketID) == "" {
		return Visitor{}, sentinel.Invalid("ticket id is required")
	}
	return s.mutate(ctx, id, func(v *Visitor) error {
		v.Tickets = append(v.Tickets, t)
		return nil
	})
}

// mutate relee, aplica fn, recalcula los agregados y guarda con chequeo de
// versión, reintentando ante ErrConflict.
func (s *Service) mutate(ctx context.Context, id string, fn func(*Visitor) error) (Visitor, error) {
	var lastErr error
	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		v, err := s.GetByID(ctx, id)
		if err != nil {
			return Visitor{}, err
		}
		if err := fn(&v); err != nil {
			return Visitor{}, err
		}
		Recalculate(&v)
		v.UpdatedAt = s.now()

		saved, err := s.repo.Save(ctx, v)
		if err == nil {
			return saved, nil
		}
		if !errors.Is(err, sentinel.ErrConflict) {
			if errors.Is(err, sentinel.ErrNotFound) {
				return Visitor{}, ErrNotFound
			}
			return Visitor{}, err
		}
		lastErr = err
	}
	return Visitor{}, lastErr
}

func (s *Service) newVisit(in VisitInput) (Visit, error) {
	now := s.now()
	visit := Visit{
		ID:              uuid.NewString(),
		VisitDate:       now,
		EntryTime:       in.EntryTime,
		ExitTime:        in.ExitTime,
		Duration:        in.Duration,
		ExhibitsVisited: in.ExhibitsVisited,
		Spending:        in.Spending,
		Feedback:        in.Feedback,
		GroupSize:       in.GroupSize,
		Weather:         strings.TrimSpace(in.Weather),
		CreatedAt:       now,
	}
	if in.VisitDate != nil {
		if in.VisitDate.After(now) {
			return Visit{}, sentinel.Invalid("visit_date cannot be in the future")
		}
		visit.VisitDate = *in.VisitDate
	}
	if visit.ExhibitsVisited == nil {
		visit.ExhibitsVisited = []ExhibitVisit{}
	}
	if visit.GroupSize == 0 {
		visit.GroupSize = 1
	}
	if visit.GroupSize < 1 {
		return Visit{}, sentinel.Invalid("group_size must be >= 1")
	}
	if visit.Duration < 0 {
		return Visit{}, sentinel.Invalid("duration must be >= 0")
	}
	if visit.Duration == 0 && visit.EntryTime != nil && visit.ExitTime != nil {
		if visit.ExitTime.Before(*visit.EntryTime) {
			return Visit{}, sentinel.Invalid("exit_time must be after entry_time")
		}
		visit.Duration = int(visit.ExitTime.Sub(*visit.EntryTime).Minutes())
	}

	sp := visit.Spending
	if sp.Food < 0 || sp.Souvenirs < 0 || sp.Activities < 0 || sp.Total < 0 {
		return Visit{}, sentinel.Invalid("spending amounts must be >= 0")
	}
	if sp.Total == 0 {
		visit.Spending.Total = sp.Food + sp.Souvenirs + sp.Activities
	}
	if visit.Feedback != nil && (visit.Feedback.Rating < 1 || visit.Feedback.Rating > 5) {
		return Visit{}, sentinel.Invalid("feedback rating must be 1-5")
	}
	return visit, nil
}

type visitEvent struct {
	VisitorID  string   `json:"visitor_id"`
	VisitID    string   `json:"visit_id"`
	Spent      float64  `json:"spent"`
	TotalSpent float64  `json:"total_spent"`
	VIPLevel   VIPLevel `json:"vip_level"`
}

type contactInput struct {
	FirstName   *string
	LastName    *string
	Email       *string
	Phone       *string
	DateOfBirth *time.Time
	Gender      *Gender
}

func applyContact(v *Visitor, in contactInput, now time.Time) error {
	if in.FirstName != nil {
		name := strings.TrimSpace(*in.FirstName)
		if name == "" || len(name) > 50 {
			return sentinel.Invalid("first_name is required (max 50 chars)")
		}
		v.FirstName = name
	}
	if in.LastName != nil {
		name := strings.TrimSpace(*in.LastName)
		if name == "" || len(name) > 50 {
			return sentinel.Invalid("last_name is required (max 50 chars)")
		}
		v.LastName = name
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if !emailRe.MatchString(email) {
			return sentinel.Invalid("please enter a valid email")
		}
		v.Email = email
	}
	if in.Phone != nil {
		phone := strings.TrimSpace(*in.Phone)
		if phone != "" && !phoneRe.MatchString(phone) {
			return sentinel.Invalid("please enter a valid phone number")
		}
		v.Phone = phone
	}
	if in.DateOfBirth != nil {
		if in.DateOfBirth.After(now) {
			return sentinel.Invalid("date_of_birth cannot be in the future")
		}
		dob := *in.DateOfBirth
		v.DateOfBirth = &dob
	}
	if in.Gender != nil {
		if !in.Gender.Valid() {
			return sentinel.Invalid("invalid gender")
		}
		v.Gender = *in.Gender
	}
	return nil
}

func normalizePreferences(p *Preferences) error {
	p.Interests = nonNil(p.Interests)
	p.AccessibilityNeeds = nonNil(p.AccessibilityNeeds)
	if p.Language == "" {
		p.Language = "en"
	}
	if p.CommunicationMethod == "" {
		p.CommunicationMethod = CommunicationEmail
	}
	if !p.CommunicationMethod.Valid() {
		return sentinel.Invalid("invalid communication method")
	}
	return nil
}

func validateMembership(m *Membership) error {
	if m == nil {
		return nil
	}
	if !m.Type.Valid() {
		return sentinel.Invalid("invalid membership type")
	}
	if m.StartDate.IsZero() || m.EndDate.IsZero() || m.EndDate.Before(m.StartDate) {
		return sentinel.Invalid("membership requires start_date <= end_date")
	}
	if m.DiscountPercentage < 0 || m.DiscountPercentage > 100 {
		return sentinel.Invalid("discount_percentage must be 0-100")
	}
	return nil
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
