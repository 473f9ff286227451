package feedings

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"zoo-management/internal/domain/animals"
	"zoo-management/internal/platform/logger"
	"zoo-management/internal/platform/sentinel"
)

var (
	ErrNotFound         = sentinel.Wrap(sentinel.ErrNotFound, "feeding not found")
	ErrAnimalNotFound   = sentinel.Invalid("animal not found")
	ErrAlreadyCompleted = sentinel.Wrap(sentinel.ErrAlreadyFinalized, "feeding already marked as completed")
)

var hhmm = regexp.MustCompile(`^([01]?\d|2[0-3]):[0-5]\d$`)

// AnimalBook es lo que feedings necesita del módulo de animales.
type AnimalBook interface {
	GetByID(ctx context.Context, id string) (animals.Animal, error)
	RecordFeeding(ctx context.Context, id string, at time.Time) (animals.Animal, error)
}

type Service struct {
	repo    Repository
	animals AnimalBook
	now     func() time.Time
}

func NewService(repo Repository, animals AnimalBook) *Service {
	return &Service{
		repo:    repo,
		animals: animals,
		now:     time.Now,
	}
}

type CreateInput struct {
	AnimalID            string
	FoodType            string
	Quantity            string
	ScheduledTime       string
	SpecialInstructions string
	Notes               string
}

// Create copia nombre y exhibit del animal al momento del alta.
func (s *Service) Create(ctx context.Context, in CreateInput) (Feeding, error) {
	in.AnimalID = strings.TrimSpace(in.AnimalID)
	in.FoodType = strings.TrimSpace(in.FoodType)
	in.Quantity = strings.TrimSpace(in.Quantity)
	in.ScheduledTime = strings.TrimSpace(in.ScheduledTime)
	if in.AnimalID == "" {
		return Feeding{}, sentinel.Invalid("animal_id is required")
	}
	if in.FoodType == "" || in.Quantity == "" {
		return Feeding{}, sentinel.Invalid("food_type and quantity are required")
	}
	if !hhmm.MatchString(in.ScheduledTime) {
		return Feeding{}, sentinel.Invalid("scheduled_time must be HH:MM")
	}

	animal, err := s.animals.GetByID(ctx, in.AnimalID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Feeding{}, ErrAnimalNotFound
		}
		return Feeding{}, err
	}

	now := s.now()
	f := Feeding{
		ID:                  uuid.NewString(),
		AnimalID:            animal.ID,
		AnimalName:          animal.Name,
		ExhibitID:           animal.ExhibitID,
		FoodType:            in.FoodType,
		Quantity:            in.Quantity,
		ScheduledTime:       padTime(in.ScheduledTime),
		SpecialInstructions: strings.TrimSpace(in.SpecialInstructions),
		Notes:               strings.TrimSpace(in.Notes),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.repo.Create(ctx, f); err != nil {
		return Feeding{}, err
	}
	return f, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Feeding, error) {
	f, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if errors.Is(err, sentinel.ErrNotFound) {
		return Feeding{}, ErrNotFound
	}
	return f, err
}

func (s *Service) List(ctx context.Context, f Filter) ([]Feeding, int, error) {
	return s.repo.List(ctx, f)
}

func (s *Service) Pending(ctx context.Context, offset, limit int) ([]Feeding, int, error) {
	pending := false
	return s.repo.List(ctx, Filter{Completed: &pending, Offset: offset, Limit: limit})
}

// Today devuelve las alimentaciones creadas en el día calendario de now.
func (s *Service) Today(ctx context.Context, offset, limit int) ([]Feeding, int, error) {
	from, to := dayBounds(s.now())
	return s.repo.List(ctx, Filter{CreatedFrom: &from, CreatedTo: &to, Offset: offset, Limit: limit})
}

type UpdateInput struct {
	FoodType            *string
	Quantity            *string
	ScheduledTime       *string
	SpecialInstructions *string
	Notes               *string
}

// Update solo aplica sobre alimentaciones pendientes.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Feeding, error) {
	f, err := s.GetByID(ctx, id)
	if err != nil {
		return Feeding{}, err
	}
	if f.Completed {
		return Feeding{}, ErrAlreadyCompleted
	}

	if in.FoodType != nil {
		v := strings.TrimSpace(*in.FoodType)
		if v == "" {
			return Feeding{}, sentinel.Invalid("food_type cannot be empty")
		}
		f.FoodType = v
	}
	if in.Quantity != nil {
		v := strings.TrimSpace(*in.Quantity)
		if v == "" {
			return Feeding{}, sentinel.Invalid("quantity cannot be empty")
		}
		f.Quantity = v
	}
	if in.ScheduledTime != nil {
		v := strings.TrimSpace(*in.ScheduledTime)
		if !hhmm.MatchString(v) {
			return Feeding{}, sentinel.Invalid("scheduled_time must be HH:MM")
		}
		f.ScheduledTime = padTime(v)
	}
	if in.SpecialInstructions != nil {
		f.SpecialInstructions = strings.TrimSpace(*in.SpecialInstructions)
	}
	if in.Notes != nil {
		f.Notes = strings.TrimSpace(*in.Notes)
	}
	f.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, f); err != nil {
		return Feeding{}, s.mapErr(err)
	}
	return f, nil
}

// Complete marca la alimentación como hecha (una sola vez) y actualiza
// last_fed_at / next_feeding_due del animal.
func (s *Service) Complete(ctx context.Context, id, completedBy, notes string) (Feeding, error) {
	completedBy = strings.TrimSpace(completedBy)
	if completedBy == "" {
		return Feeding{}, sentinel.Invalid("completed_by is required")
	}

	f, err := s.repo.Complete(ctx, strings.TrimSpace(id), completedBy, strings.TrimSpace(notes), s.now())
	if err != nil {
		return Feeding{}, s.mapErr(err)
	}

	if _, err := s.animals.RecordFeeding(ctx, f.AnimalID, *f.CompletedAt); err != nil {
		// la alimentación ya quedó registrada; el animal pudo haberse dado de baja
		logger.FromContext(ctx).Warn("record feeding on animal failed", map[string]any{
			"feeding_id": f.ID,
			"animal_id":  f.AnimalID,
			"error":      err.Error(),
		})
	}
	return f, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.mapErr(s.repo.Delete(ctx, strings.TrimSpace(id)))
}

func (s *Service) mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, sentinel.ErrAlreadyFinalized):
		return ErrAlreadyCompleted
	}
	return err
}

// padTime normaliza "8:30" a "08:30" para que el orden lexicográfico sea el horario.
func padTime(t string) string {
	if len(t) == 4 {
		return "0" + t
	}
	return t
}

func dayBounds(now time.Time) (time.Time, time.Time) {
	y, m, d := now.Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return from, from.AddDate(0, 0, 1)
}
