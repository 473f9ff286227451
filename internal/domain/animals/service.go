package animals

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"zoo-management/internal/domain/exhibits"
	"zoo-management/internal/platform/logger"
	"zoo-management/internal/platform/sentinel"
	"zoo-management/internal/ports/events"
)

var (
	ErrNotFound        = sentinel.Wrap(sentinel.ErrNotFound, "animal not found")
	ErrExhibitNotFound = sentinel.Invalid("exhibit not found")
	ErrRetired         = sentinel.Invalid("animal is retired")
)

var hhmm = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

const maxSaveAttempts = 3

// Placement es el lado exhibit de la asignación: guard de capacidad y
// sincronización de ocupación.
type Placement interface {
	AssignAnimal(ctx context.Context, exhibitID, animalID string) (exhibits.Exhibit, error)
	ReleaseAnimal(ctx context.Context, exhibitID, animalID string) (exhibits.Exhibit, error)
}

type Service struct {
	repo            Repository
	placement       Placement
	publisher       events.Publisher
	onChange        func(ctx context.Context)
	feedingInterval time.Duration
	now             func() time.Time
}

type Option func(*Service)

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithFeedingInterval fija el intervalo entre comidas usado para next_feeding_due.
func WithFeedingInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.feedingInterval = d
		}
	}
}

// OnChange registra un callback que corre después de dar de alta un animal.
func OnChange(fn func(ctx context.Context)) Option {
	return func(s *Service) { s.onChange = fn }
}

func NewService(repo Repository, placement Placement, opts ...Option) *Service {
	s := &Service{
		repo:            repo,
		placement:       placement,
		feedingInterval: DefaultFeedingInterval,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CreateInput struct {
	Name                string
	Species             string
	ScientificName      string
	Gender              Gender
	BirthDate           time.Time
	ArrivalDate         *time.Time
	Origin              Origin
	ExhibitID           string
	Status              Status
	PhysicalDescription PhysicalDescription
	Temperament         Temperament
	Diet                Diet
	Tags                []string
	MicrochipID         string
	RFIDTag             string
	Notes               string
	IsEndangered        bool
	ConservationStatus  ConservationStatus
}

// Create reserva primero el lugar en el exhibit y después guarda el animal.
// Si el guardado falla el lugar se libera.
func (s *Service) Create(ctx context.Context, in CreateInput) (Animal, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Species = strings.TrimSpace(in.Species)
	in.ExhibitID = strings.TrimSpace(in.ExhibitID)
	if in.Name == "" || in.Species == "" {
		return Animal{}, sentinel.Invalid("name and species are required")
	}
	if !in.Gender.Valid() {
		return Animal{}, sentinel.Invalid("invalid gender")
	}
	if !in.Origin.Valid() {
		return Animal{}, sentinel.Invalid("invalid origin")
	}
	if in.ExhibitID == "" {
		return Animal{}, sentinel.Invalid("exhibit_id is required")
	}
	now := s.now()
	if in.BirthDate.IsZero() || in.BirthDate.After(now) {
		return Animal{}, sentinel.Invalid("birth_date is required and cannot be in the future")
	}
	if strings.TrimSpace(in.Diet.Primary) == "" || strings.TrimSpace(in.Diet.FeedingFrequency) == "" {
		return Animal{}, sentinel.Invalid("diet.primary and diet.feeding_frequency are required")
	}
	if in.Status == "" {
		in.Status = StatusActive
	}
	if !in.Status.Valid() {
		return Animal{}, sentinel.Invalid("invalid status")
	}
	if in.Temperament == "" {
		in.Temperament = TemperamentDocile
	}
	if !in.Temperament.Valid() {
		return Animal{}, sentinel.Invalid("invalid temperament")
	}
	if !in.ConservationStatus.Valid() {
		return Animal{}, sentinel.Invalid("invalid conservation status")
	}

	arrival := now
	if in.ArrivalDate != nil {
		arrival = *in.ArrivalDate
	}

	a := Animal{
		ID:                  uuid.NewString(),
		Name:                in.Name,
		Species:             in.Species,
		ScientificName:      strings.TrimSpace(in.ScientificName),
		Gender:              in.Gender,
		BirthDate:           in.BirthDate,
		ArrivalDate:         arrival,
		Origin:              in.Origin,
		ExhibitID:           in.ExhibitID,
		Status:              in.Status,
		PhysicalDescription: in.PhysicalDescription,
		Temperament:         in.Temperament,
		Diet:                normalizeDiet(in.Diet),
		MedicalRecords:      []MedicalRecord{},
		FeedingSchedule:     []FeedingScheduleEntry{},
		Tags:                nonNil(in.Tags),
		MicrochipID:         strings.TrimSpace(in.MicrochipID),
		RFIDTag:             strings.TrimSpace(in.RFIDTag),
		Notes:               strings.TrimSpace(in.Notes),
		IsEndangered:        in.IsEndangered,
		ConservationStatus:  in.ConservationStatus,
		IsActive:            true,
		Version:             1,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.assign(ctx, a.ExhibitID, a.ID); err != nil {
		return Animal{}, err
	}
	if err := s.repo.Create(ctx, a); err != nil {
		s.release(ctx, a.ExhibitID, a.ID)
		return Animal{}, err
	}

	logger.FromContext(ctx).Info("animal created", map[string]any{
		"animal_id":  a.ID,
		"species":    a.Species,
		"exhibit_id": a.ExhibitID,
	})
	s.emit(ctx, events.TopicAnimalAssigned, a.ID, placementEvent{AnimalID: a.ID, ExhibitID: a.ExhibitID})
	if s.onChange != nil {
		s.onChange(ctx)
	}
	return a, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Animal, error) {
	a, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if errors.Is(err, sentinel.ErrNotFound) {
		return Animal{}, ErrNotFound
	}
	return a, err
}

func (s *Service) List(ctx context.Context, f Filter) ([]Animal, int, error) {
	return s.repo.List(ctx, f)
}

// Search devuelve hasta 20 animales activos que coinciden con q.
func (s *Service) Search(ctx context.Context, q string) ([]Animal, error) {
	active := true
	items, _, err := s.repo.List(ctx, Filter{Query: strings.TrimSpace(q), IsActive: &active, Limit: 20})
	return items, err
}

// DueForHealthCheck lista los animales activos con el control vencido a now.
func (s *Service) DueForHealthCheck(ctx context.Context, offset, limit int) ([]Animal, int, error) {
	now := s.now()
	active := true
	return s.repo.List(ctx, Filter{HealthCheckDueAt: &now, IsActive: &active, Offset: offset, Limit: limit})
}

type UpdateInput struct {
	Name                *string
	Species             *string
	ScientificName      *string
	Gender              *Gender
	BirthDate           *time.Time
	Origin              *Origin
	ExhibitID           *string
	Status              *Status
	PhysicalDescription *PhysicalDescription
	Temperament         *Temperament
	Diet                *Diet
	Tags                *[]string
	MicrochipID         *string
	RFIDTag             *string
	Notes               *string
	IsEndangered        *bool
	ConservationStatus  *ConservationStatus
}

// Update aplica cambios parciales. Un cambio de exhibit reserva el lugar
// nuevo, guarda el animal y recién entonces libera el exhibit anterior.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Animal, error) {
	cur, err := s.GetByID(ctx, id)
	if err != nil {
		return Animal{}, err
	}
	if !cur.IsActive {
		return Animal{}, ErrRetired
	}

	oldExhibit := cur.ExhibitID
	newExhibit := ""
	if in.ExhibitID != nil {
		target := strings.TrimSpace(*in.ExhibitID)
		if target == "" {
			return Animal{}, sentinel.Invalid("exhibit_id cannot be empty")
		}
		if target != oldExhibit {
			newExhibit = target
		}
	}

	if newExhibit != "" {
		if err := s.assign(ctx, newExhibit, cur.ID); err != nil {
			return Animal{}, err
		}
	}

	updated, err := s.mutate(ctx, cur.ID, func(a *Animal) error {
		if newExhibit != "" {
			a.ExhibitID = newExhibit
		}
		return applyUpdate(a, in, s.now())
	})
	if err != nil {
		if newExhibit != "" {
			s.release(ctx, newExhibit, cur.ID)
		}
		return Animal{}, err
	}

	if newExhibit != "" {
		s.release(ctx, oldExhibit, cur.ID)
		s.emit(ctx, events.TopicAnimalReleased, cur.ID, placementEvent{AnimalID: cur.ID, ExhibitID: oldExhibit})
		s.emit(ctx, events.TopicAnimalAssigned, cur.ID, placementEvent{AnimalID: cur.ID, ExhibitID: newExhibit})
	}
	return updated, nil
}

// Retire saca al animal de su exhibit y lo da de baja (status retired,
// is_active=false). El documento se conserva por los registros que lo
// referencian.
func (s *Service) Retire(ctx context.Context, id string) error {
	var from string
	saved, err := s.mutate(ctx, id, func(a *Animal) error {
		from = a.ExhibitID
		a.IsActive = false
		if a.Status != StatusDeceased {
			a.Status = StatusRetired
		}
		a.ExhibitID = ""
		return nil
	})
	if err != nil {
		return err
	}
	if from == "" {
		return nil
	}

	// el animal ya no apunta al exhibit; liberar el cupo es lo último
	if _, err := s.placement.ReleaseAnimal(ctx, from, saved.ID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return err
	}
	s.emit(ctx, events.TopicAnimalReleased, saved.ID, placementEvent{AnimalID: saved.ID, ExhibitID: from})
	return nil
}

type FeedingEntryInput struct {
	Time                string
	FoodType            string
	Quantity            string
	SpecialInstructions string
}

func (s *Service) AddFeedingScheduleEntry(ctx context.Context, id string, in FeedingEntryInput) (FeedingScheduleEntry, error) {
	in.Time = strings.TrimSpace(in.Time)
	if !hhmm.MatchString(in.Time) {
		return FeedingScheduleEntry{}, sentinel.Invalid("time must be HH:MM")
	}
	if strings.TrimSpace(in.FoodType) == "" || strings.TrimSpace(in.Quantity) == "" {
		return FeedingScheduleEntry{}, sentinel.Invalid("food_type and quantity are required")
	}

	entry := FeedingScheduleEntry{
		ID:                  uuid.NewString(),
		Time:                in.Time,
		FoodType:            strings.TrimSpace(in.FoodType),
		Quantity:            strings.TrimSpace(in.Quantity),
		SpecialInstructions: strings.TrimSpace(in.SpecialInstructions),
	}
	_, err := s.mutate(ctx, id, func(a *Animal) error {
		a.FeedingSchedule = append(a.FeedingSchedule, entry)
		return nil
	})
	if err != nil {
		return FeedingScheduleEntry{}, err
	}
	return entry, nil
}

// RecordHealthCheck agrega el registro médico y recalcula last/next health check.
func (s *Service) RecordHealthCheck(ctx context.Context, id string, rec MedicalRecord) (Animal, error) {
	if rec.Date.IsZero() {
		return Animal{}, sentinel.Invalid("medical record date is required")
	}
	if strings.TrimSpace(rec.Veterinarian) == "" {
		return Animal{}, sentinel.Invalid("veterinarian is required")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Medication == nil {
		rec.Medication = []Medication{}
	}
	return s.mutate(ctx, id, func(a *Animal) error {
		a.MedicalRecords = append(a.MedicalRecords, rec)
		return nil
	})
}

// RecordFeeding marca la última comida y recalcula next_feeding_due.
func (s *Service) RecordFeeding(ctx context.Context, id string, at time.Time) (Animal, error) {
	return s.mutate(ctx, id, func(a *Animal) error {
		if a.LastFedAt != nil && a.LastFedAt.After(at) {
			return nil
		}
		a.LastFedAt = &at
		return nil
	})
}

// mutate relee, aplica fn, recalcula las fechas derivadas y guarda con
// chequeo de versión, reintentando ante ErrConflict.
func (s *Service) mutate(ctx context.Context, id string, fn func(*Animal) error) (Animal, error) {
	var lastErr error
	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		a, err := s.GetByID(ctx, id)
		if err != nil {
			return Animal{}, err
		}
		if err := fn(&a); err != nil {
			return Animal{}, err
		}
		Reschedule(&a, s.feedingInterval)
		a.UpdatedAt = s.now()

		saved, err := s.repo.Save(ctx, a)
		if err == nil {
			return saved, nil
		}
		if !errors.Is(err, sentinel.ErrConflict) {
			if errors.Is(err, sentinel.ErrNotFound) {
				return Animal{}, ErrNotFound
			}
			return Animal{}, err
		}
		lastErr = err
	}
	return Animal{}, lastErr
}

func (s *Service) assign(ctx context.Context, exhibitID, animalID string) error {
	_, err := s.placement.AssignAnimal(ctx, exhibitID, animalID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return ErrExhibitNotFound
	}
	return err
}

func (s *Service) release(ctx context.Context, exhibitID, animalID string) {
	if _, err := s.placement.ReleaseAnimal(ctx, exhibitID, animalID); err != nil {
		logger.FromContext(ctx).Error("release exhibit slot failed", map[string]any{
			"exhibit_id": exhibitID,
			"animal_id":  animalID,
			"error":      err.Error(),
		})
	}
}

type placementEvent struct {
	AnimalID  string `json:"animal_id"`
	ExhibitID string `json:"exhibit_id"`
}

func (s *Service) emit(ctx context.Context, topic, key string, payload any) {
	events.Emit(ctx, s.publisher, topic, key, payload)
}

func applyUpdate(a *Animal, in UpdateInput, now time.Time) error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return sentinel.Invalid("name cannot be empty")
		}
		a.Name = name
	}
	if in.Species != nil {
		species := strings.TrimSpace(*in.Species)
		if species == "" {
			return sentinel.Invalid("species cannot be empty")
		}
		a.Species = species
	}
	if in.ScientificName != nil {
		a.ScientificName = strings.TrimSpace(*in.ScientificName)
	}
	if in.Gender != nil {
		if !in.Gender.Valid() {
			return sentinel.Invalid("invalid gender")
		}
		a.Gender = *in.Gender
	}
	if in.BirthDate != nil {
		if in.BirthDate.After(now) {
			return sentinel.Invalid("birth_date cannot be in the future")
		}
		a.BirthDate = *in.BirthDate
	}
	if in.Origin != nil {
		if !in.Origin.Valid() {
			return sentinel.Invalid("invalid origin")
		}
		a.Origin = *in.Origin
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return sentinel.Invalid("invalid status")
		}
		a.Status = *in.Status
	}
	if in.PhysicalDescription != nil {
		a.PhysicalDescription = *in.PhysicalDescription
	}
	if in.Temperament != nil {
		if !in.Temperament.Valid() {
			return sentinel.Invalid("invalid temperament")
		}
		a.Temperament = *in.Temperament
	}
	if in.Diet != nil {
		if strings.TrimSpace(in.Diet.Primary) == "" || strings.TrimSpace(in.Diet.FeedingFrequency) == "" {
			return sentinel.Invalid("diet.primary and diet.feeding_frequency are required")
		}
		a.Diet = normalizeDiet(*in.Diet)
	}
	if in.Tags != nil {
		a.Tags = nonNil(*in.Tags)
	}
	if in.MicrochipID != nil {
		a.MicrochipID = strings.TrimSpace(*in.MicrochipID)
	}
	if in.RFIDTag != nil {
		a.RFIDTag = strings.TrimSpace(*in.RFIDTag)
	}
	if in.Notes != nil {
		a.Notes = strings.TrimSpace(*in.Notes)
	}
	if in.IsEndangered != nil {
		a.IsEndangered = *in.IsEndangered
	}
	if in.ConservationStatus != nil {
		if !in.ConservationStatus.Valid() {
			return sentinel.Invalid("invalid conservation status")
		}
		a.ConservationStatus = *in.ConservationStatus
	}
	return nil
}

func normalizeDiet(d Diet) Diet {
	d.Primary = strings.TrimSpace(d.Primary)
	d.FeedingFrequency = strings.TrimSpace(d.FeedingFrequency)
	d.Secondary = nonNil(d.Secondary)
	d.Restrictions = nonNil(d.Restrictions)
	return d
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
