package health

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"zoo-management/internal/domain/animals"
	"zoo-management/internal/platform/logger"
	"zoo-management/internal/platform/sentinel"
)

var (
	ErrNotFound       = sentinel.Wrap(sentinel.ErrNotFound, "health record not found")
	ErrAnimalNotFound = sentinel.Invalid("animal not found")
)

// AnimalBook es lo que health necesita del módulo de animales.
type AnimalBook interface {
	GetByID(ctx context.Context, id string) (animals.Animal, error)
	RecordHealthCheck(ctx context.Context, id string, rec animals.MedicalRecord) (animals.Animal, error)
	DueForHealthCheck(ctx context.Context, offset, limit int) ([]animals.Animal, int, error)
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
	AnimalID         string
	Date             *time.Time
	Veterinarian     string
	Type             Type
	Diagnosis        string
	Treatment        string
	Medication       []Medication
	Vitals           Vitals
	LabResults       []LabResult
	Notes            string
	Cost             float64
	FollowUpDate     *time.Time
	FollowUpRequired bool
	Status           Status
}

// Create guarda el registro y lo agrega al historial del animal, lo que
// recalcula last/next health check. Un animal inexistente es error de
// validación (400).
func (s *Service) Create(ctx context.Context, in CreateInput) (Record, error) {
	return s.create(ctx, in, ErrAnimalNotFound)
}

// CreateForAnimal es Create con el animal tomado de la ruta: si no existe
// devuelve NotFound (404).
func (s *Service) CreateForAnimal(ctx context.Context, animalID string, in CreateInput) (Record, error) {
	in.AnimalID = animalID
	return s.create(ctx, in, animals.ErrNotFound)
}

func (s *Service) create(ctx context.Context, in CreateInput, missing error) (Record, error) {
	in.AnimalID = strings.TrimSpace(in.AnimalID)
	in.Veterinarian = strings.TrimSpace(in.Veterinarian)
	in.Diagnosis = strings.TrimSpace(in.Diagnosis)
	in.Treatment = strings.TrimSpace(in.Treatment)
	if in.AnimalID == "" {
		return Record{}, sentinel.Invalid("animal_id is required")
	}
	if in.Veterinarian == "" || in.Diagnosis == "" || in.Treatment == "" {
		return Record{}, sentinel.Invalid("veterinarian, diagnosis and treatment are required")
	}
	if in.Type == "" {
		in.Type = TypeCheckup
	}
	if !in.Type.Valid() {
		return Record{}, sentinel.Invalid("invalid health record type")
	}
	if in.Status == "" {
		in.Status = StatusCompleted
	}
	if !in.Status.Valid() {
		return Record{}, sentinel.Invalid("invalid health record status")
	}
	if in.Cost < 0 {
		return Record{}, sentinel.Invalid("cost must be >= 0")
	}
	if err := validateMedication(in.Medication); err != nil {
		return Record{}, err
	}

	animal, err := s.animals.GetByID(ctx, in.AnimalID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Record{}, missing
		}
		return Record{}, err
	}

	now := s.now()
	date := now
	if in.Date != nil {
		date = *in.Date
	}
	rec := Record{
		ID:               uuid.NewString(),
		AnimalID:         animal.ID,
		AnimalName:       animal.Name,
		Date:             date,
		Veterinarian:     in.Veterinarian,
		Type:             in.Type,
		Diagnosis:        in.Diagnosis,
		Treatment:        in.Treatment,
		Medication:       nonNilMedication(in.Medication),
		Vitals:           in.Vitals,
		LabResults:       nonNilLabs(in.LabResults),
		Notes:            strings.TrimSpace(in.Notes),
		Cost:             in.Cost,
		FollowUpDate:     in.FollowUpDate,
		FollowUpRequired: in.FollowUpRequired || in.FollowUpDate != nil && in.Status == StatusPendingFollowUp,
		Status:           in.Status,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		return Record{}, err
	}
	if _, err := s.animals.RecordHealthCheck(ctx, animal.ID, toMedicalRecord(rec)); err != nil {
		// sin el historial del animal el registro quedaría huérfano del cálculo
		if derr := s.repo.Delete(ctx, rec.ID); derr != nil {
			logger.FromContext(ctx).Error("rollback health record failed", map[string]any{
				"health_record_id": rec.ID,
				"error":            derr.Error(),
			})
		}
		return Record{}, err
	}

	logger.FromContext(ctx).Info("health record created", map[string]any{
		"health_record_id": rec.ID,
		"animal_id":        rec.AnimalID,
		"type":             string(rec.Type),
	})
	return rec, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Record, error) {
	rec, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if errors.Is(err, sentinel.ErrNotFound) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

func (s *Service) List(ctx context.Context, f Filter) ([]Record, int, error) {
	return s.repo.List(ctx, f)
}

func (s *Service) Search(ctx context.Context, q string) ([]Record, error) {
	items, _, err := s.repo.List(ctx, Filter{Query: strings.TrimSpace(q), Limit: 20})
	return items, err
}

// DueAnimals son los animales cuyo next_health_check ya pasó.
func (s *Service) DueAnimals(ctx context.Context, offset, limit int) ([]animals.Animal, int, error) {
	return s.animals.DueForHealthCheck(ctx, offset, limit)
}

func (s *Service) FollowUpsDue(ctx context.Context, offset, limit int) ([]Record, int, error) {
	now := s.now()
	return s.repo.List(ctx, Filter{FollowUpDueAt: &now, Offset: offset, Limit: limit})
}

func (s *Service) ScheduleFollowUp(ctx context.Context, id string, date time.Time) (Record, error) {
	if date.IsZero() {
		return Record{}, sentinel.Invalid("follow_up_date is required")
	}
	rec, err := s.GetByID(ctx, id)
	if err != nil {
		return Record{}, err
	}
	rec.FollowUpDate = &date
	rec.FollowUpRequired = true
	rec.Status = StatusPendingFollowUp
	rec.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

type UpdateInput struct {
	Date             *time.Time
	Veterinarian     *string
	Type             *Type
	Diagnosis        *string
	Treatment        *string
	Medication       *[]Medication
	Vitals           *Vitals
	LabResults       *[]LabResult
	Notes            *string
	Cost             *float64
	FollowUpDate     *time.Time
	FollowUpRequired *bool
	Status           *Status
}

// Update no permite cambiar el animal del registro.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Record, error) {
	rec, err := s.GetByID(ctx, id)
	if err != nil {
		return Record{}, err
	}

	if in.Date != nil {
		rec.Date = *in.Date
	}
	if in.Veterinarian != nil {
		v := strings.TrimSpace(*in.Veterinarian)
		if v == "" {
			return Record{}, sentinel.Invalid("veterinarian cannot be empty")
		}
		rec.Veterinarian = v
	}
	if in.Type != nil {
		if !in.Type.Valid() {
			return Record{}, sentinel.Invalid("invalid health record type")
		}
		rec.Type = *in.Type
	}
	if in.Diagnosis != nil {
		rec.Diagnosis = strings.TrimSpace(*in.Diagnosis)
	}
	if in.Treatment != nil {
		rec.Treatment = strings.TrimSpace(*in.Treatment)
	}
	if in.Medication != nil {
		if err := validateMedication(*in.Medication); err != nil {
			return Record{}, err
		}
		rec.Medication = nonNilMedication(*in.Medication)
	}
	if in.Vitals != nil {
		rec.Vitals = *in.Vitals
	}
	if in.LabResults != nil {
		rec.LabResults = nonNilLabs(*in.LabResults)
	}
	if in.Notes != nil {
		rec.Notes = strings.TrimSpace(*in.Notes)
	}
	if in.Cost != nil {
		if *in.Cost < 0 {
			return Record{}, sentinel.Invalid("cost must be >= 0")
		}
		rec.Cost = *in.Cost
	}
	if in.FollowUpDate != nil {
		rec.FollowUpDate = in.FollowUpDate
	}
	if in.FollowUpRequired != nil {
		rec.FollowUpRequired = *in.FollowUpRequired
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return Record{}, sentinel.Invalid("invalid health record status")
		}
		rec.Status = *in.Status
	}
	if rec.Diagnosis == "" || rec.Treatment == "" {
		return Record{}, sentinel.Invalid("diagnosis and treatment cannot be empty")
	}

	rec.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, rec); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return rec, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.repo.Delete(ctx, strings.TrimSpace(id))
	if errors.Is(err, sentinel.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func toMedicalRecord(rec Record) animals.MedicalRecord {
	meds := make([]animals.Medication, 0, len(rec.Medication))
	for _, m := range rec.Medication {
		meds = append(meds, animals.Medication{
			Name:      m.Name,
			Dosage:    m.Dosage,
			Frequency: m.Frequency,
			Duration:  m.Duration,
		})
	}
	return animals.MedicalRecord{
		ID:             uuid.NewString(),
		HealthRecordID: rec.ID,
		Date:           rec.Date,
		Veterinarian:   rec.Veterinarian,
		Diagnosis:      rec.Diagnosis,
		Treatment:      rec.Treatment,
		Medication:     meds,
		Notes:          rec.Notes,
		FollowUpDate:   rec.FollowUpDate,
		Cost:           rec.Cost,
	}
}

func validateMedication(meds []Medication) error {
	for _, m := range meds {
		if strings.TrimSpace(m.Name) == "" || strings.TrimSpace(m.Dosage) == "" || strings.TrimSpace(m.Frequency) == "" {
			return sentinel.Invalid("medication requires name, dosage and frequency")
		}
	}
	return nil
}

func nonNilMedication(in []Medication) []Medication {
	if in == nil {
		return []Medication{}
	}
	return in
}

func nonNilLabs(in []LabResult) []LabResult {
	if in == nil {
		return []LabResult{}
	}
	return in
}
