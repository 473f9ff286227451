package exhibits

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
	"zoo-management/internal/platform/metrics"
	"zoo-management/internal/platform/sentinel"
)

var (
	ErrNotFound      = sentinel.Wrap(sentinel.ErrNotFound, "exhibit not found")
	ErrHasAnimals    = sentinel.Invalid("cannot delete exhibit with animals, relocate animals first")
	ErrInactive      = sentinel.Invalid("exhibit is not active")
	ErrCapacityBelow = sentinel.Invalid("capacity.animals cannot be lower than the current number of animals")
)

var hhmm = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

var tracer = otel.Tracer("zoo-management/internal/domain/exhibits")

const maxSaveAttempts = 3

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type CreateInput struct {
	Name                  string
	Type                  Type
	Theme                 string
	Description           string
	Capacity              Capacity
	Size                  Size
	Location              Location
	Features              []string
	EnvironmentalControls EnvironmentalControls
	OperatingHours        OperatingHours
	AdmissionFee          AdmissionFee
	Status                Status
	Notes                 string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Exhibit, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Theme = strings.TrimSpace(in.Theme)
	if in.Name == "" {
		return Exhibit{}, sentinel.Invalid("name is required")
	}
	if !in.Type.Valid() {
		return Exhibit{}, sentinel.Invalid("invalid exhibit type")
	}
	if in.Theme == "" {
		return Exhibit{}, sentinel.Invalid("theme is required")
	}
	if in.Capacity.Animals < 0 || in.Capacity.Visitors < 0 {
		return Exhibit{}, sentinel.Invalid("capacity must be >= 0")
	}
	if in.Status == "" {
		in.Status = StatusOpen
	}
	if !in.Status.Valid() {
		return Exhibit{}, sentinel.Invalid("invalid exhibit status")
	}
	if err := validateHours(in.OperatingHours); err != nil {
		return Exhibit{}, err
	}

	now := s.now()
	e := Exhibit{
		ID:                    uuid.NewString(),
		Name:                  in.Name,
		Type:                  in.Type,
		Theme:                 in.Theme,
		Description:           strings.TrimSpace(in.Description),
		Capacity:              in.Capacity,
		Size:                  in.Size,
		Location:              in.Location,
		Features:              nonNil(in.Features),
		EnvironmentalControls: in.EnvironmentalControls,
		MaintenanceRecords:    []MaintenanceRecord{},
		Animals:               []string{},
		Staff:                 []StaffAssignment{},
		OperatingHours:        in.OperatingHours,
		AdmissionFee:          in.AdmissionFee,
		Status:                in.Status,
		Notes:                 strings.TrimSpace(in.Notes),
		IsActive:              true,
		Version:               1,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	e.OperatingHours.Days = nonNil(e.OperatingHours.Days)

	if err := s.repo.Create(ctx, e); err != nil {
		return Exhibit{}, err
	}
	return e, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Exhibit, error) {
	e, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if errors.Is(err, sentinel.ErrNotFound) {
		return Exhibit{}, ErrNotFound
	}
	return e, err
}

func (s *Service) List(ctx context.Context, f Filter) ([]Exhibit, int, error) {
	return s.repo.List(ctx, f)
}

// Search devuelve hasta 20 exhibits activos que coinciden con q.
func (s *Service) Search(ctx context.Context, q string) ([]Exhibit, error) {
	active := true
	items, _, err := s.repo.List(ctx, Filter{Query: strings.TrimSpace(q), IsActive: &active, Limit: 20})
	return items, err
}

type UpdateInput struct {
	Name           *string
	Theme          *string
	Description    *string
	Capacity       *Capacity
	Size           *Size
	Location       *Location
	Features       *[]string
	OperatingHours *OperatingHours
	AdmissionFee   *AdmissionFee
	Status         *Status
	Notes          *string
	// CurrentVisitors actualiza el contador de visitantes (no el de animales).
	CurrentVisitors *int
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Exhibit, error) {
	return s.mutate(ctx, id, func(e *Exhibit) error {
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return sentinel.Invalid("name cannot be empty")
			}
			e.Name = name
		}
		if in.Theme != nil {
			theme := strings.TrimSpace(*in.Theme)
			if theme == "" {
				return sentinel.Invalid("theme cannot be empty")
			}
			e.Theme = theme
		}
		if in.Description != nil {
			e.Description = strings.TrimSpace(*in.Description)
		}
		if in.Capacity != nil {
			if in.Capacity.Animals < 0 || in.Capacity.Visitors < 0 {
				return sentinel.Invalid("capacity must be >= 0")
			}
			if in.Capacity.Animals < len(e.Animals) {
				return ErrCapacityBelow
			}
			e.Capacity = *in.Capacity
		}
		if in.CurrentVisitors != nil {
			if *in.CurrentVisitors < 0 || *in.CurrentVisitors > e.Capacity.Visitors {
				return sentinel.Invalid("current visitors must be between 0 and capacity.visitors")
			}
			e.CurrentOccupancy.Visitors = *in.CurrentVisitors
		}
		if in.Size != nil {
			e.Size = *in.Size
		}
		if in.Location != nil {
			e.Location = *in.Location
		}
		if in.Features != nil {
			e.Features = nonNil(*in.Features)
		}
		if in.OperatingHours != nil {
			if err := validateHours(*in.OperatingHours); err != nil {
				return err
			}
			e.OperatingHours = *in.OperatingHours
			e.OperatingHours.Days = nonNil(e.OperatingHours.Days)
		}
		if in.AdmissionFee != nil {
			e.AdmissionFee = *in.AdmissionFee
		}
		if in.Status != nil {
			if !in.Status.Valid() {
				return sentinel.Invalid("invalid exhibit status")
			}
			e.Status = *in.Status
		}
		if in.Notes != nil {
			e.Notes = strings.TrimSpace(*in.Notes)
		}
		return nil
	})
}

// Retire da de baja el exhibit (is_active=false, status closed). Se rechaza
// mientras tenga animales asignados.
func (s *Service) Retire(ctx context.Context, id string) error {
	_, err := s.mutate(ctx, id, func(e *Exhibit) error {
		if len(e.Animals) > 0 {
			return ErrHasAnimals
		}
		e.IsActive = false
		e.Status = StatusClosed
		return nil
	})
	return err
}

// AssignAnimal es el guard de capacidad: agrega el animal solo si hay lugar.
// Rechazos no modifican el exhibit.
func (s *Service) AssignAnimal(ctx context.Context, exhibitID, animalID string) (Exhibit, error) {
	ctx, span := tracer.Start(ctx, "exhibits.AssignAnimal")
	defer span.End()
	span.SetAttributes(attribute.String("exhibit.id", exhibitID), attribute.String("animal.id", animalID))

	if strings.TrimSpace(exhibitID) == "" || strings.TrimSpace(animalID) == "" {
		return Exhibit{}, sentinel.Invalid("exhibit id and animal id are required")
	}

	e, err := s.repo.AttachAnimal(ctx, exhibitID, animalID, s.now())
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			err = ErrNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, sentinel.ErrCapacityExceeded) {
			metrics.CapacityRejected()
			logger.FromContext(ctx).Info("exhibit full, assignment rejected", map[string]any{
				"exhibit_id": exhibitID,
				"animal_id":  animalID,
			})
		}
		return Exhibit{}, err
	}
	return e, nil
}

func (s *Service) ReleaseAnimal(ctx context.Context, exhibitID, animalID string) (Exhibit, error) {
	e, err := s.repo.DetachAnimal(ctx, exhibitID, animalID, s.now())
	if errors.Is(err, sentinel.ErrNotFound) {
		return Exhibit{}, ErrNotFound
	}
	return e, err
}

type MaintenanceInput struct {
	Date                *time.Time
	Type                MaintenanceType
	Description         string
	PerformedBy         string
	Cost                float64
	NextMaintenanceDate *time.Time
}

// AddMaintenance registra un mantenimiento. Uno de tipo inspection mueve
// last_inspection y recalcula next_inspection.
func (s *Service) AddMaintenance(ctx context.Context, id string, in MaintenanceInput) (Exhibit, error) {
	if !in.Type.Valid() {
		return Exhibit{}, sentinel.Invalid("invalid maintenance type")
	}
	if strings.TrimSpace(in.Description) == "" {
		return Exhibit{}, sentinel.Invalid("description is required")
	}
	if in.Cost < 0 {
		return Exhibit{}, sentinel.Invalid("cost must be >= 0")
	}

	return s.mutate(ctx, id, func(e *Exhibit) error {
		date := s.now()
		if in.Date != nil {
			date = *in.Date
		}
		e.MaintenanceRecords = append(e.MaintenanceRecords, MaintenanceRecord{
			ID:                  uuid.NewString(),
			Date:                date,
			Type:                in.Type,
			Description:         strings.TrimSpace(in.Description),
			PerformedBy:         strings.TrimSpace(in.PerformedBy),
			Cost:                in.Cost,
			NextMaintenanceDate: in.NextMaintenanceDate,
		})
		if in.Type == MaintenanceInspection {
			e.LastInspection = &date
		}
		return nil
	})
}

type EnvironmentPatch struct {
	Temperature  *Range
	Humidity     *Range
	Lighting     *string
	WaterQuality *string
}

// UpdateEnvironment mezcla los controles ambientales (solo lo enviado).
func (s *Service) UpdateEnvironment(ctx context.Context, id string, in EnvironmentPatch) (Exhibit, error) {
	return s.mutate(ctx, id, func(e *Exhibit) error {
		ec := &e.EnvironmentalControls
		if in.Temperature != nil {
			ec.Temperature = mergeRange(ec.Temperature, *in.Temperature)
		}
		if in.Humidity != nil {
			ec.Humidity = mergeRange(ec.Humidity, *in.Humidity)
		}
		if in.Lighting != nil {
			ec.Lighting = strings.TrimSpace(*in.Lighting)
		}
		if in.WaterQuality != nil {
			ec.WaterQuality = strings.TrimSpace(*in.WaterQuality)
		}
		now := s.now()
		ec.LastChecked = &now
		return nil
	})
}

func (s *Service) AssignStaff(ctx context.Context, id, staffID, role string) (Exhibit, error) {
	staffID = strings.TrimSpace(staffID)
	if staffID == "" {
		return Exhibit{}, sentinel.Invalid("staff id is required")
	}
	return s.mutate(ctx, id, func(e *Exhibit) error {
		for _, a := range e.Staff {
			if a.StaffID == staffID {
				return sentinel.Wrap(sentinel.ErrDuplicateKey, "staff member already assigned to this exhibit")
			}
		}
		e.Staff = append(e.Staff, StaffAssignment{
			StaffID:    staffID,
			Role:       strings.TrimSpace(role),
			AssignedAt: s.now(),
		})
		return nil
	})
}

func (s *Service) RemoveStaff(ctx context.Context, id, staffID string) (Exhibit, error) {
	return s.mutate(ctx, id, func(e *Exhibit) error {
		kept := make([]StaffAssignment, 0, len(e.Staff))
		for _, a := range e.Staff {
			if a.StaffID != staffID {
				kept = append(kept, a)
			}
		}
		if len(kept) == len(e.Staff) {
			return sentinel.Wrap(sentinel.ErrNotFound, "staff member not assigned to this exhibit")
		}
		e.Staff = kept
		return nil
	})
}

// mutate es el único camino de guardado para cambios administrativos:
// relee, aplica fn, recalcula derivados y guarda con chequeo de versión.
func (s *Service) mutate(ctx context.Context, id string, fn func(*Exhibit) error) (Exhibit, error) {
	var lastErr error
	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		e, err := s.GetByID(ctx, id)
		if err != nil {
			return Exhibit{}, err
		}
		if err := fn(&e); err != nil {
			return Exhibit{}, err
		}
		recompute(&e)
		e.UpdatedAt = s.now()

		saved, err := s.repo.Save(ctx, e)
		if err == nil {
			return saved, nil
		}
		if !errors.Is(err, sentinel.ErrConflict) {
			if errors.Is(err, sentinel.ErrNotFound) {
				return Exhibit{}, ErrNotFound
			}
			return Exhibit{}, err
		}
		lastErr = err
	}
	return Exhibit{}, lastErr
}

// recompute deriva next_inspection y la ocupación de animales.
func recompute(e *Exhibit) {
	syncOccupancy(e)
	if e.LastInspection != nil {
		next := e.LastInspection.AddDate(0, InspectionInterval, 0)
		e.NextInspection = &next
	} else {
		e.NextInspection = nil
	}
}

func mergeRange(cur, patch Range) Range {
	if patch.Min != nil {
		cur.Min = patch.Min
	}
	if patch.Max != nil {
		cur.Max = patch.Max
	}
	if patch.Current != nil {
		cur.Current = patch.Current
	}
	return cur
}

func validateHours(h OperatingHours) error {
	if h.Open != "" && !hhmm.MatchString(h.Open) {
		return sentinel.Invalid("operating_hours.open must be HH:MM")
	}
	if h.Close != "" && !hhmm.MatchString(h.Close) {
		return sentinel.Invalid("operating_hours.close must be HH:MM")
	}
	return nil
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
