package staff

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"zoo-management/internal/platform/logger"
	"zoo-management/internal/platform/sentinel"
)

var (
	ErrNotFound  = sentinel.Wrap(sentinel.ErrNotFound, "staff member not found")
	ErrDuplicate = sentinel.Wrap(sentinel.ErrDuplicateKey, "employee id or email already registered")
)

var (
	emailRe      = regexp.MustCompile(`^\w+([.+-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,})+$`)
	phoneRe      = regexp.MustCompile(`^\+?[1-9]\d{0,15}$`)
	employeeIDRe = regexp.MustCompile(`^[A-Z0-9-]{2,20}$`)
)

const maxNameLen = 50

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
	EmployeeID       string
	FirstName        string
	LastName         string
	Email            string
	Phone            string
	Role             Role
	Department       string
	Position         string
	HireDate         *time.Time
	Salary           float64
	EmergencyContact *EmergencyContact
	Certifications   []string
	Specializations  []string
	Languages        []string
	Notes            string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Staff, error) {
	now := s.now()
	st := Staff{
		ID:                 uuid.NewString(),
		EmployeeID:         strings.ToUpper(strings.TrimSpace(in.EmployeeID)),
		FirstName:          strings.TrimSpace(in.FirstName),
		LastName:           strings.TrimSpace(in.LastName),
		Email:              strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:              strings.TrimSpace(in.Phone),
		Role:               in.Role,
		Department:         strings.TrimSpace(in.Department),
		Position:           strings.TrimSpace(in.Position),
		Salary:             in.Salary,
		EmergencyContact:   in.EmergencyContact,
		Certifications:     cleanList(in.Certifications),
		Specializations:    cleanList(in.Specializations),
		Languages:          cleanList(in.Languages),
		TrainingRecords:    []TrainingRecord{},
		PerformanceReviews: []PerformanceReview{},
		IsActive:           true,
		Notes:              strings.TrimSpace(in.Notes),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	st.HireDate = now
	if in.HireDate != nil {
		st.HireDate = *in.HireDate
	}

	if !employeeIDRe.MatchString(st.EmployeeID) {
		return Staff{}, sentinel.Invalid("employee_id must be 2-20 letters, digits or dashes")
	}
	if err := validate(st); err != nil {
		return Staff{}, err
	}

	if err := s.repo.Create(ctx, st); err != nil {
		if errors.Is(err, sentinel.ErrDuplicateKey) {
			return Staff{}, ErrDuplicate
		}
		return Staff{}, err
	}
	logger.FromContext(ctx).Info("staff member created", map[string]any{
		"staff_id":    st.ID,
		"employee_id": st.EmployeeID,
	})
	return st, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Staff, error) {
	st, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if errors.Is(err, sentinel.ErrNotFound) {
		return Staff{}, ErrNotFound
	}
	return st, err
}

func (s *Service) List(ctx context.Context, f Filter) ([]Staff, int, error) {
	if f.Role != "" && !f.Role.Valid() {
		return nil, 0, sentinel.Invalid("invalid role")
	}
	return s.repo.List(ctx, f)
}

// ByRole y ByDepartment solo devuelven personal activo.
func (s *Service) ByRole(ctx context.Context, role Role, offset, limit int) ([]Staff, int, error) {
	active := true
	return s.List(ctx, Filter{Role: role, IsActive: &active, Offset: offset, Limit: limit})
}

func (s *Service) ByDepartment(ctx context.Context, department string, offset, limit int) ([]Staff, int, error) {
	active := true
	return s.List(ctx, Filter{Department: strings.TrimSpace(department), IsActive: &active, Offset: offset, Limit: limit})
}

func (s *Service) Search(ctx context.Context, q string) ([]Staff, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, sentinel.Invalid("search query is required")
	}
	items, _, err := s.repo.List(ctx, Filter{Query: q, Limit: 20})
	return items, err
}

type UpdateInput struct {
	FirstName        *string
	LastName         *string
	Email            *string
	Phone            *string
	Role             *Role
	Department       *string
	Position         *string
	HireDate         *time.Time
	Salary           *float64
	EmergencyContact *EmergencyContact
	Certifications   []string
	Specializations  []string
	Languages        []string
	IsActive         *bool
	Notes            *string
}

// Update: employee_id es inmutable.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Staff, error) {
	st, err := s.GetByID(ctx, id)
	if err != nil {
		return Staff{}, err
	}

	if in.FirstName != nil {
		st.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		st.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Email != nil {
		st.Email = strings.ToLower(strings.TrimSpace(*in.Email))
	}
	if in.Phone != nil {
		st.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Role != nil {
		st.Role = *in.Role
	}
	if in.Department != nil {
		st.Department = strings.TrimSpace(*in.Department)
	}
	if in.Position != nil {
		st.Position = strings.TrimSpace(*in.Position)
	}
	if in.HireDate != nil {
		st.HireDate = *in.HireDate
	}
	if in.Salary != nil {
		st.Salary = *in.Salary
	}
	if in.EmergencyContact != nil {
		st.EmergencyContact = in.EmergencyContact
	}
	if in.Certifications != nil {
		st.Certifications = cleanList(in.Certifications)
	}
	if in.Specializations != nil {
		st.Specializations = cleanList(in.Specializations)
	}
	if in.Languages != nil {
		st.Languages = cleanList(in.Languages)
	}
	if in.IsActive != nil {
		st.IsActive = *in.IsActive
	}
	if in.Notes != nil {
		st.Notes = strings.TrimSpace(*in.Notes)
	}
	if err := validate(st); err != nil {
		return Staff{}, err
	}
	st.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, st); err != nil {
		return Staff{}, mapRepoErr(err)
	}
	return st, nil
}

// Delete es una baja lógica: is_active=false.
func (s *Service) Delete(ctx context.Context, id string) error {
	st, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	st.IsActive = false
	st.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, st); err != nil {
		return mapRepoErr(err)
	}
	logger.FromContext(ctx).Info("staff member deactivated", map[string]any{"staff_id": st.ID})
	return nil
}

type TrainingInput struct {
	TrainingName   string
	TrainingDate   time.Time
	CompletionDate *time.Time
	Trainer        string
	DurationHours  float64
	Score          *float64
	Status         TrainingStatus
	Certificate    string
	Notes          string
}

func (s *Service) AddTrainingRecord(ctx context.Context, id string, in TrainingInput) (TrainingRecord, error) {
	rec := TrainingRecord{
		ID:             uuid.NewString(),
		TrainingName:   strings.TrimSpace(in.TrainingName),
		TrainingDate:   in.TrainingDate,
		CompletionDate: in.CompletionDate,
		Trainer:        strings.TrimSpace(in.Trainer),
		DurationHours:  in.DurationHours,
		Score:          in.Score,
		Status:         in.Status,
		Certificate:    strings.TrimSpace(in.Certificate),
		Notes:          strings.TrimSpace(in.Notes),
		CreatedAt:      s.now(),
	}
	if rec.Status == "" {
		rec.Status = TrainingScheduled
	}
	switch {
	case rec.TrainingName == "":
		return TrainingRecord{}, sentinel.Invalid("training_name is required")
	case rec.TrainingDate.IsZero():
		return TrainingRecord{}, sentinel.Invalid("training_date is required")
	case !rec.Status.Valid():
		return TrainingRecord{}, sentinel.Invalid("invalid training status")
	case rec.DurationHours < 0:
		return TrainingRecord{}, sentinel.Invalid("duration_hours must be >= 0")
	case rec.Score != nil && (*rec.Score < 0 || *rec.Score > 100):
		return TrainingRecord{}, sentinel.Invalid("score must be 0-100")
	case rec.CompletionDate != nil && rec.CompletionDate.Before(rec.TrainingDate):
		return TrainingRecord{}, sentinel.Invalid("completion_date cannot be before training_date")
	}

	if _, err := s.repo.AppendTraining(ctx, strings.TrimSpace(id), rec); err != nil {
		return TrainingRecord{}, mapRepoErr(err)
	}
	return rec, nil
}

type ReviewInput struct {
	ReviewDate          time.Time
	Reviewer            string
	Rating              int
	Strengths           []string
	AreasForImprovement []string
	Goals               []string
	Comments            string
	NextReviewDate      *time.Time
}

func (s *Service) AddPerformanceReview(ctx context.Context, id string, in ReviewInput) (PerformanceReview, error) {
	now := s.now()
	rev := PerformanceReview{
		ID:                  uuid.NewString(),
		ReviewDate:          in.ReviewDate,
		Reviewer:            strings.TrimSpace(in.Reviewer),
		Rating:              in.Rating,
		Strengths:           cleanList(in.Strengths),
		AreasForImprovement: cleanList(in.AreasForImprovement),
		Goals:               cleanList(in.Goals),
		Comments:            strings.TrimSpace(in.Comments),
		NextReviewDate:      in.NextReviewDate,
		CreatedAt:           now,
	}
	if rev.ReviewDate.IsZero() {
		rev.ReviewDate = now
	}
	switch {
	case rev.Reviewer == "":
		return PerformanceReview{}, sentinel.Invalid("reviewer is required")
	case rev.Rating < 1 || rev.Rating > 5:
		return PerformanceReview{}, sentinel.Invalid("rating must be between 1 and 5")
	case rev.NextReviewDate != nil && !rev.NextReviewDate.After(rev.ReviewDate):
		return PerformanceReview{}, sentinel.Invalid("next_review_date must be after review_date")
	}

	if _, err := s.repo.AppendReview(ctx, strings.TrimSpace(id), rev); err != nil {
		return PerformanceReview{}, mapRepoErr(err)
	}
	return rev, nil
}

func validate(st Staff) error {
	switch {
	case st.FirstName == "" || st.LastName == "":
		return sentinel.Invalid("first_name and last_name are required")
	case len(st.FirstName) > maxNameLen || len(st.LastName) > maxNameLen:
		return sentinel.Invalid("names cannot exceed 50 characters")
	case !emailRe.MatchString(st.Email):
		return sentinel.Invalid("please enter a valid email")
	case st.Phone != "" && !phoneRe.MatchString(st.Phone):
		return sentinel.Invalid("please enter a valid phone number")
	case !st.Role.Valid():
		return sentinel.Invalid("invalid role")
	case st.Department == "" || st.Position == "":
		return sentinel.Invalid("department and position are required")
	case st.Salary < 0:
		return sentinel.Invalid("salary must be >= 0")
	}
	return nil
}

func mapRepoErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, sentinel.ErrDuplicateKey):
		return ErrDuplicate
	}
	return err
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
