package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"

	"zoo-management/internal/domain/staff"
	"zoo-management/internal/platform/sentinel"
)

type staffRepo struct {
	mu   sync.RWMutex
	byID map[string]staff.Staff
}

func NewStaffRepo() staff.Repository {
	return &staffRepo{
		byID: make(map[string]staff.Staff),
	}
}

func (r *staffRepo) Create(ctx context.Context, s staff.Staff) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(s.ID) == "" {
		return sentinel.Invalid("staff id required")
	}
	if _, exists := r.byID[s.ID]; exists {
		return sentinel.ErrDuplicateKey
	}
	if r.takenLocked(s) {
		return sentinel.ErrDuplicateKey
	}
	r.byID[s.ID] = cloneStaff(s)
	return nil
}

func (r *staffRepo) GetByID(ctx context.Context, id string) (staff.Staff, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byID[id]
	if !ok {
		return staff.Staff{}, sentinel.ErrNotFound
	}
	return cloneStaff(s), nil
}

func (r *staffRepo) List(ctx context.Context, f staff.Filter) ([]staff.Staff, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]staff.Staff, 0)
	for _, s := range r.byID {
		if f.Role != "" && s.Role != f.Role {
			continue
		}
		if f.Department != "" && !strings.EqualFold(s.Department, f.Department) {
			continue
		}
		if f.IsActive != nil && s.IsActive != *f.IsActive {
			continue
		}
		if f.Query != "" && !anyContainsFold(f.Query, s.FirstName, s.LastName, s.Email, s.EmployeeID, s.Department, s.Position) {
			continue
		}
		out = append(out, cloneStaff(s))
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	items, total := page(out, f.Offset, f.Limit)
	return items, total, nil
}

func (r *staffRepo) Update(ctx context.Context, s staff.Staff) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[s.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	s.EmployeeID = cur.EmployeeID
	if r.takenLocked(s) {
		return sentinel.ErrDuplicateKey
	}
	s.TrainingRecords = cur.TrainingRecords
	s.PerformanceReviews = cur.PerformanceReviews
	r.byID[s.ID] = cloneStaff(s)
	return nil
}

func (r *staffRepo) AppendTraining(ctx context.Context, id string, rec staff.TrainingRecord) (staff.Staff, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[id]
	if !ok {
		return staff.Staff{}, sentinel.ErrNotFound
	}
	s = cloneStaff(s)
	s.TrainingRecords = append(s.TrainingRecords, rec)
	s.UpdatedAt = rec.CreatedAt
	r.byID[id] = s
	return cloneStaff(s), nil
}

func (r *staffRepo) AppendReview(ctx context.Context, id string, rev staff.PerformanceReview) (staff.Staff, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[id]
	if !ok {
		return staff.Staff{}, sentinel.ErrNotFound
	}
	s = cloneStaff(s)
	s.PerformanceReviews = append(s.PerformanceReviews, rev)
	s.UpdatedAt = rev.CreatedAt
	r.byID[id] = s
	return cloneStaff(s), nil
}

// takenLocked: employee_id o email usados por otro registro.
func (r *staffRepo) takenLocked(s staff.Staff) bool {
	for id, other := range r.byID {
		if id == s.ID {
			continue
		}
		if other.EmployeeID == s.EmployeeID || other.Email == s.Email {
			return true
		}
	}
	return false
}

func cloneStaff(s staff.Staff) staff.Staff {
	s.Certifications = slices.Clone(s.Certifications)
	s.Specializations = slices.Clone(s.Specializations)
	s.Languages = slices.Clone(s.Languages)
	s.TrainingRecords = slices.Clone(s.TrainingRecords)
	s.PerformanceReviews = slices.Clone(s.PerformanceReviews)
	if s.EmergencyContact != nil {
		ec := *s.EmergencyContact
		s.EmergencyContact = &ec
	}
	return s
}
