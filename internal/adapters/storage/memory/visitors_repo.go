package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"

	"zoo-management/internal/domain/visitors"
	"zoo-management/internal/platform/sentinel"
)

type visitorRepo struct {
	mu   sync.RWMutex
	byID map[string]visitors.Visitor
}

func NewVisitorRepo() visitors.Repository {
	return &visitorRepo{
		byID: make(map[string]visitors.Visitor),
	}
}

func (r *visitorRepo) Create(ctx context.Context, v visitors.Visitor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(v.ID) == "" {
		return sentinel.Invalid("visitor id required")
	}
	if _, exists := r.byID[v.ID]; exists {
		return sentinel.ErrDuplicateKey
	}
	if r.emailTakenLocked(v.ID, v.Email) {
		return sentinel.ErrDuplicateKey
	}
	r.byID[v.ID] = cloneVisitor(v)
	return nil
}

func (r *visitorRepo) GetByID(ctx context.Context, id string) (visitors.Visitor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.byID[id]
	if !ok {
		return visitors.Visitor{}, sentinel.ErrNotFound
	}
	return cloneVisitor(v), nil
}

func (r *visitorRepo) GetByEmail(ctx context.Context, email string) (visitors.Visitor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, v := range r.byID {
		if v.Email == email {
			return cloneVisitor(v), nil
		}
	}
	return visitors.Visitor{}, sentinel.ErrNotFound
}

func (r *visitorRepo) List(ctx context.Context, f visitors.Filter) ([]visitors.Visitor, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]visitors.Visitor, 0)
	for _, v := range r.byID {
		if f.VIPLevel != "" && v.VIPLevel != f.VIPLevel {
			continue
		}
		if f.MembershipType != "" && (v.Membership == nil || v.Membership.Type != f.MembershipType) {
			continue
		}
		if f.Source != "" && v.Source != f.Source {
			continue
		}
		if f.IsVIP != nil && v.IsVIP != *f.IsVIP {
			continue
		}
		if f.IsActive != nil && v.IsActive != *f.IsActive {
			continue
		}
		if f.VisitedSince != nil && (v.LastVisitDate == nil || v.LastVisitDate.Before(*f.VisitedSince)) {
			continue
		}
		if f.Query != "" && !anyContainsFold(f.Query, v.FirstName, v.LastName, v.Email, v.Phone) {
			continue
		}
		out = append(out, cloneVisitor(v))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	items, total := page(out, f.Offset, f.Limit)
	return items, total, nil
}

func (r *visitorRepo) Save(ctx context.Context, v visitors.Visitor) (visitors.Visitor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[v.ID]
	if !ok {
		return visitors.Visitor{}, sentinel.ErrNotFound
	}
	if cur.Version != v.Version {
		return visitors.Visitor{}, sentinel.ErrConflict
	}
	if r.emailTakenLocked(v.ID, v.Email) {
		return visitors.Visitor{}, sentinel.ErrDuplicateKey
	}
	v.Version = cur.Version + 1
	r.byID[v.ID] = cloneVisitor(v)
	return cloneVisitor(v), nil
}

func (r *visitorRepo) emailTakenLocked(id, email string) bool {
	for otherID, other := range r.byID {
		if otherID != id && other.Email == email {
			return true
		}
	}
	return false
}

func cloneVisitor(v visitors.Visitor) visitors.Visitor {
	v.Tickets = slices.Clone(v.Tickets)
	v.VisitHistory = slices.Clone(v.VisitHistory)
	for i := range v.VisitHistory {
		v.VisitHistory[i].ExhibitsVisited = slices.Clone(v.VisitHistory[i].ExhibitsVisited)
	}
	v.SpecialNeeds = slices.Clone(v.SpecialNeeds)
	v.DietaryRestrictions = slices.Clone(v.DietaryRestrictions)
	v.Allergies = slices.Clone(v.Allergies)
	v.Preferences.Interests = slices.Clone(v.Preferences.Interests)
	v.Preferences.AccessibilityNeeds = slices.Clone(v.Preferences.AccessibilityNeeds)
	if v.Membership != nil {
		m := *v.Membership
		m.Benefits = slices.Clone(m.Benefits)
		v.Membership = &m
	}
	return v
}
