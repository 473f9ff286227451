package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"

	"zoo-management/internal/domain/health"
	"zoo-management/internal/platform/sentinel"
)

type healthRepo struct {
	mu   sync.RWMutex
	byID map[string]health.Record
}

func NewHealthRepo() health.Repository {
	return &healthRepo{
		byID: make(map[string]health.Record),
	}
}

func (r *healthRepo) Create(ctx context.Context, rec health.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(rec.ID) == "" {
		return sentinel.Invalid("health record id required")
	}
	if _, exists := r.byID[rec.ID]; exists {
		return sentinel.ErrDuplicateKey
	}
	r.byID[rec.ID] = cloneHealth(rec)
	return nil
}

func (r *healthRepo) GetByID(ctx context.Context, id string) (health.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.byID[id]
	if !ok {
		return health.Record{}, sentinel.ErrNotFound
	}
	return cloneHealth(rec), nil
}

func (r *healthRepo) List(ctx context.Context, f health.Filter) ([]health.Record, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]health.Record, 0)
	for _, rec := range r.byID {
		if f.AnimalID != "" && rec.AnimalID != f.AnimalID {
			continue
		}
		if f.Type != "" && rec.Type != f.Type {
			continue
		}
		if f.Status != "" && rec.Status != f.Status {
			continue
		}
		if f.Veterinarian != "" && !containsFold(rec.Veterinarian, f.Veterinarian) {
			continue
		}
		if f.FollowUpDueAt != nil && !rec.FollowUpDue(*f.FollowUpDueAt) {
			continue
		}
		if f.Query != "" && !matchesHealthQuery(rec, f.Query) {
			continue
		}
		out = append(out, cloneHealth(rec))
	}

	if f.FollowUpDueAt != nil {
		sort.Slice(out, func(i, j int) bool { return out[i].FollowUpDate.Before(*out[j].FollowUpDate) })
	} else {
		sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	}

	items, total := page(out, f.Offset, f.Limit)
	return items, total, nil
}

func (r *healthRepo) Update(ctx context.Context, rec health.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[rec.ID]; !ok {
		return sentinel.ErrNotFound
	}
	r.byID[rec.ID] = cloneHealth(rec)
	return nil
}

func (r *healthRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func matchesHealthQuery(rec health.Record, q string) bool {
	if anyContainsFold(q, rec.AnimalName, rec.Veterinarian, rec.Diagnosis, rec.Treatment) {
		return true
	}
	for _, m := range rec.Medication {
		if containsFold(m.Name, q) {
			return true
		}
	}
	return false
}

func cloneHealth(rec health.Record) health.Record {
	rec.Medication = slices.Clone(rec.Medication)
	rec.LabResults = slices.Clone(rec.LabResults)
	return rec
}
