package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"zoo-management/internal/domain/feedings"
	"zoo-management/internal/platform/sentinel"
)

type feedingRepo struct {
	mu   sync.RWMutex
	byID map[string]feedings.Feeding
}

func NewFeedingRepo() feedings.Repository {
	return &feedingRepo{
		byID: make(map[string]feedings.Feeding),
	}
}

func (r *feedingRepo) Create(ctx context.Context, f feedings.Feeding) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(f.ID) == "" {
		return sentinel.Invalid("feeding id required")
	}
	if _, exists := r.byID[f.ID]; exists {
		return sentinel.ErrDuplicateKey
	}
	r.byID[f.ID] = f
	return nil
}

func (r *feedingRepo) GetByID(ctx context.Context, id string) (feedings.Feeding, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.byID[id]
	if !ok {
		return feedings.Feeding{}, sentinel.ErrNotFound
	}
	return f, nil
}

func (r *feedingRepo) List(ctx context.Context, flt feedings.Filter) ([]feedings.Feeding, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]feedings.Feeding, 0)
	for _, f := range r.byID {
		if flt.AnimalID != "" && f.AnimalID != flt.AnimalID {
			continue
		}
		if flt.ExhibitID != "" && f.ExhibitID != flt.ExhibitID {
			continue
		}
		if flt.Completed != nil && f.Completed != *flt.Completed {
			continue
		}
		if flt.FoodType != "" && !containsFold(f.FoodType, flt.FoodType) {
			continue
		}
		if !inRange(f.CreatedAt, flt.CreatedFrom, flt.CreatedTo) {
			continue
		}
		out = append(out, f)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].ScheduledTime != out[j].ScheduledTime {
			return out[i].ScheduledTime < out[j].ScheduledTime
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	items, total := page(out, flt.Offset, flt.Limit)
	return items, total, nil
}

func (r *feedingRepo) Update(ctx context.Context, f feedings.Feeding) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[f.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if cur.Completed {
		return sentinel.ErrAlreadyFinalized
	}
	r.byID[f.ID] = f
	return nil
}

func (r *feedingRepo) Complete(ctx context.Context, id, by, notes string, at time.Time) (feedings.Feeding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.byID[id]
	if !ok {
		return feedings.Feeding{}, sentinel.ErrNotFound
	}
	if f.Completed {
		return feedings.Feeding{}, sentinel.ErrAlreadyFinalized
	}
	f.Completed = true
	f.CompletedBy = by
	f.CompletedAt = &at
	if notes != "" {
		f.Notes = notes
	}
	f.UpdatedAt = at
	r.byID[id] = f
	return f, nil
}

func (r *feedingRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}
