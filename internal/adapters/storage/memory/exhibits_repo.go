package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"zoo-management/internal/domain/exhibits"
	"zoo-management/internal/platform/sentinel"
)

type exhibitRepo struct {
	mu   sync.RWMutex
	byID map[string]exhibits.Exhibit
}

func NewExhibitRepo() exhibits.Repository {
	return &exhibitRepo{
		byID: make(map[string]exhibits.Exhibit),
	}
}

func (r *exhibitRepo) Create(ctx context.Context, e exhibits.Exhibit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(e.ID) == "" {
		return sentinel.Invalid("exhibit id required")
	}
	if _, exists := r.byID[e.ID]; exists {
		return sentinel.ErrDuplicateKey
	}
	r.byID[e.ID] = cloneExhibit(e)
	return nil
}

func (r *exhibitRepo) GetByID(ctx context.Context, id string) (exhibits.Exhibit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byID[id]
	if !ok {
		return exhibits.Exhibit{}, sentinel.ErrNotFound
	}
	return cloneExhibit(e), nil
}

func (r *exhibitRepo) List(ctx context.Context, f exhibits.Filter) ([]exhibits.Exhibit, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]exhibits.Exhibit, 0)
	for _, e := range r.byID {
		if f.Type != "" && e.Type != f.Type {
			continue
		}
		if f.Theme != "" && !strings.EqualFold(e.Theme, f.Theme) {
			continue
		}
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		if f.IsActive != nil && e.IsActive != *f.IsActive {
			continue
		}
		if f.Query != "" && !anyContainsFold(f.Query, e.Name, e.Theme, e.Description) {
			continue
		}
		out = append(out, cloneExhibit(e))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	items, total := page(out, f.Offset, f.Limit)
	return items, total, nil
}

func (r *exhibitRepo) Save(ctx context.Context, e exhibits.Exhibit) (exhibits.Exhibit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[e.ID]
	if !ok {
		return exhibits.Exhibit{}, sentinel.ErrNotFound
	}
	if cur.Version != e.Version {
		return exhibits.Exhibit{}, sentinel.ErrConflict
	}
	if e.Capacity.Animals < len(cur.Animals) {
		return exhibits.Exhibit{}, exhibits.ErrCapacityBelow
	}

	// animals y su ocupación solo cambian por Attach/Detach
	e.Animals = cur.Animals
	e.CurrentOccupancy.Animals = len(cur.Animals)
	e.Version = cur.Version + 1

	r.byID[e.ID] = cloneExhibit(e)
	return cloneExhibit(e), nil
}

func (r *exhibitRepo) AttachAnimal(ctx context.Context, exhibitID, animalID string, at time.Time) (exhibits.Exhibit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[exhibitID]
	if !ok {
		return exhibits.Exhibit{}, sentinel.ErrNotFound
	}
	if !cur.IsActive {
		return exhibits.Exhibit{}, exhibits.ErrInactive
	}
	if cur.HasAnimal(animalID) {
		return cloneExhibit(cur), nil
	}

	next, err := exhibits.Attach(cur, animalID)
	if err != nil {
		return exhibits.Exhibit{}, err
	}
	next.Version = cur.Version + 1
	next.UpdatedAt = at

	r.byID[exhibitID] = cloneExhibit(next)
	return cloneExhibit(next), nil
}

func (r *exhibitRepo) DetachAnimal(ctx context.Context, exhibitID, animalID string, at time.Time) (exhibits.Exhibit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[exhibitID]
	if !ok {
		return exhibits.Exhibit{}, sentinel.ErrNotFound
	}
	if !cur.HasAnimal(animalID) {
		return cloneExhibit(cur), nil
	}

	next := exhibits.Detach(cur, animalID)
	next.Version = cur.Version + 1
	next.UpdatedAt = at

	r.byID[exhibitID] = cloneExhibit(next)
	return cloneExhibit(next), nil
}

func cloneExhibit(e exhibits.Exhibit) exhibits.Exhibit {
	e.Features = slices.Clone(e.Features)
	e.MaintenanceRecords = slices.Clone(e.MaintenanceRecords)
	e.Animals = slices.Clone(e.Animals)
	e.Staff = slices.Clone(e.Staff)
	e.OperatingHours.Days = slices.Clone(e.OperatingHours.Days)
	return e
}
