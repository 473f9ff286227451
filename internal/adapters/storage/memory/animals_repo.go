package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"

	"zoo-management/internal/domain/animals"
	"zoo-management/internal/platform/sentinel"
)

type animalRepo struct {
	mu   sync.RWMutex
	byID map[string]animals.Animal
}

func NewAnimalRepo() animals.Repository {
	return &animalRepo{
		byID: make(map[string]animals.Animal),
	}
}

func (r *animalRepo) Create(ctx context.Context, a animals.Animal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(a.ID) == "" {
		return sentinel.Invalid("animal id required")
	}
	if _, exists := r.byID[a.ID]; exists {
		return sentinel.ErrDuplicateKey
	}
	if err := r.checkTagsLocked(a); err != nil {
		return err
	}
	r.byID[a.ID] = cloneAnimal(a)
	return nil
}

func (r *animalRepo) GetByID(ctx context.Context, id string) (animals.Animal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return animals.Animal{}, sentinel.ErrNotFound
	}
	return cloneAnimal(a), nil
}

func (r *animalRepo) List(ctx context.Context, f animals.Filter) ([]animals.Animal, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]animals.Animal, 0)
	for _, a := range r.byID {
		if f.Species != "" && !containsFold(a.Species, f.Species) {
			continue
		}
		if f.Gender != "" && a.Gender != f.Gender {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		if f.ExhibitID != "" && a.ExhibitID != f.ExhibitID {
			continue
		}
		if f.IsEndangered != nil && a.IsEndangered != *f.IsEndangered {
			continue
		}
		if f.IsActive != nil && a.IsActive != *f.IsActive {
			continue
		}
		if f.HealthCheckDueAt != nil && !a.DueForHealthCheck(*f.HealthCheckDueAt) {
			continue
		}
		if f.Query != "" && !anyContainsFold(f.Query, a.Name, a.Species, a.ScientificName, a.MicrochipID, a.RFIDTag) {
			continue
		}
		out = append(out, cloneAnimal(a))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	items, total := page(out, f.Offset, f.Limit)
	return items, total, nil
}

func (r *animalRepo) Save(ctx context.Context, a animals.Animal) (animals.Animal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[a.ID]
	if !ok {
		return animals.Animal{}, sentinel.ErrNotFound
	}
	if cur.Version != a.Version {
		return animals.Animal{}, sentinel.ErrConflict
	}
	if err := r.checkTagsLocked(a); err != nil {
		return animals.Animal{}, err
	}
	a.Version = cur.Version + 1
	r.byID[a.ID] = cloneAnimal(a)
	return cloneAnimal(a), nil
}

// checkTagsLocked emula los índices únicos sparse de microchip_id y rfid_tag.
func (r *animalRepo) checkTagsLocked(a animals.Animal) error {
	for id, other := range r.byID {
		if id == a.ID {
			continue
		}
		if a.MicrochipID != "" && other.MicrochipID == a.MicrochipID {
			return sentinel.Wrap(sentinel.ErrDuplicateKey, "microchip_id already registered")
		}
		if a.RFIDTag != "" && other.RFIDTag == a.RFIDTag {
			return sentinel.Wrap(sentinel.ErrDuplicateKey, "rfid_tag already registered")
		}
	}
	return nil
}

func cloneAnimal(a animals.Animal) animals.Animal {
	a.Diet.Secondary = slices.Clone(a.Diet.Secondary)
	a.Diet.Restrictions = slices.Clone(a.Diet.Restrictions)
	a.MedicalRecords = slices.Clone(a.MedicalRecords)
	for i := range a.MedicalRecords {
		a.MedicalRecords[i].Medication = slices.Clone(a.MedicalRecords[i].Medication)
	}
	a.FeedingSchedule = slices.Clone(a.FeedingSchedule)
	a.Tags = slices.Clone(a.Tags)
	return a
}
