package memory

import (
	"bytes"
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"zoo-management/internal/domain/reports"
	"zoo-management/internal/platform/sentinel"
)

type reportRepo struct {
	mu   sync.RWMutex
	byID map[string]reports.Report
}

func NewReportRepo() reports.Repository {
	return &reportRepo{
		byID: make(map[string]reports.Report),
	}
}

func (r *reportRepo) Create(ctx context.Context, rep reports.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(rep.ID) == "" {
		return sentinel.Invalid("report id required")
	}
	if _, exists := r.byID[rep.ID]; exists {
		return sentinel.ErrDuplicateKey
	}
	r.byID[rep.ID] = cloneReport(rep)
	return nil
}

func (r *reportRepo) GetByID(ctx context.Context, id string) (reports.Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rep, ok := r.byID[id]
	if !ok {
		return reports.Report{}, sentinel.ErrNotFound
	}
	return cloneReport(rep), nil
}

func (r *reportRepo) List(ctx context.Context, flt reports.Filter) ([]reports.Report, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]reports.Report, 0)
	for _, rep := range r.byID {
		if flt.Type != "" && rep.Type != flt.Type {
			continue
		}
		if flt.Period != "" && rep.Period != flt.Period {
			continue
		}
		if flt.Status != "" && rep.Status != flt.Status {
			continue
		}
		if flt.GeneratedBy != "" && rep.GeneratedBy != flt.GeneratedBy {
			continue
		}
		out = append(out, cloneReport(rep))
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})

	items, total := page(out, flt.Offset, flt.Limit)
	return items, total, nil
}

func (r *reportRepo) SetStatus(ctx context.Context, id string, status reports.Status, at time.Time) (reports.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rep, ok := r.byID[id]
	if !ok {
		return reports.Report{}, sentinel.ErrNotFound
	}
	rep.Status = status
	rep.UpdatedAt = at
	r.byID[id] = rep
	return cloneReport(rep), nil
}

func (r *reportRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func cloneReport(rep reports.Report) reports.Report {
	rep.Data = bytes.Clone(rep.Data)
	rep.Recommendations = slices.Clone(rep.Recommendations)
	return rep
}
