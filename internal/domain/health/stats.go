package health

import (
	"context"
	"sort"
	"strings"
	"time"
)

type TypeCount struct {
	Type  Type `json:"type"`
	Count int  `json:"count"`
}

type VeterinarianStats struct {
	Veterinarian string  `json:"veterinarian"`
	Count        int     `json:"count"`
	TotalCost    float64 `json:"total_cost"`
}

type DiagnosisCount struct {
	Diagnosis string `json:"diagnosis"`
	Count     int    `json:"count"`
}

type Stats struct {
	TotalRecords          int                 `json:"total_records"`
	RecentRecords         int                 `json:"recent_records"`
	TotalCost             float64             `json:"total_cost"`
	AverageCost           float64             `json:"average_cost"`
	FollowUpsPending      int                 `json:"follow_ups_pending"`
	AnimalsDueForCheck    int                 `json:"animals_due_for_check"`
	ByType                []TypeCount         `json:"by_type"`
	VeterinarianBreakdown []VeterinarianStats `json:"veterinarian_breakdown"`
	CommonDiagnoses       []DiagnosisCount    `json:"common_diagnoses"`
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	items, _, err := s.repo.List(ctx, Filter{})
	if err != nil {
		return Stats{}, err
	}
	_, due, err := s.animals.DueForHealthCheck(ctx, 0, 1)
	if err != nil {
		return Stats{}, err
	}
	st := ComputeStats(items, s.now())
	st.AnimalsDueForCheck = due
	return st, nil
}

// ComputeStats: "recientes" son los de los últimos 30 días; los diagnósticos
// se agrupan sin distinguir mayúsculas y se devuelven los 10 más comunes.
func ComputeStats(items []Record, now time.Time) Stats {
	st := Stats{
		ByType:                []TypeCount{},
		VeterinarianBreakdown: []VeterinarianStats{},
		CommonDiagnoses:       []DiagnosisCount{},
	}
	cutoff := now.AddDate(0, 0, -30)
	byType := map[Type]int{}
	byVet := map[string]*VeterinarianStats{}
	byDiagnosis := map[string]*DiagnosisCount{}

	for _, rec := range items {
		st.TotalRecords++
		st.TotalCost += rec.Cost
		if !rec.Date.Before(cutoff) {
			st.RecentRecords++
		}
		if rec.FollowUpRequired && rec.Status == StatusPendingFollowUp {
			st.FollowUpsPending++
		}
		byType[rec.Type]++

		v, ok := byVet[rec.Veterinarian]
		if !ok {
			v = &VeterinarianStats{Veterinarian: rec.Veterinarian}
			byVet[rec.Veterinarian] = v
		}
		v.Count++
		v.TotalCost += rec.Cost

		key := strings.ToLower(rec.Diagnosis)
		d, ok := byDiagnosis[key]
		if !ok {
			d = &DiagnosisCount{Diagnosis: rec.Diagnosis}
			byDiagnosis[key] = d
		}
		d.Count++
	}
	if st.TotalRecords > 0 {
		st.AverageCost = st.TotalCost / float64(st.TotalRecords)
	}

	for t, n := range byType {
		st.ByType = append(st.ByType, TypeCount{Type: t, Count: n})
	}
	sort.Slice(st.ByType, func(i, j int) bool {
		if st.ByType[i].Count != st.ByType[j].Count {
			return st.ByType[i].Count > st.ByType[j].Count
		}
		return st.ByType[i].Type < st.ByType[j].Type
	})

	for _, v := range byVet {
		st.VeterinarianBreakdown = append(st.VeterinarianBreakdown, *v)
	}
	sort.Slice(st.VeterinarianBreakdown, func(i, j int) bool {
		if st.VeterinarianBreakdown[i].Count != st.VeterinarianBreakdown[j].Count {
			return st.VeterinarianBreakdown[i].Count > st.VeterinarianBreakdown[j].Count
		}
		return st.VeterinarianBreakdown[i].Veterinarian < st.VeterinarianBreakdown[j].Veterinarian
	})

	for _, d := range byDiagnosis {
		st.CommonDiagnoses = append(st.CommonDiagnoses, *d)
	}
	sort.Slice(st.CommonDiagnoses, func(i, j int) bool {
		if st.CommonDiagnoses[i].Count != st.CommonDiagnoses[j].Count {
			return st.CommonDiagnoses[i].Count > st.CommonDiagnoses[j].Count
		}
		return st.CommonDiagnoses[i].Diagnosis < st.CommonDiagnoses[j].Diagnosis
	})
	if len(st.CommonDiagnoses) > 10 {
		st.CommonDiagnoses = st.CommonDiagnoses[:10]
	}
	return st
}
