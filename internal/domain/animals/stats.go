package animals

import (
	"context"
	"math"
	"sort"
	"time"
)

type SpeciesStats struct {
	Species    string  `json:"species"`
	Count      int     `json:"count"`
	Males      int     `json:"males"`
	Females    int     `json:"females"`
	AverageAge float64 `json:"average_age"`
}

type Stats struct {
	TotalAnimals      int            `json:"total_animals"`
	EndangeredCount   int            `json:"endangered_count"`
	DueForHealthCheck int            `json:"due_for_health_check"`
	SpeciesBreakdown  []SpeciesStats `json:"species_breakdown"`
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	active := true
	items, _, err := s.repo.List(ctx, Filter{IsActive: &active})
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(items, s.now()), nil
}

// ComputeStats agrupa por especie; el orden es por cantidad descendente.
func ComputeStats(items []Animal, now time.Time) Stats {
	st := Stats{SpeciesBreakdown: []SpeciesStats{}}
	bySpecies := map[string]*SpeciesStats{}
	ageSum := map[string]int{}

	for _, a := range items {
		st.TotalAnimals++
		if a.IsEndangered {
			st.EndangeredCount++
		}
		if a.DueForHealthCheck(now) {
			st.DueForHealthCheck++
		}

		sp, ok := bySpecies[a.Species]
		if !ok {
			sp = &SpeciesStats{Species: a.Species}
			bySpecies[a.Species] = sp
		}
		sp.Count++
		switch a.Gender {
		case GenderMale:
			sp.Males++
		case GenderFemale:
			sp.Females++
		}
		ageSum[a.Species] += a.AgeYears(now)
	}

	for name, sp := range bySpecies {
		sp.AverageAge = math.Round(float64(ageSum[name])/float64(sp.Count)*10) / 10
		st.SpeciesBreakdown = append(st.SpeciesBreakdown, *sp)
	}
	sort.Slice(st.SpeciesBreakdown, func(i, j int) bool {
		if st.SpeciesBreakdown[i].Count != st.SpeciesBreakdown[j].Count {
			return st.SpeciesBreakdown[i].Count > st.SpeciesBreakdown[j].Count
		}
		return st.SpeciesBreakdown[i].Species < st.SpeciesBreakdown[j].Species
	})
	return st
}
