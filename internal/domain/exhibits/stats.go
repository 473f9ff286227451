package exhibits

import (
	"context"
	"sort"
	"time"
)

type TypeStats struct {
	Type             Type `json:"type"`
	Count            int  `json:"count"`
	VisitorCapacity  int  `json:"visitor_capacity"`
	AnimalCapacity   int  `json:"animal_capacity"`
	Animals          int  `json:"animals"`
	OccupancyPercent int  `json:"occupancy_percent"`
}

type OccupancyRow struct {
	ExhibitID        string `json:"exhibit_id"`
	Name             string `json:"name"`
	Type             Type   `json:"type"`
	Animals          int    `json:"animals"`
	AnimalCapacity   int    `json:"animal_capacity"`
	OccupancyPercent int    `json:"occupancy_percent"`
}

type Stats struct {
	Total            int            `json:"total"`
	Open             int            `json:"open"`
	Animals          int            `json:"animals"`
	AnimalCapacity   int            `json:"animal_capacity"`
	OccupancyPercent int            `json:"occupancy_percent"`
	MaintenanceDue   int            `json:"maintenance_due"`
	ByType           []TypeStats    `json:"by_type"`
	Occupancy        []OccupancyRow `json:"occupancy"`
}

// Stats agrega sobre los exhibits activos.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	active := true
	items, _, err := s.repo.List(ctx, Filter{IsActive: &active})
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(items, s.now()), nil
}

func ComputeStats(items []Exhibit, now time.Time) Stats {
	st := Stats{ByType: []TypeStats{}, Occupancy: []OccupancyRow{}}
	byType := map[Type]*TypeStats{}

	for _, e := range items {
		st.Total++
		if e.IsOpen(now) {
			st.Open++
		}
		if e.MaintenanceDue(now) {
			st.MaintenanceDue++
		}
		st.Animals += e.CurrentOccupancy.Animals
		st.AnimalCapacity += e.Capacity.Animals

		ts, ok := byType[e.Type]
		if !ok {
			ts = &TypeStats{Type: e.Type}
			byType[e.Type] = ts
		}
		ts.Count++
		ts.VisitorCapacity += e.Capacity.Visitors
		ts.AnimalCapacity += e.Capacity.Animals
		ts.Animals += e.CurrentOccupancy.Animals

		st.Occupancy = append(st.Occupancy, OccupancyRow{
			ExhibitID:        e.ID,
			Name:             e.Name,
			Type:             e.Type,
			Animals:          e.CurrentOccupancy.Animals,
			AnimalCapacity:   e.Capacity.Animals,
			OccupancyPercent: e.AnimalOccupancyPercent(),
		})
	}

	st.OccupancyPercent = percent(st.Animals, st.AnimalCapacity)
	for _, ts := range byType {
		ts.OccupancyPercent = percent(ts.Animals, ts.AnimalCapacity)
		st.ByType = append(st.ByType, *ts)
	}
	sort.Slice(st.ByType, func(i, j int) bool {
		if st.ByType[i].Count != st.ByType[j].Count {
			return st.ByType[i].Count > st.ByType[j].Count
		}
		return st.ByType[i].Type < st.ByType[j].Type
	})
	sort.SliceStable(st.Occupancy, func(i, j int) bool {
		return st.Occupancy[i].OccupancyPercent > st.Occupancy[j].OccupancyPercent
	})
	return st
}
