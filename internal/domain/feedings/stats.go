package feedings

import (
	"context"
	"math"
	"sort"
	"time"
)

type FoodTypeStats struct {
	FoodType  string `json:"food_type"`
	Count     int    `json:"count"`
	Completed int    `json:"completed"`
	Pending   int    `json:"pending"`
}

type DayStats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
}

type Stats struct {
	TotalFeedings     int             `json:"total_feedings"`
	CompletedFeedings int             `json:"completed_feedings"`
	PendingFeedings   int             `json:"pending_feedings"`
	CompletionRate    float64         `json:"completion_rate"` // porcentaje, 2 decimales
	FoodTypeBreakdown []FoodTypeStats `json:"food_type_breakdown"`
	TodayStats        DayStats        `json:"today_stats"`
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	items, _, err := s.repo.List(ctx, Filter{})
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(items, s.now()), nil
}

func ComputeStats(items []Feeding, now time.Time) Stats {
	st := Stats{FoodTypeBreakdown: []FoodTypeStats{}}
	from, to := dayBounds(now)
	byFood := map[string]*FoodTypeStats{}

	for _, f := range items {
		st.TotalFeedings++
		ft, ok := byFood[f.FoodType]
		if !ok {
			ft = &FoodTypeStats{FoodType: f.FoodType}
			byFood[f.FoodType] = ft
		}
		ft.Count++

		today := !f.CreatedAt.Before(from) && f.CreatedAt.Before(to)
		if today {
			st.TodayStats.Total++
		}
		if f.Completed {
			st.CompletedFeedings++
			ft.Completed++
			if today {
				st.TodayStats.Completed++
			}
		} else {
			st.PendingFeedings++
			ft.Pending++
		}
	}
	st.TodayStats.Pending = st.TodayStats.Total - st.TodayStats.Completed
	if st.TotalFeedings > 0 {
		st.CompletionRate = math.Round(float64(st.CompletedFeedings)/float64(st.TotalFeedings)*10000) / 100
	}

	for _, ft := range byFood {
		st.FoodTypeBreakdown = append(st.FoodTypeBreakdown, *ft)
	}
	sort.Slice(st.FoodTypeBreakdown, func(i, j int) bool {
		if st.FoodTypeBreakdown[i].Count != st.FoodTypeBreakdown[j].Count {
			return st.FoodTypeBreakdown[i].Count > st.FoodTypeBreakdown[j].Count
		}
		return st.FoodTypeBreakdown[i].FoodType < st.FoodTypeBreakdown[j].FoodType
	})
	return st
}
