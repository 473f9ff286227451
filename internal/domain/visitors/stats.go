package visitors

import (
	"context"
	"math"
	"time"
)

type TierStats struct {
	Level   VIPLevel `json:"level"`
	Count   int      `json:"count"`
	Revenue float64  `json:"revenue"`
}

type Stats struct {
	TotalVisitors   int         `json:"total_visitors"`
	TotalRevenue    float64     `json:"total_revenue"`
	AverageSpending float64     `json:"average_spending"`
	AverageVisits   float64     `json:"average_visits"`
	VIPCount        int         `json:"vip_count"`
	MemberCount     int         `json:"member_count"`
	RecentVisitors  int         `json:"recent_visitors"` // última visita en los últimos 30 días
	TierBreakdown   []TierStats `json:"tier_breakdown"`
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	items, _, err := s.repo.List(ctx, Filter{})
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(items, s.now()), nil
}

func ComputeStats(items []Visitor, now time.Time) Stats {
	st := Stats{TierBreakdown: []TierStats{}}
	byTier := map[VIPLevel]*TierStats{}
	recentFrom := now.AddDate(0, 0, -30)
	visits := 0

	for _, v := range items {
		st.TotalVisitors++
		st.TotalRevenue += v.TotalSpent
		visits += v.TotalVisits
		if v.IsVIP {
			st.VIPCount++
		}
		if v.IsMember(now) {
			st.MemberCount++
		}
		if v.LastVisitDate != nil && !v.LastVisitDate.Before(recentFrom) {
			st.RecentVisitors++
		}
		t, ok := byTier[v.VIPLevel]
		if !ok {
			t = &TierStats{Level: v.VIPLevel}
			byTier[v.VIPLevel] = t
		}
		t.Count++
		t.Revenue += v.TotalSpent
	}
	if st.TotalVisitors > 0 {
		st.AverageSpending = round2(st.TotalRevenue / float64(st.TotalVisitors))
		st.AverageVisits = round2(float64(visits) / float64(st.TotalVisitors))
	}

	for _, level := range []VIPLevel{VIPPlatinum, VIPGold, VIPSilver, VIPBronze} {
		if t, ok := byTier[level]; ok {
			st.TierBreakdown = append(st.TierBreakdown, *t)
		}
	}
	return st
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
