package tickets

import (
	"context"
	"math"
	"sort"
	"time"
)

type TypeStats struct {
	Type    Type    `json:"type"`
	Count   int     `json:"count"`
	Used    int     `json:"used"`
	Revenue float64 `json:"revenue"`
}

type PaymentStats struct {
	PaymentMethod PaymentMethod `json:"payment_method"`
	Count         int           `json:"count"`
	Revenue       float64       `json:"revenue"`
}

type SalesStats struct {
	Tickets int     `json:"tickets"`
	Revenue float64 `json:"revenue"`
}

// Stats: los ingresos suman el precio final de tickets no reembolsados.
type Stats struct {
	TotalTickets           int            `json:"total_tickets"`
	UsedTickets            int            `json:"used_tickets"`
	UnusedTickets          int            `json:"unused_tickets"`
	RefundedTickets        int            `json:"refunded_tickets"`
	UsageRate              float64        `json:"usage_rate"`
	TotalRevenue           float64        `json:"total_revenue"`
	AveragePrice           float64        `json:"average_price"`
	TypeBreakdown          []TypeStats    `json:"type_breakdown"`
	PaymentMethodBreakdown []PaymentStats `json:"payment_method_breakdown"`
	TodayStats             SalesStats     `json:"today_stats"`
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	items, _, err := s.repo.List(ctx, Filter{})
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(items, s.now(), s.loc), nil
}

func ComputeStats(items []Ticket, now time.Time, loc *time.Location) Stats {
	st := Stats{TypeBreakdown: []TypeStats{}, PaymentMethodBreakdown: []PaymentStats{}}
	byType := map[Type]*TypeStats{}
	byPayment := map[PaymentMethod]*PaymentStats{}
	y, m, d := now.In(loc).Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, loc)
	to := from.AddDate(0, 0, 1)
	priceSum := 0.0

	for _, t := range items {
		st.TotalTickets++
		priceSum += t.Price
		if t.IsUsed {
			st.UsedTickets++
		} else {
			st.UnusedTickets++
		}
		revenue := 0.0
		if t.Refunded {
			st.RefundedTickets++
		} else {
			revenue = t.FinalPrice()
		}
		st.TotalRevenue += revenue

		ts, ok := byType[t.Type]
		if !ok {
			ts = &TypeStats{Type: t.Type}
			byType[t.Type] = ts
		}
		ts.Count++
		ts.Revenue += revenue
		if t.IsUsed {
			ts.Used++
		}

		ps, ok := byPayment[t.PaymentMethod]
		if !ok {
			ps = &PaymentStats{PaymentMethod: t.PaymentMethod}
			byPayment[t.PaymentMethod] = ps
		}
		ps.Count++
		ps.Revenue += revenue

		if !t.PurchaseDate.Before(from) && t.PurchaseDate.Before(to) {
			st.TodayStats.Tickets++
			st.TodayStats.Revenue += revenue
		}
	}

	if st.TotalTickets > 0 {
		st.UsageRate = round2(float64(st.UsedTickets) / float64(st.TotalTickets) * 100)
		st.AveragePrice = round2(priceSum / float64(st.TotalTickets))
	}
	st.TotalRevenue = round2(st.TotalRevenue)
	st.TodayStats.Revenue = round2(st.TodayStats.Revenue)

	for _, ts := range byType {
		ts.Revenue = round2(ts.Revenue)
		st.TypeBreakdown = append(st.TypeBreakdown, *ts)
	}
	sort.Slice(st.TypeBreakdown, func(i, j int) bool {
		if st.TypeBreakdown[i].Count != st.TypeBreakdown[j].Count {
			return st.TypeBreakdown[i].Count > st.TypeBreakdown[j].Count
		}
		return st.TypeBreakdown[i].Type < st.TypeBreakdown[j].Type
	})
	for _, ps := range byPayment {
		ps.Revenue = round2(ps.Revenue)
		st.PaymentMethodBreakdown = append(st.PaymentMethodBreakdown, *ps)
	}
	sort.Slice(st.PaymentMethodBreakdown, func(i, j int) bool {
		a, b := st.PaymentMethodBreakdown[i], st.PaymentMethodBreakdown[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.PaymentMethod < b.PaymentMethod
	})
	return st
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
