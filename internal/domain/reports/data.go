package reports

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"zoo-management/internal/domain/animals"
	"zoo-management/internal/domain/exhibits"
	"zoo-management/internal/domain/health"
	"zoo-management/internal/domain/tickets"
	"zoo-management/internal/domain/visitors"
)

// window es el período del reporte: [from, to).
type window struct {
	from time.Time
	to   time.Time
}

func (w window) contains(t time.Time) bool {
	return !t.Before(w.from) && t.Before(w.to)
}

// content es lo que produce cada generador antes de persistir.
type content struct {
	data            any
	summary         string
	recommendations []string
}

type DueAnimal struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Species         string     `json:"species"`
	NextHealthCheck *time.Time `json:"next_health_check,omitempty"`
}

type HealthData struct {
	Animals         animals.Stats `json:"animals"`
	Health          health.Stats  `json:"health"`
	RecordsInPeriod int           `json:"records_in_period"`
	CostInPeriod    float64       `json:"cost_in_period"`
	DueForCheck     []DueAnimal   `json:"due_for_check"`
}

func (s *Service) buildHealth(ctx context.Context, w window) (content, error) {
	var d HealthData
	var due []animals.Animal

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.Animals, err = s.src.Animals.Stats(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.Health, err = s.src.Health.Stats(gctx)
		return err
	})
	g.Go(func() error {
		records, _, err := s.src.Health.List(gctx, health.Filter{})
		if err != nil {
			return err
		}
		for _, r := range records {
			if w.contains(r.Date) {
				d.RecordsInPeriod++
				d.CostInPeriod += r.Cost
			}
		}
		d.CostInPeriod = round2(d.CostInPeriod)
		return nil
	})
	g.Go(func() (err error) {
		due, _, err = s.src.Animals.DueForHealthCheck(gctx, 0, 0)
		return err
	})
	if err := g.Wait(); err != nil {
		return content{}, err
	}

	d.DueForCheck = make([]DueAnimal, 0, len(due))
	for _, a := range due {
		d.DueForCheck = append(d.DueForCheck, DueAnimal{
			ID:              a.ID,
			Name:            a.Name,
			Species:         a.Species,
			NextHealthCheck: a.NextHealthCheck,
		})
	}

	var recs []string
	if n := len(d.DueForCheck); n > 0 {
		recs = append(recs, fmt.Sprintf("Schedule health checks for %d overdue animals", n))
	}
	if d.Health.FollowUpsPending > 0 {
		recs = append(recs, fmt.Sprintf("Close %d pending follow-ups", d.Health.FollowUpsPending))
	}
	if d.Animals.EndangeredCount > 0 {
		recs = append(recs, fmt.Sprintf("Review care plans for %d endangered animals", d.Animals.EndangeredCount))
	}
	return content{
		data: d,
		summary: fmt.Sprintf("%d animals, %d due for a health check, %d health records in period (cost %.2f)",
			d.Animals.TotalAnimals, len(d.DueForCheck), d.RecordsInPeriod, d.CostInPeriod),
		recommendations: recs,
	}, nil
}

type Bucket struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

type Demographics struct {
	Gender []Bucket `json:"gender"`
	Age    []Bucket `json:"age"`
	Source []Bucket `json:"source"`
}

type VisitorData struct {
	Visitors         visitors.Stats `json:"visitors"`
	NewVisitors      int            `json:"new_visitors"`
	VisitsInPeriod   int            `json:"visits_in_period"`
	SpendingInPeriod float64        `json:"spending_in_period"`
	Demographics     Demographics   `json:"demographics"`
}

var ageRanges = []struct {
	label string
	max   int
}{
	{"0-17", 17},
	{"18-30", 30},
	{"31-45", 45},
	{"46-60", 60},
	{"61+", math.MaxInt},
}

func (s *Service) buildVisitor(ctx context.Context, w window) (content, error) {
	var d VisitorData
	var items []visitors.Visitor

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.Visitors, err = s.src.Visitors.Stats(gctx)
		return err
	})
	g.Go(func() (err error) {
		items, _, err = s.src.Visitors.List(gctx, visitors.Filter{})
		return err
	})
	if err := g.Wait(); err != nil {
		return content{}, err
	}

	now := s.now()
	gender, source := map[string]int{}, map[string]int{}
	ages := make([]int, len(ageRanges))
	for _, v := range items {
		if w.contains(v.CreatedAt) {
			d.NewVisitors++
		}
		for _, visit := range v.VisitHistory {
			if w.contains(visit.VisitDate) {
				d.VisitsInPeriod++
				d.SpendingInPeriod += visit.Spending.Total
			}
		}
		key := string(v.Gender)
		if key == "" {
			key = "unspecified"
		}
		gender[key]++
		source[string(v.Source)]++
		if v.DateOfBirth != nil {
			age := yearsBetween(*v.DateOfBirth, now)
			for i, r := range ageRanges {
				if age <= r.max {
					ages[i]++
					break
				}
			}
		}
	}
	d.SpendingInPeriod = round2(d.SpendingInPeriod)
	d.Demographics = Demographics{Gender: buckets(gender), Source: buckets(source), Age: make([]Bucket, 0, len(ageRanges))}
	for i, r := range ageRanges {
		d.Demographics.Age = append(d.Demographics.Age, Bucket{Key: r.label, Count: ages[i]})
	}

	var recs []string
	if d.Visitors.TotalVisitors > 0 && d.Visitors.MemberCount*5 < d.Visitors.TotalVisitors {
		recs = append(recs, "Less than 20% of visitors hold a membership: promote membership plans")
	}
	if d.NewVisitors == 0 {
		recs = append(recs, "No new visitors registered in period: review marketing channels")
	}
	return content{
		data: d,
		summary: fmt.Sprintf("%d visitors (%d new in period), %d visits in period, spending %.2f",
			d.Visitors.TotalVisitors, d.NewVisitors, d.VisitsInPeriod, d.SpendingInPeriod),
		recommendations: recs,
	}, nil
}

type DailyRevenue struct {
	Date    string  `json:"date"`
	Revenue float64 `json:"revenue"`
	Tickets int     `json:"tickets"`
}

type FinancialData struct {
	Overall         tickets.Stats  `json:"overall"`
	Period          tickets.Stats  `json:"period"`
	RefundsInPeriod int            `json:"refunds_in_period"`
	RefundedAmount  float64        `json:"refunded_amount"`
	DailyRevenue    []DailyRevenue `json:"daily_revenue"`
}

func (s *Service) buildFinancial(ctx context.Context, w window) (content, error) {
	var d FinancialData
	var sold []tickets.Ticket

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.Overall, err = s.src.Tickets.Stats(gctx)
		return err
	})
	g.Go(func() (err error) {
		sold, _, err = s.src.Tickets.List(gctx, tickets.Filter{PurchasedFrom: &w.from, PurchasedTo: &w.to})
		return err
	})
	if err := g.Wait(); err != nil {
		return content{}, err
	}

	d.Period = tickets.ComputeStats(sold, s.now(), s.loc)
	byDay := map[string]*DailyRevenue{}
	for _, t := range sold {
		if t.Refunded {
			d.RefundsInPeriod++
			d.RefundedAmount += t.RefundAmount
			continue
		}
		day := t.PurchaseDate.In(s.loc).Format(time.DateOnly)
		row, ok := byDay[day]
		if !ok {
			row = &DailyRevenue{Date: day}
			byDay[day] = row
		}
		row.Tickets++
		row.Revenue += t.FinalPrice()
	}
	d.RefundedAmount = round2(d.RefundedAmount)
	d.DailyRevenue = make([]DailyRevenue, 0, len(byDay))
	for _, row := range byDay {
		row.Revenue = round2(row.Revenue)
		d.DailyRevenue = append(d.DailyRevenue, *row)
	}
	sort.Slice(d.DailyRevenue, func(i, j int) bool { return d.DailyRevenue[i].Date < d.DailyRevenue[j].Date })

	var recs []string
	if d.Period.TotalTickets > 0 && d.RefundsInPeriod*10 > d.Period.TotalTickets {
		recs = append(recs, "Refunds exceed 10% of tickets sold: review refund causes")
	}
	if d.Period.TotalTickets > 0 && d.Period.UsageRate < 50 {
		recs = append(recs, "Less than half of the tickets sold were used")
	}
	return content{
		data: d,
		summary: fmt.Sprintf("%d tickets sold in period, revenue %.2f, %d refunds (%.2f)",
			d.Period.TotalTickets, d.Period.TotalRevenue, d.RefundsInPeriod, d.RefundedAmount),
		recommendations: recs,
	}, nil
}

// nearCapacity es el umbral de ocupación (porcentaje) que se reporta.
const nearCapacity = 90

type ExhibitData struct {
	Exhibits     exhibits.Stats          `json:"exhibits"`
	NearCapacity []exhibits.OccupancyRow `json:"near_capacity"`
	Empty        []exhibits.OccupancyRow `json:"empty"`
}

func (s *Service) buildExhibit(ctx context.Context, _ window) (content, error) {
	st, err := s.src.Exhibits.Stats(ctx)
	if err != nil {
		return content{}, err
	}
	d := ExhibitData{Exhibits: st, NearCapacity: []exhibits.OccupancyRow{}, Empty: []exhibits.OccupancyRow{}}
	for _, row := range st.Occupancy {
		switch {
		case row.AnimalCapacity > 0 && row.OccupancyPercent >= nearCapacity:
			d.NearCapacity = append(d.NearCapacity, row)
		case row.AnimalCapacity > 0 && row.Animals == 0:
			d.Empty = append(d.Empty, row)
		}
	}

	var recs []string
	if n := len(d.NearCapacity); n > 0 {
		recs = append(recs, fmt.Sprintf("%d exhibits are at or above %d%% capacity", n, nearCapacity))
	}
	if st.MaintenanceDue > 0 {
		recs = append(recs, fmt.Sprintf("Schedule maintenance for %d exhibits", st.MaintenanceDue))
	}
	return content{
		data: d,
		summary: fmt.Sprintf("%d active exhibits (%d open), overall animal occupancy %d%%",
			st.Total, st.Open, st.OccupancyPercent),
		recommendations: recs,
	}, nil
}

func buckets(m map[string]int) []Bucket {
	out := make([]Bucket, 0, len(m))
	for k, n := range m {
		out = append(out, Bucket{Key: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func yearsBetween(from, to time.Time) int {
	years := to.Year() - from.Year()
	if to.Month() < from.Month() || (to.Month() == from.Month() && to.Day() < from.Day()) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
