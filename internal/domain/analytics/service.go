package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"zoo-management/internal/domain/animals"
	"zoo-management/internal/domain/exhibits"
	"zoo-management/internal/domain/staff"
	"zoo-management/internal/domain/tickets"
	"zoo-management/internal/domain/visitors"
	"zoo-management/internal/platform/cache"
	"zoo-management/internal/platform/logger"
	"zoo-management/internal/platform/sentinel"
)

const (
	// KeyPrefix es el namespace de todas las entradas de analytics en el cache.
	KeyPrefix  = "analytics:"
	DefaultTTL = 5 * time.Minute

	defaultTrendDays = 30
	maxTrendDays     = 365
)

var ErrInvalidDays = sentinel.Invalid(fmt.Sprintf("days must be between 1 and %d", maxTrendDays))

type AnimalSource interface {
	List(ctx context.Context, f animals.Filter) ([]animals.Animal, int, error)
}

type ExhibitSource interface {
	List(ctx context.Context, f exhibits.Filter) ([]exhibits.Exhibit, int, error)
}

type VisitorSource interface {
	List(ctx context.Context, f visitors.Filter) ([]visitors.Visitor, int, error)
}

type TicketSource interface {
	List(ctx context.Context, f tickets.Filter) ([]tickets.Ticket, int, error)
}

type StaffSource interface {
	List(ctx context.Context, f staff.Filter) ([]staff.Staff, int, error)
}

// Sources agrupa las lecturas de los demás módulos; los services de cada
// dominio las satisfacen.
type Sources struct {
	Animals  AnimalSource
	Exhibits ExhibitSource
	Visitors VisitorSource
	Tickets  TicketSource
	Staff    StaffSource
}

type Service struct {
	src   Sources
	cache cache.Cache
	ttl   time.Duration
	loc   *time.Location
	now   func() time.Time
}

type Option func(*Service)

func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func NewService(src Sources, c cache.Cache, opts ...Option) *Service {
	s := &Service{
		src:   src,
		cache: c,
		ttl:   DefaultTTL,
		loc:   time.Local,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Invalidate vacía el namespace completo.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Invalidate(ctx, KeyPrefix)
}

// InvalidateQuietly es el hook de escritura de otros módulos: un error del
// cache solo se registra.
func (s *Service) InvalidateQuietly(ctx context.Context) {
	if err := s.Invalidate(ctx); err != nil {
		logger.FromContext(ctx).Warn("analytics cache invalidation failed", map[string]any{"error": err.Error()})
	}
}

func (s *Service) Dashboard(ctx context.Context) (Overview, error) {
	return cache.Memoize(ctx, s.cache, KeyPrefix+"dashboard", s.ttl, s.dashboard)
}

func (s *Service) dashboard(ctx context.Context) (Overview, error) {
	var out Overview
	from, to := s.today()
	endangered, activeStaff, open := true, true, exhibits.StatusOpen

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, n, err := s.src.Animals.List(gctx, animals.Filter{Limit: 1})
		out.TotalAnimals = n
		return err
	})
	g.Go(func() error {
		_, n, err := s.src.Animals.List(gctx, animals.Filter{IsEndangered: &endangered, Limit: 1})
		out.EndangeredAnimals = n
		return err
	})
	g.Go(func() error {
		_, n, err := s.src.Visitors.List(gctx, visitors.Filter{Limit: 1})
		out.TotalVisitors = n
		return err
	})
	g.Go(func() error {
		_, n, err := s.src.Tickets.List(gctx, tickets.Filter{Limit: 1})
		out.TotalTickets = n
		return err
	})
	g.Go(func() error {
		_, n, err := s.src.Exhibits.List(gctx, exhibits.Filter{Limit: 1})
		out.TotalExhibits = n
		return err
	})
	g.Go(func() error {
		_, n, err := s.src.Exhibits.List(gctx, exhibits.Filter{Status: open, Limit: 1})
		out.OpenExhibits = n
		return err
	})
	g.Go(func() error {
		_, n, err := s.src.Staff.List(gctx, staff.Filter{IsActive: &activeStaff, Limit: 1})
		out.TotalStaff = n
		return err
	})
	g.Go(func() error {
		sold, _, err := s.src.Tickets.List(gctx, tickets.Filter{PurchasedFrom: &from, PurchasedTo: &to})
		if err != nil {
			return err
		}
		rev := 0.0
		for _, t := range sold {
			if !t.Refunded {
				rev += t.FinalPrice()
			}
		}
		out.TodayRevenue = round2(rev)
		return nil
	})
	g.Go(func() error {
		_, n, err := s.src.Tickets.List(gctx, tickets.Filter{VisitFrom: &from, VisitTo: &to, Limit: 1})
		out.TodayVisitors = n
		return err
	})
	if err := g.Wait(); err != nil {
		return Overview{}, err
	}
	return out, nil
}

// RevenueTrends agrupa por día de compra los últimos days días (hoy incluido).
// Los tickets reembolsados no cuentan.
func (s *Service) RevenueTrends(ctx context.Context, days int) ([]DailyRevenue, error) {
	days, err := normalizeDays(days)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("%srevenue_trends:%d", KeyPrefix, days)
	return cache.Memoize(ctx, s.cache, key, s.ttl, func(ctx context.Context) ([]DailyRevenue, error) {
		from := s.since(days)
		refunded := false
		items, _, err := s.src.Tickets.List(ctx, tickets.Filter{PurchasedFrom: &from, Refunded: &refunded})
		if err != nil {
			return nil, err
		}
		byDay := map[string]*DailyRevenue{}
		for _, t := range items {
			d := t.PurchaseDate.In(s.loc).Format(time.DateOnly)
			row, ok := byDay[d]
			if !ok {
				row = &DailyRevenue{Date: d}
				byDay[d] = row
			}
			row.Tickets++
			row.Revenue += t.FinalPrice()
		}
		out := make([]DailyRevenue, 0, len(byDay))
		for _, row := range byDay {
			row.Revenue = round2(row.Revenue)
			out = append(out, *row)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
		return out, nil
	})
}

// VisitorTrends cuenta altas de visitantes por día.
func (s *Service) VisitorTrends(ctx context.Context, days int) ([]DailyCount, error) {
	days, err := normalizeDays(days)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("%svisitor_trends:%d", KeyPrefix, days)
	return cache.Memoize(ctx, s.cache, key, s.ttl, func(ctx context.Context) ([]DailyCount, error) {
		from := s.since(days)
		items, _, err := s.src.Visitors.List(ctx, visitors.Filter{})
		if err != nil {
			return nil, err
		}
		byDay := map[string]int{}
		for _, v := range items {
			if v.CreatedAt.Before(from) {
				continue
			}
			byDay[v.CreatedAt.In(s.loc).Format(time.DateOnly)]++
		}
		out := make([]DailyCount, 0, len(byDay))
		for d, n := range byDay {
			out = append(out, DailyCount{Date: d, Count: n})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
		return out, nil
	})
}

func (s *Service) TicketTypeDistribution(ctx context.Context) ([]TicketTypeShare, error) {
	return cache.Memoize(ctx, s.cache, KeyPrefix+"ticket_types", s.ttl, func(ctx context.Context) ([]TicketTypeShare, error) {
		items, _, err := s.src.Tickets.List(ctx, tickets.Filter{})
		if err != nil {
			return nil, err
		}
		byType := map[tickets.Type]*TicketTypeShare{}
		for _, t := range items {
			row, ok := byType[t.Type]
			if !ok {
				row = &TicketTypeShare{Type: string(t.Type)}
				byType[t.Type] = row
			}
			row.Count++
			if !t.Refunded {
				row.Revenue += t.FinalPrice()
			}
		}
		out := make([]TicketTypeShare, 0, len(byType))
		for _, row := range byType {
			row.Revenue = round2(row.Revenue)
			out = append(out, *row)
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].Count != out[j].Count {
				return out[i].Count > out[j].Count
			}
			return out[i].Type < out[j].Type
		})
		return out, nil
	})
}

func (s *Service) SpeciesDistribution(ctx context.Context) ([]SpeciesShare, error) {
	return cache.Memoize(ctx, s.cache, KeyPrefix+"species", s.ttl, func(ctx context.Context) ([]SpeciesShare, error) {
		items, _, err := s.src.Animals.List(ctx, animals.Filter{})
		if err != nil {
			return nil, err
		}
		bySpecies := map[string]*SpeciesShare{}
		for _, a := range items {
			row, ok := bySpecies[a.Species]
			if !ok {
				row = &SpeciesShare{Species: a.Species}
				bySpecies[a.Species] = row
			}
			row.Count++
			if a.IsEndangered {
				row.Endangered++
			}
		}
		out := make([]SpeciesShare, 0, len(bySpecies))
		for _, row := range bySpecies {
			out = append(out, *row)
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].Count != out[j].Count {
				return out[i].Count > out[j].Count
			}
			return out[i].Species < out[j].Species
		})
		return out, nil
	})
}

// OccupancyRates usa la capacidad de animales; sin capacidad la tasa es 0.
func (s *Service) OccupancyRates(ctx context.Context) ([]OccupancyRate, error) {
	return cache.Memoize(ctx, s.cache, KeyPrefix+"occupancy", s.ttl, func(ctx context.Context) ([]OccupancyRate, error) {
		items, _, err := s.src.Exhibits.List(ctx, exhibits.Filter{})
		if err != nil {
			return nil, err
		}
		out := make([]OccupancyRate, 0, len(items))
		for _, e := range items {
			row := OccupancyRate{
				ExhibitID: e.ID,
				Name:      e.Name,
				Capacity:  e.Capacity.Animals,
				Occupied:  e.CurrentOccupancy.Animals,
			}
			if row.Capacity > 0 {
				row.OccupancyRate = round2(float64(row.Occupied) / float64(row.Capacity) * 100)
			}
			out = append(out, row)
		}
		return out, nil
	})
}

func (s *Service) today() (time.Time, time.Time) {
	y, m, d := s.now().In(s.loc).Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, s.loc)
	return from, from.AddDate(0, 0, 1)
}

// since es el inicio del día days-1 días atrás.
func (s *Service) since(days int) time.Time {
	from, _ := s.today()
	return from.AddDate(0, 0, -(days - 1))
}

func normalizeDays(days int) (int, error) {
	if days == 0 {
		return defaultTrendDays, nil
	}
	if days < 1 || days > maxTrendDays {
		return 0, ErrInvalidDays
	}
	return days, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
