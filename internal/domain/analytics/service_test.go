package analytics

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zoo-management/internal/domain/animals"
	"zoo-management/internal/domain/exhibits"
	"zoo-management/internal/domain/staff"
	"zoo-management/internal/domain/tickets"
	"zoo-management/internal/domain/visitors"
	"zoo-management/internal/platform/cache"
	"zoo-management/internal/platform/sentinel"
)

type fakeAnimals struct {
	items []animals.Animal
	calls atomic.Int32
}

func (f *fakeAnimals) List(_ context.Context, flt animals.Filter) ([]animals.Animal, int, error) {
	f.calls.Add(1)
	var out []animals.Animal
	for _, a := range f.items {
		if flt.IsEndangered != nil && a.IsEndangered != *flt.IsEndangered {
			continue
		}
		out = append(out, a)
	}
	return out, len(out), nil
}

type fakeExhibits struct{ items []exhibits.Exhibit }

func (f *fakeExhibits) List(_ context.Context, flt exhibits.Filter) ([]exhibits.Exhibit, int, error) {
	var out []exhibits.Exhibit
	for _, e := range f.items {
		if flt.Status != "" && e.Status != flt.Status {
			continue
		}
		out = append(out, e)
	}
	return out, len(out), nil
}

type fakeVisitors struct{ items []visitors.Visitor }

func (f *fakeVisitors) List(context.Context, visitors.Filter) ([]visitors.Visitor, int, error) {
	return f.items, len(f.items), nil
}

type fakeTickets struct {
	items []tickets.Ticket
	err   error
}

func (f *fakeTickets) List(_ context.Context, flt tickets.Filter) ([]tickets.Ticket, int, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	var out []tickets.Ticket
	for _, t := range f.items {
		if flt.Refunded != nil && t.Refunded != *flt.Refunded {
			continue
		}
		if flt.PurchasedFrom != nil && t.PurchaseDate.Before(*flt.PurchasedFrom) {
			continue
		}
		if flt.PurchasedTo != nil && !t.PurchaseDate.Before(*flt.PurchasedTo) {
			continue
		}
		if flt.VisitFrom != nil && t.VisitDate.Before(*flt.VisitFrom) {
			continue
		}
		if flt.VisitTo != nil && !t.VisitDate.Before(*flt.VisitTo) {
			continue
		}
		out = append(out, t)
	}
	return out, len(out), nil
}

type fakeStaff struct{ items []staff.Staff }

func (f *fakeStaff) List(_ context.Context, flt staff.Filter) ([]staff.Staff, int, error) {
	var out []staff.Staff
	for _, s := range f.items {
		if flt.IsActive != nil && s.IsActive != *flt.IsActive {
			continue
		}
		out = append(out, s)
	}
	return out, len(out), nil
}

var now = time.Date(2025, 6, 15, 14, 0, 0, 0, time.UTC)

func fixture() (*Service, *fakeAnimals, *fakeTickets) {
	yesterday := now.AddDate(0, 0, -1)
	an := &fakeAnimals{items: []animals.Animal{
		{ID: "a1", Species: "Lion", IsEndangered: true},
		{ID: "a2", Species: "Lion"},
		{ID: "a3", Species: "Zebra"},
	}}
	tk := &fakeTickets{items: []tickets.Ticket{
		{ID: "t1", Type: tickets.TypeAdult, Price: 20, PurchaseDate: now, VisitDate: now},
		{ID: "t2", Type: tickets.TypeAdult, Price: 20, DiscountApplied: 50, PurchaseDate: now, VisitDate: now.AddDate(0, 0, 2)},
		{ID: "t3", Type: tickets.TypeChild, Price: 10, PurchaseDate: yesterday, VisitDate: now},
		{ID: "t4", Type: tickets.TypeChild, Price: 10, PurchaseDate: now, VisitDate: now, Refunded: true},
	}}
	src := Sources{
		Animals: an,
		Exhibits: &fakeExhibits{items: []exhibits.Exhibit{
			{ID: "e1", Name: "Savanna", Status: exhibits.StatusOpen, Capacity: exhibits.Capacity{Animals: 3}, CurrentOccupancy: exhibits.Occupancy{Animals: 2}},
			{ID: "e2", Name: "Pond", Status: exhibits.StatusMaintenance},
		}},
		Visitors: &fakeVisitors{items: []visitors.Visitor{
			{ID: "v1", CreatedAt: now},
			{ID: "v2", CreatedAt: yesterday},
			{ID: "v3", CreatedAt: now.AddDate(0, 0, -40)},
		}},
		Tickets: tk,
		Staff: &fakeStaff{items: []staff.Staff{
			{ID: "s1", IsActive: true},
			{ID: "s2", IsActive: false},
		}},
	}
	svc := NewService(src, cache.NewMemory(), WithLocation(time.UTC))
	svc.now = func() time.Time { return now }
	return svc, an, tk
}

func TestDashboard(t *testing.T) {
	svc, an, _ := fixture()

	got, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Overview{
		TotalAnimals:      3,
		TotalVisitors:     3,
		TotalTickets:      4,
		TotalExhibits:     2,
		TotalStaff:        1,
		TodayRevenue:      30,
		TodayVisitors:     3,
		EndangeredAnimals: 1,
		OpenExhibits:      1,
	}, got)
	// total y amenazados se consultan en paralelo
	assert.Equal(t, int32(2), an.calls.Load())
}

func TestDashboard_PropagatesSourceErrors(t *testing.T) {
	svc, _, tk := fixture()
	tk.err = errors.New("boom")

	_, err := svc.Dashboard(context.Background())
	assert.EqualError(t, err, "boom")
}

func TestRevenueTrends(t *testing.T) {
	svc, _, _ := fixture()

	got, err := svc.RevenueTrends(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, []DailyRevenue{
		{Date: "2025-06-14", Revenue: 10, Tickets: 1},
		{Date: "2025-06-15", Revenue: 30, Tickets: 2},
	}, got)

	got, err = svc.RevenueTrends(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = svc.RevenueTrends(context.Background(), 400)
	assert.ErrorIs(t, err, sentinel.ErrInvalidInput)
}

func TestVisitorTrends_DefaultsToThirtyDays(t *testing.T) {
	svc, _, _ := fixture()

	got, err := svc.VisitorTrends(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, []DailyCount{
		{Date: "2025-06-14", Count: 1},
		{Date: "2025-06-15", Count: 1},
	}, got)
}

func TestDistributions(t *testing.T) {
	svc, _, _ := fixture()
	ctx := context.Background()

	types, err := svc.TicketTypeDistribution(ctx)
	require.NoError(t, err)
	assert.Equal(t, []TicketTypeShare{
		{Type: "adult", Count: 2, Revenue: 30},
		{Type: "child", Count: 2, Revenue: 10},
	}, types)

	species, err := svc.SpeciesDistribution(ctx)
	require.NoError(t, err)
	assert.Equal(t, []SpeciesShare{
		{Species: "Lion", Count: 2, Endangered: 1},
		{Species: "Zebra", Count: 1},
	}, species)

	rates, err := svc.OccupancyRates(ctx)
	require.NoError(t, err)
	require.Len(t, rates, 2)
	assert.Equal(t, 66.67, rates[0].OccupancyRate)
	assert.Zero(t, rates[1].OccupancyRate)
}

func TestMemoizationAndInvalidate(t *testing.T) {
	svc, an, _ := fixture()
	ctx := context.Background()

	_, err := svc.SpeciesDistribution(ctx)
	require.NoError(t, err)
	an.items = append(an.items, animals.Animal{ID: "a4", Species: "Okapi"})

	cached, err := svc.SpeciesDistribution(ctx)
	require.NoError(t, err)
	assert.Len(t, cached, 2, "served from cache")
	assert.Equal(t, int32(1), an.calls.Load())

	svc.InvalidateQuietly(ctx)

	fresh, err := svc.SpeciesDistribution(ctx)
	require.NoError(t, err)
	assert.Len(t, fresh, 3)
	assert.Equal(t, int32(2), an.calls.Load())
}
