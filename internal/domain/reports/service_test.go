package reports_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"zoo-management/internal/adapters/blob/memstore"
	"zoo-management/internal/adapters/storage/memory"
	"zoo-management/internal/domain/animals"
	"zoo-management/internal/domain/exhibits"
	"zoo-management/internal/domain/health"
	"zoo-management/internal/domain/reports"
	"zoo-management/internal/domain/tickets"
	"zoo-management/internal/domain/visitors"
	"zoo-management/internal/platform/sentinel"
)

type fakeAnimals struct {
	due []animals.Animal
}

func (f fakeAnimals) Stats(context.Context) (animals.Stats, error) {
	return animals.Stats{TotalAnimals: 4, EndangeredCount: 1}, nil
}

func (f fakeAnimals) DueForHealthCheck(context.Context, int, int) ([]animals.Animal, int, error) {
	return f.due, len(f.due), nil
}

type fakeHealth struct {
	records []health.Record
	err     error
}

func (f fakeHealth) Stats(context.Context) (health.Stats, error) {
	return health.Stats{TotalRecords: len(f.records)}, f.err
}

func (f fakeHealth) List(context.Context, health.Filter) ([]health.Record, int, error) {
	return f.records, len(f.records), f.err
}

type fakeVisitors struct {
	items []visitors.Visitor
}

func (f fakeVisitors) Stats(context.Context) (visitors.Stats, error) {
	return visitors.Stats{TotalVisitors: len(f.items), MemberCount: len(f.items)}, nil
}

func (f fakeVisitors) List(context.Context, visitors.Filter) ([]visitors.Visitor, int, error) {
	return f.items, len(f.items), nil
}

type fakeTickets struct {
	items []tickets.Ticket
}

func (f fakeTickets) Stats(context.Context) (tickets.Stats, error) {
	return tickets.ComputeStats(f.items, time.Now(), time.UTC), nil
}

func (f fakeTickets) List(_ context.Context, flt tickets.Filter) ([]tickets.Ticket, int, error) {
	var out []tickets.Ticket
	for _, t := range f.items {
		if flt.PurchasedFrom != nil && t.PurchaseDate.Before(*flt.PurchasedFrom) {
			continue
		}
		if flt.PurchasedTo != nil && !t.PurchaseDate.Before(*flt.PurchasedTo) {
			continue
		}
		out = append(out, t)
	}
	return out, len(out), nil
}

type fakeExhibits struct{}

func (fakeExhibits) Stats(context.Context) (exhibits.Stats, error) {
	return exhibits.Stats{
		Total:            3,
		Open:             2,
		OccupancyPercent: 50,
		MaintenanceDue:   1,
		Occupancy: []exhibits.OccupancyRow{
			{ExhibitID: "e1", Name: "Savanna", Animals: 9, AnimalCapacity: 10, OccupancyPercent: 90},
			{ExhibitID: "e2", Name: "Pond", Animals: 0, AnimalCapacity: 4},
			{ExhibitID: "e3", Name: "Aviary", Animals: 2, AnimalCapacity: 8, OccupancyPercent: 25},
		},
	}, nil
}

type recordingBlobs struct {
	*memstore.Store
	puts    []string
	deletes []string
}

func (b *recordingBlobs) Put(ctx context.Context, key, contentType string, data []byte) error {
	b.puts = append(b.puts, key)
	return b.Store.Put(ctx, key, contentType, data)
}

func (b *recordingBlobs) Delete(ctx context.Context, key string) error {
	b.deletes = append(b.deletes, key)
	return b.Store.Delete(ctx, key)
}

type failingRepo struct {
	reports.Repository
}

func (failingRepo) Create(context.Context, reports.Report) error {
	return errors.New("db down")
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type ReportServiceSuite struct {
	suite.Suite
	ctx   context.Context
	blobs *memstore.Store
	repo  reports.Repository
	src   reports.Sources
	svc   *reports.Service
}

func TestReportServiceSuite(t *testing.T) {
	suite.Run(t, new(ReportServiceSuite))
}

func (s *ReportServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.blobs = memstore.New()
	s.repo = memory.NewReportRepo()
	dob := day(1990, 1, 1)
	s.src = reports.Sources{
		Animals: fakeAnimals{due: []animals.Animal{{ID: "a1", Name: "Simba", Species: "Lion"}}},
		Health: fakeHealth{records: []health.Record{
			{ID: "h1", Date: day(2025, 6, 3), Cost: 100.5},
			{ID: "h2", Date: day(2025, 6, 30).Add(10 * time.Hour), Cost: 50},
			{ID: "h3", Date: day(2025, 7, 1), Cost: 999},
		}},
		Visitors: fakeVisitors{items: []visitors.Visitor{
			{
				ID:          "v1",
				DateOfBirth: &dob,
				Source:      visitors.SourceWebsite,
				CreatedAt:   day(2025, 6, 5),
				VisitHistory: []visitors.Visit{
					{VisitDate: day(2025, 6, 6), Spending: visitors.Spending{Total: 42.5}},
					{VisitDate: day(2025, 5, 1), Spending: visitors.Spending{Total: 10}},
				},
			},
		}},
		Tickets: fakeTickets{items: []tickets.Ticket{
			{ID: "t1", Type: tickets.TypeAdult, Price: 20, PurchaseDate: day(2025, 6, 10)},
			{ID: "t2", Type: tickets.TypeChild, Price: 10, PurchaseDate: day(2025, 6, 30).Add(15 * time.Hour)},
			{ID: "t3", Type: tickets.TypeAdult, Price: 20, PurchaseDate: day(2025, 6, 12), Refunded: true, RefundAmount: 20},
			{ID: "t4", Type: tickets.TypeAdult, Price: 20, PurchaseDate: day(2025, 7, 1)},
		}},
		Exhibits: fakeExhibits{},
	}
	s.svc = reports.NewService(s.repo, s.blobs, s.src, reports.WithLocation(time.UTC))
}

func (s *ReportServiceSuite) june() reports.GenerateInput {
	return reports.GenerateInput{
		Period:      reports.PeriodMonthly,
		StartDate:   day(2025, 6, 1),
		EndDate:     day(2025, 6, 30),
		GeneratedBy: "user-1",
	}
}

func (s *ReportServiceSuite) TestGenerateFinancial() {
	r, err := s.svc.GenerateFinancial(s.ctx, s.june())
	s.Require().NoError(err)

	s.Equal(reports.TypeFinancial, r.Type)
	s.Equal(reports.StatusGenerated, r.Status)
	s.Equal(reports.FormatJSON, r.Format)
	s.Equal("Financial report 2025-06-01 to 2025-06-30", r.Title)
	s.Equal("3 tickets sold in period, revenue 30.00, 1 refunds (20.00)", r.Summary)
	s.Len(r.Recommendations, 2)

	var data reports.FinancialData
	s.Require().NoError(json.Unmarshal(r.Data, &data))
	s.Equal(3, data.Period.TotalTickets)
	s.Equal(30.0, data.Period.TotalRevenue)
	s.Equal(1, data.RefundsInPeriod)
	s.Equal(20.0, data.RefundedAmount)
	s.Equal([]reports.DailyRevenue{
		{Date: "2025-06-10", Revenue: 20, Tickets: 1},
		{Date: "2025-06-30", Revenue: 10, Tickets: 1},
	}, data.DailyRevenue)
	s.Equal(4, data.Overall.TotalTickets)

	stored, err := s.svc.GetByID(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(r.ExportKey, stored.ExportKey)
}

func (s *ReportServiceSuite) TestGenerateAnimalHealth() {
	r, err := s.svc.GenerateAnimalHealth(s.ctx, s.june())
	s.Require().NoError(err)

	var data reports.HealthData
	s.Require().NoError(json.Unmarshal(r.Data, &data))
	s.Equal(2, data.RecordsInPeriod)
	s.Equal(150.5, data.CostInPeriod)
	s.Require().Len(data.DueForCheck, 1)
	s.Equal("Simba", data.DueForCheck[0].Name)
	s.Contains(r.Recommendations, "Schedule health checks for 1 overdue animals")
	s.Contains(r.Recommendations, "Review care plans for 1 endangered animals")
}

func (s *ReportServiceSuite) TestGenerateVisitorAnalytics() {
	r, err := s.svc.GenerateVisitorAnalytics(s.ctx, s.june())
	s.Require().NoError(err)

	var data reports.VisitorData
	s.Require().NoError(json.Unmarshal(r.Data, &data))
	s.Equal(1, data.NewVisitors)
	s.Equal(1, data.VisitsInPeriod)
	s.Equal(42.5, data.SpendingInPeriod)
	s.Equal([]reports.Bucket{{Key: "unspecified", Count: 1}}, data.Demographics.Gender)
	s.Equal([]reports.Bucket{{Key: "website", Count: 1}}, data.Demographics.Source)
	s.Require().Len(data.Demographics.Age, 5)
	s.Equal(reports.Bucket{Key: "31-45", Count: 1}, data.Demographics.Age[2])
}

func (s *ReportServiceSuite) TestGenerateExhibitOccupancy() {
	in := s.june()
	in.Title = "  Q2 occupancy  "
	r, err := s.svc.GenerateExhibitOccupancy(s.ctx, in)
	s.Require().NoError(err)
	s.Equal("Q2 occupancy", r.Title)

	var data reports.ExhibitData
	s.Require().NoError(json.Unmarshal(r.Data, &data))
	s.Require().Len(data.NearCapacity, 1)
	s.Equal("Savanna", data.NearCapacity[0].Name)
	s.Require().Len(data.Empty, 1)
	s.Equal("Pond", data.Empty[0].Name)
	s.Len(r.Recommendations, 2)
}

func (s *ReportServiceSuite) TestGenerateValidation() {
	cases := map[string]func(in *reports.GenerateInput){
		"end before start": func(in *reports.GenerateInput) { in.EndDate = day(2025, 5, 1) },
		"same day":         func(in *reports.GenerateInput) { in.EndDate = in.StartDate },
		"missing author":   func(in *reports.GenerateInput) { in.GeneratedBy = " " },
		"bad period":       func(in *reports.GenerateInput) { in.Period = "hourly" },
		"missing start":    func(in *reports.GenerateInput) { in.StartDate = time.Time{} },
	}
	for name, mutate := range cases {
		s.Run(name, func() {
			in := s.june()
			mutate(&in)
			_, err := s.svc.GenerateFinancial(s.ctx, in)
			s.ErrorIs(err, sentinel.ErrInvalidInput)
		})
	}

	in := s.june()
	in.Period = ""
	r, err := s.svc.GenerateFinancial(s.ctx, in)
	s.Require().NoError(err)
	s.Equal(reports.PeriodCustom, r.Period)
}

func (s *ReportServiceSuite) TestExportRoundTrip() {
	r, err := s.svc.GenerateExhibitOccupancy(s.ctx, s.june())
	s.Require().NoError(err)

	got, raw, err := s.svc.Export(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(r.ID, got.ID)

	var doc reports.Report
	s.Require().NoError(json.Unmarshal(raw, &doc))
	s.Equal(r.ID, doc.ID)
	s.Equal(r.Summary, doc.Summary)

	s.Require().NoError(s.blobs.Delete(s.ctx, r.ExportKey))
	_, _, err = s.svc.Export(s.ctx, r.ID)
	s.ErrorIs(err, reports.ErrExportMissing)
}

func (s *ReportServiceSuite) TestBuildFailureStoresNothing() {
	src := s.src
	src.Health = fakeHealth{err: errors.New("health store down")}
	svc := reports.NewService(s.repo, s.blobs, src)

	_, err := svc.GenerateAnimalHealth(s.ctx, s.june())
	s.Require().Error(err)

	_, total, err := s.svc.List(s.ctx, reports.Filter{})
	s.Require().NoError(err)
	s.Zero(total)
}

func (s *ReportServiceSuite) TestRepoFailureDropsExport() {
	blobs := &recordingBlobs{Store: memstore.New()}
	svc := reports.NewService(failingRepo{}, blobs, s.src)

	_, err := svc.GenerateExhibitOccupancy(s.ctx, s.june())
	s.Require().EqualError(err, "db down")

	s.Require().Len(blobs.puts, 1)
	s.Equal(blobs.puts, blobs.deletes)
	_, err = blobs.Get(s.ctx, blobs.puts[0])
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *ReportServiceSuite) TestPublishArchiveLifecycle() {
	r, err := s.svc.GenerateFinancial(s.ctx, s.june())
	s.Require().NoError(err)

	pub, err := s.svc.Publish(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(reports.StatusPublished, pub.Status)

	again, err := s.svc.Publish(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(reports.StatusPublished, again.Status)

	arch, err := s.svc.Archive(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(reports.StatusArchived, arch.Status)

	_, err = s.svc.Publish(s.ctx, r.ID)
	s.ErrorIs(err, sentinel.ErrAlreadyFinalized)

	_, err = s.svc.Archive(s.ctx, "missing")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *ReportServiceSuite) TestDeleteRemovesExport() {
	r, err := s.svc.GenerateFinancial(s.ctx, s.june())
	s.Require().NoError(err)

	s.Require().NoError(s.svc.Delete(s.ctx, r.ID))

	_, err = s.svc.GetByID(s.ctx, r.ID)
	s.ErrorIs(err, reports.ErrNotFound)
	_, err = s.blobs.Get(s.ctx, r.ExportKey)
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.ErrorIs(s.svc.Delete(s.ctx, r.ID), sentinel.ErrNotFound)
}

func (s *ReportServiceSuite) TestListAndByType() {
	_, err := s.svc.GenerateFinancial(s.ctx, s.june())
	s.Require().NoError(err)
	_, err = s.svc.GenerateExhibitOccupancy(s.ctx, s.june())
	s.Require().NoError(err)

	items, total, err := s.svc.ByType(s.ctx, reports.TypeExhibit, 0, 10)
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Equal(reports.TypeExhibit, items[0].Type)

	_, total, err = s.svc.List(s.ctx, reports.Filter{GeneratedBy: "user-1"})
	s.Require().NoError(err)
	s.Equal(2, total)

	_, _, err = s.svc.ByType(s.ctx, "staff", 0, 10)
	s.ErrorIs(err, sentinel.ErrInvalidInput)
	_, _, err = s.svc.List(s.ctx, reports.Filter{Status: "draft"})
	s.ErrorIs(err, sentinel.ErrInvalidInput)
}
