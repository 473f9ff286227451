package visitors_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"zoo-management/internal/adapters/storage/memory"
	"zoo-management/internal/domain/visitors"
	"zoo-management/internal/platform/sentinel"
)

type VisitorServiceSuite struct {
	suite.Suite
	ctx     context.Context
	svc     *visitors.Service
	changes atomic.Int32
}

func TestVisitorServiceSuite(t *testing.T) {
	suite.Run(t, new(VisitorServiceSuite))
}

func (s *VisitorServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.changes.Store(0)
	s.svc = visitors.NewService(memory.NewVisitorRepo(), visitors.OnChange(func(context.Context) { s.changes.Add(1) }))
}

func (s *VisitorServiceSuite) register(email string) visitors.Visitor {
	v, err := s.svc.Create(s.ctx, visitors.CreateInput{
		FirstName: "Ana",
		LastName:  "Pérez",
		Email:     email,
	})
	s.Require().NoError(err)
	return v
}

func (s *VisitorServiceSuite) TestCreate_Defaults() {
	v := s.register("Ana.Perez@Example.com")

	s.Equal("ana.perez@example.com", v.Email)
	s.Equal(visitors.VIPBronze, v.VIPLevel)
	s.Equal(visitors.SourceWebsite, v.Source)
	s.Equal("en", v.Preferences.Language)
	s.Equal(visitors.CommunicationEmail, v.Preferences.CommunicationMethod)
	s.True(v.IsActive)
	s.Zero(v.TotalVisits)
	s.NotNil(v.VisitHistory)
}

func (s *VisitorServiceSuite) TestCreate_DuplicateEmail() {
	s.register("ana@example.com")

	_, err := s.svc.Create(s.ctx, visitors.CreateInput{FirstName: "Otra", LastName: "Ana", Email: "ANA@example.com"})
	s.ErrorIs(err, sentinel.ErrDuplicateKey)
}

func (s *VisitorServiceSuite) TestCreate_Validation() {
	_, err := s.svc.Create(s.ctx, visitors.CreateInput{FirstName: "A", LastName: "B", Email: "not-an-email"})
	s.ErrorIs(err, sentinel.ErrInvalidInput)

	_, err = s.svc.Create(s.ctx, visitors.CreateInput{FirstName: "A", LastName: "B", Email: "a@b.com", Phone: "abc"})
	s.ErrorIs(err, sentinel.ErrInvalidInput)

	_, err = s.svc.Create(s.ctx, visitors.CreateInput{
		FirstName:  "A",
		LastName:   "B",
		Email:      "a@b.com",
		Membership: &visitors.Membership{Type: "gold-ish"},
	})
	s.ErrorIs(err, sentinel.ErrInvalidInput)
}

func (s *VisitorServiceSuite) TestRecordVisit_RecalculatesAggregates() {
	v := s.register("ana@example.com")

	v, err := s.svc.RecordVisit(s.ctx, v.ID, visitors.VisitInput{Duration: 90, Spending: visitors.Spending{Total: 600}})
	s.Require().NoError(err)
	s.Equal(1, v.TotalVisits)
	s.Equal(600.0, v.TotalSpent)
	s.Equal(visitors.VIPBronze, v.VIPLevel)
	s.Equal(90, v.AverageVisitDuration)

	v, err = s.svc.RecordVisit(s.ctx, v.ID, visitors.VisitInput{Duration: 121, Spending: visitors.Spending{Food: 1500, Souvenirs: 500}})
	s.Require().NoError(err)
	s.Equal(2, v.TotalVisits)
	s.Equal(2600.0, v.TotalSpent)
	s.Equal(visitors.VIPSilver, v.VIPLevel)
	s.Equal(106, v.AverageVisitDuration)
	s.NotNil(v.LastVisitDate)
	s.Equal(int32(2), s.changes.Load())
}

func (s *VisitorServiceSuite) TestRecordVisit_DurationFromEntryExit() {
	v := s.register("ana@example.com")
	entry := time.Now().Add(-3 * time.Hour)
	exit := entry.Add(150 * time.Minute)

	v, err := s.svc.RecordVisit(s.ctx, v.ID, visitors.VisitInput{EntryTime: &entry, ExitTime: &exit})
	s.Require().NoError(err)
	s.Equal(150, v.VisitHistory[0].Duration)
	s.Equal(1, v.VisitHistory[0].GroupSize)
}

func (s *VisitorServiceSuite) TestRecordVisit_Rejections() {
	v := s.register("ana@example.com")

	_, err := s.svc.RecordVisit(s.ctx, v.ID, visitors.VisitInput{Spending: visitors.Spending{Food: -1}})
	s.ErrorIs(err, sentinel.ErrInvalidInput)

	_, err = s.svc.RecordVisit(s.ctx, v.ID, visitors.VisitInput{Feedback: &visitors.Feedback{Rating: 6}})
	s.ErrorIs(err, sentinel.ErrInvalidInput)

	_, err = s.svc.RecordVisit(s.ctx, "missing", visitors.VisitInput{})
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.Require().NoError(s.svc.Delete(s.ctx, v.ID))
	_, err = s.svc.RecordVisit(s.ctx, v.ID, visitors.VisitInput{})
	s.ErrorIs(err, sentinel.ErrInvalidInput)
	s.Zero(s.changes.Load())
}

func (s *VisitorServiceSuite) TestUpdate_AggregatesUntouchedAndEmailUnique() {
	s.register("taken@example.com")
	v := s.register("ana@example.com")
	v, err := s.svc.RecordVisit(s.ctx, v.ID, visitors.VisitInput{Spending: visitors.Spending{Total: 5200}})
	s.Require().NoError(err)
	s.Equal(visitors.VIPGold, v.VIPLevel)

	notes := "prefers mornings"
	v, err = s.svc.Update(s.ctx, v.ID, visitors.UpdateInput{Notes: &notes})
	s.Require().NoError(err)
	s.Equal(5200.0, v.TotalSpent)
	s.Equal(visitors.VIPGold, v.VIPLevel)
	s.Equal(notes, v.Notes)

	taken := "TAKEN@example.com"
	_, err = s.svc.Update(s.ctx, v.ID, visitors.UpdateInput{Email: &taken})
	s.ErrorIs(err, sentinel.ErrDuplicateKey)
}

func (s *VisitorServiceSuite) TestLoyaltyPointsAndTickets() {
	v := s.register("ana@example.com")

	_, err := s.svc.AddLoyaltyPoints(s.ctx, v.ID, 0, "")
	s.ErrorIs(err, sentinel.ErrInvalidInput)

	v, err = s.svc.AddLoyaltyPoints(s.ctx, v.ID, 50, "birthday")
	s.Require().NoError(err)
	v, err = s.svc.AddLoyaltyPoints(s.ctx, v.ID, 25, "")
	s.Require().NoError(err)
	s.Equal(75, v.LoyaltyPoints)

	v, err = s.svc.AppendTicket(s.ctx, v.ID, visitors.TicketSummary{TicketID: "TKT-1-ABC", Type: "adult", Price: 30})
	s.Require().NoError(err)
	s.Len(v.Tickets, 1)
	s.Zero(v.TotalSpent)
}

func (s *VisitorServiceSuite) TestGetByEmailAndSearch() {
	s.register("ana@example.com")
	s.register("bruno@example.com")

	v, err := s.svc.GetByEmail(s.ctx, " ANA@example.com ")
	s.Require().NoError(err)
	s.Equal("ana@example.com", v.Email)

	_, err = s.svc.GetByEmail(s.ctx, "zzz@example.com")
	s.ErrorIs(err, sentinel.ErrNotFound)

	found, err := s.svc.Search(s.ctx, "BRUNO")
	s.Require().NoError(err)
	s.Len(found, 1)
}

func (s *VisitorServiceSuite) TestStats() {
	a := s.register("a@example.com")
	b := s.register("b@example.com")
	_, err := s.svc.RecordVisit(s.ctx, a.ID, visitors.VisitInput{Spending: visitors.Spending{Total: 2500}})
	s.Require().NoError(err)
	_, err = s.svc.RecordVisit(s.ctx, b.ID, visitors.VisitInput{Spending: visitors.Spending{Total: 100}})
	s.Require().NoError(err)
	_, err = s.svc.RecordVisit(s.ctx, b.ID, visitors.VisitInput{Spending: visitors.Spending{Total: 100}})
	s.Require().NoError(err)

	st, err := s.svc.Stats(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, st.TotalVisitors)
	s.Equal(2700.0, st.TotalRevenue)
	s.Equal(1350.0, st.AverageSpending)
	s.Equal(1.5, st.AverageVisits)
	s.Equal(2, st.RecentVisitors)
	s.Equal([]visitors.TierStats{
		{Level: visitors.VIPSilver, Count: 1, Revenue: 2500},
		{Level: visitors.VIPBronze, Count: 1, Revenue: 200},
	}, st.TierBreakdown)
}

// Visitas concurrentes sobre el mismo visitante: el historial no pierde
// entradas y los agregados cierran con lo guardado.
func (s *VisitorServiceSuite) TestRecordVisit_ConcurrentWritersKeepHistory() {
	v := s.register("ana@example.com")

	var wg sync.WaitGroup
	var mu sync.Mutex
	okCount := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.svc.RecordVisit(context.Background(), v.ID, visitors.VisitInput{Spending: visitors.Spending{Total: 10}}); err == nil {
				mu.Lock()
				okCount++
				mu.Unlock()
			} else {
				s.ErrorIs(err, sentinel.ErrConflict)
			}
		}()
	}
	wg.Wait()

	got, err := s.svc.GetByID(s.ctx, v.ID)
	s.Require().NoError(err)
	s.Equal(okCount, got.TotalVisits)
	s.Equal(float64(okCount*10), got.TotalSpent)
}
