package tickets_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"zoo-management/internal/adapters/storage/memory"
	"zoo-management/internal/domain/tickets"
	"zoo-management/internal/domain/visitors"
	"zoo-management/internal/platform/sentinel"
	"zoo-management/internal/ports/mail"
	"zoo-management/internal/ports/mail/mocks"
)

type TicketServiceSuite struct {
	suite.Suite
	ctx      context.Context
	ctrl     *gomock.Controller
	mailer   *mocks.MockSender
	visitors *visitors.Service
	visitor  visitors.Visitor
}

func TestTicketServiceSuite(t *testing.T) {
	suite.Run(t, new(TicketServiceSuite))
}

func (s *TicketServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.ctrl = gomock.NewController(s.T())
	s.mailer = mocks.NewMockSender(s.ctrl)
	s.visitors = visitors.NewService(memory.NewVisitorRepo())

	v, err := s.visitors.Create(s.ctx, visitors.CreateInput{FirstName: "Ana", LastName: "Pérez", Email: "ana@example.com"})
	s.Require().NoError(err)
	s.visitor = v
}

func (s *TicketServiceSuite) service(opts ...tickets.Option) *tickets.Service {
	opts = append([]tickets.Option{tickets.WithMailer(s.mailer), tickets.WithLocation(time.UTC)}, opts...)
	return tickets.NewService(memory.NewTicketRepo(), s.visitors, opts...)
}

func (s *TicketServiceSuite) input(visitDate time.Time) tickets.PurchaseInput {
	return tickets.PurchaseInput{
		VisitorID:     s.visitor.ID,
		Type:          tickets.TypeAdult,
		Price:         30,
		PaymentMethod: tickets.PaymentOnline,
		VisitDate:     visitDate,
	}
}

func today() time.Time {
	return time.Now().UTC()
}

func (s *TicketServiceSuite) expectMail(times int) {
	s.mailer.EXPECT().
		Send(gomock.Any(), gomock.Cond(func(x any) bool {
			m, ok := x.(mail.Message)
			return ok && m.To == "ana@example.com" && m.Tag == "ticket_confirmation"
		})).
		Return(nil).
		Times(times)
}

func (s *TicketServiceSuite) TestPurchase_IssuesTicketAndCopiesSummary() {
	s.expectMail(1)
	svc := s.service()

	t, err := svc.Purchase(s.ctx, s.input(today()))
	s.Require().NoError(err)
	s.True(tickets.ValidTicketID(t.TicketID), t.TicketID)
	s.False(t.IsUsed)
	s.False(t.Refunded)

	v, err := s.visitors.GetByID(s.ctx, s.visitor.ID)
	s.Require().NoError(err)
	s.Require().Len(v.Tickets, 1)
	s.Equal(t.TicketID, v.Tickets[0].TicketID)

	got, err := svc.GetByTicketID(s.ctx, " "+t.TicketID+" ")
	s.Require().NoError(err)
	s.Equal(t.ID, got.ID)
}

func (s *TicketServiceSuite) TestPurchase_MailFailureDoesNotFail() {
	s.mailer.EXPECT().Send(gomock.Any(), gomock.Any()).Return(errors.New("smtp down"))
	svc := s.service()

	t, err := svc.Purchase(s.ctx, s.input(today()))
	s.Require().NoError(err)

	_, err = svc.GetByID(s.ctx, t.ID)
	s.NoError(err)
}

func (s *TicketServiceSuite) TestPurchase_Validation() {
	svc := s.service()

	in := s.input(today())
	in.VisitorID = "missing"
	_, err := svc.Purchase(s.ctx, in)
	s.ErrorIs(err, sentinel.ErrInvalidInput)

	_, err = svc.PurchaseForVisitor(s.ctx, "missing", s.input(today()))
	s.ErrorIs(err, sentinel.ErrNotFound)

	in = s.input(today())
	in.DiscountApplied = 120
	_, err = svc.Purchase(s.ctx, in)
	s.ErrorIs(err, sentinel.ErrInvalidInput)

	in = s.input(today().AddDate(0, 0, -2))
	_, err = svc.Purchase(s.ctx, in)
	s.ErrorIs(err, sentinel.ErrInvalidInput)

	in = s.input(today())
	in.Type = "backstage"
	_, err = svc.Purchase(s.ctx, in)
	s.ErrorIs(err, sentinel.ErrInvalidInput)
}

func (s *TicketServiceSuite) TestPurchase_RetriesOnIDCollision() {
	s.expectMail(2)
	ids := []string{"TKT-1-AAAAAAAAA", "TKT-1-AAAAAAAAA", "TKT-1-AAAAAAAAA", "TKT-2-BBBBBBBBB"}
	var calls atomic.Int32
	svc := s.service(tickets.WithIDGenerator(func(time.Time) string {
		return ids[calls.Add(1)-1]
	}))

	first, err := svc.Purchase(s.ctx, s.input(today()))
	s.Require().NoError(err)
	s.Equal("TKT-1-AAAAAAAAA", first.TicketID)

	second, err := svc.Purchase(s.ctx, s.input(today()))
	s.Require().NoError(err)
	s.Equal("TKT-2-BBBBBBBBB", second.TicketID)
	s.Equal(int32(4), calls.Load())
}

func (s *TicketServiceSuite) TestPurchase_GivesUpAfterMaxAttempts() {
	s.expectMail(1)
	svc := s.service(
		tickets.WithIDGenerator(func(time.Time) string { return "TKT-1-AAAAAAAAA" }),
		tickets.WithMaxIDAttempts(3),
	)
	_, err := svc.Purchase(s.ctx, s.input(today()))
	s.Require().NoError(err)

	_, err = svc.Purchase(s.ctx, s.input(today()))
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *TicketServiceSuite) TestValidate_SingleUse() {
	s.expectMail(1)
	svc := s.service()
	t, err := svc.Purchase(s.ctx, s.input(today()))
	s.Require().NoError(err)

	used, err := svc.Validate(s.ctx, t.TicketID)
	s.Require().NoError(err)
	s.True(used.IsUsed)
	s.NotNil(used.UsedAt)

	_, err = svc.Validate(s.ctx, t.TicketID)
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)
}

func (s *TicketServiceSuite) TestValidate_NotValidToday() {
	s.expectMail(1)
	svc := s.service()
	t, err := svc.Purchase(s.ctx, s.input(today().AddDate(0, 0, 1)))
	s.Require().NoError(err)

	_, err = svc.Validate(s.ctx, t.TicketID)
	s.ErrorIs(err, sentinel.ErrNotValidToday)

	got, err := svc.GetByID(s.ctx, t.ID)
	s.Require().NoError(err)
	s.False(got.IsUsed)
}

func (s *TicketServiceSuite) TestValidate_RefundedAndMissing() {
	s.expectMail(1)
	svc := s.service()
	t, err := svc.Purchase(s.ctx, s.input(today()))
	s.Require().NoError(err)

	_, err = svc.Refund(s.ctx, t.ID, "")
	s.Require().NoError(err)

	_, err = svc.Validate(s.ctx, t.TicketID)
	s.ErrorIs(err, sentinel.ErrAlreadyFinalized)

	_, err = svc.Validate(s.ctx, "TKT-0-000000000")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *TicketServiceSuite) TestValidate_ConcurrentOnlyOneWins() {
	s.expectMail(1)
	svc := s.service()
	t, err := svc.Purchase(s.ctx, s.input(today()))
	s.Require().NoError(err)

	var ok, used atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Validate(context.Background(), t.TicketID)
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, sentinel.ErrAlreadyUsed):
				used.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), ok.Load())
	s.Equal(int32(24), used.Load())
}

func (s *TicketServiceSuite) TestRefund() {
	s.expectMail(2)
	svc := s.service()
	in := s.input(today())
	in.DiscountApplied = 20
	t, err := svc.Purchase(s.ctx, in)
	s.Require().NoError(err)

	r, err := svc.Refund(s.ctx, t.ID, "rain")
	s.Require().NoError(err)
	s.True(r.Refunded)
	s.Equal(24.0, r.RefundAmount)
	s.Equal("rain", r.RefundReason)

	_, err = svc.Refund(s.ctx, t.ID, "again")
	s.ErrorIs(err, sentinel.ErrAlreadyFinalized)

	usedTicket, err := svc.Purchase(s.ctx, s.input(today()))
	s.Require().NoError(err)
	_, err = svc.Validate(s.ctx, usedTicket.TicketID)
	s.Require().NoError(err)
	_, err = svc.Refund(s.ctx, usedTicket.ID, "")
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)
}

func (s *TicketServiceSuite) TestUpdateAndDelete_RejectedOnceUsed() {
	s.expectMail(1)
	svc := s.service()
	t, err := svc.Purchase(s.ctx, s.input(today()))
	s.Require().NoError(err)

	notes := "wheelchair"
	updated, err := svc.Update(s.ctx, t.ID, tickets.UpdateInput{Notes: &notes})
	s.Require().NoError(err)
	s.Equal(notes, updated.Notes)
	s.Equal(t.TicketID, updated.TicketID)

	_, err = svc.Validate(s.ctx, t.TicketID)
	s.Require().NoError(err)

	_, err = svc.Update(s.ctx, t.ID, tickets.UpdateInput{Notes: &notes})
	s.ErrorIs(err, sentinel.ErrAlreadyFinalized)

	err = svc.Delete(s.ctx, t.ID)
	s.ErrorIs(err, sentinel.ErrAlreadyFinalized)
}

func (s *TicketServiceSuite) TestTodayAndByVisitor() {
	s.expectMail(3)
	svc := s.service()
	_, err := svc.Purchase(s.ctx, s.input(today()))
	s.Require().NoError(err)
	_, err = svc.Purchase(s.ctx, s.input(today()))
	s.Require().NoError(err)
	_, err = svc.Purchase(s.ctx, s.input(today().AddDate(0, 0, 3)))
	s.Require().NoError(err)

	items, total, err := svc.Today(s.ctx, 0, 10)
	s.Require().NoError(err)
	s.Equal(2, total)
	s.Len(items, 2)

	_, total, err = svc.ByVisitor(s.ctx, s.visitor.ID, 0, 10)
	s.Require().NoError(err)
	s.Equal(3, total)
}
