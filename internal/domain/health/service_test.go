package health_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"zoo-management/internal/adapters/storage/memory"
	"zoo-management/internal/domain/animals"
	"zoo-management/internal/domain/exhibits"
	"zoo-management/internal/domain/health"
	"zoo-management/internal/platform/sentinel"
)

type HealthServiceSuite struct {
	suite.Suite
	ctx     context.Context
	animals *animals.Service
	svc     *health.Service
	animal  animals.Animal
}

func TestHealthServiceSuite(t *testing.T) {
	suite.Run(t, new(HealthServiceSuite))
}

func (s *HealthServiceSuite) SetupTest() {
	s.ctx = context.Background()
	ex := exhibits.NewService(memory.NewExhibitRepo())
	s.animals = animals.NewService(memory.NewAnimalRepo(), ex)
	s.svc = health.NewService(memory.NewHealthRepo(), s.animals)

	e, err := ex.Create(s.ctx, exhibits.CreateInput{
		Name:     "Reptile House",
		Type:     exhibits.TypeIndoor,
		Theme:    "desert",
		Capacity: exhibits.Capacity{Animals: 5},
	})
	s.Require().NoError(err)
	s.animal, err = s.animals.Create(s.ctx, animals.CreateInput{
		Name:      "Rex",
		Species:   "Komodo dragon",
		Gender:    animals.GenderMale,
		BirthDate: time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC),
		Origin:    animals.OriginTransfer,
		ExhibitID: e.ID,
		Diet:      animals.Diet{Primary: "meat", FeedingFrequency: "weekly"},
	})
	s.Require().NoError(err)
}

func (s *HealthServiceSuite) checkup(date time.Time) health.CreateInput {
	return health.CreateInput{
		AnimalID:     s.animal.ID,
		Date:         &date,
		Veterinarian: "Dr. Ortiz",
		Diagnosis:    "Healthy",
		Treatment:    "None",
		Cost:         120,
	}
}

func (s *HealthServiceSuite) TestCreate_UpdatesAnimalSchedule() {
	date := time.Date(2026, 3, 31, 9, 0, 0, 0, time.UTC)

	rec, err := s.svc.Create(s.ctx, s.checkup(date))
	s.Require().NoError(err)
	s.Equal("Rex", rec.AnimalName)
	s.Equal(health.TypeCheckup, rec.Type)
	s.Equal(health.StatusCompleted, rec.Status)

	a, err := s.animals.GetByID(s.ctx, s.animal.ID)
	s.Require().NoError(err)
	s.Require().Len(a.MedicalRecords, 1)
	s.Equal(rec.ID, a.MedicalRecords[0].HealthRecordID)
	s.Equal(date, *a.LastHealthCheck)
	s.Equal(date.AddDate(0, 6, 0), *a.NextHealthCheck)
}

func (s *HealthServiceSuite) TestCreate_UnknownAnimal() {
	in := s.checkup(time.Now())
	in.AnimalID = "missing"
	_, err := s.svc.Create(s.ctx, in)
	s.ErrorIs(err, sentinel.ErrInvalidInput)

	_, err = s.svc.CreateForAnimal(s.ctx, "missing", in)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *HealthServiceSuite) TestCreate_Validation() {
	in := s.checkup(time.Now())
	in.Diagnosis = ""
	_, err := s.svc.Create(s.ctx, in)
	s.ErrorIs(err, sentinel.ErrInvalidInput)

	in = s.checkup(time.Now())
	in.Medication = []health.Medication{{Name: "Amoxicillin"}}
	_, err = s.svc.Create(s.ctx, in)
	s.ErrorIs(err, sentinel.ErrInvalidInput)
}

func (s *HealthServiceSuite) TestDueAnimalsAfterOldCheckup() {
	_, err := s.svc.Create(s.ctx, s.checkup(time.Now().AddDate(-1, 0, 0)))
	s.Require().NoError(err)

	items, total, err := s.svc.DueAnimals(s.ctx, 0, 10)
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Equal(s.animal.ID, items[0].ID)

	st, err := s.svc.Stats(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, st.AnimalsDueForCheck)
}

func (s *HealthServiceSuite) TestFollowUps() {
	rec, err := s.svc.Create(s.ctx, s.checkup(time.Now()))
	s.Require().NoError(err)

	past := time.Now().Add(-time.Hour)
	got, err := s.svc.ScheduleFollowUp(s.ctx, rec.ID, past)
	s.Require().NoError(err)
	s.True(got.FollowUpRequired)
	s.Equal(health.StatusPendingFollowUp, got.Status)

	due, total, err := s.svc.FollowUpsDue(s.ctx, 0, 10)
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Equal(rec.ID, due[0].ID)
}

func (s *HealthServiceSuite) TestUpdateAndDelete() {
	rec, err := s.svc.Create(s.ctx, s.checkup(time.Now()))
	s.Require().NoError(err)

	bad := health.Type("massage")
	_, err = s.svc.Update(s.ctx, rec.ID, health.UpdateInput{Type: &bad})
	s.ErrorIs(err, sentinel.ErrInvalidInput)

	cost := 300.0
	got, err := s.svc.Update(s.ctx, rec.ID, health.UpdateInput{Cost: &cost})
	s.Require().NoError(err)
	s.Equal(300.0, got.Cost)

	s.Require().NoError(s.svc.Delete(s.ctx, rec.ID))
	s.ErrorIs(s.svc.Delete(s.ctx, rec.ID), sentinel.ErrNotFound)
}

func (s *HealthServiceSuite) TestSearchAndStats() {
	in := s.checkup(time.Now())
	in.Medication = []health.Medication{{Name: "Ivermectin", Dosage: "1ml", Frequency: "once"}}
	_, err := s.svc.Create(s.ctx, in)
	s.Require().NoError(err)
	_, err = s.svc.Create(s.ctx, s.checkup(time.Now().AddDate(0, -2, 0)))
	s.Require().NoError(err)

	found, err := s.svc.Search(s.ctx, "iverm")
	s.Require().NoError(err)
	s.Len(found, 1)

	st, err := s.svc.Stats(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, st.TotalRecords)
	s.Equal(1, st.RecentRecords)
	s.Equal(240.0, st.TotalCost)
	s.Equal(120.0, st.AverageCost)
	s.Require().Len(st.CommonDiagnoses, 1)
	s.Equal(2, st.CommonDiagnoses[0].Count)
}
