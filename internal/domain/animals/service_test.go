package animals_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"zoo-management/internal/adapters/storage/memory"
	"zoo-management/internal/domain/animals"
	"zoo-management/internal/domain/exhibits"
	"zoo-management/internal/platform/sentinel"
)

// flakyRepo falla los Save mientras failSave está activo.
type flakyRepo struct {
	animals.Repository
	failSave bool
}

func (r *flakyRepo) Save(ctx context.Context, a animals.Animal) (animals.Animal, error) {
	if r.failSave {
		return animals.Animal{}, errors.New("store unavailable")
	}
	return r.Repository.Save(ctx, a)
}

type AnimalServiceSuite struct {
	suite.Suite
	ctx      context.Context
	repo     *flakyRepo
	exhibits *exhibits.Service
	svc      *animals.Service
	changes  int
}

func TestAnimalServiceSuite(t *testing.T) {
	suite.Run(t, new(AnimalServiceSuite))
}

func (s *AnimalServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.changes = 0
	s.repo = &flakyRepo{Repository: memory.NewAnimalRepo()}
	s.exhibits = exhibits.NewService(memory.NewExhibitRepo())
	s.svc = animals.NewService(s.repo, s.exhibits,
		animals.WithFeedingInterval(8*time.Hour),
		animals.OnChange(func(context.Context) { s.changes++ }),
	)
}

func (s *AnimalServiceSuite) exhibit(capacity int) exhibits.Exhibit {
	e, err := s.exhibits.Create(s.ctx, exhibits.CreateInput{
		Name:     "Exhibit",
		Type:     exhibits.TypeOutdoor,
		Theme:    "savanna",
		Capacity: exhibits.Capacity{Animals: capacity},
	})
	s.Require().NoError(err)
	return e
}

func (s *AnimalServiceSuite) input(name, exhibitID string) animals.CreateInput {
	return animals.CreateInput{
		Name:      name,
		Species:   "Panthera leo",
		Gender:    animals.GenderFemale,
		BirthDate: time.Date(2018, 3, 1, 0, 0, 0, 0, time.UTC),
		Origin:    animals.OriginCaptiveBred,
		ExhibitID: exhibitID,
		Diet:      animals.Diet{Primary: "meat", FeedingFrequency: "daily"},
	}
}

func (s *AnimalServiceSuite) TestCreate_AttachesToExhibit() {
	e := s.exhibit(2)

	a, err := s.svc.Create(s.ctx, s.input("Nala", e.ID))
	s.Require().NoError(err)
	s.Equal(animals.StatusActive, a.Status)
	s.Equal(1, s.changes)

	got, err := s.exhibits.GetByID(s.ctx, e.ID)
	s.Require().NoError(err)
	s.Equal([]string{a.ID}, got.Animals)
	s.Equal(1, got.CurrentOccupancy.Animals)
}

func (s *AnimalServiceSuite) TestCreate_FullExhibitRejectedWithoutSideEffects() {
	e := s.exhibit(1)
	_, err := s.svc.Create(s.ctx, s.input("A", e.ID))
	s.Require().NoError(err)

	_, err = s.svc.Create(s.ctx, s.input("B", e.ID))
	s.ErrorIs(err, sentinel.ErrCapacityExceeded)

	items, total, err := s.svc.List(s.ctx, animals.Filter{})
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Equal("A", items[0].Name)

	got, _ := s.exhibits.GetByID(s.ctx, e.ID)
	s.Equal(1, got.CurrentOccupancy.Animals)
}

func (s *AnimalServiceSuite) TestCreate_UnknownExhibitIsValidationError() {
	_, err := s.svc.Create(s.ctx, s.input("A", "nope"))
	s.ErrorIs(err, sentinel.ErrInvalidInput)
	s.Equal("exhibit not found", err.Error())
}

func (s *AnimalServiceSuite) TestCreate_DuplicateMicrochipReleasesSlot() {
	e := s.exhibit(5)
	in := s.input("A", e.ID)
	in.MicrochipID = "CHIP-1"
	_, err := s.svc.Create(s.ctx, in)
	s.Require().NoError(err)

	in.Name = "B"
	_, err = s.svc.Create(s.ctx, in)
	s.ErrorIs(err, sentinel.ErrDuplicateKey)

	got, _ := s.exhibits.GetByID(s.ctx, e.ID)
	s.Len(got.Animals, 1)
	s.Equal(1, got.CurrentOccupancy.Animals)
}

func (s *AnimalServiceSuite) TestUpdate_MovesBetweenExhibits() {
	from := s.exhibit(1)
	to := s.exhibit(1)
	a, err := s.svc.Create(s.ctx, s.input("A", from.ID))
	s.Require().NoError(err)

	target := to.ID
	moved, err := s.svc.Update(s.ctx, a.ID, animals.UpdateInput{ExhibitID: &target})
	s.Require().NoError(err)
	s.Equal(to.ID, moved.ExhibitID)

	src, _ := s.exhibits.GetByID(s.ctx, from.ID)
	dst, _ := s.exhibits.GetByID(s.ctx, to.ID)
	s.Empty(src.Animals)
	s.Equal(0, src.CurrentOccupancy.Animals)
	s.Equal([]string{a.ID}, dst.Animals)
}

func (s *AnimalServiceSuite) TestUpdate_MoveToFullExhibitKeepsOldPlacement() {
	from := s.exhibit(1)
	to := s.exhibit(1)
	a, err := s.svc.Create(s.ctx, s.input("A", from.ID))
	s.Require().NoError(err)
	_, err = s.svc.Create(s.ctx, s.input("B", to.ID))
	s.Require().NoError(err)

	target := to.ID
	_, err = s.svc.Update(s.ctx, a.ID, animals.UpdateInput{ExhibitID: &target})
	s.ErrorIs(err, sentinel.ErrCapacityExceeded)

	got, _ := s.svc.GetByID(s.ctx, a.ID)
	s.Equal(from.ID, got.ExhibitID)
	src, _ := s.exhibits.GetByID(s.ctx, from.ID)
	s.Equal([]string{a.ID}, src.Animals)
}

func (s *AnimalServiceSuite) TestUpdate_InvalidStatus() {
	e := s.exhibit(1)
	a, err := s.svc.Create(s.ctx, s.input("A", e.ID))
	s.Require().NoError(err)

	bad := animals.Status("sleeping")
	_, err = s.svc.Update(s.ctx, a.ID, animals.UpdateInput{Status: &bad})
	s.ErrorIs(err, sentinel.ErrInvalidInput)
}

func (s *AnimalServiceSuite) TestRetire_FreesExhibitSlot() {
	e := s.exhibit(1)
	a, err := s.svc.Create(s.ctx, s.input("A", e.ID))
	s.Require().NoError(err)

	s.Require().NoError(s.svc.Retire(s.ctx, a.ID))

	got, err := s.svc.GetByID(s.ctx, a.ID)
	s.Require().NoError(err)
	s.False(got.IsActive)
	s.Equal(animals.StatusRetired, got.Status)

	ex, _ := s.exhibits.GetByID(s.ctx, e.ID)
	s.Empty(ex.Animals)

	_, err = s.svc.Create(s.ctx, s.input("B", e.ID))
	s.NoError(err)
}

func (s *AnimalServiceSuite) TestRetire_FailedSaveKeepsPlacement() {
	e := s.exhibit(1)
	a, err := s.svc.Create(s.ctx, s.input("A", e.ID))
	s.Require().NoError(err)

	s.repo.failSave = true
	s.Error(s.svc.Retire(s.ctx, a.ID))
	s.repo.failSave = false

	got, err := s.svc.GetByID(s.ctx, a.ID)
	s.Require().NoError(err)
	s.True(got.IsActive)
	s.Equal(e.ID, got.ExhibitID)

	ex, _ := s.exhibits.GetByID(s.ctx, e.ID)
	s.Equal([]string{a.ID}, ex.Animals)
	s.Equal(1, ex.CurrentOccupancy.Animals)
}

func (s *AnimalServiceSuite) TestRecordHealthCheck_SchedulesNextCheck() {
	e := s.exhibit(1)
	a, err := s.svc.Create(s.ctx, s.input("A", e.ID))
	s.Require().NoError(err)

	date := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	got, err := s.svc.RecordHealthCheck(s.ctx, a.ID, animals.MedicalRecord{
		Date: date, Veterinarian: "Dr. Vet", Diagnosis: "healthy", Treatment: "none",
	})
	s.Require().NoError(err)
	s.Len(got.MedicalRecords, 1)
	s.Equal(date, *got.LastHealthCheck)
	s.Equal(time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC), *got.NextHealthCheck)
	s.Equal(a.Version+1, got.Version)
}

func (s *AnimalServiceSuite) TestRecordFeeding_SchedulesNextFeeding() {
	e := s.exhibit(1)
	a, err := s.svc.Create(s.ctx, s.input("A", e.ID))
	s.Require().NoError(err)

	at := time.Date(2026, 2, 1, 6, 0, 0, 0, time.UTC)
	got, err := s.svc.RecordFeeding(s.ctx, a.ID, at)
	s.Require().NoError(err)
	s.Equal(at.Add(8*time.Hour), *got.NextFeedingDue)
}

func (s *AnimalServiceSuite) TestAddFeedingScheduleEntry() {
	e := s.exhibit(1)
	a, err := s.svc.Create(s.ctx, s.input("A", e.ID))
	s.Require().NoError(err)

	_, err = s.svc.AddFeedingScheduleEntry(s.ctx, a.ID, animals.FeedingEntryInput{Time: "25:00", FoodType: "meat", Quantity: "5kg"})
	s.ErrorIs(err, sentinel.ErrInvalidInput)

	entry, err := s.svc.AddFeedingScheduleEntry(s.ctx, a.ID, animals.FeedingEntryInput{Time: "08:30", FoodType: "meat", Quantity: "5kg"})
	s.Require().NoError(err)
	s.NotEmpty(entry.ID)

	got, _ := s.svc.GetByID(s.ctx, a.ID)
	s.Len(got.FeedingSchedule, 1)
}

func (s *AnimalServiceSuite) TestSearchAndStats() {
	e := s.exhibit(3)
	in := s.input("Simba", e.ID)
	in.Gender = animals.GenderMale
	in.IsEndangered = true
	_, err := s.svc.Create(s.ctx, in)
	s.Require().NoError(err)
	_, err = s.svc.Create(s.ctx, s.input("Nala", e.ID))
	s.Require().NoError(err)

	found, err := s.svc.Search(s.ctx, "simb")
	s.Require().NoError(err)
	s.Len(found, 1)

	st, err := s.svc.Stats(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, st.TotalAnimals)
	s.Equal(1, st.EndangeredCount)
	s.Require().Len(st.SpeciesBreakdown, 1)
	s.Equal(1, st.SpeciesBreakdown[0].Males)
	s.Equal(1, st.SpeciesBreakdown[0].Females)
}
