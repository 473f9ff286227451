package exhibits_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"zoo-management/internal/adapters/storage/memory"
	"zoo-management/internal/domain/exhibits"
	"zoo-management/internal/platform/sentinel"
)

type ExhibitServiceSuite struct {
	suite.Suite
	ctx context.Context
	svc *exhibits.Service
}

func TestExhibitServiceSuite(t *testing.T) {
	suite.Run(t, new(ExhibitServiceSuite))
}

func (s *ExhibitServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.svc = exhibits.NewService(memory.NewExhibitRepo())
}

func (s *ExhibitServiceSuite) create(animals int) exhibits.Exhibit {
	e, err := s.svc.Create(s.ctx, exhibits.CreateInput{
		Name:     "Savanna",
		Type:     exhibits.TypeOutdoor,
		Theme:    "african_savanna",
		Capacity: exhibits.Capacity{Visitors: 100, Animals: animals},
	})
	s.Require().NoError(err)
	return e
}

func (s *ExhibitServiceSuite) TestCreate_Validation() {
	_, err := s.svc.Create(s.ctx, exhibits.CreateInput{Name: " ", Type: exhibits.TypeOutdoor, Theme: "x"})
	s.ErrorIs(err, sentinel.ErrInvalidInput)

	_, err = s.svc.Create(s.ctx, exhibits.CreateInput{Name: "A", Type: "volcano", Theme: "x"})
	s.ErrorIs(err, sentinel.ErrInvalidInput)

	_, err = s.svc.Create(s.ctx, exhibits.CreateInput{
		Name:           "A",
		Type:           exhibits.TypeIndoor,
		Theme:          "x",
		OperatingHours: exhibits.OperatingHours{Open: "9am"},
	})
	s.ErrorIs(err, sentinel.ErrInvalidInput)
}

func (s *ExhibitServiceSuite) TestAssign_CapacityScenario() {
	e := s.create(1)

	got, err := s.svc.AssignAnimal(s.ctx, e.ID, "animal-a")
	s.Require().NoError(err)
	s.Equal(1, got.CurrentOccupancy.Animals)

	_, err = s.svc.AssignAnimal(s.ctx, e.ID, "animal-b")
	s.ErrorIs(err, sentinel.ErrCapacityExceeded)

	after, err := s.svc.GetByID(s.ctx, e.ID)
	s.Require().NoError(err)
	s.Equal([]string{"animal-a"}, after.Animals)
	s.Equal(1, after.CurrentOccupancy.Animals)
}

func (s *ExhibitServiceSuite) TestAssign_UnknownExhibit() {
	_, err := s.svc.AssignAnimal(s.ctx, "missing", "animal-a")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *ExhibitServiceSuite) TestRelease_SyncsOccupancy() {
	e := s.create(3)
	for _, id := range []string{"a", "b", "c"} {
		_, err := s.svc.AssignAnimal(s.ctx, e.ID, id)
		s.Require().NoError(err)
	}

	got, err := s.svc.ReleaseAnimal(s.ctx, e.ID, "b")
	s.Require().NoError(err)
	s.Equal([]string{"a", "c"}, got.Animals)
	s.Equal(2, got.CurrentOccupancy.Animals)
}

func (s *ExhibitServiceSuite) TestUpdate_CannotLowerCapacityBelowAnimals() {
	e := s.create(2)
	_, err := s.svc.AssignAnimal(s.ctx, e.ID, "a")
	s.Require().NoError(err)
	_, err = s.svc.AssignAnimal(s.ctx, e.ID, "b")
	s.Require().NoError(err)

	_, err = s.svc.Update(s.ctx, e.ID, exhibits.UpdateInput{Capacity: &exhibits.Capacity{Visitors: 10, Animals: 1}})
	s.ErrorIs(err, sentinel.ErrInvalidInput)

	name := "Big Savanna"
	got, err := s.svc.Update(s.ctx, e.ID, exhibits.UpdateInput{Name: &name})
	s.Require().NoError(err)
	s.Equal("Big Savanna", got.Name)
	s.Equal([]string{"a", "b"}, got.Animals)
	s.Equal(2, got.CurrentOccupancy.Animals)
}

func (s *ExhibitServiceSuite) TestRetire_RejectedWhileAnimalsAttached() {
	e := s.create(2)
	_, err := s.svc.AssignAnimal(s.ctx, e.ID, "a")
	s.Require().NoError(err)

	s.ErrorIs(s.svc.Retire(s.ctx, e.ID), sentinel.ErrInvalidInput)

	_, err = s.svc.ReleaseAnimal(s.ctx, e.ID, "a")
	s.Require().NoError(err)
	s.Require().NoError(s.svc.Retire(s.ctx, e.ID))

	got, err := s.svc.GetByID(s.ctx, e.ID)
	s.Require().NoError(err)
	s.False(got.IsActive)

	// un exhibit dado de baja no recibe animales
	_, err = s.svc.AssignAnimal(s.ctx, e.ID, "b")
	s.ErrorIs(err, sentinel.ErrInvalidInput)
}

func (s *ExhibitServiceSuite) TestInspectionSetsNextInspection() {
	e := s.create(1)
	when := time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)

	got, err := s.svc.AddMaintenance(s.ctx, e.ID, exhibits.MaintenanceInput{
		Date:        &when,
		Type:        exhibits.MaintenanceInspection,
		Description: "quarterly inspection",
	})
	s.Require().NoError(err)
	s.Require().NotNil(got.NextInspection)
	s.Equal(time.Date(2026, 7, 15, 9, 0, 0, 0, time.UTC), *got.NextInspection)
	s.Len(got.MaintenanceRecords, 1)
}

func (s *ExhibitServiceSuite) TestStaffAssignment() {
	e := s.create(1)

	_, err := s.svc.AssignStaff(s.ctx, e.ID, "staff-1", "keeper")
	s.Require().NoError(err)
	_, err = s.svc.AssignStaff(s.ctx, e.ID, "staff-1", "keeper")
	s.ErrorIs(err, sentinel.ErrDuplicateKey)

	got, err := s.svc.RemoveStaff(s.ctx, e.ID, "staff-1")
	s.Require().NoError(err)
	s.Empty(got.Staff)

	_, err = s.svc.RemoveStaff(s.ctx, e.ID, "staff-1")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *ExhibitServiceSuite) TestEnvironmentMerge() {
	e := s.create(1)
	min, max := 18.0, 26.0
	_, err := s.svc.UpdateEnvironment(s.ctx, e.ID, exhibits.EnvironmentPatch{
		Temperature: &exhibits.Range{Min: &min, Max: &max},
	})
	s.Require().NoError(err)

	cur := 22.5
	got, err := s.svc.UpdateEnvironment(s.ctx, e.ID, exhibits.EnvironmentPatch{
		Temperature: &exhibits.Range{Current: &cur},
	})
	s.Require().NoError(err)
	s.Equal(18.0, *got.EnvironmentalControls.Temperature.Min)
	s.Equal(22.5, *got.EnvironmentalControls.Temperature.Current)
	s.NotNil(got.EnvironmentalControls.LastChecked)
}

func TestAssignAnimal_ConcurrentRequestsNeverOverfill(t *testing.T) {
	ctx := context.Background()
	svc := exhibits.NewService(memory.NewExhibitRepo())
	e, err := svc.Create(ctx, exhibits.CreateInput{
		Name:     "Aviary",
		Type:     exhibits.TypeAviary,
		Theme:    "tropical",
		Capacity: exhibits.Capacity{Animals: 10},
	})
	require.NoError(t, err)

	var ok, full int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.AssignAnimal(ctx, e.ID, "bird-"+string(rune('A'+i)))
			switch {
			case err == nil:
				atomic.AddInt32(&ok, 1)
			case errors.Is(err, sentinel.ErrCapacityExceeded):
				atomic.AddInt32(&full, 1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	got, err := svc.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 10, ok)
	assert.EqualValues(t, 40, full)
	assert.Len(t, got.Animals, 10)
	assert.Equal(t, 10, got.CurrentOccupancy.Animals)
}
