package exhibits

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zoo-management/internal/platform/sentinel"
)

func TestAttach_RejectsWhenFullWithoutMutation(t *testing.T) {
	e := Exhibit{Capacity: Capacity{Animals: 1}, Animals: []string{}}

	e, err := Attach(e, "a")
	require.NoError(t, err)
	assert.Equal(t, 1, e.CurrentOccupancy.Animals)

	after, err := Attach(e, "b")
	assert.True(t, errors.Is(err, sentinel.ErrCapacityExceeded))
	assert.Equal(t, []string{"a"}, after.Animals)
	assert.Equal(t, 1, after.CurrentOccupancy.Animals)
}

func TestAttach_IsIdempotent(t *testing.T) {
	e := Exhibit{Capacity: Capacity{Animals: 1}, Animals: []string{"a"}, CurrentOccupancy: Occupancy{Animals: 1}}

	out, err := Attach(e, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, out.Animals)
}

func TestAttach_DoesNotAliasInput(t *testing.T) {
	base := make([]string, 1, 4)
	base[0] = "a"
	e := Exhibit{Capacity: Capacity{Animals: 4}, Animals: base}

	x, _ := Attach(e, "x")
	y, _ := Attach(e, "y")

	assert.Equal(t, []string{"a", "x"}, x.Animals)
	assert.Equal(t, []string{"a", "y"}, y.Animals)
}

func TestOccupancyInvariant_RandomSequence(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	ids := []string{"a", "b", "c", "d", "e", "f"}
	e := Exhibit{Capacity: Capacity{Animals: 4}, Animals: []string{}}

	for i := 0; i < 500; i++ {
		id := ids[rng.Intn(len(ids))]
		if rng.Intn(2) == 0 {
			next, err := Attach(e, id)
			if err != nil {
				require.ErrorIs(t, err, sentinel.ErrCapacityExceeded)
				require.Equal(t, e.Animals, next.Animals)
			}
			e = next
		} else {
			e = Detach(e, id)
		}
		require.Equal(t, len(e.Animals), e.CurrentOccupancy.Animals)
		require.LessOrEqual(t, len(e.Animals), e.Capacity.Animals)
	}
}
