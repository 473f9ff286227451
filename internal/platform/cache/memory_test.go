package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type overview struct {
	Animals int `json:"animals"`
}

func TestMemory_ExpiresAfterTTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "analytics:overview", overview{Animals: 3}, time.Minute))

	var got overview
	ok, err := m.Get(ctx, "analytics:overview", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, got.Animals)

	now = now.Add(time.Minute)
	ok, err = m.Get(ctx, "analytics:overview", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory_InvalidateByPrefix(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Set(ctx, "analytics:a", 1, time.Hour))
	require.NoError(t, m.Set(ctx, "analytics:b", 2, time.Hour))
	require.NoError(t, m.Set(ctx, "other:c", 3, time.Hour))

	require.NoError(t, m.Invalidate(ctx, "analytics:"))

	var v int
	ok, _ := m.Get(ctx, "analytics:a", &v)
	assert.False(t, ok)
	ok, _ = m.Get(ctx, "other:c", &v)
	assert.True(t, ok)
}

func TestMemoize_ComputesOnceWithinTTL(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	calls := 0
	fn := func(context.Context) (overview, error) {
		calls++
		return overview{Animals: calls}, nil
	}

	first, err := Memoize(ctx, m, "k", time.Hour, fn)
	require.NoError(t, err)
	second, err := Memoize(ctx, m, "k", time.Hour, fn)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
}

func TestMemoize_DoesNotCacheErrors(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	boom := errors.New("boom")

	_, err := Memoize(ctx, m, "k", time.Hour, func(context.Context) (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)

	v, err := Memoize(ctx, m, "k", time.Hour, func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}
