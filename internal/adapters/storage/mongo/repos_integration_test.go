//go:build integration

package mongo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmongo "github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/mongo"

	"zoo-management/internal/domain/animals"
	"zoo-management/internal/domain/exhibits"
	"zoo-management/internal/domain/reports"
	"zoo-management/internal/domain/tickets"
	"zoo-management/internal/platform/sentinel"
)

func startMongo(t *testing.T) *mongo.Database {
	t.Helper()
	ctx := context.Background()

	container, err := tcmongo.Run(ctx, "mongo:7")
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	store, err := Connect(ctx, uri, "zoo_test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(ctx) })

	require.NoError(t, EnsureIndexes(ctx, store.DB))
	return store.DB
}

func TestMongoRepos(t *testing.T) {
	db := startMongo(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

	t.Run("attach respeta la capacidad bajo concurrencia", func(t *testing.T) {
		repo := NewExhibitRepo(db)
		require.NoError(t, repo.Create(ctx, exhibits.Exhibit{
			ID:        "ex-1",
			Name:      "Savanna",
			Capacity:  exhibits.Capacity{Animals: 3, Visitors: 100},
			IsActive:  true,
			Status:    exhibits.StatusOpen,
			CreatedAt: now,
			UpdatedAt: now,
		}))

		var wg sync.WaitGroup
		var mu sync.Mutex
		ok, full := 0, 0
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := repo.AttachAnimal(ctx, "ex-1", fmt.Sprintf("a-%d", i), now)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					ok++
				case errors.Is(err, sentinel.ErrCapacityExceeded):
					full++
				}
			}(i)
		}
		wg.Wait()
		require.Equal(t, 3, ok)
		require.Equal(t, 7, full)

		got, err := repo.GetByID(ctx, "ex-1")
		require.NoError(t, err)
		require.Len(t, got.Animals, 3)
		require.Equal(t, 3, got.CurrentOccupancy.Animals)

		got, err = repo.DetachAnimal(ctx, "ex-1", got.Animals[0], now)
		require.NoError(t, err)
		require.Len(t, got.Animals, 2)
		require.Equal(t, 2, got.CurrentOccupancy.Animals)
	})

	t.Run("save con versión vieja da conflicto", func(t *testing.T) {
		repo := NewAnimalRepo(db)
		a := animals.Animal{ID: "an-1", Name: "Leo", Species: "Lion", MicrochipID: "MC-1", IsActive: true, CreatedAt: now}
		require.NoError(t, repo.Create(ctx, a))

		saved, err := repo.Save(ctx, a)
		require.NoError(t, err)
		require.EqualValues(t, 1, saved.Version)

		_, err = repo.Save(ctx, a)
		require.ErrorIs(t, err, sentinel.ErrConflict)

		dup := animals.Animal{ID: "an-2", Name: "Other", Species: "Lion", MicrochipID: "MC-1", CreatedAt: now}
		require.ErrorIs(t, repo.Create(ctx, dup), sentinel.ErrDuplicateKey)

		// sin microchip no choca con el índice parcial
		require.NoError(t, repo.Create(ctx, animals.Animal{ID: "an-3", Name: "A", Species: "Zebra", CreatedAt: now}))
		require.NoError(t, repo.Create(ctx, animals.Animal{ID: "an-4", Name: "B", Species: "Zebra", CreatedAt: now}))

		items, total, err := repo.List(ctx, animals.Filter{Species: "zeb"})
		require.NoError(t, err)
		require.Equal(t, 2, total)
		require.Len(t, items, 2)
	})

	t.Run("un ticket se valida una sola vez", func(t *testing.T) {
		repo := NewTicketRepo(db)
		require.NoError(t, repo.Create(ctx, tickets.Ticket{
			ID:           "t-1",
			TicketID:     "TKT-1",
			VisitorID:    "v-1",
			Type:         tickets.TypeAdult,
			Price:        25,
			PurchaseDate: now,
			VisitDate:    now,
			CreatedAt:    now,
		}))

		results := make(chan error, 5)
		var wg sync.WaitGroup
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repo.MarkUsed(ctx, "TKT-1", now)
				results <- err
			}()
		}
		wg.Wait()
		close(results)

		used := 0
		for err := range results {
			if err == nil {
				used++
				continue
			}
			require.ErrorIs(t, err, sentinel.ErrAlreadyUsed)
		}
		require.Equal(t, 1, used)

		_, err := repo.Refund(ctx, "t-1", 10, "late", now)
		require.ErrorIs(t, err, sentinel.ErrAlreadyUsed)
		require.ErrorIs(t, repo.Delete(ctx, "t-1"), sentinel.ErrAlreadyUsed)
	})

	t.Run("reports conserva el payload", func(t *testing.T) {
		repo := NewReportRepo(db)
		rep := reports.Report{
			ID:        "r-1",
			Title:     "Financial",
			Type:      reports.TypeFinancial,
			Period:    reports.PeriodMonthly,
			Data:      []byte(`{"total":10}`),
			Status:    reports.StatusGenerated,
			CreatedAt: now,
			UpdatedAt: now,
		}
		require.NoError(t, repo.Create(ctx, rep))

		got, err := repo.SetStatus(ctx, "r-1", reports.StatusPublished, now.Add(time.Hour))
		require.NoError(t, err)
		require.Equal(t, reports.StatusPublished, got.Status)
		require.JSONEq(t, `{"total":10}`, string(got.Data))

		_, err = repo.SetStatus(ctx, "missing", reports.StatusArchived, now)
		require.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}
