package repository

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/langchou/evpoints/internal/models"
	"github.com/langchou/evpoints/internal/service"
)

// setupStore 启动 PostgreSQL 容器。需要 EVPOINTS_INTEGRATION=1 与可用的 Docker
func setupStore(t *testing.T) *Store {
	t.Helper()
	if os.Getenv("EVPOINTS_INTEGRATION") != "1" {
		t.Skip("set EVPOINTS_INTEGRATION=1 to run PostgreSQL integration tests")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("evpoints_test"),
		postgres.WithUsername("evpoints"),
		postgres.WithPassword("evpoints"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := New(ctx, dsn, PoolOptions{MaxConns: 5, MinConns: 1})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.Migrate(ctx))
	return NewStore(db)
}

func seed(t *testing.T, s *Store, statuses ...models.PointStatus) {
	t.Helper()
	points := make([]*models.ChargePoint, len(statuses))
	for i, st := range statuses {
		points[i] = &models.ChargePoint{
			PointID:    int64(i + 1),
			Name:       "Test location",
			Longitude:  23.7,
			Latitude:   37.9,
			Status:     st,
			CapacityKW: 22,
			ProviderID: 1,
		}
	}
	err := s.ReplaceAll(context.Background(), []*models.Provider{{ID: 1, Name: "Default Provider"}}, points)
	require.NoError(t, err)
}

func TestStoreIntegration(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	t.Run("reset and list", func(t *testing.T) {
		seed(t, s, models.StatusAvailable, models.StatusOffline, models.StatusAvailable)

		points, err := s.ListPoints(ctx, nil)
		require.NoError(t, err)
		require.Len(t, points, 3)
		require.Equal(t, "Default Provider", points[0].ProviderName)

		offline := models.StatusOffline
		points, err = s.ListPoints(ctx, &offline)
		require.NoError(t, err)
		require.Len(t, points, 1)
		require.Equal(t, int64(2), points[0].PointID)

		counts, err := s.CountPoints(ctx)
		require.NoError(t, err)
		require.Equal(t, models.PointCounts{Total: 3, Online: 2, Offline: 1}, *counts)

		missing, err := s.GetPoint(ctx, 999)
		require.NoError(t, err)
		require.Nil(t, missing)
	})

	t.Run("tx rollback keeps business error", func(t *testing.T) {
		seed(t, s, models.StatusAvailable)

		err := s.WithTx(ctx, func(tx service.Tx) error {
			require.NoError(t, tx.UpdateStatus(ctx, 1, models.StatusCharging))
			return service.ErrOverlappingSession
		})
		require.ErrorIs(t, err, service.ErrOverlappingSession)

		p, err := s.GetPoint(ctx, 1)
		require.NoError(t, err)
		require.Equal(t, models.StatusAvailable, p.Status)
	})

	t.Run("history and sessions", func(t *testing.T) {
		seed(t, s, models.StatusAvailable)
		start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

		err := s.WithTx(ctx, func(tx service.Tx) error {
			if err := tx.AppendStatusChange(ctx, 1, models.StatusAvailable, models.StatusCharging); err != nil {
				return err
			}
			return tx.InsertSession(ctx, &models.ChargingSession{
				PointID: 1, StartTime: start, EndTime: start.Add(time.Hour),
				StartSoc: 10, EndSoc: 80, TotalKwh: 30, KwhPrice: 0.3, Amount: 9,
			})
		})
		require.NoError(t, err)

		err = s.WithTx(ctx, func(tx service.Tx) error {
			overlap, err := tx.HasOverlappingSession(ctx, 1, start.Add(time.Hour), start.Add(2*time.Hour))
			require.NoError(t, err)
			require.False(t, overlap, "touching intervals do not overlap")

			overlap, err = tx.HasOverlappingSession(ctx, 1, start.Add(30*time.Minute), start.Add(2*time.Hour))
			require.NoError(t, err)
			require.True(t, overlap)
			return nil
		})
		require.NoError(t, err)

		sessions, err := s.ListSessions(ctx, 1, start.Add(-time.Hour), start.Add(3*time.Hour))
		require.NoError(t, err)
		require.Len(t, sessions, 1)
		require.InDelta(t, 30, sessions[0].TotalKwh, 1e-9)

		changes, err := s.ListStatusChanges(ctx, 1, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
		require.NoError(t, err)
		require.Len(t, changes, 1)
		require.Equal(t, models.StatusCharging, changes[0].NewState)
	})

	t.Run("add points skips existing", func(t *testing.T) {
		seed(t, s, models.StatusAvailable)

		n, err := s.AddPoints(ctx, &models.Provider{ID: 1, Name: "Default Provider"}, []*models.ChargePoint{
			{PointID: 1, Status: models.StatusOffline, CapacityKW: 22},
			{PointID: 2, Status: models.StatusAvailable, CapacityKW: 50},
		})
		require.NoError(t, err)
		require.Equal(t, int64(1), n)

		p, err := s.GetPoint(ctx, 1)
		require.NoError(t, err)
		require.Equal(t, models.StatusAvailable, p.Status)
	})

	t.Run("lock serializes reservations", func(t *testing.T) {
		seed(t, s, models.StatusAvailable)
		svc := service.New(s, zap.NewNop(), service.Options{})

		var wg sync.WaitGroup
		results := make(chan bool, 8)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				r, err := svc.Reservations.Reserve(ctx, 1, nil)
				if err == nil {
					results <- r.Reserved
				}
			}()
		}
		wg.Wait()
		close(results)

		reserved := 0
		for ok := range results {
			if ok {
				reserved++
			}
		}
		require.Equal(t, 1, reserved)
	})
}
