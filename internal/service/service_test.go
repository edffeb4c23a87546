package service_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/langchou/evpoints/internal/models"
	"github.com/langchou/evpoints/internal/repository/memory"
	"github.com/langchou/evpoints/internal/service"
)

var (
	now     = time.Date(2024, 3, 10, 8, 15, 0, 0, time.UTC)
	athens  = time.FixedZone("", 2*60*60)
	nowFunc = func() time.Time { return now }
)

func setup(t *testing.T, statuses ...models.PointStatus) (*service.Services, *memory.Store) {
	t.Helper()
	store := memory.NewStore(memory.WithClock(nowFunc))
	points := make([]*models.ChargePoint, len(statuses))
	for i, st := range statuses {
		points[i] = &models.ChargePoint{PointID: int64(i + 1), Status: st, CapacityKW: 22, ProviderID: 1}
	}
	require.NoError(t, store.ReplaceAll(context.Background(), []*models.Provider{{ID: 1, Name: "Default Provider"}}, points))

	svc := service.New(store, zap.NewNop(), service.Options{Location: athens, Now: nowFunc})
	return svc, store
}

func intPtr(n int) *int { return &n }

func TestReservationMinutes(t *testing.T) {
	svc, _ := setup(t)
	r := svc.Reservations

	m, err := r.Minutes(nil)
	require.NoError(t, err)
	require.Equal(t, 30, m)

	m, err = r.Minutes(intPtr(45))
	require.NoError(t, err)
	require.Equal(t, 45, m)

	m, err = r.Minutes(intPtr(600))
	require.NoError(t, err)
	require.Equal(t, 60, m)

	for _, bad := range []int{0, -1} {
		_, err = r.Minutes(intPtr(bad))
		require.ErrorIs(t, err, service.ErrInvalidMinutes)
	}
}

func TestReserveAvailablePoint(t *testing.T) {
	svc, store := setup(t, models.StatusAvailable)
	ctx := context.Background()

	res, err := svc.Reservations.Reserve(ctx, 1, intPtr(20))
	require.NoError(t, err)
	require.True(t, res.Reserved)
	require.Equal(t, models.StatusReserved, res.Status)
	require.Equal(t, now.Add(20*time.Minute), *res.EndTime)
	require.Equal(t, "2024-03-10 10:35", svc.Reservations.FormatEnd(res))

	p, err := store.GetPoint(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, models.StatusReserved, p.Status)
	require.Equal(t, now.Add(20*time.Minute), *p.ReservationEndTime)

	changes, err := store.ListStatusChanges(ctx, 1, now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, changes, 1)
	require.Equal(t, models.StatusAvailable, changes[0].OldState)
	require.Equal(t, models.StatusReserved, changes[0].NewState)
}

func TestReserveUnavailablePointIsNoop(t *testing.T) {
	for _, st := range []models.PointStatus{models.StatusCharging, models.StatusReserved, models.StatusMalfunction, models.StatusOffline} {
		t.Run(string(st), func(t *testing.T) {
			svc, store := setup(t, st)
			ctx := context.Background()

			res, err := svc.Reservations.Reserve(ctx, 1, nil)
			require.NoError(t, err)
			require.False(t, res.Reserved)
			require.Equal(t, st, res.Status)
			require.Equal(t, models.SentinelExpiry, svc.Reservations.FormatEnd(res))

			p, err := store.GetPoint(ctx, 1)
			require.NoError(t, err)
			require.Equal(t, st, p.Status)
			require.Nil(t, p.ReservationEndTime)
		})
	}
}

func TestReserveMissingPoint(t *testing.T) {
	svc, _ := setup(t, models.StatusAvailable)
	_, err := svc.Reservations.Reserve(context.Background(), 9, nil)
	require.ErrorIs(t, err, service.ErrPointNotFound)
}

func TestConcurrentReservationsOnlyOneWins(t *testing.T) {
	svc, store := setup(t, models.StatusAvailable)
	ctx := context.Background()

	const n = 16
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		reserved int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.Reservations.Reserve(ctx, 1, nil)
			if err != nil {
				t.Error(err)
				return
			}
			if res.Reserved {
				mu.Lock()
				reserved++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, reserved)
	changes, err := store.ListStatusChanges(ctx, 1, now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, changes, 1)
}

func TestStatusEngineJournalsOnlyChanges(t *testing.T) {
	_, store := setup(t, models.StatusAvailable)
	engine := service.NewStatusEngine(zap.NewNop())
	ctx := context.Background()

	steps := []models.PointStatus{
		models.StatusCharging,
		models.StatusCharging,
		models.StatusOffline,
		models.StatusAvailable,
	}
	for _, to := range steps {
		err := store.WithTx(ctx, func(tx service.Tx) error {
			_, err := engine.Transition(ctx, tx, 1, to)
			return err
		})
		require.NoError(t, err)
	}

	changes, err := store.ListStatusChanges(ctx, 1, now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, changes, 3)

	err = store.WithTx(ctx, func(tx service.Tx) error {
		_, err := engine.Transition(ctx, tx, 1, models.PointStatus("broken"))
		return err
	})
	require.ErrorIs(t, err, service.ErrInvalidStatus)

	err = store.WithTx(ctx, func(tx service.Tx) error {
		_, err := engine.Transition(ctx, tx, 42, models.StatusOffline)
		return err
	})
	require.ErrorIs(t, err, service.ErrPointNotFound)
}

func sessionInput(start, end string) *service.SessionInput {
	return &service.SessionInput{
		PointID:   models.Some(1.0),
		StartTime: models.Some(start),
		EndTime:   models.Some(end),
		StartSoc:  models.Some(10.0),
		EndSoc:    models.Some(90.0),
		TotalKwh:  models.Some(40.0),
		KwhPrice:  models.Some(0.25),
		Amount:    models.Some(10.0),
	}
}

func TestRecordSession(t *testing.T) {
	svc, store := setup(t, models.StatusAvailable)
	ctx := context.Background()

	s, err := svc.Sessions.Record(ctx, sessionInput("2024-03-10 09:00", "2024-03-10 10:00"))
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 3, 10, 7, 0, 0, 0, time.UTC), s.StartTime.UTC())

	_, err = svc.Sessions.Record(ctx, sessionInput("2024-03-10 09:59", "2024-03-10 10:30"))
	require.ErrorIs(t, err, service.ErrOverlappingSession)

	_, err = svc.Sessions.Record(ctx, sessionInput("2024-03-10T10:00:00+02:00", "2024-03-10 10:30"))
	require.NoError(t, err, "touching intervals are allowed")

	sessions, err := store.ListSessions(ctx, 1, now.Add(-24*time.Hour), now.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, sessions, 2)
}

func TestRecordSessionValidationOrder(t *testing.T) {
	svc, _ := setup(t, models.StatusAvailable)
	ctx := context.Background()

	in := sessionInput("2024-03-10 10:00", "2024-03-10 09:00")
	in.StartSoc = models.Optional[float64]{Set: true, Err: errors.New("not a number")}
	_, err := svc.Sessions.Record(ctx, in)
	require.ErrorIs(t, err, service.ErrInvalidType, "type check runs before time range")

	in = sessionInput("bogus", "2024-03-10 09:00")
	in.Amount = models.Optional[float64]{}
	_, err = svc.Sessions.Record(ctx, in)
	require.ErrorIs(t, err, service.ErrMissingField, "presence check runs first")

	in = sessionInput("2024-03-10 10:00", "2024-03-10 09:00")
	_, err = svc.Sessions.Record(ctx, in)
	require.ErrorIs(t, err, service.ErrInvalidTimeRange)

	in = sessionInput("2024-03-10 09:00", "2024-03-10 10:00")
	in.PointID = models.Some(99.0)
	in.EndSoc = models.Some(5.0)
	_, err = svc.Sessions.Record(ctx, in)
	require.ErrorIs(t, err, service.ErrInvalidSOCRange, "SOC check runs before point existence")

	in = sessionInput("2024-03-10 09:00", "2024-03-10 10:00")
	in.Amount = models.Some(-1.0)
	_, err = svc.Sessions.Record(ctx, in)
	require.ErrorIs(t, err, service.ErrInvalidChargingValues)

	in = sessionInput("2024-03-10 09:00", "2024-03-10 10:00")
	in.Amount = models.Some(0.0)
	_, err = svc.Sessions.Record(ctx, in)
	require.NoError(t, err, "zero amount is accepted")
}

func TestUpdatePoint(t *testing.T) {
	svc, store := setup(t, models.StatusAvailable)
	ctx := context.Background()

	_, err := svc.Points.Update(ctx, 1, &service.PointUpdate{})
	require.ErrorIs(t, err, service.ErrEmptyUpdate)

	_, err = svc.Points.Update(ctx, 1, &service.PointUpdate{KwhPrice: models.Some(0.0)})
	require.ErrorIs(t, err, service.ErrInvalidKwhPrice)

	_, err = svc.Points.Update(ctx, 1, &service.PointUpdate{Status: models.Optional[string]{Set: true, Null: true}})
	require.ErrorIs(t, err, service.ErrInvalidStatus)

	res, err := svc.Points.Update(ctx, 1, &service.PointUpdate{Status: models.Some("malfunction")})
	require.NoError(t, err)
	require.Equal(t, models.StatusMalfunction, res.Status)
	require.Nil(t, res.KwhPrice)

	res, err = svc.Points.Update(ctx, 1, &service.PointUpdate{KwhPrice: models.Some(0.31)})
	require.NoError(t, err)
	require.Equal(t, models.StatusMalfunction, res.Status)
	require.InDelta(t, 0.31, *res.KwhPrice, 1e-9)

	p, err := store.GetPoint(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, models.StatusMalfunction, p.Status)
	require.InDelta(t, 0.31, *p.KwhPrice, 1e-9)

	_, err = svc.Points.Update(ctx, 5, &service.PointUpdate{KwhPrice: models.Some(1.0)})
	require.ErrorIs(t, err, service.ErrPointNotFound)
}

func TestDateRange(t *testing.T) {
	from, to, err := service.DateRange("20240228", "20240301", athens)
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 2, 28, 0, 0, 0, 0, athens), from)
	require.Equal(t, time.Date(2024, 3, 1, 23, 59, 59, 999999999, athens), to)

	for _, bad := range [][2]string{{"20230229", "20230301"}, {"2024-02-01", "20240301"}, {"20241301", "20241302"}, {"2024010", "20240102"}} {
		_, _, err = service.DateRange(bad[0], bad[1], athens)
		require.ErrorIs(t, err, service.ErrInvalidDate, bad[0])
	}

	_, _, err = service.DateRange("20240301", "20240301", athens)
	require.ErrorIs(t, err, service.ErrInvalidDateRange)
	_, _, err = service.DateRange("20240302", "20240301", athens)
	require.ErrorIs(t, err, service.ErrInvalidDateRange)
}

func TestQueries(t *testing.T) {
	svc, _ := setup(t, models.StatusAvailable, models.StatusOffline)
	ctx := context.Background()

	points, err := svc.Queries.ListPoints(ctx, "")
	require.NoError(t, err)
	require.Len(t, points, 2)

	_, err = svc.Queries.ListPoints(ctx, "Available")
	require.ErrorIs(t, err, service.ErrInvalidStatusFilter)

	_, err = svc.Queries.GetPoint(ctx, 3)
	require.ErrorIs(t, err, service.ErrPointNotFound)

	_, err = svc.Queries.Sessions(ctx, 3, "20240301", "20240302")
	require.ErrorIs(t, err, service.ErrChargePointNotFound)

	_, err = svc.Queries.StatusChanges(ctx, 3, "20240301", "20240230")
	require.ErrorIs(t, err, service.ErrInvalidDate, "date checks run before the point lookup")
}

func TestImportCSV(t *testing.T) {
	svc, store := setup(t, models.StatusAvailable)
	ctx := context.Background()

	csvData := "\ufeffid,name,address,longitude,latitude,kilowatts,status\n" +
		"1,Dup,,1,1,,offline\n" +
		"20,Marousi,Kifisias 12,23.80,38.05,43,MALFUNCTION\n" +
		"20,Again,,0,0,,\n" +
		",skipped,,0,0,,\n"
	n, err := svc.Admin.ImportCSV(ctx, strings.NewReader(csvData))
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	p, err := store.GetPoint(ctx, 20)
	require.NoError(t, err)
	require.Equal(t, "Marousi", p.Name)
	require.Equal(t, "Kifisias 12", *p.Address)
	require.Equal(t, models.StatusMalfunction, p.Status)
	require.InDelta(t, 43, p.CapacityKW, 1e-9)
	require.Equal(t, int64(1), p.ProviderID)

	_, err = svc.Admin.ImportCSV(ctx, strings.NewReader(""))
	require.ErrorIs(t, err, service.ErrInvalidCSV)

	_, err = svc.Admin.ImportCSV(ctx, strings.NewReader("outlet_id,longitude\nx,1\n"))
	require.ErrorIs(t, err, service.ErrInvalidCSV)
}

func TestHealth(t *testing.T) {
	svc, store := setup(t, models.StatusAvailable, models.StatusOffline, models.StatusMalfunction)
	ctx := context.Background()

	h, err := svc.Admin.Health(ctx)
	require.NoError(t, err)
	require.Equal(t, "memory", h.Driver)
	require.Equal(t, models.PointCounts{Total: 3, Online: 2, Offline: 1}, h.Counts)

	store.SetPingError(errors.New("down"))
	_, err = svc.Admin.Health(ctx)
	require.ErrorIs(t, err, service.ErrStoreUnavailable)
}

func TestErrorCopiesKeepIdentity(t *testing.T) {
	err := service.ErrPointNotFound.WithDetail("No charge point with id %d", 4)
	require.ErrorIs(t, err, service.ErrPointNotFound)
	require.ErrorIs(t, err, service.ErrChargePointNotFound, "both not-found messages share one code")
	require.Equal(t, "No charge point with id 4", err.Detail)
	require.Empty(t, service.ErrPointNotFound.Detail)

	cause := errors.New("disk full")
	wrapped := service.ErrResetFailed.Wrap(cause)
	require.ErrorIs(t, wrapped, cause)
	require.ErrorIs(t, wrapped, service.ErrResetFailed)
}
