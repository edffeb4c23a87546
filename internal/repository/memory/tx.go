package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/langchou/evpoints/internal/models"
	"github.com/langchou/evpoints/internal/service"
)

// memTx 在 Store.WithTx 持有写锁期间操作数据副本
type memTx struct {
	data *data
	now  func() time.Time
}

func (t *memTx) LockPoint(ctx context.Context, pointID int64) (*models.ChargePoint, error) {
	_ = ctx
	p, ok := t.data.points[pointID]
	if !ok {
		return nil, nil
	}
	return t.data.withProvider(p), nil
}

func (t *memTx) update(pointID int64, fn func(p *models.ChargePoint)) error {
	p, ok := t.data.points[pointID]
	if !ok {
		return fmt.Errorf("point %d not found", pointID)
	}
	fn(&p)
	t.data.points[pointID] = p
	return nil
}

func (t *memTx) UpdateStatus(ctx context.Context, pointID int64, status models.PointStatus) error {
	_ = ctx
	if !status.Valid() {
		return fmt.Errorf("update point status: invalid status %q", status)
	}
	return t.update(pointID, func(p *models.ChargePoint) { p.Status = status })
}

func (t *memTx) AppendStatusChange(ctx context.Context, pointID int64, from, to models.PointStatus) error {
	_ = ctx
	t.data.nextHistoryID++
	t.data.history = append(t.data.history, models.StatusChange{
		ID:       t.data.nextHistoryID,
		PointID:  pointID,
		OldState: from,
		NewState: to,
		TimeRef:  t.now(),
	})
	return nil
}

func (t *memTx) SetReservationEnd(ctx context.Context, pointID int64, end time.Time) error {
	_ = ctx
	return t.update(pointID, func(p *models.ChargePoint) { p.ReservationEndTime = &end })
}

func (t *memTx) SetKwhPrice(ctx context.Context, pointID int64, price float64) error {
	_ = ctx
	return t.update(pointID, func(p *models.ChargePoint) { p.KwhPrice = &price })
}

func (t *memTx) HasOverlappingSession(ctx context.Context, pointID int64, start, end time.Time) (bool, error) {
	_ = ctx
	for i := range t.data.sessions {
		cs := &t.data.sessions[i]
		if cs.PointID == pointID && cs.Overlaps(start, end) {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) InsertSession(ctx context.Context, s *models.ChargingSession) error {
	_ = ctx
	if _, ok := t.data.points[s.PointID]; !ok {
		return fmt.Errorf("insert session: point %d not found", s.PointID)
	}
	t.data.nextSessionID++
	s.ID = t.data.nextSessionID
	t.data.sessions = append(t.data.sessions, *s)
	return nil
}

var _ service.Tx = (*memTx)(nil)
