package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/langchou/evpoints/internal/models"
)

// HasOverlappingSession 同一充电桩是否已有与 [start, end) 相交的记录
func (t *pgTx) HasOverlappingSession(ctx context.Context, pointID int64, start, end time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM session
			WHERE pointid = $1 AND starttime < $3 AND endtime > $2
		)
	`
	var exists bool
	if err := t.tx.QueryRow(ctx, query, pointID, start, end).Scan(&exists); err != nil {
		return false, fmt.Errorf("check overlapping session: %w", err)
	}
	return exists, nil
}

// InsertSession 写入充电记录
func (t *pgTx) InsertSession(ctx context.Context, s *models.ChargingSession) error {
	query := `
		INSERT INTO session (pointid, starttime, endtime, startsoc, endsoc, totalkwh, kwhprice, amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING session_id
	`
	err := t.tx.QueryRow(ctx, query,
		s.PointID,
		s.StartTime,
		s.EndTime,
		s.StartSoc,
		s.EndSoc,
		s.TotalKwh,
		s.KwhPrice,
		s.Amount,
	).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// ListSessions 完全落在区间内的充电记录，按开始时间倒序
func (s *Store) ListSessions(ctx context.Context, pointID int64, from, to time.Time) ([]*models.ChargingSession, error) {
	query := `
		SELECT session_id, pointid, starttime, endtime, startsoc, endsoc, totalkwh, kwhprice, amount
		FROM session
		WHERE pointid = $1 AND starttime >= $2 AND endtime <= $3
		ORDER BY starttime DESC, session_id DESC
	`
	rows, err := s.db.Pool.Query(ctx, query, pointID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.ChargingSession
	for rows.Next() {
		cs := &models.ChargingSession{}
		err := rows.Scan(
			&cs.ID,
			&cs.PointID,
			&cs.StartTime,
			&cs.EndTime,
			&cs.StartSoc,
			&cs.EndSoc,
			&cs.TotalKwh,
			&cs.KwhPrice,
			&cs.Amount,
		)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, cs)
	}
	return sessions, rows.Err()
}
