package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/langchou/evpoints/internal/models"
)

// AppendStatusChange 写入一条状态变更，时间取数据库当前时间
func (t *pgTx) AppendStatusChange(ctx context.Context, pointID int64, from, to models.PointStatus) error {
	query := `
		INSERT INTO status_history (pointid, old_state, new_state)
		VALUES ($1, $2, $3)
	`
	if _, err := t.tx.Exec(ctx, query, pointID, string(from), string(to)); err != nil {
		return fmt.Errorf("insert status change: %w", err)
	}
	return nil
}

// ListStatusChanges 时间区间内的状态变更（闭区间），按时间倒序
func (s *Store) ListStatusChanges(ctx context.Context, pointID int64, from, to time.Time) ([]*models.StatusChange, error) {
	query := `
		SELECT id, pointid, old_state, new_state, timeref
		FROM status_history
		WHERE pointid = $1 AND timeref >= $2 AND timeref <= $3
		ORDER BY timeref DESC, id DESC
	`
	rows, err := s.db.Pool.Query(ctx, query, pointID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list status changes: %w", err)
	}
	defer rows.Close()

	var changes []*models.StatusChange
	for rows.Next() {
		c := &models.StatusChange{}
		if err := rows.Scan(&c.ID, &c.PointID, &c.OldState, &c.NewState, &c.TimeRef); err != nil {
			return nil, fmt.Errorf("scan status change: %w", err)
		}
		changes = append(changes, c)
	}
	return changes, rows.Err()
}
