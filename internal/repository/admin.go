package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/langchou/evpoints/internal/models"
)

var pointCopyColumns = []string{"pointid", "name", "address", "lon", "lat", "status", "cap", "provider_id"}

// ReplaceAll 单事务内清空并重新写入全部充电桩
func (s *Store) ReplaceAll(ctx context.Context, providers []*models.Provider, points []*models.ChargePoint) error {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, table := range []string{"session", "status_history", "point", "provider"} {
		if _, err := tx.Exec(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, p := range providers {
		if _, err := tx.Exec(ctx, `INSERT INTO provider (id, provider_name) VALUES ($1, $2)`, p.ID, p.Name); err != nil {
			return fmt.Errorf("insert provider %d: %w", p.ID, err)
		}
	}

	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"point"}, pointCopyColumns, pgx.CopyFromSlice(len(points), func(i int) ([]any, error) {
		p := points[i]
		return []any{p.PointID, p.Name, p.Address, p.Longitude, p.Latitude, string(p.Status), p.CapacityKW, p.ProviderID}, nil
	})); err != nil {
		return fmt.Errorf("copy points: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// AddPoints 增量导入，pointid 已存在的行跳过
func (s *Store) AddPoints(ctx context.Context, provider *models.Provider, points []*models.ChargePoint) (int64, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `
		INSERT INTO provider (id, provider_name) VALUES ($1, $2)
		ON CONFLICT (id) DO NOTHING
	`, provider.ID, provider.Name); err != nil {
		return 0, fmt.Errorf("ensure provider: %w", err)
	}

	query := `
		INSERT INTO point (pointid, name, address, lon, lat, status, cap, provider_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (pointid) DO NOTHING
	`
	batch := &pgx.Batch{}
	for _, p := range points {
		batch.Queue(query, p.PointID, p.Name, p.Address, p.Longitude, p.Latitude, string(p.Status), p.CapacityKW, provider.ID)
	}

	var inserted int64
	results := tx.SendBatch(ctx, batch)
	for range points {
		tag, err := results.Exec()
		if err != nil {
			results.Close()
			return 0, fmt.Errorf("insert point: %w", err)
		}
		inserted += tag.RowsAffected()
	}
	if err := results.Close(); err != nil {
		return 0, fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return inserted, nil
}
