package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/langchou/evpoints/internal/models"
	"github.com/langchou/evpoints/internal/service"
)

// Store PostgreSQL 存储实现
type Store struct {
	db *DB
}

// NewStore 创建 PostgreSQL 存储
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

// pgTx 事务内操作
type pgTx struct {
	tx pgx.Tx
}

// WithTx 开启事务执行 fn。fn 的错误原样返回，便于上层识别业务错误
func (s *Store) WithTx(ctx context.Context, fn func(tx service.Tx) error) error {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Ping 检查数据库连通性
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Pool.Ping(ctx)
}

// Driver 存储名称
func (s *Store) Driver() string {
	return "PostgreSQL"
}

// CountPoints 统计充电桩数量，offline 之外都算在线
func (s *Store) CountPoints(ctx context.Context) (*models.PointCounts, error) {
	query := `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status <> 'offline'),
			COUNT(*) FILTER (WHERE status = 'offline')
		FROM point
	`
	c := &models.PointCounts{}
	if err := s.db.Pool.QueryRow(ctx, query).Scan(&c.Total, &c.Online, &c.Offline); err != nil {
		return nil, fmt.Errorf("count points: %w", err)
	}
	return c, nil
}

var _ service.Store = (*Store)(nil)
var _ service.Tx = (*pgTx)(nil)
