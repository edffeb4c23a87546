package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB 数据库连接池封装
type DB struct {
	Pool *pgxpool.Pool
}

// PoolOptions 连接池大小
type PoolOptions struct {
	MaxConns int32
	MinConns int32
}

// New 创建数据库连接
func New(ctx context.Context, databaseURL string, opts PoolOptions) (*DB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	// 连接池配置
	config.MaxConns = 10
	config.MinConns = 2
	if opts.MaxConns > 0 {
		config.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 && opts.MinConns <= config.MaxConns {
		config.MinConns = opts.MinConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// 测试连接
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close 关闭连接池
func (db *DB) Close() {
	db.Pool.Close()
}

// Migrate 执行数据库迁移
func (db *DB) Migrate(ctx context.Context) error {
	migrations := []string{
		migrationCreateProviders,
		migrationCreatePoints,
		migrationCreateStatusHistory,
		migrationCreateSessions,
	}

	for _, m := range migrations {
		if _, err := db.Pool.Exec(ctx, m); err != nil {
			return fmt.Errorf("execute migration: %w", err)
		}
	}

	return nil
}

// 数据库迁移 SQL
const migrationCreateProviders = `
CREATE TABLE IF NOT EXISTS provider (
    id BIGINT PRIMARY KEY,
    provider_name VARCHAR(255) NOT NULL
);
`

const migrationCreatePoints = `
CREATE TABLE IF NOT EXISTS point (
    pointid BIGINT PRIMARY KEY,
    name VARCHAR(255) NOT NULL DEFAULT '',
    address TEXT,
    lon DOUBLE PRECISION NOT NULL DEFAULT 0,
    lat DOUBLE PRECISION NOT NULL DEFAULT 0,
    status VARCHAR(20) NOT NULL DEFAULT 'available'
        CHECK (status IN ('available', 'charging', 'reserved', 'malfunction', 'offline')),
    cap DOUBLE PRECISION NOT NULL DEFAULT 22,
    kwhprice DOUBLE PRECISION,
    reservationendtime TIMESTAMP WITH TIME ZONE,
    provider_id BIGINT NOT NULL REFERENCES provider(id)
);
CREATE INDEX IF NOT EXISTS idx_point_status ON point(status);
`

const migrationCreateStatusHistory = `
CREATE TABLE IF NOT EXISTS status_history (
    id BIGSERIAL PRIMARY KEY,
    pointid BIGINT NOT NULL REFERENCES point(pointid) ON DELETE CASCADE,
    old_state VARCHAR(20) NOT NULL,
    new_state VARCHAR(20) NOT NULL,
    timeref TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_status_history_point_time ON status_history(pointid, timeref);
`

const migrationCreateSessions = `
CREATE TABLE IF NOT EXISTS session (
    session_id BIGSERIAL PRIMARY KEY,
    pointid BIGINT NOT NULL REFERENCES point(pointid) ON DELETE CASCADE,
    starttime TIMESTAMP WITH TIME ZONE NOT NULL,
    endtime TIMESTAMP WITH TIME ZONE NOT NULL,
    startsoc DOUBLE PRECISION NOT NULL,
    endsoc DOUBLE PRECISION NOT NULL,
    totalkwh DOUBLE PRECISION NOT NULL,
    kwhprice DOUBLE PRECISION NOT NULL,
    amount DOUBLE PRECISION NOT NULL,
    CHECK (endtime > starttime)
);
CREATE INDEX IF NOT EXISTS idx_session_point_start ON session(pointid, starttime);
`
