package service

import (
	"context"
	"time"

	"github.com/langchou/evpoints/internal/models"
)

// Store 充电桩数据存储。查询方法在记录不存在时返回 (nil, nil)
type Store interface {
	// WithTx 在单个事务中执行 fn；fn 返回错误时回滚，并原样返回该错误
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	ListPoints(ctx context.Context, status *models.PointStatus) ([]*models.ChargePoint, error)
	GetPoint(ctx context.Context, pointID int64) (*models.ChargePoint, error)
	ListStatusChanges(ctx context.Context, pointID int64, from, to time.Time) ([]*models.StatusChange, error)
	ListSessions(ctx context.Context, pointID int64, from, to time.Time) ([]*models.ChargingSession, error)

	Ping(ctx context.Context) error
	CountPoints(ctx context.Context) (*models.PointCounts, error)
	// Driver 健康检查中展示的存储名称
	Driver() string

	// ReplaceAll 清空全部数据后写入 providers 与 points
	ReplaceAll(ctx context.Context, providers []*models.Provider, points []*models.ChargePoint) error
	// AddPoints 增量导入，已存在的 pointid 跳过，返回实际插入条数
	AddPoints(ctx context.Context, provider *models.Provider, points []*models.ChargePoint) (int64, error)
}

// Tx 事务内的写操作
type Tx interface {
	// LockPoint 读取并锁定充电桩行，直到事务结束
	LockPoint(ctx context.Context, pointID int64) (*models.ChargePoint, error)
	UpdateStatus(ctx context.Context, pointID int64, status models.PointStatus) error
	AppendStatusChange(ctx context.Context, pointID int64, from, to models.PointStatus) error
	SetReservationEnd(ctx context.Context, pointID int64, end time.Time) error
	SetKwhPrice(ctx context.Context, pointID int64, price float64) error

	// HasOverlappingSession 半开区间 [start, end) 判断
	HasOverlappingSession(ctx context.Context, pointID int64, start, end time.Time) (bool, error)
	InsertSession(ctx context.Context, s *models.ChargingSession) error
}
