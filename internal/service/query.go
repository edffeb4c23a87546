package service

import (
	"context"
	"time"

	"github.com/langchou/evpoints/internal/models"
)

// QueryService 只读查询
type QueryService struct {
	store Store
	opts  Options
}

// NewQueryService 创建查询服务
func NewQueryService(store Store, opts Options) *QueryService {
	return &QueryService{store: store, opts: opts.withDefaults()}
}

// Location 对外展示时区
func (s *QueryService) Location() *time.Location {
	return s.opts.Location
}

// ListPoints 按状态过滤充电桩，status 为空时返回全部
func (s *QueryService) ListPoints(ctx context.Context, status string) ([]*models.ChargePoint, error) {
	var filter *models.PointStatus
	if status != "" {
		st, ok := models.ParsePointStatus(status)
		if !ok {
			return nil, ErrInvalidStatusFilter
		}
		filter = &st
	}
	return s.store.ListPoints(ctx, filter)
}

// GetPoint 充电桩详情
func (s *QueryService) GetPoint(ctx context.Context, pointID int64) (*models.ChargePoint, error) {
	point, err := s.store.GetPoint(ctx, pointID)
	if err != nil {
		return nil, err
	}
	if point == nil {
		return nil, ErrPointNotFound.WithDetail("No charging point with id %d", pointID)
	}
	return point, nil
}

// DateRange 解析 YYYYMMDD 区间，展开为 [from 00:00, to 23:59]（含 23:59 这一整分钟）
func DateRange(from, to string, loc *time.Location) (time.Time, time.Time, error) {
	fromDay, err := models.ParseDay(from, loc)
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidDate
	}
	toDay, err := models.ParseDay(to, loc)
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidDate
	}
	if !fromDay.Before(toDay) {
		return time.Time{}, time.Time{}, ErrInvalidDateRange
	}
	return fromDay, toDay.Add(24*time.Hour - time.Nanosecond), nil
}

// StatusChanges 时间区间内的状态变更，按时间倒序
func (s *QueryService) StatusChanges(ctx context.Context, pointID int64, from, to string) ([]*models.StatusChange, error) {
	start, end, err := s.rangeForPoint(ctx, pointID, from, to)
	if err != nil {
		return nil, err
	}
	return s.store.ListStatusChanges(ctx, pointID, start, end)
}

// Sessions 完全落在时间区间内的充电记录，按开始时间倒序
func (s *QueryService) Sessions(ctx context.Context, pointID int64, from, to string) ([]*models.ChargingSession, error) {
	start, end, err := s.rangeForPoint(ctx, pointID, from, to)
	if err != nil {
		return nil, err
	}
	return s.store.ListSessions(ctx, pointID, start, end)
}

func (s *QueryService) rangeForPoint(ctx context.Context, pointID int64, from, to string) (time.Time, time.Time, error) {
	start, end, err := DateRange(from, to, s.opts.Location)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	point, err := s.store.GetPoint(ctx, pointID)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if point == nil {
		return time.Time{}, time.Time{}, ErrChargePointNotFound.WithDetail("Point %d does not exist", pointID)
	}
	return start, end, nil
}
