package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/langchou/evpoints/internal/metrics"
	"github.com/langchou/evpoints/internal/models"
)

// ReservationResult 预约结果。Reserved=false 表示充电桩不可用，此时 EndTime 为空
type ReservationResult struct {
	PointID  int64
	Status   models.PointStatus
	EndTime  *time.Time
	Reserved bool
}

// ReservationService 预约流程
type ReservationService struct {
	store  Store
	engine *StatusEngine
	logger *zap.Logger
	opts   Options
}

// NewReservationService 创建预约服务
func NewReservationService(store Store, engine *StatusEngine, logger *zap.Logger, opts Options) *ReservationService {
	return &ReservationService{
		store:  store,
		engine: engine,
		logger: logger,
		opts:   opts.withDefaults(),
	}
}

// Minutes 规范化预约时长：nil 取默认值，超过上限截断，非正数报错
func (s *ReservationService) Minutes(requested *int) (int, error) {
	if requested == nil {
		return s.opts.ReservationDefaultMinutes, nil
	}
	if *requested <= 0 {
		return 0, ErrInvalidMinutes
	}
	return min(*requested, s.opts.ReservationMaxMinutes), nil
}

// Reserve 预约充电桩。只有 available 状态才会被预约；
// 其它状态不报错，直接返回当前状态，由调用方轮询。
func (s *ReservationService) Reserve(ctx context.Context, pointID int64, requested *int) (*ReservationResult, error) {
	minutes, err := s.Minutes(requested)
	if err != nil {
		return nil, err
	}

	var result *ReservationResult
	err = s.store.WithTx(ctx, func(tx Tx) error {
		point, err := tx.LockPoint(ctx, pointID)
		if err != nil {
			return err
		}
		if point == nil {
			return ErrPointNotFound.WithDetail("Charge point %d does not exist", pointID)
		}

		if point.Status != models.StatusAvailable {
			result = &ReservationResult{PointID: pointID, Status: point.Status}
			return nil
		}

		end := s.opts.Now().Add(time.Duration(minutes) * time.Minute)
		if _, err := s.engine.Transition(ctx, tx, pointID, models.StatusReserved); err != nil {
			return err
		}
		if err := tx.SetReservationEnd(ctx, pointID, end); err != nil {
			return err
		}

		result = &ReservationResult{PointID: pointID, Status: models.StatusReserved, EndTime: &end, Reserved: true}
		return nil
	})
	if err != nil {
		metrics.RecordReservation(metrics.OutcomeError)
		return nil, err
	}

	if result.Reserved {
		metrics.RecordReservation(metrics.OutcomeReserved)
		s.logger.Info("Point reserved",
			zap.Int64("pointid", pointID),
			zap.Int("minutes", minutes),
			zap.Time("reservation_end", *result.EndTime),
		)
	} else {
		metrics.RecordReservation(metrics.OutcomeBusy)
		s.logger.Debug("Point not available for reservation", zap.Int64("pointid", pointID), zap.Stringer("status", result.Status))
	}

	return result, nil
}

// FormatEnd 按对外格式输出过期时间，未预约时返回固定的哨兵值
func (s *ReservationService) FormatEnd(r *ReservationResult) string {
	if r == nil || r.EndTime == nil {
		return models.SentinelExpiry
	}
	return models.FormatWire(*r.EndTime, s.opts.Location)
}
