package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/langchou/evpoints/internal/models"
)

// PointUpdate updpoint 请求体，两个字段都可选但至少提供一个
type PointUpdate struct {
	Status   models.Optional[string]  `json:"status"`
	KwhPrice models.Optional[float64] `json:"kwhprice"`
}

// PointUpdateResult 更新后的字段，未提供的字段取数据库原值
type PointUpdateResult struct {
	PointID  int64
	Status   models.PointStatus
	KwhPrice *float64
}

// PointService 充电桩状态/价格更新流程
type PointService struct {
	store  Store
	engine *StatusEngine
	logger *zap.Logger
}

// NewPointService 创建充电桩更新服务
func NewPointService(store Store, engine *StatusEngine, logger *zap.Logger) *PointService {
	return &PointService{store: store, engine: engine, logger: logger}
}

// validate 返回解析后的状态（未提供时为空）
func (u *PointUpdate) validate() (models.PointStatus, error) {
	if u == nil || (!u.Status.Set && !u.KwhPrice.Set) {
		return "", ErrEmptyUpdate
	}

	var status models.PointStatus
	if u.Status.Set {
		st, ok := models.ParsePointStatus(u.Status.Value)
		if !u.Status.Ok() || !ok {
			return "", ErrInvalidStatus
		}
		status = st
	}

	if u.KwhPrice.Set && (!u.KwhPrice.Ok() || u.KwhPrice.Value <= 0) {
		return "", ErrInvalidKwhPrice
	}

	return status, nil
}

// Update 更新状态和/或价格。状态变化通过 StatusEngine 写审计记录
func (s *PointService) Update(ctx context.Context, pointID int64, upd *PointUpdate) (*PointUpdateResult, error) {
	status, err := upd.validate()
	if err != nil {
		return nil, err
	}

	var result *PointUpdateResult
	err = s.store.WithTx(ctx, func(tx Tx) error {
		point, err := tx.LockPoint(ctx, pointID)
		if err != nil {
			return err
		}
		if point == nil {
			return ErrPointNotFound.WithDetail("No charge point with id %d", pointID)
		}

		result = &PointUpdateResult{PointID: pointID, Status: point.Status, KwhPrice: point.KwhPrice}

		if upd.Status.Set {
			if _, err := s.engine.Transition(ctx, tx, pointID, status); err != nil {
				return err
			}
			result.Status = status
		}

		if upd.KwhPrice.Set {
			if err := tx.SetKwhPrice(ctx, pointID, upd.KwhPrice.Value); err != nil {
				return err
			}
			price := upd.KwhPrice.Value
			result.KwhPrice = &price
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Point updated",
		zap.Int64("pointid", pointID),
		zap.Stringer("status", result.Status),
		zap.Bool("price_changed", upd.KwhPrice.Set),
	)
	return result, nil
}
