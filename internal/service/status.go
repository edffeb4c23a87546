package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/langchou/evpoints/internal/metrics"
	"github.com/langchou/evpoints/internal/models"
	"github.com/langchou/evpoints/internal/state"
)

// StatusEngine 状态切换引擎，所有 status 写入都必须经过这里
type StatusEngine struct {
	logger *zap.Logger
}

// NewStatusEngine 创建状态切换引擎
func NewStatusEngine(logger *zap.Logger) *StatusEngine {
	return &StatusEngine{logger: logger}
}

// Transition 在调用方事务内切换状态，状态确有变化时写入一条 status_history。
// 返回切换前的状态。
func (e *StatusEngine) Transition(ctx context.Context, tx Tx, pointID int64, to models.PointStatus) (models.PointStatus, error) {
	if !to.Valid() {
		return "", ErrInvalidStatus
	}

	point, err := tx.LockPoint(ctx, pointID)
	if err != nil {
		return "", err
	}
	if point == nil {
		return "", ErrPointNotFound.WithDetail("No charge point with id %d", pointID)
	}

	from := point.Status
	machine := state.NewMachine(pointID, from, e.onStateChange)
	changed, err := machine.Transition(ctx, to)
	if err != nil {
		if errors.Is(err, state.ErrInvalidStatus) {
			return "", fmt.Errorf("point %d: %w", pointID, err)
		}
		return "", err
	}
	if !changed {
		return from, nil
	}

	if err := tx.UpdateStatus(ctx, pointID, to); err != nil {
		return "", err
	}
	if err := tx.AppendStatusChange(ctx, pointID, from, to); err != nil {
		return "", err
	}

	metrics.RecordStatusTransition(from, to)
	return from, nil
}

// onStateChange 状态变化回调
func (e *StatusEngine) onStateChange(pointID int64, from, to models.PointStatus) {
	e.logger.Info("Point status changed", zap.Int64("pointid", pointID), zap.Stringer("from", from), zap.Stringer("to", to))
}
