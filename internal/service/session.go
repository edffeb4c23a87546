package service

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/langchou/evpoints/internal/metrics"
	"github.com/langchou/evpoints/internal/models"
)

// float64 可精确表示的最大整数
const maxExactInt = 1 << 53

// SessionInput newsession 请求体
type SessionInput struct {
	PointID   models.Optional[float64] `json:"pointid"`
	StartTime models.Optional[string]  `json:"starttime"`
	EndTime   models.Optional[string]  `json:"endtime"`
	StartSoc  models.Optional[float64] `json:"startsoc"`
	EndSoc    models.Optional[float64] `json:"endsoc"`
	TotalKwh  models.Optional[float64] `json:"totalkwh"`
	KwhPrice  models.Optional[float64] `json:"kwhprice"`
	Amount    models.Optional[float64] `json:"amount"`
}

func (in *SessionInput) numeric() []models.Optional[float64] {
	return []models.Optional[float64]{in.PointID, in.StartSoc, in.EndSoc, in.TotalKwh, in.KwhPrice, in.Amount}
}

// SessionService 充电记录写入流程
type SessionService struct {
	store  Store
	logger *zap.Logger
	opts   Options
}

// NewSessionService 创建充电记录服务
func NewSessionService(store Store, logger *zap.Logger, opts Options) *SessionService {
	return &SessionService{store: store, logger: logger, opts: opts.withDefaults()}
}

// Record 校验并写入一条充电记录。校验顺序固定，第一个失败的检查决定返回的错误：
// 必填 -> 数值类型 -> 时间格式 -> 时间先后 -> 时间段重叠 -> SOC -> 电量/价格 -> 充电桩存在。
func (s *SessionService) Record(ctx context.Context, in *SessionInput) (*models.ChargingSession, error) {
	session, err := s.parse(in)
	if err != nil {
		metrics.RecordSession(err)
		return nil, err
	}

	err = s.store.WithTx(ctx, func(tx Tx) error {
		// 先锁住充电桩行，同一充电桩的并发写入在此串行
		point, err := tx.LockPoint(ctx, session.PointID)
		if err != nil {
			return err
		}

		overlap, err := tx.HasOverlappingSession(ctx, session.PointID, session.StartTime, session.EndTime)
		if err != nil {
			return err
		}
		if overlap {
			return ErrOverlappingSession
		}

		if err := validateCharging(session); err != nil {
			return err
		}

		if point == nil {
			return ErrChargePointNotFound.WithDetail("Point %d does not exist", session.PointID)
		}

		return tx.InsertSession(ctx, session)
	})
	metrics.RecordSession(err)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Session recorded",
		zap.Int64("pointid", session.PointID),
		zap.Time("starttime", session.StartTime),
		zap.Time("endtime", session.EndTime),
		zap.Float64("totalkwh", session.TotalKwh),
	)
	return session, nil
}

// parse 执行不依赖存储的前四步校验
func (s *SessionService) parse(in *SessionInput) (*models.ChargingSession, error) {
	if in == nil {
		return nil, ErrMissingField
	}

	// 1. 必填
	for _, f := range in.numeric() {
		if !f.Set {
			return nil, ErrMissingField
		}
	}
	for _, f := range []models.Optional[string]{in.StartTime, in.EndTime} {
		if !f.Set || f.Null || (f.Err == nil && f.Value == "") {
			return nil, ErrMissingField
		}
	}

	// 2. 数值类型
	for _, f := range in.numeric() {
		if !f.Ok() {
			return nil, ErrInvalidType
		}
	}
	if in.PointID.Value != math.Trunc(in.PointID.Value) || math.Abs(in.PointID.Value) > maxExactInt {
		return nil, ErrInvalidType.WithDetail("pointid must be an integer")
	}

	// 3. 时间格式
	if !in.StartTime.Ok() || !in.EndTime.Ok() {
		return nil, ErrInvalidDateTime
	}
	start, err := models.ParseWire(in.StartTime.Value, s.opts.Location)
	if err != nil {
		return nil, ErrInvalidDateTime
	}
	end, err := models.ParseWire(in.EndTime.Value, s.opts.Location)
	if err != nil {
		return nil, ErrInvalidDateTime
	}

	// 4. 时间先后
	if !end.After(start) {
		return nil, ErrInvalidTimeRange
	}

	return &models.ChargingSession{
		PointID:   int64(in.PointID.Value),
		StartTime: start,
		EndTime:   end,
		StartSoc:  in.StartSoc.Value,
		EndSoc:    in.EndSoc.Value,
		TotalKwh:  in.TotalKwh.Value,
		KwhPrice:  in.KwhPrice.Value,
		Amount:    in.Amount.Value,
	}, nil
}

// validateCharging SOC 与电量/价格规则
func validateCharging(s *models.ChargingSession) error {
	if s.StartSoc < 0 || s.StartSoc > 100 || s.EndSoc < 0 || s.EndSoc > 100 {
		return ErrInvalidSOC
	}
	if s.EndSoc < s.StartSoc {
		return ErrInvalidSOCRange
	}
	if s.TotalKwh <= 0 || s.KwhPrice <= 0 || s.Amount < 0 {
		return ErrInvalidChargingValues
	}
	return nil
}
