package service

import (
	"time"

	"go.uber.org/zap"
)

// Options 业务参数
type Options struct {
	// Location 对外展示及解析时间用的固定偏移时区
	Location *time.Location
	// ReservationDefaultMinutes 未指定时长时的预约分钟数
	ReservationDefaultMinutes int
	// ReservationMaxMinutes 预约时长上限，超出部分直接截断
	ReservationMaxMinutes int
	// DatasetFile resetpoints 读取的 JSON 数据集
	DatasetFile string
	// Now 当前时间，测试时可替换
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Location == nil {
		o.Location = time.FixedZone("", 2*60*60)
	}
	if o.ReservationDefaultMinutes <= 0 {
		o.ReservationDefaultMinutes = 30
	}
	if o.ReservationMaxMinutes <= 0 {
		o.ReservationMaxMinutes = 60
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Services 汇总各个业务流程，供 HTTP 层使用
type Services struct {
	Reservations *ReservationService
	Sessions     *SessionService
	Points       *PointService
	Queries      *QueryService
	Admin        *AdminService
}

// New 基于同一个 Store 创建全部业务服务
func New(store Store, logger *zap.Logger, opts Options) *Services {
	opts = opts.withDefaults()
	engine := NewStatusEngine(logger)

	return &Services{
		Reservations: NewReservationService(store, engine, logger, opts),
		Sessions:     NewSessionService(store, logger, opts),
		Points:       NewPointService(store, engine, logger),
		Queries:      NewQueryService(store, opts),
		Admin:        NewAdminService(store, logger, opts),
	}
}
