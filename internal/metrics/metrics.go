package metrics

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/langchou/evpoints/internal/models"
)

const metricPrefix = "evpoints_"

// 预约结果
const (
	OutcomeReserved = "reserved"
	OutcomeBusy     = "busy"
	OutcomeError    = "error"
)

const resultOK = "ok"

var (
	registerOnce sync.Once

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec

	reservationsTotal *prometheus.CounterVec
	sessionsTotal     *prometheus.CounterVec
	transitionsTotal  *prometheus.CounterVec
)

// PointCounter 提供充电桩数量，用于 gauge
type PointCounter func(ctx context.Context) (*models.PointCounts, error)

// Init 注册指标。counter 可以为空，此时不注册充电桩数量 gauge
func Init(reg prometheus.Registerer, counter PointCounter, logger *zap.Logger) {
	registerOnce.Do(func() {
		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "Total HTTP requests by route and status code",
			},
			[]string{"method", "route", "code"},
		)
		httpLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		)
		reservationsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "reservations_total",
				Help: "Reservation attempts by outcome",
			},
			[]string{"outcome"},
		)
		sessionsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "sessions_total",
				Help: "Session submissions by result code",
			},
			[]string{"result"},
		)
		transitionsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "status_transitions_total",
				Help: "Point status transitions",
			},
			[]string{"from", "to"},
		)

		reg.MustRegister(httpRequests, httpLatency, reservationsTotal, sessionsTotal, transitionsTotal)

		if counter != nil {
			registerPointGauges(reg, counter, logger)
		}
	})
}

func registerPointGauges(reg prometheus.Registerer, counter PointCounter, logger *zap.Logger) {
	count := func(pick func(*models.PointCounts) int64) func() float64 {
		return func() float64 {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			counts, err := counter(ctx)
			if err != nil {
				if logger != nil {
					logger.Warn("metrics point count failed", zap.Error(err))
				}
				return 0
			}
			return float64(pick(counts))
		}
	}

	reg.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: metricPrefix + "charge_points",
			Help: "Number of charge points",
		}, count(func(c *models.PointCounts) int64 { return c.Total })),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: metricPrefix + "charge_points_online",
			Help: "Charge points not offline",
		}, count(func(c *models.PointCounts) int64 { return c.Online })),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: metricPrefix + "charge_points_offline",
			Help: "Charge points offline",
		}, count(func(c *models.PointCounts) int64 { return c.Offline })),
	)
}

// GinMiddleware 记录请求数与耗时；未初始化时直接放行
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if httpRequests == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpLatency.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// RecordReservation 预约结果计数
func RecordReservation(outcome string) {
	if reservationsTotal == nil {
		return
	}
	reservationsTotal.WithLabelValues(outcome).Inc()
}

// RecordSession 充电记录提交结果，失败时按错误码分类
func RecordSession(err error) {
	if sessionsTotal == nil {
		return
	}
	sessionsTotal.WithLabelValues(resultLabel(err)).Inc()
}

// RecordStatusTransition 状态切换计数
func RecordStatusTransition(from, to models.PointStatus) {
	if transitionsTotal == nil {
		return
	}
	transitionsTotal.WithLabelValues(string(from), string(to)).Inc()
}

func resultLabel(err error) string {
	if err == nil {
		return resultOK
	}
	var coded interface{ ErrorCode() string }
	if errors.As(err, &coded) {
		return coded.ErrorCode()
	}
	return OutcomeError
}
