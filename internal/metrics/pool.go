package metrics

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// RegisterPoolStats 导出 pgxpool 连接池状态
func RegisterPoolStats(reg prometheus.Registerer, stat func() *pgxpool.Stat) {
	gauge := func(name, help string, value func(s *pgxpool.Stat) float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: metricPrefix + "db_pool_" + name,
			Help: help,
		}, func() float64 {
			return value(stat())
		})
	}

	reg.MustRegister(
		gauge("acquired_conns", "Connections currently in use", func(s *pgxpool.Stat) float64 { return float64(s.AcquiredConns()) }),
		gauge("idle_conns", "Idle connections", func(s *pgxpool.Stat) float64 { return float64(s.IdleConns()) }),
		gauge("total_conns", "Total connections", func(s *pgxpool.Stat) float64 { return float64(s.TotalConns()) }),
		gauge("max_conns", "Maximum pool size", func(s *pgxpool.Stat) float64 { return float64(s.MaxConns()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: metricPrefix + "db_pool_empty_acquire_total",
			Help: "Acquires that waited for a connection",
		}, func() float64 {
			return float64(stat().EmptyAcquireCount())
		}),
	)
}
