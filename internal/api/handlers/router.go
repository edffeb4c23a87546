package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/langchou/evpoints/internal/metrics"
)

const requestIDHeader = "X-Request-ID"

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.Use(gin.CustomRecovery(h.recovered))
	r.Use(requestID())
	r.Use(h.requestLogger())
	r.Use(metrics.GinMiddleware())

	// API 路由
	api := r.Group("/api")
	{
		// 充电桩
		api.GET("/points", h.ListPoints)
		api.GET("/point/:id", h.GetPoint)
		api.POST("/reserve/:id", h.Reserve)
		api.POST("/reserve/:id/:minutes", h.Reserve)
		api.POST("/updpoint/:id", h.UpdatePoint)

		// 充电记录
		api.POST("/newsession", h.NewSession)
		api.GET("/sessions/:id/:from/:to", h.ListSessions)
		api.GET("/pointstatus/:id/:from/:to", h.ListStatusChanges)

		// 管理
		admin := api.Group("/admin")
		admin.POST("/resetpoints", h.ResetPoints)
		admin.POST("/addpoints", h.AddPoints)
		admin.GET("/healthcheck", h.HealthCheck)
	}

	if h.opts.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.opts.Gatherer, promhttp.HandlerOpts{})))
	}

	r.NoRoute(h.notFound)
}

// requestID 透传或生成请求 ID
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// requestLogger 请求日志
func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", c.GetString("request_id")),
		}
		if c.Writer.Status() >= 500 {
			h.logger.Warn("HTTP request", fields...)
			return
		}
		h.logger.Debug("HTTP request", fields...)
	}
}
