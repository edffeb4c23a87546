package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/langchou/evpoints/internal/service"
)

// Options HTTP 层参数
type Options struct {
	// UploadMaxBytes addpoints 上传大小上限
	UploadMaxBytes int64
	// Gatherer /metrics 暴露的指标来源，为空时不注册 /metrics
	Gatherer prometheus.Gatherer
	// Now 信封 timeref 使用的时钟
	Now func() time.Time
}

// Handler HTTP 处理器
type Handler struct {
	logger   *zap.Logger
	services *service.Services
	opts     Options
}

// NewHandler 创建处理器
func NewHandler(logger *zap.Logger, services *service.Services, opts Options) *Handler {
	if opts.UploadMaxBytes <= 0 {
		opts.UploadMaxBytes = 8 << 20
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Handler{
		logger:   logger,
		services: services,
		opts:     opts,
	}
}

// parseID 严格按十进制整数解析路径中的 id
func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, service.ErrInvalidPointID
	}
	return id, nil
}

// bindJSON 空请求体视为 {}，其它解析失败返回 errInvalidJSON
func bindJSON(c *gin.Context, obj any) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return &invalidJSONError{cause: err}
	}
	return nil
}

// noContent 空结果
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
