package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/langchou/evpoints/internal/models"
	"github.com/langchou/evpoints/internal/service"
)

// errorEnvelope 统一的错误响应
type errorEnvelope struct {
	Call       string `json:"call"`
	TimeRef    string `json:"timeref"`
	Originator string `json:"originator"`
	ReturnCode int    `json:"return_code"`
	Error      string `json:"error"`
	DebugInfo  string `json:"debuginfo"`
}

// invalidJSONError 请求体不是合法 JSON
type invalidJSONError struct {
	cause error
}

func (e *invalidJSONError) Error() string {
	return e.cause.Error()
}

func (e *invalidJSONError) Unwrap() error {
	return e.cause
}

// statusFor 错误分类对应的 HTTP 状态码
func statusFor(kind service.Kind) int {
	switch kind {
	case service.KindValidation, service.KindUnavailable:
		return http.StatusBadRequest
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// fail 把业务错误渲染成信封
func (h *Handler) fail(c *gin.Context, err error) {
	var jsonErr *invalidJSONError
	if errors.As(err, &jsonErr) {
		h.abort(c, http.StatusBadRequest, "Invalid JSON", jsonErr.Error())
		return
	}

	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		status := statusFor(svcErr.Kind)
		if status >= http.StatusInternalServerError || svcErr.Kind == service.KindUnavailable {
			h.logger.Error(svcErr.Message, zap.String("path", c.Request.URL.Path), zap.Error(err))
		}
		h.abort(c, status, svcErr.Message, svcErr.Detail)
		return
	}

	h.logger.Error("Request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	h.abort(c, http.StatusInternalServerError, "Internal server error", err.Error())
}

// abort 写入错误信封并终止后续处理
func (h *Handler) abort(c *gin.Context, status int, message, debug string) {
	c.AbortWithStatusJSON(status, errorEnvelope{
		Call:       c.Request.URL.RequestURI(),
		TimeRef:    models.FormatWire(h.opts.Now(), h.services.Queries.Location()),
		Originator: c.ClientIP(),
		ReturnCode: status,
		Error:      message,
		DebugInfo:  debug,
	})
}

// notFound 未匹配的路由
func (h *Handler) notFound(c *gin.Context) {
	h.abort(c, http.StatusNotFound, "Not found", "Endpoint does not exist")
}

// recovered panic 兜底
func (h *Handler) recovered(c *gin.Context, recovered any) {
	h.logger.Error("Panic recovered", zap.String("path", c.Request.URL.Path), zap.Any("panic", recovered))
	h.abort(c, http.StatusInternalServerError, "Internal server error", fmt.Sprint(recovered))
}
