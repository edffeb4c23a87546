package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/langchou/evpoints/internal/service"
)

// ResetPoints 清空并从数据集重新导入
func (h *Handler) ResetPoints(c *gin.Context) {
	if err := h.services.Admin.ResetPoints(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// AddPoints multipart 上传 CSV，字段名 file
func (h *Handler) AddPoints(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.UploadMaxBytes)

	header, err := c.FormFile("file")
	if err != nil {
		h.fail(c, service.ErrNoFile)
		return
	}

	file, err := header.Open()
	if err != nil {
		h.fail(c, service.ErrInvalidCSV.Wrap(err))
		return
	}
	defer file.Close()

	inserted, err := h.services.Admin.ImportCSV(c.Request.Context(), file)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.logger.Info("CSV upload processed", zap.String("filename", header.Filename), zap.Int64("inserted", inserted))
	c.Status(http.StatusOK)
}

// HealthCheck 存储连通性与充电桩统计
func (h *Handler) HealthCheck(c *gin.Context) {
	health, err := h.services.Admin.Health(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, healthResponse{
		Status:               "OK",
		DBConnection:         health.Driver,
		NChargePoints:        health.Counts.Total,
		NChargePointsOnline:  health.Counts.Online,
		NChargePointsOffline: health.Counts.Offline,
	})
}
