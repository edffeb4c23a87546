package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/langchou/evpoints/internal/service"
)

// ListPoints 充电桩列表
func (h *Handler) ListPoints(c *gin.Context) {
	points, err := h.services.Queries.ListPoints(c.Request.Context(), c.Query("status"))
	if err != nil {
		h.fail(c, err)
		return
	}
	renderTable(h, c, "points", newPointRows(points))
}

// GetPoint 充电桩详情
func (h *Handler) GetPoint(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	point, err := h.services.Queries.GetPoint(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, newPointDetail(point, h.services.Queries.Location()))
}

// Reserve 预约充电桩，minutes 可选
func (h *Handler) Reserve(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	var minutes *int
	if raw := c.Param("minutes"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.fail(c, service.ErrInvalidMinutes)
			return
		}
		minutes = &n
	}

	result, err := h.services.Reservations.Reserve(c.Request.Context(), id, minutes)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, reserveResponse{
		PointID:            result.PointID,
		Status:             string(result.Status),
		ReservationEndTime: h.services.Reservations.FormatEnd(result),
	})
}

// UpdatePoint 更新状态和/或电价
func (h *Handler) UpdatePoint(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	var req service.PointUpdate
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}

	result, err := h.services.Points.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, updatePointResponse{
		PointID:  result.PointID,
		Status:   string(result.Status),
		KwhPrice: result.KwhPrice,
	})
}
