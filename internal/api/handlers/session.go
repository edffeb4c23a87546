package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/langchou/evpoints/internal/service"
)

// NewSession 写入充电记录，成功时返回空响应体
func (h *Handler) NewSession(c *gin.Context) {
	var req service.SessionInput
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}

	if _, err := h.services.Sessions.Record(c.Request.Context(), &req); err != nil {
		h.fail(c, err)
		return
	}

	c.Status(http.StatusOK)
}

// ListSessions 时间区间内的充电记录
func (h *Handler) ListSessions(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	sessions, err := h.services.Queries.Sessions(c.Request.Context(), id, c.Param("from"), c.Param("to"))
	if err != nil {
		h.fail(c, err)
		return
	}
	renderTable(h, c, "sessions", newSessionRows(sessions, h.services.Queries.Location()))
}

// ListStatusChanges 时间区间内的状态变更
func (h *Handler) ListStatusChanges(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	changes, err := h.services.Queries.StatusChanges(c.Request.Context(), id, c.Param("from"), c.Param("to"))
	if err != nil {
		h.fail(c, err)
		return
	}
	renderTable(h, c, "pointstatus", newStatusRows(changes, h.services.Queries.Location()))
}
