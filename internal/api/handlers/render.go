package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/langchou/evpoints/internal/export"
)

// renderTable 按 format 参数输出 JSON / CSV / XLSX，空结果返回 204
func renderTable[T export.Record](h *Handler, c *gin.Context, sheet string, rows []T) {
	if len(rows) == 0 {
		noContent(c)
		return
	}

	switch export.ParseFormat(c.Query("format")) {
	case export.FormatCSV:
		c.Data(http.StatusOK, export.ContentTypeCSV, export.CSV(rows))
	case export.FormatXLSX:
		data, err := export.XLSX(sheet, rows)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+sheet+`.xlsx"`)
		c.Data(http.StatusOK, export.ContentTypeXLSX, data)
	default:
		c.JSON(http.StatusOK, rows)
	}
}
