package handler

import (
	"fmt"
	"net/http"

	"garagepos/internal/service"

	"github.com/gin-gonic/gin"
)

type ReportsHandler struct {
	reports service.ReportService
	exports service.ExportService
}

func NewReportsHandler(reports service.ReportService, exports service.ExportService) *ReportsHandler {
	return &ReportsHandler{reports: reports, exports: exports}
}

// CashFlow godoc
// @Summary Cash-flow report over an inclusive date range
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param from query string false "YYYY-MM-DD, defaults to 30 days before 'to'"
// @Param to query string false "YYYY-MM-DD, defaults to today"
// @Success 200 {object} dto.CashFlowReport
// @Failure 422 {object} apierror.APIError
// @Router /v1/reports/cash-flow [get]
func (h *ReportsHandler) CashFlow(c *gin.Context) {
	from, to, err := h.reports.ResolveRange(c.Query("from"), c.Query("to"))
	if err != nil {
		respondError(c, err)
		return
	}
	report, err := h.reports.BuildCashFlowReport(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Export godoc
// @Summary Cash-flow report rendered as csv, html or pdf
// @Tags reports
// @Produce octet-stream
// @Security BearerAuth
// @Param from query string false "YYYY-MM-DD"
// @Param to query string false "YYYY-MM-DD"
// @Param format query string true "csv | html | pdf"
// @Success 200
// @Failure 422 {object} apierror.APIError
// @Router /v1/reports/cash-flow/export [get]
func (h *ReportsHandler) Export(c *gin.Context) {
	from, to, err := h.reports.ResolveRange(c.Query("from"), c.Query("to"))
	if err != nil {
		respondError(c, err)
		return
	}
	report, err := h.reports.BuildCashFlowReport(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, err)
		return
	}

	format := c.DefaultQuery("format", service.FormatCSV)
	data, contentType, err := h.exports.Render(report, format)
	if err != nil {
		respondError(c, err)
		return
	}

	filename := fmt.Sprintf("cash-flow_%s_%s.%s", report.From, report.To, format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}
