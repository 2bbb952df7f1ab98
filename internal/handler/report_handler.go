package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanarios/sistema-kiosco/internal/apierror"
	"github.com/yanarios/sistema-kiosco/internal/service"
)

type ReportHandler struct {
	reports *service.ReportService
}

func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

func (h *ReportHandler) monthParams(c *gin.Context) (int, int) {
	now := time.Now()
	year, _ := strconv.Atoi(c.DefaultQuery("year", strconv.Itoa(now.Year())))
	month, _ := strconv.Atoi(c.DefaultQuery("month", strconv.Itoa(int(now.Month()))))
	return year, month
}

// Monthly godoc
// @Summary  Monthly sales and profit report
// @Tags     reports
// @Produce  json
// @Param    year  query int false "Year (default: current)"
// @Param    month query int false "Month 1-12 (default: current)"
// @Success  200 {object} dto.MonthlyReportResponse
// @Router   /v1/reports/monthly [get]
func (h *ReportHandler) Monthly(c *gin.Context) {
	year, month := h.monthParams(c)
	resp, err := h.reports.Monthly(c.Request.Context(), year, month)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ReportHandler) MonthlyExport(c *gin.Context) {
	year, month := h.monthParams(c)
	f, err := h.reports.ExportMonthlyXLSX(c.Request.Context(), year, month)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition",
		fmt.Sprintf(`attachment; filename="report-%04d-%02d.xlsx"`, year, month))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := f.Write(c.Writer); err != nil {
		respondError(c, apierror.Transient(err))
	}
}

func (h *ReportHandler) LowStock(c *gin.Context) {
	resp, err := h.reports.LowStock(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
