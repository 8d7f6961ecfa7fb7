package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/facemark/facemark-api/internal/service"
	"github.com/facemark/facemark-api/pkg/response"
)

// ExportHandler streams attendance reports.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Attendance godoc
// @Summary Export attendance as CSV or PDF
// @Tags Export
// @Produce octet-stream
// @Param format query string false "csv or pdf" default(csv)
// @Param student query string false "Filter by student id"
// @Param class query string false "Filter by class"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Success 200 {file} binary
// @Router /attendance/export [get]
func (h *ExportHandler) Attendance(c *gin.Context) {
	filter, err := parseAttendanceFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.exports.Attendance(c.Request.Context(), filter, c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(200, result.ContentType, result.Data)
}

// DayRoster godoc
// @Summary Export the present/absent roster for one day
// @Tags Export
// @Produce octet-stream
// @Param date query string false "Day (YYYY-MM-DD, default today)"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /attendance/day/export [get]
func (h *ExportHandler) DayRoster(c *gin.Context) {
	result, err := h.exports.DayRoster(c.Request.Context(), c.Query("date"), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(200, result.ContentType, result.Data)
}
