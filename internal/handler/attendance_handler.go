package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/facemark/facemark-api/internal/models"
	"github.com/facemark/facemark-api/internal/service"
	appErrors "github.com/facemark/facemark-api/pkg/errors"
	"github.com/facemark/facemark-api/pkg/response"
)

// AttendanceHandler exposes the attendance ledger.
type AttendanceHandler struct {
	ledger        *service.LedgerService
	stats         *service.StatsService
	notifications *service.NotificationService
	metrics       *service.MetricsService
}

// NewAttendanceHandler constructs AttendanceHandler.
func NewAttendanceHandler(
	ledger *service.LedgerService,
	stats *service.StatsService,
	notifications *service.NotificationService,
	metrics *service.MetricsService,
) *AttendanceHandler {
	return &AttendanceHandler{ledger: ledger, stats: stats, notifications: notifications, metrics: metrics}
}

// Mark godoc
// @Summary Mark attendance manually
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body models.MarkAttendanceRequest true "Mark"
// @Success 200 {object} response.Envelope
// @Router /attendance [post]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	var req models.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	result, err := h.ledger.Mark(c.Request.Context(), req.StudentID, req.Date, models.SourceManual, 1)
	if err != nil {
		response.Error(c, err)
		return
	}
	markResult := "duplicate"
	if result.Marked {
		markResult = "marked"
	}
	h.metrics.ObserveMark(models.SourceManual, markResult)
	if result.Marked && h.notifications != nil {
		h.notifications.NotifyMarked(result)
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// List godoc
// @Summary List attendance records
// @Tags Attendance
// @Produce json
// @Param student query string false "Filter by student id"
// @Param class query string false "Filter by class"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /attendance [get]
func (h *AttendanceHandler) List(c *gin.Context) {
	filter, err := parseAttendanceFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	records, pagination, err := h.ledger.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, pagination)
}

// Day godoc
// @Summary Present and absent roster for one day
// @Tags Attendance
// @Produce json
// @Param date query string false "Day (YYYY-MM-DD, default today)"
// @Success 200 {object} response.Envelope
// @Router /attendance/day [get]
func (h *AttendanceHandler) Day(c *gin.Context) {
	roster, err := h.ledger.DayRoster(c.Request.Context(), c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, roster, nil)
}

// Stats godoc
// @Summary Attendance dashboard statistics
// @Tags Attendance
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /attendance/stats [get]
func (h *AttendanceHandler) Stats(c *gin.Context) {
	overview, err := h.stats.Overview(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, overview, nil)
}

// Cleanup godoc
// @Summary Remove duplicate attendance rows
// @Tags Attendance
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /attendance/cleanup [post]
func (h *AttendanceHandler) Cleanup(c *gin.Context) {
	removed, err := h.ledger.CleanupDuplicates(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"removed": removed}, nil)
}

func parseAttendanceFilter(c *gin.Context) (models.AttendanceFilter, error) {
	var filter models.AttendanceFilter
	filter.StudentID = c.Query("student")
	filter.ClassName = c.Query("class")
	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return filter, appErrors.Clone(appErrors.ErrValidation, "from must be formatted as YYYY-MM-DD")
		}
		filter.From = &parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return filter, appErrors.Clone(appErrors.ErrValidation, "to must be formatted as YYYY-MM-DD")
		}
		filter.To = &parsed
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PerPage = size
	}
	return filter, nil
}
