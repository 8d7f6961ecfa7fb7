package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/facemark/facemark-api/internal/service"
	appErrors "github.com/facemark/facemark-api/pkg/errors"
	"github.com/facemark/facemark-api/pkg/response"
)

// NotificationHandler triggers guardian emails on demand.
type NotificationHandler struct {
	notifications *service.NotificationService
}

// NewNotificationHandler constructs NotificationHandler.
func NewNotificationHandler(notifications *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

type sendNotificationRequest struct {
	StudentID string `json:"student_id" binding:"required"`
	Date      string `json:"date"`
}

// Send godoc
// @Summary Email a guardian the student's presence state for a day
// @Tags Notifications
// @Accept json
// @Produce json
// @Param payload body sendNotificationRequest true "Target"
// @Success 202 {object} response.Envelope
// @Router /notifications/attendance [post]
func (h *NotificationHandler) Send(c *gin.Context) {
	if h.notifications == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnavailable, "mail delivery is not configured"))
		return
	}
	var req sendNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	if err := h.notifications.SendAttendanceEmail(c.Request.Context(), req.StudentID, req.Date); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, gin.H{"queued": true}, nil)
}
