package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/facemark/facemark-api/internal/models"
	"github.com/facemark/facemark-api/internal/service"
	appErrors "github.com/facemark/facemark-api/pkg/errors"
	"github.com/facemark/facemark-api/pkg/response"
)

// RecognitionHandler identifies faces in uploaded images.
type RecognitionHandler struct {
	recognition   *service.RecognitionService
	notifications *service.NotificationService
	metrics       *service.MetricsService
}

// NewRecognitionHandler constructs RecognitionHandler.
func NewRecognitionHandler(
	recognition *service.RecognitionService,
	notifications *service.NotificationService,
	metrics *service.MetricsService,
) *RecognitionHandler {
	return &RecognitionHandler{recognition: recognition, notifications: notifications, metrics: metrics}
}

// Recognize godoc
// @Summary Recognize a face and mark attendance
// @Tags Recognition
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "Image containing a face"
// @Param date formData string false "Attendance date (YYYY-MM-DD, default today)"
// @Success 200 {object} response.Envelope
// @Router /recognition [post]
func (h *RecognitionHandler) Recognize(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "image file is required"))
		return
	}
	if file.Size > maxUploadBytes {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "image exceeds the 8MB limit"))
		return
	}
	f, err := file.Open()
	if err != nil {
		response.Error(c, err)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.recognition.RecognizeAndMark(c.Request.Context(), data, c.PostForm("date"))
	if err != nil {
		h.metrics.ObserveRecognition("error")
		response.Error(c, err)
		return
	}

	switch {
	case !result.Recognized && result.Reason == "no face detected":
		h.metrics.ObserveRecognition("no_face")
	case !result.Recognized:
		h.metrics.ObserveRecognition("no_match")
	default:
		h.metrics.ObserveRecognition("matched")
		markResult := "duplicate"
		if result.Marked {
			markResult = "marked"
		}
		h.metrics.ObserveMark("recognition", markResult)
		if result.Marked && h.notifications != nil {
			h.notifications.NotifyMarked(markedResult(result))
		}
	}
	response.JSON(c, http.StatusOK, result, nil)
}

func markedResult(r *models.RecognitionResult) *models.MarkResult {
	mark := &models.MarkResult{StudentID: r.StudentID, Marked: r.Marked, Duplicate: r.Duplicate}
	if r.AttendedOn != nil {
		mark.AttendedOn = *r.AttendedOn
	}
	return mark
}
