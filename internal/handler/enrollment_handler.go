package handler

import (
	"io"

	"github.com/gin-gonic/gin"

	"github.com/facemark/facemark-api/internal/service"
	appErrors "github.com/facemark/facemark-api/pkg/errors"
	"github.com/facemark/facemark-api/pkg/response"
)

// maxUploadBytes caps one enrollment image.
const maxUploadBytes = 8 << 20

// EnrollmentHandler exposes face dataset endpoints.
type EnrollmentHandler struct {
	enrollment *service.EnrollmentService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollment *service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollment: enrollment}
}

// Upload godoc
// @Summary Upload face images for a student
// @Tags Enrollment
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Student ID"
// @Param images formData file true "Face images"
// @Success 201 {object} response.Envelope
// @Router /students/{id}/faces [post]
func (h *EnrollmentHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "multipart form required"))
		return
	}
	files := form.File["images"]
	if len(files) == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "at least one image is required"))
		return
	}

	images := make([][]byte, 0, len(files))
	for _, file := range files {
		if file.Size > maxUploadBytes {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "image exceeds the 8MB limit"))
			return
		}
		f, err := file.Open()
		if err != nil {
			response.Error(c, err)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			response.Error(c, err)
			return
		}
		images = append(images, data)
	}

	result, err := h.enrollment.AddImages(c.Request.Context(), c.Param("id"), images)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Count godoc
// @Summary Report how many face images a student has
// @Tags Enrollment
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/faces [get]
func (h *EnrollmentHandler) Count(c *gin.Context) {
	count, err := h.enrollment.Count(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, 200, gin.H{"photo_count": count}, nil)
}

// Clear godoc
// @Summary Remove all face images for a student
// @Tags Enrollment
// @Param id path string true "Student ID"
// @Success 204
// @Router /students/{id}/faces [delete]
func (h *EnrollmentHandler) Clear(c *gin.Context) {
	if err := h.enrollment.RemoveAll(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
