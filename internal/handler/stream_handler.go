package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/facemark/facemark-api/internal/stream"
	appErrors "github.com/facemark/facemark-api/pkg/errors"
	"github.com/facemark/facemark-api/pkg/response"
)

const mjpegBoundary = "frame"

// StreamHandler serves the live camera feed as MJPEG.
type StreamHandler struct {
	sampler *stream.Sampler
}

// NewStreamHandler constructs StreamHandler. A nil sampler means the live
// feature is disabled.
func NewStreamHandler(sampler *stream.Sampler) *StreamHandler {
	return &StreamHandler{sampler: sampler}
}

// Feed godoc
// @Summary Live annotated camera feed
// @Tags Live
// @Produce mpfd
// @Success 200
// @Failure 503 {object} response.Envelope
// @Router /live/stream [get]
func (h *StreamHandler) Feed(c *gin.Context) {
	if h.sampler == nil || !h.sampler.Running() {
		response.Error(c, appErrors.Clone(appErrors.ErrUnavailable, "live stream is not running"))
		return
	}

	frames, cancel := h.sampler.Subscribe()
	defer cancel()

	c.Header("Content-Type", "multipart/x-mixed-replace; boundary="+mjpegBoundary)
	c.Writer.WriteHeader(http.StatusOK)

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		return
	}
	for {
		select {
		case <-c.Request.Context().Done():
			return
		case frame, open := <-frames:
			if !open {
				return
			}
			fmt.Fprintf(c.Writer, "--%s\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", mjpegBoundary, len(frame))
			if _, err := c.Writer.Write(frame); err != nil {
				return
			}
			fmt.Fprint(c.Writer, "\r\n")
			flusher.Flush()
		}
	}
}

// Status godoc
// @Summary Live sampler status
// @Tags Live
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /live/status [get]
func (h *StreamHandler) Status(c *gin.Context) {
	running := h.sampler != nil && h.sampler.Running()
	response.JSON(c, http.StatusOK, gin.H{"running": running}, nil)
}
