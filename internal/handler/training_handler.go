package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/facemark/facemark-api/internal/service"
	"github.com/facemark/facemark-api/pkg/jobs"
	"github.com/facemark/facemark-api/pkg/response"
)

// TrainingHandler starts training runs and reports their progress.
// Runs execute on a dedicated single-worker queue.
type TrainingHandler struct {
	training *service.TrainingService
	metrics  *service.MetricsService
	queue    *jobs.Queue
	logger   *zap.Logger
}

// NewTrainingHandler constructs the handler and its run queue.
func NewTrainingHandler(training *service.TrainingService, metrics *service.MetricsService, logger *zap.Logger) *TrainingHandler {
	h := &TrainingHandler{training: training, metrics: metrics, logger: logger}
	h.queue = jobs.NewQueue("training", h.runJob, jobs.QueueConfig{
		Workers:    1,
		MaxRetries: 1,
		Logger:     logger,
	})
	return h
}

// Start launches the queue workers.
func (h *TrainingHandler) Start(ctx context.Context) {
	h.queue.Start(ctx)
}

// Stop drains the queue workers.
func (h *TrainingHandler) Stop() {
	h.queue.Stop()
}

func (h *TrainingHandler) runJob(ctx context.Context, _ jobs.Job) error {
	started := time.Now()
	err := h.training.Run(ctx)
	result := "success"
	if err != nil {
		result = "failure"
	}
	h.metrics.ObserveTraining(result, time.Since(started))
	// Failures are reflected in the status snapshot; retrying the job
	// would need a fresh Start claim anyway.
	return nil
}

// Trigger godoc
// @Summary Start a training run
// @Tags Training
// @Produce json
// @Success 202 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /training/runs [post]
func (h *TrainingHandler) Trigger(c *gin.Context) {
	if err := h.training.Start(); err != nil {
		response.Error(c, err)
		return
	}
	if err := h.queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: "training"}); err != nil {
		h.logger.Error("enqueue training run", zap.Error(err))
		h.training.Abort(err)
		response.Error(c, err)
		return
	}
	response.Accepted(c, h.training.Status())
}

// Status godoc
// @Summary Report training progress
// @Tags Training
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /training/status [get]
func (h *TrainingHandler) Status(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.training.Status(), nil)
}
