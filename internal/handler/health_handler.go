package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/facemark/facemark-api/internal/classifier"
	"github.com/facemark/facemark-api/pkg/response"
)

// HealthHandler reports process and dependency health.
type HealthHandler struct {
	db    *sqlx.DB
	cache *redis.Client
	store *classifier.Store
}

// NewHealthHandler constructs HealthHandler.
func NewHealthHandler(db *sqlx.DB, cache *redis.Client, store *classifier.Store) *HealthHandler {
	return &HealthHandler{db: db, cache: cache, store: store}
}

// Live godoc
// @Summary Liveness probe
// @Tags Health
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /health [get]
func (h *HealthHandler) Live(c *gin.Context) {
	response.JSON(c, http.StatusOK, gin.H{"status": "ok"}, nil)
}

// Ready godoc
// @Summary Readiness probe with dependency checks
// @Tags Health
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	checks := gin.H{
		"database": "ok",
		"cache":    "ok",
		"model":    "trained",
	}
	healthy := true

	if err := h.db.PingContext(c.Request.Context()); err != nil {
		checks["database"] = err.Error()
		healthy = false
	}
	if h.cache != nil {
		if err := h.cache.Ping(c.Request.Context()).Err(); err != nil {
			checks["cache"] = err.Error()
			healthy = false
		}
	}
	// An untrained model is degraded, not unhealthy; recognition simply
	// reports not-trained until the first run.
	if !h.store.Trained() {
		checks["model"] = "not trained"
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	response.JSON(c, status, checks, nil)
}
