package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/stemsi/assessment-pipeline/internal/config"
	"github.com/stemsi/assessment-pipeline/internal/database"
	"github.com/stemsi/assessment-pipeline/internal/response"
)

// SystemHandler reports liveness of the backing stores and the attempt queue.
type SystemHandler struct {
	health    *database.Health
	rdb       *redis.Client
	startTime time.Time
	log       zerolog.Logger
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(health *database.Health, rdb *redis.Client, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		health:    health,
		rdb:       rdb,
		startTime: time.Now(),
		log:       log.With().Str("component", "system_handler").Logger(),
	}
}

// Health godoc
// GET /health
// 200 when every dependency answers a ping, 503 otherwise.
func (h *SystemHandler) Health(c *gin.Context) {
	deps, ok := h.health.Check(c.Request.Context())
	status := http.StatusOK
	state := "ok"
	if !ok {
		status = http.StatusServiceUnavailable
		state = "degraded"
		h.log.Warn().Interface("dependencies", deps).Msg("health check failed")
	}
	response.Success(c, status, gin.H{"status": state, "dependencies": deps})
}

type queueStats struct {
	PendingAttempts int64  `json:"pending_attempts"`
	DeadAttempts    int64  `json:"dead_attempts"`
	Uptime          string `json:"uptime"`
	Goroutines      int    `json:"goroutines"`
	GoVersion       string `json:"go_version"`
}

// QueueStats godoc
// GET /api/v1/admin/system/queues
func (h *SystemHandler) QueueStats(c *gin.Context) {
	ctx := c.Request.Context()
	pending, err := h.rdb.LLen(ctx, config.WorkerKey.PersistAttemptsQueue).Result()
	if err != nil {
		h.log.Error().Err(err).Msg("read queue length")
		response.Fail(c, http.StatusBadGateway, response.ErrUpstream)
		return
	}
	dead, err := h.rdb.LLen(ctx, config.WorkerKey.PersistAttemptsDead).Result()
	if err != nil {
		h.log.Error().Err(err).Msg("read dead-letter length")
		response.Fail(c, http.StatusBadGateway, response.ErrUpstream)
		return
	}
	response.Success(c, http.StatusOK, queueStats{
		PendingAttempts: pending,
		DeadAttempts:    dead,
		Uptime:          time.Since(h.startTime).Round(time.Second).String(),
		Goroutines:      runtime.NumGoroutine(),
		GoVersion:       runtime.Version(),
	})
}
