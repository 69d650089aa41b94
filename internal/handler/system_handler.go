package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/stemsi/lingua-backend/internal/config"
	"github.com/stemsi/lingua-backend/internal/response"
)

const metricsInterval = 7 * time.Second

// SystemHandler reports runtime, pool and worker queue health.
type SystemHandler struct {
	rdb       *redis.Client
	pool      *pgxpool.Pool
	startTime time.Time
	log       zerolog.Logger
}

func NewSystemHandler(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		rdb:       rdb,
		pool:      pool,
		startTime: time.Now(),
		log:       log.With().Str("component", "system_handler").Logger(),
	}
}

type systemMetrics struct {
	Timestamp int64  `json:"timestamp"`
	Uptime    string `json:"uptime"`

	// Go Application
	Goroutines int    `json:"goroutines"`
	HeapAlloc  uint64 `json:"heap_alloc"`
	HeapSys    uint64 `json:"heap_sys"`
	NumGC      uint32 `json:"num_gc"`
	GoVersion  string `json:"go_version"`
	NumCPU     int    `json:"num_cpu"`

	// PostgreSQL pool
	DBTotalConns    int32 `json:"db_total_conns"`
	DBAcquiredConns int32 `json:"db_acquired_conns"`
	DBIdleConns     int32 `json:"db_idle_conns"`

	// Worker Queues
	QueueAnswers int64 `json:"queue_answers"`
	QueueScores  int64 `json:"queue_scores"`
}

// Status godoc
// GET /api/v1/admin/system/status
func (h *SystemHandler) Status(c *gin.Context) {
	response.Success(c, http.StatusOK, h.collect(c.Request.Context()))
}

// MetricsSSE godoc
// GET /api/v1/admin/system/metrics
func (h *SystemHandler) MetricsSSE(c *gin.Context) {
	reqCtx := c.Request.Context()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	h.log.Info().Msg("Client connected to system metrics SSE")

	ticker := time.NewTicker(metricsInterval)
	defer ticker.Stop()

	h.writeMetrics(c)

	for {
		select {
		case <-reqCtx.Done():
			h.log.Info().Msg("Client disconnected from system metrics SSE")
			return
		case <-ticker.C:
			h.writeMetrics(c)
		}
	}
}

func (h *SystemHandler) writeMetrics(c *gin.Context) {
	data, err := json.Marshal(h.collect(c.Request.Context()))
	if err != nil {
		return
	}
	c.Writer.Write([]byte("data: "))
	c.Writer.Write(data)
	c.Writer.Write([]byte("\n\n"))
	c.Writer.Flush()
}

func (h *SystemHandler) collect(ctx context.Context) systemMetrics {
	m := systemMetrics{
		Timestamp: time.Now().Unix(),
		Uptime:    formatDuration(time.Since(h.startTime)),
		GoVersion: runtime.Version(),
		NumCPU:    runtime.NumCPU(),
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	m.Goroutines = runtime.NumGoroutine()
	m.HeapAlloc = ms.HeapAlloc
	m.HeapSys = ms.Sys
	m.NumGC = ms.NumGC

	if h.pool != nil {
		st := h.pool.Stat()
		m.DBTotalConns = st.TotalConns()
		m.DBAcquiredConns = st.AcquiredConns()
		m.DBIdleConns = st.IdleConns()
	}

	// Worker queues, pipelined LLEN.
	if h.rdb != nil {
		pipe := h.rdb.Pipeline()
		answersCmd := pipe.LLen(ctx, config.WorkerKey.PersistAnswersQueue)
		scoresCmd := pipe.LLen(ctx, config.WorkerKey.PersistScoresQueue)
		if _, err := pipe.Exec(ctx); err == nil {
			m.QueueAnswers, _ = answersCmd.Result()
			m.QueueScores, _ = scoresCmd.Result()
		} else {
			h.log.Warn().Err(err).Msg("Queue depth read failed")
		}
	}

	return m
}

func formatDuration(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}
