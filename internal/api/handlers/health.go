package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stitts-dev/fight-edge/internal/llm"
)

// Pinger is satisfied by the database and cache wrappers.
type Pinger interface {
	Ping() error
}

type ContextPinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db      Pinger
	cache   ContextPinger
	backend llm.Backend
	hub     ConnectionCounter
	logger  *logrus.Logger
}

// ConnectionCounter reports open websocket connections.
type ConnectionCounter interface {
	GetConnectionCount() int
}

type HealthResponse struct {
	Status    string         `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
	Service   string         `json:"service"`
	Uptime    string         `json:"uptime"`
	Backend   *BackendStatus `json:"backend,omitempty"`
	Websocket int            `json:"websocket_clients"`
}

type BackendStatus struct {
	Name    string     `json:"name"`
	Healthy bool       `json:"healthy"`
	Usage   *llm.Usage `json:"usage,omitempty"`
}

type ReadinessResponse struct {
	Ready     bool            `json:"ready"`
	Timestamp time.Time       `json:"timestamp"`
	Checks    map[string]bool `json:"checks"`
}

var startTime = time.Now()

// NewHealthHandler builds the handler. Any dependency may be nil and is then skipped.
func NewHealthHandler(db Pinger, cache ContextPinger, backend llm.Backend, hub ConnectionCounter, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{
		db:      db,
		cache:   cache,
		backend: backend,
		hub:     hub,
		logger:  logger,
	}
}

// GetHealth is a liveness probe with backend and connection details.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	resp := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Service:   "fight-edge",
		Uptime:    time.Since(startTime).Round(time.Second).String(),
	}

	if h.backend != nil {
		status := &BackendStatus{Name: h.backend.Name(), Healthy: true}
		if reporter, ok := h.backend.(llm.HealthReporter); ok {
			usage := reporter.Usage()
			status.Healthy = reporter.IsHealthy()
			status.Usage = &usage
		}
		resp.Backend = status
	}
	if h.hub != nil {
		resp.Websocket = h.hub.GetConnectionCount()
	}

	c.JSON(http.StatusOK, resp)
}

// GetReady fails when the database or redis cannot be reached, or the backend breaker is open.
func (h *HealthHandler) GetReady(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := make(map[string]bool)
	if h.db != nil {
		checks["database"] = h.check("database", h.db.Ping)
	}
	if h.cache != nil {
		checks["redis"] = h.check("redis", func() error { return h.cache.Ping(ctx) })
	}
	if reporter, ok := h.backend.(llm.HealthReporter); ok {
		checks["backend"] = reporter.IsHealthy()
	}

	ready := true
	for _, ok := range checks {
		ready = ready && ok
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, ReadinessResponse{
		Ready:     ready,
		Timestamp: time.Now().UTC(),
		Checks:    checks,
	})
}

func (h *HealthHandler) check(name string, ping func() error) bool {
	if err := ping(); err != nil {
		h.logger.WithError(err).WithField("check", name).Warn("Readiness check failed")
		return false
	}
	return true
}
