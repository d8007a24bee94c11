package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// CheckFunc probes one dependency. A nil error means ready.
type CheckFunc func(ctx context.Context) error

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	version   string
	buildTime string
	startTime time.Time
	checks    map[string]CheckFunc
}

// NewHealthHandler creates the handler.
func NewHealthHandler(version, buildTime string) *HealthHandler {
	return &HealthHandler{
		version:   version,
		buildTime: buildTime,
		startTime: time.Now(),
		checks:    make(map[string]CheckFunc),
	}
}

// AddCheck registers a readiness probe for a named dependency.
func (h *HealthHandler) AddCheck(name string, check CheckFunc) {
	h.checks[name] = check
}

// HealthResponse is the liveness body.
type HealthResponse struct {
	Status    string    `json:"status"`
	Version   string    `json:"version"`
	BuildTime string    `json:"build_time"`
	Uptime    string    `json:"uptime"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadinessResponse is the readiness body.
type ReadinessResponse struct {
	Ready     bool              `json:"ready"`
	Checks    map[string]string `json:"checks"`
	Timestamp time.Time         `json:"timestamp"`
}

// Health is the liveness probe: the process is up.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Version:   h.version,
		BuildTime: h.buildTime,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Timestamp: time.Now().UTC(),
	})
}

// Ready probes every registered dependency; 503 when any fails.
func (h *HealthHandler) Ready(c *gin.Context) {
	results := make(map[string]string, len(h.checks))
	allReady := true

	for name, check := range h.checks {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		err := check(ctx)
		cancel()

		if err != nil {
			results[name] = "unhealthy: " + err.Error()
			allReady = false
		} else {
			results[name] = "healthy"
		}
	}

	statusCode := http.StatusOK
	if !allReady {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, ReadinessResponse{
		Ready:     allReady,
		Checks:    results,
		Timestamp: time.Now().UTC(),
	})
}

// RegisterRoutes mounts the probes at the root.
func (h *HealthHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
}
