package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/pricing_api/internal/utils"
)

var startTime = time.Now()

// Pinger is a dependency that can report its connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

type healthCheck struct {
	name     string
	pinger   Pinger
	required bool
}

// HealthHandler provides the readiness endpoint.
type HealthHandler struct {
	checks  []healthCheck
	timeout time.Duration
}

// NewHealthHandler creates a new HealthHandler with no checks.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{timeout: 2 * time.Second}
}

// AddCheck registers a dependency. A failing required dependency makes the
// service unhealthy; an optional one only degrades it.
func (h *HealthHandler) AddCheck(name string, p Pinger, required bool) *HealthHandler {
	h.checks = append(h.checks, healthCheck{name: name, pinger: p, required: required})
	return h
}

// GetHealth responds with the service status and each dependency's status.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	status := "healthy"
	deps := gin.H{}
	for _, chk := range h.checks {
		if err := chk.pinger.Ping(ctx); err != nil {
			deps[chk.name] = gin.H{"status": "disconnected", "error": err.Error()}
			if chk.required {
				status = "unhealthy"
			} else if status == "healthy" {
				status = "degraded"
			}
			continue
		}
		deps[chk.name] = gin.H{"status": "connected"}
	}

	data := gin.H{
		"status":       status,
		"version":      "1.0.0",
		"uptime":       int(time.Since(startTime).Seconds()),
		"dependencies": deps,
	}
	if status == "unhealthy" {
		utils.ErrorWithData(c, http.StatusServiceUnavailable, "UNHEALTHY", "Service is unhealthy", data)
		return
	}
	utils.Success(c, http.StatusOK, "Service is "+status, data)
}
