// Package health provides health check endpoints for the fern service.
package health

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/pkg/database"
)

// Status represents the health status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

// CheckResult represents the result of a health check
type CheckResult struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// Response represents a health check response
type Response struct {
	Status     Status                 `json:"status"`
	Version    string                 `json:"version,omitempty"`
	Uptime     string                 `json:"uptime,omitempty"`
	Checks     map[string]CheckResult `json:"checks,omitempty"`
	ReportedAt time.Time              `json:"reported_at"`
}

// Checker provides health check functionality over the two database
// connections fern depends on.
type Checker struct {
	financialDB database.DB
	legacyDB    database.DB
	startTime   time.Time
	version     string
	mu          sync.RWMutex
	ready       bool
}

// NewChecker creates a new health checker
func NewChecker(financialDB database.DB, legacyDB database.DB, version string) *Checker {
	return &Checker{
		financialDB: financialDB,
		legacyDB:    legacyDB,
		startTime:   time.Now(),
		version:     version,
	}
}

// SetReady sets the readiness state
func (c *Checker) SetReady(ready bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ready = ready
}

// RegisterRoutes registers health check endpoints
func (c *Checker) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/v1/health", c.Health)
	e.GET("/api/v1/health/live", c.Live)
	e.GET("/api/v1/health/ready", c.Ready)
}

// Health returns the overall health status
func (c *Checker) Health(ctx echo.Context) error {
	response := &Response{
		Status:     StatusHealthy,
		Version:    c.version,
		Uptime:     time.Since(c.startTime).Round(time.Second).String(),
		Checks:     make(map[string]CheckResult),
		ReportedAt: time.Now(),
	}

	response.Checks["financial_database"] = c.checkDB(c.financialDB)
	response.Checks["legacy_database"] = c.checkDB(c.legacyDB)

	for _, check := range response.Checks {
		if check.Status == StatusUnhealthy {
			response.Status = StatusUnhealthy
		}
	}

	httpStatus := http.StatusOK
	if response.Status == StatusUnhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	return ctx.JSON(httpStatus, response)
}

func (c *Checker) checkDB(db database.DB) CheckResult {
	if db == nil {
		return CheckResult{
			Status:  StatusUnhealthy,
			Message: "database not configured",
		}
	}

	start := time.Now()
	err := db.Ping()
	latency := time.Since(start)

	if err != nil {
		return CheckResult{
			Status:  StatusUnhealthy,
			Message: err.Error(),
		}
	}

	return CheckResult{
		Status:  StatusHealthy,
		Latency: latency.String(),
	}
}

// Live returns the liveness status (is the service running)
func (c *Checker) Live(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "alive"})
}

// Ready returns the readiness status (is the service ready to accept traffic)
func (c *Checker) Ready(ctx echo.Context) error {
	c.mu.RLock()
	ready := c.ready
	c.mu.RUnlock()

	if ready {
		return ctx.JSON(http.StatusOK, map[string]string{"status": "ready"})
	}
	return ctx.JSON(http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
}
