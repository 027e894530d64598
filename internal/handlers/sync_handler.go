package handlers

import (
	"errors"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/syncer"
)

// SyncHandler exposes the sync trigger and status endpoints.
type SyncHandler struct {
	orchestrator *syncer.Orchestrator
	logger       ectologger.Logger
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(orchestrator *syncer.Orchestrator, logger ectologger.Logger) *SyncHandler {
	return &SyncHandler{
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// RegisterRoutes registers sync routes
func (h *SyncHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/sync/trigger", h.TriggerSync)
	g.GET("/sync/status", h.GetSyncStatus)
}

// TriggerSync starts a sync run in the background. The request returns as
// soon as the run is claimed; progress is observed through the status
// endpoint.
func (h *SyncHandler) TriggerSync(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.orchestrator.StartAsync(); err != nil {
		if errors.Is(err, syncer.ErrSyncAlreadyRunning) {
			h.logger.WithContext(ctx).Warn("sync trigger rejected, a sync is already in progress")
			return Conflict("a sync is already in progress")
		}
		return err
	}

	h.logger.WithContext(ctx).Info("sync started")
	return AcceptedResponse(c, models.SyncTriggerResponse{Message: "sync started"})
}

// GetSyncStatus returns a point-in-time snapshot of the sync state.
func (h *SyncHandler) GetSyncStatus(c echo.Context) error {
	return SuccessResponse(c, h.orchestrator.Status().Snapshot())
}
