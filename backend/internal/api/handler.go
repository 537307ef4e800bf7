// Package api exposes the HTTP control surface: health endpoints, the
// grain-quality sidecar controls and the websocket upgrade.
package api

import (
	"log/slog"

	"dispenser-bridge/backend/internal/services"
)

const (
	CoreGroup      = "Core"
	DetectionGroup = "GrainQuality"
	RealtimeGroup  = "Realtime"
)

// Handler represents the bridge API handler.
type Handler struct {
	l   *slog.Logger
	svc *services.Services
}

// NewHandler creates a new API handler.
func NewHandler(l *slog.Logger, svc *services.Services) *Handler {
	return &Handler{
		l:   l.With(slog.String("component", "api")),
		svc: svc,
	}
}
