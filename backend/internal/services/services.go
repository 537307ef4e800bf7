// Package services holds the service layer between the HTTP handlers and the
// rest of the system.
package services

import (
	"database/sql"
	"log/slog"

	"dispenser-bridge/backend/internal/detection"
	"dispenser-bridge/backend/internal/hub"
	"dispenser-bridge/backend/pkg/mqtt"
)

// Services holds all service instances.
type Services struct {
	l         *slog.Logger
	Core      *CoreService
	Detection *DetectionService
}

// NewServices creates the service layer.
func NewServices(
	l *slog.Logger,
	db *sql.DB,
	builder *mqtt.MQTTBuilder,
	detector *detection.Detector,
	h *hub.Hub,
) *Services {
	l = l.With(slog.String("module", "services"))

	return &Services{
		l:         l,
		Core:      NewCoreService(l, db, builder),
		Detection: NewDetectionService(l, detector, h),
	}
}
