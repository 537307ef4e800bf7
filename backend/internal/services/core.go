package services

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"dispenser-bridge/backend/pkg/mqtt"
	"dispenser-bridge/backend/pkg/utils"
)

const healthCheckTimeout = 2 * time.Second

// CoreService provides health and liveness information.
type CoreService struct {
	l       *slog.Logger
	db      *sql.DB
	builder *mqtt.MQTTBuilder
}

// HealthStatus reports the reachability of the bridge's collaborators.
type HealthStatus struct {
	Database bool
	MQTT     bool
}

// NewCoreService creates a new core service.
func NewCoreService(l *slog.Logger, db *sql.DB, builder *mqtt.MQTTBuilder) *CoreService {
	return &CoreService{
		l:       l.With(slog.String("service", "core")),
		db:      db,
		builder: builder,
	}
}

// Health pings the database and checks the broker connection.
func (s *CoreService) Health(ctx context.Context) HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	status := HealthStatus{MQTT: s.builder.Connected()}

	if err := s.db.PingContext(ctx); err != nil {
		s.l.Warn("database health check failed", utils.ErrAttr(err))
	} else {
		status.Database = true
	}

	return status
}
