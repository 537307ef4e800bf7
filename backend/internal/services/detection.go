package services

import (
	"log/slog"

	"dispenser-bridge/backend/internal/detection"
	"dispenser-bridge/backend/internal/hub"
)

// DetectionService controls the grain-quality sidecar.
type DetectionService struct {
	l        *slog.Logger
	detector *detection.Detector
	hub      *hub.Hub
}

// DetectionStatus is the sidecar's current state.
type DetectionStatus struct {
	Running bool
	Clients int
}

// NewDetectionService creates a new detection service.
func NewDetectionService(l *slog.Logger, detector *detection.Detector, h *hub.Hub) *DetectionService {
	return &DetectionService{
		l:        l.With(slog.String("component", "detection-service")),
		detector: detector,
		hub:      h,
	}
}

// Start launches the sidecar.
func (s *DetectionService) Start() error {
	return s.detector.Start()
}

// Stop terminates the sidecar.
func (s *DetectionService) Stop() error {
	return s.detector.Stop()
}

// Recalibrate asks the running sidecar to resample its background.
func (s *DetectionService) Recalibrate() error {
	return s.detector.Recalibrate()
}

// Status reports the sidecar state and connected client count.
func (s *DetectionService) Status() DetectionStatus {
	return DetectionStatus{
		Running: s.detector.Running(),
		Clients: s.hub.ClientCount(),
	}
}
