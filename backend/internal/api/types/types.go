// Package types holds request and response bodies for the bridge API.
package types

// HealthResponse reports collaborator reachability.
type HealthResponse struct {
	Database bool `json:"database"`
	MQTT     bool `json:"mqtt"`
}

// DetectionStatusResponse reports the grain-quality sidecar state.
type DetectionStatusResponse struct {
	Running bool `json:"running"`
	Clients int  `json:"clients"`
}

// ActionResponse acknowledges a control action.
type ActionResponse struct {
	Message string `json:"message"`
}
