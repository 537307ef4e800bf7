package api

import (
	"net/http"

	apitypes "dispenser-bridge/backend/internal/api/types"
	apicommon "dispenser-bridge/backend/internal/shared/api"
	sharedtypes "dispenser-bridge/backend/internal/shared/types"
	"dispenser-bridge/backend/pkg/router"
)

func (h *Handler) Ping(w http.ResponseWriter, r *http.Request) error {
	apicommon.RespondJSON(w, r, http.StatusOK, sharedtypes.PingResponse{
		Message: "Pong", Status: sharedtypes.PingStatusOK,
	})

	return nil
}

func (h *Handler) RegisterPing(path string, rb *router.RouteBuilder) {
	rb.MustGet(path, router.RouteSpec{
		OperationID: "ping",
		Summary:     "Ping the server",
		Description: "Check if the server is alive",
		Group:       CoreGroup,
		RequestType: nil,
		Handler:     apicommon.ErrorHandler(h.Ping),
		Responses: apicommon.GenerateResponses(map[int]router.ResponseSpec{
			200: {
				Description: "Successful ping response",
				Type:        sharedtypes.PingResponse{},
				Examples: map[string]any{
					"Success": sharedtypes.PingResponse{Message: "Pong", Status: sharedtypes.PingStatusOK},
				},
			},
		}),
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) error {
	status := h.svc.Core.Health(r.Context())
	resp := apitypes.HealthResponse{
		Database: status.Database,
		MQTT:     status.MQTT,
	}

	code := http.StatusOK
	if !status.Database || !status.MQTT {
		code = http.StatusServiceUnavailable
	}

	apicommon.RespondJSON(w, r, code, resp)

	return nil
}

func (h *Handler) RegisterHealth(path string, rb *router.RouteBuilder) {
	rb.MustGet(path, router.RouteSpec{
		OperationID: "health",
		Summary:     "Check server health",
		Description: "Check if the database and MQTT broker are reachable",
		Group:       CoreGroup,
		RequestType: nil,
		Handler:     apicommon.ErrorHandler(h.Health),
		Responses: apicommon.GenerateResponses(map[int]router.ResponseSpec{
			200: {
				Description: "Successful health response",
				Type:        apitypes.HealthResponse{},
				Examples: map[string]any{
					"Success": apitypes.HealthResponse{Database: true, MQTT: true},
				},
			},
			503: {
				Description: "Server unavailable",
				Type:        apitypes.HealthResponse{},
				Examples: map[string]any{
					"Database Unavailable": apitypes.HealthResponse{Database: false, MQTT: true},
					"MQTT Unavailable":     apitypes.HealthResponse{Database: true, MQTT: false},
				},
			},
		}),
	})
}
