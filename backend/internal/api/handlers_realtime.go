package api

import (
	"net/http"

	apicommon "dispenser-bridge/backend/internal/shared/api"
	"dispenser-bridge/backend/pkg/router"
)

// RegisterWebsocket registers the realtime upgrade endpoint. serveWS is the
// hub's upgrade handler.
func (h *Handler) RegisterWebsocket(path string, rb *router.RouteBuilder, serveWS http.HandlerFunc) {
	rb.MustGet(path, router.RouteSpec{
		OperationID: "websocket",
		Summary:     "Realtime event stream",
		Description: "Upgrades the connection to a websocket carrying sensor events and client commands",
		Group:       RealtimeGroup,
		RequestType: nil,
		Handler:     serveWS,
		Responses: apicommon.GenerateResponses(map[int]router.ResponseSpec{
			101: {
				Description: "Connection upgraded to websocket",
			},
		}),
	})
}
