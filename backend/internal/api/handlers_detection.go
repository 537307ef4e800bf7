package api

import (
	"errors"
	"net/http"

	apitypes "dispenser-bridge/backend/internal/api/types"
	"dispenser-bridge/backend/internal/detection"
	apicommon "dispenser-bridge/backend/internal/shared/api"
	sharedtypes "dispenser-bridge/backend/internal/shared/types"
	"dispenser-bridge/backend/pkg/router"
)

func (h *Handler) StartDetection(w http.ResponseWriter, r *http.Request) error {
	if err := h.svc.Detection.Start(); err != nil {
		if errors.Is(err, detection.ErrAlreadyRunning) {
			return apicommon.NewError(http.StatusConflict, "Detection is already running")
		}

		return err
	}

	apicommon.RespondJSON(w, r, http.StatusOK, apitypes.ActionResponse{Message: "Detection started"})

	return nil
}

func (h *Handler) RegisterStartDetection(path string, rb *router.RouteBuilder) {
	rb.MustPost(path, router.RouteSpec{
		OperationID: "startDetection",
		Summary:     "Start grain quality detection",
		Description: "Launches the grain quality analysis process and begins streaming frames to clients",
		Group:       DetectionGroup,
		RequestType: nil,
		Handler:     apicommon.ErrorHandler(h.StartDetection),
		Responses: apicommon.GenerateResponses(map[int]router.ResponseSpec{
			200: {
				Description: "Detection started",
				Type:        apitypes.ActionResponse{},
				Examples: map[string]any{
					"Success": apitypes.ActionResponse{Message: "Detection started"},
				},
			},
			409: {
				Description: "Detection already running",
				Type:        sharedtypes.ErrorResponse{},
			},
		}),
	})
}

func (h *Handler) StopDetection(w http.ResponseWriter, r *http.Request) error {
	if err := h.svc.Detection.Stop(); err != nil {
		if errors.Is(err, detection.ErrNotRunning) {
			return apicommon.NewError(http.StatusBadRequest, "Detection is not running")
		}

		return err
	}

	apicommon.RespondJSON(w, r, http.StatusOK, apitypes.ActionResponse{Message: "Detection stopped"})

	return nil
}

func (h *Handler) RegisterStopDetection(path string, rb *router.RouteBuilder) {
	rb.MustPost(path, router.RouteSpec{
		OperationID: "stopDetection",
		Summary:     "Stop grain quality detection",
		Description: "Terminates the grain quality analysis process",
		Group:       DetectionGroup,
		RequestType: nil,
		Handler:     apicommon.ErrorHandler(h.StopDetection),
		Responses: apicommon.GenerateResponses(map[int]router.ResponseSpec{
			200: {
				Description: "Detection stopped",
				Type:        apitypes.ActionResponse{},
				Examples: map[string]any{
					"Success": apitypes.ActionResponse{Message: "Detection stopped"},
				},
			},
			400: {
				Description: "Detection not running",
				Type:        sharedtypes.ErrorResponse{},
			},
		}),
	})
}

func (h *Handler) RecalibrateDetection(w http.ResponseWriter, r *http.Request) error {
	if err := h.svc.Detection.Recalibrate(); err != nil {
		if errors.Is(err, detection.ErrNotRunning) {
			return apicommon.NewError(http.StatusBadRequest, "Detection is not running")
		}

		return err
	}

	apicommon.RespondJSON(w, r, http.StatusOK, apitypes.ActionResponse{Message: "Recalibration requested"})

	return nil
}

func (h *Handler) RegisterRecalibrateDetection(path string, rb *router.RouteBuilder) {
	rb.MustPost(path, router.RouteSpec{
		OperationID: "recalibrateDetection",
		Summary:     "Recalibrate detection background",
		Description: "Asks the running analysis process to resample its background reference",
		Group:       DetectionGroup,
		RequestType: nil,
		Handler:     apicommon.ErrorHandler(h.RecalibrateDetection),
		Responses: apicommon.GenerateResponses(map[int]router.ResponseSpec{
			200: {
				Description: "Recalibration requested",
				Type:        apitypes.ActionResponse{},
				Examples: map[string]any{
					"Success": apitypes.ActionResponse{Message: "Recalibration requested"},
				},
			},
			400: {
				Description: "Detection not running",
				Type:        sharedtypes.ErrorResponse{},
			},
		}),
	})
}

func (h *Handler) DetectionStatus(w http.ResponseWriter, r *http.Request) error {
	status := h.svc.Detection.Status()
	apicommon.RespondJSON(w, r, http.StatusOK, apitypes.DetectionStatusResponse{
		Running: status.Running,
		Clients: status.Clients,
	})

	return nil
}

func (h *Handler) RegisterDetectionStatus(path string, rb *router.RouteBuilder) {
	rb.MustGet(path, router.RouteSpec{
		OperationID: "detectionStatus",
		Summary:     "Get detection status",
		Description: "Reports whether the analysis process is running and how many clients are connected",
		Group:       DetectionGroup,
		RequestType: nil,
		Handler:     apicommon.ErrorHandler(h.DetectionStatus),
		Responses: apicommon.GenerateResponses(map[int]router.ResponseSpec{
			200: {
				Description: "Current detection status",
				Type:        apitypes.DetectionStatusResponse{},
				Examples: map[string]any{
					"Running": apitypes.DetectionStatusResponse{Running: true, Clients: 2},
					"Idle":    apitypes.DetectionStatusResponse{Running: false, Clients: 0},
				},
			},
		}),
	})
}
