package router

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"dispenser-bridge/backend/pkg/utils"
)

// ParameterIn describes where a request parameter lives.
type ParameterIn string

const (
	ParameterInPath   ParameterIn = "path"
	ParameterInQuery  ParameterIn = "query"
	ParameterInHeader ParameterIn = "header"
)

// ParameterSpec documents a single request parameter.
type ParameterSpec struct {
	In          ParameterIn // In is where the parameter is located.
	Description string      // Description explains what this parameter represents.
	Type        any         // Type is the Go type of the parameter (e.g., new(string)).
	Required    bool        // Required indicates whether the parameter must be present.
}

// ResponseSpec documents a single response for a route.
type ResponseSpec struct {
	Description string         // Description explains when this response is returned.
	Type        any            // Type is the Go type of the response body.
	Examples    map[string]any // Examples contains named example bodies.
}

// RouteSpec describes a single HTTP operation.
type RouteSpec struct {
	OperationID string                   // OperationID is a unique identifier for this operation (e.g., "startDetection").
	Summary     string                   // Summary is a short description of the operation.
	Description string                   // Description provides detailed information about the operation.
	Group       string                   // Group is a logical grouping for the operation (e.g., "Core", "Detection").
	RequestType any                      // RequestType is the Go type of the request body, nil if none.
	Parameters  map[string]ParameterSpec // Parameters documents path/query/header parameters.
	Handler     http.HandlerFunc         // Handler serves the request.
	Responses   map[int]ResponseSpec     // Responses documents the possible responses by status code.

	method   string
	fullPath string
}

// RouteBuilder registers validated routes on a chi router.
type RouteBuilder struct {
	l            *slog.Logger
	mux          chi.Router
	prefix       string
	operationIDs map[string]struct{}
}

// NewRouteBuilder creates a route builder backed by a fresh chi router.
func NewRouteBuilder(l *slog.Logger) *RouteBuilder {
	return &RouteBuilder{
		l:            l.With(slog.String("component", "router")),
		mux:          chi.NewRouter(),
		operationIDs: make(map[string]struct{}),
	}
}

// Router returns the underlying chi router.
//
//nolint:ireturn // chi.Router is the natural type here
func (rb *RouteBuilder) Router() chi.Router {
	return rb.mux
}

// Use appends middleware to the router chain. Must be called before any route
// is registered.
func (rb *RouteBuilder) Use(middlewares ...func(http.Handler) http.Handler) {
	rb.mux.Use(middlewares...)
}

// Route mounts a sub-router under pattern. Operation IDs stay unique across
// the whole tree.
func (rb *RouteBuilder) Route(pattern string, fn func(sub *RouteBuilder)) {
	rb.mux.Route(pattern, func(r chi.Router) {
		fn(&RouteBuilder{
			l:            rb.l,
			mux:          r,
			prefix:       rb.prefix + pattern,
			operationIDs: rb.operationIDs,
		})
	})
}

// Get registers a GET route.
func (rb *RouteBuilder) Get(path string, spec RouteSpec) error {
	return rb.register(http.MethodGet, path, spec)
}

// MustGet registers a GET route and terminates the program if an error occurs.
func (rb *RouteBuilder) MustGet(path string, spec RouteSpec) {
	rb.mustRegister(http.MethodGet, path, spec)
}

// Post registers a POST route.
func (rb *RouteBuilder) Post(path string, spec RouteSpec) error {
	return rb.register(http.MethodPost, path, spec)
}

// MustPost registers a POST route and terminates the program if an error occurs.
func (rb *RouteBuilder) MustPost(path string, spec RouteSpec) {
	rb.mustRegister(http.MethodPost, path, spec)
}

// Put registers a PUT route.
func (rb *RouteBuilder) Put(path string, spec RouteSpec) error {
	return rb.register(http.MethodPut, path, spec)
}

// MustPut registers a PUT route and terminates the program if an error occurs.
func (rb *RouteBuilder) MustPut(path string, spec RouteSpec) {
	rb.mustRegister(http.MethodPut, path, spec)
}

// Delete registers a DELETE route.
func (rb *RouteBuilder) Delete(path string, spec RouteSpec) error {
	return rb.register(http.MethodDelete, path, spec)
}

// MustDelete registers a DELETE route and terminates the program if an error occurs.
func (rb *RouteBuilder) MustDelete(path string, spec RouteSpec) {
	rb.mustRegister(http.MethodDelete, path, spec)
}

func (rb *RouteBuilder) mustRegister(method, path string, spec RouteSpec) {
	if err := rb.register(method, path, spec); err != nil {
		rb.l.Error("Failed to register route",
			slog.String("method", method),
			slog.String("path", rb.prefix+path),
			slog.String("operationID", spec.OperationID),
			utils.ErrAttr(err))
		os.Exit(1)
	}
}

func (rb *RouteBuilder) register(method, path string, spec RouteSpec) error {
	spec.method = method
	spec.fullPath = rb.prefix + path

	if err := validateRouteSpec(spec); err != nil {
		return fmt.Errorf("invalid route spec for %s %s: %w", method, spec.fullPath, err)
	}

	if _, exists := rb.operationIDs[spec.OperationID]; exists {
		return fmt.Errorf("duplicate operationID: %s", spec.OperationID)
	}

	if err := validateParameters(spec); err != nil {
		return fmt.Errorf("invalid parameters for %s %s: %w", method, spec.fullPath, err)
	}

	rb.operationIDs[spec.OperationID] = struct{}{}
	rb.mux.Method(method, path, spec.Handler)

	rb.l.Info("Registered route",
		slog.String("method", method),
		slog.String("path", spec.fullPath),
		slog.String("operationID", spec.OperationID),
		slog.String("group", spec.Group))

	return nil
}
