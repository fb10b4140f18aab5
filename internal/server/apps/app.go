// Package apps provides interfaces and implementations of application handlers.
package apps

import (
	"context"
	"net/http"
)

// RequestData carries per-request information gathered by the routing layer
// before an app runs: the matched route, extracted parameters, values produced
// by guards, and merged static data.
type RequestData struct {
	// RouteID is the identifier of the matched route, or empty when the app
	// runs as a catcher.
	RouteID string

	// PathParams maps dynamic segment names to their raw string values.
	PathParams map[string]string

	// TypedParams holds converted parameter values for constrained segments
	// (int64 for {name:int}, uuid.UUID for {name:uuid}).
	TypedParams map[string]any

	// QueryParams maps query parameter names captured by the route's query
	// requirements.
	QueryParams map[string]string

	// GuardValues maps guard IDs to the values those guards extracted.
	GuardValues map[string]any

	// StaticData is the route's static data merged over the app's static data.
	StaticData map[string]any

	// Status is the error status being handled when the app runs as a
	// catcher, zero otherwise.
	Status int

	// Error is a short description of the failure when the app runs as a
	// catcher.
	Error string
}

// App defines the interface that all applications must implement.
type App interface {
	// String returns the unique identifier of the application
	String() string

	// HandleHTTP processes HTTP requests for this application
	HandleHTTP(
		ctx context.Context,
		w http.ResponseWriter,
		r *http.Request,
		data *RequestData,
	) error
}
