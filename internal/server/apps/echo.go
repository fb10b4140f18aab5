package apps

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// EchoApp is a simple application that echoes request information back as JSON.
type EchoApp struct {
	id string
}

// NewEchoApp creates a new EchoApp
func NewEchoApp(id string) *EchoApp {
	return &EchoApp{id: id}
}

// String returns the unique identifier of the application
func (a *EchoApp) String() string {
	return a.id
}

// HandleHTTP processes HTTP requests by echoing back request details
func (a *EchoApp) HandleHTTP(
	ctx context.Context,
	w http.ResponseWriter,
	r *http.Request,
	data *RequestData,
) error {
	response := map[string]any{
		"app_id":  a.id,
		"method":  r.Method,
		"path":    r.URL.Path,
		"query":   r.URL.Query(),
		"headers": headerToMap(r.Header),
	}

	if data != nil {
		response["route_id"] = data.RouteID
		if len(data.PathParams) > 0 {
			response["path_params"] = data.PathParams
		}
		if len(data.QueryParams) > 0 {
			response["query_params"] = data.QueryParams
		}
		if len(data.GuardValues) > 0 {
			response["guard_values"] = data.GuardValues
		}
		if len(data.StaticData) > 0 {
			response["static_data"] = data.StaticData
		}
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(response); err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}

	return nil
}

// headerToMap converts http.Header to a map for JSON serialization
func headerToMap(header http.Header) map[string][]string {
	result := make(map[string][]string, len(header))
	for name, values := range header {
		result[name] = values
	}
	return result
}
