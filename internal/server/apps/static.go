package apps

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gantryhq/gantry/internal/config"
)

// StaticApp serves a fixed response body with configurable status and headers.
// When run as a catcher without an explicit status, it adopts the status of
// the error being handled.
type StaticApp struct {
	id     string
	config *config.StaticApp
}

// NewStaticApp creates a new StaticApp from its validated config
func NewStaticApp(id string, cfg *config.StaticApp) (*StaticApp, error) {
	if cfg == nil {
		return nil, ErrNilAppConfig
	}
	return &StaticApp{id: id, config: cfg}, nil
}

// String returns the unique identifier of the application
func (a *StaticApp) String() string {
	return a.id
}

// HandleHTTP writes the configured response
func (a *StaticApp) HandleHTTP(
	ctx context.Context,
	w http.ResponseWriter,
	r *http.Request,
	data *RequestData,
) error {
	for name, value := range a.config.Headers {
		w.Header().Set(name, value)
	}

	contentType := a.config.ContentType
	if contentType == "" {
		contentType = "text/plain; charset=utf-8"
	}
	w.Header().Set("Content-Type", contentType)

	status := a.config.Status
	if status == 0 && data != nil && data.Status != 0 {
		status = data.Status
	}
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)

	if _, err := w.Write([]byte(a.config.Body)); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}

	return nil
}
