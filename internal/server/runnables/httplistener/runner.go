package httplistener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/robbyt/go-supervisor/runnables/composite"
	"github.com/robbyt/go-supervisor/runnables/httpserver"
	"github.com/robbyt/go-supervisor/supervisor"

	"github.com/gantryhq/gantry/internal/config"
	"github.com/gantryhq/gantry/internal/server/middleware"
)

var (
	_ supervisor.Runnable   = (*Runner)(nil)
	_ supervisor.Reloadable = (*Runner)(nil)
)

// ConfigCallback returns the current domain configuration.
type ConfigCallback func() (*config.Config, error)

// HandlerSource provides the dispatch handler for each listener. The routing
// registry implements this.
type HandlerSource interface {
	HandlerFor(listenerID string) http.Handler
}

// Option configures a Runner
type Option func(*Runner)

// WithLogger sets the logger for the Runner
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Runner manages one HTTP server per configured listener through a composite
// runnable. Reloads rebuild the child set from the latest config; servers
// whose listener vanished stop, new listeners start.
type Runner struct {
	logger         *slog.Logger
	configCallback ConfigCallback
	handlers       HandlerSource
	runner         *composite.Runner[*Server]
	mutex          sync.Mutex
}

// NewRunner creates the HTTP listeners manager.
func NewRunner(callback ConfigCallback, handlers HandlerSource, opts ...Option) (*Runner, error) {
	if callback == nil {
		return nil, errors.New("config callback is required")
	}
	if handlers == nil {
		return nil, errors.New("handler source is required")
	}

	manager := &Runner{
		logger:         slog.Default().WithGroup("httplistener.Runner"),
		configCallback: callback,
		handlers:       handlers,
	}

	for _, opt := range opts {
		opt(manager)
	}

	runnerConfigCallback := func() (*composite.Config[*Server], error) {
		return manager.getRunnerConfig()
	}

	runner, err := composite.NewRunner[*Server](runnerConfigCallback)
	if err != nil {
		return nil, fmt.Errorf("failed to create composite runner: %w", err)
	}
	manager.runner = runner

	return manager, nil
}

// String returns a unique identifier for the manager
func (r *Runner) String() string {
	return "httplistener.Runner"
}

// Run starts all configured listeners
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Debug("Starting HTTP listener manager")
	return r.runner.Run(ctx)
}

// Reload rebuilds the listener set from the latest configuration
func (r *Runner) Reload() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.logger.Debug("Reloading HTTP listener manager")
	r.runner.Reload()
}

// Stop terminates all listeners
func (r *Runner) Stop() {
	r.logger.Info("Stopping HTTP listener manager")
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.runner != nil {
		r.runner.Stop()
	}
}

// GetListenerStates returns the states of all managed listeners
func (r *Runner) GetListenerStates() map[string]string {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.runner == nil {
		return make(map[string]string)
	}
	return r.runner.GetChildStates()
}

// getRunnerConfig builds the composite config from the current domain config.
func (r *Runner) getRunnerConfig() (*composite.Config[*Server], error) {
	cfg, err := r.configCallback()
	if err != nil {
		return nil, fmt.Errorf("failed to get configuration: %w", err)
	}
	return r.buildCompositeConfig(cfg)
}

func (r *Runner) buildCompositeConfig(cfg *config.Config) (*composite.Config[*Server], error) {
	if cfg == nil {
		r.logger.Warn("Received nil configuration")
		return composite.NewConfig[*Server]("http-listeners", nil)
	}

	r.logger.Debug("Building HTTP listener configuration", "listeners", len(cfg.Listeners))

	entries := make([]composite.RunnableEntry[*Server], 0, len(cfg.Listeners))
	for i := range cfg.Listeners {
		listener := cfg.Listeners[i]

		// every request on the listener flows through the dispatch handler
		handler := r.handlers.HandlerFor(listener.ID)
		route, err := httpserver.NewRouteFromHandlerFunc(
			listener.ID,
			"/",
			handler.ServeHTTP,
			middleware.AccessLogger(r.logger.With("listener", listener.ID)),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create route for listener %s: %w", listener.ID, err)
		}

		server, err := NewServer(
			&listener,
			[]httpserver.Route{*route},
			WithServerLogger(r.logger.With("listener", listener.ID)),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create server for listener %s: %w", listener.ID, err)
		}

		entries = append(entries, composite.RunnableEntry[*Server]{
			Runnable: server,
			Config:   nil,
		})
	}

	return composite.NewConfig("http-listeners", entries)
}
