package routing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gantryhq/gantry/internal/config"
	"github.com/gantryhq/gantry/internal/server/apps"
)

// ConfigCallback returns the current domain configuration for the registry
// to (re)build its dispatch state from.
type ConfigCallback func() (*config.Config, error)

// engineState bundles everything a dispatch needs, swapped atomically as a
// unit so a request never sees a half-reloaded view.
type engineState struct {
	tables      Tables
	catchers    *CatcherTable
	dispatchers map[string]*Dispatcher
}

// Registry owns the compiled dispatch state for all listeners. It implements
// supervisor.Runnable and supervisor.Reloadable: Run builds the initial
// state, Reload rebuilds it from the callback's latest config.
type Registry struct {
	configCallback ConfigCallback
	logger         *slog.Logger
	promRegistry   *prometheus.Registry
	metrics        *Metrics
	state          atomic.Pointer[engineState]
	mu             sync.Mutex
	initialized    atomic.Bool
}

// NewRegistry creates a route registry. Dispatch state is not built until
// Run; requests before then fail with ErrNotInitialized.
func NewRegistry(
	configCallback ConfigCallback,
	logger *slog.Logger,
	promRegistry *prometheus.Registry,
) *Registry {
	if logger == nil {
		logger = slog.Default().WithGroup("routing.Registry")
	}

	var registerer prometheus.Registerer
	if promRegistry != nil {
		registerer = promRegistry
	}

	return &Registry{
		configCallback: configCallback,
		logger:         logger,
		promRegistry:   promRegistry,
		metrics:        NewMetrics(registerer),
	}
}

// Run implements the supervisor.Runnable interface. It builds the initial
// dispatch state, then blocks until the context is canceled.
func (r *Registry) Run(ctx context.Context) error {
	r.logger.Info("Starting route registry")

	if err := r.reload(); err != nil {
		return fmt.Errorf("failed to build initial dispatch state: %w", err)
	}

	<-ctx.Done()
	r.logger.Info("Stopping route registry")
	return nil
}

// Stop implements the supervisor.Runnable interface. Shutdown is driven by
// the Run context.
func (r *Registry) Stop() {}

// Reload implements the supervisor.Reloadable interface.
func (r *Registry) Reload() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.Info("Reloading route registry")
	if err := r.reload(); err != nil {
		// keep serving the previous state
		r.logger.Error("Reload failed, keeping current dispatch state", "error", err)
	}
}

// reload builds a fresh engine state from the latest config and swaps it in.
func (r *Registry) reload() error {
	cfg, err := r.configCallback()
	if err != nil {
		return fmt.Errorf("failed to get configuration: %w", err)
	}
	if cfg == nil {
		return errors.New("config callback returned nil")
	}

	state, err := r.buildState(cfg)
	if err != nil {
		return err
	}

	r.state.Store(state)
	r.initialized.Store(true)

	r.logger.Info("Route registry updated",
		"listeners", len(state.tables),
		"catchers", state.catchers.Len())
	return nil
}

// buildState compiles apps, route tables, catchers, and dispatchers from a
// validated config.
func (r *Registry) buildState(cfg *config.Config) (*engineState, error) {
	instances, err := apps.CreateApps(cfg.Apps, apps.FactoryOptions{
		Logger:   r.logger,
		Registry: r.promRegistry,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create apps: %w", err)
	}

	tables, err := BuildTables(cfg, instances, r.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build route tables: %w", err)
	}

	catchers, err := BuildCatcherTable(cfg.Catchers, instances)
	if err != nil {
		return nil, fmt.Errorf("failed to build catcher table: %w", err)
	}

	dispatchers := make(map[string]*Dispatcher, len(tables))
	for listenerID, table := range tables {
		dispatchers[listenerID] = NewDispatcher(table, catchers, r.logger, r.metrics)
	}

	return &engineState{
		tables:      tables,
		catchers:    catchers,
		dispatchers: dispatchers,
	}, nil
}

// HandlerFor returns a stable http.Handler for the given listener. The
// handler follows reloads: each request dispatches against the state current
// at that moment.
func (r *Registry) HandlerFor(listenerID string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if !r.initialized.Load() {
			http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
			return
		}

		state := r.state.Load()
		dispatcher, ok := state.dispatchers[listenerID]
		if !ok {
			r.logger.Error("Request for unknown listener", "listener", listenerID)
			http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
			return
		}

		dispatcher.ServeHTTP(w, req)
	})
}

// IsInitialized returns whether the registry has built dispatch state.
func (r *Registry) IsInitialized() bool {
	return r.initialized.Load()
}

// GetTable returns the current route table for a listener, or nil. This is
// primarily intended for testing.
func (r *Registry) GetTable(listenerID string) *Table {
	state := r.state.Load()
	if state == nil {
		return nil
	}
	return state.tables[listenerID]
}

// String returns the name of this component.
func (r *Registry) String() string {
	return "routing.Registry"
}
