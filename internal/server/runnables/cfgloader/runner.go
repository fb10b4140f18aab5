// Package cfgloader loads the TOML configuration from disk, revalidates it on
// reload, and hands the current config to the rest of the server.
package cfgloader

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/robbyt/go-supervisor/supervisor"

	"github.com/gantryhq/gantry/internal/config"
	"github.com/gantryhq/gantry/internal/server/finitestate"
)

var (
	_ supervisor.Runnable   = (*Runner)(nil)
	_ supervisor.Reloadable = (*Runner)(nil)
	_ supervisor.Stateable  = (*Runner)(nil)
)

type Runner struct {
	filePath  string
	lastValid atomic.Pointer[config.Config]

	logger *slog.Logger
	fsm    finitestate.Machine

	runCtx    context.Context
	runCancel context.CancelFunc
	parentCtx context.Context
}

// NewRunner creates a new Runner that loads config files from disk
func NewRunner(filePath string, opts ...Option) (*Runner, error) {
	runner := &Runner{
		filePath:  filePath,
		logger:    slog.Default().WithGroup("cfgloader.Runner"),
		parentCtx: context.Background(),
	}

	for _, opt := range opts {
		opt(runner)
	}

	fsm, err := finitestate.New(runner.logger.WithGroup("fsm").Handler())
	if err != nil {
		return nil, fmt.Errorf("failed to create state machine: %w", err)
	}
	runner.fsm = fsm

	return runner, nil
}

// String implements the supervisor.Runnable interface
func (r *Runner) String() string {
	return "cfgloader.Runner"
}

// Run implements the supervisor.Runnable interface
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Debug("Starting Runner")

	if err := r.fsm.Transition(finitestate.StatusBooting); err != nil {
		return fmt.Errorf("failed to transition to booting state: %w", err)
	}

	r.runCtx, r.runCancel = context.WithCancel(ctx)

	if err := r.boot(); err != nil {
		if stateErr := r.fsm.Transition(finitestate.StatusError); stateErr != nil {
			r.logger.Error("Failed to transition to error state", "error", stateErr)
		}
		return fmt.Errorf("failed to load initial configuration: %w", err)
	}

	if err := r.fsm.Transition(finitestate.StatusRunning); err != nil {
		return fmt.Errorf("failed to transition to running state: %w", err)
	}

	select {
	case <-r.parentCtx.Done():
		r.logger.Debug("Parent context canceled")
	case <-r.runCtx.Done():
		r.logger.Debug("Run context canceled")
	}

	r.logger.Info("Runner shutting down")

	if r.fsm.GetState() != finitestate.StatusStopping {
		if err := r.fsm.Transition(finitestate.StatusStopping); err != nil {
			r.logger.Error("Failed to transition to stopping state", "error", err)
		}
	}

	if err := r.fsm.Transition(finitestate.StatusStopped); err != nil {
		return fmt.Errorf("failed to transition to stopped state: %w", err)
	}

	return nil
}

// boot loads and validates the initial configuration from disk
func (r *Runner) boot() error {
	cfg, err := r.loadAndValidate()
	if err != nil {
		return err
	}

	r.lastValid.Store(cfg)
	return nil
}

// loadAndValidate reads the file, decodes it, and runs full validation.
func (r *Runner) loadAndValidate() (*config.Config, error) {
	cfg, err := config.NewConfig(r.filePath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Stop implements the supervisor.Runnable interface
func (r *Runner) Stop() {
	r.logger.Debug("Stopping Runner")
	if err := r.fsm.Transition(finitestate.StatusStopping); err != nil {
		r.logger.Error("Failed to transition to stopping state", "error", err)
	}
	if r.runCancel != nil {
		r.runCancel()
	}
}

// Reload implements the supervisor.Reloadable interface. A config that fails
// to load or validate leaves the last valid config in place.
func (r *Runner) Reload() {
	r.logger.Debug("Starting Reload...")

	newCfg, err := r.loadAndValidate()
	if err != nil {
		r.logger.Error("Failed to reload config, keeping current", "error", err)
		return
	}

	if old := r.lastValid.Load(); old != nil && old.Equals(newCfg) {
		r.logger.Debug("Config unchanged")
		return
	}

	r.lastValid.Store(newCfg)
	r.logger.Info("Config reloaded", "path", r.filePath)
}

// GetConfig returns the last config successfully loaded and validated, or an
// error when none has been loaded yet. Matches the ConfigCallback shape used
// by the routing registry and listener manager.
func (r *Runner) GetConfig() (*config.Config, error) {
	cfg := r.lastValid.Load()
	if cfg == nil {
		return nil, fmt.Errorf("no configuration loaded")
	}
	return cfg, nil
}
