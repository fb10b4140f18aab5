// Package httplistener manages the HTTP listeners as a composite runnable,
// one go-supervisor httpserver per configured listener.
package httplistener

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robbyt/go-supervisor/runnables/httpserver"
	"github.com/robbyt/go-supervisor/supervisor"

	"github.com/gantryhq/gantry/internal/config"
)

var (
	_ supervisor.Runnable   = (*Server)(nil)
	_ supervisor.Reloadable = (*Server)(nil)
)

// ServerOption configures a Server
type ServerOption func(*Server)

// WithServerLogger sets the logger for the Server
func WithServerLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Server wraps the go-supervisor httpserver.Runner for one configured
// listener, carrying its bind address, timeouts, and dispatch route.
type Server struct {
	id      string
	address string
	runner  *httpserver.Runner
	logger  *slog.Logger
	routes  []httpserver.Route

	readTimeout  time.Duration
	writeTimeout time.Duration
	idleTimeout  time.Duration
	drainTimeout time.Duration

	mutex sync.Mutex
}

// NewServer creates a listener server from its config and routes.
func NewServer(
	listener *config.Listener,
	routes []httpserver.Route,
	opts ...ServerOption,
) (*Server, error) {
	if listener == nil {
		return nil, fmt.Errorf("listener config cannot be nil")
	}
	if listener.ID == "" {
		return nil, fmt.Errorf("listener ID cannot be empty")
	}
	if listener.Address == "" {
		return nil, fmt.Errorf("listener address cannot be empty")
	}
	if len(routes) == 0 {
		return nil, fmt.Errorf("listener %s has no routes", listener.ID)
	}

	server := &Server{
		id:           listener.ID,
		address:      listener.Address,
		logger:       slog.Default().WithGroup("httplistener.Server").With("id", listener.ID),
		routes:       routes,
		readTimeout:  listener.ReadTimeout.AsDuration(),
		writeTimeout: listener.WriteTimeout.AsDuration(),
		idleTimeout:  listener.IdleTimeout.AsDuration(),
		drainTimeout: listener.DrainTimeout.AsDuration(),
	}

	for _, opt := range opts {
		opt(server)
	}

	if err := server.initializeRunner(); err != nil {
		return nil, err
	}

	return server, nil
}

// initializeRunner creates the underlying httpserver.Runner
func (s *Server) initializeRunner() error {
	configCallback := func() (*httpserver.Config, error) {
		s.mutex.Lock()
		defer s.mutex.Unlock()

		cfg, err := httpserver.NewConfig(s.address, s.routes, s.buildConfigOptions()...)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP server config: %w", err)
		}
		return cfg, nil
	}

	runner, err := httpserver.NewRunner(httpserver.WithConfigCallback(configCallback))
	if err != nil {
		return fmt.Errorf("failed to create HTTP server runner: %w", err)
	}

	s.runner = runner
	return nil
}

func (s *Server) buildConfigOptions() []httpserver.ConfigOption {
	options := []httpserver.ConfigOption{}

	if s.readTimeout > 0 {
		options = append(options, httpserver.WithReadTimeout(s.readTimeout))
	}
	if s.writeTimeout > 0 {
		options = append(options, httpserver.WithWriteTimeout(s.writeTimeout))
	}
	if s.idleTimeout > 0 {
		options = append(options, httpserver.WithIdleTimeout(s.idleTimeout))
	}
	if s.drainTimeout > 0 {
		options = append(options, httpserver.WithDrainTimeout(s.drainTimeout))
	}

	return options
}

// String returns a unique identifier for the server
func (s *Server) String() string {
	return fmt.Sprintf("HTTPServer[%s]", s.id)
}

// Run starts the HTTP server
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("Starting HTTP server", "address", s.address)
	return s.runner.Run(ctx)
}

// Stop terminates the HTTP server
func (s *Server) Stop() {
	s.logger.Info("Stopping HTTP server")
	s.runner.Stop()
}

// Reload triggers reloading of the HTTP server configuration
func (s *Server) Reload() {
	s.logger.Debug("Reloading HTTP server")
	s.runner.Reload()
}
