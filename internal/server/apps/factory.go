package apps

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gantryhq/gantry/internal/config"
)

// FactoryOptions carries the shared resources app instantiation may need.
type FactoryOptions struct {
	Logger   *slog.Logger
	Registry *prometheus.Registry
}

// CreateApps instantiates all applications declared in the config. Config
// validation is assumed to have run; errors here indicate missing runtime
// resources rather than bad declarations.
func CreateApps(collection config.AppCollection, opts FactoryOptions) (*AppInstances, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	instances := make([]App, 0, len(collection))
	errs := []error{}

	for _, appCfg := range collection {
		app, err := createApp(appCfg, logger, opts.Registry)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to create app %s: %w", appCfg.ID, err))
			continue
		}
		instances = append(instances, app)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return NewAppInstances(instances)
}

func createApp(
	appCfg config.App,
	logger *slog.Logger,
	registry *prometheus.Registry,
) (App, error) {
	switch appCfg.Type {
	case config.AppTypeEcho:
		return NewEchoApp(appCfg.ID), nil
	case config.AppTypeStatic:
		return NewStaticApp(appCfg.ID, appCfg.Static)
	case config.AppTypeScript:
		return NewScriptApp(appCfg.ID, appCfg.Script, logger)
	case config.AppTypeMetrics:
		return NewMetricsApp(appCfg.ID, registry), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownAppType, appCfg.Type)
	}
}
