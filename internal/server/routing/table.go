package routing

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/gantryhq/gantry/internal/config"
	"github.com/gantryhq/gantry/internal/server/apps"
)

// Table holds the compiled routes for one listener, ordered by rank with
// declaration order breaking ties. The table is immutable once built;
// reloads build a replacement.
type Table struct {
	listenerID string
	routes     []*CompiledRoute
}

// ListenerID returns the listener this table serves.
func (t *Table) ListenerID() string {
	return t.listenerID
}

// Routes returns the compiled routes in candidate order.
func (t *Table) Routes() []*CompiledRoute {
	return t.routes
}

// Len returns the number of routes in the table.
func (t *Table) Len() int {
	return len(t.routes)
}

// Tables maps listener IDs to their route tables.
type Tables map[string]*Table

// BuildTables compiles every route in the config against the guard set and
// app instances, grouped per listener and sorted into candidate order.
func BuildTables(
	cfg *config.Config,
	instances *apps.AppInstances,
	logger *slog.Logger,
) (Tables, error) {
	guards := make(map[string]*CompiledGuard, len(cfg.Guards))
	for i := range cfg.Guards {
		guard, err := CompileGuard(&cfg.Guards[i])
		if err != nil {
			return nil, err
		}
		guards[guard.ID()] = guard
	}

	tables := make(Tables, len(cfg.Listeners))
	for _, listener := range cfg.Listeners {
		tables[listener.ID] = &Table{listenerID: listener.ID}
	}

	for i := range cfg.Routes {
		route := &cfg.Routes[i]

		table, ok := tables[route.Listener]
		if !ok {
			return nil, fmt.Errorf("%w: %q referenced by route %s",
				ErrUnknownListener, route.Listener, route)
		}

		var appStatic map[string]any
		if appCfg := cfg.Apps.FindByID(route.App); appCfg != nil {
			appStatic = appCfg.StaticData
		}

		compiled, err := compileRoute(route, guards, instances, appStatic)
		if err != nil {
			return nil, err
		}

		table.routes = append(table.routes, compiled)
		logger.Debug("Compiled route",
			"listener", route.Listener,
			"route", compiled.ID,
			"rank", compiled.Rank,
			"app", compiled.AppID)
	}

	// Stable sort preserves declaration order among equal ranks. Validation
	// rejects equal-rank overlaps, so remaining ties are between routes that
	// can never match the same request.
	for _, table := range tables {
		sort.SliceStable(table.routes, func(i, j int) bool {
			return table.routes[i].Rank < table.routes[j].Rank
		})
	}

	return tables, nil
}
