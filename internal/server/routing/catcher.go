package routing

import (
	"fmt"
	"strings"

	"github.com/gantryhq/gantry/internal/config"
	"github.com/gantryhq/gantry/internal/server/apps"
)

// CompiledCatcher is a catcher definition bound to its app instance.
type CompiledCatcher struct {
	// Status is the exact status handled, zero for the default catcher.
	Status int
	// Path is the prefix the catcher scopes to.
	Path string
	App  apps.App
	// order preserves declaration position for tie-breaking.
	order int
}

// CatcherTable resolves error statuses to catcher apps. Lookup prefers an
// exact status match over the default catcher, then a longer scoping path,
// then earlier declaration.
type CatcherTable struct {
	catchers []*CompiledCatcher
}

// BuildCatcherTable resolves every catcher definition against the app
// instances.
func BuildCatcherTable(
	collection config.CatcherCollection,
	instances *apps.AppInstances,
) (*CatcherTable, error) {
	table := &CatcherTable{}

	for i := range collection {
		catcher := &collection[i]

		app, ok := instances.GetApp(catcher.App)
		if !ok {
			return nil, fmt.Errorf("%w: %q referenced by catcher %s",
				ErrUnknownApp, catcher.App, catcher)
		}

		table.catchers = append(table.catchers, &CompiledCatcher{
			Status: catcher.Status,
			Path:   catcher.EffectivePath(),
			App:    app,
			order:  i,
		})
	}

	return table, nil
}

// Len returns the number of registered catchers.
func (t *CatcherTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.catchers)
}

// Lookup returns the catcher responsible for the given status and request
// path, or nil when no configured catcher applies.
func (t *CatcherTable) Lookup(status int, path string) *CompiledCatcher {
	if t == nil {
		return nil
	}

	var best *CompiledCatcher
	for _, catcher := range t.catchers {
		if catcher.Status != 0 && catcher.Status != status {
			continue
		}
		if !pathWithin(path, catcher.Path) {
			continue
		}
		if better(catcher, best) {
			best = catcher
		}
	}
	return best
}

// better ranks a against the current best candidate.
func better(a, best *CompiledCatcher) bool {
	if best == nil {
		return true
	}
	// exact status beats the default catcher
	if (a.Status != 0) != (best.Status != 0) {
		return a.Status != 0
	}
	if len(a.Path) != len(best.Path) {
		return len(a.Path) > len(best.Path)
	}
	return a.order < best.order
}

// pathWithin reports whether path falls under prefix at segment granularity,
// so "/api" scopes "/api" and "/api/users" but not "/apiary".
func pathWithin(path, prefix string) bool {
	if prefix == "/" {
		return true
	}
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	rest := path[len(prefix):]
	return rest == "" || rest[0] == '/'
}
