package routing

import (
	"fmt"
	"maps"

	"github.com/gantryhq/gantry/internal/config"
	"github.com/gantryhq/gantry/internal/pattern"
	"github.com/gantryhq/gantry/internal/server/apps"
)

// CompiledRoute is a route definition bound to its compiled pattern, resolved
// guard chain, and app instance.
type CompiledRoute struct {
	// ID is a human-readable identifier derived from the route definition.
	ID         string
	Method     string
	Pattern    *pattern.Pattern
	Rank       int
	Guards     []*CompiledGuard
	App        apps.App
	AppID      string
	StaticData map[string]any
}

// compileRoute resolves a validated route definition against the compiled
// guard set and app instances. appStatic is the app's own static data; the
// route's entries override it.
func compileRoute(
	route *config.Route,
	guards map[string]*CompiledGuard,
	instances *apps.AppInstances,
	appStatic map[string]any,
) (*CompiledRoute, error) {
	compiled := route.Compiled()
	if compiled == nil {
		return nil, fmt.Errorf("route %s has no compiled pattern", route)
	}

	app, ok := instances.GetApp(route.App)
	if !ok {
		return nil, fmt.Errorf("%w: %q referenced by route %s", ErrUnknownApp, route.App, route)
	}

	chain := make([]*CompiledGuard, 0, len(route.Guards))
	for _, guardID := range route.Guards {
		guard, ok := guards[guardID]
		if !ok {
			return nil, fmt.Errorf("%w: %q referenced by route %s", ErrUnknownGuard, guardID, route)
		}
		chain = append(chain, guard)
	}

	method := route.NormalizedMethod()
	label := method
	if label == "" {
		label = "ANY"
	}

	static := maps.Clone(appStatic)
	if static == nil && len(route.StaticData) > 0 {
		static = make(map[string]any, len(route.StaticData))
	}
	maps.Copy(static, route.StaticData)

	return &CompiledRoute{
		ID:         fmt.Sprintf("%s %s", label, route.Path),
		Method:     method,
		Pattern:    compiled,
		Rank:       route.EffectiveRank(),
		Guards:     chain,
		App:        app,
		AppID:      route.App,
		StaticData: static,
	}, nil
}

// matchesMethod reports whether the route accepts the given request method.
// Routes without a method accept any; HEAD requests match GET routes.
func (cr *CompiledRoute) matchesMethod(method string) bool {
	if cr.Method == "" || cr.Method == method {
		return true
	}
	return method == "HEAD" && cr.Method == "GET"
}
