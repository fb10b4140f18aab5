package config

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gantryhq/gantry/internal/config/errz"
	"github.com/gantryhq/gantry/internal/fancy"
	"github.com/gantryhq/gantry/internal/pattern"
)

// Route binds a method and path pattern to a handler app, with an optional
// explicit rank, guard list, and static data.
type Route struct {
	Listener string `toml:"listener"`
	Method   string `toml:"method"`
	Path     string `toml:"path"`
	// Query holds "key=literal" or "key={name}" requirement entries.
	Query []string `toml:"query"`
	// Rank orders candidates, lower first. When nil the rank is derived
	// from pattern specificity.
	Rank       *int           `toml:"rank"`
	App        string         `toml:"app"`
	Guards     []string       `toml:"guards"`
	StaticData map[string]any `toml:"static_data"`

	compiled *pattern.Pattern
}

// RouteCollection is a collection of Route definitions.
type RouteCollection []Route

var validMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
	http.MethodOptions: true,
}

// Validate checks a single route definition and compiles its pattern.
func (r *Route) Validate() error {
	var errs []error

	if r.Listener == "" {
		errs = append(errs, fmt.Errorf("%w: route listener", errz.ErrMissingRequiredField))
	}
	if r.App == "" {
		errs = append(errs, fmt.Errorf("%w: route app", errz.ErrMissingRequiredField))
	}

	if r.Method != "" && !validMethods[strings.ToUpper(r.Method)] {
		errs = append(errs, fmt.Errorf("%w: %q", errz.ErrInvalidMethod, r.Method))
	}

	compiled, err := pattern.Compile(r.Path, r.Query)
	if err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", errz.ErrInvalidPathPattern, err))
	} else {
		r.compiled = compiled
	}

	return errors.Join(errs...)
}

// Compiled returns the pattern compiled during validation, or nil if
// validation failed or has not run.
func (r *Route) Compiled() *pattern.Pattern {
	return r.compiled
}

// EffectiveRank resolves the explicit or derived rank. Requires a prior
// successful Validate.
func (r *Route) EffectiveRank() int {
	if r.Rank != nil {
		return *r.Rank
	}
	if r.compiled == nil {
		return 0
	}
	return r.compiled.DefaultRank()
}

// NormalizedMethod returns the uppercased method, empty meaning any.
func (r *Route) NormalizedMethod() string {
	return strings.ToUpper(r.Method)
}

// String returns a short description of the route.
func (r *Route) String() string {
	method := r.NormalizedMethod()
	if method == "" {
		method = "ANY"
	}
	return fmt.Sprintf("Route{%s %s -> %s}", method, r.Path, r.App)
}

// ToTree returns a tree representation of the route.
func (r *Route) ToTree() *fancy.ComponentTree {
	method := r.NormalizedMethod()
	if method == "" {
		method = "ANY"
	}
	tree := fancy.RouteTree(fmt.Sprintf("%s %s", method, r.Path))
	tree.AddChild(fmt.Sprintf("Listener: %s", r.Listener))
	tree.AddChild(fmt.Sprintf("App: %s", r.App))
	tree.AddChild(fmt.Sprintf("Rank: %d", r.EffectiveRank()))
	if len(r.Guards) > 0 {
		tree.AddChild(fmt.Sprintf("Guards: %s", strings.Join(r.Guards, ", ")))
	}
	if len(r.Query) > 0 {
		tree.AddChild(fmt.Sprintf("Query: %s", strings.Join(r.Query, ", ")))
	}
	return tree
}

// Validate checks each route, then rejects rank collisions: two routes on
// the same listener whose match sets can overlap must not share an
// effective rank, otherwise candidate order would depend on declaration
// order for requests both can serve.
func (rc RouteCollection) Validate() error {
	var errs []error

	for i := range rc {
		if err := rc[i].Validate(); err != nil {
			errs = append(errs, fmt.Errorf("route %d (%s %s): %w", i, rc[i].Method, rc[i].Path, err))
		}
	}
	if len(errs) > 0 {
		// pattern compilation failed somewhere; collision checks need
		// compiled patterns, so stop here
		return errors.Join(errs...)
	}

	for i := range rc {
		for j := i + 1; j < len(rc); j++ {
			a, b := &rc[i], &rc[j]
			if a.Listener != b.Listener {
				continue
			}
			if !methodsOverlap(a.NormalizedMethod(), b.NormalizedMethod()) {
				continue
			}
			if a.EffectiveRank() != b.EffectiveRank() {
				continue
			}
			if pattern.Overlaps(a.compiled, b.compiled) {
				errs = append(errs, fmt.Errorf(
					"%w: routes %q and %q overlap at rank %d; set distinct ranks",
					errz.ErrAmbiguousRank, a.String(), b.String(), a.EffectiveRank()))
			}
		}
	}

	return errors.Join(errs...)
}

func methodsOverlap(a, b string) bool {
	return a == "" || b == "" || a == b
}
