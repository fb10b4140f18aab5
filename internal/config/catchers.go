package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gantryhq/gantry/internal/config/errz"
	"github.com/gantryhq/gantry/internal/fancy"
)

// Catcher maps an error status, scoped to a path prefix, to a handler app.
// A zero Status makes the catcher the wildcard default for its scope.
type Catcher struct {
	Status int    `toml:"status"`
	Path   string `toml:"path"`
	App    string `toml:"app"`
}

// CatcherCollection is a collection of Catcher definitions. Declaration
// order matters: it breaks ties between catchers with equal-length scopes.
type CatcherCollection []Catcher

// setDefaults fills in the default scope.
func (c *Catcher) setDefaults() {
	if c.Path == "" {
		c.Path = "/"
	}
}

// Validate checks a single catcher definition.
func (c *Catcher) Validate() error {
	var errs []error

	if c.Status != 0 && (c.Status < 400 || c.Status > 599) {
		errs = append(errs, fmt.Errorf(
			"%w: catcher status %d must be 0 (default) or in the 4xx-5xx range",
			errz.ErrInvalidStatusCode, c.Status))
	}
	if !strings.HasPrefix(c.Path, "/") {
		errs = append(errs, fmt.Errorf(
			"%w: catcher path %q must start with '/'", errz.ErrInvalidValue, c.Path))
	}
	if c.App == "" {
		errs = append(errs, fmt.Errorf("%w: catcher app", errz.ErrMissingRequiredField))
	}

	return errors.Join(errs...)
}

// EffectivePath returns the configured scope, defaulting to the root.
func (c *Catcher) EffectivePath() string {
	if c.Path == "" {
		return "/"
	}
	return c.Path
}

// String returns a short description of the catcher.
func (c *Catcher) String() string {
	status := "default"
	if c.Status != 0 {
		status = fmt.Sprintf("%d", c.Status)
	}
	return fmt.Sprintf("Catcher{%s %s -> %s}", status, c.Path, c.App)
}

// ToTree returns a tree representation of the catcher.
func (c *Catcher) ToTree() *fancy.ComponentTree {
	status := "default"
	if c.Status != 0 {
		status = fmt.Sprintf("%d", c.Status)
	}
	tree := fancy.CatcherTree(fmt.Sprintf("%s %s", status, c.Path))
	tree.AddChild(fmt.Sprintf("App: %s", c.App))
	return tree
}

// Validate checks the collection and rejects exact duplicates of
// (status, path), which could never both be selected.
func (cc CatcherCollection) Validate() error {
	var errs []error

	type key struct {
		status int
		path   string
	}
	seen := make(map[key]bool)

	for i := range cc {
		c := &cc[i]
		if err := c.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("catcher %d (%s): %w", i, c.String(), err))
		}
		k := key{status: c.Status, path: c.Path}
		if seen[k] {
			errs = append(errs, fmt.Errorf("%w: catcher %s", errz.ErrDuplicateID, c.String()))
		}
		seen[k] = true
	}

	return errors.Join(errs...)
}
