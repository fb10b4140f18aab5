// Package config holds the domain configuration for the gantry server: the
// listeners, guards, handler apps, routes, and catchers that the dispatch
// tables are compiled from. Configuration is loaded from TOML, validated
// once, and treated as immutable afterwards.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss/tree"
	gotoml "github.com/pelletier/go-toml/v2"

	"github.com/gantryhq/gantry/internal/config/errz"
	"github.com/gantryhq/gantry/internal/fancy"
	"github.com/gantryhq/gantry/internal/interpolation"
)

// Version is the config schema version this build understands.
const Version = "v1"

// Config is the root configuration document.
type Config struct {
	Version   string             `toml:"version"`
	Logging   Logging            `toml:"logging"`
	Listeners ListenerCollection `toml:"listeners"`
	Guards    GuardCollection    `toml:"guards"`
	Apps      AppCollection      `toml:"apps"`
	Routes    RouteCollection    `toml:"routes"`
	Catchers  CatcherCollection  `toml:"catchers"`

	source []byte
}

// NewConfig loads a configuration from a TOML file on disk.
func NewConfig(filePath string) (*Config, error) {
	if ext := filepath.Ext(filePath); ext != ".toml" {
		return nil, fmt.Errorf("%w: unsupported config extension %q", errz.ErrFailedToLoadConfig, ext)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errz.ErrFailedToLoadConfig, err)
	}
	return NewConfigFromBytes(data)
}

// NewConfigFromReader loads a configuration from an io.Reader.
func NewConfigFromReader(reader io.Reader) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errz.ErrFailedToLoadConfig, err)
	}
	return NewConfigFromBytes(data)
}

// NewConfigFromBytes parses TOML source into a Config, expands environment
// references in the fields that allow them, and applies defaults. Validation
// is a separate step; see Validate.
func NewConfigFromBytes(data []byte) (*Config, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: no source data", errz.ErrFailedToLoadConfig)
	}

	cfg := &Config{}
	if err := gotoml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", errz.ErrFailedToLoadConfig, err)
	}

	if err := interpolation.Apply(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", errz.ErrFailedToLoadConfig, err)
	}

	if cfg.Version == "" {
		cfg.Version = Version
	}
	if cfg.Version != Version {
		return nil, fmt.Errorf("%w: %q", errz.ErrUnsupportedConfigVer, cfg.Version)
	}

	cfg.source = data
	cfg.setDefaults()
	return cfg, nil
}

// setDefaults fills in unset fields across all sections.
func (c *Config) setDefaults() {
	c.Logging.setDefaults()
	for i := range c.Listeners {
		c.Listeners[i].setDefaults()
	}
	for i := range c.Catchers {
		c.Catchers[i].setDefaults()
	}
}

// Validate checks every section and then the references between them.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("logging: %w", err))
	}
	if err := c.Listeners.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("listeners: %w", err))
	}
	if err := c.Guards.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("guards: %w", err))
	}
	if err := c.Apps.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("apps: %w", err))
	}
	if err := c.Routes.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("routes: %w", err))
	}
	if err := c.Catchers.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("catchers: %w", err))
	}

	if len(c.Listeners) == 0 {
		errs = append(errs, fmt.Errorf("%w: at least one listener", errz.ErrMissingRequiredField))
	}

	errs = append(errs, c.validateReferences()...)

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", errz.ErrFailedToValidateConfig, err)
	}
	return nil
}

// validateReferences checks that routes and catchers only name listeners,
// guards, and apps that exist.
func (c *Config) validateReferences() []error {
	var errs []error

	for i := range c.Routes {
		r := &c.Routes[i]
		if r.Listener != "" && c.Listeners.FindByID(r.Listener) == nil {
			errs = append(errs, fmt.Errorf(
				"%w: route %s references %w: %q", errz.ErrInvalidReference,
				r.String(), errz.ErrListenerNotFound, r.Listener))
		}
		if r.App != "" && c.Apps.FindByID(r.App) == nil {
			errs = append(errs, fmt.Errorf(
				"%w: route %s references %w: %q", errz.ErrInvalidReference,
				r.String(), errz.ErrAppNotFound, r.App))
		}
		for _, guardID := range r.Guards {
			if c.Guards.FindByID(guardID) == nil {
				errs = append(errs, fmt.Errorf(
					"%w: route %s references %w: %q", errz.ErrInvalidReference,
					r.String(), errz.ErrGuardNotFound, guardID))
			}
		}
	}

	for i := range c.Catchers {
		ca := &c.Catchers[i]
		if ca.App != "" && c.Apps.FindByID(ca.App) == nil {
			errs = append(errs, fmt.Errorf(
				"%w: catcher %s references %w: %q", errz.ErrInvalidReference,
				ca.String(), errz.ErrAppNotFound, ca.App))
		}
	}

	return errs
}

// Equals reports whether two configs were loaded from identical source.
func (c *Config) Equals(other *Config) bool {
	if c == nil || other == nil {
		return c == other
	}
	return bytes.Equal(c.source, other.source)
}

// String renders the full configuration as a styled tree.
func (c *Config) String() string {
	root := fancy.Tree().Root(fancy.RootStyle.Render("gantry config " + c.Version))

	root.Child(c.sectionTree("Listeners", len(c.Listeners), func(t *tree.Tree) {
		for i := range c.Listeners {
			t.Child(c.Listeners[i].ToTree().Tree())
		}
	}))
	root.Child(c.sectionTree("Guards", len(c.Guards), func(t *tree.Tree) {
		for i := range c.Guards {
			t.Child(c.Guards[i].ToTree().Tree())
		}
	}))
	root.Child(c.sectionTree("Apps", len(c.Apps), func(t *tree.Tree) {
		for i := range c.Apps {
			t.Child(c.Apps[i].ToTree().Tree())
		}
	}))
	root.Child(c.sectionTree("Routes", len(c.Routes), func(t *tree.Tree) {
		for i := range c.Routes {
			t.Child(c.Routes[i].ToTree().Tree())
		}
	}))
	root.Child(c.sectionTree("Catchers", len(c.Catchers), func(t *tree.Tree) {
		for i := range c.Catchers {
			t.Child(c.Catchers[i].ToTree().Tree())
		}
	}))

	var sb strings.Builder
	sb.WriteString(root.String())
	sb.WriteString("\n")
	return sb.String()
}

func (c *Config) sectionTree(title string, count int, fill func(*tree.Tree)) *tree.Tree {
	section := fancy.BranchNode(title, fmt.Sprintf("(%d)", count))
	fill(section)
	return section
}
