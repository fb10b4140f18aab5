package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/robbyt/go-polyscript/engines/risor"
	risorEvaluator "github.com/robbyt/go-polyscript/engines/risor/evaluator"
	"github.com/robbyt/go-polyscript/platform"
	"github.com/robbyt/go-polyscript/platform/script/loader"
	"golang.org/x/net/http/httpguts"

	"github.com/gantryhq/gantry/internal/config/errz"
	"github.com/gantryhq/gantry/internal/fancy"
	"github.com/gantryhq/gantry/internal/validation"
)

// AppType discriminates the app configuration variants.
type AppType string

const (
	AppTypeEcho    AppType = "echo"
	AppTypeStatic  AppType = "static"
	AppTypeScript  AppType = "script"
	AppTypeMetrics AppType = "metrics"
)

// DefaultScriptTimeout bounds script evaluation when the config does not
// set one.
const DefaultScriptTimeout = 5 * time.Second

// App is a single handler application definition, referenced by routes and
// catchers.
type App struct {
	ID   string  `toml:"id"`
	Type AppType `toml:"type"`
	// StaticData is passed to the app on every invocation.
	StaticData map[string]any `toml:"static_data"`

	Static *StaticApp `toml:"static"`
	Script *ScriptApp `toml:"script"`
}

// AppCollection is a collection of App definitions.
type AppCollection []App

// StaticApp responds with a fixed status, headers, and body.
type StaticApp struct {
	Body        string            `toml:"body"`
	ContentType string            `toml:"content_type"`
	Status      int               `toml:"status"`
	Headers     map[string]string `toml:"headers" env_interpolation:"yes"`
}

// ScriptApp evaluates a Risor script per request. Exactly one of Code or
// URI must be set. The script is compiled once, during validation.
type ScriptApp struct {
	Code    string   `toml:"code"`
	URI     string   `toml:"uri"     env_interpolation:"yes"`
	Timeout Duration `toml:"timeout"`

	compiledEvaluator *risorEvaluator.Evaluator
	buildOnce         sync.Once
	buildErr          error
}

// Validate checks a single app definition. Script apps are compiled here so
// a broken script is rejected at startup, not at first request.
func (a *App) Validate() error {
	var errs []error

	if err := validation.ValidateID(a.ID, "app ID"); err != nil {
		errs = append(errs, err)
	}

	switch a.Type {
	case AppTypeEcho, AppTypeMetrics:
		// no type-specific config
	case AppTypeStatic:
		if a.Static == nil {
			errs = append(errs, fmt.Errorf(
				"%w: [apps.static] table for app %q", errz.ErrMissingRequiredField, a.ID))
		} else if err := a.Static.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("static app %q: %w", a.ID, err))
		}
	case AppTypeScript:
		if a.Script == nil {
			errs = append(errs, fmt.Errorf(
				"%w: [apps.script] table for app %q", errz.ErrMissingRequiredField, a.ID))
		} else if err := a.Script.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("script app %q: %w", a.ID, err))
		}
	default:
		errs = append(errs, fmt.Errorf("%w: %q", errz.ErrInvalidAppType, a.Type))
	}

	return errors.Join(errs...)
}

// Validate checks the static app response definition.
func (s *StaticApp) Validate() error {
	var errs []error

	if s.Status != 0 && (s.Status < 100 || s.Status > 599) {
		errs = append(errs, fmt.Errorf("%w: %d", errz.ErrInvalidStatusCode, s.Status))
	}
	for name, value := range s.Headers {
		if !httpguts.ValidHeaderFieldName(name) {
			errs = append(errs, fmt.Errorf("%w: header name %q", errz.ErrInvalidValue, name))
		}
		if !httpguts.ValidHeaderFieldValue(value) {
			errs = append(errs, fmt.Errorf("%w: header value for %q", errz.ErrInvalidValue, name))
		}
	}

	return errors.Join(errs...)
}

// EffectiveStatus returns the configured status or 200.
func (s *StaticApp) EffectiveStatus() int {
	if s.Status != 0 {
		return s.Status
	}
	return http.StatusOK
}

// Validate checks the script source and triggers compilation.
func (s *ScriptApp) Validate() error {
	var errs []error

	if s.Code == "" && s.URI == "" {
		errs = append(errs, errz.ErrEmptyCode)
	}
	if s.Code != "" && s.URI != "" {
		errs = append(errs, errz.ErrBothCodeAndURI)
	}
	if s.Timeout < 0 {
		errs = append(errs, errz.ErrNegativeTimeout)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	s.build()
	return s.buildErr
}

// build compiles the script, called lazily by Validate or GetCompiledEvaluator.
func (s *ScriptApp) build() {
	s.buildOnce.Do(func() {
		scriptLoader, err := s.createLoader()
		if err != nil {
			s.buildErr = fmt.Errorf("script loader: %w", err)
			return
		}

		s.compiledEvaluator, err = risor.FromRisorLoader(slog.Default().Handler(), scriptLoader)
		if err != nil {
			s.buildErr = fmt.Errorf("risor script compilation failed: %w", err)
		}
	})
}

func (s *ScriptApp) createLoader() (loader.Loader, error) {
	if s.Code != "" {
		return loader.NewFromString(s.Code)
	}
	return loader.NewFromDisk(s.URI)
}

// GetCompiledEvaluator returns the evaluator compiled during validation.
func (s *ScriptApp) GetCompiledEvaluator() (platform.Evaluator, error) {
	s.build()
	if s.buildErr != nil {
		return nil, s.buildErr
	}
	return s.compiledEvaluator, nil
}

// GetTimeout returns the script timeout, with a default fallback.
func (s *ScriptApp) GetTimeout() time.Duration {
	if s.Timeout > 0 {
		return s.Timeout.AsDuration()
	}
	return DefaultScriptTimeout
}

// String returns a short description of the app.
func (a *App) String() string {
	return fmt.Sprintf("App{ID: %s, Type: %s}", a.ID, a.Type)
}

// ToTree returns a tree representation of the app.
func (a *App) ToTree() *fancy.ComponentTree {
	tree := fancy.AppTree(a.ID)
	tree.AddChild(fmt.Sprintf("Type: %s", a.Type))
	switch {
	case a.Type == AppTypeStatic && a.Static != nil:
		tree.AddChild(fmt.Sprintf("Status: %d", a.Static.EffectiveStatus()))
		tree.AddChild(fmt.Sprintf("Body: %s", fancy.TruncateString(a.Static.Body, 40)))
	case a.Type == AppTypeScript && a.Script != nil:
		if a.Script.URI != "" {
			tree.AddChild(fmt.Sprintf("Source: %s", a.Script.URI))
		} else {
			tree.AddChild(fmt.Sprintf("Code: %d chars", len(a.Script.Code)))
		}
		tree.AddChild(fmt.Sprintf("Timeout: %s", a.Script.GetTimeout()))
	}
	return tree
}

// Validate checks the collection: every app valid, IDs unique.
func (ac AppCollection) Validate() error {
	var errs []error

	seen := make(map[string]bool)
	for i := range ac {
		a := &ac[i]
		if err := a.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("app %d (%s): %w", i, a.ID, err))
		}
		if seen[a.ID] {
			errs = append(errs, fmt.Errorf("%w: app %q", errz.ErrDuplicateID, a.ID))
		}
		seen[a.ID] = true
	}

	return errors.Join(errs...)
}

// FindByID finds an app by its ID.
func (ac AppCollection) FindByID(id string) *App {
	for i := range ac {
		if ac[i].ID == id {
			return &ac[i]
		}
	}
	return nil
}
