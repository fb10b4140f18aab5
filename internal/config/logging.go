package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gantryhq/gantry/internal/config/errz"
)

// Logging holds the log output configuration.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Defaults applied when the logging table is absent or partial.
const (
	DefaultLogFormat = "text"
	DefaultLogLevel  = "info"
)

var (
	validLogFormats = map[string]bool{"text": true, "json": true}
	validLogLevels  = map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "warning": true, "error": true,
	}
)

// setDefaults fills in unset fields.
func (l *Logging) setDefaults() {
	if l.Format == "" {
		l.Format = DefaultLogFormat
	}
	if l.Level == "" {
		l.Level = DefaultLogLevel
	}
}

// Validate checks the logging configuration.
func (l *Logging) Validate() error {
	var errs []error

	if !validLogFormats[strings.ToLower(l.Format)] {
		errs = append(errs, fmt.Errorf("%w: log format %q", errz.ErrInvalidValue, l.Format))
	}
	if !validLogLevels[strings.ToLower(l.Level)] {
		errs = append(errs, fmt.Errorf("%w: log level %q", errz.ErrInvalidValue, l.Level))
	}

	return errors.Join(errs...)
}
