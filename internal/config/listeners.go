package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/gantryhq/gantry/internal/config/errz"
	"github.com/gantryhq/gantry/internal/fancy"
	"github.com/gantryhq/gantry/internal/validation"
)

// Listener timeout defaults.
const (
	DefaultReadTimeout  = 10 * time.Second
	DefaultWriteTimeout = 10 * time.Second
	DefaultIdleTimeout  = 60 * time.Second
	DefaultDrainTimeout = 30 * time.Second
)

// Listener describes one HTTP server socket.
type Listener struct {
	ID           string   `toml:"id"`
	Address      string   `toml:"address"      env_interpolation:"yes"`
	ReadTimeout  Duration `toml:"read_timeout"`
	WriteTimeout Duration `toml:"write_timeout"`
	IdleTimeout  Duration `toml:"idle_timeout"`
	DrainTimeout Duration `toml:"drain_timeout"`
}

// ListenerCollection is a collection of Listener definitions.
type ListenerCollection []Listener

// setDefaults fills in unset timeouts.
func (l *Listener) setDefaults() {
	if l.ReadTimeout <= 0 {
		l.ReadTimeout = FromDuration(DefaultReadTimeout)
	}
	if l.WriteTimeout <= 0 {
		l.WriteTimeout = FromDuration(DefaultWriteTimeout)
	}
	if l.IdleTimeout <= 0 {
		l.IdleTimeout = FromDuration(DefaultIdleTimeout)
	}
	if l.DrainTimeout <= 0 {
		l.DrainTimeout = FromDuration(DefaultDrainTimeout)
	}
}

// Validate checks a single listener definition.
func (l *Listener) Validate() error {
	var errs []error

	if err := validation.ValidateID(l.ID, "listener ID"); err != nil {
		errs = append(errs, err)
	}
	if l.Address == "" {
		errs = append(errs, fmt.Errorf("%w: listener address", errz.ErrMissingRequiredField))
	}
	if l.ReadTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%w: read timeout must be positive", errz.ErrInvalidValue))
	}
	if l.WriteTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%w: write timeout must be positive", errz.ErrInvalidValue))
	}
	if l.IdleTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%w: idle timeout must be positive", errz.ErrInvalidValue))
	}
	if l.DrainTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%w: drain timeout must be positive", errz.ErrInvalidValue))
	}

	return errors.Join(errs...)
}

// String returns a short description of the listener.
func (l *Listener) String() string {
	return fmt.Sprintf("Listener{ID: %s, Address: %s}", l.ID, l.Address)
}

// ToTree returns a tree representation of the listener.
func (l *Listener) ToTree() *fancy.ComponentTree {
	tree := fancy.ListenerTree(l.ID)
	tree.AddChild(fmt.Sprintf("Address: %s", l.Address))
	tree.AddChild(fmt.Sprintf("Read Timeout: %s", l.ReadTimeout))
	tree.AddChild(fmt.Sprintf("Write Timeout: %s", l.WriteTimeout))
	tree.AddChild(fmt.Sprintf("Idle Timeout: %s", l.IdleTimeout))
	tree.AddChild(fmt.Sprintf("Drain Timeout: %s", l.DrainTimeout))
	return tree
}

// Validate checks the collection: every listener valid, IDs unique.
func (lc ListenerCollection) Validate() error {
	var errs []error

	seen := make(map[string]bool)
	for i := range lc {
		l := &lc[i]
		if err := l.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("listener %d (%s): %w", i, l.ID, err))
		}
		if seen[l.ID] {
			errs = append(errs, fmt.Errorf("%w: listener %q", errz.ErrDuplicateID, l.ID))
		}
		seen[l.ID] = true
	}

	return errors.Join(errs...)
}

// FindByID finds a listener by its ID.
func (lc ListenerCollection) FindByID(id string) *Listener {
	for i := range lc {
		if lc[i].ID == id {
			return &lc[i]
		}
	}
	return nil
}
