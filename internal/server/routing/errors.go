package routing

import "errors"

var (
	// ErrNotInitialized is returned when dispatch is attempted before the
	// registry has loaded a configuration
	ErrNotInitialized = errors.New("routing registry is not initialized")

	// ErrUnknownListener is returned when a request arrives for a listener
	// with no route table
	ErrUnknownListener = errors.New("no route table for listener")

	// ErrUnknownApp is returned when a route or catcher references an app
	// with no instance
	ErrUnknownApp = errors.New("no instance for app")

	// ErrUnknownGuard is returned when a route references a guard with no
	// compiled form
	ErrUnknownGuard = errors.New("no compiled form for guard")
)
