package apps

import "errors"

// Sentinel errors for app instantiation
var (
	// ErrDuplicateAppID is returned when two apps share an identifier
	ErrDuplicateAppID = errors.New("duplicate app ID")

	// ErrUnknownAppType is returned when no instantiator exists for a type
	ErrUnknownAppType = errors.New("unknown app type")

	// ErrNilAppConfig is returned when the typed config table is missing
	ErrNilAppConfig = errors.New("app config cannot be nil")
)
