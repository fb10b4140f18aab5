// Package errz provides shared error definitions for the config package and its subpackages.
package errz

import "errors"

// Top-level error categories
var (
	ErrFailedToLoadConfig     = errors.New("failed to load config")
	ErrFailedToValidateConfig = errors.New("failed to validate config")
	ErrUnsupportedConfigVer   = errors.New("unsupported config version")
)

// Validation specific errors
var (
	ErrDuplicateID          = errors.New("duplicate ID")
	ErrEmptyID              = errors.New("empty ID")
	ErrInvalidReference     = errors.New("invalid reference")
	ErrInvalidValue         = errors.New("invalid value")
	ErrMissingRequiredField = errors.New("missing required field")
	ErrAmbiguousRank        = errors.New("ambiguous rank")
)

// Type specific errors
var (
	ErrInvalidGuardType   = errors.New("invalid guard type")
	ErrInvalidAppType     = errors.New("invalid app type")
	ErrInvalidPathPattern = errors.New("invalid path pattern")
	ErrInvalidMethod      = errors.New("invalid HTTP method")
	ErrInvalidStatusCode  = errors.New("invalid status code")
)

// Reference specific errors
var (
	ErrListenerNotFound = errors.New("listener not found")
	ErrAppNotFound      = errors.New("app not found")
	ErrGuardNotFound    = errors.New("guard not found")
)

// Script specific errors
var (
	ErrEmptyCode       = errors.New("empty code")
	ErrBothCodeAndURI  = errors.New("both code and URI provided")
	ErrNegativeTimeout = errors.New("negative timeout")
)
