package config

import (
	"errors"
	"fmt"
	"net/http"
	"net/netip"
	"regexp"

	"golang.org/x/net/http/httpguts"

	"github.com/gantryhq/gantry/internal/config/errz"
	"github.com/gantryhq/gantry/internal/fancy"
	"github.com/gantryhq/gantry/internal/validation"
)

// GuardType discriminates the guard configuration variants.
type GuardType string

const (
	GuardTypeHeader      GuardType = "header"
	GuardTypeContentType GuardType = "content_type"
	GuardTypeBearerToken GuardType = "bearer_token"
	GuardTypeRemoteIP    GuardType = "remote_ip"
	GuardTypeQuery       GuardType = "query"
)

// FailureMode selects what a failed guard does to the dispatch attempt:
// reject the request with a status, or abandon the candidate route.
type FailureMode string

const (
	FailureModeUnset   FailureMode = ""
	FailureModeError   FailureMode = "error"
	FailureModeForward FailureMode = "forward"
)

// Guard is a single named guard definition, referenced by routes.
type Guard struct {
	ID        string      `toml:"id"`
	Type      GuardType   `toml:"type"`
	OnFailure FailureMode `toml:"on_failure"`
	// Status overrides the statuscode reported when the guard errors.
	Status int `toml:"status"`

	Header      *HeaderGuard      `toml:"header"`
	ContentType *ContentTypeGuard `toml:"content_type"`
	BearerToken *BearerTokenGuard `toml:"bearer_token"`
	RemoteIP    *RemoteIPGuard    `toml:"remote_ip"`
	Query       *QueryGuard       `toml:"query"`
}

// GuardCollection is a collection of Guard definitions.
type GuardCollection []Guard

// HeaderGuard requires a header to be present, optionally with an exact
// value or a regexp the value must match.
type HeaderGuard struct {
	Name    string `toml:"name"`
	Value   string `toml:"value"`
	Pattern string `toml:"pattern"`

	compiled *regexp.Regexp
}

// ContentTypeGuard requires the request Content-Type to carry the given
// media type.
type ContentTypeGuard struct {
	MediaType string `toml:"media_type"`
}

// BearerTokenGuard requires an Authorization bearer token from the set.
// Token values support environment references so secrets stay out of the
// config file.
type BearerTokenGuard struct {
	Tokens []string `toml:"tokens" env_interpolation:"yes"`
}

// RemoteIPGuard requires the client address to fall within one of the
// configured CIDR ranges.
type RemoteIPGuard struct {
	CIDRs []string `toml:"cidrs"`

	compiled []netip.Prefix
}

// QueryGuard requires a query key to be present, optionally matching a
// regexp.
type QueryGuard struct {
	Name    string `toml:"name"`
	Pattern string `toml:"pattern"`

	compiled *regexp.Regexp
}

// DefaultStatus returns the statuscode a guard type reports when it errors
// and no override is configured.
func (t GuardType) DefaultStatus() int {
	switch t {
	case GuardTypeContentType:
		return http.StatusUnsupportedMediaType
	case GuardTypeBearerToken:
		return http.StatusUnauthorized
	case GuardTypeRemoteIP:
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}

// DefaultFailureMode returns the failure behavior for a guard type when the
// config does not choose one. Query guards forward (another candidate may
// not need the key); everything else rejects.
func (t GuardType) DefaultFailureMode() FailureMode {
	if t == GuardTypeQuery {
		return FailureModeForward
	}
	return FailureModeError
}

// EffectiveFailureMode resolves the configured or default failure mode.
func (g *Guard) EffectiveFailureMode() FailureMode {
	if g.OnFailure != FailureModeUnset {
		return g.OnFailure
	}
	return g.Type.DefaultFailureMode()
}

// EffectiveStatus resolves the configured or default error status.
func (g *Guard) EffectiveStatus() int {
	if g.Status != 0 {
		return g.Status
	}
	return g.Type.DefaultStatus()
}

// Validate checks a single guard definition and compiles its patterns.
func (g *Guard) Validate() error {
	var errs []error

	if err := validation.ValidateID(g.ID, "guard ID"); err != nil {
		errs = append(errs, err)
	}

	switch g.OnFailure {
	case FailureModeUnset, FailureModeError, FailureModeForward:
	default:
		errs = append(errs, fmt.Errorf("%w: on_failure %q", errz.ErrInvalidValue, g.OnFailure))
	}

	if g.Status != 0 && (g.Status < 400 || g.Status > 599) {
		errs = append(errs, fmt.Errorf(
			"%w: guard status %d must be in the 4xx-5xx range", errz.ErrInvalidStatusCode, g.Status))
	}

	switch g.Type {
	case GuardTypeHeader:
		errs = append(errs, g.validateHeader())
	case GuardTypeContentType:
		errs = append(errs, g.validateContentType())
	case GuardTypeBearerToken:
		errs = append(errs, g.validateBearerToken())
	case GuardTypeRemoteIP:
		errs = append(errs, g.validateRemoteIP())
	case GuardTypeQuery:
		errs = append(errs, g.validateQuery())
	default:
		errs = append(errs, fmt.Errorf("%w: %q", errz.ErrInvalidGuardType, g.Type))
	}

	return errors.Join(errs...)
}

func (g *Guard) validateHeader() error {
	if g.Header == nil {
		return fmt.Errorf("%w: [guards.header] table for guard %q", errz.ErrMissingRequiredField, g.ID)
	}

	var errs []error
	if g.Header.Name == "" {
		errs = append(errs, fmt.Errorf("%w: header name", errz.ErrMissingRequiredField))
	} else if !httpguts.ValidHeaderFieldName(g.Header.Name) {
		errs = append(errs, fmt.Errorf("%w: header name %q", errz.ErrInvalidValue, g.Header.Name))
	}
	if g.Header.Value != "" && g.Header.Pattern != "" {
		errs = append(errs, fmt.Errorf(
			"%w: header guard takes value or pattern, not both", errz.ErrInvalidValue))
	}
	if g.Header.Pattern != "" {
		re, err := regexp.Compile(g.Header.Pattern)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: header pattern: %w", errz.ErrInvalidValue, err))
		} else {
			g.Header.compiled = re
		}
	}
	return errors.Join(errs...)
}

func (g *Guard) validateContentType() error {
	if g.ContentType == nil {
		return fmt.Errorf(
			"%w: [guards.content_type] table for guard %q", errz.ErrMissingRequiredField, g.ID)
	}
	if g.ContentType.MediaType == "" {
		return fmt.Errorf("%w: media type", errz.ErrMissingRequiredField)
	}
	return nil
}

func (g *Guard) validateBearerToken() error {
	if g.BearerToken == nil {
		return fmt.Errorf(
			"%w: [guards.bearer_token] table for guard %q", errz.ErrMissingRequiredField, g.ID)
	}
	if len(g.BearerToken.Tokens) == 0 {
		return fmt.Errorf("%w: bearer token set", errz.ErrMissingRequiredField)
	}
	for _, tok := range g.BearerToken.Tokens {
		if tok == "" {
			return fmt.Errorf("%w: empty bearer token", errz.ErrInvalidValue)
		}
	}
	return nil
}

func (g *Guard) validateRemoteIP() error {
	if g.RemoteIP == nil {
		return fmt.Errorf(
			"%w: [guards.remote_ip] table for guard %q", errz.ErrMissingRequiredField, g.ID)
	}
	if len(g.RemoteIP.CIDRs) == 0 {
		return fmt.Errorf("%w: CIDR list", errz.ErrMissingRequiredField)
	}

	var errs []error
	g.RemoteIP.compiled = g.RemoteIP.compiled[:0]
	for _, cidr := range g.RemoteIP.CIDRs {
		prefix, err := netip.ParsePrefix(cidr)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: CIDR %q: %w", errz.ErrInvalidValue, cidr, err))
			continue
		}
		g.RemoteIP.compiled = append(g.RemoteIP.compiled, prefix)
	}
	return errors.Join(errs...)
}

func (g *Guard) validateQuery() error {
	if g.Query == nil {
		return fmt.Errorf("%w: [guards.query] table for guard %q", errz.ErrMissingRequiredField, g.ID)
	}

	var errs []error
	if g.Query.Name == "" {
		errs = append(errs, fmt.Errorf("%w: query key name", errz.ErrMissingRequiredField))
	}
	if g.Query.Pattern != "" {
		re, err := regexp.Compile(g.Query.Pattern)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: query pattern: %w", errz.ErrInvalidValue, err))
		} else {
			g.Query.compiled = re
		}
	}
	return errors.Join(errs...)
}

// CompiledHeaderPattern returns the regexp compiled during validation, or
// nil when the guard matches on presence or exact value.
func (h *HeaderGuard) CompiledHeaderPattern() *regexp.Regexp {
	return h.compiled
}

// CompiledPrefixes returns the CIDR prefixes compiled during validation.
func (r *RemoteIPGuard) CompiledPrefixes() []netip.Prefix {
	return r.compiled
}

// CompiledQueryPattern returns the regexp compiled during validation.
func (q *QueryGuard) CompiledQueryPattern() *regexp.Regexp {
	return q.compiled
}

// String returns a short description of the guard.
func (g *Guard) String() string {
	return fmt.Sprintf("Guard{ID: %s, Type: %s}", g.ID, g.Type)
}

// ToTree returns a tree representation of the guard.
func (g *Guard) ToTree() *fancy.ComponentTree {
	tree := fancy.GuardTree(g.ID)
	tree.AddChild(fmt.Sprintf("Type: %s", g.Type))
	tree.AddChild(fmt.Sprintf("On Failure: %s", g.EffectiveFailureMode()))
	if g.Status != 0 {
		tree.AddChild(fmt.Sprintf("Status: %d", g.Status))
	}
	return tree
}

// Validate checks the collection: every guard valid, IDs unique.
func (gc GuardCollection) Validate() error {
	var errs []error

	seen := make(map[string]bool)
	for i := range gc {
		g := &gc[i]
		if err := g.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("guard %d (%s): %w", i, g.ID, err))
		}
		if seen[g.ID] {
			errs = append(errs, fmt.Errorf("%w: guard %q", errz.ErrDuplicateID, g.ID))
		}
		seen[g.ID] = true
	}

	return errors.Join(errs...)
}

// FindByID finds a guard by its ID.
func (gc GuardCollection) FindByID(id string) *Guard {
	for i := range gc {
		if gc[i].ID == id {
			return &gc[i]
		}
	}
	return nil
}
