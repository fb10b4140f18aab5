package routing

import (
	"crypto/subtle"
	"fmt"
	"mime"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/gantryhq/gantry/internal/config"
)

// OutcomeKind is the tri-state result of evaluating a guard against a request.
type OutcomeKind int

const (
	// OutcomeSuccess means the guard passed and may have produced a value.
	OutcomeSuccess OutcomeKind = iota
	// OutcomeForward means the guard failed and the current candidate route
	// is abandoned; dispatch moves on to the next candidate.
	OutcomeForward
	// OutcomeError means the guard failed and dispatch stops with a status.
	OutcomeError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeForward:
		return "forward"
	case OutcomeError:
		return "error"
	default:
		return "unknown"
	}
}

// Outcome is the result of one guard evaluation.
type Outcome struct {
	Kind OutcomeKind
	// Value is the data the guard extracted on success.
	Value any
	// Status is the response status on error outcomes.
	Status int
	// Reason describes the failure for logging and catcher data.
	Reason string
}

// checkFunc inspects a request and returns the extracted value, or an error
// describing why the guard does not hold.
type checkFunc func(r *http.Request) (any, error)

// CompiledGuard is a guard definition bound to its runtime check.
type CompiledGuard struct {
	id          string
	guardType   config.GuardType
	failureMode config.FailureMode
	status      int
	check       checkFunc
}

// ID returns the guard's configured identifier.
func (g *CompiledGuard) ID() string {
	return g.id
}

// Evaluate runs the guard's check and folds the result into an Outcome using
// the guard's failure mode.
func (g *CompiledGuard) Evaluate(r *http.Request) Outcome {
	value, err := g.check(r)
	if err == nil {
		return Outcome{Kind: OutcomeSuccess, Value: value}
	}

	if g.failureMode == config.FailureModeForward {
		return Outcome{Kind: OutcomeForward, Reason: err.Error()}
	}
	return Outcome{Kind: OutcomeError, Status: g.status, Reason: err.Error()}
}

// CompileGuard binds a validated guard definition to its runtime check.
func CompileGuard(cfg *config.Guard) (*CompiledGuard, error) {
	compiled := &CompiledGuard{
		id:          cfg.ID,
		guardType:   cfg.Type,
		failureMode: cfg.EffectiveFailureMode(),
		status:      cfg.EffectiveStatus(),
	}

	switch cfg.Type {
	case config.GuardTypeHeader:
		compiled.check = headerCheck(cfg.Header)
	case config.GuardTypeContentType:
		compiled.check = contentTypeCheck(cfg.ContentType)
	case config.GuardTypeBearerToken:
		compiled.check = bearerTokenCheck(cfg.BearerToken)
	case config.GuardTypeRemoteIP:
		compiled.check = remoteIPCheck(cfg.RemoteIP)
	case config.GuardTypeQuery:
		compiled.check = queryCheck(cfg.Query)
	default:
		return nil, fmt.Errorf("cannot compile guard %q: unknown type %q", cfg.ID, cfg.Type)
	}

	return compiled, nil
}

func headerCheck(cfg *config.HeaderGuard) checkFunc {
	return func(r *http.Request) (any, error) {
		value := r.Header.Get(cfg.Name)
		if value == "" {
			return nil, fmt.Errorf("header %q not present", cfg.Name)
		}
		if cfg.Value != "" && value != cfg.Value {
			return nil, fmt.Errorf("header %q does not have the required value", cfg.Name)
		}
		if re := cfg.CompiledHeaderPattern(); re != nil && !re.MatchString(value) {
			return nil, fmt.Errorf("header %q does not match the required pattern", cfg.Name)
		}
		return value, nil
	}
}

func contentTypeCheck(cfg *config.ContentTypeGuard) checkFunc {
	return func(r *http.Request) (any, error) {
		raw := r.Header.Get("Content-Type")
		if raw == "" {
			return nil, fmt.Errorf("request has no Content-Type")
		}
		mediaType, _, err := mime.ParseMediaType(raw)
		if err != nil {
			return nil, fmt.Errorf("malformed Content-Type %q", raw)
		}
		if !strings.EqualFold(mediaType, cfg.MediaType) {
			return nil, fmt.Errorf("content type %q is not %q", mediaType, cfg.MediaType)
		}
		return mediaType, nil
	}
}

func bearerTokenCheck(cfg *config.BearerTokenGuard) checkFunc {
	return func(r *http.Request) (any, error) {
		auth := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || token == "" {
			return nil, fmt.Errorf("missing bearer token")
		}
		for _, candidate := range cfg.Tokens {
			if subtle.ConstantTimeCompare([]byte(token), []byte(candidate)) == 1 {
				return token, nil
			}
		}
		return nil, fmt.Errorf("bearer token not recognized")
	}
}

func remoteIPCheck(cfg *config.RemoteIPGuard) checkFunc {
	return func(r *http.Request) (any, error) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			// RemoteAddr without a port, e.g. from tests
			host = r.RemoteAddr
		}
		addr, err := netip.ParseAddr(host)
		if err != nil {
			return nil, fmt.Errorf("unparseable remote address %q", r.RemoteAddr)
		}
		addr = addr.Unmap()
		for _, prefix := range cfg.CompiledPrefixes() {
			if prefix.Contains(addr) {
				return addr.String(), nil
			}
		}
		return nil, fmt.Errorf("remote address %s not in any allowed range", addr)
	}
}

func queryCheck(cfg *config.QueryGuard) checkFunc {
	return func(r *http.Request) (any, error) {
		values, ok := r.URL.Query()[cfg.Name]
		if !ok || len(values) == 0 {
			return nil, fmt.Errorf("query key %q not present", cfg.Name)
		}
		value := values[0]
		if re := cfg.CompiledQueryPattern(); re != nil && !re.MatchString(value) {
			return nil, fmt.Errorf("query key %q does not match the required pattern", cfg.Name)
		}
		return value, nil
	}
}

// guardCache memoizes guard outcomes within a single request so a guard
// shared by several candidate routes runs at most once.
type guardCache map[string]Outcome

func (c guardCache) evaluate(g *CompiledGuard, r *http.Request) Outcome {
	if outcome, ok := c[g.id]; ok {
		return outcome
	}
	outcome := g.Evaluate(r)
	c[g.id] = outcome
	return outcome
}
