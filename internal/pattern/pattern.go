// Package pattern compiles route path and query patterns into a form the
// request matcher can evaluate. A path pattern is an ordered sequence of
// static-literal or named-dynamic segments, optionally ending in a catch-all:
//
//	/users/{id}/posts/{slug:str}
//	/files/{path...}
//	/orders/{id:int}
//
// Dynamic segments may carry a constraint (int, uuid, str). Constraints are
// checked during dispatch, not during structural matching, so a failed
// constraint abandons the candidate rather than rejecting the request.
package pattern

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofrs/uuid/v5"
)

// Constraint identifies the value check applied to a dynamic segment.
type Constraint string

const (
	ConstraintNone Constraint = ""
	ConstraintStr  Constraint = "str"
	ConstraintInt  Constraint = "int"
	ConstraintUUID Constraint = "uuid"
)

var (
	ErrEmptyPattern      = errors.New("empty pattern")
	ErrNoLeadingSlash    = errors.New("pattern must start with '/'")
	ErrEmptySegment      = errors.New("empty segment")
	ErrBadSegment        = errors.New("malformed segment")
	ErrBadConstraint     = errors.New("unknown constraint")
	ErrCatchAllNotLast   = errors.New("catch-all segment must be last")
	ErrDuplicateParam    = errors.New("duplicate parameter name")
	ErrBadQueryPattern   = errors.New("malformed query pattern")
	ErrConstraintFailure = errors.New("segment constraint not satisfied")
)

// Segment is one element of a compiled path pattern.
type Segment struct {
	// Literal holds the exact text for static segments.
	Literal string
	// Name holds the parameter name for dynamic and catch-all segments.
	Name string
	// Constraint applies to dynamic segments only.
	Constraint Constraint
	// CatchAll marks a trailing segment that swallows the rest of the path.
	CatchAll bool
}

// Dynamic reports whether the segment binds a parameter.
func (s Segment) Dynamic() bool {
	return s.Name != ""
}

// QueryReq is a single requirement parsed from a query pattern entry,
// either "key=literal" or "key={name}".
type QueryReq struct {
	Key     string
	Literal string
	Name    string
}

// Dynamic reports whether the requirement binds a parameter.
func (q QueryReq) Dynamic() bool {
	return q.Name != ""
}

// Pattern is a compiled path pattern plus its query requirements.
type Pattern struct {
	raw      string
	segments []Segment
	query    []QueryReq
}

// Compile parses a path pattern. The query argument holds zero or more
// "key=value" requirement entries.
func Compile(path string, query []string) (*Pattern, error) {
	if path == "" {
		return nil, ErrEmptyPattern
	}
	if !strings.HasPrefix(path, "/") {
		return nil, fmt.Errorf("%w: %q", ErrNoLeadingSlash, path)
	}

	p := &Pattern{raw: path}
	seen := make(map[string]bool)

	if path != "/" {
		parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
		for i, part := range parts {
			seg, err := parseSegment(part)
			if err != nil {
				return nil, fmt.Errorf("segment %d of %q: %w", i+1, path, err)
			}
			if seg.CatchAll && i != len(parts)-1 {
				return nil, fmt.Errorf("%w: %q", ErrCatchAllNotLast, path)
			}
			if seg.Dynamic() {
				if seen[seg.Name] {
					return nil, fmt.Errorf("%w: %q in %q", ErrDuplicateParam, seg.Name, path)
				}
				seen[seg.Name] = true
			}
			p.segments = append(p.segments, seg)
		}
	}

	for _, entry := range query {
		req, err := parseQueryReq(entry)
		if err != nil {
			return nil, err
		}
		if req.Dynamic() {
			if seen[req.Name] {
				return nil, fmt.Errorf("%w: %q in query of %q", ErrDuplicateParam, req.Name, path)
			}
			seen[req.Name] = true
		}
		p.query = append(p.query, req)
	}

	return p, nil
}

func parseSegment(part string) (Segment, error) {
	if part == "" {
		return Segment{}, ErrEmptySegment
	}

	if !strings.HasPrefix(part, "{") {
		if strings.ContainsAny(part, "{}") {
			return Segment{}, fmt.Errorf("%w: %q", ErrBadSegment, part)
		}
		return Segment{Literal: part}, nil
	}

	if !strings.HasSuffix(part, "}") {
		return Segment{}, fmt.Errorf("%w: %q", ErrBadSegment, part)
	}
	inner := part[1 : len(part)-1]
	if inner == "" {
		return Segment{}, fmt.Errorf("%w: %q", ErrBadSegment, part)
	}

	if name, ok := strings.CutSuffix(inner, "..."); ok {
		if name == "" || strings.ContainsAny(name, "{}:") {
			return Segment{}, fmt.Errorf("%w: %q", ErrBadSegment, part)
		}
		return Segment{Name: name, CatchAll: true}, nil
	}

	name, constraint := inner, ConstraintNone
	if idx := strings.IndexByte(inner, ':'); idx >= 0 {
		name = inner[:idx]
		switch Constraint(inner[idx+1:]) {
		case ConstraintStr:
			constraint = ConstraintStr
		case ConstraintInt:
			constraint = ConstraintInt
		case ConstraintUUID:
			constraint = ConstraintUUID
		default:
			return Segment{}, fmt.Errorf("%w: %q", ErrBadConstraint, inner[idx+1:])
		}
	}
	if name == "" || strings.ContainsAny(name, "{}:") {
		return Segment{}, fmt.Errorf("%w: %q", ErrBadSegment, part)
	}

	return Segment{Name: name, Constraint: constraint}, nil
}

func parseQueryReq(entry string) (QueryReq, error) {
	key, value, found := strings.Cut(entry, "=")
	if !found || key == "" {
		return QueryReq{}, fmt.Errorf("%w: %q", ErrBadQueryPattern, entry)
	}

	if strings.HasPrefix(value, "{") && strings.HasSuffix(value, "}") {
		name := value[1 : len(value)-1]
		if name == "" || strings.ContainsAny(name, "{}:") {
			return QueryReq{}, fmt.Errorf("%w: %q", ErrBadQueryPattern, entry)
		}
		return QueryReq{Key: key, Name: name}, nil
	}
	if strings.ContainsAny(value, "{}") {
		return QueryReq{}, fmt.Errorf("%w: %q", ErrBadQueryPattern, entry)
	}

	return QueryReq{Key: key, Literal: value}, nil
}

// String returns the original path pattern text.
func (p *Pattern) String() string {
	return p.raw
}

// Segments returns the compiled path segments.
func (p *Pattern) Segments() []Segment {
	return p.segments
}

// QueryReqs returns the compiled query requirements.
func (p *Pattern) QueryReqs() []QueryReq {
	return p.query
}

// HasCatchAll reports whether the pattern ends in a catch-all segment.
func (p *Pattern) HasCatchAll() bool {
	n := len(p.segments)
	return n > 0 && p.segments[n-1].CatchAll
}

// DefaultRank derives a precedence rank from pattern specificity: more
// static segments rank earlier (lower), dynamic segments rank later, and a
// catch-all pushes the route near the end of the candidate order.
func (p *Pattern) DefaultRank() int {
	rank := 0
	for _, seg := range p.segments {
		switch {
		case seg.CatchAll:
			rank += 100
		case seg.Dynamic():
			rank++
		default:
			rank -= 2
		}
	}
	return rank
}

// SplitPath splits a request path into segments for matching. The root path
// yields an empty slice.
func SplitPath(path string) []string {
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// Match checks the pattern structure against the given path segments and,
// on success, returns the raw values bound to each dynamic segment. Query
// requirements are not evaluated here; see MatchQuery.
func (p *Pattern) Match(segments []string) (map[string]string, bool) {
	params := make(map[string]string)

	for i, seg := range p.segments {
		if seg.CatchAll {
			params[seg.Name] = strings.Join(segments[i:], "/")
			return params, true
		}
		if i >= len(segments) {
			return nil, false
		}
		if seg.Dynamic() {
			params[seg.Name] = segments[i]
			continue
		}
		if seg.Literal != segments[i] {
			return nil, false
		}
	}

	if len(segments) != len(p.segments) {
		return nil, false
	}
	return params, true
}

// MatchQuery checks the query requirements against the given values and, on
// success, returns the parameters bound by dynamic requirements.
func (p *Pattern) MatchQuery(values map[string][]string) (map[string]string, bool) {
	if len(p.query) == 0 {
		return nil, true
	}

	params := make(map[string]string)
	for _, req := range p.query {
		vs, ok := values[req.Key]
		if !ok || len(vs) == 0 {
			return nil, false
		}
		if req.Dynamic() {
			params[req.Name] = vs[0]
			continue
		}
		if vs[0] != req.Literal {
			return nil, false
		}
	}
	return params, true
}

// CheckConstraint converts a raw segment value according to the constraint.
// Unconstrained and str segments pass through as strings.
func CheckConstraint(c Constraint, value string) (any, error) {
	switch c {
	case ConstraintNone, ConstraintStr:
		return value, nil
	case ConstraintInt:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an integer", ErrConstraintFailure, value)
		}
		return n, nil
	case ConstraintUUID:
		id, err := uuid.FromString(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a UUID", ErrConstraintFailure, value)
		}
		return id, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrBadConstraint, c)
	}
}

// Overlaps reports whether two patterns can match the same request path.
// Static segments must agree literally; a dynamic segment unifies with
// anything in its position; a catch-all unifies with any remainder
// (including the empty remainder). Query requirements are ignored: they
// narrow the match set but cannot be proven disjoint in general.
func Overlaps(a, b *Pattern) bool {
	i := 0
	for {
		aDone := i >= len(a.segments)
		bDone := i >= len(b.segments)

		switch {
		case aDone && bDone:
			return true
		case aDone:
			return b.segments[i].CatchAll
		case bDone:
			return a.segments[i].CatchAll
		}

		as, bs := a.segments[i], b.segments[i]
		if as.CatchAll || bs.CatchAll {
			return true
		}
		if !as.Dynamic() && !bs.Dynamic() && as.Literal != bs.Literal {
			return false
		}
		i++
	}
}
