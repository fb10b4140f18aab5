package routing

import (
	"net/http"
	"sort"

	"github.com/gantryhq/gantry/internal/pattern"
)

// Candidate is a route whose pattern and method match the request, paired
// with the raw parameters the pattern extracted. Constraint checks and guards
// have not run yet.
type Candidate struct {
	Route       *CompiledRoute
	PathParams  map[string]string
	QueryParams map[string]string
}

// matchResult is everything Match learns about a request in one pass over
// the table.
type matchResult struct {
	// candidates in table (rank) order
	candidates []Candidate
	// pathMatched is true when at least one pattern matched the path
	// structure, regardless of method or query requirements
	pathMatched bool
	// allowed collects the methods of routes whose paths matched, for the
	// Allow header on method-not-allowed responses
	allowed map[string]bool
}

// allowedMethods returns the sorted method list for the Allow header.
func (m *matchResult) allowedMethods() []string {
	methods := make([]string, 0, len(m.allowed))
	for method := range m.allowed {
		if method == "" {
			continue
		}
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return methods
}

// Match walks the table in rank order and collects every route the request
// could be dispatched to. A route becomes a candidate when its path pattern,
// method, and query requirements all hold.
func (t *Table) Match(r *http.Request) matchResult {
	segments := pattern.SplitPath(r.URL.Path)
	query := r.URL.Query()

	result := matchResult{allowed: make(map[string]bool)}

	for _, route := range t.routes {
		pathParams, ok := route.Pattern.Match(segments)
		if !ok {
			continue
		}

		result.pathMatched = true
		result.allowed[route.Method] = true

		if !route.matchesMethod(r.Method) {
			continue
		}

		queryParams, ok := route.Pattern.MatchQuery(query)
		if !ok {
			continue
		}

		result.candidates = append(result.candidates, Candidate{
			Route:       route,
			PathParams:  pathParams,
			QueryParams: queryParams,
		})
	}

	return result
}
