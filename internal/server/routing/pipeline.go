package routing

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gantryhq/gantry/internal/pattern"
	"github.com/gantryhq/gantry/internal/server/apps"
)

// dispatch walks the candidate routes in rank order. Each candidate's
// constraints and guards run before its app; a forwarding failure hands the
// request to the next candidate, an erroring failure stops dispatch and
// invokes the catcher table. Exhausting the candidates yields a 404, or a
// 405 when the path matched but no route accepts the method. Returns the
// route ID the request was resolved to, or empty.
func (d *Dispatcher) dispatch(
	ctx context.Context,
	w http.ResponseWriter,
	r *http.Request,
	logger *slog.Logger,
) string {
	result := d.table.Match(r)
	cache := make(guardCache)

	for _, candidate := range result.candidates {
		route := candidate.Route

		data, outcome := d.admit(candidate, r, cache)
		switch outcome.Kind {
		case OutcomeForward:
			logger.Debug("Forwarding past candidate",
				"route", route.ID, "reason", outcome.Reason)
			d.metrics.observeForward(d.listenerID, route.ID)
			continue

		case OutcomeError:
			logger.Info("Guard rejected request",
				"route", route.ID,
				"status", outcome.Status,
				"reason", outcome.Reason)
			d.fail(ctx, w, r, outcome.Status, outcome.Reason, logger)
			return route.ID
		}

		logger.Debug("Dispatching request", "route", route.ID, "app", route.AppID)

		if err := route.App.HandleHTTP(ctx, w, r, data); err != nil {
			logger.Error("App failed", "route", route.ID, "app", route.AppID, "error", err)
			if rec, ok := w.(*statusRecorder); ok && !rec.wrote {
				d.fail(ctx, w, r, http.StatusInternalServerError, "handler failed", logger)
			}
		}
		return route.ID
	}

	if result.pathMatched && !methodAcceptable(result, r.Method) {
		allowed := result.allowedMethods()
		if len(allowed) > 0 {
			w.Header().Set("Allow", strings.Join(allowed, ", "))
		}
		d.fail(ctx, w, r, http.StatusMethodNotAllowed,
			fmt.Sprintf("%s not allowed for %s", r.Method, r.URL.Path), logger)
		return ""
	}

	d.fail(ctx, w, r, http.StatusNotFound, "no route matched", logger)
	return ""
}

// methodAcceptable reports whether any path-matching route would accept the
// request method.
func methodAcceptable(result matchResult, method string) bool {
	if result.allowed[""] || result.allowed[method] {
		return true
	}
	return method == "HEAD" && result.allowed["GET"]
}

// admit runs a candidate's constraint checks and guard chain. The returned
// outcome is Success with a populated RequestData, or a Forward/Error
// outcome from the first failure.
func (d *Dispatcher) admit(
	candidate Candidate,
	r *http.Request,
	cache guardCache,
) (*apps.RequestData, Outcome) {
	route := candidate.Route

	typed := make(map[string]any, len(candidate.PathParams))
	for _, seg := range route.Pattern.Segments() {
		if !seg.Dynamic() || seg.CatchAll {
			continue
		}
		value, err := pattern.CheckConstraint(seg.Constraint, candidate.PathParams[seg.Name])
		if err != nil {
			// a failed constraint abandons the candidate, it never rejects
			return nil, Outcome{Kind: OutcomeForward, Reason: err.Error()}
		}
		typed[seg.Name] = value
	}

	guardValues := make(map[string]any, len(route.Guards))
	for _, guard := range route.Guards {
		outcome := cache.evaluate(guard, r)
		if outcome.Kind != OutcomeSuccess {
			return nil, outcome
		}
		guardValues[guard.ID()] = outcome.Value
	}

	return &apps.RequestData{
		RouteID:     route.ID,
		PathParams:  candidate.PathParams,
		TypedParams: typed,
		QueryParams: candidate.QueryParams,
		GuardValues: guardValues,
		StaticData:  route.StaticData,
	}, Outcome{Kind: OutcomeSuccess}
}

// fail resolves an error status through the catcher table, falling back to a
// plain-text response when no catcher applies or the catcher itself fails.
func (d *Dispatcher) fail(
	ctx context.Context,
	w http.ResponseWriter,
	r *http.Request,
	status int,
	reason string,
	logger *slog.Logger,
) {
	d.metrics.observeCatcher(d.listenerID, status)

	if catcher := d.catchers.Lookup(status, r.URL.Path); catcher != nil {
		data := &apps.RequestData{Status: status, Error: reason}
		err := catcher.App.HandleHTTP(ctx, w, r, data)
		if err == nil {
			return
		}
		logger.Error("Catcher failed",
			"app", catcher.App.String(), "status", status, "error", err)
		if rec, ok := w.(*statusRecorder); ok && rec.wrote {
			return
		}
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintf(w, "%d %s\n", status, http.StatusText(status))
}
