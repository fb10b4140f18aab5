package routing

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofrs/uuid/v5"
)

type ctxKey int

const requestIDKey ctxKey = iota

// RequestIDFromContext returns the request ID assigned by the dispatcher, or
// empty when the context did not pass through one.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// Dispatcher is the http.Handler for one listener. It assigns request IDs,
// runs the dispatch pipeline against the listener's route table, and records
// metrics for the handled request.
type Dispatcher struct {
	listenerID string
	table      *Table
	catchers   *CatcherTable
	logger     *slog.Logger
	metrics    *Metrics
}

// NewDispatcher creates the handler for a listener's route table.
func NewDispatcher(
	table *Table,
	catchers *CatcherTable,
	logger *slog.Logger,
	metrics *Metrics,
) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		listenerID: table.ListenerID(),
		table:      table,
		catchers:   catchers,
		logger:     logger.With("listener", table.ListenerID()),
		metrics:    metrics,
	}
}

func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	logger := d.logger
	ctx := r.Context()
	if id, err := uuid.NewV7(); err == nil {
		requestID := id.String()
		w.Header().Set("X-Request-Id", requestID)
		ctx = context.WithValue(ctx, requestIDKey, requestID)
		r = r.WithContext(ctx)
		logger = logger.With("request_id", requestID)
	}

	rec := &statusRecorder{ResponseWriter: w}
	routeID := d.dispatch(ctx, rec, r, logger)

	d.metrics.observeRequest(d.listenerID, r.Method, rec.status(), routeID, time.Since(start))
}

// statusRecorder captures the response status for metrics and lets the
// pipeline tell whether a handler already wrote before substituting an
// error response.
type statusRecorder struct {
	http.ResponseWriter
	code  int
	wrote bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wrote {
		r.code = code
		r.wrote = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if !r.wrote {
		r.code = http.StatusOK
		r.wrote = true
	}
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) status() int {
	if !r.wrote {
		return http.StatusOK
	}
	return r.code
}
