package apps

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsApp exposes the process Prometheus registry in text exposition format.
type MetricsApp struct {
	id      string
	handler http.Handler
}

// NewMetricsApp creates a metrics app backed by the given registry. A nil
// registry falls back to the default Prometheus registerer and gatherer.
func NewMetricsApp(id string, registry *prometheus.Registry) *MetricsApp {
	var handler http.Handler
	if registry != nil {
		handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	} else {
		handler = promhttp.Handler()
	}
	return &MetricsApp{id: id, handler: handler}
}

// String returns the unique identifier of the application
func (a *MetricsApp) String() string {
	return a.id
}

// HandleHTTP serves the metrics scrape endpoint
func (a *MetricsApp) HandleHTTP(
	ctx context.Context,
	w http.ResponseWriter,
	r *http.Request,
	data *RequestData,
) error {
	a.handler.ServeHTTP(w, r)
	return nil
}
