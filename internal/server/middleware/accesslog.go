// Package middleware provides httpserver middleware shared by all listeners.
package middleware

import (
	"log/slog"
	"time"

	"github.com/robbyt/go-supervisor/runnables/httpserver"
)

// AccessLogger returns a middleware that logs one line per handled request
// with method, path, status, response size, and latency.
func AccessLogger(logger *slog.Logger) httpserver.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.WithGroup("http")

	return func(rp *httpserver.RequestProcessor) {
		r := rp.Request()
		start := time.Now()

		rp.Next()

		writer := rp.Writer()
		logger.Info("Request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", writer.Status(),
			"bytes", writer.Size(),
			"duration", time.Since(start),
			"remote", r.RemoteAddr,
			"request_id", writer.Header().Get("X-Request-Id"),
		)
	}
}
