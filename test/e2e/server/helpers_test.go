//go:build e2e

package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robbyt/go-supervisor/supervisor"
	"github.com/stretchr/testify/require"

	"github.com/gantryhq/gantry/internal/server/routing"
	"github.com/gantryhq/gantry/internal/server/runnables/cfgloader"
	"github.com/gantryhq/gantry/internal/server/runnables/httplistener"
)

// getTestHTTPAddress reserves a free localhost port and returns it as a
// listen address.
func getTestHTTPAddress(t *testing.T) string {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err, "Failed to reserve a test port")
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())
	return addr
}

// writeTempConfig writes the config content to a temp file and returns its path.
func writeTempConfig(t *testing.T, content string) string {
	t.Helper()

	configPath := filepath.Join(t.TempDir(), "gantry.toml")
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))
	return configPath
}

// startServer wires the full runnable stack from a config file and runs it
// under a supervisor until the test ends. It returns once the server answers
// HTTP requests on baseURL.
func startServer(t *testing.T, ctx context.Context, configPath, baseURL string) {
	t.Helper()

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})
	logger := slog.New(handler)

	loader, err := cfgloader.NewRunner(
		configPath,
		cfgloader.WithContext(ctx),
		cfgloader.WithLogHandler(handler),
	)
	require.NoError(t, err, "Failed to create config loader")

	registry := routing.NewRegistry(loader.GetConfig, logger, prometheus.NewRegistry())

	httpRunner, err := httplistener.NewRunner(
		loader.GetConfig,
		registry,
		httplistener.WithLogger(logger),
	)
	require.NoError(t, err, "Failed to create HTTP listener runner")

	super, err := supervisor.New(
		supervisor.WithContext(ctx),
		supervisor.WithLogHandler(handler),
		supervisor.WithRunnables(loader, registry, httpRunner),
	)
	require.NoError(t, err, "Failed to create supervisor")

	done := make(chan error, 1)
	go func() {
		done <- super.Run()
	}()
	t.Cleanup(func() {
		select {
		case err := <-done:
			require.NoError(t, err, "Supervisor exited with error")
		case <-time.After(10 * time.Second):
			t.Error("Supervisor did not shut down in time")
		}
	})

	client := &http.Client{Timeout: time.Second}
	require.Eventually(t, func() bool {
		resp, err := client.Get(baseURL + "/healthz-probe")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		// any HTTP response means the listener and dispatch tables are up
		return true
	}, 10*time.Second, 50*time.Millisecond, "Server did not become ready")
}

// serverConfig renders the e2e test configuration bound to the given address.
func serverConfig(addr string) string {
	return fmt.Sprintf(`
version = "v1"

[logging]
format = "text"
level = "warn"

[[listeners]]
id = "main"
address = "%s"

[[guards]]
id = "auth"
type = "bearer_token"
[guards.bearer_token]
tokens = ["e2e-token"]

[[apps]]
id = "hello"
type = "static"
[apps.static]
body = "hello, gantry"
content_type = "text/plain; charset=utf-8"

[[apps]]
id = "echo"
type = "echo"

[[apps]]
id = "prometheus"
type = "metrics"

[[apps]]
id = "missing-page"
type = "static"
[apps.static]
body = "nothing here"

[[routes]]
listener = "main"
method = "GET"
path = "/hello"
app = "hello"

[[routes]]
listener = "main"
method = "GET"
path = "/users/{id:int}"
app = "echo"

[[routes]]
listener = "main"
method = "GET"
path = "/secure"
guards = ["auth"]
app = "echo"

[[routes]]
listener = "main"
method = "GET"
path = "/metrics"
app = "prometheus"

[[catchers]]
status = 404
app = "missing-page"
`, addr)
}
