package httplistener

import (
	"net/http"
	"testing"

	"github.com/robbyt/go-supervisor/runnables/httpserver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gantryhq/gantry/internal/config"
)

type staticHandlerSource struct{}

func (staticHandlerSource) HandlerFor(string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func testConfigCallback(src string) ConfigCallback {
	return func() (*config.Config, error) {
		cfg, err := config.NewConfigFromBytes([]byte(src))
		if err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
}

const listenerConfig = `
version = "v1"

[[listeners]]
id = "public"
address = "127.0.0.1:0"

[[listeners]]
id = "admin"
address = "127.0.0.1:0"
read_timeout = "5s"

[[apps]]
id = "echo"
type = "echo"

[[routes]]
listener = "public"
path = "/"
app = "echo"
`

func TestNewServer(t *testing.T) {
	t.Parallel()

	route, err := httpserver.NewRouteFromHandlerFunc("test", "/",
		func(w http.ResponseWriter, r *http.Request) {})
	require.NoError(t, err)
	routes := []httpserver.Route{*route}

	t.Run("valid listener", func(t *testing.T) {
		t.Parallel()

		listener := config.Listener{ID: "http", Address: "127.0.0.1:0"}
		server, err := NewServer(&listener, routes)
		require.NoError(t, err)
		assert.Equal(t, "HTTPServer[http]", server.String())
	})

	t.Run("nil listener", func(t *testing.T) {
		t.Parallel()

		_, err := NewServer(nil, routes)
		require.Error(t, err)
	})

	t.Run("missing address", func(t *testing.T) {
		t.Parallel()

		listener := config.Listener{ID: "http"}
		_, err := NewServer(&listener, routes)
		require.Error(t, err)
	})

	t.Run("no routes", func(t *testing.T) {
		t.Parallel()

		listener := config.Listener{ID: "http", Address: "127.0.0.1:0"}
		_, err := NewServer(&listener, nil)
		require.Error(t, err)
	})
}

func TestNewRunner(t *testing.T) {
	t.Parallel()

	t.Run("requires callback", func(t *testing.T) {
		t.Parallel()

		_, err := NewRunner(nil, staticHandlerSource{})
		require.Error(t, err)
	})

	t.Run("requires handler source", func(t *testing.T) {
		t.Parallel()

		_, err := NewRunner(testConfigCallback(listenerConfig), nil)
		require.Error(t, err)
	})

	t.Run("valid", func(t *testing.T) {
		t.Parallel()

		runner, err := NewRunner(testConfigCallback(listenerConfig), staticHandlerSource{})
		require.NoError(t, err)
		assert.Equal(t, "httplistener.Runner", runner.String())
	})
}

func TestBuildCompositeConfig(t *testing.T) {
	t.Parallel()

	runner, err := NewRunner(testConfigCallback(listenerConfig), staticHandlerSource{})
	require.NoError(t, err)

	compositeConfig, err := runner.getRunnerConfig()
	require.NoError(t, err)
	assert.Len(t, compositeConfig.Entries, 2)
}
