package cfgloader

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfig = `
version = "v1"

[[listeners]]
id = "http"
address = "127.0.0.1:0"

[[apps]]
id = "echo"
type = "echo"

[[routes]]
listener = "http"
path = "/"
app = "echo"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gantry.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunnerLoadsConfig(t *testing.T) {
	t.Parallel()

	runner, err := NewRunner(writeConfig(t, validConfig))
	require.NoError(t, err)

	_, err = runner.GetConfig()
	require.Error(t, err, "config is not available before Run")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx) }()

	require.Eventually(t, func() bool {
		return runner.IsRunning()
	}, 2*time.Second, 10*time.Millisecond)

	cfg, err := runner.GetConfig()
	require.NoError(t, err)
	assert.Len(t, cfg.Listeners, 1)

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, "stopped", runner.GetState())
}

func TestRunnerBootFailsOnInvalidConfig(t *testing.T) {
	t.Parallel()

	// route references a listener that does not exist
	runner, err := NewRunner(writeConfig(t, `
version = "v1"

[[listeners]]
id = "http"
address = "127.0.0.1:0"

[[apps]]
id = "echo"
type = "echo"

[[routes]]
listener = "missing"
path = "/"
app = "echo"
`))
	require.NoError(t, err)

	err = runner.Run(context.Background())
	require.Error(t, err)
}

func TestRunnerReload(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, validConfig)
	runner, err := NewRunner(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = runner.Run(ctx) }()

	require.Eventually(t, func() bool {
		return runner.IsRunning()
	}, 2*time.Second, 10*time.Millisecond)

	t.Run("invalid reload keeps current config", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte("version = \"v9\"\n"), 0o644))
		runner.Reload()

		cfg, err := runner.GetConfig()
		require.NoError(t, err)
		assert.Len(t, cfg.Routes, 1)
	})

	t.Run("valid reload swaps config", func(t *testing.T) {
		updated := validConfig + `
[[routes]]
listener = "http"
method = "GET"
path = "/extra"
app = "echo"
`
		require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))
		runner.Reload()

		cfg, err := runner.GetConfig()
		require.NoError(t, err)
		assert.Len(t, cfg.Routes, 2)
	})
}
