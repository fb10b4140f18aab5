package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/gantryhq/gantry/internal/config"
)

const validConfigContent = `
version = "v1"

[[listeners]]
id = "http"
address = "127.0.0.1:0"

[[apps]]
id = "echo"
type = "echo"

[[routes]]
listener = "http"
method = "GET"
path = "/"
app = "echo"
`

const invalidConfigContent = `
version = "v1"

[[listeners]]
id = "http"
address = "127.0.0.1:0"

[[routes]]
listener = "http"
path = "/"
app = "missing"
`

// createTempConfigFile creates a temporary config file with the given content
func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()

	configPath := filepath.Join(t.TempDir(), "test_config.toml")
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))
	return configPath
}

func runValidate(t *testing.T, args ...string) error {
	t.Helper()

	cmd := &cli.Command{
		Name:     "gantry",
		Commands: []*cli.Command{validateCmd},
	}
	return cmd.Run(context.Background(), append([]string{"gantry", "validate"}, args...))
}

func TestValidateCommand(t *testing.T) {
	t.Run("valid config as positional argument", func(t *testing.T) {
		configPath := createTempConfigFile(t, validConfigContent)
		require.NoError(t, runValidate(t, configPath))
	})

	t.Run("valid config via flag", func(t *testing.T) {
		configPath := createTempConfigFile(t, validConfigContent)
		require.NoError(t, runValidate(t, "--config", configPath))
	})

	t.Run("invalid config", func(t *testing.T) {
		configPath := createTempConfigFile(t, invalidConfigContent)
		err := runValidate(t, configPath)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "validation failed")
	})

	t.Run("missing path", func(t *testing.T) {
		err := runValidate(t)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "config file path required")
	})

	t.Run("nonexistent file", func(t *testing.T) {
		err := runValidate(t, filepath.Join(t.TempDir(), "nope.toml"))
		require.Error(t, err)
	})

	t.Run("tree output", func(t *testing.T) {
		configPath := createTempConfigFile(t, validConfigContent)
		require.NoError(t, runValidate(t, "--tree", configPath))
	})
}

func TestRenderConfigSummary(t *testing.T) {
	configPath := createTempConfigFile(t, validConfigContent)
	cfg, err := config.NewConfig(configPath)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	summary := renderConfigSummary(configPath, cfg)
	assert.Contains(t, summary, configPath)
	assert.Contains(t, summary, "Version: v1")
	assert.Contains(t, summary, "Listeners: 1")
	assert.Contains(t, summary, "Apps: 1")
	assert.Contains(t, summary, "Routes: 1")
	assert.Contains(t, summary, "Catchers: 0")
}
