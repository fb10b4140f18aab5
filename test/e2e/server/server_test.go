//go:build e2e

// Package server provides end-to-end tests for the gantry server stack.
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerDispatch(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping E2E test in short mode")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	httpAddr := getTestHTTPAddress(t)
	baseURL := "http://" + httpAddr
	configPath := writeTempConfig(t, serverConfig(httpAddr))

	startServer(t, ctx, configPath, baseURL)

	client := &http.Client{Timeout: 2 * time.Second}

	get := func(t *testing.T, path string, header http.Header) (*http.Response, string) {
		t.Helper()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+path, nil)
		require.NoError(t, err)
		for key, values := range header {
			req.Header[key] = values
		}
		resp, err := client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp, string(body)
	}

	t.Run("static route", func(t *testing.T) {
		resp, body := get(t, "/hello", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "hello, gantry", body)
		assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
	})

	t.Run("typed path param reaches the echo app", func(t *testing.T) {
		resp, body := get(t, "/users/42", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var echoed map[string]any
		require.NoError(t, json.Unmarshal([]byte(body), &echoed))
		params, ok := echoed["path_params"].(map[string]any)
		require.True(t, ok, "echo response should carry path params: %s", body)
		assert.Equal(t, "42", params["id"])
	})

	t.Run("constraint failure falls through to the catcher", func(t *testing.T) {
		resp, body := get(t, "/users/not-a-number", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "nothing here", body)
	})

	t.Run("guard rejects without a token", func(t *testing.T) {
		resp, _ := get(t, "/secure", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("guard admits the configured token", func(t *testing.T) {
		resp, _ := get(t, "/secure", http.Header{
			"Authorization": []string{"Bearer e2e-token"},
		})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("method mismatch yields 405 with Allow", func(t *testing.T) {
		req, err := http.NewRequestWithContext(ctx, http.MethodDelete, baseURL+"/hello", nil)
		require.NoError(t, err)
		resp, err := client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		assert.Equal(t, "GET", resp.Header.Get("Allow"))
	})

	t.Run("unknown path uses the 404 catcher", func(t *testing.T) {
		resp, body := get(t, "/nope", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "nothing here", body)
	})

	t.Run("metrics app exposes dispatch counters", func(t *testing.T) {
		resp, body := get(t, "/metrics", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.True(t, strings.Contains(body, "gantry_requests_total"),
			"metrics output should include the request counter")
	})
}
