package config

import (
	"testing"
	"time"

	gotoml "github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDurationUnmarshalText(t *testing.T) {
	t.Parallel()

	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("90s")))
	assert.Equal(t, 90*time.Second, d.AsDuration())

	require.Error(t, d.UnmarshalText([]byte("ninety seconds")))
}

func TestDurationTOMLDecode(t *testing.T) {
	t.Parallel()

	var doc struct {
		Timeout Duration `toml:"timeout"`
	}
	require.NoError(t, gotoml.Unmarshal([]byte(`timeout = "1m30s"`), &doc))
	assert.Equal(t, 90*time.Second, doc.Timeout.AsDuration())
}

func TestDurationString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "30s", FromDuration(30*time.Second).String())
}
