package interpolation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpand(t *testing.T) {
	t.Setenv("GANTRY_TEST_PORT", "9090")

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "no references", input: ":8080", want: ":8080"},
		{name: "empty input", input: "", want: ""},
		{name: "set variable", input: ":${GANTRY_TEST_PORT}", want: ":9090"},
		{name: "set variable ignores default", input: ":${GANTRY_TEST_PORT:1234}", want: ":9090"},
		{name: "unset with default", input: ":${GANTRY_TEST_UNSET:8080}", want: ":8080"},
		{name: "unset with empty default", input: "x${GANTRY_TEST_UNSET:}y", want: "xy"},
		{name: "unset without default", input: "${GANTRY_TEST_UNSET}", wantErr: true},
		{name: "multiple references", input: "${GANTRY_TEST_PORT}-${GANTRY_TEST_UNSET:z}", want: "9090-z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Expand(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApply(t *testing.T) {
	t.Setenv("GANTRY_TEST_TOKEN", "tok-123")

	type leaf struct {
		URI string `env_interpolation:"yes"`
	}
	type section struct {
		Address string            `env_interpolation:"yes"`
		Plain   string            // untagged, left alone
		Tokens  []string          `env_interpolation:"yes"`
		Headers map[string]string `env_interpolation:"yes"`
		Leaf    *leaf
	}
	type root struct {
		Sections []section
	}

	t.Run("expands tagged fields at every level", func(t *testing.T) {
		cfg := &root{Sections: []section{{
			Address: ":${GANTRY_TEST_HTTP_PORT:8080}",
			Plain:   "${GANTRY_TEST_TOKEN}",
			Tokens:  []string{"${GANTRY_TEST_TOKEN}", "literal"},
			Headers: map[string]string{"X-Token": "${GANTRY_TEST_TOKEN}"},
			Leaf:    &leaf{URI: "file://${GANTRY_TEST_SCRIPTS:/etc/scripts}/a.risor"},
		}}}

		require.NoError(t, Apply(cfg))
		got := cfg.Sections[0]
		assert.Equal(t, ":8080", got.Address)
		assert.Equal(t, "${GANTRY_TEST_TOKEN}", got.Plain)
		assert.Equal(t, []string{"tok-123", "literal"}, got.Tokens)
		assert.Equal(t, "tok-123", got.Headers["X-Token"])
		assert.Equal(t, "file:///etc/scripts/a.risor", got.Leaf.URI)
	})

	t.Run("missing variable reports the field", func(t *testing.T) {
		cfg := &root{Sections: []section{{Address: "${GANTRY_TEST_NOPE}"}}}
		err := Apply(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Address")
		assert.Contains(t, err.Error(), "GANTRY_TEST_NOPE")
	})

	t.Run("nil and non-struct inputs", func(t *testing.T) {
		require.NoError(t, Apply(nil))
		require.NoError(t, Apply((*root)(nil)))
		require.Error(t, Apply("just a string"))
	})
}
