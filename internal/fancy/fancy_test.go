package fancy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		maxLength int
		want      string
	}{
		{name: "shorter than max", input: "hello", maxLength: 10, want: "hello"},
		{name: "exactly max", input: "hello", maxLength: 5, want: "hello"},
		{name: "longer than max", input: "hello world", maxLength: 8, want: "hello..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, TruncateString(tt.input, tt.maxLength))
		})
	}
}

func TestComponentTree(t *testing.T) {
	t.Parallel()

	ct := NewComponentTree("root")
	require.NotNil(t, ct.Tree())

	ct.AddChild("child-a")
	ct.AddBranch("branch-b")

	rendered := ct.Tree().String()
	assert.True(t, strings.Contains(rendered, "child-a"))
	assert.True(t, strings.Contains(rendered, "branch-b"))
}

func TestDomainTrees(t *testing.T) {
	t.Parallel()

	assert.NotNil(t, ListenerTree("public"))
	assert.NotNil(t, RouteTree("GET /users"))
	assert.NotNil(t, GuardTree("api-token"))
	assert.NotNil(t, AppTree("echo"))
	assert.NotNil(t, CatcherTree("404 /"))
}
