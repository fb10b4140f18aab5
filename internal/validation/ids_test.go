package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		id        string
		fieldName string
		expectErr bool
		errMsg    string
	}{
		{
			name:      "simple alphanumeric",
			id:        "route1",
			fieldName: "route ID",
			expectErr: false,
		},
		{
			name:      "with hyphens and underscores",
			id:        "api-token_v2",
			fieldName: "guard ID",
			expectErr: false,
		},
		{
			name:      "empty",
			id:        "",
			fieldName: "app ID",
			expectErr: true,
			errMsg:    "app ID cannot be empty",
		},
		{
			name:      "starts with hyphen",
			id:        "-bad",
			fieldName: "listener ID",
			expectErr: true,
			errMsg:    "invalid characters",
		},
		{
			name:      "contains spaces",
			id:        "has space",
			fieldName: "route ID",
			expectErr: true,
			errMsg:    "invalid characters",
		},
		{
			name:      "too long",
			id:        strings.Repeat("a", 65),
			fieldName: "route ID",
			expectErr: true,
			errMsg:    "between 1 and 64 characters",
		},
		{
			name:      "max length ok",
			id:        strings.Repeat("a", 64),
			fieldName: "route ID",
			expectErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateID(tt.id, tt.fieldName)
			if tt.expectErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
