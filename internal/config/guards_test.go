package config

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gantryhq/gantry/internal/config/errz"
)

func TestGuardValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		guard   Guard
		wantErr error
	}{
		{
			name: "header presence",
			guard: Guard{
				ID:     "accept",
				Type:   GuardTypeHeader,
				Header: &HeaderGuard{Name: "Accept"},
			},
		},
		{
			name: "header with pattern",
			guard: Guard{
				ID:     "accept-json",
				Type:   GuardTypeHeader,
				Header: &HeaderGuard{Name: "Accept", Pattern: `application/(json|\*)`},
			},
		},
		{
			name: "header value and pattern conflict",
			guard: Guard{
				ID:     "conflict",
				Type:   GuardTypeHeader,
				Header: &HeaderGuard{Name: "Accept", Value: "x", Pattern: "y"},
			},
			wantErr: errz.ErrInvalidValue,
		},
		{
			name: "header bad name",
			guard: Guard{
				ID:     "bad-name",
				Type:   GuardTypeHeader,
				Header: &HeaderGuard{Name: "Bad Header Name"},
			},
			wantErr: errz.ErrInvalidValue,
		},
		{
			name: "header bad regexp",
			guard: Guard{
				ID:     "bad-re",
				Type:   GuardTypeHeader,
				Header: &HeaderGuard{Name: "Accept", Pattern: "("},
			},
			wantErr: errz.ErrInvalidValue,
		},
		{
			name:    "header missing table",
			guard:   Guard{ID: "no-table", Type: GuardTypeHeader},
			wantErr: errz.ErrMissingRequiredField,
		},
		{
			name: "content type",
			guard: Guard{
				ID:          "json-only",
				Type:        GuardTypeContentType,
				ContentType: &ContentTypeGuard{MediaType: "application/json"},
			},
		},
		{
			name: "bearer token",
			guard: Guard{
				ID:          "api",
				Type:        GuardTypeBearerToken,
				BearerToken: &BearerTokenGuard{Tokens: []string{"s3cr3t"}},
			},
		},
		{
			name: "bearer token empty set",
			guard: Guard{
				ID:          "api",
				Type:        GuardTypeBearerToken,
				BearerToken: &BearerTokenGuard{},
			},
			wantErr: errz.ErrMissingRequiredField,
		},
		{
			name: "remote ip",
			guard: Guard{
				ID:       "internal",
				Type:     GuardTypeRemoteIP,
				RemoteIP: &RemoteIPGuard{CIDRs: []string{"10.0.0.0/8", "127.0.0.1/32"}},
			},
		},
		{
			name: "remote ip bad cidr",
			guard: Guard{
				ID:       "internal",
				Type:     GuardTypeRemoteIP,
				RemoteIP: &RemoteIPGuard{CIDRs: []string{"10.0.0.0/99"}},
			},
			wantErr: errz.ErrInvalidValue,
		},
		{
			name: "query",
			guard: Guard{
				ID:    "paged",
				Type:  GuardTypeQuery,
				Query: &QueryGuard{Name: "page", Pattern: `\d+`},
			},
		},
		{
			name:    "unknown type",
			guard:   Guard{ID: "x", Type: "cookie"},
			wantErr: errz.ErrInvalidGuardType,
		},
		{
			name: "status out of range",
			guard: Guard{
				ID:     "odd",
				Type:   GuardTypeHeader,
				Status: 200,
				Header: &HeaderGuard{Name: "Accept"},
			},
			wantErr: errz.ErrInvalidStatusCode,
		},
		{
			name: "bad on_failure",
			guard: Guard{
				ID:        "odd",
				Type:      GuardTypeHeader,
				OnFailure: "retry",
				Header:    &HeaderGuard{Name: "Accept"},
			},
			wantErr: errz.ErrInvalidValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.guard.Validate()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestGuardDefaults(t *testing.T) {
	t.Parallel()

	assert.Equal(t, http.StatusUnauthorized, GuardTypeBearerToken.DefaultStatus())
	assert.Equal(t, http.StatusForbidden, GuardTypeRemoteIP.DefaultStatus())
	assert.Equal(t, http.StatusUnsupportedMediaType, GuardTypeContentType.DefaultStatus())
	assert.Equal(t, http.StatusBadRequest, GuardTypeHeader.DefaultStatus())

	assert.Equal(t, FailureModeForward, GuardTypeQuery.DefaultFailureMode())
	assert.Equal(t, FailureModeError, GuardTypeBearerToken.DefaultFailureMode())

	g := Guard{Type: GuardTypeBearerToken, OnFailure: FailureModeForward, Status: 451}
	assert.Equal(t, FailureModeForward, g.EffectiveFailureMode())
	assert.Equal(t, 451, g.EffectiveStatus())

	g = Guard{Type: GuardTypeBearerToken}
	assert.Equal(t, FailureModeError, g.EffectiveFailureMode())
	assert.Equal(t, http.StatusUnauthorized, g.EffectiveStatus())
}

func TestGuardValidate_CompilesPatterns(t *testing.T) {
	t.Parallel()

	g := Guard{
		ID:     "re",
		Type:   GuardTypeHeader,
		Header: &HeaderGuard{Name: "Accept", Pattern: "json"},
	}
	require.NoError(t, g.Validate())
	require.NotNil(t, g.Header.CompiledHeaderPattern())
	assert.True(t, g.Header.CompiledHeaderPattern().MatchString("application/json"))

	ip := Guard{
		ID:       "internal",
		Type:     GuardTypeRemoteIP,
		RemoteIP: &RemoteIPGuard{CIDRs: []string{"10.0.0.0/8"}},
	}
	require.NoError(t, ip.Validate())
	assert.Len(t, ip.RemoteIP.CompiledPrefixes(), 1)
}
