package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePageRequest(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected PageRequest
		wantErr  bool
	}{
		{"defaults", "", PageRequest{Skip: 0, Limit: 10}, false},
		{"skip and limit", "?skip=20&limit=5", PageRequest{Skip: 20, Limit: 5}, false},
		{"limit zero uses default", "?limit=0", PageRequest{Skip: 0, Limit: 10}, false},
		{"limit capped", "?limit=1000", PageRequest{Skip: 0, Limit: 100}, false},
		{"negative skip", "?skip=-1", PageRequest{}, true},
		{"non-numeric limit", "?limit=abc", PageRequest{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/v1/notification-templates"+tt.query, nil)
			pr, err := ParsePageRequest(req)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidPageParam)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, pr)
		})
	}
}
