package types_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bargom/notifydal/internal/api/types"
	"github.com/bargom/notifydal/internal/database/models"
	"github.com/bargom/notifydal/internal/database/mongodb"
)

func TestNewTemplatesResponse(t *testing.T) {
	t.Run("nil becomes empty list", func(t *testing.T) {
		raw, err := json.Marshal(types.NewTemplatesResponse(nil))
		require.NoError(t, err)
		assert.JSONEq(t, `{"data":[]}`, string(raw))
	})

	t.Run("keeps templates", func(t *testing.T) {
		resp := types.NewTemplatesResponse([]models.NotificationTemplate{{Name: "a"}, {Name: "b"}})
		assert.Len(t, resp.Data, 2)
	})
}

func TestHealthFromResult(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	resp := types.HealthFromResult(mongodb.HealthCheckResult{
		Status:    mongodb.HealthStatusHealthy,
		Message:   "ok",
		Latency:   3 * time.Millisecond,
		Details:   map[string]interface{}{"database": "notifydal"},
		Timestamp: ts,
	})

	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "ok", resp.Message)
	assert.Equal(t, "3ms", resp.Latency)
	assert.Equal(t, "notifydal", resp.Details["database"])
	assert.Equal(t, "2024-05-01T12:00:00Z", resp.Timestamp)
}

func TestHealthFromResult_ZeroTimestamp(t *testing.T) {
	resp := types.HealthFromResult(mongodb.HealthCheckResult{Status: mongodb.HealthStatusUnhealthy})

	assert.Equal(t, "unhealthy", resp.Status)
	assert.Empty(t, resp.Latency)
	assert.NotEmpty(t, resp.Timestamp)
}

func TestErrorResponse_OmitsEmptyDetails(t *testing.T) {
	raw, err := json.Marshal(types.ErrorResponse{Error: "not found"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"not found"}`, string(raw))
}
