package pagination

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPageRequest(t *testing.T) {
	pr := DefaultPageRequest()

	assert.Equal(t, int64(0), pr.Skip)
	assert.Equal(t, int64(DefaultLimit), pr.Limit)
}

func TestPageRequest_Normalize(t *testing.T) {
	tests := []struct {
		name     string
		input    PageRequest
		expected PageRequest
	}{
		{"zero value", PageRequest{}, PageRequest{Skip: 0, Limit: 10}},
		{"negative skip", PageRequest{Skip: -5, Limit: 3}, PageRequest{Skip: 0, Limit: 3}},
		{"negative limit", PageRequest{Skip: 2, Limit: -1}, PageRequest{Skip: 2, Limit: 10}},
		{"large limit kept", PageRequest{Skip: 0, Limit: 500}, PageRequest{Skip: 0, Limit: 500}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pr := tt.input
			pr.Normalize()
			assert.Equal(t, tt.expected, pr)
		})
	}
}

func TestPageRequest_Clamp(t *testing.T) {
	pr := PageRequest{Skip: 0, Limit: 500}
	pr.Clamp(MaxLimit)
	assert.Equal(t, int64(MaxLimit), pr.Limit)

	pr = PageRequest{}
	pr.Clamp(MaxLimit)
	assert.Equal(t, int64(DefaultLimit), pr.Limit)
}

func TestNewPageRequest(t *testing.T) {
	assert.Equal(t, PageRequest{Skip: 20, Limit: 10}, NewPageRequest(20, 0))
}

func TestNewResult(t *testing.T) {
	t.Run("nil data becomes empty", func(t *testing.T) {
		res := NewResult[string](nil, 0)
		require.NotNil(t, res.Data)

		data, err := json.Marshal(res)
		require.NoError(t, err)
		assert.JSONEq(t, `{"totalCount":0,"data":[]}`, string(data))
	})

	t.Run("keeps total independent of page size", func(t *testing.T) {
		res := NewResult([]int{1, 2}, 7)
		assert.Equal(t, int64(7), res.TotalCount)
		assert.Len(t, res.Data, 2)
	})
}
