package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/reshape/internal/logging"
	"github.com/aretw0/reshape/pkg/schema"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	rules, err := schema.Decode([]byte(`
rules:
  - content: item
    rules:
      - name: boost
        conditions:
          - path: damage
            min: 3
        actions:
          set:
            damage:
              expression: "damage * 2"
      - name: number
        actions:
          sequence:
            model_data:
              id: cmd
              start: 1
`))
	require.NoError(t, err)
	return NewHandler(rules, logging.NewNop())
}

func postConvert(t *testing.T, handler http.Handler, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/convert", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestConvertEndpoint(t *testing.T) {
	handler := newTestHandler(t)

	rec := postConvert(t, handler, ConvertRequest{
		Tree: map[string]any{
			"items": map[string]any{"sword": map[string]any{"damage": 5}},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ConvertResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	sword := resp.Tree["items"].(map[string]any)["sword"].(map[string]any)
	assert.Equal(t, float64(10), sword["damage"])
	assert.Equal(t, float64(1), sword["model_data"])
	assert.Empty(t, resp.Diagnostics)
}

func TestConvertEndpointOverrides(t *testing.T) {
	handler := newTestHandler(t)

	rec := postConvert(t, handler, ConvertRequest{
		Tree: map[string]any{
			"items": map[string]any{"sword": map[string]any{"damage": 1}},
		},
		SequenceOverrides: map[string]int{"cmd": 50000},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ConvertResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	sword := resp.Tree["items"].(map[string]any)["sword"].(map[string]any)
	assert.Equal(t, float64(50000), sword["model_data"])
}

func TestConvertEndpointCountersResetPerRequest(t *testing.T) {
	handler := newTestHandler(t)
	body := ConvertRequest{
		Tree: map[string]any{
			"items": map[string]any{"sword": map[string]any{"damage": 1}},
		},
	}

	for i := 0; i < 2; i++ {
		rec := postConvert(t, handler, body)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp ConvertResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		sword := resp.Tree["items"].(map[string]any)["sword"].(map[string]any)
		assert.Equal(t, float64(1), sword["model_data"], "request %d should restart counters", i)
	}
}

func TestConvertEndpointRejectsBadBodies(t *testing.T) {
	handler := newTestHandler(t)

	t.Run("malformed json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/convert", strings.NewReader("{nope"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing tree", func(t *testing.T) {
		rec := postConvert(t, handler, map[string]any{"sequence_overrides": map[string]int{}})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHealthzAndMetrics(t *testing.T) {
	handler := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	// Drive one conversion so the counter moves.
	postConvert(t, handler, ConvertRequest{Tree: map[string]any{
		"items": map[string]any{"sword": map[string]any{"damage": 5}},
	}})

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "reshape_conversions_total 1")
}
