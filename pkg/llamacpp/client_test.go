package llamacpp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completionServer(t *testing.T, status int, content any) (*httptest.Server, <-chan ChatCompletionRequest) {
	t.Helper()
	requests := make(chan ChatCompletionRequest, 8)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		var req ChatCompletionRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		requests <- req
		if status != http.StatusOK {
			http.Error(w, "model not loaded", status)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "cmpl-1",
			"object":  "chat.completion",
			"choices": []any{map[string]any{"index": 0, "message": map[string]any{"role": "assistant", "content": content}}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, requests
}

func TestEstimatePose(t *testing.T) {
	t.Parallel()

	srv, requests := completionServer(t, http.StatusOK,
		`{"keypoints":[{"name":"left_hip","x":0.45,"y":0.6,"confidence":0.7}],"description":"standing"}`)
	c, err := NewClient(srv.URL + "/")
	require.NoError(t, err)

	res, err := c.EstimatePose(context.Background(), "qwen2-vl", "joints please", "aW1n")
	require.NoError(t, err)
	require.Len(t, res.Keypoints, 1)
	assert.Equal(t, "left_hip", res.Keypoints[0].Name)
	assert.Equal(t, "standing", res.Description)

	got := <-requests
	assert.Equal(t, "qwen2-vl", got.Model)
	assert.InDelta(t, 0.1, got.Temperature, 1e-9)
	require.Len(t, got.Messages, 1)
}

func TestArrayContent(t *testing.T) {
	t.Parallel()

	srv, _ := completionServer(t, http.StatusOK, []any{
		map[string]any{"type": "text", "text": "a person"},
	})
	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	out, err := c.SimpleQuery(context.Background(), "m", "describe", "")
	require.NoError(t, err)
	assert.Equal(t, "a person", out)
}

func TestServerError(t *testing.T) {
	t.Parallel()

	srv, _ := completionServer(t, http.StatusServiceUnavailable, nil)
	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	_, err = c.EstimatePose(context.Background(), "m", "p", "aW1n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestDefaultURL(t *testing.T) {
	t.Parallel()

	c, err := NewClient("")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", c.baseURL)
}
