package repository

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"apex-hub/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAnthropic(t *testing.T, handler http.HandlerFunc) *anthropicProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return newAnthropicProvider(config.AI{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Model:   "test-model",
		Timeout: 5 * time.Second,
	})
}

func TestAnthropicProvider_Complete(t *testing.T) {
	provider := newTestAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		var req anthropicRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.Equal(t, 1500, req.MaxTokens)
		assert.Equal(t, "system", req.System)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)
		assert.Equal(t, "prompt", req.Messages[0].Content)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"{\"probability\":"},{"type":"text","text":"70}"}],"stop_reason":"end_turn"}`))
	})

	text, err := provider.Complete(context.Background(), "system", "prompt", 1500)
	require.NoError(t, err)
	assert.Equal(t, `{"probability":70}`, text)
}

func TestAnthropicProvider_ErrorMessage(t *testing.T) {
	provider := newTestAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	})

	_, err := provider.Complete(context.Background(), "system", "prompt", 100)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
	assert.Contains(t, err.Error(), "invalid x-api-key")
}

func TestAnthropicProvider_EmptyContent(t *testing.T) {
	provider := newTestAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[],"stop_reason":"max_tokens"}`))
	})

	_, err := provider.Complete(context.Background(), "system", "prompt", 100)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_tokens")
}

func TestAnthropicProvider_Defaults(t *testing.T) {
	provider := newAnthropicProvider(config.AI{APIKey: "k"})
	assert.Equal(t, anthropicDefaultModel, provider.model)
	assert.Equal(t, ProviderAnthropic, provider.Name())
}
