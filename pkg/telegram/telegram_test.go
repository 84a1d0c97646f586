package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"apex-hub/config"
	"apex-hub/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBotAPI struct {
	mu       sync.Mutex
	requests []map[string]interface{}
	fail     bool
}

func (f *fakeBotAPI) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/sendMessage"), r.URL.Path)

		var params map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&params))
		f.mu.Lock()
		f.requests = append(f.requests, params)
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if f.fail {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":7,"date":1700000000,"chat":{"id":-1001,"type":"channel"},"text":"ok"}}`))
	}
}

func newTestRelay(t *testing.T, api *fakeBotAPI) *ChannelRelay {
	srv := httptest.NewServer(api.handler(t))
	t.Cleanup(srv.Close)

	relay, err := NewChannelRelay(&config.TelegramConfig{
		APIURL:                    srv.URL,
		BotToken:                  "123:abc",
		ChatID:                    "-1001",
		AlertChatID:               "-2002",
		TimeoutDuration:           5 * time.Second,
		MaxGlobalRequestPerSecond: 50,
	}, logger.NewNop())
	require.NoError(t, err)
	return relay
}

func TestChannelRelay_SendChannelMessage(t *testing.T) {
	api := &fakeBotAPI{}
	relay := newTestRelay(t, api)

	require.True(t, relay.Configured())
	require.NoError(t, relay.SendChannelMessage(context.Background(), "<b>BUY</b> BTC/USD"))

	api.mu.Lock()
	defer api.mu.Unlock()
	require.Len(t, api.requests, 1)
	assert.Equal(t, "-1001", api.requests[0]["chat_id"])
	assert.Equal(t, "<b>BUY</b> BTC/USD", api.requests[0]["text"])
	assert.Equal(t, "HTML", api.requests[0]["parse_mode"])
}

func TestChannelRelay_SendFailure(t *testing.T) {
	relay := newTestRelay(t, &fakeBotAPI{fail: true})

	err := relay.SendChannelMessage(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to send telegram message")
}

func TestChannelRelay_SendAlert(t *testing.T) {
	api := &fakeBotAPI{}
	relay := newTestRelay(t, api)

	relay.SendAlert("ERROR", "storage failed", map[string]interface{}{"asset": "BTC/USD"})

	api.mu.Lock()
	defer api.mu.Unlock()
	require.Len(t, api.requests, 1)
	assert.Equal(t, "-2002", api.requests[0]["chat_id"])
	assert.Contains(t, api.requests[0]["text"], "storage failed")
	assert.Contains(t, api.requests[0]["text"], "asset: BTC/USD")
}

func TestChannelRelay_NotConfigured(t *testing.T) {
	relay, err := NewChannelRelay(&config.TelegramConfig{MaxGlobalRequestPerSecond: 1}, logger.NewNop())
	require.NoError(t, err)

	assert.False(t, relay.Configured())
	assert.False(t, relay.AlertsConfigured())
	assert.ErrorIs(t, relay.SendChannelMessage(context.Background(), "x"), ErrNotConfigured)
	relay.SendAlert("ERROR", "ignored", nil)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab…", truncate("abcdef", 3))
	assert.Len(t, []rune(truncate(strings.Repeat("é", 5000), MaxMessageLength)), MaxMessageLength)
}

func TestFormatErrorAlertMessage(t *testing.T) {
	at := time.Date(2026, time.January, 2, 3, 4, 0, 0, time.UTC)
	msg := FormatErrorAlertMessage(at, "ERROR", "db <down>", "• a: 1\n")
	assert.Contains(t, msg, "[ERROR ALERT]")
	assert.Contains(t, msg, "02 Jan 2026 - 03:04 UTC")
	assert.Contains(t, msg, "db &lt;down&gt;")
}
