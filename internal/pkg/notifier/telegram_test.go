package notifier

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/anicoll/danfoss-alerts/internal/pkg/secrets"
	"github.com/anicoll/danfoss-alerts/internal/pkg/telegram"
)

const (
	botTokenParam = "/danfoss/telegram/token"
	chatIDsParam  = "/danfoss/telegram/chat_ids"
)

func newTestTelegramNotifier(values map[string]string, sender *mockSender) (*TelegramNotifier, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.InfoLevel)
	n := NewTelegramNotifier("https://api.telegram.org", secrets.NewMemoryStore(values), botTokenParam, chatIDsParam)
	n.newClient = func(string) messageSender { return sender }
	n.logger = zap.New(core)
	return n, logs
}

func TestTelegramNotifier_InvalidChatIDNeverSent(t *testing.T) {
	sender := &mockSender{}
	n, _ := newTestTelegramNotifier(map[string]string{
		botTokenParam: "123:abc",
		chatIDsParam:  "111, abc, -100222",
	}, sender)

	tally, err := n.Notify(context.Background(), kitchen, 27)
	require.NoError(t, err)
	assert.Equal(t, Tally{Success: 2, Failure: 1}, tally)

	require.Len(t, sender.calls, 2)
	assert.Equal(t, int64(111), sender.calls[0].ChatID)
	assert.Equal(t, int64(-100222), sender.calls[1].ChatID)
	assert.Equal(t, telegram.ParseModeMarkdown, sender.calls[0].ParseMode)
}

func TestTelegramNotifier_ChatNotFound(t *testing.T) {
	sender := &mockSender{
		SendMessageFunc: func(_ context.Context, req telegram.SendMessageRequest) (*telegram.Message, error) {
			return nil, &telegram.APIError{StatusCode: http.StatusBadRequest, Description: "Bad Request: chat not found"}
		},
	}
	n, logs := newTestTelegramNotifier(map[string]string{
		botTokenParam: "123:abc",
		chatIDsParam:  "42",
	}, sender)

	tally, err := n.Notify(context.Background(), kitchen, 27)
	require.NoError(t, err)
	assert.Equal(t, Tally{Failure: 1}, tally)

	remediation := logs.FilterMessageSnippet("/start").All()
	require.NotEmpty(t, remediation)
	assert.Equal(t, int64(42), remediation[0].ContextMap()["chat_id"])
	assert.Contains(t, remediation[0].ContextMap()["solution"], "chat id 42")
}

func TestTelegramNotifier_NotConfigured(t *testing.T) {
	tests := map[string]map[string]string{
		"no token":    {chatIDsParam: "1,2"},
		"empty token": {botTokenParam: "", chatIDsParam: "1,2"},
		"no chat ids": {botTokenParam: "123:abc"},
		"blank ids":   {botTokenParam: "123:abc", chatIDsParam: " , "},
	}
	for name, values := range tests {
		t.Run(name, func(t *testing.T) {
			sender := &mockSender{}
			n, logs := newTestTelegramNotifier(values, sender)

			tally, err := n.Notify(context.Background(), kitchen, 27)
			require.NoError(t, err)
			assert.Equal(t, Tally{}, tally)
			assert.Empty(t, sender.calls)
			assert.Equal(t, 1, logs.FilterMessageSnippet("not configured").Len())
		})
	}
}

func TestBuildChatMessage(t *testing.T) {
	msg, err := buildChatMessage(alertData{Greeting: "Anna", Threshold: 27, Devices: kitchen})
	require.NoError(t, err)
	assert.Equal(t, `🌡️ *Danfoss Temperature Warning*

Hello Anna,

Floor temperature exceeded 27°C threshold.

*Devices with elevated temperatures:*
• Kitchen Floor: 28°C
• Hall Floor: 29.5°C

Please check your Danfoss floor heating system when convenient.`, msg)
}
