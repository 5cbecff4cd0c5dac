package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/anicoll/danfoss-alerts/internal/pkg/telegram"
)

type mockBot struct {
	HandleUpdateFunc func(ctx context.Context, update telegram.Update) error
	updates          []telegram.Update
}

func (m *mockBot) HandleUpdate(ctx context.Context, update telegram.Update) error {
	m.updates = append(m.updates, update)
	if m.HandleUpdateFunc != nil {
		return m.HandleUpdateFunc(ctx, update)
	}
	return nil
}

func newTestServer(t *testing.T, bot *mockBot, secret string) *httptest.Server {
	s := New(bot, secret)
	s.logger = zaptest.NewLogger(t)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body string, header map[string]string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	require.NoError(t, err)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	var sb strings.Builder
	_, err = sb.ReadFrom(res.Body)
	require.NoError(t, err)
	return res, sb.String()
}

func TestPostWebhook(t *testing.T) {
	bot := &mockBot{}
	srv := newTestServer(t, bot, "")

	res, body := post(t, srv.URL+"/webhook", `{"update_id":9,"message":{"message_id":1,"chat":{"id":42},"date":1,"text":"/start"}}`, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.JSONEq(t, `{"ok":true}`, body)
	assert.Equal(t, "application/json", res.Header.Get("Content-Type"))

	require.Len(t, bot.updates, 1)
	require.NotNil(t, bot.updates[0].Message)
	assert.Equal(t, int64(42), bot.updates[0].Message.Chat.ID)
	assert.Equal(t, "/start", bot.updates[0].Message.Text)
}

func TestPostWebhook_EmptyBody(t *testing.T) {
	bot := &mockBot{}
	srv := newTestServer(t, bot, "")

	res, body := post(t, srv.URL+"/webhook", "", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.JSONEq(t, `{"ok":true}`, body)
	require.Len(t, bot.updates, 1)
	assert.Nil(t, bot.updates[0].Message)
}

func TestPostWebhook_Errors(t *testing.T) {
	bot := &mockBot{HandleUpdateFunc: func(context.Context, telegram.Update) error {
		return errors.New("boom")
	}}
	srv := newTestServer(t, bot, "")

	res, body := post(t, srv.URL+"/webhook", `{"update_id":1}`, nil)
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	assert.JSONEq(t, `{"error":"boom"}`, body)

	res, body = post(t, srv.URL+"/webhook", `{not json`, nil)
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	assert.Contains(t, body, `"error":"invalid update`)
}

func TestPostWebhook_SecretToken(t *testing.T) {
	bot := &mockBot{}
	srv := newTestServer(t, bot, "s3cret")

	res, _ := post(t, srv.URL+"/webhook", `{"update_id":1}`, nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	res, _ = post(t, srv.URL+"/webhook", `{"update_id":1}`, map[string]string{SecretTokenHeader: "wrong"})
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
	assert.Empty(t, bot.updates)

	res, _ = post(t, srv.URL+"/webhook", `{"update_id":1}`, map[string]string{SecretTokenHeader: "s3cret"})
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Len(t, bot.updates, 1)
}

func TestWebhook_MethodAndPath(t *testing.T) {
	srv := newTestServer(t, &mockBot{}, "")

	res, err := http.Get(srv.URL + "/webhook")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)

	res, _ = post(t, srv.URL+"/other", `{}`, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}
