package cmd

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/anicoll/danfoss-alerts/internal/pkg/alert"
	"github.com/anicoll/danfoss-alerts/internal/pkg/config"
	"github.com/anicoll/danfoss-alerts/internal/pkg/danfoss"
	"github.com/anicoll/danfoss-alerts/internal/pkg/model"
	"github.com/anicoll/danfoss-alerts/internal/pkg/rotation"
)

func useTestLogger(t *testing.T) {
	t.Helper()
	restore := zap.ReplaceGlobals(zaptest.NewLogger(t))
	t.Cleanup(restore)
}

func TestCheckHandler(t *testing.T) {
	useTestLogger(t)
	svc := &MockCheckRunner{RunFunc: func(context.Context) (alert.Result, error) {
		return alert.Result{DevicesChecked: 4, DevicesAboveThreshold: 1}, nil
	}}

	res, err := checkHandler(svc)(context.Background())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.JSONEq(t, `{"message":"Temperature check completed","devices_checked":4,"devices_above_threshold":1}`, res.Body)
}

func TestCheckHandler_FetchError(t *testing.T) {
	useTestLogger(t)
	svc := &MockCheckRunner{RunFunc: func(context.Context) (alert.Result, error) {
		return alert.Result{}, danfoss.ErrTokenExpired
	}}

	_, err := checkHandler(svc)(context.Background())
	assert.ErrorIs(t, err, danfoss.ErrTokenExpired)
}

func TestRotateHandler(t *testing.T) {
	useTestLogger(t)
	expires := int64(1700003600)
	r := &MockTokenRotator{RotateFunc: func(context.Context) (model.AccessTokenSecret, error) {
		return model.AccessTokenSecret{AccessToken: "X", TokenExpiresAt: &expires}, nil
	}}

	res, err := rotateHandler(r)(context.Background())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.JSONEq(t, `{"message":"Token rotated successfully","expires_at":1700003600}`, res.Body)
	assert.NotContains(t, res.Body, `"X"`, "token never leaves the process")

	r.RotateFunc = func(context.Context) (model.AccessTokenSecret, error) {
		return model.AccessTokenSecret{}, rotation.ErrRotation
	}
	_, err = rotateHandler(r)(context.Background())
	assert.ErrorIs(t, err, rotation.ErrRotation)
}

func TestBotHandler(t *testing.T) {
	useTestLogger(t)
	var gotBody, gotSecret string
	p := &MockWebhookProcessor{ProcessFunc: func(_ context.Context, body []byte, secret string) (int, []byte) {
		gotBody, gotSecret = string(body), secret
		return http.StatusOK, []byte(`{"ok":true}`)
	}}
	handler := botHandler(func(context.Context) (WebhookProcessor, error) { return p, nil })

	res, err := handler(context.Background(), events.APIGatewayProxyRequest{
		Body:    `{"update_id":1}`,
		Headers: map[string]string{"x-telegram-bot-api-secret-token": "s3cret"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.JSONEq(t, `{"ok":true}`, res.Body)
	assert.Equal(t, `{"update_id":1}`, gotBody)
	assert.Equal(t, "s3cret", gotSecret)

	_, err = handler(context.Background(), events.APIGatewayProxyRequest{
		Body:            base64.StdEncoding.EncodeToString([]byte(`{"update_id":2}`)),
		IsBase64Encoded: true,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"update_id":2}`, gotBody)
}

func TestBotHandler_InitFailureIsRetried(t *testing.T) {
	useTestLogger(t)
	builds := 0
	handler := botHandler(func(context.Context) (WebhookProcessor, error) {
		builds++
		if builds == 1 {
			return nil, errors.New("required parameter /bot/token is missing")
		}
		return &MockWebhookProcessor{}, nil
	})

	res, err := handler(context.Background(), events.APIGatewayProxyRequest{Body: `{}`})
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	assert.JSONEq(t, `{"error":"required parameter /bot/token is missing"}`, res.Body)

	for i := 0; i < 2; i++ {
		res, err = handler(context.Background(), events.APIGatewayProxyRequest{Body: `{}`})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, res.StatusCode)
	}
	assert.Equal(t, 2, builds)
}

func TestRunSchedule_RunsAtStartupAndStopsOnCancel(t *testing.T) {
	useTestLogger(t)
	var (
		mu    sync.Mutex
		order []string
	)
	record := func(name string) {
		mu.Lock()
		defer mu.Unlock()
		order = append(order, name)
	}
	var checks atomic.Int32
	check := &MockCheckRunner{RunFunc: func(context.Context) (alert.Result, error) {
		record("check")
		checks.Add(1)
		return alert.Result{}, danfoss.ErrTokenExpired
	}}
	rotator := &MockTokenRotator{RotateFunc: func(context.Context) (model.AccessTokenSecret, error) {
		record("rotate")
		return model.AccessTokenSecret{}, nil
	}}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- runSchedule(ctx, &config.ScheduleConfig{CheckSchedule: "0 0 1 1 *", RotateSchedule: "0 0 1 1 *"}, check, rotator, nil)
	}()

	require.Eventually(t, func() bool { return checks.Load() == 1 }, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("runSchedule did not return after cancel")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"rotate", "check"}, order, "a failed check does not stop the scheduler")
}

func TestRunSchedule_InvalidCronExpression(t *testing.T) {
	useTestLogger(t)
	check := &MockCheckRunner{}
	err := runSchedule(context.Background(), &config.ScheduleConfig{CheckSchedule: "every now and then", RotateSchedule: "*/50 * * * *"}, check, &MockTokenRotator{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid check schedule")
}

func TestNewLogger(t *testing.T) {
	restore := zap.ReplaceGlobals(zap.NewNop())
	defer restore()

	logger, err := newLogger("DEBUG")
	require.NoError(t, err)
	assert.Same(t, logger, zap.L())
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))

	_, err = newLogger("LOUD")
	assert.Error(t, err)
}

func TestNewStore_SSM(t *testing.T) {
	t.Setenv("AWS_REGION", "eu-central-1")
	store, cleanup, err := newStore(context.Background(), config.StoreConfig{Backend: config.SecretStoreSSM})
	require.NoError(t, err)
	defer cleanup()
	assert.NotNil(t, store)
}
