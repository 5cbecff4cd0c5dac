package cmd

import (
	"context"
	"net/http"

	"github.com/anicoll/danfoss-alerts/internal/pkg/alert"
	"github.com/anicoll/danfoss-alerts/internal/pkg/model"
)

// MockCheckRunner is a mock implementation of the CheckRunner interface.
type MockCheckRunner struct {
	RunFunc func(ctx context.Context) (alert.Result, error)
}

func (m *MockCheckRunner) Run(ctx context.Context) (alert.Result, error) {
	if m.RunFunc != nil {
		return m.RunFunc(ctx)
	}
	return alert.Result{}, nil
}

// MockTokenRotator is a mock implementation of the TokenRotator interface.
type MockTokenRotator struct {
	RotateFunc func(ctx context.Context) (model.AccessTokenSecret, error)
}

func (m *MockTokenRotator) Rotate(ctx context.Context) (model.AccessTokenSecret, error) {
	if m.RotateFunc != nil {
		return m.RotateFunc(ctx)
	}
	return model.AccessTokenSecret{}, nil
}

// MockWebhookProcessor is a mock implementation of the WebhookProcessor interface.
type MockWebhookProcessor struct {
	ProcessFunc func(ctx context.Context, body []byte, secretToken string) (int, []byte)
}

func (m *MockWebhookProcessor) Process(ctx context.Context, body []byte, secretToken string) (int, []byte) {
	if m.ProcessFunc != nil {
		return m.ProcessFunc(ctx, body, secretToken)
	}
	return http.StatusOK, []byte(`{"ok":true}`)
}
