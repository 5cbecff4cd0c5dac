package notifier

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/ses"

	"github.com/anicoll/danfoss-alerts/internal/pkg/model"
	"github.com/anicoll/danfoss-alerts/internal/pkg/telegram"
)

type mockSES struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput) (*ses.SendEmailOutput, error)
	calls         []*ses.SendEmailInput
}

func (m *mockSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	m.calls = append(m.calls, params)
	if m.SendEmailFunc != nil {
		return m.SendEmailFunc(ctx, params)
	}
	return &ses.SendEmailOutput{}, nil
}

type mockSender struct {
	SendMessageFunc func(ctx context.Context, req telegram.SendMessageRequest) (*telegram.Message, error)
	calls           []telegram.SendMessageRequest
}

func (m *mockSender) SendMessage(ctx context.Context, req telegram.SendMessageRequest) (*telegram.Message, error) {
	m.calls = append(m.calls, req)
	if m.SendMessageFunc != nil {
		return m.SendMessageFunc(ctx, req)
	}
	return &telegram.Message{MessageID: 1, Chat: telegram.Chat{ID: req.ChatID}}, nil
}

type mockNotifier struct {
	name       string
	NotifyFunc func(ctx context.Context, devices []model.DeviceAboveThreshold, thresholdCelsius float64) (Tally, error)
	calls      int
}

func (m *mockNotifier) Name() string { return m.name }

func (m *mockNotifier) Notify(ctx context.Context, devices []model.DeviceAboveThreshold, thresholdCelsius float64) (Tally, error) {
	m.calls++
	if m.NotifyFunc != nil {
		return m.NotifyFunc(ctx, devices, thresholdCelsius)
	}
	return Tally{Success: 1}, nil
}

var kitchen = []model.DeviceAboveThreshold{
	{ID: "1", Name: "Kitchen Floor", MeasuredValue: 280, TemperatureCelsius: 28.0},
	{ID: "2", Name: "Hall Floor", MeasuredValue: 295, TemperatureCelsius: 29.5},
}
