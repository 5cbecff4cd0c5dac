package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	paho_mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/anicoll/danfoss-alerts/internal/pkg/model"
	"github.com/anicoll/danfoss-alerts/internal/pkg/notifier"
)

type mockToken struct {
	completed bool
	err       error
}

func (t *mockToken) Wait() bool                     { return t.completed }
func (t *mockToken) WaitTimeout(time.Duration) bool { return t.completed }
func (t *mockToken) Error() error                   { return t.err }
func (t *mockToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

type mockClient struct {
	ConnectFunc func() paho_mqtt.Token
	PublishFunc func(topic string) paho_mqtt.Token
	published   []published
}

func (m *mockClient) Connect() paho_mqtt.Token {
	if m.ConnectFunc != nil {
		return m.ConnectFunc()
	}
	return &mockToken{completed: true}
}

func (m *mockClient) Disconnect(uint) {}

func (m *mockClient) Publish(topic string, qos byte, retained bool, payload any) paho_mqtt.Token {
	m.published = append(m.published, published{topic: topic, qos: qos, retained: retained, payload: payload.([]byte)})
	if m.PublishFunc != nil {
		return m.PublishFunc(topic)
	}
	return &mockToken{completed: true}
}

func newTestService(t *testing.T, c client) *service {
	s := New(c, "homeassistant")
	s.logger = zaptest.NewLogger(t)
	s.now = func() time.Time { return time.Unix(1700000000, 0) }
	return s
}

var devices = []model.DeviceAboveThreshold{
	{ID: "abc-1", Name: "Kitchen Floor", MeasuredValue: 280, TemperatureCelsius: 28},
	{ID: "abc-2", Name: "Hall Floor", MeasuredValue: 300, TemperatureCelsius: 30},
}

func TestNotify_RegistersOncePerDevice(t *testing.T) {
	c := &mockClient{}
	s := newTestService(t, c)

	tally, err := s.Notify(context.Background(), devices, 27)
	require.NoError(t, err)
	assert.Equal(t, notifier.Tally{Success: 2}, tally)
	require.Len(t, c.published, 4)

	cfg := c.published[0]
	assert.Equal(t, "homeassistant/sensor/danfoss_abc-1/config", cfg.topic)
	assert.True(t, cfg.retained)
	assert.Equal(t, byte(1), cfg.qos)

	var msg model.RegisterMessage
	require.NoError(t, json.Unmarshal(cfg.payload, &msg))
	assert.Equal(t, "homeassistant/sensor/danfoss_abc-1", msg.Tilda)
	assert.Equal(t, "~/state", msg.StateTopic)
	assert.Equal(t, "temperature", msg.DeviceClass)
	assert.Equal(t, "Danfoss", msg.Device.Manufacturer)

	state := c.published[1]
	assert.Equal(t, "homeassistant/sensor/danfoss_abc-1/state", state.topic)
	assert.False(t, state.retained)
	var alert model.AlertState
	require.NoError(t, json.Unmarshal(state.payload, &alert))
	assert.Equal(t, model.AlertState{Temperature: 28, MeasuredValue: 280, ThresholdCelsius: 27, Alert: true, Timestamp: 1700000000}, alert)

	_, err = s.Notify(context.Background(), devices, 27)
	require.NoError(t, err)
	require.Len(t, c.published, 6)
	for _, p := range c.published[4:] {
		assert.True(t, strings.HasSuffix(p.topic, "/state"), p.topic)
	}
}

func TestNotify_DeviceFailureIsIsolated(t *testing.T) {
	c := &mockClient{PublishFunc: func(topic string) paho_mqtt.Token {
		if strings.Contains(topic, "abc-1") {
			return &mockToken{completed: true, err: errors.New("not connected")}
		}
		return &mockToken{completed: true}
	}}
	s := newTestService(t, c)

	tally, err := s.Notify(context.Background(), devices, 27)
	require.NoError(t, err)
	assert.Equal(t, notifier.Tally{Success: 1, Failure: 1}, tally)

	// discovery is retried next time for the failed device
	_, exists := s.configuredDevices["abc-1"]
	assert.False(t, exists)
}

func TestNotify_PublishTimeout(t *testing.T) {
	c := &mockClient{PublishFunc: func(string) paho_mqtt.Token {
		return &mockToken{completed: false}
	}}
	s := newTestService(t, c)

	tally, err := s.Notify(context.Background(), devices[:1], 27)
	require.NoError(t, err)
	assert.Equal(t, notifier.Tally{Failure: 1}, tally)
}

func TestConnect(t *testing.T) {
	s := newTestService(t, &mockClient{})
	assert.NoError(t, s.Connect())

	s = newTestService(t, &mockClient{ConnectFunc: func() paho_mqtt.Token {
		return &mockToken{completed: false}
	}})
	assert.ErrorIs(t, s.Connect(), errConnectTimeout)

	refused := errors.New("connection refused")
	s = newTestService(t, &mockClient{ConnectFunc: func() paho_mqtt.Token {
		return &mockToken{completed: true, err: refused}
	}})
	assert.ErrorIs(t, s.Connect(), refused)
}
