package mqtt

import (
	"errors"
	"fmt"
	"sync"
	"time"

	paho_mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/anicoll/danfoss-alerts/internal/pkg/config"
)

const Channel = "mqtt"

var (
	errConnectTimeout = errors.New("unable to connect in time")
	errPublishTimeout = errors.New("publish not acknowledged in time")
)

// client is the part of paho_mqtt.Client the service uses.
type client interface {
	Connect() paho_mqtt.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload any) paho_mqtt.Token
}

type service struct {
	client      client
	topicPrefix string
	timeout     time.Duration
	now         func() time.Time
	logger      *zap.Logger

	mu                sync.Mutex
	configuredDevices map[string]struct{}
}

func New(c client, topicPrefix string) *service {
	return &service{
		client:            c,
		topicPrefix:       topicPrefix,
		timeout:           5 * time.Second,
		now:               time.Now,
		logger:            zap.L(),
		configuredDevices: make(map[string]struct{}),
	}
}

// NewClient builds a paho client for the configured broker.
func NewClient(cfg config.MqttConfig) paho_mqtt.Client {
	opts := paho_mqtt.NewClientOptions().
		AddBroker(cfg.Host).
		SetClientID(fmt.Sprintf("danfoss-alerts-%d", time.Now().UnixNano())).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetConnectTimeout(5 * time.Second).
		SetAutoReconnect(false)
	return paho_mqtt.NewClient(opts)
}

func (s *service) Connect() error {
	token := s.client.Connect()
	if !token.WaitTimeout(s.timeout) {
		return errConnectTimeout
	}
	return token.Error()
}

func (s *service) Close() {
	s.client.Disconnect(250)
}

func (s *service) Name() string {
	return Channel
}
