package mqtt

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"github.com/anicoll/danfoss-alerts/internal/pkg/model"
	"github.com/anicoll/danfoss-alerts/internal/pkg/notifier"
)

var _ notifier.Notifier = (*service)(nil)

// Notify publishes discovery config (first time only) and an alert state
// for every device. A failed device does not stop the rest.
func (s *service) Notify(ctx context.Context, devices []model.DeviceAboveThreshold, thresholdCelsius float64) (notifier.Tally, error) {
	tally := notifier.Tally{}
	for _, device := range devices {
		if err := ctx.Err(); err != nil {
			return tally, err
		}
		if err := s.publishDevice(device, thresholdCelsius); err != nil {
			s.logger.Error("failed to publish alert", zap.String("device", device.Name), zap.Error(err))
			tally.Failure++
			continue
		}
		tally.Success++
	}
	s.logger.Info("notification sending completed",
		zap.String("channel", Channel),
		zap.Int("success", tally.Success),
		zap.Int("failure", tally.Failure),
	)
	return tally, nil
}

func (s *service) publishDevice(device model.DeviceAboveThreshold, thresholdCelsius float64) error {
	if err := s.RegisterDevice(device); err != nil {
		return err
	}
	return s.PublishState(device, thresholdCelsius)
}

func (s *service) RegisterDevice(device model.DeviceAboveThreshold) error {
	s.mu.Lock()
	_, exists := s.configuredDevices[device.ID]
	s.mu.Unlock()
	if exists {
		return nil
	}

	payload, err := json.Marshal(s.registerMsg(device))
	if err != nil {
		return err
	}
	if err := s.publish(s.deviceTopic(device)+"/config", 1, true, payload); err != nil {
		return err
	}

	s.mu.Lock()
	s.configuredDevices[device.ID] = struct{}{}
	s.mu.Unlock()
	s.logger.Debug("registered device", zap.String("device", device.Name))
	return nil
}

func (s *service) PublishState(device model.DeviceAboveThreshold, thresholdCelsius float64) error {
	payload, err := json.Marshal(model.AlertState{
		Temperature:      device.TemperatureCelsius,
		MeasuredValue:    device.MeasuredValue,
		ThresholdCelsius: thresholdCelsius,
		Alert:            true,
		Timestamp:        s.now().Unix(),
	})
	if err != nil {
		return err
	}
	return s.publish(s.deviceTopic(device)+"/state", 0, false, payload)
}

func (s *service) publish(topic string, qos byte, retained bool, payload []byte) error {
	token := s.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(s.timeout) {
		return fmt.Errorf("publish %s: %w", topic, errPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

func (s *service) objectID(device model.DeviceAboveThreshold) string {
	return "danfoss_" + slug.Make(device.ID)
}

func (s *service) deviceTopic(device model.DeviceAboveThreshold) string {
	return fmt.Sprintf("%s/sensor/%s", s.topicPrefix, s.objectID(device))
}

func (s *service) registerMsg(device model.DeviceAboveThreshold) model.RegisterMessage {
	id := s.objectID(device)
	return model.RegisterMessage{
		Tilda:             s.deviceTopic(device),
		Name:              device.Name + " Temperature",
		ID:                slug.Make(id + "_" + device.Name),
		StateTopic:        "~/state",
		DeviceClass:       "temperature",
		UnitOfMeasurement: "°C",
		ValueTemplate:     "{{ value_json.temperature }}",
		Device: model.RegisterDevice{
			Name:         device.Name,
			Identifiers:  []string{id},
			Model:        "Ally",
			Manufacturer: "Danfoss",
		},
	}
}
