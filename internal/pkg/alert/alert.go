package alert

import (
	"context"

	"go.uber.org/zap"

	"github.com/anicoll/danfoss-alerts/internal/pkg/model"
	"github.com/anicoll/danfoss-alerts/internal/pkg/notifier"
)

type deviceSource interface {
	GetDevices(ctx context.Context, excludeNamePattern string) ([]model.Device, error)
}

type evaluator interface {
	CheckTemperatures(devices []model.Device, threshold int) []model.DeviceAboveThreshold
}

type dispatcher interface {
	Dispatch(ctx context.Context, devices []model.DeviceAboveThreshold, thresholdCelsius float64) notifier.Tally
}

type Result struct {
	DevicesChecked        int `json:"devices_checked"`
	DevicesAboveThreshold int `json:"devices_above_threshold"`
}

// Service runs one alert check: fetch, evaluate, notify.
type Service struct {
	devices            deviceSource
	checker            evaluator
	dispatcher         dispatcher
	threshold          int
	excludeNamePattern string
	logger             *zap.Logger
}

func New(devices deviceSource, checker evaluator, d dispatcher, threshold int, excludeNamePattern string) *Service {
	return &Service{
		devices:            devices,
		checker:            checker,
		dispatcher:         d,
		threshold:          threshold,
		excludeNamePattern: excludeNamePattern,
		logger:             zap.L(),
	}
}

// Run fails only when devices cannot be fetched. Delivery failures are
// logged by the channels and never surface here.
func (s *Service) Run(ctx context.Context) (Result, error) {
	thresholdCelsius := model.ToCelsius(float64(s.threshold))
	s.logger.Info("starting temperature check", zap.Float64("threshold_celsius", thresholdCelsius))

	devices, err := s.devices.GetDevices(ctx, s.excludeNamePattern)
	if err != nil {
		s.logger.Error("failed to get devices", zap.Error(err))
		return Result{}, err
	}
	s.logger.Info("checking devices", zap.Int("count", len(devices)))

	above := s.checker.CheckTemperatures(devices, s.threshold)
	result := Result{DevicesChecked: len(devices), DevicesAboveThreshold: len(above)}

	if len(above) == 0 {
		s.logger.Info("all temperatures are within normal range")
		return result, nil
	}

	s.logger.Warn("devices above threshold, sending notifications", zap.Int("count", len(above)))
	tally := s.dispatcher.Dispatch(ctx, above, thresholdCelsius)
	s.logger.Info("temperature check completed",
		zap.Int("devices_checked", result.DevicesChecked),
		zap.Int("devices_above_threshold", result.DevicesAboveThreshold),
		zap.Int("notifications_sent", tally.Success),
		zap.Int("notifications_failed", tally.Failure),
	)
	return result, nil
}
