package temperature

import (
	"go.uber.org/zap"

	"github.com/anicoll/danfoss-alerts/internal/pkg/model"
)

// Checker evaluates device readings for a single status code.
type Checker struct {
	code   model.StatusCode
	logger *zap.Logger
}

func NewChecker(code model.StatusCode) *Checker {
	return &Checker{
		code:   code,
		logger: zap.L(),
	}
}

// Reading is a device's current temperature in degrees Celsius.
type Reading struct {
	Name        string
	Temperature float64
}

// CheckTemperatures returns the devices whose reading is strictly above
// threshold, in input order. threshold uses the raw unit (tenths of a degree).
// Devices without a numeric reading are skipped.
func (c *Checker) CheckTemperatures(devices []model.Device, threshold int) []model.DeviceAboveThreshold {
	above := []model.DeviceAboveThreshold{}
	for _, device := range devices {
		measured, ok := device.Reading(c.code)
		if !ok || measured <= float64(threshold) {
			continue
		}
		d := model.DeviceAboveThreshold{
			ID:                 device.ID,
			Name:               device.DisplayName(),
			MeasuredValue:      measured,
			TemperatureCelsius: model.ToCelsius(measured),
		}
		above = append(above, d)
		c.logger.Info("device above threshold",
			zap.String("device", d.Name),
			zap.String("device_id", d.ID),
			zap.Float64("temperature_celsius", d.TemperatureCelsius),
			zap.Float64("measured_value", d.MeasuredValue),
		)
	}
	return above
}

// Readings returns the temperature of every device that reports one.
func (c *Checker) Readings(devices []model.Device) []Reading {
	readings := []Reading{}
	for _, device := range devices {
		measured, ok := device.Reading(c.code)
		if !ok {
			continue
		}
		readings = append(readings, Reading{
			Name:        device.DisplayName(),
			Temperature: model.ToCelsius(measured),
		})
	}
	return readings
}
