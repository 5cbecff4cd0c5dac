package notifier

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/anicoll/danfoss-alerts/internal/pkg/model"
)

var errAlreadyRegistered = errors.New("notifier already registered")

// Dispatcher fans an alert out to every registered channel, one after the other.
type Dispatcher struct {
	notifiers []Notifier
	logger    *zap.Logger
}

func NewDispatcher(notifiers ...Notifier) *Dispatcher {
	d := &Dispatcher{logger: zap.L()}
	for _, n := range notifiers {
		_ = d.Register(n)
	}
	return d
}

func (d *Dispatcher) Register(n Notifier) error {
	for _, existing := range d.notifiers {
		if existing.Name() == n.Name() {
			return fmt.Errorf("%s: %w", n.Name(), errAlreadyRegistered)
		}
	}
	d.notifiers = append(d.notifiers, n)
	return nil
}

func (d *Dispatcher) Names() []string {
	names := make([]string, 0, len(d.notifiers))
	for _, n := range d.notifiers {
		names = append(names, n.Name())
	}
	return names
}

// Dispatch runs every channel. Channel errors and panics are logged and
// never reach the caller; the returned Tally sums all channels.
func (d *Dispatcher) Dispatch(ctx context.Context, devices []model.DeviceAboveThreshold, thresholdCelsius float64) Tally {
	total := Tally{}
	for _, n := range d.notifiers {
		tally, err := d.notify(ctx, n, devices, thresholdCelsius)
		if err != nil {
			d.logger.Error("failed to send notifications", zap.String("channel", n.Name()), zap.Error(err))
			continue
		}
		d.logger.Debug("notified", zap.String("channel", n.Name()), zap.Int("success", tally.Success), zap.Int("failure", tally.Failure))
		total = total.Add(tally)
	}
	return total
}

func (d *Dispatcher) notify(ctx context.Context, n Notifier, devices []model.DeviceAboveThreshold, thresholdCelsius float64) (tally Tally, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notifier %s panicked: %v", n.Name(), r)
		}
	}()
	return n.Notify(ctx, devices, thresholdCelsius)
}
