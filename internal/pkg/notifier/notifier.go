package notifier

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/anicoll/danfoss-alerts/internal/pkg/model"
)

// Notifier delivers an alert for the given devices over one channel.
// Per-recipient failures are counted in the Tally, not returned.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, devices []model.DeviceAboveThreshold, thresholdCelsius float64) (Tally, error)
}

type Tally struct {
	Success int
	Failure int
}

func (t Tally) Add(other Tally) Tally {
	return Tally{Success: t.Success + other.Success, Failure: t.Failure + other.Failure}
}

// deliver calls send once per recipient, in order. A failing send never
// stops the next one.
func deliver[T any](logger *zap.Logger, channel string, recipients []T, send func(T) error) Tally {
	tally := lo.Reduce(recipients, func(agg Tally, recipient T, _ int) Tally {
		if err := send(recipient); err != nil {
			logger.Error("failed to send notification",
				zap.String("channel", channel),
				zap.String("recipient", fmt.Sprint(recipient)),
				zap.Error(err),
			)
			return Tally{Success: agg.Success, Failure: agg.Failure + 1}
		}
		return Tally{Success: agg.Success + 1, Failure: agg.Failure}
	}, Tally{})

	logger.Info("notification sending completed",
		zap.String("channel", channel),
		zap.Int("success", tally.Success),
		zap.Int("failure", tally.Failure),
	)
	return tally
}
