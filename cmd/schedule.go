package cmd

import (
	"context"
	"fmt"
	"net/http"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/anicoll/danfoss-alerts/internal/pkg/config"
)

// runSchedule rotates and checks once at start-up, then on cfg's cron specs,
// until ctx is done. A failed run is logged and the next one still fires.
func runSchedule(ctx context.Context, cfg *config.ScheduleConfig, check CheckRunner, rotator TokenRotator, srv *http.Server) error {
	eg, ctx := errgroup.WithContext(ctx)

	c := cron.New()
	if _, err := c.AddFunc(cfg.RotateSchedule, func() {
		_, _ = runRotate(ctx, rotator)
	}); err != nil {
		return fmt.Errorf("invalid rotate schedule %q: %w", cfg.RotateSchedule, err)
	}
	if _, err := c.AddFunc(cfg.CheckSchedule, func() {
		_, _ = runCheck(ctx, check)
	}); err != nil {
		return fmt.Errorf("invalid check schedule %q: %w", cfg.CheckSchedule, err)
	}

	// rotate first so the first check uses a fresh token
	_, _ = runRotate(ctx, rotator)
	_, _ = runCheck(ctx, check)

	c.Start()
	zap.L().Info("scheduler started",
		zap.String("check_schedule", cfg.CheckSchedule),
		zap.String("rotate_schedule", cfg.RotateSchedule),
	)
	eg.Go(func() error {
		<-ctx.Done()
		<-c.Stop().Done()
		zap.L().Info("context done")
		return ctx.Err()
	})

	if srv != nil {
		serve(ctx, eg, srv)
	}
	return eg.Wait()
}
