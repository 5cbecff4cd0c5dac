package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/anicoll/danfoss-alerts/internal/pkg/alert"
	"github.com/anicoll/danfoss-alerts/internal/pkg/config"
	"github.com/anicoll/danfoss-alerts/internal/pkg/model"
)

var errLambdaUnsupported = errors.New("schedule cannot run under lambda, use the check and rotate commands")

// CheckCommand runs the temperature alert check once, or per invocation under --lambda.
func CheckCommand(c *cli.Context) error {
	logger, err := newLogger(c.String("log-level"))
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync() // flushes buffer, if any.
	}()

	cfg, err := config.LoadCheckConfig()
	if err != nil {
		return err
	}
	svc, cleanup, err := newCheckService(c.Context, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if c.Bool("lambda") {
		lambda.StartWithOptions(checkHandler(svc), lambda.WithContext(c.Context))
		return nil
	}
	_, err = runCheck(c.Context, svc)
	return err
}

// RotateCommand exchanges the client credentials for a fresh access token.
func RotateCommand(c *cli.Context) error {
	logger, err := newLogger(c.String("log-level"))
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	cfg, err := config.LoadRotateConfig()
	if err != nil {
		return err
	}
	rotator, cleanup, err := newRotator(c.Context, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if c.Bool("lambda") {
		lambda.StartWithOptions(rotateHandler(rotator), lambda.WithContext(c.Context))
		return nil
	}
	_, err = runRotate(c.Context, rotator)
	return err
}

// BotCommand serves the Telegram webhook over HTTP, or through API Gateway under --lambda.
func BotCommand(c *cli.Context) error {
	logger, err := newLogger(c.String("log-level"))
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	cfg, err := config.LoadBotConfig()
	if err != nil {
		return err
	}
	if addr := c.String("listen-addr"); addr != "" {
		cfg.ListenAddr = addr
	}
	store, cleanup, err := newStore(c.Context, cfg.Store)
	if err != nil {
		return err
	}
	defer cleanup()

	if c.Bool("lambda") {
		lambda.StartWithOptions(botHandler(func(ctx context.Context) (WebhookProcessor, error) {
			_, webhook, err := newWebhookServer(ctx, cfg, store)
			return webhook, err
		}), lambda.WithContext(c.Context))
		return nil
	}

	srv, _, err := newWebhookServer(c.Context, cfg, store)
	if err != nil {
		return err
	}
	eg, ctx := errgroup.WithContext(c.Context)
	serve(ctx, eg, srv)
	return eg.Wait()
}

// ScheduleCommand runs the check and the rotation on cron schedules, and the
// webhook server alongside when SCHEDULE_RUN_BOT is set.
func ScheduleCommand(c *cli.Context) error {
	if c.Bool("lambda") {
		return errLambdaUnsupported
	}
	logger, err := newLogger(c.String("log-level"))
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	schedCfg, err := config.LoadScheduleConfig()
	if err != nil {
		return err
	}
	checkCfg, err := config.LoadCheckConfig()
	if err != nil {
		return err
	}
	rotateCfg, err := config.LoadRotateConfig()
	if err != nil {
		return err
	}

	svc, closeCheck, err := newCheckService(c.Context, checkCfg)
	if err != nil {
		return err
	}
	defer closeCheck()
	rotator, closeRotate, err := newRotator(c.Context, rotateCfg)
	if err != nil {
		return err
	}
	defer closeRotate()

	var srv *http.Server
	if schedCfg.RunBot {
		botCfg, err := config.LoadBotConfig()
		if err != nil {
			return err
		}
		if addr := c.String("listen-addr"); addr != "" {
			botCfg.ListenAddr = addr
		}
		store, closeStore, err := newStore(c.Context, botCfg.Store)
		if err != nil {
			return err
		}
		defer closeStore()
		if srv, _, err = newWebhookServer(c.Context, botCfg, store); err != nil {
			return err
		}
	}

	return runSchedule(c.Context, schedCfg, svc, rotator, srv)
}

func runCheck(ctx context.Context, svc CheckRunner) (alert.Result, error) {
	res, err := svc.Run(ctx)
	if err != nil {
		zap.L().Error("temperature check failed", zap.Error(err))
		return res, err
	}
	zap.L().Info("temperature check completed",
		zap.Int("devices_checked", res.DevicesChecked),
		zap.Int("devices_above_threshold", res.DevicesAboveThreshold),
	)
	return res, nil
}

func runRotate(ctx context.Context, r TokenRotator) (model.AccessTokenSecret, error) {
	secret, err := r.Rotate(ctx)
	if err != nil {
		zap.L().Error("error rotating token", zap.Error(err))
		return secret, err
	}
	return secret, nil
}

// serve runs srv until ctx is done, then shuts it down.
func serve(ctx context.Context, eg *errgroup.Group, srv *http.Server) {
	eg.Go(func() error {
		zap.L().Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}
