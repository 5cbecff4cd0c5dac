package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/anicoll/danfoss-alerts/internal/pkg/alert"
	"github.com/anicoll/danfoss-alerts/internal/pkg/bot"
	"github.com/anicoll/danfoss-alerts/internal/pkg/config"
	"github.com/anicoll/danfoss-alerts/internal/pkg/danfoss"
	"github.com/anicoll/danfoss-alerts/internal/pkg/database/migration"
	"github.com/anicoll/danfoss-alerts/internal/pkg/model"
	"github.com/anicoll/danfoss-alerts/internal/pkg/mqtt"
	"github.com/anicoll/danfoss-alerts/internal/pkg/notifier"
	"github.com/anicoll/danfoss-alerts/internal/pkg/rotation"
	"github.com/anicoll/danfoss-alerts/internal/pkg/secrets"
	"github.com/anicoll/danfoss-alerts/internal/pkg/server"
	"github.com/anicoll/danfoss-alerts/internal/pkg/telegram"
	"github.com/anicoll/danfoss-alerts/internal/pkg/temperature"
)

// newLogger builds the production logger and installs it as the global.
func newLogger(level string) (*zap.Logger, error) {
	logCfg := zap.NewProductionConfig()

	var err error
	logCfg.Level, err = zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	logCfg.OutputPaths = []string{"stdout"}
	logCfg.ErrorOutputPaths = []string{"stdout"}
	logCfg.Sampling = nil
	logger, err := logCfg.Build(zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel))
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}

func loadAWSConfig(ctx context.Context) (aws.Config, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return cfg, nil
}

// newStore opens the configured secret store. The returned func releases it.
func newStore(ctx context.Context, cfg config.StoreConfig) (secrets.Store, func(), error) {
	switch cfg.Backend {
	case config.SecretStorePostgres:
		if err := migration.Migrate(cfg.DatabaseURL, cfg.MigrationsFolder); err != nil {
			return nil, nil, fmt.Errorf("migrate secrets schema: %w", err)
		}
		conn, err := pgx.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		store := secrets.NewPostgresStore(conn)
		return store, func() { _ = store.Close(context.Background()) }, nil
	default:
		awsCfg, err := loadAWSConfig(ctx)
		if err != nil {
			return nil, nil, err
		}
		return secrets.NewSSMStore(awsCfg), func() {}, nil
	}
}

// newCheckService wires the alert pipeline. The returned func closes the
// store and any broker connection.
func newCheckService(ctx context.Context, cfg *config.CheckConfig) (*alert.Service, func(), error) {
	store, closeStore, err := newStore(ctx, cfg.Store)
	if err != nil {
		return nil, nil, err
	}
	awsCfg, err := loadAWSConfig(ctx)
	if err != nil {
		closeStore()
		return nil, nil, err
	}

	dispatcher := notifier.NewDispatcher(
		notifier.NewEmailNotifier(awsCfg, store, cfg.NotificationEmailsParamName),
		notifier.NewTelegramNotifier(cfg.Telegram.APIURL, store, cfg.Telegram.BotTokenParamName, cfg.TelegramChatIDsParamName),
	)

	cleanup := closeStore
	if cfg.Mqtt.Host != "" {
		broker := mqtt.New(mqtt.NewClient(cfg.Mqtt), cfg.Mqtt.TopicPrefix)
		if err := broker.Connect(); err != nil {
			zap.L().Warn("mqtt unavailable, continuing without it", zap.String("host", cfg.Mqtt.Host), zap.Error(err))
		} else {
			if err := dispatcher.Register(broker); err != nil {
				broker.Close()
				closeStore()
				return nil, nil, err
			}
			cleanup = func() {
				broker.Close()
				closeStore()
			}
		}
	}
	zap.L().Debug("notification channels", zap.Strings("channels", dispatcher.Names()))

	svc := alert.New(
		danfoss.New(cfg.Danfoss.APIURL, cfg.Danfoss.AccessTokenParamName, store),
		temperature.NewChecker(model.StatusCode(cfg.MeasurementCode)),
		dispatcher,
		cfg.TemperatureThreshold,
		cfg.ExcludeNamePattern,
	)
	return svc, cleanup, nil
}

func newRotator(ctx context.Context, cfg *config.RotateConfig) (*rotation.Rotator, func(), error) {
	store, closeStore, err := newStore(ctx, cfg.Store)
	if err != nil {
		return nil, nil, err
	}
	return rotation.New(store, cfg.CredentialsParamName, cfg.AccessTokenParamName), closeStore, nil
}

// newWebhookServer reads the bot token and wires the bot behind the webhook server.
func newWebhookServer(ctx context.Context, cfg *config.BotConfig, store secrets.Reader) (*http.Server, WebhookProcessor, error) {
	token, err := secrets.GetRequired(ctx, store, cfg.Telegram.BotTokenParamName)
	if err != nil {
		return nil, nil, err
	}

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		zap.L().Warn("unknown timezone, using UTC", zap.String("timezone", cfg.Timezone), zap.Error(err))
		location = time.UTC
	}

	b := bot.New(
		telegram.New(cfg.Telegram.APIURL, token),
		danfoss.New(cfg.Danfoss.APIURL, cfg.Danfoss.AccessTokenParamName, store),
		location,
	)
	webhook := server.New(b, cfg.WebhookSecret)
	srv := &http.Server{
		Handler:      webhook.Handler(),
		Addr:         cfg.ListenAddr,
		WriteTimeout: 60 * time.Second,
		ReadTimeout:  15 * time.Second,
	}
	return srv, webhook, nil
}
