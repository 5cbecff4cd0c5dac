package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// ErrConfig is returned when required configuration is missing or invalid.
var ErrConfig = errors.New("configuration error")

const (
	SecretStoreSSM      = "ssm"
	SecretStorePostgres = "postgres"
)

type StoreConfig struct {
	Backend          string `env:"SECRET_STORE" envDefault:"ssm"`
	DatabaseURL      string `env:"DATABASE_URL"`
	MigrationsFolder string `env:"MIGRATIONS_FOLDER" envDefault:"db/migrations"`
}

type DanfossConfig struct {
	AccessTokenParamName string `env:"ACCESS_TOKEN_PARAM_NAME,required,notEmpty"`
	APIURL               string `env:"DANFOSS_API_URL" envDefault:"https://api.danfoss.com"`
}

type TelegramConfig struct {
	BotTokenParamName string `env:"TELEGRAM_BOT_TOKEN_PARAM_NAME,required,notEmpty"`
	APIURL            string `env:"TELEGRAM_API_URL" envDefault:"https://api.telegram.org"`
}

type MqttConfig struct {
	Host        string `env:"MQTT_HOST"`
	Username    string `env:"MQTT_USER"`
	Password    string `env:"MQTT_PASS"`
	TopicPrefix string `env:"MQTT_TOPIC_PREFIX" envDefault:"homeassistant"`
}

// CheckConfig configures the temperature alert check.
type CheckConfig struct {
	Store    StoreConfig
	Danfoss  DanfossConfig
	Telegram TelegramConfig
	Mqtt     MqttConfig

	// Threshold in tenths of a degree, e.g. 270 for 27.0°C.
	TemperatureThreshold        int    `env:"TEMPERATURE_THRESHOLD,required,notEmpty"`
	NotificationEmailsParamName string `env:"NOTIFICATION_EMAILS_PARAM_NAME,required,notEmpty"`
	TelegramChatIDsParamName    string `env:"TELEGRAM_CHAT_IDS_PARAM_NAME,required,notEmpty"`
	ExcludeNamePattern          string `env:"EXCLUDE_NAME_PATTERN" envDefault:"Ванна кімната"`
	MeasurementCode             string `env:"MEASUREMENT_CODE" envDefault:"MeasuredValue"`
}

// RotateConfig configures the access token rotation.
type RotateConfig struct {
	Store                StoreConfig
	CredentialsParamName string `env:"CREDENTIALS_PARAM_NAME,required,notEmpty"`
	AccessTokenParamName string `env:"ACCESS_TOKEN_PARAM_NAME,required,notEmpty"`
}

// BotConfig configures the interactive Telegram bot.
type BotConfig struct {
	Store         StoreConfig
	Danfoss       DanfossConfig
	Telegram      TelegramConfig
	WebhookSecret string `env:"TELEGRAM_WEBHOOK_SECRET"`
	ListenAddr    string `env:"LISTEN_ADDR" envDefault:"0.0.0.0:8000"`
	// Timezone of the "updated at" footer in reports.
	Timezone string `env:"BOT_TIMEZONE" envDefault:"Europe/Kyiv"`
}

// ScheduleConfig holds the cron specs used by the schedule command.
type ScheduleConfig struct {
	CheckSchedule  string `env:"CHECK_SCHEDULE" envDefault:"*/15 * * * *"`
	RotateSchedule string `env:"ROTATE_SCHEDULE" envDefault:"*/50 * * * *"`
	RunBot         bool   `env:"SCHEDULE_RUN_BOT" envDefault:"false"`
}

func LoadCheckConfig() (*CheckConfig, error) {
	cfg, err := parse[CheckConfig]()
	if err != nil {
		return nil, err
	}
	if err := cfg.Store.validate(); err != nil {
		return nil, err
	}
	if cfg.TemperatureThreshold <= 0 {
		return nil, fmt.Errorf("%w: TEMPERATURE_THRESHOLD must be > 0", ErrConfig)
	}
	return cfg, nil
}

func LoadRotateConfig() (*RotateConfig, error) {
	cfg, err := parse[RotateConfig]()
	if err != nil {
		return nil, err
	}
	if err := cfg.Store.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadBotConfig() (*BotConfig, error) {
	cfg, err := parse[BotConfig]()
	if err != nil {
		return nil, err
	}
	if err := cfg.Store.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadScheduleConfig() (*ScheduleConfig, error) {
	return parse[ScheduleConfig]()
}

func (s StoreConfig) validate() error {
	switch s.Backend {
	case SecretStoreSSM:
		return nil
	case SecretStorePostgres:
		if s.DatabaseURL == "" {
			return fmt.Errorf("%w: DATABASE_URL is required for the %s secret store", ErrConfig, SecretStorePostgres)
		}
		return nil
	}
	return fmt.Errorf("%w: unknown SECRET_STORE %q", ErrConfig, s.Backend)
}

func parse[T any]() (*T, error) {
	cfg, err := env.ParseAs[T]()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	return &cfg, nil
}
