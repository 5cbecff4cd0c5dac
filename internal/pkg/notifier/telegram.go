package notifier

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/anicoll/danfoss-alerts/internal/pkg/model"
	"github.com/anicoll/danfoss-alerts/internal/pkg/secrets"
	"github.com/anicoll/danfoss-alerts/internal/pkg/telegram"
)

const TelegramChannel = "telegram"

type messageSender interface {
	SendMessage(ctx context.Context, req telegram.SendMessageRequest) (*telegram.Message, error)
}

// TelegramNotifier posts one Markdown alert to every configured chat.
// The bot token and chat ids are both optional; without them the channel
// is skipped.
type TelegramNotifier struct {
	secrets           secrets.Reader
	botTokenParamName string
	chatIDsParamName  string
	newClient         func(token string) messageSender
	greeting          string
	logger            *zap.Logger
}

func NewTelegramNotifier(apiURL string, store secrets.Reader, botTokenParamName, chatIDsParamName string) *TelegramNotifier {
	return &TelegramNotifier{
		secrets:           store,
		botTokenParamName: botTokenParamName,
		chatIDsParamName:  chatIDsParamName,
		newClient: func(token string) messageSender {
			return telegram.New(apiURL, token)
		},
		greeting: defaultGreetingName,
		logger:   zap.L(),
	}
}

func (t *TelegramNotifier) Name() string {
	return TelegramChannel
}

func (t *TelegramNotifier) Notify(ctx context.Context, devices []model.DeviceAboveThreshold, thresholdCelsius float64) (Tally, error) {
	token := secrets.GetOptional(ctx, t.secrets, t.botTokenParamName)
	if token == "" {
		t.logger.Info("telegram notifications not configured (missing bot token)")
		return Tally{}, nil
	}
	chatIDs := secrets.ParseList(secrets.GetOptional(ctx, t.secrets, t.chatIDsParamName))
	if len(chatIDs) == 0 {
		t.logger.Info("telegram notifications not configured (missing chat IDs)")
		return Tally{}, nil
	}
	t.logger.Info("sending telegram notifications", zap.Int("recipients", len(chatIDs)))

	text, err := buildChatMessage(alertData{Greeting: t.greeting, Threshold: thresholdCelsius, Devices: devices})
	if err != nil {
		return Tally{}, err
	}
	client := t.newClient(token)

	return deliver(t.logger, TelegramChannel, chatIDs, func(chatID string) error {
		return t.sendToChat(ctx, client, chatID, text)
	}), nil
}

func (t *TelegramNotifier) sendToChat(ctx context.Context, client messageSender, chatID, text string) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat id %s, chat id must be a number", chatID)
	}

	msg, err := client.SendMessage(ctx, telegram.SendMessageRequest{
		ChatID:    id,
		Text:      text,
		ParseMode: telegram.ParseModeMarkdown,
	})
	if err != nil {
		if telegram.IsChatNotFound(err) {
			t.logger.Error("chat not found, the user must start a conversation with the bot first by sending /start",
				zap.Int64("chat_id", id),
				zap.String("solution", fmt.Sprintf("user with chat id %d should open Telegram, find the bot, and send /start", id)),
			)
		}
		return err
	}
	t.logger.Info("sent telegram notification", zap.Int64("chat_id", id), zap.Int64("message_id", msg.MessageID))
	return nil
}
