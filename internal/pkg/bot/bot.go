package bot

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/anicoll/danfoss-alerts/internal/pkg/model"
	"github.com/anicoll/danfoss-alerts/internal/pkg/telegram"
)

const (
	FloorButton = "🌡️ Показати температуру підлоги"
	RoomButton  = "🏠 Показати температуру в кімнатах"

	welcomeText = `🌡️ *Danfoss Floor Temperature Bot*

Вітаю! Я можу допомогти перевірити поточну температуру підлоги у вашому будинку.

Виберіть дію з меню нижче.`
	unknownCommandText = "❓ Невідома команда. Використовуйте /start для перегляду доступних опцій."
	mainMenuText       = "Виберіть дію:"
)

type messageSender interface {
	SendMessage(ctx context.Context, req telegram.SendMessageRequest) (*telegram.Message, error)
}

type deviceSource interface {
	GetDevices(ctx context.Context, excludeNamePattern string) ([]model.Device, error)
}

// Bot answers chat messages with temperature reports.
type Bot struct {
	sender   messageSender
	devices  deviceSource
	location *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

func New(sender messageSender, devices deviceSource, location *time.Location) *Bot {
	if location == nil {
		location = time.UTC
	}
	return &Bot{
		sender:   sender,
		devices:  devices,
		location: location,
		now:      time.Now,
		logger:   zap.L(),
	}
}

// MenuKeyboard is the persistent two-button reply keyboard.
func MenuKeyboard() *telegram.ReplyKeyboardMarkup {
	return &telegram.ReplyKeyboardMarkup{
		Keyboard: [][]telegram.KeyboardButton{
			{{Text: FloorButton}},
			{{Text: RoomButton}},
		},
		ResizeKeyboard: true,
	}
}

// HandleUpdate routes a single webhook update. Updates without a message are ignored.
// Failed replies are logged, not returned.
func (b *Bot) HandleUpdate(ctx context.Context, update telegram.Update) error {
	if update.Message == nil {
		return nil
	}
	chatID := update.Message.Chat.ID
	text := update.Message.Text

	switch {
	case strings.HasPrefix(text, "/start"):
		b.send(ctx, chatID, welcomeText, MenuKeyboard())
	case text == FloorButton:
		b.report(ctx, chatID, floorReport)
	case text == RoomButton:
		b.report(ctx, chatID, roomReport)
	case strings.HasPrefix(text, "/"):
		b.send(ctx, chatID, unknownCommandText, nil)
	default:
		b.send(ctx, chatID, mainMenuText, MenuKeyboard())
	}
	return nil
}

func (b *Bot) send(ctx context.Context, chatID int64, text string, keyboard *telegram.ReplyKeyboardMarkup) bool {
	_, err := b.sender.SendMessage(ctx, telegram.SendMessageRequest{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   telegram.ParseModeMarkdown,
		ReplyMarkup: keyboard,
	})
	if err != nil {
		b.logger.Error("failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
		return false
	}
	return true
}
