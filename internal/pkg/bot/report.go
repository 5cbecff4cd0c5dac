package bot

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/anicoll/danfoss-alerts/internal/pkg/model"
	"github.com/anicoll/danfoss-alerts/internal/pkg/temperature"
)

const noDataText = "❌ Дані про температуру недоступні."

type reportKind struct {
	code           model.StatusCode
	loadingMessage string
	header         string
	errorMessage   string
}

var (
	floorReport = reportKind{
		code:           model.MeasuredValue,
		loadingMessage: "⏳ Отримую дані про температуру підлоги...",
		header:         "🌡️ *Поточна температура підлоги*",
		errorMessage:   "❌ Помилка отримання температури підлоги",
	}
	roomReport = reportKind{
		code:           model.TempCurrent,
		loadingMessage: "⏳ Отримую дані про температуру в кімнатах...",
		header:         "🏠 *Температура в кімнатах*",
		errorMessage:   "❌ Помилка отримання температури в кімнатах",
	}
)

var (
	suffixPattern = regexp.MustCompile(`(?i)\s*(Sensor|Floor|Thermostat|Device).*$`)

	roomEmojis = []struct{ room, emoji string }{
		{"вітальня", "🛋️"},
		{"спальня", "🛏️"},
		{"кухня", "🍳"},
		{"ванна кімната", "🚿"},
	}

	ukMonths = [...]string{"січ.", "лют.", "бер.", "квіт.", "трав.", "черв.", "лип.", "серп.", "вер.", "жовт.", "лист.", "груд."}
)

func (b *Bot) report(ctx context.Context, chatID int64, kind reportKind) {
	b.send(ctx, chatID, kind.loadingMessage, nil)

	devices, err := b.devices.GetDevices(ctx, "")
	if err != nil {
		b.logger.Error("failed to fetch temperatures", zap.String("code", kind.code.String()), zap.Error(err))
		msg := fmt.Sprintf("%s: %s\n\nБудь ласка, спробуйте пізніше.", kind.errorMessage, err.Error())
		b.send(ctx, chatID, msg, MenuKeyboard())
		return
	}

	readings := temperature.NewChecker(kind.code).Readings(devices)
	b.send(ctx, chatID, formatReport(readings, kind.header, b.now().In(b.location)), MenuKeyboard())
}

func formatReport(readings []temperature.Reading, header string, now time.Time) string {
	if len(readings) == 0 {
		return noDataText
	}

	sorted := make([]temperature.Reading, len(readings))
	copy(sorted, readings)
	c := collate.New(language.Ukrainian)
	sort.SliceStable(sorted, func(i, j int) bool {
		return c.CompareString(sorted[i].Name, sorted[j].Name) < 0
	})

	lines := []string{header + "\n"}
	for _, r := range sorted {
		emoji := roomEmoji(extractRoomName(r.Name))
		lines = append(lines, fmt.Sprintf("%s *%s*: %.1f°C", emoji, r.Name, r.Temperature))
	}
	lines = append(lines, fmt.Sprintf("\n_Оновлено: %s_", formatTimestamp(now)))
	return strings.Join(lines, "\n")
}

// extractRoomName strips a trailing device descriptor ("Kitchen Floor" -> "Kitchen").
func extractRoomName(deviceName string) string {
	cleaned := strings.TrimSpace(suffixPattern.ReplaceAllString(deviceName, ""))
	if utf8.RuneCountInString(cleaned) < 2 {
		return deviceName
	}
	return cleaned
}

func roomEmoji(room string) string {
	name := strings.ToLower(room)
	for _, e := range roomEmojis {
		if strings.Contains(name, e.room) {
			return e.emoji
		}
	}
	return "🏠"
}

// formatTimestamp renders t the way Ukrainian locales show a short date and time.
func formatTimestamp(t time.Time) string {
	return fmt.Sprintf("%d %s %d р., %02d:%02d", t.Day(), ukMonths[t.Month()-1], t.Year(), t.Hour(), t.Minute())
}
