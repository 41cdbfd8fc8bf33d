package telegram

import (
	"context"
	"fmt"
	"strings"

	"diet-planner/internal/config"
	"diet-planner/internal/dietplan"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// maxBodyRunes keeps a day message under Telegram's 4096 character limit.
const maxBodyRunes = 3800

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier delivers diet plan days to a Telegram chat.
type Notifier struct {
	api    sender
	chatID int64
}

// NewNotifier initializes the Telegram Bot API for the configured chat.
func NewNotifier(cfg *config.Config) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}

	return &Notifier{api: bot, chatID: cfg.TelegramChatID}, nil
}

// NotifyDays sends one message per day section, in order. It stops at the
// first failed send or when ctx is done.
func (n *Notifier) NotifyDays(ctx context.Context, user string, days []dietplan.DaySection) error {
	log := zerolog.Ctx(ctx)

	for _, day := range days {
		if err := ctx.Err(); err != nil {
			return err
		}

		msg := tgbotapi.NewMessage(n.chatID, formatDayMarkdown(user, day))
		msg.ParseMode = tgbotapi.ModeMarkdownV2
		if _, err := n.api.Send(msg); err != nil {
			return fmt.Errorf("failed to send day %s: %w", day.Day, err)
		}
		log.Debug().Str("day", day.Day).Int64("chat_id", n.chatID).Msg("Day notification sent")
	}

	return nil
}

func formatDayMarkdown(user string, day dietplan.DaySection) string {
	var sb strings.Builder

	header := fmt.Sprintf("Day %s", day.Day)
	if user != "" {
		header += " for " + user
	}
	sb.WriteString("🥗 *")
	sb.WriteString(tgbotapi.EscapeText(tgbotapi.ModeMarkdownV2, header))
	sb.WriteString("*\n\n")

	body := day.Body()
	if runes := []rune(body); len(runes) > maxBodyRunes {
		body = string(runes[:maxBodyRunes]) + "…"
	}
	sb.WriteString(tgbotapi.EscapeText(tgbotapi.ModeMarkdownV2, body))

	return sb.String()
}
