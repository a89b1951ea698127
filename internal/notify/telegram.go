package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramNotifier announces title promotions in the community chat.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramNotifier authorizes the bot for the announcements chat.
func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}

	return &TelegramNotifier{bot: bot, chatID: chatID}, nil
}

// NotifyPromotion posts the promotion announcement.
func (n *TelegramNotifier) NotifyPromotion(_ context.Context, username, title string) error {
	msg := tgbotapi.NewMessage(n.chatID, fmt.Sprintf("🏆 %s just reached the %s title!", username, title))
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("send promotion announcement: %w", err)
	}
	return nil
}
