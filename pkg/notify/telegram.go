package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramConfig selects the bot and the staff chat that receives announcements.
type TelegramConfig struct {
	BotToken    string
	ChatID      int64
	APIEndpoint string
	Timeout     time.Duration
}

// TelegramPublisher posts plain-text announcements to one chat.
type TelegramPublisher struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramPublisher authenticates the bot against the Bot API.
func NewTelegramPublisher(cfg TelegramConfig) (*TelegramPublisher, error) {
	if cfg.BotToken == "" || cfg.ChatID == 0 {
		return nil, fmt.Errorf("telegram bot token and chat id are required")
	}
	endpoint := cfg.APIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	bot, err := tgbotapi.NewBotAPIWithClient(cfg.BotToken, endpoint, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("connect telegram bot: %w", err)
	}
	return &TelegramPublisher{bot: bot, chatID: cfg.ChatID}, nil
}

// Publish sends text to the configured chat.
func (p *TelegramPublisher) Publish(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := p.bot.Send(tgbotapi.NewMessage(p.chatID, text)); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}
