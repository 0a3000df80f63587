package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/jonesrussell/north-cloud/newswatch/internal/domain"
)

const (
	telegramTimeout    = 10 * time.Second
	telegramButtonText = "Ler notícia"
)

// ErrTelegramConfig is returned for a missing token or chat id.
var ErrTelegramConfig = errors.New("telegram token and chat id are required")

// TelegramConfig configures the Telegram sink.
type TelegramConfig struct {
	Token  string
	ChatID int64
	// Endpoint is the Bot API URL format; defaults to tgbotapi.APIEndpoint.
	Endpoint string
}

// TelegramNotifier posts each article to a Telegram chat with a button
// opening the link.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramNotifier authenticates the bot (getMe) and returns the sink.
func NewTelegramNotifier(cfg TelegramConfig) (*TelegramNotifier, error) {
	if cfg.Token == "" || cfg.ChatID == 0 {
		return nil, ErrTelegramConfig
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}

	bot, err := tgbotapi.NewBotAPIWithClient(cfg.Token, endpoint, &http.Client{Timeout: telegramTimeout})
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}

	return &TelegramNotifier{bot: bot, chatID: cfg.ChatID}, nil
}

func (n *TelegramNotifier) Name() string { return "telegram" }

// Notify sends the message. The Bot API client is not context aware, so
// ctx is only checked before sending.
func (n *TelegramNotifier) Notify(ctx context.Context, article domain.Article) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(n.chatID, FormatMessage(article))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL(telegramButtonText, article.Link)),
	)

	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

// FormatMessage renders the plain text body of a notification.
func FormatMessage(article domain.Article) string {
	return fmt.Sprintf("%s\n%s\n%s", NotificationTitle, article.Title, article.Link)
}
