package bot

import (
	"context"
	"fmt"
	"time"

	tgbot "github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"
)

// Messenger sends replies to a Telegram chat.
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendWebAppButton(ctx context.Context, chatID int64, text, buttonText, url string) error
}

// TelegramMessenger sends through the Bot API.
type TelegramMessenger struct {
	bot     *tgbot.Bot
	timeout time.Duration
}

// NewTelegramMessenger builds a send-only client. Updates arrive through the
// webhook, so the bot is never started and getMe is skipped.
func NewTelegramMessenger(token string, timeout time.Duration, opts ...tgbot.Option) (*TelegramMessenger, error) {
	opts = append([]tgbot.Option{tgbot.WithSkipGetMe()}, opts...)
	b, err := tgbot.New(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &TelegramMessenger{bot: b, timeout: timeout}, nil
}

func (m *TelegramMessenger) SendText(ctx context.Context, chatID int64, text string) error {
	return m.send(ctx, &tgbot.SendMessageParams{ChatID: chatID, Text: text})
}

func (m *TelegramMessenger) SendWebAppButton(ctx context.Context, chatID int64, text, buttonText, url string) error {
	return m.send(ctx, &tgbot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
		ReplyMarkup: &tgmodels.InlineKeyboardMarkup{
			InlineKeyboard: [][]tgmodels.InlineKeyboardButton{{
				{Text: buttonText, WebApp: &tgmodels.WebAppInfo{URL: url}},
			}},
		},
	})
}

func (m *TelegramMessenger) send(ctx context.Context, params *tgbot.SendMessageParams) error {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}
	if _, err := m.bot.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

// DisabledMessenger drops every message. Used when no bot token is configured.
type DisabledMessenger struct{}

func (DisabledMessenger) SendText(ctx context.Context, chatID int64, text string) error {
	logrus.WithField("chat_id", chatID).Debug("Telegram disabled, dropping message")
	return nil
}

func (DisabledMessenger) SendWebAppButton(ctx context.Context, chatID int64, text, buttonText, url string) error {
	logrus.WithField("chat_id", chatID).Debug("Telegram disabled, dropping web app button")
	return nil
}
