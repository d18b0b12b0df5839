package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gopkg.in/telebot.v3"
)

// TelegramSink sends messages to a chat through the Telegram Bot API.
type TelegramSink struct {
	bot  *telebot.Bot
	chat *telebot.Chat
}

// NewTelegramSink builds a sink for chatID. An empty apiURL uses the public
// Bot API. The bot is created offline, so no request is made until Send.
func NewTelegramSink(token string, chatID int64, apiURL string, timeout time.Duration) (*TelegramSink, error) {
	bot, err := telebot.NewBot(telebot.Settings{
		URL:     apiURL,
		Token:   token,
		Client:  &http.Client{Timeout: timeout},
		Offline: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	return &TelegramSink{
		bot:  bot,
		chat: &telebot.Chat{ID: chatID},
	}, nil
}

// Send posts msg as a Markdown text message.
func (s *TelegramSink) Send(ctx context.Context, msg Message) error {
	// telebot has no context support, so honour cancellation up front.
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := s.bot.Send(s.chat, telegramText(msg), &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	if err != nil {
		return fmt.Errorf("send telegram message: %w: %w", ErrDeliveryFailed, err)
	}

	return nil
}

// telegramText renders msg in Telegram's legacy Markdown, where bold is a
// single asterisk.
func telegramText(msg Message) string {
	body := strings.ReplaceAll(msg.Body, "**", "*")
	if msg.Title == "" {
		return body
	}

	return "*" + msg.Title + "*\n" + body
}
