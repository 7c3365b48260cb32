// Package telegram adapts the go-telegram/bot client to the notifier
// capability the reminder engine consumes.
package telegram

import (
	"context"
	"io"
	"log/slog"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Notifier delivers messages through the Telegram Bot API. Chat IDs equal
// user IDs for private chats, which is all this bot serves.
type Notifier struct {
	bot    *tgbot.Bot
	logger *slog.Logger
}

// NewNotifier wraps an initialized Telegram bot client.
func NewNotifier(b *tgbot.Bot, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Notifier{bot: b, logger: logger.With("component", "notifier")}
}

// SendMessage sends a plain text message to the user.
func (n *Notifier) SendMessage(ctx context.Context, userID int64, text string) error {
	_, err := n.bot.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID: userID,
		Text:   text,
	})
	return err
}

// SendMessageWithKeyboard sends a message with an inline keyboard attached.
func (n *Notifier) SendMessageWithKeyboard(ctx context.Context, userID int64, text string, kb *models.InlineKeyboardMarkup) error {
	_, err := n.bot.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID:      userID,
		Text:        text,
		ReplyMarkup: kb,
	})
	return err
}

// EditMessage replaces the text (and keyboard) of a previously sent message.
func (n *Notifier) EditMessage(ctx context.Context, userID int64, messageID int, text string, kb *models.InlineKeyboardMarkup) error {
	params := &tgbot.EditMessageTextParams{
		ChatID:    userID,
		MessageID: messageID,
		Text:      text,
	}
	if kb != nil {
		params.ReplyMarkup = kb
	}
	_, err := n.bot.EditMessageText(ctx, params)
	return err
}
