package handlers

import (
	"context"
	"log/slog"
	"strings"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/chen-fu-rong/skyclock-bot/internal/database"
)

// reply sends a plain text message, logging delivery failures.
func reply(ctx context.Context, b *tgbot.Bot, log *slog.Logger, chatID int64, text string) {
	if _, err := b.SendMessage(ctx, &tgbot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		log.ErrorContext(ctx, "Failed to send reply", "chat_id", chatID, "error", err)
	}
}

// commandArgs splits the text after the command itself.
func commandArgs(text string) []string {
	fields := strings.Fields(text)
	if len(fields) <= 1 {
		return nil
	}
	return fields[1:]
}

// loadUser fetches the sender's user row, creating it if missing so every
// handler can rely on a row existing.
func (deps HandlerDeps) loadUser(ctx context.Context, userID int64) (*database.User, error) {
	user, err := deps.Store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		user = &database.User{ID: userID, TimeFormat: "24h"}
		if err := deps.Store.UpsertUser(ctx, user); err != nil {
			return nil, err
		}
	}
	return user, nil
}

// clockLayout maps the user's display preference to a time layout.
func clockLayout(format string) string {
	if format == "12h" {
		return "3:04 PM"
	}
	return "15:04"
}

// today returns the current calendar day in the user's timezone.
func (deps HandlerDeps) today(user *database.User) time.Time {
	return deps.Clock.Now().In(user.Location())
}

// senderOf extracts the acting user and chat from a message update.
// Returns false when the update carries no usable sender.
func senderOf(update *models.Update) (userID, chatID int64, ok bool) {
	if update.Message == nil || update.Message.From == nil {
		return 0, 0, false
	}
	return update.Message.From.ID, update.Message.Chat.ID, true
}
