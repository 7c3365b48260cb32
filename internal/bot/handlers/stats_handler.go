package handlers

import (
	"context"
	"fmt"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewStatsHandler returns a handler for /stats. Admin only; wire it
// through the AdminOnly middleware at registration.
func NewStatsHandler(deps HandlerDeps) tgbot.HandlerFunc {
	return func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
		log := deps.Logger.With("handler", "stats")

		_, chatID, ok := senderOf(update)
		if !ok {
			return
		}

		users, reminders, err := deps.Store.Counts(ctx)
		if err != nil {
			log.ErrorContext(ctx, "Failed to read counts", "error", err)
			reply(ctx, b, log, chatID, msgGeneralError)
			return
		}

		text := fmt.Sprintf("📊 Users: %d\nReminders: %d\nArmed jobs: %d",
			users, reminders, deps.Engine.ArmedJobs())
		reply(ctx, b, log, chatID, text)
	}
}
