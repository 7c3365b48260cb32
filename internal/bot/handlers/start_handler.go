package handlers

import (
	"context"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewStartHandler returns a handler for the /start command.
func NewStartHandler(deps HandlerDeps) tgbot.HandlerFunc {
	return func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
		log := deps.Logger.With("handler", "start")

		userID, chatID, ok := senderOf(update)
		if !ok {
			log.WarnContext(ctx, "Start handler received update with no sender", "update_id", update.ID)
			return
		}

		log.InfoContext(ctx, "Handling /start command", "chat_id", chatID, "user_id", userID)
		reply(ctx, b, log, chatID, msgWelcome)
	}
}
