// Package handlers contains Telegram bot command and message handlers,
// along with their registration logic and middleware.
package handlers

import (
	"context"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// TrackUser creates a middleware that refreshes the sender's
// last-interaction timestamp, creating the user row on first contact.
func TrackUser(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
			var userID int64
			if update.Message != nil && update.Message.From != nil {
				userID = update.Message.From.ID
			} else if update.CallbackQuery != nil {
				userID = update.CallbackQuery.From.ID
			}

			if userID != 0 {
				log := deps.Logger.With("middleware", "TrackUser")
				if _, err := deps.loadUser(ctx, userID); err != nil {
					log.ErrorContext(ctx, "Failed to ensure user row", "user_id", userID, "error", err)
				} else if err := deps.Store.TouchLastSeen(ctx, userID, deps.Clock.Now()); err != nil {
					log.WarnContext(ctx, "Failed to touch user", "user_id", userID, "error", err)
				}
			}

			next(ctx, b, update)
		}
	}
}

// AdminOnly creates a middleware that restricts a command to the configured
// admin user.
func AdminOnly(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
			userID, chatID, ok := senderOf(update)
			if !ok {
				next(ctx, b, update)
				return
			}

			if userID != deps.Config.Telegram.AdminID {
				log := deps.Logger.With("middleware", "AdminOnly")
				log.WarnContext(ctx, "Unauthorized access attempt", "user_id", userID, "chat_id", chatID)
				reply(ctx, b, log, chatID, msgNotAuthorized)
				return
			}

			next(ctx, b, update)
		}
	}
}
