package handlers

import (
	"context"
	"fmt"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewTimezoneHandler returns a handler for /timezone <IANA name>.
func NewTimezoneHandler(deps HandlerDeps) tgbot.HandlerFunc {
	return func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
		log := deps.Logger.With("handler", "timezone")

		userID, chatID, ok := senderOf(update)
		if !ok {
			return
		}

		user, err := deps.loadUser(ctx, userID)
		if err != nil {
			log.ErrorContext(ctx, "Failed to load user", "user_id", userID, "error", err)
			reply(ctx, b, log, chatID, msgGeneralError)
			return
		}

		args := commandArgs(update.Message.Text)
		if len(args) == 0 {
			current := user.Timezone
			if current == "" {
				current = "not set"
			}
			reply(ctx, b, log, chatID, fmt.Sprintf("Your timezone: %s.\nChange it with /timezone <IANA name>, e.g. /timezone Europe/Lisbon", current))
			return
		}

		name := args[0]
		if _, err := time.LoadLocation(name); err != nil {
			reply(ctx, b, log, chatID, msgBadTimezone)
			return
		}

		user.Timezone = name
		if err := deps.Store.UpsertUser(ctx, user); err != nil {
			log.ErrorContext(ctx, "Failed to save timezone", "user_id", userID, "error", err)
			reply(ctx, b, log, chatID, msgGeneralError)
			return
		}
		reply(ctx, b, log, chatID, fmt.Sprintf(msgTimezoneSaved, name))
	}
}

// NewClockHandler returns a handler for /clock <12|24>.
func NewClockHandler(deps HandlerDeps) tgbot.HandlerFunc {
	return func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
		log := deps.Logger.With("handler", "clock")

		userID, chatID, ok := senderOf(update)
		if !ok {
			return
		}

		args := commandArgs(update.Message.Text)
		if len(args) == 0 || (args[0] != "12" && args[0] != "24") {
			reply(ctx, b, log, chatID, msgClockUsage)
			return
		}
		format := args[0] + "h"

		user, err := deps.loadUser(ctx, userID)
		if err != nil {
			log.ErrorContext(ctx, "Failed to load user", "user_id", userID, "error", err)
			reply(ctx, b, log, chatID, msgGeneralError)
			return
		}

		user.TimeFormat = format
		if err := deps.Store.UpsertUser(ctx, user); err != nil {
			log.ErrorContext(ctx, "Failed to save clock format", "user_id", userID, "error", err)
			reply(ctx, b, log, chatID, msgGeneralError)
			return
		}
		reply(ctx, b, log, chatID, fmt.Sprintf(msgClockSaved, format))
	}
}
