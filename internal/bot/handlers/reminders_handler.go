package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/chen-fu-rong/skyclock-bot/internal/reminder"
)

// NewRemindersHandler returns a handler for /reminders, listing the
// sender's active reminders.
func NewRemindersHandler(deps HandlerDeps) tgbot.HandlerFunc {
	return func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
		log := deps.Logger.With("handler", "reminders")

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

		reminders, err := deps.Store.ListReminders(ctx, userID)
		if err != nil {
			log.ErrorContext(ctx, "Failed to list reminders", "user_id", userID, "error", err)
			reply(ctx, b, log, chatID, msgGeneralError)
			return
		}
		if len(reminders) == 0 {
			reply(ctx, b, log, chatID, msgNoReminders)
			return
		}

		loc := user.Location()
		layout := clockLayout(user.TimeFormat)
		var sb strings.Builder
		sb.WriteString("Your reminders:\n")
		for _, rec := range reminders {
			freq := "once"
			if rec.Recurring {
				freq = "daily"
			}
			fmt.Fprintf(&sb, "#%d %s at %s, %d min before (%s)\n",
				rec.ID, rec.EventType, rec.EventTimeUTC.In(loc).Format(layout), rec.LeadMinutes, freq)
		}
		reply(ctx, b, log, chatID, sb.String())
	}
}

// NewCancelReminderHandler returns a handler for /cancelreminder <id>.
func NewCancelReminderHandler(deps HandlerDeps) tgbot.HandlerFunc {
	return func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
		log := deps.Logger.With("handler", "cancelreminder")

		userID, chatID, ok := senderOf(update)
		if !ok {
			return
		}

		args := commandArgs(update.Message.Text)
		if len(args) == 0 {
			reply(ctx, b, log, chatID, msgCancelUsage)
			return
		}
		id, err := strconv.ParseInt(strings.TrimPrefix(args[0], "#"), 10, 64)
		if err != nil {
			reply(ctx, b, log, chatID, msgCancelUsage)
			return
		}

		switch err := deps.Engine.Cancel(ctx, id, userID); {
		case err == nil:
			reply(ctx, b, log, chatID, fmt.Sprintf(msgCancelled, id))
		case errors.Is(err, reminder.ErrNotFound):
			reply(ctx, b, log, chatID, msgReminderGone)
		default:
			log.ErrorContext(ctx, "Failed to cancel reminder", "user_id", userID, "reminder_id", id, "error", err)
			reply(ctx, b, log, chatID, msgGeneralError)
		}
	}
}
