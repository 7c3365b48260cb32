package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/chen-fu-rong/skyclock-bot/internal/sky"
)

// NewWaxHandler returns a handler for /wax <event>, listing today's
// occurrences of the event in the user's timezone.
func NewWaxHandler(deps HandlerDeps) tgbot.HandlerFunc {
	return func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
		log := deps.Logger.With("handler", "wax")

		userID, chatID, ok := senderOf(update)
		if !ok {
			return
		}

		args := commandArgs(update.Message.Text)
		if len(args) == 0 {
			reply(ctx, b, log, chatID, "Usage: /wax <geyser|grandma|turtle>")
			return
		}

		kind, err := sky.ParseEventKind(strings.ToLower(args[0]))
		if err != nil {
			if errors.Is(err, sky.ErrUnknownEvent) {
				reply(ctx, b, log, chatID, msgUnknownEvent)
				return
			}
			reply(ctx, b, log, chatID, msgGeneralError)
			return
		}

		user, err := deps.loadUser(ctx, userID)
		if err != nil {
			log.ErrorContext(ctx, "Failed to load user", "user_id", userID, "error", err)
			reply(ctx, b, log, chatID, msgGeneralError)
			return
		}

		loc := user.Location()
		occurrences, err := sky.OccurrencesForDay(kind, deps.today(user), loc)
		if err != nil {
			log.ErrorContext(ctx, "Failed to compute occurrences", "event", kind, "error", err)
			reply(ctx, b, log, chatID, msgGeneralError)
			return
		}

		now := deps.Clock.Now()
		layout := clockLayout(user.TimeFormat)
		var sb strings.Builder
		fmt.Fprintf(&sb, "🕑 %s today (%s):\n", kind, loc)
		for _, occ := range occurrences {
			marker := " "
			if occ.After(now) {
				marker = "•"
			}
			fmt.Fprintf(&sb, "%s %s\n", marker, occ.Format(layout))
		}
		reply(ctx, b, log, chatID, sb.String())
	}
}
