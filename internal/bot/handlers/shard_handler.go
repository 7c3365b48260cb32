package handlers

import (
	"context"
	"fmt"
	"strconv"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/chen-fu-rong/skyclock-bot/internal/sky"
)

// NewShardHandler returns a handler for /shard. An optional argument picks
// another day: a signed day offset ("+1", "-2") or a YYYY-MM-DD date.
func NewShardHandler(deps HandlerDeps) tgbot.HandlerFunc {
	return func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
		log := deps.Logger.With("handler", "shard")

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

		date := deps.today(user)
		if args := commandArgs(update.Message.Text); len(args) > 0 {
			if offset, err := strconv.Atoi(args[0]); err == nil {
				date = date.AddDate(0, 0, offset)
			} else if parsed, err := time.ParseInLocation("2006-01-02", args[0], user.Location()); err == nil {
				date = parsed
			} else {
				reply(ctx, b, log, chatID, "Send a day offset like +1 or a date like 2024-06-01.")
				return
			}
		}

		state := sky.PhaseFor(date)
		if state.Approximate {
			log.WarnContext(ctx, "Shard table gap, using fallback pattern", "phase", state.Phase)
		}
		reply(ctx, b, log, chatID, formatShard(date, state))
	}
}

func formatShard(date time.Time, state sky.PhaseState) string {
	day := date.Format("Mon 2006-01-02")
	if state.RestDay {
		return fmt.Sprintf("%s\n"+msgRestDay, day, state.Phase)
	}

	unit := "wax candles"
	if state.Shard == sky.ShardRed {
		unit = "ascended candles"
	}
	location := fmt.Sprintf("%s — %s", state.Realm, state.Area)
	if state.Realm == "" {
		location = "location unknown"
	}
	text := fmt.Sprintf("%s\n💎 Phase %d: %s shard in %s\n🕯 Reward: %g %s",
		day, state.Phase, state.Shard, location, state.CandleValue, unit)
	if state.Approximate {
		text += msgShardApproxNote
	}
	return text
}
