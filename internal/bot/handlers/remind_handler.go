package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/chen-fu-rong/skyclock-bot/internal/bot/session"
	"github.com/chen-fu-rong/skyclock-bot/internal/database"
	"github.com/chen-fu-rong/skyclock-bot/internal/reminder"
	"github.com/chen-fu-rong/skyclock-bot/internal/sky"
)

// Callback data prefixes for the reminder-creation keyboards.
const (
	cbEventTime = "remtime:"
	cbFrequency = "remfreq:"
)

// NewRemindHandler returns a handler for /remind <event>. It starts the
// conversational flow: timezone check, event-time keyboard, frequency,
// lead minutes.
func NewRemindHandler(deps HandlerDeps) tgbot.HandlerFunc {
	return func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
		log := deps.Logger.With("handler", "remind")

		userID, chatID, ok := senderOf(update)
		if !ok {
			return
		}

		args := commandArgs(update.Message.Text)
		if len(args) == 0 {
			reply(ctx, b, log, chatID, msgRemindUsage)
			return
		}
		kind, err := sky.ParseEventKind(strings.ToLower(args[0]))
		if err != nil {
			reply(ctx, b, log, chatID, msgUnknownEvent)
			return
		}

		user, err := deps.loadUser(ctx, userID)
		if err != nil {
			log.ErrorContext(ctx, "Failed to load user", "user_id", userID, "error", err)
			reply(ctx, b, log, chatID, msgGeneralError)
			return
		}

		if user.Timezone == "" {
			deps.Sessions.Set(userID, session.Draft{State: session.AwaitingTimezone, EventType: string(kind)})
			reply(ctx, b, log, chatID, msgNeedTimezone)
			return
		}

		deps.sendEventTimeKeyboard(ctx, b, user, chatID, kind)
	}
}

// sendEventTimeKeyboard offers today's occurrences of the event as an
// inline keyboard and moves the session to AwaitingEventTime.
func (deps HandlerDeps) sendEventTimeKeyboard(ctx context.Context, b *tgbot.Bot, user *database.User, chatID int64, kind sky.EventKind) {
	log := deps.Logger.With("handler", "remind")

	loc := user.Location()
	occurrences, err := sky.OccurrencesForDay(kind, deps.today(user), loc)
	if err != nil {
		log.ErrorContext(ctx, "Failed to compute occurrences", "event", kind, "error", err)
		reply(ctx, b, log, chatID, msgGeneralError)
		return
	}

	layout := clockLayout(user.TimeFormat)
	var rows [][]models.InlineKeyboardButton
	var row []models.InlineKeyboardButton
	for _, occ := range occurrences {
		row = append(row, models.InlineKeyboardButton{
			Text:         occ.Format(layout),
			CallbackData: fmt.Sprintf("%s%s:%d", cbEventTime, kind, occ.Unix()),
		})
		if len(row) == 4 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	deps.Sessions.Set(user.ID, session.Draft{State: session.AwaitingEventTime, EventType: string(kind)})

	_, err = b.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID:      chatID,
		Text:        fmt.Sprintf(msgPickTime, kind, loc),
		ReplyMarkup: &models.InlineKeyboardMarkup{InlineKeyboard: rows},
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send event-time keyboard", "chat_id", chatID, "error", err)
	}
}

// NewEventTimeCallbackHandler handles the event-time choice.
func NewEventTimeCallbackHandler(deps HandlerDeps) tgbot.HandlerFunc {
	return func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
		log := deps.Logger.With("handler", "remind_time")

		q := update.CallbackQuery
		if q == nil {
			return
		}
		answerCallback(ctx, b, log, q.ID)

		userID := q.From.ID
		chatID := callbackChatID(q)
		if chatID == 0 {
			return
		}

		// Data: remtime:<kind>:<unix>
		parts := strings.Split(strings.TrimPrefix(q.Data, cbEventTime), ":")
		if len(parts) != 2 {
			log.WarnContext(ctx, "Malformed event-time callback", "data", q.Data)
			return
		}
		unix, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			log.WarnContext(ctx, "Malformed event-time callback", "data", q.Data)
			return
		}

		draft := deps.Sessions.Get(userID)
		if draft.State != session.AwaitingEventTime {
			log.DebugContext(ctx, "Event-time callback outside flow", "user_id", userID, "state", draft.State)
			return
		}

		draft.EventType = parts[0]
		draft.EventTimeUTC = time.Unix(unix, 0).UTC()
		draft.State = session.AwaitingFrequency
		deps.Sessions.Set(userID, draft)

		kb := &models.InlineKeyboardMarkup{InlineKeyboard: [][]models.InlineKeyboardButton{{
			{Text: "Once", CallbackData: cbFrequency + "once"},
			{Text: "Every day", CallbackData: cbFrequency + "daily"},
		}}}
		if _, err := b.SendMessage(ctx, &tgbot.SendMessageParams{
			ChatID:      chatID,
			Text:        msgPickFrequency,
			ReplyMarkup: kb,
		}); err != nil {
			log.ErrorContext(ctx, "Failed to send frequency keyboard", "chat_id", chatID, "error", err)
		}
	}
}

// NewFrequencyCallbackHandler handles the once/daily choice.
func NewFrequencyCallbackHandler(deps HandlerDeps) tgbot.HandlerFunc {
	return func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
		log := deps.Logger.With("handler", "remind_freq")

		q := update.CallbackQuery
		if q == nil {
			return
		}
		answerCallback(ctx, b, log, q.ID)

		userID := q.From.ID
		chatID := callbackChatID(q)
		if chatID == 0 {
			return
		}

		draft := deps.Sessions.Get(userID)
		if draft.State != session.AwaitingFrequency {
			log.DebugContext(ctx, "Frequency callback outside flow", "user_id", userID, "state", draft.State)
			return
		}

		draft.Recurring = strings.TrimPrefix(q.Data, cbFrequency) == "daily"
		draft.State = session.AwaitingMinutes
		deps.Sessions.Set(userID, draft)

		reply(ctx, b, log, chatID, fmt.Sprintf(msgAskMinutes, deps.Config.Reminder.MaxLeadMinutes))
	}
}

// NewDefaultHandler routes plain text messages by conversational state:
// a timezone while AwaitingTimezone, lead minutes while AwaitingMinutes.
// Everything else is ignored.
func NewDefaultHandler(deps HandlerDeps) tgbot.HandlerFunc {
	return func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
		log := deps.Logger.With("handler", "default")

		userID, chatID, ok := senderOf(update)
		if !ok {
			return
		}
		text := strings.TrimSpace(update.Message.Text)
		if text == "" || strings.HasPrefix(text, "/") {
			return
		}

		switch draft := deps.Sessions.Get(userID); draft.State {
		case session.AwaitingTimezone:
			deps.handleTimezoneInput(ctx, b, userID, chatID, text, draft)
		case session.AwaitingMinutes:
			deps.handleMinutesInput(ctx, b, userID, chatID, text, draft)
		default:
			log.DebugContext(ctx, "Ignoring free-form text outside a flow", "user_id", userID)
		}
	}
}

func (deps HandlerDeps) handleTimezoneInput(ctx context.Context, b *tgbot.Bot, userID, chatID int64, text string, draft session.Draft) {
	log := deps.Logger.With("handler", "default")

	if _, err := time.LoadLocation(text); err != nil {
		reply(ctx, b, log, chatID, msgBadTimezone)
		return
	}

	user, err := deps.loadUser(ctx, userID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load user", "user_id", userID, "error", err)
		reply(ctx, b, log, chatID, msgGeneralError)
		return
	}
	user.Timezone = text
	if err := deps.Store.UpsertUser(ctx, user); err != nil {
		log.ErrorContext(ctx, "Failed to save timezone", "user_id", userID, "error", err)
		reply(ctx, b, log, chatID, msgGeneralError)
		return
	}
	reply(ctx, b, log, chatID, fmt.Sprintf(msgTimezoneSaved, text))

	// Resume the interrupted reminder flow if one was pending.
	if draft.EventType != "" {
		if kind, err := sky.ParseEventKind(draft.EventType); err == nil {
			deps.sendEventTimeKeyboard(ctx, b, user, chatID, kind)
			return
		}
	}
	deps.Sessions.Clear(userID)
}

func (deps HandlerDeps) handleMinutesInput(ctx context.Context, b *tgbot.Bot, userID, chatID int64, text string, draft session.Draft) {
	log := deps.Logger.With("handler", "default")

	minutes, err := strconv.Atoi(text)
	if err != nil || minutes <= 0 || minutes > deps.Config.Reminder.MaxLeadMinutes {
		reply(ctx, b, log, chatID, fmt.Sprintf(msgBadMinutes, deps.Config.Reminder.MaxLeadMinutes))
		return
	}

	user, err := deps.loadUser(ctx, userID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load user", "user_id", userID, "error", err)
		reply(ctx, b, log, chatID, msgGeneralError)
		return
	}

	localEvent := draft.EventTimeUTC.In(user.Location())
	rec, err := deps.Engine.Create(ctx, user, draft.EventType, localEvent, minutes, draft.Recurring)
	if err != nil {
		switch {
		case errors.Is(err, reminder.ErrValidation):
			reply(ctx, b, log, chatID, err.Error())
		default:
			log.ErrorContext(ctx, "Failed to create reminder", "user_id", userID, "error", err)
			reply(ctx, b, log, chatID, msgGeneralError)
		}
		return
	}
	deps.Sessions.Clear(userID)

	suffix := ""
	if rec.Recurring {
		suffix = ", every day"
	}
	eventLocal := rec.EventTimeUTC.In(user.Location())
	reply(ctx, b, log, chatID, fmt.Sprintf(msgReminderSet,
		rec.ID, rec.EventType, eventLocal.Format(clockLayout(user.TimeFormat)), rec.LeadMinutes, suffix))
}

func answerCallback(ctx context.Context, b *tgbot.Bot, log *slog.Logger, callbackID string) {
	if _, err := b.AnswerCallbackQuery(ctx, &tgbot.AnswerCallbackQueryParams{CallbackQueryID: callbackID}); err != nil {
		log.ErrorContext(ctx, "Failed to answer callback query", "error", err)
	}
}

// callbackChatID digs the chat out of a callback query, handling
// inaccessible messages.
func callbackChatID(q *models.CallbackQuery) int64 {
	if q.Message.Message != nil {
		return q.Message.Message.Chat.ID
	}
	if q.Message.InaccessibleMessage != nil {
		return q.Message.InaccessibleMessage.Chat.ID
	}
	return 0
}
