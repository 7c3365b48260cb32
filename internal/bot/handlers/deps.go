package handlers

import (
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/chen-fu-rong/skyclock-bot/internal/bot/session"
	"github.com/chen-fu-rong/skyclock-bot/internal/config"
	"github.com/chen-fu-rong/skyclock-bot/internal/database"
	"github.com/chen-fu-rong/skyclock-bot/internal/reminder"
)

// HandlerDeps provides dependencies for Telegram command handlers.
type HandlerDeps struct {
	Logger   *slog.Logger
	Config   *config.Config
	Store    database.Store
	Engine   *reminder.Engine
	Sessions *session.Manager
	Clock    clockwork.Clock
}
