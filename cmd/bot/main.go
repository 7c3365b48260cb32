// Package main contains the entrypoint for the Telegram bot application.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/jonboulle/clockwork"

	"github.com/chen-fu-rong/skyclock-bot/internal/bot"
	"github.com/chen-fu-rong/skyclock-bot/internal/bot/handlers"
	"github.com/chen-fu-rong/skyclock-bot/internal/bot/session"
	"github.com/chen-fu-rong/skyclock-bot/internal/config"
	"github.com/chen-fu-rong/skyclock-bot/internal/database"
	"github.com/chen-fu-rong/skyclock-bot/internal/logger"
	"github.com/chen-fu-rong/skyclock-bot/internal/reminder"
	"github.com/chen-fu-rong/skyclock-bot/internal/scheduler"
	"github.com/chen-fu-rong/skyclock-bot/internal/telegram"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop() // Ensure context cancellation is signaled before exit
	os.Exit(exitCode)
}

// run initializes and starts all application components (config, logger, db,
// scheduler, reminder engine, telegram bot), handles graceful shutdown, and
// returns an exit code (0 for success, 1 for failure).
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Log.Level, cfg.Log.JSON)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Log.Level, "json", cfg.Log.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to open database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db) // Ensure DB is closed on function exit
	store := database.NewStore(db, log)

	clock := clockwork.NewRealClock()

	sched, err := scheduler.New(log, clock)
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	hDeps := handlers.HandlerDeps{
		Logger:   log,
		Config:   cfg,
		Store:    store,
		Sessions: session.NewManager(),
		Clock:    clock,
	}

	// The reminder engine sends notifications through the Telegram client
	// while the client's handlers create reminders through the engine, so
	// the default handler is bound after both exist.
	var defaultHandler tgbot.HandlerFunc

	botOpts := []tgbot.Option{
		tgbot.WithMiddlewares(logger.Middleware(log), handlers.TrackUser(hDeps)),
		tgbot.WithDefaultHandler(func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
			if defaultHandler != nil {
				defaultHandler(ctx, b, update)
			}
		}),
	}
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	dispatcher := reminder.NewDispatcher(telegram.NewNotifier(tg, log), log)
	engine := reminder.NewEngine(store, sched, dispatcher, clock, log, reminder.Options{
		GraceWindow:    cfg.Reminder.GraceWindow,
		MaxLeadMinutes: cfg.Reminder.MaxLeadMinutes,
	})
	hDeps.Engine = engine
	defaultHandler = handlers.NewDefaultHandler(hDeps)

	cmdHandlers := handlers.RegisterAllCommands(hDeps)
	if err := telegram.RegisterHandlers(tg, log, cmdHandlers); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return 1
	}

	app := bot.NewBot(log, tg, sched, engine)

	log.Info("Starting bot...")
	runErr := app.Run(ctx) // Run blocks until context is cancelled or an error occurs
	log.Info("Bot run loop finished. Initiating shutdown...")

	// Check if the error is significant (not just context cancellation)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		// Allow logs to flush before exiting on error
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	time.Sleep(time.Second)
	return 0
}
