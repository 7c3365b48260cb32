package reminder

import (
	"context"
	"io"
	"log/slog"
)

// Notifier is the chat transport capability the dispatcher delivers through.
type Notifier interface {
	SendMessage(ctx context.Context, userID int64, text string) error
}

// Dispatcher is a thin delivery wrapper around the Notifier. It absorbs
// transport failures and reports plain success/failure; retry policy is the
// engine's call (currently: none).
type Dispatcher struct {
	notifier Notifier
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher over the given notifier.
func NewDispatcher(notifier Notifier, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Dispatcher{
		notifier: notifier,
		logger:   logger.With("component", "dispatcher"),
	}
}

// Send delivers text to the user. It never propagates transport errors.
func (d *Dispatcher) Send(ctx context.Context, userID int64, text string) bool {
	if err := d.notifier.SendMessage(ctx, userID, text); err != nil {
		d.logger.ErrorContext(ctx, "Failed to deliver notification", "user_id", userID, "error", err)
		return false
	}
	return true
}
