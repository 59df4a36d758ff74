package handlers

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/disgoorg/disgo/handler"
)

// Interactive games hold their handler open while players act, so the
// runaway guard is generous for both commands and components.
const handlerGuard = 5 * time.Minute

const slowThreshold = 2 * time.Second

// guarded runs fn off the event goroutine, logs the outcome with the
// given attrs and returns the handler error. A handler that outlives
// the guard is reported as timed out.
func guarded(kind, name string, who []any, fn func() error) error {
	start := time.Now()

	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		attrs := append([]any{
			slog.String("type", kind),
			slog.String("name", name),
		}, who...)
		attrs = append(attrs, slog.Duration("took", time.Since(start)))

		switch {
		case err != nil:
			slog.Error("Handler failed", append(attrs,
				slog.Any("error", err),
				slog.String("status", "failed"),
			)...)
		case time.Since(start) > slowThreshold:
			slog.Warn("Handler ran slowly", append(attrs,
				slog.String("status", "slow"),
			)...)
		default:
			slog.Info("Handler completed", append(attrs,
				slog.String("status", "success"),
			)...)
		}
		return err

	case <-time.After(handlerGuard):
		slog.Error("Handler timed out",
			append([]any{
				slog.String("type", kind),
				slog.String("name", name),
				slog.String("status", "timeout"),
			}, who...)...)
		return fmt.Errorf("%s handler %q timed out", kind, name)
	}
}

// WrapWithLogging logs start/finish/duration around a slash command
// handler.
func WrapWithLogging(name string, h handler.CommandHandler) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		who := []any{
			slog.String("user_id", e.User().ID.String()),
			slog.String("user_name", e.User().Username),
		}
		slog.Info("Command started", append([]any{
			slog.String("type", "cmd"),
			slog.String("name", name),
			slog.String("channel_id", e.ChannelID().String()),
		}, who...)...)

		return guarded("cmd", name, who, func() error { return h(e) })
	}
}

// WrapComponentWithLogging does the same for button/select handlers.
func WrapComponentWithLogging(name string, h handler.ComponentHandler) handler.ComponentHandler {
	return func(e *handler.ComponentEvent) error {
		who := []any{
			slog.String("user_id", e.User().ID.String()),
			slog.String("user_name", e.User().Username),
		}
		return guarded("component", name, who, func() error { return h(e) })
	}
}
