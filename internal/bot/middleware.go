package bot

import (
	"context"

	tbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RequestID attaches a logger tagged with a fresh request id and the update
// id to the handler context.
func RequestID(logger *zerolog.Logger) tbot.Middleware {
	return func(next tbot.HandlerFunc) tbot.HandlerFunc {
		return func(ctx context.Context, b *tbot.Bot, update *models.Update) {
			l := logger.With().
				Str("request_id", uuid.NewString()).
				Int64("update_id", update.ID).
				Logger()

			next(l.WithContext(ctx), b, update)
		}
	}
}

// Recover logs a panicking handler instead of letting it take the polling
// loop down.
func Recover(logger *zerolog.Logger) tbot.Middleware {
	return func(next tbot.HandlerFunc) tbot.HandlerFunc {
		return func(ctx context.Context, b *tbot.Bot, update *models.Update) {
			defer func() {
				if r := recover(); r != nil {
					loggerFrom(ctx, logger).Error().
						Interface("panic", r).
						Int64("update_id", update.ID).
						Msg("handler panicked")
				}
			}()
			next(ctx, b, update)
		}
	}
}

// loggerFrom returns the request logger stored in ctx, or fallback.
func loggerFrom(ctx context.Context, fallback *zerolog.Logger) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return fallback
}
