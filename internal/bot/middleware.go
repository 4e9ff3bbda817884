package bot

import (
	"context"
	"runtime/debug"
	"time"

	"robotrent/internal/metrics"

	"github.com/rs/zerolog"
)

func (b *Bot) withRecovery(ctx context.Context, handler func()) {
	defer func() {
		if r := recover(); r != nil {
			metrics.IncPanic()
			zerolog.Ctx(ctx).Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("Recovered from panic in update handler")
		}
	}()
	handler()
}

// allow проверяет лимит сообщений; менеджеры не ограничены.
func (b *Bot) allow(ctx context.Context, in *input) bool {
	if b.isManager(in.userID) {
		return true
	}

	window := time.Duration(b.config.Bot.RateLimitWindow) * time.Second
	allowed, err := b.sessions.CheckRateLimit(ctx, in.userID, b.config.Bot.RateLimitMessages, window)
	if err != nil {
		// лимитер недоступен: пропускаем, чтобы не блокировать бронирование
		zerolog.Ctx(ctx).Error().Err(err).Msg("Rate limit check failed")
		return true
	}
	if allowed {
		return true
	}

	metrics.IncRateLimited()
	zerolog.Ctx(ctx).Warn().Msg("Rate limit exceeded")
	if in.isCallback() {
		b.answer(ctx, in, textRateLimited, false)
	} else {
		b.send(ctx, in.chatID, textRateLimited, nil)
	}
	return false
}
