package repository

import (
	"context"
	"sync/atomic"
	"time"

	"robotrent/internal/domain"
	"robotrent/internal/models"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverSessionRepository пишет в primary (Redis), а при ошибке
// переключается на fallback (память) и раз в минуту пробует вернуться.
type FailoverSessionRepository struct {
	primary   domain.SessionRepository
	fallback  domain.SessionRepository
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
	now       func() time.Time
}

func NewFailoverSessionRepository(primary, fallback domain.SessionRepository, logger *zerolog.Logger) *FailoverSessionRepository {
	return &FailoverSessionRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		now:      time.Now,
	}
}

// usePrimary решает, стоит ли обращаться к primary на этом вызове.
func (r *FailoverSessionRepository) usePrimary() bool {
	if !r.isDown.Load() {
		return true
	}
	last := time.Unix(0, r.lastCheck.Load())
	return r.now().Sub(last) > recoveryInterval
}

func (r *FailoverSessionRepository) observe(err error) {
	if err == nil {
		if r.isDown.CompareAndSwap(true, false) {
			r.logger.Info().Msg("Primary session repository recovered")
		}
		return
	}
	if !r.isDown.Swap(true) {
		r.logger.Error().Err(err).Msg("Primary session repository failed, falling back to memory")
	}
	r.lastCheck.Store(r.now().UnixNano())
}

// Degraded reports whether calls are currently served by the fallback.
func (r *FailoverSessionRepository) Degraded() bool {
	return r.isDown.Load()
}

func (r *FailoverSessionRepository) GetSession(ctx context.Context, userID int64) (*models.Session, error) {
	if r.usePrimary() {
		session, err := r.primary.GetSession(ctx, userID)
		r.observe(err)
		if err == nil {
			return session, nil
		}
	}
	return r.fallback.GetSession(ctx, userID)
}

func (r *FailoverSessionRepository) SaveSession(ctx context.Context, session *models.Session) error {
	if r.usePrimary() {
		err := r.primary.SaveSession(ctx, session)
		r.observe(err)
		if err == nil {
			return nil
		}
	}
	return r.fallback.SaveSession(ctx, session)
}

func (r *FailoverSessionRepository) ClearSession(ctx context.Context, userID int64) error {
	// fallback чистим всегда, чтобы после восстановления не всплыл старый черновик
	_ = r.fallback.ClearSession(ctx, userID)
	if r.usePrimary() {
		err := r.primary.ClearSession(ctx, userID)
		r.observe(err)
		if err == nil {
			return nil
		}
	}
	return nil
}

func (r *FailoverSessionRepository) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	if r.usePrimary() {
		allowed, err := r.primary.CheckRateLimit(ctx, userID, limit, window)
		r.observe(err)
		if err == nil {
			return allowed, nil
		}
	}
	return r.fallback.CheckRateLimit(ctx, userID, limit, window)
}
