package service

import (
	"context"
	"time"

	"robotrent/internal/domain"
	"robotrent/internal/models"

	"github.com/rs/zerolog"
)

type SessionService struct {
	repo   domain.SessionRepository
	logger *zerolog.Logger
	now    func() time.Time
}

func NewSessionService(repo domain.SessionRepository, logger *zerolog.Logger) *SessionService {
	return &SessionService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// Load возвращает черновик пользователя или новый, стоящий в меню.
func (s *SessionService) Load(ctx context.Context, userID, chatID int64) (*models.Session, error) {
	session, err := s.repo.GetSession(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to get session")
		return nil, err
	}
	if session == nil {
		return models.NewSession(userID, chatID), nil
	}
	if chatID != 0 {
		session.ChatID = chatID
	}
	return session, nil
}

func (s *SessionService) Save(ctx context.Context, session *models.Session) error {
	session.UpdatedAt = s.now()
	if err := s.repo.SaveSession(ctx, session); err != nil {
		s.logger.Error().Err(err).Int64("user_id", session.UserID).Msg("failed to save session")
		return err
	}
	return nil
}

func (s *SessionService) Reset(ctx context.Context, userID int64) error {
	return s.repo.ClearSession(ctx, userID)
}

func (s *SessionService) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	return s.repo.CheckRateLimit(ctx, userID, limit, window)
}
