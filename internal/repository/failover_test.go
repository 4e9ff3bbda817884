package repository

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"robotrent/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) GetSession(ctx context.Context, userID int64) (*models.Session, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *mockRepo) SaveSession(ctx context.Context, session *models.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *mockRepo) ClearSession(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockRepo) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, userID, limit, window)
	return args.Bool(0), args.Error(1)
}

func newFailover() (*FailoverSessionRepository, *mockRepo, *mockRepo) {
	primary := new(mockRepo)
	fallback := new(mockRepo)
	logger := zerolog.New(io.Discard)
	return NewFailoverSessionRepository(primary, fallback, &logger), primary, fallback
}

func TestFailoverSessionRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("PrimarySuccess", func(t *testing.T) {
		repo, primary, _ := newFailover()
		session := &models.Session{UserID: 1}
		primary.On("GetSession", ctx, int64(1)).Return(session, nil).Once()

		got, err := repo.GetSession(ctx, 1)
		assert.NoError(t, err)
		assert.Equal(t, session, got)
		assert.False(t, repo.Degraded())
		primary.AssertExpectations(t)
	})

	t.Run("PrimaryFailFallbackSuccess", func(t *testing.T) {
		repo, primary, fallback := newFailover()
		session := &models.Session{UserID: 2}
		primary.On("GetSession", ctx, int64(2)).Return(nil, errors.New("fail")).Once()
		fallback.On("GetSession", ctx, int64(2)).Return(session, nil).Once()

		got, err := repo.GetSession(ctx, 2)
		assert.NoError(t, err)
		assert.Equal(t, session, got)
		assert.True(t, repo.Degraded())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("DownSkipsPrimaryUntilInterval", func(t *testing.T) {
		repo, primary, fallback := newFailover()
		now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
		repo.now = func() time.Time { return now }

		primary.On("SaveSession", ctx, mock.Anything).Return(errors.New("fail")).Once()
		fallback.On("SaveSession", ctx, mock.Anything).Return(nil).Twice()

		assert.NoError(t, repo.SaveSession(ctx, &models.Session{UserID: 3}))
		now = now.Add(30 * time.Second)
		assert.NoError(t, repo.SaveSession(ctx, &models.Session{UserID: 3}))

		primary.AssertNumberOfCalls(t, "SaveSession", 1)
		fallback.AssertExpectations(t)
	})

	t.Run("RecoveryAttempt", func(t *testing.T) {
		repo, primary, _ := newFailover()
		repo.isDown.Store(true)
		repo.lastCheck.Store(time.Now().Add(-2 * time.Minute).UnixNano())

		session := &models.Session{UserID: 3}
		primary.On("GetSession", ctx, int64(3)).Return(session, nil).Once()

		got, err := repo.GetSession(ctx, 3)
		assert.NoError(t, err)
		assert.Equal(t, session, got)
		assert.False(t, repo.Degraded())
		primary.AssertExpectations(t)
	})

	t.Run("RecoveryAttemptFail", func(t *testing.T) {
		repo, primary, fallback := newFailover()
		repo.isDown.Store(true)
		repo.lastCheck.Store(time.Now().Add(-2 * time.Minute).UnixNano())

		primary.On("GetSession", ctx, int64(33)).Return(nil, errors.New("still fail")).Once()
		fallback.On("GetSession", ctx, int64(33)).Return(nil, nil).Once()

		_, err := repo.GetSession(ctx, 33)
		assert.NoError(t, err)
		assert.True(t, repo.Degraded())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("ClearAlwaysClearsFallback", func(t *testing.T) {
		repo, primary, fallback := newFailover()
		fallback.On("ClearSession", ctx, int64(88)).Return(nil).Once()
		primary.On("ClearSession", ctx, int64(88)).Return(nil).Once()

		assert.NoError(t, repo.ClearSession(ctx, 88))
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("ClearFailover", func(t *testing.T) {
		repo, primary, fallback := newFailover()
		fallback.On("ClearSession", ctx, int64(5)).Return(nil).Once()
		primary.On("ClearSession", ctx, int64(5)).Return(errors.New("fail")).Once()

		assert.NoError(t, repo.ClearSession(ctx, 5))
		assert.True(t, repo.Degraded())
	})

	t.Run("CheckRateLimitFailover", func(t *testing.T) {
		repo, primary, fallback := newFailover()
		primary.On("CheckRateLimit", ctx, int64(6), 10, time.Minute).Return(false, errors.New("fail")).Once()
		fallback.On("CheckRateLimit", ctx, int64(6), 10, time.Minute).Return(true, nil).Once()

		allowed, err := repo.CheckRateLimit(ctx, 6, 10, time.Minute)
		assert.NoError(t, err)
		assert.True(t, allowed)
		assert.True(t, repo.Degraded())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})
}
