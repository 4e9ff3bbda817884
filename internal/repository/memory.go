package repository

import (
	"context"
	"sync"
	"time"

	"robotrent/internal/models"
)

type sessionEntry struct {
	session   *models.Session
	expiresAt time.Time
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

// MemorySessionRepository держит черновики в памяти процесса.
// Используется как запасной вариант, когда Redis недоступен.
type MemorySessionRepository struct {
	mu         sync.Mutex
	sessions   map[int64]sessionEntry
	rateLimits map[int64]*rateLimitEntry
	ttl        time.Duration
	now        func() time.Time
}

func NewMemorySessionRepository(ttl time.Duration) *MemorySessionRepository {
	return &MemorySessionRepository{
		sessions:   make(map[int64]sessionEntry),
		rateLimits: make(map[int64]*rateLimitEntry),
		ttl:        ttl,
		now:        time.Now,
	}
}

func (r *MemorySessionRepository) GetSession(ctx context.Context, userID int64) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.sessions[userID]
	if !ok {
		return nil, nil
	}
	if r.ttl > 0 && r.now().After(entry.expiresAt) {
		delete(r.sessions, userID)
		return nil, nil
	}
	return entry.session.Clone(), nil
}

func (r *MemorySessionRepository) SaveSession(ctx context.Context, session *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[session.UserID] = sessionEntry{
		session:   session.Clone(),
		expiresAt: r.now().Add(r.ttl),
	}
	return nil
}

func (r *MemorySessionRepository) ClearSession(ctx context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, userID)
	return nil
}

func (r *MemorySessionRepository) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	entry, ok := r.rateLimits[userID]
	if !ok || now.After(entry.expiresAt) {
		entry = &rateLimitEntry{expiresAt: now.Add(window)}
		r.rateLimits[userID] = entry
	}
	entry.count++

	return entry.count <= limit, nil
}
