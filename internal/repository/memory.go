package repository

import (
	"context"
	"sync"
	"time"

	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/models"
)

type MemorySessionRepository struct {
	sessions   sync.Map
	rateLimits sync.Map
	ttl        time.Duration
}

func NewMemorySessionRepository(ttl time.Duration) *MemorySessionRepository {
	return &MemorySessionRepository{
		ttl: ttl,
	}
}

func (r *MemorySessionRepository) GetSession(ctx context.Context, userID string) (*models.Session, error) {
	val, ok := r.sessions.Load(userID)
	if !ok {
		return nil, nil
	}
	session := val.(*models.Session)
	if !session.ExpiresAt.IsZero() && time.Now().After(session.ExpiresAt) {
		r.sessions.Delete(userID)
		return nil, nil
	}
	return session, nil
}

func (r *MemorySessionRepository) SetSession(ctx context.Context, session *models.Session) error {
	r.sessions.Store(session.UserID, session)
	return nil
}

func (r *MemorySessionRepository) ClearSession(ctx context.Context, userID string) error {
	r.sessions.Delete(userID)
	return nil
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func (r *MemorySessionRepository) CheckRateLimit(ctx context.Context, userID string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	val, ok := r.rateLimits.Load(userID)

	var entry *rateLimitEntry
	if !ok {
		entry = &rateLimitEntry{
			count:     1,
			expiresAt: now.Add(window),
		}
	} else {
		entry = val.(*rateLimitEntry)
		if now.After(entry.expiresAt) {
			entry.count = 1
			entry.expiresAt = now.Add(window)
		} else {
			entry.count++
		}
	}

	r.rateLimits.Store(userID, entry)
	return entry.count <= limit, nil
}
