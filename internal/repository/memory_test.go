package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/models"
)

func TestMemorySessionRepository(t *testing.T) {
	repo := NewMemorySessionRepository(time.Hour)
	ctx := context.Background()

	t.Run("SetAndGetSession", func(t *testing.T) {
		session := &models.Session{
			UserID:    "user-1",
			Token:     "tok",
			ExpiresAt: time.Now().Add(time.Hour),
		}
		require.NoError(t, repo.SetSession(ctx, session))

		got, err := repo.GetSession(ctx, "user-1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "tok", got.Token)
	})

	t.Run("ExpiredSessionEvicted", func(t *testing.T) {
		session := &models.Session{
			UserID:    "user-2",
			Token:     "tok",
			ExpiresAt: time.Now().Add(-time.Minute),
		}
		require.NoError(t, repo.SetSession(ctx, session))

		got, err := repo.GetSession(ctx, "user-2")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("ClearSession", func(t *testing.T) {
		session := &models.Session{UserID: "user-3", Token: "tok"}
		require.NoError(t, repo.SetSession(ctx, session))
		require.NoError(t, repo.ClearSession(ctx, "user-3"))

		got, err := repo.GetSession(ctx, "user-3")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("RateLimit", func(t *testing.T) {
		limit := 3
		window := time.Minute

		for i := 0; i < limit; i++ {
			allowed, err := repo.CheckRateLimit(ctx, "user-4", limit, window)
			require.NoError(t, err)
			assert.True(t, allowed)
		}

		allowed, err := repo.CheckRateLimit(ctx, "user-4", limit, window)
		require.NoError(t, err)
		assert.False(t, allowed)
	})
}
