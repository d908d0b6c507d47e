package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDB_DirectoryCreation(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "db_test_dir")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	dbPath := filepath.Join(tempDir, "nested", "dir", "test.db")
	logger := zerolog.Nop()

	db, err := NewDB(dbPath, &logger)
	require.NoError(t, err)
	defer db.Close()

	assert.FileExists(t, dbPath)
}

func TestCreateTablesIdempotent(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	// Schema setup runs on every start; a second run must be a no-op.
	err := createTables(db.db)
	require.NoError(t, err)
}

func TestDB_Ping(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	err := db.PingContext(context.Background())
	assert.NoError(t, err)
}

func TestQueryTimeout(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	t.Run("DeadlineAttached", func(t *testing.T) {
		db.SetQueryTimeout(2 * time.Second)
		ctx, cancel := db.opCtx(context.Background())
		defer cancel()

		deadline, ok := ctx.Deadline()
		require.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(2*time.Second), deadline, time.Second)
	})

	t.Run("Disabled", func(t *testing.T) {
		db.SetQueryTimeout(0)
		ctx, cancel := db.opCtx(context.Background())
		defer cancel()

		_, ok := ctx.Deadline()
		assert.False(t, ok)
	})

	t.Run("ExpiredDeadlineSurfaces", func(t *testing.T) {
		db.SetQueryTimeout(2 * time.Second)
		ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
		defer cancel()

		_, err := db.GetUserByID(ctx, "nobody")
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)

		_, err = db.ListBookings(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)

		_, err = db.ExecContext(ctx, `UPDATE users SET role = 'vendor' WHERE id = 'nobody'`)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}
