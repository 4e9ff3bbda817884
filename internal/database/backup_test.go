package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"robotrent/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupService(t *testing.T) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "journal.db")
	storagePath := filepath.Join(tempDir, "backups")

	logger := zerolog.Nop()
	db, err := NewDB(dbPath, &logger)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	cfg := config.BackupConfig{
		Enabled:       true,
		StoragePath:   storagePath,
		RetentionDays: 1,
	}
	s := NewBackupService(dbPath, cfg, &logger)
	ctx := context.Background()

	t.Run("PerformBackup", func(t *testing.T) {
		require.NoError(t, s.PerformBackup(ctx))

		files, err := os.ReadDir(storagePath)
		require.NoError(t, err)
		require.Len(t, files, 1)
		assert.Contains(t, files[0].Name(), "reservations_")
	})

	t.Run("CleanupOldBackups", func(t *testing.T) {
		oldFile := filepath.Join(storagePath, "reservations_old.db")
		require.NoError(t, os.WriteFile(oldFile, []byte("old"), 0o644))
		oldTime := time.Now().AddDate(0, 0, -2)
		require.NoError(t, os.Chtimes(oldFile, oldTime, oldTime))

		foreign := filepath.Join(storagePath, "notes.txt")
		require.NoError(t, os.WriteFile(foreign, []byte("keep"), 0o644))
		require.NoError(t, os.Chtimes(foreign, oldTime, oldTime))

		s.CleanupOldBackups()

		assert.NoFileExists(t, oldFile)
		assert.FileExists(t, foreign)
	})
}

func TestBackupService_Disabled(t *testing.T) {
	logger := zerolog.Nop()
	dir := filepath.Join(t.TempDir(), "never")
	s := NewBackupService("any", config.BackupConfig{Enabled: false, StoragePath: dir}, &logger)

	assert.NoError(t, s.Run(context.Background()))
	assert.NoDirExists(t, dir)
}
