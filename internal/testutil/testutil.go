// Package testutil provides shared test helpers for tonebank packages.
package testutil

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tphakala/tonebank/internal/audiofile"
	"github.com/tphakala/tonebank/internal/datastore/entities"
	"github.com/tphakala/tonebank/internal/logger"
	"github.com/tphakala/tonebank/internal/music"
)

// SQLiteDSNParams are the connection parameters used by the SQLite manager
const SQLiteDSNParams = "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON&_txlock=immediate"

// SQLiteDB opens a migrated SQLite database in a temporary directory.
// The connection is closed when the test ends.
func SQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + SQLiteDSNParams
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Discard,
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(entities.All()...))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// Logger returns a logger that drops everything
func Logger() logger.Logger {
	return logger.NewSlogLogger(io.Discard, logger.LogLevelError, nil)
}

// WriteSineWAV writes a 16-bit mono 44.1 kHz sine at the pitch of midi,
// creating parent directories as needed.
func WriteSineWAV(t *testing.T, path string, midi int, seconds float64) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	sig := audiofile.Sine(music.Frequency(float64(midi)), 0.5, 44100, seconds)
	require.NoError(t, audiofile.WriteWAV(f, sig, 16))
}
