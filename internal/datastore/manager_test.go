package datastore

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/tonebank/internal/conf"
	"github.com/tphakala/tonebank/internal/datastore/entities"
	"github.com/tphakala/tonebank/internal/errors"
	"github.com/tphakala/tonebank/internal/logger"
)

func testLogger() logger.Logger {
	return logger.NewSlogLogger(io.Discard, logger.LogLevelInfo, nil)
}

func TestSQLiteManagerInitialize(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "tonebank.db")
	mgr, err := NewSQLiteManager(path, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Close() })

	require.NoError(t, mgr.Initialize())
	// migrations are repeatable
	require.NoError(t, mgr.Initialize())

	assert.Equal(t, path, mgr.Path())
	assert.False(t, mgr.IsMySQL())

	migrator := mgr.DB().Migrator()
	for _, model := range entities.All() {
		assert.True(t, migrator.HasTable(model))
	}
	assert.True(t, migrator.HasIndex(&entities.Sample{}, "idx_sample_tone_midi"))
	assert.True(t, migrator.HasIndex(&entities.Tone{}, "idx_tone_name"))
}

func TestOpenSQLiteFromSettings(t *testing.T) {
	t.Parallel()

	settings := &conf.Settings{}
	settings.Storage.BasePath = t.TempDir()
	settings.Database.Type = conf.DatabaseSQLite
	settings.Database.SQLite.Path = "tonebank.db"

	mgr, err := Open(settings, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Close() })

	assert.Equal(t, filepath.Join(settings.Storage.BasePath, "tonebank.db"), mgr.Path())

	repos := Repositories(mgr)
	tone, err := repos.Tones.GetOrCreate(t.Context(), "piano")
	require.NoError(t, err)
	assert.NotZero(t, tone.ID)
}

func TestOpenRejectsUnknownDatabase(t *testing.T) {
	t.Parallel()

	settings := &conf.Settings{}
	settings.Database.Type = "postgres"

	_, err := Open(settings, testLogger())
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
}

func TestMySQLConfigDSN(t *testing.T) {
	t.Parallel()

	cfg := &MySQLConfig{Host: "db", Port: "3306", Username: "u", Password: "p", Database: "tonebank"}
	assert.Equal(t, "u:p@tcp(db:3306)/tonebank?charset=utf8mb4&parseTime=True&loc=Local", cfg.DSN())
}
