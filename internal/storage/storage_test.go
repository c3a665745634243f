package storage

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/tonebank/internal/logger"
)

func newTestStore(t *testing.T) (*Store, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	return New(fs, "/samples", logger.NewSlogLogger(io.Discard, logger.LogLevelInfo, nil)), fs
}

func writeSource(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDirName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "FingeredbridgepickupRickenbackerbass40011974", DirName("Fingered (bridge pickup) Rickenbacker bass (4001 - 1974)"))
	assert.Equal(t, "piano2", DirName("piano_2"))
	assert.Equal(t, "Flügel", DirName("Flügel!"))
	assert.Empty(t, DirName(" - "))
}

func TestFileName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "000_d-3-pp.wav", FileName(0, "d-3-pp.wav"))
	assert.Equal(t, "012_a.flac", FileName(12, "/tmp/x/a.flac"))
	assert.Equal(t, "1234_a.wav", FileName(1234, "a.wav"))
}

func TestCopyIn(t *testing.T) {
	t.Parallel()
	store, fs := newTestStore(t)

	src := writeSource(t, "d-3-pp.wav", "RIFF-data")

	name, err := store.CopyIn(src, "bass guitar", 3)
	require.NoError(t, err)
	assert.Equal(t, "003_d-3-pp.wav", name)

	data, err := afero.ReadFile(fs, "/samples/bassguitar/003_d-3-pp.wav")
	require.NoError(t, err)
	assert.Equal(t, "RIFF-data", string(data))

	ok, err := store.Exists("bass guitar", name)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCopyInBumpsOnCollision(t *testing.T) {
	t.Parallel()
	store, fs := newTestStore(t)

	require.NoError(t, fs.MkdirAll("/samples/bass", 0o755))
	require.NoError(t, afero.WriteFile(fs, "/samples/bass/001_e.wav", []byte("old"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/samples/bass/002_e.wav", []byte("old"), 0o644))

	src := writeSource(t, "e.wav", "new")
	name, err := store.CopyIn(src, "bass", 1)
	require.NoError(t, err)
	assert.Equal(t, "003_e.wav", name)

	old, err := afero.ReadFile(fs, "/samples/bass/001_e.wav")
	require.NoError(t, err)
	assert.Equal(t, "old", string(old))
}

func TestCopyInMissingSource(t *testing.T) {
	t.Parallel()
	store, _ := newTestStore(t)

	_, err := store.CopyIn(filepath.Join(t.TempDir(), "nope.wav"), "bass", 0)
	require.Error(t, err)
}

func TestCopyInRejectsEmptyToneDir(t *testing.T) {
	t.Parallel()
	store, _ := newTestStore(t)

	src := writeSource(t, "a.wav", "x")
	_, err := store.CopyIn(src, "()", 0)
	require.Error(t, err)
}

func TestRemove(t *testing.T) {
	t.Parallel()
	store, _ := newTestStore(t)

	src := writeSource(t, "a.wav", "x")
	name, err := store.CopyIn(src, "keys", 0)
	require.NoError(t, err)

	require.NoError(t, store.Remove("keys", name))
	ok, err := store.Exists("keys", name)
	require.NoError(t, err)
	assert.False(t, ok)

	// already gone
	require.NoError(t, store.Remove("keys", name))
}
