package audiofile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/tonebank/internal/errors"
)

func writeTestWAV(t *testing.T, name string, sig Signal, bitDepth int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, WriteWAV(f, sig, bitDepth))
	require.NoError(t, f.Close())
	return path
}

func TestWAVRoundTrip(t *testing.T) {
	t.Parallel()

	for _, depth := range []int{16, 24} {
		sig := Sine(220, 0.5, 22050, 0.5)
		path := writeTestWAV(t, "tone.wav", sig, depth)

		info, err := Probe(path)
		require.NoError(t, err)
		assert.Equal(t, FormatWAV, info.Format)
		assert.Equal(t, 22050, info.SampleRate)
		assert.Equal(t, 1, info.Channels)
		assert.Equal(t, depth, info.BitDepth)
		assert.InDelta(t, float64(500*time.Millisecond), float64(info.Duration), float64(5*time.Millisecond))

		got, err := ReadMono(path)
		require.NoError(t, err)
		assert.Equal(t, 22050, got.SampleRate)
		require.Len(t, got.Samples, len(sig.Samples))
		for i := 0; i < len(sig.Samples); i += 997 {
			assert.InDelta(t, sig.Samples[i], got.Samples[i], 1e-3, "sample %d", i)
		}
	}
}

func TestDownmix(t *testing.T) {
	t.Parallel()

	got := downmix([]int{100, 300, -200, 0}, 2, 100)
	assert.Equal(t, []float64{2, -1}, got)
}

func TestDecodeSample24BitSignExtension(t *testing.T) {
	t.Parallel()

	assert.Equal(t, -1, decodeSample([]byte{0xFF, 0xFF, 0xFF}, 24))
	assert.Equal(t, 0x123456, decodeSample([]byte{0x56, 0x34, 0x12}, 24))
	assert.Equal(t, -2, decodeSample([]byte{0xFE, 0xFF}, 16))
}

func TestUnsupportedFormat(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "loop.mp3")
	require.NoError(t, os.WriteFile(path, []byte("ID3"), 0o600))

	_, err := ReadMono(path)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileParsing))
	assert.False(t, IsSupported(path))
	assert.True(t, IsSupported("C4.FLAC"))
}

func TestCorruptWAV(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "broken.wav")
	require.NoError(t, os.WriteFile(path, []byte("not a riff file at all"), 0o600))

	_, err := Probe(path)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileParsing))
}

func TestMissingFile(t *testing.T) {
	t.Parallel()

	_, err := ReadMono(filepath.Join(t.TempDir(), "missing.wav"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileIO))
}
