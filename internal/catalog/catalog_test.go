package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tphakala/tonebank/internal/datastore/repository"
	"github.com/tphakala/tonebank/internal/errors"
	"github.com/tphakala/tonebank/internal/pitchtrack"
	"github.com/tphakala/tonebank/internal/resolver"
	"github.com/tphakala/tonebank/internal/storage"
	"github.com/tphakala/tonebank/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// silentTracker never finds a pitch, so only hints and file names resolve
type silentTracker struct{}

func (silentTracker) Track(context.Context, string, int) ([]pitchtrack.Frame, error) {
	return nil, nil
}

type fixture struct {
	svc   *Service
	repos *repository.Set
	fs    afero.Fs
	src   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.SQLiteDB(t)
	log := testutil.Logger()
	fs := afero.NewMemMapFs()
	repos := repository.NewSet(db)
	res := resolver.New(resolver.DefaultConfig(), silentTracker{}, resolver.WithLogger(log))
	svc := New(repos, storage.New(fs, "/samples", log), res, WithLogger(log))

	src := filepath.Join(t.TempDir(), "src")
	require.NoError(t, os.MkdirAll(src, 0o755))
	return &fixture{svc: svc, repos: repos, fs: fs, src: src}
}

// file writes a placeholder source file and returns its path
func (f *fixture) file(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(f.src, name)
	require.NoError(t, os.WriteFile(path, []byte("RIFF"), 0o644))
	return path
}

func (f *fixture) ingest(t *testing.T, tone, name string, midi int) IngestResult {
	t.Helper()
	res, err := f.svc.Ingest(t.Context(), IngestRequest{
		Path: f.file(t, name),
		Tone: tone,
		MIDI: &midi,
	})
	require.NoError(t, err)
	return res
}

func TestIngestCreatesToneAndPublishesMap(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := t.Context()

	res := f.ingest(t, "bass", "low.wav", 48)
	assert.True(t, res.Created)
	assert.Equal(t, resolver.MethodExplicit, res.Method)
	assert.Equal(t, "bass", res.Tone.Name)
	assert.Equal(t, 0, res.Sample.Ordinal)
	assert.Equal(t, "000_low.wav", res.Sample.Filename)
	assert.Equal(t, DefaultSampleRate, res.Sample.SampleRate)

	exists, err := afero.Exists(f.fs, "/samples/bass/000_low.wav")
	require.NoError(t, err)
	assert.True(t, exists)

	info, err := f.svc.Lookup(ctx, res.Tone.ID, 60)
	require.NoError(t, err)
	assert.Equal(t, res.Sample.ID, info.SampleID)
	assert.InDelta(t, 2.0, info.Transform, 1e-9)

	// the stored map matches what lookups see
	tone, err := f.repos.Tones.GetByID(ctx, res.Tone.ID)
	require.NoError(t, err)
	assert.True(t, tone.Map().Built())
	assert.Equal(t, []uint{res.Sample.ID}, tone.Map().Roster)
}

func TestIngestDuplicatePitchReusesSample(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	first := f.ingest(t, "piano", "c4-a.wav", 60)
	second := f.ingest(t, "piano", "c4-b.wav", 60)

	assert.True(t, first.Created)
	assert.False(t, second.Created)
	assert.Equal(t, first.Sample.ID, second.Sample.ID)

	samples, err := f.svc.ToneSamples(t.Context(), first.Tone.ID)
	require.NoError(t, err)
	assert.Len(t, samples, 1)

	exists, err := afero.Exists(f.fs, "/samples/piano/000_c4-b.wav")
	require.NoError(t, err)
	assert.False(t, exists, "a reused pitch must not copy the file")
}

func TestIngestResolvesFromFilename(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	res, err := f.svc.Ingest(t.Context(), IngestRequest{Path: f.file(t, "Cello_A3.wav")})
	require.NoError(t, err)
	assert.Equal(t, 57, res.Sample.MIDI)
	assert.Equal(t, resolver.MethodFilename, res.Method)
	assert.Equal(t, "src", res.Tone.Name, "tone defaults to the parent directory")
}

func TestIngestUnresolvedLeavesNoState(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := t.Context()

	_, err := f.svc.Ingest(ctx, IngestRequest{Path: f.file(t, "mystery.wav"), Tone: "fx"})
	require.ErrorIs(t, err, resolver.ErrUnresolvedPitch)

	tones, err := f.svc.ListTones(ctx)
	require.NoError(t, err)
	assert.Empty(t, tones)

	exists, err := afero.DirExists(f.fs, "/samples/fx")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestIngestFailedCopyLeavesNoTone(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := t.Context()
	midi := 60

	_, err := f.svc.Ingest(ctx, IngestRequest{
		Path: filepath.Join(f.src, "missing.wav"),
		Tone: "ghost",
		MIDI: &midi,
	})
	require.Error(t, err)

	_, err = f.repos.Tones.GetByName(ctx, "ghost")
	require.ErrorIs(t, err, repository.ErrToneNotFound)
	tones, err := f.svc.ListTones(ctx)
	require.NoError(t, err)
	assert.Empty(t, tones)

	// an existing tone keeps its samples and map
	low := f.ingest(t, "ghost", "low.wav", 48)
	_, err = f.svc.Ingest(ctx, IngestRequest{
		Path: filepath.Join(f.src, "missing.wav"),
		Tone: "ghost",
		MIDI: &midi,
	})
	require.Error(t, err)

	samples, err := f.svc.ToneSamples(ctx, low.Tone.ID)
	require.NoError(t, err)
	require.Len(t, samples, 1)
	info, err := f.svc.Lookup(ctx, low.Tone.ID, 60)
	require.NoError(t, err)
	assert.Equal(t, low.Sample.ID, info.SampleID)
}

func TestLookupUnbuiltTone(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := t.Context()

	tone, err := f.repos.Tones.GetOrCreate(ctx, "empty")
	require.NoError(t, err)

	_, err = f.svc.Lookup(ctx, tone.ID, 60)
	require.ErrorIs(t, err, ErrMapUnavailable)
	assert.True(t, errors.IsCategory(err, errors.CategoryLookup))

	m, err := f.svc.NoteMap(ctx, tone.ID)
	require.NoError(t, err)
	assert.False(t, m.Built())
}

func TestLookupValidation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := t.Context()
	res := f.ingest(t, "organ", "c.wav", 60)

	for _, midi := range []int{-1, 120, 127} {
		_, err := f.svc.Lookup(ctx, res.Tone.ID, midi)
		require.Error(t, err, "midi %d", midi)
		assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
	}

	_, err := f.svc.Lookup(ctx, 9999, 60)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestCloserSampleTakesOverAndRemovalRestores(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := t.Context()

	low := f.ingest(t, "guitar", "low.wav", 48)
	toneID := low.Tone.ID

	info, err := f.svc.Lookup(ctx, toneID, 60)
	require.NoError(t, err)
	assert.Equal(t, low.Sample.ID, info.SampleID)

	mid := f.ingest(t, "guitar", "mid.wav", 60)
	assert.Equal(t, 1, mid.Sample.Ordinal)

	info, err = f.svc.Lookup(ctx, toneID, 60)
	require.NoError(t, err)
	assert.Equal(t, mid.Sample.ID, info.SampleID)
	assert.Equal(t, 1.0, info.Transform)

	closest, err := f.svc.ClosestSample(ctx, toneID, 59)
	require.NoError(t, err)
	assert.Equal(t, mid.Sample.ID, closest.ID)

	require.NoError(t, f.svc.RemoveSample(ctx, mid.Sample.ID))

	info, err = f.svc.Lookup(ctx, toneID, 60)
	require.NoError(t, err)
	assert.Equal(t, low.Sample.ID, info.SampleID)

	exists, err := afero.Exists(f.fs, "/samples/guitar/001_mid.wav")
	require.NoError(t, err)
	assert.False(t, exists)

	err = f.svc.RemoveSample(ctx, mid.Sample.ID)
	assert.True(t, errors.IsNotFound(err))
}

// peer returns a second Service over the fixture's database with its own cache
func (f *fixture) peer() *Service {
	log := testutil.Logger()
	res := resolver.New(resolver.DefaultConfig(), silentTracker{}, resolver.WithLogger(log))
	return New(f.repos, storage.New(f.fs, "/samples", log), res, WithLogger(log))
}

func TestLookupSeesChangesFromAnotherService(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	reader := f.peer()
	ctx := t.Context()

	low := f.ingest(t, "organ", "low.wav", 48)
	toneID := low.Tone.ID

	info, err := reader.Lookup(ctx, toneID, 60)
	require.NoError(t, err)
	assert.Equal(t, low.Sample.ID, info.SampleID)
	assert.InDelta(t, 2.0, info.Transform, 1e-9)

	mid := f.ingest(t, "organ", "mid.wav", 60)
	info, err = reader.Lookup(ctx, toneID, 60)
	require.NoError(t, err)
	assert.Equal(t, mid.Sample.ID, info.SampleID)
	assert.Equal(t, 1.0, info.Transform)

	require.NoError(t, f.svc.RemoveSample(ctx, low.Sample.ID))
	info, err = reader.Lookup(ctx, toneID, 40)
	require.NoError(t, err)
	assert.Equal(t, mid.Sample.ID, info.SampleID)

	m, err := reader.NoteMap(ctx, toneID)
	require.NoError(t, err)
	assert.Equal(t, []uint{mid.Sample.ID}, m.Roster)

	_, err = f.svc.RetuneSample(ctx, mid.Sample.ID, 72)
	require.NoError(t, err)
	closest, err := reader.ClosestSample(ctx, toneID, 72)
	require.NoError(t, err)
	assert.Equal(t, 72, closest.MIDI)

	require.NoError(t, f.svc.RemoveSample(ctx, mid.Sample.ID))
	_, err = reader.Lookup(ctx, toneID, 72)
	require.ErrorIs(t, err, ErrMapUnavailable)
}

func TestRemoveLastSampleEmptiesMap(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := t.Context()

	res := f.ingest(t, "flute", "a.wav", 69)
	require.NoError(t, f.svc.RemoveSample(ctx, res.Sample.ID))

	_, err := f.svc.Lookup(ctx, res.Tone.ID, 69)
	require.ErrorIs(t, err, ErrMapUnavailable)

	m, err := f.svc.NoteMap(ctx, res.Tone.ID)
	require.NoError(t, err)
	assert.True(t, m.Built())
	assert.Empty(t, m.Roster)
}

func TestRebuildIsIdempotent(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := t.Context()

	res := f.ingest(t, "synth", "a.wav", 45)
	f.ingest(t, "synth", "b.wav", 57)
	f.ingest(t, "synth", "c.wav", 72)

	first, err := f.svc.RebuildMap(ctx, res.Tone.ID)
	require.NoError(t, err)
	second, err := f.svc.RebuildMap(ctx, res.Tone.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	published, err := f.svc.NoteMap(ctx, res.Tone.ID)
	require.NoError(t, err)
	assert.Equal(t, first, published)

	_, err = f.svc.RebuildMap(ctx, 4242)
	assert.True(t, errors.IsNotFound(err))
}

func TestRetuneSample(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := t.Context()

	low := f.ingest(t, "harp", "low.wav", 48)
	f.ingest(t, "harp", "high.wav", 60)

	_, err := f.svc.RetuneSample(ctx, low.Sample.ID, 60)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConflict))

	_, err = f.svc.RetuneSample(ctx, low.Sample.ID, 128)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))

	updated, err := f.svc.RetuneSample(ctx, low.Sample.ID, 50)
	require.NoError(t, err)
	assert.Equal(t, 50, updated.MIDI)

	info, err := f.svc.Lookup(ctx, low.Tone.ID, 50)
	require.NoError(t, err)
	assert.Equal(t, low.Sample.ID, info.SampleID)
	assert.Equal(t, 1.0, info.Transform)
}

func TestConcurrentIngestSameTone(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := t.Context()

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range n {
		path := f.file(t, fmt.Sprintf("note%d.wav", i))
		midi := 40 + 3*i
		wg.Go(func() {
			_, errs[i] = f.svc.Ingest(ctx, IngestRequest{Path: path, Tone: "choir", MIDI: &midi})
		})
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	tone, err := f.svc.ToneByRef(ctx, "choir")
	require.NoError(t, err)

	samples, err := f.svc.ToneSamples(ctx, tone.ID)
	require.NoError(t, err)
	require.Len(t, samples, n)

	ordinals := map[int]bool{}
	for _, s := range samples {
		ordinals[s.Ordinal] = true
	}
	assert.Len(t, ordinals, n)

	m, err := f.svc.NoteMap(ctx, tone.ID)
	require.NoError(t, err)
	assert.Len(t, m.Roster, n)
}

func TestToneQueries(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := t.Context()

	bass := f.ingest(t, "bass", "a.wav", 40)
	f.ingest(t, "bass", "b.wav", 45)
	f.ingest(t, "keys", "c.wav", 60)

	tones, err := f.svc.ListTones(ctx)
	require.NoError(t, err)
	require.Len(t, tones, 2)
	assert.Equal(t, ToneSummary{ID: bass.Tone.ID, Name: "bass", Samples: 2}, tones[0])
	assert.Equal(t, int64(1), tones[1].Samples)

	byID, err := f.svc.ToneByRef(ctx, fmt.Sprint(bass.Tone.ID))
	require.NoError(t, err)
	assert.Equal(t, "bass", byID.Name)

	_, err = f.svc.ToneByRef(ctx, "missing")
	assert.True(t, errors.IsNotFound(err))
}

func TestAnnotateSample(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := t.Context()

	res := f.ingest(t, "drums", "kick.wav", 36)

	note, err := f.svc.AnnotateSample(ctx, res.Sample.ID, 0, 4, 36)
	require.NoError(t, err)
	assert.NotZero(t, note.ID)

	_, err = f.svc.AnnotateSample(ctx, res.Sample.ID, 4, 2, 36)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))

	_, err = f.svc.AnnotateSample(ctx, 999, 0, 1, 36)
	assert.True(t, errors.IsNotFound(err))

	notes, err := f.svc.SampleNotes(ctx, res.Sample.ID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, 4, notes[0].EndBeat)
}
