package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/tonebank/internal/catalog"
	"github.com/tphakala/tonebank/internal/datastore/entities"
	"github.com/tphakala/tonebank/internal/datastore/repository"
	"github.com/tphakala/tonebank/internal/errors"
	"github.com/tphakala/tonebank/internal/logger"
	"github.com/tphakala/tonebank/internal/notemap"
)

type fakeCatalog struct {
	tones   []*entities.Tone
	samples []*entities.Sample
}

func (f *fakeCatalog) ListTones(context.Context) ([]catalog.ToneSummary, error) {
	out := make([]catalog.ToneSummary, 0, len(f.tones))
	for _, t := range f.tones {
		var n int64
		for _, s := range f.samples {
			if s.ToneID == t.ID {
				n++
			}
		}
		out = append(out, catalog.ToneSummary{ID: t.ID, Name: t.Name, Samples: n})
	}
	return out, nil
}

func (f *fakeCatalog) ToneByRef(_ context.Context, ref string) (*entities.Tone, error) {
	for _, t := range f.tones {
		if t.Name == ref {
			return t, nil
		}
	}
	return nil, errors.New(repository.ErrToneNotFound).Category(errors.CategoryNotFound).Build()
}

func (f *fakeCatalog) ToneSamples(_ context.Context, toneID uint) ([]*entities.Sample, error) {
	var out []*entities.Sample
	for _, s := range f.samples {
		if s.ToneID == toneID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeCatalog) NoteMap(_ context.Context, toneID uint) (notemap.NoteMap, error) {
	for _, t := range f.tones {
		if t.ID == toneID {
			return t.Map(), nil
		}
	}
	return notemap.NoteMap{}, errors.New(repository.ErrToneNotFound).Category(errors.CategoryNotFound).Build()
}

func (f *fakeCatalog) Lookup(ctx context.Context, toneID uint, midi int) (catalog.PlayInfo, error) {
	m, err := f.NoteMap(ctx, toneID)
	if err != nil {
		return catalog.PlayInfo{}, err
	}
	e, ok := m.Lookup(midi)
	if !ok {
		return catalog.PlayInfo{}, errors.New(catalog.ErrMapUnavailable).Category(errors.CategoryLookup).Build()
	}
	return catalog.PlayInfo{ToneID: toneID, MIDI: midi, SampleID: *e.SampleID, Transform: *e.Transform}, nil
}

func (f *fakeCatalog) Sample(_ context.Context, id uint) (*entities.Sample, error) {
	for _, s := range f.samples {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, errors.New(repository.ErrSampleNotFound).Category(errors.CategoryNotFound).Build()
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	built := notemap.Build([]notemap.Candidate{{ID: 1, MIDI: 48}, {ID: 2, MIDI: 60}})
	cat := &fakeCatalog{
		tones: []*entities.Tone{
			{ID: 1, Name: "bass", NoteMap: built.Entries, SampleRoster: built.Roster},
			{ID: 2, Name: "fresh"},
		},
		samples: []*entities.Sample{
			{ID: 1, ToneID: 1, Name: "low.wav", Filename: "000_low.wav", MIDI: 48, SampleRate: 44100},
			{ID: 2, ToneID: 1, Name: "mid.wav", Filename: "001_mid.wav", Ordinal: 1, MIDI: 60, SampleRate: 44100},
		},
	}

	log := logger.NewSlogLogger(nil, logger.LogLevelError, nil)
	s, err := New(DefaultConfig(), cat, WithLogger(log), WithMetricsHandler(promhttp.Handler()))
	require.NoError(t, err)
	return s
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestListTones(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := get(t, s, "/api/v1/tones")
	require.Equal(t, http.StatusOK, rec.Code)

	var tones []catalog.ToneSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tones))
	require.Len(t, tones, 2)
	assert.Equal(t, "bass", tones[0].Name)
	assert.Equal(t, int64(2), tones[0].Samples)
	assert.Equal(t, int64(0), tones[1].Samples)
}

func TestGetTone(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := get(t, s, "/api/v1/tones/bass")
	require.Equal(t, http.StatusOK, rec.Code)

	var tone ToneResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tone))
	assert.True(t, tone.MapBuilt)
	assert.Equal(t, []uint{1, 2}, tone.Roster)
	require.Len(t, tone.Samples, 2)
	assert.Equal(t, "C3", tone.Samples[0].Pitch)

	rec = get(t, s, "/api/v1/tones/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetNoteMap(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := get(t, s, "/api/v1/tones/bass/map")
	require.Equal(t, http.StatusOK, rec.Code)

	var m NoteMapResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	require.Len(t, m.Entries, notemap.Size)
	assert.Equal(t, 60, m.Entries[60].MIDI)
	require.NotNil(t, m.Entries[60].SampleID)
	assert.Equal(t, uint(2), *m.Entries[60].SampleID)

	rec = get(t, s, "/api/v1/tones/fresh/map")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLookupNote(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := get(t, s, "/api/v1/tones/bass/notes/60")
	require.Equal(t, http.StatusOK, rec.Code)

	var info PlayInfoResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, uint(2), info.SampleID)
	assert.Equal(t, "mid.wav", info.SampleName)
	assert.Equal(t, 1.0, info.Transform)

	rec = get(t, s, "/api/v1/tones/bass/notes/36")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, uint(1), info.SampleID)
	assert.InDelta(t, 0.5, info.Transform, 1e-9)
}

func TestLookupNoteErrors(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	tests := []struct {
		name string
		path string
		code int
	}{
		{"not a number", "/api/v1/tones/bass/notes/c4", http.StatusBadRequest},
		{"above range", "/api/v1/tones/bass/notes/120", http.StatusBadRequest},
		{"negative", "/api/v1/tones/bass/notes/-1", http.StatusBadRequest},
		{"unknown tone", "/api/v1/tones/nope/notes/60", http.StatusNotFound},
		{"unbuilt map", "/api/v1/tones/fresh/notes/60", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, s, tt.path)
			require.Equal(t, tt.code, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Code)
			assert.NotEmpty(t, resp.Error)
			assert.Len(t, resp.CorrelationID, 8)
		})
	}
}

func TestHealthAndMetrics(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := get(t, s, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")

	rec = get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.Listen = ""
	assert.Error(t, cfg.Validate())

	_, err := New(cfg, &fakeCatalog{})
	assert.Error(t, err)
}
