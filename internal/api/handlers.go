package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/tonebank/internal/catalog"
	"github.com/tphakala/tonebank/internal/datastore/entities"
	"github.com/tphakala/tonebank/internal/music"
	"github.com/tphakala/tonebank/internal/notemap"
)

// SampleResponse describes one sample of a tone
type SampleResponse struct {
	ID         uint    `json:"id"`
	Name       string  `json:"name"`
	Filename   string  `json:"filename"`
	Ordinal    int     `json:"ordinal"`
	MIDI       int     `json:"midi"`
	Pitch      string  `json:"pitch"`
	BPM        *int    `json:"bpm,omitempty"`
	DurationMs *int    `json:"duration_ms,omitempty"`
	Source     *string `json:"source,omitempty"`
	SampleRate int     `json:"sample_rate"`
}

// ToneResponse is the detail view of a tone
type ToneResponse struct {
	ID         uint             `json:"id"`
	Name       string           `json:"name"`
	MapBuilt   bool             `json:"map_built"`
	MapBuiltAt *time.Time       `json:"map_built_at,omitempty"`
	Roster     []uint           `json:"roster"`
	Samples    []SampleResponse `json:"samples"`
}

// MapEntryResponse is one target pitch of a note map
type MapEntryResponse struct {
	MIDI      int      `json:"midi"`
	SampleID  *uint    `json:"sample_id"`
	Transform *float64 `json:"transform"`
}

// NoteMapResponse is the full table of a tone
type NoteMapResponse struct {
	ToneID  uint               `json:"tone_id"`
	Roster  []uint             `json:"roster"`
	Entries []MapEntryResponse `json:"entries"`
}

// PlayInfoResponse tells a playback engine what to play for one pitch
type PlayInfoResponse struct {
	ToneID     uint    `json:"tone_id"`
	MIDI       int     `json:"midi"`
	SampleID   uint    `json:"sample_id"`
	SampleName string  `json:"sample_name"`
	Transform  float64 `json:"transform"`
}

func sampleResponse(s *entities.Sample) SampleResponse {
	return SampleResponse{
		ID:         s.ID,
		Name:       s.Name,
		Filename:   s.Filename,
		Ordinal:    s.Ordinal,
		MIDI:       s.MIDI,
		Pitch:      music.Name(s.MIDI),
		BPM:        s.BPM,
		DurationMs: s.DurationMs,
		Source:     s.Source,
		SampleRate: s.SampleRate,
	}
}

func (s *Server) listTones(c echo.Context) error {
	tones, err := s.catalog.ListTones(c.Request().Context())
	if err != nil {
		return s.handleError(c, err, "Failed to list tones", statusFor(err))
	}
	if tones == nil {
		tones = []catalog.ToneSummary{}
	}
	return c.JSON(http.StatusOK, tones)
}

func (s *Server) getTone(c echo.Context) error {
	ctx := c.Request().Context()

	tone, err := s.catalog.ToneByRef(ctx, c.Param("tone"))
	if err != nil {
		return s.handleError(c, err, "Tone not found", statusFor(err))
	}
	samples, err := s.catalog.ToneSamples(ctx, tone.ID)
	if err != nil {
		return s.handleError(c, err, "Failed to list samples", statusFor(err))
	}

	m := tone.Map()
	resp := ToneResponse{
		ID:         tone.ID,
		Name:       tone.Name,
		MapBuilt:   m.Built(),
		MapBuiltAt: tone.MapBuiltAt,
		Roster:     m.Roster,
		Samples:    make([]SampleResponse, 0, len(samples)),
	}
	if resp.Roster == nil {
		resp.Roster = []uint{}
	}
	for _, sample := range samples {
		resp.Samples = append(resp.Samples, sampleResponse(sample))
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) getNoteMap(c echo.Context) error {
	ctx := c.Request().Context()

	tone, err := s.catalog.ToneByRef(ctx, c.Param("tone"))
	if err != nil {
		return s.handleError(c, err, "Tone not found", statusFor(err))
	}
	m, err := s.catalog.NoteMap(ctx, tone.ID)
	if err != nil {
		return s.handleError(c, err, "Failed to read note map", statusFor(err))
	}
	if !m.Built() {
		return s.handleError(c, catalog.ErrMapUnavailable, "Note map has not been built", http.StatusNotFound)
	}

	resp := NoteMapResponse{
		ToneID:  tone.ID,
		Roster:  m.Roster,
		Entries: make([]MapEntryResponse, notemap.Size),
	}
	for midi, e := range m.Entries {
		resp.Entries[midi] = MapEntryResponse{MIDI: midi, SampleID: e.SampleID, Transform: e.Transform}
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) lookupNote(c echo.Context) error {
	ctx := c.Request().Context()

	midi, err := strconv.Atoi(c.Param("midi"))
	if err != nil || midi < 0 || midi >= notemap.Size {
		return s.handleError(c, err, "midi must be an integer in 0..119", http.StatusBadRequest)
	}

	tone, err := s.catalog.ToneByRef(ctx, c.Param("tone"))
	if err != nil {
		return s.handleError(c, err, "Tone not found", statusFor(err))
	}
	info, err := s.catalog.Lookup(ctx, tone.ID, midi)
	if err != nil {
		return s.handleError(c, err, "No sample available for this pitch", statusFor(err))
	}
	sample, err := s.catalog.Sample(ctx, info.SampleID)
	if err != nil {
		return s.handleError(c, err, "Sample not found", statusFor(err))
	}

	return c.JSON(http.StatusOK, PlayInfoResponse{
		ToneID:     info.ToneID,
		MIDI:       info.MIDI,
		SampleID:   info.SampleID,
		SampleName: sample.Name,
		Transform:  info.Transform,
	})
}
