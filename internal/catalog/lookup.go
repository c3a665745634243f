package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/tphakala/tonebank/internal/datastore/entities"
	"github.com/tphakala/tonebank/internal/datastore/repository"
	"github.com/tphakala/tonebank/internal/errors"
	"github.com/tphakala/tonebank/internal/notemap"
	"github.com/tphakala/tonebank/internal/observability/metrics"
)

// PlayInfo tells a playback engine which sample to play for a pitch and
// at what rate.
type PlayInfo struct {
	ToneID    uint    `json:"tone_id"`
	MIDI      int     `json:"midi"`
	SampleID  uint    `json:"sample_id"`
	Transform float64 `json:"transform"`
}

// ToneSummary is one row of ListTones
type ToneSummary struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	Samples int64  `json:"samples"`
}

// Lookup returns the published play info of a tone for a MIDI pitch in
// 0..119. It fails with ErrMapUnavailable when the map was never built or
// no sample serves the pitch.
func (s *Service) Lookup(ctx context.Context, toneID uint, midi int) (PlayInfo, error) {
	if midi < 0 || midi >= notemap.Size {
		s.metrics.RecordLookup(metrics.StatusError)
		return PlayInfo{}, validationError("target midi %d is outside 0..%d", midi, notemap.Size-1)
	}

	m, err := s.publishedMap(ctx, toneID)
	if err != nil {
		s.metrics.RecordLookup(metrics.StatusError)
		return PlayInfo{}, err
	}

	entry, ok := m.Lookup(midi)
	if !ok {
		s.metrics.RecordLookup(metrics.StatusUnavailable)
		return PlayInfo{}, errors.New(fmt.Errorf("%w: tone %d midi %d", ErrMapUnavailable, toneID, midi)).
			Component("catalog").
			Category(errors.CategoryLookup).
			Context("tone_id", toneID).
			Context("midi", midi).
			Context("built", m.Built()).
			Build()
	}

	s.metrics.RecordLookup(metrics.StatusSuccess)
	return PlayInfo{
		ToneID:    toneID,
		MIDI:      midi,
		SampleID:  *entry.SampleID,
		Transform: *entry.Transform,
	}, nil
}

// ClosestSample returns the sample the published map plays for midi
func (s *Service) ClosestSample(ctx context.Context, toneID uint, midi int) (*entities.Sample, error) {
	info, err := s.Lookup(ctx, toneID, midi)
	if err != nil {
		return nil, err
	}
	return s.Sample(ctx, info.SampleID)
}

// NoteMap returns the published map of a tone, built or not
func (s *Service) NoteMap(ctx context.Context, toneID uint) (notemap.NoteMap, error) {
	return s.publishedMap(ctx, toneID)
}

// Sample returns a sample by ID
func (s *Service) Sample(ctx context.Context, id uint) (*entities.Sample, error) {
	sample, err := s.repos.Samples.GetByID(ctx, id)
	if err != nil {
		return nil, sampleError(err, id)
	}
	return sample, nil
}

// ToneSamples lists the samples of a tone in ID order
func (s *Service) ToneSamples(ctx context.Context, toneID uint) ([]*entities.Sample, error) {
	if _, err := s.repos.Tones.GetByID(ctx, toneID); err != nil {
		return nil, toneError(err, toneID)
	}
	samples, err := s.repos.Samples.ListByTone(ctx, toneID)
	if err != nil {
		return nil, toneError(err, toneID)
	}
	return samples, nil
}

// ListTones returns every tone in ID order with its sample count
func (s *Service) ListTones(ctx context.Context) ([]ToneSummary, error) {
	tones, err := s.repos.Tones.List(ctx)
	if err != nil {
		return nil, toneError(err, "*")
	}

	out := make([]ToneSummary, 0, len(tones))
	for _, t := range tones {
		count, err := s.repos.Samples.CountByTone(ctx, t.ID)
		if err != nil {
			return nil, toneError(err, t.ID)
		}
		out = append(out, ToneSummary{ID: t.ID, Name: t.Name, Samples: count})
	}
	return out, nil
}

// ToneByRef finds a tone by numeric ID, falling back to its name
func (s *Service) ToneByRef(ctx context.Context, ref string) (*entities.Tone, error) {
	ref = strings.TrimSpace(ref)
	if id, err := strconv.ParseUint(ref, 10, 64); err == nil {
		tone, err := s.repos.Tones.GetByID(ctx, uint(id))
		if err == nil {
			return tone, nil
		}
		if !errors.Is(err, repository.ErrToneNotFound) {
			return nil, toneError(err, ref)
		}
	}

	tone, err := s.repos.Tones.GetByName(ctx, ref)
	if err != nil {
		return nil, toneError(err, ref)
	}
	return tone, nil
}
