package catalog

import (
	"context"

	"github.com/tphakala/tonebank/internal/datastore/entities"
	"github.com/tphakala/tonebank/internal/datastore/repository"
	"github.com/tphakala/tonebank/internal/errors"
	"github.com/tphakala/tonebank/internal/logger"
	"github.com/tphakala/tonebank/internal/music"
	"github.com/tphakala/tonebank/internal/observability/metrics"
)

// RemoveSample deletes a sample and its notes, rebuilds its former tone
// and removes the managed file once the deletion has committed.
func (s *Service) RemoveSample(ctx context.Context, sampleID uint) error {
	sample, err := s.repos.Samples.GetByID(ctx, sampleID)
	if err != nil {
		return sampleError(err, sampleID)
	}
	tone, err := s.repos.Tones.GetByID(ctx, sample.ToneID)
	if err != nil {
		return toneError(err, sample.ToneID)
	}

	var filename string
	_, err = s.write(ctx, tone.Name, func(tx *repository.Set) (uint, bool, error) {
		// re-read under the lock, another writer may have removed it
		current, err := tx.Samples.GetByID(ctx, sampleID)
		if err != nil {
			return 0, false, err
		}
		filename = current.Filename
		return tone.ID, true, tx.Samples.Delete(ctx, sampleID)
	})
	if err != nil {
		s.metrics.RecordOperation(metrics.OpRemove, metrics.StatusError)
		if errors.Is(err, repository.ErrSampleNotFound) {
			return sampleError(err, sampleID)
		}
		return wrapWriteError(err, "remove_sample", tone.ID)
	}
	s.metrics.RecordOperation(metrics.OpRemove, metrics.StatusSuccess)

	if err := s.store.Remove(tone.Name, filename); err != nil {
		s.log.WithContext(ctx).Warn("sample removed but file deletion failed",
			logger.Uint64("sample_id", uint64(sampleID)),
			logger.String("file", filename),
			logger.Error(err))
	}

	s.log.WithContext(ctx).Info("sample removed",
		logger.String("tone", tone.Name),
		logger.Uint64("sample_id", uint64(sampleID)))
	return nil
}

// RetuneSample changes the stored pitch of a sample and rebuilds its tone.
// A pitch already used by another sample of the tone is a conflict.
func (s *Service) RetuneSample(ctx context.Context, sampleID uint, midi int) (*entities.Sample, error) {
	if midi < music.MinMIDI || midi > music.MaxMIDI {
		return nil, validationError("midi %d is outside 0..127", midi)
	}

	sample, err := s.repos.Samples.GetByID(ctx, sampleID)
	if err != nil {
		return nil, sampleError(err, sampleID)
	}
	tone, err := s.repos.Tones.GetByID(ctx, sample.ToneID)
	if err != nil {
		return nil, toneError(err, sample.ToneID)
	}

	var updated *entities.Sample
	_, err = s.write(ctx, tone.Name, func(tx *repository.Set) (uint, bool, error) {
		current, err := tx.Samples.GetByID(ctx, sampleID)
		if err != nil {
			return 0, false, err
		}
		if current.MIDI == midi {
			updated = current
			return tone.ID, false, nil
		}
		if err := tx.Samples.UpdateMIDI(ctx, sampleID, midi); err != nil {
			return 0, false, err
		}
		current.MIDI = midi
		updated = current
		return tone.ID, true, nil
	})
	if err != nil {
		s.metrics.RecordOperation(metrics.OpRetune, metrics.StatusError)
		if errors.Is(err, repository.ErrSampleNotFound) {
			return nil, sampleError(err, sampleID)
		}
		return nil, wrapWriteError(err, "retune_sample", sample.ToneID)
	}
	s.metrics.RecordOperation(metrics.OpRetune, metrics.StatusSuccess)

	s.log.WithContext(ctx).Info("sample retuned",
		logger.Uint64("sample_id", uint64(sampleID)),
		logger.Int("from", sample.MIDI),
		logger.Int("to", midi))
	return updated, nil
}

// AnnotateSample records a performance note against a sample. Notes do not
// affect note maps.
func (s *Service) AnnotateSample(ctx context.Context, sampleID uint, startBeat, endBeat, midi int) (*entities.Note, error) {
	if midi < music.MinMIDI || midi > music.MaxMIDI {
		return nil, validationError("midi %d is outside 0..127", midi)
	}

	note := &entities.Note{SampleID: sampleID, StartBeat: startBeat, EndBeat: endBeat, MIDI: midi}
	if err := s.repos.Notes.Create(ctx, note); err != nil {
		switch {
		case errors.Is(err, repository.ErrSampleNotFound):
			return nil, sampleError(err, sampleID)
		case errors.Is(err, repository.ErrInvalidInput):
			return nil, validationError("%v", err)
		}
		return nil, sampleError(err, sampleID)
	}
	return note, nil
}

// SampleNotes lists the notes recorded against a sample
func (s *Service) SampleNotes(ctx context.Context, sampleID uint) ([]*entities.Note, error) {
	notes, err := s.repos.Notes.ListBySample(ctx, sampleID)
	if err != nil {
		return nil, sampleError(err, sampleID)
	}
	return notes, nil
}
