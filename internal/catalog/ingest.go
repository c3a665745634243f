package catalog

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tphakala/tonebank/internal/audiofile"
	"github.com/tphakala/tonebank/internal/datastore/entities"
	"github.com/tphakala/tonebank/internal/datastore/repository"
	"github.com/tphakala/tonebank/internal/errors"
	"github.com/tphakala/tonebank/internal/logger"
	"github.com/tphakala/tonebank/internal/music"
	"github.com/tphakala/tonebank/internal/observability/metrics"
	"github.com/tphakala/tonebank/internal/resolver"
)

// DefaultSampleRate is stored when neither the caller nor the file header gives a rate
const DefaultSampleRate = 44100

// SampleOptions carries the optional attributes of a new sample
type SampleOptions struct {
	BPM        *int
	Source     *string
	SampleRate int // 0 reads the file header, then falls back to DefaultSampleRate
}

// IngestRequest describes one file to add to the catalog
type IngestRequest struct {
	Path     string
	Tone     string // defaults to the name of the file's parent directory
	MIDI     *int
	NoteName string
	Octave   *int
	Options  SampleOptions
}

// IngestResult reports what Ingest did
type IngestResult struct {
	Tone    *entities.Tone
	Sample  *entities.Sample
	Created bool // false when an existing sample at the same pitch was reused
	Method  resolver.Method
}

// ResolvePitch runs the resolution pipeline for one file.
func (s *Service) ResolvePitch(ctx context.Context, req resolver.Request) (resolver.Result, error) {
	start := time.Now()
	res, err := s.resolver.Resolve(ctx, req)
	s.metrics.RecordDuration(metrics.OpResolve, time.Since(start).Seconds())
	if err != nil {
		s.metrics.RecordOperation(metrics.OpResolve, metrics.StatusError)
		var ee *errors.EnhancedError
		if errors.As(err, &ee) {
			s.metrics.RecordError(metrics.OpResolve, string(ee.GetCategory()))
		}
		return resolver.Result{}, err
	}
	s.metrics.RecordOperation(metrics.OpResolve, metrics.StatusSuccess)
	s.metrics.RecordResolution(string(res.Method))
	return res, nil
}

// ToneNameForPath returns the tone a file belongs to: its parent directory name
func ToneNameForPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return filepath.Base(filepath.Dir(abs))
}

// Ingest resolves the pitch of a file, finds or creates its tone and adds
// the sample. A file resolving to a pitch the tone already has returns the
// existing sample. Nothing is stored when resolution fails.
func (s *Service) Ingest(ctx context.Context, req IngestRequest) (IngestResult, error) {
	ctx = logger.WithTraceID(ctx, uuid.NewString())
	log := s.log.WithContext(ctx).With(logger.String("path", req.Path))

	toneName := strings.TrimSpace(req.Tone)
	if toneName == "" {
		toneName = ToneNameForPath(req.Path)
	}

	res, err := s.ResolvePitch(ctx, resolver.Request{
		Path:       req.Path,
		MIDI:       req.MIDI,
		NoteName:   req.NoteName,
		Octave:     req.Octave,
		SampleRate: req.Options.SampleRate,
	})
	if err != nil {
		s.metrics.RecordOperation(metrics.OpIngest, metrics.StatusError)
		return IngestResult{}, err
	}

	// the tone is created in the same transaction as its first sample
	tone, sample, created, err := s.createSample(ctx, toneName, func(tx *repository.Set) (*entities.Tone, error) {
		return tx.Tones.GetOrCreate(ctx, toneName)
	}, req.Path, res.MIDI, req.Options)
	if err != nil {
		s.metrics.RecordOperation(metrics.OpIngest, metrics.StatusError)
		return IngestResult{}, err
	}

	status := metrics.StatusCreated
	if !created {
		status = metrics.StatusReused
	}
	s.metrics.RecordOperation(metrics.OpIngest, status)

	log.Info("sample ingested",
		logger.String("tone", tone.Name),
		logger.Uint64("sample_id", uint64(sample.ID)),
		logger.Int("midi", sample.MIDI),
		logger.String("pitch", music.Name(sample.MIDI)),
		logger.String("method", string(res.Method)),
		logger.Bool("created", created))

	return IngestResult{Tone: tone, Sample: sample, Created: created, Method: res.Method}, nil
}

// CreateSample adds a file with an already resolved pitch to a tone and
// rebuilds the tone's map. When the tone already has a sample at midi that
// sample is returned with created == false.
func (s *Service) CreateSample(ctx context.Context, toneID uint, path string, midi int, opts SampleOptions) (*entities.Sample, bool, error) {
	tone, err := s.repos.Tones.GetByID(ctx, toneID)
	if err != nil {
		return nil, false, toneError(err, toneID)
	}
	_, sample, created, err := s.createSample(ctx, tone.Name, func(tx *repository.Set) (*entities.Tone, error) {
		return tx.Tones.GetByID(ctx, toneID)
	}, path, midi, opts)
	return sample, created, err
}

// createSample adds a file to the tone returned by getTone. getTone runs
// inside the write transaction, so a tone it creates is rolled back together
// with a failed sample.
func (s *Service) createSample(ctx context.Context, toneName string, getTone func(tx *repository.Set) (*entities.Tone, error), path string, midi int, opts SampleOptions) (*entities.Tone, *entities.Sample, bool, error) {
	if midi < music.MinMIDI || midi > music.MaxMIDI {
		return nil, nil, false, validationError("midi %d is outside 0..127", midi)
	}

	sample := &entities.Sample{
		Name:       filepath.Base(path),
		MIDI:       midi,
		BPM:        opts.BPM,
		Source:     opts.Source,
		SampleRate: opts.SampleRate,
	}
	if info, err := audiofile.Probe(path); err == nil {
		if sample.SampleRate == 0 {
			sample.SampleRate = info.SampleRate
		}
		ms := int(info.Duration.Milliseconds())
		sample.DurationMs = &ms
	} else {
		s.log.WithContext(ctx).Debug("audio header not readable",
			logger.String("path", path),
			logger.Error(err))
	}
	if sample.SampleRate <= 0 {
		sample.SampleRate = DefaultSampleRate
	}

	var (
		tone     *entities.Tone
		existing *entities.Sample
		stored   string
	)
	_, err := s.write(ctx, toneName, func(tx *repository.Set) (uint, bool, error) {
		var err error
		if tone, err = getTone(tx); err != nil {
			return 0, false, err
		}

		found, err := tx.Samples.GetByToneAndMIDI(ctx, tone.ID, midi)
		if err == nil {
			existing = found
			return tone.ID, false, nil
		}
		if !errors.Is(err, repository.ErrSampleNotFound) {
			return 0, false, err
		}

		ordinal, err := tx.Samples.NextOrdinal(ctx, tone.ID)
		if err != nil {
			return 0, false, err
		}

		stored, err = s.store.CopyIn(path, tone.Name, ordinal)
		if err != nil {
			return 0, false, err
		}

		sample.ToneID = tone.ID
		sample.Ordinal = ordinal
		sample.Filename = stored
		if err := tx.Samples.Create(ctx, sample); err != nil {
			return 0, false, err
		}
		return tone.ID, true, nil
	})
	if err != nil {
		if stored != "" {
			if rmErr := s.store.Remove(tone.Name, stored); rmErr != nil {
				s.log.Warn("failed to remove copied file after rollback",
					logger.String("file", stored),
					logger.Error(rmErr))
			}
		}
		switch {
		case errors.Is(err, repository.ErrToneNotFound):
			return nil, nil, false, toneError(err, toneName)
		case errors.Is(err, repository.ErrInvalidInput):
			return nil, nil, false, validationError("tone %q: %v", toneName, err)
		}
		return nil, nil, false, wrapWriteError(err, "create_sample", toneName)
	}

	if existing != nil {
		return tone, existing, false, nil
	}
	return tone, sample, true, nil
}

// wrapWriteError keeps categorized errors and classifies the rest
func wrapWriteError(err error, operation string, tone any) error {
	var ee *errors.EnhancedError
	if errors.As(err, &ee) {
		return err
	}
	category := errors.CategoryDatabase
	if errors.Is(err, repository.ErrDuplicateKey) {
		category = errors.CategoryConflict
	}
	return errors.New(err).
		Component("catalog").
		Category(category).
		Context("operation", operation).
		Context("tone", tone).
		Build()
}
