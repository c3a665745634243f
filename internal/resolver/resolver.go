// Package resolver determines the MIDI pitch of an audio sample.
//
// Signals are tried from most to least authoritative: an explicit MIDI
// number, a note name with octave, a pitch token in the file name, pitch
// tracking of the audio itself and finally an optional Prompter. The first
// step that yields a pitch wins.
package resolver

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/tphakala/tonebank/internal/errors"
	"github.com/tphakala/tonebank/internal/logger"
	"github.com/tphakala/tonebank/internal/music"
	"github.com/tphakala/tonebank/internal/pitchtrack"
)

// ErrUnresolvedPitch is returned when no resolution step produced a pitch
var ErrUnresolvedPitch = errors.NewStd("unresolved pitch")

// Method records which step resolved a pitch
type Method string

const (
	MethodExplicit Method = "explicit"
	MethodNoteName Method = "note-name"
	MethodFilename Method = "filename"
	MethodAnalysis Method = "analysis"
	MethodPrompt   Method = "prompt"
)

const (
	DefaultConfidence = 0.8
	DefaultSampleRate = 44100
	DefaultOctave     = 4

	maxOctave = 10
)

// Request carries the file and optional hints for one resolution
type Request struct {
	Path       string
	MIDI       *int   // used verbatim when set
	NoteName   string // used together with Octave
	Octave     *int
	SampleRate int // passed to the tracker, 0 means the configured default
}

// Result is a resolved pitch and the step that produced it
type Result struct {
	MIDI   int
	Method Method
}

// Prompter asks for a note name when nothing else resolved a file.
// An empty answer leaves the pitch unresolved.
type Prompter interface {
	PromptNote(ctx context.Context, path string) (string, error)
}

// PrompterFunc adapts a function to the Prompter interface
type PrompterFunc func(ctx context.Context, path string) (string, error)

// PromptNote calls f
func (f PrompterFunc) PromptNote(ctx context.Context, path string) (string, error) {
	return f(ctx, path)
}

// Config holds resolver tuning
type Config struct {
	Confidence        float64 // analysis frames below this are discarded
	DefaultSampleRate int
	DefaultOctave     int // octave for prompted names without one, 0..10
}

// DefaultConfig returns the resolver defaults
func DefaultConfig() Config {
	return Config{
		Confidence:        DefaultConfidence,
		DefaultSampleRate: DefaultSampleRate,
		DefaultOctave:     DefaultOctave,
	}
}

// Resolver runs the resolution pipeline
type Resolver struct {
	cfg      Config
	tracker  pitchtrack.Tracker
	prompter Prompter
	log      logger.Logger
}

// Option configures a Resolver
type Option func(*Resolver)

// WithPrompter enables the interactive step
func WithPrompter(p Prompter) Option {
	return func(r *Resolver) { r.prompter = p }
}

// WithLogger sets the logger, by default the global "resolver" module
func WithLogger(l logger.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.log = l
		}
	}
}

// New creates a Resolver. A nil tracker disables audio analysis. Unset
// confidence and sample rate take their defaults; an octave outside 0..10
// falls back to DefaultOctave.
func New(cfg Config, tracker pitchtrack.Tracker, opts ...Option) *Resolver {
	if cfg.Confidence <= 0 {
		cfg.Confidence = DefaultConfidence
	}
	if cfg.DefaultSampleRate <= 0 {
		cfg.DefaultSampleRate = DefaultSampleRate
	}
	if cfg.DefaultOctave < 0 || cfg.DefaultOctave > maxOctave {
		cfg.DefaultOctave = DefaultOctave
	}

	r := &Resolver{
		cfg:     cfg,
		tracker: tracker,
		log:     logger.Global().Module("resolver"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the pitch of req.Path. It fails with an error wrapping
// ErrUnresolvedPitch when every step comes up empty.
func (r *Resolver) Resolve(ctx context.Context, req Request) (Result, error) {
	log := r.log.WithContext(ctx).With(logger.String("path", req.Path))

	if req.MIDI != nil {
		if *req.MIDI < music.MinMIDI || *req.MIDI > music.MaxMIDI {
			return Result{}, errors.Newf("midi %d is outside 0..127", *req.MIDI).
				Component("resolver").
				Category(errors.CategoryValidation).
				FileContext(req.Path, 0).
				Context("midi", *req.MIDI).
				Build()
		}
		return r.resolved(log, *req.MIDI, MethodExplicit), nil
	}

	if req.NoteName != "" && req.Octave != nil {
		midi, err := music.MIDIFromName(req.NoteName, *req.Octave)
		if err == nil {
			return r.resolved(log, midi, MethodNoteName), nil
		}
		log.Debug("note name rejected, trying next step",
			logger.String("note_name", req.NoteName),
			logger.Int("octave", *req.Octave),
			logger.Error(err))
	}

	if midi, ok := FromFilename(req.Path); ok {
		return r.resolved(log, midi, MethodFilename), nil
	}

	if midi, ok := r.analyze(ctx, log, req); ok {
		return r.resolved(log, midi, MethodAnalysis), nil
	}

	if err := ctx.Err(); err != nil {
		return Result{}, errors.New(err).
			Component("resolver").
			Category(errors.CategoryCancellation).
			FileContext(req.Path, 0).
			Build()
	}

	if r.prompter != nil {
		midi, ok, err := r.prompt(ctx, req.Path)
		if err != nil {
			return Result{}, err
		}
		if ok {
			return r.resolved(log, midi, MethodPrompt), nil
		}
	}

	log.Warn("pitch could not be resolved")
	return Result{}, unresolved(req.Path, nil)
}

func (r *Resolver) resolved(log logger.Logger, midi int, method Method) Result {
	log.Debug("pitch resolved",
		logger.Int("midi", midi),
		logger.String("pitch", music.Name(midi)),
		logger.String("method", string(method)))
	return Result{MIDI: midi, Method: method}
}

// analyze averages the confident, voiced frames of the tracker output.
// Tracker failures are logged and treated as no result.
func (r *Resolver) analyze(ctx context.Context, log logger.Logger, req Request) (int, bool) {
	if r.tracker == nil || ctx.Err() != nil {
		return 0, false
	}

	sampleRate := req.SampleRate
	if sampleRate <= 0 {
		sampleRate = r.cfg.DefaultSampleRate
	}

	start := time.Now()
	frames, err := r.tracker.Track(ctx, req.Path, sampleRate)
	if err != nil {
		log.Warn("pitch analysis failed", logger.Error(err))
		return 0, false
	}

	midi, kept, ok := AverageFrames(frames, r.cfg.Confidence)
	log.Debug("pitch analysis finished",
		logger.Int("frames", len(frames)),
		logger.Int("kept", kept),
		logger.Duration("elapsed", time.Since(start)))
	if !ok || midi < music.MinMIDI || midi > music.MaxMIDI {
		return 0, false
	}
	return midi, true
}

// AverageFrames drops frames below minConfidence and frames estimating
// exactly zero, then rounds the mean of the rest. ok is false when no
// frame survives.
func AverageFrames(frames []pitchtrack.Frame, minConfidence float64) (midi, kept int, ok bool) {
	sum := 0.0
	for _, f := range frames {
		if f.Confidence < minConfidence || f.MIDI == 0 {
			continue
		}
		sum += f.MIDI
		kept++
	}
	if kept == 0 {
		return 0, 0, false
	}
	return int(math.Round(sum / float64(kept))), kept, true
}

// prompt asks the Prompter for a note name. An invalid answer aborts.
func (r *Resolver) prompt(ctx context.Context, path string) (int, bool, error) {
	answer, err := r.prompter.PromptNote(ctx, path)
	if err != nil {
		return 0, false, unresolved(path, err)
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return 0, false, nil
	}

	midi, err := music.ParsePitch(answer, r.cfg.DefaultOctave)
	if err != nil {
		return 0, false, unresolved(path, err)
	}
	return midi, true, nil
}

func unresolved(path string, cause error) error {
	var err error
	if cause != nil {
		err = fmt.Errorf("%w: %s: %w", ErrUnresolvedPitch, path, cause)
	} else {
		err = fmt.Errorf("%w: %s", ErrUnresolvedPitch, path)
	}
	return errors.New(err).
		Component("resolver").
		Category(errors.CategoryPitchResolution).
		FileContext(path, 0).
		Build()
}
