// Package pitchtrack estimates the fundamental frequency of audio files frame by frame.
package pitchtrack

import (
	"context"

	"github.com/tphakala/tonebank/internal/audiofile"
	"github.com/tphakala/tonebank/internal/errors"
)

// Frame is the pitch estimate for one analysis window. Unvoiced frames
// have MIDI 0 and Confidence 0.
type Frame struct {
	MIDI       float64
	Confidence float64
}

// Tracker produces per-frame pitch estimates for an audio file.
// sampleRate is used only when the file does not declare its own rate.
type Tracker interface {
	Track(ctx context.Context, path string, sampleRate int) ([]Frame, error)
}

// FileTracker decodes files with audiofile and runs a YIN estimator over them
type FileTracker struct {
	yin *YIN
}

// NewFileTracker creates a tracker using the given YIN configuration
func NewFileTracker(cfg Config) (*FileTracker, error) {
	yin, err := NewYIN(cfg)
	if err != nil {
		return nil, err
	}
	return &FileTracker{yin: yin}, nil
}

// Track decodes path to mono and returns one Frame per hop
func (t *FileTracker) Track(ctx context.Context, path string, sampleRate int) ([]Frame, error) {
	sig, err := audiofile.ReadMono(path)
	if err != nil {
		return nil, err
	}
	if sig.SampleRate <= 0 {
		sig.SampleRate = sampleRate
	}
	if sig.SampleRate <= 0 {
		return nil, errors.Newf("no sample rate for %s", path).
			Component("pitchtrack").
			Category(errors.CategoryAudioAnalysis).
			Build()
	}
	return t.yin.Analyze(ctx, sig)
}
