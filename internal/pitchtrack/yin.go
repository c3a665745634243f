package pitchtrack

import (
	"context"
	"fmt"
	"math"
	"math/cmplx"
	"time"

	"github.com/mjibson/go-dsp/fft"

	"github.com/tphakala/tonebank/internal/audiofile"
	"github.com/tphakala/tonebank/internal/errors"
	"github.com/tphakala/tonebank/internal/music"
)

// silenceEnergy is the window energy below which a frame is treated as unvoiced
const silenceEnergy = 1e-10

// Config holds YIN analysis parameters
type Config struct {
	FrameSize    int     // samples per analysis window
	HopSize      int     // samples between window starts
	Threshold    float64 // absolute threshold on the cumulative mean normalized difference
	MinFrequency float64 // Hz
	MaxFrequency float64 // Hz
}

// DefaultConfig returns parameters suited to pitched instrument samples
func DefaultConfig() Config {
	return Config{
		FrameSize:    2048,
		HopSize:      512,
		Threshold:    0.15,
		MinFrequency: 40,
		MaxFrequency: 2000,
	}
}

// YIN implements the YIN fundamental frequency estimator (de Cheveigné and
// Kawahara, 2002). The difference function is computed from an FFT
// cross-correlation rather than the quadratic direct sum.
type YIN struct {
	cfg Config
}

// NewYIN validates cfg and returns an estimator
func NewYIN(cfg Config) (*YIN, error) {
	switch {
	case cfg.FrameSize < 64:
		return nil, configError("frame size %d is too small", cfg.FrameSize)
	case cfg.HopSize <= 0 || cfg.HopSize > cfg.FrameSize:
		return nil, configError("hop size %d must be in 1..%d", cfg.HopSize, cfg.FrameSize)
	case cfg.Threshold <= 0 || cfg.Threshold >= 1:
		return nil, configError("threshold %g must be in (0,1)", cfg.Threshold)
	case cfg.MinFrequency <= 0 || cfg.MaxFrequency <= cfg.MinFrequency:
		return nil, configError("frequency range %g-%g Hz is invalid", cfg.MinFrequency, cfg.MaxFrequency)
	}
	return &YIN{cfg: cfg}, nil
}

func configError(format string, args ...any) error {
	return errors.New(fmt.Errorf(format, args...)).
		Component("pitchtrack").
		Category(errors.CategoryConfiguration).
		Build()
}

// Analyze runs the estimator over every full window of sig. Signals
// shorter than one window are analyzed as a single zero-padded window.
func (y *YIN) Analyze(ctx context.Context, sig audiofile.Signal) ([]Frame, error) {
	size := y.cfg.FrameSize
	samples := sig.Samples
	if len(samples) < size {
		padded := make([]float64, size)
		copy(padded, samples)
		samples = padded
	}

	began := time.Now()
	frames := make([]Frame, 0, (len(samples)-size)/y.cfg.HopSize+1)
	for start := 0; start+size <= len(samples); start += y.cfg.HopSize {
		if err := ctx.Err(); err != nil {
			return nil, errors.New(err).
				Component("pitchtrack").
				Category(errors.CategoryCancellation).
				Timing("yin_analyze", time.Since(began)).
				Context("frames_done", len(frames)).
				Build()
		}
		hz, confidence := y.estimate(samples[start:start+size], sig.SampleRate)
		if hz <= 0 {
			frames = append(frames, Frame{})
			continue
		}
		frames = append(frames, Frame{MIDI: music.MIDIFromFrequency(hz), Confidence: confidence})
	}
	return frames, nil
}

// estimate returns the f0 of one window in Hz and 1 - d'(tau), or 0, 0 when unvoiced
func (y *YIN) estimate(window []float64, sampleRate int) (float64, float64) {
	w := len(window) / 2

	minTau := max(2, int(float64(sampleRate)/y.cfg.MaxFrequency))
	maxTau := min(w-1, int(math.Ceil(float64(sampleRate)/y.cfg.MinFrequency)))
	if minTau >= maxTau {
		return 0, 0
	}

	d := difference(window, w, maxTau)
	if d == nil {
		return 0, 0
	}
	cmnd := cumulativeMeanNormalized(d)

	tau := -1
	for t := minTau; t <= maxTau; t++ {
		if cmnd[t] < y.cfg.Threshold {
			for t+1 <= maxTau && cmnd[t+1] < cmnd[t] {
				t++
			}
			tau = t
			break
		}
	}
	if tau < 0 {
		return 0, 0
	}

	better := parabolicInterpolation(cmnd, tau)
	return float64(sampleRate) / better, 1 - cmnd[tau]
}

// difference computes d(tau) = sum_{i<w} (x[i] - x[i+tau])^2 for tau in 0..maxTau
// using r(tau) from an FFT cross-correlation and prefix sums of x^2.
// It returns nil for a silent window.
func difference(x []float64, w, maxTau int) []float64 {
	n := len(x)

	prefix := make([]float64, n+1)
	for i, v := range x {
		prefix[i+1] = prefix[i] + v*v
	}
	if prefix[w] < silenceEnergy {
		return nil
	}

	size := nextPow2(n + w)
	a := make([]float64, size)
	b := make([]float64, size)
	copy(a, x[:w])
	copy(b, x)

	fa := fft.FFTReal(a)
	fb := fft.FFTReal(b)
	for i := range fa {
		fa[i] = cmplx.Conj(fa[i]) * fb[i]
	}
	r := fft.IFFT(fa)

	d := make([]float64, maxTau+1)
	for tau := 1; tau <= maxTau; tau++ {
		energyShift := prefix[tau+w] - prefix[tau]
		d[tau] = math.Max(0, prefix[w]+energyShift-2*real(r[tau]))
	}
	return d
}

// cumulativeMeanNormalized computes d'(tau), with d'(0) = 1
func cumulativeMeanNormalized(d []float64) []float64 {
	out := make([]float64, len(d))
	out[0] = 1
	runningSum := 0.0
	for tau := 1; tau < len(d); tau++ {
		runningSum += d[tau]
		if runningSum == 0 {
			out[tau] = 1
			continue
		}
		out[tau] = d[tau] * float64(tau) / runningSum
	}
	return out
}

// parabolicInterpolation refines an integer lag using its neighbours
func parabolicInterpolation(d []float64, tau int) float64 {
	if tau < 1 || tau+1 >= len(d) {
		return float64(tau)
	}
	s0, s1, s2 := d[tau-1], d[tau], d[tau+1]
	denom := 2 * (2*s1 - s2 - s0)
	if denom == 0 {
		return float64(tau)
	}
	return float64(tau) + (s2-s0)/denom
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
