// Package audiofile decodes WAV and FLAC sample files into mono PCM.
package audiofile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tphakala/tonebank/internal/errors"
)

// Supported container formats
const (
	FormatWAV  = "wav"
	FormatFLAC = "flac"
)

// Info describes an audio file without decoding its samples
type Info struct {
	Format     string
	SampleRate int
	Channels   int
	BitDepth   int
	Frames     int // samples per channel
	Duration   time.Duration
}

// Signal is decoded mono audio normalized to [-1, 1)
type Signal struct {
	Samples    []float64
	SampleRate int
}

// Duration returns the length of the signal
func (s Signal) Duration() time.Duration {
	if s.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(s.Samples)) * time.Second / time.Duration(s.SampleRate)
}

// FormatOf returns the container format implied by the file extension, or "" if unsupported
func FormatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		return FormatWAV
	case ".flac":
		return FormatFLAC
	default:
		return ""
	}
}

// IsSupported reports whether path has a decodable extension
func IsSupported(path string) bool {
	return FormatOf(path) != ""
}

// Probe reads the header of a WAV or FLAC file
func Probe(path string) (Info, error) {
	file, err := os.Open(path)
	if err != nil {
		return Info{}, errors.FileError(err, path, 0)
	}
	defer file.Close()

	var info Info
	switch FormatOf(path) {
	case FormatWAV:
		info, err = probeWAV(file)
	case FormatFLAC:
		info, err = probeFLAC(file)
	default:
		return Info{}, unsupported(path)
	}
	if err != nil {
		return Info{}, parseError(err, path)
	}
	return info, nil
}

// ReadMono decodes a WAV or FLAC file, averaging channels into one
func ReadMono(path string) (Signal, error) {
	file, err := os.Open(path)
	if err != nil {
		return Signal{}, errors.FileError(err, path, 0)
	}
	defer file.Close()

	var sig Signal
	switch FormatOf(path) {
	case FormatWAV:
		sig, err = readWAV(file)
	case FormatFLAC:
		sig, err = readFLAC(file)
	default:
		return Signal{}, unsupported(path)
	}
	if err != nil {
		return Signal{}, parseError(err, path)
	}
	return sig, nil
}

// getAudioDivisor returns the full-scale value for integer PCM of the given bit depth
func getAudioDivisor(bitDepth int) (float64, error) {
	switch bitDepth {
	case 16:
		return 32768.0, nil
	case 24:
		return 8388608.0, nil
	case 32:
		return 2147483648.0, nil
	default:
		return 0, fmt.Errorf("unsupported audio bit depth: %d", bitDepth)
	}
}

// downmix averages interleaved integer frames into normalized mono samples
func downmix(data []int, channels int, divisor float64) []float64 {
	if channels < 1 {
		channels = 1
	}
	out := make([]float64, len(data)/channels)
	for i := range out {
		var sum int
		for c := range channels {
			sum += data[i*channels+c]
		}
		out[i] = float64(sum) / float64(channels) / divisor
	}
	return out
}

func unsupported(path string) error {
	return errors.Newf("unsupported audio format: %s", filepath.Ext(path)).
		Component("audiofile").
		Category(errors.CategoryFileParsing).
		FileContext(path, 0).
		Build()
}

func parseError(err error, path string) error {
	return errors.New(fmt.Errorf("decode %s: %w", filepath.Base(path), err)).
		Component("audiofile").
		Category(errors.CategoryFileParsing).
		FileContext(path, 0).
		Build()
}
