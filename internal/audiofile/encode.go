package audiofile

import (
	"fmt"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WriteWAV encodes a mono signal as integer PCM WAV with the given bit depth.
func WriteWAV(w io.WriteSeeker, sig Signal, bitDepth int) error {
	divisor, err := getAudioDivisor(bitDepth)
	if err != nil {
		return err
	}

	data := make([]int, len(sig.Samples))
	for i, v := range sig.Samples {
		data[i] = int(math.Round(math.Max(-1, math.Min(v, 1-1/divisor)) * divisor))
	}

	enc := wav.NewEncoder(w, sig.SampleRate, bitDepth, 1, 1)
	buf := &audio.IntBuffer{
		Data:           data,
		Format:         &audio.Format{SampleRate: sig.SampleRate, NumChannels: 1},
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encode WAV: %w", err)
	}
	return enc.Close()
}

// Sine returns a mono sine tone, used to synthesize reference samples.
func Sine(hz float64, amplitude float64, sampleRate int, duration float64) Signal {
	n := int(duration * float64(sampleRate))
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = amplitude * math.Sin(2*math.Pi*hz*float64(i)/float64(sampleRate))
	}
	return Signal{Samples: samples, SampleRate: sampleRate}
}
