package audiofile

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func probeWAV(r io.ReadSeeker) (Info, error) {
	decoder := wav.NewDecoder(r)
	decoder.ReadInfo()
	if !decoder.IsValidFile() {
		return Info{}, errors.New("invalid WAV file format")
	}

	duration, err := decoder.Duration()
	if err != nil {
		return Info{}, fmt.Errorf("read WAV duration: %w", err)
	}

	frames := 0
	if decoder.SampleRate > 0 {
		frames = int(duration * time.Duration(decoder.SampleRate) / time.Second)
	}

	return Info{
		Format:     FormatWAV,
		SampleRate: int(decoder.SampleRate),
		Channels:   int(decoder.NumChans),
		BitDepth:   int(decoder.BitDepth),
		Frames:     frames,
		Duration:   duration,
	}, nil
}

func readWAV(r io.ReadSeeker) (Signal, error) {
	decoder := wav.NewDecoder(r)
	decoder.ReadInfo()
	if !decoder.IsValidFile() {
		return Signal{}, errors.New("input is not a valid WAV audio file")
	}

	divisor, err := getAudioDivisor(int(decoder.BitDepth))
	if err != nil {
		return Signal{}, err
	}
	channels := int(decoder.NumChans)

	buf := &audio.IntBuffer{
		Data:   make([]int, 64*1024*max(channels, 1)),
		Format: &audio.Format{SampleRate: int(decoder.SampleRate), NumChannels: channels},
	}

	var samples []float64
	for {
		n, err := decoder.PCMBuffer(buf)
		if err != nil {
			return Signal{}, err
		}
		if n == 0 {
			break
		}
		samples = append(samples, downmix(buf.Data[:n], channels, divisor)...)
	}

	return Signal{Samples: samples, SampleRate: int(decoder.SampleRate)}, nil
}
