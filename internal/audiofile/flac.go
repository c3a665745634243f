package audiofile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tphakala/flac"
)

func probeFLAC(r io.Reader) (Info, error) {
	decoder, err := flac.NewDecoder(r)
	if err != nil {
		return Info{}, err
	}

	info := Info{
		Format:     FormatFLAC,
		SampleRate: decoder.SampleRate,
		Channels:   decoder.NChannels,
		BitDepth:   decoder.BitsPerSample,
		Frames:     int(decoder.TotalSamples),
	}
	if decoder.SampleRate > 0 {
		info.Duration = time.Duration(decoder.TotalSamples) * time.Second / time.Duration(decoder.SampleRate)
	}
	return info, nil
}

func readFLAC(r io.Reader) (Signal, error) {
	decoder, err := flac.NewDecoder(r)
	if err != nil {
		return Signal{}, err
	}

	divisor, err := getAudioDivisor(decoder.BitsPerSample)
	if err != nil {
		return Signal{}, err
	}

	bytesPerSample := decoder.BitsPerSample / 8
	channels := max(decoder.NChannels, 1)

	var samples []float64
	for {
		frame, err := decoder.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Signal{}, fmt.Errorf("decode FLAC frame: %w", err)
		}

		ints := make([]int, 0, len(frame)/bytesPerSample)
		for i := 0; i+bytesPerSample <= len(frame); i += bytesPerSample {
			ints = append(ints, decodeSample(frame[i:i+bytesPerSample], decoder.BitsPerSample))
		}
		samples = append(samples, downmix(ints, channels, divisor)...)
	}

	return Signal{Samples: samples, SampleRate: decoder.SampleRate}, nil
}

// decodeSample reads one little-endian signed PCM sample
func decodeSample(b []byte, bitDepth int) int {
	switch bitDepth {
	case 16:
		return int(int16(binary.LittleEndian.Uint16(b)))
	case 24:
		v := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
		if v&0x800000 != 0 {
			v |= ^0xFFFFFF
		}
		return int(v)
	default:
		return int(int32(binary.LittleEndian.Uint32(b)))
	}
}
