// Package music converts between note spellings, MIDI note numbers and
// frequencies in twelve-tone equal temperament with A4 = 440 Hz.
package music

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tphakala/tonebank/internal/errors"
)

const (
	// ConcertA is the reference frequency of MIDI note 69
	ConcertA = 440.0

	// ConcertAMIDI is the MIDI number of A4
	ConcertAMIDI = 69

	MinMIDI = 0
	MaxMIDI = 127
)

// ErrInvalidPitchSpelling is returned when a note name is not a real pitch
var ErrInvalidPitchSpelling = errors.NewStd("invalid pitch spelling")

var letterPitchClass = map[byte]int{
	'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11,
}

var sharpNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

func invalidSpelling(name string) error {
	return errors.New(fmt.Errorf("%w: %q", ErrInvalidPitchSpelling, name)).
		Component("music").
		Category(errors.CategoryValidation).
		Context("note_name", name).
		Build()
}

// ParseNoteName returns the pitch class offset of a note name relative to C.
// The name is a letter A-G in either case followed by any run of accidentals:
// '#' and '♯' raise by a semitone, 'b', '♭' and '-' lower by one.
// The result is not reduced modulo 12, so "B#" yields 12 and "Cb" yields -1.
func ParseNoteName(name string) (int, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, invalidSpelling(name)
	}

	pc, ok := letterPitchClass[upper(name[0])]
	if !ok {
		return 0, invalidSpelling(name)
	}

	for _, r := range name[1:] {
		switch r {
		case '#', '♯':
			pc++
		case 'b', '♭', '-':
			pc--
		default:
			return 0, invalidSpelling(name)
		}
	}

	return pc, nil
}

// MIDIFromName converts a note name and octave to a MIDI number, so that
// MIDIFromName("C", 4) == 60. Results outside 0..127 are rejected.
func MIDIFromName(name string, octave int) (int, error) {
	pc, err := ParseNoteName(name)
	if err != nil {
		return 0, err
	}

	midi := (octave+1)*12 + pc
	if midi < MinMIDI || midi > MaxMIDI {
		return 0, errors.Newf("%s%d is outside the MIDI range", name, octave).
			Component("music").
			Category(errors.CategoryValidation).
			Context("midi", midi).
			Build()
	}
	return midi, nil
}

// ParsePitch parses a pitch such as "D3", "c#4", "Eb" or "F♯10". When the
// octave is omitted defaultOctave is used.
func ParsePitch(s string, defaultOctave int) (int, error) {
	s = strings.TrimSpace(s)
	digits := len(s)
	for digits > 0 && s[digits-1] >= '0' && s[digits-1] <= '9' {
		digits--
	}

	name, octaveText := s[:digits], s[digits:]
	if name == "" {
		return 0, invalidSpelling(s)
	}

	octave := defaultOctave
	if octaveText != "" {
		var err error
		octave, err = strconv.Atoi(octaveText)
		if err != nil {
			return 0, invalidSpelling(s)
		}
	}

	return MIDIFromName(name, octave)
}

// ParseMIDIOrPitch accepts either a MIDI number ("60") or a pitch name
// ("C4", "eb") as understood by ParsePitch.
func ParseMIDIOrPitch(s string, defaultOctave int) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n < MinMIDI || n > MaxMIDI {
			return 0, errors.Newf("midi %d is outside %d..%d", n, MinMIDI, MaxMIDI).
				Component("music").
				Category(errors.CategoryValidation).
				Build()
		}
		return n, nil
	}
	return ParsePitch(s, defaultOctave)
}

// Frequency returns the frequency in Hz of a (possibly fractional) MIDI pitch.
func Frequency(midi float64) float64 {
	return ConcertA * math.Pow(2, (midi-ConcertAMIDI)/12)
}

// MIDIFromFrequency returns the fractional MIDI pitch of a frequency in Hz.
// Non-positive frequencies map to 0.
func MIDIFromFrequency(hz float64) float64 {
	if hz <= 0 {
		return 0
	}
	return ConcertAMIDI + 12*math.Log2(hz/ConcertA)
}

// Name returns the sharp spelling of a MIDI number, for example "C#4".
func Name(midi int) string {
	octave := midi/12 - 1
	pc := midi % 12
	if pc < 0 {
		pc += 12
		octave--
	}
	return sharpNames[pc] + strconv.Itoa(octave)
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}
