package resolver

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/tphakala/tonebank/internal/music"
)

// Pitch tokens in file names: a letter A-G with optional accidentals and an
// octave 0-10, written either note first ("d-3", "C#4", "eb_2") or octave
// first ("3D", "4_c#"). Tokens must not be glued to other letters or digits.
// The patterns consume the leading boundary only; the character after a
// token is checked by followedByBoundary so it stays available as the
// leading boundary of the next token.
var (
	noteOctavePattern = regexp.MustCompile(`(?:^|[^A-Za-z0-9])([A-Ga-g])(#{1,2}|b{1,2}|♯|♭)?[-_ ]?(10|[0-9])`)
	octaveNotePattern = regexp.MustCompile(`(?:^|[^A-Za-z0-9])(10|[0-9])[-_ ]?([A-Ga-g])(#{1,2}|b{1,2}|♯|♭)?`)
)

// FromFilename extracts a pitch from the base name of path, ignoring the
// extension. The first token that converts to a valid MIDI number wins.
func FromFilename(path string) (int, bool) {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	for _, loc := range noteOctavePattern.FindAllStringSubmatchIndex(base, -1) {
		if !followedByBoundary(base, loc[1], false) {
			continue
		}
		name := group(base, loc, 1) + group(base, loc, 2)
		if midi, ok := tokenToMIDI(name, group(base, loc, 3)); ok {
			return midi, true
		}
	}
	for _, loc := range octaveNotePattern.FindAllStringSubmatchIndex(base, -1) {
		if !followedByBoundary(base, loc[1], true) {
			continue
		}
		name := group(base, loc, 2) + group(base, loc, 3)
		if midi, ok := tokenToMIDI(name, group(base, loc, 1)); ok {
			return midi, true
		}
	}
	return 0, false
}

// group returns submatch n of a FindAllStringSubmatchIndex result, or "" when it did not participate
func group(s string, loc []int, n int) string {
	if loc[2*n] < 0 {
		return ""
	}
	return s[loc[2*n]:loc[2*n+1]]
}

// followedByBoundary reports whether the token ending at i is not glued to a
// digit, or to a letter when letters is set.
func followedByBoundary(s string, i int, letters bool) bool {
	if i >= len(s) {
		return true
	}
	c := s[i]
	switch {
	case c >= '0' && c <= '9':
		return false
	case letters && (c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'):
		return false
	}
	return true
}

func tokenToMIDI(name, octaveText string) (int, bool) {
	octave, err := strconv.Atoi(octaveText)
	if err != nil {
		return 0, false
	}
	midi, err := music.MIDIFromName(name, octave)
	if err != nil {
		return 0, false
	}
	return midi, true
}
