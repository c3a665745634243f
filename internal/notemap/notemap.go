// Package notemap ranks samples against target pitches and builds the
// per-tone lookup table consulted at playback time.
package notemap

import (
	"cmp"
	"slices"

	"github.com/tphakala/tonebank/internal/music"
)

const (
	// Size is the number of playable targets, MIDI 0 through 119
	Size = 120

	// distanceWeight scales the semitone distance between sample and target
	distanceWeight = 10

	// pitchDownPenalty is added when a sample has to be played below its recorded pitch
	pitchDownPenalty = 5
)

// Score ranks how well a sample recorded at samplePitch serves target.
// Lower is better; an exact match scores 0. Equal distances favour
// pitching a sample up over pitching one down.
func Score(samplePitch, target int) int {
	d := samplePitch - target
	if d > 0 {
		return distanceWeight*d + pitchDownPenalty
	}
	return -distanceWeight * d
}

// Transform returns the playback-rate multiplier that retunes a sample
// recorded at samplePitch to target. It is exactly 1 for equal pitches.
func Transform(samplePitch, target int) float64 {
	if samplePitch == target {
		return 1.0
	}
	return music.Frequency(float64(target)) / music.Frequency(float64(samplePitch))
}

// Candidate is a sample considered by Build
type Candidate struct {
	ID   uint
	MIDI int
}

// Entry is one slot of a NoteMap. Both fields are nil when no sample can play the target.
type Entry struct {
	SampleID  *uint    `json:"sample_id"`
	Transform *float64 `json:"transform"`
}

// Empty reports whether the entry has no playable sample
func (e Entry) Empty() bool {
	return e.SampleID == nil
}

// NoteMap is the lookup table for one tone plus the roster of sample IDs it was built from.
// A NoteMap with nil Entries has never been built.
type NoteMap struct {
	Entries []Entry `json:"entries"`
	Roster  []uint  `json:"roster"`
}

// Built reports whether the map holds a full table
func (m NoteMap) Built() bool {
	return len(m.Entries) == Size
}

// Lookup returns the entry for target. ok is false when the map is not
// built, target is out of range, or no sample serves the target.
func (m NoteMap) Lookup(target int) (Entry, bool) {
	if !m.Built() || target < 0 || target >= Size {
		return Entry{}, false
	}
	e := m.Entries[target]
	return e, !e.Empty()
}

// Build computes the NoteMap for a set of candidates. Candidates are
// considered in ascending ID order and a later candidate only wins with a
// strictly lower score, so ties go to the lowest ID. An empty candidate set
// yields a built map whose entries are all empty.
func Build(candidates []Candidate) NoteMap {
	ordered := slices.Clone(candidates)
	slices.SortFunc(ordered, func(a, b Candidate) int { return cmp.Compare(a.ID, b.ID) })

	m := NoteMap{
		Entries: make([]Entry, Size),
		Roster:  make([]uint, 0, len(ordered)),
	}
	for _, c := range ordered {
		m.Roster = append(m.Roster, c.ID)
	}

	for target := range Size {
		best := -1
		bestScore := 0
		for i, c := range ordered {
			s := Score(c.MIDI, target)
			if best < 0 || s < bestScore {
				best, bestScore = i, s
			}
		}
		if best < 0 {
			continue
		}
		id := ordered[best].ID
		ratio := Transform(ordered[best].MIDI, target)
		m.Entries[target] = Entry{SampleID: &id, Transform: &ratio}
	}

	return m
}
