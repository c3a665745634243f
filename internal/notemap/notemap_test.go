package notemap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/tonebank/internal/music"
)

func TestScoreExactMatchIsMinimal(t *testing.T) {
	t.Parallel()

	for p := range 128 {
		assert.Zero(t, Score(p, p))
		assert.Equal(t, 1.0, Transform(p, p))
		for target := range Size {
			assert.GreaterOrEqual(t, Score(p, target), Score(p, p))
		}
	}
}

func TestScoreMonotonicInDistance(t *testing.T) {
	t.Parallel()

	for p := range 128 {
		for t1 := range Size {
			for t2 := range Size {
				if abs(p-t2) > abs(p-t1) && Score(p, t1) > Score(p, t2) {
					t.Fatalf("score not monotonic: sample %d, targets %d and %d", p, t1, t2)
				}
			}
		}
	}
}

func TestScorePrefersPitchingUp(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 20, Score(58, 60))
	assert.Equal(t, 25, Score(62, 60))
	assert.Less(t, Score(58, 60), Score(62, 60))
}

func TestTransformIsFrequencyRatio(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 2.0, Transform(60, 72), 1e-12)
	assert.InDelta(t, 0.5, Transform(72, 60), 1e-12)
	assert.InDelta(t, music.Frequency(64)/music.Frequency(50), Transform(50, 64), 1e-12)
}

func TestBuildEmpty(t *testing.T) {
	t.Parallel()

	m := Build(nil)
	require.True(t, m.Built())
	require.Len(t, m.Entries, Size)
	assert.Empty(t, m.Roster)
	for target, e := range m.Entries {
		assert.Nil(t, e.SampleID, "target %d", target)
		assert.Nil(t, e.Transform, "target %d", target)
		_, ok := m.Lookup(target)
		assert.False(t, ok)
	}
}

func TestBuildSingleSample(t *testing.T) {
	t.Parallel()

	m := Build([]Candidate{{ID: 7, MIDI: 50}})
	assert.Equal(t, []uint{7}, m.Roster)
	for target := range Size {
		e, ok := m.Lookup(target)
		require.True(t, ok)
		assert.Equal(t, uint(7), *e.SampleID)
		assert.InDelta(t, music.Frequency(float64(target))/music.Frequency(50), *e.Transform, 1e-12)
	}
	e, _ := m.Lookup(50)
	assert.Equal(t, 1.0, *e.Transform)
}

func TestBuildPicksNearestAndBreaksTiesByID(t *testing.T) {
	t.Parallel()

	m := Build([]Candidate{{ID: 3, MIDI: 64}, {ID: 1, MIDI: 60}, {ID: 2, MIDI: 60}})

	assert.Equal(t, []uint{1, 2, 3}, m.Roster)

	e, _ := m.Lookup(60)
	assert.Equal(t, uint(1), *e.SampleID, "duplicate pitch resolves to lowest id")

	// 62 is two semitones from both; pitching 60 up beats pitching 64 down
	e, _ = m.Lookup(62)
	assert.Equal(t, uint(1), *e.SampleID)

	e, _ = m.Lookup(63)
	assert.Equal(t, uint(3), *e.SampleID)

	e, _ = m.Lookup(0)
	assert.Equal(t, uint(1), *e.SampleID)
	e, _ = m.Lookup(119)
	assert.Equal(t, uint(3), *e.SampleID)
}

func TestBuildIsIdempotentAndOrderIndependent(t *testing.T) {
	t.Parallel()

	a := []Candidate{{ID: 10, MIDI: 36}, {ID: 4, MIDI: 48}, {ID: 9, MIDI: 72}}
	b := []Candidate{{ID: 9, MIDI: 72}, {ID: 10, MIDI: 36}, {ID: 4, MIDI: 48}}

	assert.Equal(t, Build(a), Build(a))
	assert.Equal(t, Build(a), Build(b))
}

func TestBuildAddAndRemoveCloserSample(t *testing.T) {
	t.Parallel()

	before := Build([]Candidate{{ID: 1, MIDI: 40}})
	e, _ := before.Lookup(70)
	assert.Equal(t, uint(1), *e.SampleID)

	after := Build([]Candidate{{ID: 1, MIDI: 40}, {ID: 2, MIDI: 69}})
	e, _ = after.Lookup(70)
	assert.Equal(t, uint(2), *e.SampleID)

	removed := Build([]Candidate{{ID: 2, MIDI: 69}})
	e, _ = removed.Lookup(40)
	assert.Equal(t, uint(2), *e.SampleID, "next best takes over")
}

func TestLookupBounds(t *testing.T) {
	t.Parallel()

	var never NoteMap
	assert.False(t, never.Built())
	_, ok := never.Lookup(60)
	assert.False(t, ok)

	m := Build([]Candidate{{ID: 1, MIDI: 60}})
	_, ok = m.Lookup(-1)
	assert.False(t, ok)
	_, ok = m.Lookup(Size)
	assert.False(t, ok)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
