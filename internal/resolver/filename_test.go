package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path   string
		want   int
		wantOK bool
	}{
		{"163021__project16__d-3-pp.wav", 50, true},
		{"162995__project16__f-3-pp.wav", 53, true},
		{"162969__project16__a2-pp.wav", 45, true},
		{"/samples/Piano C4.flac", 60, true},
		{"violin_C#5_sustain.wav", 73, true},
		{"cello-eb2.wav", 39, true},
		{"flute Bb4.wav", 70, true},
		{"harp_3_G.wav", 55, true},
		{"marimba 4c#.wav", 61, true},
		{"bell_c10.wav", 132, false}, // above MIDI range
		{"organ_G9.wav", 127, true},
		{"piano_G10_C4.wav", 60, true}, // out of range token, next one wins
		{"pad_10c_3d.wav", 50, true},
		{"lead_C44_E4.wav", 64, true},
		{"strings_c#10_a3.wav", 57, true},
		{"sub_c0.wav", 12, true},
		{"kick.wav", 0, false},
		{"project16.wav", 0, false},
		{"abc123.wav", 0, false},
		{"snare_take12.wav", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			got, ok := FromFilename(tt.path)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
