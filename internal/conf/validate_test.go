package conf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/tonebank/internal/errors"
)

func validSettings() *Settings {
	return &Settings{
		Storage:  StorageSettings{BasePath: "/srv/tonebank"},
		Database: DatabaseSettings{Type: DatabaseSQLite, SQLite: SQLiteSettings{Path: "tonebank.db"}},
		Resolver: ResolverSettings{
			Confidence:        0.8,
			DefaultSampleRate: 44100,
			DefaultOctave:     4,
			Tracker: TrackerSettings{
				FrameSize: 2048, HopSize: 512, Threshold: 0.15,
				MinFrequency: 40, MaxFrequency: 2000,
			},
		},
	}
}

func TestValidateSettings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr string
	}{
		{"valid", func(*Settings) {}, ""},
		{"confidence above one", func(s *Settings) { s.Resolver.Confidence = 1.2 }, "resolver.confidence"},
		{"zero sample rate", func(s *Settings) { s.Resolver.DefaultSampleRate = 0 }, "defaultsamplerate"},
		{"hop larger than frame", func(s *Settings) { s.Resolver.Tracker.HopSize = 4096 }, "hopsize"},
		{"inverted frequency range", func(s *Settings) { s.Resolver.Tracker.MaxFrequency = 10 }, "frequency range"},
		{"unknown database", func(s *Settings) { s.Database.Type = "postgres" }, "database.type"},
		{"mysql without host", func(s *Settings) {
			s.Database.Type = DatabaseMySQL
			s.Database.MySQL = MySQLSettings{Port: "3306", Username: "u", Database: "d"}
		}, "database.mysql"},
		{"empty base path", func(s *Settings) { s.Storage.BasePath = "" }, "storage.basepath"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := validSettings()
			tt.mutate(s)
			err := ValidateSettings(s)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			var ve ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, errors.CategoryConfiguration, ve.ErrorCategory())
		})
	}
}

func TestValidateEnvValues(t *testing.T) {
	t.Parallel()

	assert.NoError(t, validateEnvBool(" true "))
	assert.Error(t, validateEnvBool("yes"))
	assert.NoError(t, validateEnvPort("3306"))
	assert.Error(t, validateEnvPort("70000"))
	assert.NoError(t, validateEnvConfidence("0.5"))
	assert.Error(t, validateEnvConfidence("1.5"))
	assert.Error(t, validateEnvSampleRate("-1"))
	assert.Error(t, validateEnvPath("../outside"))
}
