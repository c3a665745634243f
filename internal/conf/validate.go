package conf

import (
	"fmt"

	"github.com/tphakala/tonebank/internal/errors"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ErrorCategory tags validation failures as configuration errors
func (ve ValidationError) ErrorCategory() errors.ErrorCategory {
	return errors.CategoryConfiguration
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	for _, validate := range []func(*Settings) error{
		validateStorageSettings,
		validateDatabaseSettings,
		validateResolverSettings,
		validateLookupSettings,
	} {
		if err := validate(settings); err != nil {
			ve.Errors = append(ve.Errors, err.Error())
		}
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateStorageSettings(s *Settings) error {
	if s.Storage.BasePath == "" {
		return fmt.Errorf("storage.basepath must not be empty")
	}
	return nil
}

func validateDatabaseSettings(s *Settings) error {
	switch s.Database.Type {
	case DatabaseSQLite:
		if s.Database.SQLite.Path == "" {
			return fmt.Errorf("database.sqlite.path must not be empty")
		}
	case DatabaseMySQL:
		m := s.Database.MySQL
		if m.Host == "" || m.Database == "" || m.Username == "" {
			return fmt.Errorf("database.mysql requires host, username and database")
		}
		if err := validateEnvPort(m.Port); err != nil {
			return fmt.Errorf("database.mysql.port: %w", err)
		}
	default:
		return fmt.Errorf("database.type must be %q or %q, got %q", DatabaseSQLite, DatabaseMySQL, s.Database.Type)
	}
	return nil
}

func validateResolverSettings(s *Settings) error {
	r := s.Resolver
	switch {
	case r.Confidence < 0 || r.Confidence > 1:
		return fmt.Errorf("resolver.confidence must be between 0 and 1, got %g", r.Confidence)
	case r.DefaultSampleRate <= 0:
		return fmt.Errorf("resolver.defaultsamplerate must be positive, got %d", r.DefaultSampleRate)
	case r.DefaultOctave < 0 || r.DefaultOctave > 10:
		return fmt.Errorf("resolver.defaultoctave must be between 0 and 10, got %d", r.DefaultOctave)
	case r.Tracker.FrameSize <= 0 || r.Tracker.HopSize <= 0:
		return fmt.Errorf("resolver.tracker frame and hop sizes must be positive")
	case r.Tracker.HopSize > r.Tracker.FrameSize:
		return fmt.Errorf("resolver.tracker.hopsize (%d) must not exceed framesize (%d)", r.Tracker.HopSize, r.Tracker.FrameSize)
	case r.Tracker.Threshold <= 0 || r.Tracker.Threshold >= 1:
		return fmt.Errorf("resolver.tracker.threshold must be between 0 and 1, got %g", r.Tracker.Threshold)
	case r.Tracker.MinFrequency <= 0 || r.Tracker.MaxFrequency <= r.Tracker.MinFrequency:
		return fmt.Errorf("resolver.tracker frequency range %g-%g Hz is invalid", r.Tracker.MinFrequency, r.Tracker.MaxFrequency)
	}
	return nil
}

func validateLookupSettings(s *Settings) error {
	if s.Lookup.CacheTTL < 0 {
		return fmt.Errorf("lookup.cachettl must not be negative")
	}
	return nil
}
