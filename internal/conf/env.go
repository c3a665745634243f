package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// envBinding holds metadata for environment variable bindings
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVar    string             // Environment variable name
	Validate  func(string) error // Optional validation function
}

func getEnvBindings() []envBinding {
	return []envBinding{
		{"debug", "TONEBANK_DEBUG", validateEnvBool},
		{"storage.basepath", "TONEBANK_STORAGE_BASEPATH", validateEnvPath},

		{"database.type", "TONEBANK_DATABASE_TYPE", validateEnvDatabaseType},
		{"database.sqlite.path", "TONEBANK_SQLITE_PATH", nil},
		{"database.mysql.host", "TONEBANK_MYSQL_HOST", nil},
		{"database.mysql.port", "TONEBANK_MYSQL_PORT", validateEnvPort},
		{"database.mysql.username", "TONEBANK_MYSQL_USERNAME", nil},
		{"database.mysql.password", "TONEBANK_MYSQL_PASSWORD", nil},
		{"database.mysql.database", "TONEBANK_MYSQL_DATABASE", nil},

		{"resolver.confidence", "TONEBANK_RESOLVER_CONFIDENCE", validateEnvConfidence},
		{"resolver.defaultsamplerate", "TONEBANK_DEFAULT_SAMPLERATE", validateEnvSampleRate},

		{"server.listen", "TONEBANK_SERVER_LISTEN", nil},
		{"telemetry.enabled", "TONEBANK_TELEMETRY_ENABLED", validateEnvBool},
		{"telemetry.dsn", "TONEBANK_TELEMETRY_DSN", nil},
	}
}

// bindEnvVars binds every TONEBANK_* variable and validates the ones that are set
func bindEnvVars(v *viper.Viper) error {
	var warnings []string

	for _, binding := range getEnvBindings() {
		if err := v.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to bind %s: %v", binding.EnvVar, err))
			continue
		}

		if binding.Validate == nil {
			continue
		}
		if envValue, ok := os.LookupEnv(binding.EnvVar); ok {
			if err := binding.Validate(strings.TrimSpace(envValue)); err != nil {
				warnings = append(warnings, fmt.Sprintf("Invalid %s value '%s': %v", binding.EnvVar, envValue, err))
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}

	return nil
}

func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("invalid boolean value '%s': must be true/false, 1/0, t/f", value)
	}
	return nil
}

func validateEnvDatabaseType(value string) error {
	switch value {
	case DatabaseSQLite, DatabaseMySQL:
		return nil
	default:
		return fmt.Errorf("must be one of: %s, %s", DatabaseSQLite, DatabaseMySQL)
	}
}

func validateEnvPort(value string) error {
	port, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid port: %w", err)
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	return nil
}

func validateEnvConfidence(value string) error {
	c, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid confidence: %w", err)
	}
	if c < 0.0 || c > 1.0 {
		return fmt.Errorf("confidence must be between 0.0 and 1.0, got %g", c)
	}
	return nil
}

func validateEnvSampleRate(value string) error {
	rate, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid sample rate: %w", err)
	}
	if rate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", rate)
	}
	return nil
}

func validateEnvPath(value string) error {
	cleaned := filepath.Clean(ExpandHome(value))
	for part := range strings.SplitSeq(cleaned, string(os.PathSeparator)) {
		if part == ".." {
			return fmt.Errorf("path traversal detected in cleaned path: %s", cleaned)
		}
	}
	return nil
}

// configureEnvironmentVariables sets up environment variable support for Viper
func configureEnvironmentVariables(v *viper.Viper) error {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return bindEnvVars(v)
}
