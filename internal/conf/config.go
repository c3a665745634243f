// Package conf loads and validates tonebank settings from config.yaml and the environment.
package conf

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/tphakala/tonebank/internal/errors"
	"github.com/tphakala/tonebank/internal/logger"
)

//go:embed config.yaml
var configFiles embed.FS

// Database backends
const (
	DatabaseSQLite = "sqlite"
	DatabaseMySQL  = "mysql"
)

// StorageSettings controls where managed sample directories live
type StorageSettings struct {
	BasePath string `yaml:"basepath"` // root of per-tone sample directories
}

// SQLiteSettings holds the SQLite database location
type SQLiteSettings struct {
	Path string `yaml:"path"` // database file, relative paths resolve against storage.basepath
}

// MySQLSettings holds MySQL connection parameters
type MySQLSettings struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// DatabaseSettings selects and configures the persistence backend
type DatabaseSettings struct {
	Type   string         `yaml:"type"` // sqlite or mysql
	SQLite SQLiteSettings `yaml:"sqlite"`
	MySQL  MySQLSettings  `yaml:"mysql"`
}

// TrackerSettings configures the YIN pitch tracker used as the analysis fallback
type TrackerSettings struct {
	FrameSize    int     `yaml:"framesize"`    // samples per analysis frame
	HopSize      int     `yaml:"hopsize"`      // samples between frame starts
	Threshold    float64 `yaml:"threshold"`    // YIN absolute threshold on the normalized difference
	MinFrequency float64 `yaml:"minfrequency"` // lowest detectable f0 in Hz
	MaxFrequency float64 `yaml:"maxfrequency"` // highest detectable f0 in Hz
}

// ResolverSettings configures pitch resolution
type ResolverSettings struct {
	Confidence        float64         `yaml:"confidence"`        // frames below this confidence are discarded
	DefaultSampleRate int             `yaml:"defaultsamplerate"` // used when a file header does not say
	DefaultOctave     int             `yaml:"defaultoctave"`     // octave assumed for prompted names without one
	Tracker           TrackerSettings `yaml:"tracker"`
}

// LookupSettings configures the published note map cache
type LookupSettings struct {
	CacheTTL time.Duration `yaml:"cachettl"` // 0 keeps entries until the next rebuild
}

// ServerSettings configures the HTTP lookup API
type ServerSettings struct {
	Listen string `yaml:"listen"`
}

// TelemetrySettings configures optional Sentry error reporting
type TelemetrySettings struct {
	Enabled bool   `yaml:"enabled"`
	DSN     string `yaml:"dsn"`
}

// Settings contains all configuration options for tonebank
type Settings struct {
	Debug     bool                 `yaml:"debug"`
	Storage   StorageSettings      `yaml:"storage"`
	Database  DatabaseSettings     `yaml:"database"`
	Resolver  ResolverSettings     `yaml:"resolver"`
	Lookup    LookupSettings       `yaml:"lookup"`
	Server    ServerSettings       `yaml:"server"`
	Logging   logger.LoggingConfig `yaml:"logging" mapstructure:"logging"`
	Telemetry TelemetrySettings    `yaml:"telemetry"`
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads configFile (or the first config.yaml found in the default
// locations) merged with defaults and TONEBANK_* environment variables.
// When no file exists a default one is written to the first default path.
func Load(configFile string) (*Settings, error) {
	v := viper.New()
	if err := initViper(v, configFile); err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryConfiguration).
			Context("operation", "init_viper").
			Build()
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, errors.New(fmt.Errorf("error unmarshaling config into struct: %w", err)).
			Category(errors.CategoryConfiguration).
			Build()
	}

	settings.Storage.BasePath = ExpandHome(settings.Storage.BasePath)
	if settings.Debug {
		settings.Logging.DefaultLevel = string(logger.LogLevelDebug)
		if settings.Logging.Console != nil {
			settings.Logging.Console.Level = string(logger.LogLevelDebug)
		}
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, err
	}

	settingsMutex.Lock()
	settingsInstance = settings
	settingsMutex.Unlock()

	return settings, nil
}

// GetSettings returns the most recently loaded settings, or nil
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

func initViper(v *viper.Viper, configFile string) error {
	setDefaultConfig(v)

	if err := configureEnvironmentVariables(v); err != nil {
		return err
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
		return nil
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		v.AddConfigPath(path)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return createDefaultConfig(v, filepath.Join(configPaths[0], "config.yaml"))
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig writes the embedded default config to configPath and reads it
func createDefaultConfig(v *viper.Viper, configPath string) error {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		return fmt.Errorf("error reading embedded default config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	v.SetConfigFile(configPath)
	return v.ReadInConfig()
}

// SQLitePath returns the SQLite database path, resolved against the storage base path
func (s *Settings) SQLitePath() string {
	p := ExpandHome(s.Database.SQLite.Path)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.Storage.BasePath, p)
}

// SaveYAMLConfig writes settings to configPath atomically.
// Comments and ordering of an existing file are not preserved.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	yamlData, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to YAML: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(configPath), "config-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}
	tempFileName := tempFile.Name()
	defer os.Remove(tempFileName)

	if _, err := tempFile.Write(yamlData); err != nil {
		tempFile.Close()
		return fmt.Errorf("error writing to temporary file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("error closing temporary file: %w", err)
	}

	if err := os.Rename(tempFileName, configPath); err != nil {
		// cross-device rename, fall back to copy
		if err := copyFile(tempFileName, configPath); err != nil {
			return fmt.Errorf("error copying config file: %w", err)
		}
	}

	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
