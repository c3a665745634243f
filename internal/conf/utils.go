package conf

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/tphakala/tonebank/internal/errors"
)

// GetDefaultConfigPaths returns the directories searched for config.yaml.
// If one of them already contains a config file, only that directory is returned.
func GetDefaultConfigPaths() ([]string, error) {
	exePath, err := os.Executable()
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategorySystem).
			Context("operation", "get-executable-path").
			Build()
	}
	exeDir := filepath.Dir(exePath)

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategorySystem).
			Context("operation", "get-home-directory").
			Build()
	}

	var configPaths []string
	switch runtime.GOOS {
	case "windows":
		configPaths = []string{
			filepath.Join(homeDir, "AppData", "Roaming", "tonebank"),
			exeDir,
		}
	default:
		configPaths = []string{
			filepath.Join(homeDir, ".config", "tonebank"),
			"/etc/tonebank",
			exeDir,
		}
	}

	for _, path := range configPaths {
		if _, err := os.Stat(filepath.Join(path, "config.yaml")); err == nil {
			return []string{path}, nil
		}
	}

	return configPaths, nil
}

// ExpandHome replaces a leading ~ with the user's home directory and expands environment variables
func ExpandHome(path string) string {
	path = os.ExpandEnv(path)
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
