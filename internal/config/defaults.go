package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// DefaultHTTPAddr returns the default HTTP listen address.
func DefaultHTTPAddr() string {
	return ":8000"
}

// DefaultConfigPath returns the default path for the xgenaudio config directory.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "xgenaudio", "config")
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(home, "AppData", "Roaming", "xgenaudio")
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "xgenaudio")
	default: // Linux, BSD, etc.
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "xgenaudio")
		}
		return filepath.Join(home, ".config", "xgenaudio")
	}
}
