//go:build darwin

package config

import (
	"os"
	"path/filepath"
)

func appSupportDir() string {
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, "Library", "Application Support", "userdefaults")
	}
	return "userdefaults-data"
}

func defaultDataDir() string {
	return appSupportDir()
}

func defaultConfigPath() string {
	return filepath.Join(appSupportDir(), "config.yaml")
}
