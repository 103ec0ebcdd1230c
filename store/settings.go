package store

import (
	"path/filepath"

	"github.com/dbterm/dbterm/config"
)

// LoadSettings reads settings.json from dir, applying defaults for a
// missing file.
func LoadSettings(dir string) (config.Settings, error) {
	s := config.DefaultSettings()
	if err := readJSON(filepath.Join(dir, SettingsFile), &s); err != nil {
		return config.Settings{}, err
	}
	return s, nil
}

// SaveSettings persists settings.json.
func SaveSettings(dir string, s config.Settings) error {
	return writeJSON(filepath.Join(dir, SettingsFile), s)
}
