package config

import (
	"os"
	"path/filepath"
)

// Defaults for the tunable knobs.
const (
	DefaultMaxRows        = 1000
	DefaultConnectTimeout = 10 // seconds
)

// Settings are the persisted application preferences plus the runtime knobs
// set from flags and environment.
type Settings struct {
	MaxRows int    `json:"max_rows"`
	Theme   string `json:"theme"`

	ProcessWorker              bool `json:"process_worker"`
	ProcessWorkerWarm          bool `json:"process_worker_warm"`
	ProcessWorkerAutoShutdownS int  `json:"process_worker_auto_shutdown_s"`

	ExplorerVisible bool `json:"explorer_visible"`

	Debug              bool `json:"-"`
	DebugIdleScheduler bool `json:"-"`
	ProfileStartup     bool `json:"-"`
}

// DefaultSettings returns the out-of-the-box preferences.
func DefaultSettings() Settings {
	return Settings{
		MaxRows:         DefaultMaxRows,
		Theme:           "default",
		ProcessWorker:   true,
		ExplorerVisible: true,
	}
}

// Dir returns the application config directory, creating it on first use.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(base, "dbterm")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}
