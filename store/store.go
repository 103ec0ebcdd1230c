// Package store persists application state as JSON files under the config
// directory: saved connections, per-connection query history, starred
// queries and settings.
package store

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
)

// File names under the config directory.
const (
	ConnectionsFile = "connections.json"
	HistoryFile     = "history.json"
	StarredFile     = "starred.json"
	SettingsFile    = "settings.json"
)

// readJSON loads a file into v. A missing file leaves v untouched.
func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrapf(err, "parsing %s", filepath.Base(path))
	}
	return nil
}

// writeJSON writes v atomically: temp file then rename.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
