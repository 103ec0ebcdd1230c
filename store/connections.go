package store

import (
	"path/filepath"
	"sync"

	"github.com/dbterm/dbterm/config"
)

// ConnectionStore persists saved connections.
type ConnectionStore struct {
	path string

	mu    sync.Mutex
	conns []config.ConnectionConfig
}

// NewConnectionStore loads connections.json from dir.
func NewConnectionStore(dir string) (*ConnectionStore, error) {
	s := &ConnectionStore{path: filepath.Join(dir, ConnectionsFile)}
	if err := readJSON(s.path, &s.conns); err != nil {
		return nil, err
	}
	return s, nil
}

// List returns the saved connections.
func (s *ConnectionStore) List() []config.ConnectionConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]config.ConnectionConfig(nil), s.conns...)
}

// Get looks a connection up by name.
func (s *ConnectionStore) Get(name string) (config.ConnectionConfig, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.conns {
		if c.Name == name {
			return c, true
		}
	}
	return config.ConnectionConfig{}, false
}

// Upsert adds or replaces a connection by name and persists.
func (s *ConnectionStore) Upsert(cfg config.ConnectionConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	replaced := false
	for i, c := range s.conns {
		if c.Name == cfg.Name {
			s.conns[i] = cfg
			replaced = true
			break
		}
	}
	if !replaced {
		s.conns = append(s.conns, cfg)
	}
	return writeJSON(s.path, s.conns)
}

// Remove deletes a connection by name and persists. Removing an unknown
// name is a no-op.
func (s *ConnectionStore) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.conns[:0]
	for _, c := range s.conns {
		if c.Name != name {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(s.conns) {
		return nil
	}
	s.conns = kept
	return writeJSON(s.path, s.conns)
}
