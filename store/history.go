package store

import (
	"path/filepath"
	"sync"
)

// DefaultHistoryLimit caps the per-connection recent-query ring.
const DefaultHistoryLimit = 100

// HistoryStore keeps a per-connection ring of recent queries, most recent
// first.
type HistoryStore struct {
	path  string
	limit int

	mu      sync.Mutex
	entries map[string][]string
}

// NewHistoryStore loads history.json from dir. A limit <= 0 uses the
// default.
func NewHistoryStore(dir string, limit int) (*HistoryStore, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	s := &HistoryStore{
		path:    filepath.Join(dir, HistoryFile),
		limit:   limit,
		entries: map[string][]string{},
	}
	if err := readJSON(s.path, &s.entries); err != nil {
		return nil, err
	}
	return s, nil
}

// Add records a query for a connection. An existing entry moves to the
// front instead of duplicating; the ring is trimmed to the limit.
func (s *HistoryStore) Add(connection, query string) error {
	if query == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	ring := s.entries[connection]
	kept := make([]string, 0, len(ring)+1)
	kept = append(kept, query)
	for _, q := range ring {
		if q != query {
			kept = append(kept, q)
		}
	}
	if len(kept) > s.limit {
		kept = kept[:s.limit]
	}
	s.entries[connection] = kept
	return writeJSON(s.path, s.entries)
}

// List returns a connection's recent queries, most recent first.
func (s *HistoryStore) List(connection string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.entries[connection]...)
}

// Clear drops a connection's history.
func (s *HistoryStore) Clear(connection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[connection]; !ok {
		return nil
	}
	delete(s.entries, connection)
	return writeJSON(s.path, s.entries)
}

// StarredStore keeps per-connection sets of starred query strings.
type StarredStore struct {
	path string

	mu      sync.Mutex
	entries map[string][]string
}

// NewStarredStore loads starred.json from dir.
func NewStarredStore(dir string) (*StarredStore, error) {
	s := &StarredStore{
		path:    filepath.Join(dir, StarredFile),
		entries: map[string][]string{},
	}
	if err := readJSON(s.path, &s.entries); err != nil {
		return nil, err
	}
	return s, nil
}

// Star adds a query to a connection's starred set.
func (s *StarredStore) Star(connection, query string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range s.entries[connection] {
		if q == query {
			return nil
		}
	}
	s.entries[connection] = append(s.entries[connection], query)
	return writeJSON(s.path, s.entries)
}

// Unstar removes a query from the starred set.
func (s *StarredStore) Unstar(connection, query string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ring := s.entries[connection]
	kept := ring[:0]
	for _, q := range ring {
		if q != query {
			kept = append(kept, q)
		}
	}
	if len(kept) == len(ring) {
		return nil
	}
	s.entries[connection] = kept
	return writeJSON(s.path, s.entries)
}

// IsStarred reports membership.
func (s *StarredStore) IsStarred(connection, query string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range s.entries[connection] {
		if q == query {
			return true
		}
	}
	return false
}

// List returns a connection's starred queries.
func (s *StarredStore) List(connection string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.entries[connection]...)
}
