package store

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dbterm/dbterm/config"
)

func TestConnectionStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()

	s, err := NewConnectionStore(dir)
	require.NoError(t, err)
	require.Empty(t, s.List())

	cfg := config.ConnectionConfig{Name: "local", DBType: "postgresql", Host: "localhost", Port: 5432}
	require.NoError(t, s.Upsert(cfg))

	// Upsert by name replaces.
	cfg.Port = 5433
	require.NoError(t, s.Upsert(cfg))
	require.Len(t, s.List(), 1)

	// A fresh store sees the persisted state.
	s2, err := NewConnectionStore(dir)
	require.NoError(t, err)
	got, ok := s2.Get("local")
	require.True(t, ok)
	require.Equal(t, 5433, got.Port)

	require.NoError(t, s2.Remove("local"))
	require.Empty(t, s2.List())
	_, ok = s2.Get("local")
	require.False(t, ok)
}

func TestConnectionStoreRejectsInvalid(t *testing.T) {
	s, err := NewConnectionStore(t.TempDir())
	require.NoError(t, err)

	err = s.Upsert(config.ConnectionConfig{Name: "bad", DBType: "mysql"})
	require.Error(t, err, "no endpoint set")
}

func TestHistoryStoreRing(t *testing.T) {
	dir := t.TempDir()
	s, err := NewHistoryStore(dir, 3)
	require.NoError(t, err)

	require.NoError(t, s.Add("db1", "SELECT 1"))
	require.NoError(t, s.Add("db1", "SELECT 2"))
	require.NoError(t, s.Add("db1", "SELECT 3"))
	require.Equal(t, []string{"SELECT 3", "SELECT 2", "SELECT 1"}, s.List("db1"))

	// Re-adding moves to the front without duplicating.
	require.NoError(t, s.Add("db1", "SELECT 1"))
	require.Equal(t, []string{"SELECT 1", "SELECT 3", "SELECT 2"}, s.List("db1"))

	// The ring is bounded.
	require.NoError(t, s.Add("db1", "SELECT 4"))
	require.Equal(t, []string{"SELECT 4", "SELECT 1", "SELECT 3"}, s.List("db1"))

	// Connections are independent.
	require.NoError(t, s.Add("db2", "SHOW TABLES"))
	require.Len(t, s.List("db1"), 3)
	require.Equal(t, []string{"SHOW TABLES"}, s.List("db2"))

	s2, err := NewHistoryStore(dir, 3)
	require.NoError(t, err)
	require.Equal(t, s.List("db1"), s2.List("db1"))

	require.NoError(t, s2.Clear("db1"))
	require.Empty(t, s2.List("db1"))
}

func TestStarredStore(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStarredStore(dir)
	require.NoError(t, err)

	require.NoError(t, s.Star("db1", "SELECT * FROM users"))
	require.NoError(t, s.Star("db1", "SELECT * FROM users")) // idempotent
	require.True(t, s.IsStarred("db1", "SELECT * FROM users"))
	require.False(t, s.IsStarred("db2", "SELECT * FROM users"))
	require.Len(t, s.List("db1"), 1)

	require.NoError(t, s.Unstar("db1", "SELECT * FROM users"))
	require.False(t, s.IsStarred("db1", "SELECT * FROM users"))
}

func TestSettingsRoundTrip(t *testing.T) {
	dir := t.TempDir()

	// Missing file yields defaults.
	s, err := LoadSettings(dir)
	require.NoError(t, err)
	require.Equal(t, config.DefaultSettings(), s)

	s.MaxRows = 50
	s.ProcessWorker = false
	s.Theme = "gruvbox"
	require.NoError(t, SaveSettings(dir, s))

	s2, err := LoadSettings(dir)
	require.NoError(t, err)
	require.Equal(t, 50, s2.MaxRows)
	require.False(t, s2.ProcessWorker)
	require.Equal(t, "gruvbox", s2.Theme)
}

func TestCorruptFileReported(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConnectionsFile), []byte("{not json"), 0o600))

	_, err := NewConnectionStore(dir)
	require.Error(t, err)
	require.Contains(t, fmt.Sprint(err), ConnectionsFile)
}
