// Package config defines the connection and application configuration
// values. A ConnectionConfig is an immutable description of how to reach one
// database; sessions and the worker consume it read-only.
package config

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// Tunnel auth types.
const (
	TunnelAuthPassword = "password"
	TunnelAuthKey      = "key"
)

// TunnelConfig describes an optional SSH hop in front of the database.
type TunnelConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	AuthType string `json:"auth_type"`
	Password string `json:"password,omitempty"`
	KeyPath  string `json:"key_path,omitempty"`
	Enabled  bool   `json:"enabled"`
}

// Key identifies a tunnel for caching. Two configs with the same key can
// share a live tunnel; a differing key forces tear-down and rebuild.
func (t TunnelConfig) Key() string {
	secret := t.Password
	if t.AuthType == TunnelAuthKey {
		secret = t.KeyPath
	}
	return fmt.Sprintf("%s:%d|%s|%s|%s", t.Host, t.Port, t.Username, t.AuthType, secret)
}

// ConnectionConfig describes how to reach one database. Exactly one of the
// TCP endpoint (Host), FilePath, or ProviderURI is populated.
type ConnectionConfig struct {
	Name   string `json:"name"`
	DBType string `json:"db_type"`

	Host     string `json:"host,omitempty"`
	Port     int    `json:"port,omitempty"`
	Database string `json:"database,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`

	FilePath    string `json:"file_path,omitempty"`
	ProviderURI string `json:"provider_uri,omitempty"`

	Tunnel *TunnelConfig `json:"tunnel,omitempty"`

	Options map[string]string `json:"options,omitempty"`
}

// Validate checks the endpoint invariant and required fields.
func (c ConnectionConfig) Validate() error {
	if c.Name == "" {
		return errors.New("connection config: name is required")
	}
	if c.DBType == "" {
		return errors.Newf("connection config %q: db_type is required", c.Name)
	}
	n := 0
	if c.Host != "" {
		n++
	}
	if c.FilePath != "" {
		n++
	}
	if c.ProviderURI != "" {
		n++
	}
	if n != 1 {
		return errors.Newf("connection config %q: exactly one of host, file_path or provider_uri must be set, got %d", c.Name, n)
	}
	if c.Tunnel != nil && c.Tunnel.Enabled {
		if c.Host == "" {
			return errors.Newf("connection config %q: a tunnel requires a tcp endpoint", c.Name)
		}
		switch c.Tunnel.AuthType {
		case TunnelAuthPassword, TunnelAuthKey:
		default:
			return errors.Newf("connection config %q: unknown tunnel auth type %q", c.Name, c.Tunnel.AuthType)
		}
	}
	return nil
}

// IsFileBased reports whether the config points at an on-disk file.
func (c ConnectionConfig) IsFileBased() bool { return c.FilePath != "" }

// TunnelEnabled reports whether an SSH tunnel should be built.
func (c ConnectionConfig) TunnelEnabled() bool {
	return c.Tunnel != nil && c.Tunnel.Enabled
}

// WithDatabase returns a copy pointing at another database on the same
// endpoint. Adapters use it to apply a database override.
func (c ConnectionConfig) WithDatabase(database string) ConnectionConfig {
	c.Database = database
	c.Options = cloneOptions(c.Options)
	return c
}

// WithEndpoint returns a copy rewritten to another host and port. The
// session factory uses it to point the adapter at a tunnel's local bind.
func (c ConnectionConfig) WithEndpoint(host string, port int) ConnectionConfig {
	c.Host = host
	c.Port = port
	c.Options = cloneOptions(c.Options)
	return c
}

// Option returns a free-form option value.
func (c ConnectionConfig) Option(key string) string {
	return c.Options[key]
}

// Identity is the stable discovery identity used for deduplication.
func (c ConnectionConfig) Identity() string {
	return fmt.Sprintf("%s|%s|%d|%s", c.DBType, c.Host, c.Port, c.Database)
}

// Matches reports whether a detected candidate refers to this saved
// connection: same name, or same db_type on an equivalent local endpoint.
func (c ConnectionConfig) Matches(candidate ConnectionConfig) bool {
	if c.Name != "" && strings.EqualFold(c.Name, candidate.Name) {
		return true
	}
	if c.DBType != candidate.DBType {
		return false
	}
	if !hostsEquivalent(c.Host, candidate.Host) || c.Port != candidate.Port {
		return false
	}
	return candidate.Database == "" || c.Database == candidate.Database
}

func hostsEquivalent(a, b string) bool {
	local := func(h string) bool { return h == "localhost" || h == "127.0.0.1" }
	return a == b || (local(a) && local(b))
}

// Redacted returns a copy safe for logging.
func (c ConnectionConfig) Redacted() ConnectionConfig {
	if c.Password != "" {
		c.Password = "***"
	}
	if c.Tunnel != nil {
		t := *c.Tunnel
		if t.Password != "" {
			t.Password = "***"
		}
		c.Tunnel = &t
	}
	return c
}

func cloneOptions(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
