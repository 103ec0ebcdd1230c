package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateEndpointInvariant(t *testing.T) {
	tests := []struct {
		name string
		cfg  ConnectionConfig
		ok   bool
	}{
		{"tcp endpoint", ConnectionConfig{Name: "a", DBType: "postgresql", Host: "db", Port: 5432}, true},
		{"file path", ConnectionConfig{Name: "b", DBType: "sqlite", FilePath: "/tmp/x.db"}, true},
		{"provider uri", ConnectionConfig{Name: "c", DBType: "bigquery", ProviderURI: "bigquery://p/d"}, true},
		{"none set", ConnectionConfig{Name: "d", DBType: "mysql"}, false},
		{"two set", ConnectionConfig{Name: "e", DBType: "sqlite", Host: "h", FilePath: "/x"}, false},
		{"missing name", ConnectionConfig{DBType: "mysql", Host: "h"}, false},
		{"missing db type", ConnectionConfig{Name: "f", Host: "h"}, false},
		{
			"tunnel needs tcp",
			ConnectionConfig{Name: "g", DBType: "sqlite", FilePath: "/x",
				Tunnel: &TunnelConfig{Enabled: true, AuthType: TunnelAuthKey}},
			false,
		},
		{
			"tunnel bad auth type",
			ConnectionConfig{Name: "h", DBType: "postgresql", Host: "db",
				Tunnel: &TunnelConfig{Enabled: true, AuthType: "agent"}},
			false,
		},
		{
			"tunnel ok",
			ConnectionConfig{Name: "i", DBType: "postgresql", Host: "db",
				Tunnel: &TunnelConfig{Enabled: true, AuthType: TunnelAuthPassword}},
			true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.cfg.Validate()
			if test.ok {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}

func TestWithDatabaseDoesNotMutate(t *testing.T) {
	orig := ConnectionConfig{
		Name: "a", DBType: "postgresql", Host: "db", Port: 5432, Database: "main",
		Options: map[string]string{"sslmode": "disable"},
	}

	over := orig.WithDatabase("other")
	over.Options["sslmode"] = "require"

	require.Equal(t, "other", over.Database)
	require.Equal(t, "main", orig.Database)
	require.Equal(t, "disable", orig.Options["sslmode"])
}

func TestTunnelKey(t *testing.T) {
	a := TunnelConfig{Host: "bastion", Port: 22, Username: "u", AuthType: TunnelAuthPassword, Password: "s"}
	b := a
	require.Equal(t, a.Key(), b.Key())

	b.Password = "other"
	require.NotEqual(t, a.Key(), b.Key())

	// Key auth keys on the key path, not the password field.
	k1 := TunnelConfig{Host: "bastion", Port: 22, Username: "u", AuthType: TunnelAuthKey, KeyPath: "/id"}
	k2 := k1
	k2.Password = "ignored"
	require.Equal(t, k1.Key(), k2.Key())
}

func TestMatches(t *testing.T) {
	saved := ConnectionConfig{
		Name: "local pg", DBType: "postgresql",
		Host: "localhost", Port: 5432, Database: "app",
	}

	tests := []struct {
		name      string
		candidate ConnectionConfig
		want      bool
	}{
		{"same name", ConnectionConfig{Name: "LOCAL PG", DBType: "mysql"}, true},
		{"same endpoint 127.0.0.1", ConnectionConfig{DBType: "postgresql", Host: "127.0.0.1", Port: 5432, Database: "app"}, true},
		{"candidate without database", ConnectionConfig{DBType: "postgresql", Host: "localhost", Port: 5432}, true},
		{"different port", ConnectionConfig{DBType: "postgresql", Host: "localhost", Port: 5433, Database: "app"}, false},
		{"different type", ConnectionConfig{DBType: "mysql", Host: "localhost", Port: 5432, Database: "app"}, false},
		{"different database", ConnectionConfig{DBType: "postgresql", Host: "localhost", Port: 5432, Database: "other"}, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.want, saved.Matches(test.candidate))
		})
	}
}

func TestRedacted(t *testing.T) {
	cfg := ConnectionConfig{
		Name: "a", DBType: "mysql", Host: "db", Password: "secret",
		Tunnel: &TunnelConfig{Password: "hop"},
	}

	red := cfg.Redacted()
	require.Equal(t, "***", red.Password)
	require.Equal(t, "***", red.Tunnel.Password)
	require.Equal(t, "secret", cfg.Password)
	require.Equal(t, "hop", cfg.Tunnel.Password)
}
