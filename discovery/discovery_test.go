package discovery

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	docker "github.com/fsouza/go-dockerclient"
	"github.com/stretchr/testify/require"

	"github.com/dbterm/dbterm/config"
	"github.com/dbterm/dbterm/provider"
)

func inspector(t *testing.T) *DockerInspector {
	t.Helper()
	return &DockerInspector{registry: provider.DefaultRegistry()}
}

func TestMatchImage(t *testing.T) {
	d := inspector(t)

	tests := []struct {
		image string
		want  string
		ok    bool
	}{
		{"postgres:16", "postgresql", true},
		{"library/postgres", "postgresql", true},
		{"timescale/timescaledb:latest", "postgresql", true},
		{"mysql:8.4", "mysql", true},
		{"mariadb:11", "mysql", true},
		{"clickhouse/clickhouse-server:24.3", "clickhouse", true},
		{"mcr.microsoft.com/mssql/server:2022-latest", "sqlserver", true},
		{"cockroachdb/cockroach:v24.1", "cockroachdb", true},
		{"redis:7", "", false},
		{"nginx:latest", "", false},
	}

	for _, test := range tests {
		spec, ok := d.matchImage(test.image)
		require.Equal(t, test.ok, ok, "image %s", test.image)
		if ok {
			require.Equal(t, test.want, spec.DBType, "image %s", test.image)
		}
	}
}

func TestConfigForUsesEnvHints(t *testing.T) {
	d := inspector(t)

	cfg, ok := d.ConfigFor(DetectedContainer{
		Name:   "shop-db",
		DBType: "postgresql",
		Host:   "localhost",
		Port:   15432,
		Env: map[string]string{
			"POSTGRES_USER":     "shop",
			"POSTGRES_PASSWORD": "hunter2",
			"POSTGRES_DB":       "shop_prod",
		},
	})
	require.True(t, ok)
	require.Equal(t, "shop-db", cfg.Name)
	require.Equal(t, "postgresql", cfg.DBType)
	require.Equal(t, 15432, cfg.Port)
	require.Equal(t, "shop", cfg.Username)
	require.Equal(t, "hunter2", cfg.Password)
	require.Equal(t, "shop_prod", cfg.Database)
	require.NoError(t, cfg.Validate())
}

func TestConfigForDefaults(t *testing.T) {
	d := inspector(t)

	// Without env the provider defaults apply.
	cfg, ok := d.ConfigFor(DetectedContainer{
		Name: "pg", DBType: "postgresql", Host: "localhost",
	})
	require.True(t, ok)
	require.Equal(t, "postgres", cfg.Username)
	require.Equal(t, "postgres", cfg.Database)
	require.Equal(t, 5432, cfg.Port, "provider default port when none published")

	// MySQL password prefers MYSQL_PASSWORD over the root password.
	cfg, ok = d.ConfigFor(DetectedContainer{
		Name: "db", DBType: "mysql", Host: "localhost", Port: 3307,
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "rootpw",
			"MYSQL_PASSWORD":      "apppw",
			"MYSQL_USER":          "app",
		},
	})
	require.True(t, ok)
	require.Equal(t, "app", cfg.Username)
	require.Equal(t, "apppw", cfg.Password)

	// Providers without docker hints yield nothing.
	_, ok = d.ConfigFor(DetectedContainer{Name: "x", DBType: "snowflake"})
	require.False(t, ok)
}

func TestHostPort(t *testing.T) {
	ports := []docker.APIPort{
		{PrivatePort: 33060, PublicPort: 0},
		{PrivatePort: 3306, PublicPort: 13306},
	}
	require.Equal(t, 13306, hostPort(ports, 3306))

	// Falls back to any published port.
	require.Equal(t, 13306, hostPort(ports, 5432))

	require.Equal(t, 0, hostPort(nil, 3306))
}

func TestParseEnv(t *testing.T) {
	env := parseEnv([]string{"A=1", "B=x=y", "MALFORMED"})
	require.Equal(t, "1", env["A"])
	require.Equal(t, "x=y", env["B"])
	require.NotContains(t, env, "MALFORMED")
}

type fakeSource struct {
	name string
	out  []config.ConnectionConfig
	err  error
}

func (f fakeSource) Name() string { return f.name }

func (f fakeSource) Discover(context.Context) ([]config.ConnectionConfig, error) {
	return f.out, f.err
}

func TestServiceRunIndependentFailures(t *testing.T) {
	cand := config.ConnectionConfig{Name: "a", DBType: "mysql", Host: "localhost", Port: 3306}
	svc := NewService(nil,
		fakeSource{name: "docker", out: []config.ConnectionConfig{cand}},
		fakeSource{name: "cloud", err: errors.New("credentials expired")},
		fakeSource{name: "manual", out: nil},
	)

	results := svc.Run(context.Background())
	require.Len(t, results, 3)

	require.Equal(t, "docker", results[0].Source)
	require.NoError(t, results[0].Err)
	require.Len(t, results[0].Candidates, 1)

	require.Equal(t, "cloud", results[1].Source)
	require.Error(t, results[1].Err, "a failing source reports but does not abort")

	require.Equal(t, "manual", results[2].Source)
	require.NoError(t, results[2].Err)
}

func TestDeduplicate(t *testing.T) {
	saved := []config.ConnectionConfig{
		{Name: "local pg", DBType: "postgresql", Host: "localhost", Port: 5432, Database: "app"},
	}

	results := []SourceResult{
		{Source: "docker", Candidates: []config.ConnectionConfig{
			// Matches saved by equivalent endpoint.
			{Name: "pg-1", DBType: "postgresql", Host: "127.0.0.1", Port: 5432, Database: "app"},
			// New candidate.
			{Name: "mysql-1", DBType: "mysql", Host: "localhost", Port: 3306},
		}},
		{Source: "cloud", Candidates: []config.ConnectionConfig{
			// Duplicate of the docker candidate.
			{Name: "mysql-1", DBType: "mysql", Host: "localhost", Port: 3306},
			{Name: "prod", DBType: "postgresql", Host: "db.cloud", Port: 5432, Database: "prod"},
		}},
	}

	out := Deduplicate(saved, results)
	require.Len(t, out, 2)
	require.Equal(t, "mysql-1", out[0].Name)
	require.Equal(t, "prod", out[1].Name)
}
