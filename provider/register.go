package provider

import (
	"go.uber.org/multierr"

	"github.com/dbterm/dbterm/adapter"
)

// RegisterAll populates a registry with every supported backend.
func RegisterAll(r *Registry) error {
	specs := []Spec{
		{
			DBType:      "sqlserver",
			DisplayName: "SQL Server",
			BadgeLabel:  "MSSQL",
			DefaultPort: 1433,
			URLSchemes:  []string{"sqlserver", "mssql"},
			SupportsSSH: true, RequiresAuth: true,
			Docker: &DockerHints{
				ImagePatterns: []string{"mssql/server", "azure-sql-edge"},
				EnvUser:       []string{"MSSQL_USER"},
				EnvPassword:   []string{"MSSQL_SA_PASSWORD", "SA_PASSWORD"},
				DefaultUser:   "sa",
			},
			NewAdapter: func() adapter.Adapter { return adapter.SQLServer{} },
		},
		{
			DBType:      "azuresql",
			DisplayName: "Azure SQL",
			BadgeLabel:  "Azure",
			DefaultPort: 1433,
			URLSchemes:  []string{"azuresql"},
			RequiresAuth: true, HasAdvancedAuth: true,
			NewAdapter: func() adapter.Adapter { return adapter.AzureSQL{} },
		},
		{
			DBType:      "postgresql",
			DisplayName: "PostgreSQL",
			BadgeLabel:  "PG",
			DefaultPort: 5432,
			URLSchemes:  []string{"postgres", "postgresql"},
			SupportsSSH: true, RequiresAuth: true,
			Docker: &DockerHints{
				ImagePatterns:   []string{"postgres", "timescale", "pgvector"},
				EnvUser:         []string{"POSTGRES_USER"},
				EnvPassword:     []string{"POSTGRES_PASSWORD"},
				EnvDatabase:     []string{"POSTGRES_DB"},
				DefaultUser:     "postgres",
				DefaultDatabase: "postgres",
			},
			NewAdapter: func() adapter.Adapter { return adapter.Postgres{} },
		},
		{
			DBType:      "cockroachdb",
			DisplayName: "CockroachDB",
			BadgeLabel:  "CRDB",
			DefaultPort: 26257,
			URLSchemes:  []string{"cockroachdb", "cockroach"},
			SupportsSSH: true,
			Docker: &DockerHints{
				ImagePatterns:   []string{"cockroachdb/cockroach"},
				DefaultUser:     "root",
				DefaultDatabase: "defaultdb",
			},
			NewAdapter: func() adapter.Adapter {
				return adapter.Postgres{NoStoredProcedures: true}
			},
		},
		{
			DBType:      "redshift",
			DisplayName: "Amazon Redshift",
			BadgeLabel:  "Redshift",
			DefaultPort: 5439,
			URLSchemes:  []string{"redshift"},
			SupportsSSH: true, RequiresAuth: true,
			NewAdapter: func() adapter.Adapter {
				return adapter.Postgres{DefaultSSLMode: "require"}
			},
		},
		{
			DBType:      "supabase",
			DisplayName: "Supabase",
			BadgeLabel:  "Supabase",
			DefaultPort: 5432,
			URLSchemes:  []string{"supabase"},
			RequiresAuth: true, HasAdvancedAuth: true,
			NewAdapter: func() adapter.Adapter {
				return adapter.Postgres{DefaultSSLMode: "require"}
			},
		},
		{
			DBType:      "mysql",
			DisplayName: "MySQL",
			BadgeLabel:  "MySQL",
			DefaultPort: 3306,
			URLSchemes:  []string{"mysql", "mariadb"},
			SupportsSSH: true, RequiresAuth: true,
			Docker: &DockerHints{
				ImagePatterns: []string{"mysql", "mariadb", "percona"},
				EnvUser:       []string{"MYSQL_USER"},
				EnvPassword:   []string{"MYSQL_PASSWORD", "MYSQL_ROOT_PASSWORD"},
				EnvDatabase:   []string{"MYSQL_DATABASE"},
				DefaultUser:   "root",
			},
			NewAdapter: func() adapter.Adapter { return adapter.MySQL{} },
		},
		{
			DBType:      "sqlite",
			DisplayName: "SQLite",
			BadgeLabel:  "SQLite",
			URLSchemes:  []string{"sqlite", "sqlite3"},
			IsFileBased: true,
			NewAdapter:  func() adapter.Adapter { return adapter.SQLite{} },
		},
		{
			DBType:      "clickhouse",
			DisplayName: "ClickHouse",
			BadgeLabel:  "CH",
			DefaultPort: 9000,
			URLSchemes:  []string{"clickhouse"},
			SupportsSSH: true,
			Docker: &DockerHints{
				ImagePatterns:   []string{"clickhouse/clickhouse-server", "yandex/clickhouse-server"},
				EnvUser:         []string{"CLICKHOUSE_USER"},
				EnvPassword:     []string{"CLICKHOUSE_PASSWORD"},
				EnvDatabase:     []string{"CLICKHOUSE_DB"},
				DefaultUser:     "default",
				DefaultDatabase: "default",
			},
			NewAdapter: func() adapter.Adapter { return adapter.ClickHouse{} },
		},
		{
			DBType:      "duckdb",
			DisplayName: "DuckDB",
			BadgeLabel:  "DuckDB",
			URLSchemes:  []string{"duckdb"},
			IsFileBased: true,
			NewAdapter: func() adapter.Adapter {
				return adapter.MissingDriver{
					Driver: "DuckDB", Extra: "duckdb",
					Package: "github.com/marcboeker/go-duckdb",
				}
			},
		},
		{
			DBType:      "snowflake",
			DisplayName: "Snowflake",
			BadgeLabel:  "Snow",
			DefaultPort: 443,
			URLSchemes:  []string{"snowflake"},
			RequiresAuth: true, HasAdvancedAuth: true,
			NewAdapter: func() adapter.Adapter {
				return adapter.MissingDriver{
					Driver: "Snowflake", Extra: "snowflake",
					Package: "github.com/snowflakedb/gosnowflake",
				}
			},
		},
		{
			DBType:      "bigquery",
			DisplayName: "Google BigQuery",
			BadgeLabel:  "BQ",
			URLSchemes:  []string{"bigquery"},
			HasAdvancedAuth: true,
			NewAdapter: func() adapter.Adapter {
				return adapter.MissingDriver{
					Driver: "BigQuery", Extra: "bigquery",
					Package: "gorm.io/driver/bigquery",
				}
			},
		},
		{
			DBType:      "athena",
			DisplayName: "Amazon Athena",
			BadgeLabel:  "Athena",
			URLSchemes:  []string{"athena", "awsathena"},
			HasAdvancedAuth: true,
			NewAdapter: func() adapter.Adapter {
				return adapter.MissingDriver{
					Driver: "Athena", Extra: "athena",
					Package: "github.com/uber/athenadriver",
				}
			},
		},
		{
			DBType:      "turso",
			DisplayName: "Turso",
			BadgeLabel:  "Turso",
			DefaultPort: 443,
			URLSchemes:  []string{"turso", "libsql"},
			RequiresAuth: true,
			NewAdapter: func() adapter.Adapter {
				return adapter.MissingDriver{
					Driver: "Turso", Extra: "libsql",
					Package: "github.com/tursodatabase/libsql-client-go",
				}
			},
		},
	}

	var err error
	for _, spec := range specs {
		err = multierr.Append(err, r.Register(spec))
	}
	return err
}

// DefaultRegistry builds a registry with everything registered. It panics
// only on a programming error in the built-in table.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	if err := RegisterAll(r); err != nil {
		panic(err)
	}
	return r
}
