package adapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/dbterm/dbterm/config"
	"github.com/dbterm/dbterm/dberr"
)

// Postgres speaks the PostgreSQL wire protocol. CockroachDB, Redshift and
// Supabase reuse it with flag and option tweaks.
type Postgres struct {
	base

	// DefaultSSLMode applies when the config does not set an sslmode option.
	DefaultSSLMode string

	// NoStoredProcedures is set for backends that reject procedures.
	NoStoredProcedures bool
}

func (p Postgres) Connect(ctx context.Context, cfg config.ConnectionConfig) (*Conn, error) {
	conn, err := openPool(ctx, "postgres", p.dsn(cfg), cfg)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case "28000", "28P01":
				return nil, errors.Wrapf(dberr.ErrAuthFailed, "%v", pqErr)
			}
		}
		return nil, err
	}
	return conn, nil
}

func (p Postgres) dsn(cfg config.ConnectionConfig) string {
	sslmode := cfg.Option("sslmode")
	if sslmode == "" {
		sslmode = p.DefaultSSLMode
	}
	if sslmode == "" {
		sslmode = "disable"
	}

	parts := []string{
		"host=" + pqEscape(cfg.Host),
		fmt.Sprintf("port=%d", cfg.Port),
		"sslmode=" + sslmode,
		fmt.Sprintf("connect_timeout=%d", config.DefaultConnectTimeout),
	}
	if cfg.Username != "" {
		parts = append(parts, "user="+pqEscape(cfg.Username))
	}
	if cfg.Password != "" {
		parts = append(parts, "password="+pqEscape(cfg.Password))
	}
	if cfg.Database != "" {
		parts = append(parts, "dbname="+pqEscape(cfg.Database))
	}
	for k, v := range cfg.Options {
		if k == "sslmode" {
			continue
		}
		parts = append(parts, k+"="+pqEscape(v))
	}
	return strings.Join(parts, " ")
}

func pqEscape(v string) string {
	if !strings.ContainsAny(v, " '\\") {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

func (Postgres) ListDatabases(ctx context.Context, conn *Conn) ([]string, error) {
	return queryStrings(ctx, conn,
		`SELECT datname FROM pg_database WHERE NOT datistemplate ORDER BY datname`)
}

func (Postgres) ListTables(ctx context.Context, conn *Conn, database string) ([]Relation, error) {
	return queryRelations(ctx, conn,
		`SELECT table_schema, table_name FROM information_schema.tables
		 WHERE table_type = 'BASE TABLE'
		   AND table_schema NOT IN ('pg_catalog', 'information_schema')
		 ORDER BY table_schema, table_name`)
}

func (Postgres) ListViews(ctx context.Context, conn *Conn, database string) ([]Relation, error) {
	return queryRelations(ctx, conn,
		`SELECT table_schema, table_name FROM information_schema.views
		 WHERE table_schema NOT IN ('pg_catalog', 'information_schema')
		 ORDER BY table_schema, table_name`)
}

func (p Postgres) ListProcedures(ctx context.Context, conn *Conn, database string) ([]Relation, error) {
	if p.NoStoredProcedures {
		return nil, nil
	}
	return queryRelations(ctx, conn,
		`SELECT n.nspname, p.proname
		 FROM pg_proc p JOIN pg_namespace n ON n.oid = p.pronamespace
		 WHERE p.prokind = 'p'
		   AND n.nspname NOT IN ('pg_catalog', 'information_schema')
		 ORDER BY n.nspname, p.proname`)
}

func (Postgres) ListTriggers(ctx context.Context, conn *Conn, database string) ([]Relation, error) {
	return queryRelations(ctx, conn,
		`SELECT trigger_schema, trigger_name FROM information_schema.triggers
		 WHERE trigger_schema NOT IN ('pg_catalog', 'information_schema')
		 GROUP BY trigger_schema, trigger_name
		 ORDER BY trigger_schema, trigger_name`)
}

func (Postgres) ListSequences(ctx context.Context, conn *Conn, database string) ([]Relation, error) {
	return queryRelations(ctx, conn,
		`SELECT sequence_schema, sequence_name FROM information_schema.sequences
		 ORDER BY sequence_schema, sequence_name`)
}

func (Postgres) ListColumns(ctx context.Context, conn *Conn, database, schema, table string) ([]Column, error) {
	if schema == "" {
		schema = "public"
	}
	rows, err := conn.DB.QueryxContext(ctx,
		`SELECT column_name, data_type, is_nullable, COALESCE(column_default, '')
		 FROM information_schema.columns
		 WHERE table_schema = $1 AND table_name = $2
		 ORDER BY ordinal_position`, schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanColumns(rows)
}

// CursorForDatabase cannot switch databases in-session; a different target
// gets its own pool against the overridden config.
func (p Postgres) CursorForDatabase(ctx context.Context, conn *Conn, database string) (*Cursor, error) {
	if database == "" || database == conn.Cfg.Database {
		return conn.Cursor(ctx)
	}

	over := p.ApplyDatabaseOverride(conn.Cfg, database)
	db, err := sqlx.Open("postgres", p.dsn(over))
	if err != nil {
		return nil, mapConnectError(err)
	}
	sc, err := db.Connx(ctx)
	if err != nil {
		_ = db.Close()
		return nil, mapConnectError(err)
	}
	return &Cursor{conn: sc, database: database, ownedDB: db}, nil
}

func (p Postgres) SupportsStoredProcedures() bool { return !p.NoStoredProcedures }
