package adapter

import (
	"context"

	_ "github.com/mattn/go-sqlite3"

	"github.com/dbterm/dbterm/config"
)

// SQLite works against a database file. There is no server, no USE and no
// sibling databases.
type SQLite struct {
	base
}

func (SQLite) Connect(ctx context.Context, cfg config.ConnectionConfig) (*Conn, error) {
	return openPool(ctx, "sqlite3", cfg.FilePath, cfg)
}

func (SQLite) ListDatabases(context.Context, *Conn) ([]string, error) {
	return nil, nil
}

func (SQLite) ListTables(ctx context.Context, conn *Conn, database string) ([]Relation, error) {
	names, err := queryStrings(ctx, conn,
		`SELECT name FROM sqlite_master
		 WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return mainRelations(names), nil
}

func (SQLite) ListViews(ctx context.Context, conn *Conn, database string) ([]Relation, error) {
	names, err := queryStrings(ctx, conn,
		`SELECT name FROM sqlite_master WHERE type = 'view' ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return mainRelations(names), nil
}

func (SQLite) ListTriggers(ctx context.Context, conn *Conn, database string) ([]Relation, error) {
	names, err := queryStrings(ctx, conn,
		`SELECT name FROM sqlite_master WHERE type = 'trigger' ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return mainRelations(names), nil
}

func (SQLite) ListColumns(ctx context.Context, conn *Conn, database, schema, table string) ([]Column, error) {
	rows, err := conn.DB.QueryxContext(ctx, `SELECT name, type, "notnull", COALESCE(dflt_value, '')
		FROM pragma_table_info(?)`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Column
	for rows.Next() {
		var (
			c       Column
			notNull int
		)
		if err := rows.Scan(&c.Name, &c.DataType, &notNull, &c.Default); err != nil {
			return nil, err
		}
		c.Nullable = notNull == 0
		out = append(out, c)
	}
	return out, rows.Err()
}

// CursorForDatabase always returns the current cursor; a file is one
// database.
func (SQLite) CursorForDatabase(ctx context.Context, conn *Conn, database string) (*Cursor, error) {
	return conn.Cursor(ctx)
}

// ApplyDatabaseOverride is the identity for file-based backends.
func (SQLite) ApplyDatabaseOverride(cfg config.ConnectionConfig, database string) config.ConnectionConfig {
	return cfg
}

func (SQLite) SupportsStoredProcedures() bool  { return false }
func (SQLite) SupportsMultipleDatabases() bool { return false }

func mainRelations(names []string) []Relation {
	out := make([]Relation, 0, len(names))
	for _, n := range names {
		out = append(out, Relation{Schema: "main", Name: n})
	}
	return out
}
