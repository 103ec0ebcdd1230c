package adapter

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/dbterm/dbterm/config"
)

// base carries the dialect-independent defaults every adapter embeds.
type base struct{}

func (base) SplitStatements(script string) []string { return SplitStatements(script) }

func (base) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (base) ApplyDatabaseOverride(cfg config.ConnectionConfig, database string) config.ConnectionConfig {
	return cfg.WithDatabase(database)
}

func (base) SupportsStoredProcedures() bool  { return true }
func (base) SupportsTriggers() bool          { return true }
func (base) SupportsMultipleDatabases() bool { return true }

func (base) ListProcedures(context.Context, *Conn, string) ([]Relation, error) {
	return nil, nil
}

func (base) ListTriggers(context.Context, *Conn, string) ([]Relation, error) {
	return nil, nil
}

func (base) ListSequences(context.Context, *Conn, string) ([]Relation, error) {
	return nil, nil
}

// openPool opens and verifies a pool for an already-built DSN.
func openPool(ctx context.Context, driver, dsn string, cfg config.ConnectionConfig) (*Conn, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, mapConnectError(err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, ConnectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, mapConnectError(err)
	}
	return &Conn{DB: db, Cfg: cfg}, nil
}

// queryStrings runs a one-column query and collects the values.
func queryStrings(ctx context.Context, conn *Conn, query string, args ...any) ([]string, error) {
	var out []string
	if err := conn.DB.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, err
	}
	return out, nil
}

// queryRelations runs a two-column (schema, name) query.
func queryRelations(ctx context.Context, conn *Conn, query string, args ...any) ([]Relation, error) {
	rows, err := conn.DB.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Relation
	for rows.Next() {
		var r Relation
		if err := rows.Scan(&r.Schema, &r.Name); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// scanColumns collects (name, type, nullable, default) rows.
func scanColumns(rows *sqlx.Rows) ([]Column, error) {
	var out []Column
	for rows.Next() {
		var (
			c        Column
			nullable string
		)
		if err := rows.Scan(&c.Name, &c.DataType, &nullable, &c.Default); err != nil {
			return nil, err
		}
		switch strings.ToLower(nullable) {
		case "yes", "true", "1":
			c.Nullable = true
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// switchCursor opens a dedicated cursor and issues a USE when the target
// database differs from the connection's default.
func switchCursor(ctx context.Context, conn *Conn, database, quoted string) (*Cursor, error) {
	cur, err := conn.Cursor(ctx)
	if err != nil {
		return nil, err
	}
	if database == "" || database == conn.Cfg.Database {
		return cur, nil
	}
	if _, err := cur.Exec(ctx, "USE "+quoted); err != nil {
		_ = cur.Close()
		return nil, err
	}
	cur.database = database
	return cur, nil
}
