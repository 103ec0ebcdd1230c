// Package adapter implements the per-dialect capability contract: connect,
// schema listings, database switching, identifier quoting and statement
// splitting. Adapters are stateless; all per-connection state lives in Conn
// and Cursor.
package adapter

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/multierr"

	"github.com/dbterm/dbterm/config"
)

// ConnectTimeout bounds how long Connect may block.
const ConnectTimeout = config.DefaultConnectTimeout * time.Second

// Relation is a schema-qualified table, view, procedure, trigger or
// sequence name.
type Relation struct {
	Schema string
	Name   string
}

// Column describes one column of a table or view.
type Column struct {
	Name     string
	DataType string
	Nullable bool
	Default  string
}

// Adapter is the capability surface for one database dialect.
type Adapter interface {
	// Connect opens a connection pool for the config. Driver availability
	// problems surface as MissingDriverError, network errors as
	// ErrConnectionRefused, credential rejections as ErrAuthFailed.
	Connect(ctx context.Context, cfg config.ConnectionConfig) (*Conn, error)

	// ListDatabases is empty for single-database backends.
	ListDatabases(ctx context.Context, conn *Conn) ([]string, error)
	ListTables(ctx context.Context, conn *Conn, database string) ([]Relation, error)
	ListViews(ctx context.Context, conn *Conn, database string) ([]Relation, error)
	ListProcedures(ctx context.Context, conn *Conn, database string) ([]Relation, error)
	ListTriggers(ctx context.Context, conn *Conn, database string) ([]Relation, error)
	ListSequences(ctx context.Context, conn *Conn, database string) ([]Relation, error)
	ListColumns(ctx context.Context, conn *Conn, database, schema, table string) ([]Column, error)

	// CursorForDatabase returns a dedicated cursor bound to the target
	// database, either by switching on a fresh connection or, for backends
	// that cannot switch, bound to the connection's current database.
	CursorForDatabase(ctx context.Context, conn *Conn, database string) (*Cursor, error)

	// ApplyDatabaseOverride returns a config pointing at another database.
	ApplyDatabaseOverride(cfg config.ConnectionConfig, database string) config.ConnectionConfig

	QuoteIdentifier(name string) string
	SplitStatements(script string) []string

	SupportsStoredProcedures() bool
	SupportsTriggers() bool
	SupportsMultipleDatabases() bool
}

// Conn is a live connection pool plus the config it was opened with.
type Conn struct {
	DB  *sqlx.DB
	Cfg config.ConnectionConfig
}

// Close releases the pool.
func (c *Conn) Close() error {
	if c == nil || c.DB == nil {
		return nil
	}
	return c.DB.Close()
}

// Cursor returns a dedicated single connection off the pool. Callers own it
// and must Close it.
func (c *Conn) Cursor(ctx context.Context) (*Cursor, error) {
	sc, err := c.DB.Connx(ctx)
	if err != nil {
		return nil, err
	}
	return &Cursor{conn: sc, database: c.Cfg.Database}, nil
}

// Cursor is a driver-scoped execution handle over one physical connection.
type Cursor struct {
	conn     *sqlx.Conn
	database string

	closeOnce sync.Once
	closeErr  error

	// ownedDB is set when the cursor opened its own pool to reach another
	// database; it is released together with the cursor.
	ownedDB *sqlx.DB
}

// Database is the database this cursor is bound to.
func (c *Cursor) Database() string { return c.database }

// Query runs a row-returning statement.
func (c *Cursor) Query(ctx context.Context, query string) (*sqlx.Rows, error) {
	return c.conn.QueryxContext(ctx, query)
}

// Exec runs a statement without a result set.
func (c *Cursor) Exec(ctx context.Context, query string) (sql.Result, error) {
	return c.conn.ExecContext(ctx, query)
}

// Close returns the physical connection. Cancellation teardown and normal
// cleanup may call it concurrently; the connection is released exactly once
// and every caller sees the same result.
func (c *Cursor) Close() error {
	if c == nil {
		return nil
	}
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
		if c.ownedDB != nil {
			c.closeErr = multierr.Append(c.closeErr, c.ownedDB.Close())
		}
	})
	return c.closeErr
}

// Raw exposes the underlying sqlx connection for transaction control.
func (c *Cursor) Raw() *sqlx.Conn { return c.conn }
