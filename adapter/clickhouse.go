package adapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"

	"github.com/dbterm/dbterm/config"
	"github.com/dbterm/dbterm/dberr"
)

// ClickHouse connects over the native protocol.
type ClickHouse struct {
	base
}

func (ClickHouse) Connect(ctx context.Context, cfg config.ConnectionConfig) (*Conn, error) {
	db := clickhouse.OpenDB(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		DialTimeout: ConnectTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, ConnectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		var chErr *clickhouse.Exception
		if errors.As(err, &chErr) && (chErr.Code == 516 || chErr.Code == 194) {
			return nil, errors.Wrapf(dberr.ErrAuthFailed, "%v", chErr)
		}
		return nil, mapConnectError(err)
	}
	return &Conn{DB: sqlx.NewDb(db, "clickhouse"), Cfg: cfg}, nil
}

func (ClickHouse) ListDatabases(ctx context.Context, conn *Conn) ([]string, error) {
	return queryStrings(ctx, conn,
		`SELECT name FROM system.databases
		 WHERE name NOT IN ('system', 'INFORMATION_SCHEMA', 'information_schema')
		 ORDER BY name`)
}

func (c ClickHouse) ListTables(ctx context.Context, conn *Conn, database string) ([]Relation, error) {
	return queryRelations(ctx, conn,
		`SELECT database, name FROM system.tables
		 WHERE database = ? AND engine NOT LIKE '%View' ORDER BY name`,
		c.databaseOf(conn, database))
}

func (c ClickHouse) ListViews(ctx context.Context, conn *Conn, database string) ([]Relation, error) {
	return queryRelations(ctx, conn,
		`SELECT database, name FROM system.tables
		 WHERE database = ? AND engine LIKE '%View' ORDER BY name`,
		c.databaseOf(conn, database))
}

func (c ClickHouse) ListColumns(ctx context.Context, conn *Conn, database, schema, table string) ([]Column, error) {
	rows, err := conn.DB.QueryxContext(ctx,
		`SELECT name, type,
		        if(startsWith(type, 'Nullable'), 'YES', 'NO'),
		        default_expression
		 FROM system.columns
		 WHERE database = ? AND table = ? ORDER BY position`,
		c.databaseOf(conn, database), table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanColumns(rows)
}

func (c ClickHouse) CursorForDatabase(ctx context.Context, conn *Conn, database string) (*Cursor, error) {
	return switchCursor(ctx, conn, database, c.QuoteIdentifier(database))
}

func (ClickHouse) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "\\`") + "`"
}

func (ClickHouse) SupportsStoredProcedures() bool { return false }
func (ClickHouse) SupportsTriggers() bool         { return false }

func (ClickHouse) databaseOf(conn *Conn, database string) string {
	if database != "" {
		return database
	}
	if conn.Cfg.Database != "" {
		return conn.Cfg.Database
	}
	return "default"
}
