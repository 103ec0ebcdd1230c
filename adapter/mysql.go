package adapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-sql-driver/mysql"

	"github.com/dbterm/dbterm/config"
	"github.com/dbterm/dbterm/dberr"
)

// MySQL speaks to MySQL and MariaDB servers.
type MySQL struct {
	base
}

func (MySQL) Connect(ctx context.Context, cfg config.ConnectionConfig) (*Conn, error) {
	mc := mysql.NewConfig()
	mc.User = cfg.Username
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	mc.DBName = cfg.Database
	mc.ParseTime = true
	mc.Timeout = ConnectTimeout
	for k, v := range cfg.Options {
		if mc.Params == nil {
			mc.Params = map[string]string{}
		}
		mc.Params[k] = v
	}

	conn, err := openPool(ctx, "mysql", mc.FormatDSN(), cfg)
	if err != nil {
		var myErr *mysql.MySQLError
		if errors.As(err, &myErr) && myErr.Number == 1045 {
			return nil, errors.Wrapf(dberr.ErrAuthFailed, "%v", myErr)
		}
		return nil, err
	}
	return conn, nil
}

func (MySQL) ListDatabases(ctx context.Context, conn *Conn) ([]string, error) {
	return queryStrings(ctx, conn,
		`SHOW DATABASES`)
}

func (m MySQL) ListTables(ctx context.Context, conn *Conn, database string) ([]Relation, error) {
	return queryRelations(ctx, conn,
		`SELECT table_schema, table_name FROM information_schema.tables
		 WHERE table_type = 'BASE TABLE' AND table_schema = ?
		 ORDER BY table_name`, m.schemaOf(conn, database))
}

func (m MySQL) ListViews(ctx context.Context, conn *Conn, database string) ([]Relation, error) {
	return queryRelations(ctx, conn,
		`SELECT table_schema, table_name FROM information_schema.views
		 WHERE table_schema = ? ORDER BY table_name`, m.schemaOf(conn, database))
}

func (m MySQL) ListProcedures(ctx context.Context, conn *Conn, database string) ([]Relation, error) {
	return queryRelations(ctx, conn,
		`SELECT routine_schema, routine_name FROM information_schema.routines
		 WHERE routine_type = 'PROCEDURE' AND routine_schema = ?
		 ORDER BY routine_name`, m.schemaOf(conn, database))
}

func (m MySQL) ListTriggers(ctx context.Context, conn *Conn, database string) ([]Relation, error) {
	return queryRelations(ctx, conn,
		`SELECT trigger_schema, trigger_name FROM information_schema.triggers
		 WHERE trigger_schema = ? ORDER BY trigger_name`, m.schemaOf(conn, database))
}

func (m MySQL) ListColumns(ctx context.Context, conn *Conn, database, schema, table string) ([]Column, error) {
	if schema == "" {
		schema = m.schemaOf(conn, database)
	}
	rows, err := conn.DB.QueryxContext(ctx,
		`SELECT column_name, column_type, is_nullable, COALESCE(column_default, '')
		 FROM information_schema.columns
		 WHERE table_schema = ? AND table_name = ?
		 ORDER BY ordinal_position`, schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanColumns(rows)
}

func (m MySQL) CursorForDatabase(ctx context.Context, conn *Conn, database string) (*Cursor, error) {
	return switchCursor(ctx, conn, database, m.QuoteIdentifier(database))
}

func (MySQL) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (MySQL) schemaOf(conn *Conn, database string) string {
	if database != "" {
		return database
	}
	return conn.Cfg.Database
}
