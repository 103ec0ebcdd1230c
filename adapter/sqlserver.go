package adapter

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/denisenkom/go-mssqldb"

	"github.com/dbterm/dbterm/config"
)

// SQLServer speaks TDS to SQL Server instances.
type SQLServer struct {
	base
}

func (SQLServer) Connect(ctx context.Context, cfg config.ConnectionConfig) (*Conn, error) {
	return openPool(ctx, "sqlserver", sqlserverDSN(cfg), cfg)
}

func sqlserverDSN(cfg config.ConnectionConfig) string {
	q := url.Values{}
	if cfg.Database != "" {
		q.Set("database", cfg.Database)
	}
	q.Set("dial timeout", fmt.Sprintf("%d", config.DefaultConnectTimeout))
	for k, v := range cfg.Options {
		q.Set(k, v)
	}
	u := url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(cfg.Username, cfg.Password),
		Host:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		RawQuery: q.Encode(),
	}
	return u.String()
}

func (SQLServer) ListDatabases(ctx context.Context, conn *Conn) ([]string, error) {
	return queryStrings(ctx, conn,
		`SELECT name FROM sys.databases WHERE database_id > 4 ORDER BY name`)
}

func (SQLServer) ListTables(ctx context.Context, conn *Conn, database string) ([]Relation, error) {
	return queryRelations(ctx, conn, inDatabase(database,
		`SELECT s.name, t.name FROM %s.sys.tables t
		 JOIN %s.sys.schemas s ON s.schema_id = t.schema_id
		 ORDER BY s.name, t.name`))
}

func (SQLServer) ListViews(ctx context.Context, conn *Conn, database string) ([]Relation, error) {
	return queryRelations(ctx, conn, inDatabase(database,
		`SELECT s.name, v.name FROM %s.sys.views v
		 JOIN %s.sys.schemas s ON s.schema_id = v.schema_id
		 ORDER BY s.name, v.name`))
}

func (SQLServer) ListProcedures(ctx context.Context, conn *Conn, database string) ([]Relation, error) {
	return queryRelations(ctx, conn, inDatabase(database,
		`SELECT s.name, p.name FROM %s.sys.procedures p
		 JOIN %s.sys.schemas s ON s.schema_id = p.schema_id
		 ORDER BY s.name, p.name`))
}

func (SQLServer) ListTriggers(ctx context.Context, conn *Conn, database string) ([]Relation, error) {
	return queryRelations(ctx, conn, inDatabase(database,
		`SELECT COALESCE(s.name, ''), tr.name FROM %s.sys.triggers tr
		 LEFT JOIN %s.sys.objects o ON o.object_id = tr.parent_id
		 LEFT JOIN %s.sys.schemas s ON s.schema_id = o.schema_id
		 ORDER BY tr.name`))
}

func (SQLServer) ListSequences(ctx context.Context, conn *Conn, database string) ([]Relation, error) {
	return queryRelations(ctx, conn, inDatabase(database,
		`SELECT s.name, sq.name FROM %s.sys.sequences sq
		 JOIN %s.sys.schemas s ON s.schema_id = sq.schema_id
		 ORDER BY s.name, sq.name`))
}

func (a SQLServer) ListColumns(ctx context.Context, conn *Conn, database, schema, table string) ([]Column, error) {
	if schema == "" {
		schema = "dbo"
	}
	catalog := database
	if catalog == "" {
		catalog = conn.Cfg.Database
	}
	prefix := ""
	if catalog != "" {
		prefix = a.QuoteIdentifier(catalog) + "."
	}
	rows, err := conn.DB.QueryxContext(ctx, fmt.Sprintf(
		`SELECT column_name, data_type, is_nullable, COALESCE(column_default, '')
		 FROM %sinformation_schema.columns
		 WHERE table_schema = @p1 AND table_name = @p2
		 ORDER BY ordinal_position`, prefix), schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanColumns(rows)
}

func (a SQLServer) CursorForDatabase(ctx context.Context, conn *Conn, database string) (*Cursor, error) {
	return switchCursor(ctx, conn, database, a.QuoteIdentifier(database))
}

func (SQLServer) QuoteIdentifier(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// inDatabase prefixes catalog views with the quoted target database, or the
// connection default when empty.
func inDatabase(database, tmpl string) string {
	prefix := ""
	if database != "" {
		prefix = SQLServer{}.QuoteIdentifier(database)
	}
	n := strings.Count(tmpl, "%s")
	args := make([]any, n)
	for i := range args {
		args[i] = prefix
	}
	q := fmt.Sprintf(tmpl, args...)
	// An empty prefix leaves a stray dot.
	return strings.ReplaceAll(q, " .sys.", " sys.")
}

// AzureSQL is SQL Server without database switching: USE is rejected by the
// service, so cursors stay bound to the configured database.
type AzureSQL struct {
	SQLServer
}

func (AzureSQL) CursorForDatabase(ctx context.Context, conn *Conn, database string) (*Cursor, error) {
	return conn.Cursor(ctx)
}

func (AzureSQL) ApplyDatabaseOverride(cfg config.ConnectionConfig, database string) config.ConnectionConfig {
	return cfg
}

func (AzureSQL) SupportsMultipleDatabases() bool { return false }
