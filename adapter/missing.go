package adapter

import (
	"context"

	"github.com/dbterm/dbterm/config"
	"github.com/dbterm/dbterm/dberr"
)

// MissingDriver stands in for backends whose driver is not compiled into
// this binary. Connect always fails with the install hint; every other
// operation behaves like an empty single-database backend.
type MissingDriver struct {
	base

	Driver  string // human name, e.g. "DuckDB"
	Package string // Go module that would provide it
	Extra   string // extra hint appended to the message
}

func (m MissingDriver) Connect(context.Context, config.ConnectionConfig) (*Conn, error) {
	return nil, &dberr.MissingDriverError{
		Driver:  m.Driver,
		Package: m.Package,
		Extra:   m.Extra,
	}
}

func (MissingDriver) ListDatabases(context.Context, *Conn) ([]string, error) {
	return nil, nil
}

func (MissingDriver) ListTables(context.Context, *Conn, string) ([]Relation, error) {
	return nil, nil
}

func (MissingDriver) ListViews(context.Context, *Conn, string) ([]Relation, error) {
	return nil, nil
}

func (MissingDriver) ListColumns(context.Context, *Conn, string, string, string) ([]Column, error) {
	return nil, nil
}

func (MissingDriver) CursorForDatabase(ctx context.Context, conn *Conn, database string) (*Cursor, error) {
	return nil, dberr.ErrNoActiveConnection
}

func (MissingDriver) SupportsStoredProcedures() bool  { return false }
func (MissingDriver) SupportsTriggers() bool          { return false }
func (MissingDriver) SupportsMultipleDatabases() bool { return false }
