package exec

import (
	"context"
	"database/sql/driver"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/dbterm/dbterm/adapter"
	"github.com/dbterm/dbterm/config"
	"github.com/dbterm/dbterm/dberr"
	"github.com/dbterm/dbterm/sqltest"
)

type stubDialer struct {
	server *sqltest.Server
}

func (d stubDialer) Connect(ctx context.Context, cfg config.ConnectionConfig) (*adapter.Conn, error) {
	db, err := sqlx.Open("sqltest", d.server.DSN())
	if err != nil {
		return nil, err
	}
	db.SetMaxIdleConns(0)
	return &adapter.Conn{DB: db, Cfg: cfg}, nil
}

func (stubDialer) SplitStatements(script string) []string {
	return adapter.SplitStatements(script)
}

func testConfig() config.ConnectionConfig {
	return config.ConnectionConfig{Name: "t", DBType: "postgresql", Host: "h", Port: 5432, Database: "main"}
}

func cursorFor(t *testing.T, server *sqltest.Server) *adapter.Cursor {
	t.Helper()
	conn, err := stubDialer{server: server}.Connect(context.Background(), testConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	cur, err := conn.Cursor(context.Background())
	require.NoError(t, err)
	return cur
}

func TestIsRowReturning(t *testing.T) {
	tests := []struct {
		sql  string
		want bool
	}{
		{"SELECT 1", true},
		{"  select * from t", true},
		{"-- note\nSELECT 1", true},
		{"WITH x AS (SELECT 1) SELECT * FROM x", true},
		{"SHOW DATABASES", true},
		{"PRAGMA table_info(t)", true},
		{"EXPLAIN SELECT 1", true},
		{"INSERT INTO t VALUES (1)", false},
		{"UPDATE t SET a = 1", false},
		{"CREATE TABLE t (id INT)", false},
		{"BEGIN", false},
		{"SELECTX", false},
	}

	for _, test := range tests {
		require.Equal(t, test.want, IsRowReturning(test.sql), "sql %q", test.sql)
	}
}

func TestRunTruncation(t *testing.T) {
	server := sqltest.NewServer()
	server.Handle(func(_ int, query string) sqltest.Response {
		return sqltest.Response{Rows: sqltest.Rows([]string{"n"},
			[]driver.Value{int64(1)},
			[]driver.Value{int64(2)},
			[]driver.Value{int64(3)},
			[]driver.Value{int64(4)},
		)}
	})
	cur := cursorFor(t, server)
	defer cur.Close()

	res, err := Run(context.Background(), cur, "SELECT n FROM t", 3)
	require.NoError(t, err)

	qr, ok := res.(QueryResult)
	require.True(t, ok)
	require.Equal(t, []string{"n"}, qr.Columns)
	require.Equal(t, 3, qr.RowCount)
	require.True(t, qr.Truncated)

	// Unlimited when maxRows <= 0.
	cur2 := cursorFor(t, server)
	defer cur2.Close()
	res, err = Run(context.Background(), cur2, "SELECT n FROM t", 0)
	require.NoError(t, err)
	require.Equal(t, 4, res.(QueryResult).RowCount)
	require.False(t, res.(QueryResult).Truncated)
}

func TestRunRowIterationError(t *testing.T) {
	server := sqltest.NewServer()
	server.Handle(func(_ int, query string) sqltest.Response {
		rs := sqltest.Rows([]string{"n"}, []driver.Value{int64(1)})
		rs.Err = errDivisionByZero
		return sqltest.Response{Rows: rs}
	})
	cur := cursorFor(t, server)
	defer cur.Close()

	res, err := Run(context.Background(), cur, "SELECT n FROM t", 10)
	require.Error(t, err)
	require.Nil(t, res, "failed statements never carry a partial result")
}

func TestRunNonQuery(t *testing.T) {
	server := sqltest.NewServer()
	server.Handle(func(_ int, query string) sqltest.Response {
		return sqltest.Response{RowsAffected: 7}
	})
	cur := cursorFor(t, server)
	defer cur.Close()

	res, err := Run(context.Background(), cur, "UPDATE t SET a = 1", 100)
	require.NoError(t, err)
	require.Equal(t, NonQueryResult{RowsAffected: 7}, res)
}

func TestCancellableQueryCancel(t *testing.T) {
	server := sqltest.NewServer()
	server.Handle(func(_ int, query string) sqltest.Response {
		return sqltest.Response{Delay: 30 * time.Second, Rows: sqltest.Rows([]string{"x"})}
	})
	cur := cursorFor(t, server)

	q := NewCancellableQuery(cur, "SELECT pg_sleep(30)", 100)

	type outcome struct {
		res Result
		err error
	}
	done := make(chan outcome, 1)
	start := time.Now()
	go func() {
		res, err := q.Execute(context.Background())
		done <- outcome{res, err}
	}()

	time.Sleep(50 * time.Millisecond)
	q.Cancel()

	select {
	case o := <-done:
		require.ErrorIs(t, o.err, dberr.ErrQueryCancelled)
		require.Nil(t, o.res)
		require.Less(t, time.Since(start), 2*time.Second)
	case <-time.After(5 * time.Second):
		t.Fatal("cancelled execute did not return")
	}
	require.True(t, q.IsCancelled())
}

func TestCancellableQueryDriverError(t *testing.T) {
	server := sqltest.NewServer()
	server.Handle(func(_ int, query string) sqltest.Response {
		return sqltest.Response{Err: errDivisionByZero}
	})
	cur := cursorFor(t, server)

	q := NewCancellableQuery(cur, "SELECT 1/0", 100)
	_, err := q.Execute(context.Background())
	require.Error(t, err)

	var qe *dberr.QueryError
	require.ErrorAs(t, err, &qe)
	require.Contains(t, qe.Message, "division by zero")
	require.False(t, q.IsCancelled())
}

var errDivisionByZero = errDiv{}

type errDiv struct{}

func (errDiv) Error() string { return "division by zero" }

func TestTransactionAffinity(t *testing.T) {
	server := sqltest.NewServer()
	tx := NewTransactionExecutor(stubDialer{server: server}, testConfig())
	defer tx.Close()

	ctx := context.Background()
	_, err := tx.Execute(ctx, "BEGIN", 100)
	require.NoError(t, err)
	require.True(t, tx.InTransaction())

	_, err = tx.Execute(ctx, "INSERT INTO t VALUES (1)", 100)
	require.NoError(t, err)
	_, err = tx.Execute(ctx, "insert into t values (2)", 100)
	require.NoError(t, err)
	_, err = tx.Execute(ctx, "COMMIT", 100)
	require.NoError(t, err)
	require.False(t, tx.InTransaction())

	log := server.Log()
	require.NotEmpty(t, log)
	for _, e := range log {
		require.Equal(t, log[0].ConnID, e.ConnID, "all statements share one connection")
	}
}

func TestSentinelRecognition(t *testing.T) {
	server := sqltest.NewServer()
	tx := NewTransactionExecutor(stubDialer{server: server}, testConfig())
	defer tx.Close()

	ctx := context.Background()

	// Case-insensitive, comments stripped.
	_, err := tx.Execute(ctx, "  -- open\n start transaction", 100)
	require.NoError(t, err)
	require.True(t, tx.InTransaction())

	_, err = tx.Execute(ctx, "RoLlBaCk", 100)
	require.NoError(t, err)
	require.False(t, tx.InTransaction())

	// END commits like COMMIT.
	_, err = tx.Execute(ctx, "BEGIN", 100)
	require.NoError(t, err)
	_, err = tx.Execute(ctx, "END", 100)
	require.NoError(t, err)
	require.False(t, tx.InTransaction())

	// A terminating semicolon does not hide the sentinel.
	_, err = tx.Execute(ctx, "BEGIN;", 100)
	require.NoError(t, err)
	require.True(t, tx.InTransaction())
	_, err = tx.Execute(ctx, "COMMIT ;", 100)
	require.NoError(t, err)
	require.False(t, tx.InTransaction())
}

func TestMustRunLocally(t *testing.T) {
	server := sqltest.NewServer()
	tx := NewTransactionExecutor(stubDialer{server: server}, testConfig())
	defer tx.Close()

	require.True(t, tx.MustRunLocally("BEGIN"))
	require.True(t, tx.MustRunLocally("BEGIN;"))
	require.True(t, tx.MustRunLocally("commit"))
	require.True(t, tx.MustRunLocally("rollback;"))
	require.True(t, tx.MustRunLocally("START TRANSACTION;"))
	require.False(t, tx.MustRunLocally("SELECT 1"))
	require.False(t, tx.MustRunLocally("SELECT 1;"))
	require.False(t, tx.MustRunLocally("BEGIN; SELECT 1"), "scripts are not sentinels")

	_, err := tx.Execute(context.Background(), "BEGIN", 100)
	require.NoError(t, err)
	require.True(t, tx.MustRunLocally("SELECT 1"), "statements inside a transaction stay local")
}

func TestAtomicExecuteRollsBackOnError(t *testing.T) {
	server := sqltest.NewServer()
	server.Handle(func(_ int, query string) sqltest.Response {
		if strings.Contains(query, "BAD") {
			return sqltest.Response{Err: errDivisionByZero}
		}
		return sqltest.Response{RowsAffected: 1}
	})
	tx := NewTransactionExecutor(stubDialer{server: server}, testConfig())
	defer tx.Close()

	_, err := tx.AtomicExecute(context.Background(), "INSERT INTO t VALUES (1); BAD STATEMENT; INSERT INTO t VALUES (2)", 100)
	require.Error(t, err)
	require.False(t, tx.InTransaction())

	queries := server.Queries()
	require.Contains(t, queries, "BEGIN")
	require.Contains(t, queries, "ROLLBACK")
	require.NotContains(t, queries, "COMMIT")
	require.NotContains(t, queries, "INSERT INTO t VALUES (2)")
}

func TestAtomicExecuteCommits(t *testing.T) {
	server := sqltest.NewServer()
	tx := NewTransactionExecutor(stubDialer{server: server}, testConfig())
	defer tx.Close()

	res, err := tx.AtomicExecute(context.Background(), "INSERT INTO t VALUES (1); INSERT INTO t VALUES (2)", 100)
	require.NoError(t, err)
	require.IsType(t, NonQueryResult{}, res)

	queries := server.Queries()
	require.Equal(t, []string{
		"BEGIN",
		"INSERT INTO t VALUES (1)",
		"INSERT INTO t VALUES (2)",
		"COMMIT",
	}, queries)
}

func TestSetConfigResetsConnection(t *testing.T) {
	server := sqltest.NewServer()
	tx := NewTransactionExecutor(stubDialer{server: server}, testConfig())
	defer tx.Close()

	ctx := context.Background()
	_, err := tx.Execute(ctx, "INSERT INTO t VALUES (1)", 100)
	require.NoError(t, err)

	cfg := testConfig()
	tx.SetConfig(cfg) // same target, connection kept
	_, err = tx.Execute(ctx, "INSERT INTO t VALUES (2)", 100)
	require.NoError(t, err)

	cfg.Database = "other"
	tx.SetConfig(cfg)
	_, err = tx.Execute(ctx, "INSERT INTO t VALUES (3)", 100)
	require.NoError(t, err)

	log := server.Log()
	require.Len(t, log, 3)
	require.Equal(t, log[0].ConnID, log[1].ConnID)
	require.NotEqual(t, log[1].ConnID, log[2].ConnID, "database override resets the sticky connection")
}

func TestMultiStatementPartialSuccess(t *testing.T) {
	server := sqltest.NewServer()
	server.Handle(func(_ int, query string) sqltest.Response {
		if strings.Contains(query, "1/0") {
			return sqltest.Response{Err: errDivisionByZero}
		}
		return sqltest.Response{Rows: sqltest.Rows([]string{"n"}, []driver.Value{int64(1)})}
	})
	tx := NewTransactionExecutor(stubDialer{server: server}, testConfig())
	defer tx.Close()
	multi := NewMultiStatementExecutor(tx)

	res := multi.Execute(context.Background(), "SELECT 1; SELECT 1/0; SELECT 2", 100)

	require.Len(t, res.Results, 2)
	require.Equal(t, 1, res.SuccessfulCount)
	require.Equal(t, 1, res.ErrorIndex)
	require.True(t, res.Failed())

	first, ok := res.Results[0].(QueryResult)
	require.True(t, ok)
	require.Equal(t, 1, first.RowCount)

	fail, ok := res.Results[1].(ErrorResult)
	require.True(t, ok)
	require.Contains(t, fail.Message, "division by zero")
}

func TestMultiStatementAllSucceed(t *testing.T) {
	server := sqltest.NewServer()
	tx := NewTransactionExecutor(stubDialer{server: server}, testConfig())
	defer tx.Close()
	multi := NewMultiStatementExecutor(tx)

	res := multi.Execute(context.Background(), "INSERT INTO t VALUES (1); INSERT INTO t VALUES (2)", 100)
	require.Len(t, res.Results, 2)
	require.Equal(t, 2, res.SuccessfulCount)
	require.Equal(t, -1, res.ErrorIndex)
	require.False(t, res.Failed())
}
