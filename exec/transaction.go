package exec

import (
	"context"
	"reflect"
	"strings"
	"sync"

	"go.uber.org/multierr"

	"github.com/dbterm/dbterm/adapter"
	"github.com/dbterm/dbterm/config"
)

// Dialer is the slice of the adapter contract the executors need.
type Dialer interface {
	Connect(ctx context.Context, cfg config.ConnectionConfig) (*adapter.Conn, error)
	SplitStatements(script string) []string
}

// Sentinel classification for transaction control statements.
type sentinel int

const (
	sentinelNone sentinel = iota
	sentinelBegin
	sentinelCommit
	sentinelRollback
)

func classify(sql string) sentinel {
	head := strings.ToUpper(adapter.StripLeadingComments(sql))
	// A terminating semicolon is part of the statement text here, not a
	// separator: "BEGIN;" and "COMMIT ;" are still sentinels.
	head = strings.TrimRight(head, "; \t\r\n")
	fields := strings.Fields(head)
	if len(fields) == 0 {
		return sentinelNone
	}
	switch fields[0] {
	case "BEGIN":
		return sentinelBegin
	case "START":
		if len(fields) > 1 && fields[1] == "TRANSACTION" {
			return sentinelBegin
		}
	case "COMMIT", "END":
		return sentinelCommit
	case "ROLLBACK":
		return sentinelRollback
	}
	return sentinelNone
}

// TransactionExecutor owns a persistent connection for one config so that
// statements inside a transaction share the same physical connection. It is
// single-reader: one Execute or AtomicExecute at a time.
type TransactionExecutor struct {
	dialer Dialer

	mu     sync.Mutex
	cfg    config.ConnectionConfig
	conn   *adapter.Conn
	cursor *adapter.Cursor
	inTx   bool
}

// NewTransactionExecutor builds an executor for a config.
func NewTransactionExecutor(dialer Dialer, cfg config.ConnectionConfig) *TransactionExecutor {
	return &TransactionExecutor{dialer: dialer, cfg: cfg}
}

// SetConfig resets the persistent connection when the target changes,
// including database overrides.
func (e *TransactionExecutor) SetConfig(cfg config.ConnectionConfig) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if configsEqual(e.cfg, cfg) {
		return
	}
	e.cfg = cfg
	e.resetLocked()
}

func configsEqual(a, b config.ConnectionConfig) bool {
	a.Options, b.Options = nil, nil
	a.Tunnel, b.Tunnel = nil, nil
	return reflect.DeepEqual(a, b)
}

// InTransaction reports whether a BEGIN is open.
func (e *TransactionExecutor) InTransaction() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inTx
}

// MustRunLocally reports whether a statement is pinned to this executor's
// connection and may not be routed to the process worker.
func (e *TransactionExecutor) MustRunLocally(sql string) bool {
	if classify(sql) != sentinelNone {
		return true
	}
	return e.InTransaction()
}

// Execute runs one statement on the persistent connection, tracking the
// transaction sentinels.
func (e *TransactionExecutor) Execute(ctx context.Context, sql string, maxRows int) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cur, err := e.cursorLocked(ctx)
	if err != nil {
		return nil, err
	}

	res, err := Run(ctx, cur, sql, maxRows)
	if err != nil {
		return nil, err
	}

	switch classify(sql) {
	case sentinelBegin:
		e.inTx = true
	case sentinelCommit, sentinelRollback:
		e.inTx = false
	}
	return res, nil
}

// AtomicExecute wraps a script in BEGIN/COMMIT. Any statement error triggers
// a best-effort ROLLBACK and the original error is returned. The result is
// the last statement's.
func (e *TransactionExecutor) AtomicExecute(ctx context.Context, script string, maxRows int) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cur, err := e.cursorLocked(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := cur.Exec(ctx, "BEGIN"); err != nil {
		return nil, err
	}
	e.inTx = true

	var last Result
	for _, stmt := range e.dialer.SplitStatements(script) {
		last, err = Run(ctx, cur, stmt, maxRows)
		if err != nil {
			_, _ = cur.Exec(ctx, "ROLLBACK")
			e.inTx = false
			return nil, err
		}
	}

	if _, err := cur.Exec(ctx, "COMMIT"); err != nil {
		_, _ = cur.Exec(ctx, "ROLLBACK")
		e.inTx = false
		return nil, err
	}
	e.inTx = false
	return last, nil
}

// Close tears down the persistent connection.
func (e *TransactionExecutor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resetLocked()
}

func (e *TransactionExecutor) resetLocked() error {
	var err error
	if e.cursor != nil {
		err = multierr.Append(err, e.cursor.Close())
		e.cursor = nil
	}
	if e.conn != nil {
		err = multierr.Append(err, e.conn.Close())
		e.conn = nil
	}
	e.inTx = false
	return err
}

func (e *TransactionExecutor) cursorLocked(ctx context.Context) (*adapter.Cursor, error) {
	if e.cursor != nil {
		return e.cursor, nil
	}
	conn, err := e.dialer.Connect(ctx, e.cfg)
	if err != nil {
		return nil, err
	}
	cur, err := conn.Cursor(ctx)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	e.conn = conn
	e.cursor = cur
	return cur, nil
}
