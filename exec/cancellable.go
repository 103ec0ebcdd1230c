package exec

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/dbterm/dbterm/adapter"
	"github.com/dbterm/dbterm/dberr"
)

// CancellableQuery runs exactly one statement on a cursor it uniquely owns.
// Cancel may be called from any goroutine; it cancels the in-flight call and
// force-closes the underlying connection, which interrupts drivers that do
// not honor contexts. The cursor is always closed by the time Execute
// returns.
type CancellableQuery struct {
	sql     string
	maxRows int

	mu        sync.Mutex
	cursor    *adapter.Cursor
	cancel    context.CancelFunc
	cancelled bool
	done      bool
}

// NewCancellableQuery takes ownership of the cursor.
func NewCancellableQuery(cur *adapter.Cursor, sql string, maxRows int) *CancellableQuery {
	return &CancellableQuery{cursor: cur, sql: sql, maxRows: maxRows}
}

// Execute blocks until completion, cancellation or error. It may be called
// once.
func (q *CancellableQuery) Execute(ctx context.Context) (Result, error) {
	q.mu.Lock()
	if q.done {
		q.mu.Unlock()
		return nil, errors.New("cancellable query: already executed")
	}
	q.done = true
	if q.cancelled {
		cur := q.cursor
		q.mu.Unlock()
		_ = cur.Close()
		return nil, dberr.ErrQueryCancelled
	}
	runCtx, cancel := context.WithCancel(ctx)
	q.cancel = cancel
	cur := q.cursor
	q.mu.Unlock()

	defer cancel()
	res, err := Run(runCtx, cur, q.sql, q.maxRows)
	_ = cur.Close()

	if q.IsCancelled() || errors.Is(runCtx.Err(), context.Canceled) {
		// A cancelled query never reports driver errors, even ones raised
		// during teardown.
		return nil, dberr.ErrQueryCancelled
	}
	if err != nil {
		return nil, dberr.NewQueryError(err)
	}
	return res, nil
}

// Cancel interrupts the in-flight execute and closes the connection. Sticky:
// a later Execute fails with ErrQueryCancelled.
func (q *CancellableQuery) Cancel() {
	q.mu.Lock()
	q.cancelled = true
	cancel := q.cancel
	cur := q.cursor
	q.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	_ = cur.Close()
}

// IsCancelled reports whether Cancel was ever called.
func (q *CancellableQuery) IsCancelled() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.cancelled
}
