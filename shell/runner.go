package shell

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/dbterm/dbterm/adapter"
	"github.com/dbterm/dbterm/config"
	"github.com/dbterm/dbterm/dberr"
	"github.com/dbterm/dbterm/exec"
	"github.com/dbterm/dbterm/session"
)

// workerExecutor is the slice of the worker client the runner uses.
type workerExecutor interface {
	Execute(ctx context.Context, query string, cfg config.ConnectionConfig, maxRows int) (exec.Result, error)
	CancelCurrent()
}

// Outcome is one query's terminal state, whichever path executed it.
type Outcome struct {
	Result  exec.Result
	Multi   *exec.MultiStatementResult
	Elapsed time.Duration

	// Warning is set when the worker was unavailable and the query fell
	// back to in-process execution.
	Warning string
}

// Runner routes queries between the process worker and local execution.
// Transaction control statements and statements inside an open transaction
// are pinned to the local persistent connection; multi-statement scripts
// run locally statement by statement; everything else goes to the worker
// when it is enabled, falling back in-process when it cannot be reached.
type Runner struct {
	dialer  session.Dialer
	tx      *exec.TransactionExecutor
	multi   *exec.MultiStatementExecutor
	worker  workerExecutor
	log     *zap.Logger
	maxRows int

	mu        sync.Mutex
	cfg       config.ConnectionConfig
	useWorker bool
	current   *exec.CancellableQuery
}

// NewRunner builds a runner for one connection target.
func NewRunner(dialer session.Dialer, w workerExecutor, cfg config.ConnectionConfig, maxRows int, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	tx := exec.NewTransactionExecutor(dialer, cfg)
	return &Runner{
		dialer:  dialer,
		tx:      tx,
		multi:   exec.NewMultiStatementExecutor(tx),
		worker:  w,
		log:     log,
		maxRows: maxRows,
		cfg:     cfg,
	}
}

// SetUseWorker toggles routing to the process worker.
func (r *Runner) SetUseWorker(on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.useWorker = on
}

// Config returns the active connection config.
func (r *Runner) Config() config.ConnectionConfig {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cfg
}

// SwitchDatabase repoints the runner at another database on the same
// server. The persistent transaction connection is reset by the target
// change.
func (r *Runner) SwitchDatabase(database string) {
	r.mu.Lock()
	r.cfg = r.dialer.Adapter.ApplyDatabaseOverride(r.cfg, database)
	cfg := r.cfg
	r.mu.Unlock()
	r.tx.SetConfig(cfg)
}

// InTransaction reports whether the local connection has an open BEGIN.
func (r *Runner) InTransaction() bool {
	return r.tx.InTransaction()
}

// parseUse extracts the target of a USE statement, if the query is one.
func parseUse(query string) (string, bool) {
	fields := strings.Fields(adapter.StripLeadingComments(query))
	if len(fields) != 2 || !strings.EqualFold(fields[0], "USE") {
		return "", false
	}
	db := strings.TrimSuffix(fields[1], ";")
	db = strings.Trim(db, "`\"[]")
	if db == "" {
		return "", false
	}
	return db, true
}

// Run executes one editor submission and reports its outcome. USE
// statements switch the active database instead of reaching the backend.
func (r *Runner) Run(ctx context.Context, query string) (Outcome, error) {
	query = strings.TrimSpace(query)
	start := time.Now()

	if db, ok := parseUse(query); ok && r.dialer.Adapter.SupportsMultipleDatabases() {
		r.SwitchDatabase(db)
		return Outcome{Result: exec.NonQueryResult{}, Elapsed: time.Since(start)}, nil
	}

	if r.tx.MustRunLocally(query) {
		res, err := r.tx.Execute(ctx, query, r.maxRows)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Result: res, Elapsed: time.Since(start)}, nil
	}

	if exec.IsMultiStatement(r.dialer, query) {
		multi := r.multi.Execute(ctx, query, r.maxRows)
		return Outcome{Multi: &multi, Elapsed: time.Since(start)}, nil
	}

	r.mu.Lock()
	cfg := r.cfg
	useWorker := r.useWorker && r.worker != nil
	r.mu.Unlock()

	if useWorker {
		res, err := r.worker.Execute(ctx, query, cfg, r.maxRows)
		var unavailable *dberr.WorkerUnavailableError
		switch {
		case err == nil:
			return Outcome{Result: res, Elapsed: time.Since(start)}, nil
		case errors.As(err, &unavailable):
			r.log.Warn("worker unavailable, running in-process", zap.String("reason", unavailable.Reason))
			res, lerr := r.runLocal(ctx, cfg, query)
			if lerr != nil {
				return Outcome{}, lerr
			}
			return Outcome{
				Result:  res,
				Elapsed: time.Since(start),
				Warning: "process worker unavailable, query ran in-process",
			}, nil
		default:
			return Outcome{}, err
		}
	}

	res, err := r.runLocal(ctx, cfg, query)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Result: res, Elapsed: time.Since(start)}, nil
}

// runLocal executes a single statement on a dedicated cancellable
// connection.
func (r *Runner) runLocal(ctx context.Context, cfg config.ConnectionConfig, query string) (exec.Result, error) {
	conn, err := r.dialer.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	cur, err := conn.Cursor(ctx)
	if err != nil {
		return nil, err
	}

	q := exec.NewCancellableQuery(cur, query, r.maxRows)
	r.mu.Lock()
	r.current = q
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.current = nil
		r.mu.Unlock()
	}()

	return q.Execute(ctx)
}

// Cancel aborts whichever execution path is live.
func (r *Runner) Cancel() {
	r.mu.Lock()
	q := r.current
	r.mu.Unlock()
	if q != nil {
		q.Cancel()
	}
	if r.worker != nil {
		r.worker.CancelCurrent()
	}
}

// AtomicRun wraps a script in BEGIN/COMMIT on the local connection.
func (r *Runner) AtomicRun(ctx context.Context, script string) (Outcome, error) {
	start := time.Now()
	res, err := r.tx.AtomicExecute(ctx, script, r.maxRows)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Result: res, Elapsed: time.Since(start)}, nil
}

// Close tears down the local persistent connection.
func (r *Runner) Close() error {
	return r.tx.Close()
}
