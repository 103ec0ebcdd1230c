// Package sqltest provides a programmable database/sql driver for tests.
// Each Server is one fake backend reachable through its own DSN; handlers
// decide per statement whether to return rows, an exec result, an error, or
// to block until cancelled.
package sqltest

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
)

func init() {
	sql.Register("sqltest", drv{})
}

var (
	registryMu sync.Mutex
	registry   = map[string]*Server{}
	serverSeq  int
)

// Response tells the fake driver how to answer one statement.
type Response struct {
	// Rows, when set, makes the statement row-returning.
	Rows *RowSet

	// RowsAffected is reported for non-query statements.
	RowsAffected int64

	// Err fails the statement.
	Err error

	// Delay blocks the statement, honoring context cancellation, before the
	// rest of the response applies.
	Delay time.Duration
}

// RowSet is a static result set.
type RowSet struct {
	Columns []string
	Values  [][]driver.Value

	// Err aborts iteration after the listed rows instead of a clean EOF.
	Err error
}

// Rows builds a RowSet from untyped values.
func Rows(columns []string, values ...[]driver.Value) *RowSet {
	return &RowSet{Columns: columns, Values: values}
}

// Entry is one recorded statement with the id of the connection it ran on.
type Entry struct {
	ConnID int
	Query  string
}

// Server is one fake backend.
type Server struct {
	dsn string

	mu        sync.Mutex
	handler   func(connID int, query string) Response
	log       []Entry
	connSeq   int
	openConns int

	// ConnectErr fails every new connection when set.
	ConnectErr error
}

// NewServer registers a fake backend and returns it.
func NewServer() *Server {
	registryMu.Lock()
	defer registryMu.Unlock()
	serverSeq++
	s := &Server{dsn: fmt.Sprintf("sqltest-%d", serverSeq)}
	registry[s.dsn] = s
	return s
}

// DSN is the data source name to sql.Open("sqltest", ...).
func (s *Server) DSN() string { return s.dsn }

// Handle installs the statement handler.
func (s *Server) Handle(fn func(connID int, query string) Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = fn
}

// Queries returns every statement seen so far, in order.
func (s *Server) Queries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.log))
	for i, e := range s.log {
		out[i] = e.Query
	}
	return out
}

// Log returns the recorded statements with connection ids.
func (s *Server) Log() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.log...)
}

// OpenConns is the number of live driver connections.
func (s *Server) OpenConns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.openConns
}

func (s *Server) connect() (*conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ConnectErr != nil {
		return nil, s.ConnectErr
	}
	s.connSeq++
	s.openConns++
	return &conn{server: s, id: s.connSeq}, nil
}

func (s *Server) respond(connID int, query string) Response {
	s.mu.Lock()
	s.log = append(s.log, Entry{ConnID: connID, Query: query})
	fn := s.handler
	s.mu.Unlock()
	if fn == nil {
		return Response{}
	}
	return fn(connID, query)
}

func (s *Server) release() {
	s.mu.Lock()
	s.openConns--
	s.mu.Unlock()
}

type drv struct{}

func (drv) Open(name string) (driver.Conn, error) {
	registryMu.Lock()
	s, ok := registry[name]
	registryMu.Unlock()
	if !ok {
		return nil, errors.Newf("sqltest: unknown server %q", name)
	}
	return s.connect()
}

type conn struct {
	server *Server
	id     int
	closed bool
}

func (c *conn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("sqltest: prepared statements not supported")
}

func (c *conn) Close() error {
	if !c.closed {
		c.closed = true
		c.server.release()
	}
	return nil
}

func (c *conn) Begin() (driver.Tx, error) {
	return nil, errors.New("sqltest: use explicit BEGIN statements")
}

func (c *conn) Ping(ctx context.Context) error {
	resp := c.server.respond(c.id, "/* ping */")
	if err := wait(ctx, resp.Delay); err != nil {
		return err
	}
	return resp.Err
}

func (c *conn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	resp := c.server.respond(c.id, query)
	if err := wait(ctx, resp.Delay); err != nil {
		return nil, err
	}
	if resp.Err != nil {
		return nil, resp.Err
	}
	rs := resp.Rows
	if rs == nil {
		rs = &RowSet{}
	}
	return &rows{set: rs}, nil
}

func (c *conn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	resp := c.server.respond(c.id, query)
	if err := wait(ctx, resp.Delay); err != nil {
		return nil, err
	}
	if resp.Err != nil {
		return nil, resp.Err
	}
	return result{n: resp.RowsAffected}, nil
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type rows struct {
	set *RowSet
	pos int
}

func (r *rows) Columns() []string { return r.set.Columns }

func (r *rows) Close() error { return nil }

func (r *rows) Next(dest []driver.Value) error {
	if r.pos >= len(r.set.Values) {
		if r.set.Err != nil {
			return r.set.Err
		}
		return io.EOF
	}
	copy(dest, r.set.Values[r.pos])
	r.pos++
	return nil
}

type result struct{ n int64 }

func (r result) LastInsertId() (int64, error) { return 0, nil }
func (r result) RowsAffected() (int64, error) { return r.n, nil }
