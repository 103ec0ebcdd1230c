package worker

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/dbterm/dbterm/dberr"
	"github.com/dbterm/dbterm/exec"
	"github.com/dbterm/dbterm/provider"
	"github.com/dbterm/dbterm/session"
)

// Server is the worker-process side of the protocol. One exec is in flight
// at a time; a second exec while busy is answered with "Worker is busy.".
// Tunnels are cached across execs by the session factory.
type Server struct {
	registry *provider.Registry
	factory  *session.Factory
	log      *zap.Logger

	sendMu sync.Mutex

	mu        sync.Mutex
	busy      bool
	currentID int64
	current   *exec.CancellableQuery

	// cancelPending remembers a cancel that arrived while the current exec
	// was still opening its session, before the query existed.
	cancelPending bool
}

// NewServer builds a worker server over a provider registry.
func NewServer(registry *provider.Registry, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	factory := session.NewFactory(registry, log)
	factory.CacheTunnels = true
	return &Server{registry: registry, factory: factory, log: log}
}

// Serve reads frames until shutdown, EOF or a fatal pipe error.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	defer func() { _ = s.factory.Close() }()

	for {
		msg, err := ReadFrame(r)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return err
		}

		switch msg.Type {
		case TypeShutdown:
			return nil
		case TypeCancel:
			s.cancel(msg.ID)
		case TypeExec:
			s.startExec(ctx, msg, w)
		default:
			s.log.Warn("unknown frame type", zap.String("type", msg.Type))
		}
	}
}

func (s *Server) startExec(ctx context.Context, msg *Message, w io.Writer) {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		s.send(w, &Message{Type: TypeError, ID: msg.ID, Message: dberr.ErrWorkerBusy.Error()})
		return
	}
	s.busy = true
	s.currentID = msg.ID
	s.cancelPending = false
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			s.busy = false
			s.current = nil
			s.mu.Unlock()
		}()
		s.send(w, s.runExec(ctx, msg))
	}()
}

func (s *Server) runExec(ctx context.Context, msg *Message) *Message {
	if msg.Config == nil {
		return &Message{Type: TypeError, ID: msg.ID, Message: "exec frame without config"}
	}

	spec, err := s.registry.Get(msg.DBType)
	if err != nil {
		return &Message{Type: TypeError, ID: msg.ID, Message: err.Error()}
	}
	if len(spec.Adapter().SplitStatements(msg.Query)) > 1 {
		return &Message{Type: TypeError, ID: msg.ID, Message: dberr.ErrMultiStatementInWorker.Error()}
	}

	start := time.Now()
	sess, err := s.factory.Open(ctx, *msg.Config)
	if err != nil {
		return &Message{Type: TypeError, ID: msg.ID, Message: err.Error()}
	}
	defer func() { _ = sess.Close() }()

	cur, err := sess.Conn.Cursor(ctx)
	if err != nil {
		return &Message{Type: TypeError, ID: msg.ID, Message: err.Error()}
	}

	q := exec.NewCancellableQuery(cur, msg.Query, msg.MaxRows)
	s.mu.Lock()
	pending := false
	if s.currentID == msg.ID {
		s.current = q
		pending = s.cancelPending
		s.cancelPending = false
	}
	s.mu.Unlock()
	if pending {
		q.Cancel()
	}

	res, err := q.Execute(ctx)
	switch {
	case dberr.IsCancelled(err):
		return &Message{Type: TypeCancelled, ID: msg.ID}
	case err != nil:
		return &Message{Type: TypeError, ID: msg.ID, Message: err.Error()}
	}

	out, err := NewResultMessage(msg.ID, res, time.Since(start).Milliseconds())
	if err != nil {
		return &Message{Type: TypeError, ID: msg.ID, Message: err.Error()}
	}
	return out
}

func (s *Server) cancel(id int64) {
	s.mu.Lock()
	if !s.busy || s.currentID != id {
		s.mu.Unlock()
		return
	}
	q := s.current
	if q == nil {
		// The exec is still connecting; cancel it as soon as the query is
		// constructed.
		s.cancelPending = true
	}
	s.mu.Unlock()
	if q != nil {
		q.Cancel()
	}
}

func (s *Server) send(w io.Writer, msg *Message) {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if err := WriteFrame(w, msg); err != nil {
		s.log.Warn("write frame", zap.Error(err))
	}
}
