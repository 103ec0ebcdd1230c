package worker

import (
	"context"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dbterm/dbterm/config"
	"github.com/dbterm/dbterm/dberr"
	"github.com/dbterm/dbterm/exec"
)

// Transport is a duplex pipe to a running worker.
type Transport interface {
	io.Reader
	io.Writer
	Close() error
}

// StartFunc spawns a worker and returns its pipe.
type StartFunc func() (Transport, error)

// Client talks to the worker process. Execute is serialized; frames whose
// id does not match the in-flight query are dropped as stale.
type Client struct {
	start StartFunc
	log   *zap.Logger

	execMu sync.Mutex // one Execute at a time
	sendMu sync.Mutex

	mu        sync.Mutex
	tr        Transport
	nextID    int64
	currentID int64

	warmTimer     *time.Timer
	shutdownTimer *time.Timer
	autoShutdown  time.Duration
}

// NewClient builds a client that spawns the worker lazily on first use.
func NewClient(start StartFunc, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{start: start, log: log}
}

// ensure returns the live transport, spawning the worker if needed. Spawn
// failures surface as WorkerUnavailableError so callers can fall back to
// in-process execution.
func (c *Client) ensure() (Transport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tr != nil {
		return c.tr, nil
	}
	tr, err := c.start()
	if err != nil {
		return nil, &dberr.WorkerUnavailableError{Reason: err.Error()}
	}
	c.tr = tr
	c.log.Debug("worker spawned")
	return tr, nil
}

// Execute sends an exec frame and blocks until its terminal frame arrives.
func (c *Client) Execute(ctx context.Context, query string, cfg config.ConnectionConfig, maxRows int) (exec.Result, error) {
	c.execMu.Lock()
	defer c.execMu.Unlock()
	defer c.touch()

	tr, err := c.ensure()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.currentID = id
	c.mu.Unlock()

	if err := c.send(tr, &Message{
		Type:    TypeExec,
		ID:      id,
		Query:   query,
		Config:  &cfg,
		DBType:  cfg.DBType,
		MaxRows: maxRows,
	}); err != nil {
		c.dropTransport(tr)
		return nil, &dberr.WorkerUnavailableError{Reason: err.Error()}
	}

	for {
		msg, err := ReadFrame(tr)
		if err != nil {
			c.dropTransport(tr)
			return nil, &dberr.WorkerUnavailableError{Reason: err.Error()}
		}
		if msg.ID != id {
			// Stale frame from an earlier query.
			c.log.Debug("dropping stale frame",
				zap.Int64("frame_id", msg.ID), zap.Int64("current_id", id))
			continue
		}

		switch msg.Type {
		case TypeResult:
			return msg.DecodeResult()
		case TypeCancelled:
			return nil, dberr.ErrQueryCancelled
		case TypeError:
			if msg.Message == dberr.ErrWorkerBusy.Error() {
				return nil, dberr.ErrWorkerBusy
			}
			if msg.Message == dberr.ErrMultiStatementInWorker.Error() {
				return nil, dberr.ErrMultiStatementInWorker
			}
			return nil, &dberr.QueryError{Message: msg.Message}
		default:
			c.log.Warn("unexpected frame type", zap.String("type", msg.Type))
		}
	}
}

// CancelCurrent sends a cancel frame for the in-flight query without
// waiting for the worker's response.
func (c *Client) CancelCurrent() {
	c.mu.Lock()
	tr := c.tr
	id := c.currentID
	c.mu.Unlock()
	if tr == nil || id == 0 {
		return
	}
	if err := c.send(tr, &Message{Type: TypeCancel, ID: id}); err != nil {
		c.log.Warn("send cancel", zap.Error(err))
	}
}

// WarmAfter spawns the worker after an idle delay so the first query does
// not pay startup cost.
func (c *Client) WarmAfter(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.warmTimer != nil {
		c.warmTimer.Stop()
	}
	c.warmTimer = time.AfterFunc(d, func() {
		if _, err := c.ensure(); err != nil {
			c.log.Debug("warm spawn failed", zap.Error(err))
		}
	})
}

// SetAutoShutdown closes an idle worker after the window; zero disables.
func (c *Client) SetAutoShutdown(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoShutdown = d
	if c.shutdownTimer != nil {
		c.shutdownTimer.Stop()
		c.shutdownTimer = nil
	}
	if d > 0 && c.tr != nil {
		c.armShutdownLocked()
	}
}

// touch re-arms the auto-shutdown window after a use.
func (c *Client) touch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.autoShutdown > 0 && c.tr != nil {
		c.armShutdownLocked()
	}
}

func (c *Client) armShutdownLocked() {
	if c.shutdownTimer != nil {
		c.shutdownTimer.Stop()
	}
	c.shutdownTimer = time.AfterFunc(c.autoShutdown, func() {
		// Never shoot down a running query; Execute holds execMu.
		if !c.execMu.TryLock() {
			return
		}
		defer c.execMu.Unlock()
		c.log.Debug("auto-shutdown of idle worker")
		_ = c.Close()
	})
}

// Close shuts the worker down and clears all timers. The client can be
// reused; the next Execute spawns a fresh worker.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.warmTimer != nil {
		c.warmTimer.Stop()
		c.warmTimer = nil
	}
	if c.shutdownTimer != nil {
		c.shutdownTimer.Stop()
		c.shutdownTimer = nil
	}
	tr := c.tr
	c.tr = nil
	c.currentID = 0
	c.mu.Unlock()

	if tr == nil {
		return nil
	}
	_ = c.send(tr, &Message{Type: TypeShutdown})
	return tr.Close()
}

func (c *Client) dropTransport(tr Transport) {
	c.mu.Lock()
	if c.tr == tr {
		c.tr = nil
	}
	c.mu.Unlock()
	_ = tr.Close()
}

func (c *Client) send(tr Transport, msg *Message) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	return WriteFrame(tr, msg)
}

// Running reports whether a worker process is attached.
func (c *Client) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tr != nil
}
