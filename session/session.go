// Package session builds and owns live database connections: the optional
// SSH tunnel is brought up first, the config endpoint is rewritten to the
// tunnel's local bind, and the adapter connects through it. Closing a
// session closes the connection and the tunnel in reverse order.
package session

import (
	"context"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/dbterm/dbterm/adapter"
	"github.com/dbterm/dbterm/config"
	"github.com/dbterm/dbterm/provider"
)

// Factory opens sessions. It caches at most one live tunnel; opening a
// session whose tunnel key differs tears the old tunnel down first.
type Factory struct {
	registry *provider.Registry
	log      *zap.Logger

	// CacheTunnels keeps the tunnel alive across session closes. The process
	// worker sets it so repeated execs reuse the hop; the interactive path
	// leaves it off so disconnect tears everything down.
	CacheTunnels bool

	mu     sync.Mutex
	tunnel *Tunnel
}

// NewFactory builds a factory over a provider registry.
func NewFactory(registry *provider.Registry, log *zap.Logger) *Factory {
	if log == nil {
		log = zap.NewNop()
	}
	return &Factory{registry: registry, log: log}
}

// Session is a live connection with its provider and optional tunnel.
type Session struct {
	Cfg      config.ConnectionConfig
	Provider provider.Spec
	Adapter  adapter.Adapter
	Conn     *adapter.Conn

	factory *Factory
	tunnel  *Tunnel
}

// Open builds a session for the config: tunnel first, then connect. If the
// tunnel comes up but the connect fails, the tunnel is stopped before the
// error propagates.
func (f *Factory) Open(ctx context.Context, cfg config.ConnectionConfig) (*Session, error) {
	spec, err := f.registry.Get(cfg.DBType)
	if err != nil {
		return nil, err
	}
	a := spec.Adapter()

	effective := cfg
	var tun *Tunnel
	if cfg.TunnelEnabled() {
		tun, err = f.tunnelFor(*cfg.Tunnel, cfg.Host, cfg.Port)
		if err != nil {
			return nil, err
		}
		effective = cfg.WithEndpoint("127.0.0.1", tun.LocalPort())
		f.log.Debug("tunnel ready",
			zap.String("hop", cfg.Tunnel.Host),
			zap.Int("local_port", tun.LocalPort()))
	}

	conn, err := a.Connect(ctx, effective)
	if err != nil {
		if tun != nil {
			f.dropTunnel(tun)
		}
		return nil, err
	}

	return &Session{
		Cfg:      cfg,
		Provider: spec,
		Adapter:  a,
		Conn:     conn,
		factory:  f,
		tunnel:   tun,
	}, nil
}

// tunnelFor reuses the cached tunnel when the key and target match,
// otherwise tears it down and opens a fresh one.
func (f *Factory) tunnelFor(tc config.TunnelConfig, remoteHost string, remotePort int) (*Tunnel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.tunnel != nil {
		if f.tunnel.Matches(tc, remoteHost, remotePort) {
			return f.tunnel, nil
		}
		_ = f.tunnel.Close()
		f.tunnel = nil
	}

	tun, err := OpenTunnel(tc, remoteHost, remotePort)
	if err != nil {
		return nil, err
	}
	f.tunnel = tun
	return tun, nil
}

// dropTunnel closes a tunnel and forgets it if cached.
func (f *Factory) dropTunnel(t *Tunnel) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_ = t.Close()
	if f.tunnel == t {
		f.tunnel = nil
	}
}

// releaseTunnel is called on session close. With caching enabled the tunnel
// stays up for the next session with the same key.
func (f *Factory) releaseTunnel(t *Tunnel) error {
	if t == nil {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CacheTunnels && f.tunnel == t {
		return nil
	}
	if f.tunnel == t {
		f.tunnel = nil
	}
	return t.Close()
}

// Close tears down any cached tunnel.
func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tunnel == nil {
		return nil
	}
	err := f.tunnel.Close()
	f.tunnel = nil
	return err
}

// CursorFor returns a cursor bound to the target database, per the
// adapter's switching rules.
func (s *Session) CursorFor(ctx context.Context, database string) (*adapter.Cursor, error) {
	return s.Adapter.CursorForDatabase(ctx, s.Conn, database)
}

// Close closes the connection then the tunnel, swallowing nothing: both
// errors are reported together.
func (s *Session) Close() error {
	err := s.Conn.Close()
	return multierr.Append(err, s.factory.releaseTunnel(s.tunnel))
}

// Dialer adapts the factory for the statement executors: connections opened
// through it get the same tunnel handling as sessions.
type Dialer struct {
	Factory *Factory
	Adapter adapter.Adapter
}

// Connect opens a tunnel-aware connection for the config.
func (d Dialer) Connect(ctx context.Context, cfg config.ConnectionConfig) (*adapter.Conn, error) {
	effective := cfg
	if cfg.TunnelEnabled() {
		tun, err := d.Factory.tunnelFor(*cfg.Tunnel, cfg.Host, cfg.Port)
		if err != nil {
			return nil, err
		}
		effective = cfg.WithEndpoint("127.0.0.1", tun.LocalPort())
	}
	return d.Adapter.Connect(ctx, effective)
}

// SplitStatements delegates to the adapter's splitter.
func (d Dialer) SplitStatements(script string) []string {
	return d.Adapter.SplitStatements(script)
}
