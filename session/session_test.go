package session

import (
	"context"
	"net"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/dbterm/dbterm/adapter"
	"github.com/dbterm/dbterm/config"
	"github.com/dbterm/dbterm/provider"
	"github.com/dbterm/dbterm/sqltest"
)

// stubAdapter connects to a sqltest server and records lifecycle order.
type stubAdapter struct {
	adapter.SQLite

	server *sqltest.Server
	events *eventLog
}

type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(e string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

func (a stubAdapter) Connect(ctx context.Context, cfg config.ConnectionConfig) (*adapter.Conn, error) {
	db, err := sqlx.Open("sqltest", a.server.DSN())
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	a.events.add("connect")
	return &adapter.Conn{DB: db, Cfg: cfg}, nil
}

func testRegistry(t *testing.T, server *sqltest.Server, events *eventLog) *provider.Registry {
	t.Helper()
	r := provider.NewRegistry()
	require.NoError(t, r.Register(provider.Spec{
		DBType:     "stub",
		URLSchemes: []string{"stub"},
		NewAdapter: func() adapter.Adapter {
			return stubAdapter{server: server, events: events}
		},
	}))
	return r
}

func TestFactoryOpenAndClose(t *testing.T) {
	server := sqltest.NewServer()
	events := &eventLog{}
	f := NewFactory(testRegistry(t, server, events), nil)

	s, err := f.Open(context.Background(), config.ConnectionConfig{
		Name: "c", DBType: "stub", Host: "h", Port: 1,
	})
	require.NoError(t, err)
	require.Equal(t, []string{"connect"}, events.list())
	require.Equal(t, "stub", s.Provider.DBType)

	cur, err := s.CursorFor(context.Background(), "")
	require.NoError(t, err)
	require.NoError(t, cur.Close())

	require.NoError(t, s.Close())
}

func TestFactoryOpenUnknownProvider(t *testing.T) {
	f := NewFactory(provider.NewRegistry(), nil)
	_, err := f.Open(context.Background(), config.ConnectionConfig{
		Name: "c", DBType: "nope", Host: "h",
	})
	require.Error(t, err)
}

func TestFactoryConnectFailure(t *testing.T) {
	server := sqltest.NewServer()
	server.ConnectErr = errors.New("backend down")
	events := &eventLog{}
	f := NewFactory(testRegistry(t, server, events), nil)

	_, err := f.Open(context.Background(), config.ConnectionConfig{
		Name: "c", DBType: "stub", Host: "h", Port: 1,
	})
	require.Error(t, err)
	require.Empty(t, events.list())
}

func TestAuthMethods(t *testing.T) {
	_, err := authMethods(config.TunnelConfig{AuthType: config.TunnelAuthPassword, Password: "x"})
	require.NoError(t, err)

	_, err = authMethods(config.TunnelConfig{AuthType: config.TunnelAuthKey, KeyPath: "/does/not/exist"})
	require.Error(t, err)

	_, err = authMethods(config.TunnelConfig{AuthType: "agent"})
	require.Error(t, err)
}

func TestTunnelMatches(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	tc := config.TunnelConfig{Host: "hop", Port: 22, Username: "u", AuthType: config.TunnelAuthPassword, Password: "p"}
	tun := &Tunnel{key: tc.Key(), ln: ln, remoteHost: "db", remotePort: 5432}

	require.True(t, tun.Matches(tc, "db", 5432))
	require.False(t, tun.Matches(tc, "db", 5433), "different target port")
	require.False(t, tun.Matches(tc, "other", 5432), "different target host")

	other := tc
	other.Password = "changed"
	require.False(t, tun.Matches(other, "db", 5432), "different secret")

	require.Greater(t, tun.LocalPort(), 0)
}
