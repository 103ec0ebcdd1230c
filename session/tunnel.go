package session

import (
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/crypto/ssh"

	"github.com/dbterm/dbterm/config"
	"github.com/dbterm/dbterm/dberr"
)

const tunnelDialTimeout = 10 * time.Second

// Tunnel forwards a local listener through an SSH hop to one remote
// endpoint.
type Tunnel struct {
	key    string
	client *ssh.Client
	ln     net.Listener

	remoteHost string
	remotePort int

	closeOnce sync.Once
	closed    chan struct{}
}

// OpenTunnel dials the SSH hop and starts forwarding to the remote
// endpoint.
func OpenTunnel(tc config.TunnelConfig, remoteHost string, remotePort int) (*Tunnel, error) {
	auth, err := authMethods(tc)
	if err != nil {
		return nil, errors.Wrapf(dberr.ErrTunnelFailed, "%v", err)
	}

	client, err := ssh.Dial("tcp", fmt.Sprintf("%s:%d", tc.Host, tc.Port), &ssh.ClientConfig{
		User:            tc.Username,
		Auth:            auth,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         tunnelDialTimeout,
	})
	if err != nil {
		return nil, errors.Wrapf(dberr.ErrTunnelFailed, "%v", err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(dberr.ErrTunnelFailed, "%v", err)
	}

	t := &Tunnel{
		key:        tc.Key(),
		client:     client,
		ln:         ln,
		remoteHost: remoteHost,
		remotePort: remotePort,
		closed:     make(chan struct{}),
	}
	go t.serve()
	return t, nil
}

func authMethods(tc config.TunnelConfig) ([]ssh.AuthMethod, error) {
	switch tc.AuthType {
	case config.TunnelAuthPassword:
		return []ssh.AuthMethod{ssh.Password(tc.Password)}, nil
	case config.TunnelAuthKey:
		data, err := os.ReadFile(tc.KeyPath)
		if err != nil {
			return nil, err
		}
		var signer ssh.Signer
		if tc.Password != "" {
			signer, err = ssh.ParsePrivateKeyWithPassphrase(data, []byte(tc.Password))
		} else {
			signer, err = ssh.ParsePrivateKey(data)
		}
		if err != nil {
			return nil, err
		}
		return []ssh.AuthMethod{ssh.PublicKeys(signer)}, nil
	default:
		return nil, errors.Newf("unknown tunnel auth type %q", tc.AuthType)
	}
}

func (t *Tunnel) serve() {
	for {
		local, err := t.ln.Accept()
		if err != nil {
			return
		}
		go t.forward(local)
	}
}

func (t *Tunnel) forward(local net.Conn) {
	defer local.Close()
	remote, err := t.client.Dial("tcp", fmt.Sprintf("%s:%d", t.remoteHost, t.remotePort))
	if err != nil {
		return
	}
	defer remote.Close()

	done := make(chan struct{}, 2)
	go func() { _, _ = io.Copy(remote, local); done <- struct{}{} }()
	go func() { _, _ = io.Copy(local, remote); done <- struct{}{} }()
	select {
	case <-done:
	case <-t.closed:
	}
}

// Key identifies this tunnel for cache matching.
func (t *Tunnel) Key() string { return t.key }

// LocalPort is the port of the local listener.
func (t *Tunnel) LocalPort() int {
	return t.ln.Addr().(*net.TCPAddr).Port
}

// Matches reports whether the tunnel can serve a config's hop and target.
func (t *Tunnel) Matches(tc config.TunnelConfig, remoteHost string, remotePort int) bool {
	return t.key == tc.Key() && t.remoteHost == remoteHost && t.remotePort == remotePort
}

// Close stops forwarding and closes the SSH client. Idempotent.
func (t *Tunnel) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.closed)
		err = t.ln.Close()
		if cerr := t.client.Close(); err == nil {
			err = cerr
		}
	})
	return err
}
