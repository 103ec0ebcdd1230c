package worker

import (
	"io"
	"os"
	osexec "os/exec"
	"time"

	"go.uber.org/multierr"
)

// Subcommand is the hidden CLI subcommand the worker process runs under.
const Subcommand = "worker"

const waitGrace = 2 * time.Second

// Spawn re-executes the current binary as a worker child and wires its
// stdin/stdout as the frame pipe. Stderr is inherited so crashes stay
// visible in debug runs.
func Spawn(extraArgs ...string) (Transport, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, err
	}
	cmd := osexec.Command(exe, append([]string{Subcommand}, extraArgs...)...)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &procTransport{cmd: cmd, in: stdin, out: stdout}, nil
}

type procTransport struct {
	cmd *osexec.Cmd
	in  io.WriteCloser
	out io.ReadCloser
}

func (p *procTransport) Read(b []byte) (int, error)  { return p.out.Read(b) }
func (p *procTransport) Write(b []byte) (int, error) { return p.in.Write(b) }

// Close closes the pipe and waits briefly for the child; a child that does
// not exit in time is killed.
func (p *procTransport) Close() error {
	err := p.in.Close()

	done := make(chan error, 1)
	go func() { done <- p.cmd.Wait() }()
	select {
	case werr := <-done:
		return multierr.Append(err, werr)
	case <-time.After(waitGrace):
		kerr := p.cmd.Process.Kill()
		<-done
		return multierr.Combine(err, kerr)
	}
}
