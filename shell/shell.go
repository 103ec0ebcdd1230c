// Package shell wires the interactive terminal client together: the
// bubbletea program, command mode, and the query routing pipeline that
// splits work between the process worker and local execution.
package shell

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/cockroachdb/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dbterm/dbterm/config"
	"github.com/dbterm/dbterm/dberr"
	"github.com/dbterm/dbterm/provider"
	"github.com/dbterm/dbterm/session"
	"github.com/dbterm/dbterm/store"
	"github.com/dbterm/dbterm/worker"
)

const warmDelay = 2 * time.Second

var (
	// error returned when the quit command is executed
	errExitCommand = errors.New("exit command")
)

// themes the TUI knows how to render.
var themeNames = []string{
	"default",
	"dark",
	"light",
	"dracula",
	"gruvbox",
	"monokai",
	"nord",
	"tokyo-night",
}

// A Shell manages the interactive client for one run of the program.
type Shell struct {
	opts     *Options
	log      *zap.Logger
	registry *provider.Registry
	factory  *session.Factory
	worker   *worker.Client

	conns       *store.ConnectionStore
	history     *store.HistoryStore
	starred     *store.StarredStore
	settings    config.Settings
	settingsDir string

	runner *Runner

	promptHistory []string

	// context used for execution cancellation,
	// these must not be used manually.
	// Use getExecContext and cancelExecContext instead.
	execContext  context.Context
	execCancelFn func()
	mu           sync.Mutex
}

// Options of the shell.
type Options struct {
	// ConfigDir overrides the store location. Empty means the user config
	// dir.
	ConfigDir string

	// Connect is a saved connection name or a connection URL to open at
	// startup.
	Connect string

	// MaxRows overrides the persisted row cap when > 0.
	MaxRows int

	// DebugIdleScheduler logs idle scheduling decisions (worker warm-up,
	// auto-shutdown arming).
	DebugIdleScheduler bool

	Log *zap.Logger
}

type queryTask struct {
	q      string
	buffer string
	w      io.Writer
	flush  func() error
	errCh  chan error
}

// Run a shell until the user quits or the context is cancelled.
func Run(ctx context.Context, opts *Options) (err error) {
	if opts == nil {
		opts = new(Options)
	}

	sh := Shell{opts: opts, log: opts.Log}
	if sh.log == nil {
		sh.log = zap.NewNop()
	}

	dir := opts.ConfigDir
	if dir == "" {
		dir, err = config.Dir()
		if err != nil {
			return err
		}
	}

	sh.settings, err = store.LoadSettings(dir)
	if err != nil {
		return err
	}
	if opts.MaxRows > 0 {
		sh.settings.MaxRows = opts.MaxRows
	}
	sh.settings.DebugIdleScheduler = opts.DebugIdleScheduler
	sh.conns, err = store.NewConnectionStore(dir)
	if err != nil {
		return err
	}
	sh.history, err = store.NewHistoryStore(dir, store.DefaultHistoryLimit)
	if err != nil {
		return err
	}
	sh.starred, err = store.NewStarredStore(dir)
	if err != nil {
		return err
	}
	sh.settingsDir = dir

	sh.registry = provider.DefaultRegistry()
	sh.factory = session.NewFactory(sh.registry, sh.log)
	sh.worker = worker.NewClient(func() (worker.Transport, error) {
		return worker.Spawn()
	}, sh.log)
	defer func() {
		err = multierr.Append(err, sh.worker.Close())
		err = multierr.Append(err, sh.factory.Close())
		if sh.runner != nil {
			err = multierr.Append(err, sh.runner.Close())
		}
	}()

	sh.applyWorkerSettings()

	if opts.Connect != "" {
		if cerr := sh.connect(ctx, opts.Connect); cerr != nil {
			return cerr
		}
	}

	promptExecCh := make(chan queryTask)

	// from this point, do not use the root context anymore,
	// instead use our own signal handlers.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ui := newTUI(&sh, promptExecCh)

		p := tea.NewProgram(ui)
		_, err := p.Run()
		if err == nil {
			return errExitCommand
		}
		return err
	})

	g.Go(func() error {
		return sh.runExecutor(ctx, promptExecCh)
	})

	err = g.Wait()
	if errors.Is(err, errExitCommand) || errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}

// runExecutor manages execution. It reads user input from promptExecCh,
// executes any command or query and signals errCh once it's done.
func (sh *Shell) runExecutor(ctx context.Context, promptExecCh chan queryTask) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case task := <-promptExecCh:
			err := sh.executeInput(sh.getExecContext(ctx), task)
			if errors.Is(err, context.Canceled) {
				fmt.Fprintln(task.w)
				_ = task.flush()
				close(task.errCh)
				continue
			}
			if errors.Is(err, errExitCommand) {
				_ = task.flush()
				close(task.errCh)
				return err
			}
			if err != nil {
				_ = task.flush()
				task.errCh <- err
				continue
			}

			_ = task.flush()
			close(task.errCh)
		}
	}
}

// cancelExecution must be called to cancel any ongoing execution without
// stopping the program.
// Calling this function when there is no ongoing execution is a no-op.
func (sh *Shell) cancelExecution() {
	sh.mu.Lock()
	if sh.execCancelFn != nil {
		sh.execCancelFn()
		sh.execContext = nil
		sh.execCancelFn = nil
	}
	runner := sh.runner
	sh.mu.Unlock()

	if runner != nil {
		runner.Cancel()
	}
}

// getExecContext returns the current cancelable execution context
// or creates one if needed.
func (sh *Shell) getExecContext(ctx context.Context) context.Context {
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if sh.execContext != nil {
		return sh.execContext
	}

	sh.execContext, sh.execCancelFn = context.WithCancel(ctx)
	return sh.execContext
}

func (sh *Shell) getHistoryLine(offset int) string {
	if len(sh.promptHistory) == 0 {
		return ""
	}

	offset--

	if offset >= len(sh.promptHistory) {
		return sh.promptHistory[0]
	}

	return sh.promptHistory[len(sh.promptHistory)-1-offset]
}

// executeInput stores user input in the prompt history and executes it.
func (sh *Shell) executeInput(ctx context.Context, task queryTask) error {
	in := strings.TrimSpace(task.q)
	sh.promptHistory = append(sh.promptHistory, task.q)

	switch {
	case strings.HasPrefix(in, ":"):
		env := &commandEnv{sh: sh, ctx: ctx, out: task.w, buffer: task.buffer}
		err := RunCommand(strings.TrimPrefix(in, ":"), env, task.w)
		if err != nil {
			return err
		}
		if env.quit {
			return errExitCommand
		}
		return nil
	case in == "":
		return nil
	default:
		return sh.runQuery(ctx, in, task.w)
	}
}

// runQuery routes a statement through the runner and renders its outcome.
// Query failures are shown as a single-row error table, not returned, so
// they land in the scrollback like any other result.
func (sh *Shell) runQuery(ctx context.Context, q string, out io.Writer) error {
	runner := sh.currentRunner()
	if runner == nil {
		return dberr.ErrNoActiveConnection
	}

	if err := sh.history.Add(runner.Config().Name, q); err != nil {
		sh.log.Warn("recording history", zap.Error(err))
	}

	outcome, err := runner.Run(ctx, q)
	switch {
	case err == nil:
		fmt.Fprint(out, RenderOutcome(outcome))
		return nil
	case errors.Is(err, context.Canceled) || dberr.IsCancelled(err):
		fmt.Fprintln(out, "Query cancelled.")
		return nil
	default:
		fmt.Fprint(out, RenderError(err))
		return nil
	}
}

func (sh *Shell) currentRunner() *Runner {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return sh.runner
}

// connect resolves a saved connection name or URL and builds the runner
// for it.
func (sh *Shell) connect(ctx context.Context, target string) error {
	cfg, ok := sh.conns.Get(target)
	if !ok {
		parsed, err := provider.ParseURL(sh.registry, target)
		if err != nil {
			return err
		}
		cfg = parsed
	}

	spec, err := sh.registry.Get(cfg.DBType)
	if err != nil {
		return err
	}

	// probe the target before replacing the active runner
	sess, err := sh.factory.Open(ctx, cfg)
	if err != nil {
		return err
	}
	if err := sess.Close(); err != nil {
		return err
	}

	if derr := sh.disconnect(); derr != nil {
		sh.log.Warn("closing previous connection", zap.Error(derr))
	}

	dialer := session.Dialer{Factory: sh.factory, Adapter: spec.Adapter()}
	runner := NewRunner(dialer, sh.worker, cfg, sh.settings.MaxRows, sh.log)
	runner.SetUseWorker(sh.settings.ProcessWorker)

	sh.mu.Lock()
	sh.runner = runner
	sh.mu.Unlock()

	sh.loadPromptHistory(cfg.Name)
	return nil
}

// loadPromptHistory seeds the prompt recall buffer for a connection:
// starred queries first (deepest in the recall stack), then the persisted
// ring, oldest to newest.
func (sh *Shell) loadPromptHistory(connName string) {
	var lines []string
	lines = append(lines, sh.starred.List(connName)...)
	recent := sh.history.List(connName)
	for i := len(recent) - 1; i >= 0; i-- {
		lines = append(lines, recent[i])
	}
	sh.promptHistory = lines
}

func (sh *Shell) disconnect() error {
	sh.mu.Lock()
	runner := sh.runner
	sh.runner = nil
	sh.mu.Unlock()
	if runner == nil {
		return nil
	}
	return runner.Close()
}

func (sh *Shell) setTheme(name string) error {
	for _, t := range themeNames {
		if t == name {
			sh.settings.Theme = name
			return sh.saveSettings()
		}
	}
	sorted := append([]string(nil), themeNames...)
	sort.Strings(sorted)
	return errors.Newf("unknown theme %q, available: %s", name, strings.Join(sorted, ", "))
}

func (sh *Shell) saveSettings() error {
	return store.SaveSettings(sh.settingsDir, sh.settings)
}

// applyWorkerSettings pushes the persisted worker toggles onto the client
// and the runner.
func (sh *Shell) applyWorkerSettings() {
	if sh.settings.ProcessWorker && sh.settings.ProcessWorkerWarm {
		if sh.settings.DebugIdleScheduler {
			sh.log.Debug("scheduling worker warm-up", zap.Duration("delay", warmDelay))
		}
		sh.worker.WarmAfter(warmDelay)
	}
	if sh.settings.ProcessWorkerAutoShutdownS > 0 {
		if sh.settings.DebugIdleScheduler {
			sh.log.Debug("arming worker auto-shutdown",
				zap.Int("window_s", sh.settings.ProcessWorkerAutoShutdownS))
		}
		sh.worker.SetAutoShutdown(time.Duration(sh.settings.ProcessWorkerAutoShutdownS) * time.Second)
	} else {
		sh.worker.SetAutoShutdown(0)
	}
	if r := sh.currentRunner(); r != nil {
		r.SetUseWorker(sh.settings.ProcessWorker)
	}
}

// commandEnv carries one dispatch's execution state into the Handler
// methods.
type commandEnv struct {
	sh     *Shell
	ctx    context.Context
	out    io.Writer
	buffer string
	quit   bool
}

func (e *commandEnv) Quit() { e.quit = true }

func (e *commandEnv) Help(out io.Writer) error { return runHelpCmd(out) }

func (e *commandEnv) Connect(target string) error {
	if err := e.sh.connect(e.ctx, target); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Connected to %s.\n", e.sh.currentRunner().Config().Identity())
	return nil
}

func (e *commandEnv) Disconnect() error {
	if e.sh.currentRunner() == nil {
		return dberr.ErrNoActiveConnection
	}
	if err := e.sh.disconnect(); err != nil {
		return err
	}
	fmt.Fprintln(e.out, "Disconnected.")
	return nil
}

func (e *commandEnv) SetTheme(name string) error { return e.sh.setTheme(name) }

func (e *commandEnv) RunBuffer(stayInsert bool) error {
	q := strings.TrimSpace(e.buffer)
	if q == "" {
		return errors.New("nothing to run")
	}
	return e.sh.runQuery(e.ctx, q, e.out)
}

func (e *commandEnv) SetProcessWorker(on bool) error {
	e.sh.settings.ProcessWorker = on
	e.sh.applyWorkerSettings()
	if !on {
		if err := e.sh.worker.Close(); err != nil {
			return err
		}
	}
	return e.sh.saveSettings()
}

func (e *commandEnv) SetProcessWorkerWarm(on bool) error {
	e.sh.settings.ProcessWorkerWarm = on
	e.sh.applyWorkerSettings()
	return e.sh.saveSettings()
}

func (e *commandEnv) SetProcessWorkerAutoShutdown(window time.Duration) error {
	e.sh.settings.ProcessWorkerAutoShutdownS = int(window / time.Second)
	e.sh.applyWorkerSettings()
	return e.sh.saveSettings()
}
