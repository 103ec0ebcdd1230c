package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/dbterm/dbterm/config"
	"github.com/dbterm/dbterm/discovery"
	"github.com/dbterm/dbterm/provider"
	"github.com/dbterm/dbterm/shell"
	"github.com/dbterm/dbterm/store"
	"github.com/dbterm/dbterm/worker"
)

const (
	exitOK        = 0
	exitError     = 1
	exitInterrupt = 130
)

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	var interrupted atomic.Bool

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		defer cancel()
		<-ch
		interrupted.Store(true)
	}()
	defer cancel()

	app := newApp()
	err := app.RunContext(ctx, args)
	switch {
	case interrupted.Load():
		return exitInterrupt
	case err != nil:
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitError
	}
	return exitOK
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "dbterm"
	app.Usage = "Terminal client for relational databases"
	app.ArgsUsage = "[connection name or URL]"
	app.EnableBashCompletion = true

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "settings",
			Usage:   "directory holding connections.json, history.json and settings.json",
			EnvVars: []string{"DBTERM_SETTINGS"},
		},
		&cli.IntFlag{
			Name:    "max-rows",
			Usage:   "cap on rows fetched per query",
			EnvVars: []string{"DBTERM_MAX_ROWS"},
		},
		&cli.BoolFlag{
			Name:    "debug",
			Usage:   "write a debug log under the settings directory",
			EnvVars: []string{"DBTERM_DEBUG"},
		},
		&cli.BoolFlag{
			Name:    "debug-idle-scheduler",
			Usage:   "log idle scheduler decisions",
			Hidden:  true,
			EnvVars: []string{"DBTERM_DEBUG_IDLE_SCHEDULER"},
		},
		&cli.BoolFlag{
			Name:    "profile-startup",
			Usage:   "report startup timing on stderr",
			Hidden:  true,
			EnvVars: []string{"DBTERM_PROFILE_STARTUP"},
		},
		&cli.Float64Flag{
			Name:    "startup-mark",
			Usage:   "launcher timestamp (unix seconds) startup timing is measured from",
			Hidden:  true,
			EnvVars: []string{"DBTERM_STARTUP_MARK"},
		},
	}

	app.Commands = []*cli.Command{
		newDiscoverCommand(),
		newWorkerCommand(),
	}

	app.Action = func(c *cli.Context) error {
		dir, err := settingsDir(c.String("settings"))
		if err != nil {
			return err
		}

		log, sync, err := newLogger(dir, c.Bool("debug"))
		if err != nil {
			return err
		}
		defer sync()

		if c.Bool("profile-startup") {
			reportStartup(c.Float64("startup-mark"))
		}

		return shell.Run(c.Context, &shell.Options{
			ConfigDir:          dir,
			Connect:            c.Args().First(),
			MaxRows:            c.Int("max-rows"),
			DebugIdleScheduler: c.Bool("debug-idle-scheduler"),
			Log:                log,
		})
	}

	return app
}

// newDiscoverCommand scans local sources (Docker containers) for database
// candidates and prints them, skipping any that match a saved connection.
func newDiscoverCommand() *cli.Command {
	return &cli.Command{
		Name:  "discover",
		Usage: "List detected local databases",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "settings",
				EnvVars: []string{"DBTERM_SETTINGS"},
			},
		},
		Action: func(c *cli.Context) error {
			dir, err := settingsDir(c.String("settings"))
			if err != nil {
				return err
			}
			conns, err := store.NewConnectionStore(dir)
			if err != nil {
				return err
			}

			registry := provider.DefaultRegistry()
			inspector, err := discovery.NewDockerInspector(registry, nil)
			if err != nil {
				return err
			}
			svc := discovery.NewService(nil, inspector)

			results := svc.Run(c.Context)
			for _, r := range results {
				if r.Err != nil {
					fmt.Fprintf(os.Stderr, "%s: %v\n", r.Source, r.Err)
				}
			}

			candidates := discovery.Deduplicate(conns.List(), results)
			if len(candidates) == 0 {
				fmt.Println("No new databases detected.")
				return nil
			}
			for _, cand := range candidates {
				fmt.Printf("%-20s %-12s %s\n", cand.Name, cand.DBType, cand.Identity())
			}
			return nil
		},
	}
}

// newWorkerCommand is the hidden subcommand the client re-execs to get an
// isolated query process. It speaks the frame protocol on stdin/stdout.
func newWorkerCommand() *cli.Command {
	return &cli.Command{
		Name:   worker.Subcommand,
		Hidden: true,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "debug", EnvVars: []string{"DBTERM_DEBUG"}},
		},
		Action: func(c *cli.Context) error {
			log := zap.NewNop()
			if c.Bool("debug") {
				dir, err := settingsDir("")
				if err != nil {
					return err
				}
				// stderr is inherited from the client; keep the file log
				// separate from its own
				log, err = fileLogger(filepath.Join(dir, "worker.log"))
				if err != nil {
					return err
				}
				defer func() { _ = log.Sync() }()
			}

			srv := worker.NewServer(provider.DefaultRegistry(), log)
			return srv.Serve(c.Context, os.Stdin, os.Stdout)
		},
	}
}

func settingsDir(flag string) (string, error) {
	if flag != "" {
		if err := os.MkdirAll(flag, 0o755); err != nil {
			return "", errors.Wrap(err, "creating settings directory")
		}
		return flag, nil
	}
	return config.Dir()
}

// newLogger builds the shell logger. The TUI owns the terminal, so debug
// output goes to a file; without --debug logging is a no-op.
func newLogger(dir string, debug bool) (*zap.Logger, func(), error) {
	if !debug {
		return zap.NewNop(), func() {}, nil
	}
	log, err := fileLogger(filepath.Join(dir, "debug.log"))
	if err != nil {
		return nil, nil, err
	}
	return log, func() { _ = log.Sync() }, nil
}

func fileLogger(path string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}
	return cfg.Build()
}

func reportStartup(mark float64) {
	if mark <= 0 {
		return
	}
	launched := time.Unix(0, int64(mark*float64(time.Second)))
	fmt.Fprintf(os.Stderr, "startup: %s since launcher mark %s\n",
		time.Since(launched).Round(time.Millisecond),
		strconv.FormatFloat(mark, 'f', 3, 64))
}
