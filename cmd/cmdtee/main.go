// Command cmdtee runs a child process, mirrors its stdout and stderr live,
// and propagates the child's exit code when it finishes.
//
// Usage:
//
//	cmdtee [flags] -- command [args...]
//	cmdtee -purge [flags]
//
// Exit codes:
//
//	N   the child's own exit code after a completed run
//	124 the run timed out
//	125 the run failed for another reason
//	2   usage or configuration error
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/giantswarm/cmdtee"
)

// version is set at build time via -ldflags.
var version = "dev"

const (
	exitUsage    = 2
	exitTimeout  = 124
	exitRunError = 125
)

const usageHeader = `cmdtee runs a command, mirrors its output live, and captures it.

Usage:
  cmdtee [flags] -- command [args...]
  cmdtee -purge [flags]

Values default from cmdtee.yaml (working directory or the user config
directory), CMDTEE_* environment variables, and an optional .env file.
Command-line flags win over all of them.

Flags:
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run is the entry point, separated from main for testability. It returns
// the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("cmdtee", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usageHeader)
		fs.PrintDefaults()
	}

	var (
		timeout      = fs.Duration("timeout", 0, "wall-clock timeout for the run (0 means none)")
		quiet        = fs.Bool("quiet", false, "capture output without mirroring it")
		dir          = fs.String("dir", "", "working directory for the child")
		baseDir      = fs.String("base-dir", "", "directory holding sink files and the run journal")
		chunkSize    = fs.Int("chunk-size", 0, "maximum bytes read per drain step")
		pollInterval = fs.Duration("poll-interval", 0, "sleep between drain passes that found no output")
		killGrace    = fs.Duration("kill-grace", 0, "wait for a killed child before giving up on it")
		noJournal    = fs.Bool("no-journal", false, "disable the on-disk run journal")
		debug        = fs.Bool("debug", false, "enable debug logging")
		envFile      = fs.String("env-file", "", "load environment variables from this file first")
		purge        = fs.Bool("purge", false, "remove leftover run directories and exit")
		showVersion  = fs.Bool("version", false, "print version and exit")
	)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return exitUsage
	}

	if *showVersion {
		fmt.Fprintf(stdout, "cmdtee %s\n", version)
		return 0
	}

	cfg, err := loadSettings(*envFile)
	if err != nil {
		fmt.Fprintf(stderr, "cmdtee: %v\n", err)
		return exitUsage
	}

	// Flags given on the command line win over file and environment values.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "timeout":
			cfg.Timeout = *timeout
		case "quiet":
			cfg.Quiet = *quiet
		case "dir":
			cfg.Dir = *dir
		case "base-dir":
			cfg.BaseDir = *baseDir
		case "chunk-size":
			cfg.ChunkSize = *chunkSize
		case "poll-interval":
			cfg.PollInterval = *pollInterval
		case "kill-grace":
			cfg.KillGrace = *killGrace
		case "no-journal":
			cfg.NoJournal = *noJournal
		case "debug":
			cfg.Debug = *debug
		}
	})

	if err := cfg.validate(); err != nil {
		fmt.Fprintf(stderr, "cmdtee: %v\n", err)
		return exitUsage
	}

	setupLogging(stderr, cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := newRunner(cfg, stdout, stderr)
	defer runner.Close() //nolint:errcheck // Process is exiting; nothing to do with a close error.

	if *purge {
		n, err := runner.Purge(ctx)
		if err != nil {
			fmt.Fprintf(stderr, "cmdtee: purge: %v\n", err)
			return exitRunError
		}
		fmt.Fprintf(stdout, "removed %d leftover run directories\n", n)
		return 0
	}

	argv := fs.Args()
	if len(argv) == 0 {
		fmt.Fprintln(stderr, "cmdtee: no command given")
		fs.Usage()
		return exitUsage
	}

	cmd := cmdtee.Command{Argv: argv, Dir: cfg.Dir}
	if cfg.Timeout > 0 {
		cmd.Timeout = cfg.Timeout
	}

	execute := runner.Run
	if cfg.Quiet {
		execute = runner.RunQuiet
	}

	res, err := execute(ctx, cmd)
	switch {
	case err == nil:
		return res.ExitCode
	case errors.Is(err, cmdtee.ErrTimeout):
		fmt.Fprintf(stderr, "cmdtee: %v\n", err)
		return exitTimeout
	case errors.Is(err, cmdtee.ErrInvalidCommand):
		fmt.Fprintf(stderr, "cmdtee: %v\n", err)
		return exitUsage
	default:
		fmt.Fprintf(stderr, "cmdtee: %v\n", err)
		return exitRunError
	}
}

// newRunner builds a Runner from the resolved settings. Validation has
// already rejected negative values, so only positive overrides reach the
// option constructors.
func newRunner(cfg settings, stdout, stderr io.Writer) cmdtee.Runner {
	opts := []cmdtee.Option{
		cmdtee.WithStdout(stdout),
		cmdtee.WithStderr(stderr),
	}
	if cfg.BaseDir != "" {
		opts = append(opts, cmdtee.WithBaseDir(cfg.BaseDir))
	}
	if cfg.ChunkSize > 0 {
		opts = append(opts, cmdtee.WithChunkSize(cfg.ChunkSize))
	}
	if cfg.PollInterval > 0 {
		opts = append(opts, cmdtee.WithPollInterval(cfg.PollInterval))
	}
	if cfg.KillGrace > 0 {
		opts = append(opts, cmdtee.WithKillGrace(cfg.KillGrace))
	}
	if cfg.NoJournal {
		opts = append(opts, cmdtee.WithoutJournal())
	}

	return cmdtee.New(opts...)
}

func setupLogging(w io.Writer, debug bool) {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	cmdtee.SetLogger(slog.New(h))
}
