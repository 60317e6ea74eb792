// Command lox runs lox programs.
//
//	lox                   start a REPL
//	lox script.lox        run a script
//	lox a.lox b.lox ...   run each script in its own session
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/podhmo/lox"
	"github.com/spf13/pflag"
)

// Exit codes beyond the ones lox.Status maps to (sysexits.h).
const (
	exitUsage = 64 // EX_USAGE
	exitIO    = 74 // EX_IOERR
)

func main() {
	code, err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
	if err != nil {
		log.Printf("!! %+v", err)
	}
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) (int, error) {
	fs := pflag.NewFlagSet("lox", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: lox [flags] [script ...]")
		fs.PrintDefaults()
	}
	var (
		configPath   = fs.String("config", os.Getenv("LOX_CONFIG"), "path to a TOML config file (default $LOX_CONFIG)")
		logLevel     = fs.String("log-level", "warn", "log level: debug, info, warn or error")
		maxCallDepth = fs.Int("max-call-depth", 0, "maximum nested calls before \"Stack overflow.\" (0 means the default)")
		trace        = fs.Bool("trace", false, "print the call stack with runtime errors")
		jobs         = fs.IntP("jobs", "j", 1, "number of scripts to run concurrently")
		historyFile  = fs.String("history", "", "REPL history file (default ~/.lox_history)")
	)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0, nil
		}
		return exitUsage, nil
	}

	cfg := defaultConfig()
	if *configPath != "" {
		loaded, err := loadConfig(*configPath)
		if err != nil {
			return exitIO, err
		}
		cfg = loaded
	}
	// Flags given on the command line win over the config file.
	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "log-level":
			cfg.LogLevel = *logLevel
		case "max-call-depth":
			cfg.MaxCallDepth = *maxCallDepth
		case "trace":
			cfg.Trace = *trace
		case "jobs":
			cfg.Jobs = *jobs
		case "history":
			cfg.HistoryFile = *historyFile
		}
	})

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		fmt.Fprintf(stderr, "invalid log level %q\n", cfg.LogLevel)
		return exitUsage, nil
	}
	if cfg.Jobs < 1 {
		fmt.Fprintf(stderr, "jobs must be at least 1, got %d\n", cfg.Jobs)
		return exitUsage, nil
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	options := []lox.Option{
		lox.WithLogger(logger),
		lox.WithMaxCallDepth(cfg.MaxCallDepth),
		lox.WithTrace(cfg.Trace),
	}

	files := fs.Args()
	if len(files) == 0 {
		return repl(ctx, cfg, logger, stdout, stderr, options)
	}
	return runFiles(ctx, files, cfg.Jobs, logger, stdout, stderr, options)
}
