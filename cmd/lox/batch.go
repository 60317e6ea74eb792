package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/podhmo/lox"
	"golang.org/x/sync/errgroup"
)

type fileResult struct {
	stdout bytes.Buffer
	stderr bytes.Buffer
	code   int
}

// runFiles runs every file in its own session. A single file streams its
// output; several are buffered and written in argument order. The exit code
// is the highest of the per-file codes.
func runFiles(ctx context.Context, files []string, jobs int, logger *slog.Logger, stdout, stderr io.Writer, options []lox.Option) (int, error) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	if len(files) == 1 {
		return runFile(ctx, files[0], logger, stdout, stderr, options), nil
	}

	results := make([]*fileResult, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, file := range files {
		r := &fileResult{}
		results[i] = r
		g.Go(func() error {
			r.code = runFile(ctx, file, logger, &r.stdout, &r.stderr, options)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return exitIO, err
	}

	code := 0
	for _, r := range results {
		if _, err := r.stdout.WriteTo(stdout); err != nil {
			return exitIO, fmt.Errorf("writing output: %w", err)
		}
		if _, err := r.stderr.WriteTo(stderr); err != nil {
			return exitIO, fmt.Errorf("writing output: %w", err)
		}
		code = max(code, r.code)
	}
	return code, nil
}

func runFile(ctx context.Context, path string, logger *slog.Logger, stdout, stderr io.Writer, options []lox.Option) int {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "lox: %v\n", err)
		return exitIO
	}
	interp := lox.New(append([]lox.Option{lox.WithStdout(stdout), lox.WithStderr(stderr)}, options...)...)
	status, err := interp.Run(ctx, string(src))
	logger.DebugContext(ctx, "file done", slog.String("path", path), slog.String("status", status.String()))
	if err != nil && ctx.Err() != nil {
		fmt.Fprintf(stderr, "lox: %s: %v\n", path, err)
	}
	return status.ExitCode()
}
