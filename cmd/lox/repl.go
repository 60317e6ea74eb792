package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/podhmo/lox"
	"github.com/podhmo/lox/parser"
	"github.com/podhmo/lox/scanner"
)

const (
	promptMain = "> "
	promptCont = "... "
)

func repl(ctx context.Context, cfg Config, logger *slog.Logger, stdout, stderr io.Writer, options []lox.Option) (int, error) {
	histPath := cfg.HistoryFile
	if histPath == "" {
		if home, err := os.UserHomeDir(); err == nil {
			histPath = filepath.Join(home, ".lox_history")
		}
	}

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if histPath != "" {
		if f, err := os.Open(histPath); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
		defer func() {
			if f, err := os.Create(histPath); err == nil {
				_, _ = ln.WriteHistory(f)
				_ = f.Close()
			} else {
				logger.Warn("cannot save history", slog.String("path", histPath), slog.Any("error", err))
			}
		}()
	}

	interp := lox.New(append([]lox.Option{lox.WithStdout(stdout), lox.WithStderr(stderr)}, options...)...)
	for {
		code, ok := readChunk(ln)
		if !ok {
			fmt.Fprintln(stdout)
			return 0, nil
		}
		if strings.TrimSpace(code) == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))

		// Ctrl-C while a line runs interrupts that line only.
		lineCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
		val, _, err := interp.Eval(lineCtx, code)
		stop()
		if err != nil && lineCtx.Err() != nil {
			fmt.Fprintln(stderr, "Interrupted.")
			continue
		}
		if val != nil {
			fmt.Fprintln(stdout, val.Inspect())
		}
	}
}

// readChunk reads lines until they form something worth running: input
// whose only errors are at its end keeps prompting for more.
func readChunk(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			return "", false
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if !incomplete(src) {
			return src, true
		}
	}
}

func incomplete(src string) bool {
	if _, err := parser.New(src).ParseExpression(); err == nil {
		return false
	}
	_, err := parser.ParseProgram(src)
	var list scanner.ErrorList
	if !errors.As(err, &list) {
		return false
	}
	for _, e := range list {
		if e.Where != " at end" && e.Msg != "Unterminated string." {
			return false
		}
	}
	return true
}
