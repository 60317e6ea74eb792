// Package lox runs programs written in lox, a small dynamically typed
// scripting language with closures and classes.
//
// Source text goes through four stages: the scanner and parser build a
// syntax tree, the resolver binds every local variable reference to a scope
// depth, and the evaluator walks the tree. Errors from the first three stages
// are static: they are all reported and nothing runs. A runtime error stops
// the program at the first failing statement.
//
//	interp := lox.New(lox.WithStdout(os.Stdout))
//	status, err := interp.Run(ctx, `print "hello";`)
package lox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/podhmo/lox/ast"
	"github.com/podhmo/lox/astwalk"
	"github.com/podhmo/lox/evaluator"
	"github.com/podhmo/lox/object"
	"github.com/podhmo/lox/parser"
	"github.com/podhmo/lox/resolver"
	"github.com/podhmo/lox/scanner"
)

// Status is the terminal outcome of running a program.
type Status int

const (
	StatusOK           Status = iota
	StatusStaticError         // scan, parse or resolve error; nothing ran
	StatusRuntimeError        // failed during execution
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusStaticError:
		return "static-error"
	case StatusRuntimeError:
		return "runtime-error"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// ExitCode maps the status to a process exit code (sysexits.h).
func (s Status) ExitCode() int {
	switch s {
	case StatusStaticError:
		return 65 // EX_DATAERR
	case StatusRuntimeError:
		return 70 // EX_SOFTWARE
	default:
		return 0
	}
}

// Interpreter is one session. Globals defined by one Run are visible to
// the next, which is what a REPL needs; separate Interpreters share nothing.
// An Interpreter is not safe for concurrent use.
type Interpreter struct {
	eval    *evaluator.Evaluator
	ids     *ast.IDGen
	natives map[string]*object.Builtin

	stdout       io.Writer
	stderr       io.Writer
	logger       *slog.Logger
	maxCallDepth int
	trace        bool
}

// New creates an interpreter with the builtin natives defined.
func New(options ...Option) *Interpreter {
	i := &Interpreter{
		ids:     &ast.IDGen{},
		natives: map[string]*object.Builtin{"clock": clockBuiltin},
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}
	for _, opt := range options {
		opt(i)
	}
	if i.logger == nil {
		i.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	}

	globals := object.NewEnvironment()
	for name, b := range i.natives {
		globals.Define(name, b)
	}
	i.eval = evaluator.New(evaluator.Config{
		Globals:      globals,
		Stdout:       i.stdout,
		Stderr:       i.stderr,
		Logger:       i.logger,
		MaxCallDepth: i.maxCallDepth,
	})
	return i
}

// Define registers a native function in the global scope. It may be called
// between runs; the new binding is visible to every later run.
func (i *Interpreter) Define(name string, arity int, fn object.BuiltinFunction) {
	b := &object.Builtin{Name: name, Params: arity, Fn: fn}
	i.natives[name] = b
	i.eval.Globals().Define(name, b)
}

// Run executes a whole program.
//
// Diagnostics are written to the configured stderr. The returned error is
// the scanner.ErrorList or *object.Error that was reported, or the context's
// error if ctx was cancelled mid-run.
func (i *Interpreter) Run(ctx context.Context, src string) (Status, error) {
	start := time.Now()
	stmts, err := parser.ParseProgram(src, parser.WithIDGen(i.ids))
	if err != nil {
		i.reportStatic(err)
		return StatusStaticError, err
	}
	i.logger.DebugContext(ctx, "scan+parse done", slog.Int("statements", len(stmts)), slog.Duration("elapsed", time.Since(start)))

	if err := i.resolve(ctx, stmts); err != nil {
		return StatusStaticError, err
	}

	start = time.Now()
	errObj, err := i.eval.Exec(ctx, stmts)
	if err != nil {
		return StatusRuntimeError, fmt.Errorf("lox: execution interrupted: %w", err)
	}
	if errObj != nil {
		i.reportRuntime(ctx, errObj)
		return StatusRuntimeError, errObj
	}
	i.logger.DebugContext(ctx, "execution done", slog.Duration("elapsed", time.Since(start)))
	return StatusOK, nil
}

// Eval runs one REPL line. A line that parses as a single expression is
// evaluated and its value returned; anything else runs as a program and the
// returned value is nil.
func (i *Interpreter) Eval(ctx context.Context, line string) (object.Object, Status, error) {
	expr, err := parser.New(line, parser.WithIDGen(i.ids)).ParseExpression()
	if err != nil {
		status, err := i.Run(ctx, line)
		return nil, status, err
	}

	if err := i.resolve(ctx, []ast.Stmt{&ast.Expression{Expr: expr}}); err != nil {
		return nil, StatusStaticError, err
	}
	val, err := i.eval.EvalExpr(ctx, expr)
	if err != nil {
		return nil, StatusRuntimeError, fmt.Errorf("lox: execution interrupted: %w", err)
	}
	if errObj, ok := val.(*object.Error); ok {
		i.reportRuntime(ctx, errObj)
		return nil, StatusRuntimeError, errObj
	}
	return val, StatusOK, nil
}

func (i *Interpreter) resolve(ctx context.Context, stmts []ast.Stmt) error {
	start := time.Now()
	locals, err := resolver.Resolve(stmts)
	if err != nil {
		i.reportStatic(err)
		return err
	}
	if i.logger.Enabled(ctx, slog.LevelDebug) {
		refs := 0
		for range astwalk.Refs(stmts) {
			refs++
		}
		i.logger.DebugContext(ctx, "resolve done",
			slog.Int("refs", refs),
			slog.Int("locals", len(locals)),
			slog.Int("globals", refs-len(locals)),
			slog.Duration("elapsed", time.Since(start)),
		)
	}
	i.eval.AddLocals(locals)
	return nil
}

func (i *Interpreter) reportStatic(err error) {
	var list scanner.ErrorList
	if errors.As(err, &list) {
		for _, e := range list {
			fmt.Fprintln(i.stderr, e.Error())
		}
		return
	}
	fmt.Fprintln(i.stderr, err.Error())
}

func (i *Interpreter) reportRuntime(ctx context.Context, errObj *object.Error) {
	i.logger.DebugContext(ctx, "runtime error", slog.Int("line", errObj.Line), slog.String("trace", errObj.Trace()))
	if i.trace {
		fmt.Fprintln(i.stderr, errObj.Trace())
		return
	}
	fmt.Fprintln(i.stderr, errObj.Inspect())
}
