package lox

import (
	"io"
	"log/slog"

	"github.com/podhmo/lox/object"
)

// Option is a functional option for configuring the Interpreter.
type Option func(*Interpreter)

// WithStdout sets where `print` writes.
func WithStdout(w io.Writer) Option {
	return func(i *Interpreter) {
		i.stdout = w
	}
}

// WithStderr sets where diagnostics are written.
func WithStderr(w io.Writer) Option {
	return func(i *Interpreter) {
		i.stderr = w
	}
}

// WithLogger sets the logger for internal events.
// Diagnostics for the user never go through it.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Interpreter) {
		i.logger = logger
	}
}

// WithMaxCallDepth bounds nested calls; deeper calls fail with "Stack overflow.".
func WithMaxCallDepth(n int) Option {
	return func(i *Interpreter) {
		i.maxCallDepth = n
	}
}

// WithTrace makes runtime error reports include the call stack.
func WithTrace(enabled bool) Option {
	return func(i *Interpreter) {
		i.trace = enabled
	}
}

// WithNatives registers additional native functions in the global scope.
// The map key is the global name; it replaces a builtin of the same name.
func WithNatives(natives map[string]*object.Builtin) Option {
	return func(i *Interpreter) {
		for name, b := range natives {
			i.natives[name] = b
		}
	}
}
