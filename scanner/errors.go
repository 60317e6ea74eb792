package scanner

import (
	"fmt"
	"strings"
)

// Phase identifies the static pass that reported an Error.
type Phase int

const (
	PhaseScan Phase = iota
	PhaseParse
	PhaseResolve
)

func (p Phase) String() string {
	switch p {
	case PhaseScan:
		return "scan"
	case PhaseParse:
		return "parse"
	case PhaseResolve:
		return "resolve"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Error is a static diagnostic, reported before any statement executes.
type Error struct {
	Phase Phase
	Line  int
	Where string // "", " at end" or " at 'lexeme'"
	Msg   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("[line %d] Error%s: %s", e.Line, e.Where, e.Msg)
}

// ErrorList collects every static diagnostic of a run in the order it was reported.
type ErrorList []*Error

// Add appends an Error to the list.
func (p *ErrorList) Add(phase Phase, line int, where, msg string) {
	*p = append(*p, &Error{Phase: phase, Line: line, Where: where, Msg: msg})
}

// Len returns the number of errors.
func (p ErrorList) Len() int { return len(p) }

// Error joins all diagnostics, one per line.
func (p ErrorList) Error() string {
	switch len(p) {
	case 0:
		return "no errors"
	case 1:
		return p[0].Error()
	}
	var b strings.Builder
	for i, e := range p {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(e.Error())
	}
	return b.String()
}

// Err returns an error equivalent to this list, or nil if the list is empty.
func (p ErrorList) Err() error {
	if len(p) == 0 {
		return nil
	}
	return p
}
