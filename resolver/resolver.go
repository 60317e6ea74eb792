// Package resolver performs the static pass between parsing and evaluation.
//
// For every variable reference that binds to a local, it records how many
// scopes out the binding lives. References left unrecorded are globals and
// are looked up dynamically at runtime.
package resolver

import (
	"fmt"

	"github.com/podhmo/lox/ast"
	"github.com/podhmo/lox/scanner"
	"github.com/podhmo/lox/token"
)

// Locals maps a reference node to its scope depth: 0 is the innermost scope.
type Locals map[ast.ID]int

type functionType int

const (
	funcNone functionType = iota
	funcFunction
	funcInitializer
	funcMethod
)

type classType int

const (
	classNone classType = iota
	classClass
	classSubclass
)

// scope maps a name to whether its initializer has finished.
type scope map[string]bool

// Resolver walks a program once. It is not reusable across programs.
type Resolver struct {
	scopes []scope
	locals Locals
	errors scanner.ErrorList

	currentFunction functionType
	currentClass    classType
}

// New creates a Resolver.
func New() *Resolver {
	return &Resolver{locals: make(Locals)}
}

// Resolve walks stmts and returns the depth of every local reference.
// The error, if any, is a scanner.ErrorList of every resolution error found;
// the walk does not stop at the first one.
func (r *Resolver) Resolve(stmts []ast.Stmt) (Locals, error) {
	r.stmts(stmts)
	return r.locals, r.errors.Err()
}

// Resolve is a shorthand for New().Resolve(stmts).
func Resolve(stmts []ast.Stmt) (Locals, error) {
	return New().Resolve(stmts)
}

func (r *Resolver) stmts(list []ast.Stmt) {
	for _, s := range list {
		r.stmt(s)
	}
}

func (r *Resolver) stmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.Block:
		r.beginScope()
		r.stmts(s.Stmts)
		r.endScope()

	case *ast.Var:
		r.declare(s.Name)
		if s.Init != nil {
			r.expr(s.Init)
		}
		r.define(s.Name)

	case *ast.Function:
		r.declare(s.Name)
		r.define(s.Name)
		r.function(s, funcFunction)

	case *ast.Class:
		r.class(s)

	case *ast.Expression:
		r.expr(s.Expr)

	case *ast.If:
		r.expr(s.Cond)
		r.stmt(s.Then)
		if s.Else != nil {
			r.stmt(s.Else)
		}

	case *ast.Print:
		r.expr(s.Expr)

	case *ast.Return:
		if r.currentFunction == funcNone {
			r.error(s.Keyword, "Can't return from top-level code.")
		}
		if s.Value != nil {
			r.expr(s.Value)
		}

	case *ast.While:
		r.expr(s.Cond)
		r.stmt(s.Body)

	default:
		panic(fmt.Sprintf("resolver: unexpected statement %T", s))
	}
}

func (r *Resolver) class(s *ast.Class) {
	enclosing := r.currentClass
	r.currentClass = classClass
	defer func() { r.currentClass = enclosing }()

	r.declare(s.Name)
	r.define(s.Name)

	if s.Superclass != nil {
		if s.Superclass.Name.Lexeme == s.Name.Lexeme {
			r.error(s.Superclass.Name, "A class can't inherit from itself.")
		}
		r.currentClass = classSubclass
		r.expr(s.Superclass)

		r.beginScope()
		r.peek()["super"] = true
		defer r.endScope()
	}

	r.beginScope()
	r.peek()["this"] = true
	for _, m := range s.Methods {
		kind := funcMethod
		if m.Name.Lexeme == "init" {
			kind = funcInitializer
		}
		r.function(m, kind)
	}
	r.endScope()
}

func (r *Resolver) function(fn *ast.Function, kind functionType) {
	enclosing := r.currentFunction
	r.currentFunction = kind
	defer func() { r.currentFunction = enclosing }()

	r.beginScope()
	for _, param := range fn.Params {
		r.declare(param)
		r.define(param)
	}
	r.stmts(fn.Body)
	r.endScope()
}

func (r *Resolver) expr(e ast.Expr) {
	switch e := e.(type) {
	case *ast.Variable:
		if len(r.scopes) > 0 {
			if done, ok := r.peek()[e.Name.Lexeme]; ok && !done {
				r.error(e.Name, "Can't read local variable in its own initializer.")
			}
		}
		r.resolveLocal(e, e.Name.Lexeme)

	case *ast.Assign:
		r.expr(e.Value)
		r.resolveLocal(e, e.Name.Lexeme)

	case *ast.Binary:
		r.expr(e.Left)
		r.expr(e.Right)

	case *ast.Logical:
		r.expr(e.Left)
		r.expr(e.Right)

	case *ast.Unary:
		r.expr(e.Right)

	case *ast.Grouping:
		r.expr(e.Expr)

	case *ast.Call:
		r.expr(e.Callee)
		for _, arg := range e.Args {
			r.expr(arg)
		}

	case *ast.Get:
		r.expr(e.Object)

	case *ast.Set:
		r.expr(e.Value)
		r.expr(e.Object)

	case *ast.This:
		if r.currentClass == classNone {
			r.error(e.Keyword, "Can't use 'this' outside of a class.")
			return
		}
		r.resolveLocal(e, "this")

	case *ast.Super:
		switch r.currentClass {
		case classNone:
			r.error(e.Keyword, "Can't use 'super' outside of a class.")
			return
		case classClass:
			r.error(e.Keyword, "Can't use 'super' in a class with no superclass.")
			return
		}
		r.resolveLocal(e, "super")

	case *ast.FunctionExpr:
		r.function(e.Func, funcFunction)

	case *ast.Literal:
		// nothing to resolve

	default:
		panic(fmt.Sprintf("resolver: unexpected expression %T", e))
	}
}

// resolveLocal records the depth of the innermost scope declaring name.
// Names found in no scope are left for the global environment.
func (r *Resolver) resolveLocal(ref ast.Ref, name string) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if _, ok := r.scopes[i][name]; ok {
			r.locals[ref.RefID()] = len(r.scopes) - 1 - i
			return
		}
	}
}

func (r *Resolver) beginScope() {
	r.scopes = append(r.scopes, make(scope))
}

func (r *Resolver) endScope() {
	r.scopes = r.scopes[:len(r.scopes)-1]
}

func (r *Resolver) peek() scope {
	return r.scopes[len(r.scopes)-1]
}

// declare adds name to the innermost scope as not yet initialized.
// The global scope is not tracked, so redeclaring a global is allowed.
func (r *Resolver) declare(name token.Token) {
	if len(r.scopes) == 0 {
		return
	}
	s := r.peek()
	if _, ok := s[name.Lexeme]; ok {
		r.error(name, "Already a variable with this name in this scope.")
	}
	s[name.Lexeme] = false
}

func (r *Resolver) define(name token.Token) {
	if len(r.scopes) == 0 {
		return
	}
	r.peek()[name.Lexeme] = true
}

func (r *Resolver) error(tok token.Token, msg string) {
	r.errors.Add(scanner.PhaseResolve, tok.Line, fmt.Sprintf(" at '%s'", tok.Lexeme), msg)
}
