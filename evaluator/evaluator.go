package evaluator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/podhmo/lox/ast"
	"github.com/podhmo/lox/object"
	"github.com/podhmo/lox/resolver"
	"github.com/podhmo/lox/token"
)

// DefaultMaxCallDepth bounds nested calls when Config.MaxCallDepth is zero.
const DefaultMaxCallDepth = 2048

// Evaluator walks a resolved syntax tree.
//
// One Evaluator serves one session: its globals and its table of resolved
// locals accumulate across every program handed to it.
type Evaluator struct {
	object.BuiltinContext

	globals      *object.Environment
	locals       resolver.Locals
	logger       *slog.Logger
	maxCallDepth int
	callStack    []*object.CallFrame

	ctx         context.Context
	interrupted error
}

// Config holds the collaborators of an Evaluator.
type Config struct {
	Globals      *object.Environment
	Stdout       io.Writer
	Stderr       io.Writer
	Logger       *slog.Logger
	MaxCallDepth int
}

// New creates an Evaluator.
func New(cfg Config) *Evaluator {
	e := &Evaluator{
		globals:      cfg.Globals,
		locals:       make(resolver.Locals),
		logger:       cfg.Logger,
		maxCallDepth: cfg.MaxCallDepth,
		callStack:    make([]*object.CallFrame, 0),
		ctx:          context.Background(),
	}
	if e.globals == nil {
		e.globals = object.NewEnvironment()
	}
	if e.logger == nil {
		e.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	}
	if e.maxCallDepth <= 0 {
		e.maxCallDepth = DefaultMaxCallDepth
	}
	stdout, stderr := cfg.Stdout, cfg.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	e.BuiltinContext = object.BuiltinContext{
		Context: e.ctx,
		Stdout:  stdout,
		Stderr:  stderr,
		NewError: func(line int, format string, args ...any) *object.Error {
			return e.newError(line, format, args...)
		},
	}
	return e
}

// Globals returns the global environment.
func (e *Evaluator) Globals() *object.Environment {
	return e.globals
}

// AddLocals merges a resolution table into the evaluator's.
// IDs must come from the same ast.IDGen as earlier tables.
func (e *Evaluator) AddLocals(locals resolver.Locals) {
	for id, depth := range locals {
		e.locals[id] = depth
	}
}

// Exec runs top-level statements in the global environment.
//
// The result is nil on success or the *object.Error that stopped execution.
// A non-nil error is returned only when ctx was cancelled; ctx is checked
// between top-level statements and on every loop iteration.
func (e *Evaluator) Exec(ctx context.Context, stmts []ast.Stmt) (*object.Error, error) {
	e.ctx = ctx
	e.BuiltinContext.Context = ctx
	e.interrupted = nil
	e.callStack = e.callStack[:0]
	defer func() {
		e.ctx = context.Background()
		e.BuiltinContext.Context = e.ctx
	}()

	for _, s := range stmts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result := e.Eval(s, e.globals)
		if e.interrupted != nil {
			return nil, e.interrupted
		}
		if errObj, ok := result.(*object.Error); ok {
			return errObj, nil
		}
	}
	return nil, nil
}

// EvalExpr evaluates an expression in the global environment.
func (e *Evaluator) EvalExpr(ctx context.Context, expr ast.Expr) (object.Object, error) {
	e.ctx = ctx
	e.BuiltinContext.Context = ctx
	e.interrupted = nil
	e.callStack = e.callStack[:0]
	defer func() {
		e.ctx = context.Background()
		e.BuiltinContext.Context = e.ctx
	}()

	result := e.Eval(expr, e.globals)
	if e.interrupted != nil {
		return nil, e.interrupted
	}
	return result, nil
}

// Eval evaluates a node. Statements yield nil on normal completion, a
// *object.ReturnValue while a return unwinds, or an *object.Error.
func (e *Evaluator) Eval(node ast.Node, env *object.Environment) object.Object {
	switch n := node.(type) {
	// Statements
	case *ast.Expression:
		if val := e.Eval(n.Expr, env); isError(val) {
			return val
		}
		return nil
	case *ast.Print:
		val := e.Eval(n.Expr, env)
		if isError(val) {
			return val
		}
		fmt.Fprintln(e.Stdout, val.Inspect())
		return nil
	case *ast.Var:
		var val object.Object = object.NIL
		if n.Init != nil {
			val = e.Eval(n.Init, env)
			if isError(val) {
				return val
			}
		}
		env.Define(n.Name.Lexeme, val)
		return nil
	case *ast.Block:
		return e.evalStatements(n.Stmts, object.NewEnclosedEnvironment(env))
	case *ast.If:
		return e.evalIfStatement(n, env)
	case *ast.While:
		return e.evalWhileStatement(n, env)
	case *ast.Function:
		env.Define(n.Name.Lexeme, &object.Function{Decl: n, Closure: env})
		return nil
	case *ast.Return:
		var val object.Object = object.NIL
		if n.Value != nil {
			val = e.Eval(n.Value, env)
			if isError(val) {
				return val
			}
		}
		return &object.ReturnValue{Value: val}
	case *ast.Class:
		return e.evalClassDeclaration(n, env)

	// Expressions
	case *ast.Literal:
		return literalObject(n.Value)
	case *ast.Grouping:
		return e.Eval(n.Expr, env)
	case *ast.Variable:
		return e.lookUpVariable(n.Name, n, env)
	case *ast.Assign:
		return e.evalAssign(n, env)
	case *ast.Unary:
		right := e.Eval(n.Right, env)
		if isError(right) {
			return right
		}
		return e.evalUnaryExpression(n.Op, right)
	case *ast.Binary:
		left := e.Eval(n.Left, env)
		if isError(left) {
			return left
		}
		right := e.Eval(n.Right, env)
		if isError(right) {
			return right
		}
		return e.evalBinaryExpression(n.Op, left, right)
	case *ast.Logical:
		left := e.Eval(n.Left, env)
		if isError(left) {
			return left
		}
		if n.Op.Kind == token.OR {
			if isTruthy(left) {
				return left
			}
		} else if !isTruthy(left) {
			return left
		}
		return e.Eval(n.Right, env)
	case *ast.Call:
		return e.evalCall(n, env)
	case *ast.Get:
		obj := e.Eval(n.Object, env)
		if isError(obj) {
			return obj
		}
		instance, ok := obj.(*object.Instance)
		if !ok {
			return e.newError(n.Name.Line, "Only instances have properties.")
		}
		val, ok := instance.Get(n.Name.Lexeme)
		if !ok {
			return e.newError(n.Name.Line, "Undefined property '%s'.", n.Name.Lexeme)
		}
		return val
	case *ast.Set:
		obj := e.Eval(n.Object, env)
		if isError(obj) {
			return obj
		}
		instance, ok := obj.(*object.Instance)
		if !ok {
			return e.newError(n.Name.Line, "Only instances have fields.")
		}
		val := e.Eval(n.Value, env)
		if isError(val) {
			return val
		}
		instance.Set(n.Name.Lexeme, val)
		return val
	case *ast.This:
		return e.lookUpVariable(n.Keyword, n, env)
	case *ast.Super:
		return e.evalSuper(n, env)
	case *ast.FunctionExpr:
		return &object.Function{Decl: n.Func, Closure: env}
	}
	return e.newError(node.Line(), "unsupported node %T", node)
}

func (e *Evaluator) evalStatements(stmts []ast.Stmt, env *object.Environment) object.Object {
	for _, s := range stmts {
		result := e.Eval(s, env)
		if result != nil {
			rt := result.Type()
			if rt == object.RETURN_VALUE_OBJ || rt == object.ERROR_OBJ {
				return result
			}
		}
	}
	return nil
}

func (e *Evaluator) evalIfStatement(n *ast.If, env *object.Environment) object.Object {
	cond := e.Eval(n.Cond, env)
	if isError(cond) {
		return cond
	}
	if isTruthy(cond) {
		return e.Eval(n.Then, env)
	}
	if n.Else != nil {
		return e.Eval(n.Else, env)
	}
	return nil
}

func (e *Evaluator) evalWhileStatement(n *ast.While, env *object.Environment) object.Object {
	for {
		if err := e.ctx.Err(); err != nil {
			e.interrupted = err
			return e.newError(n.Keyword.Line, "Interrupted.")
		}
		cond := e.Eval(n.Cond, env)
		if isError(cond) {
			return cond
		}
		if !isTruthy(cond) {
			return nil
		}
		if result := e.Eval(n.Body, env); result != nil {
			return result
		}
	}
}

func (e *Evaluator) evalClassDeclaration(n *ast.Class, env *object.Environment) object.Object {
	var superclass *object.Class
	if n.Superclass != nil {
		val := e.Eval(n.Superclass, env)
		if isError(val) {
			return val
		}
		class, ok := val.(*object.Class)
		if !ok {
			return e.newError(n.Superclass.Name.Line, "Superclass must be a class.")
		}
		superclass = class
	}

	env.Define(n.Name.Lexeme, object.NIL)

	methodEnv := env
	if superclass != nil {
		methodEnv = object.NewEnclosedEnvironment(env)
		methodEnv.Define("super", superclass)
	}
	methods := make(map[string]*object.Function, len(n.Methods))
	for _, m := range n.Methods {
		methods[m.Name.Lexeme] = &object.Function{
			Decl:          m,
			Closure:       methodEnv,
			IsInitializer: m.Name.Lexeme == "init",
		}
	}

	class := &object.Class{Name: n.Name.Lexeme, Superclass: superclass, Methods: methods}
	env.Define(n.Name.Lexeme, class)
	e.logger.DebugContext(e.ctx, "define class", slog.String("name", class.Name), slog.Int("methods", len(methods)))
	return nil
}

func (e *Evaluator) lookUpVariable(name token.Token, ref ast.Ref, env *object.Environment) object.Object {
	if depth, ok := e.locals[ref.RefID()]; ok {
		return env.GetAt(depth, name.Lexeme)
	}
	if val, ok := e.globals.Get(name.Lexeme); ok {
		return val
	}
	return e.newError(name.Line, "Undefined variable '%s'.", name.Lexeme)
}

func (e *Evaluator) evalAssign(n *ast.Assign, env *object.Environment) object.Object {
	val := e.Eval(n.Value, env)
	if isError(val) {
		return val
	}
	if depth, ok := e.locals[n.ID]; ok {
		env.AssignAt(depth, n.Name.Lexeme, val)
		return val
	}
	if !e.globals.Assign(n.Name.Lexeme, val) {
		return e.newError(n.Name.Line, "Undefined variable '%s'.", n.Name.Lexeme)
	}
	return val
}

func (e *Evaluator) evalSuper(n *ast.Super, env *object.Environment) object.Object {
	depth, ok := e.locals[n.ID]
	if !ok {
		panic(&object.ResolutionFault{Name: "super"})
	}
	superclass := env.GetAt(depth, "super").(*object.Class)
	instance := env.GetAt(depth-1, "this").(*object.Instance)
	method, ok := superclass.FindMethod(n.Method.Lexeme)
	if !ok {
		return e.newError(n.Method.Line, "Undefined property '%s'.", n.Method.Lexeme)
	}
	return method.Bind(instance)
}

func (e *Evaluator) evalUnaryExpression(op token.Token, right object.Object) object.Object {
	switch op.Kind {
	case token.BANG:
		return object.NativeBool(!isTruthy(right))
	case token.MINUS:
		num, ok := right.(*object.Number)
		if !ok {
			return e.newError(op.Line, "Operand must be a number.")
		}
		return &object.Number{Value: -num.Value}
	}
	return e.newError(op.Line, "unknown operator: %s", op.Lexeme)
}

func (e *Evaluator) evalBinaryExpression(op token.Token, left, right object.Object) object.Object {
	switch op.Kind {
	case token.EQUAL_EQUAL:
		return object.NativeBool(object.Equal(left, right))
	case token.BANG_EQUAL:
		return object.NativeBool(!object.Equal(left, right))
	case token.PLUS:
		switch l := left.(type) {
		case *object.Number:
			if r, ok := right.(*object.Number); ok {
				return &object.Number{Value: l.Value + r.Value}
			}
		case *object.String:
			if r, ok := right.(*object.String); ok {
				return &object.String{Value: l.Value + r.Value}
			}
		}
		return e.newError(op.Line, "Operands must be two numbers or two strings.")
	}

	l, lok := left.(*object.Number)
	r, rok := right.(*object.Number)
	if !lok || !rok {
		return e.newError(op.Line, "Operands must be numbers.")
	}
	switch op.Kind {
	case token.MINUS:
		return &object.Number{Value: l.Value - r.Value}
	case token.STAR:
		return &object.Number{Value: l.Value * r.Value}
	case token.SLASH:
		if r.Value == 0 {
			return e.newError(op.Line, "Division by zero.")
		}
		return &object.Number{Value: l.Value / r.Value}
	case token.GREATER:
		return object.NativeBool(l.Value > r.Value)
	case token.GREATER_EQUAL:
		return object.NativeBool(l.Value >= r.Value)
	case token.LESS:
		return object.NativeBool(l.Value < r.Value)
	case token.LESS_EQUAL:
		return object.NativeBool(l.Value <= r.Value)
	}
	return e.newError(op.Line, "unknown operator: %s", op.Lexeme)
}

func (e *Evaluator) evalCall(n *ast.Call, env *object.Environment) object.Object {
	callee := e.Eval(n.Callee, env)
	if isError(callee) {
		return callee
	}
	args := make([]object.Object, 0, len(n.Args))
	for _, a := range n.Args {
		arg := e.Eval(a, env)
		if isError(arg) {
			return arg
		}
		args = append(args, arg)
	}
	return e.applyFunction(n, callee, args)
}

func (e *Evaluator) applyFunction(call *ast.Call, fn object.Object, args []object.Object) object.Object {
	line := call.Paren.Line
	callable, ok := fn.(object.Callable)
	if !ok {
		return e.newError(line, "Can only call functions and classes.")
	}
	if len(args) != callable.Arity() {
		return e.newError(line, "Expected %d arguments but got %d.", callable.Arity(), len(args))
	}
	if len(e.callStack) >= e.maxCallDepth {
		e.logger.DebugContext(e.ctx, "call depth exceeded", slog.Int("depth", len(e.callStack)), slog.Int("line", line))
		return e.newError(line, "Stack overflow.")
	}

	frame := &object.CallFrame{Line: line}
	e.callStack = append(e.callStack, frame)
	defer func() {
		e.callStack = e.callStack[:len(e.callStack)-1]
	}()

	switch f := fn.(type) {
	case *object.Builtin:
		frame.Function = f.Name
		result := f.Fn(&e.BuiltinContext, line, args...)
		if result == nil {
			return object.NIL
		}
		return result
	case *object.Function:
		frame.Function = f.Name()
		return e.callFunction(f, args)
	case *object.Class:
		frame.Function = f.Name
		instance := object.NewInstance(f)
		if init, ok := f.FindMethod("init"); ok {
			if result := e.callFunction(init.Bind(instance), args); isError(result) {
				return result
			}
		}
		return instance
	}
	return e.newError(line, "Can only call functions and classes.")
}

// callFunction runs the body in a fresh frame holding the parameters.
func (e *Evaluator) callFunction(fn *object.Function, args []object.Object) object.Object {
	env := object.NewEnclosedEnvironment(fn.Closure)
	for i, param := range fn.Decl.Params {
		env.Define(param.Lexeme, args[i])
	}
	result := e.evalStatements(fn.Decl.Body, env)
	if isError(result) {
		return result
	}
	if fn.IsInitializer {
		return fn.Closure.GetAt(0, "this")
	}
	return unwrapReturnValue(result)
}

func (e *Evaluator) newError(line int, format string, args ...any) *object.Error {
	msg := fmt.Sprintf(format, args...)
	stackCopy := make([]*object.CallFrame, len(e.callStack))
	copy(stackCopy, e.callStack)
	e.logger.DebugContext(e.ctx, "runtime error", slog.Int("line", line), slog.String("message", msg), slog.Int("depth", len(stackCopy)))
	return &object.Error{Line: line, Message: msg, CallStack: stackCopy}
}

func unwrapReturnValue(obj object.Object) object.Object {
	if returnValue, ok := obj.(*object.ReturnValue); ok {
		return returnValue.Value
	}
	return object.NIL
}

func literalObject(v any) object.Object {
	switch v := v.(type) {
	case float64:
		return &object.Number{Value: v}
	case string:
		return &object.String{Value: v}
	case bool:
		return object.NativeBool(v)
	}
	return object.NIL
}

func isError(obj object.Object) bool {
	if obj != nil {
		return obj.Type() == object.ERROR_OBJ
	}
	return false
}

// isTruthy reports false only for nil and false.
func isTruthy(obj object.Object) bool {
	switch obj := obj.(type) {
	case *object.Nil:
		return false
	case *object.Boolean:
		return obj.Value
	}
	return true
}
