package object

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/podhmo/lox/ast"
)

// ObjectType is a string representation of an object's type.
type ObjectType string

const (
	NUMBER_OBJ       ObjectType = "NUMBER"
	STRING_OBJ       ObjectType = "STRING"
	BOOLEAN_OBJ      ObjectType = "BOOLEAN"
	NIL_OBJ          ObjectType = "NIL"
	BUILTIN_OBJ      ObjectType = "BUILTIN"
	FUNCTION_OBJ     ObjectType = "FUNCTION"
	CLASS_OBJ        ObjectType = "CLASS"
	INSTANCE_OBJ     ObjectType = "INSTANCE"
	RETURN_VALUE_OBJ ObjectType = "RETURN_VALUE"
	ERROR_OBJ        ObjectType = "ERROR"
)

// Object is the interface that all runtime values implement.
type Object interface {
	// Type returns the type of the object.
	Type() ObjectType
	// Inspect returns the display form used by `print`.
	Inspect() string
}

// Callable is implemented by values that can appear in callee position.
type Callable interface {
	Object
	// Arity is the exact number of arguments a call must supply.
	Arity() int
}

// --- Number Object ---

// Number is the only numeric type: a float64.
type Number struct {
	Value float64
}

// Type returns the type of the Number object.
func (n *Number) Type() ObjectType { return NUMBER_OBJ }

// Inspect prints integral values without a fraction.
func (n *Number) Inspect() string { return FormatNumber(n.Value) }

// FormatNumber renders a number the way `print` shows it.
func FormatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e21 {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// --- String Object ---

// String is an immutable string value.
type String struct {
	Value string
}

// Type returns the type of the String object.
func (s *String) Type() ObjectType { return STRING_OBJ }

// Inspect returns the string without quotes.
func (s *String) Inspect() string { return s.Value }

// --- Boolean Object ---

// Boolean is true or false. Use TRUE and FALSE rather than allocating.
type Boolean struct {
	Value bool
}

// Type returns the type of the Boolean object.
func (b *Boolean) Type() ObjectType { return BOOLEAN_OBJ }

// Inspect returns "true" or "false".
func (b *Boolean) Inspect() string { return strconv.FormatBool(b.Value) }

// --- Nil Object ---

// Nil is the absence of a value.
type Nil struct{}

// Type returns the type of the Nil object.
func (n *Nil) Type() ObjectType { return NIL_OBJ }

// Inspect returns "nil".
func (n *Nil) Inspect() string { return "nil" }

// --- Builtin Object ---

// BuiltinContext gives native functions access to the host side of a run.
type BuiltinContext struct {
	Context context.Context
	Stdout  io.Writer
	Stderr  io.Writer

	NewError func(line int, format string, args ...any) *Error
}

// BuiltinFunction is the signature of a native function. Argument count has
// been checked against the Builtin's arity before it is called.
type BuiltinFunction func(ctx *BuiltinContext, line int, args ...Object) Object

// Builtin is a host-provided function.
type Builtin struct {
	Name   string
	Params int
	Fn     BuiltinFunction
}

// Type returns the type of the Builtin object.
func (b *Builtin) Type() ObjectType { return BUILTIN_OBJ }

// Inspect returns "<native fn>".
func (b *Builtin) Inspect() string { return "<native fn>" }

// Arity returns the declared parameter count.
func (b *Builtin) Arity() int { return b.Params }

// --- Function Object ---

// Function is a user-defined function, method or anonymous function,
// together with the environment it closes over.
type Function struct {
	Decl          *ast.Function
	Closure       *Environment
	IsInitializer bool
}

// Type returns the type of the Function object.
func (f *Function) Type() ObjectType { return FUNCTION_OBJ }

// Inspect returns "<fn name>", or "<fn>" for an anonymous function.
func (f *Function) Inspect() string {
	if f.Decl.Anonymous {
		return "<fn>"
	}
	return "<fn " + f.Decl.Name.Lexeme + ">"
}

// Name returns the declared name, or "" for an anonymous function.
func (f *Function) Name() string {
	if f.Decl.Anonymous {
		return ""
	}
	return f.Decl.Name.Lexeme
}

// Arity returns the number of declared parameters.
func (f *Function) Arity() int { return len(f.Decl.Params) }

// Bind returns a copy of the method whose closure defines `this` as instance.
func (f *Function) Bind(instance *Instance) *Function {
	env := NewEnclosedEnvironment(f.Closure)
	env.Define("this", instance)
	return &Function{Decl: f.Decl, Closure: env, IsInitializer: f.IsInitializer}
}

// --- Class Object ---

// Class is a class value. Calling it constructs an Instance.
type Class struct {
	Name       string
	Superclass *Class
	Methods    map[string]*Function
}

// Type returns the type of the Class object.
func (c *Class) Type() ObjectType { return CLASS_OBJ }

// Inspect returns the class name.
func (c *Class) Inspect() string { return c.Name }

// FindMethod looks a method up on the class and then its superclass chain.
func (c *Class) FindMethod(name string) (*Function, bool) {
	for k := c; k != nil; k = k.Superclass {
		if m, ok := k.Methods[name]; ok {
			return m, true
		}
	}
	return nil, false
}

// Arity is the initializer's arity, or 0 without one.
func (c *Class) Arity() int {
	if init, ok := c.FindMethod("init"); ok {
		return init.Arity()
	}
	return 0
}

// --- Instance Object ---

// Instance is an object created by calling a Class.
type Instance struct {
	Class  *Class
	Fields map[string]Object
}

// NewInstance creates an instance with no fields.
func NewInstance(class *Class) *Instance {
	return &Instance{Class: class, Fields: make(map[string]Object)}
}

// Type returns the type of the Instance object.
func (i *Instance) Type() ObjectType { return INSTANCE_OBJ }

// Inspect returns "<Class> instance".
func (i *Instance) Inspect() string { return i.Class.Name + " instance" }

// Get returns a field, or else a method bound to this instance.
// Fields shadow methods.
func (i *Instance) Get(name string) (Object, bool) {
	if v, ok := i.Fields[name]; ok {
		return v, true
	}
	if m, ok := i.Class.FindMethod(name); ok {
		return m.Bind(i), true
	}
	return nil, false
}

// Set creates or overwrites a field.
func (i *Instance) Set(name string, val Object) {
	i.Fields[name] = val
}

// --- Return Value Object ---

// ReturnValue signals a `return` unwinding to the nearest call boundary.
// It wraps the returned value and is never visible to lox code.
type ReturnValue struct {
	Value Object
}

// Type returns the type of the ReturnValue object.
func (rv *ReturnValue) Type() ObjectType { return RETURN_VALUE_OBJ }

// Inspect returns a string representation of the wrapped value.
func (rv *ReturnValue) Inspect() string { return rv.Value.Inspect() }

// --- Error Object ---

// CallFrame is one active call, recorded for runtime error traces.
type CallFrame struct {
	Function string // "" for an anonymous function
	Line     int    // line of the call site
}

// Format formats the call frame into a readable string.
func (cf *CallFrame) Format() string {
	name := cf.Function
	if name == "" {
		name = "<fn>"
	}
	return fmt.Sprintf("\t[line %d] in %s", cf.Line, name)
}

// Error is a runtime error. Evaluation stops as soon as one is produced.
type Error struct {
	Line      int
	Message   string
	CallStack []*CallFrame
}

// Type returns the type of the Error object.
func (e *Error) Type() ObjectType { return ERROR_OBJ }

// Inspect returns the diagnostic shown to the user.
func (e *Error) Inspect() string {
	return fmt.Sprintf("%s\n[line %d]", e.Message, e.Line)
}

// Trace returns the diagnostic followed by the call stack, innermost call first.
func (e *Error) Trace() string {
	var out bytes.Buffer
	out.WriteString(e.Inspect())
	for i := len(e.CallStack) - 1; i >= 0; i-- {
		out.WriteString("\n")
		out.WriteString(e.CallStack[i].Format())
	}
	out.WriteString("\n\t[script]")
	return out.String()
}

// Error makes it a valid Go error.
func (e *Error) Error() string {
	return fmt.Sprintf("[line %d] %s", e.Line, e.Message)
}

// --- Global Instances ---

var (
	TRUE  = &Boolean{Value: true}
	FALSE = &Boolean{Value: false}
	NIL   = &Nil{}
)

// NativeBool returns the shared Boolean for b.
func NativeBool(b bool) *Boolean {
	if b {
		return TRUE
	}
	return FALSE
}

// Equal implements `==`. Values of different types are never equal;
// numbers, strings and booleans compare by value, everything else by identity.
func Equal(a, b Object) bool {
	if a.Type() != b.Type() {
		return false
	}
	switch a := a.(type) {
	case *Number:
		return a.Value == b.(*Number).Value
	case *String:
		return a.Value == b.(*String).Value
	case *Boolean:
		return a.Value == b.(*Boolean).Value
	case *Nil:
		return true
	default:
		return a == b
	}
}
