// Package ast declares the syntax tree produced by the parser.
//
// Nodes that refer to a variable binding (Variable, Assign, This, Super)
// carry an ID assigned at parse time. The resolver keys its output on that
// ID, so the tree can be walked and compared without relying on addresses.
package ast

import "github.com/podhmo/lox/token"

// ID identifies a binding-reference node within one interpreter session.
type ID int

// IDGen hands out IDs. One IDGen is shared by every parse in a session so
// that IDs stay unique across REPL lines.
type IDGen struct {
	next ID
}

// Next returns a fresh ID. The zero IDGen starts at 1.
func (g *IDGen) Next() ID {
	g.next++
	return g.next
}

// Node is implemented by every syntax tree node.
type Node interface {
	// Line is the source line used for diagnostics.
	Line() int
}

// Expr is an expression node.
type Expr interface {
	Node
	exprNode()
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Ref is implemented by the expressions the resolver binds to a scope depth.
type Ref interface {
	Expr
	RefID() ID
}

// --- Expressions ---

// Literal is a number, string, boolean or nil constant.
// Value holds float64, string, bool or nil.
type Literal struct {
	Token token.Token
	Value any
}

// Variable reads a named binding.
type Variable struct {
	ID   ID
	Name token.Token
}

// Assign writes a named binding.
type Assign struct {
	ID    ID
	Name  token.Token
	Value Expr
}

// Unary is a prefix operation: `!x` or `-x`.
type Unary struct {
	Op    token.Token
	Right Expr
}

// Binary is an arithmetic, comparison or equality operation.
type Binary struct {
	Left  Expr
	Op    token.Token
	Right Expr
}

// Logical is a short-circuit `and` / `or`.
type Logical struct {
	Left  Expr
	Op    token.Token
	Right Expr
}

// Call invokes a callee. Paren is the closing parenthesis, used for error lines.
type Call struct {
	Callee Expr
	Paren  token.Token
	Args   []Expr
}

// Get reads a property: `object.name`.
type Get struct {
	Object Expr
	Name   token.Token
}

// Set writes a property: `object.name = value`.
type Set struct {
	Object Expr
	Name   token.Token
	Value  Expr
}

// This is the `this` keyword inside a method.
type This struct {
	ID      ID
	Keyword token.Token
}

// Super is a `super.method` access.
type Super struct {
	ID      ID
	Keyword token.Token
	Method  token.Token
}

// Grouping is a parenthesized expression.
type Grouping struct {
	Paren token.Token
	Expr  Expr
}

// FunctionExpr is an anonymous function: `fun (a, b) { ... }`.
type FunctionExpr struct {
	Func *Function
}

func (x *Literal) Line() int      { return x.Token.Line }
func (x *Variable) Line() int     { return x.Name.Line }
func (x *Assign) Line() int       { return x.Name.Line }
func (x *Unary) Line() int        { return x.Op.Line }
func (x *Binary) Line() int       { return x.Op.Line }
func (x *Logical) Line() int      { return x.Op.Line }
func (x *Call) Line() int         { return x.Paren.Line }
func (x *Get) Line() int          { return x.Name.Line }
func (x *Set) Line() int          { return x.Name.Line }
func (x *This) Line() int         { return x.Keyword.Line }
func (x *Super) Line() int        { return x.Keyword.Line }
func (x *Grouping) Line() int     { return x.Paren.Line }
func (x *FunctionExpr) Line() int { return x.Func.Line() }

func (*Literal) exprNode()      {}
func (*Variable) exprNode()     {}
func (*Assign) exprNode()       {}
func (*Unary) exprNode()        {}
func (*Binary) exprNode()       {}
func (*Logical) exprNode()      {}
func (*Call) exprNode()         {}
func (*Get) exprNode()          {}
func (*Set) exprNode()          {}
func (*This) exprNode()         {}
func (*Super) exprNode()        {}
func (*Grouping) exprNode()     {}
func (*FunctionExpr) exprNode() {}

func (x *Variable) RefID() ID { return x.ID }
func (x *Assign) RefID() ID   { return x.ID }
func (x *This) RefID() ID     { return x.ID }
func (x *Super) RefID() ID    { return x.ID }

// --- Statements ---

// Expression evaluates an expression for its side effects.
type Expression struct {
	Expr Expr
}

// Print writes the display form of a value followed by a newline.
type Print struct {
	Keyword token.Token
	Expr    Expr
}

// Var declares a variable. Init is nil when there is no initializer.
type Var struct {
	Name token.Token
	Init Expr
}

// Block is a braced statement list with its own scope.
type Block struct {
	Brace token.Token
	Stmts []Stmt
}

// If is a conditional. Else is nil when absent.
type If struct {
	Keyword token.Token
	Cond    Expr
	Then    Stmt
	Else    Stmt
}

// While is the only loop node; `for` loops are desugared into it.
type While struct {
	Keyword token.Token
	Cond    Expr
	Body    Stmt
}

// Function is a named function or method declaration. For a FunctionExpr
// Name is the `fun` keyword and Anonymous is set.
type Function struct {
	Name      token.Token
	Params    []token.Token
	Body      []Stmt
	Anonymous bool
}

// Return leaves the enclosing function. Value is nil for a bare `return;`.
type Return struct {
	Keyword token.Token
	Value   Expr
}

// Class declares a class. Superclass is nil when there is none.
type Class struct {
	Name       token.Token
	Superclass *Variable
	Methods    []*Function
}

func (s *Expression) Line() int { return s.Expr.Line() }
func (s *Print) Line() int      { return s.Keyword.Line }
func (s *Var) Line() int        { return s.Name.Line }
func (s *Block) Line() int      { return s.Brace.Line }
func (s *If) Line() int         { return s.Keyword.Line }
func (s *While) Line() int      { return s.Keyword.Line }
func (s *Function) Line() int   { return s.Name.Line }
func (s *Return) Line() int     { return s.Keyword.Line }
func (s *Class) Line() int      { return s.Name.Line }

func (*Expression) stmtNode() {}
func (*Print) stmtNode()      {}
func (*Var) stmtNode()        {}
func (*Block) stmtNode()      {}
func (*If) stmtNode()         {}
func (*While) stmtNode()      {}
func (*Function) stmtNode()   {}
func (*Return) stmtNode()     {}
func (*Class) stmtNode()      {}
