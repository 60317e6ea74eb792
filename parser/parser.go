// Package parser implements a recursive-descent parser for lox source text.
//
// Precedence, lowest to highest:
//
//	assignment → or → and → equality → comparison → term → factor → unary → call → primary
//
// Parse errors are collected rather than returned one at a time: after an
// error the parser discards tokens up to the next statement boundary and
// carries on, so one mistake does not cascade into spurious diagnostics.
package parser

import (
	"fmt"

	"github.com/podhmo/lox/ast"
	"github.com/podhmo/lox/scanner"
	"github.com/podhmo/lox/token"
)

// Parser consumes tokens from a Scanner on demand.
type Parser struct {
	scanner *scanner.Scanner
	ids     *ast.IDGen
	errors  scanner.ErrorList

	prev  token.Token
	cur   token.Token
	ahead *token.Token
}

// Option configures a Parser.
type Option func(*Parser)

// WithIDGen shares an ID allocator with other parses of the same session.
func WithIDGen(g *ast.IDGen) Option {
	return func(p *Parser) {
		p.ids = g
	}
}

// New creates a Parser over src.
func New(src string, options ...Option) *Parser {
	p := &Parser{}
	for _, opt := range options {
		opt(p)
	}
	if p.ids == nil {
		p.ids = &ast.IDGen{}
	}
	p.scanner = scanner.New(src, func(line int, msg string) {
		p.errors.Add(scanner.PhaseScan, line, "", msg)
	})
	p.cur = p.scanner.Next()
	return p
}

// ParseProgram parses src as a whole program.
func ParseProgram(src string, options ...Option) ([]ast.Stmt, error) {
	return New(src, options...).Parse()
}

// Parse parses declarations until EOF. The returned error is a
// scanner.ErrorList holding every scan and parse error, in source order.
func (p *Parser) Parse() ([]ast.Stmt, error) {
	var stmts []ast.Stmt
	for !p.isAtEnd() {
		stmt, err := p.declaration()
		if err != nil {
			p.synchronize()
			continue
		}
		stmts = append(stmts, stmt)
	}
	return stmts, p.errors.Err()
}

// ParseExpression parses src as a single expression followed by EOF.
func (p *Parser) ParseExpression() (ast.Expr, error) {
	expr, err := p.expression()
	if err == nil && !p.isAtEnd() {
		_, err = p.consume(token.EOF, "Expect end of expression.")
	}
	if err != nil {
		return nil, p.errors.Err()
	}
	return expr, p.errors.Err()
}

// --- Declarations and statements ---

func (p *Parser) declaration() (ast.Stmt, error) {
	switch {
	case p.match(token.CLASS):
		return p.classDeclaration()
	case p.check(token.FUN) && p.peekNext().Kind == token.IDENTIFIER:
		p.advance()
		return p.function("function")
	case p.match(token.VAR):
		return p.varDeclaration()
	default:
		return p.statement()
	}
}

func (p *Parser) classDeclaration() (ast.Stmt, error) {
	name, err := p.consume(token.IDENTIFIER, "Expect class name.")
	if err != nil {
		return nil, err
	}

	var superclass *ast.Variable
	if p.match(token.LESS) {
		super, err := p.consume(token.IDENTIFIER, "Expect superclass name.")
		if err != nil {
			return nil, err
		}
		superclass = &ast.Variable{ID: p.ids.Next(), Name: super}
	}

	if _, err := p.consume(token.LEFT_BRACE, "Expect '{' before class body."); err != nil {
		return nil, err
	}
	var methods []*ast.Function
	for !p.check(token.RIGHT_BRACE) && !p.isAtEnd() {
		method, err := p.function("method")
		if err != nil {
			return nil, err
		}
		methods = append(methods, method)
	}
	if _, err := p.consume(token.RIGHT_BRACE, "Expect '}' after class body."); err != nil {
		return nil, err
	}
	return &ast.Class{Name: name, Superclass: superclass, Methods: methods}, nil
}

func (p *Parser) function(kind string) (*ast.Function, error) {
	name, err := p.consume(token.IDENTIFIER, fmt.Sprintf("Expect %s name.", kind))
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.LEFT_PAREN, fmt.Sprintf("Expect '(' after %s name.", kind)); err != nil {
		return nil, err
	}
	return p.functionBody(name, kind, false)
}

// functionBody parses the parameter list and body; the opening paren has been consumed.
func (p *Parser) functionBody(name token.Token, kind string, anonymous bool) (*ast.Function, error) {
	var params []token.Token
	if !p.check(token.RIGHT_PAREN) {
		for {
			param, err := p.consume(token.IDENTIFIER, "Expect parameter name.")
			if err != nil {
				return nil, err
			}
			params = append(params, param)
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	if _, err := p.consume(token.RIGHT_PAREN, "Expect ')' after parameters."); err != nil {
		return nil, err
	}
	if _, err := p.consume(token.LEFT_BRACE, fmt.Sprintf("Expect '{' before %s body.", kind)); err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	return &ast.Function{Name: name, Params: params, Body: body, Anonymous: anonymous}, nil
}

func (p *Parser) varDeclaration() (ast.Stmt, error) {
	name, err := p.consume(token.IDENTIFIER, "Expect variable name.")
	if err != nil {
		return nil, err
	}
	var init ast.Expr
	if p.match(token.EQUAL) {
		if init, err = p.expression(); err != nil {
			return nil, err
		}
	}
	if _, err := p.consume(token.SEMICOLON, "Expect ';' after variable declaration."); err != nil {
		return nil, err
	}
	return &ast.Var{Name: name, Init: init}, nil
}

func (p *Parser) statement() (ast.Stmt, error) {
	switch {
	case p.match(token.FOR):
		return p.forStatement()
	case p.match(token.IF):
		return p.ifStatement()
	case p.match(token.PRINT):
		return p.printStatement()
	case p.match(token.RETURN):
		return p.returnStatement()
	case p.match(token.WHILE):
		return p.whileStatement()
	case p.match(token.LEFT_BRACE):
		brace := p.prev
		stmts, err := p.block()
		if err != nil {
			return nil, err
		}
		return &ast.Block{Brace: brace, Stmts: stmts}, nil
	default:
		return p.expressionStatement()
	}
}

// forStatement desugars
//
//	for (init; cond; incr) body
//
// into
//
//	{ init; while (cond) { body; incr; } }
func (p *Parser) forStatement() (ast.Stmt, error) {
	keyword := p.prev
	if _, err := p.consume(token.LEFT_PAREN, "Expect '(' after 'for'."); err != nil {
		return nil, err
	}

	var init ast.Stmt
	var err error
	switch {
	case p.match(token.SEMICOLON):
	case p.match(token.VAR):
		init, err = p.varDeclaration()
	default:
		init, err = p.expressionStatement()
	}
	if err != nil {
		return nil, err
	}

	var cond ast.Expr
	if !p.check(token.SEMICOLON) {
		if cond, err = p.expression(); err != nil {
			return nil, err
		}
	}
	if _, err := p.consume(token.SEMICOLON, "Expect ';' after loop condition."); err != nil {
		return nil, err
	}

	var incr ast.Expr
	if !p.check(token.RIGHT_PAREN) {
		if incr, err = p.expression(); err != nil {
			return nil, err
		}
	}
	if _, err := p.consume(token.RIGHT_PAREN, "Expect ')' after for clauses."); err != nil {
		return nil, err
	}

	body, err := p.statement()
	if err != nil {
		return nil, err
	}

	if incr != nil {
		body = &ast.Block{Brace: keyword, Stmts: []ast.Stmt{body, &ast.Expression{Expr: incr}}}
	}
	if cond == nil {
		cond = &ast.Literal{Token: keyword, Value: true}
	}
	body = &ast.While{Keyword: keyword, Cond: cond, Body: body}
	if init != nil {
		body = &ast.Block{Brace: keyword, Stmts: []ast.Stmt{init, body}}
	}
	return body, nil
}

func (p *Parser) ifStatement() (ast.Stmt, error) {
	keyword := p.prev
	if _, err := p.consume(token.LEFT_PAREN, "Expect '(' after 'if'."); err != nil {
		return nil, err
	}
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.RIGHT_PAREN, "Expect ')' after if condition."); err != nil {
		return nil, err
	}
	then, err := p.statement()
	if err != nil {
		return nil, err
	}
	// The else binds to the nearest if.
	var els ast.Stmt
	if p.match(token.ELSE) {
		if els, err = p.statement(); err != nil {
			return nil, err
		}
	}
	return &ast.If{Keyword: keyword, Cond: cond, Then: then, Else: els}, nil
}

func (p *Parser) printStatement() (ast.Stmt, error) {
	keyword := p.prev
	value, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.SEMICOLON, "Expect ';' after value."); err != nil {
		return nil, err
	}
	return &ast.Print{Keyword: keyword, Expr: value}, nil
}

func (p *Parser) returnStatement() (ast.Stmt, error) {
	keyword := p.prev
	var value ast.Expr
	if !p.check(token.SEMICOLON) {
		var err error
		if value, err = p.expression(); err != nil {
			return nil, err
		}
	}
	if _, err := p.consume(token.SEMICOLON, "Expect ';' after return value."); err != nil {
		return nil, err
	}
	return &ast.Return{Keyword: keyword, Value: value}, nil
}

func (p *Parser) whileStatement() (ast.Stmt, error) {
	keyword := p.prev
	if _, err := p.consume(token.LEFT_PAREN, "Expect '(' after 'while'."); err != nil {
		return nil, err
	}
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.RIGHT_PAREN, "Expect ')' after condition."); err != nil {
		return nil, err
	}
	body, err := p.statement()
	if err != nil {
		return nil, err
	}
	return &ast.While{Keyword: keyword, Cond: cond, Body: body}, nil
}

func (p *Parser) block() ([]ast.Stmt, error) {
	var stmts []ast.Stmt
	for !p.check(token.RIGHT_BRACE) && !p.isAtEnd() {
		stmt, err := p.declaration()
		if err != nil {
			p.synchronize()
			continue
		}
		stmts = append(stmts, stmt)
	}
	if _, err := p.consume(token.RIGHT_BRACE, "Expect '}' after block."); err != nil {
		return nil, err
	}
	return stmts, nil
}

func (p *Parser) expressionStatement() (ast.Stmt, error) {
	expr, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.SEMICOLON, "Expect ';' after expression."); err != nil {
		return nil, err
	}
	return &ast.Expression{Expr: expr}, nil
}

// --- Expressions ---

func (p *Parser) expression() (ast.Expr, error) {
	return p.assignment()
}

func (p *Parser) assignment() (ast.Expr, error) {
	expr, err := p.or()
	if err != nil {
		return nil, err
	}
	if !p.match(token.EQUAL) {
		return expr, nil
	}

	equals := p.prev
	value, err := p.assignment()
	if err != nil {
		return nil, err
	}
	switch target := expr.(type) {
	case *ast.Variable:
		return &ast.Assign{ID: p.ids.Next(), Name: target.Name, Value: value}, nil
	case *ast.Get:
		return &ast.Set{Object: target.Object, Name: target.Name, Value: value}, nil
	}
	// Reported without unwinding: the parser is not confused about where it is.
	p.error(equals, "Invalid assignment target.")
	return expr, nil
}

func (p *Parser) or() (ast.Expr, error) {
	return p.logical(p.and, token.OR)
}

func (p *Parser) and() (ast.Expr, error) {
	return p.logical(p.equality, token.AND)
}

func (p *Parser) logical(operand func() (ast.Expr, error), kind token.Kind) (ast.Expr, error) {
	expr, err := operand()
	if err != nil {
		return nil, err
	}
	for p.match(kind) {
		op := p.prev
		right, err := operand()
		if err != nil {
			return nil, err
		}
		expr = &ast.Logical{Left: expr, Op: op, Right: right}
	}
	return expr, nil
}

func (p *Parser) equality() (ast.Expr, error) {
	return p.binary(p.comparison, token.BANG_EQUAL, token.EQUAL_EQUAL)
}

func (p *Parser) comparison() (ast.Expr, error) {
	return p.binary(p.term, token.GREATER, token.GREATER_EQUAL, token.LESS, token.LESS_EQUAL)
}

func (p *Parser) term() (ast.Expr, error) {
	return p.binary(p.factor, token.MINUS, token.PLUS)
}

func (p *Parser) factor() (ast.Expr, error) {
	return p.binary(p.unary, token.SLASH, token.STAR)
}

// binary parses a left-associative chain of operand (op operand)*.
func (p *Parser) binary(operand func() (ast.Expr, error), kinds ...token.Kind) (ast.Expr, error) {
	expr, err := operand()
	if err != nil {
		return nil, err
	}
	for p.match(kinds...) {
		op := p.prev
		right, err := operand()
		if err != nil {
			return nil, err
		}
		expr = &ast.Binary{Left: expr, Op: op, Right: right}
	}
	return expr, nil
}

func (p *Parser) unary() (ast.Expr, error) {
	if p.match(token.BANG, token.MINUS) {
		op := p.prev
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Op: op, Right: right}, nil
	}
	return p.call()
}

func (p *Parser) call() (ast.Expr, error) {
	expr, err := p.primary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.match(token.LEFT_PAREN):
			if expr, err = p.finishCall(expr); err != nil {
				return nil, err
			}
		case p.match(token.DOT):
			name, err := p.consume(token.IDENTIFIER, "Expect property name after '.'.")
			if err != nil {
				return nil, err
			}
			expr = &ast.Get{Object: expr, Name: name}
		default:
			return expr, nil
		}
	}
}

func (p *Parser) finishCall(callee ast.Expr) (ast.Expr, error) {
	var args []ast.Expr
	if !p.check(token.RIGHT_PAREN) {
		for {
			arg, err := p.expression()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	paren, err := p.consume(token.RIGHT_PAREN, "Expect ')' after arguments.")
	if err != nil {
		return nil, err
	}
	return &ast.Call{Callee: callee, Paren: paren, Args: args}, nil
}

func (p *Parser) primary() (ast.Expr, error) {
	switch {
	case p.match(token.FALSE):
		return &ast.Literal{Token: p.prev, Value: false}, nil
	case p.match(token.TRUE):
		return &ast.Literal{Token: p.prev, Value: true}, nil
	case p.match(token.NIL):
		return &ast.Literal{Token: p.prev, Value: nil}, nil
	case p.match(token.NUMBER, token.STRING):
		return &ast.Literal{Token: p.prev, Value: p.prev.Literal}, nil
	case p.match(token.THIS):
		return &ast.This{ID: p.ids.Next(), Keyword: p.prev}, nil
	case p.match(token.SUPER):
		keyword := p.prev
		if _, err := p.consume(token.DOT, "Expect '.' after 'super'."); err != nil {
			return nil, err
		}
		method, err := p.consume(token.IDENTIFIER, "Expect superclass method name.")
		if err != nil {
			return nil, err
		}
		return &ast.Super{ID: p.ids.Next(), Keyword: keyword, Method: method}, nil
	case p.match(token.IDENTIFIER):
		return &ast.Variable{ID: p.ids.Next(), Name: p.prev}, nil
	case p.match(token.FUN):
		keyword := p.prev
		if _, err := p.consume(token.LEFT_PAREN, "Expect '(' after 'fun'."); err != nil {
			return nil, err
		}
		fn, err := p.functionBody(keyword, "function", true)
		if err != nil {
			return nil, err
		}
		return &ast.FunctionExpr{Func: fn}, nil
	case p.match(token.LEFT_PAREN):
		paren := p.prev
		expr, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(token.RIGHT_PAREN, "Expect ')' after expression."); err != nil {
			return nil, err
		}
		return &ast.Grouping{Paren: paren, Expr: expr}, nil
	}
	return nil, p.error(p.cur, "Expect expression.")
}

// --- Token plumbing ---

func (p *Parser) match(kinds ...token.Kind) bool {
	for _, k := range kinds {
		if p.check(k) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) check(kind token.Kind) bool {
	return p.cur.Kind == kind
}

func (p *Parser) advance() token.Token {
	p.prev = p.cur
	if p.cur.Kind != token.EOF {
		if p.ahead != nil {
			p.cur, p.ahead = *p.ahead, nil
		} else {
			p.cur = p.scanner.Next()
		}
	}
	return p.prev
}

func (p *Parser) peekNext() token.Token {
	if p.cur.Kind == token.EOF {
		return p.cur
	}
	if p.ahead == nil {
		tok := p.scanner.Next()
		p.ahead = &tok
	}
	return *p.ahead
}

func (p *Parser) isAtEnd() bool { return p.cur.Kind == token.EOF }

func (p *Parser) consume(kind token.Kind, msg string) (token.Token, error) {
	if p.check(kind) {
		return p.advance(), nil
	}
	return token.Token{}, p.error(p.cur, msg)
}

func (p *Parser) error(tok token.Token, msg string) error {
	where := fmt.Sprintf(" at '%s'", tok.Lexeme)
	if tok.Kind == token.EOF {
		where = " at end"
	}
	p.errors.Add(scanner.PhaseParse, tok.Line, where, msg)
	return p.errors[len(p.errors)-1]
}

// synchronize discards tokens until a likely statement boundary.
func (p *Parser) synchronize() {
	p.advance()
	for !p.isAtEnd() {
		if p.prev.Kind == token.SEMICOLON {
			return
		}
		switch p.cur.Kind {
		case token.CLASS, token.FUN, token.VAR, token.FOR, token.IF, token.WHILE, token.PRINT, token.RETURN:
			return
		}
		p.advance()
	}
}
