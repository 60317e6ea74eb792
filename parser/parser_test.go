package parser

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/podhmo/lox/ast"
	"github.com/podhmo/lox/scanner"
)

// sexpr renders a node as a parenthesized prefix form, for compact assertions.
func sexpr(n ast.Node) string {
	switch n := n.(type) {
	case *ast.Literal:
		if n.Value == nil {
			return "nil"
		}
		if s, ok := n.Value.(string); ok {
			return fmt.Sprintf("%q", s)
		}
		return fmt.Sprint(n.Value)
	case *ast.Variable:
		return n.Name.Lexeme
	case *ast.Assign:
		return fmt.Sprintf("(= %s %s)", n.Name.Lexeme, sexpr(n.Value))
	case *ast.Unary:
		return fmt.Sprintf("(%s %s)", n.Op.Lexeme, sexpr(n.Right))
	case *ast.Binary:
		return fmt.Sprintf("(%s %s %s)", n.Op.Lexeme, sexpr(n.Left), sexpr(n.Right))
	case *ast.Logical:
		return fmt.Sprintf("(%s %s %s)", n.Op.Lexeme, sexpr(n.Left), sexpr(n.Right))
	case *ast.Grouping:
		return fmt.Sprintf("(group %s)", sexpr(n.Expr))
	case *ast.Call:
		parts := []string{"call", sexpr(n.Callee)}
		for _, a := range n.Args {
			parts = append(parts, sexpr(a))
		}
		return "(" + strings.Join(parts, " ") + ")"
	case *ast.Get:
		return fmt.Sprintf("(. %s %s)", sexpr(n.Object), n.Name.Lexeme)
	case *ast.Set:
		return fmt.Sprintf("(.= %s %s %s)", sexpr(n.Object), n.Name.Lexeme, sexpr(n.Value))
	case *ast.This:
		return "this"
	case *ast.Super:
		return fmt.Sprintf("(super %s)", n.Method.Lexeme)
	case *ast.FunctionExpr:
		return sexpr(n.Func)
	case *ast.Expression:
		return fmt.Sprintf("(; %s)", sexpr(n.Expr))
	case *ast.Print:
		return fmt.Sprintf("(print %s)", sexpr(n.Expr))
	case *ast.Var:
		if n.Init == nil {
			return fmt.Sprintf("(var %s)", n.Name.Lexeme)
		}
		return fmt.Sprintf("(var %s %s)", n.Name.Lexeme, sexpr(n.Init))
	case *ast.Block:
		return "(block" + stmts(n.Stmts) + ")"
	case *ast.If:
		if n.Else == nil {
			return fmt.Sprintf("(if %s %s)", sexpr(n.Cond), sexpr(n.Then))
		}
		return fmt.Sprintf("(if %s %s %s)", sexpr(n.Cond), sexpr(n.Then), sexpr(n.Else))
	case *ast.While:
		return fmt.Sprintf("(while %s %s)", sexpr(n.Cond), sexpr(n.Body))
	case *ast.Function:
		var params []string
		for _, p := range n.Params {
			params = append(params, p.Lexeme)
		}
		name := n.Name.Lexeme
		if n.Anonymous {
			name = "<anon>"
		}
		return fmt.Sprintf("(fun %s (%s)%s)", name, strings.Join(params, " "), stmts(n.Body))
	case *ast.Return:
		if n.Value == nil {
			return "(return)"
		}
		return fmt.Sprintf("(return %s)", sexpr(n.Value))
	case *ast.Class:
		s := "(class " + n.Name.Lexeme
		if n.Superclass != nil {
			s += " < " + n.Superclass.Name.Lexeme
		}
		for _, m := range n.Methods {
			s += " " + sexpr(m)
		}
		return s + ")"
	}
	return fmt.Sprintf("<%T>", n)
}

func stmts(list []ast.Stmt) string {
	var b strings.Builder
	for _, s := range list {
		b.WriteString(" ")
		b.WriteString(sexpr(s))
	}
	return b.String()
}

func TestParseExpression_Precedence(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1 + 2 * 3", "(+ 1 (* 2 3))"},
		{"(1 + 2) * 3", "(* (group (+ 1 2)) 3)"},
		{"15 - 3 * 4", "(- 15 (* 3 4))"},
		{"1 - 2 - 3", "(- (- 1 2) 3)"},
		{"8 / 4 / 2", "(/ (/ 8 4) 2)"},
		{"-a * b", "(* (- a) b)"},
		{"!!true", "(! (! true))"},
		{"a < b == c >= d", "(== (< a b) (>= c d))"},
		{"a or b and c", "(or a (and b c))"},
		{"a and b or c and d", "(or (and a b) (and c d))"},
		{"a = b = c", "(= a (= b c))"},
		{"a.b.c = 1", "(.= (. a b) c 1)"},
		{"f(1)(2)", "(call (call f 1) 2)"},
		{"obj.method(a, b + 1).field", "(. (call (. obj method) a (+ b 1)) field)"},
		{`"s" + nil`, `(+ "s" nil)`},
		{"fun (x) { return x; }", "(fun <anon> (x) (return x))"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			expr, err := New(tt.input).ParseExpression()
			if err != nil {
				t.Fatalf("ParseExpression() failed: %v", err)
			}
			if diff := cmp.Diff(tt.want, sexpr(expr)); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_Statements(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "var with and without initializer",
			input: "var a; var b = 1;",
			want:  []string{"(var a)", "(var b 1)"},
		},
		{
			name:  "dangling else binds to nearest if",
			input: "if (a) if (b) print 1; else print 2;",
			want:  []string{"(if a (if b (print 1) (print 2)))"},
		},
		{
			name:  "for loop desugars to while in a block",
			input: "for (var i = 0; i < 3; i = i + 1) print i;",
			want:  []string{"(block (var i 0) (while (< i 3) (block (print i) (; (= i (+ i 1))))))"},
		},
		{
			name:  "for loop without clauses",
			input: "for (;;) print 1;",
			want:  []string{"(while true (print 1))"},
		},
		{
			name:  "function declaration",
			input: "fun add(a, b) { return a + b; } fun noop() { return; }",
			want:  []string{"(fun add (a b) (return (+ a b)))", "(fun noop () (return))"},
		},
		{
			name:  "class with superclass",
			input: "class B < A { init(x) { this.x = x; } m() { return super.m(); } }",
			want:  []string{"(class B < A (fun init (x) (; (.= this x x))) (fun m () (return (call (super m)))))"},
		},
		{
			name:  "anonymous function expression statement",
			input: "fun () { print 1; }();",
			want:  []string{"(; (call (fun <anon> () (print 1))))"},
		},
		{
			name:  "nested blocks",
			input: "{ var a = 1; { print a; } }",
			want:  []string{"(block (var a 1) (block (print a)))"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := ParseProgram(tt.input)
			if err != nil {
				t.Fatalf("Parse() failed: %v", err)
			}
			var got []string
			for _, s := range prog {
				got = append(got, sexpr(s))
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantErrs []string
		wantLen  int // statements that survived
	}{
		{
			name:     "missing semicolon",
			input:    "print 1\nprint 2;\nprint 3;",
			wantErrs: []string{"[line 2] Error at 'print': Expect ';' after value."},
			wantLen:  1,
		},
		{
			name:     "invalid assignment target does not synchronize",
			input:    "a + b = c; print 1;",
			wantErrs: []string{"[line 1] Error at '=': Invalid assignment target."},
			wantLen:  2,
		},
		{
			name:  "errors across the file are all collected",
			input: "var = 1;\nprint (;\nvar ok = 2;\nfun f( { }",
			wantErrs: []string{
				"[line 1] Error at '=': Expect variable name.",
				"[line 2] Error at ';': Expect expression.",
				"[line 4] Error at '{': Expect parameter name.",
			},
			wantLen: 1,
		},
		{
			name:     "error at end",
			input:    "print 1 +",
			wantErrs: []string{"[line 1] Error at end: Expect expression."},
		},
		{
			name:     "unclosed block",
			input:    "{ print 1;",
			wantErrs: []string{"[line 1] Error at end: Expect '}' after block."},
		},
		{
			name:     "error inside block recovers within block",
			input:    "{ var 1; print 2; }",
			wantErrs: []string{"[line 1] Error at '1': Expect variable name."},
			wantLen:  1,
		},
		{
			name:     "scan errors are reported with parse errors",
			input:    "print @1;\nprint;",
			wantErrs: []string{"[line 1] Error: Unexpected character.", "[line 2] Error at ';': Expect expression."},
			wantLen:  1,
		},
		{
			name:     "super requires a method name",
			input:    "super;",
			wantErrs: []string{"[line 1] Error at ';': Expect '.' after 'super'."},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := ParseProgram(tt.input)
			list, ok := err.(scanner.ErrorList)
			if !ok {
				t.Fatalf("expected scanner.ErrorList, got %T (%v)", err, err)
			}
			var got []string
			for _, e := range list {
				got = append(got, e.Error())
			}
			if diff := cmp.Diff(tt.wantErrs, got); diff != "" {
				t.Errorf("errors mismatch (-want +got):\n%s", diff)
			}
			if len(prog) != tt.wantLen {
				t.Errorf("expected %d surviving statements, got %d", tt.wantLen, len(prog))
			}
		})
	}
}

func TestParse_UniqueIDs(t *testing.T) {
	ids := &ast.IDGen{}
	first, err := ParseProgram("var a = b; a = c;", WithIDGen(ids))
	if err != nil {
		t.Fatal(err)
	}
	second, err := ParseProgram("print a;", WithIDGen(ids))
	if err != nil {
		t.Fatal(err)
	}

	seen := map[ast.ID]bool{}
	collect := func(e ast.Expr) {
		ref, ok := e.(ast.Ref)
		if !ok {
			t.Fatalf("%T is not a Ref", e)
		}
		if seen[ref.RefID()] {
			t.Errorf("duplicate ID %d", ref.RefID())
		}
		seen[ref.RefID()] = true
	}
	collect(first[0].(*ast.Var).Init)
	collect(first[1].(*ast.Expression).Expr)
	collect(second[0].(*ast.Print).Expr)
	if len(seen) != 3 {
		t.Errorf("expected 3 distinct IDs, got %d", len(seen))
	}
}
