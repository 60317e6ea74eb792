package resolver

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/podhmo/lox/ast"
	"github.com/podhmo/lox/astwalk"
	"github.com/podhmo/lox/parser"
	"github.com/podhmo/lox/scanner"
)

// depths resolves src and lists, for every reference in source order, its
// recorded depth or -1 for a global.
func depths(t *testing.T, src string) []int {
	t.Helper()
	stmts, err := parser.ParseProgram(src)
	if err != nil {
		t.Fatalf("ParseProgram() failed: %v", err)
	}
	locals, err := Resolve(stmts)
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	var got []int
	for ref := range astwalk.Refs(stmts) {
		d, ok := locals[ref.RefID()]
		if !ok {
			d = -1
		}
		got = append(got, d)
	}
	return got
}

func TestResolve_Depths(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []int
	}{
		{
			name: "globals are not recorded",
			src:  "var a = 1; print a; a = 2;",
			want: []int{-1, -1},
		},
		{
			name: "block local and enclosing block",
			src:  "{ var a = 1; { var b = a; print b; print a; } }",
			want: []int{1, 0, 1},
		},
		{
			name: "parameters and closure capture",
			src:  "fun outer(x) { fun inner() { return x; } return inner; }",
			want: []int{1, 0},
		},
		{
			name: "shadowing picks the innermost",
			src:  "{ var a = 1; { var a = 2; print a; } print a; }",
			want: []int{0, 0},
		},
		{
			name: "this in a method",
			src:  "class A { m() { return this; } }",
			want: []int{1},
		},
		{
			name: "super sits one scope outside this",
			src:  "class A {} class B < A { m() { return super.m; } n() { fun f() { return this; } } }",
			want: []int{-1, 2, 2},
		},
		{
			name: "anonymous function parameters",
			src:  "var f = fun (a) { return a; };",
			want: []int{0},
		},
		{
			name: "redeclaring a global is allowed",
			src:  "var a = 1; var a = a;",
			want: []int{-1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, depths(t, tt.src)); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolve_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "own initializer",
			src:  "{ var a = a; }",
			want: []string{"[line 1] Error at 'a': Can't read local variable in its own initializer."},
		},
		{
			name: "duplicate local",
			src:  "fun f() {\n  var a = 1;\n  var a = 2;\n}",
			want: []string{"[line 3] Error at 'a': Already a variable with this name in this scope."},
		},
		{
			name: "duplicate parameter",
			src:  "fun f(a, a) {}",
			want: []string{"[line 1] Error at 'a': Already a variable with this name in this scope."},
		},
		{
			name: "top-level return",
			src:  "return 1;",
			want: []string{"[line 1] Error at 'return': Can't return from top-level code."},
		},
		{
			name: "this outside class",
			src:  "print this;\nfun f() { return this; }",
			want: []string{
				"[line 1] Error at 'this': Can't use 'this' outside of a class.",
				"[line 2] Error at 'this': Can't use 'this' outside of a class.",
			},
		},
		{
			name: "super outside class",
			src:  "super.m();",
			want: []string{"[line 1] Error at 'super': Can't use 'super' outside of a class."},
		},
		{
			name: "super without superclass",
			src:  "class A { m() { super.m(); } }",
			want: []string{"[line 1] Error at 'super': Can't use 'super' in a class with no superclass."},
		},
		{
			name: "self inheritance",
			src:  "class A < A {}",
			want: []string{"[line 1] Error at 'A': A class can't inherit from itself."},
		},
		{
			name: "return value from initializer is allowed",
			src:  "class A { init() { return 1; } }",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmts, err := parser.ParseProgram(tt.src)
			if err != nil {
				t.Fatalf("ParseProgram() failed: %v", err)
			}
			_, err = Resolve(stmts)
			var got []string
			if err != nil {
				list, ok := err.(scanner.ErrorList)
				if !ok {
					t.Fatalf("expected scanner.ErrorList, got %T", err)
				}
				for _, e := range list {
					if e.Phase != scanner.PhaseResolve {
						t.Errorf("unexpected phase %v", e.Phase)
					}
					got = append(got, e.Error())
				}
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolve_SharedIDGenAcrossLines(t *testing.T) {
	ids := &ast.IDGen{}
	seen := map[ast.ID]bool{}
	for _, line := range []string{"{ var a; print a; }", "{ var b; print b; }"} {
		stmts, err := parser.ParseProgram(line, parser.WithIDGen(ids))
		if err != nil {
			t.Fatalf("ParseProgram() failed: %v", err)
		}
		locals, err := Resolve(stmts)
		if err != nil {
			t.Fatalf("Resolve() failed: %v", err)
		}
		for id := range locals {
			if seen[id] {
				t.Errorf("ID %d resolved twice across lines", id)
			}
			seen[id] = true
		}
	}
	if len(seen) != 2 {
		t.Errorf("expected 2 resolved references, got %d", len(seen))
	}
}
