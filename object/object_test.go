package object

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/podhmo/lox/ast"
	"github.com/podhmo/lox/token"
)

func TestInspect(t *testing.T) {
	class := &Class{Name: "Point", Methods: map[string]*Function{}}
	named := &Function{Decl: &ast.Function{Name: token.Token{Kind: token.IDENTIFIER, Lexeme: "add"}}}
	anon := &Function{Decl: &ast.Function{Name: token.Token{Kind: token.FUN, Lexeme: "fun"}, Anonymous: true}}

	tests := []struct {
		name string
		obj  Object
		want string
	}{
		{"integral number", &Number{Value: 7}, "7"},
		{"negative integral", &Number{Value: -3}, "-3"},
		{"fraction", &Number{Value: 2.5}, "2.5"},
		{"zero", &Number{Value: 0}, "0"},
		{"large", &Number{Value: 1e21}, "1e+21"},
		{"string", &String{Value: "hi"}, "hi"},
		{"true", TRUE, "true"},
		{"false", FALSE, "false"},
		{"nil", NIL, "nil"},
		{"native", &Builtin{Name: "clock"}, "<native fn>"},
		{"named function", named, "<fn add>"},
		{"anonymous function", anon, "<fn>"},
		{"class", class, "Point"},
		{"instance", NewInstance(class), "Point instance"},
		{"error", &Error{Line: 3, Message: "Boom."}, "Boom.\n[line 3]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.obj.Inspect()); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEqual(t *testing.T) {
	class := &Class{Name: "A"}
	i1, i2 := NewInstance(class), NewInstance(class)
	tests := []struct {
		name string
		a, b Object
		want bool
	}{
		{"same number", &Number{Value: 1}, &Number{Value: 1}, true},
		{"different number", &Number{Value: 1}, &Number{Value: 2}, false},
		{"same string", &String{Value: "a"}, &String{Value: "a"}, true},
		{"number vs string", &Number{Value: 1}, &String{Value: "1"}, false},
		{"nil vs nil", NIL, NIL, true},
		{"nil vs false", NIL, FALSE, false},
		{"booleans", TRUE, NativeBool(true), true},
		{"same instance", i1, i1, true},
		{"different instances", i1, i2, false},
		{"same class", class, class, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClass_FindMethodWalksSuperclasses(t *testing.T) {
	decl := func(name string, params ...string) *ast.Function {
		fn := &ast.Function{Name: token.Token{Kind: token.IDENTIFIER, Lexeme: name}}
		for _, p := range params {
			fn.Params = append(fn.Params, token.Token{Kind: token.IDENTIFIER, Lexeme: p})
		}
		return fn
	}
	base := &Class{Name: "Base", Methods: map[string]*Function{
		"init":  {Decl: decl("init", "a", "b"), IsInitializer: true},
		"greet": {Decl: decl("greet")},
	}}
	derived := &Class{Name: "Derived", Superclass: base, Methods: map[string]*Function{
		"greet": {Decl: decl("greet", "who")},
	}}

	m, ok := derived.FindMethod("greet")
	if !ok || m.Arity() != 1 {
		t.Errorf("expected the overriding greet, got %v", m)
	}
	if _, ok := derived.FindMethod("missing"); ok {
		t.Errorf("found a method that does not exist")
	}
	if derived.Arity() != 2 {
		t.Errorf("expected arity of inherited init (2), got %d", derived.Arity())
	}
	if (&Class{Name: "Empty"}).Arity() != 0 {
		t.Errorf("a class without init takes no arguments")
	}
}

func TestInstance_GetBindsThis(t *testing.T) {
	fn := &Function{
		Decl:    &ast.Function{Name: token.Token{Kind: token.IDENTIFIER, Lexeme: "m"}},
		Closure: NewEnvironment(),
	}
	class := &Class{Name: "A", Methods: map[string]*Function{"m": fn}}
	inst := NewInstance(class)

	got, ok := inst.Get("m")
	if !ok {
		t.Fatalf("method not found")
	}
	bound := got.(*Function)
	if bound == fn {
		t.Errorf("Get should return a bound copy")
	}
	if this := bound.Closure.GetAt(0, "this"); this != inst {
		t.Errorf("this is not the instance: %v", this)
	}
	if bound.Closure.Outer() != fn.Closure {
		t.Errorf("bound closure should enclose the method's closure")
	}

	inst.Set("m", &String{Value: "field"})
	got, _ = inst.Get("m")
	if got.Inspect() != "field" {
		t.Errorf("fields should shadow methods, got %s", got.Inspect())
	}
	if _, ok := inst.Get("nope"); ok {
		t.Errorf("undefined property reported as found")
	}
}

func TestError_Trace(t *testing.T) {
	err := &Error{
		Line:    4,
		Message: "Operands must be numbers.",
		CallStack: []*CallFrame{
			{Function: "outer", Line: 9},
			{Function: "", Line: 6},
		},
	}
	want := "Operands must be numbers.\n[line 4]\n\t[line 6] in <fn>\n\t[line 9] in outer\n\t[script]"
	if diff := cmp.Diff(want, err.Trace()); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if err.Error() != "[line 4] Operands must be numbers." {
		t.Errorf("unexpected Error(): %q", err.Error())
	}
}
