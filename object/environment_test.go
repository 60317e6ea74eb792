package object

import "testing"

func TestEnvironment_DefineGetAssign(t *testing.T) {
	global := NewEnvironment()
	global.Define("a", &Number{Value: 1})
	inner := NewEnclosedEnvironment(global)
	inner.Define("b", &Number{Value: 2})

	if v, ok := inner.Get("a"); !ok || v.Inspect() != "1" {
		t.Errorf("Get(a) through the chain = %v, %v", v, ok)
	}
	if _, ok := global.Get("b"); ok {
		t.Errorf("outer frame must not see inner bindings")
	}
	if !inner.Assign("a", &Number{Value: 10}) {
		t.Fatalf("Assign(a) failed")
	}
	if v, _ := global.Get("a"); v.Inspect() != "10" {
		t.Errorf("assignment not visible in the defining frame: %v", v)
	}
	if inner.Assign("missing", NIL) {
		t.Errorf("Assign to an undeclared name should fail")
	}

	// Define overwrites in the current frame only.
	inner.Define("a", &String{Value: "shadow"})
	if v, _ := global.Get("a"); v.Inspect() != "10" {
		t.Errorf("Define leaked into the outer frame: %v", v)
	}
	if inner.Len() != 2 || global.Len() != 1 {
		t.Errorf("unexpected frame sizes: inner=%d global=%d", inner.Len(), global.Len())
	}
}

func TestEnvironment_AtDepth(t *testing.T) {
	e0 := NewEnvironment()
	e1 := NewEnclosedEnvironment(e0)
	e2 := NewEnclosedEnvironment(e1)
	e0.Define("x", &String{Value: "outer"})
	e1.Define("x", &String{Value: "middle"})

	if e2.Ancestor(2) != e0 || e2.Ancestor(0) != e2 {
		t.Errorf("Ancestor walked the wrong number of links")
	}
	if got := e2.GetAt(2, "x").Inspect(); got != "outer" {
		t.Errorf("GetAt(2) = %s", got)
	}
	if got := e2.GetAt(1, "x").Inspect(); got != "middle" {
		t.Errorf("GetAt(1) = %s", got)
	}
	e2.AssignAt(2, "x", &String{Value: "changed"})
	if v, _ := e0.Get("x"); v.Inspect() != "changed" {
		t.Errorf("AssignAt did not reach the outer frame: %v", v)
	}
	if v, _ := e1.Get("x"); v.Inspect() != "middle" {
		t.Errorf("AssignAt touched the wrong frame: %v", v)
	}
}

func TestEnvironment_FaultOnMismatch(t *testing.T) {
	tests := []struct {
		name string
		fn   func(e *Environment)
	}{
		{"ancestor past the root", func(e *Environment) { e.Ancestor(3) }},
		{"unbound at depth", func(e *Environment) { e.GetAt(0, "nope") }},
		{"assign unbound at depth", func(e *Environment) { e.AssignAt(1, "nope", NIL) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := NewEnclosedEnvironment(NewEnvironment())
			defer func() {
				if _, ok := recover().(*ResolutionFault); !ok {
					t.Errorf("expected a *ResolutionFault panic")
				}
			}()
			tt.fn(env)
		})
	}
}
