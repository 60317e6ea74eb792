package object

import "fmt"

// Environment is one scope frame: a set of bindings plus a link to the
// enclosing frame. Frames are shared by reference between the running code
// and any closures created in them, so a define or assign is visible to
// every holder.
type Environment struct {
	store map[string]Object
	outer *Environment
}

// NewEnvironment creates a new, top-level environment.
func NewEnvironment() *Environment {
	return &Environment{store: make(map[string]Object)}
}

// NewEnclosedEnvironment creates a new environment that is enclosed by an outer one.
func NewEnclosedEnvironment(outer *Environment) *Environment {
	env := NewEnvironment()
	env.outer = outer
	return env
}

// Define binds name in this frame, replacing any existing binding.
func (e *Environment) Define(name string, val Object) {
	e.store[name] = val
}

// Get looks name up in this frame and then the enclosing ones.
func (e *Environment) Get(name string) (Object, bool) {
	for env := e; env != nil; env = env.outer {
		if obj, ok := env.store[name]; ok {
			return obj, true
		}
	}
	return nil, false
}

// Assign updates an existing binding, searching outwards. It reports
// whether the name was found.
func (e *Environment) Assign(name string, val Object) bool {
	for env := e; env != nil; env = env.outer {
		if _, ok := env.store[name]; ok {
			env.store[name] = val
			return true
		}
	}
	return false
}

// Outer returns the enclosing environment.
func (e *Environment) Outer() *Environment {
	return e.outer
}

// Len returns the number of bindings in this frame only.
func (e *Environment) Len() int {
	return len(e.store)
}

// Ancestor walks exactly depth links outwards.
// A depth the chain cannot satisfy panics with a *ResolutionFault.
func (e *Environment) Ancestor(depth int) *Environment {
	env := e
	for i := 0; i < depth; i++ {
		if env.outer == nil {
			panic(&ResolutionFault{Depth: depth, Reached: i})
		}
		env = env.outer
	}
	return env
}

// GetAt reads name from the frame depth links out. The binding must exist.
func (e *Environment) GetAt(depth int, name string) Object {
	env := e.Ancestor(depth)
	obj, ok := env.store[name]
	if !ok {
		panic(&ResolutionFault{Name: name, Depth: depth, Reached: depth})
	}
	return obj
}

// AssignAt writes name in the frame depth links out. The binding must exist.
func (e *Environment) AssignAt(depth int, name string, val Object) {
	env := e.Ancestor(depth)
	if _, ok := env.store[name]; !ok {
		panic(&ResolutionFault{Name: name, Depth: depth, Reached: depth})
	}
	env.store[name] = val
}

// ResolutionFault reports that the resolver and the runtime scope chain
// disagree. It indicates a bug in the interpreter, never in the lox program,
// and is raised with panic.
type ResolutionFault struct {
	Name    string
	Depth   int
	Reached int
}

func (f *ResolutionFault) Error() string {
	if f.Name == "" {
		return fmt.Sprintf("lox: internal error: scope chain ends after %d of %d frames", f.Reached, f.Depth)
	}
	return fmt.Sprintf("lox: internal error: %q not bound %d frames out", f.Name, f.Depth)
}
