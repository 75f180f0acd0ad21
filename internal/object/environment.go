package object

import (
	"fmt"
	"log/slog"
	"sort"
)

// Environment is one lexical scope. Assignment always binds in the scope it
// runs in; lookups walk outward.
type Environment struct {
	store map[string]Object
	Outer *Environment
}

func NewEnvironment() *Environment {
	return &Environment{store: make(map[string]Object)}
}

// NewEnclosedEnvironment creates a scope whose lookups fall back to outer.
func NewEnclosedEnvironment(outer *Environment) *Environment {
	slog.Debug("new enclosed environment")
	env := NewEnvironment()
	env.Outer = outer
	return env
}

func (e *Environment) Get(name string) (Object, bool) {
	obj, ok := e.store[name]
	if !ok && e.Outer != nil {
		return e.Outer.Get(name)
	}
	return obj, ok
}

// GetLocal looks only at this scope.
func (e *Environment) GetLocal(name string) (Object, bool) {
	obj, ok := e.store[name]
	return obj, ok
}

func (e *Environment) Set(name string, val Object) Object {
	e.store[name] = val
	return val
}

// Names lists this scope's own bindings in sorted order.
func (e *Environment) Names() []string {
	names := make([]string, 0, len(e.store))
	for name := range e.store {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Root returns the outermost scope.
func (e *Environment) Root() *Environment {
	for e.Outer != nil {
		e = e.Outer
	}
	return e
}

// Resolve is Get with the interpreter's lookup failure message.
func (e *Environment) Resolve(name string) (Object, error) {
	if obj, ok := e.Get(name); ok {
		return obj, nil
	}
	return nil, fmt.Errorf("name '%s' is not defined", name)
}
