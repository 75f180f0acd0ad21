package object

import (
	"itmoscript/internal/realnum"
	"testing"
)

func TestInspect(t *testing.T) {
	third, _ := realnum.One.Div(realnum.FromInt64(3))
	tests := []struct {
		obj      Object
		expected string
	}{
		{NIL, ""},
		{TRUE, "true"},
		{FALSE, "false"},
		{NewInt(-12), "-12"},
		{NewNumber(third), "0.(3)"},
		{&String{Value: "hi there"}, "hi there"},
		{&List{}, "[]"},
		{&List{Elements: []Object{NewInt(1), &String{Value: "a"}, NIL, &List{Elements: []Object{TRUE}}}}, "[1, a, , [true]]"},
		{&Function{}, "<function>"},
		{&Builtin{Name: "len"}, "<function>"},
	}

	for _, tt := range tests {
		if got := tt.obj.Inspect(); got != tt.expected {
			t.Errorf("%T: expected %q, got %q", tt.obj, tt.expected, got)
		}
	}
}

func TestIsTruthy(t *testing.T) {
	tests := []struct {
		obj      Object
		expected bool
	}{
		{NIL, false},
		{FALSE, false},
		{TRUE, true},
		{NewInt(0), true},
		{&String{Value: ""}, true},
		{&List{}, true},
	}

	for _, tt := range tests {
		if got := IsTruthy(tt.obj); got != tt.expected {
			t.Errorf("IsTruthy(%T %q): expected %t, got %t", tt.obj, tt.obj.Inspect(), tt.expected, got)
		}
	}
}

func TestEnvironmentScoping(t *testing.T) {
	root := NewEnvironment()
	root.Set("x", NewInt(1))

	inner := NewEnclosedEnvironment(root)
	if v, ok := inner.Get("x"); !ok || v.Inspect() != "1" {
		t.Fatalf("inner scope should see outer x")
	}

	inner.Set("x", NewInt(2))
	if v, _ := root.Get("x"); v.Inspect() != "1" {
		t.Errorf("assignment in the inner scope must not touch the outer binding, got %s", v.Inspect())
	}
	if _, ok := inner.GetLocal("x"); !ok {
		t.Errorf("inner scope should now bind x locally")
	}
	if inner.Root() != root {
		t.Errorf("Root should return the outermost scope")
	}

	if _, err := inner.Resolve("missing"); err == nil || err.Error() != "name 'missing' is not defined" {
		t.Errorf("unexpected lookup error: %v", err)
	}
}

func TestEnvironmentNamesSorted(t *testing.T) {
	env := NewEnvironment()
	env.Set("b", NIL)
	env.Set("a", NIL)
	env.Set("c", NIL)

	names := env.Names()
	if len(names) != 3 || names[0] != "a" || names[1] != "b" || names[2] != "c" {
		t.Errorf("unexpected names: %v", names)
	}
}
