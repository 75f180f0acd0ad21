package object

import (
	"bytes"
	"io"
	"itmoscript/internal/ast"
	"itmoscript/internal/realnum"
	"itmoscript/internal/util"
	"strings"
)

const (
	NIL_OBJ     = "NIL"
	BOOLEAN_OBJ = "BOOLEAN"
	NUMBER_OBJ  = "NUMBER"
	STRING_OBJ  = "STRING"
	LIST_OBJ    = "LIST"

	FUNCTION_OBJ = "FUNCTION"
	BUILTIN_OBJ  = "BUILTIN"
)

var (
	NIL   = &Nil{}
	TRUE  = &Boolean{Value: true}
	FALSE = &Boolean{Value: false}
)

// EvaluatorContext is what a builtin sees of the running interpreter.
type EvaluatorContext interface {
	Output() io.Writer
	// ReadLine returns the next input line without its terminator; ok is
	// false once input is exhausted.
	ReadLine() (line string, ok bool)
	GetConfiguration() util.Configuration
	NextHandleID() int64
}

// BuiltinFunction returns a plain error on failure; the evaluator attaches
// the call position.
type BuiltinFunction func(ctx EvaluatorContext, args ...Object) (Object, error)

type ObjectType string

type Object interface {
	Type() ObjectType
	Inspect() string
}

// Number is the language's only numeric type, an exact rational.
type Number struct {
	Value realnum.RealNumber
}

func (n *Number) Type() ObjectType { return NUMBER_OBJ }
func (n *Number) Inspect() string  { return n.Value.String() }

type Boolean struct {
	Value bool
}

func (b *Boolean) Type() ObjectType { return BOOLEAN_OBJ }
func (b *Boolean) Inspect() string {
	if b.Value {
		return "true"
	}
	return "false"
}

type String struct {
	Value string
}

func (s *String) Type() ObjectType { return STRING_OBJ }
func (s *String) Inspect() string  { return s.Value }

// Nil prints as the empty string.
type Nil struct{}

func (n *Nil) Type() ObjectType { return NIL_OBJ }
func (n *Nil) Inspect() string  { return "" }

// List is shared by reference: every binding of the same list sees in-place
// mutation.
type List struct {
	Elements []Object
}

func (l *List) Type() ObjectType { return LIST_OBJ }
func (l *List) Inspect() string {
	var out bytes.Buffer

	elements := make([]string, len(l.Elements))
	for i, e := range l.Elements {
		elements[i] = e.Inspect()
	}

	out.WriteString("[")
	out.WriteString(strings.Join(elements, ", "))
	out.WriteString("]")

	return out.String()
}

// Function is a user function closing over the environment it was created in.
type Function struct {
	Parameters []*ast.Identifier
	Body       []ast.Statement
	Env        *Environment
}

func (f *Function) Type() ObjectType { return FUNCTION_OBJ }
func (f *Function) Inspect() string  { return "<function>" }

type Builtin struct {
	Name string
	Fn   BuiltinFunction
}

func (b *Builtin) Type() ObjectType { return BUILTIN_OBJ }
func (b *Builtin) Inspect() string  { return "<function>" }

func NewNumber(v realnum.RealNumber) *Number {
	return &Number{Value: v}
}

func NewInt(i int64) *Number {
	return &Number{Value: realnum.FromInt64(i)}
}

func NativeBoolToBooleanObject(input bool) *Boolean {
	if input {
		return TRUE
	}
	return FALSE
}

// IsTruthy treats only nil and false as false.
func IsTruthy(obj Object) bool {
	switch o := obj.(type) {
	case *Nil:
		return false
	case *Boolean:
		return o.Value
	default:
		return obj != nil
	}
}

func IsCallable(obj Object) bool {
	switch obj.(type) {
	case *Function, *Builtin:
		return true
	}
	return false
}
