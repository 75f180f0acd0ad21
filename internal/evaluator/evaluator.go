package evaluator

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"itmoscript/internal/ast"
	"itmoscript/internal/diag"
	"itmoscript/internal/object"
	"itmoscript/internal/realnum"
	"itmoscript/internal/util"
	"strings"
	"sync/atomic"
)

// maxCallDepth keeps runaway recursion from exhausting the Go stack.
const maxCallDepth = 10000

// maxRepeatLength bounds the result of string repetition.
const maxRepeatLength = 1 << 30

// handleSeq numbers foreign resource handles process-wide.
var handleSeq atomic.Int64

var (
	NIL   = object.NIL
	TRUE  = object.TRUE
	FALSE = object.FALSE
)

// signal is the outcome of executing a statement. A returned signal unwinds
// to the nearest function call.
type signal struct {
	returned bool
	value    object.Object
}

type Evaluator struct {
	Config util.Configuration

	out io.Writer
	in  *bufio.Reader

	Builtins *object.Environment // builtins only
	Globals  *object.Environment // top-level program scope

	envStack []*object.Environment
}

// New creates an evaluator writing program output to out. read() consumes
// lines from in, which may be nil.
func New(cfg util.Configuration, out io.Writer, in io.Reader) *Evaluator {
	if in == nil {
		in = strings.NewReader("")
	}
	e := &Evaluator{
		Config: cfg,
		out:    out,
		in:     bufio.NewReader(in),
	}
	e.Builtins = object.NewEnvironment()
	registerBuiltins(e.Builtins)
	e.Globals = object.NewEnclosedEnvironment(e.Builtins)
	e.PushEnv(e.Globals)
	return e
}

func (e *Evaluator) PushEnv(env *object.Environment) {
	e.envStack = append(e.envStack, env)
}

func (e *Evaluator) CurrentEnv() *object.Environment {
	if len(e.envStack) == 0 {
		panic("Environment stack is empty")
	}
	return e.envStack[len(e.envStack)-1]
}

func (e *Evaluator) PopEnv() {
	if len(e.envStack) == 0 {
		panic("Attempted to pop from an empty environment stack")
	}
	e.envStack = e.envStack[:len(e.envStack)-1]
}

// Unwind drops every scope above the globals, for reuse after a failed run.
func (e *Evaluator) Unwind() {
	e.envStack = e.envStack[:1]
}

// Output, ReadLine, GetConfiguration and NextHandleID make the evaluator an
// object.EvaluatorContext for builtins.

func (e *Evaluator) Output() io.Writer {
	return e.out
}

func (e *Evaluator) ReadLine() (string, bool) {
	line, err := e.in.ReadString('\n')
	if err != nil && line == "" {
		return "", false
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, true
}

func (e *Evaluator) GetConfiguration() util.Configuration {
	return e.Config
}

func (e *Evaluator) NextHandleID() int64 {
	return handleSeq.Add(1)
}

// Run executes program in the current scope. It returns the value of the
// last statement when that statement is a bare expression, for REPL echo.
func (e *Evaluator) Run(program *ast.Program) (object.Object, error) {
	var last object.Object
	for _, stmt := range program.Statements {
		sig, err := e.exec(stmt)
		if err != nil {
			return nil, err
		}
		if sig.returned {
			return nil, nil
		}
		if _, ok := stmt.(*ast.ExpressionStatement); ok {
			last = sig.value
		} else {
			last = nil
		}
	}
	return last, nil
}

func (e *Evaluator) exec(stmt ast.Statement) (signal, error) {
	switch node := stmt.(type) {
	case *ast.ExpressionStatement:
		val, err := e.Eval(node.Expression)
		return signal{value: val}, err

	case *ast.AssignStatement:
		val, err := e.Eval(node.Value)
		if err != nil {
			return signal{}, err
		}
		e.CurrentEnv().Set(node.Name.Value, val)
		return signal{}, nil

	case *ast.IfStatement:
		return e.execIfStatement(node)

	case *ast.ForStatement:
		return e.execForStatement(node)

	case *ast.WhileStatement:
		return e.execWhileStatement(node)

	case *ast.ReturnStatement:
		if node.ReturnValue == nil {
			return signal{returned: true, value: NIL}, nil
		}
		val, err := e.Eval(node.ReturnValue)
		if err != nil {
			return signal{}, err
		}
		return signal{returned: true, value: val}, nil

	case *ast.ImportStatement:
		return signal{}, e.execImportStatement(node)

	case *ast.FromImportStatement:
		return signal{}, e.execFromImportStatement(node)
	}

	return signal{}, fmt.Errorf("unknown statement type %T", stmt)
}

// execBlock runs statements in the current scope; blocks do not open scopes.
func (e *Evaluator) execBlock(stmts []ast.Statement) (signal, error) {
	for _, stmt := range stmts {
		sig, err := e.exec(stmt)
		if err != nil || sig.returned {
			return sig, err
		}
	}
	return signal{}, nil
}

func (e *Evaluator) condition(expr ast.Expression, stmt ast.Statement) (bool, error) {
	val, err := e.Eval(expr)
	if err != nil {
		return false, err
	}
	b, ok := val.(*object.Boolean)
	if !ok {
		return false, diag.Interpreter(stmt.Pos(), "condition is not a boolean")
	}
	return b.Value, nil
}

func (e *Evaluator) execIfStatement(node *ast.IfStatement) (signal, error) {
	ok, err := e.condition(node.Condition, node)
	if err != nil {
		return signal{}, err
	}
	if ok {
		return e.execBlock(node.Consequence)
	}

	for _, elif := range node.Elifs {
		ok, err := e.condition(elif.Condition, node)
		if err != nil {
			return signal{}, err
		}
		if ok {
			return e.execBlock(elif.Body)
		}
	}

	return e.execBlock(node.Alternative)
}

func (e *Evaluator) execForStatement(node *ast.ForStatement) (signal, error) {
	iterable, err := e.Eval(node.Iterable)
	if err != nil {
		return signal{}, err
	}
	list, ok := iterable.(*object.List)
	if !ok {
		return signal{}, diag.Interpreter(node.Pos(), "iterating over non-list")
	}

	elements := list.Elements
	for _, el := range elements {
		e.CurrentEnv().Set(node.Variable.Value, el)
		sig, err := e.execBlock(node.Body)
		if err != nil || sig.returned {
			return sig, err
		}
	}
	return signal{}, nil
}

func (e *Evaluator) execWhileStatement(node *ast.WhileStatement) (signal, error) {
	for {
		ok, err := e.condition(node.Condition, node)
		if err != nil {
			return signal{}, err
		}
		if !ok {
			return signal{}, nil
		}
		sig, err := e.execBlock(node.Body)
		if err != nil || sig.returned {
			return sig, err
		}
	}
}

// Eval evaluates an expression in the current scope.
func (e *Evaluator) Eval(node ast.Expression) (object.Object, error) {
	switch node := node.(type) {
	case *ast.NumberLiteral:
		v, err := realnum.Parse(node.Value)
		if err != nil {
			if errors.Is(err, realnum.ErrExponent) {
				return nil, diag.Interpreter(node.Pos(), "exponent too large in number literal %s", node.Value)
			}
			return nil, diag.Interpreter(node.Pos(), "invalid number literal %s", node.Value)
		}
		return object.NewNumber(v), nil

	case *ast.StringLiteral:
		return &object.String{Value: node.Value}, nil

	case *ast.BooleanLiteral:
		return object.NativeBoolToBooleanObject(node.Value), nil

	case *ast.NilLiteral:
		return NIL, nil

	case *ast.Identifier:
		return e.evalIdentifier(node)

	case *ast.ListLiteral:
		elements, err := e.evalExpressions(node.Elements)
		if err != nil {
			return nil, err
		}
		return &object.List{Elements: elements}, nil

	case *ast.FunctionLiteral:
		return &object.Function{Parameters: node.Parameters, Body: node.Body, Env: e.CurrentEnv()}, nil

	case *ast.PrefixExpression:
		return e.evalPrefixExpression(node)

	case *ast.InfixExpression:
		return e.evalInfixExpression(node)

	case *ast.CallExpression:
		return e.evalCallExpression(node)

	case *ast.IndexExpression:
		return e.evalIndexExpression(node)

	case *ast.SliceExpression:
		return e.evalSliceExpression(node)
	}

	return nil, fmt.Errorf("unknown expression type %T", node)
}

func (e *Evaluator) evalIdentifier(node *ast.Identifier) (object.Object, error) {
	val, err := e.CurrentEnv().Resolve(node.Value)
	if err != nil {
		return nil, diag.Wrap(err, node.Pos())
	}
	return val, nil
}

func (e *Evaluator) evalExpressions(exps []ast.Expression) ([]object.Object, error) {
	result := make([]object.Object, 0, len(exps))
	for _, exp := range exps {
		val, err := e.Eval(exp)
		if err != nil {
			return nil, err
		}
		result = append(result, val)
	}
	return result, nil
}

func (e *Evaluator) evalPrefixExpression(node *ast.PrefixExpression) (object.Object, error) {
	right, err := e.Eval(node.Right)
	if err != nil {
		return nil, err
	}

	switch node.Operator {
	case "not":
		return object.NativeBoolToBooleanObject(!object.IsTruthy(right)), nil
	case "-":
		n, ok := right.(*object.Number)
		if !ok {
			return nil, diag.Interpreter(node.Pos(), "Unary '-' requires a number")
		}
		return object.NewNumber(n.Value.Neg()), nil
	case "+":
		n, ok := right.(*object.Number)
		if !ok {
			return nil, diag.Interpreter(node.Pos(), "Unary '+' requires a number")
		}
		return n, nil
	}
	return nil, diag.Interpreter(node.Pos(), "Unknown unary operator: %s", node.Operator)
}

func (e *Evaluator) evalInfixExpression(node *ast.InfixExpression) (object.Object, error) {
	left, err := e.Eval(node.Left)
	if err != nil {
		return nil, err
	}

	// and/or short-circuit and yield an operand, not a Boolean.
	switch node.Operator {
	case "and":
		if !object.IsTruthy(left) {
			return left, nil
		}
		return e.Eval(node.Right)
	case "or":
		if object.IsTruthy(left) {
			return left, nil
		}
		return e.Eval(node.Right)
	}

	right, err := e.Eval(node.Right)
	if err != nil {
		return nil, err
	}

	result, err := evalInfix(node.Operator, left, right)
	if err != nil {
		return nil, diag.Wrap(err, node.Pos())
	}
	return result, nil
}

func evalInfix(operator string, left, right object.Object) (object.Object, error) {
	if operator == "*" {
		if s, count, ok := repeatOperands(left, right); ok {
			return evalStringMultiplication(s, count)
		}
	}

	switch l := left.(type) {
	case *object.Number:
		if r, ok := right.(*object.Number); ok {
			return evalNumberInfixExpression(operator, l.Value, r.Value)
		}
	case *object.String:
		if r, ok := right.(*object.String); ok {
			return evalStringInfixExpression(operator, l.Value, r.Value)
		}
	case *object.List:
		if r, ok := right.(*object.List); ok && operator == "+" {
			elements := make([]object.Object, 0, len(l.Elements)+len(r.Elements))
			elements = append(elements, l.Elements...)
			elements = append(elements, r.Elements...)
			return &object.List{Elements: elements}, nil
		}
	}

	return nil, fmt.Errorf("unknown binary operator: %s", operator)
}

func evalNumberInfixExpression(operator string, a, b realnum.RealNumber) (object.Object, error) {
	switch operator {
	case "+":
		return object.NewNumber(a.Add(b)), nil
	case "-":
		return object.NewNumber(a.Sub(b)), nil
	case "*":
		return object.NewNumber(a.Mul(b)), nil
	case "/":
		if b.IsZero() {
			return nil, errors.New("division by zero")
		}
		q, err := a.Div(b)
		if err != nil {
			return nil, err
		}
		return object.NewNumber(q), nil
	case "%":
		if b.IsZero() {
			return nil, errors.New("modulo by zero")
		}
		m, err := a.Mod(b)
		if err != nil {
			return nil, err
		}
		return object.NewNumber(m), nil
	case "^":
		if a.IsZero() && b.IsZero() {
			return nil, errors.New("cannot power zero to the zero power")
		}
		p, err := a.Pow(b)
		if err != nil {
			return nil, err
		}
		return object.NewNumber(p), nil
	case "==":
		return object.NativeBoolToBooleanObject(a.Cmp(b) == 0), nil
	case "!=":
		return object.NativeBoolToBooleanObject(a.Cmp(b) != 0), nil
	case "<":
		return object.NativeBoolToBooleanObject(a.Cmp(b) < 0), nil
	case "<=":
		return object.NativeBoolToBooleanObject(a.Cmp(b) <= 0), nil
	case ">":
		return object.NativeBoolToBooleanObject(a.Cmp(b) > 0), nil
	case ">=":
		return object.NativeBoolToBooleanObject(a.Cmp(b) >= 0), nil
	}
	return nil, fmt.Errorf("unknown binary operator: %s", operator)
}

func evalStringInfixExpression(operator string, a, b string) (object.Object, error) {
	switch operator {
	case "+":
		return &object.String{Value: a + b}, nil
	case "-":
		return &object.String{Value: strings.TrimSuffix(a, b)}, nil
	case "==":
		return object.NativeBoolToBooleanObject(a == b), nil
	case "!=":
		return object.NativeBoolToBooleanObject(a != b), nil
	case "<":
		return object.NativeBoolToBooleanObject(a < b), nil
	case "<=":
		return object.NativeBoolToBooleanObject(a <= b), nil
	case ">":
		return object.NativeBoolToBooleanObject(a > b), nil
	case ">=":
		return object.NativeBoolToBooleanObject(a >= b), nil
	}
	return nil, fmt.Errorf("unknown binary operator: %s", operator)
}

// repeatOperands matches String * count and count * String, where count is
// a Number or a Boolean (true counts once).
func repeatOperands(left, right object.Object) (string, int64, bool) {
	if s, ok := left.(*object.String); ok {
		if n, ok := repeatCount(right); ok {
			return s.Value, n, true
		}
	}
	if s, ok := right.(*object.String); ok {
		if n, ok := repeatCount(left); ok {
			return s.Value, n, true
		}
	}
	return "", 0, false
}

func repeatCount(obj object.Object) (int64, bool) {
	switch o := obj.(type) {
	case *object.Number:
		return o.Value.Int64(), true
	case *object.Boolean:
		if o.Value {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func evalStringMultiplication(s string, count int64) (object.Object, error) {
	if count <= 0 || s == "" {
		return &object.String{Value: ""}, nil
	}
	if count > maxRepeatLength/int64(len(s)) {
		return nil, errors.New("multiplier too large")
	}
	return &object.String{Value: strings.Repeat(s, int(count))}, nil
}

func (e *Evaluator) evalCallExpression(node *ast.CallExpression) (object.Object, error) {
	fn, err := e.Eval(node.Function)
	if err != nil {
		return nil, err
	}
	if !object.IsCallable(fn) {
		return nil, diag.Interpreter(node.Pos(), "calling a non-function")
	}

	args, err := e.evalExpressions(node.Arguments)
	if err != nil {
		return nil, err
	}

	result, err := e.applyFunction(fn, args)
	if err != nil {
		return nil, diag.Wrap(err, node.Pos())
	}
	return result, nil
}

func (e *Evaluator) applyFunction(fnObj object.Object, args []object.Object) (object.Object, error) {
	switch fn := fnObj.(type) {
	case *object.Builtin:
		return fn.Fn(e, args...)

	case *object.Function:
		if len(args) != len(fn.Parameters) {
			return nil, errors.New("Argument count mismatch")
		}
		if len(e.envStack) > maxCallDepth {
			return nil, errors.New("maximum recursion depth exceeded")
		}

		env := object.NewEnclosedEnvironment(fn.Env)
		for i, param := range fn.Parameters {
			env.Set(param.Value, args[i])
		}

		e.PushEnv(env)
		sig, err := e.execBlock(fn.Body)
		e.PopEnv()
		if err != nil {
			return nil, err
		}
		if sig.returned {
			return sig.value, nil
		}
		return NIL, nil
	}

	return nil, errors.New("calling a non-function")
}

func (e *Evaluator) evalIndexExpression(node *ast.IndexExpression) (object.Object, error) {
	left, err := e.Eval(node.Left)
	if err != nil {
		return nil, err
	}
	index, err := e.Eval(node.Index)
	if err != nil {
		return nil, err
	}

	if idx, ok := index.(*object.Number); ok {
		switch target := left.(type) {
		case *object.String:
			i, ok := normalizeIndex(idx.Value, len(target.Value))
			if !ok {
				return nil, diag.Interpreter(node.Pos(), "Index out of range")
			}
			return &object.String{Value: target.Value[i : i+1]}, nil
		case *object.List:
			i, ok := normalizeIndex(idx.Value, len(target.Elements))
			if !ok {
				return nil, diag.Interpreter(node.Pos(), "Index out of range")
			}
			return target.Elements[i], nil
		}
	}

	return nil, diag.Interpreter(node.Pos(), "Indexing is only supported on lists or strings with integer index")
}

// normalizeIndex maps a possibly negative index onto [0, length).
func normalizeIndex(v realnum.RealNumber, length int) (int, bool) {
	n := realnum.FromInt64(int64(length))
	if v.Sign() < 0 {
		v = v.Add(n)
	}
	if v.Sign() < 0 || v.Cmp(n) >= 0 {
		return 0, false
	}
	return int(v.Int64()), true
}

func (e *Evaluator) evalSliceExpression(node *ast.SliceExpression) (object.Object, error) {
	target, err := e.Eval(node.Left)
	if err != nil {
		return nil, err
	}
	var bounds [3]object.Object
	for i, exp := range []ast.Expression{node.Start, node.End, node.Step} {
		if exp == nil {
			continue
		}
		if bounds[i], err = e.Eval(exp); err != nil {
			return nil, err
		}
	}

	var length int
	switch t := target.(type) {
	case *object.String:
		length = len(t.Value)
	case *object.List:
		length = len(t.Elements)
	default:
		return nil, diag.Interpreter(node.Pos(), "Slicing is only supported on lists or strings")
	}

	indices, err := sliceIndices(bounds[0], bounds[1], bounds[2], length)
	if err != nil {
		return nil, diag.Wrap(err, node.Pos())
	}

	switch t := target.(type) {
	case *object.String:
		var out strings.Builder
		for _, i := range indices {
			out.WriteByte(t.Value[i])
		}
		return &object.String{Value: out.String()}, nil
	default:
		list := target.(*object.List)
		elements := make([]object.Object, 0, len(indices))
		for _, i := range indices {
			elements = append(elements, list.Elements[i])
		}
		return &object.List{Elements: elements}, nil
	}
}

// sliceIndices resolves optional slice bounds against length and returns the
// selected positions in order.
func sliceIndices(startObj, endObj, stepObj object.Object, length int) ([]int, error) {
	n := int64(length)

	step := int64(1)
	if stepObj != nil {
		s, ok := stepObj.(*object.Number)
		if !ok {
			return nil, errors.New("Slice step must be an integer")
		}
		step = s.Value.Int64()
		if step == 0 {
			return nil, errors.New("Slice step cannot be zero")
		}
	}

	// Omitted bounds take their defaults as-is; only given ones are wrapped.
	bound := func(obj object.Object, def int64, isEnd bool) (int64, error) {
		if obj == nil {
			return def, nil
		}
		v, ok := obj.(*object.Number)
		if !ok {
			return 0, errors.New("Slice indices must be integers")
		}
		return clampIndex(v.Value.Int64(), n, isEnd, step), nil
	}

	var start, end int64
	var err error
	if step > 0 {
		start, err = bound(startObj, 0, false)
		if err == nil {
			end, err = bound(endObj, n, true)
		}
	} else {
		start, err = bound(startObj, n-1, false)
		if err == nil {
			end, err = bound(endObj, -1, true)
		}
	}
	if err != nil {
		return nil, err
	}

	var indices []int
	if (step > 0 && start >= end) || (step < 0 && start <= end) {
		return indices, nil
	}
	for i := start; (step > 0 && i < end) || (step < 0 && i > end); i += step {
		if i >= 0 && i < n {
			indices = append(indices, int(i))
		}
	}
	return indices, nil
}

// clampIndex wraps a negative index and pins it to the iteration range. With
// a negative step the end bound may sit at -1, one before the first element.
func clampIndex(idx, length int64, isEnd bool, step int64) int64 {
	if idx < 0 {
		idx += length
	}
	if step > 0 {
		return min(max(idx, 0), length)
	}
	if isEnd {
		return min(max(idx, -1), length-1)
	}
	return min(max(idx, 0), length-1)
}
