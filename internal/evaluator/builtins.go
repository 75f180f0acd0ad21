package evaluator

import (
	"errors"
	"fmt"
	"io"
	"itmoscript/internal/object"
	"itmoscript/internal/realnum"
	"math/rand"
	"regexp"
	"slices"
	"strings"
)

var builtins = map[string]object.BuiltinFunction{
	"print":   funcPrint,
	"println": funcPrintLn,
	"read":    funcRead,

	// numbers
	"abs":       numberFunc("abs", func(n realnum.RealNumber) (realnum.RealNumber, error) { return n.Abs(), nil }),
	"ceil":      numberFunc("ceil", func(n realnum.RealNumber) (realnum.RealNumber, error) { return n.Ceil(), nil }),
	"floor":     numberFunc("floor", func(n realnum.RealNumber) (realnum.RealNumber, error) { return n.Floor(), nil }),
	"round":     numberFunc("round", func(n realnum.RealNumber) (realnum.RealNumber, error) { return n.Round(), nil }),
	"sqrt":      numberFunc("sqrt", realnum.RealNumber.Sqrt),
	"rnd":       funcRnd,
	"parse_num": funcParseNum,
	"to_string": funcToString,
	"range":     funcRange,

	// strings
	"len":     funcLen,
	"lower":   funcLower,
	"upper":   funcUpper,
	"split":   funcSplit,
	"join":    funcJoin,
	"replace": funcReplace,

	// lists
	"push":   funcPush,
	"pop":    funcPop,
	"insert": funcInsert,
	"remove": funcRemove,
	"sort":   funcSort,
}

// registerBuiltins binds every builtin, core and foreign, into env.
func registerBuiltins(env *object.Environment) {
	for name, fn := range builtins {
		env.Set(name, &object.Builtin{Name: name, Fn: fn})
	}
	for name, fn := range getForeignFunctions() {
		env.Set(name, fn)
	}
}

func writeArgs(w io.Writer, args []object.Object) {
	for _, arg := range args {
		io.WriteString(w, arg.Inspect())
	}
}

func funcPrint(ctx object.EvaluatorContext, args ...object.Object) (object.Object, error) {
	writeArgs(ctx.Output(), args)
	return NIL, nil
}

func funcPrintLn(ctx object.EvaluatorContext, args ...object.Object) (object.Object, error) {
	writeArgs(ctx.Output(), args)
	io.WriteString(ctx.Output(), "\n")
	return NIL, nil
}

var listInputPattern = regexp.MustCompile(`^\[\s*(.*?)\s*\]$`)

// funcRead reads one line of input and returns it as a Number, a List of
// comma-separated items, or a String. End of input yields nil.
func funcRead(ctx object.EvaluatorContext, args ...object.Object) (object.Object, error) {
	if len(args) != 0 {
		return nil, errors.New("read() takes no arguments")
	}

	line, ok := ctx.ReadLine()
	if !ok {
		return NIL, nil
	}

	if n, err := realnum.Parse(line); err == nil {
		return object.NewNumber(n), nil
	}

	if m := listInputPattern.FindStringSubmatch(line); m != nil {
		elements := []object.Object{}
		for _, item := range strings.Split(m[1], ",") {
			item = strings.Trim(item, " \t\n\r")
			if item == "" {
				continue
			}
			if n, err := realnum.Parse(item); err == nil {
				elements = append(elements, object.NewNumber(n))
			} else {
				elements = append(elements, &object.String{Value: item})
			}
		}
		return &object.List{Elements: elements}, nil
	}

	return &object.String{Value: line}, nil
}

func numberFunc(name string, op func(realnum.RealNumber) (realnum.RealNumber, error)) object.BuiltinFunction {
	return func(ctx object.EvaluatorContext, args ...object.Object) (object.Object, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("%s() requires one argument", name)
		}
		n, ok := args[0].(*object.Number)
		if !ok {
			return nil, fmt.Errorf("%s() requires a number", name)
		}
		result, err := op(n.Value)
		if err != nil {
			return nil, err
		}
		return object.NewNumber(result), nil
	}
}

func funcRnd(ctx object.EvaluatorContext, args ...object.Object) (object.Object, error) {
	if len(args) != 1 {
		return nil, errors.New("rnd() requires one argument")
	}
	n, ok := args[0].(*object.Number)
	if !ok {
		return nil, errors.New("rnd() requires a number")
	}
	if n.Value.Sign() < 0 {
		return nil, errors.New("rnd() requires non-negative integer")
	}
	bound := n.Value.Int64()
	if bound == 0 {
		return nil, errors.New("rnd() requires a positive integer")
	}
	return object.NewInt(rand.Int63n(bound)), nil
}

func funcParseNum(ctx object.EvaluatorContext, args ...object.Object) (object.Object, error) {
	if len(args) != 1 {
		return nil, errors.New("parse_num() requires one argument")
	}
	s, ok := args[0].(*object.String)
	if !ok {
		return nil, errors.New("parse_num() requires a string")
	}
	n, err := realnum.Parse(s.Value)
	if err != nil {
		return NIL, nil
	}
	return object.NewNumber(n), nil
}

func funcToString(ctx object.EvaluatorContext, args ...object.Object) (object.Object, error) {
	if len(args) != 1 {
		return nil, errors.New("to_string() requires one argument")
	}
	return &object.String{Value: args[0].Inspect()}, nil
}

func funcRange(ctx object.EvaluatorContext, args ...object.Object) (object.Object, error) {
	if len(args) < 1 || len(args) > 3 {
		return nil, errors.New("range() expects 1, 2, or 3 arguments")
	}
	nums := make([]realnum.RealNumber, len(args))
	for i, arg := range args {
		n, ok := arg.(*object.Number)
		if !ok {
			return nil, errors.New("range() arguments must be integers")
		}
		nums[i] = n.Value
	}

	start, end, step := realnum.Zero, nums[0], realnum.One
	switch len(nums) {
	case 2:
		start, end = nums[0], nums[1]
	case 3:
		start, end, step = nums[0], nums[1], nums[2]
	}
	if step.IsZero() {
		return nil, errors.New("range() step must not be zero")
	}

	elements := []object.Object{}
	for i := start; (step.Sign() > 0 && i.Cmp(end) < 0) || (step.Sign() < 0 && i.Cmp(end) > 0); i = i.Add(step) {
		elements = append(elements, object.NewNumber(i))
	}
	return &object.List{Elements: elements}, nil
}

func funcLen(ctx object.EvaluatorContext, args ...object.Object) (object.Object, error) {
	if len(args) != 1 {
		return nil, errors.New("len() takes one argument")
	}
	switch arg := args[0].(type) {
	case *object.String:
		return object.NewInt(int64(len(arg.Value))), nil
	case *object.List:
		return object.NewInt(int64(len(arg.Elements))), nil
	}
	return nil, errors.New("len() argument must be string or list")
}

// Case mapping is ASCII only, like the byte-indexed strings it works on.
func funcLower(ctx object.EvaluatorContext, args ...object.Object) (object.Object, error) {
	if len(args) != 1 {
		return nil, errors.New("lower() takes one argument")
	}
	s, ok := args[0].(*object.String)
	if !ok {
		return nil, errors.New("lower() argument must be a string")
	}
	return &object.String{Value: mapASCII(s.Value, 'A', 'Z', 'a'-'A')}, nil
}

func funcUpper(ctx object.EvaluatorContext, args ...object.Object) (object.Object, error) {
	if len(args) != 1 {
		return nil, errors.New("upper() takes one argument")
	}
	s, ok := args[0].(*object.String)
	if !ok {
		return nil, errors.New("upper() argument must be a string")
	}
	return &object.String{Value: mapASCII(s.Value, 'a', 'z', 'A'-'a')}, nil
}

func mapASCII(s string, lo, hi byte, delta int) string {
	b := []byte(s)
	for i, c := range b {
		if c >= lo && c <= hi {
			b[i] = byte(int(c) + delta)
		}
	}
	return string(b)
}

func funcSplit(ctx object.EvaluatorContext, args ...object.Object) (object.Object, error) {
	if len(args) != 2 {
		return nil, errors.New("split() takes two arguments")
	}
	s, ok1 := args[0].(*object.String)
	sep, ok2 := args[1].(*object.String)
	if !ok1 || !ok2 {
		return nil, errors.New("split() arguments must be strings")
	}

	var parts []string
	if sep.Value == "" {
		parts = make([]string, len(s.Value))
		for i := range s.Value {
			parts[i] = s.Value[i : i+1]
		}
	} else {
		parts = strings.Split(s.Value, sep.Value)
	}

	elements := make([]object.Object, len(parts))
	for i, p := range parts {
		elements[i] = &object.String{Value: p}
	}
	return &object.List{Elements: elements}, nil
}

func funcJoin(ctx object.EvaluatorContext, args ...object.Object) (object.Object, error) {
	if len(args) != 2 {
		return nil, errors.New("join() takes two arguments")
	}
	list, ok1 := args[0].(*object.List)
	sep, ok2 := args[1].(*object.String)
	if !ok1 || !ok2 {
		return nil, errors.New("join() requires (list, string)")
	}
	parts := make([]string, len(list.Elements))
	for i, el := range list.Elements {
		parts[i] = el.Inspect()
	}
	return &object.String{Value: strings.Join(parts, sep.Value)}, nil
}

func funcReplace(ctx object.EvaluatorContext, args ...object.Object) (object.Object, error) {
	if len(args) != 3 {
		return nil, errors.New("replace() takes three arguments")
	}
	s, ok1 := args[0].(*object.String)
	old, ok2 := args[1].(*object.String)
	repl, ok3 := args[2].(*object.String)
	if !ok1 || !ok2 || !ok3 {
		return nil, errors.New("replace() requires string arguments")
	}
	if old.Value == "" {
		return s, nil
	}
	return &object.String{Value: strings.ReplaceAll(s.Value, old.Value, repl.Value)}, nil
}

func funcPush(ctx object.EvaluatorContext, args ...object.Object) (object.Object, error) {
	if len(args) != 2 {
		return nil, errors.New("push() takes two arguments")
	}
	list, ok := args[0].(*object.List)
	if !ok {
		return nil, errors.New("push() first argument must be a list")
	}
	list.Elements = append(list.Elements, args[1])
	return NIL, nil
}

func funcPop(ctx object.EvaluatorContext, args ...object.Object) (object.Object, error) {
	if len(args) != 1 {
		return nil, errors.New("pop() takes one argument")
	}
	list, ok := args[0].(*object.List)
	if !ok {
		return nil, errors.New("pop() argument must be a list")
	}
	if len(list.Elements) == 0 {
		return nil, errors.New("pop() from empty list")
	}
	last := list.Elements[len(list.Elements)-1]
	list.Elements = list.Elements[:len(list.Elements)-1]
	return last, nil
}

func funcInsert(ctx object.EvaluatorContext, args ...object.Object) (object.Object, error) {
	if len(args) != 3 {
		return nil, errors.New("insert() takes three arguments")
	}
	list, ok1 := args[0].(*object.List)
	index, ok2 := args[1].(*object.Number)
	if !ok1 || !ok2 {
		return nil, errors.New("insert() requires (list, int, value)")
	}
	idx := index.Value.Int64()
	if idx < 0 || idx > int64(len(list.Elements)) {
		return nil, errors.New("insert() index out of range")
	}
	list.Elements = slices.Insert(list.Elements, int(idx), args[2])
	return NIL, nil
}

func funcRemove(ctx object.EvaluatorContext, args ...object.Object) (object.Object, error) {
	if len(args) != 2 {
		return nil, errors.New("remove() takes two arguments")
	}
	list, ok1 := args[0].(*object.List)
	index, ok2 := args[1].(*object.Number)
	if !ok1 || !ok2 {
		return nil, errors.New("remove() requires (list, int)")
	}
	idx := index.Value.Int64()
	if idx < 0 || idx >= int64(len(list.Elements)) {
		return nil, errors.New("remove() index out of range")
	}
	list.Elements = slices.Delete(list.Elements, int(idx), int(idx)+1)
	return NIL, nil
}

// funcSort sorts a list of Numbers or a list of Strings in place.
func funcSort(ctx object.EvaluatorContext, args ...object.Object) (object.Object, error) {
	if len(args) != 1 {
		return nil, errors.New("sort() takes one argument")
	}
	list, ok := args[0].(*object.List)
	if !ok {
		return nil, errors.New("sort() requires a list")
	}
	if len(list.Elements) == 0 {
		return NIL, nil
	}

	want := list.Elements[0].Type()
	if want != object.NUMBER_OBJ && want != object.STRING_OBJ {
		return nil, errors.New("sort() requires all elements to be of the same type")
	}
	for _, el := range list.Elements {
		if el.Type() != want {
			return nil, errors.New("sort() requires all elements to be of the same type")
		}
	}

	if want == object.NUMBER_OBJ {
		slices.SortStableFunc(list.Elements, func(a, b object.Object) int {
			return a.(*object.Number).Value.Cmp(b.(*object.Number).Value)
		})
	} else {
		slices.SortStableFunc(list.Elements, func(a, b object.Object) int {
			return strings.Compare(a.(*object.String).Value, b.(*object.String).Value)
		})
	}
	return NIL, nil
}
