package foreign

import (
	"itmoscript/internal/object"
)

func unpackString(obj object.Object) (string, bool) {
	s, ok := obj.(*object.String)
	if !ok {
		return "", false
	}
	return s.Value, true
}

// unpackHandle accepts only integral Numbers.
func unpackHandle(obj object.Object) (int64, bool) {
	n, ok := obj.(*object.Number)
	if !ok || !n.Value.IsInteger() {
		return 0, false
	}
	return n.Value.Int64(), true
}

// bindValue converts a script value into a database/sql argument.
func bindValue(obj object.Object) any {
	switch v := obj.(type) {
	case *object.Number:
		if v.Value.IsInteger() {
			return v.Value.Int64()
		}
		return v.Value.String()
	case *object.String:
		return v.Value
	case *object.Boolean:
		return v.Value
	case *object.Nil:
		return nil
	}
	return obj.Inspect()
}
