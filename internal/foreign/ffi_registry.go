// Package foreign holds builtins that reach outside the interpreter.
package foreign

import (
	"itmoscript/internal/object"
)

func GetForeignFunctions() map[string]*object.Builtin {
	return map[string]*object.Builtin{
		"db_connect":  fnDbConnect(),
		"db_open":     fnDbOpen(),
		"db_query":    fnDbQuery(),
		"db_columns":  fnDbColumns(),
		"db_exec":     fnDbExec(),
		"db_begin":    fnDbBegin(),
		"db_commit":   fnDbCommit(),
		"db_rollback": fnDbRollback(),
		"db_close":    fnDbClose(),
	}
}
