package evaluator

import (
	"itmoscript/internal/foreign"
	"sync"
)

// getForeignFunctions builds the database builtins once per process.
var getForeignFunctions = sync.OnceValue(foreign.GetForeignFunctions)
