package foreign

import (
	"io"
	"itmoscript/internal/object"
	"itmoscript/internal/realnum"
	"itmoscript/internal/util"
	"strings"
	"sync/atomic"
	"testing"
)

var testHandles atomic.Int64

type testContext struct {
	cfg util.Configuration
}

func (c *testContext) Output() io.Writer                    { return io.Discard }
func (c *testContext) ReadLine() (string, bool)             { return "", false }
func (c *testContext) GetConfiguration() util.Configuration { return c.cfg }
func (c *testContext) NextHandleID() int64                  { return testHandles.Add(1) }

func str(s string) object.Object { return &object.String{Value: s} }

func call(t *testing.T, ctx object.EvaluatorContext, name string, args ...object.Object) object.Object {
	t.Helper()
	fn, ok := GetForeignFunctions()[name]
	if !ok {
		t.Fatalf("no foreign function %s", name)
	}
	result, err := fn.Fn(ctx, args...)
	if err != nil {
		t.Fatalf("%s failed: %v", name, err)
	}
	return result
}

func callErr(t *testing.T, ctx object.EvaluatorContext, name string, args ...object.Object) error {
	t.Helper()
	_, err := GetForeignFunctions()[name].Fn(ctx, args...)
	if err == nil {
		t.Fatalf("%s should have failed", name)
	}
	return err
}

func memoryDSN(t *testing.T) string {
	return "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
}

func TestQueryAndExec(t *testing.T) {
	ctx := &testContext{cfg: util.DefaultConfiguration()}
	h := call(t, ctx, "db_connect", str("sqlite3"), str(memoryDSN(t)))
	defer call(t, ctx, "db_close", h)

	call(t, ctx, "db_exec", h, str("CREATE TABLE people (id INTEGER PRIMARY KEY, name TEXT, score REAL, note TEXT)"))

	res := call(t, ctx, "db_exec", h, str("INSERT INTO people (name, score, note) VALUES (?, ?, ?)"),
		str("ada"), object.NewNumber(mustParse(t, "9.5")), object.NIL)
	if res.Inspect() != "[1, 1]" {
		t.Fatalf("exec result wrong. got=%s", res.Inspect())
	}
	call(t, ctx, "db_exec", h, str("INSERT INTO people (name, score, note) VALUES (?, ?, ?)"),
		str("bob"), object.NewInt(7), str("late"))

	rows := call(t, ctx, "db_query", h, str("SELECT id, name, score, note FROM people WHERE score > ? ORDER BY id"), object.NewInt(1))
	if rows.Inspect() != "[[1, ada, 9.5, ], [2, bob, 7, late]]" {
		t.Fatalf("rows wrong. got=%s", rows.Inspect())
	}
	first := rows.(*object.List).Elements[0].(*object.List)
	if first.Elements[3] != object.NIL {
		t.Errorf("NULL should map to nil. got=%T", first.Elements[3])
	}

	cols := call(t, ctx, "db_columns", h, str("SELECT id, name FROM people"))
	if cols.Inspect() != "[id, name]" {
		t.Errorf("columns wrong. got=%s", cols.Inspect())
	}
}

func TestTransactions(t *testing.T) {
	ctx := &testContext{cfg: util.DefaultConfiguration()}
	h := call(t, ctx, "db_connect", str("sqlite3"), str(memoryDSN(t)))
	defer call(t, ctx, "db_close", h)

	call(t, ctx, "db_exec", h, str("CREATE TABLE t (v INTEGER)"))

	call(t, ctx, "db_begin", h)
	call(t, ctx, "db_exec", h, str("INSERT INTO t VALUES (1)"))
	call(t, ctx, "db_rollback", h)

	call(t, ctx, "db_begin", h)
	call(t, ctx, "db_exec", h, str("INSERT INTO t VALUES (2)"))
	call(t, ctx, "db_commit", h)

	rows := call(t, ctx, "db_query", h, str("SELECT v FROM t"))
	if rows.Inspect() != "[[2]]" {
		t.Fatalf("rows wrong. got=%s", rows.Inspect())
	}

	err := callErr(t, ctx, "db_commit", h)
	if err.Error() != "invalid transaction handle" {
		t.Errorf("wrong error: %v", err)
	}
}

func TestOpenNamedDatabase(t *testing.T) {
	cfg := util.DefaultConfiguration()
	cfg.Databases["main"] = util.DatabaseConfig{Driver: "sqlite3", DSN: memoryDSN(t)}
	ctx := &testContext{cfg: cfg}

	h := call(t, ctx, "db_open", str("main"))
	call(t, ctx, "db_close", h)

	err := callErr(t, ctx, "db_open", str("missing"))
	if err.Error() != "unknown database 'missing'" {
		t.Errorf("wrong error: %v", err)
	}
}

func TestHandleErrors(t *testing.T) {
	ctx := &testContext{cfg: util.DefaultConfiguration()}

	tests := []struct {
		name    string
		args    []object.Object
		message string
	}{
		{"db_query", []object.Object{object.NewInt(-5), str("SELECT 1")}, "invalid connection handle"},
		{"db_exec", []object.Object{str("x"), str("SELECT 1")}, "invalid connection handle"},
		{"db_close", []object.Object{object.NewInt(-5)}, "invalid connection handle"},
		{"db_rollback", []object.Object{object.NewInt(-5)}, "invalid transaction handle"},
		{"db_connect", []object.Object{str("nope"), str("")}, "failed to open connection: "},
	}

	for i, tt := range tests {
		err := callErr(t, ctx, tt.name, tt.args...)
		if !strings.HasPrefix(err.Error(), tt.message) {
			t.Errorf("tests[%d] - %s wrong error. expected prefix %q, got %q", i, tt.name, tt.message, err)
		}
	}

	h := call(t, ctx, "db_connect", str("sqlite3"), str(memoryDSN(t)))
	defer call(t, ctx, "db_close", h)
	if err := callErr(t, ctx, "db_query", h, str("SELEC nonsense")); !strings.HasPrefix(err.Error(), "query failed: ") {
		t.Errorf("wrong error: %v", err)
	}
	if err := callErr(t, ctx, "db_exec", h, str("DROP TABLE missing")); !strings.HasPrefix(err.Error(), "exec failed: ") {
		t.Errorf("wrong error: %v", err)
	}
}

func TestBindValue(t *testing.T) {
	tests := []struct {
		input    object.Object
		expected any
	}{
		{object.NewInt(42), int64(42)},
		{object.NewNumber(mustParse(t, "0.25")), "0.25"},
		{str("s"), "s"},
		{object.TRUE, true},
		{object.NIL, nil},
	}

	for i, tt := range tests {
		if got := bindValue(tt.input); got != tt.expected {
			t.Errorf("tests[%d] - wrong binding. expected=%#v, got=%#v", i, tt.expected, got)
		}
	}
}

func mustParse(t *testing.T, s string) realnum.RealNumber {
	t.Helper()
	n, err := realnum.Parse(s)
	if err != nil {
		t.Fatal(err)
	}
	return n
}
