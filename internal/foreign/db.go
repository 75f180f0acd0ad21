package foreign

import (
	"database/sql"
	"errors"
	"fmt"
	"itmoscript/internal/object"
	"itmoscript/internal/realnum"
	"log/slog"
	"strconv"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

var (
	dbMu           sync.Mutex
	dbConnections  = map[int64]*sql.DB{}
	dbTransactions = map[int64]*sql.Tx{}
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	Query(query string, args ...any) (*sql.Rows, error)
	Exec(query string, args ...any) (sql.Result, error)
}

func fnDbConnect() *object.Builtin {
	return &object.Builtin{
		Name: "db_connect",
		Fn: func(ctx object.EvaluatorContext, args ...object.Object) (object.Object, error) {
			if len(args) != 2 {
				return nil, errors.New("db_connect() takes two arguments: driver, dsn")
			}
			driver, ok1 := unpackString(args[0])
			dsn, ok2 := unpackString(args[1])
			if !ok1 || !ok2 {
				return nil, errors.New("db_connect() arguments must be strings")
			}
			return connect(ctx, driver, dsn)
		},
	}
}

func fnDbOpen() *object.Builtin {
	return &object.Builtin{
		Name: "db_open",
		Fn: func(ctx object.EvaluatorContext, args ...object.Object) (object.Object, error) {
			if len(args) != 1 {
				return nil, errors.New("db_open() takes one argument")
			}
			name, ok := unpackString(args[0])
			if !ok {
				return nil, errors.New("db_open() argument must be a string")
			}
			cfg := ctx.GetConfiguration()
			db, ok := cfg.Database(name)
			if !ok {
				return nil, fmt.Errorf("unknown database '%s'", name)
			}
			return connect(ctx, db.Driver, db.DSN)
		},
	}
}

func connect(ctx object.EvaluatorContext, driver, dsn string) (object.Object, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open connection: %v", err)
	}

	id := ctx.NextHandleID()
	dbMu.Lock()
	dbConnections[id] = db
	dbMu.Unlock()
	slog.Debug("database connected", "driver", driver, "handle", id)
	return object.NewInt(id), nil
}

// target resolves a handle to its open transaction, or to its pool when no
// transaction is in progress.
func target(handle object.Object) (int64, queryer, error) {
	id, ok := unpackHandle(handle)
	if !ok {
		return 0, nil, errors.New("invalid connection handle")
	}
	dbMu.Lock()
	defer dbMu.Unlock()
	db, ok := dbConnections[id]
	if !ok {
		return 0, nil, errors.New("invalid connection handle")
	}
	if tx, ok := dbTransactions[id]; ok {
		return id, tx, nil
	}
	return id, db, nil
}

func statementArgs(fn string, args []object.Object) (string, []any, error) {
	if len(args) < 2 {
		return "", nil, fmt.Errorf("%s() takes at least two arguments: handle, sql", fn)
	}
	query, ok := unpackString(args[1])
	if !ok {
		return "", nil, fmt.Errorf("%s() sql must be a string", fn)
	}
	params := make([]any, len(args)-2)
	for i, arg := range args[2:] {
		params[i] = bindValue(arg)
	}
	return query, params, nil
}

func fnDbQuery() *object.Builtin {
	return &object.Builtin{
		Name: "db_query",
		Fn: func(ctx object.EvaluatorContext, args ...object.Object) (object.Object, error) {
			query, params, err := statementArgs("db_query", args)
			if err != nil {
				return nil, err
			}
			_, q, err := target(args[0])
			if err != nil {
				return nil, err
			}

			rows, err := q.Query(query, params...)
			if err != nil {
				return nil, fmt.Errorf("query failed: %v", err)
			}
			defer rows.Close()

			return renderRows(rows)
		},
	}
}

func fnDbColumns() *object.Builtin {
	return &object.Builtin{
		Name: "db_columns",
		Fn: func(ctx object.EvaluatorContext, args ...object.Object) (object.Object, error) {
			query, params, err := statementArgs("db_columns", args)
			if err != nil {
				return nil, err
			}
			_, q, err := target(args[0])
			if err != nil {
				return nil, err
			}

			rows, err := q.Query(query, params...)
			if err != nil {
				return nil, fmt.Errorf("query failed: %v", err)
			}
			defer rows.Close()

			columns, err := rows.Columns()
			if err != nil {
				return nil, fmt.Errorf("query failed: %v", err)
			}
			names := make([]object.Object, len(columns))
			for i, c := range columns {
				names[i] = &object.String{Value: c}
			}
			return &object.List{Elements: names}, nil
		},
	}
}

func fnDbExec() *object.Builtin {
	return &object.Builtin{
		Name: "db_exec",
		Fn: func(ctx object.EvaluatorContext, args ...object.Object) (object.Object, error) {
			query, params, err := statementArgs("db_exec", args)
			if err != nil {
				return nil, err
			}
			_, q, err := target(args[0])
			if err != nil {
				return nil, err
			}

			result, err := q.Exec(query, params...)
			if err != nil {
				return nil, fmt.Errorf("exec failed: %v", err)
			}

			// Drivers that do not track these report an error; both read as 0.
			affected, _ := result.RowsAffected()
			lastID, _ := result.LastInsertId()
			return &object.List{Elements: []object.Object{object.NewInt(affected), object.NewInt(lastID)}}, nil
		},
	}
}

func fnDbBegin() *object.Builtin {
	return &object.Builtin{
		Name: "db_begin",
		Fn: func(ctx object.EvaluatorContext, args ...object.Object) (object.Object, error) {
			if len(args) != 1 {
				return nil, errors.New("db_begin() takes one argument")
			}
			id, ok := unpackHandle(args[0])
			if !ok {
				return nil, errors.New("invalid connection handle")
			}

			dbMu.Lock()
			defer dbMu.Unlock()
			db, ok := dbConnections[id]
			if !ok {
				return nil, errors.New("invalid connection handle")
			}
			if _, open := dbTransactions[id]; open {
				return nil, errors.New("transaction already in progress")
			}
			tx, err := db.Begin()
			if err != nil {
				return nil, fmt.Errorf("failed to begin transaction: %v", err)
			}
			dbTransactions[id] = tx
			return args[0], nil
		},
	}
}

func endTransaction(name string, finish func(*sql.Tx) error) *object.Builtin {
	return &object.Builtin{
		Name: name,
		Fn: func(ctx object.EvaluatorContext, args ...object.Object) (object.Object, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("%s() takes one argument", name)
			}
			id, ok := unpackHandle(args[0])
			if !ok {
				return nil, errors.New("invalid transaction handle")
			}

			dbMu.Lock()
			defer dbMu.Unlock()
			tx, ok := dbTransactions[id]
			if !ok {
				return nil, errors.New("invalid transaction handle")
			}
			delete(dbTransactions, id)
			if err := finish(tx); err != nil {
				return nil, fmt.Errorf("%s failed: %v", name, err)
			}
			return args[0], nil
		},
	}
}

func fnDbCommit() *object.Builtin {
	return endTransaction("db_commit", (*sql.Tx).Commit)
}

func fnDbRollback() *object.Builtin {
	return endTransaction("db_rollback", (*sql.Tx).Rollback)
}

func fnDbClose() *object.Builtin {
	return &object.Builtin{
		Name: "db_close",
		Fn: func(ctx object.EvaluatorContext, args ...object.Object) (object.Object, error) {
			if len(args) != 1 {
				return nil, errors.New("db_close() takes one argument")
			}
			id, ok := unpackHandle(args[0])
			if !ok {
				return nil, errors.New("invalid connection handle")
			}

			dbMu.Lock()
			defer dbMu.Unlock()
			db, ok := dbConnections[id]
			if !ok {
				return nil, errors.New("invalid connection handle")
			}
			if tx, ok := dbTransactions[id]; ok {
				tx.Rollback()
				delete(dbTransactions, id)
			}
			delete(dbConnections, id)
			if err := db.Close(); err != nil {
				return nil, fmt.Errorf("close failed: %v", err)
			}
			slog.Debug("database closed", "handle", id)
			return object.NIL, nil
		},
	}
}

func renderRows(rows *sql.Rows) (object.Object, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("query failed: %v", err)
	}
	resultRows := []object.Object{}

	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("query failed: %v", err)
		}

		row := make([]object.Object, len(columns))
		for i, v := range values {
			row[i] = mapValue(v)
		}
		resultRows = append(resultRows, &object.List{Elements: row})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query failed: %v", err)
	}
	return &object.List{Elements: resultRows}, nil
}

func mapValue(v any) object.Object {
	if v == nil {
		return object.NIL
	}
	switch x := v.(type) {
	case int64:
		return object.NewInt(x)
	case float64:
		n, err := realnum.Parse(strconv.FormatFloat(x, 'f', -1, 64))
		if err != nil {
			return &object.String{Value: strconv.FormatFloat(x, 'g', -1, 64)}
		}
		return object.NewNumber(n)
	case []byte:
		return &object.String{Value: string(x)}
	case string:
		return &object.String{Value: x}
	case bool:
		return object.NativeBoolToBooleanObject(x)
	case time.Time:
		return &object.String{Value: x.Format(time.RFC3339)}
	default:
		return &object.String{Value: fmt.Sprintf("%v", v)}
	}
}
