// Package dbmod wires modernc.org/sqlite — a pure-Go, cgo-free SQL
// driver — into the runtime as a native module, exposing a
// database/sql connection registry as a guest-callable open/exec/query
// surface.
package dbmod

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"sentra/internal/builtin"

	_ "modernc.org/sqlite"
)

type connPool struct {
	mu   sync.Mutex
	next int64
	live map[int64]*sql.DB
}

func newConnPool() *connPool { return &connPool{live: make(map[int64]*sql.DB)} }

func (p *connPool) put(db *sql.DB) int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.next++
	p.live[p.next] = db
	return p.next
}

func (p *connPool) get(id int64) (*sql.DB, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	db, ok := p.live[id]
	return db, ok
}

// Register adds `db_open(path)`, `db_exec(handle, sql)`, and
// `db_query(handle, sql)`. db_query returns a Tuple of row-Tuples, each a
// Tuple of Named(column, value) pairs, matching the data model's
// "dictionary is a tuple of Named" convention.
func Register(reg *builtin.Registry) {
	pool := newConnPool()
	mod := builtin.NewModule("db")

	mod.Register("db_open", func(args builtin.GenericRef, heap *builtin.HeapHandle) (builtin.GenericRef, error) {
		path, ok := stringArg(args, 0)
		if !ok {
			return builtin.Null, errors.New("db_open requires one String argument")
		}
		db, err := sql.Open("sqlite", path)
		if err != nil {
			return builtin.Null, err
		}
		if err := db.Ping(); err != nil {
			db.Close()
			return builtin.Null, err
		}
		return heap.NewInt64(pool.put(db)), nil
	})

	mod.Register("db_exec", func(args builtin.GenericRef, heap *builtin.HeapHandle) (builtin.GenericRef, error) {
		db, query, err := handleAndQuery(pool, args)
		if err != nil {
			return builtin.Null, err
		}
		res, err := db.Exec(query)
		if err != nil {
			return builtin.Null, err
		}
		n, _ := res.RowsAffected()
		return heap.NewInt64(n), nil
	})

	mod.Register("db_query", func(args builtin.GenericRef, heap *builtin.HeapHandle) (builtin.GenericRef, error) {
		db, query, err := handleAndQuery(pool, args)
		if err != nil {
			return builtin.Null, err
		}
		rows, err := db.Query(query)
		if err != nil {
			return builtin.Null, err
		}
		defer rows.Close()

		cols, err := rows.Columns()
		if err != nil {
			return builtin.Null, err
		}

		var rowRefs []builtin.GenericRef
		for rows.Next() {
			raw := make([]interface{}, len(cols))
			ptrs := make([]interface{}, len(cols))
			for i := range raw {
				ptrs[i] = &raw[i]
			}
			if err := rows.Scan(ptrs...); err != nil {
				return builtin.Null, err
			}
			var fields []builtin.GenericRef
			for i, col := range cols {
				fields = append(fields, heap.NewNamed(col, cellRef(heap, raw[i])))
			}
			rowRefs = append(rowRefs, heap.NewTuple(fields))
		}
		return heap.NewTuple(rowRefs), nil
	})

	reg.RegisterModule(mod, "db_open", "db_exec", "db_query")
}

func cellRef(heap *builtin.HeapHandle, v interface{}) builtin.GenericRef {
	switch x := v.(type) {
	case int64:
		return heap.NewInt64(x)
	case float64:
		return heap.NewFloat64(x)
	case string:
		return heap.NewString(x)
	case []byte:
		return heap.NewBytes(x)
	case bool:
		return heap.NewBool(x)
	case nil:
		return heap.NewNull()
	default:
		return heap.NewString(fmt.Sprintf("%v", x))
	}
}

func handleAndQuery(pool *connPool, args builtin.GenericRef) (*sql.DB, string, error) {
	id, ok := intArg(args, 0)
	q, ok2 := stringArg(args, 1)
	if !ok || !ok2 {
		return nil, "", errors.New("requires (Int handle, String sql)")
	}
	db, found := pool.get(id)
	if !found {
		return nil, "", fmt.Errorf("unknown database handle %d", id)
	}
	return db, q, nil
}

func stringArg(args builtin.GenericRef, i int) (string, bool) {
	if !builtin.IsTuple(args) || builtin.TupleLen(args) <= i {
		return "", false
	}
	v := builtin.TupleGet(args, i)
	if !builtin.IsString(v) {
		return "", false
	}
	return builtin.GetStringValue(v), true
}

func intArg(args builtin.GenericRef, i int) (int64, bool) {
	if !builtin.IsTuple(args) || builtin.TupleLen(args) <= i {
		return 0, false
	}
	v := builtin.TupleGet(args, i)
	if !builtin.IsInt(v) {
		return 0, false
	}
	return builtin.GetInt64Value(v), true
}
