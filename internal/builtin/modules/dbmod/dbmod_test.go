package dbmod

import (
	"testing"

	"sentra/internal/builtin"
	"sentra/internal/memory"
	"sentra/internal/value"
)

func callable(t *testing.T, reg *builtin.Registry, name string) value.NativeCallable {
	t.Helper()
	lam, ok := reg.Bindings()[name]
	if !ok {
		t.Fatalf("Register did not expose %q", name)
	}
	fn, ok := lam.Lam.NativeBody.Nat.Lookup(name)
	if !ok {
		t.Fatalf("%q did not resolve its own signature", name)
	}
	return fn
}

func TestOpenExecQueryRoundTrip(t *testing.T) {
	h := memory.NewHeap()
	reg := builtin.New(h, nil)
	Register(reg)

	open := callable(t, reg, "db_open")
	exec := callable(t, reg, "db_exec")
	query := callable(t, reg, "db_query")

	handle, opErr := open(value.NewTuple([]*value.Object{value.NewString(":memory:")}))
	if opErr != nil {
		t.Fatalf("db_open error: %+v", opErr)
	}

	create := "create table items (name text, qty int)"
	if _, opErr := exec(value.NewTuple([]*value.Object{handle, value.NewString(create)})); opErr != nil {
		t.Fatalf("db_exec create error: %+v", opErr)
	}

	insert := "insert into items (name, qty) values ('bolt', 5)"
	n, opErr := exec(value.NewTuple([]*value.Object{handle, value.NewString(insert)}))
	if opErr != nil {
		t.Fatalf("db_exec insert error: %+v", opErr)
	}
	if n.I != 1 {
		t.Fatalf("rows affected = %d, want 1", n.I)
	}

	rows, opErr := query(value.NewTuple([]*value.Object{handle, value.NewString("select name, qty from items")}))
	if opErr != nil {
		t.Fatalf("db_query error: %+v", opErr)
	}
	if rows.Kind != value.KindTuple || len(rows.Tup.Elems) != 1 {
		t.Fatalf("rows = %+v, want one row", rows)
	}
	row := rows.Tup.Elems[0]
	if row.Tup.Elems[0].Pair.Key.S != "name" || row.Tup.Elems[0].Pair.Value.S != "bolt" {
		t.Fatalf("row[0] = %+v, want Named(\"name\", \"bolt\")", row.Tup.Elems[0])
	}
	if row.Tup.Elems[1].Pair.Value.I != 5 {
		t.Fatalf("row[1] = %+v, want qty 5", row.Tup.Elems[1])
	}
}

func TestQueryOnUnknownHandleErrors(t *testing.T) {
	h := memory.NewHeap()
	reg := builtin.New(h, nil)
	Register(reg)

	query := callable(t, reg, "db_query")
	_, opErr := query(value.NewTuple([]*value.Object{value.NewInt(999), value.NewString("select 1")}))
	if opErr == nil {
		t.Fatalf("expected an error for an unopened handle")
	}
}
