package builtin

import (
	"testing"

	"sentra/internal/memory"
)

func TestHeapHandleConstructorsTrackIntoHeap(t *testing.T) {
	h := memory.NewHeap()
	hh := newHeapHandle(h)

	r := hh.NewInt64(7)
	if !IsInt(r) || GetInt64Value(r) != 7 {
		t.Fatalf("NewInt64 produced %+v", r)
	}
	if h.LiveCount() != 1 {
		t.Fatalf("LiveCount = %d, want 1 after one tracked allocation", h.LiveCount())
	}
}

func TestGenericRefPredicatesAndExtractors(t *testing.T) {
	h := memory.NewHeap()
	hh := newHeapHandle(h)

	cases := []struct {
		name  string
		r     GenericRef
		check func(GenericRef) bool
	}{
		{"int", hh.NewInt64(1), IsInt},
		{"float", hh.NewFloat64(1.5), IsFloat},
		{"bool", hh.NewBool(true), IsBool},
		{"string", hh.NewString("x"), IsString},
		{"null", hh.NewNull(), IsNull},
		{"bytes", hh.NewBytes([]byte{1, 2}), IsBytes},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if !c.check(c.r) {
				t.Fatalf("%s: predicate false for %+v", c.name, c.r)
			}
		})
	}

	if s := GetStringValue(hh.NewString("hello")); s != "hello" {
		t.Fatalf("GetStringValue = %q, want hello", s)
	}
	if b := GetBoolValue(hh.NewBool(true)); !b {
		t.Fatalf("GetBoolValue = false, want true")
	}
}

func TestNullRefIsInvalidAndPredicatesReportFalse(t *testing.T) {
	if Null.Valid() {
		t.Fatalf("the zero GenericRef must not be valid")
	}
	if IsInt(Null) || IsString(Null) || IsTuple(Null) {
		t.Fatalf("no predicate should report true for Null")
	}
}

func TestTupleAppendGetLen(t *testing.T) {
	h := memory.NewHeap()
	hh := newHeapHandle(h)

	tup := hh.NewTuple(nil)
	if TupleLen(tup) != 0 {
		t.Fatalf("TupleLen on an empty tuple = %d, want 0", TupleLen(tup))
	}

	hh.TupleAppend(tup, hh.NewInt64(10))
	hh.TupleAppend(tup, hh.NewInt64(20))
	if TupleLen(tup) != 2 {
		t.Fatalf("TupleLen = %d, want 2", TupleLen(tup))
	}
	if GetInt64Value(TupleGet(tup, 1)) != 20 {
		t.Fatalf("TupleGet(1) = %+v, want 20", TupleGet(tup, 1))
	}
	if TupleGet(tup, 5) != Null {
		t.Fatalf("TupleGet out of range should return Null")
	}
}

func TestGetValueGetKeyAcrossPairKinds(t *testing.T) {
	h := memory.NewHeap()
	hh := newHeapHandle(h)

	kv := hh.NewKeyVal(hh.NewString("k"), hh.NewInt64(3))
	if GetKey(kv).data.S != "k" {
		t.Fatalf("GetKey on a KeyVal did not return the key side")
	}
	if GetInt64Value(GetValue(kv)) != 3 {
		t.Fatalf("GetValue on a KeyVal did not return the value side")
	}

	named := hh.NewNamed("n", hh.NewInt64(9))
	if GetKey(named).data.S != "n" {
		t.Fatalf("GetKey on a Named did not return its name")
	}

	wrapped := hh.NewWrapper(hh.NewInt64(5))
	if GetValue(wrapped).data.I != 5 {
		t.Fatalf("GetValue on a Wrapper did not unwrap its inner value")
	}
	if GetKey(wrapped) != Null {
		t.Fatalf("GetKey on a Wrapper should be Null, it has no key side")
	}
}

func TestSetValueSwapsTheValueSide(t *testing.T) {
	h := memory.NewHeap()
	hh := newHeapHandle(h)

	named := hh.NewNamed("n", hh.NewInt64(1))
	hh.SetValue(named, hh.NewInt64(2))
	if GetInt64Value(GetValue(named)) != 2 {
		t.Fatalf("SetValue did not update the value side")
	}
}

func TestCloneRefAndDropRefAdjustRefcount(t *testing.T) {
	h := memory.NewHeap()
	hh := newHeapHandle(h)

	r := hh.NewInt64(1)
	hh.CloneRef(r)
	if h.LiveCount() != 1 {
		t.Fatalf("CloneRef should not allocate a new object, just bump the count")
	}

	hh.DropRef(r)
	if h.LiveCount() != 1 {
		t.Fatalf("one DropRef after one CloneRef should still leave the object owned once")
	}
	hh.DropRef(r)
	if h.LiveCount() != 0 {
		t.Fatalf("the second DropRef should free the object")
	}
}

func TestPinSurvivesMarkDespiteNoRootProvider(t *testing.T) {
	h := memory.NewHeap()
	hh := newHeapHandle(h)

	// Nothing roots r (no AddRootProvider call), so an ordinary mark would
	// treat it as unreachable and free it regardless of its strong count.
	r := hh.NewInt64(1)
	hh.Pin(r)

	h.Mark()
	if h.LiveCount() != 1 {
		t.Fatalf("pinned object was collected by a concurrent mark")
	}

	hh.Unpin(r)
	h.Mark()
	if h.LiveCount() != 0 {
		t.Fatalf("object survived a mark after losing its only pin")
	}
}

func TestGetLenMirrorsLengthOf(t *testing.T) {
	h := memory.NewHeap()
	hh := newHeapHandle(h)

	tup := hh.NewTuple([]GenericRef{hh.NewInt64(1), hh.NewInt64(2), hh.NewInt64(3)})
	if GetLen(tup) != 3 {
		t.Fatalf("GetLen = %d, want 3", GetLen(tup))
	}
	if GetLen(hh.NewInt64(1)) != 0 {
		t.Fatalf("GetLen on a value with no length should fall back to 0")
	}
}
