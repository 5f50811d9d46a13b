// Package builtin implements the Built-in Registry and the native
// module ABI: the mapping from name to native callable that is populated
// once at task-root construction, the `Register` extension point external
// hosts use to add their own callables, and the generic-reference /
// heap-handle bridge a loaded native module uses to manipulate guest
// values without seeing the value model's internal representation.
package builtin

import (
	"sentra/internal/memory"
	"sentra/internal/value"
)

// GenericRef is a two-pointer fat handle: a data pointer
// plus a vtable pointer. There is no real foreign ABI to cross in a
// pure-Go runtime, so the "vtable" is simply the Kind the data pointer was
// stamped with at hand-out time, which is enough for the is_*/get_*
// family below to behave like the documented opaque handle without a
// native module ever touching *value.Object directly.
type GenericRef struct {
	data  *value.Object
	vkind value.Kind
}

// Null is the zero GenericRef, returned by accessors that have nothing to
// report (e.g. GetKey on a value with no key side).
var Null = GenericRef{}

func ref(o *value.Object) GenericRef {
	if o == nil {
		return Null
	}
	return GenericRef{data: o, vkind: o.Kind}
}

// Valid reports whether r carries a live data pointer.
func (r GenericRef) Valid() bool { return r.data != nil }

// Object unwraps the fat handle back to the underlying value — used only
// at the edge where this package hands a result to the interpreter.
func (r GenericRef) Object() *value.Object { return r.data }

// HeapHandle is the second argument every native callable receives: it is
// the native module's only way to allocate, pin, and adjust reference
// counts on guest objects.
type HeapHandle struct {
	heap *memory.Heap
}

func newHeapHandle(h *memory.Heap) *HeapHandle { return &HeapHandle{heap: h} }

func (h *HeapHandle) track(o *value.Object) GenericRef {
	h.heap.Alloc(o)
	h.heap.Retain(o)
	return ref(o)
}

// --- Constructors (`new_*`) ---

func (h *HeapHandle) NewInt64(v int64) GenericRef     { return h.track(value.NewInt(v)) }
func (h *HeapHandle) NewFloat64(v float64) GenericRef { return h.track(value.NewFloat(v)) }
func (h *HeapHandle) NewBool(v bool) GenericRef       { return h.track(value.NewBool(v)) }
func (h *HeapHandle) NewString(v string) GenericRef   { return h.track(value.NewString(v)) }
func (h *HeapHandle) NewNull() GenericRef             { return h.track(value.NewNull()) }
func (h *HeapHandle) NewBytes(v []byte) GenericRef    { return h.track(value.NewBytes(v)) }

func (h *HeapHandle) NewTuple(elems []GenericRef) GenericRef {
	objs := make([]*value.Object, len(elems))
	for i, e := range elems {
		objs[i] = e.data
		h.heap.Retain(e.data)
	}
	return h.track(value.NewTuple(objs))
}

func (h *HeapHandle) NewKeyVal(k, v GenericRef) GenericRef {
	h.heap.Retain(k.data)
	h.heap.Retain(v.data)
	return h.track(value.NewKeyVal(k.data, v.data))
}

func (h *HeapHandle) NewNamed(name string, v GenericRef) GenericRef {
	h.heap.Retain(v.data)
	return h.track(value.NewNamed(name, v.data))
}

func (h *HeapHandle) NewWrapper(inner GenericRef) GenericRef {
	h.heap.Retain(inner.data)
	return h.track(value.NewWrapper(inner.data))
}

// --- Predicates (`is_*`) ---

func IsInt(r GenericRef) bool    { return r.Valid() && r.vkind == value.KindInt }
func IsFloat(r GenericRef) bool  { return r.Valid() && r.vkind == value.KindFloat }
func IsBool(r GenericRef) bool   { return r.Valid() && r.vkind == value.KindBool }
func IsNull(r GenericRef) bool   { return r.Valid() && r.vkind == value.KindNull }
func IsString(r GenericRef) bool { return r.Valid() && r.vkind == value.KindString }
func IsBytes(r GenericRef) bool  { return r.Valid() && r.vkind == value.KindBytes }
func IsTuple(r GenericRef) bool  { return r.Valid() && r.vkind == value.KindTuple }

// --- Extractors (`get_*_value`) ---

func GetInt64Value(r GenericRef) int64    { return r.data.I }
func GetFloat64Value(r GenericRef) float64 { return r.data.F }
func GetBoolValue(r GenericRef) bool      { return r.data.Bl }
func GetStringValue(r GenericRef) string  { return r.data.S }
func GetBytesValue(r GenericRef) []byte   { return r.data.By }

// --- Tuple mutators ---

// TupleAppend grows t in place (t must be an owning reference the native
// module itself constructed via NewTuple; a guest-owned tuple should never
// be mutated this way outside of the documented in-place operators).
func (h *HeapHandle) TupleAppend(t GenericRef, v GenericRef) {
	h.heap.Retain(v.data)
	t.data.Tup.Elems = append(t.data.Tup.Elems, v.data)
}

func TupleGet(t GenericRef, i int) GenericRef {
	if i < 0 || i >= len(t.data.Tup.Elems) {
		return Null
	}
	return ref(t.data.Tup.Elems[i])
}

func TupleLen(t GenericRef) int { return len(t.data.Tup.Elems) }

// --- Generic accessors (`get_value`, `get_key`, `set_value`, `get_len`) ---

// GetValue reads the value side of a KeyVal/Named/Wrapper.
func GetValue(r GenericRef) GenericRef {
	switch r.vkind {
	case value.KindKeyVal, value.KindNamed:
		return ref(r.data.Pair.Value)
	case value.KindWrapper:
		return ref(r.data.Wrap.Inner)
	default:
		return Null
	}
}

// GetKey reads the key side of a KeyVal/Named.
func GetKey(r GenericRef) GenericRef {
	if r.vkind == value.KindKeyVal || r.vkind == value.KindNamed {
		return ref(r.data.Pair.Key)
	}
	return Null
}

// SetValue writes the value side of a KeyVal/Named/Wrapper in place.
func (h *HeapHandle) SetValue(r GenericRef, v GenericRef) {
	h.heap.Retain(v.data)
	switch r.vkind {
	case value.KindKeyVal, value.KindNamed:
		old := r.data.Pair.Value
		r.data.Pair.Value = v.data
		h.heap.Release(old)
	case value.KindWrapper:
		old := r.data.Wrap.Inner
		r.data.Wrap.Inner = v.data
		h.heap.Release(old)
	}
}

// GetLen mirrors `lengthof` for the handle types a native module can see.
func GetLen(r GenericRef) int {
	n, err := value.LengthOf(r.data)
	if err != nil {
		return 0
	}
	return int(n.I)
}

// --- Ref-count hooks ---

func (h *HeapHandle) CloneRef(r GenericRef) GenericRef {
	h.heap.Retain(r.data)
	return r
}

func (h *HeapHandle) DropRef(r GenericRef) {
	h.heap.Release(r.data)
}

func (h *HeapHandle) Pin(r GenericRef)   { h.heap.Pin(r.data) }
func (h *HeapHandle) Unpin(r GenericRef) { h.heap.Unpin(r.data) }
