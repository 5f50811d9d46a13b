// Package value implements the polymorphic, tagged-variant object model that
// every runtime datum is built from: the Kind discriminator, the per-kind
// payload, the immutable alias list used for structural tagging, and the
// traversal contract the heap's garbage collector relies on to find owned
// references. Operators and conversions over this model live in ops.go;
// reflection helpers live in reflect.go.
package value

import "sentra/internal/bytecode"

// Kind discriminates the variant a value.Object carries.
type Kind uint8

const (
	KindInt Kind = iota
	KindFloat
	KindBool
	KindNull
	KindString
	KindBytes
	KindRange
	KindKeyVal
	KindNamed
	KindTuple
	KindLazyFilter
	KindWrapper
	KindInstructions
	KindNativeModule
	KindLambda
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "Int"
	case KindFloat:
		return "Float"
	case KindBool:
		return "Bool"
	case KindNull:
		return "Null"
	case KindString:
		return "String"
	case KindBytes:
		return "Bytes"
	case KindRange:
		return "Range"
	case KindKeyVal:
		return "KeyVal"
	case KindNamed:
		return "Named"
	case KindTuple:
		return "Tuple"
	case KindLazyFilter:
		return "LazyFilter"
	case KindWrapper:
		return "Wrapper"
	case KindInstructions:
		return "Instructions"
	case KindNativeModule:
		return "NativeModule"
	case KindLambda:
		return "Lambda"
	default:
		return "Unknown"
	}
}

// Color is the GC traversal color described by the heap's mark contract.
type Color uint8

const (
	White Color = iota
	Grey
	Black
)

// RangeVal is an inclusive-start, exclusive-end pair of integer endpoints.
type RangeVal struct {
	Start, End int64
}

// PairData backs both KeyVal and Named: an ordered pair of owned values. For
// Named, Key is constrained to KindString at the operations that care.
type PairData struct {
	Key, Value *Object
}

// TupleData is the payload of the one composite container kind.
type TupleData struct {
	Elems []*Object
}

// FilterData pairs a source container with a predicate lambda.
type FilterData struct {
	Source, Predicate *Object
}

// WrapperData is a one-slot cell that lets its interior kind change freely,
// bypassing the strong-typed-assignment rule for whatever holds the wrapper.
type WrapperData struct {
	Inner *Object
}

// NativeModuleData is an opaque handle to a host-loaded native module plus
// its symbol-resolution callback.
type NativeModuleData struct {
	Handle interface{}
	Lookup func(symbol string) (NativeCallable, bool)
}

// NativeCallable is the Go-side shape of a resolved native symbol: it
// receives the call's argument tuple and returns a result value or an error.
type NativeCallable func(args *Object) (*Object, *OpError)

// LambdaData is the central callable payload.
type LambdaData struct {
	Params     *Object // owned Tuple of Named, the declared/cached parameters
	Result     *Object // owned, cached result of the most recent call
	CodeBody   *Object // owned Instructions, nil if the body is native
	Entry      int     // instruction index within CodeBody
	NativeBody *Object // owned NativeModule, nil if the body is bytecode
	Symbol     string  // resolved via symbol("callable_"+first alias) for native bodies
	Capture    *Object // owned, usually a Tuple of Named
	Self       *Object // weak: followed by mark, never counted
	Static     bool    // static lambdas clone parameters per call; dynamic ones mutate in place
}

// Object is the single heap value type every kind is represented with. The
// GC bookkeeping fields (Refs, Color) are part of the value's own header, not
// a side table, matching how the data model describes them.
type Object struct {
	Kind    Kind
	Aliases []string

	I   int64
	F   float64
	Bl  bool
	S   string
	By  []byte
	Rng RangeVal

	Pair *PairData
	Tup  *TupleData
	Filt *FilterData
	Wrap *WrapperData
	Code *bytecode.Instructions
	Nat  *NativeModuleData
	Lam  *LambdaData

	Refs  int32
	Color Color
	id    uint64
}

// bare constructs an untracked Object: Refs and Color are zero until the
// heap takes ownership via Alloc. Pure value-model code (operators, copy,
// alias attachment) only ever produces bare objects; wiring them into the
// reference graph is the heap's job.
func bare(k Kind) *Object { return &Object{Kind: k} }

func NewInt(v int64) *Object       { o := bare(KindInt); o.I = v; return o }
func NewFloat(v float64) *Object   { o := bare(KindFloat); o.F = v; return o }
func NewBool(v bool) *Object       { o := bare(KindBool); o.Bl = v; return o }
func NewNull() *Object             { return bare(KindNull) }
func NewString(v string) *Object   { o := bare(KindString); o.S = v; return o }
func NewBytes(v []byte) *Object    { o := bare(KindBytes); o.By = v; return o }
func NewRange(start, end int64) *Object {
	o := bare(KindRange)
	o.Rng = RangeVal{Start: start, End: end}
	return o
}

func NewKeyVal(k, v *Object) *Object {
	o := bare(KindKeyVal)
	o.Pair = &PairData{Key: k, Value: v}
	return o
}

func NewNamed(name string, v *Object) *Object {
	o := bare(KindNamed)
	o.Pair = &PairData{Key: NewString(name), Value: v}
	return o
}

func NewTuple(elems []*Object) *Object {
	o := bare(KindTuple)
	o.Tup = &TupleData{Elems: elems}
	return o
}

func NewLazyFilter(source, predicate *Object) *Object {
	o := bare(KindLazyFilter)
	o.Filt = &FilterData{Source: source, Predicate: predicate}
	return o
}

func NewWrapper(inner *Object) *Object {
	o := bare(KindWrapper)
	o.Wrap = &WrapperData{Inner: inner}
	return o
}

func NewInstructionsValue(code *bytecode.Instructions) *Object {
	o := bare(KindInstructions)
	o.Code = code
	return o
}

func NewNativeModule(handle interface{}, lookup func(string) (NativeCallable, bool)) *Object {
	o := bare(KindNativeModule)
	o.Nat = &NativeModuleData{Handle: handle, Lookup: lookup}
	return o
}

func NewLambda(lam *LambdaData) *Object {
	o := bare(KindLambda)
	o.Lam = lam
	return o
}

// SetID/ID are used by the heap to stamp an allocation identity once an
// Object is tracked; they carry no meaning to the value model itself.
func (o *Object) SetID(id uint64) { o.id = id }
func (o *Object) ID() uint64      { return o.id }

// OwnedRefs implements the GC traversal contract: the set of references this
// object keeps alive. Self is deliberately excluded here; it is exposed
// separately via WeakRefs so mark can follow it without counting it.
func (o *Object) OwnedRefs() []*Object {
	switch o.Kind {
	case KindKeyVal, KindNamed:
		if o.Pair == nil {
			return nil
		}
		return []*Object{o.Pair.Key, o.Pair.Value}
	case KindTuple:
		if o.Tup == nil {
			return nil
		}
		return append([]*Object(nil), o.Tup.Elems...)
	case KindLazyFilter:
		if o.Filt == nil {
			return nil
		}
		return []*Object{o.Filt.Source, o.Filt.Predicate}
	case KindWrapper:
		if o.Wrap == nil {
			return nil
		}
		return []*Object{o.Wrap.Inner}
	case KindLambda:
		if o.Lam == nil {
			return nil
		}
		refs := make([]*Object, 0, 5)
		refs = append(refs, o.Lam.Params, o.Lam.Result, o.Lam.Capture)
		if o.Lam.CodeBody != nil {
			refs = append(refs, o.Lam.CodeBody)
		}
		if o.Lam.NativeBody != nil {
			refs = append(refs, o.Lam.NativeBody)
		}
		return refs
	default:
		return nil
	}
}

// WeakRefs returns non-owning references the mark phase must still follow to
// detect reachability (self-binding cycles), without counting them as making
// the target live on their own.
func (o *Object) WeakRefs() []*Object {
	if o.Kind == KindLambda && o.Lam != nil && o.Lam.Self != nil {
		return []*Object{o.Lam.Self}
	}
	return nil
}

// HasAlias reports whether a is present in the object's alias list.
func (o *Object) HasAlias(a string) bool {
	for _, existing := range o.Aliases {
		if existing == a {
			return true
		}
	}
	return false
}

// WithAlias returns a shallow clone carrying (a,) + aliasof(o). The alias
// list is immutable after attachment, so attaching never mutates o. A
// lambda's self binding is copied in only at bind time, so attaching an
// alias afterward — a shallow clone, same as this one — discards it.
func WithAlias(o *Object, a string) *Object {
	clone := dropSelfIfLambda(shallowClone(o))
	clone.Aliases = append([]string{a}, o.Aliases...)
	return clone
}

// Wipe returns a shallow clone with an empty alias list; o is unchanged.
// Discards a lambda's self binding for the same reason WithAlias does.
func Wipe(o *Object) *Object {
	clone := dropSelfIfLambda(shallowClone(o))
	clone.Aliases = nil
	return clone
}

// dropSelfIfLambda clears a cloned lambda's self binding in place.
func dropSelfIfLambda(clone *Object) *Object {
	if clone.Kind == KindLambda && clone.Lam != nil {
		lamCopy := *clone.Lam
		lamCopy.Self = nil
		clone.Lam = &lamCopy
	}
	return clone
}

// Copy returns a new owning allocation that shares the same owned references
// as o (a shallow copy: composites keep referencing the same elements).
func Copy(o *Object) *Object {
	clone := shallowClone(o)
	clone.Aliases = append([]string(nil), o.Aliases...)
	return clone
}

func shallowClone(o *Object) *Object {
	clone := *o
	clone.id = 0
	clone.Refs = 0
	clone.Color = White
	return &clone
}
