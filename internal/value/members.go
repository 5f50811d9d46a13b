package value

import "strconv"

// Slot is a uniform, addressable reference to wherever a value actually
// lives: a scope binding, a tuple element, or a KeyVal/Named's value side.
// Every assignable location in the language goes through a Slot so strong
// typing is enforced in exactly one place.
type Slot struct {
	get func() *Object
	set func(*Object)
}

func (s Slot) Get() *Object { return s.get() }

// SlotFromFuncs builds a Slot over caller-supplied get/set closures, used by
// the execution-context package to expose scope bindings as ordinary slots.
func SlotFromFuncs(get func() *Object, set func(*Object)) Slot {
	return Slot{get: get, set: set}
}

// Assign enforces strong-typed assignment: the incoming kind must match the
// slot's current kind, with the single widening allowance from Int to Float.
// replaced is the object the slot no longer references (nil when the write
// mutated the existing object in place, as the Bytes <- KeyVal escape hatch
// does, in which case the caller must not release the slot's old value).
func (s Slot) Assign(v *Object) (replaced *Object, inPlace bool, err *OpError) {
	old := s.get()
	if old != nil {
		// Bytes <- KeyVal is the documented in-place slice-write escape
		// hatch: it mutates old.By rather than replacing the slot.
		if old.Kind == KindBytes && v.Kind == KindKeyVal {
			if opErr := AssignBytesSlice(old, v); opErr != nil {
				return nil, false, opErr
			}
			return nil, true, nil
		}
		if !KindsAssignable(old.Kind, v.Kind) {
			return nil, false, typeErr("cannot assign " + v.Kind.String() + " into a slot holding " + old.Kind.String())
		}
		if old.Kind == KindFloat && v.Kind == KindInt {
			v = NewFloat(asFloat(v))
		}
	}
	s.set(v)
	return old, false, nil
}

// Define replaces the slot unconditionally, bypassing the kind check; it
// backs `:=` which always succeeds regardless of what, if anything, was
// there before.
func (s Slot) Define(v *Object) *Object {
	old := s.get()
	s.set(v)
	return old
}

// KindsAssignable reports whether a value of valKind may be written into a
// slot currently holding slotKind.
func KindsAssignable(slotKind, valKind Kind) bool {
	if slotKind == valKind {
		return true
	}
	return slotKind == KindFloat && valKind == KindInt
}

// TupleSlot returns an assignable Slot for element i of a Tuple.
func TupleSlot(t *Object, i int) (Slot, *OpError) {
	if t.Kind != KindTuple {
		return Slot{}, typeErr("index target is not a Tuple")
	}
	if i < 0 || i >= len(t.Tup.Elems) {
		return Slot{}, indexErr("tuple index out of range: " + strconv.Itoa(i))
	}
	return Slot{
		get: func() *Object { return t.Tup.Elems[i] },
		set: func(v *Object) { t.Tup.Elems[i] = v },
	}, nil
}

// PairValueSlot returns an assignable Slot for the value half of a
// KeyVal/Named pair.
func PairValueSlot(pair *Object) Slot {
	return Slot{
		get: func() *Object { return pair.Pair.Value },
		set: func(v *Object) { pair.Pair.Value = v },
	}
}

// GetMember scans a Tuple left-to-right for a KeyVal/Named entry whose key
// equals name, returning an assignable slot onto its value.
func GetMember(t *Object, name string) (Slot, *OpError) {
	if t.Kind != KindTuple {
		return Slot{}, typeErr("member access target is not a Tuple")
	}
	for _, el := range t.Tup.Elems {
		if (el.Kind == KindKeyVal || el.Kind == KindNamed) && el.Pair.Key.Kind == KindString && el.Pair.Key.S == name {
			return PairValueSlot(el), nil
		}
	}
	return Slot{}, lookupErr("no member named " + name)
}

// Index implements v[i] for Tuple/String/Bytes/Range, by integer or Range.
func Index(v, idx *Object) (*Object, *OpError) {
	switch v.Kind {
	case KindTuple:
		return indexTuple(v, idx)
	case KindString:
		return indexString(v, idx)
	case KindBytes:
		return indexBytes(v, idx)
	case KindRange:
		if idx.Kind != KindInt {
			return nil, typeErr("range index must be Int")
		}
		result := v.Rng.Start + idx.I
		if result < v.Rng.Start || result >= v.Rng.End {
			return nil, indexErr("range index out of bounds")
		}
		return NewInt(result), nil
	default:
		return nil, typeErr("value of kind " + v.Kind.String() + " is not indexable")
	}
}

func normalizeRange(length int, idx *Object) (int, int, *OpError) {
	switch idx.Kind {
	case KindInt:
		i := int(idx.I)
		if i < 0 || i >= length {
			return 0, 0, indexErr("index out of range")
		}
		return i, i + 1, nil
	case KindRange:
		start, end := int(idx.Rng.Start), int(idx.Rng.End)
		if start < 0 || end > length || start > end {
			return 0, 0, indexErr("slice out of range")
		}
		return start, end, nil
	default:
		return 0, 0, typeErr("index must be Int or Range")
	}
}

func indexTuple(v, idx *Object) (*Object, *OpError) {
	start, end, err := normalizeRange(len(v.Tup.Elems), idx)
	if err != nil {
		return nil, err
	}
	if idx.Kind == KindInt {
		return v.Tup.Elems[start], nil
	}
	return NewTuple(append([]*Object(nil), v.Tup.Elems[start:end]...)), nil
}

func indexString(v, idx *Object) (*Object, *OpError) {
	runes := []rune(v.S)
	start, end, err := normalizeRange(len(runes), idx)
	if err != nil {
		return nil, err
	}
	return NewString(string(runes[start:end])), nil
}

func indexBytes(v, idx *Object) (*Object, *OpError) {
	start, end, err := normalizeRange(len(v.By), idx)
	if err != nil {
		return nil, err
	}
	if idx.Kind == KindInt {
		return NewInt(int64(v.By[start])), nil
	}
	out := make([]byte, end-start)
	copy(out, v.By[start:end])
	return NewBytes(out), nil
}

// SetIndex implements in-place assignment through v[i] = rhs for Tuple
// (whole-element replacement) and, with rhs passed directly to
// setIndexBytes, the documented Bytes slice-write matrix.
func SetIndex(v, idx, rhs *Object) *OpError {
	switch v.Kind {
	case KindTuple:
		i, ok := indexAsInt(idx)
		if !ok || i < 0 || i >= len(v.Tup.Elems) {
			return indexErr("tuple index out of range")
		}
		v.Tup.Elems[i] = rhs
		return nil
	case KindBytes:
		return setIndexBytes(v, idx, rhs)
	default:
		return typeErr("value of kind " + v.Kind.String() + " does not support index assignment")
	}
}

func indexAsInt(idx *Object) (int, bool) {
	if idx.Kind != KindInt {
		return 0, false
	}
	return int(idx.I), true
}

// setIndexBytes implements `bytes[i] = x` through the generic OpSetIndex
// path by delegating to the same write matrix as AssignBytesSlice.
func setIndexBytes(b, idx, rhs *Object) *OpError {
	return writeBytesRegion(b, idx, rhs)
}

// AssignBytesSlice implements `bytes = (index|range) : value`, the
// documented in-place slice assignment reached through OpAssign when the
// slot holds Bytes and the right-hand side is a KeyVal.
func AssignBytesSlice(b *Object, kv *Object) *OpError {
	if kv.Kind != KindKeyVal {
		return typeErr("bytes slice assignment requires a KeyVal right-hand side")
	}
	return writeBytesRegion(b, kv.Pair.Key, kv.Pair.Value)
}

// writeBytesRegion implements the {index,range} x {int,string,bytes} write
// matrix. An Int value broadcasts across the whole target region without
// changing the buffer's length; a String or Bytes value splices its content
// into the region, resizing the buffer as needed.
func writeBytesRegion(b, idx, rhs *Object) *OpError {
	var start, end int
	switch idx.Kind {
	case KindInt:
		start = int(idx.I)
		end = start + 1
	case KindRange:
		start = int(idx.Rng.Start)
		end = int(idx.Rng.End)
	default:
		return typeErr("bytes index must be Int or Range")
	}
	if start < 0 || end > len(b.By) || start > end {
		return indexErr("bytes slice write out of range")
	}

	switch rhs.Kind {
	case KindInt:
		if rhs.I < 0 || rhs.I > 255 {
			return arithErr("byte value out of range: " + strconv.FormatInt(rhs.I, 10))
		}
		for i := start; i < end; i++ {
			b.By[i] = byte(rhs.I)
		}
		return nil
	case KindString, KindBytes:
		var replacement []byte
		if rhs.Kind == KindString {
			replacement = []byte(rhs.S)
		} else {
			replacement = rhs.By
		}
		out := make([]byte, 0, len(b.By)-(end-start)+len(replacement))
		out = append(out, b.By[:start]...)
		out = append(out, replacement...)
		out = append(out, b.By[end:]...)
		b.By = out
		return nil
	default:
		return typeErr("invalid byte write value of kind " + rhs.Kind.String())
	}
}
