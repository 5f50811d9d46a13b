package value

// DeepCopy returns a fully independent object graph: no mutation performed
// through the result is observable through v. Cycles (a lambda capturing the
// tuple it lives in, mutually referencing closures) are preserved rather
// than re-traversed forever, using seen to remember nodes already copied.
// The returned graph is untracked; the caller (the heap) registers every new
// node it reaches before wiring it into a slot.
func DeepCopy(v *Object, seen map[*Object]*Object) *Object {
	if v == nil {
		return nil
	}
	if existing, ok := seen[v]; ok {
		return existing
	}

	clone := &Object{Kind: v.Kind, Aliases: append([]string(nil), v.Aliases...)}
	seen[v] = clone

	switch v.Kind {
	case KindInt:
		clone.I = v.I
	case KindFloat:
		clone.F = v.F
	case KindBool:
		clone.Bl = v.Bl
	case KindString:
		clone.S = v.S
	case KindBytes:
		clone.By = append([]byte(nil), v.By...)
	case KindRange:
		clone.Rng = v.Rng
	case KindKeyVal, KindNamed:
		clone.Pair = &PairData{Key: DeepCopy(v.Pair.Key, seen), Value: DeepCopy(v.Pair.Value, seen)}
	case KindTuple:
		elems := make([]*Object, len(v.Tup.Elems))
		for i, e := range v.Tup.Elems {
			elems[i] = DeepCopy(e, seen)
		}
		clone.Tup = &TupleData{Elems: elems}
	case KindLazyFilter:
		clone.Filt = &FilterData{Source: DeepCopy(v.Filt.Source, seen), Predicate: DeepCopy(v.Filt.Predicate, seen)}
	case KindWrapper:
		clone.Wrap = &WrapperData{Inner: DeepCopy(v.Wrap.Inner, seen)}
	case KindLambda:
		lam := &LambdaData{
			Params:     DeepCopy(v.Lam.Params, seen),
			Result:     DeepCopy(v.Lam.Result, seen),
			Entry:      v.Lam.Entry,
			Symbol:     v.Lam.Symbol,
			Capture:    DeepCopy(v.Lam.Capture, seen),
			Static:     v.Lam.Static,
			CodeBody:   v.Lam.CodeBody,   // Instructions objects are immutable, shared rather than copied
			NativeBody: v.Lam.NativeBody, // likewise a shared opaque handle
		}
		if v.Lam.Self != nil {
			lam.Self = DeepCopy(v.Lam.Self, seen)
		}
		clone.Lam = lam
	case KindInstructions, KindNativeModule:
		// Immutable/opaque; deep-copying a reference to them is a shared
		// reference to the same underlying code or handle.
		clone.Code = v.Code
		clone.Nat = v.Nat
	}
	return clone
}
