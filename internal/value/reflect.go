package value

// TypeOf returns the String name of v's kind.
func TypeOf(v *Object) *Object { return NewString(v.Kind.String()) }

// AliasOf returns the alias list as a Tuple of Strings, most recently
// attached first.
func AliasOf(v *Object) *Object {
	elems := make([]*Object, len(v.Aliases))
	for i, a := range v.Aliases {
		elems[i] = NewString(a)
	}
	return NewTuple(elems)
}

// KeyOf implements `keyof` over KeyVal/Named/Lambda/LazyFilter.
func KeyOf(v *Object) (*Object, *OpError) {
	switch v.Kind {
	case KindKeyVal, KindNamed:
		return v.Pair.Key, nil
	case KindLambda:
		return v.Lam.Params, nil
	case KindLazyFilter:
		return v.Filt.Predicate, nil
	default:
		return nil, typeErr("keyof undefined for kind " + v.Kind.String())
	}
}

// ValueOf implements `valueof` over KeyVal/Named/Lambda/LazyFilter.
func ValueOf(v *Object) (*Object, *OpError) {
	switch v.Kind {
	case KindKeyVal, KindNamed:
		return v.Pair.Value, nil
	case KindLambda:
		if v.Lam.Result == nil {
			return NewNull(), nil
		}
		return v.Lam.Result, nil
	case KindLazyFilter:
		return v.Filt.Source, nil
	default:
		return nil, typeErr("valueof undefined for kind " + v.Kind.String())
	}
}

// CaptureOf implements `captureof` over Lambda.
func CaptureOf(v *Object) (*Object, *OpError) {
	if v.Kind != KindLambda {
		return nil, typeErr("captureof undefined for kind " + v.Kind.String())
	}
	if v.Lam.Capture == nil {
		return NewNull(), nil
	}
	return v.Lam.Capture, nil
}

// LengthOf implements `lengthof`/`len` over Tuple/String/Bytes/Range.
func LengthOf(v *Object) (*Object, *OpError) {
	switch v.Kind {
	case KindTuple:
		return NewInt(int64(len(v.Tup.Elems))), nil
	case KindString:
		return NewInt(int64(len([]rune(v.S)))), nil
	case KindBytes:
		return NewInt(int64(len(v.By))), nil
	case KindRange:
		n := v.Rng.End - v.Rng.Start
		if n < 0 {
			n = 0
		}
		return NewInt(n), nil
	default:
		return nil, typeErr("lengthof undefined for kind " + v.Kind.String())
	}
}
