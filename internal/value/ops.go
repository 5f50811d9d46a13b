package value

import "math"

func isNumeric(o *Object) bool { return o.Kind == KindInt || o.Kind == KindFloat }

func asFloat(o *Object) float64 {
	if o.Kind == KindInt {
		return float64(o.I)
	}
	return o.F
}

// Add implements `+` across the documented kind combinations.
func Add(a, b *Object) (*Object, *OpError) {
	switch {
	case a.Kind == KindInt && b.Kind == KindInt:
		return NewInt(a.I + b.I), nil
	case isNumeric(a) && isNumeric(b):
		return NewFloat(asFloat(a) + asFloat(b)), nil
	case a.Kind == KindString && b.Kind == KindString:
		return NewString(a.S + b.S), nil
	case a.Kind == KindBytes && b.Kind == KindBytes:
		out := make([]byte, 0, len(a.By)+len(b.By))
		out = append(out, a.By...)
		out = append(out, b.By...)
		return NewBytes(out), nil
	case a.Kind == KindTuple && b.Kind == KindTuple:
		out := make([]*Object, 0, len(a.Tup.Elems)+len(b.Tup.Elems))
		out = append(out, a.Tup.Elems...)
		out = append(out, b.Tup.Elems...)
		return NewTuple(out), nil
	case a.Kind == KindRange && b.Kind == KindInt:
		return NewRange(a.Rng.Start+b.I, a.Rng.End+b.I), nil
	case a.Kind == KindRange && b.Kind == KindRange:
		return NewRange(a.Rng.Start+b.Rng.Start, a.Rng.End+b.Rng.End), nil
	default:
		return nil, typeErr("unsupported operand kinds for +: " + a.Kind.String() + ", " + b.Kind.String())
	}
}

func arith(a, b *Object, name string, intOp func(x, y int64) int64, floatOp func(x, y float64) float64) (*Object, *OpError) {
	switch {
	case a.Kind == KindInt && b.Kind == KindInt:
		return NewInt(intOp(a.I, b.I)), nil
	case isNumeric(a) && isNumeric(b):
		return NewFloat(floatOp(asFloat(a), asFloat(b))), nil
	default:
		return nil, typeErr("unsupported operand kinds for " + name + ": " + a.Kind.String() + ", " + b.Kind.String())
	}
}

func Sub(a, b *Object) (*Object, *OpError) {
	return arith(a, b, "-", func(x, y int64) int64 { return x - y }, func(x, y float64) float64 { return x - y })
}

func Mul(a, b *Object) (*Object, *OpError) {
	return arith(a, b, "*", func(x, y int64) int64 { return x * y }, func(x, y float64) float64 { return x * y })
}

// Div always yields Float, including for two Ints, per the data model.
func Div(a, b *Object) (*Object, *OpError) {
	if !isNumeric(a) || !isNumeric(b) {
		return nil, typeErr("unsupported operand kinds for /: " + a.Kind.String() + ", " + b.Kind.String())
	}
	divisor := asFloat(b)
	if divisor == 0 {
		return nil, arithErr("division by zero")
	}
	return NewFloat(asFloat(a) / divisor), nil
}

func Mod(a, b *Object) (*Object, *OpError) {
	if a.Kind == KindInt && b.Kind == KindInt {
		if b.I == 0 {
			return nil, arithErr("division by zero")
		}
		return NewInt(a.I % b.I), nil
	}
	if isNumeric(a) && isNumeric(b) {
		bf := asFloat(b)
		if bf == 0 {
			return nil, arithErr("division by zero")
		}
		return NewFloat(math.Mod(asFloat(a), bf)), nil
	}
	return nil, typeErr("unsupported operand kinds for %: " + a.Kind.String() + ", " + b.Kind.String())
}

func Pow(a, b *Object) (*Object, *OpError) {
	if !isNumeric(a) || !isNumeric(b) {
		return nil, typeErr("unsupported operand kinds for **: " + a.Kind.String() + ", " + b.Kind.String())
	}
	if a.Kind == KindInt && b.Kind == KindInt && b.I >= 0 {
		result := int64(1)
		base := a.I
		exp := b.I
		for exp > 0 {
			if exp&1 == 1 {
				result *= base
			}
			base *= base
			exp >>= 1
		}
		return NewInt(result), nil
	}
	return NewFloat(math.Pow(asFloat(a), asFloat(b))), nil
}

func Neg(a *Object) (*Object, *OpError) {
	switch a.Kind {
	case KindInt:
		return NewInt(-a.I), nil
	case KindFloat:
		return NewFloat(-a.F), nil
	default:
		return nil, typeErr("unsupported operand kind for unary -: " + a.Kind.String())
	}
}

// Equal is deep structural equality for composites, exact-bit comparison for
// floats (see the Design Notes decision on float equality).
func Equal(a, b *Object) bool {
	if a == b {
		return true
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindInt:
		return a.I == b.I
	case KindFloat:
		return math.Float64bits(a.F) == math.Float64bits(b.F)
	case KindBool:
		return a.Bl == b.Bl
	case KindNull:
		return true
	case KindString:
		return a.S == b.S
	case KindBytes:
		if len(a.By) != len(b.By) {
			return false
		}
		for i := range a.By {
			if a.By[i] != b.By[i] {
				return false
			}
		}
		return true
	case KindRange:
		return a.Rng == b.Rng
	case KindKeyVal, KindNamed:
		return Equal(a.Pair.Key, b.Pair.Key) && Equal(a.Pair.Value, b.Pair.Value)
	case KindTuple:
		if len(a.Tup.Elems) != len(b.Tup.Elems) {
			return false
		}
		for i := range a.Tup.Elems {
			if !Equal(a.Tup.Elems[i], b.Tup.Elems[i]) {
				return false
			}
		}
		return true
	case KindWrapper:
		return Equal(a.Wrap.Inner, b.Wrap.Inner)
	default:
		// Lambda, LazyFilter, Instructions, NativeModule compare by identity.
		return a == b
	}
}

// Compare returns -1, 0, 1 for the kinds ordering is defined on.
func Compare(a, b *Object) (int, *OpError) {
	switch {
	case isNumeric(a) && isNumeric(b):
		af, bf := asFloat(a), asFloat(b)
		switch {
		case af < bf:
			return -1, nil
		case af > bf:
			return 1, nil
		default:
			return 0, nil
		}
	case a.Kind == KindString && b.Kind == KindString:
		return stringsCompare(a.S, b.S), nil
	case a.Kind == KindBytes && b.Kind == KindBytes:
		return bytesCompare(a.By, b.By), nil
	case a.Kind == KindRange && b.Kind == KindRange:
		if a.Rng.Start != b.Rng.Start {
			return stringsCompareInt(a.Rng.Start, b.Rng.Start), nil
		}
		return stringsCompareInt(a.Rng.End, b.Rng.End), nil
	default:
		return 0, typeErr("ordering undefined for kinds: " + a.Kind.String() + ", " + b.Kind.String())
	}
}

func stringsCompare(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func stringsCompareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func bytesCompare(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// Bitwise/logical operators. On Int they are bitwise, on Bool logical, and a
// mixed Int x Bool pair promotes the Bool operand to Int.
func asIntForBitwise(o *Object) (int64, bool) {
	switch o.Kind {
	case KindInt:
		return o.I, true
	case KindBool:
		if o.Bl {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

func And(a, b *Object) (*Object, *OpError) {
	if a.Kind == KindBool && b.Kind == KindBool {
		return NewBool(a.Bl && b.Bl), nil
	}
	ai, ok1 := asIntForBitwise(a)
	bi, ok2 := asIntForBitwise(b)
	if !ok1 || !ok2 {
		return nil, typeErr("unsupported operand kinds for and: " + a.Kind.String() + ", " + b.Kind.String())
	}
	return NewInt(ai & bi), nil
}

func Or(a, b *Object) (*Object, *OpError) {
	if a.Kind == KindBool && b.Kind == KindBool {
		return NewBool(a.Bl || b.Bl), nil
	}
	ai, ok1 := asIntForBitwise(a)
	bi, ok2 := asIntForBitwise(b)
	if !ok1 || !ok2 {
		return nil, typeErr("unsupported operand kinds for or: " + a.Kind.String() + ", " + b.Kind.String())
	}
	return NewInt(ai | bi), nil
}

func Xor(a, b *Object) (*Object, *OpError) {
	if a.Kind == KindBool && b.Kind == KindBool {
		return NewBool(a.Bl != b.Bl), nil
	}
	ai, ok1 := asIntForBitwise(a)
	bi, ok2 := asIntForBitwise(b)
	if !ok1 || !ok2 {
		return nil, typeErr("unsupported operand kinds for xor: " + a.Kind.String() + ", " + b.Kind.String())
	}
	return NewInt(ai ^ bi), nil
}

func Not(a *Object) (*Object, *OpError) {
	switch a.Kind {
	case KindBool:
		return NewBool(!a.Bl), nil
	case KindInt:
		return NewInt(^a.I), nil
	default:
		return nil, typeErr("unsupported operand kind for not: " + a.Kind.String())
	}
}

func Shl(a, b *Object) (*Object, *OpError) {
	if a.Kind != KindInt || b.Kind != KindInt {
		return nil, typeErr("unsupported operand kinds for <<: " + a.Kind.String() + ", " + b.Kind.String())
	}
	return NewInt(a.I << uint64(b.I)), nil
}

func Shr(a, b *Object) (*Object, *OpError) {
	if a.Kind != KindInt || b.Kind != KindInt {
		return nil, typeErr("unsupported operand kinds for >>: " + a.Kind.String() + ", " + b.Kind.String())
	}
	return NewInt(a.I >> uint64(b.I)), nil
}
