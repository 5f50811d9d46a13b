package execctx

import (
	"sentra/internal/memory"
	"sentra/internal/value"
)

// BindArguments implements the four-step argument binding algorithm of the
// call mechanics: named arguments replace a matching declared parameter or
// get appended; leftover positional arguments fill unmatched parameter
// slots in declaration order, and overflow positionals are appended too.
//
// For a dynamic lambda this mutates the lambda's own parameter tuple in
// place and returns that same tuple as the call's `arguments` value, which
// is how a later `keyof` observes the last call's actual arguments. For a
// static lambda the merge happens on a fresh clone; the declared parameters
// are left untouched.
func BindArguments(h *memory.Heap, lam *value.LambdaData, positional []*value.Object, named []*value.Object) *value.Object {
	if lam.Static {
		return bindStatic(h, lam, positional, named)
	}
	return bindDynamic(h, lam, positional, named)
}

func bindDynamic(h *memory.Heap, lam *value.LambdaData, positional []*value.Object, named []*value.Object) *value.Object {
	params := lam.Params
	elems := params.Tup.Elems
	matched := make([]bool, len(elems))

	replace := func(i int, v *value.Object) {
		old := elems[i].Pair.Value
		elems[i].Pair.Value = v
		if old != v {
			h.Release(old)
		}
	}

	for _, n := range named {
		name := n.Pair.Key.S
		found := false
		for i, e := range elems {
			if e.Pair.Key.S == name {
				replace(i, n.Pair.Value)
				matched[i] = true
				found = true
				break
			}
		}
		if !found {
			fresh := h.Alloc(value.NewNamed(name, n.Pair.Value))
			h.Retain(fresh)
			elems = append(elems, fresh)
		}
	}

	pi := 0
	for i := 0; i < len(matched) && pi < len(positional); i++ {
		if i < len(matched) && matched[i] {
			continue
		}
		if i < len(matched) {
			replace(i, positional[pi])
			matched[i] = true
		}
		pi++
	}
	for ; pi < len(positional); pi++ {
		elems = append(elems, positional[pi])
	}

	params.Tup.Elems = elems
	h.Retain(params) // the new `arguments` local binding is a second owner
	return params
}

func bindStatic(h *memory.Heap, lam *value.LambdaData, positional []*value.Object, named []*value.Object) *value.Object {
	src := lam.Params.Tup.Elems
	elems := make([]*value.Object, len(src))
	matched := make([]bool, len(src))

	for i, e := range src {
		elems[i] = value.NewNamed(e.Pair.Key.S, e.Pair.Value)
		h.Retain(e.Pair.Value) // new edge: clone also owns the declared default
	}

	for _, n := range named {
		name := n.Pair.Key.S
		found := false
		for i, e := range elems {
			if e.Pair.Key.S == name {
				h.Release(e.Pair.Value) // drop the default this clone took above
				e.Pair.Value = n.Pair.Value
				matched[i] = true
				found = true
				break
			}
		}
		if !found {
			elems = append(elems, value.NewNamed(name, n.Pair.Value))
		}
	}

	pi := 0
	for i := 0; i < len(matched) && pi < len(positional); i++ {
		if i < len(matched) && matched[i] {
			continue
		}
		if i < len(matched) {
			h.Release(elems[i].Pair.Value)
			elems[i].Pair.Value = positional[pi]
			matched[i] = true
		}
		pi++
	}
	var extra []*value.Object
	for ; pi < len(positional); pi++ {
		extra = append(extra, positional[pi])
	}
	elems = append(elems, extra...)

	argsTuple := h.Alloc(value.NewTuple(elems))
	h.Retain(argsTuple)
	for _, e := range elems {
		if e.ID() == 0 {
			h.Alloc(e)
		}
		h.Retain(e)
	}
	return argsTuple
}
