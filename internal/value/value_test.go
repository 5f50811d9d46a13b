package value

import "testing"

func TestKindString(t *testing.T) {
	tests := []struct {
		k    Kind
		want string
	}{
		{KindInt, "Int"},
		{KindLambda, "Lambda"},
		{Kind(255), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.k.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.k, got, tt.want)
		}
	}
}

func TestWithAliasDoesNotMutateOriginal(t *testing.T) {
	base := NewInt(1)
	tagged := WithAlias(base, "Meters")

	if base.HasAlias("Meters") {
		t.Fatalf("WithAlias mutated the original object's alias list")
	}
	if !tagged.HasAlias("Meters") {
		t.Fatalf("tagged value missing expected alias")
	}
	if tagged.I != 1 {
		t.Fatalf("tagged value lost its payload: I = %d", tagged.I)
	}
}

func TestWithAliasPrepends(t *testing.T) {
	base := WithAlias(NewInt(1), "A")
	both := WithAlias(base, "B")
	if len(both.Aliases) != 2 || both.Aliases[0] != "B" || both.Aliases[1] != "A" {
		t.Fatalf("unexpected alias order: %v", both.Aliases)
	}
}

func TestWithAliasDropsLambdaSelf(t *testing.T) {
	lam := NewLambda(&LambdaData{Self: NewInt(7)})
	tagged := WithAlias(lam, "Tagged")

	if tagged.Lam.Self != nil {
		t.Fatalf("WithAlias did not drop the lambda's self binding")
	}
	if lam.Lam.Self == nil {
		t.Fatalf("WithAlias mutated the source lambda's self binding")
	}
}

func TestWipeDropsAliasesAndSelf(t *testing.T) {
	lam := NewLambda(&LambdaData{Self: NewInt(7)})
	tagged := WithAlias(lam, "Tagged")
	wiped := Wipe(tagged)

	if len(wiped.Aliases) != 0 {
		t.Fatalf("Wipe left aliases: %v", wiped.Aliases)
	}
	if wiped.Lam.Self != nil {
		t.Fatalf("Wipe did not drop a lambda's self binding")
	}
}

func TestCopyIsShallow(t *testing.T) {
	elem := NewInt(5)
	tup := NewTuple([]*Object{elem})
	dup := Copy(tup)

	if dup == tup {
		t.Fatalf("Copy returned the same allocation")
	}
	if len(dup.Tup.Elems) != 1 || dup.Tup.Elems[0] != elem {
		t.Fatalf("Copy did not share the original's owned elements")
	}
}

func TestOwnedRefsExcludesSelfWeakRefsIncludesIt(t *testing.T) {
	self := NewInt(1)
	params := NewTuple(nil)
	lam := NewLambda(&LambdaData{Params: params, Self: self})

	owned := lam.OwnedRefs()
	for _, r := range owned {
		if r == self {
			t.Fatalf("OwnedRefs leaked the weak self reference")
		}
	}

	weak := lam.WeakRefs()
	if len(weak) != 1 || weak[0] != self {
		t.Fatalf("WeakRefs did not surface self: %v", weak)
	}
}

func TestOwnedRefsTuple(t *testing.T) {
	a, b := NewInt(1), NewInt(2)
	tup := NewTuple([]*Object{a, b})
	refs := tup.OwnedRefs()
	if len(refs) != 2 || refs[0] != a || refs[1] != b {
		t.Fatalf("unexpected tuple refs: %v", refs)
	}
}

func TestNewNamedKeyIsString(t *testing.T) {
	n := NewNamed("x", NewInt(3))
	if n.Pair.Key.Kind != KindString || n.Pair.Key.S != "x" {
		t.Fatalf("NewNamed did not build a String key: %+v", n.Pair.Key)
	}
}
