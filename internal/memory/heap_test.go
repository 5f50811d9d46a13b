package memory

import (
	"testing"

	"sentra/internal/value"
)

func TestRetainReleaseFreesAtZero(t *testing.T) {
	h := NewHeap()
	o := h.Alloc(value.NewInt(1))
	h.Retain(o)

	if h.LiveCount() != 1 {
		t.Fatalf("LiveCount = %d, want 1", h.LiveCount())
	}

	h.Release(o)
	if h.LiveCount() != 0 {
		t.Fatalf("LiveCount after release = %d, want 0", h.LiveCount())
	}
}

func TestReleaseIsTransitive(t *testing.T) {
	h := NewHeap()
	child := h.Alloc(value.NewInt(1))
	h.Retain(child)
	parent := h.Alloc(value.NewTuple([]*value.Object{child}))
	h.Retain(parent)

	h.Release(parent)
	if h.LiveCount() != 0 {
		t.Fatalf("LiveCount = %d, want 0 after releasing the only owner of both", h.LiveCount())
	}
}

func TestReleaseSharedChildSurvives(t *testing.T) {
	h := NewHeap()
	child := h.Alloc(value.NewInt(1))
	h.Retain(child)
	h.Retain(child) // two independent owners

	parent := h.Alloc(value.NewTuple([]*value.Object{child}))
	h.Retain(parent)

	h.Release(parent)
	if h.LiveCount() != 1 {
		t.Fatalf("LiveCount = %d, want 1 (child still owned once)", h.LiveCount())
	}
}

// fakeRootProvider lets a test control exactly what the mark phase sees as
// reachable, independent of the refcounting graph under test.
type fakeRootProvider struct {
	roots []*value.Object
}

func (f *fakeRootProvider) GCRoots() []*value.Object { return f.roots }

func TestMarkCollectsReferenceCycle(t *testing.T) {
	h := NewHeap()

	// Two lambdas that capture each other through Capture, forming a cycle
	// no strong-count release will ever zero out on its own.
	a := h.Alloc(value.NewLambda(&value.LambdaData{}))
	b := h.Alloc(value.NewLambda(&value.LambdaData{}))
	a.Lam.Capture = h.Alloc(value.NewTuple([]*value.Object{b}))
	b.Lam.Capture = h.Alloc(value.NewTuple([]*value.Object{a}))
	h.Retain(a)
	h.Retain(b)
	h.Retain(a.Lam.Capture)
	h.Retain(b.Lam.Capture)

	roots := &fakeRootProvider{}
	h.AddRootProvider(roots)

	freed := h.Mark()
	if freed != 4 {
		t.Fatalf("Mark freed %d objects, want 4 (the whole unreachable cycle)", freed)
	}
	if h.LiveCount() != 0 {
		t.Fatalf("LiveCount after collecting the cycle = %d, want 0", h.LiveCount())
	}
}

func TestMarkKeepsRootedCycleAlive(t *testing.T) {
	h := NewHeap()

	a := h.Alloc(value.NewLambda(&value.LambdaData{}))
	b := h.Alloc(value.NewLambda(&value.LambdaData{}))
	a.Lam.Capture = h.Alloc(value.NewTuple([]*value.Object{b}))
	b.Lam.Capture = h.Alloc(value.NewTuple([]*value.Object{a}))
	h.Retain(a)
	h.Retain(b)
	h.Retain(a.Lam.Capture)
	h.Retain(b.Lam.Capture)

	h.AddRootProvider(&fakeRootProvider{roots: []*value.Object{a}})

	freed := h.Mark()
	if freed != 0 {
		t.Fatalf("Mark freed %d objects, want 0 (cycle is rooted)", freed)
	}
	if h.LiveCount() != 4 {
		t.Fatalf("LiveCount = %d, want 4", h.LiveCount())
	}
}

func TestMarkFollowsWeakSelfWithoutCountingIt(t *testing.T) {
	h := NewHeap()
	self := h.Alloc(value.NewInt(1))
	lam := h.Alloc(value.NewLambda(&value.LambdaData{Self: self}))
	h.Retain(self)

	// lam is not rooted and nothing owns it, but self is only reachable
	// through lam's weak reference, so both should be collected together;
	// self's strong ref count alone (1, from the Retain above) must not
	// keep it alive independent of lam's reachability.
	h.AddRootProvider(&fakeRootProvider{})

	freed := h.Mark()
	if freed != 2 {
		t.Fatalf("Mark freed %d, want 2 (lam and its weak self both unreachable)", freed)
	}
}

func TestPinKeepsObjectAliveAcrossMark(t *testing.T) {
	h := NewHeap()
	o := h.Alloc(value.NewInt(1))
	h.Pin(o)
	h.AddRootProvider(&fakeRootProvider{})

	h.Mark()
	if h.LiveCount() != 1 {
		t.Fatalf("pinned object was collected")
	}

	h.Unpin(o)
	h.Mark()
	if h.LiveCount() != 0 {
		t.Fatalf("object survived after its only pin was released")
	}
}

func TestShouldCollectThreshold(t *testing.T) {
	h := NewHeap()
	if h.ShouldCollect() {
		t.Fatalf("empty heap should not be due for collection")
	}
	for i := 0; i < initialThreshold+1; i++ {
		h.Alloc(value.NewInt(int64(i)))
	}
	if !h.ShouldCollect() {
		t.Fatalf("heap past its threshold should be due for collection")
	}
}
