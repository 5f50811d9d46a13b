// Package memory implements the runtime's heap: it allocates value.Objects,
// maintains their strong reference counts, and runs a periodic tracing mark
// to reclaim cycles the count alone cannot see. See mark.go for the
// traversal itself and stats.go for the diagnostics surface.
package memory

import (
	"sync"

	"sentra/internal/value"
)

// RootProvider exposes the objects a collaborator is keeping alive: a
// task's context chain, a queued task's lambda, the built-in registry, a
// task's operand stack. The heap asks every registered provider for its
// roots at the start of a mark.
type RootProvider interface {
	GCRoots() []*value.Object
}

// Heap owns every live allocation. Ordinary step execution never needs its
// mutex: the interpreter runs single-threaded. The mutex exists because
// native calls may pin objects from a goroutine pool and that
// bookkeeping must not race a mark running at a scheduler safepoint.
type Heap struct {
	mu      sync.Mutex
	objects map[uint64]*value.Object
	pinned  map[uint64]int
	roots   []RootProvider
	nextID  uint64

	threshold      int
	liveAfterMark  int
	totalAllocated uint64
	marksRun       uint64
	lastFreed      int
}

const initialThreshold = 4096

// NewHeap creates an empty heap with the default collection threshold.
func NewHeap() *Heap {
	return &Heap{
		objects:   make(map[uint64]*value.Object),
		pinned:    make(map[uint64]int),
		threshold: initialThreshold,
	}
}

// AddRootProvider registers a long-lived source of GC roots (the
// scheduler's task set and the built-in registry both implement this).
func (h *Heap) AddRootProvider(p RootProvider) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.roots = append(h.roots, p)
}

// Alloc takes ownership of a freshly constructed, untracked value.Object:
// it stamps an identity, zeroes GC bookkeeping, and registers it as live
// with a strong count of zero until a slot retains it.
func (h *Heap) Alloc(o *value.Object) *value.Object {
	if o == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	o.SetID(h.nextID)
	o.Refs = 0
	o.Color = value.White
	h.objects[h.nextID] = o
	h.totalAllocated++
	return o
}

// AllocGraph tracks o and every object transitively reachable through its
// owned and weak references, for use after value.DeepCopy or value.Wipe
// produce a whole new untracked subgraph. Already-tracked nodes (ID != 0)
// are left alone, since DeepCopy shares immutable Instructions/NativeModule
// references rather than copying them.
func (h *Heap) AllocGraph(o *value.Object) *value.Object {
	if o == nil || o.ID() != 0 {
		return o
	}
	h.Alloc(o)
	for _, ref := range o.OwnedRefs() {
		h.AllocGraph(ref)
	}
	for _, ref := range o.WeakRefs() {
		h.AllocGraph(ref)
	}
	return o
}

// Retain increments o's strong count, meaning some slot now owns a
// reference to it.
func (h *Heap) Retain(o *value.Object) {
	if o == nil {
		return
	}
	h.mu.Lock()
	o.Refs++
	h.mu.Unlock()
}

// Release decrements o's strong count. Reaching zero frees it immediately
// and transitively releases everything it owned, exactly like a classic
// refcounted allocator; cycles are left for the next mark to find.
func (h *Heap) Release(o *value.Object) {
	if o == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.release(o)
}

func (h *Heap) release(o *value.Object) {
	if o == nil || o.ID() == 0 {
		return
	}
	if o.Refs > 0 {
		o.Refs--
	}
	if o.Refs == 0 {
		if _, live := h.objects[o.ID()]; !live {
			return
		}
		delete(h.objects, o.ID())
		for _, ref := range o.OwnedRefs() {
			h.release(ref)
		}
	}
}

// Pin keeps o alive for the duration of an outstanding native call,
// independent of its strong count, so a concurrent mark cannot free it out
// from under the call.
func (h *Heap) Pin(o *value.Object) {
	if o == nil {
		return
	}
	h.mu.Lock()
	h.pinned[o.ID()]++
	h.mu.Unlock()
}

// Unpin releases a pin taken by Pin.
func (h *Heap) Unpin(o *value.Object) {
	if o == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pinned[o.ID()] <= 1 {
		delete(h.pinned, o.ID())
	} else {
		h.pinned[o.ID()]--
	}
}

// LiveCount returns the number of allocations the heap currently tracks.
func (h *Heap) LiveCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.objects)
}

// ShouldCollect implements the trigger policy: a mark is due once live
// allocations exceed a threshold that grows multiplicatively with the
// post-mark live count.
func (h *Heap) ShouldCollect() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.objects) > h.threshold
}
