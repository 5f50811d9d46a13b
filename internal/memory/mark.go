package memory

import (
	"golang.org/x/exp/slices"

	"sentra/internal/value"
)

// growthFactor controls how much the collection threshold grows relative to
// the live count surviving a mark, so marks amortize across many
// allocations instead of firing on every allocation once the heap is warm.
const growthFactor = 2

// Mark runs one full tracing collection: every root is colored grey, the
// worklist is drained coloring newly discovered objects grey then black,
// and anything left white afterward is freed regardless of its strong
// count. This is what reclaims the cycles strong counting alone cannot:
// self-referential task lambdas, tuples of lambdas that capture themselves,
// mutually capturing closures.
func (h *Heap) Mark() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, o := range h.objects {
		o.Color = value.White
	}

	var worklist []*value.Object
	seen := make(map[uint64]bool)

	pushRoot := func(o *value.Object) {
		if o == nil || o.ID() == 0 {
			return
		}
		if seen[o.ID()] {
			return
		}
		seen[o.ID()] = true
		o.Color = value.Grey
		worklist = append(worklist, o)
	}

	for _, provider := range h.roots {
		for _, root := range provider.GCRoots() {
			pushRoot(root)
		}
	}
	for id := range h.pinned {
		if o, ok := h.objects[id]; ok {
			pushRoot(o)
		}
	}

	for len(worklist) > 0 {
		n := len(worklist) - 1
		o := worklist[n]
		worklist = worklist[:n]

		// Owned references keep their target alive from this edge; weak
		// references (a lambda's self) are still followed so the traversal
		// can reach objects only reachable through self, but they carry no
		// additional liveness on their own.
		for _, ref := range o.OwnedRefs() {
			pushRoot(ref)
		}
		for _, ref := range o.WeakRefs() {
			pushRoot(ref)
		}
		o.Color = value.Black
	}

	freed := 0
	for id, o := range h.objects {
		if o.Color == value.White {
			delete(h.objects, id)
			freed++
		}
	}

	h.marksRun++
	h.lastFreed = freed
	h.liveAfterMark = len(h.objects)
	h.threshold = (h.liveAfterMark + 1) * growthFactor
	if h.threshold < initialThreshold {
		h.threshold = initialThreshold
	}
	return freed
}

// CollectIfDue runs Mark when ShouldCollect says the heap has grown past its
// threshold, or unconditionally when force is set (the scheduler calls this
// with force=true at an idle safepoint, per the trigger policy's second
// condition).
func (h *Heap) CollectIfDue(force bool) int {
	if !force && !h.ShouldCollect() {
		return 0
	}
	return h.Mark()
}

// liveIDs is a small diagnostic helper returning the tracked IDs in
// ascending order; Stats does not call it, and it is not part of the
// collection algorithm.
func (h *Heap) liveIDs() []uint64 {
	ids := make([]uint64, 0, len(h.objects))
	for id := range h.objects {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
