package memory

import "github.com/dustin/go-humanize"

// Stats is a point-in-time snapshot of heap health, surfaced to built-ins
// (a host "gc_stats" call). Mark itself logs nothing.
type Stats struct {
	LiveObjects    int
	TotalAllocated uint64
	MarksRun       uint64
	LastMarkFreed  int
	Threshold      int
}

// Stats reports the heap's current bookkeeping.
func (h *Heap) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Stats{
		LiveObjects:    len(h.objects),
		TotalAllocated: h.totalAllocated,
		MarksRun:       h.marksRun,
		LastMarkFreed:  h.lastFreed,
		Threshold:      h.threshold,
	}
}

// String renders a human-readable one-liner, e.g. for a debug/verbose log
// line.
func (s Stats) String() string {
	return humanize.Comma(int64(s.LiveObjects)) + " live objects, " +
		humanize.Comma(int64(s.TotalAllocated)) + " allocated total, " +
		humanize.Comma(int64(s.MarksRun)) + " marks run, last freed " +
		humanize.Comma(int64(s.LastMarkFreed))
}
