// Package concurrency provides the bounded goroutine pool that blocking
// native calls can run on (in this module, the sleep built-in does), so
// the value model itself is never touched off-thread. Every Job below captures only what it needs to perform its
// blocking wait; it never reaches back into the heap or any value.Object
// directly, so nothing here races the scheduler's mark phase or the
// single-threaded interpreter loop.
package concurrency

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// Job is one blocking unit of work submitted to the pool. Run performs the
// actual blocking wait (a time.Sleep, a driver call, a socket read) and
// reports back a plain Go value the caller already knows how to unwrap —
// never a *value.Object, keeping this package ignorant of the value model.
type Job struct {
	Name string
	Run  func(ctx context.Context) (interface{}, error)
}

// JobResult is what a submitted Job reports back.
type JobResult struct {
	Value interface{}
	Err   error
}

// NativeCallPool bounds how many blocking native calls may be in flight at
// once, so a guest program that spawns many tasks each awaiting a slow
// native call cannot unboundedly grow the number of OS threads blocked in
// a syscall.
type NativeCallPool struct {
	sem    *semaphore.Weighted
	mu     sync.Mutex
	wg     sync.WaitGroup
	closed bool
}

// NewNativeCallPool builds a pool that admits at most size concurrent
// blocking calls. size <= 0 is treated as 1.
func NewNativeCallPool(size int) *NativeCallPool {
	if size <= 0 {
		size = 1
	}
	return &NativeCallPool{sem: semaphore.NewWeighted(int64(size))}
}

// Run submits job and blocks the calling goroutine until it completes or
// ctx is canceled. This is a deliberately synchronous call: the single
// interpreter thread calling a blocking built-in (sleep, a native module
// call) is expected to wait for it, exactly as an ordinary function call
// would; the pool's only job is to bound how many such waits may overlap
// across concurrently in-flight native calls, and to keep the blocking
// syscall itself off whatever goroutine is driving the scheduler loop.
func (p *NativeCallPool) Run(ctx context.Context, job Job) JobResult {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return JobResult{Err: context.Canceled}
	}
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return JobResult{Err: err}
	}
	defer p.sem.Release(1)

	p.wg.Add(1)
	defer p.wg.Done()

	done := make(chan JobResult, 1)
	go func() {
		v, err := job.Run(ctx)
		done <- JobResult{Value: v, Err: err}
	}()

	select {
	case r := <-done:
		return r
	case <-ctx.Done():
		return JobResult{Err: ctx.Err()}
	}
}

// Sleep is the pool-backed implementation behind the `sleep` built-in: it
// runs an ordinary time.Sleep as a Job so the call sits on the pool's
// bound like any other blocking native call rather than parking the
// calling goroutine directly.
func (p *NativeCallPool) Sleep(ctx context.Context, d time.Duration) error {
	r := p.Run(ctx, Job{Name: "sleep", Run: func(ctx context.Context) (interface{}, error) {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
			return nil, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}})
	return r.Err
}

// Close waits for every in-flight Job to finish. Safe to call once at
// process shutdown; after it is called, Run rejects new jobs with
// context.Canceled.
func (p *NativeCallPool) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.wg.Wait()
}
