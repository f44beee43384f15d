package pipeline

import (
	"context"
	"sync"
	"time"
)

// workerPool bounds the number of job runs executing at once. Each launched
// run waits for a slot before doing any work, so the configured concurrency
// limit holds regardless of how many jobs are submitted.
type workerPool struct {
	slots chan struct{}
	wg    sync.WaitGroup

	mu     sync.Mutex
	active map[string]context.CancelFunc
}

func newWorkerPool(size int) *workerPool {
	if size < 1 {
		size = 1
	}
	return &workerPool{
		slots:  make(chan struct{}, size),
		active: make(map[string]context.CancelFunc),
	}
}

// launch schedules run under a cancellable context derived from base. The run
// starts once a pool slot frees up; cancelling before that releases the run
// without it ever executing. Returns false when a run for jobID is already
// tracked.
func (p *workerPool) launch(base context.Context, jobID string, run func(ctx context.Context)) bool {
	runCtx, cancel := context.WithCancel(base)

	p.mu.Lock()
	if _, exists := p.active[jobID]; exists {
		p.mu.Unlock()
		cancel()
		return false
	}
	p.active[jobID] = cancel
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.forget(jobID)
		defer cancel()

		select {
		case p.slots <- struct{}{}:
			defer func() { <-p.slots }()
			// Cancellation wins over a slot that freed at the same moment.
			if runCtx.Err() != nil {
				return
			}
		case <-runCtx.Done():
			return
		}
		run(runCtx)
	}()
	return true
}

// cancel aborts the tracked run for jobID, whether queued or executing.
// Returns false when no run is in flight for that id.
func (p *workerPool) cancel(jobID string) bool {
	p.mu.Lock()
	cancel, ok := p.active[jobID]
	p.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

func (p *workerPool) forget(jobID string) {
	p.mu.Lock()
	delete(p.active, jobID)
	p.mu.Unlock()
}

// wait blocks until every launched run finishes or the timeout elapses.
// Returns true when the pool drained in time.
func (p *workerPool) wait(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
