package analytics

import (
	"context"
	"sync"
)

// ComputeFunc turns one complete input snapshot into a report.
type ComputeFunc func(ctx context.Context, in Input) (Report, error)

// Runner recomputes a report every time a new input snapshot arrives. A newer
// submission cancels the pass in flight and a superseded result is dropped,
// never merged. Callbacks run one at a time, outside the lock Submit takes, so
// a slow callback never blocks a new submission.
type Runner struct {
	compute  ComputeFunc
	onResult func(Report)
	onError  func(error)

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// delivering serializes callbacks; a result is checked for staleness
	// only after it is held.
	delivering sync.Mutex
}

func NewRunner(compute ComputeFunc, onResult func(Report), onError func(error)) *Runner {
	if onError == nil {
		onError = func(error) {}
	}
	return &Runner{compute: compute, onResult: onResult, onError: onError}
}

// Submit starts a pass over in and returns immediately.
func (r *Runner) Submit(ctx context.Context, in Input) {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	r.seq++
	seq := r.seq
	passCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		defer cancel()

		report, err := r.compute(passCtx, in)

		r.delivering.Lock()
		defer r.delivering.Unlock()
		if !r.current(seq) {
			return
		}
		if err != nil {
			if passCtx.Err() == nil {
				r.onError(err)
			}
			return
		}
		r.onResult(report)
	}()
}

func (r *Runner) current(seq uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return seq == r.seq
}

// Close cancels the pass in flight and waits for all passes to return.
func (r *Runner) Close() {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	r.seq++
	r.mu.Unlock()
	r.wg.Wait()
}
