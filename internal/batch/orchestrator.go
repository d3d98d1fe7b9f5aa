// Package batch drives a set of independent tasks through a sliding window
// that starts parallel and drops to serial for good after the first failure.
package batch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultInitialWindow is the number of tasks run concurrently until a failure
	DefaultInitialWindow = 3
	// DefaultMaxQueueSize bounds how many files a batch may hold
	DefaultMaxQueueSize = 20
)

// Task processes the item at index. Its context is never cancelled by the
// orchestrator; cancellation only stops new windows from starting.
type Task func(ctx context.Context, index int) error

// Progress is a point-in-time view of a running batch
type Progress struct {
	Total     int
	Processed int
	Success   int
	Errors    int
	Window    int
}

// ProgressFunc is called once per finished task. Calls are serialized.
type ProgressFunc func(p Progress, index int, err error)

// Summary is the outcome of a batch run
type Summary struct {
	Total       int
	Processed   int
	Success     int
	Errors      int
	Cancelled   bool
	FinalWindow int
}

// Orchestrator runs batches. It holds no per-run state, so concurrent runs
// are independent.
type Orchestrator struct {
	initialWindow int
	logger        *zap.Logger
}

// New creates an orchestrator. A non-positive window uses DefaultInitialWindow.
func New(initialWindow int, logger *zap.Logger) *Orchestrator {
	if initialWindow <= 0 {
		initialWindow = DefaultInitialWindow
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{initialWindow: initialWindow, logger: logger}
}

// Run processes n tasks in enqueue order. ctx is checked before each window;
// tasks already in flight finish. A failure anywhere in a window reduces the
// window to 1 for the rest of the run.
func (o *Orchestrator) Run(ctx context.Context, n int, task Task, onProgress ProgressFunc) Summary {
	window := o.initialWindow
	summary := Summary{Total: n}
	taskCtx := context.WithoutCancel(ctx)

	var mu sync.Mutex
	finish := func(index int, err error) {
		mu.Lock()
		defer mu.Unlock()
		summary.Processed++
		if err != nil {
			summary.Errors++
		} else {
			summary.Success++
		}
		if onProgress != nil {
			onProgress(Progress{
				Total:     n,
				Processed: summary.Processed,
				Success:   summary.Success,
				Errors:    summary.Errors,
				Window:    window,
			}, index, err)
		}
	}

	for start := 0; start < n; {
		if err := ctx.Err(); err != nil {
			summary.Cancelled = true
			o.logger.Info("batch_cancelled",
				zap.Int("processed", summary.Processed),
				zap.Int("remaining", n-start),
			)
			break
		}

		end := min(start+window, n)
		var failed atomic.Bool
		var g errgroup.Group
		for i := start; i < end; i++ {
			g.Go(func() error {
				err := runSafely(taskCtx, task, i)
				if err != nil {
					failed.Store(true)
					o.logger.Warn("batch_task_failed", zap.Int("index", i), zap.Error(err))
				}
				finish(i, err)
				return nil
			})
		}
		_ = g.Wait()
		start = end

		if failed.Load() && window > 1 {
			o.logger.Info("batch_window_downgraded", zap.Int("from", window), zap.Int("to", 1), zap.Int("next_index", start))
			mu.Lock()
			window = 1
			mu.Unlock()
		}
	}

	summary.FinalWindow = window
	return summary
}

func runSafely(ctx context.Context, task Task, index int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %d panicked: %v", index, r)
		}
	}()
	return task(ctx, index)
}
