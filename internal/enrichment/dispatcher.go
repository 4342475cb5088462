package enrichment

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Dispatcher starts one goroutine per task and returns immediately.
// Callers observe progress only through the persisted document status.
type Dispatcher struct {
	runner  Runner
	timeout time.Duration
	logger  *zap.Logger

	base   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewDispatcher creates a Dispatcher. timeout bounds each job; zero means no limit.
func NewDispatcher(runner Runner, timeout time.Duration, logger *zap.Logger) *Dispatcher {
	base, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		runner:  runner,
		timeout: timeout,
		logger:  logger,
		base:    base,
		cancel:  cancel,
	}
}

// Dispatch schedules task without waiting for it. Tasks dispatched after
// Shutdown are dropped; their documents stay processing until swept.
func (d *Dispatcher) Dispatch(task Task) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.logger.Warn("enrichment_dispatch_rejected",
			zap.String("document_id", task.DocumentID),
			zap.String("reason", "dispatcher shut down"))
		return
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("enrichment_panic",
					zap.String("document_id", task.DocumentID),
					zap.Any("panic", r))
			}
		}()

		ctx := d.base
		if d.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d.timeout)
			defer cancel()
		}
		_ = d.runner.Run(ctx, task)
	}()
}

// Shutdown stops accepting tasks and waits for running jobs. If ctx expires
// first, running jobs are cancelled and ctx.Err() is returned.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		d.logger.Info("enrichment dispatcher stopped gracefully")
		return nil
	case <-ctx.Done():
		d.cancel()
		d.logger.Warn("enrichment dispatcher shutdown timed out")
		return ctx.Err()
	}
}
