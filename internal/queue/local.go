package queue

import (
	"context"
	"sync"
	"time"

	"captzio/internal/infra"
)

// LocalDispatcher runs tasks on a fixed set of goroutines inside the API
// process. Work outlives the submitting request but not the process; the
// sweeper resolves whatever a restart leaves behind.
type LocalDispatcher struct {
	runner  ImageRunner
	tasks   chan ImageTask
	timeout time.Duration
	logger  infra.Logger

	wg       sync.WaitGroup
	mu       sync.RWMutex
	stopped  bool
	stopOnce sync.Once
}

// NewLocalDispatcher starts workers goroutines with a buffer of backlog
// pending tasks. Each run is bounded by timeout when it is positive.
func NewLocalDispatcher(ctx context.Context, runner ImageRunner, workers, backlog int, timeout time.Duration, logger infra.Logger) *LocalDispatcher {
	if workers <= 0 {
		workers = 1
	}
	if backlog < 0 {
		backlog = 0
	}
	d := &LocalDispatcher{
		runner:  runner,
		tasks:   make(chan ImageTask, backlog),
		timeout: timeout,
		logger:  logger,
	}
	base := context.WithoutCancel(ctx)
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.work(base)
	}
	return d
}

func (d *LocalDispatcher) work(base context.Context) {
	defer d.wg.Done()
	for task := range d.tasks {
		d.run(base, task)
	}
}

func (d *LocalDispatcher) run(base context.Context, task ImageTask) {
	ctx := base
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(base, d.timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error().Str("job_id", task.JobID).Interface("panic", r).Msg("image task panicked")
		}
	}()
	d.runner.Run(ctx, task)
}

// Dispatch queues the task without blocking. The request context is not
// propagated to the worker.
func (d *LocalDispatcher) Dispatch(_ context.Context, task ImageTask) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return ErrQueueFull
	}
	select {
	case d.tasks <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop refuses new tasks and waits for queued ones to finish or ctx to end.
func (d *LocalDispatcher) Stop(ctx context.Context) error {
	d.stopOnce.Do(func() {
		d.mu.Lock()
		d.stopped = true
		close(d.tasks)
		d.mu.Unlock()
	})
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunSweepLoop calls the sweeper every interval until ctx ends.
func RunSweepLoop(ctx context.Context, sweeper Sweeper, every time.Duration, logger infra.Logger) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sweeper.Sweep(ctx)
			if err != nil {
				logger.Error().Err(err).Msg("stale job sweep failed")
				continue
			}
			if n > 0 {
				logger.Info().Int("resolved", n).Msg("stale jobs resolved")
			}
		}
	}
}

var _ Dispatcher = (*LocalDispatcher)(nil)
