package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"captzio/internal/infra"
)

// AsynqDispatcher enqueues image tasks on Redis.
type AsynqDispatcher struct {
	client  *asynq.Client
	queue   string
	timeout time.Duration
}

// NewAsynqDispatcher wraps an asynq client. timeout bounds one task run and
// should exceed the provider timeout.
func NewAsynqDispatcher(client *asynq.Client, queue string, timeout time.Duration) *AsynqDispatcher {
	if queue == "" {
		queue = DefaultQueue
	}
	return &AsynqDispatcher{client: client, queue: queue, timeout: timeout}
}

// Dispatch enqueues the task keyed by job id. A duplicate enqueue of the same
// job is not an error.
func (d *AsynqDispatcher) Dispatch(ctx context.Context, task ImageTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("encode image task: %w", err)
	}
	opts := []asynq.Option{
		asynq.TaskID(task.JobID),
		asynq.Queue(d.queue),
		asynq.MaxRetry(0),
	}
	if d.timeout > 0 {
		opts = append(opts, asynq.Timeout(d.timeout))
	}
	_, err = d.client.EnqueueContext(ctx, asynq.NewTask(TypeImageGenerate, payload), opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("enqueue image task %s: %w", task.JobID, err)
	}
	return nil
}

// Handlers adapts the runner and sweeper to asynq handler funcs.
type Handlers struct {
	runner  ImageRunner
	sweeper Sweeper
	logger  infra.Logger
}

func NewHandlers(runner ImageRunner, sweeper Sweeper, logger infra.Logger) *Handlers {
	return &Handlers{runner: runner, sweeper: sweeper, logger: logger}
}

// Mux registers every task type this service processes.
func (h *Handlers) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeImageGenerate, h.HandleImageGenerate)
	mux.HandleFunc(TypeJobsSweep, h.HandleSweep)
	return mux
}

func (h *Handlers) HandleImageGenerate(ctx context.Context, t *asynq.Task) error {
	var task ImageTask
	if err := json.Unmarshal(t.Payload(), &task); err != nil || task.JobID == "" {
		h.logger.Error().Err(err).Msg("image task payload rejected")
		return fmt.Errorf("decode image task: %w", asynq.SkipRetry)
	}
	h.runner.Run(ctx, task)
	return nil
}

func (h *Handlers) HandleSweep(ctx context.Context, _ *asynq.Task) error {
	n, err := h.sweeper.Sweep(ctx)
	if err != nil {
		h.logger.Error().Err(err).Msg("stale job sweep failed")
		return err
	}
	if n > 0 {
		h.logger.Info().Int("resolved", n).Msg("stale jobs resolved")
	}
	return nil
}

// RegisterSweep schedules the periodic sweep on an asynq scheduler.
func RegisterSweep(s *asynq.Scheduler, queue string, every time.Duration) (string, error) {
	if queue == "" {
		queue = DefaultQueue
	}
	return s.Register(
		fmt.Sprintf("@every %s", every),
		asynq.NewTask(TypeJobsSweep, nil),
		asynq.Queue(queue),
		asynq.MaxRetry(0),
		asynq.Unique(every),
	)
}

var _ Dispatcher = (*AsynqDispatcher)(nil)
