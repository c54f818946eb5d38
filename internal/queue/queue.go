// Package queue hands image generation off to background workers, either
// through asynq on Redis or an in-process bounded pool.
package queue

import (
	"context"
	"errors"

	"captzio/internal/domain"
)

const (
	TypeImageGenerate = "image:generate"
	TypeJobsSweep     = "jobs:sweep"

	DefaultQueue = "captzio"
)

// ErrQueueFull is returned by the local dispatcher when no slot is free.
var ErrQueueFull = errors.New("queue: local dispatcher is full")

// ImageTask carries everything a worker needs to generate one job.
type ImageTask struct {
	JobID      string              `json:"jobId"`
	OwnerID    string              `json:"ownerId"`
	Prompt     string              `json:"prompt"`
	Style      domain.ImageStyle   `json:"style"`
	Quality    domain.ImageQuality `json:"quality"`
	Format     domain.ImageFormat  `json:"format"`
	Privileged bool                `json:"privileged"`
}

// Dispatcher schedules an image task for background execution.
type Dispatcher interface {
	Dispatch(ctx context.Context, task ImageTask) error
}

// ImageRunner executes an image task to a terminal state. It owns every
// failure path, so the queue never retries.
type ImageRunner interface {
	Run(ctx context.Context, task ImageTask)
}

// Sweeper resolves jobs stuck in a non-terminal state.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}
