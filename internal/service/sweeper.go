package service

import (
	"context"
	"fmt"
	"time"

	"captzio/internal/domain"
	"captzio/internal/infra"
	"captzio/internal/queue"
)

// JobSweeper fails jobs that have sat in pending or processing for too long,
// for example because the process running them died.
type JobSweeper struct {
	jobs       domain.JobRepository
	images     *ImageService
	staleAfter time.Duration
	batch      int
	now        func() time.Time
	logger     infra.Logger
}

func NewJobSweeper(jobs domain.JobRepository, images *ImageService, staleAfter time.Duration, logger infra.Logger) *JobSweeper {
	return &JobSweeper{
		jobs:       jobs,
		images:     images,
		staleAfter: staleAfter,
		batch:      200,
		now:        time.Now,
		logger:     infra.Component(logger, "sweeper"),
	}
}

// Sweep resolves one batch of stale jobs and reports how many it failed.
func (s *JobSweeper) Sweep(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.staleAfter)
	stale, err := s.jobs.ListStale(ctx, cutoff, s.batch)
	if err != nil {
		return 0, fmt.Errorf("list stale jobs: %w", err)
	}
	resolved := 0
	for _, job := range stale {
		if ctx.Err() != nil {
			break
		}
		if s.images.resolveFailure(ctx, job.ID, msgGenerationTimeout) {
			resolved++
			s.logger.Warn().Str("job_id", job.ID).Str("status", string(job.Status)).
				Time("updated_at", job.UpdatedAt).Msg("stale job failed")
		}
	}
	return resolved, ctx.Err()
}

var _ queue.Sweeper = (*JobSweeper)(nil)
