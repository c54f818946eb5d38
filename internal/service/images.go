package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"

	"captzio/internal/domain"
	"captzio/internal/infra"
	"captzio/internal/providers/image"
	"captzio/internal/queue"
	"captzio/internal/storage"
)

const (
	msgGenerationFailed  = "image generation failed"
	msgGenerationTimeout = "generation timed out"
	msgScheduleFailed    = "could not schedule generation"
	msgStoreFailed       = "could not store generated image"
	msgInternal          = "internal error"

	terminalWriteTimeout = 30 * time.Second
	usageWriteTimeout    = 5 * time.Second
)

type ImageServiceConfig struct {
	Cost  int
	Retry RetryPolicy
	// WriteTimeout bounds the retried terminal writes of one job.
	WriteTimeout time.Duration
}

// ImageService turns image requests into tracked background jobs and runs
// them to a terminal state.
type ImageService struct {
	repos        domain.Repositories
	tx           domain.TxManager
	policy       domain.PrivilegePolicy
	generator    image.Generator
	store        storage.ObjectStore
	dispatcher   queue.Dispatcher
	cost         int
	retry        RetryPolicy
	writeTimeout time.Duration
	logger       infra.Logger
}

func NewImageService(repos domain.Repositories, tx domain.TxManager, policy domain.PrivilegePolicy, generator image.Generator, store storage.ObjectStore, cfg ImageServiceConfig, logger infra.Logger) *ImageService {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = terminalWriteTimeout
	}
	return &ImageService{
		repos:        repos,
		tx:           tx,
		policy:       policy,
		generator:    generator,
		store:        store,
		cost:         cfg.Cost,
		retry:        cfg.Retry,
		writeTimeout: cfg.WriteTimeout,
		logger:       infra.Component(logger, "images"),
	}
}

// SetDispatcher wires the queue. The local dispatcher needs the service as
// its runner, so the two are connected after construction.
func (s *ImageService) SetDispatcher(d queue.Dispatcher) {
	s.dispatcher = d
}

// Submit reserves credits, records a pending job and schedules generation.
// It returns as soon as the job is queued.
func (s *ImageService) Submit(ctx context.Context, account *domain.Account, req ImageRequest) (string, error) {
	if account == nil {
		return "", domain.ErrUnauthorized
	}
	if err := req.normalize(); err != nil {
		return "", err
	}
	privileged := s.policy.IsPrivileged(account)
	cost := s.cost
	if privileged {
		cost = 0
	}

	if cost > 0 {
		current, err := s.repos.Accounts.GetByID(ctx, account.ID)
		if err != nil {
			return "", fmt.Errorf("load balance: %w", err)
		}
		if current.Credits < cost {
			return "", &domain.InsufficientCreditsError{Required: cost, Available: current.Credits}
		}
	}

	job := &domain.GenerationJob{
		ID:          uuid.NewString(),
		OwnerID:     account.ID,
		Prompt:      req.Prompt,
		Style:       domain.ImageStyle(req.Style),
		Quality:     domain.ImageQuality(req.Quality),
		Format:      domain.ImageFormat(req.Format),
		Status:      domain.JobStatusPending,
		CreditsUsed: cost,
	}
	// The row and its reservation commit together, so a job with
	// credits_used > 0 always has a matching debit.
	err := s.tx.WithinTx(ctx, func(repos domain.Repositories) error {
		if err := repos.Jobs.Create(ctx, job); err != nil {
			return fmt.Errorf("create job: %w", err)
		}
		if cost == 0 {
			return nil
		}
		if _, err := repos.Accounts.Debit(ctx, account.ID, cost); err != nil {
			if domain.IsInsufficientCredits(err) {
				return err
			}
			return fmt.Errorf("debit credits: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	task := queue.ImageTask{
		JobID:      job.ID,
		OwnerID:    job.OwnerID,
		Prompt:     job.Prompt,
		Style:      job.Style,
		Quality:    job.Quality,
		Format:     job.Format,
		Privileged: privileged,
	}
	if err := s.dispatch(ctx, task); err != nil {
		s.logger.Error().Err(err).Str("job_id", job.ID).Msg("dispatch failed")
		s.resolveFailure(ctx, job.ID, msgScheduleFailed)
		return job.ID, nil
	}

	s.logger.Info().Str("job_id", job.ID).Str("owner_id", job.OwnerID).Int("cost", cost).Msg("image job accepted")
	return job.ID, nil
}

func (s *ImageService) dispatch(ctx context.Context, task queue.ImageTask) error {
	if s.dispatcher == nil {
		return errors.New("no dispatcher configured")
	}
	return s.dispatcher.Dispatch(ctx, task)
}

// Run drives one job to completed or failed. It never returns an error: every
// failure ends in a failed job with its reservation refunded.
func (s *ImageService) Run(ctx context.Context, task queue.ImageTask) {
	log := s.logger.With().Str("job_id", task.JobID).Str("owner_id", task.OwnerID).Logger()
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("image run panicked")
			s.resolveFailure(ctx, task.JobID, msgInternal)
		}
	}()

	var started bool
	err := retry(ctx, s.retry, func() error {
		var err error
		started, err = s.repos.Jobs.MarkProcessing(ctx, task.JobID)
		return err
	})
	if err != nil {
		log.Error().Err(err).Msg("mark processing failed")
		s.resolveFailure(ctx, task.JobID, msgInternal)
		return
	}
	if !started {
		log.Info().Msg("job already picked up or resolved, skipping")
		return
	}

	asset, err := s.generator.Generate(ctx, image.GenerateRequest{
		Prompt:  task.Prompt,
		Style:   task.Style,
		Quality: task.Quality,
		Format:  task.Format,
		User:    task.OwnerID,
	})
	if err != nil {
		log.Error().Err(err).Msg("provider call failed")
		msg := msgGenerationFailed
		if isTimeout(err) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			msg = msgGenerationTimeout
		}
		s.resolveFailure(ctx, task.JobID, msg)
		return
	}

	resultURL, err := s.publish(ctx, task, asset)
	if err != nil {
		log.Error().Err(err).Msg("storing result failed")
		s.resolveFailure(ctx, task.JobID, msgStoreFailed)
		return
	}

	wctx, cancel := detached(ctx, s.writeTimeout)
	defer cancel()
	var completed bool
	err = retry(wctx, s.retry, func() error {
		var err error
		completed, err = s.repos.Jobs.Complete(wctx, task.JobID, resultURL)
		return err
	})
	if err != nil {
		log.Error().Err(err).Msg("complete write failed")
		s.resolveFailure(ctx, task.JobID, msgInternal)
		return
	}
	if !completed {
		log.Warn().Msg("job resolved elsewhere before completion")
		return
	}

	credits := s.cost
	if task.Privileged {
		credits = 0
	}
	entry := &domain.UsageLogEntry{
		OwnerID:      task.OwnerID,
		Action:       domain.UsageImageGenerate,
		Credits:      credits,
		CostEstimate: EstimateImageCost(task.Quality, task.Format),
		Metadata: map[string]any{
			"job_id":  task.JobID,
			"quality": string(task.Quality),
			"style":   string(task.Style),
			"format":  string(task.Format),
		},
	}
	uctx, ucancel := detached(ctx, usageWriteTimeout)
	defer ucancel()
	if err := s.repos.Usage.Append(uctx, entry); err != nil {
		log.Warn().Err(err).Msg("usage log append failed")
	}
	log.Info().Str("result", resultURL).Msg("image job completed")
}

// publish uploads inline image data; hosted URLs pass through untouched.
func (s *ImageService) publish(ctx context.Context, task queue.ImageTask, asset *image.Asset) (string, error) {
	if asset == nil {
		return "", errors.New("empty asset")
	}
	if len(asset.Data) == 0 {
		if asset.URL == "" {
			return "", errors.New("empty asset")
		}
		return asset.URL, nil
	}
	if s.store == nil {
		return "", errors.New("inline image returned but no object store configured")
	}
	mime := asset.MIME
	if mime == "" {
		mime = "image/png"
	}
	return s.store.Put(ctx, storage.ImageKey(task.OwnerID, task.JobID, mime), asset.Data, mime)
}

// resolveFailure moves the job to failed and refunds its reservation in one
// transaction. Only the caller whose write performs the transition refunds,
// so a job is refunded at most once, and a job never ends failed without
// its refund. It reports whether this call resolved the job.
func (s *ImageService) resolveFailure(ctx context.Context, jobID, message string) bool {
	wctx, cancel := detached(ctx, s.writeTimeout)
	defer cancel()
	log := s.logger.With().Str("job_id", jobID).Logger()

	var (
		job     *domain.GenerationJob
		balance int
	)
	err := retry(wctx, s.retry, func() error {
		job, balance = nil, 0
		return s.tx.WithinTx(wctx, func(repos domain.Repositories) error {
			failed, err := repos.Jobs.Fail(wctx, jobID, message)
			if err != nil || failed == nil {
				return err
			}
			if failed.CreditsUsed > 0 {
				balance, err = repos.Accounts.Credit(wctx, failed.OwnerID, failed.CreditsUsed)
				if err != nil {
					return fmt.Errorf("refund reservation: %w", err)
				}
			}
			job = failed
			return nil
		})
	})
	if err != nil {
		// The job stays pending or processing; the sweeper retries it later.
		log.Error().Err(err).Str("event", "orphaned_job").Msg("could not persist failed status")
		return false
	}
	if job == nil {
		return false
	}

	if job.CreditsUsed > 0 {
		log.Info().Int("refunded", job.CreditsUsed).Int("balance", balance).Msg("reservation refunded")
	}
	log.Info().Str("reason", message).Msg("image job failed")
	return true
}

// isTimeout reports whether err came from an expired deadline, including the
// HTTP client's own timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// GetStatus returns the polling view of a job owned by ownerID.
func (s *ImageService) GetStatus(ctx context.Context, jobID, ownerID string) (domain.JobSnapshot, error) {
	job, err := s.repos.Jobs.GetForOwner(ctx, jobID, ownerID)
	if err != nil {
		return domain.JobSnapshot{}, err
	}
	return job.Snapshot(), nil
}

// ListJobs returns the owner's most recent jobs, newest first.
func (s *ImageService) ListJobs(ctx context.Context, ownerID string, limit int) ([]domain.GenerationJob, error) {
	return s.repos.Jobs.ListByOwner(ctx, ownerID, limit)
}

var _ queue.ImageRunner = (*ImageService)(nil)
