package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"captzio/internal/domain"
	"captzio/internal/infra"
	"captzio/internal/sqlinline"
)

// JobRepositoryPG implements domain.JobRepository.
type JobRepositoryPG struct {
	exec infra.SQLExecutor
}

// NewJobRepository creates a new job repository backed by PostgreSQL.
func NewJobRepository(exec infra.SQLExecutor) *JobRepositoryPG {
	return &JobRepositoryPG{exec: exec}
}

// Create inserts a pending job and fills in its timestamps.
func (r *JobRepositoryPG) Create(ctx context.Context, job *domain.GenerationJob) error {
	row := r.exec.QueryRow(ctx, sqlinline.QInsertJob,
		job.ID,
		job.OwnerID,
		job.Prompt,
		string(job.Style),
		string(job.Quality),
		string(job.Format),
		job.CreditsUsed,
	)
	if err := row.Scan(&job.CreatedAt, &job.UpdatedAt); err != nil {
		return err
	}
	job.Status = domain.JobStatusPending
	return nil
}

// GetForOwner returns ErrNotFound for jobs owned by someone else.
func (r *JobRepositoryPG) GetForOwner(ctx context.Context, id, ownerID string) (*domain.GenerationJob, error) {
	if !validID(id) || !validID(ownerID) {
		return nil, domain.ErrNotFound
	}
	return scanJob(r.exec.QueryRow(ctx, sqlinline.QSelectJobForOwner, id, ownerID))
}

func (r *JobRepositoryPG) ListByOwner(ctx context.Context, ownerID string, limit int) ([]domain.GenerationJob, error) {
	if !validID(ownerID) {
		return nil, nil
	}
	return r.list(ctx, sqlinline.QListJobsByOwner, ownerID, clampLimit(limit, 20, 100))
}

func (r *JobRepositoryPG) MarkProcessing(ctx context.Context, id string) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	tag, err := r.exec.Exec(ctx, sqlinline.QMarkJobProcessing, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *JobRepositoryPG) Complete(ctx context.Context, id, resultURL string) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	tag, err := r.exec.Exec(ctx, sqlinline.QCompleteJob, id, resultURL)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *JobRepositoryPG) Fail(ctx context.Context, id, message string) (*domain.GenerationJob, error) {
	if !validID(id) {
		return nil, nil
	}
	job, err := scanJob(r.exec.QueryRow(ctx, sqlinline.QFailJob, id, message))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return job, err
}

func (r *JobRepositoryPG) ListStale(ctx context.Context, updatedBefore time.Time, limit int) ([]domain.GenerationJob, error) {
	return r.list(ctx, sqlinline.QListStaleJobs, updatedBefore, clampLimit(limit, 100, 1000))
}

func (r *JobRepositoryPG) list(ctx context.Context, query string, args ...any) ([]domain.GenerationJob, error) {
	rows, err := r.exec.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []domain.GenerationJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

func scanJob(row pgx.Row) (*domain.GenerationJob, error) {
	var (
		job                            domain.GenerationJob
		style, quality, format, status string
	)
	if err := row.Scan(
		&job.ID,
		&job.OwnerID,
		&job.Prompt,
		&style,
		&quality,
		&format,
		&status,
		&job.ResultURL,
		&job.ErrorMessage,
		&job.CreditsUsed,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		return nil, notFound(err)
	}
	job.Style = domain.ImageStyle(style)
	job.Quality = domain.ImageQuality(quality)
	job.Format = domain.ImageFormat(format)
	job.Status = domain.JobStatus(status)
	return &job, nil
}

var _ domain.JobRepository = (*JobRepositoryPG)(nil)
