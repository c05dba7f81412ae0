package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tahfidz-api/internal/models"
)

const artifactColumns = `id, type, params, status, progress, result_url, created_by, created_at, finished_at, error_message`

// ArtifactRepository persists document generation jobs.
type ArtifactRepository struct {
	db *sqlx.DB
}

// NewArtifactRepository constructs the repository.
func NewArtifactRepository(db *sqlx.DB) *ArtifactRepository {
	return &ArtifactRepository{db: db}
}

// Create inserts a new job row with generated defaults.
func (r *ArtifactRepository) Create(ctx context.Context, job *models.ArtifactJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.ArtifactStatusQueued
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO artifact_jobs (id, type, params, status, progress, result_url, created_by, created_at, finished_at, error_message)
VALUES (:id, :type, :params, :status, :progress, :result_url, :created_by, :created_at, :finished_at, :error_message)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create artifact job: %w", err)
	}
	return nil
}

// GetByID returns a job by id.
func (r *ArtifactRepository) GetByID(ctx context.Context, id string) (*models.ArtifactJob, error) {
	query := fmt.Sprintf("SELECT %s FROM artifact_jobs WHERE id = $1", artifactColumns)
	var job models.ArtifactJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, fmt.Errorf("get artifact job: %w", err)
	}
	return &job, nil
}

// MarkProcessing flags a job as picked up by a worker.
func (r *ArtifactRepository) MarkProcessing(ctx context.Context, id string) error {
	const query = `UPDATE artifact_jobs SET status = $1, progress = $2 WHERE id = $3`
	return r.exec(ctx, "mark artifact job processing", query, models.ArtifactStatusProcessing, 10, id)
}

// MarkFinished stores the signed download URL and clears any earlier error.
func (r *ArtifactRepository) MarkFinished(ctx context.Context, id, resultURL string, at time.Time) error {
	const query = `UPDATE artifact_jobs SET status = $1, progress = 100, result_url = $2, error_message = NULL, finished_at = $3 WHERE id = $4`
	return r.exec(ctx, "mark artifact job finished", query, models.ArtifactStatusFinished, resultURL, at, id)
}

// MarkFailed records a terminal failure.
func (r *ArtifactRepository) MarkFailed(ctx context.Context, id, reason string, at time.Time) error {
	const query = `UPDATE artifact_jobs SET status = $1, progress = 100, error_message = $2, finished_at = $3 WHERE id = $4`
	return r.exec(ctx, "mark artifact job failed", query, models.ArtifactStatusFailed, reason, at, id)
}

// Requeue puts a job back in the queue after a retryable failure.
func (r *ArtifactRepository) Requeue(ctx context.Context, id, reason string) error {
	const query = `UPDATE artifact_jobs SET status = $1, progress = 0, error_message = $2 WHERE id = $3`
	return r.exec(ctx, "requeue artifact job", query, models.ArtifactStatusQueued, reason, id)
}

// ListUnfinished fetches queued jobs and jobs a crashed worker left in
// PROCESSING so they can be replayed after a restart.
func (r *ArtifactRepository) ListUnfinished(ctx context.Context, limit int) ([]models.ArtifactJob, error) {
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf("SELECT %s FROM artifact_jobs WHERE status IN ('QUEUED', 'PROCESSING') ORDER BY created_at ASC LIMIT $1", artifactColumns)
	var jobs []models.ArtifactJob
	if err := r.db.SelectContext(ctx, &jobs, query, limit); err != nil {
		return nil, fmt.Errorf("list unfinished artifact jobs: %w", err)
	}
	return jobs, nil
}

// ListFinishedBefore returns finished jobs older than cutoff whose files can be purged.
func (r *ArtifactRepository) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ArtifactJob, error) {
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf("SELECT %s FROM artifact_jobs WHERE status = 'FINISHED' AND finished_at < $1 ORDER BY finished_at ASC LIMIT $2", artifactColumns)
	var jobs []models.ArtifactJob
	if err := r.db.SelectContext(ctx, &jobs, query, cutoff, limit); err != nil {
		return nil, fmt.Errorf("list finished artifact jobs: %w", err)
	}
	return jobs, nil
}

func (r *ArtifactRepository) exec(ctx context.Context, op, query string, args ...interface{}) error {
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
