package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/tahfidz-api/internal/dto"
	"github.com/noah-isme/tahfidz-api/internal/models"
	appErrors "github.com/noah-isme/tahfidz-api/pkg/errors"
	"github.com/noah-isme/tahfidz-api/pkg/jobs"
)

type artifactJobStore interface {
	Create(ctx context.Context, job *models.ArtifactJob) error
	GetByID(ctx context.Context, id string) (*models.ArtifactJob, error)
	MarkProcessing(ctx context.Context, id string) error
	MarkFinished(ctx context.Context, id, resultURL string, at time.Time) error
	MarkFailed(ctx context.Context, id, reason string, at time.Time) error
	Requeue(ctx context.Context, id, reason string) error
	ListUnfinished(ctx context.Context, limit int) ([]models.ArtifactJob, error)
	ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ArtifactJob, error)
}

type jobDispatcher interface {
	TryEnqueue(job jobs.Job) error
}

type artifactFiles interface {
	Open(name string) (*os.File, error)
	Delete(name string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type downloadTokenParser interface {
	Parse(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error)
}

type artifactMetrics interface {
	RecordArtifact(artifactType, outcome string)
}

// ArtifactServiceConfig governs recovery and cleanup of artifact jobs.
type ArtifactServiceConfig struct {
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// ArtifactDownload aggregates a resolved download.
type ArtifactDownload struct {
	File      *os.File
	Filename  string
	Format    models.ArtifactFormat
	ExpiresAt time.Time
}

// ArtifactService is the fire-and-forget entry point for document generation.
type ArtifactService struct {
	repo    artifactJobStore
	queue   jobDispatcher
	files   artifactFiles
	tokens  downloadTokenParser
	metrics artifactMetrics
	logger  *zap.Logger
	cfg     ArtifactServiceConfig
}

// NewArtifactService constructs the artifact service.
func NewArtifactService(repo artifactJobStore, queue jobDispatcher, files artifactFiles, tokens downloadTokenParser, metrics artifactMetrics, logger *zap.Logger, cfg ArtifactServiceConfig) *ArtifactService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ArtifactService{
		repo:    repo,
		queue:   queue,
		files:   files,
		tokens:  tokens,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
	}
}

// Trigger records a job and hands it to the queue without waiting for a free
// slot. An error means nothing will be generated; callers treat it as a warning.
func (s *ArtifactService) Trigger(ctx context.Context, artifactType models.ArtifactType, params models.ArtifactParams, actorID string) (*models.ArtifactJob, error) {
	if params.Format == "" {
		params.Format = models.ArtifactFormatPDF
	}
	if !params.Format.Valid() {
		return nil, appErrors.Validation("unsupported artifact format %q", params.Format)
	}
	job := &models.ArtifactJob{
		Type:      artifactType,
		Params:    params,
		Status:    models.ArtifactStatusQueued,
		CreatedBy: actorID,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		s.record(artifactType, "dropped")
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create artifact job")
	}
	if err := s.queue.TryEnqueue(jobs.Job{ID: job.ID, Type: string(job.Type)}); err != nil {
		s.record(artifactType, "dropped")
		if markErr := s.repo.MarkFailed(ctx, job.ID, "failed to enqueue job", time.Now().UTC()); markErr != nil {
			s.logger.Warn("failed to mark artifact job failed", zap.String("job_id", job.ID), zap.Error(markErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue artifact job")
	}
	s.record(artifactType, "queued")
	return job, nil
}

// GetStatus exposes job progress to clients.
func (s *ArtifactService) GetStatus(ctx context.Context, id string) (*dto.ArtifactStatusResponse, error) {
	job, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewArtifactStatusResponse(job), nil
}

// ResolveDownload validates token and opens the stored file.
func (s *ArtifactService) ResolveDownload(ctx context.Context, token string) (*ArtifactDownload, error) {
	jobID, relPath, expiresAt, err := s.tokens.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, err := s.load(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.ResultURL == nil || !strings.HasSuffix(*job.ResultURL, token) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	if job.Status != models.ArtifactStatusFinished {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "artifact not ready")
	}
	file, err := s.files.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open artifact file")
	}
	return &ArtifactDownload{
		File:      file,
		Filename:  filepath.Base(relPath),
		Format:    job.Params.Format,
		ExpiresAt: expiresAt,
	}, nil
}

// RecoverPendingJobs replays jobs that never finished before a restart. Jobs a
// crashed worker left in PROCESSING go back to QUEUED first.
func (s *ArtifactService) RecoverPendingJobs(ctx context.Context) int {
	pending, err := s.repo.ListUnfinished(ctx, 50)
	if err != nil {
		s.logger.Warn("failed to recover queued artifact jobs", zap.Error(err))
		return 0
	}
	recovered := 0
	for _, job := range pending {
		if job.Status == models.ArtifactStatusProcessing {
			if err := s.repo.Requeue(ctx, job.ID, "interrupted by restart"); err != nil {
				s.logger.Warn("failed to reset interrupted artifact job", zap.String("job_id", job.ID), zap.Error(err))
				continue
			}
		}
		if err := s.queue.TryEnqueue(jobs.Job{ID: job.ID, Type: string(job.Type)}); err != nil {
			s.logger.Warn("failed to requeue pending artifact job", zap.String("job_id", job.ID), zap.Error(err))
			continue
		}
		recovered++
	}
	if recovered > 0 {
		s.logger.Info("recovered queued artifact jobs", zap.Int("count", recovered))
	}
	return recovered
}

// StartCleanup purges expired artifacts periodically until ctx is cancelled.
func (s *ArtifactService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.cleanupExpired(ctx)
			}
		}
	}()
}

func (s *ArtifactService) cleanupExpired(ctx context.Context) {
	const batch = 100
	cutoff := time.Now().Add(-s.cfg.ResultTTL)
	expired, err := s.repo.ListFinishedBefore(ctx, cutoff, batch)
	if err != nil {
		s.logger.Warn("artifact cleanup list failed", zap.Error(err))
		return
	}
	for _, job := range expired {
		if job.ResultURL == nil {
			continue
		}
		_, relPath, _, err := s.tokens.Parse(lastSegment(*job.ResultURL), true)
		if err != nil {
			continue
		}
		if err := s.files.Delete(relPath); err != nil {
			s.logger.Warn("artifact cleanup delete failed", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
	if _, err := s.files.CleanupOlderThan(s.cfg.ResultTTL); err != nil {
		s.logger.Warn("artifact filesystem cleanup failed", zap.Error(err))
	}
}

func (s *ArtifactService) load(ctx context.Context, id string) (*models.ArtifactJob, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "artifact job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load artifact job")
	}
	return job, nil
}

func (s *ArtifactService) record(artifactType models.ArtifactType, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordArtifact(string(artifactType), outcome)
	}
}

func lastSegment(url string) string {
	parts := strings.Split(url, "/")
	return parts[len(parts)-1]
}

type documentGenerator interface {
	Generate(ctx context.Context, job *models.ArtifactJob) (*DocumentResult, error)
}

// ArtifactWorker bridges queue jobs to the DocumentService.
type ArtifactWorker struct {
	repo       artifactJobStore
	documents  documentGenerator
	metrics    artifactMetrics
	logger     *zap.Logger
	maxRetries int
}

// NewArtifactWorker constructs a worker. maxRetries must match the queue setting.
func NewArtifactWorker(repo artifactJobStore, documents documentGenerator, metrics artifactMetrics, maxRetries int, logger *zap.Logger) *ArtifactWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &ArtifactWorker{
		repo:       repo,
		documents:  documents,
		metrics:    metrics,
		logger:     logger,
		maxRetries: maxRetries,
	}
}

// Handle processes one queue job. Returned errors let the queue retry.
func (w *ArtifactWorker) Handle(ctx context.Context, job jobs.Job) error {
	record, err := w.repo.GetByID(ctx, job.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			w.logger.Warn("artifact job vanished", zap.String("job_id", job.ID))
			return nil
		}
		return err
	}
	if record.Status == models.ArtifactStatusFinished || record.Status == models.ArtifactStatusFailed {
		return nil
	}
	if err := w.repo.MarkProcessing(ctx, job.ID); err != nil {
		return err
	}

	result, err := w.documents.Generate(ctx, record)
	if err != nil {
		reason := err.Error()
		if job.Attempt+1 >= w.maxRetries {
			if markErr := w.repo.MarkFailed(ctx, job.ID, reason, time.Now().UTC()); markErr != nil {
				w.logger.Warn("failed to mark artifact job failed", zap.String("job_id", job.ID), zap.Error(markErr))
			}
			w.record(record.Type, "failed")
		} else if markErr := w.repo.Requeue(ctx, job.ID, reason); markErr != nil {
			w.logger.Warn("failed to requeue artifact job", zap.String("job_id", job.ID), zap.Error(markErr))
		}
		return fmt.Errorf("generate artifact %s: %w", job.ID, err)
	}

	if err := w.repo.MarkFinished(ctx, job.ID, result.URL, time.Now().UTC()); err != nil {
		w.logger.Warn("failed to mark artifact job finished", zap.String("job_id", job.ID), zap.Error(err))
		return err
	}
	w.record(record.Type, "finished")
	return nil
}

// Dropped marks a job failed when the queue could not take its retry back.
// Without it the row would stay QUEUED with nothing left to run it.
func (w *ArtifactWorker) Dropped(ctx context.Context, job jobs.Job, cause error) {
	record, err := w.repo.GetByID(ctx, job.ID)
	if err != nil {
		w.logger.Warn("failed to load dropped artifact job", zap.String("job_id", job.ID), zap.Error(err))
		return
	}
	if record.Status == models.ArtifactStatusFinished || record.Status == models.ArtifactStatusFailed {
		return
	}
	reason := fmt.Sprintf("retry dropped: %v", cause)
	if err := w.repo.MarkFailed(ctx, job.ID, reason, time.Now().UTC()); err != nil {
		w.logger.Warn("failed to mark artifact job failed", zap.String("job_id", job.ID), zap.Error(err))
		return
	}
	w.record(record.Type, "dropped")
}

func (w *ArtifactWorker) record(artifactType models.ArtifactType, outcome string) {
	if w.metrics != nil {
		w.metrics.RecordArtifact(string(artifactType), outcome)
	}
}
