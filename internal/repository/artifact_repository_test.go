package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tahfidz-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

var artifactRowColumns = []string{"id", "type", "params", "status", "progress", "result_url", "created_by", "created_at", "finished_at", "error_message"}

func TestArtifactRepositoryCreateAndGet(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewArtifactRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO artifact_jobs")).
		WithArgs(sqlmock.AnyArg(), "TASMI_RESULT", sqlmock.AnyArg(), "QUEUED", 0, nil, "guru-1", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	job := &models.ArtifactJob{
		Type:      models.ArtifactTypeTasmiResult,
		Params:    models.ArtifactParams{TasmiID: "tasmi-1", Format: models.ArtifactFormatPDF},
		CreatedBy: "guru-1",
	}
	require.NoError(t, repo.Create(context.Background(), job))
	require.NotEmpty(t, job.ID)

	rows := sqlmock.NewRows(artifactRowColumns).
		AddRow(job.ID, "TASMI_RESULT", `{"format":"pdf","tasmiId":"tasmi-1"}`, "QUEUED", 0, nil, "guru-1", time.Now(), nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, type, params, status, progress, result_url, created_by, created_at, finished_at, error_message FROM artifact_jobs WHERE id = $1")).
		WithArgs(job.ID).
		WillReturnRows(rows)

	fetched, err := repo.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	require.Equal(t, job.ID, fetched.ID)
	require.Equal(t, "tasmi-1", fetched.Params.TasmiID)
	require.Equal(t, models.ArtifactFormatPDF, fetched.Params.Format)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestArtifactRepositoryStateUpdates(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewArtifactRepository(db)
	now := time.Now()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE artifact_jobs SET status = $1, progress = $2 WHERE id = $3")).
		WithArgs("PROCESSING", 10, "job-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE artifact_jobs SET status = $1, progress = 100, result_url = $2")).
		WithArgs("FINISHED", "/api/v1/artifacts/download/token", now, "job-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE artifact_jobs SET status = $1, progress = 0, error_message = $2 WHERE id = $3")).
		WithArgs("QUEUED", "render failed", "job-2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE artifact_jobs SET status = $1, progress = 100, error_message = $2, finished_at = $3 WHERE id = $4")).
		WithArgs("FAILED", "render failed", now, "job-2").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ctx := context.Background()
	require.NoError(t, repo.MarkProcessing(ctx, "job-1"))
	require.NoError(t, repo.MarkFinished(ctx, "job-1", "/api/v1/artifacts/download/token", now))
	require.NoError(t, repo.Requeue(ctx, "job-2", "render failed"))
	require.NoError(t, repo.MarkFailed(ctx, "job-2", "render failed", now))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestArtifactRepositoryListUnfinished(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewArtifactRepository(db)

	rows := sqlmock.NewRows(artifactRowColumns).
		AddRow("job-1", "RECAP", `{"format":"csv","recap":{"period":"MONTHLY","month":10,"year":2025}}`, "QUEUED", 0, nil, "admin-1", time.Now(), nil, nil).
		AddRow("job-2", "TASMI_RESULT", `{"format":"pdf","tasmiId":"tasmi-1"}`, "PROCESSING", 10, nil, "admin-1", time.Now(), nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM artifact_jobs WHERE status IN ('QUEUED', 'PROCESSING') ORDER BY created_at ASC LIMIT $1")).
		WithArgs(20).
		WillReturnRows(rows)

	jobs, err := repo.ListUnfinished(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	require.Equal(t, models.ArtifactStatusProcessing, jobs[1].Status)
	require.NotNil(t, jobs[0].Params.Recap)
	require.Equal(t, models.PeriodMonthly, jobs[0].Params.Recap.Period)
	require.Equal(t, 10, jobs[0].Params.Recap.Month)
	require.NoError(t, mock.ExpectationsWereMet())
}
