package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/tahfidz-api/internal/models"
	"github.com/noah-isme/tahfidz-api/pkg/storage"
)

type recapBuilderStub struct {
	result *models.RecapResult
}

func (r recapBuilderStub) Build(ctx context.Context, q models.RecapQuery) (*models.RecapResult, error) {
	return r.result, nil
}

func gradedTasmi() models.Tasmi {
	examDate := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	examTime := "10:00"
	predicate := models.PredicateJayyidJiddan
	note := "Lancar, perbaiki mad"
	return models.Tasmi{
		ID: "t-1", StudentID: "stu-1", StudentName: "Ahmad Fauzi", JuzLabel: "Juz 30", MemorizedJuz: 12,
		Status: models.TasmiStatusGraded, ExamDate: &examDate, ExamTime: &examTime,
		ScoreFluency: score(80), ScoreTajwid: score(85), ScoreAdab: score(90), ScoreRhythm: score(75),
		FinalScore: score(82.5), Predicate: &predicate, ExaminerNote: &note,
	}
}

func newDocumentServiceForTest(t *testing.T, records *tasmiRepoStub, recaps recapBuilder) (*DocumentService, *storage.LocalStorage) {
	t.Helper()
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	svc := NewDocumentService(records, recaps, files, signer, DocumentConfig{APIPrefix: "/api/v1/", Location: time.UTC}, zap.NewNop(), nil, nil)
	return svc, files
}

func TestDocumentServiceTasmiResultCSV(t *testing.T) {
	svc, files := newDocumentServiceForTest(t, newTasmiRepoStub(gradedTasmi()), nil)
	job := &models.ArtifactJob{ID: "job-1", Type: models.ArtifactTypeTasmiResult, Params: models.ArtifactParams{Format: models.ArtifactFormatCSV, TasmiID: "t-1"}}

	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.URL, "/api/v1/artifacts/download/"))
	assert.True(t, strings.HasPrefix(result.RelativePath, "tasmi_result/Ahmad_Fauzi_t-1_"))
	assert.True(t, strings.HasSuffix(result.RelativePath, ".csv"))

	file, err := files.Open(result.RelativePath)
	require.NoError(t, err)
	defer file.Close()
	body, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Component,Score")
	assert.Contains(t, string(body), "Final score,82.50")
}

func TestDocumentServiceTasmiResultPDF(t *testing.T) {
	svc, files := newDocumentServiceForTest(t, newTasmiRepoStub(gradedTasmi()), nil)
	job := &models.ArtifactJob{ID: "job-1", Type: models.ArtifactTypeTasmiResult, Params: models.ArtifactParams{Format: models.ArtifactFormatPDF, TasmiID: "t-1"}}

	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	file, err := files.Open(result.RelativePath)
	require.NoError(t, err)
	defer file.Close()
	head := make([]byte, 4)
	_, err = io.ReadFull(file, head)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(head))
}

func TestDocumentServiceRejectsUngraded(t *testing.T) {
	pending := gradedTasmi()
	pending.Status = models.TasmiStatusPending
	pending.FinalScore = nil
	svc, _ := newDocumentServiceForTest(t, newTasmiRepoStub(pending), nil)

	_, err := svc.Generate(context.Background(), &models.ArtifactJob{ID: "job-1", Type: models.ArtifactTypeTasmiResult, Params: models.ArtifactParams{Format: models.ArtifactFormatPDF, TasmiID: "t-1"}})
	assert.Error(t, err)
}

func TestDocumentServiceRecapCSV(t *testing.T) {
	status := models.AttendanceStatusSick
	recap := &models.RecapResult{
		Period: models.PeriodDaily,
		Range:  models.DateRange{Start: time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2025, 10, 1, 23, 59, 59, 0, time.UTC)},
		Daily: []models.DailyRecapRow{
			{StudentID: "stu-1", StudentName: "Ahmad", Attendance: &status},
		},
	}
	svc, files := newDocumentServiceForTest(t, newTasmiRepoStub(), recapBuilderStub{result: recap})
	q := models.RecapQuery{Period: models.PeriodDaily}
	result, err := svc.Generate(context.Background(), &models.ArtifactJob{ID: "job-9", Type: models.ArtifactTypeRecap, Params: models.ArtifactParams{Format: models.ArtifactFormatCSV, Recap: &q}})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.RelativePath, "recap/daily_20251001_"))

	file, err := files.Open(result.RelativePath)
	require.NoError(t, err)
	defer file.Close()
	body, err := io.ReadAll(file)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Student,Attendance,Tajwid,Fluency,Makhraj,Adab,Total,Notes", lines[0])
	assert.Equal(t, "Ahmad,SICK,-,-,-,-,-,", lines[1])
}

func TestDocumentServiceUnsupported(t *testing.T) {
	svc, _ := newDocumentServiceForTest(t, newTasmiRepoStub(gradedTasmi()), nil)
	_, err := svc.Generate(context.Background(), &models.ArtifactJob{ID: "job-1", Type: models.ArtifactTypeTasmiResult, Params: models.ArtifactParams{Format: "xlsx", TasmiID: "t-1"}})
	assert.Error(t, err)
	_, err = svc.Generate(context.Background(), &models.ArtifactJob{ID: "job-1", Type: models.ArtifactTypeRecap, Params: models.ArtifactParams{Format: models.ArtifactFormatCSV}})
	assert.Error(t, err)
}
