package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tahfidz-api/internal/dto"
	"github.com/noah-isme/tahfidz-api/internal/models"
	appErrors "github.com/noah-isme/tahfidz-api/pkg/errors"
)

type recapServiceMock struct {
	req       dto.RecapRequest
	exportReq dto.RecapExportRequest
	result    *models.RecapResult
	exams     *models.TasmiExamRecap
	summary   []models.TasmiClassSummary
	export    *dto.RecapExportResponse
	warnings  []string
	err       error
}

func (m *recapServiceMock) Recap(_ context.Context, req dto.RecapRequest) (*models.RecapResult, error) {
	m.req = req
	return m.result, m.err
}

func (m *recapServiceMock) ExamRecap(_ context.Context, req dto.RecapRequest) (*models.TasmiExamRecap, error) {
	m.req = req
	return m.exams, m.err
}

func (m *recapServiceMock) ClassSummary(_ context.Context) ([]models.TasmiClassSummary, error) {
	return m.summary, m.err
}

func (m *recapServiceMock) Export(_ context.Context, req dto.RecapExportRequest, _ *models.JWTClaims) (*dto.RecapExportResponse, []string, error) {
	m.exportReq = req
	return m.export, m.warnings, m.err
}

func TestRecapHandlerRecapBindsSelector(t *testing.T) {
	svc := &recapServiceMock{result: &models.RecapResult{Empty: true}}
	h := NewRecapHandler(svc)

	c, w := newGinContext(http.MethodGet, "/recap?period=MONTHLY&month=10&year=2025&classId=class-a", nil)
	h.Recap(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MONTHLY", svc.req.Period)
	assert.Equal(t, 10, svc.req.Month)
	assert.Equal(t, 2025, svc.req.Year)
	assert.Equal(t, "class-a", svc.req.ClassID)
}

func TestRecapHandlerRecapPropagatesValidation(t *testing.T) {
	svc := &recapServiceMock{err: appErrors.Validation("period must be DAILY, MONTHLY or SEMESTER")}
	h := NewRecapHandler(svc)

	c, w := newGinContext(http.MethodGet, "/recap?period=WEEKLY", nil)
	h.Recap(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecapHandlerExamRecap(t *testing.T) {
	svc := &recapServiceMock{exams: &models.TasmiExamRecap{Participants: 2}}
	h := NewRecapHandler(svc)

	c, w := newGinContext(http.MethodGet, "/tasmi/recap?period=SEMESTER&semester=1&year=2025", nil)
	h.ExamRecap(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, svc.req.Semester)
}

func TestRecapHandlerClassSummary(t *testing.T) {
	classID := "class-b"
	svc := &recapServiceMock{summary: []models.TasmiClassSummary{{
		ClassID:     &classID,
		ClassName:   "7B",
		Counts:      models.TasmiStatusCounts{Pending: 1, Total: 1},
		NeedsAction: true,
	}}}
	h := NewRecapHandler(svc)

	c, w := newGinContext(http.MethodGet, "/tasmi/summary", nil)
	h.ClassSummary(c)

	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	var rows []models.TasmiClassSummary
	require.NoError(t, json.Unmarshal(env.Data, &rows))
	require.Len(t, rows, 1)
	assert.True(t, rows[0].NeedsAction)
	assert.Equal(t, 1, rows[0].Counts.Pending)

	svc.err = appErrors.Wrap(errors.New("db down"), appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count registrations")
	c, w = newGinContext(http.MethodGet, "/tasmi/summary", nil)
	h.ClassSummary(c)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRecapHandlerExportAccepted(t *testing.T) {
	svc := &recapServiceMock{
		export:   &dto.RecapExportResponse{Recap: &models.RecapResult{}},
		warnings: []string{"document generation could not be queued; the change was saved"},
	}
	h := NewRecapHandler(svc)

	c, w := newGinContext(http.MethodPost, "/recap/export", []byte(`{"period":"DAILY","date":"2025-10-01","format":"csv"}`))
	withClaims(c, "admin-1", models.RoleAdmin)
	h.Export(c)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "DAILY", svc.exportReq.Period)
	assert.Equal(t, "2025-10-01", svc.exportReq.Date)
	assert.Equal(t, models.ArtifactFormatCSV, svc.exportReq.Format)
	assert.Len(t, decodeEnvelope(t, w).Meta["warnings"], 1)
}
