package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tahfidz-api/internal/dto"
	"github.com/noah-isme/tahfidz-api/internal/models"
	"github.com/noah-isme/tahfidz-api/internal/service"
	appErrors "github.com/noah-isme/tahfidz-api/pkg/errors"
)

type tasmiServiceMock struct {
	registered  dto.RegisterTasmiRequest
	listQuery   dto.TasmiListQuery
	gradeReq    dto.GradeTasmiRequest
	gradeID     string
	format      models.ArtifactFormat
	actor       *models.JWTClaims
	record      *models.Tasmi
	result      *service.TransitionResult
	job         *models.ArtifactJob
	err         error
	listItems   []models.Tasmi
	listPaging  *models.Pagination
	publishedID string
}

func (m *tasmiServiceMock) Register(_ context.Context, req dto.RegisterTasmiRequest, actor *models.JWTClaims) (*models.Tasmi, error) {
	m.registered = req
	m.actor = actor
	return m.record, m.err
}

func (m *tasmiServiceMock) List(_ context.Context, query dto.TasmiListQuery, actor *models.JWTClaims) ([]models.Tasmi, *models.Pagination, error) {
	m.listQuery = query
	m.actor = actor
	return m.listItems, m.listPaging, m.err
}

func (m *tasmiServiceMock) Get(_ context.Context, _ string, actor *models.JWTClaims) (*models.Tasmi, error) {
	m.actor = actor
	return m.record, m.err
}

func (m *tasmiServiceMock) Schedule(context.Context, string, dto.ScheduleTasmiRequest, *models.JWTClaims) (*service.TransitionResult, error) {
	return m.result, m.err
}

func (m *tasmiServiceMock) Reject(context.Context, string, dto.RejectTasmiRequest, *models.JWTClaims) (*service.TransitionResult, error) {
	return m.result, m.err
}

func (m *tasmiServiceMock) Grade(_ context.Context, id string, req dto.GradeTasmiRequest, _ *models.JWTClaims) (*service.TransitionResult, error) {
	m.gradeID = id
	m.gradeReq = req
	return m.result, m.err
}

func (m *tasmiServiceMock) Publish(_ context.Context, id string) (*service.TransitionResult, error) {
	m.publishedID = id
	return m.result, m.err
}

func (m *tasmiServiceMock) RegenerateArtifact(_ context.Context, _ string, format models.ArtifactFormat, _ *models.JWTClaims) (*models.ArtifactJob, error) {
	m.format = format
	return m.job, m.err
}

func TestTasmiHandlerRegister(t *testing.T) {
	juz := 5
	svc := &tasmiServiceMock{record: &models.Tasmi{ID: "tasmi-1", Status: models.TasmiStatusPending}}
	h := NewTasmiHandler(svc)

	payload, _ := json.Marshal(dto.RegisterTasmiRequest{StudentID: "stu-1", JuzLabel: "Juz 30", MemorizedJuz: &juz})
	c, w := newGinContext(http.MethodPost, "/tasmi", payload)
	withClaims(c, "stu-1", models.RoleStudent)

	h.Register(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "stu-1", svc.registered.StudentID)
	assert.Equal(t, "stu-1", svc.actor.UserID)
}

func TestTasmiHandlerRegisterRejectsMalformedBody(t *testing.T) {
	svc := &tasmiServiceMock{}
	h := NewTasmiHandler(svc)

	c, w := newGinContext(http.MethodPost, "/tasmi", []byte("{"))
	h.Register(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrValidation.Code, env.Error.Code)
}

func TestTasmiHandlerListBindsQuery(t *testing.T) {
	svc := &tasmiServiceMock{
		listItems:  []models.Tasmi{{ID: "tasmi-1"}},
		listPaging: &models.Pagination{Page: 2, PageSize: 10, TotalCount: 11},
	}
	h := NewTasmiHandler(svc)

	c, w := newGinContext(http.MethodGet, "/tasmi?status=GRADED&month=10&year=2025&page=2&pageSize=10", nil)
	withClaims(c, "guru-1", models.RoleTeacher)
	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "GRADED", svc.listQuery.Status)
	assert.Equal(t, 10, svc.listQuery.Month)
	assert.Equal(t, 2025, svc.listQuery.Year)
	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 11, env.Pagination.TotalCount)
}

func TestTasmiHandlerGradeReturnsWarningsAndJob(t *testing.T) {
	fluency, tajwid, adab, rhythm := 90.0, 85.0, 95.0, 80.0
	svc := &tasmiServiceMock{result: &service.TransitionResult{
		Tasmi:       &models.Tasmi{ID: "tasmi-1", Status: models.TasmiStatusGraded},
		ArtifactJob: &models.ArtifactJob{ID: "job-9"},
		Warnings:    []string{"document generation could not be queued; the change was saved"},
	}}
	h := NewTasmiHandler(svc)

	payload, _ := json.Marshal(dto.GradeTasmiRequest{Fluency: &fluency, Tajwid: &tajwid, Adab: &adab, Rhythm: &rhythm})
	c, w := newGinContext(http.MethodPost, "/tasmi/tasmi-1/grade", payload)
	c.Params = gin.Params{{Key: "id", Value: "tasmi-1"}}
	withClaims(c, "guru-1", models.RoleTeacher)
	h.Grade(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "tasmi-1", svc.gradeID)
	require.NotNil(t, svc.gradeReq.Rhythm)
	env := decodeEnvelope(t, w)
	assert.Equal(t, "job-9", env.Meta["artifactJobId"])
	assert.Len(t, env.Meta["warnings"], 1)
}

func TestTasmiHandlerTransitionConflict(t *testing.T) {
	svc := &tasmiServiceMock{err: appErrors.InvalidState("tasmi is REJECTED")}
	h := NewTasmiHandler(svc)

	c, w := newGinContext(http.MethodPost, "/tasmi/tasmi-1/schedule", []byte(`{"date":"2025-10-10","time":"08:00"}`))
	c.Params = gin.Params{{Key: "id", Value: "tasmi-1"}}
	h.Schedule(c)

	require.Equal(t, http.StatusConflict, w.Code)
	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrInvalidState.Code, env.Error.Code)
}

func TestTasmiHandlerPublish(t *testing.T) {
	svc := &tasmiServiceMock{result: &service.TransitionResult{Tasmi: &models.Tasmi{ID: "tasmi-1"}}}
	h := NewTasmiHandler(svc)

	c, w := newGinContext(http.MethodPost, "/tasmi/tasmi-1/publish", nil)
	c.Params = gin.Params{{Key: "id", Value: "tasmi-1"}}
	h.Publish(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "tasmi-1", svc.publishedID)
	assert.Empty(t, decodeEnvelope(t, w).Meta)
}

func TestTasmiHandlerRegenerateArtifactDefaultsToPDF(t *testing.T) {
	svc := &tasmiServiceMock{job: &models.ArtifactJob{ID: "job-1", Type: models.ArtifactTypeTasmiResult, Status: models.ArtifactStatusQueued}}
	h := NewTasmiHandler(svc)

	c, w := newGinContext(http.MethodPost, "/tasmi/tasmi-1/artifact", nil)
	c.Params = gin.Params{{Key: "id", Value: "tasmi-1"}}
	h.RegenerateArtifact(c)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, models.ArtifactFormatPDF, svc.format)

	c, _ = newGinContext(http.MethodPost, "/tasmi/tasmi-1/artifact?format=csv", nil)
	c.Params = gin.Params{{Key: "id", Value: "tasmi-1"}}
	h.RegenerateArtifact(c)
	assert.Equal(t, models.ArtifactFormatCSV, svc.format)
}
