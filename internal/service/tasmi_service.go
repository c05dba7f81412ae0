package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/tahfidz-api/internal/dto"
	"github.com/noah-isme/tahfidz-api/internal/models"
	"github.com/noah-isme/tahfidz-api/internal/tasmi"
	appErrors "github.com/noah-isme/tahfidz-api/pkg/errors"
	"github.com/noah-isme/tahfidz-api/pkg/middleware/requestid"
)

const artifactWarning = "document generation could not be queued; the change was saved"

type tasmiRepository interface {
	Create(ctx context.Context, t *models.Tasmi) error
	GetByID(ctx context.Context, id string) (*models.Tasmi, error)
	List(ctx context.Context, filter models.TasmiFilter) ([]models.Tasmi, int, error)
	SaveTransition(ctx context.Context, t *models.Tasmi, from models.TasmiStatus) error
}

type studentLookup interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type transitionMetrics interface {
	RecordTransition(action, outcome string)
}

type examRecapInvalidator interface {
	InvalidateExamRecaps(ctx context.Context)
}

// TransitionResult is the authoritative record after a transition plus any
// non-fatal warnings raised while triggering follow-up work.
type TransitionResult struct {
	Tasmi       *models.Tasmi
	ArtifactJob *models.ArtifactJob
	Warnings    []string
}

// TasmiService manages Tasmi' exam registrations.
type TasmiService struct {
	repo      tasmiRepository
	students  studentLookup
	artifacts artifactTrigger
	recaps    examRecapInvalidator
	metrics   transitionMetrics
	validator *validator.Validate
	location  *time.Location
	logger    *zap.Logger
	now       func() time.Time
}

// NewTasmiService constructs the service. artifacts, recaps and metrics may be nil.
func NewTasmiService(repo tasmiRepository, students studentLookup, artifacts artifactTrigger, recaps examRecapInvalidator, metrics transitionMetrics, validate *validator.Validate, location *time.Location, logger *zap.Logger) *TasmiService {
	if validate == nil {
		validate = validator.New()
	}
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TasmiService{
		repo:      repo,
		students:  students,
		artifacts: artifacts,
		recaps:    recaps,
		metrics:   metrics,
		validator: validate,
		location:  location,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Register opens a PENDING registration for a student.
func (s *TasmiService) Register(ctx context.Context, req dto.RegisterTasmiRequest, actor *models.JWTClaims) (*models.Tasmi, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role == models.RoleStudent {
		if actor.StudentID == "" || actor.StudentID != req.StudentID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "students can only register themselves")
		}
	}
	req.JuzLabel = strings.TrimSpace(req.JuzLabel)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid tasmi registration payload")
	}
	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if !student.Active {
		return nil, appErrors.Validation("student is not active")
	}

	record := &models.Tasmi{
		StudentID:    student.ID,
		StudentName:  student.FullName,
		ClassID:      student.ClassID,
		JuzLabel:     req.JuzLabel,
		MemorizedJuz: *req.MemorizedJuz,
		Status:       models.TasmiStatusPending,
	}
	if req.PreferredDate != nil && *req.PreferredDate != "" {
		date, err := s.parseDate(*req.PreferredDate)
		if err != nil {
			return nil, appErrors.Validation("preferredDate must use YYYY-MM-DD format")
		}
		record.PreferredDate = &date
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create tasmi registration")
	}
	s.logger.Info("tasmi registered",
		zap.String("tasmi_id", record.ID),
		zap.String("student_id", record.StudentID),
		zap.String("request_id", requestid.FromContext(ctx)),
	)
	if s.recaps != nil {
		s.recaps.InvalidateExamRecaps(ctx)
	}
	return record, nil
}

// List returns registrations matching the query, newest first.
func (s *TasmiService) List(ctx context.Context, query dto.TasmiListQuery, actor *models.JWTClaims) ([]models.Tasmi, *models.Pagination, error) {
	filter := models.TasmiFilter{
		StudentID: strings.TrimSpace(query.StudentID),
		ClassID:   strings.TrimSpace(query.ClassID),
		Month:     query.Month,
		Year:      query.Year,
		Page:      query.Page,
		PageSize:  query.PageSize,
	}
	if raw := strings.TrimSpace(query.Status); raw != "" {
		status := models.TasmiStatus(strings.ToUpper(raw))
		if !status.Valid() {
			return nil, nil, appErrors.Validation("unknown status %q", raw)
		}
		filter.Status = &status
	}
	if filter.Month != 0 && (filter.Month < 1 || filter.Month > 12) {
		return nil, nil, appErrors.Validation("month must be between 1 and 12")
	}
	if filter.Month != 0 && filter.Year == 0 {
		return nil, nil, appErrors.Validation("year is required when filtering by month")
	}
	if actor != nil && actor.Role == models.RoleStudent {
		filter.StudentID = actor.StudentID
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tasmi registrations")
	}
	if actor != nil && actor.Role == models.RoleStudent {
		for i := range items {
			if items[i].PublishedAt == nil {
				hideGrading(&items[i])
			}
		}
	}
	return items, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get returns one registration. Students only see their own, and only published scores.
func (s *TasmiService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Tasmi, error) {
	record, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor != nil && actor.Role == models.RoleStudent {
		if record.StudentID != actor.StudentID {
			return nil, appErrors.ErrNotFound
		}
		if record.PublishedAt == nil {
			hideGrading(record)
		}
	}
	return record, nil
}

// Schedule moves a PENDING registration to SCHEDULED.
func (s *TasmiService) Schedule(ctx context.Context, id string, req dto.ScheduleTasmiRequest, actor *models.JWTClaims) (*TransitionResult, error) {
	var date time.Time
	var dateErr error
	if raw := strings.TrimSpace(req.Date); raw != "" {
		if date, dateErr = s.parseDate(raw); dateErr != nil {
			dateErr = appErrors.Validation("exam date must use YYYY-MM-DD format")
		}
	}
	return s.transition(ctx, "schedule", id, func(current models.Tasmi, now time.Time) (models.Tasmi, error) {
		if dateErr != nil && current.Status == models.TasmiStatusPending {
			return models.Tasmi{}, dateErr
		}
		return tasmi.Schedule(current, tasmi.ScheduleInput{Date: date, Time: req.Time, VerifiedBy: actorID(actor)}, now)
	}, false)
}

// Reject moves a PENDING registration to REJECTED.
func (s *TasmiService) Reject(ctx context.Context, id string, req dto.RejectTasmiRequest, actor *models.JWTClaims) (*TransitionResult, error) {
	return s.transition(ctx, "reject", id, func(current models.Tasmi, now time.Time) (models.Tasmi, error) {
		return tasmi.Reject(current, tasmi.RejectInput{Reason: req.Reason, VerifiedBy: actorID(actor)}, now)
	}, false)
}

// Grade scores a SCHEDULED or GRADED registration and requests its result sheet.
func (s *TasmiService) Grade(ctx context.Context, id string, req dto.GradeTasmiRequest, actor *models.JWTClaims) (*TransitionResult, error) {
	in := tasmi.GradeInput{
		Scores: tasmi.Scores{
			Fluency: req.Fluency,
			Tajwid:  req.Tajwid,
			Adab:    req.Adab,
			Rhythm:  req.Rhythm,
		},
		Note:       req.Note,
		ExaminerID: actorID(actor),
		Publish:    req.Publish,
	}
	return s.transition(ctx, "grade", id, func(current models.Tasmi, now time.Time) (models.Tasmi, error) {
		return tasmi.Grade(current, in, now)
	}, true)
}

// Publish releases a graded result to the student.
func (s *TasmiService) Publish(ctx context.Context, id string) (*TransitionResult, error) {
	return s.transition(ctx, "publish", id, tasmi.Publish, false)
}

// RegenerateArtifact requests a fresh result sheet for a graded registration.
func (s *TasmiService) RegenerateArtifact(ctx context.Context, id string, format models.ArtifactFormat, actor *models.JWTClaims) (*models.ArtifactJob, error) {
	record, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.Status != models.TasmiStatusGraded {
		return nil, appErrors.InvalidState("cannot generate a result for a %s registration: action not allowed in current status", record.Status)
	}
	if s.artifacts == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "document generation is not configured")
	}
	return s.artifacts.Trigger(ctx, models.ArtifactTypeTasmiResult, models.ArtifactParams{Format: format, TasmiID: record.ID}, actorID(actor))
}

type transitionFunc func(current models.Tasmi, now time.Time) (models.Tasmi, error)

// transition loads the record, applies fn and persists the outcome guarded on
// the status it started from. A concurrent change surfaces as InvalidState.
func (s *TasmiService) transition(ctx context.Context, action, id string, fn transitionFunc, trigger bool) (*TransitionResult, error) {
	current, err := s.load(ctx, id)
	if err != nil {
		s.record(action, "error")
		return nil, err
	}
	next, err := fn(*current, s.now())
	if err != nil {
		s.record(action, outcomeOf(err))
		return nil, err
	}
	if err := s.repo.SaveTransition(ctx, &next, current.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.record(action, "invalid_state")
			return nil, appErrors.InvalidState("registration changed while processing %s: action not allowed in current status", action)
		}
		s.record(action, "error")
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save tasmi registration")
	}
	s.record(action, "ok")
	s.logger.Info("tasmi transition",
		zap.String("tasmi_id", next.ID),
		zap.String("action", action),
		zap.String("from", string(current.Status)),
		zap.String("to", string(next.Status)),
		zap.String("request_id", requestid.FromContext(ctx)),
	)
	// exam recaps carry per-status counts, so any transition stales them
	if s.recaps != nil {
		s.recaps.InvalidateExamRecaps(ctx)
	}

	result := &TransitionResult{Tasmi: &next}
	if trigger {
		result.ArtifactJob, result.Warnings = s.triggerResultSheet(ctx, next)
	}
	return result, nil
}

// triggerResultSheet never fails the transition it follows.
func (s *TasmiService) triggerResultSheet(ctx context.Context, record models.Tasmi) (*models.ArtifactJob, []string) {
	if s.artifacts == nil {
		return nil, []string{artifactWarning}
	}
	job, err := s.artifacts.Trigger(ctx, models.ArtifactTypeTasmiResult, models.ArtifactParams{Format: models.ArtifactFormatPDF, TasmiID: record.ID}, derefString(record.ExaminerID))
	if err != nil {
		s.logger.Warn("tasmi result artifact trigger failed", zap.String("tasmi_id", record.ID), zap.Error(err))
		return nil, []string{artifactWarning}
	}
	return job, nil
}

func (s *TasmiService) load(ctx context.Context, id string) (*models.Tasmi, error) {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tasmi registration not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tasmi registration")
	}
	return record, nil
}

func (s *TasmiService) parseDate(raw string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", strings.TrimSpace(raw), s.location)
}

func (s *TasmiService) record(action, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordTransition(action, outcome)
	}
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, appErrors.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, appErrors.ErrValidation):
		return "invalid_input"
	default:
		return "error"
	}
}

func hideGrading(t *models.Tasmi) {
	t.ScoreFluency = nil
	t.ScoreTajwid = nil
	t.ScoreAdab = nil
	t.ScoreRhythm = nil
	t.ExaminerNote = nil
	t.FinalScore = nil
	t.Predicate = nil
}

func actorID(actor *models.JWTClaims) string {
	if actor == nil {
		return ""
	}
	return actor.UserID
}
