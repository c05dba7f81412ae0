package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/tahfidz-api/internal/dto"
	"github.com/noah-isme/tahfidz-api/internal/models"
	"github.com/noah-isme/tahfidz-api/internal/recap"
	appErrors "github.com/noah-isme/tahfidz-api/pkg/errors"
)

const (
	recapCachePrefix     = "recap:"
	examRecapCachePrefix = "tasmi-recap:"
	topResultsLimit      = 10
)

type periodResolver interface {
	Resolve(q models.RecapQuery) (models.DateRange, error)
}

type rosterReader interface {
	ListRoster(ctx context.Context, classID string) ([]models.Student, error)
}

type attendanceReader interface {
	ListByRange(ctx context.Context, from, to time.Time, classID string) ([]models.AttendanceRecord, error)
}

type gradingReader interface {
	ListByRange(ctx context.Context, from, to time.Time, classID string) ([]models.GradingRecord, error)
}

type examReader interface {
	ListGradedBetween(ctx context.Context, from, to time.Time, classID string) ([]models.Tasmi, error)
	CountByStatus(ctx context.Context, rng *models.DateRange, classID string) ([]models.TasmiStatusCount, error)
}

type artifactTrigger interface {
	Trigger(ctx context.Context, artifactType models.ArtifactType, params models.ArtifactParams, actorID string) (*models.ArtifactJob, error)
}

type recapCache interface {
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration)
	Invalidate(ctx context.Context, pattern string)
}

type recapMetrics interface {
	ObserveRecap(period string, duration time.Duration)
}

// RecapConfig tunes the recap service.
type RecapConfig struct {
	Location *time.Location
	CacheTTL time.Duration
}

// RecapDeps groups the collaborators of RecapService.
type RecapDeps struct {
	Resolver   periodResolver
	Students   rosterReader
	Attendance attendanceReader
	Grading    gradingReader
	Exams      examReader
	Artifacts  artifactTrigger
	Cache      recapCache
	Metrics    recapMetrics
}

// RecapService answers period recaps over attendance, daily grading and Tasmi' exams.
type RecapService struct {
	deps   RecapDeps
	logger *zap.Logger
	cfg    RecapConfig
}

// NewRecapService constructs a recap service.
func NewRecapService(deps RecapDeps, cfg RecapConfig, logger *zap.Logger) *RecapService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &RecapService{deps: deps, logger: logger, cfg: cfg}
}

// ParseQuery turns request parameters into a recap query.
func (s *RecapService) ParseQuery(req dto.RecapRequest) (models.RecapQuery, error) {
	q := models.RecapQuery{
		Period:   models.PeriodType(strings.ToUpper(strings.TrimSpace(req.Period))),
		Month:    req.Month,
		Semester: req.Semester,
		Year:     req.Year,
	}
	if !q.Period.Valid() {
		return models.RecapQuery{}, appErrors.Validation("period must be one of DAILY, MONTHLY, SEMESTER")
	}
	if classID := strings.TrimSpace(req.ClassID); classID != "" {
		q.ClassID = &classID
	}
	if q.Period == models.PeriodDaily && req.Date != "" {
		date, err := time.ParseInLocation("2006-01-02", req.Date, s.cfg.Location)
		if err != nil {
			return models.RecapQuery{}, appErrors.Validation("date must use YYYY-MM-DD format")
		}
		q.Date = &date
	}
	return q, nil
}

// Recap parses req and builds the recap.
func (s *RecapService) Recap(ctx context.Context, req dto.RecapRequest) (*models.RecapResult, error) {
	q, err := s.ParseQuery(req)
	if err != nil {
		return nil, err
	}
	return s.Build(ctx, q)
}

// Build resolves the period and aggregates the records that fall inside it.
func (s *RecapService) Build(ctx context.Context, q models.RecapQuery) (*models.RecapResult, error) {
	rng, err := s.deps.Resolver.Resolve(q)
	if err != nil {
		return nil, err
	}
	classID := derefString(q.ClassID)
	key := recapCacheKey(recapCachePrefix, q.Period, rng, classID)

	var cached models.RecapResult
	if s.deps.Cache != nil && s.deps.Cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	start := time.Now()
	roster, err := s.deps.Students.ListRoster(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}
	attendance, err := s.deps.Attendance.ListByRange(ctx, rng.Start, rng.End, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance records")
	}
	grading, err := s.deps.Grading.ListByRange(ctx, rng.Start, rng.End, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grading records")
	}

	result := recap.Aggregate(recap.Input{
		Query:      q,
		Range:      rng,
		Roster:     roster,
		Attendance: attendance,
		Grading:    grading,
	})
	if s.deps.Metrics != nil {
		s.deps.Metrics.ObserveRecap(string(q.Period), time.Since(start))
	}
	if s.deps.Cache != nil {
		s.deps.Cache.Set(ctx, key, result, s.cfg.CacheTTL)
	}
	return &result, nil
}

// ExamRecap lists graded Tasmi' exams held in the period with the average final
// score, registration counts per status and the results of published exams.
func (s *RecapService) ExamRecap(ctx context.Context, req dto.RecapRequest) (*models.TasmiExamRecap, error) {
	q, err := s.ParseQuery(req)
	if err != nil {
		return nil, err
	}
	rng, err := s.deps.Resolver.Resolve(q)
	if err != nil {
		return nil, err
	}
	classID := derefString(q.ClassID)
	key := recapCacheKey(examRecapCachePrefix, q.Period, rng, classID)

	var cached models.TasmiExamRecap
	if s.deps.Cache != nil && s.deps.Cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	items, err := s.deps.Exams.ListGradedBetween(ctx, rng.Start, rng.End, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load graded exams")
	}
	counts, err := s.deps.Exams.CountByStatus(ctx, &rng, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count registrations")
	}
	result := models.TasmiExamRecap{
		Range:          rng,
		ClassID:        q.ClassID,
		Participants:   len(items),
		Predicates:     predicateDistribution(items),
		TopResults:     topPublished(items, topResultsLimit),
		GradedPerClass: gradedPerClass(counts),
		Items:          items,
	}
	for _, row := range counts {
		result.Statuses.Add(row.Status, row.Count)
	}
	if len(items) == 0 {
		result.Empty = true
		result.Items = []models.Tasmi{}
	} else {
		var sum float64
		n := 0
		for _, item := range items {
			if item.FinalScore != nil {
				sum += *item.FinalScore
				n++
			}
		}
		result.AverageScore = mean(sum, n)
	}
	if s.deps.Cache != nil {
		s.deps.Cache.Set(ctx, key, result, s.cfg.CacheTTL)
	}
	return &result, nil
}

// ClassSummary reports every class's registration workload. Classes with
// registrations waiting for a schedule or a grade come first, then classes
// with any registration, each group ordered by name.
func (s *RecapService) ClassSummary(ctx context.Context) ([]models.TasmiClassSummary, error) {
	counts, err := s.deps.Exams.CountByStatus(ctx, nil, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count registrations")
	}
	byClass := make(map[string]int)
	summary := make([]models.TasmiClassSummary, 0)
	for _, row := range counts {
		key := derefString(row.ClassID)
		idx, ok := byClass[key]
		if !ok {
			idx = len(summary)
			byClass[key] = idx
			summary = append(summary, models.TasmiClassSummary{ClassID: row.ClassID, ClassName: derefString(row.ClassName)})
		}
		summary[idx].Counts.Add(row.Status, row.Count)
	}
	for i := range summary {
		summary[i].NeedsAction = summary[i].Counts.NeedsAction()
	}
	sort.SliceStable(summary, func(i, j int) bool {
		a, b := summary[i], summary[j]
		if a.NeedsAction != b.NeedsAction {
			return a.NeedsAction
		}
		if (a.Counts.Total > 0) != (b.Counts.Total > 0) {
			return a.Counts.Total > 0
		}
		return a.ClassName < b.ClassName
	})
	return summary, nil
}

// Export builds the recap and asks for a document of it. The recap is returned
// even when the document could not be queued; the failure becomes a warning.
func (s *RecapService) Export(ctx context.Context, req dto.RecapExportRequest, actor *models.JWTClaims) (*dto.RecapExportResponse, []string, error) {
	if actor == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}
	format := req.Format
	if format == "" {
		format = models.ArtifactFormatPDF
	}
	if !format.Valid() {
		return nil, nil, appErrors.Validation("format must be pdf or csv")
	}
	q, err := s.ParseQuery(req.RecapRequest)
	if err != nil {
		return nil, nil, err
	}
	result, err := s.Build(ctx, q)
	if err != nil {
		return nil, nil, err
	}

	resp := &dto.RecapExportResponse{Recap: result}
	var warnings []string
	if s.deps.Artifacts == nil {
		return resp, []string{artifactWarning}, nil
	}
	job, err := s.deps.Artifacts.Trigger(ctx, models.ArtifactTypeRecap, models.ArtifactParams{Format: format, Recap: &q}, actor.UserID)
	if err != nil {
		s.logger.Warn("recap artifact trigger failed", zap.String("period", string(q.Period)), zap.Error(err))
		warnings = append(warnings, artifactWarning)
	}
	resp.Job = dto.NewArtifactJobRef(job)
	return resp, warnings, nil
}

// InvalidateExamRecaps drops cached exam recaps after a registration changed.
func (s *RecapService) InvalidateExamRecaps(ctx context.Context) {
	if s.deps.Cache != nil {
		s.deps.Cache.Invalidate(ctx, examRecapCachePrefix+"*")
	}
}

func recapCacheKey(prefix string, period models.PeriodType, rng models.DateRange, classID string) string {
	if classID == "" {
		classID = "all"
	}
	return fmt.Sprintf("%s%s:%s:%s", prefix, strings.ToLower(string(period)), rng.Start.Format("20060102"), classID)
}

func predicateDistribution(items []models.Tasmi) map[models.Predicate]int {
	dist := map[models.Predicate]int{
		models.PredicateMumtaz:       0,
		models.PredicateJayyidJiddan: 0,
		models.PredicateJayyid:       0,
		models.PredicateMaqbul:       0,
	}
	for _, item := range items {
		if item.PublishedAt == nil || item.Predicate == nil {
			continue
		}
		if _, ok := dist[*item.Predicate]; ok {
			dist[*item.Predicate]++
		}
	}
	return dist
}

// topPublished returns up to limit published results, best final score first.
func topPublished(items []models.Tasmi, limit int) []models.Tasmi {
	top := make([]models.Tasmi, 0, limit)
	for _, item := range items {
		if item.PublishedAt != nil && item.FinalScore != nil {
			top = append(top, item)
		}
	}
	sort.SliceStable(top, func(i, j int) bool {
		return *top[i].FinalScore > *top[j].FinalScore
	})
	if len(top) > limit {
		top = top[:limit]
	}
	return top
}

func gradedPerClass(counts []models.TasmiStatusCount) []models.ClassCount {
	out := make([]models.ClassCount, 0)
	for _, row := range counts {
		if row.Status != models.TasmiStatusGraded || row.Count == 0 {
			continue
		}
		out = append(out, models.ClassCount{ClassID: row.ClassID, ClassName: derefString(row.ClassName), Count: row.Count})
	}
	return out
}

func mean(sum float64, n int) *float64 {
	if n == 0 {
		return nil
	}
	v := sum / float64(n)
	return &v
}
