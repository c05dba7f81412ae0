package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tahfidz-api/internal/models"
)

const tasmiColumns = `t.id, t.student_id, s.full_name AS student_name, s.class_id, t.juz_label, t.memorized_juz, t.status,
t.preferred_date, t.exam_date, t.exam_time, t.verified_by, t.rejection_reason,
t.score_fluency, t.score_tajwid, t.score_adab, t.score_rhythm, t.examiner_note, t.final_score, t.predicate,
t.examiner_id, t.graded_at, t.published_at, t.registered_at, t.updated_at`

const tasmiFrom = `FROM tasmi_registrations t JOIN students s ON s.id = t.student_id`

// TasmiRepository persists Tasmi' exam registrations.
type TasmiRepository struct {
	db *sqlx.DB
}

// NewTasmiRepository constructs the repository.
func NewTasmiRepository(db *sqlx.DB) *TasmiRepository {
	return &TasmiRepository{db: db}
}

// Create inserts a new registration, defaulting id, status and timestamps.
func (r *TasmiRepository) Create(ctx context.Context, t *models.Tasmi) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = models.TasmiStatusPending
	}
	now := time.Now().UTC()
	if t.RegisteredAt.IsZero() {
		t.RegisteredAt = now
	}
	t.UpdatedAt = now
	const query = `INSERT INTO tasmi_registrations (id, student_id, juz_label, memorized_juz, status, preferred_date, registered_at, updated_at)
VALUES (:id, :student_id, :juz_label, :memorized_juz, :status, :preferred_date, :registered_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, t); err != nil {
		return fmt.Errorf("create tasmi registration: %w", err)
	}
	return nil
}

// GetByID returns one registration with student context.
func (r *TasmiRepository) GetByID(ctx context.Context, id string) (*models.Tasmi, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE t.id = $1", tasmiColumns, tasmiFrom)
	var t models.Tasmi
	if err := r.db.GetContext(ctx, &t, query, id); err != nil {
		return nil, fmt.Errorf("get tasmi registration: %w", err)
	}
	return &t, nil
}

// List returns registrations matching filter, newest first.
func (r *TasmiRepository) List(ctx context.Context, filter models.TasmiFilter) ([]models.Tasmi, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.Status != nil && filter.Status.Valid() {
		where = append(where, fmt.Sprintf("t.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.StudentID != "" {
		where = append(where, fmt.Sprintf("t.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.ClassID != "" {
		where = append(where, fmt.Sprintf("s.class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.Year > 0 {
		where = append(where, fmt.Sprintf("EXTRACT(YEAR FROM t.exam_date) = $%d", len(args)+1))
		args = append(args, filter.Year)
		if filter.Month >= 1 && filter.Month <= 12 {
			where = append(where, fmt.Sprintf("EXTRACT(MONTH FROM t.exam_date) = $%d", len(args)+1))
			args = append(args, filter.Month)
		}
	}
	whereClause := strings.Join(where, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s WHERE %s ORDER BY t.registered_at DESC LIMIT %d OFFSET %d", tasmiColumns, tasmiFrom, whereClause, size, offset)
	var rows []models.Tasmi
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list tasmi registrations: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", tasmiFrom, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count tasmi registrations: %w", err)
	}
	return rows, total, nil
}

// SaveTransition writes the mutable fields of t, guarded on the status the
// transition started from. It returns sql.ErrNoRows when the row is missing or
// its status has moved on.
func (r *TasmiRepository) SaveTransition(ctx context.Context, t *models.Tasmi, from models.TasmiStatus) error {
	const query = `UPDATE tasmi_registrations SET status = $1, exam_date = $2, exam_time = $3, verified_by = $4, rejection_reason = $5,
score_fluency = $6, score_tajwid = $7, score_adab = $8, score_rhythm = $9, examiner_note = $10, final_score = $11, predicate = $12,
examiner_id = $13, graded_at = $14, published_at = $15, updated_at = $16
WHERE id = $17 AND status = $18`
	res, err := r.db.ExecContext(ctx, query,
		t.Status, t.ExamDate, t.ExamTime, t.VerifiedBy, t.RejectionReason,
		t.ScoreFluency, t.ScoreTajwid, t.ScoreAdab, t.ScoreRhythm, t.ExaminerNote, t.FinalScore, t.Predicate,
		t.ExaminerID, t.GradedAt, t.PublishedAt, t.UpdatedAt,
		t.ID, from,
	)
	if err != nil {
		return fmt.Errorf("save tasmi transition: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save tasmi transition rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListGradedBetween returns graded registrations whose exam date falls in
// [from, to], optionally limited to one class, ordered by exam date.
func (r *TasmiRepository) ListGradedBetween(ctx context.Context, from, to time.Time, classID string) ([]models.Tasmi, error) {
	args := []interface{}{models.TasmiStatusGraded, sqlDate(from), sqlDate(to)}
	where := "t.status = $1 AND t.exam_date >= $2 AND t.exam_date <= $3"
	if classID != "" {
		where += " AND s.class_id = $4"
		args = append(args, classID)
	}
	query := fmt.Sprintf("SELECT %s %s WHERE %s ORDER BY t.exam_date ASC, s.full_name ASC", tasmiColumns, tasmiFrom, where)
	var rows []models.Tasmi
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list graded tasmi: %w", err)
	}
	return rows, nil
}

// CountByStatus groups registrations by class and status. A nil rng counts
// every registration; otherwise only those registered inside it.
func (r *TasmiRepository) CountByStatus(ctx context.Context, rng *models.DateRange, classID string) ([]models.TasmiStatusCount, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if rng != nil {
		where = append(where, fmt.Sprintf("t.registered_at >= $%d AND t.registered_at <= $%d", len(args)+1, len(args)+2))
		args = append(args, rng.Start, rng.End)
	}
	if classID != "" {
		where = append(where, fmt.Sprintf("s.class_id = $%d", len(args)+1))
		args = append(args, classID)
	}
	query := fmt.Sprintf(`SELECT s.class_id, c.name AS class_name, t.status, COUNT(*) AS count
%s LEFT JOIN classes c ON c.id = s.class_id
WHERE %s
GROUP BY s.class_id, c.name, t.status
ORDER BY c.name ASC, t.status ASC`, tasmiFrom, strings.Join(where, " AND "))
	var rows []models.TasmiStatusCount
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("count tasmi by status: %w", err)
	}
	return rows, nil
}
