package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tahfidz-api/internal/models"
)

// GradingRepository reads daily memorisation assessments.
type GradingRepository struct {
	db *sqlx.DB
}

// NewGradingRepository constructs the repository.
func NewGradingRepository(db *sqlx.DB) *GradingRepository {
	return &GradingRepository{db: db}
}

// ListByRange returns grading rows dated within [from, to], optionally for one
// class. Rows of the same day are ordered by creation time.
func (r *GradingRepository) ListByRange(ctx context.Context, from, to time.Time, classID string) ([]models.GradingRecord, error) {
	query := `SELECT g.id, g.student_id, s.full_name AS student_name, s.class_id, g.date, g.tajwid, g.fluency, g.makhraj, g.adab, g.total,
g.notes, g.graded_by, g.created_at, g.updated_at
FROM grading_records g JOIN students s ON s.id = g.student_id
WHERE g.date >= $1 AND g.date <= $2`
	args := []interface{}{sqlDate(from), sqlDate(to)}
	if classID != "" {
		query += " AND s.class_id = $3"
		args = append(args, classID)
	}
	query += " ORDER BY g.date ASC, g.created_at ASC"
	var rows []models.GradingRecord
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list grading by range: %w", err)
	}
	return rows, nil
}
