package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tahfidz-api/internal/models"
)

// AttendanceRepository reads halaqah attendance records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// ListByRange returns attendance rows dated within [from, to], optionally for one class.
func (r *AttendanceRepository) ListByRange(ctx context.Context, from, to time.Time, classID string) ([]models.AttendanceRecord, error) {
	query := `SELECT a.id, a.student_id, s.full_name AS student_name, s.class_id, a.date, a.status, a.notes, a.created_at
FROM attendance_records a JOIN students s ON s.id = a.student_id
WHERE a.date >= $1 AND a.date <= $2`
	args := []interface{}{sqlDate(from), sqlDate(to)}
	if classID != "" {
		query += " AND s.class_id = $3"
		args = append(args, classID)
	}
	query += " ORDER BY a.date ASC, s.full_name ASC"
	var rows []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list attendance by range: %w", err)
	}
	return rows, nil
}

// sqlDate renders the calendar day of t in t's own zone. DATE columns are
// compared against it so the session time zone never shifts a bound.
func sqlDate(t time.Time) string {
	return t.Format("2006-01-02")
}
