package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tahfidz-api/internal/models"
)

const studentColumns = `s.id, s.nis, s.full_name, s.class_id, c.name AS class_name, s.active`

// StudentRepository reads the student directory.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository creates a new repository instance.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID returns a student by id.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students s LEFT JOIN classes c ON c.id = s.class_id WHERE s.id = $1`, studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &student, nil
}

// ListRoster returns active students ordered by name. An empty classID lists every class.
func (r *StudentRepository) ListRoster(ctx context.Context, classID string) ([]models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students s LEFT JOIN classes c ON c.id = s.class_id WHERE s.active = TRUE`, studentColumns)
	args := []interface{}{}
	if classID != "" {
		query += " AND s.class_id = $1"
		args = append(args, classID)
	}
	query += " ORDER BY s.full_name ASC"
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("list roster: %w", err)
	}
	return students, nil
}
