package models

import "time"

// GradingRecord holds the daily memorisation assessment of a student.
// Components are nullable because a teacher may grade only part of a session.
type GradingRecord struct {
	ID          string     `db:"id" json:"id"`
	StudentID   string     `db:"student_id" json:"student_id"`
	StudentName string     `db:"student_name" json:"student_name"`
	ClassID     *string    `db:"class_id" json:"class_id,omitempty"`
	Date        time.Time  `db:"date" json:"date"`
	Tajwid      *float64   `db:"tajwid" json:"tajwid"`
	Fluency     *float64   `db:"fluency" json:"fluency"`
	Makhraj     *float64   `db:"makhraj" json:"makhraj"`
	Adab        *float64   `db:"adab" json:"adab"`
	Total       *float64   `db:"total" json:"total"`
	Notes       *string    `db:"notes" json:"notes,omitempty"`
	GradedBy    *string    `db:"graded_by" json:"graded_by,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}
