package models

import "time"

// TasmiStatus enumerates the lifecycle states of an exam registration.
type TasmiStatus string

const (
	TasmiStatusPending   TasmiStatus = "PENDING"
	TasmiStatusScheduled TasmiStatus = "SCHEDULED"
	TasmiStatusRejected  TasmiStatus = "REJECTED"
	TasmiStatusGraded    TasmiStatus = "GRADED"
)

// Valid reports whether the status is one of the known states.
func (s TasmiStatus) Valid() bool {
	switch s {
	case TasmiStatusPending, TasmiStatusScheduled, TasmiStatusRejected, TasmiStatusGraded:
		return true
	default:
		return false
	}
}

// Predicate is the qualitative classification derived from a final score.
type Predicate string

const (
	PredicateMumtaz       Predicate = "Mumtaz"
	PredicateJayyidJiddan Predicate = "Jayyid Jiddan"
	PredicateJayyid       Predicate = "Jayyid"
	PredicateMaqbul       Predicate = "Maqbul"
)

// ExamTimeLayout is the wall-clock format used for exam times.
const ExamTimeLayout = "15:04"

// Tasmi is a student's registration for an oral recitation exam.
type Tasmi struct {
	ID           string      `db:"id" json:"id"`
	StudentID    string      `db:"student_id" json:"student_id"`
	StudentName  string      `db:"student_name" json:"student_name,omitempty"`
	ClassID      *string     `db:"class_id" json:"class_id,omitempty"`
	JuzLabel     string      `db:"juz_label" json:"juz_label"`
	MemorizedJuz int         `db:"memorized_juz" json:"memorized_juz"`
	Status       TasmiStatus `db:"status" json:"status"`

	PreferredDate *time.Time `db:"preferred_date" json:"preferred_date,omitempty"`
	ExamDate      *time.Time `db:"exam_date" json:"exam_date,omitempty"`
	ExamTime      *string    `db:"exam_time" json:"exam_time,omitempty"`
	VerifiedBy    *string    `db:"verified_by" json:"verified_by,omitempty"`

	RejectionReason *string `db:"rejection_reason" json:"rejection_reason,omitempty"`

	ScoreFluency *float64   `db:"score_fluency" json:"score_fluency,omitempty"`
	ScoreTajwid  *float64   `db:"score_tajwid" json:"score_tajwid,omitempty"`
	ScoreAdab    *float64   `db:"score_adab" json:"score_adab,omitempty"`
	ScoreRhythm  *float64   `db:"score_rhythm" json:"score_rhythm,omitempty"`
	ExaminerNote *string    `db:"examiner_note" json:"examiner_note,omitempty"`
	FinalScore   *float64   `db:"final_score" json:"final_score,omitempty"`
	Predicate    *Predicate `db:"predicate" json:"predicate,omitempty"`
	ExaminerID   *string    `db:"examiner_id" json:"examiner_id,omitempty"`
	GradedAt     *time.Time `db:"graded_at" json:"graded_at,omitempty"`
	PublishedAt  *time.Time `db:"published_at" json:"published_at,omitempty"`

	RegisteredAt time.Time `db:"registered_at" json:"registered_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Graded reports whether the grading fields are populated.
func (t *Tasmi) Graded() bool {
	return t != nil && t.Status == TasmiStatusGraded && t.FinalScore != nil
}

// TasmiFilter narrows registration listings.
type TasmiFilter struct {
	Status    *TasmiStatus
	StudentID string
	ClassID   string
	Month     int
	Year      int
	Page      int
	PageSize  int
}

// TasmiExamRecap summarises graded exams held within a period.
// Statuses and GradedPerClass count registrations made in the period; the
// predicate distribution and top results cover its published exams.
type TasmiExamRecap struct {
	Empty          bool              `json:"empty"`
	Range          DateRange         `json:"range"`
	ClassID        *string           `json:"class_id,omitempty"`
	Participants   int               `json:"participants"`
	AverageScore   *float64          `json:"average_score,omitempty"`
	Statuses       TasmiStatusCounts `json:"statuses"`
	Predicates     map[Predicate]int `json:"predicates"`
	TopResults     []Tasmi           `json:"top_results"`
	GradedPerClass []ClassCount      `json:"graded_per_class"`
	Items          []Tasmi           `json:"items"`
}

// TasmiStatusCount is one grouped row of registrations per class and status.
type TasmiStatusCount struct {
	ClassID   *string     `db:"class_id"`
	ClassName *string     `db:"class_name"`
	Status    TasmiStatus `db:"status"`
	Count     int         `db:"count"`
}

// TasmiStatusCounts tallies registrations per lifecycle state.
type TasmiStatusCounts struct {
	Pending   int `json:"pending"`
	Scheduled int `json:"scheduled"`
	Rejected  int `json:"rejected"`
	Graded    int `json:"graded"`
	Total     int `json:"total"`
}

// Add counts n registrations in status.
func (c *TasmiStatusCounts) Add(status TasmiStatus, n int) {
	switch status {
	case TasmiStatusPending:
		c.Pending += n
	case TasmiStatusScheduled:
		c.Scheduled += n
	case TasmiStatusRejected:
		c.Rejected += n
	case TasmiStatusGraded:
		c.Graded += n
	default:
		return
	}
	c.Total += n
}

// NeedsAction reports whether registrations still wait for a schedule or a grade.
func (c TasmiStatusCounts) NeedsAction() bool {
	return c.Pending > 0 || c.Scheduled > 0
}

// ClassCount is a per-class tally.
type ClassCount struct {
	ClassID   *string `json:"class_id"`
	ClassName string  `json:"class_name"`
	Count     int     `json:"count"`
}

// TasmiClassSummary is the registration workload of one class.
type TasmiClassSummary struct {
	ClassID     *string           `json:"class_id"`
	ClassName   string            `json:"class_name"`
	Counts      TasmiStatusCounts `json:"counts"`
	NeedsAction bool              `json:"needs_action"`
}
