package tasmi

import (
	"strings"
	"time"

	"github.com/noah-isme/tahfidz-api/internal/models"
	appErrors "github.com/noah-isme/tahfidz-api/pkg/errors"
)

// ScheduleInput carries the exam slot chosen by the verifying teacher.
type ScheduleInput struct {
	Date       time.Time
	Time       string
	VerifiedBy string
}

// RejectInput carries the rejection reason.
type RejectInput struct {
	Reason     string
	VerifiedBy string
}

// GradeInput carries examiner scores and an optional note.
type GradeInput struct {
	Scores     Scores
	Note       string
	ExaminerID string
	Publish    bool
}

// Each transition takes the current record by value and returns the next one.
// The input record is never modified; on error the returned record is the zero value.

// Schedule moves a PENDING registration to SCHEDULED.
func Schedule(t models.Tasmi, in ScheduleInput, now time.Time) (models.Tasmi, error) {
	if t.Status != models.TasmiStatusPending {
		return models.Tasmi{}, invalidState("schedule", t.Status)
	}
	if in.Date.IsZero() {
		return models.Tasmi{}, appErrors.Validation("exam date is required")
	}
	examTime, err := normaliseExamTime(in.Time)
	if err != nil {
		return models.Tasmi{}, err
	}

	next := t
	date := time.Date(in.Date.Year(), in.Date.Month(), in.Date.Day(), 0, 0, 0, 0, in.Date.Location())
	next.Status = models.TasmiStatusScheduled
	next.ExamDate = &date
	next.ExamTime = &examTime
	next.VerifiedBy = optional(in.VerifiedBy)
	next.RejectionReason = nil
	clearGrading(&next)
	next.UpdatedAt = now
	return next, nil
}

// Reject moves a PENDING registration to REJECTED.
func Reject(t models.Tasmi, in RejectInput, now time.Time) (models.Tasmi, error) {
	if t.Status != models.TasmiStatusPending {
		return models.Tasmi{}, invalidState("reject", t.Status)
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return models.Tasmi{}, appErrors.Validation("rejection reason is required")
	}

	next := t
	next.Status = models.TasmiStatusRejected
	next.RejectionReason = &reason
	next.VerifiedBy = optional(in.VerifiedBy)
	next.ExamDate = nil
	next.ExamTime = nil
	clearGrading(&next)
	next.UpdatedAt = now
	return next, nil
}

// Grade records examiner scores on a SCHEDULED registration, or overwrites the
// scores of an already GRADED one. The exam slot is kept.
func Grade(t models.Tasmi, in GradeInput, now time.Time) (models.Tasmi, error) {
	if t.Status != models.TasmiStatusScheduled && t.Status != models.TasmiStatusGraded {
		return models.Tasmi{}, invalidState("grade", t.Status)
	}
	eval, err := Evaluate(in.Scores)
	if err != nil {
		return models.Tasmi{}, err
	}

	next := t
	next.Status = models.TasmiStatusGraded
	next.ScoreFluency = copyFloat(in.Scores.Fluency)
	next.ScoreTajwid = copyFloat(in.Scores.Tajwid)
	next.ScoreAdab = copyFloat(in.Scores.Adab)
	next.ScoreRhythm = copyFloat(in.Scores.Rhythm)
	next.ExaminerNote = optional(strings.TrimSpace(in.Note))
	final := eval.FinalScore
	predicate := eval.Predicate
	next.FinalScore = &final
	next.Predicate = &predicate
	next.ExaminerID = optional(in.ExaminerID)
	graded := now
	next.GradedAt = &graded
	next.RejectionReason = nil
	if in.Publish && next.PublishedAt == nil {
		published := now
		next.PublishedAt = &published
	}
	next.UpdatedAt = now
	return next, nil
}

// Publish releases a graded result to the student. It can happen only once.
func Publish(t models.Tasmi, now time.Time) (models.Tasmi, error) {
	if t.Status != models.TasmiStatusGraded {
		return models.Tasmi{}, invalidState("publish", t.Status)
	}
	if t.PublishedAt != nil {
		return models.Tasmi{}, appErrors.InvalidState("result already published")
	}
	next := t
	published := now
	next.PublishedAt = &published
	next.UpdatedAt = now
	return next, nil
}

func invalidState(action string, status models.TasmiStatus) error {
	return appErrors.InvalidState("cannot %s a %s registration: action not allowed in current status", action, status)
}

func normaliseExamTime(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", appErrors.Validation("exam time is required")
	}
	for _, layout := range []string{models.ExamTimeLayout, "15:04:05"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.Format(models.ExamTimeLayout), nil
		}
	}
	return "", appErrors.Validation("exam time must use HH:MM format")
}

func clearGrading(t *models.Tasmi) {
	t.ScoreFluency = nil
	t.ScoreTajwid = nil
	t.ScoreAdab = nil
	t.ScoreRhythm = nil
	t.ExaminerNote = nil
	t.FinalScore = nil
	t.Predicate = nil
	t.ExaminerID = nil
	t.GradedAt = nil
	t.PublishedAt = nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
