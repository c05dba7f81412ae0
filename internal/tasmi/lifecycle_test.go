package tasmi

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tahfidz-api/internal/models"
	appErrors "github.com/noah-isme/tahfidz-api/pkg/errors"
)

var now = time.Date(2025, time.October, 20, 8, 0, 0, 0, time.UTC)

func pending() models.Tasmi {
	return models.Tasmi{
		ID:           "tasmi-1",
		StudentID:    "student-1",
		JuzLabel:     "Juz 30",
		MemorizedJuz: 12,
		Status:       models.TasmiStatusPending,
		RegisteredAt: now.Add(-48 * time.Hour),
	}
}

func scheduled(t *testing.T) models.Tasmi {
	t.Helper()
	rec, err := Schedule(pending(), ScheduleInput{
		Date:       time.Date(2025, time.November, 1, 0, 0, 0, 0, time.UTC),
		Time:       "10:00",
		VerifiedBy: "guru-1",
	}, now)
	require.NoError(t, err)
	return rec
}

func assertNoGrading(t *testing.T, rec models.Tasmi) {
	t.Helper()
	assert.Nil(t, rec.ScoreFluency)
	assert.Nil(t, rec.ScoreTajwid)
	assert.Nil(t, rec.ScoreAdab)
	assert.Nil(t, rec.ScoreRhythm)
	assert.Nil(t, rec.FinalScore)
	assert.Nil(t, rec.Predicate)
	assert.Nil(t, rec.ExaminerNote)
}

func TestScheduleStoresSlot(t *testing.T) {
	rec := scheduled(t)

	assert.Equal(t, models.TasmiStatusScheduled, rec.Status)
	require.NotNil(t, rec.ExamDate)
	assert.Equal(t, "2025-11-01", rec.ExamDate.Format("2006-01-02"))
	require.NotNil(t, rec.ExamTime)
	assert.Equal(t, "10:00", *rec.ExamTime)
	assert.Equal(t, 12, rec.MemorizedJuz)
	assert.Equal(t, "guru-1", *rec.VerifiedBy)
	assert.Nil(t, rec.RejectionReason)
	assertNoGrading(t, rec)
}

func TestScheduleRequiresDateAndTime(t *testing.T) {
	base := pending()

	_, err := Schedule(base, ScheduleInput{Time: "10:00"}, now)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = Schedule(base, ScheduleInput{Date: now}, now)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = Schedule(base, ScheduleInput{Date: now, Time: "25:99"}, now)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	assert.Equal(t, models.TasmiStatusPending, base.Status)
}

func TestScheduleAcceptsSeconds(t *testing.T) {
	rec, err := Schedule(pending(), ScheduleInput{Date: now, Time: "07:30:00"}, now)
	require.NoError(t, err)
	assert.Equal(t, "07:30", *rec.ExamTime)
}

func TestGradeScheduledRecord(t *testing.T) {
	rec, err := Grade(scheduled(t), GradeInput{Scores: scores(80, 85, 90, 75), Note: " lancar ", ExaminerID: "guru-2"}, now)
	require.NoError(t, err)

	assert.Equal(t, models.TasmiStatusGraded, rec.Status)
	require.NotNil(t, rec.FinalScore)
	assert.InDelta(t, 82.5, *rec.FinalScore, 1e-9)
	assert.Equal(t, models.PredicateJayyidJiddan, *rec.Predicate)
	assert.Equal(t, "lancar", *rec.ExaminerNote)
	assert.Equal(t, "guru-2", *rec.ExaminerID)
	assert.NotNil(t, rec.ExamDate)
	assert.Nil(t, rec.RejectionReason)
	assert.Nil(t, rec.PublishedAt)
}

func TestGradeTwiceKeepsSecondValues(t *testing.T) {
	first, err := Grade(scheduled(t), GradeInput{Scores: scores(95, 95, 95, 95), Note: "first"}, now)
	require.NoError(t, err)

	second, err := Grade(first, GradeInput{Scores: scores(60, 70, 65, 75)}, now.Add(time.Minute))
	require.NoError(t, err)

	assert.Equal(t, models.TasmiStatusGraded, second.Status)
	assert.InDelta(t, 67.5, *second.FinalScore, 1e-9)
	assert.Equal(t, models.PredicateMaqbul, *second.Predicate)
	assert.Equal(t, 60.0, *second.ScoreFluency)
	assert.Nil(t, second.ExaminerNote)
	// first result is untouched
	assert.InDelta(t, 95, *first.FinalScore, 1e-9)
}

func TestGradeValidationLeavesRecordUnchanged(t *testing.T) {
	rec := scheduled(t)
	_, err := Grade(rec, GradeInput{Scores: scores(80, 101, 80, 80)}, now)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Equal(t, models.TasmiStatusScheduled, rec.Status)
	assert.Nil(t, rec.FinalScore)
}

func TestRejectPendingRecord(t *testing.T) {
	rec, err := Reject(pending(), RejectInput{Reason: "Jadwal bentrok", VerifiedBy: "guru-1"}, now)
	require.NoError(t, err)
	assert.Equal(t, models.TasmiStatusRejected, rec.Status)
	assert.Equal(t, "Jadwal bentrok", *rec.RejectionReason)
	assert.Nil(t, rec.ExamDate)
	assert.Nil(t, rec.ExamTime)
	assertNoGrading(t, rec)

	_, err = Schedule(rec, ScheduleInput{Date: now, Time: "10:00"}, now)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidState))
}

func TestRejectRequiresReason(t *testing.T) {
	_, err := Reject(pending(), RejectInput{Reason: "   "}, now)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestInvalidTransitions(t *testing.T) {
	sched := scheduled(t)
	graded, err := Grade(sched, GradeInput{Scores: scores(80, 80, 80, 80)}, now)
	require.NoError(t, err)
	rejected, err := Reject(pending(), RejectInput{Reason: "tidak hadir"}, now)
	require.NoError(t, err)

	checks := []struct {
		name string
		run  func() error
	}{
		{"reject scheduled", func() error { _, err := Reject(sched, RejectInput{Reason: "x"}, now); return err }},
		{"schedule scheduled", func() error { _, err := Schedule(sched, ScheduleInput{Date: now, Time: "09:00"}, now); return err }},
		{"reject graded", func() error { _, err := Reject(graded, RejectInput{Reason: "x"}, now); return err }},
		{"schedule graded", func() error { _, err := Schedule(graded, ScheduleInput{Date: now, Time: "09:00"}, now); return err }},
		{"grade pending", func() error { _, err := Grade(pending(), GradeInput{Scores: scores(80, 80, 80, 80)}, now); return err }},
		{"grade rejected", func() error { _, err := Grade(rejected, GradeInput{Scores: scores(80, 80, 80, 80)}, now); return err }},
		{"reject rejected", func() error { _, err := Reject(rejected, RejectInput{Reason: "x"}, now); return err }},
		{"publish scheduled", func() error { _, err := Publish(sched, now); return err }},
	}
	for _, c := range checks {
		t.Run(c.name, func(t *testing.T) {
			err := c.run()
			require.Error(t, err)
			assert.True(t, errors.Is(err, appErrors.ErrInvalidState))
			assert.Contains(t, err.Error(), "action not allowed in current status")
		})
	}
}

func TestInvalidStateCheckedBeforeInput(t *testing.T) {
	rejected, err := Reject(pending(), RejectInput{Reason: "x"}, now)
	require.NoError(t, err)

	_, err = Grade(rejected, GradeInput{}, now)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidState))
}

func TestPublishOnce(t *testing.T) {
	graded, err := Grade(scheduled(t), GradeInput{Scores: scores(90, 90, 90, 90)}, now)
	require.NoError(t, err)

	published, err := Publish(graded, now)
	require.NoError(t, err)
	require.NotNil(t, published.PublishedAt)

	_, err = Publish(published, now)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidState))

	regraded, err := Grade(published, GradeInput{Scores: scores(70, 70, 70, 70)}, now)
	require.NoError(t, err)
	assert.NotNil(t, regraded.PublishedAt)
}

func TestGradeWithPublishFlag(t *testing.T) {
	rec, err := Grade(scheduled(t), GradeInput{Scores: scores(85, 85, 85, 85), Publish: true}, now)
	require.NoError(t, err)
	require.NotNil(t, rec.PublishedAt)
	assert.Equal(t, now, *rec.PublishedAt)
}
