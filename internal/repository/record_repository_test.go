package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tahfidz-api/internal/models"
)

func TestAttendanceRepositoryListByRange(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	from := time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0).Add(-time.Nanosecond)
	rows := sqlmock.NewRows([]string{"id", "student_id", "student_name", "class_id", "date", "status", "notes", "created_at"}).
		AddRow("att-1", "student-1", "Ahmad", "class-1", from, "PRESENT", nil, from).
		AddRow("att-2", "student-1", "Ahmad", "class-1", from.AddDate(0, 0, 1), "SICK", "demam", from)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE a.date >= $1 AND a.date <= $2 AND s.class_id = $3 ORDER BY a.date ASC")).
		WithArgs("2025-10-01", "2025-10-31", "class-1").
		WillReturnRows(rows)

	records, err := repo.ListByRange(context.Background(), from, to, "class-1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, models.AttendanceStatusSick, records[1].Status)
	require.NotNil(t, records[1].Notes)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGradingRepositoryListByRangeWithoutClass(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradingRepository(db)

	from := time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1).Add(-time.Nanosecond)
	rows := sqlmock.NewRows([]string{"id", "student_id", "student_name", "class_id", "date", "tajwid", "fluency", "makhraj", "adab", "total", "notes", "graded_by", "created_at", "updated_at"}).
		AddRow("g-1", "student-1", "Ahmad", nil, from, 85.0, nil, 80.0, 90.0, 85.0, nil, "guru-1", from, nil)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE g.date >= $1 AND g.date <= $2 ORDER BY g.date ASC, g.created_at ASC")).
		WithArgs("2025-10-01", "2025-10-01").
		WillReturnRows(rows)

	records, err := repo.ListByRange(context.Background(), from, to, "")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Nil(t, records[0].Fluency)
	require.NotNil(t, records[0].Total)
	assert.Equal(t, 85.0, *records[0].Total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryListRoster(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "nis", "full_name", "class_id", "class_name", "active"}).
		AddRow("student-1", "2025001", "Ahmad", "class-1", "7A", true)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE s.active = TRUE AND s.class_id = $1 ORDER BY s.full_name ASC")).
		WithArgs("class-1").
		WillReturnRows(rows)

	students, err := repo.ListRoster(context.Background(), "class-1")
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "Ahmad", students[0].FullName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryListByRangeBindsLocalDays(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	newYork := time.FixedZone("EDT", -4*60*60)
	from := time.Date(2025, time.October, 1, 0, 0, 0, 0, newYork)
	to := from.AddDate(0, 0, 1).Add(-time.Nanosecond)
	rows := sqlmock.NewRows([]string{"id", "student_id", "student_name", "class_id", "date", "status", "notes", "created_at"}).
		AddRow("att-1", "student-1", "Ahmad", nil, time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC), "PRESENT", nil, from)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE a.date >= $1 AND a.date <= $2 ORDER BY a.date ASC")).
		WithArgs("2025-10-01", "2025-10-01").
		WillReturnRows(rows)

	records, err := repo.ListByRange(context.Background(), from, to, "")
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}
