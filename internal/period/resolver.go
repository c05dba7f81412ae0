// Package period turns recap period selectors into concrete date ranges.
package period

import (
	"time"

	"github.com/noah-isme/tahfidz-api/internal/models"
	appErrors "github.com/noah-isme/tahfidz-api/pkg/errors"
)

// Convention decides which calendar year a semester selector refers to.
type Convention int

const (
	// ConventionCalendarYear uses the supplied year for both semesters:
	// semester 1 is Jul-Dec of year, semester 2 is Jan-Jun of the same year.
	ConventionCalendarYear Convention = iota
	// ConventionAcademicYear treats year as the start of an academic year,
	// so semester 2 falls in Jan-Jun of year+1.
	ConventionAcademicYear
)

// ParseConvention maps a configuration value to a Convention.
func ParseConvention(raw string) Convention {
	if raw == "academic" {
		return ConventionAcademicYear
	}
	return ConventionCalendarYear
}

// Resolver resolves recap queries to inclusive ranges in its location.
type Resolver struct {
	Convention Convention
	Location   *time.Location
}

// NewResolver builds a resolver; a nil location means UTC.
func NewResolver(convention Convention, loc *time.Location) *Resolver {
	if loc == nil {
		loc = time.UTC
	}
	return &Resolver{Convention: convention, Location: loc}
}

// Resolve returns the [start, end] range for q. Start is 00:00 of the first
// day and end is the last nanosecond of the last day.
func (r *Resolver) Resolve(q models.RecapQuery) (models.DateRange, error) {
	loc := r.location()
	switch q.Period {
	case models.PeriodDaily:
		if q.Date == nil || q.Date.IsZero() {
			return models.DateRange{}, appErrors.Validation("date is required for DAILY period")
		}
		d := q.Date.In(loc)
		start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
		return models.DateRange{Start: start, End: endOfDay(start)}, nil

	case models.PeriodMonthly:
		if q.Month < 1 || q.Month > 12 {
			return models.DateRange{}, appErrors.Validation("month must be between 1 and 12 for MONTHLY period")
		}
		if q.Year <= 0 {
			return models.DateRange{}, appErrors.Validation("year is required for MONTHLY period")
		}
		start := time.Date(q.Year, time.Month(q.Month), 1, 0, 0, 0, 0, loc)
		return models.DateRange{Start: start, End: endOfDay(lastDayOfMonth(start))}, nil

	case models.PeriodSemester:
		if q.Semester != 1 && q.Semester != 2 {
			return models.DateRange{}, appErrors.Validation("semester must be 1 or 2 for SEMESTER period")
		}
		if q.Year <= 0 {
			return models.DateRange{}, appErrors.Validation("year is required for SEMESTER period")
		}
		if q.Semester == 1 {
			start := time.Date(q.Year, time.July, 1, 0, 0, 0, 0, loc)
			end := time.Date(q.Year, time.December, 31, 0, 0, 0, 0, loc)
			return models.DateRange{Start: start, End: endOfDay(end)}, nil
		}
		year := q.Year
		if r.Convention == ConventionAcademicYear {
			year++
		}
		start := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
		end := time.Date(year, time.June, 30, 0, 0, 0, 0, loc)
		return models.DateRange{Start: start, End: endOfDay(end)}, nil

	default:
		return models.DateRange{}, appErrors.Validation("period must be one of DAILY, MONTHLY, SEMESTER")
	}
}

func (r *Resolver) location() *time.Location {
	if r == nil || r.Location == nil {
		return time.UTC
	}
	return r.Location
}

func lastDayOfMonth(firstOfMonth time.Time) time.Time {
	return firstOfMonth.AddDate(0, 1, -1)
}

func endOfDay(day time.Time) time.Time {
	return day.AddDate(0, 0, 1).Add(-time.Nanosecond)
}
