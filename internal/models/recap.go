package models

import "time"

// PeriodType selects how a recap period is expressed.
type PeriodType string

const (
	PeriodDaily    PeriodType = "DAILY"
	PeriodMonthly  PeriodType = "MONTHLY"
	PeriodSemester PeriodType = "SEMESTER"
)

// Valid reports whether the period type is supported.
func (p PeriodType) Valid() bool {
	switch p {
	case PeriodDaily, PeriodMonthly, PeriodSemester:
		return true
	default:
		return false
	}
}

// DateRange is an inclusive time interval.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the range, bounds included.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// ContainsDay reports whether the calendar day of t falls inside the range.
// The day is read in t's own zone and placed at midnight in the range's zone,
// so DATE columns decoded as UTC midnight match the local day they name.
func (r DateRange) ContainsDay(t time.Time) bool {
	y, m, d := t.Date()
	return r.Contains(time.Date(y, m, d, 0, 0, 0, 0, r.Start.Location()))
}

// RecapQuery describes a recap request. Only the selector matching Period is read.
type RecapQuery struct {
	ClassID  *string    `json:"class_id,omitempty"`
	Period   PeriodType `json:"period"`
	Date     *time.Time `json:"date,omitempty"`
	Month    int        `json:"month,omitempty"`
	Semester int        `json:"semester,omitempty"`
	Year     int        `json:"year,omitempty"`
}

// DailyRecapRow is the literal record of one student on one day.
// Nil fields serialise as null so that missing data is never mistaken for zero.
type DailyRecapRow struct {
	StudentID   string            `json:"student_id"`
	StudentName string            `json:"student_name"`
	Attendance  *AttendanceStatus `json:"attendance"`
	Tajwid      *float64          `json:"tajwid"`
	Fluency     *float64          `json:"fluency"`
	Makhraj     *float64          `json:"makhraj"`
	Adab        *float64          `json:"adab"`
	Total       *float64          `json:"total"`
	Notes       *string           `json:"notes"`
}

// PeriodRecapRow aggregates one student's records over a month or semester.
type PeriodRecapRow struct {
	StudentID   string           `json:"student_id"`
	StudentName string           `json:"student_name"`
	Attendance  AttendanceCounts `json:"attendance"`
	GradedDays  int              `json:"graded_days"`
	AvgTajwid   *float64         `json:"avg_tajwid"`
	AvgFluency  *float64         `json:"avg_fluency"`
	AvgMakhraj  *float64         `json:"avg_makhraj"`
	AvgAdab     *float64         `json:"avg_adab"`
	AvgTotal    *float64         `json:"avg_total"`
}

// RecapResult is the aggregated report for a resolved period.
// Empty is set when the query matched no records at all; the row slices are then nil.
type RecapResult struct {
	Empty   bool             `json:"empty"`
	Period  PeriodType       `json:"period"`
	Range   DateRange        `json:"range"`
	ClassID *string          `json:"class_id,omitempty"`
	Daily   []DailyRecapRow  `json:"daily,omitempty"`
	Summary []PeriodRecapRow `json:"summary,omitempty"`
}
