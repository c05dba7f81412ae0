package models

import "time"

// AttendanceStatus represents the status for attendance records.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "PRESENT"
	AttendanceStatusSick    AttendanceStatus = "SICK"
	AttendanceStatusExcused AttendanceStatus = "EXCUSED"
	AttendanceStatusAbsent  AttendanceStatus = "ABSENT"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusSick, AttendanceStatusExcused, AttendanceStatusAbsent:
		return true
	default:
		return false
	}
}

// AttendanceRecord is a single halaqah attendance row for one student on one date.
type AttendanceRecord struct {
	ID          string           `db:"id" json:"id"`
	StudentID   string           `db:"student_id" json:"student_id"`
	StudentName string           `db:"student_name" json:"student_name"`
	ClassID     *string          `db:"class_id" json:"class_id,omitempty"`
	Date        time.Time        `db:"date" json:"date"`
	Status      AttendanceStatus `db:"status" json:"status"`
	Notes       *string          `db:"notes" json:"notes,omitempty"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
}

// AttendanceCounts tallies attendance statuses over a period.
type AttendanceCounts struct {
	Present int `json:"present"`
	Sick    int `json:"sick"`
	Excused int `json:"excused"`
	Absent  int `json:"absent"`
}

// Add increments the counter matching status. Unknown statuses are ignored.
func (c *AttendanceCounts) Add(status AttendanceStatus) {
	switch status {
	case AttendanceStatusPresent:
		c.Present++
	case AttendanceStatusSick:
		c.Sick++
	case AttendanceStatusExcused:
		c.Excused++
	case AttendanceStatusAbsent:
		c.Absent++
	}
}

// Total returns the number of counted days.
func (c AttendanceCounts) Total() int {
	return c.Present + c.Sick + c.Excused + c.Absent
}
