// Package recap folds attendance and grading records into per-student recap
// rows for one resolved period.
package recap

import (
	"sort"

	"github.com/noah-isme/tahfidz-api/internal/models"
)

// Input is everything one recap needs, already limited to the resolved range.
type Input struct {
	Query      models.RecapQuery
	Range      models.DateRange
	Roster     []models.Student
	Attendance []models.AttendanceRecord
	Grading    []models.GradingRecord
}

// Aggregate builds the recap result. Records outside the range are ignored.
// A query without any attendance or grading record yields the empty marker.
func Aggregate(in Input) models.RecapResult {
	result := models.RecapResult{
		Period:  in.Query.Period,
		Range:   in.Range,
		ClassID: in.Query.ClassID,
	}

	attendance := make([]models.AttendanceRecord, 0, len(in.Attendance))
	for _, rec := range in.Attendance {
		if in.Range.ContainsDay(rec.Date) {
			attendance = append(attendance, rec)
		}
	}
	grading := make([]models.GradingRecord, 0, len(in.Grading))
	for _, rec := range in.Grading {
		if in.Range.ContainsDay(rec.Date) {
			grading = append(grading, rec)
		}
	}

	students := collectStudents(in.Roster, attendance, grading)
	if len(students) == 0 || (len(attendance) == 0 && len(grading) == 0) {
		result.Empty = true
		return result
	}

	if in.Query.Period == models.PeriodDaily {
		result.Daily = dailyRows(students, attendance, grading)
		return result
	}
	result.Summary = periodRows(students, attendance, grading)
	return result
}

type studentRef struct {
	id   string
	name string
}

// collectStudents merges the roster with students that only appear in records,
// ordered by name then id.
func collectStudents(roster []models.Student, attendance []models.AttendanceRecord, grading []models.GradingRecord) []studentRef {
	seen := make(map[string]int)
	refs := make([]studentRef, 0, len(roster))
	add := func(id, name string) {
		if id == "" {
			return
		}
		if idx, ok := seen[id]; ok {
			if refs[idx].name == "" {
				refs[idx].name = name
			}
			return
		}
		seen[id] = len(refs)
		refs = append(refs, studentRef{id: id, name: name})
	}
	for _, s := range roster {
		add(s.ID, s.FullName)
	}
	for _, rec := range attendance {
		add(rec.StudentID, rec.StudentName)
	}
	for _, rec := range grading {
		add(rec.StudentID, rec.StudentName)
	}
	sort.SliceStable(refs, func(i, j int) bool {
		if refs[i].name != refs[j].name {
			return refs[i].name < refs[j].name
		}
		return refs[i].id < refs[j].id
	})
	return refs
}

func dailyRows(students []studentRef, attendance []models.AttendanceRecord, grading []models.GradingRecord) []models.DailyRecapRow {
	statusByStudent := make(map[string]models.AttendanceStatus)
	notesByStudent := make(map[string]*string)
	for _, rec := range attendance {
		if _, ok := statusByStudent[rec.StudentID]; ok {
			continue
		}
		statusByStudent[rec.StudentID] = rec.Status
		notesByStudent[rec.StudentID] = rec.Notes
	}
	gradeByStudent := make(map[string]models.GradingRecord)
	for _, rec := range earliestFirst(grading) {
		if _, ok := gradeByStudent[rec.StudentID]; !ok {
			gradeByStudent[rec.StudentID] = rec
		}
	}

	rows := make([]models.DailyRecapRow, 0, len(students))
	for _, s := range students {
		row := models.DailyRecapRow{StudentID: s.id, StudentName: s.name}
		if status, ok := statusByStudent[s.id]; ok {
			st := status
			row.Attendance = &st
			row.Notes = notesByStudent[s.id]
		}
		if rec, ok := gradeByStudent[s.id]; ok {
			row.Tajwid = rec.Tajwid
			row.Fluency = rec.Fluency
			row.Makhraj = rec.Makhraj
			row.Adab = rec.Adab
			row.Total = rec.Total
			if rec.Notes != nil {
				row.Notes = rec.Notes
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func periodRows(students []studentRef, attendance []models.AttendanceRecord, grading []models.GradingRecord) []models.PeriodRecapRow {
	counts := make(map[string]*models.AttendanceCounts)
	for _, rec := range attendance {
		c, ok := counts[rec.StudentID]
		if !ok {
			c = &models.AttendanceCounts{}
			counts[rec.StudentID] = c
		}
		c.Add(rec.Status)
	}

	sums := make(map[string]*scoreSums)
	for _, rec := range grading {
		if !complete(rec) {
			continue
		}
		s, ok := sums[rec.StudentID]
		if !ok {
			s = &scoreSums{}
			sums[rec.StudentID] = s
		}
		s.add(rec)
	}

	rows := make([]models.PeriodRecapRow, 0, len(students))
	for _, st := range students {
		row := models.PeriodRecapRow{StudentID: st.id, StudentName: st.name}
		if c, ok := counts[st.id]; ok {
			row.Attendance = *c
		}
		if s, ok := sums[st.id]; ok {
			row.GradedDays = s.n
			row.AvgTajwid = mean(s.tajwid, s.n)
			row.AvgFluency = mean(s.fluency, s.n)
			row.AvgMakhraj = mean(s.makhraj, s.n)
			row.AvgAdab = mean(s.adab, s.n)
			row.AvgTotal = mean(s.total, s.totalN)
		}
		rows = append(rows, row)
	}
	return rows
}

type scoreSums struct {
	n                              int
	tajwid, fluency, makhraj, adab float64
	total                          float64
	totalN                         int
}

func (s *scoreSums) add(rec models.GradingRecord) {
	s.n++
	s.tajwid += *rec.Tajwid
	s.fluency += *rec.Fluency
	s.makhraj += *rec.Makhraj
	s.adab += *rec.Adab
	if rec.Total != nil {
		s.total += *rec.Total
		s.totalN++
	}
}

// complete reports whether all four components were recorded that day.
func complete(rec models.GradingRecord) bool {
	return rec.Tajwid != nil && rec.Fluency != nil && rec.Makhraj != nil && rec.Adab != nil
}

func mean(sum float64, n int) *float64 {
	if n == 0 {
		return nil
	}
	v := sum / float64(n)
	return &v
}

func earliestFirst(records []models.GradingRecord) []models.GradingRecord {
	sorted := make([]models.GradingRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return before(sorted[i], sorted[j])
	})
	return sorted
}

func before(a, b models.GradingRecord) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	return a.CreatedAt.Before(b.CreatedAt)
}
