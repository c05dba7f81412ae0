package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/tahfidz-api/internal/models"
	"github.com/noah-isme/tahfidz-api/pkg/export"
)

type tasmiReader interface {
	GetByID(ctx context.Context, id string) (*models.Tasmi, error)
}

type recapBuilder interface {
	Build(ctx context.Context, q models.RecapQuery) (*models.RecapResult, error)
}

type artifactWriter interface {
	Save(name string, data []byte) (string, error)
}

type downloadSigner interface {
	Generate(jobID, relPath string) (string, time.Time, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// DocumentConfig tunes document rendering.
type DocumentConfig struct {
	APIPrefix string
	Location  *time.Location
}

// DocumentResult captures a stored, signed artifact.
type DocumentResult struct {
	RelativePath string
	Token        string
	URL          string
	ExpiresAt    time.Time
}

// DocumentService turns artifact jobs into stored CSV or PDF files.
type DocumentService struct {
	tasmi   tasmiReader
	recaps  recapBuilder
	storage artifactWriter
	signer  downloadSigner
	csv     datasetRenderer
	pdf     datasetRenderer
	logger  *zap.Logger
	cfg     DocumentConfig
}

// NewDocumentService constructs a DocumentService. Nil renderers fall back to
// the default CSV and PDF exporters.
func NewDocumentService(tasmi tasmiReader, recaps recapBuilder, storage artifactWriter, signer downloadSigner, cfg DocumentConfig, logger *zap.Logger, csv, pdf datasetRenderer) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter("Program Tahfidz")
	}
	return &DocumentService{
		tasmi:   tasmi,
		recaps:  recaps,
		storage: storage,
		signer:  signer,
		csv:     csv,
		pdf:     pdf,
		logger:  logger,
		cfg:     cfg,
	}
}

// Generate renders the document described by job, stores it and signs a download URL.
func (s *DocumentService) Generate(ctx context.Context, job *models.ArtifactJob) (*DocumentResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	dataset, subject, err := s.buildDataset(ctx, job)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ArtifactFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ArtifactFormatPDF:
		payload, err = s.pdf.Render(dataset)
	default:
		err = fmt.Errorf("unsupported format %q", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	filename := fmt.Sprintf("%s/%s_%s.%s",
		strings.ToLower(string(job.Type)),
		sanitizeFilename(subject),
		time.Now().UTC().Format("20060102_150405"),
		job.Params.Format,
	)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	s.logger.Debug("artifact rendered", zap.String("job_id", job.ID), zap.String("path", relPath), zap.Int("bytes", len(payload)))
	return &DocumentResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/artifacts/download/%s", prefix, token),
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *DocumentService) buildDataset(ctx context.Context, job *models.ArtifactJob) (export.Dataset, string, error) {
	switch job.Type {
	case models.ArtifactTypeTasmiResult:
		if job.Params.TasmiID == "" {
			return export.Dataset{}, "", fmt.Errorf("tasmi id missing")
		}
		record, err := s.tasmi.GetByID(ctx, job.Params.TasmiID)
		if err != nil {
			return export.Dataset{}, "", err
		}
		if !record.Graded() {
			return export.Dataset{}, "", fmt.Errorf("tasmi %s is not graded", record.ID)
		}
		return s.tasmiResultDataset(record), record.StudentName + "_" + record.ID, nil
	case models.ArtifactTypeRecap:
		if job.Params.Recap == nil {
			return export.Dataset{}, "", fmt.Errorf("recap query missing")
		}
		result, err := s.recaps.Build(ctx, *job.Params.Recap)
		if err != nil {
			return export.Dataset{}, "", err
		}
		subject := fmt.Sprintf("%s_%s", strings.ToLower(string(result.Period)), result.Range.Start.In(s.cfg.Location).Format("20060102"))
		if result.ClassID != nil {
			subject += "_" + *result.ClassID
		}
		return s.recapDataset(result), subject, nil
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported artifact type %s", job.Type)
	}
}

func (s *DocumentService) tasmiResultDataset(t *models.Tasmi) export.Dataset {
	fields := []export.Field{
		{Label: "Student", Value: t.StudentName},
		{Label: "Juz", Value: t.JuzLabel},
		{Label: "Memorized juz", Value: strconv.Itoa(t.MemorizedJuz)},
		{Label: "Exam date", Value: s.formatDate(t.ExamDate)},
		{Label: "Exam time", Value: derefString(t.ExamTime)},
		{Label: "Predicate", Value: string(*t.Predicate)},
	}
	if t.ExaminerNote != nil {
		fields = append(fields, export.Field{Label: "Examiner note", Value: *t.ExaminerNote})
	}
	return export.Dataset{
		Title:   "Hasil Ujian Tasmi'",
		Fields:  fields,
		Headers: []string{"Component", "Score"},
		Rows: []map[string]string{
			{"Component": "Fluency", "Score": formatScore(t.ScoreFluency)},
			{"Component": "Tajwid", "Score": formatScore(t.ScoreTajwid)},
			{"Component": "Adab", "Score": formatScore(t.ScoreAdab)},
			{"Component": "Rhythm", "Score": formatScore(t.ScoreRhythm)},
			{"Component": "Final score", "Score": formatScore(t.FinalScore)},
		},
	}
}

func (s *DocumentService) recapDataset(r *models.RecapResult) export.Dataset {
	fields := []export.Field{
		{Label: "Period", Value: string(r.Period)},
		{Label: "From", Value: s.formatDate(&r.Range.Start)},
		{Label: "To", Value: s.formatDate(&r.Range.End)},
	}
	if r.ClassID != nil {
		fields = append(fields, export.Field{Label: "Class", Value: *r.ClassID})
	}
	if r.Empty {
		fields = append(fields, export.Field{Label: "Status", Value: "No records in this period"})
	}

	if r.Period == models.PeriodDaily {
		headers := []string{"Student", "Attendance", "Tajwid", "Fluency", "Makhraj", "Adab", "Total", "Notes"}
		rows := make([]map[string]string, 0, len(r.Daily))
		for _, row := range r.Daily {
			attendance := "-"
			if row.Attendance != nil {
				attendance = string(*row.Attendance)
			}
			rows = append(rows, map[string]string{
				"Student":    row.StudentName,
				"Attendance": attendance,
				"Tajwid":     formatScore(row.Tajwid),
				"Fluency":    formatScore(row.Fluency),
				"Makhraj":    formatScore(row.Makhraj),
				"Adab":       formatScore(row.Adab),
				"Total":      formatScore(row.Total),
				"Notes":      derefString(row.Notes),
			})
		}
		return export.Dataset{Title: "Rekap Harian Tahfidz", Fields: fields, Headers: headers, Rows: rows}
	}

	headers := []string{"Student", "Present", "Sick", "Excused", "Absent", "Graded days", "Tajwid", "Fluency", "Makhraj", "Adab", "Total"}
	rows := make([]map[string]string, 0, len(r.Summary))
	for _, row := range r.Summary {
		rows = append(rows, map[string]string{
			"Student":     row.StudentName,
			"Present":     strconv.Itoa(row.Attendance.Present),
			"Sick":        strconv.Itoa(row.Attendance.Sick),
			"Excused":     strconv.Itoa(row.Attendance.Excused),
			"Absent":      strconv.Itoa(row.Attendance.Absent),
			"Graded days": strconv.Itoa(row.GradedDays),
			"Tajwid":      formatScore(row.AvgTajwid),
			"Fluency":     formatScore(row.AvgFluency),
			"Makhraj":     formatScore(row.AvgMakhraj),
			"Adab":        formatScore(row.AvgAdab),
			"Total":       formatScore(row.AvgTotal),
		})
	}
	title := "Rekap Bulanan Tahfidz"
	if r.Period == models.PeriodSemester {
		title = "Rekap Semester Tahfidz"
	}
	return export.Dataset{Title: title, Fields: fields, Headers: headers, Rows: rows}
}

func (s *DocumentService) formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.In(s.cfg.Location).Format("2006-01-02")
}

func formatScore(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func derefString(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "'", "")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
