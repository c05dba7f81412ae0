package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ArtifactType enumerates the documents the generator can render.
type ArtifactType string

const (
	ArtifactTypeTasmiResult ArtifactType = "TASMI_RESULT"
	ArtifactTypeRecap       ArtifactType = "RECAP"
)

// ArtifactFormat enumerates supported document formats.
type ArtifactFormat string

const (
	ArtifactFormatCSV ArtifactFormat = "csv"
	ArtifactFormatPDF ArtifactFormat = "pdf"
)

// Valid reports whether the format can be rendered.
func (f ArtifactFormat) Valid() bool {
	return f == ArtifactFormatCSV || f == ArtifactFormatPDF
}

// ArtifactStatus captures background job lifecycle states.
type ArtifactStatus string

const (
	ArtifactStatusQueued     ArtifactStatus = "QUEUED"
	ArtifactStatusProcessing ArtifactStatus = "PROCESSING"
	ArtifactStatusFinished   ArtifactStatus = "FINISHED"
	ArtifactStatusFailed     ArtifactStatus = "FAILED"
)

// ArtifactJob is the persisted state of one document generation request.
type ArtifactJob struct {
	ID           string         `db:"id" json:"id"`
	Type         ArtifactType   `db:"type" json:"type"`
	Params       ArtifactParams `db:"params" json:"params"`
	Status       ArtifactStatus `db:"status" json:"status"`
	Progress     int            `db:"progress" json:"progress"`
	ResultURL    *string        `db:"result_url" json:"result_url,omitempty"`
	CreatedBy    string         `db:"created_by" json:"created_by"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	FinishedAt   *time.Time     `db:"finished_at" json:"finished_at,omitempty"`
	ErrorMessage *string        `db:"error_message" json:"error_message,omitempty"`
}

// ArtifactParams stores what to render, persisted as JSONB.
// TasmiID is set for exam result sheets, Recap for recap exports.
type ArtifactParams struct {
	Format  ArtifactFormat `json:"format"`
	TasmiID string         `json:"tasmiId,omitempty"`
	Recap   *RecapQuery    `json:"recap,omitempty"`
}

// Value marshals params to JSON for persistence.
func (p ArtifactParams) Value() (driver.Value, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal artifact params: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the params struct.
func (p *ArtifactParams) Scan(value interface{}) error {
	if value == nil {
		*p = ArtifactParams{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for ArtifactParams", value)
	}
	if len(data) == 0 {
		*p = ArtifactParams{}
		return nil
	}
	if err := json.Unmarshal(data, p); err != nil {
		return fmt.Errorf("unmarshal artifact params: %w", err)
	}
	return nil
}
