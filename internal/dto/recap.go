package dto

import "github.com/noah-isme/tahfidz-api/internal/models"

// RecapRequest is the period selector shared by recap endpoints.
// Date is YYYY-MM-DD and only read for DAILY.
type RecapRequest struct {
	Period   string `form:"period" json:"period"`
	Date     string `form:"date" json:"date,omitempty"`
	Month    int    `form:"month" json:"month,omitempty"`
	Semester int    `form:"semester" json:"semester,omitempty"`
	Year     int    `form:"year" json:"year,omitempty"`
	ClassID  string `form:"classId" json:"classId,omitempty"`
}

// RecapExportRequest captures POST /recap/export payload.
type RecapExportRequest struct {
	RecapRequest
	Format models.ArtifactFormat `json:"format"`
}

// RecapExportResponse returns the recap together with the queued job, if any.
type RecapExportResponse struct {
	Recap *models.RecapResult `json:"recap"`
	Job   *ArtifactJobRef     `json:"job,omitempty"`
}
