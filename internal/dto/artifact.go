package dto

import "github.com/noah-isme/tahfidz-api/internal/models"

// ArtifactJobRef is returned after a document was queued.
type ArtifactJobRef struct {
	ID     string                `json:"id"`
	Type   models.ArtifactType   `json:"type"`
	Status models.ArtifactStatus `json:"status"`
}

// NewArtifactJobRef returns nil when job is nil.
func NewArtifactJobRef(job *models.ArtifactJob) *ArtifactJobRef {
	if job == nil {
		return nil
	}
	return &ArtifactJobRef{ID: job.ID, Type: job.Type, Status: job.Status}
}

// ArtifactStatusResponse exposes job progress metadata.
type ArtifactStatusResponse struct {
	ID        string                `json:"id"`
	Type      models.ArtifactType   `json:"type"`
	Status    models.ArtifactStatus `json:"status"`
	Progress  int                   `json:"progress"`
	ResultURL *string               `json:"resultUrl,omitempty"`
	Error     *string               `json:"error,omitempty"`
}

// NewArtifactStatusResponse maps a persisted job.
func NewArtifactStatusResponse(job *models.ArtifactJob) *ArtifactStatusResponse {
	resp := &ArtifactStatusResponse{
		ID:        job.ID,
		Type:      job.Type,
		Status:    job.Status,
		Progress:  job.Progress,
		ResultURL: job.ResultURL,
	}
	if job.ErrorMessage != nil && *job.ErrorMessage != "" {
		resp.Error = job.ErrorMessage
	}
	return resp
}
