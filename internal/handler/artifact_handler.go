package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tahfidz-api/internal/dto"
	"github.com/noah-isme/tahfidz-api/internal/models"
	"github.com/noah-isme/tahfidz-api/internal/service"
	appErrors "github.com/noah-isme/tahfidz-api/pkg/errors"
	"github.com/noah-isme/tahfidz-api/pkg/response"
)

type artifactService interface {
	GetStatus(ctx context.Context, id string) (*dto.ArtifactStatusResponse, error)
	ResolveDownload(ctx context.Context, token string) (*service.ArtifactDownload, error)
}

// ArtifactHandler exposes generated document status and downloads.
type ArtifactHandler struct {
	service artifactService
}

// NewArtifactHandler constructs the handler.
func NewArtifactHandler(service artifactService) *ArtifactHandler {
	return &ArtifactHandler{service: service}
}

// Status godoc
// @Summary Artifact job status
// @Tags Artifacts
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /artifacts/{id} [get]
func (h *ArtifactHandler) Status(c *gin.Context) {
	status, err := h.service.GetStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Download godoc
// @Summary Download a generated document
// @Tags Artifacts
// @Produce application/pdf
// @Produce text/csv
// @Param token path string true "Signed download token"
// @Success 200 {file} file
// @Router /artifacts/download/{token} [get]
func (h *ArtifactHandler) Download(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	download, err := h.service.ResolveDownload(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close() //nolint:errcheck
	info, err := download.File.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat artifact file"))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", download.Filename))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, info.Size(), contentType(download.Format), download.File, nil)
}

func contentType(format models.ArtifactFormat) string {
	switch format {
	case models.ArtifactFormatCSV:
		return "text/csv"
	case models.ArtifactFormatPDF:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
