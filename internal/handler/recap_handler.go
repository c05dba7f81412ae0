package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tahfidz-api/internal/dto"
	"github.com/noah-isme/tahfidz-api/internal/models"
	appErrors "github.com/noah-isme/tahfidz-api/pkg/errors"
	"github.com/noah-isme/tahfidz-api/pkg/response"
)

type recapService interface {
	Recap(ctx context.Context, req dto.RecapRequest) (*models.RecapResult, error)
	ExamRecap(ctx context.Context, req dto.RecapRequest) (*models.TasmiExamRecap, error)
	ClassSummary(ctx context.Context) ([]models.TasmiClassSummary, error)
	Export(ctx context.Context, req dto.RecapExportRequest, actor *models.JWTClaims) (*dto.RecapExportResponse, []string, error)
}

// RecapHandler exposes period recaps.
type RecapHandler struct {
	service recapService
}

// NewRecapHandler constructs the handler.
func NewRecapHandler(service recapService) *RecapHandler {
	return &RecapHandler{service: service}
}

// Recap godoc
// @Summary Attendance and grading recap for a period
// @Tags Recap
// @Produce json
// @Param period query string true "DAILY, MONTHLY or SEMESTER"
// @Param date query string false "YYYY-MM-DD for DAILY"
// @Param month query int false "Month for MONTHLY"
// @Param semester query int false "1 or 2 for SEMESTER"
// @Param year query int false "Year for MONTHLY and SEMESTER"
// @Param classId query string false "Class filter"
// @Success 200 {object} response.Envelope
// @Router /recap [get]
func (h *RecapHandler) Recap(c *gin.Context) {
	var req dto.RecapRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	result, err := h.service.Recap(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ExamRecap godoc
// @Summary Graded Tasmi' exams held in a period
// @Tags Recap
// @Produce json
// @Param period query string true "DAILY, MONTHLY or SEMESTER"
// @Param date query string false "YYYY-MM-DD for DAILY"
// @Param month query int false "Month for MONTHLY"
// @Param semester query int false "1 or 2 for SEMESTER"
// @Param year query int false "Year for MONTHLY and SEMESTER"
// @Param classId query string false "Class filter"
// @Success 200 {object} response.Envelope
// @Router /tasmi/recap [get]
func (h *RecapHandler) ExamRecap(c *gin.Context) {
	var req dto.RecapRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	result, err := h.service.ExamRecap(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ClassSummary godoc
// @Summary Tasmi' registration workload per class
// @Tags Recap
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /tasmi/summary [get]
func (h *RecapHandler) ClassSummary(c *gin.Context) {
	summary, err := h.service.ClassSummary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Export godoc
// @Summary Build a recap and generate its document
// @Tags Recap
// @Accept json
// @Produce json
// @Param payload body dto.RecapExportRequest true "Recap selector and format"
// @Success 202 {object} response.Envelope
// @Router /recap/export [post]
func (h *RecapHandler) Export(c *gin.Context) {
	var req dto.RecapExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	result, warnings, err := h.service.Export(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, result, nil, response.WithWarnings(warnings))
}
