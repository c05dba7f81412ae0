package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tahfidz-api/internal/dto"
	"github.com/noah-isme/tahfidz-api/internal/models"
	"github.com/noah-isme/tahfidz-api/internal/service"
	appErrors "github.com/noah-isme/tahfidz-api/pkg/errors"
	"github.com/noah-isme/tahfidz-api/pkg/response"
)

type tasmiService interface {
	Register(ctx context.Context, req dto.RegisterTasmiRequest, actor *models.JWTClaims) (*models.Tasmi, error)
	List(ctx context.Context, query dto.TasmiListQuery, actor *models.JWTClaims) ([]models.Tasmi, *models.Pagination, error)
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Tasmi, error)
	Schedule(ctx context.Context, id string, req dto.ScheduleTasmiRequest, actor *models.JWTClaims) (*service.TransitionResult, error)
	Reject(ctx context.Context, id string, req dto.RejectTasmiRequest, actor *models.JWTClaims) (*service.TransitionResult, error)
	Grade(ctx context.Context, id string, req dto.GradeTasmiRequest, actor *models.JWTClaims) (*service.TransitionResult, error)
	Publish(ctx context.Context, id string) (*service.TransitionResult, error)
	RegenerateArtifact(ctx context.Context, id string, format models.ArtifactFormat, actor *models.JWTClaims) (*models.ArtifactJob, error)
}

// TasmiHandler exposes the Tasmi' exam lifecycle.
type TasmiHandler struct {
	service tasmiService
}

// NewTasmiHandler constructs the handler.
func NewTasmiHandler(service tasmiService) *TasmiHandler {
	return &TasmiHandler{service: service}
}

// Register godoc
// @Summary Register for a Tasmi' exam
// @Tags Tasmi
// @Accept json
// @Produce json
// @Param payload body dto.RegisterTasmiRequest true "Registration"
// @Success 201 {object} response.Envelope
// @Router /tasmi [post]
func (h *TasmiHandler) Register(c *gin.Context) {
	var req dto.RegisterTasmiRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	record, err := h.service.Register(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// List godoc
// @Summary List Tasmi' registrations
// @Tags Tasmi
// @Produce json
// @Param status query string false "PENDING, SCHEDULED, REJECTED or GRADED"
// @Param month query int false "Exam month (requires year)"
// @Param year query int false "Exam year"
// @Param classId query string false "Class filter"
// @Param studentId query string false "Student filter"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /tasmi [get]
func (h *TasmiHandler) List(c *gin.Context) {
	var query dto.TasmiListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	items, pagination, err := h.service.List(c.Request.Context(), query, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get a Tasmi' registration
// @Tags Tasmi
// @Produce json
// @Param id path string true "Registration ID"
// @Success 200 {object} response.Envelope
// @Router /tasmi/{id} [get]
func (h *TasmiHandler) Get(c *gin.Context) {
	record, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Schedule godoc
// @Summary Schedule a pending registration
// @Tags Tasmi
// @Accept json
// @Produce json
// @Param id path string true "Registration ID"
// @Param payload body dto.ScheduleTasmiRequest true "Exam slot"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /tasmi/{id}/schedule [post]
func (h *TasmiHandler) Schedule(c *gin.Context) {
	var req dto.ScheduleTasmiRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	result, err := h.service.Schedule(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	h.respondTransition(c, result, err)
}

// Reject godoc
// @Summary Reject a pending registration
// @Tags Tasmi
// @Accept json
// @Produce json
// @Param id path string true "Registration ID"
// @Param payload body dto.RejectTasmiRequest true "Reason"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /tasmi/{id}/reject [post]
func (h *TasmiHandler) Reject(c *gin.Context) {
	var req dto.RejectTasmiRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	result, err := h.service.Reject(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	h.respondTransition(c, result, err)
}

// Grade godoc
// @Summary Grade a scheduled exam
// @Description Grading an already graded exam overwrites its scores. The result sheet is generated in the background.
// @Tags Tasmi
// @Accept json
// @Produce json
// @Param id path string true "Registration ID"
// @Param payload body dto.GradeTasmiRequest true "Scores"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /tasmi/{id}/grade [post]
func (h *TasmiHandler) Grade(c *gin.Context) {
	var req dto.GradeTasmiRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	result, err := h.service.Grade(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	h.respondTransition(c, result, err)
}

// Publish godoc
// @Summary Publish a graded result to the student
// @Tags Tasmi
// @Produce json
// @Param id path string true "Registration ID"
// @Success 200 {object} response.Envelope
// @Router /tasmi/{id}/publish [post]
func (h *TasmiHandler) Publish(c *gin.Context) {
	result, err := h.service.Publish(c.Request.Context(), c.Param("id"))
	h.respondTransition(c, result, err)
}

// RegenerateArtifact godoc
// @Summary Re-generate the result sheet of a graded exam
// @Tags Tasmi
// @Produce json
// @Param id path string true "Registration ID"
// @Param format query string false "pdf (default) or csv"
// @Success 202 {object} response.Envelope
// @Router /tasmi/{id}/artifact [post]
func (h *TasmiHandler) RegenerateArtifact(c *gin.Context) {
	format := models.ArtifactFormat(c.DefaultQuery("format", string(models.ArtifactFormatPDF)))
	job, err := h.service.RegenerateArtifact(c.Request.Context(), c.Param("id"), format, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, dto.NewArtifactJobRef(job), nil)
}

func (h *TasmiHandler) respondTransition(c *gin.Context, result *service.TransitionResult, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result.Tasmi, nil, transitionMeta(result.Warnings, result.ArtifactJob))
}
