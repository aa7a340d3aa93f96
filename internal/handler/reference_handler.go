package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hall-matrix-api/internal/dto"
	"github.com/noah-isme/hall-matrix-api/internal/models"
	appErrors "github.com/noah-isme/hall-matrix-api/pkg/errors"
	"github.com/noah-isme/hall-matrix-api/pkg/response"
)

type referenceService interface {
	ListStudents(ctx context.Context, q dto.StudentQuery) ([]models.Student, *models.Pagination, error)
	ListHalls(ctx context.Context) ([]models.Hall, error)
	ListSubjects(ctx context.Context) ([]models.Subject, error)
	ListInvigilators(ctx context.Context) ([]models.Invigilator, error)
}

// ReferenceHandler exposes the read-only inputs of the allocator.
type ReferenceHandler struct {
	service referenceService
}

// NewReferenceHandler constructs a ReferenceHandler.
func NewReferenceHandler(service referenceService) *ReferenceHandler {
	return &ReferenceHandler{service: service}
}

// Students godoc
// @Summary List registered students
// @Tags Reference
// @Produce json
// @Param subjectCode query string false "Comma separated subject codes"
// @Param dept query string false "Department"
// @Param search query string false "Registration number prefix"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *ReferenceHandler) Students(c *gin.Context) {
	var q dto.StudentQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student query"))
		return
	}
	students, pagination, err := h.service.ListStudents(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, pagination)
}

// Halls godoc
// @Summary List exam halls in allocation order
// @Tags Reference
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /halls [get]
func (h *ReferenceHandler) Halls(c *gin.Context) {
	halls, err := h.service.ListHalls(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, halls, nil)
}

// Subjects godoc
// @Summary List subjects
// @Tags Reference
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /subjects [get]
func (h *ReferenceHandler) Subjects(c *gin.Context) {
	subjects, err := h.service.ListSubjects(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, nil)
}

// Invigilators godoc
// @Summary List invigilators
// @Tags Reference
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /invigilators [get]
func (h *ReferenceHandler) Invigilators(c *gin.Context) {
	invigilators, err := h.service.ListInvigilators(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, invigilators, nil)
}
