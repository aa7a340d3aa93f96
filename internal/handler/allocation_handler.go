package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hall-matrix-api/internal/dto"
	"github.com/noah-isme/hall-matrix-api/internal/middleware"
	"github.com/noah-isme/hall-matrix-api/internal/models"
	appErrors "github.com/noah-isme/hall-matrix-api/pkg/errors"
	"github.com/noah-isme/hall-matrix-api/pkg/export"
	"github.com/noah-isme/hall-matrix-api/pkg/response"
)

type allocationService interface {
	Generate(ctx context.Context, actor models.Actor, req dto.GenerateAllocationRequest) (*dto.GenerateAllocationResponse, error)
	List(ctx context.Context, q dto.AllocationQuery) ([]models.AllocationRecord, *models.Pagination, bool, error)
	ListRuns(ctx context.Context, q dto.AllocationRunQuery) ([]models.AllocationRun, error)
}

// AllocationHandler exposes the allocation trigger and query endpoints.
type AllocationHandler struct {
	service  allocationService
	exporter *export.CSVExporter
}

// NewAllocationHandler constructs an AllocationHandler.
func NewAllocationHandler(service allocationService) *AllocationHandler {
	return &AllocationHandler{service: service, exporter: export.NewCSVExporter()}
}

// Generate godoc
// @Summary Generate seat allocation
// @Description Computes a seating plan for one exam date and session. Unless dryRun is set the plan replaces the committed records of that session.
// @Tags Allocations
// @Accept json
// @Produce json
// @Param payload body dto.GenerateAllocationRequest true "Allocation request"
// @Success 201 {object} response.Envelope
// @Success 200 {object} response.Envelope "Preview (dryRun)"
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /allocations/generate [post]
func (h *AllocationHandler) Generate(c *gin.Context) {
	var req dto.GenerateAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid allocation payload"))
		return
	}

	result, err := h.service.Generate(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	status := http.StatusCreated
	if result.Mode == dto.AllocationModePreview {
		status = http.StatusOK
	}
	middleware.SetMeta(c, "mode", result.Mode)
	response.JSON(c, status, result, nil, middleware.ExtractMeta(c))
}

// List godoc
// @Summary List committed seat allocations
// @Tags Allocations
// @Produce json
// @Produce text/csv
// @Param examDate query string false "Exam date (YYYY-MM-DD)"
// @Param session query string false "Session label"
// @Param hallNo query string false "Hall number"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param format query string false "json or csv"
// @Success 200 {object} response.Envelope
// @Router /allocations [get]
func (h *AllocationHandler) List(c *gin.Context) {
	var q dto.AllocationQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid allocation query"))
		return
	}
	q.Format = strings.ToLower(strings.TrimSpace(q.Format))

	records, pagination, hit, err := h.service.List(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)

	if q.Format == "csv" {
		response.CSV(c, sheetFilename(q), func(w io.Writer) error {
			return h.exporter.Write(w, export.AllocationSheet(records))
		})
		return
	}
	response.JSON(c, http.StatusOK, records, pagination, middleware.ExtractMeta(c))
}

// Runs godoc
// @Summary List allocation runs
// @Tags Allocations
// @Produce json
// @Param examDate query string false "Exam date (YYYY-MM-DD)"
// @Param session query string false "Session label"
// @Success 200 {object} response.Envelope
// @Router /allocations/runs [get]
func (h *AllocationHandler) Runs(c *gin.Context) {
	var q dto.AllocationRunQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid run query"))
		return
	}
	runs, err := h.service.ListRuns(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, runs, nil)
}

func sheetFilename(q dto.AllocationQuery) string {
	parts := []string{"allocations"}
	for _, p := range []string{q.ExamDate, strings.ToUpper(q.Session), q.HallNo} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return fmt.Sprintf("%s.csv", strings.Join(parts, "-"))
}
