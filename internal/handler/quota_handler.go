package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/training-admin-api/internal/dto"
	"github.com/noah-isme/training-admin-api/internal/models"
	appErrors "github.com/noah-isme/training-admin-api/pkg/errors"
	"github.com/noah-isme/training-admin-api/pkg/response"
)

type quotaService interface {
	AddQuotas(ctx context.Context, eventDateID string, entries []dto.QuotaInput, actor *models.JWTClaims) ([]models.DepartmentQuota, error)
	Status(ctx context.Context, eventDateID string) (*dto.QuotaStatusResponse, error)
}

type importService interface {
	ApplyQuotaRows(ctx context.Context, eventDateID string, r io.Reader, actor *models.JWTClaims) (*dto.ImportReport, error)
	ResolveCustomTargets(ctx context.Context, r io.Reader) ([]models.Employee, *dto.CustomTargetReport, error)
}

// QuotaHandler exposes per-department quota endpoints for date options.
type QuotaHandler struct {
	quotas   quotaService
	importer importService
}

// NewQuotaHandler constructs the handler.
func NewQuotaHandler(quotas quotaService, importer importService) *QuotaHandler {
	return &QuotaHandler{quotas: quotas, importer: importer}
}

// Add godoc
// @Summary Set department quotas for a date option
// @Tags Quotas
// @Accept json
// @Produce json
// @Param id path string true "Date option ID"
// @Param payload body []dto.QuotaInput true "Quota entries"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /date-options/{id}/quotas [post]
func (h *QuotaHandler) Add(c *gin.Context) {
	if h.quotas == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "quota service not configured"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var entries []dto.QuotaInput
	if err := c.ShouldBindJSON(&entries); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid quota payload"))
		return
	}
	stored, err := h.quotas.AddQuotas(c.Request.Context(), c.Param("id"), entries, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, stored, nil)
}

// Status godoc
// @Summary Quota usage for a date option
// @Description Advisory counters; hard enforcement happens at confirmation.
// @Tags Quotas
// @Produce json
// @Param id path string true "Date option ID"
// @Success 200 {object} response.Envelope
// @Router /date-options/{id}/quotas [get]
func (h *QuotaHandler) Status(c *gin.Context) {
	if h.quotas == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "quota service not configured"))
		return
	}
	status, err := h.quotas.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Import godoc
// @Summary Import department quotas from a CSV upload
// @Description Malformed rows are skipped and reported per line, never fatal.
// @Tags Quotas
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Date option ID"
// @Param file formData file true "CSV file with department,quota columns"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /date-options/{id}/quotas/import [post]
func (h *QuotaHandler) Import(c *gin.Context) {
	if h.importer == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "import service not configured"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file upload is required"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "failed to read upload"))
		return
	}
	defer file.Close() //nolint:errcheck

	report, err := h.importer.ApplyQuotaRows(c.Request.Context(), c.Param("id"), file, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// ResolveTargets godoc
// @Summary Resolve an uploaded employee-id list for CUSTOM targeting
// @Description Returns the matched employees plus unresolved and skipped ids.
// @Tags Quotas
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV file with one employee id per row"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /targets/resolve [post]
func (h *QuotaHandler) ResolveTargets(c *gin.Context) {
	if h.importer == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "import service not configured"))
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file upload is required"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "failed to read upload"))
		return
	}
	defer file.Close() //nolint:errcheck

	employees, report, err := h.importer.ResolveCustomTargets(c.Request.Context(), file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"employees": employees, "report": report}, nil)
}
