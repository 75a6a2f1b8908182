package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/training-admin-api/internal/dto"
	"github.com/noah-isme/training-admin-api/internal/models"
	appErrors "github.com/noah-isme/training-admin-api/pkg/errors"
	"github.com/noah-isme/training-admin-api/pkg/response"
)

type targetPoolService interface {
	Repopulate(ctx context.Context, eventID string, customIDs []string, actorID string) (*models.PoolResolution, []string, error)
	ListPool(ctx context.Context, eventID string, filter models.PoolFilter) ([]models.PoolEntryDetail, error)
}

type lifecycleService interface {
	Exclude(ctx context.Context, poolID, reason string, actor *models.JWTClaims) error
	Unexclude(ctx context.Context, poolID string, actor *models.JWTClaims) error
	Assign(ctx context.Context, poolID, eventDateID string, actor *models.JWTClaims) error
	ConfirmBatch(ctx context.Context, req dto.ConfirmRequest, actor *models.JWTClaims) (*models.BatchReport, error)
}

// PoolHandler exposes target pool triage endpoints.
type PoolHandler struct {
	pool      targetPoolService
	lifecycle lifecycleService
}

// NewPoolHandler constructs the handler.
func NewPoolHandler(pool targetPoolService, lifecycle lifecycleService) *PoolHandler {
	return &PoolHandler{pool: pool, lifecycle: lifecycle}
}

// List godoc
// @Summary List the target pool of an event
// @Tags Pool
// @Produce json
// @Param id path string true "Event ID"
// @Param status query string false "Pool status"
// @Param department query string false "Department"
// @Param search query string false "Name or employee number"
// @Success 200 {object} response.Envelope
// @Router /events/{id}/pool [get]
func (h *PoolHandler) List(c *gin.Context) {
	if h.pool == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "pool service not configured"))
		return
	}
	filter := models.PoolFilter{
		Department: strings.TrimSpace(c.Query("department")),
		Search:     strings.TrimSpace(c.Query("search")),
	}
	if rawStatus := c.Query("status"); rawStatus != "" {
		filter.Status = models.PoolStatus(strings.ToUpper(strings.TrimSpace(rawStatus)))
	}
	entries, err := h.pool.ListPool(c.Request.Context(), c.Param("id"), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Resolve godoc
// @Summary Re-resolve the target pool of an event
// @Description Repopulates the pool from the directory. Existing entries are kept; new eligible employees are added.
// @Tags Pool
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /events/{id}/pool/resolve [post]
func (h *PoolHandler) Resolve(c *gin.Context) {
	if h.pool == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "pool service not configured"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req struct {
		EmployeeIDs []string `json:"employeeIds"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid resolve payload"))
			return
		}
	}
	resolution, unresolved, err := h.pool.Repopulate(c.Request.Context(), c.Param("id"), req.EmployeeIDs, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"resolution": resolution, "unresolved": unresolved}, nil)
}

// Exclude godoc
// @Summary Exclude a pool entry with a reason
// @Tags Pool
// @Accept json
// @Produce json
// @Param id path string true "Pool entry ID"
// @Param payload body dto.ExcludeRequest true "Exclusion payload"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /pool/{id}/exclude [post]
func (h *PoolHandler) Exclude(c *gin.Context) {
	if h.lifecycle == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "lifecycle service not configured"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.ExcludeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid exclusion payload"))
		return
	}
	if err := h.lifecycle.Exclude(c.Request.Context(), c.Param("id"), req.Reason, claims); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Unexclude godoc
// @Summary Restore an excluded pool entry
// @Tags Pool
// @Produce json
// @Param id path string true "Pool entry ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /pool/{id}/unexclude [post]
func (h *PoolHandler) Unexclude(c *gin.Context) {
	if h.lifecycle == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "lifecycle service not configured"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.lifecycle.Unexclude(c.Request.Context(), c.Param("id"), claims); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Assign godoc
// @Summary Assign a pool entry to a date option
// @Tags Pool
// @Accept json
// @Produce json
// @Param id path string true "Pool entry ID"
// @Param payload body dto.AssignRequest true "Assignment payload"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /pool/{id}/assign [post]
func (h *PoolHandler) Assign(c *gin.Context) {
	if h.lifecycle == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "lifecycle service not configured"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.EventDateID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "eventDateId is required"))
		return
	}
	if err := h.lifecycle.Assign(c.Request.Context(), c.Param("id"), req.EventDateID, claims); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Confirm godoc
// @Summary Confirm assigned pool entries into scheduled sub-events
// @Description Entries sharing a schedule become one confirmed event. Each schedule group commits or fails independently.
// @Tags Pool
// @Accept json
// @Produce json
// @Param payload body dto.ConfirmRequest true "Confirmation payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /pool/confirm [post]
func (h *PoolHandler) Confirm(c *gin.Context) {
	if h.lifecycle == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "lifecycle service not configured"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid confirmation payload"))
		return
	}
	report, err := h.lifecycle.ConfirmBatch(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}
