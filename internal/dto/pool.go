package dto

import "github.com/noah-isme/training-admin-api/internal/models"

// ExcludeRequest removes a pool entry from consideration with a reason.
type ExcludeRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// AssignRequest pins a pool entry to one of the event's date options.
type AssignRequest struct {
	EventDateID string `json:"eventDateId" validate:"required"`
}

// ConfirmRequest finalises the selected assigned entries into
// confirmed sub-events.
type ConfirmRequest struct {
	EventID string   `json:"eventId" validate:"required"`
	PoolIDs []string `json:"poolIds" validate:"required,min=1"`
}

// PoolQuery mirrors supported pool listing filters.
type PoolQuery struct {
	Status     models.PoolStatus
	Department string
	Search     string
}

// QuotaStatusResponse reports per-department usage for a date option.
type QuotaStatusResponse struct {
	EventDateID string                   `json:"eventDateId"`
	Capacity    *int                     `json:"capacity,omitempty"`
	Confirmed   int                      `json:"confirmed"`
	Quotas      []models.DepartmentQuota `json:"quotas"`
}
