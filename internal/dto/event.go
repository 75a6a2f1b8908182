package dto

import "github.com/noah-isme/training-admin-api/internal/models"

// DateOptionInput is one schedule choice supplied when creating an event.
type DateOptionInput struct {
	EventDate string       `json:"eventDate" validate:"required"`
	StartTime string       `json:"startTime" validate:"required"`
	EndTime   string       `json:"endTime" validate:"required"`
	Capacity  *int         `json:"capacity,omitempty"`
	Quotas    []QuotaInput `json:"quotas,omitempty"`
}

// QuotaInput caps confirmed seats for one department on a date option.
type QuotaInput struct {
	Department string `json:"department" validate:"required"`
	Quota      int    `json:"quota" validate:"required,min=1"`
}

// CreateEventRequest payload for scheduling a training occurrence.
type CreateEventRequest struct {
	TemplateID         string                `json:"templateId" validate:"required"`
	Title              string                `json:"title" validate:"required"`
	TargetMode         models.TargetMode     `json:"targetMode" validate:"required"`
	AssignmentMode     models.AssignmentMode `json:"assignmentMode" validate:"required"`
	DateMode           models.DateMode       `json:"dateMode" validate:"required"`
	LocationType       models.LocationType   `json:"locationType" validate:"required"`
	MeetingID          *string               `json:"meetingId,omitempty"`
	MeetingPassword    *string               `json:"meetingPassword,omitempty"`
	LocationDetail     *string               `json:"locationDetail,omitempty"`
	TargetDepartments  []string              `json:"targetDepartments,omitempty"`
	TargetEmployeeIDs  []string              `json:"targetEmployeeIds,omitempty"`
	EventDate          *string               `json:"eventDate,omitempty"`
	StartTime          *string               `json:"startTime,omitempty"`
	EndTime            *string               `json:"endTime,omitempty"`
	Deadline           *string               `json:"deadline,omitempty"`
	AssignmentDeadline *string               `json:"assignmentDeadline,omitempty"`
	DateOptions        []DateOptionInput     `json:"dateOptions,omitempty"`
}

// EventQuery mirrors supported listing filters.
type EventQuery struct {
	TemplateID string
	From       string
	To         string
	Status     models.EventStatus
	Page       int
	PageSize   int
}

// CreateEventResponse returns the stored event plus the initial pool
// resolution for DRAFT events.
type CreateEventResponse struct {
	Event      models.TrainingEvent    `json:"event"`
	Resolution *models.PoolResolution  `json:"resolution,omitempty"`
	Unresolved []string                `json:"unresolved,omitempty"`
}
