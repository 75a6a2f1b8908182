package dto

import "github.com/noah-isme/training-admin-api/internal/models"

// SubmitChangeRequest asks to move a confirmed seat to another event.
type SubmitChangeRequest struct {
	AssignmentID string `json:"assignmentId" validate:"required"`
	ToEventID    string `json:"toEventId" validate:"required"`
	Reason       string `json:"reason" validate:"required"`
}

// RejectChangeRequest captures the reviewer's refusal note.
type RejectChangeRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// ChangeRequestQuery mirrors supported review queue filters.
type ChangeRequestQuery struct {
	Status   models.ChangeRequestStatus
	EventID  string
	Page     int
	PageSize int
}
