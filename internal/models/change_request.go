package models

import "time"

// ChangeRequestStatus enumerates review states for a swap request.
type ChangeRequestStatus string

const (
	ChangeRequestPending  ChangeRequestStatus = "PENDING"
	ChangeRequestApproved ChangeRequestStatus = "APPROVED"
	ChangeRequestRejected ChangeRequestStatus = "REJECTED"
)

// ChangeRequest asks to move an employee's confirmed seat from one
// event occurrence to another. Terminal rows are immutable.
type ChangeRequest struct {
	ID            string              `db:"id" json:"id"`
	AssignmentID  string              `db:"assignment_id" json:"assignment_id"`
	EmployeeID    string              `db:"employee_id" json:"employee_id"`
	FromEventID   string              `db:"from_event_id" json:"from_event_id"`
	ToEventID     string              `db:"to_event_id" json:"to_event_id"`
	Reason        string              `db:"reason" json:"reason"`
	Status        ChangeRequestStatus `db:"status" json:"status"`
	RejectReason  *string             `db:"reject_reason" json:"reject_reason,omitempty"`
	RequestedBy   string              `db:"requested_by" json:"requested_by"`
	RequestedAt   time.Time           `db:"requested_at" json:"requested_at"`
	ProcessedBy   *string             `db:"processed_by" json:"processed_by,omitempty"`
	ProcessedAt   *time.Time          `db:"processed_at" json:"processed_at,omitempty"`
}

// ChangeRequestDetail joins a request with employee and event context
// for the review queue.
type ChangeRequestDetail struct {
	ChangeRequest
	EmployeeNo     string  `db:"employee_no" json:"employee_no"`
	EmployeeName   string  `db:"employee_name" json:"employee_name"`
	Department     string  `db:"department" json:"department"`
	FromEventTitle string  `db:"from_event_title" json:"from_event_title"`
	FromEventDate  *string `db:"from_event_date" json:"from_event_date,omitempty"`
	ToEventTitle   string  `db:"to_event_title" json:"to_event_title"`
	ToEventDate    *string `db:"to_event_date" json:"to_event_date,omitempty"`
}

// ChangeRequestFilter constrains review queue queries.
type ChangeRequestFilter struct {
	Status      ChangeRequestStatus
	EventID     string
	RequestedBy string
	Limit       int
	Offset      int
}
