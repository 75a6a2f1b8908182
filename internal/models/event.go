package models

import "time"

// TargetMode selects the eligibility strategy for an event.
type TargetMode string

const (
	TargetModeAll        TargetMode = "ALL"
	TargetModeDepartment TargetMode = "DEPARTMENT"
	TargetModeCustom     TargetMode = "CUSTOM"
)

// AssignmentMode distinguishes immediate rosters from drafted ones.
// Confirmed sub-events materialised from an approved pool batch carry
// AssignmentModeConfirmed.
type AssignmentMode string

const (
	AssignmentModeDirect    AssignmentMode = "DIRECT"
	AssignmentModeDraft     AssignmentMode = "DRAFT"
	AssignmentModeConfirmed AssignmentMode = "CONFIRMED"
)

// DateMode indicates whether an event has a single schedule or options.
type DateMode string

const (
	DateModeSingle   DateMode = "SINGLE"
	DateModeMultiple DateMode = "MULTIPLE"
)

// EventStatus enumerates event visibility states.
type EventStatus string

const (
	EventStatusDraft     EventStatus = "DRAFT"
	EventStatusPublished EventStatus = "PUBLISHED"
)

// LocationType enumerates where a training takes place.
type LocationType string

const (
	LocationZoom    LocationType = "ZOOM"
	LocationOffline LocationType = "OFFLINE"
)

// TrainingEvent is one scheduled occurrence of a training template.
type TrainingEvent struct {
	ID                 string         `db:"id" json:"id"`
	TemplateID         string         `db:"template_id" json:"template_id"`
	Title              string         `db:"title" json:"title"`
	TargetMode         TargetMode     `db:"target_mode" json:"target_mode"`
	AssignmentMode     AssignmentMode `db:"assignment_mode" json:"assignment_mode"`
	DateMode           DateMode       `db:"date_mode" json:"date_mode"`
	Status             EventStatus    `db:"status" json:"status"`
	LocationType       LocationType   `db:"location_type" json:"location_type"`
	MeetingID          *string        `db:"meeting_id" json:"meeting_id,omitempty"`
	MeetingPassword    *string        `db:"meeting_password" json:"meeting_password,omitempty"`
	LocationDetail     *string        `db:"location_detail" json:"location_detail,omitempty"`
	TargetDepartments  StringList     `db:"target_departments" json:"target_departments,omitempty"`
	EventDate          *string        `db:"event_date" json:"event_date,omitempty"`
	StartTime          *string        `db:"start_time" json:"start_time,omitempty"`
	EndTime            *string        `db:"end_time" json:"end_time,omitempty"`
	Deadline           *string        `db:"deadline" json:"deadline,omitempty"`
	AssignmentDeadline *string        `db:"assignment_deadline" json:"assignment_deadline,omitempty"`
	ParentEventID      *string        `db:"parent_event_id" json:"parent_event_id,omitempty"`
	CreatedBy          string         `db:"created_by" json:"created_by"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
}

// Location returns the human-readable location descriptor for grouping
// and roster display: the meeting id for ZOOM events, the address for
// offline ones.
func (e *TrainingEvent) Location() string {
	if e.LocationType == LocationZoom {
		if e.MeetingID != nil {
			return *e.MeetingID
		}
		return ""
	}
	if e.LocationDetail != nil {
		return *e.LocationDetail
	}
	return ""
}

// EventDateOption is one (date, start, end) choice belonging to an event,
// optionally capped by an overall capacity.
type EventDateOption struct {
	ID             string  `db:"id" json:"id"`
	EventID        string  `db:"event_id" json:"event_id"`
	EventDate      string  `db:"event_date" json:"event_date"`
	StartTime      string  `db:"start_time" json:"start_time"`
	EndTime        string  `db:"end_time" json:"end_time"`
	Capacity       *int    `db:"capacity" json:"capacity,omitempty"`
	ConfirmedCount int     `db:"confirmed_count" json:"confirmed_count"`
	Quotas         []DepartmentQuota `db:"-" json:"quotas,omitempty"`
}

// DepartmentQuota caps confirmed attendees per department for a date option.
type DepartmentQuota struct {
	ID           string `db:"id" json:"id"`
	EventDateID  string `db:"event_date_id" json:"event_date_id"`
	Department   string `db:"department" json:"department"`
	Quota        int    `db:"quota" json:"quota"`
	CurrentCount int    `db:"current_count" json:"current_count"`
}

// Remaining reports how many confirmed seats are left under the quota.
func (q DepartmentQuota) Remaining() int {
	return q.Quota - q.CurrentCount
}

// EventFilter constrains event listing queries.
type EventFilter struct {
	TemplateID string
	From       string
	To         string
	Status     EventStatus
	Limit      int
	Offset     int
}

// EventSummary augments an event with pool progress counts for the
// triage screens.
type EventSummary struct {
	TrainingEvent
	PoolTotal    int `db:"pool_total" json:"pool_total"`
	PoolAssigned int `db:"pool_assigned" json:"pool_assigned"`
	PoolExcluded int `db:"pool_excluded" json:"pool_excluded"`
}
