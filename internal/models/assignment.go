package models

import "time"

// Assignment is a finalised seat on a training event. One employee holds
// at most one assignment per event.
type Assignment struct {
	ID         string    `db:"id" json:"id"`
	EventID    string    `db:"event_id" json:"event_id"`
	EmployeeID string    `db:"employee_id" json:"employee_id"`
	AssignedBy string    `db:"assigned_by" json:"assigned_by"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// AssignmentDetail joins an assignment with the employee directory and
// the event schedule for listing and export.
type AssignmentDetail struct {
	Assignment
	EmployeeNo string  `db:"employee_no" json:"employee_no"`
	Name       string  `db:"name" json:"name"`
	Department string  `db:"department" json:"department"`
	EventTitle string  `db:"event_title" json:"event_title"`
	EventDate  *string `db:"event_date" json:"event_date,omitempty"`
	StartTime  *string `db:"start_time" json:"start_time,omitempty"`
	EndTime    *string `db:"end_time" json:"end_time,omitempty"`
}

// ConfirmGroup keys one confirmation batch: assigned entries sharing the
// same schedule and place become one confirmed sub-event.
type ConfirmGroupKey struct {
	EventDateID string
	EventDate   string
	StartTime   string
	EndTime     string
	Location    string
}

// ConfirmedGroup reports one sub-event materialised by a confirmation.
type ConfirmedGroup struct {
	EventID     string `json:"event_id"`
	EventDate   string `json:"event_date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Location    string `json:"location"`
	Assignments int    `json:"assignments"`
}

// BatchReport summarises one confirmation run across all groups.
type BatchReport struct {
	CreatedEvents []ConfirmedGroup `json:"created_events"`
	Assignments   int              `json:"assignments"`
	Failures      []BatchFailure   `json:"failures,omitempty"`
}

// BatchFailure records one group the confirmation could not finalise.
type BatchFailure struct {
	EventDate string `json:"event_date"`
	StartTime string `json:"start_time"`
	Location  string `json:"location"`
	Reason    string `json:"reason"`
}
