package models

import "time"

// PoolStatus enumerates the lifecycle of a target pool entry.
type PoolStatus string

const (
	PoolStatusAvailable PoolStatus = "AVAILABLE"
	PoolStatusAssigned  PoolStatus = "ASSIGNED"
	PoolStatusConfirmed PoolStatus = "CONFIRMED"
	PoolStatusExcluded  PoolStatus = "EXCLUDED"
)

// TargetPoolEntry ties one employee to one draft event. Exactly one row
// exists per (event, employee) pair regardless of how many times the
// pool is re-resolved.
type TargetPoolEntry struct {
	ID            string     `db:"id" json:"id"`
	EventID       string     `db:"event_id" json:"event_id"`
	EmployeeID    string     `db:"employee_id" json:"employee_id"`
	EventDateID   *string    `db:"event_date_id" json:"event_date_id,omitempty"`
	Status        PoolStatus `db:"status" json:"status"`
	ExcludeReason *string    `db:"exclude_reason" json:"exclude_reason,omitempty"`
	ExcludedBy    *string    `db:"excluded_by" json:"excluded_by,omitempty"`
	ExcludedAt    *time.Time `db:"excluded_at" json:"excluded_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// PoolEntryDetail is a pool row joined with the employee directory and,
// when assigned, the chosen date option. Triage and roster screens read
// this shape.
type PoolEntryDetail struct {
	TargetPoolEntry
	EmployeeNo  string  `db:"employee_no" json:"employee_no"`
	Name        string  `db:"name" json:"name"`
	Department  string  `db:"department" json:"department"`
	Position    string  `db:"position" json:"position,omitempty"`
	Branch      string  `db:"branch" json:"branch,omitempty"`
	Coordinator string  `db:"coordinator" json:"coordinator,omitempty"`
	Channel     string  `db:"channel" json:"channel,omitempty"`
	Phone       string  `db:"phone" json:"phone,omitempty"`
	EventDate   *string `db:"event_date" json:"event_date,omitempty"`
	StartTime   *string `db:"start_time" json:"start_time,omitempty"`
	EndTime     *string `db:"end_time" json:"end_time,omitempty"`
}

// PoolFilter constrains pool listing queries.
type PoolFilter struct {
	Status     PoolStatus
	Department string
	Search     string
}

// PoolResolution reports the outcome of (re)populating a pool.
type PoolResolution struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
	Total    int `json:"total"`
}
