package models

import "time"

// EmployeeRole enumerates directory roles.
type EmployeeRole string

const (
	RoleWorker      EmployeeRole = "WORKER"
	RoleCoordinator EmployeeRole = "COORDINATOR"
	RoleAdmin       EmployeeRole = "ADMIN"
)

// EmployeeStatus enumerates directory lifecycle states.
type EmployeeStatus string

const (
	EmployeeStatusActive   EmployeeStatus = "ACTIVE"
	EmployeeStatusLeave    EmployeeStatus = "LEAVE"
	EmployeeStatusInactive EmployeeStatus = "INACTIVE"
)

// Employee is a directory record. The training core only reads it;
// ownership lives with the directory provider.
type Employee struct {
	ID          string         `db:"id" json:"id"`
	EmployeeID  string         `db:"employee_id" json:"employee_id"`
	Name        string         `db:"name" json:"name"`
	Department  string         `db:"department" json:"department"`
	Position    string         `db:"position" json:"position,omitempty"`
	Branch      string         `db:"branch" json:"branch,omitempty"`
	Coordinator string         `db:"coordinator" json:"coordinator,omitempty"`
	Channel     string         `db:"channel" json:"channel,omitempty"`
	Phone       string         `db:"phone" json:"phone,omitempty"`
	BirthDate   string         `db:"birth_date" json:"-"`
	Role        EmployeeRole   `db:"role" json:"role"`
	Status      EmployeeStatus `db:"status" json:"status"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}

// EligibleFilter constrains directory reads when resolving targets.
type EligibleFilter struct {
	Departments []string
}

// Pagination describes list slicing metadata.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
