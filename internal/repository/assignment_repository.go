package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/training-admin-api/internal/models"
)

// AssignmentRepository reads finalised training seats. Writes happen
// inside the confirmation and change-request transactions.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// GetByID fetches an assignment by identifier.
func (r *AssignmentRepository) GetByID(ctx context.Context, id string) (*models.Assignment, error) {
	const query = `SELECT id, event_id, employee_id, assigned_by, created_at
	FROM training_assignments WHERE id = $1`
	var assignment models.Assignment
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// ListByEvent returns assignment rows joined with directory and event
// data for roster display, ordered for the printed roster.
func (r *AssignmentRepository) ListByEvent(ctx context.Context, eventID string) ([]models.AssignmentDetail, error) {
	const query = `SELECT a.id, a.event_id, a.employee_id, a.assigned_by, a.created_at,
       e.employee_id AS employee_no, e.name, e.department,
       ev.title AS event_title, ev.event_date, ev.start_time, ev.end_time
	FROM training_assignments a
	JOIN employees e ON e.id = a.employee_id
	JOIN training_events ev ON ev.id = a.event_id
	WHERE a.event_id = $1
	ORDER BY e.department, e.name`
	var assignments []models.AssignmentDetail
	if err := r.db.SelectContext(ctx, &assignments, query, eventID); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return assignments, nil
}

// ListByParentEvent returns all assignments across the confirmed
// sub-events of a draft event, ordered for the export roster.
func (r *AssignmentRepository) ListByParentEvent(ctx context.Context, parentEventID string) ([]models.AssignmentDetail, error) {
	const query = `SELECT a.id, a.event_id, a.employee_id, a.assigned_by, a.created_at,
       e.employee_id AS employee_no, e.name, e.department,
       ev.title AS event_title, ev.event_date, ev.start_time, ev.end_time
	FROM training_assignments a
	JOIN employees e ON e.id = a.employee_id
	JOIN training_events ev ON ev.id = a.event_id
	WHERE ev.parent_event_id = $1 OR ev.id = $1
	ORDER BY ev.event_date, ev.start_time, e.department, e.coordinator, e.branch, e.name`
	var assignments []models.AssignmentDetail
	if err := r.db.SelectContext(ctx, &assignments, query, parentEventID); err != nil {
		return nil, fmt.Errorf("list roster assignments: %w", err)
	}
	return assignments, nil
}
