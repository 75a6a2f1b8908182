package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/training-admin-api/internal/models"
)

// ChangeRequestRepository persists seat-swap requests.
type ChangeRequestRepository struct {
	db *sqlx.DB
}

// NewChangeRequestRepository constructs the repository.
func NewChangeRequestRepository(db *sqlx.DB) *ChangeRequestRepository {
	return &ChangeRequestRepository{db: db}
}

// Create inserts a new pending request.
func (r *ChangeRequestRepository) Create(ctx context.Context, request *models.ChangeRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	if request.Status == "" {
		request.Status = models.ChangeRequestPending
	}
	if request.RequestedAt.IsZero() {
		request.RequestedAt = time.Now().UTC()
	}
	const query = `INSERT INTO change_requests
	(id, assignment_id, employee_id, from_event_id, to_event_id, reason, status, reject_reason, requested_by, requested_at, processed_by, processed_at)
	VALUES (:id, :assignment_id, :employee_id, :from_event_id, :to_event_id, :reason, :status, :reject_reason, :requested_by, :requested_at, :processed_by, :processed_at)`
	if _, err := r.db.NamedExecContext(ctx, query, request); err != nil {
		return fmt.Errorf("create change request: %w", err)
	}
	return nil
}

// GetByID fetches a change request by identifier.
func (r *ChangeRequestRepository) GetByID(ctx context.Context, id string) (*models.ChangeRequest, error) {
	const query = `SELECT id, assignment_id, employee_id, from_event_id, to_event_id, reason, status,
       reject_reason, requested_by, requested_at, processed_by, processed_at
	FROM change_requests WHERE id = $1`
	var request models.ChangeRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// List returns requests matching the filter joined with review context,
// sorted latest first.
func (r *ChangeRequestRepository) List(ctx context.Context, filter models.ChangeRequestFilter) ([]models.ChangeRequestDetail, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 4)
	builder.WriteString(`SELECT cr.id, cr.assignment_id, cr.employee_id, cr.from_event_id, cr.to_event_id, cr.reason,
       cr.status, cr.reject_reason, cr.requested_by, cr.requested_at, cr.processed_by, cr.processed_at,
       e.employee_id AS employee_no, e.name AS employee_name, e.department,
       fe.title AS from_event_title, fe.event_date AS from_event_date,
       te.title AS to_event_title, te.event_date AS to_event_date
	FROM change_requests cr
	JOIN employees e ON e.id = cr.employee_id
	JOIN training_events fe ON fe.id = cr.from_event_id
	JOIN training_events te ON te.id = cr.to_event_id`)

	conditions := make([]string, 0, 3)
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("cr.status = $%d", len(args)))
	}
	if filter.EventID != "" {
		args = append(args, filter.EventID)
		conditions = append(conditions, fmt.Sprintf("(cr.from_event_id = $%d OR cr.to_event_id = $%d)", len(args), len(args)))
	}
	if filter.RequestedBy != "" {
		args = append(args, filter.RequestedBy)
		conditions = append(conditions, fmt.Sprintf("cr.requested_by = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY cr.requested_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var requests []models.ChangeRequestDetail
	if err := r.db.SelectContext(ctx, &requests, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list change requests: %w", err)
	}
	return requests, nil
}

// ApproveSwap approves a pending request and moves the seat in the same
// transaction: the old assignment is deleted, a replacement on the
// target event is inserted, and the request flips to APPROVED. A request
// already processed surfaces as sql.ErrNoRows.
func (r *ChangeRequestRepository) ApproveSwap(ctx context.Context, request *models.ChangeRequest, processedBy string) (*models.Assignment, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin approve swap: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	const flip = `UPDATE change_requests SET status = $1, processed_by = $2, processed_at = $3
	WHERE id = $4 AND status = $5`
	result, err := tx.ExecContext(ctx, flip, models.ChangeRequestApproved, processedBy, now, request.ID, models.ChangeRequestPending)
	if err != nil {
		return nil, fmt.Errorf("approve change request: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("check approve rows: %w", err)
	}
	if rows == 0 {
		return nil, sql.ErrNoRows
	}

	const remove = `DELETE FROM training_assignments WHERE id = $1`
	result, err = tx.ExecContext(ctx, remove, request.AssignmentID)
	if err != nil {
		return nil, fmt.Errorf("remove old assignment: %w", err)
	}
	rows, err = result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("check removal rows: %w", err)
	}
	if rows == 0 {
		return nil, sql.ErrNoRows
	}

	replacement := &models.Assignment{
		ID:         uuid.NewString(),
		EventID:    request.ToEventID,
		EmployeeID: request.EmployeeID,
		AssignedBy: processedBy,
		CreatedAt:  now,
	}
	const insert = `INSERT INTO training_assignments (id, event_id, employee_id, assigned_by, created_at)
	VALUES (:id, :event_id, :employee_id, :assigned_by, :created_at)`
	if _, err := tx.NamedExecContext(ctx, insert, replacement); err != nil {
		return nil, fmt.Errorf("create replacement assignment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit approve swap: %w", err)
	}
	commit = true
	return replacement, nil
}

// Reject flips a pending request to REJECTED with the reviewer's note.
// A request already processed surfaces as sql.ErrNoRows.
func (r *ChangeRequestRepository) Reject(ctx context.Context, id, reason, processedBy string) error {
	const query = `UPDATE change_requests SET status = $1, reject_reason = $2, processed_by = $3, processed_at = $4
	WHERE id = $5 AND status = $6`
	result, err := r.db.ExecContext(ctx, query, models.ChangeRequestRejected, reason, processedBy, time.Now().UTC(), id, models.ChangeRequestPending)
	if err != nil {
		return fmt.Errorf("reject change request: %w", err)
	}
	return requireRowsAffected(result)
}
