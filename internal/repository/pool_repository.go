package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/training-admin-api/internal/models"
)

// Confirmation failures surfaced from inside the transaction.
var (
	ErrCapacityExceeded = errors.New("date option capacity exceeded")
	ErrQuotaExceeded    = errors.New("department quota exceeded")
	ErrNotAssignable    = errors.New("pool entries not in assignable state")
)

// PoolRepository persists target pool entries.
type PoolRepository struct {
	db *sqlx.DB
}

// NewPoolRepository constructs the repository.
func NewPoolRepository(db *sqlx.DB) *PoolRepository {
	return &PoolRepository{db: db}
}

// BulkInsert adds employees to an event's pool. Re-resolving is
// idempotent: the unique (event_id, employee_id) pair makes repeated
// inserts no-ops, reported as skipped.
func (r *PoolRepository) BulkInsert(ctx context.Context, eventID string, employeeIDs []string) (*models.PoolResolution, error) {
	resolution := &models.PoolResolution{Total: len(employeeIDs)}
	if len(employeeIDs) == 0 {
		return resolution, nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin pool insert: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			tx.Rollback()
		}
	}()

	const query = `INSERT INTO training_target_pool (id, event_id, employee_id, status, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (event_id, employee_id) DO NOTHING RETURNING id`
	now := time.Now().UTC()
	for _, employeeID := range employeeIDs {
		var insertedID string
		err := tx.QueryRowxContext(ctx, query, uuid.NewString(), eventID, employeeID, models.PoolStatusAvailable, now, now).Scan(&insertedID)
		if err != nil {
			if err == sql.ErrNoRows {
				resolution.Skipped++
				continue
			}
			return nil, fmt.Errorf("insert pool entry: %w", err)
		}
		resolution.Inserted++
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit pool insert: %w", err)
	}
	commit = true
	return resolution, nil
}

// GetByID fetches a pool entry by identifier.
func (r *PoolRepository) GetByID(ctx context.Context, id string) (*models.TargetPoolEntry, error) {
	const query = `SELECT id, event_id, employee_id, event_date_id, status, exclude_reason, excluded_by, excluded_at, created_at, updated_at
	FROM training_target_pool WHERE id = $1`
	var entry models.TargetPoolEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListByEvent returns pool entries joined with directory data, filtered
// and ordered for the triage screen.
func (r *PoolRepository) ListByEvent(ctx context.Context, eventID string, filter models.PoolFilter) ([]models.PoolEntryDetail, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 4)
	builder.WriteString(`SELECT p.id, p.event_id, p.employee_id, p.event_date_id, p.status, p.exclude_reason,
       p.excluded_by, p.excluded_at, p.created_at, p.updated_at,
       e.employee_id AS employee_no, e.name, e.department, e.position, e.branch, e.coordinator, e.channel, e.phone,
       d.event_date, d.start_time, d.end_time
	FROM training_target_pool p
	JOIN employees e ON e.id = p.employee_id
	LEFT JOIN training_event_dates d ON d.id = p.event_date_id`)

	args = append(args, eventID)
	conditions := []string{"p.event_id = $1"}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("p.status = $%d", len(args)))
	}
	if filter.Department != "" {
		args = append(args, filter.Department)
		conditions = append(conditions, fmt.Sprintf("e.department = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conditions = append(conditions, fmt.Sprintf("(e.name ILIKE $%d OR e.employee_id ILIKE $%d)", len(args), len(args)))
	}
	builder.WriteString(" WHERE ")
	builder.WriteString(strings.Join(conditions, " AND "))
	builder.WriteString(" ORDER BY e.department, e.name")

	var entries []models.PoolEntryDetail
	if err := r.db.SelectContext(ctx, &entries, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list pool entries: %w", err)
	}
	return entries, nil
}

// ListAssignedByIDs fetches the selected entries with their departments
// and chosen date options. Only ASSIGNED rows are returned, so callers
// can detect selections in the wrong state by comparing lengths.
func (r *PoolRepository) ListAssignedByIDs(ctx context.Context, eventID string, poolIDs []string) ([]models.PoolEntryDetail, error) {
	if len(poolIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT p.id, p.event_id, p.employee_id, p.event_date_id, p.status, p.exclude_reason,
       p.excluded_by, p.excluded_at, p.created_at, p.updated_at,
       e.employee_id AS employee_no, e.name, e.department, e.position, e.branch, e.coordinator, e.channel, e.phone,
       d.event_date, d.start_time, d.end_time
	FROM training_target_pool p
	JOIN employees e ON e.id = p.employee_id
	JOIN training_event_dates d ON d.id = p.event_date_id
	WHERE p.event_id = ? AND p.status = ? AND p.id IN (?)`, eventID, models.PoolStatusAssigned, poolIDs)
	if err != nil {
		return nil, fmt.Errorf("build assigned lookup: %w", err)
	}
	query = r.db.Rebind(query)
	var entries []models.PoolEntryDetail
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list assigned entries: %w", err)
	}
	return entries, nil
}

// Exclude marks an AVAILABLE or ASSIGNED entry EXCLUDED with the audit
// metadata. Confirmed entries cannot be excluded.
func (r *PoolRepository) Exclude(ctx context.Context, id, reason, excludedBy string) error {
	const query = `UPDATE training_target_pool
	SET status = $1, exclude_reason = $2, excluded_by = $3, excluded_at = $4, event_date_id = NULL, updated_at = $4
	WHERE id = $5 AND status IN ($6, $7)`
	result, err := r.db.ExecContext(ctx, query,
		models.PoolStatusExcluded, reason, excludedBy, time.Now().UTC(), id,
		models.PoolStatusAvailable, models.PoolStatusAssigned)
	if err != nil {
		return fmt.Errorf("exclude pool entry: %w", err)
	}
	return requireRowsAffected(result)
}

// Unexclude returns an EXCLUDED entry to AVAILABLE and clears the
// exclusion metadata.
func (r *PoolRepository) Unexclude(ctx context.Context, id string) error {
	const query = `UPDATE training_target_pool
	SET status = $1, exclude_reason = NULL, excluded_by = NULL, excluded_at = NULL, updated_at = $2
	WHERE id = $3 AND status = $4`
	result, err := r.db.ExecContext(ctx, query, models.PoolStatusAvailable, time.Now().UTC(), id, models.PoolStatusExcluded)
	if err != nil {
		return fmt.Errorf("unexclude pool entry: %w", err)
	}
	return requireRowsAffected(result)
}

// Assign pins an AVAILABLE or ASSIGNED entry to a date option.
func (r *PoolRepository) Assign(ctx context.Context, id, eventDateID string) error {
	const query = `UPDATE training_target_pool
	SET status = $1, event_date_id = $2, updated_at = $3
	WHERE id = $4 AND status IN ($5, $6)`
	result, err := r.db.ExecContext(ctx, query,
		models.PoolStatusAssigned, eventDateID, time.Now().UTC(), id,
		models.PoolStatusAvailable, models.PoolStatusAssigned)
	if err != nil {
		return fmt.Errorf("assign pool entry: %w", err)
	}
	return requireRowsAffected(result)
}

// ConfirmGroupParams carries one schedule group into confirmation.
type ConfirmGroupParams struct {
	Parent      *models.TrainingEvent
	EventDateID string
	EventDate   string
	StartTime   string
	EndTime     string
	PoolIDs     []string
	ConfirmedBy string
}

// ConfirmGroup finalises one schedule group in a single transaction:
// it locks the date option and its quotas, verifies capacity, creates
// the confirmed sub-event, inserts assignments and flips the pool
// entries to CONFIRMED. Counts can never drift past their caps because
// everything happens under the row locks.
func (r *PoolRepository) ConfirmGroup(ctx context.Context, params ConfirmGroupParams) (*models.TrainingEvent, int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("begin confirm group: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			tx.Rollback()
		}
	}()

	var option models.EventDateOption
	const lockOption = `SELECT id, event_id, event_date, start_time, end_time, capacity, confirmed_count
	FROM training_event_dates WHERE id = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, &option, lockOption, params.EventDateID); err != nil {
		return nil, 0, fmt.Errorf("lock date option: %w", err)
	}

	var quotas []models.DepartmentQuota
	const lockQuotas = `SELECT id, event_date_id, department, quota, current_count
	FROM training_date_department_quotas WHERE event_date_id = $1 FOR UPDATE`
	if err := tx.SelectContext(ctx, &quotas, lockQuotas, params.EventDateID); err != nil {
		return nil, 0, fmt.Errorf("lock quotas: %w", err)
	}

	query, args, err := sqlx.In(`SELECT p.id, p.event_id, p.employee_id, p.event_date_id, p.status, p.exclude_reason,
       p.excluded_by, p.excluded_at, p.created_at, p.updated_at,
       e.employee_id AS employee_no, e.name, e.department
	FROM training_target_pool p
	JOIN employees e ON e.id = p.employee_id
	WHERE p.id IN (?) AND p.event_id = ? AND p.status = ? FOR UPDATE OF p`,
		params.PoolIDs, params.Parent.ID, models.PoolStatusAssigned)
	if err != nil {
		return nil, 0, fmt.Errorf("build group lock: %w", err)
	}
	query = tx.Rebind(query)
	var entries []models.PoolEntryDetail
	if err := tx.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("lock pool entries: %w", err)
	}
	if len(entries) != len(params.PoolIDs) {
		return nil, 0, ErrNotAssignable
	}

	if option.Capacity != nil && option.ConfirmedCount+len(entries) > *option.Capacity {
		return nil, 0, fmt.Errorf("%w: %s %s", ErrCapacityExceeded, option.EventDate, option.StartTime)
	}
	deptCounts := make(map[string]int, len(entries))
	for _, entry := range entries {
		deptCounts[entry.Department]++
	}
	for _, quota := range quotas {
		if added := deptCounts[quota.Department]; added > 0 && quota.CurrentCount+added > quota.Quota {
			return nil, 0, fmt.Errorf("%w: %s", ErrQuotaExceeded, quota.Department)
		}
	}

	now := time.Now().UTC()
	child := &models.TrainingEvent{
		ID:              uuid.NewString(),
		TemplateID:      params.Parent.TemplateID,
		Title:           params.Parent.Title,
		TargetMode:      params.Parent.TargetMode,
		AssignmentMode:  models.AssignmentModeConfirmed,
		DateMode:        models.DateModeSingle,
		Status:          models.EventStatusPublished,
		LocationType:    params.Parent.LocationType,
		MeetingID:       params.Parent.MeetingID,
		MeetingPassword: params.Parent.MeetingPassword,
		LocationDetail:  params.Parent.LocationDetail,
		EventDate:       &params.EventDate,
		StartTime:       &params.StartTime,
		EndTime:         &params.EndTime,
		ParentEventID:   &params.Parent.ID,
		CreatedBy:       params.ConfirmedBy,
		CreatedAt:       now,
	}
	const insertChild = `INSERT INTO training_events
	(id, template_id, title, target_mode, assignment_mode, date_mode, status, location_type,
	 meeting_id, meeting_password, location_detail, event_date, start_time, end_time, parent_event_id, created_by, created_at)
	VALUES (:id, :template_id, :title, :target_mode, :assignment_mode, :date_mode, :status, :location_type,
	 :meeting_id, :meeting_password, :location_detail, :event_date, :start_time, :end_time, :parent_event_id, :created_by, :created_at)`
	if _, err := tx.NamedExecContext(ctx, insertChild, child); err != nil {
		return nil, 0, fmt.Errorf("create confirmed event: %w", err)
	}

	const insertAssignment = `INSERT INTO training_assignments (id, event_id, employee_id, assigned_by, created_at)
	VALUES ($1, $2, $3, $4, $5)`
	for _, entry := range entries {
		if _, err := tx.ExecContext(ctx, insertAssignment, uuid.NewString(), child.ID, entry.EmployeeID, params.ConfirmedBy, now); err != nil {
			return nil, 0, fmt.Errorf("create assignment: %w", err)
		}
	}

	flip, flipArgs, err := sqlx.In(`UPDATE training_target_pool SET status = ?, updated_at = ? WHERE id IN (?)`,
		models.PoolStatusConfirmed, now, params.PoolIDs)
	if err != nil {
		return nil, 0, fmt.Errorf("build pool flip: %w", err)
	}
	flip = tx.Rebind(flip)
	result, err := tx.ExecContext(ctx, flip, flipArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("confirm pool entries: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, 0, fmt.Errorf("check confirm rows: %w", err)
	}
	if int(rows) != len(entries) {
		return nil, 0, ErrNotAssignable
	}

	const bumpOption = `UPDATE training_event_dates SET confirmed_count = confirmed_count + $1 WHERE id = $2`
	if _, err := tx.ExecContext(ctx, bumpOption, len(entries), params.EventDateID); err != nil {
		return nil, 0, fmt.Errorf("bump confirmed count: %w", err)
	}
	const bumpQuota = `UPDATE training_date_department_quotas SET current_count = current_count + $1
	WHERE event_date_id = $2 AND department = $3`
	for dept, added := range deptCounts {
		if _, err := tx.ExecContext(ctx, bumpQuota, added, params.EventDateID, dept); err != nil {
			return nil, 0, fmt.Errorf("bump quota count: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("commit confirm group: %w", err)
	}
	commit = true
	return child, len(entries), nil
}

func requireRowsAffected(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
