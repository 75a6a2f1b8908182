package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/training-admin-api/internal/models"
)

const eventColumns = `id, template_id, title, target_mode, assignment_mode, date_mode, status, location_type,
       meeting_id, meeting_password, location_detail, target_departments, event_date, start_time, end_time,
       deadline, assignment_deadline, parent_event_id, created_by, created_at`

// EventRepository persists training events and their schedule options.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs the repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// CreateWithSchedule inserts an event together with its date options and
// per-department quotas in one transaction.
func (r *EventRepository) CreateWithSchedule(ctx context.Context, event *models.TrainingEvent, options []models.EventDateOption) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create event: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			tx.Rollback()
		}
	}()

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	const insertEvent = `INSERT INTO training_events
	(id, template_id, title, target_mode, assignment_mode, date_mode, status, location_type,
	 meeting_id, meeting_password, location_detail, target_departments, event_date, start_time, end_time,
	 deadline, assignment_deadline, parent_event_id, created_by, created_at)
	VALUES (:id, :template_id, :title, :target_mode, :assignment_mode, :date_mode, :status, :location_type,
	 :meeting_id, :meeting_password, :location_detail, :target_departments, :event_date, :start_time, :end_time,
	 :deadline, :assignment_deadline, :parent_event_id, :created_by, :created_at)`
	if _, err := tx.NamedExecContext(ctx, insertEvent, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}

	const insertOption = `INSERT INTO training_event_dates
	(id, event_id, event_date, start_time, end_time, capacity, confirmed_count)
	VALUES (:id, :event_id, :event_date, :start_time, :end_time, :capacity, :confirmed_count)`
	const insertQuota = `INSERT INTO training_date_department_quotas
	(id, event_date_id, department, quota, current_count)
	VALUES (:id, :event_date_id, :department, :quota, :current_count)`
	for i := range options {
		opt := &options[i]
		if opt.ID == "" {
			opt.ID = uuid.NewString()
		}
		opt.EventID = event.ID
		if _, err := tx.NamedExecContext(ctx, insertOption, opt); err != nil {
			return fmt.Errorf("create event date option: %w", err)
		}
		for j := range opt.Quotas {
			quota := &opt.Quotas[j]
			if quota.ID == "" {
				quota.ID = uuid.NewString()
			}
			quota.EventDateID = opt.ID
			if _, err := tx.NamedExecContext(ctx, insertQuota, quota); err != nil {
				return fmt.Errorf("create date quota: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create event: %w", err)
	}
	commit = true
	return nil
}

// GetByID fetches an event by identifier.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*models.TrainingEvent, error) {
	const query = `SELECT ` + eventColumns + ` FROM training_events WHERE id = $1`
	var event models.TrainingEvent
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		return nil, err
	}
	return &event, nil
}

// ListDateOptions returns the schedule options of an event ordered by date.
func (r *EventRepository) ListDateOptions(ctx context.Context, eventID string) ([]models.EventDateOption, error) {
	const query = `SELECT id, event_id, event_date, start_time, end_time, capacity, confirmed_count
	FROM training_event_dates WHERE event_id = $1 ORDER BY event_date, start_time`
	var options []models.EventDateOption
	if err := r.db.SelectContext(ctx, &options, query, eventID); err != nil {
		return nil, fmt.Errorf("list date options: %w", err)
	}
	return options, nil
}

// GetDateOption fetches one schedule option by identifier.
func (r *EventRepository) GetDateOption(ctx context.Context, id string) (*models.EventDateOption, error) {
	const query = `SELECT id, event_id, event_date, start_time, end_time, capacity, confirmed_count
	FROM training_event_dates WHERE id = $1`
	var option models.EventDateOption
	if err := r.db.GetContext(ctx, &option, query, id); err != nil {
		return nil, err
	}
	return &option, nil
}

// List returns events matching the filter with pool progress counts,
// sorted latest first.
func (r *EventRepository) List(ctx context.Context, filter models.EventFilter) ([]models.EventSummary, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 4)
	builder.WriteString(`SELECT e.id, e.template_id, e.title, e.target_mode, e.assignment_mode, e.date_mode, e.status,
       e.location_type, e.meeting_id, e.meeting_password, e.location_detail, e.target_departments,
       e.event_date, e.start_time, e.end_time, e.deadline, e.assignment_deadline, e.parent_event_id,
       e.created_by, e.created_at,
       COUNT(p.id) AS pool_total,
       COUNT(p.id) FILTER (WHERE p.status = 'ASSIGNED') AS pool_assigned,
       COUNT(p.id) FILTER (WHERE p.status = 'EXCLUDED') AS pool_excluded
	FROM training_events e
	LEFT JOIN training_target_pool p ON p.event_id = e.id`)

	conditions := []string{"e.parent_event_id IS NULL"}
	if filter.TemplateID != "" {
		args = append(args, filter.TemplateID)
		conditions = append(conditions, fmt.Sprintf("e.template_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("e.status = $%d", len(args)))
	}
	if filter.From != "" {
		args = append(args, filter.From)
		conditions = append(conditions, fmt.Sprintf("e.event_date >= $%d", len(args)))
	}
	if filter.To != "" {
		args = append(args, filter.To)
		conditions = append(conditions, fmt.Sprintf("e.event_date <= $%d", len(args)))
	}
	builder.WriteString(" WHERE ")
	builder.WriteString(strings.Join(conditions, " AND "))
	builder.WriteString(" GROUP BY e.id ORDER BY e.created_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var events []models.EventSummary
	if err := r.db.SelectContext(ctx, &events, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// ListConfirmedChildren returns confirmed sub-events of a draft event.
func (r *EventRepository) ListConfirmedChildren(ctx context.Context, parentID string) ([]models.TrainingEvent, error) {
	const query = `SELECT ` + eventColumns + ` FROM training_events
	WHERE parent_event_id = $1 ORDER BY event_date, start_time`
	var events []models.TrainingEvent
	if err := r.db.SelectContext(ctx, &events, query, parentID); err != nil {
		return nil, fmt.Errorf("list confirmed children: %w", err)
	}
	return events, nil
}
