package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/training-admin-api/internal/models"
)

// QuotaRepository persists per-department confirmation caps.
type QuotaRepository struct {
	db *sqlx.DB
}

// NewQuotaRepository constructs the repository.
func NewQuotaRepository(db *sqlx.DB) *QuotaRepository {
	return &QuotaRepository{db: db}
}

// Add inserts one quota row. A department gets at most one cap per date
// option; duplicates surface as sql.ErrNoRows so callers can report the
// conflict.
func (r *QuotaRepository) Add(ctx context.Context, quota *models.DepartmentQuota) error {
	if quota.ID == "" {
		quota.ID = uuid.NewString()
	}
	const query = `INSERT INTO training_date_department_quotas (id, event_date_id, department, quota, current_count)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (event_date_id, department) DO NOTHING RETURNING id`
	var insertedID string
	if err := r.db.QueryRowxContext(ctx, query, quota.ID, quota.EventDateID, quota.Department, quota.Quota, quota.CurrentCount).Scan(&insertedID); err != nil {
		if err == sql.ErrNoRows {
			return sql.ErrNoRows
		}
		return fmt.Errorf("add quota: %w", err)
	}
	return nil
}

// ListByDateOption returns quotas for a date option sorted by department.
func (r *QuotaRepository) ListByDateOption(ctx context.Context, eventDateID string) ([]models.DepartmentQuota, error) {
	const query = `SELECT id, event_date_id, department, quota, current_count
	FROM training_date_department_quotas WHERE event_date_id = $1 ORDER BY department`
	var quotas []models.DepartmentQuota
	if err := r.db.SelectContext(ctx, &quotas, query, eventDateID); err != nil {
		return nil, fmt.Errorf("list quotas: %w", err)
	}
	return quotas, nil
}
