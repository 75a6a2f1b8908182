package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/training-admin-api/internal/models"
)

func newQuotaRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestQuotaRepositoryAdd(t *testing.T) {
	db, mock, cleanup := newQuotaRepoMock(t)
	defer cleanup()

	repo := NewQuotaRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO training_date_department_quotas")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("quota-1"))

	quota := &models.DepartmentQuota{EventDateID: "date-1", Department: "영업1부", Quota: 3}
	require.NoError(t, repo.Add(context.Background(), quota))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuotaRepositoryAddDuplicate(t *testing.T) {
	db, mock, cleanup := newQuotaRepoMock(t)
	defer cleanup()

	repo := NewQuotaRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO training_date_department_quotas")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	quota := &models.DepartmentQuota{EventDateID: "date-1", Department: "영업1부", Quota: 3}
	err := repo.Add(context.Background(), quota)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuotaRepositoryListByDateOption(t *testing.T) {
	db, mock, cleanup := newQuotaRepoMock(t)
	defer cleanup()

	repo := NewQuotaRepository(db)
	rows := sqlmock.NewRows([]string{"id", "event_date_id", "department", "quota", "current_count"}).
		AddRow("quota-1", "date-1", "영업1부", 3, 1).
		AddRow("quota-2", "date-1", "영업2부", 2, 0)
	mock.ExpectQuery(regexp.QuoteMeta("FROM training_date_department_quotas WHERE event_date_id = $1")).
		WithArgs("date-1").
		WillReturnRows(rows)

	quotas, err := repo.ListByDateOption(context.Background(), "date-1")
	require.NoError(t, err)
	require.Len(t, quotas, 2)
	require.Equal(t, 2, quotas[0].Remaining())
	require.NoError(t, mock.ExpectationsWereMet())
}
