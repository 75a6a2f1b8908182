package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/training-admin-api/internal/models"
)

func newChangeRequestRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestChangeRequestRepositoryCreateAndGet(t *testing.T) {
	db, mock, cleanup := newChangeRequestRepoMock(t)
	defer cleanup()

	repo := NewChangeRequestRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO change_requests")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	request := &models.ChangeRequest{
		AssignmentID: "assign-1",
		EmployeeID:   "emp-1",
		FromEventID:  "event-x",
		ToEventID:    "event-y",
		Reason:       "일정 변경",
		RequestedBy:  "coord-1",
	}
	require.NoError(t, repo.Create(context.Background(), request))
	require.Equal(t, models.ChangeRequestPending, request.Status)
	require.NotEmpty(t, request.ID)

	rows := sqlmock.NewRows([]string{"id", "assignment_id", "employee_id", "from_event_id", "to_event_id", "reason", "status", "reject_reason", "requested_by", "requested_at", "processed_by", "processed_at"}).
		AddRow(request.ID, "assign-1", "emp-1", "event-x", "event-y", "일정 변경", "PENDING", nil, "coord-1", time.Now(), nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM change_requests WHERE id = $1")).
		WithArgs(request.ID).
		WillReturnRows(rows)

	found, err := repo.GetByID(context.Background(), request.ID)
	require.NoError(t, err)
	require.Equal(t, "event-y", found.ToEventID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestChangeRequestRepositoryApproveSwap(t *testing.T) {
	db, mock, cleanup := newChangeRequestRepoMock(t)
	defer cleanup()

	repo := NewChangeRequestRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE change_requests SET status")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM training_assignments WHERE id = $1")).
		WithArgs("assign-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO training_assignments")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	request := &models.ChangeRequest{
		ID:           "cr-1",
		AssignmentID: "assign-1",
		EmployeeID:   "emp-1",
		FromEventID:  "event-x",
		ToEventID:    "event-y",
		Status:       models.ChangeRequestPending,
	}
	replacement, err := repo.ApproveSwap(context.Background(), request, "admin-1")
	require.NoError(t, err)
	require.Equal(t, "event-y", replacement.EventID)
	require.Equal(t, "emp-1", replacement.EmployeeID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestChangeRequestRepositoryApproveSwapAlreadyProcessed(t *testing.T) {
	db, mock, cleanup := newChangeRequestRepoMock(t)
	defer cleanup()

	repo := NewChangeRequestRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE change_requests SET status")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	request := &models.ChangeRequest{ID: "cr-1", AssignmentID: "assign-1"}
	_, err := repo.ApproveSwap(context.Background(), request, "admin-1")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestChangeRequestRepositoryRejectGuardsTerminal(t *testing.T) {
	db, mock, cleanup := newChangeRequestRepoMock(t)
	defer cleanup()

	repo := NewChangeRequestRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE change_requests SET status")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Reject(context.Background(), "cr-1", "일정 중복", "admin-1")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestChangeRequestRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newChangeRequestRepoMock(t)
	defer cleanup()

	repo := NewChangeRequestRepository(db)
	rows := sqlmock.NewRows([]string{"id", "assignment_id", "employee_id", "from_event_id", "to_event_id", "reason", "status", "reject_reason", "requested_by", "requested_at", "processed_by", "processed_at", "employee_no", "employee_name", "department", "from_event_title", "from_event_date", "to_event_title", "to_event_date"}).
		AddRow("cr-1", "assign-1", "emp-1", "event-x", "event-y", "일정 변경", "PENDING", nil, "coord-1", time.Now(), nil, nil,
			"1001", "김우진", "영업1부", "Safety A", "2026-09-10", "Safety B", "2026-09-12")
	mock.ExpectQuery(regexp.QuoteMeta("FROM change_requests cr")).
		WithArgs("PENDING", "coord-1").
		WillReturnRows(rows)

	list, err := repo.List(context.Background(), models.ChangeRequestFilter{
		Status:      models.ChangeRequestPending,
		RequestedBy: "coord-1",
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Safety B", list[0].ToEventTitle)
	require.NoError(t, mock.ExpectationsWereMet())
}
