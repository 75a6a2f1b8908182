package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/training-admin-api/internal/dto"
	"github.com/noah-isme/training-admin-api/internal/models"
	"github.com/noah-isme/training-admin-api/internal/repository"
	appErrors "github.com/noah-isme/training-admin-api/pkg/errors"
	"github.com/noah-isme/training-admin-api/pkg/jobs"
	"github.com/noah-isme/training-admin-api/pkg/storage"
)

type exportJobStoreStub struct {
	jobs map[string]*models.RosterExportJob
	seq  int
}

func newExportJobStoreStub() *exportJobStoreStub {
	return &exportJobStoreStub{jobs: make(map[string]*models.RosterExportJob)}
}

func (s *exportJobStoreStub) Create(ctx context.Context, job *models.RosterExportJob) error {
	s.seq++
	job.ID = fmt.Sprintf("job-%d", s.seq)
	job.CreatedAt = time.Now()
	s.jobs[job.ID] = job
	return nil
}

func (s *exportJobStoreStub) GetByID(ctx context.Context, id string) (*models.RosterExportJob, error) {
	if job, ok := s.jobs[id]; ok {
		copy := *job
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *exportJobStoreStub) Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error {
	job, ok := s.jobs[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Progress != nil {
		job.Progress = *params.Progress
	}
	if params.ResultURL != nil {
		job.ResultURL = params.ResultURL
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

func (s *exportJobStoreStub) ListQueued(ctx context.Context, limit int) ([]models.RosterExportJob, error) {
	result := make([]models.RosterExportJob, 0)
	for _, job := range s.jobs {
		if job.Status == models.ExportStatusQueued {
			result = append(result, *job)
		}
	}
	return result, nil
}

type dispatcherStub struct {
	enqueued []jobs.Job
	fail     bool
}

func (d *dispatcherStub) Enqueue(job jobs.Job) error {
	if d.fail {
		return errors.New("queue full")
	}
	d.enqueued = append(d.enqueued, job)
	return nil
}

type rosterSourceStub struct {
	assignments []models.AssignmentDetail
}

func (r *rosterSourceStub) ListByParentEvent(ctx context.Context, parentEventID string) ([]models.AssignmentDetail, error) {
	return r.assignments, nil
}

func rosterRow(employeeNo, name, department, date string) models.AssignmentDetail {
	start := "10:00"
	end := "12:00"
	return models.AssignmentDetail{
		Assignment: models.Assignment{ID: "assign-" + employeeNo, EmployeeID: "emp-" + employeeNo},
		EmployeeNo: employeeNo,
		Name:       name,
		Department: department,
		EventTitle: "직무 교육",
		EventDate:  &date,
		StartTime:  &start,
		EndTime:    &end,
	}
}

type exportFixture struct {
	repo     *exportJobStoreStub
	events   *eventReaderStub
	queue    *dispatcherStub
	roster   *rosterSourceStub
	exporter *RosterExporter
	svc      *RosterExportService
	worker   *ExportWorker
}

func newExportFixture(t *testing.T) *exportFixture {
	t.Helper()
	repo := newExportJobStoreStub()
	events := &eventReaderStub{events: map[string]*models.TrainingEvent{
		"event-1": {ID: "event-1", Title: "직무 교육"},
	}}
	queue := &dispatcherStub{}
	roster := &rosterSourceStub{assignments: []models.AssignmentDetail{
		rosterRow("20240001", "김민수", "영업1부", "2026-09-10"),
		rosterRow("20240002", "이서연", "영업2부", "2026-09-10"),
	}}
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	exporter := NewRosterExporter(events, roster, files, signer, "/api/v1", nil)
	svc := NewRosterExportService(repo, events, queue, exporter, &auditStub{}, nil)
	worker := NewExportWorker(repo, exporter, 3, nil)
	return &exportFixture{repo: repo, events: events, queue: queue, roster: roster, exporter: exporter, svc: svc, worker: worker}
}

func TestRosterExportRequestEnqueues(t *testing.T) {
	f := newExportFixture(t)

	resp, err := f.svc.Request(context.Background(), "event-1", dto.ExportRequest{Format: models.ExportFormatCSV}, adminClaims())
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusQueued, resp.Status)
	require.Len(t, f.queue.enqueued, 1)
	assert.Equal(t, resp.ID, f.queue.enqueued[0].ID)
}

func TestRosterExportRequestValidation(t *testing.T) {
	f := newExportFixture(t)

	_, err := f.svc.Request(context.Background(), "event-1", dto.ExportRequest{Format: "xlsx"}, adminClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = f.svc.Request(context.Background(), "missing", dto.ExportRequest{Format: models.ExportFormatCSV}, adminClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRosterExportRequestQueueFailureMarksJob(t *testing.T) {
	f := newExportFixture(t)
	f.queue.fail = true

	_, err := f.svc.Request(context.Background(), "event-1", dto.ExportRequest{Format: models.ExportFormatCSV}, adminClaims())
	require.Error(t, err)
	require.Len(t, f.repo.jobs, 1)
	for _, job := range f.repo.jobs {
		assert.Equal(t, models.ExportStatusFailed, job.Status)
	}
}

func TestExportWorkerFinishesJob(t *testing.T) {
	f := newExportFixture(t)
	resp, err := f.svc.Request(context.Background(), "event-1", dto.ExportRequest{Format: models.ExportFormatCSV}, adminClaims())
	require.NoError(t, err)

	require.NoError(t, f.worker.Handle(context.Background(), jobs.Job{ID: resp.ID, Attempt: 1}))
	job := f.repo.jobs[resp.ID]
	assert.Equal(t, models.ExportStatusFinished, job.Status)
	assert.Equal(t, 100, job.Progress)
	require.NotNil(t, job.ResultURL)
	assert.Contains(t, *job.ResultURL, "/api/v1/roster-exports/download/")
}

func TestExportWorkerRetriesThenFails(t *testing.T) {
	f := newExportFixture(t)
	resp, err := f.svc.Request(context.Background(), "event-1", dto.ExportRequest{Format: models.ExportFormatCSV}, adminClaims())
	require.NoError(t, err)
	delete(f.events.events, "event-1") // generation cannot load the event anymore

	require.Error(t, f.worker.Handle(context.Background(), jobs.Job{ID: resp.ID, Attempt: 1}))
	assert.Equal(t, models.ExportStatusQueued, f.repo.jobs[resp.ID].Status)

	require.Error(t, f.worker.Handle(context.Background(), jobs.Job{ID: resp.ID, Attempt: 3}))
	job := f.repo.jobs[resp.ID]
	assert.Equal(t, models.ExportStatusFailed, job.Status)
	require.NotNil(t, job.ErrorMessage)
}

func TestRosterExportDownloadRoundTrip(t *testing.T) {
	f := newExportFixture(t)
	resp, err := f.svc.Request(context.Background(), "event-1", dto.ExportRequest{Format: models.ExportFormatCSV}, adminClaims())
	require.NoError(t, err)
	require.NoError(t, f.worker.Handle(context.Background(), jobs.Job{ID: resp.ID, Attempt: 1}))

	job := f.repo.jobs[resp.ID]
	require.NotNil(t, job.ResultURL)
	parts := strings.Split(*job.ResultURL, "/")
	token := parts[len(parts)-1]

	download, err := f.svc.ResolveDownload(context.Background(), token)
	require.NoError(t, err)
	defer download.File.Close()
	assert.Equal(t, models.ExportFormatCSV, download.Format)

	content, err := io.ReadAll(download.File)
	require.NoError(t, err)
	text := string(content)
	assert.Contains(t, text, "김민수")
	assert.Contains(t, text, "영업2부")
}

func TestRosterExportDownloadRejectsBadToken(t *testing.T) {
	f := newExportFixture(t)

	_, err := f.svc.ResolveDownload(context.Background(), "bogus-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestRosterExportStatusOwnership(t *testing.T) {
	f := newExportFixture(t)
	resp, err := f.svc.Request(context.Background(), "event-1", dto.ExportRequest{Format: models.ExportFormatPDF}, coordinatorClaims("coord-1"))
	require.NoError(t, err)

	// Owner and admins may read, other coordinators may not.
	status, err := f.svc.GetStatus(context.Background(), resp.ID, coordinatorClaims("coord-1"))
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusQueued, status.Status)

	_, err = f.svc.GetStatus(context.Background(), resp.ID, adminClaims())
	require.NoError(t, err)

	_, err = f.svc.GetStatus(context.Background(), resp.ID, coordinatorClaims("coord-2"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestRosterDatasetDepartmentFilter(t *testing.T) {
	department := "영업1부"
	rows := []models.AssignmentDetail{
		rosterRow("20240001", "김민수", "영업1부", "2026-09-10"),
		rosterRow("20240002", "이서연", "영업2부", "2026-09-10"),
	}
	dataset := buildRosterDataset(rows, &department)
	require.Len(t, dataset.Rows, 1)
	assert.Equal(t, "김민수", dataset.Rows[0]["이름"])
	assert.Equal(t, "10:00-12:00", dataset.Rows[0]["시간"])
}

func TestRecoverPendingJobsRequeues(t *testing.T) {
	f := newExportFixture(t)
	_, err := f.svc.Request(context.Background(), "event-1", dto.ExportRequest{Format: models.ExportFormatCSV}, adminClaims())
	require.NoError(t, err)
	f.queue.enqueued = nil

	f.svc.RecoverPendingJobs(context.Background())
	require.Len(t, f.queue.enqueued, 1)
}
