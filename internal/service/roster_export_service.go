package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/training-admin-api/internal/dto"
	"github.com/noah-isme/training-admin-api/internal/models"
	"github.com/noah-isme/training-admin-api/internal/repository"
	appErrors "github.com/noah-isme/training-admin-api/pkg/errors"
	"github.com/noah-isme/training-admin-api/pkg/export"
	"github.com/noah-isme/training-admin-api/pkg/jobs"
	"github.com/noah-isme/training-admin-api/pkg/storage"
)

type exportJobStore interface {
	Create(ctx context.Context, job *models.RosterExportJob) error
	GetByID(ctx context.Context, id string) (*models.RosterExportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error
	ListQueued(ctx context.Context, limit int) ([]models.RosterExportJob, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type rosterSource interface {
	ListByParentEvent(ctx context.Context, parentEventID string) ([]models.AssignmentDetail, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// RosterExportResult captures successful generation metadata.
type RosterExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ExportFormat
	ExpiresAt    time.Time
}

// RosterDownload aggregates resolved download data.
type RosterDownload struct {
	File      *os.File
	Filename  string
	Format    models.ExportFormat
	ExpiresAt time.Time
}

// RosterExporter renders the confirmed roster of an event to a stored
// file with a signed download token.
type RosterExporter struct {
	events  eventReader
	roster  rosterSource
	storage fileStorage
	csv     csvRenderer
	pdf     pdfRenderer
	signer  *storage.SignedURLSigner
	prefix  string
	logger  *zap.Logger
}

// NewRosterExporter constructs the exporter.
func NewRosterExporter(events eventReader, roster rosterSource, files fileStorage, signer *storage.SignedURLSigner, apiPrefix string, logger *zap.Logger) *RosterExporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if apiPrefix == "" {
		apiPrefix = "/api/v1"
	}
	return &RosterExporter{
		events:  events,
		roster:  roster,
		storage: files,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		signer:  signer,
		prefix:  strings.TrimRight(apiPrefix, "/"),
		logger:  logger,
	}
}

// Generate renders and stores the roster for a job.
func (e *RosterExporter) Generate(ctx context.Context, job *models.RosterExportJob) (*RosterExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	event, err := e.events.GetByID(ctx, job.EventID)
	if err != nil {
		return nil, fmt.Errorf("load event: %w", err)
	}
	assignments, err := e.roster.ListByParentEvent(ctx, job.EventID)
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}
	dataset := buildRosterDataset(assignments, job.Params.Department)

	var payload []byte
	switch job.Params.Format {
	case models.ExportFormatCSV:
		payload, err = e.csv.Render(dataset)
	case models.ExportFormatPDF:
		payload, err = e.pdf.Render(dataset, event.Title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	filename := fmt.Sprintf("roster_%s_%s.%s", sanitizeFilename(event.Title), job.ID, job.Params.Format)
	relPath, err := e.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := e.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	return &RosterExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/roster-exports/download/%s", e.prefix, token),
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

func buildRosterDataset(assignments []models.AssignmentDetail, department *string) export.Dataset {
	dataset := export.Dataset{
		Headers: []string{"날짜", "시간", "교육명", "부서", "사번", "이름"},
	}
	for _, a := range assignments {
		if department != nil && *department != "" && a.Department != *department {
			continue
		}
		schedule := ""
		if a.StartTime != nil && a.EndTime != nil {
			schedule = fmt.Sprintf("%s-%s", *a.StartTime, *a.EndTime)
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"날짜":  deref(a.EventDate),
			"시간":  schedule,
			"교육명": a.EventTitle,
			"부서":  a.Department,
			"사번":  a.EmployeeNo,
			"이름":  a.Name,
		})
	}
	return dataset
}

func sanitizeFilename(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, raw)
	if cleaned == "" {
		cleaned = "roster"
	}
	return cleaned
}

func deref(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

// RosterExportService orchestrates export job lifecycle management.
type RosterExportService struct {
	repo     exportJobStore
	events   eventReader
	queue    jobDispatcher
	exporter *RosterExporter
	audit    auditLogger
	logger   *zap.Logger
}

// NewRosterExportService constructs the service.
func NewRosterExportService(repo exportJobStore, events eventReader, queue jobDispatcher, exporter *RosterExporter, audit auditLogger, logger *zap.Logger) *RosterExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterExportService{repo: repo, events: events, queue: queue, exporter: exporter, audit: audit, logger: logger}
}

// Request validates the event, persists the job and enqueues processing.
func (s *RosterExportService) Request(ctx context.Context, eventID string, req dto.ExportRequest, actor *models.JWTClaims) (*dto.ExportJobResponse, error) {
	if req.Format != models.ExportFormatCSV && req.Format != models.ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		return nil, mapLookupError(err, "training event not found")
	}
	job := &models.RosterExportJob{
		EventID:   eventID,
		Params:    models.ExportJobParams{Format: req.Format, Department: req.Department},
		Status:    models.ExportStatusQueued,
		CreatedBy: actor.UserID,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to create export job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: "roster-export"}); err != nil {
		status := models.ExportStatusFailed
		msg := "failed to enqueue job"
		progress := 100
		now := time.Now().UTC()
		_ = s.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
			Status:       &status,
			Progress:     &progress,
			ErrorMessage: &msg,
			FinishedAt:   &now,
		})
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export job")
	}
	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionRosterExport,
		Resource:   "training_event",
		ResourceID: &eventID,
	})
	return &dto.ExportJobResponse{ID: job.ID, Status: job.Status, Progress: job.Progress}, nil
}

// GetStatus exposes job metadata, enforcing ownership for coordinators.
func (s *RosterExportService) GetStatus(ctx context.Context, id string, actor *models.JWTClaims) (*dto.ExportStatusResponse, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err, "export job not found")
	}
	if actor.Role != models.RoleAdmin && job.CreatedBy != actor.UserID {
		return nil, appErrors.ErrForbidden
	}
	resp := &dto.ExportStatusResponse{
		ID:       job.ID,
		Status:   job.Status,
		Progress: job.Progress,
	}
	if job.ResultURL != nil {
		resp.ResultURL = job.ResultURL
	}
	if job.ErrorMessage != nil && *job.ErrorMessage != "" {
		resp.Error = job.ErrorMessage
	}
	return resp, nil
}

// ResolveDownload validates the token and opens the stored file.
func (s *RosterExportService) ResolveDownload(ctx context.Context, token string) (*RosterDownload, error) {
	jobID, relPath, expiresAt, err := s.exporter.signer.Parse(token)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		return nil, mapLookupError(err, "export job not found")
	}
	if job.ResultURL == nil || !strings.HasSuffix(*job.ResultURL, token) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	if job.Status != models.ExportStatusFinished {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "export not ready")
	}
	file, err := s.exporter.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export file")
	}
	return &RosterDownload{
		File:      file,
		Filename:  filepath.Base(relPath),
		Format:    job.Params.Format,
		ExpiresAt: expiresAt,
	}, nil
}

// RecoverPendingJobs replays queued jobs after a process restart.
func (s *RosterExportService) RecoverPendingJobs(ctx context.Context) {
	pending, err := s.repo.ListQueued(ctx, 50)
	if err != nil {
		s.logger.Warn("failed to recover queued export jobs", zap.Error(err))
		return
	}
	for _, job := range pending {
		if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: "roster-export"}); err != nil {
			s.logger.Warn("failed to requeue pending job", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
}

func (s *RosterExportService) emitAudit(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil || log == nil {
		return
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to store audit log", zap.Error(err))
	}
}

// ExportWorker bridges queue jobs to the exporter.
type ExportWorker struct {
	repo       exportJobStore
	exporter   *RosterExporter
	metrics    *MetricsService
	logger     *zap.Logger
	maxRetries int
}

// NewExportWorker constructs a worker.
func NewExportWorker(repo exportJobStore, exporter *RosterExporter, maxRetries int, logger *zap.Logger) *ExportWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &ExportWorker{repo: repo, exporter: exporter, logger: logger, maxRetries: maxRetries}
}

// WithMetrics attaches job outcome counters. Safe to skip in tests.
func (w *ExportWorker) WithMetrics(metrics *MetricsService) *ExportWorker {
	w.metrics = metrics
	return w
}

// Handle processes one queue job.
func (w *ExportWorker) Handle(ctx context.Context, job jobs.Job) error {
	record, err := w.repo.GetByID(ctx, job.ID)
	if err != nil {
		return err
	}
	processing := models.ExportStatusProcessing
	progress := 10
	if err := w.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
		Status:   &processing,
		Progress: &progress,
	}); err != nil {
		return err
	}
	result, err := w.exporter.Generate(ctx, record)
	if err != nil {
		msg := err.Error()
		if job.Attempt >= w.maxRetries {
			w.metrics.RecordExportJob(string(models.ExportStatusFailed))
			failed := models.ExportStatusFailed
			progress = 100
			now := time.Now().UTC()
			if updateErr := w.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
				Status:       &failed,
				Progress:     &progress,
				ErrorMessage: &msg,
				FinishedAt:   &now,
			}); updateErr != nil {
				w.logger.Warn("failed to mark job failed", zap.String("job_id", job.ID), zap.Error(updateErr))
			}
		} else {
			queued := models.ExportStatusQueued
			reset := 0
			if updateErr := w.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
				Status:       &queued,
				Progress:     &reset,
				ErrorMessage: &msg,
			}); updateErr != nil {
				w.logger.Warn("failed to mark job queued", zap.String("job_id", job.ID), zap.Error(updateErr))
			}
		}
		return err
	}
	finished := models.ExportStatusFinished
	progress = 100
	now := time.Now().UTC()
	url := result.URL
	clear := ""
	if err := w.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
		Status:       &finished,
		Progress:     &progress,
		ResultURL:    &url,
		ErrorMessage: &clear,
		FinishedAt:   &now,
	}); err != nil {
		w.logger.Warn("failed to mark job finished", zap.String("job_id", job.ID), zap.Error(err))
		return err
	}
	w.metrics.RecordExportJob(string(models.ExportStatusFinished))
	return nil
}
