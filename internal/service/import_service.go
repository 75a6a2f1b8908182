package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/noah-isme/training-admin-api/internal/dto"
	"github.com/noah-isme/training-admin-api/internal/models"
	appErrors "github.com/noah-isme/training-admin-api/pkg/errors"
	"github.com/noah-isme/training-admin-api/pkg/importer"
)

// ImportService applies uploaded CSV rows to quota and targeting data.
// Malformed rows never abort an import; they are skipped and reported.
type ImportService struct {
	quotas    quotaStore
	events    dateOptionStore
	directory employeeDirectory
	audit     auditLogger
	logger    *zap.Logger
}

// NewImportService constructs the service.
func NewImportService(quotas quotaStore, events dateOptionStore, directory employeeDirectory, audit auditLogger, logger *zap.Logger) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{quotas: quotas, events: events, directory: directory, audit: audit, logger: logger}
}

// ApplyQuotaRows parses {department, quota} rows and stores them for a
// date option, reporting per-row outcomes.
func (s *ImportService) ApplyQuotaRows(ctx context.Context, eventDateID string, r io.Reader, actor *models.JWTClaims) (*dto.ImportReport, error) {
	if _, err := s.events.GetDateOption(ctx, eventDateID); err != nil {
		return nil, mapLookupError(err, "date option not found")
	}
	rows, parseReport, err := importer.ReadQuotaRows(r)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "quota file could not be read")
	}

	report := &dto.ImportReport{Total: parseReport.Total, Skipped: parseReport.Skipped}
	for _, rowErr := range parseReport.Errors {
		report.Failures = append(report.Failures, dto.ImportError(rowErr))
	}
	for _, row := range rows {
		quota := &models.DepartmentQuota{
			EventDateID: eventDateID,
			Department:  row.Department,
			Quota:       row.Quota,
		}
		if err := s.quotas.Add(ctx, quota); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				report.Failures = append(report.Failures, dto.ImportError{
					Line:   row.Line,
					Reason: fmt.Sprintf("quota for %s already exists", row.Department),
				})
				continue
			}
			return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to store imported quota")
		}
		report.Applied++
	}

	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionQuotaImport,
		Resource:   "event_date",
		ResourceID: &eventDateID,
		NewValues:  []byte(fmt.Sprintf(`{"applied":%d,"skipped":%d}`, report.Applied, report.Skipped+len(report.Failures))),
	})
	return report, nil
}

// ResolveCustomTargets parses an employee-id column and classifies each
// id against the directory. Every input id ends up either resolved or
// unresolved.
func (s *ImportService) ResolveCustomTargets(ctx context.Context, r io.Reader) ([]models.Employee, *dto.CustomTargetReport, error) {
	ids, _, err := importer.ReadEmployeeIDs(r)
	if err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "target file could not be read")
	}
	if len(ids) == 0 {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "target file contains no employee ids")
	}
	found, err := s.directory.FindByEmployeeIDs(ctx, ids)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to resolve employee ids")
	}
	byNumber := make(map[string]models.Employee, len(found))
	for _, employee := range found {
		byNumber[employee.EmployeeID] = employee
	}

	report := &dto.CustomTargetReport{
		Resolved:   make([]string, 0, len(ids)),
		Unresolved: make([]string, 0),
	}
	resolved := make([]models.Employee, 0, len(found))
	for _, id := range ids {
		employee, ok := byNumber[id]
		if !ok || employee.Status != models.EmployeeStatusActive || employee.Role != models.RoleWorker {
			report.Unresolved = append(report.Unresolved, id)
			continue
		}
		report.Resolved = append(report.Resolved, id)
		resolved = append(resolved, employee)
	}
	return resolved, report, nil
}

func (s *ImportService) emitAudit(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil || log == nil {
		return
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to store audit log", zap.Error(err))
	}
}
