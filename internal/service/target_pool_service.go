package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/training-admin-api/internal/models"
	appErrors "github.com/noah-isme/training-admin-api/pkg/errors"
)

type employeeDirectory interface {
	ListEligible(ctx context.Context, filter models.EligibleFilter) ([]models.Employee, error)
	FindByEmployeeIDs(ctx context.Context, employeeIDs []string) ([]models.Employee, error)
}

type poolStore interface {
	BulkInsert(ctx context.Context, eventID string, employeeIDs []string) (*models.PoolResolution, error)
	ListByEvent(ctx context.Context, eventID string, filter models.PoolFilter) ([]models.PoolEntryDetail, error)
}

type eventReader interface {
	GetByID(ctx context.Context, id string) (*models.TrainingEvent, error)
}

// Resolution pairs the eligible employees with the input ids that could
// not be matched against the directory.
type Resolution struct {
	Eligible   []models.Employee
	Unresolved []string
}

// TargetPoolService resolves who a training event targets and populates
// the event's pool. Eligibility is frozen at resolution time: later
// directory changes never retract existing pool entries.
type TargetPoolService struct {
	directory employeeDirectory
	pool      poolStore
	events    eventReader
	audit     auditLogger
	logger    *zap.Logger
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// NewTargetPoolService constructs the service.
func NewTargetPoolService(directory employeeDirectory, pool poolStore, events eventReader, audit auditLogger, logger *zap.Logger) *TargetPoolService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TargetPoolService{directory: directory, pool: pool, events: events, audit: audit, logger: logger}
}

// ResolveTargets computes the eligible employees for an event.
//
// ALL takes every active worker; DEPARTMENT restricts the same filter to
// the event's target departments; CUSTOM matches caller-supplied
// employee numbers and reports the ones that do not resolve instead of
// failing the whole upload.
func (s *TargetPoolService) ResolveTargets(ctx context.Context, event *models.TrainingEvent, customIDs []string) (*Resolution, error) {
	switch event.TargetMode {
	case models.TargetModeAll:
		eligible, err := s.directory.ListEligible(ctx, models.EligibleFilter{})
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to list eligible employees")
		}
		return &Resolution{Eligible: eligible}, nil

	case models.TargetModeDepartment:
		if len(event.TargetDepartments) == 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "department targeting requires at least one department")
		}
		eligible, err := s.directory.ListEligible(ctx, models.EligibleFilter{Departments: event.TargetDepartments})
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to list eligible employees")
		}
		return &Resolution{Eligible: eligible}, nil

	case models.TargetModeCustom:
		if len(customIDs) == 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "custom targeting requires an employee id list")
		}
		found, err := s.directory.FindByEmployeeIDs(ctx, customIDs)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to resolve employee ids")
		}
		byNumber := make(map[string]models.Employee, len(found))
		for _, employee := range found {
			byNumber[employee.EmployeeID] = employee
		}
		resolution := &Resolution{
			Eligible:   make([]models.Employee, 0, len(customIDs)),
			Unresolved: make([]string, 0),
		}
		seen := make(map[string]bool, len(customIDs))
		for _, id := range customIDs {
			if seen[id] {
				continue
			}
			seen[id] = true
			employee, ok := byNumber[id]
			if !ok || employee.Status != models.EmployeeStatusActive || employee.Role != models.RoleWorker {
				resolution.Unresolved = append(resolution.Unresolved, id)
				continue
			}
			resolution.Eligible = append(resolution.Eligible, employee)
		}
		return resolution, nil

	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown target mode")
	}
}

// PopulatePool inserts the resolved employees into the event's pool as
// AVAILABLE entries. Re-invocation is idempotent: existing pairs are
// skipped and counted.
func (s *TargetPoolService) PopulatePool(ctx context.Context, event *models.TrainingEvent, customIDs []string, actorID string) (*models.PoolResolution, []string, error) {
	if event.AssignmentMode != models.AssignmentModeDraft {
		return nil, nil, appErrors.Clone(appErrors.ErrStateConflict, "only draft events carry a target pool")
	}
	resolution, err := s.ResolveTargets(ctx, event, customIDs)
	if err != nil {
		return nil, nil, err
	}
	ids := make([]string, 0, len(resolution.Eligible))
	for _, employee := range resolution.Eligible {
		ids = append(ids, employee.ID)
	}
	report, err := s.pool.BulkInsert(ctx, event.ID, ids)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to populate target pool")
	}
	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionPoolResolve,
		Resource:   "training_event",
		ResourceID: &event.ID,
	})
	s.logger.Info("target pool populated",
		zap.String("event_id", event.ID),
		zap.Int("inserted", report.Inserted),
		zap.Int("skipped", report.Skipped))
	return report, resolution.Unresolved, nil
}

// Repopulate reloads the event and populates its pool again. Used by the
// re-resolve endpoint after directory imports.
func (s *TargetPoolService) Repopulate(ctx context.Context, eventID string, customIDs []string, actorID string) (*models.PoolResolution, []string, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, nil, mapLookupError(err, "training event not found")
	}
	return s.PopulatePool(ctx, event, customIDs, actorID)
}

// ListPool returns the pool of an event for the triage screen.
func (s *TargetPoolService) ListPool(ctx context.Context, eventID string, filter models.PoolFilter) ([]models.PoolEntryDetail, error) {
	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		return nil, mapLookupError(err, "training event not found")
	}
	entries, err := s.pool.ListByEvent(ctx, eventID, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to list pool entries")
	}
	return entries, nil
}

func (s *TargetPoolService) emitAudit(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil || log == nil {
		return
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to store audit log", zap.Error(err))
	}
}
