package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/training-admin-api/internal/dto"
	"github.com/noah-isme/training-admin-api/internal/models"
	"github.com/noah-isme/training-admin-api/internal/repository"
	appErrors "github.com/noah-isme/training-admin-api/pkg/errors"
)

type lifecycleStore interface {
	GetByID(ctx context.Context, id string) (*models.TargetPoolEntry, error)
	Exclude(ctx context.Context, id, reason, excludedBy string) error
	Unexclude(ctx context.Context, id string) error
	Assign(ctx context.Context, id, eventDateID string) error
	ListAssignedByIDs(ctx context.Context, eventID string, poolIDs []string) ([]models.PoolEntryDetail, error)
	ConfirmGroup(ctx context.Context, params repository.ConfirmGroupParams) (*models.TrainingEvent, int, error)
}

type dateOptionReader interface {
	GetByID(ctx context.Context, id string) (*models.TrainingEvent, error)
	GetDateOption(ctx context.Context, id string) (*models.EventDateOption, error)
}

type quotaInvalidator interface {
	Invalidate(ctx context.Context, eventDateID string)
}

// LifecycleService drives pool entries through their state machine:
// AVAILABLE → ASSIGNED → CONFIRMED, with EXCLUDED reachable from the
// first two and reversible back to AVAILABLE. Confirmation is terminal.
type LifecycleService struct {
	pool    lifecycleStore
	events  dateOptionReader
	quotas  quotaInvalidator
	audit   auditLogger
	metrics *MetricsService
	logger  *zap.Logger
}

// NewLifecycleService constructs the service. The quota invalidator may
// be nil when quota caching is disabled.
func NewLifecycleService(pool lifecycleStore, events dateOptionReader, quotas quotaInvalidator, audit auditLogger, logger *zap.Logger) *LifecycleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LifecycleService{pool: pool, events: events, quotas: quotas, audit: audit, logger: logger}
}

// WithMetrics attaches workflow counters. Safe to skip in tests.
func (s *LifecycleService) WithMetrics(metrics *MetricsService) *LifecycleService {
	s.metrics = metrics
	return s
}

// Exclude removes an entry from consideration, keeping who excluded it,
// when and why. Confirmed entries can no longer be excluded.
func (s *LifecycleService) Exclude(ctx context.Context, poolID, reason string, actor *models.JWTClaims) error {
	if strings.TrimSpace(reason) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "exclusion reason is required")
	}
	entry, err := s.pool.GetByID(ctx, poolID)
	if err != nil {
		return mapLookupError(err, "pool entry not found")
	}
	if entry.Status == models.PoolStatusConfirmed {
		return appErrors.Clone(appErrors.ErrStateConflict, "confirmed entries cannot be excluded")
	}
	if err := s.pool.Exclude(ctx, poolID, reason, actor.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrStateConflict, "entry is not in an excludable state")
		}
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to exclude pool entry")
	}
	s.metrics.RecordPoolTransition(string(models.PoolStatusExcluded))
	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionPoolExclude,
		Resource:   "pool_entry",
		ResourceID: &poolID,
		NewValues:  []byte(fmt.Sprintf(`{"reason":%q}`, reason)),
	})
	return nil
}

// Unexclude returns an excluded entry to AVAILABLE and clears the
// exclusion metadata.
func (s *LifecycleService) Unexclude(ctx context.Context, poolID string, actor *models.JWTClaims) error {
	entry, err := s.pool.GetByID(ctx, poolID)
	if err != nil {
		return mapLookupError(err, "pool entry not found")
	}
	if entry.Status != models.PoolStatusExcluded {
		return appErrors.Clone(appErrors.ErrStateConflict, "only excluded entries can be restored")
	}
	if err := s.pool.Unexclude(ctx, poolID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrStateConflict, "entry is no longer excluded")
		}
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to restore pool entry")
	}
	s.metrics.RecordPoolTransition(string(models.PoolStatusAvailable))
	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionPoolUnexclude,
		Resource:   "pool_entry",
		ResourceID: &poolID,
	})
	return nil
}

// Assign pins an entry to one of its event's date options. Assignment
// is advisory: quotas are not enforced here, only at confirmation.
func (s *LifecycleService) Assign(ctx context.Context, poolID, eventDateID string, actor *models.JWTClaims) error {
	entry, err := s.pool.GetByID(ctx, poolID)
	if err != nil {
		return mapLookupError(err, "pool entry not found")
	}
	option, err := s.events.GetDateOption(ctx, eventDateID)
	if err != nil {
		return mapLookupError(err, "date option not found")
	}
	if option.EventID != entry.EventID {
		return appErrors.Clone(appErrors.ErrValidation, "date option belongs to a different event")
	}
	if err := s.pool.Assign(ctx, poolID, eventDateID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrStateConflict, "entry is not in an assignable state")
		}
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to assign pool entry")
	}
	s.metrics.RecordPoolTransition(string(models.PoolStatusAssigned))
	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionPoolAssign,
		Resource:   "pool_entry",
		ResourceID: &poolID,
		NewValues:  []byte(fmt.Sprintf(`{"event_date_id":%q}`, eventDateID)),
	})
	return nil
}

// ConfirmBatch finalises the selected assigned entries. Entries sharing
// the same (date, time, location) become one confirmed sub-event; each
// group commits or rolls back on its own, so a quota breach in one
// schedule never blocks the others.
func (s *LifecycleService) ConfirmBatch(ctx context.Context, req dto.ConfirmRequest, actor *models.JWTClaims) (*models.BatchReport, error) {
	if len(req.PoolIDs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "confirmation requires at least one pool entry")
	}
	event, err := s.events.GetByID(ctx, req.EventID)
	if err != nil {
		return nil, mapLookupError(err, "training event not found")
	}
	if event.AssignmentMode != models.AssignmentModeDraft || event.ParentEventID != nil {
		return nil, appErrors.Clone(appErrors.ErrStateConflict, "only draft events can be confirmed")
	}

	entries, err := s.pool.ListAssignedByIDs(ctx, req.EventID, req.PoolIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load selected entries")
	}
	if len(entries) != len(req.PoolIDs) {
		return nil, appErrors.Clone(appErrors.ErrStateConflict, "selection contains entries that are not assigned")
	}

	groups := make(map[string][]models.PoolEntryDetail)
	for _, entry := range entries {
		// ListAssignedByIDs joins the date option, so these are set.
		key := *entry.EventDateID
		groups[key] = append(groups[key], entry)
	}
	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := groups[keys[i]][0], groups[keys[j]][0]
		if *a.EventDate != *b.EventDate {
			return *a.EventDate < *b.EventDate
		}
		return *a.StartTime < *b.StartTime
	})

	report := &models.BatchReport{}
	for _, key := range keys {
		group := groups[key]
		first := group[0]
		poolIDs := make([]string, 0, len(group))
		for _, entry := range group {
			poolIDs = append(poolIDs, entry.ID)
		}
		child, confirmed, err := s.pool.ConfirmGroup(ctx, repository.ConfirmGroupParams{
			Parent:      event,
			EventDateID: key,
			EventDate:   *first.EventDate,
			StartTime:   *first.StartTime,
			EndTime:     *first.EndTime,
			PoolIDs:     poolIDs,
			ConfirmedBy: actor.UserID,
		})
		if err != nil {
			s.metrics.RecordConfirmGroup("failed")
			report.Failures = append(report.Failures, models.BatchFailure{
				EventDate: *first.EventDate,
				StartTime: *first.StartTime,
				Location:  event.Location(),
				Reason:    confirmFailureReason(err),
			})
			s.logger.Warn("confirmation group failed",
				zap.String("event_id", event.ID),
				zap.String("event_date_id", key),
				zap.Error(err))
			continue
		}
		s.metrics.RecordConfirmGroup("confirmed")
		report.CreatedEvents = append(report.CreatedEvents, models.ConfirmedGroup{
			EventID:     child.ID,
			EventDate:   *first.EventDate,
			StartTime:   *first.StartTime,
			EndTime:     *first.EndTime,
			Location:    event.Location(),
			Assignments: confirmed,
		})
		report.Assignments += confirmed
		if s.quotas != nil {
			s.quotas.Invalidate(ctx, key)
		}
	}

	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionPoolConfirm,
		Resource:   "training_event",
		ResourceID: &event.ID,
		NewValues:  []byte(fmt.Sprintf(`{"groups":%d,"assignments":%d,"failures":%d}`, len(report.CreatedEvents), report.Assignments, len(report.Failures))),
	})
	return report, nil
}

func confirmFailureReason(err error) string {
	switch {
	case errors.Is(err, repository.ErrCapacityExceeded):
		return appErrors.ErrCapacityExceeded.Message
	case errors.Is(err, repository.ErrQuotaExceeded):
		return appErrors.ErrQuotaExceeded.Message
	case errors.Is(err, repository.ErrNotAssignable):
		return "entries were modified while confirming"
	default:
		return appErrors.ErrPersistence.Message
	}
}

func (s *LifecycleService) emitAudit(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil || log == nil {
		return
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to store audit log", zap.Error(err))
	}
}
