package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/training-admin-api/internal/dto"
	"github.com/noah-isme/training-admin-api/internal/models"
	appErrors "github.com/noah-isme/training-admin-api/pkg/errors"
)

type quotaStore interface {
	Add(ctx context.Context, quota *models.DepartmentQuota) error
	ListByDateOption(ctx context.Context, eventDateID string) ([]models.DepartmentQuota, error)
}

type quotaCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type dateOptionStore interface {
	GetDateOption(ctx context.Context, id string) (*models.EventDateOption, error)
}

// QuotaService manages per-department confirmation caps. The status
// surface is advisory and cached; hard enforcement lives inside the
// confirmation transaction.
type QuotaService struct {
	quotas   quotaStore
	events   dateOptionStore
	cache    quotaCache
	cacheTTL time.Duration
	audit    auditLogger
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewQuotaService constructs the service. Cache may be nil to disable
// status caching.
func NewQuotaService(quotas quotaStore, events dateOptionStore, cache quotaCache, cacheTTL time.Duration, audit auditLogger, logger *zap.Logger) *QuotaService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &QuotaService{quotas: quotas, events: events, cache: cache, cacheTTL: cacheTTL, audit: audit, logger: logger}
}

// WithMetrics attaches cache lookup counters. Safe to skip in tests.
func (s *QuotaService) WithMetrics(metrics *MetricsService) *QuotaService {
	s.metrics = metrics
	return s
}

func quotaCacheKey(eventDateID string) string {
	return fmt.Sprintf("quota:status:%s", eventDateID)
}

// AddQuotas stores caps for a date option. A department gets at most
// one cap per option; duplicates in the request or in storage are
// rejected rather than overwritten.
func (s *QuotaService) AddQuotas(ctx context.Context, eventDateID string, entries []dto.QuotaInput, actor *models.JWTClaims) ([]models.DepartmentQuota, error) {
	if len(entries) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one quota entry is required")
	}
	seen := make(map[string]bool, len(entries))
	for _, entry := range entries {
		if entry.Department == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "quota department is required")
		}
		if entry.Quota < 1 {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("quota for %s must be at least 1", entry.Department))
		}
		if seen[entry.Department] {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate quota for %s", entry.Department))
		}
		seen[entry.Department] = true
	}
	if _, err := s.events.GetDateOption(ctx, eventDateID); err != nil {
		return nil, mapLookupError(err, "date option not found")
	}

	stored := make([]models.DepartmentQuota, 0, len(entries))
	for _, entry := range entries {
		quota := &models.DepartmentQuota{
			EventDateID: eventDateID,
			Department:  entry.Department,
			Quota:       entry.Quota,
		}
		if err := s.quotas.Add(ctx, quota); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("quota for %s already exists", entry.Department))
			}
			return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to store quota")
		}
		stored = append(stored, *quota)
	}

	s.Invalidate(ctx, eventDateID)
	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionQuotaUpsert,
		Resource:   "event_date",
		ResourceID: &eventDateID,
		NewValues:  []byte(fmt.Sprintf(`{"quotas":%d}`, len(stored))),
	})
	return stored, nil
}

// Status returns per-department usage for a date option, served from
// cache when fresh.
func (s *QuotaService) Status(ctx context.Context, eventDateID string) (*dto.QuotaStatusResponse, error) {
	if s.cache != nil {
		var cached dto.QuotaStatusResponse
		if err := s.cache.Get(ctx, quotaCacheKey(eventDateID), &cached); err == nil {
			s.metrics.RecordCacheLookup(true)
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("quota cache read failed", zap.Error(err))
		}
		s.metrics.RecordCacheLookup(false)
	}

	option, err := s.events.GetDateOption(ctx, eventDateID)
	if err != nil {
		return nil, mapLookupError(err, "date option not found")
	}
	quotas, err := s.quotas.ListByDateOption(ctx, eventDateID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to list quotas")
	}
	status := &dto.QuotaStatusResponse{
		EventDateID: eventDateID,
		Capacity:    option.Capacity,
		Confirmed:   option.ConfirmedCount,
		Quotas:      quotas,
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, quotaCacheKey(eventDateID), status, s.cacheTTL); err != nil {
			s.logger.Warn("quota cache write failed", zap.Error(err))
		}
	}
	return status, nil
}

// Invalidate drops the cached status for a date option. Called after
// quota writes and confirmations.
func (s *QuotaService) Invalidate(ctx context.Context, eventDateID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, quotaCacheKey(eventDateID)); err != nil {
		s.logger.Warn("quota cache invalidation failed", zap.Error(err))
	}
}

func (s *QuotaService) emitAudit(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil || log == nil {
		return
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to store audit log", zap.Error(err))
	}
}
