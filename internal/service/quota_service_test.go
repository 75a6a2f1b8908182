package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/training-admin-api/internal/dto"
	"github.com/noah-isme/training-admin-api/internal/models"
	appErrors "github.com/noah-isme/training-admin-api/pkg/errors"
)

type quotaStoreStub struct {
	quotas map[string][]models.DepartmentQuota
	lists  int
}

func newQuotaStoreStub() *quotaStoreStub {
	return &quotaStoreStub{quotas: make(map[string][]models.DepartmentQuota)}
}

func (s *quotaStoreStub) Add(ctx context.Context, quota *models.DepartmentQuota) error {
	for _, existing := range s.quotas[quota.EventDateID] {
		if existing.Department == quota.Department {
			return sql.ErrNoRows
		}
	}
	quota.ID = "quota-" + quota.Department
	s.quotas[quota.EventDateID] = append(s.quotas[quota.EventDateID], *quota)
	return nil
}

func (s *quotaStoreStub) ListByDateOption(ctx context.Context, eventDateID string) ([]models.DepartmentQuota, error) {
	s.lists++
	return s.quotas[eventDateID], nil
}

type quotaCacheStub struct {
	data    map[string]dto.QuotaStatusResponse
	hits    int
	misses  int
	deletes int
}

func newQuotaCacheStub() *quotaCacheStub {
	return &quotaCacheStub{data: make(map[string]dto.QuotaStatusResponse)}
}

func (c *quotaCacheStub) Get(ctx context.Context, key string, dest interface{}) error {
	cached, ok := c.data[key]
	if !ok {
		c.misses++
		return appErrors.ErrCacheMiss
	}
	c.hits++
	*dest.(*dto.QuotaStatusResponse) = cached
	return nil
}

func (c *quotaCacheStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if status, ok := value.(*dto.QuotaStatusResponse); ok {
		c.data[key] = *status
	}
	return nil
}

func (c *quotaCacheStub) DeleteByPattern(ctx context.Context, pattern string) error {
	delete(c.data, pattern)
	c.deletes++
	return nil
}

type quotaFixture struct {
	store  *quotaStoreStub
	events *lifecycleEventsStub
	cache  *quotaCacheStub
	audit  *auditStub
	svc    *QuotaService
}

func newQuotaFixture() *quotaFixture {
	store := newQuotaStoreStub()
	events := &lifecycleEventsStub{options: map[string]*models.EventDateOption{
		"opt-1": {ID: "opt-1", EventID: "event-1", EventDate: "2026-09-10", StartTime: "10:00", EndTime: "12:00", Capacity: intPtr(30), ConfirmedCount: 5},
	}}
	cache := newQuotaCacheStub()
	audit := &auditStub{}
	return &quotaFixture{
		store:  store,
		events: events,
		cache:  cache,
		audit:  audit,
		svc:    NewQuotaService(store, events, cache, time.Minute, audit, nil),
	}
}

func TestAddQuotasValidation(t *testing.T) {
	f := newQuotaFixture()
	actor := adminClaims()

	_, err := f.svc.AddQuotas(context.Background(), "opt-1", nil, actor)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = f.svc.AddQuotas(context.Background(), "opt-1", []dto.QuotaInput{{Department: "영업1부", Quota: 0}}, actor)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	entries := []dto.QuotaInput{
		{Department: "영업1부", Quota: 3},
		{Department: "영업1부", Quota: 5},
	}
	_, err = f.svc.AddQuotas(context.Background(), "opt-1", entries, actor)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = f.svc.AddQuotas(context.Background(), "missing", []dto.QuotaInput{{Department: "영업1부", Quota: 3}}, actor)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAddQuotasRejectsStoredDuplicate(t *testing.T) {
	f := newQuotaFixture()
	actor := adminClaims()

	_, err := f.svc.AddQuotas(context.Background(), "opt-1", []dto.QuotaInput{{Department: "영업1부", Quota: 3}}, actor)
	require.NoError(t, err)

	_, err = f.svc.AddQuotas(context.Background(), "opt-1", []dto.QuotaInput{{Department: "영업1부", Quota: 5}}, actor)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "already exists")
}

func TestAddQuotasStoresAndInvalidates(t *testing.T) {
	f := newQuotaFixture()

	entries := []dto.QuotaInput{
		{Department: "영업1부", Quota: 3},
		{Department: "영업2부", Quota: 2},
	}
	stored, err := f.svc.AddQuotas(context.Background(), "opt-1", entries, adminClaims())
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, 1, f.cache.deletes)
	require.Len(t, f.audit.logs, 1)
	assert.Equal(t, models.AuditActionQuotaUpsert, f.audit.logs[0].Action)
}

func TestQuotaStatusCaches(t *testing.T) {
	f := newQuotaFixture()
	f.store.quotas["opt-1"] = []models.DepartmentQuota{
		{EventDateID: "opt-1", Department: "영업1부", Quota: 3, CurrentCount: 1},
	}

	status, err := f.svc.Status(context.Background(), "opt-1")
	require.NoError(t, err)
	require.NotNil(t, status.Capacity)
	assert.Equal(t, 30, *status.Capacity)
	assert.Equal(t, 5, status.Confirmed)
	require.Len(t, status.Quotas, 1)
	assert.Equal(t, 2, status.Quotas[0].Remaining())
	assert.Equal(t, 1, f.cache.misses)
	assert.Equal(t, 1, f.store.lists)

	// Second read is served from cache.
	status, err = f.svc.Status(context.Background(), "opt-1")
	require.NoError(t, err)
	assert.Equal(t, "opt-1", status.EventDateID)
	assert.Equal(t, 1, f.cache.hits)
	assert.Equal(t, 1, f.store.lists)

	// Invalidation forces the next read back to storage.
	f.svc.Invalidate(context.Background(), "opt-1")
	_, err = f.svc.Status(context.Background(), "opt-1")
	require.NoError(t, err)
	assert.Equal(t, 2, f.store.lists)
}

func TestQuotaStatusUnknownOption(t *testing.T) {
	f := newQuotaFixture()

	_, err := f.svc.Status(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestQuotaServiceWithoutCache(t *testing.T) {
	f := newQuotaFixture()
	svc := NewQuotaService(f.store, f.events, nil, 0, f.audit, nil)

	status, err := svc.Status(context.Background(), "opt-1")
	require.NoError(t, err)
	assert.Equal(t, 5, status.Confirmed)
	svc.Invalidate(context.Background(), "opt-1")
}
