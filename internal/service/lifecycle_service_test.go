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
	"github.com/noah-isme/training-admin-api/internal/repository"
	appErrors "github.com/noah-isme/training-admin-api/pkg/errors"
)

type lifecyclePoolStub struct {
	entries map[string]*models.PoolEntryDetail
	options map[string]*models.EventDateOption
	quotas  map[string][]models.DepartmentQuota
}

func newLifecyclePoolStub() *lifecyclePoolStub {
	return &lifecyclePoolStub{
		entries: make(map[string]*models.PoolEntryDetail),
		options: make(map[string]*models.EventDateOption),
		quotas:  make(map[string][]models.DepartmentQuota),
	}
}

func (p *lifecyclePoolStub) GetByID(ctx context.Context, id string) (*models.TargetPoolEntry, error) {
	if entry, ok := p.entries[id]; ok {
		copy := entry.TargetPoolEntry
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (p *lifecyclePoolStub) Exclude(ctx context.Context, id, reason, excludedBy string) error {
	entry, ok := p.entries[id]
	if !ok || (entry.Status != models.PoolStatusAvailable && entry.Status != models.PoolStatusAssigned) {
		return sql.ErrNoRows
	}
	now := time.Now()
	entry.Status = models.PoolStatusExcluded
	entry.ExcludeReason = &reason
	entry.ExcludedBy = &excludedBy
	entry.ExcludedAt = &now
	entry.EventDateID = nil
	return nil
}

func (p *lifecyclePoolStub) Unexclude(ctx context.Context, id string) error {
	entry, ok := p.entries[id]
	if !ok || entry.Status != models.PoolStatusExcluded {
		return sql.ErrNoRows
	}
	entry.Status = models.PoolStatusAvailable
	entry.ExcludeReason = nil
	entry.ExcludedBy = nil
	entry.ExcludedAt = nil
	return nil
}

func (p *lifecyclePoolStub) Assign(ctx context.Context, id, eventDateID string) error {
	entry, ok := p.entries[id]
	if !ok || (entry.Status != models.PoolStatusAvailable && entry.Status != models.PoolStatusAssigned) {
		return sql.ErrNoRows
	}
	entry.Status = models.PoolStatusAssigned
	entry.EventDateID = &eventDateID
	if option, ok := p.options[eventDateID]; ok {
		entry.EventDate = &option.EventDate
		entry.StartTime = &option.StartTime
		entry.EndTime = &option.EndTime
	}
	return nil
}

func (p *lifecyclePoolStub) ListAssignedByIDs(ctx context.Context, eventID string, poolIDs []string) ([]models.PoolEntryDetail, error) {
	result := make([]models.PoolEntryDetail, 0, len(poolIDs))
	for _, id := range poolIDs {
		entry, ok := p.entries[id]
		if !ok || entry.EventID != eventID || entry.Status != models.PoolStatusAssigned {
			continue
		}
		result = append(result, *entry)
	}
	return result, nil
}

func (p *lifecyclePoolStub) ConfirmGroup(ctx context.Context, params repository.ConfirmGroupParams) (*models.TrainingEvent, int, error) {
	for _, id := range params.PoolIDs {
		entry, ok := p.entries[id]
		if !ok || entry.Status != models.PoolStatusAssigned {
			return nil, 0, repository.ErrNotAssignable
		}
	}
	option := p.options[params.EventDateID]
	if option.Capacity != nil && option.ConfirmedCount+len(params.PoolIDs) > *option.Capacity {
		return nil, 0, repository.ErrCapacityExceeded
	}
	perDepartment := make(map[string]int)
	for _, id := range params.PoolIDs {
		perDepartment[p.entries[id].Department]++
	}
	for _, quota := range p.quotas[params.EventDateID] {
		if quota.CurrentCount+perDepartment[quota.Department] > quota.Quota {
			return nil, 0, repository.ErrQuotaExceeded
		}
	}
	for _, id := range params.PoolIDs {
		p.entries[id].Status = models.PoolStatusConfirmed
	}
	option.ConfirmedCount += len(params.PoolIDs)
	parentID := params.Parent.ID
	child := &models.TrainingEvent{
		ID:             "child-" + params.EventDateID,
		TemplateID:     params.Parent.TemplateID,
		Title:          params.Parent.Title,
		AssignmentMode: models.AssignmentModeConfirmed,
		Status:         models.EventStatusPublished,
		ParentEventID:  &parentID,
	}
	return child, len(params.PoolIDs), nil
}

type lifecycleEventsStub struct {
	events  map[string]*models.TrainingEvent
	options map[string]*models.EventDateOption
}

func (e *lifecycleEventsStub) GetByID(ctx context.Context, id string) (*models.TrainingEvent, error) {
	if event, ok := e.events[id]; ok {
		copy := *event
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (e *lifecycleEventsStub) GetDateOption(ctx context.Context, id string) (*models.EventDateOption, error) {
	if option, ok := e.options[id]; ok {
		copy := *option
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

type invalidatorStub struct {
	keys []string
}

func (i *invalidatorStub) Invalidate(ctx context.Context, eventDateID string) {
	i.keys = append(i.keys, eventDateID)
}

type lifecycleFixture struct {
	pool   *lifecyclePoolStub
	events *lifecycleEventsStub
	quotas *invalidatorStub
	audit  *auditStub
	svc    *LifecycleService
}

func newLifecycleFixture() *lifecycleFixture {
	pool := newLifecyclePoolStub()
	events := &lifecycleEventsStub{
		events:  map[string]*models.TrainingEvent{},
		options: map[string]*models.EventDateOption{},
	}
	quotas := &invalidatorStub{}
	audit := &auditStub{}
	return &lifecycleFixture{
		pool:   pool,
		events: events,
		quotas: quotas,
		audit:  audit,
		svc:    NewLifecycleService(pool, events, quotas, audit, nil),
	}
}

func (f *lifecycleFixture) addEvent(id string) *models.TrainingEvent {
	detail := "본사 대회의실"
	event := &models.TrainingEvent{
		ID:             id,
		TemplateID:     "tpl-1",
		Title:          "직무 교육",
		TargetMode:     models.TargetModeAll,
		AssignmentMode: models.AssignmentModeDraft,
		DateMode:       models.DateModeMultiple,
		Status:         models.EventStatusDraft,
		LocationType:   models.LocationOffline,
		LocationDetail: &detail,
	}
	f.events.events[id] = event
	return event
}

func (f *lifecycleFixture) addOption(id, eventID, date, start, end string, capacity *int) {
	option := &models.EventDateOption{
		ID:        id,
		EventID:   eventID,
		EventDate: date,
		StartTime: start,
		EndTime:   end,
		Capacity:  capacity,
	}
	f.events.options[id] = option
	f.pool.options[id] = option
}

func (f *lifecycleFixture) addEntry(id, eventID, department string, status models.PoolStatus) {
	f.pool.entries[id] = &models.PoolEntryDetail{
		TargetPoolEntry: models.TargetPoolEntry{
			ID:      id,
			EventID: eventID,
			Status:  status,
		},
		Department: department,
	}
}

func (f *lifecycleFixture) assign(t *testing.T, poolID, optionID string) {
	t.Helper()
	require.NoError(t, f.pool.Assign(context.Background(), poolID, optionID))
}

func adminClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "admin-1", EmployeeID: "10000001", Role: models.RoleAdmin}
}

func intPtr(v int) *int {
	return &v
}

func TestExcludeRequiresReason(t *testing.T) {
	f := newLifecycleFixture()
	f.addEntry("pool-1", "event-1", "영업1부", models.PoolStatusAvailable)

	err := f.svc.Exclude(context.Background(), "pool-1", "  ", adminClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExcludeConfirmedEntryConflicts(t *testing.T) {
	f := newLifecycleFixture()
	f.addEntry("pool-1", "event-1", "영업1부", models.PoolStatusConfirmed)

	err := f.svc.Exclude(context.Background(), "pool-1", "퇴사", adminClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrStateConflict.Code, appErrors.FromError(err).Code)
}

func TestExcludeThenUnexcludeRoundTrip(t *testing.T) {
	f := newLifecycleFixture()
	f.addEntry("pool-1", "event-1", "영업1부", models.PoolStatusAvailable)

	require.NoError(t, f.svc.Exclude(context.Background(), "pool-1", "퇴사", adminClaims()))
	entry := f.pool.entries["pool-1"]
	require.Equal(t, models.PoolStatusExcluded, entry.Status)
	require.NotNil(t, entry.ExcludeReason)
	assert.Equal(t, "퇴사", *entry.ExcludeReason)
	require.NotNil(t, entry.ExcludedBy)
	assert.Equal(t, "admin-1", *entry.ExcludedBy)

	require.NoError(t, f.svc.Unexclude(context.Background(), "pool-1", adminClaims()))
	require.Equal(t, models.PoolStatusAvailable, entry.Status)
	assert.Nil(t, entry.ExcludeReason)
	assert.Nil(t, entry.ExcludedAt)

	// Only excluded entries can be restored.
	err := f.svc.Unexclude(context.Background(), "pool-1", adminClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrStateConflict.Code, appErrors.FromError(err).Code)

	require.Len(t, f.audit.logs, 2)
	assert.Equal(t, models.AuditActionPoolExclude, f.audit.logs[0].Action)
	assert.Equal(t, models.AuditActionPoolUnexclude, f.audit.logs[1].Action)
}

func TestAssignRejectsForeignDateOption(t *testing.T) {
	f := newLifecycleFixture()
	f.addEvent("event-1")
	f.addOption("opt-other", "event-2", "2026-09-10", "10:00", "12:00", nil)
	f.addEntry("pool-1", "event-1", "영업1부", models.PoolStatusAvailable)

	err := f.svc.Assign(context.Background(), "pool-1", "opt-other", adminClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAssignMovesEntryBetweenOptions(t *testing.T) {
	f := newLifecycleFixture()
	f.addEvent("event-1")
	f.addOption("opt-1", "event-1", "2026-09-10", "10:00", "12:00", nil)
	f.addOption("opt-2", "event-1", "2026-09-11", "10:00", "12:00", nil)
	f.addEntry("pool-1", "event-1", "영업1부", models.PoolStatusAvailable)

	require.NoError(t, f.svc.Assign(context.Background(), "pool-1", "opt-1", adminClaims()))
	require.NoError(t, f.svc.Assign(context.Background(), "pool-1", "opt-2", adminClaims()))
	entry := f.pool.entries["pool-1"]
	require.Equal(t, models.PoolStatusAssigned, entry.Status)
	require.NotNil(t, entry.EventDateID)
	assert.Equal(t, "opt-2", *entry.EventDateID)
}

func TestConfirmBatchRequiresSelection(t *testing.T) {
	f := newLifecycleFixture()

	_, err := f.svc.ConfirmBatch(context.Background(), dto.ConfirmRequest{EventID: "event-1"}, adminClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestConfirmBatchRejectsUnassignedSelection(t *testing.T) {
	f := newLifecycleFixture()
	f.addEvent("event-1")
	f.addOption("opt-1", "event-1", "2026-09-10", "10:00", "12:00", nil)
	f.addEntry("pool-1", "event-1", "영업1부", models.PoolStatusAvailable)
	f.addEntry("pool-2", "event-1", "영업1부", models.PoolStatusAvailable)
	f.assign(t, "pool-1", "opt-1")

	req := dto.ConfirmRequest{EventID: "event-1", PoolIDs: []string{"pool-1", "pool-2"}}
	_, err := f.svc.ConfirmBatch(context.Background(), req, adminClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrStateConflict.Code, appErrors.FromError(err).Code)
}

func TestConfirmBatchRejectsConfirmedEvents(t *testing.T) {
	f := newLifecycleFixture()
	event := f.addEvent("event-1")
	event.AssignmentMode = models.AssignmentModeConfirmed

	req := dto.ConfirmRequest{EventID: "event-1", PoolIDs: []string{"pool-1"}}
	_, err := f.svc.ConfirmBatch(context.Background(), req, adminClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrStateConflict.Code, appErrors.FromError(err).Code)
}

func TestConfirmBatchCreatesOneEventPerSchedule(t *testing.T) {
	f := newLifecycleFixture()
	f.addEvent("event-1")
	f.addOption("opt-1", "event-1", "2026-09-10", "10:00", "12:00", nil)
	f.addOption("opt-2", "event-1", "2026-09-11", "14:00", "16:00", nil)
	for _, id := range []string{"pool-1", "pool-2"} {
		f.addEntry(id, "event-1", "영업1부", models.PoolStatusAvailable)
		f.assign(t, id, "opt-1")
	}
	f.addEntry("pool-3", "event-1", "영업2부", models.PoolStatusAvailable)
	f.assign(t, "pool-3", "opt-2")

	req := dto.ConfirmRequest{EventID: "event-1", PoolIDs: []string{"pool-1", "pool-2", "pool-3"}}
	report, err := f.svc.ConfirmBatch(context.Background(), req, adminClaims())
	require.NoError(t, err)
	require.Len(t, report.CreatedEvents, 2)
	require.Empty(t, report.Failures)
	require.Equal(t, 3, report.Assignments)

	// Groups come back ordered by schedule.
	assert.Equal(t, "2026-09-10", report.CreatedEvents[0].EventDate)
	assert.Equal(t, 2, report.CreatedEvents[0].Assignments)
	assert.Equal(t, "2026-09-11", report.CreatedEvents[1].EventDate)
	assert.Equal(t, 1, report.CreatedEvents[1].Assignments)

	for _, id := range []string{"pool-1", "pool-2", "pool-3"} {
		assert.Equal(t, models.PoolStatusConfirmed, f.pool.entries[id].Status)
	}
	assert.ElementsMatch(t, []string{"opt-1", "opt-2"}, f.quotas.keys)
	require.Len(t, f.audit.logs, 1)
	assert.Equal(t, models.AuditActionPoolConfirm, f.audit.logs[0].Action)
}

func TestConfirmBatchCapacityFailureKeepsOtherGroups(t *testing.T) {
	f := newLifecycleFixture()
	f.addEvent("event-1")
	f.addOption("opt-1", "event-1", "2026-09-10", "10:00", "12:00", intPtr(2))
	f.addOption("opt-2", "event-1", "2026-09-11", "10:00", "12:00", intPtr(5))
	for _, id := range []string{"pool-1", "pool-2", "pool-3"} {
		f.addEntry(id, "event-1", "영업1부", models.PoolStatusAvailable)
		f.assign(t, id, "opt-1")
	}
	f.addEntry("pool-4", "event-1", "영업2부", models.PoolStatusAvailable)
	f.assign(t, "pool-4", "opt-2")

	req := dto.ConfirmRequest{EventID: "event-1", PoolIDs: []string{"pool-1", "pool-2", "pool-3", "pool-4"}}
	report, err := f.svc.ConfirmBatch(context.Background(), req, adminClaims())
	require.NoError(t, err)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "2026-09-10", report.Failures[0].EventDate)
	assert.Equal(t, appErrors.ErrCapacityExceeded.Message, report.Failures[0].Reason)

	require.Len(t, report.CreatedEvents, 1)
	assert.Equal(t, "2026-09-11", report.CreatedEvents[0].EventDate)
	require.Equal(t, 1, report.Assignments)

	// The failed group stays assigned for a retry after triage.
	for _, id := range []string{"pool-1", "pool-2", "pool-3"} {
		assert.Equal(t, models.PoolStatusAssigned, f.pool.entries[id].Status)
	}
	assert.Equal(t, []string{"opt-2"}, f.quotas.keys)
}

func TestConfirmBatchEnforcesDepartmentQuotas(t *testing.T) {
	f := newLifecycleFixture()
	f.addEvent("event-1")
	f.addOption("opt-1", "event-1", "2026-09-10", "10:00", "12:00", intPtr(10))
	f.pool.quotas["opt-1"] = []models.DepartmentQuota{
		{EventDateID: "opt-1", Department: "영업1부", Quota: 3},
		{EventDateID: "opt-1", Department: "영업2부", Quota: 2},
	}
	for _, id := range []string{"pool-1", "pool-2", "pool-3", "pool-4"} {
		f.addEntry(id, "event-1", "영업1부", models.PoolStatusAvailable)
		f.assign(t, id, "opt-1")
	}

	req := dto.ConfirmRequest{EventID: "event-1", PoolIDs: []string{"pool-1", "pool-2", "pool-3", "pool-4"}}
	report, err := f.svc.ConfirmBatch(context.Background(), req, adminClaims())
	require.NoError(t, err)
	require.Empty(t, report.CreatedEvents)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, appErrors.ErrQuotaExceeded.Message, report.Failures[0].Reason)
}
