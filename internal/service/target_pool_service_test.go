package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/training-admin-api/internal/models"
	appErrors "github.com/noah-isme/training-admin-api/pkg/errors"
)

type auditStub struct {
	logs []*models.AuditLog
}

func (a *auditStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

type directoryStub struct {
	employees []models.Employee
	filter    models.EligibleFilter
}

func (d *directoryStub) ListEligible(ctx context.Context, filter models.EligibleFilter) ([]models.Employee, error) {
	d.filter = filter
	result := make([]models.Employee, 0)
	for _, employee := range d.employees {
		if employee.Status != models.EmployeeStatusActive || employee.Role != models.RoleWorker {
			continue
		}
		if len(filter.Departments) > 0 && !containsString(filter.Departments, employee.Department) {
			continue
		}
		result = append(result, employee)
	}
	return result, nil
}

func (d *directoryStub) FindByEmployeeIDs(ctx context.Context, employeeIDs []string) ([]models.Employee, error) {
	result := make([]models.Employee, 0)
	for _, employee := range d.employees {
		if containsString(employeeIDs, employee.EmployeeID) {
			result = append(result, employee)
		}
	}
	return result, nil
}

func containsString(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}

type poolStoreStub struct {
	entries map[string]bool
}

func newPoolStoreStub() *poolStoreStub {
	return &poolStoreStub{entries: make(map[string]bool)}
}

func (p *poolStoreStub) BulkInsert(ctx context.Context, eventID string, employeeIDs []string) (*models.PoolResolution, error) {
	report := &models.PoolResolution{}
	for _, employeeID := range employeeIDs {
		key := eventID + "|" + employeeID
		if p.entries[key] {
			report.Skipped++
			continue
		}
		p.entries[key] = true
		report.Inserted++
	}
	report.Total = len(p.entries)
	return report, nil
}

func (p *poolStoreStub) ListByEvent(ctx context.Context, eventID string, filter models.PoolFilter) ([]models.PoolEntryDetail, error) {
	return nil, nil
}

type eventReaderStub struct {
	events map[string]*models.TrainingEvent
}

func (e *eventReaderStub) GetByID(ctx context.Context, id string) (*models.TrainingEvent, error) {
	if event, ok := e.events[id]; ok {
		copy := *event
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func worker(id, number, department string) models.Employee {
	return models.Employee{
		ID:         id,
		EmployeeID: number,
		Name:       "Employee " + number,
		Department: department,
		Role:       models.RoleWorker,
		Status:     models.EmployeeStatusActive,
	}
}

func TestResolveTargetsAllSkipsInactiveAndNonWorkers(t *testing.T) {
	directory := &directoryStub{employees: []models.Employee{
		worker("emp-1", "20240001", "영업1부"),
		worker("emp-2", "20240002", "영업2부"),
		{ID: "emp-3", EmployeeID: "20240003", Department: "영업1부", Role: models.RoleWorker, Status: models.EmployeeStatusLeave},
		{ID: "emp-4", EmployeeID: "20240004", Department: "지원부", Role: models.RoleAdmin, Status: models.EmployeeStatusActive},
	}}
	svc := NewTargetPoolService(directory, newPoolStoreStub(), &eventReaderStub{}, &auditStub{}, nil)

	resolution, err := svc.ResolveTargets(context.Background(), &models.TrainingEvent{TargetMode: models.TargetModeAll}, nil)
	require.NoError(t, err)
	require.Len(t, resolution.Eligible, 2)
	require.Empty(t, resolution.Unresolved)
}

func TestResolveTargetsDepartmentRequiresList(t *testing.T) {
	svc := NewTargetPoolService(&directoryStub{}, newPoolStoreStub(), &eventReaderStub{}, &auditStub{}, nil)

	_, err := svc.ResolveTargets(context.Background(), &models.TrainingEvent{TargetMode: models.TargetModeDepartment}, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestResolveTargetsDepartmentFilters(t *testing.T) {
	directory := &directoryStub{employees: []models.Employee{
		worker("emp-1", "20240001", "영업1부"),
		worker("emp-2", "20240002", "영업2부"),
		worker("emp-3", "20240003", "지원부"),
	}}
	svc := NewTargetPoolService(directory, newPoolStoreStub(), &eventReaderStub{}, &auditStub{}, nil)

	event := &models.TrainingEvent{
		TargetMode:        models.TargetModeDepartment,
		TargetDepartments: models.StringList{"영업1부", "영업2부"},
	}
	resolution, err := svc.ResolveTargets(context.Background(), event, nil)
	require.NoError(t, err)
	require.Len(t, resolution.Eligible, 2)
	assert.Equal(t, []string{"영업1부", "영업2부"}, directory.filter.Departments)
}

func TestResolveTargetsCustomClassifiesEveryInput(t *testing.T) {
	directory := &directoryStub{employees: []models.Employee{
		worker("emp-1", "20240001", "영업1부"),
		worker("emp-2", "20240002", "영업2부"),
		{ID: "emp-5", EmployeeID: "20240005", Department: "영업1부", Role: models.RoleWorker, Status: models.EmployeeStatusInactive},
	}}
	svc := NewTargetPoolService(directory, newPoolStoreStub(), &eventReaderStub{}, &auditStub{}, nil)

	// Duplicate id, one unknown, one inactive.
	input := []string{"20240001", "20240001", "20240002", "20240005", "99999999"}
	event := &models.TrainingEvent{TargetMode: models.TargetModeCustom}
	resolution, err := svc.ResolveTargets(context.Background(), event, input)
	require.NoError(t, err)

	unique := map[string]bool{}
	for _, id := range input {
		unique[id] = true
	}
	require.Equal(t, len(unique), len(resolution.Eligible)+len(resolution.Unresolved))
	require.Len(t, resolution.Eligible, 2)
	assert.ElementsMatch(t, []string{"20240005", "99999999"}, resolution.Unresolved)
}

func TestResolveTargetsCustomRequiresIDs(t *testing.T) {
	svc := NewTargetPoolService(&directoryStub{}, newPoolStoreStub(), &eventReaderStub{}, &auditStub{}, nil)

	_, err := svc.ResolveTargets(context.Background(), &models.TrainingEvent{TargetMode: models.TargetModeCustom}, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPopulatePoolIsIdempotent(t *testing.T) {
	directory := &directoryStub{employees: []models.Employee{
		worker("emp-1", "20240001", "영업1부"),
		worker("emp-2", "20240002", "영업2부"),
	}}
	pool := newPoolStoreStub()
	audit := &auditStub{}
	svc := NewTargetPoolService(directory, pool, &eventReaderStub{}, audit, nil)

	event := &models.TrainingEvent{
		ID:             "event-1",
		TargetMode:     models.TargetModeAll,
		AssignmentMode: models.AssignmentModeDraft,
	}
	report, unresolved, err := svc.PopulatePool(context.Background(), event, nil, "admin-1")
	require.NoError(t, err)
	require.Equal(t, 2, report.Inserted)
	require.Empty(t, unresolved)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionPoolResolve, audit.logs[0].Action)

	report, _, err = svc.PopulatePool(context.Background(), event, nil, "admin-1")
	require.NoError(t, err)
	require.Equal(t, 0, report.Inserted)
	require.Equal(t, 2, report.Skipped)
}

func TestPopulatePoolRejectsDirectEvents(t *testing.T) {
	svc := NewTargetPoolService(&directoryStub{}, newPoolStoreStub(), &eventReaderStub{}, &auditStub{}, nil)

	event := &models.TrainingEvent{ID: "event-1", TargetMode: models.TargetModeAll, AssignmentMode: models.AssignmentModeDirect}
	_, _, err := svc.PopulatePool(context.Background(), event, nil, "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrStateConflict.Code, appErrors.FromError(err).Code)
}

func TestRepopulateLoadsEvent(t *testing.T) {
	directory := &directoryStub{employees: []models.Employee{worker("emp-1", "20240001", "영업1부")}}
	events := &eventReaderStub{events: map[string]*models.TrainingEvent{
		"event-1": {ID: "event-1", TargetMode: models.TargetModeAll, AssignmentMode: models.AssignmentModeDraft},
	}}
	svc := NewTargetPoolService(directory, newPoolStoreStub(), events, &auditStub{}, nil)

	report, _, err := svc.Repopulate(context.Background(), "event-1", nil, "admin-1")
	require.NoError(t, err)
	require.Equal(t, 1, report.Inserted)

	_, _, err = svc.Repopulate(context.Background(), "missing", nil, "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestResolveTargetsScalesWithDirectory(t *testing.T) {
	directory := &directoryStub{}
	for i := 0; i < 500; i++ {
		directory.employees = append(directory.employees, worker(
			fmt.Sprintf("emp-%d", i), fmt.Sprintf("2024%04d", i), "영업1부"))
	}
	svc := NewTargetPoolService(directory, newPoolStoreStub(), &eventReaderStub{}, &auditStub{}, nil)

	resolution, err := svc.ResolveTargets(context.Background(), &models.TrainingEvent{TargetMode: models.TargetModeAll}, nil)
	require.NoError(t, err)
	require.Len(t, resolution.Eligible, 500)
}
