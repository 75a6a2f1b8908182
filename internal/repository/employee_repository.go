package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/training-admin-api/internal/models"
)

const employeeColumns = `id, employee_id, name, department, position, branch, coordinator, channel, phone, birth_date, role, status, created_at`

// EmployeeRepository reads the employee directory.
type EmployeeRepository struct {
	db *sqlx.DB
}

// NewEmployeeRepository constructs the repository.
func NewEmployeeRepository(db *sqlx.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// ListEligible returns active workers, optionally scoped to departments.
// Only ACTIVE rows with role WORKER count toward training targets.
func (r *EmployeeRepository) ListEligible(ctx context.Context, filter models.EligibleFilter) ([]models.Employee, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 4)
	builder.WriteString(`SELECT ` + employeeColumns + ` FROM employees WHERE role = $1 AND status = $2`)
	args = append(args, models.RoleWorker, models.EmployeeStatusActive)

	if len(filter.Departments) > 0 {
		placeholders := make([]string, len(filter.Departments))
		for i, dept := range filter.Departments {
			args = append(args, dept)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		builder.WriteString(fmt.Sprintf(" AND department IN (%s)", strings.Join(placeholders, ",")))
	}
	builder.WriteString(" ORDER BY department, name")

	var employees []models.Employee
	if err := r.db.SelectContext(ctx, &employees, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list eligible employees: %w", err)
	}
	return employees, nil
}

// FindByEmployeeIDs resolves directory rows for the given employee numbers.
// Numbers that match no row are simply absent from the result.
func (r *EmployeeRepository) FindByEmployeeIDs(ctx context.Context, employeeIDs []string) ([]models.Employee, error) {
	if len(employeeIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT `+employeeColumns+` FROM employees WHERE employee_id IN (?)`, employeeIDs)
	if err != nil {
		return nil, fmt.Errorf("build employee lookup: %w", err)
	}
	query = r.db.Rebind(query)
	var employees []models.Employee
	if err := r.db.SelectContext(ctx, &employees, query, args...); err != nil {
		return nil, fmt.Errorf("find employees by number: %w", err)
	}
	return employees, nil
}

// FindByEmployeeID fetches one directory row by employee number.
func (r *EmployeeRepository) FindByEmployeeID(ctx context.Context, employeeID string) (*models.Employee, error) {
	const query = `SELECT ` + employeeColumns + ` FROM employees WHERE employee_id = $1`
	var employee models.Employee
	if err := r.db.GetContext(ctx, &employee, query, employeeID); err != nil {
		return nil, err
	}
	return &employee, nil
}

// FindByID fetches one directory row by primary key.
func (r *EmployeeRepository) FindByID(ctx context.Context, id string) (*models.Employee, error) {
	const query = `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1`
	var employee models.Employee
	if err := r.db.GetContext(ctx, &employee, query, id); err != nil {
		return nil, err
	}
	return &employee, nil
}

// ListDepartments returns the distinct departments of active workers.
func (r *EmployeeRepository) ListDepartments(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT department FROM employees WHERE status = $1 ORDER BY department`
	var departments []string
	if err := r.db.SelectContext(ctx, &departments, query, models.EmployeeStatusActive); err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return departments, nil
}
