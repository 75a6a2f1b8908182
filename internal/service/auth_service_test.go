package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/training-admin-api/internal/models"
	appErrors "github.com/noah-isme/training-admin-api/pkg/errors"
)

type authDirectoryStub struct {
	employees map[string]*models.Employee
	logs      []*models.AuditLog
}

func newAuthDirectoryStub() *authDirectoryStub {
	return &authDirectoryStub{employees: make(map[string]*models.Employee)}
}

func (d *authDirectoryStub) FindByEmployeeID(ctx context.Context, employeeID string) (*models.Employee, error) {
	if employee, ok := d.employees[employeeID]; ok {
		copy := *employee
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (d *authDirectoryStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	d.logs = append(d.logs, log)
	return nil
}

func newAuthFixture() (*AuthService, *authDirectoryStub) {
	directory := newAuthDirectoryStub()
	directory.employees["20240001"] = &models.Employee{
		ID:         "emp-1",
		EmployeeID: "20240001",
		Name:       "김민수",
		Department: "영업1부",
		BirthDate:  "1990-03-15",
		Role:       models.RoleCoordinator,
		Status:     models.EmployeeStatusActive,
	}
	svc := NewAuthService(directory, nil, nil, AuthConfig{
		AccessTokenSecret: "test-secret",
		AccessTokenExpiry: 30 * time.Minute,
		Issuer:            "training-admin-api",
	})
	return svc, directory
}

func TestLoginSuccess(t *testing.T) {
	svc, directory := newAuthFixture()

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		EmployeeID: "20240001",
		BirthDate:  "1990-03-15",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, int64(1800), resp.ExpiresIn)
	assert.Equal(t, "김민수", resp.User.Name)
	assert.Equal(t, models.RoleCoordinator, resp.User.Role)
	require.Len(t, directory.logs, 1)
	assert.Equal(t, models.AuditActionLogin, directory.logs[0].Action)
}

func TestLoginWrongBirthDate(t *testing.T) {
	svc, _ := newAuthFixture()

	_, err := svc.Login(context.Background(), models.LoginRequest{
		EmployeeID: "20240001",
		BirthDate:  "1991-01-01",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginUnknownEmployee(t *testing.T) {
	svc, _ := newAuthFixture()

	_, err := svc.Login(context.Background(), models.LoginRequest{
		EmployeeID: "99999999",
		BirthDate:  "1990-03-15",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginInactiveAccount(t *testing.T) {
	svc, directory := newAuthFixture()
	directory.employees["20240001"].Status = models.EmployeeStatusLeave

	_, err := svc.Login(context.Background(), models.LoginRequest{
		EmployeeID: "20240001",
		BirthDate:  "1990-03-15",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestLoginValidation(t *testing.T) {
	svc, _ := newAuthFixture()

	_, err := svc.Login(context.Background(), models.LoginRequest{EmployeeID: "20240001"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRoundTrip(t *testing.T) {
	svc, _ := newAuthFixture()

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		EmployeeID: "20240001",
		BirthDate:  "1990-03-15",
	})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "emp-1", claims.UserID)
	assert.Equal(t, "20240001", claims.EmployeeID)
	assert.Equal(t, models.RoleCoordinator, claims.Role)
	assert.Equal(t, "영업1부", claims.Department)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	svc, directory := newAuthFixture()
	other := NewAuthService(directory, nil, nil, AuthConfig{
		AccessTokenSecret: "other-secret",
		AccessTokenExpiry: 30 * time.Minute,
	})

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		EmployeeID: "20240001",
		BirthDate:  "1990-03-15",
	})
	require.NoError(t, err)

	_, err = other.ValidateToken(resp.AccessToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenGarbage(t *testing.T) {
	svc, _ := newAuthFixture()

	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
