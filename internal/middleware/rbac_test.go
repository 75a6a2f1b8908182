package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/training-admin-api/internal/models"
	"github.com/noah-isme/training-admin-api/internal/service"
)

type directoryStub struct {
	employee *models.Employee
}

func (d *directoryStub) FindByEmployeeID(ctx context.Context, employeeID string) (*models.Employee, error) {
	if d.employee != nil && d.employee.EmployeeID == employeeID {
		return d.employee, nil
	}
	return nil, sql.ErrNoRows
}

func (d *directoryStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	return nil
}

func newTestRouter(t *testing.T, role models.EmployeeRole, required ...models.EmployeeRole) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	directory := &directoryStub{employee: &models.Employee{
		ID:         "emp-1",
		EmployeeID: "20240001",
		BirthDate:  "1990-03-15",
		Role:       role,
		Status:     models.EmployeeStatusActive,
	}}
	authSvc := service.NewAuthService(directory, nil, nil, service.AuthConfig{
		AccessTokenSecret: "test-secret",
		AccessTokenExpiry: time.Minute,
	})
	resp, err := authSvc.Login(context.Background(), models.LoginRequest{
		EmployeeID: "20240001",
		BirthDate:  "1990-03-15",
	})
	require.NoError(t, err)

	router := gin.New()
	router.GET("/protected", JWT(authSvc), RequireRoles(required...), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router, resp.AccessToken
}

func TestJWTRejectsMissingToken(t *testing.T) {
	router, _ := newTestRouter(t, models.RoleAdmin, models.RoleAdmin)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTRejectsMalformedHeader(t *testing.T) {
	router, token := newTestRouter(t, models.RoleAdmin, models.RoleAdmin)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", token)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRBACAllowsMatchingRole(t *testing.T) {
	router, token := newTestRouter(t, models.RoleAdmin, models.RoleAdmin)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRBACRejectsOtherRoles(t *testing.T) {
	router, token := newTestRouter(t, models.RoleCoordinator, models.RoleAdmin)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)
}
