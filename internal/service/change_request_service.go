package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/training-admin-api/internal/dto"
	"github.com/noah-isme/training-admin-api/internal/models"
	appErrors "github.com/noah-isme/training-admin-api/pkg/errors"
)

type changeRequestStore interface {
	Create(ctx context.Context, request *models.ChangeRequest) error
	GetByID(ctx context.Context, id string) (*models.ChangeRequest, error)
	List(ctx context.Context, filter models.ChangeRequestFilter) ([]models.ChangeRequestDetail, error)
	ApproveSwap(ctx context.Context, request *models.ChangeRequest, processedBy string) (*models.Assignment, error)
	Reject(ctx context.Context, id, reason, processedBy string) error
}

type assignmentReader interface {
	GetByID(ctx context.Context, id string) (*models.Assignment, error)
}

// ChangeRequestService runs the seat-swap review workflow:
// PENDING → APPROVED | REJECTED, both terminal.
type ChangeRequestService struct {
	requests    changeRequestStore
	assignments assignmentReader
	events      eventReader
	audit       auditLogger
	metrics     *MetricsService
	logger      *zap.Logger
}

// NewChangeRequestService constructs the service.
func NewChangeRequestService(requests changeRequestStore, assignments assignmentReader, events eventReader, audit auditLogger, logger *zap.Logger) *ChangeRequestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChangeRequestService{requests: requests, assignments: assignments, events: events, audit: audit, logger: logger}
}

// WithMetrics attaches decision counters. Safe to skip in tests.
func (s *ChangeRequestService) WithMetrics(metrics *MetricsService) *ChangeRequestService {
	s.metrics = metrics
	return s
}

// Submit files a request to move an assignment to another event.
func (s *ChangeRequestService) Submit(ctx context.Context, req dto.SubmitChangeRequest, actor *models.JWTClaims) (*models.ChangeRequest, error) {
	if req.ToEventID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "target event is required")
	}
	if strings.TrimSpace(req.Reason) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "change reason is required")
	}
	assignment, err := s.assignments.GetByID(ctx, req.AssignmentID)
	if err != nil {
		return nil, mapLookupError(err, "assignment not found")
	}
	if assignment.EventID == req.ToEventID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "target event matches the current assignment")
	}
	if _, err := s.events.GetByID(ctx, req.ToEventID); err != nil {
		return nil, mapLookupError(err, "target event not found")
	}

	request := &models.ChangeRequest{
		AssignmentID: assignment.ID,
		EmployeeID:   assignment.EmployeeID,
		FromEventID:  assignment.EventID,
		ToEventID:    req.ToEventID,
		Reason:       req.Reason,
		Status:       models.ChangeRequestPending,
		RequestedBy:  actor.UserID,
	}
	if err := s.requests.Create(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to create change request")
	}
	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionChangeSubmit,
		Resource:   "change_request",
		ResourceID: &request.ID,
		NewValues:  []byte(fmt.Sprintf(`{"from":%q,"to":%q}`, request.FromEventID, request.ToEventID)),
	})
	return request, nil
}

// List returns the review queue respecting actor scope: admins see all
// requests, coordinators only their own submissions.
func (s *ChangeRequestService) List(ctx context.Context, query dto.ChangeRequestQuery, actor *models.JWTClaims) ([]models.ChangeRequestDetail, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	filter := models.ChangeRequestFilter{
		Status:  query.Status,
		EventID: query.EventID,
	}
	if query.PageSize > 0 {
		filter.Limit = query.PageSize
		if query.Page > 1 {
			filter.Offset = (query.Page - 1) * query.PageSize
		}
	}
	switch actor.Role {
	case models.RoleAdmin:
		// full queue
	case models.RoleCoordinator:
		filter.RequestedBy = actor.UserID
	default:
		return nil, appErrors.ErrForbidden
	}
	requests, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to list change requests")
	}
	return requests, nil
}

// Get returns one request enforcing the same scope as List.
func (s *ChangeRequestService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.ChangeRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	request, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err, "change request not found")
	}
	if actor.Role == models.RoleCoordinator && request.RequestedBy != actor.UserID {
		return nil, appErrors.ErrForbidden
	}
	return request, nil
}

// Approve moves the seat and closes the request in one transaction. A
// request that already reached a terminal state cannot be processed
// again.
func (s *ChangeRequestService) Approve(ctx context.Context, id string, actor *models.JWTClaims) (*models.Assignment, error) {
	request, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err, "change request not found")
	}
	if request.Status != models.ChangeRequestPending {
		return nil, appErrors.Clone(appErrors.ErrStateConflict, "change request already processed")
	}
	replacement, err := s.requests.ApproveSwap(ctx, request, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrStateConflict, "change request already processed")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to approve change request")
	}
	s.metrics.RecordChangeDecision("approved")
	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionChangeApprove,
		Resource:   "change_request",
		ResourceID: &id,
		NewValues:  []byte(fmt.Sprintf(`{"assignment":%q,"event":%q}`, replacement.ID, replacement.EventID)),
	})
	return replacement, nil
}

// Reject closes the request with the reviewer's note.
func (s *ChangeRequestService) Reject(ctx context.Context, id, reason string, actor *models.JWTClaims) error {
	if strings.TrimSpace(reason) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "rejection reason is required")
	}
	request, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return mapLookupError(err, "change request not found")
	}
	if request.Status != models.ChangeRequestPending {
		return appErrors.Clone(appErrors.ErrStateConflict, "change request already processed")
	}
	if err := s.requests.Reject(ctx, id, reason, actor.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrStateConflict, "change request already processed")
		}
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to reject change request")
	}
	s.metrics.RecordChangeDecision("rejected")
	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionChangeReject,
		Resource:   "change_request",
		ResourceID: &id,
		NewValues:  []byte(fmt.Sprintf(`{"reason":%q}`, reason)),
	})
	return nil
}

func (s *ChangeRequestService) emitAudit(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil || log == nil {
		return
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to store audit log", zap.Error(err))
	}
}
