package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/training-admin-api/internal/dto"
	"github.com/noah-isme/training-admin-api/internal/models"
	appErrors "github.com/noah-isme/training-admin-api/pkg/errors"
)

type eventStore interface {
	CreateWithSchedule(ctx context.Context, event *models.TrainingEvent, options []models.EventDateOption) error
	GetByID(ctx context.Context, id string) (*models.TrainingEvent, error)
	List(ctx context.Context, filter models.EventFilter) ([]models.EventSummary, error)
	ListDateOptions(ctx context.Context, eventID string) ([]models.EventDateOption, error)
}

type poolPopulator interface {
	PopulatePool(ctx context.Context, event *models.TrainingEvent, customIDs []string, actorID string) (*models.PoolResolution, []string, error)
}

// EventService handles training event setup.
type EventService struct {
	events eventStore
	pool   poolPopulator
	audit  auditLogger
	logger *zap.Logger
}

// NewEventService constructs the service.
func NewEventService(events eventStore, pool poolPopulator, audit auditLogger, logger *zap.Logger) *EventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventService{events: events, pool: pool, audit: audit, logger: logger}
}

// Create validates and persists a training occurrence with its schedule.
// Draft events get their target pool populated in the same call and the
// response carries the population report.
func (s *EventService) Create(ctx context.Context, req dto.CreateEventRequest, actor *models.JWTClaims) (*dto.CreateEventResponse, error) {
	if err := validateCreateEvent(req); err != nil {
		return nil, err
	}

	status := models.EventStatusPublished
	if req.AssignmentMode == models.AssignmentModeDraft {
		status = models.EventStatusDraft
	}
	event := &models.TrainingEvent{
		TemplateID:         req.TemplateID,
		Title:              req.Title,
		TargetMode:         req.TargetMode,
		AssignmentMode:     req.AssignmentMode,
		DateMode:           req.DateMode,
		Status:             status,
		LocationType:       req.LocationType,
		MeetingID:          req.MeetingID,
		MeetingPassword:    req.MeetingPassword,
		LocationDetail:     req.LocationDetail,
		TargetDepartments:  models.StringList(req.TargetDepartments),
		EventDate:          req.EventDate,
		StartTime:          req.StartTime,
		EndTime:            req.EndTime,
		Deadline:           req.Deadline,
		AssignmentDeadline: req.AssignmentDeadline,
		CreatedBy:          actor.UserID,
	}

	options := make([]models.EventDateOption, 0, len(req.DateOptions)+1)
	if req.DateMode == models.DateModeSingle {
		// single-date events still get one option row so assignment
		// and confirmation work the same way for both date modes
		options = append(options, models.EventDateOption{
			EventDate: *req.EventDate,
			StartTime: *req.StartTime,
			EndTime:   *req.EndTime,
		})
	} else {
		for _, input := range req.DateOptions {
			option := models.EventDateOption{
				EventDate: input.EventDate,
				StartTime: input.StartTime,
				EndTime:   input.EndTime,
				Capacity:  input.Capacity,
			}
			for _, quota := range input.Quotas {
				option.Quotas = append(option.Quotas, models.DepartmentQuota{
					Department: quota.Department,
					Quota:      quota.Quota,
				})
			}
			options = append(options, option)
		}
	}

	if err := s.events.CreateWithSchedule(ctx, event, options); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to create training event")
	}
	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionEventCreate,
		Resource:   "training_event",
		ResourceID: &event.ID,
	})

	response := &dto.CreateEventResponse{Event: *event}
	if event.AssignmentMode == models.AssignmentModeDraft && s.pool != nil {
		resolution, unresolved, err := s.pool.PopulatePool(ctx, event, req.TargetEmployeeIDs, actor.UserID)
		if err != nil {
			return nil, err
		}
		response.Resolution = resolution
		response.Unresolved = unresolved
	}
	return response, nil
}

// Get returns an event with its schedule options.
func (s *EventService) Get(ctx context.Context, id string) (*models.TrainingEvent, []models.EventDateOption, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, nil, mapLookupError(err, "training event not found")
	}
	options, err := s.events.ListDateOptions(ctx, id)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to list date options")
	}
	return event, options, nil
}

// List returns events with pool progress for the triage screen.
func (s *EventService) List(ctx context.Context, query dto.EventQuery) ([]models.EventSummary, error) {
	filter := models.EventFilter{
		TemplateID: query.TemplateID,
		From:       query.From,
		To:         query.To,
		Status:     query.Status,
	}
	if query.PageSize > 0 {
		filter.Limit = query.PageSize
		if query.Page > 1 {
			filter.Offset = (query.Page - 1) * query.PageSize
		}
	}
	events, err := s.events.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to list events")
	}
	return events, nil
}

func validateCreateEvent(req dto.CreateEventRequest) error {
	if req.TemplateID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "template is required")
	}
	if req.Title == "" {
		return appErrors.Clone(appErrors.ErrValidation, "title is required")
	}
	if req.AssignmentMode == models.AssignmentModeDraft && req.AssignmentDeadline == nil {
		return appErrors.Clone(appErrors.ErrValidation, "draft events require an assignment deadline")
	}
	if req.TargetMode == models.TargetModeDepartment && len(req.TargetDepartments) == 0 {
		return appErrors.Clone(appErrors.ErrValidation, "department targeting requires at least one department")
	}
	if req.TargetMode == models.TargetModeCustom && len(req.TargetEmployeeIDs) == 0 {
		return appErrors.Clone(appErrors.ErrValidation, "custom targeting requires an employee id list")
	}
	switch req.LocationType {
	case models.LocationZoom:
		if req.MeetingID == nil || *req.MeetingID == "" {
			return appErrors.Clone(appErrors.ErrValidation, "zoom events require a meeting id")
		}
	case models.LocationOffline:
		if req.LocationDetail == nil || *req.LocationDetail == "" {
			return appErrors.Clone(appErrors.ErrValidation, "offline events require an address")
		}
	default:
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown location type: %s", req.LocationType))
	}
	switch req.DateMode {
	case models.DateModeSingle:
		if req.EventDate == nil || req.StartTime == nil || req.EndTime == nil {
			return appErrors.Clone(appErrors.ErrValidation, "single-date events require date, start and end times")
		}
	case models.DateModeMultiple:
		if len(req.DateOptions) == 0 {
			return appErrors.Clone(appErrors.ErrValidation, "multi-date events require at least one date option")
		}
		for _, option := range req.DateOptions {
			if option.EventDate == "" || option.StartTime == "" || option.EndTime == "" {
				return appErrors.Clone(appErrors.ErrValidation, "date options require date, start and end times")
			}
			seen := make(map[string]bool, len(option.Quotas))
			for _, quota := range option.Quotas {
				if quota.Quota < 1 {
					return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("quota for %s must be at least 1", quota.Department))
				}
				if seen[quota.Department] {
					return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate quota for %s", quota.Department))
				}
				seen[quota.Department] = true
			}
		}
	default:
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown date mode: %s", req.DateMode))
	}
	return nil
}

func (s *EventService) emitAudit(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil || log == nil {
		return
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to store audit log", zap.Error(err))
	}
}
