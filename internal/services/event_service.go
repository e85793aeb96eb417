package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/armour-nexus/nexus-api/internal/gate"
	"github.com/armour-nexus/nexus-api/internal/models"
	"github.com/armour-nexus/nexus-api/internal/repository"
	"github.com/armour-nexus/nexus-api/internal/utils"
	"github.com/google/uuid"
)

var (
	ErrInvalidEventTitle      = errors.New("event title cannot be empty")
	ErrInvalidEventType       = errors.New("invalid event type")
	ErrInvalidEventVisibility = errors.New("invalid event visibility")
	ErrInvalidEventTimeRange  = errors.New("event end time must be after its start time")
)

// EventService provides business logic for scheduling.
type EventService struct {
	eventRepo repository.EventRepository
	teams     *TeamService
	now       func() time.Time
}

// NewEventService creates a new EventService.
func NewEventService(eventRepo repository.EventRepository, teams *TeamService) *EventService {
	return &EventService{
		eventRepo: eventRepo,
		teams:     teams,
		now:       time.Now,
	}
}

// CreateEventInput represents parameters to schedule an event.
type CreateEventInput struct {
	OrganizationID uuid.UUID
	TeamID         *uuid.UUID
	CreatedBy      uuid.UUID
	Title          string
	Description    string
	EventType      models.EventType
	StartTime      time.Time
	EndTime        time.Time
	Location       string
	Opponent       string
	Visibility     models.EventVisibility
}

func validEventType(t models.EventType) bool {
	switch t {
	case models.EventTypeMatch, models.EventTypeScrim, models.EventTypePractice, models.EventTypeMeeting, models.EventTypeOther:
		return true
	}
	return false
}

func validVisibility(v models.EventVisibility) bool {
	switch v {
	case models.VisibilityOrg, models.VisibilityTeam, models.VisibilityPrivate:
		return true
	}
	return false
}

// CreateEvent schedules an event. A team, when given, must belong to the organization.
func (s *EventService) CreateEvent(input CreateEventInput) (*models.Event, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrInvalidEventTitle
	}
	if !validEventType(input.EventType) {
		return nil, ErrInvalidEventType
	}
	visibility := input.Visibility
	if visibility == "" {
		visibility = models.VisibilityOrg
	}
	if !validVisibility(visibility) {
		return nil, ErrInvalidEventVisibility
	}
	if !input.EndTime.After(input.StartTime) {
		return nil, ErrInvalidEventTimeRange
	}
	if input.TeamID != nil {
		if _, err := s.teams.GetTeam(input.OrganizationID, *input.TeamID); err != nil {
			return nil, err
		}
	}

	event := &models.Event{
		OrganizationID: input.OrganizationID,
		TeamID:         input.TeamID,
		Title:          title,
		Description:    strings.TrimSpace(input.Description),
		EventType:      input.EventType,
		StartTime:      input.StartTime.UTC(),
		EndTime:        input.EndTime.UTC(),
		Location:       strings.TrimSpace(input.Location),
		Opponent:       strings.TrimSpace(input.Opponent),
		Visibility:     visibility,
		Status:         models.EventStatusScheduled,
		CreatedBy:      input.CreatedBy,
	}
	if err := s.eventRepo.Create(event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	return event, nil
}

// EventViewerFor maps a member to the events they may list. Managers see the
// team events of every team; admins and owners also see private events.
func EventViewerFor(userID uuid.UUID, role models.Role) repository.EventViewer {
	return repository.EventViewer{
		UserID:   userID,
		AllTeams: gate.CheckRole(role, models.RoleManager),
		Private:  gate.CheckRole(role, models.RoleAdmin),
	}
}

// ListUpcomingEvents returns the scheduled events the viewer may see that have
// not started yet.
func (s *EventService) ListUpcomingEvents(orgID uuid.UUID, teamID *uuid.UUID, viewer repository.EventViewer, params utils.PaginationParams) ([]models.Event, int64, error) {
	status := models.EventStatusScheduled
	from := s.now().UTC()

	events, total, err := s.eventRepo.List(repository.EventFilter{
		OrganizationID: orgID,
		TeamID:         teamID,
		Status:         &status,
		StartsAfter:    &from,
		Viewer:         &viewer,
		Page:           params.Page,
		PageSize:       params.Limit,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list events: %w", err)
	}
	return events, total, nil
}
