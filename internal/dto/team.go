package dto

import (
	"time"

	"github.com/armour-nexus/nexus-api/internal/models"
	"github.com/armour-nexus/nexus-api/internal/utils"
	"github.com/google/uuid"
)

// TeamDTO represents a team in API responses
type TeamDTO struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	Name           string    `json:"name"`
	Game           string    `json:"game"`
	Description    string    `json:"description"`
	CreatedAt      time.Time `json:"created_at"`
}

// TeamMemberDTO represents a roster entry
type TeamMemberDTO struct {
	ID           uuid.UUID   `json:"id"`
	Name         string      `json:"name"`
	Email        string      `json:"email,omitempty"`
	Position     string      `json:"position,omitempty"`
	Role         models.Role `json:"role"`
	JerseyNumber *int        `json:"jersey_number,omitempty"`
}

// EventDTO represents a scheduled event
type EventDTO struct {
	ID          uuid.UUID              `json:"id"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	EventType   models.EventType       `json:"event_type"`
	StartTime   time.Time              `json:"start_time"`
	EndTime     time.Time              `json:"end_time"`
	Location    string                 `json:"location,omitempty"`
	Opponent    string                 `json:"opponent,omitempty"`
	Visibility  models.EventVisibility `json:"visibility"`
	Status      models.EventStatus     `json:"status"`
	Team        *TeamDTO               `json:"team,omitempty"`
	CreatedBy   uuid.UUID              `json:"created_by"`
}

// EventListResponse represents a paginated list of events
type EventListResponse struct {
	Events     []EventDTO               `json:"events"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// ToTeamDTO converts a Team model to TeamDTO
func ToTeamDTO(team models.Team) TeamDTO {
	return TeamDTO{
		ID:             team.ID,
		OrganizationID: team.OrganizationID,
		Name:           team.Name,
		Game:           team.Game,
		Description:    team.Description,
		CreatedAt:      team.CreatedAt,
	}
}

// ToTeamMemberDTO converts a roster entry to DTO
func ToTeamMemberDTO(m models.TeamMember) TeamMemberDTO {
	return TeamMemberDTO{
		ID:           m.ID,
		Name:         m.Name,
		Email:        m.Email,
		Position:     m.Position,
		Role:         m.Role,
		JerseyNumber: m.JerseyNumber,
	}
}

// ToEventDTO converts an Event model to EventDTO
func ToEventDTO(e models.Event) EventDTO {
	out := EventDTO{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		EventType:   e.EventType,
		StartTime:   e.StartTime,
		EndTime:     e.EndTime,
		Location:    e.Location,
		Opponent:    e.Opponent,
		Visibility:  e.Visibility,
		Status:      e.Status,
		CreatedBy:   e.CreatedBy,
	}
	// Include team if preloaded
	if e.Team != nil {
		team := ToTeamDTO(*e.Team)
		out.Team = &team
	}
	return out
}

// ToEventListResponse converts a page of events
func ToEventListResponse(events []models.Event, params utils.PaginationParams, total int64) EventListResponse {
	items := make([]EventDTO, len(events))
	for i, e := range events {
		items[i] = ToEventDTO(e)
	}
	return EventListResponse{
		Events:     items,
		Pagination: utils.NewPaginationResponse(params, total),
	}
}
