package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/armour-nexus/nexus-api/internal/dto"
	apierrors "github.com/armour-nexus/nexus-api/internal/errors"
	"github.com/armour-nexus/nexus-api/internal/middleware"
	"github.com/armour-nexus/nexus-api/internal/models"
	"github.com/armour-nexus/nexus-api/internal/services"
	"github.com/armour-nexus/nexus-api/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// TeamHandler serves teams, rosters and the event schedule.
type TeamHandler struct {
	teamService  *services.TeamService
	eventService *services.EventService
}

func NewTeamHandler(teamService *services.TeamService, eventService *services.EventService) *TeamHandler {
	return &TeamHandler{
		teamService:  teamService,
		eventService: eventService,
	}
}

// CreateTeam creates a team within the plan's team allowance
func (h *TeamHandler) CreateTeam(c *gin.Context) {
	org, _ := middleware.GetOrganization(c)

	type CreateTeamRequest struct {
		Name        string `json:"name" binding:"required,max=255"`
		Game        string `json:"game" binding:"max=100"`
		Description string `json:"description"`
	}

	var req CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	team, err := h.teamService.CreateTeam(c.Request.Context(), services.CreateTeamInput{
		OrganizationID: org.ID,
		Name:           req.Name,
		Game:           req.Game,
		Description:    req.Description,
	})
	if err != nil {
		respondTeamError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTeamDTO(*team))
}

// ListTeams lists the organization's teams
func (h *TeamHandler) ListTeams(c *gin.Context) {
	org, _ := middleware.GetOrganization(c)

	teams, err := h.teamService.ListTeams(org.ID)
	if err != nil {
		respondTeamError(c, err)
		return
	}

	out := make([]dto.TeamDTO, len(teams))
	for i, t := range teams {
		out[i] = dto.ToTeamDTO(t)
	}
	c.JSON(http.StatusOK, gin.H{"teams": out})
}

// AddTeamMember adds a roster entry
func (h *TeamHandler) AddTeamMember(c *gin.Context) {
	org, _ := middleware.GetOrganization(c)
	team, _ := middleware.GetTeam(c)

	type AddMemberRequest struct {
		Name         string      `json:"name" binding:"required,max=255"`
		Email        string      `json:"email" binding:"omitempty,email"`
		Position     string      `json:"position" binding:"max=100"`
		Role         models.Role `json:"role"`
		JerseyNumber *int        `json:"jersey_number"`
	}

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	member, err := h.teamService.AddTeamMember(services.AddTeamMemberInput{
		OrganizationID: org.ID,
		TeamID:         team.ID,
		Name:           req.Name,
		Email:          req.Email,
		Position:       req.Position,
		Role:           req.Role,
		JerseyNumber:   req.JerseyNumber,
	})
	if err != nil {
		respondTeamError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTeamMemberDTO(*member))
}

// ListTeamMembers lists the active roster
func (h *TeamHandler) ListTeamMembers(c *gin.Context) {
	org, _ := middleware.GetOrganization(c)
	team, _ := middleware.GetTeam(c)

	members, err := h.teamService.ListTeamMembers(org.ID, team.ID)
	if err != nil {
		respondTeamError(c, err)
		return
	}

	out := make([]dto.TeamMemberDTO, len(members))
	for i, m := range members {
		out[i] = dto.ToTeamMemberDTO(m)
	}
	c.JSON(http.StatusOK, gin.H{"members": out})
}

// CreateEvent schedules an event
func (h *TeamHandler) CreateEvent(c *gin.Context) {
	org, _ := middleware.GetOrganization(c)
	userID, _ := middleware.GetUserID(c)

	type CreateEventRequest struct {
		TeamID      *uuid.UUID             `json:"team_id"`
		Title       string                 `json:"title" binding:"required,max=255"`
		Description string                 `json:"description"`
		EventType   models.EventType       `json:"event_type" binding:"required"`
		StartTime   time.Time              `json:"start_time" binding:"required"`
		EndTime     time.Time              `json:"end_time" binding:"required"`
		Location    string                 `json:"location" binding:"max=255"`
		Opponent    string                 `json:"opponent" binding:"max=255"`
		Visibility  models.EventVisibility `json:"visibility"`
	}

	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	event, err := h.eventService.CreateEvent(services.CreateEventInput{
		OrganizationID: org.ID,
		TeamID:         req.TeamID,
		CreatedBy:      userID,
		Title:          req.Title,
		Description:    req.Description,
		EventType:      req.EventType,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		Location:       req.Location,
		Opponent:       req.Opponent,
		Visibility:     req.Visibility,
	})
	if err != nil {
		respondTeamError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToEventDTO(*event))
}

// ListEvents lists upcoming events, optionally for one team
func (h *TeamHandler) ListEvents(c *gin.Context) {
	org, _ := middleware.GetOrganization(c)

	var teamID *uuid.UUID
	if raw := c.Query("team_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			apierrors.BadRequest(c, "Invalid team ID")
			return
		}
		teamID = &id
	}

	membership, ok := middleware.GetMembership(c)
	if !ok || membership.UserID == nil {
		apierrors.Forbidden(c, "")
		return
	}
	viewer := services.EventViewerFor(*membership.UserID, membership.Role)

	params := utils.GetPaginationParams(c)
	events, total, err := h.eventService.ListUpcomingEvents(org.ID, teamID, viewer, params)
	if err != nil {
		respondTeamError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToEventListResponse(events, params, total))
}

func respondTeamError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidTeamName),
		errors.Is(err, services.ErrInvalidRosterRole),
		errors.Is(err, services.ErrInvalidMemberName),
		errors.Is(err, services.ErrInvalidJerseyNumber),
		errors.Is(err, services.ErrInvalidEventTitle),
		errors.Is(err, services.ErrInvalidEventType),
		errors.Is(err, services.ErrInvalidEventVisibility),
		errors.Is(err, services.ErrInvalidEventTimeRange):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrTeamNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrTeamLimitReached):
		apierrors.LimitReached(c, err.Error())
	default:
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("team request failed")
		apierrors.InternalError(c, "")
	}
}
