package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/armour-nexus/nexus-api/internal/models"
	"github.com/armour-nexus/nexus-api/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrTeamNotFound        = errors.New("team not found")
	ErrInvalidTeamName     = errors.New("team name cannot be empty")
	ErrTeamLimitReached    = errors.New("team limit reached for the current plan")
	ErrInvalidRosterRole   = errors.New("roster role must be player, coach, or manager")
	ErrInvalidMemberName   = errors.New("member name cannot be empty")
	ErrInvalidJerseyNumber = errors.New("jersey number must be between 0 and 99")
)

// TeamService provides business logic for teams and rosters.
type TeamService struct {
	teamRepo repository.TeamRepository
	plans    PlanResolver
}

// NewTeamService creates a new TeamService.
func NewTeamService(teamRepo repository.TeamRepository, plans PlanResolver) *TeamService {
	return &TeamService{
		teamRepo: teamRepo,
		plans:    plans,
	}
}

// CreateTeamInput represents parameters to create a team.
type CreateTeamInput struct {
	OrganizationID uuid.UUID
	Name           string
	Game           string
	Description    string
}

// CreateTeam creates a team within the plan's team allowance.
func (s *TeamService) CreateTeam(ctx context.Context, input CreateTeamInput) (*models.Team, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrInvalidTeamName
	}

	_, limits, err := s.plans.PlanLimits(ctx, input.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve plan: %w", err)
	}
	if limits.TeamsAllowed != nil {
		count, err := s.teamRepo.CountByOrganization(input.OrganizationID)
		if err != nil {
			return nil, fmt.Errorf("failed to count teams: %w", err)
		}
		if count >= *limits.TeamsAllowed {
			return nil, ErrTeamLimitReached
		}
	}

	team := &models.Team{
		OrganizationID: input.OrganizationID,
		Name:           name,
		Game:           strings.TrimSpace(input.Game),
		Description:    strings.TrimSpace(input.Description),
	}
	if err := s.teamRepo.Create(team); err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	return team, nil
}

// ListTeams returns the organization's teams.
func (s *TeamService) ListTeams(orgID uuid.UUID) ([]models.Team, error) {
	teams, err := s.teamRepo.ListByOrganization(orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	return teams, nil
}

// GetTeam returns a team that belongs to the organization.
func (s *TeamService) GetTeam(orgID, teamID uuid.UUID) (*models.Team, error) {
	team, err := s.teamRepo.FindByID(orgID, teamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to find team: %w", err)
	}
	return team, nil
}

// AddTeamMemberInput represents a roster entry to add.
type AddTeamMemberInput struct {
	OrganizationID uuid.UUID
	TeamID         uuid.UUID
	Name           string
	Email          string
	Position       string
	Role           models.Role
	JerseyNumber   *int
}

// AddTeamMember adds a roster entry to a team of the organization.
func (s *TeamService) AddTeamMember(input AddTeamMemberInput) (*models.TeamMember, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrInvalidMemberName
	}
	role := input.Role
	if role == "" {
		role = models.RolePlayer
	}
	switch role {
	case models.RolePlayer, models.RoleCoach, models.RoleManager:
	default:
		return nil, ErrInvalidRosterRole
	}
	if input.JerseyNumber != nil && (*input.JerseyNumber < 0 || *input.JerseyNumber > 99) {
		return nil, ErrInvalidJerseyNumber
	}

	if _, err := s.GetTeam(input.OrganizationID, input.TeamID); err != nil {
		return nil, err
	}

	member := &models.TeamMember{
		TeamID:       input.TeamID,
		Name:         name,
		Email:        repository.NormalizeEmail(input.Email),
		Position:     strings.TrimSpace(input.Position),
		Role:         role,
		JerseyNumber: input.JerseyNumber,
		Status:       models.TeamMemberActive,
	}
	if err := s.teamRepo.AddMember(member); err != nil {
		return nil, fmt.Errorf("failed to add team member: %w", err)
	}
	return member, nil
}

// ListTeamMembers returns the active roster of a team of the organization.
func (s *TeamService) ListTeamMembers(orgID, teamID uuid.UUID) ([]models.TeamMember, error) {
	if _, err := s.GetTeam(orgID, teamID); err != nil {
		return nil, err
	}
	members, err := s.teamRepo.ListActiveMembers(teamID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list team members: %w", err)
	}
	return members, nil
}
