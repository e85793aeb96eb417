package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/armour-nexus/nexus-api/internal/gate"
	"github.com/armour-nexus/nexus-api/internal/models"
	"github.com/armour-nexus/nexus-api/internal/repository"
	"github.com/armour-nexus/nexus-api/internal/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

var (
	ErrOrganizationNotFound       = errors.New("organization not found")
	ErrInvalidOrganizationName    = errors.New("organization name cannot be empty")
	ErrInvalidSlug                = errors.New("slug must contain only lowercase letters, numbers, and hyphens")
	ErrSlugTaken                  = errors.New("slug is already taken")
	ErrInvalidTimezone            = errors.New("unknown timezone")
	ErrInvalidRole                = errors.New("invalid role")
	ErrInviteTokenFailed          = errors.New("failed to generate invite token")
	ErrInvitationNotFound         = errors.New("invitation not found")
	ErrAlreadyOrganizationMember  = errors.New("user is already a member of this organization")
	ErrSeatLimitReached           = errors.New("member limit reached for the current plan")
	ErrCannotRemoveYourself       = errors.New("cannot remove yourself from the organization")
	ErrCannotRemoveOwner          = errors.New("the organization owner cannot be removed")
	ErrOrganizationMemberNotFound = errors.New("organization member not found")
)

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// PlanResolver resolves an organization's effective plan limits.
type PlanResolver interface {
	PlanLimits(ctx context.Context, orgID uuid.UUID) (models.Plan, models.PlanLimit, error)
}

// OrganizationService provides business logic for organizations, memberships and invitations.
type OrganizationService struct {
	orgRepo  repository.OrganizationRepository
	userRepo repository.UserRepository
	plans    PlanResolver
	now      func() time.Time
}

// NewOrganizationService creates a new OrganizationService.
func NewOrganizationService(orgRepo repository.OrganizationRepository, userRepo repository.UserRepository, plans PlanResolver) *OrganizationService {
	return &OrganizationService{
		orgRepo:  orgRepo,
		userRepo: userRepo,
		plans:    plans,
		now:      time.Now,
	}
}

// CreateOrganizationInput represents parameters to create a new organization.
type CreateOrganizationInput struct {
	Name        string
	Slug        string
	Description string
	Timezone    string
	OwnerID     uuid.UUID
}

// CreateOrganization creates an organization with its owner membership and free subscription.
func (s *OrganizationService) CreateOrganization(input CreateOrganizationInput) (*models.Organization, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrInvalidOrganizationName
	}
	slug := strings.TrimSpace(input.Slug)
	if !slugPattern.MatchString(slug) {
		return nil, ErrInvalidSlug
	}
	tz := input.Timezone
	if tz == "" {
		tz = "UTC"
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return nil, ErrInvalidTimezone
	}

	taken, err := s.orgRepo.SlugExists(slug)
	if err != nil {
		return nil, fmt.Errorf("failed to check slug: %w", err)
	}
	if taken {
		return nil, ErrSlugTaken
	}

	ownerID := input.OwnerID
	now := s.now()
	org := &models.Organization{
		Name:        name,
		Slug:        slug,
		Description: strings.TrimSpace(input.Description),
		Timezone:    tz,
		CreatedBy:   &ownerID,
	}
	owner := &models.Membership{
		UserID:   &ownerID,
		Role:     models.RoleOwner,
		Status:   models.MembershipActive,
		JoinedAt: &now,
	}
	sub := &models.Subscription{
		Plan:   models.PlanFree,
		Status: models.SubscriptionActive,
	}

	if err := s.orgRepo.CreateWithOwner(org, owner, sub); err != nil {
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	return org, nil
}

// ListOrganizationsForUser returns the active memberships of a user with their organizations.
func (s *OrganizationService) ListOrganizationsForUser(userID uuid.UUID) ([]models.Membership, error) {
	memberships, err := s.orgRepo.ListActiveMembershipsByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	return memberships, nil
}

// GetOrganizationWithMembers returns an organization and its active and invited members.
func (s *OrganizationService) GetOrganizationWithMembers(orgID uuid.UUID) (*models.Organization, []models.Membership, error) {
	org, err := s.orgRepo.FindByID(orgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrOrganizationNotFound
		}
		return nil, nil, fmt.Errorf("failed to find organization: %w", err)
	}

	members, err := s.orgRepo.ListMembers(orgID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list organization members: %w", err)
	}

	return org, members, nil
}

// RemoveMember deactivates a membership. Owners cannot be removed and members
// cannot remove someone ranked at or above themselves unless they are the owner.
func (s *OrganizationService) RemoveMember(orgID uuid.UUID, actor *models.Membership, membershipID uuid.UUID) error {
	if actor.ID == membershipID {
		return ErrCannotRemoveYourself
	}

	target, err := s.orgRepo.FindMembership(orgID, membershipID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrganizationMemberNotFound
		}
		return fmt.Errorf("failed to find organization member: %w", err)
	}

	if target.Role == models.RoleOwner {
		return ErrCannotRemoveOwner
	}
	if actor.Role != models.RoleOwner && !gate.CheckRole(actor.Role, target.Role) {
		return gate.ErrForbidden
	}
	if actor.Role != models.RoleOwner && actor.Role == target.Role {
		return gate.ErrForbidden
	}

	if err := s.orgRepo.RemoveMember(target); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	return nil
}

// InviteMemberInput holds the parameters of an invitation.
type InviteMemberInput struct {
	OrganizationID uuid.UUID
	InvitedBy      uuid.UUID
	Email          string
	Role           models.Role
}

// InviteMember creates or refreshes the pending invitation for an email.
func (s *OrganizationService) InviteMember(ctx context.Context, input InviteMemberInput) (*models.Membership, error) {
	if !input.Role.Invitable() {
		return nil, ErrInvalidRole
	}
	email := repository.NormalizeEmail(input.Email)
	if email == "" {
		return nil, ErrInvalidEmail
	}

	if existing, err := s.orgRepo.FindMembershipByEmail(input.OrganizationID, email); err == nil {
		if existing.Status == models.MembershipActive {
			return nil, ErrAlreadyOrganizationMember
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check invitation: %w", err)
	} else if err := s.checkSeatAvailable(ctx, input.OrganizationID); err != nil {
		return nil, err
	}

	if user, err := s.userRepo.FindByEmail(email); err == nil {
		if _, err := s.orgRepo.FindActiveMembership(input.OrganizationID, user.ID); err == nil {
			return nil, ErrAlreadyOrganizationMember
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to verify membership: %w", err)
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	token, err := utils.GenerateInviteToken()
	if err != nil {
		return nil, ErrInviteTokenFailed
	}

	invitedBy := input.InvitedBy
	sentAt := s.now()
	invite := &models.Membership{
		OrganizationID: input.OrganizationID,
		Role:           input.Role,
		Status:         models.MembershipInvited,
		InvitedEmail:   &email,
		InviteToken:    &token,
		InvitedBy:      &invitedBy,
		InviteSentAt:   &sentAt,
	}
	if err := s.orgRepo.UpsertInvitation(invite); err != nil {
		return nil, fmt.Errorf("failed to save invitation: %w", err)
	}

	zerolog.Ctx(ctx).Info().
		Str("organization_id", input.OrganizationID.String()).
		Str("role", string(input.Role)).
		Msg("member invited")

	return invite, nil
}

func (s *OrganizationService) checkSeatAvailable(ctx context.Context, orgID uuid.UUID) error {
	_, limits, err := s.plans.PlanLimits(ctx, orgID)
	if err != nil {
		return fmt.Errorf("failed to resolve plan: %w", err)
	}
	if limits.TeamMembersAllowed == nil {
		return nil
	}
	seats, err := s.orgRepo.CountSeats(orgID)
	if err != nil {
		return fmt.Errorf("failed to count members: %w", err)
	}
	if seats >= *limits.TeamMembersAllowed {
		return ErrSeatLimitReached
	}
	return nil
}

// AcceptInvitation activates the invitation for the authenticated user.
func (s *OrganizationService) AcceptInvitation(token string, userID uuid.UUID) (*models.Membership, error) {
	invite, err := s.orgRepo.FindInvitationByToken(strings.TrimSpace(token))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, fmt.Errorf("failed to find invitation: %w", err)
	}

	if err := s.orgRepo.AcceptInvitation(invite, userID, s.now()); err != nil {
		switch {
		case errors.Is(err, repository.ErrActiveMembershipExists):
			return nil, ErrAlreadyOrganizationMember
		case errors.Is(err, repository.ErrInvitationNotPending):
			return nil, ErrInvitationNotFound
		default:
			return nil, fmt.Errorf("failed to accept invitation: %w", err)
		}
	}

	return invite, nil
}
