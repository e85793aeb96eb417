package repository

import (
	"time"

	"github.com/armour-nexus/nexus-api/internal/models"
	"github.com/google/uuid"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uuid.UUID) (*models.User, error)

	// FindByEmail finds a user by normalized email
	FindByEmail(email string) (*models.User, error)
}

// OrganizationRepository defines the interface for organization and membership data access
type OrganizationRepository interface {
	// CreateWithOwner creates an organization, its owner membership and its
	// free subscription in a single transaction.
	CreateWithOwner(org *models.Organization, owner *models.Membership, sub *models.Subscription) error

	// FindByID finds an organization by ID
	FindByID(id uuid.UUID) (*models.Organization, error)

	// SlugExists reports whether a slug is already taken
	SlugExists(slug string) (bool, error)

	// SetStripeCustomerID stores the payment processor customer for an organization
	SetStripeCustomerID(id uuid.UUID, customerID string) error

	// FindActiveMembership finds the user's active membership in an organization
	FindActiveMembership(organizationID, userID uuid.UUID) (*models.Membership, error)

	// FindMembership finds a membership row by ID within an organization
	FindMembership(organizationID, membershipID uuid.UUID) (*models.Membership, error)

	// ListActiveMembershipsByUserID lists the organizations a user belongs to
	ListActiveMembershipsByUserID(userID uuid.UUID) ([]models.Membership, error)

	// ListMembers lists active and invited members of an organization
	ListMembers(organizationID uuid.UUID) ([]models.Membership, error)

	// CountSeats counts active and pending memberships
	CountSeats(organizationID uuid.UUID) (int64, error)

	// RemoveMember deactivates and soft deletes a membership
	RemoveMember(membership *models.Membership) error

	// FindMembershipByEmail finds a membership that has not been removed by invited email
	FindMembershipByEmail(organizationID uuid.UUID, email string) (*models.Membership, error)

	// UpsertInvitation creates or refreshes the pending invitation for
	// (organization, invited email)
	UpsertInvitation(invite *models.Membership) error

	// FindInvitationByToken finds a pending invitation by its token
	FindInvitationByToken(token string) (*models.Membership, error)

	// AcceptInvitation binds a user to a pending invitation
	AcceptInvitation(invite *models.Membership, userID uuid.UUID, joinedAt time.Time) error
}

// TeamRepository defines the interface for team and roster data access
type TeamRepository interface {
	// Create creates a new team
	Create(team *models.Team) error

	// FindByID finds a team within an organization
	FindByID(organizationID, teamID uuid.UUID) (*models.Team, error)

	// ListByOrganization lists the teams of an organization
	ListByOrganization(organizationID uuid.UUID) ([]models.Team, error)

	// CountByOrganization counts the teams of an organization
	CountByOrganization(organizationID uuid.UUID) (int64, error)

	// AddMember adds a roster entry
	AddMember(member *models.TeamMember) error

	// ListActiveMembers lists the active roster of a team
	ListActiveMembers(teamID uuid.UUID, limit int) ([]models.TeamMember, error)
}

// EventRepository defines the interface for event data access
type EventRepository interface {
	// Create creates a new event
	Create(event *models.Event) error

	// List retrieves events with filtering and pagination
	List(filter EventFilter) ([]models.Event, int64, error)
}

// EventFilter holds filtering options for listing events
type EventFilter struct {
	OrganizationID uuid.UUID
	TeamID         *uuid.UUID
	Status         *models.EventStatus
	StartsAfter    *time.Time
	// Viewer restricts the listing by event visibility. Nil lists everything.
	Viewer   *EventViewer
	Page     int
	PageSize int
}

// EventViewer describes who is listing events. Org wide events and the
// viewer's own events are always visible.
type EventViewer struct {
	UserID uuid.UUID
	// AllTeams shows team events of every team, not only the viewer's rosters.
	AllTeams bool
	// Private shows private events created by others.
	Private bool
}

// SubscriptionRepository defines the interface for subscription data access
type SubscriptionRepository interface {
	// FindByOrganizationID finds the subscription of an organization
	FindByOrganizationID(organizationID uuid.UUID) (*models.Subscription, error)

	// Upsert creates or replaces the subscription keyed by organization
	Upsert(sub *models.Subscription) error

	// UpdateByOrganizationID applies field updates and reports whether a row matched
	UpdateByOrganizationID(organizationID uuid.UUID, fields map[string]interface{}) (bool, error)
}
