package dto

import (
	"time"

	"github.com/armour-nexus/nexus-api/internal/models"
	"github.com/google/uuid"
)

// OrganizationDTO represents an organization in API responses
type OrganizationDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Timezone    string    `json:"timezone"`
	CreatedAt   time.Time `json:"created_at"`
}

// OrganizationWithRoleDTO represents an organization with the user's role
type OrganizationWithRoleDTO struct {
	OrganizationDTO
	Role models.Role `json:"role"`
}

// MemberDTO represents an active member or a pending invitation
type MemberDTO struct {
	ID           uuid.UUID               `json:"id"`
	User         *UserDTO                `json:"user,omitempty"`
	InvitedEmail *string                 `json:"invited_email,omitempty"`
	Role         models.Role             `json:"role"`
	Status       models.MembershipStatus `json:"status"`
	JoinedAt     *time.Time              `json:"joined_at,omitempty"`
	InviteSentAt *time.Time              `json:"invite_sent_at,omitempty"`
}

// OrganizationDetailDTO represents detailed organization information
type OrganizationDetailDTO struct {
	OrganizationDTO
	Members  []MemberDTO `json:"members"`
	YourRole models.Role `json:"your_role"`
}

// InvitationDTO is returned to the inviter. The token is delivered out of band
// and only echoed here so the invite link can be built.
type InvitationDTO struct {
	MemberDTO
	OrganizationID uuid.UUID `json:"organization_id"`
	InviteToken    string    `json:"invite_token"`
}

// ToOrganizationDTO converts an Organization model to OrganizationDTO
func ToOrganizationDTO(org models.Organization) OrganizationDTO {
	return OrganizationDTO{
		ID:          org.ID,
		Name:        org.Name,
		Slug:        org.Slug,
		Description: org.Description,
		Timezone:    org.Timezone,
		CreatedAt:   org.CreatedAt,
	}
}

// ToOrganizationWithRoleDTO converts a membership to DTO with role
func ToOrganizationWithRoleDTO(m models.Membership) OrganizationWithRoleDTO {
	return OrganizationWithRoleDTO{
		OrganizationDTO: ToOrganizationDTO(m.Organization),
		Role:            m.Role,
	}
}

// ToMemberDTO converts a membership to DTO
func ToMemberDTO(m models.Membership) MemberDTO {
	out := MemberDTO{
		ID:           m.ID,
		InvitedEmail: m.InvitedEmail,
		Role:         m.Role,
		Status:       m.Status,
		JoinedAt:     m.JoinedAt,
		InviteSentAt: m.InviteSentAt,
	}
	if m.User != nil {
		u := ToUserDTO(*m.User)
		out.User = &u
	}
	return out
}

// ToOrganizationDetailDTO converts organization with members to detailed DTO
func ToOrganizationDetailDTO(org models.Organization, members []models.Membership, yourRole models.Role) OrganizationDetailDTO {
	memberDTOs := make([]MemberDTO, len(members))
	for i, member := range members {
		memberDTOs[i] = ToMemberDTO(member)
	}

	return OrganizationDetailDTO{
		OrganizationDTO: ToOrganizationDTO(org),
		Members:         memberDTOs,
		YourRole:        yourRole,
	}
}

// ToInvitationDTO converts a pending membership to DTO
func ToInvitationDTO(m models.Membership) InvitationDTO {
	out := InvitationDTO{
		MemberDTO:      ToMemberDTO(m),
		OrganizationID: m.OrganizationID,
	}
	if m.InviteToken != nil {
		out.InviteToken = *m.InviteToken
	}
	return out
}
