package models

import (
	"time"

	"github.com/google/uuid"
)

type MembershipStatus string

const (
	MembershipActive   MembershipStatus = "active"
	MembershipInvited  MembershipStatus = "invited"
	MembershipInactive MembershipStatus = "inactive"
)

// Membership links a user to an organization. Pending invitations have no user
// until accepted and are keyed by (organization, invited email).
type Membership struct {
	BaseModel
	OrganizationID uuid.UUID        `gorm:"type:char(36);not null;index;uniqueIndex:idx_memberships_org_email,priority:1" json:"organization_id"`
	UserID         *uuid.UUID       `gorm:"type:char(36);index" json:"user_id,omitempty"`
	Role           Role             `gorm:"type:varchar(20);not null" json:"role"`
	Status         MembershipStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	InvitedEmail   *string          `gorm:"type:varchar(255);uniqueIndex:idx_memberships_org_email,priority:2" json:"invited_email,omitempty"`
	InviteToken    *string          `gorm:"type:varchar(64);uniqueIndex" json:"-"`
	InvitedBy      *uuid.UUID       `gorm:"type:char(36)" json:"invited_by,omitempty"`
	InviteSentAt   *time.Time       `json:"invite_sent_at,omitempty"`
	JoinedAt       *time.Time       `json:"joined_at,omitempty"`

	// Relations
	Organization Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	User         *User        `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// IsActive reports whether the membership grants access.
func (m Membership) IsActive() bool {
	return m.Status == MembershipActive && m.UserID != nil
}
