package models

import "github.com/google/uuid"

type Team struct {
	BaseModel
	OrganizationID uuid.UUID `gorm:"type:char(36);not null;index" json:"organization_id"`
	Name           string    `gorm:"type:varchar(255);not null" json:"name"`
	Game           string    `gorm:"type:varchar(100)" json:"game"`
	Description    string    `gorm:"type:text" json:"description"`

	// Relations
	Members []TeamMember `gorm:"foreignKey:TeamID" json:"members,omitempty"`
}

type TeamMemberStatus string

const (
	TeamMemberActive   TeamMemberStatus = "active"
	TeamMemberInactive TeamMemberStatus = "inactive"
)

// TeamMember is a roster entry. It does not need a user account.
type TeamMember struct {
	BaseModel
	TeamID       uuid.UUID        `gorm:"type:char(36);not null;index" json:"team_id"`
	UserID       *uuid.UUID       `gorm:"type:char(36)" json:"user_id,omitempty"`
	Name         string           `gorm:"type:varchar(255);not null" json:"name"`
	Email        string           `gorm:"type:varchar(255)" json:"email,omitempty"`
	Position     string           `gorm:"type:varchar(100)" json:"position,omitempty"`
	Role         Role             `gorm:"type:varchar(20);not null;default:'player'" json:"role"`
	JerseyNumber *int             `json:"jersey_number,omitempty"`
	Status       TeamMemberStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
}
