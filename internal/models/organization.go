package models

import "github.com/google/uuid"

type Organization struct {
	BaseModel
	Name             string     `gorm:"type:varchar(255);not null" json:"name"`
	Slug             string     `gorm:"type:varchar(100);uniqueIndex;not null" json:"slug"`
	Description      string     `gorm:"type:text" json:"description"`
	Timezone         string     `gorm:"type:varchar(64);not null;default:'UTC'" json:"timezone"`
	StripeCustomerID *string    `gorm:"type:varchar(255)" json:"-"`
	CreatedBy        *uuid.UUID `gorm:"type:char(36)" json:"created_by,omitempty"`

	// Relations
	Memberships  []Membership  `gorm:"foreignKey:OrganizationID" json:"members,omitempty"`
	Teams        []Team        `gorm:"foreignKey:OrganizationID" json:"teams,omitempty"`
	Subscription *Subscription `gorm:"foreignKey:OrganizationID" json:"subscription,omitempty"`
}
