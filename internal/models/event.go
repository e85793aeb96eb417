package models

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventTypeMatch    EventType = "match"
	EventTypeScrim    EventType = "scrim"
	EventTypePractice EventType = "practice"
	EventTypeMeeting  EventType = "meeting"
	EventTypeOther    EventType = "other"
)

type EventVisibility string

const (
	VisibilityOrg     EventVisibility = "org"
	VisibilityTeam    EventVisibility = "team"
	VisibilityPrivate EventVisibility = "private"
)

type EventStatus string

const (
	EventStatusScheduled EventStatus = "scheduled"
	EventStatusCompleted EventStatus = "completed"
	EventStatusCancelled EventStatus = "cancelled"
)

type Event struct {
	BaseModel
	OrganizationID uuid.UUID       `gorm:"type:char(36);not null;index" json:"organization_id"`
	TeamID         *uuid.UUID      `gorm:"type:char(36);index" json:"team_id,omitempty"`
	Title          string          `gorm:"type:varchar(255);not null" json:"title"`
	Description    string          `gorm:"type:text" json:"description"`
	EventType      EventType       `gorm:"type:varchar(20);not null" json:"event_type"`
	StartTime      time.Time       `gorm:"not null;index" json:"start_time"`
	EndTime        time.Time       `gorm:"not null" json:"end_time"`
	Location       string          `gorm:"type:varchar(255)" json:"location,omitempty"`
	Opponent       string          `gorm:"type:varchar(255)" json:"opponent,omitempty"`
	Visibility     EventVisibility `gorm:"type:varchar(20);not null;default:'org'" json:"visibility"`
	Status         EventStatus     `gorm:"type:varchar(20);not null;default:'scheduled'" json:"status"`
	CreatedBy      uuid.UUID       `gorm:"type:char(36);not null" json:"created_by"`

	// Relations
	Team    *Team `gorm:"foreignKey:TeamID" json:"team,omitempty"`
	Creator *User `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
}
