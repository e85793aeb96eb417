package models

import (
	"time"

	"github.com/google/uuid"
)

// UsageCategory is a metered action class.
type UsageCategory string

const (
	CategoryAIChat          UsageCategory = "ai_chat"
	CategoryImageGeneration UsageCategory = "image_generation"
	CategoryCheckout        UsageCategory = "checkout"
)

// Valid reports whether c is a known category.
func (c UsageCategory) Valid() bool {
	switch c {
	case CategoryAIChat, CategoryImageGeneration, CategoryCheckout:
		return true
	}
	return false
}

// UsageRecord accumulates consumption for one (organization, user, category, month).
type UsageRecord struct {
	ID             uuid.UUID     `gorm:"type:char(36);primaryKey" json:"id"`
	OrganizationID uuid.UUID     `gorm:"type:char(36);not null;uniqueIndex:idx_usage_key,priority:1" json:"organization_id"`
	UserID         uuid.UUID     `gorm:"type:char(36);not null;uniqueIndex:idx_usage_key,priority:2" json:"user_id"`
	Category       UsageCategory `gorm:"type:varchar(32);not null;uniqueIndex:idx_usage_key,priority:3" json:"category"`
	Period         string        `gorm:"type:char(7);not null;uniqueIndex:idx_usage_key,priority:4" json:"period"`
	PeriodStart    time.Time     `gorm:"not null" json:"period_start"`
	UsageCount     int64         `gorm:"not null;default:0" json:"usage_count"`
	CostUnits      int64         `gorm:"not null;default:0" json:"cost_units"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}
