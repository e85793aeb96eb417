package models

import (
	"time"

	"github.com/google/uuid"
)

// Plan is a subscription tier.
type Plan string

const (
	PlanFree          Plan = "free"
	PlanArmoured      Plan = "armoured"
	PlanArmouredElite Plan = "armoured_elite"
)

// Valid reports whether p is a known plan.
func (p Plan) Valid() bool {
	switch p {
	case PlanFree, PlanArmoured, PlanArmouredElite:
		return true
	}
	return false
}

// Paid reports whether the plan is purchased through checkout.
func (p Plan) Paid() bool {
	return p == PlanArmoured || p == PlanArmouredElite
}

// SubscriptionStatus mirrors the payment processor's subscription status.
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionPastDue   SubscriptionStatus = "past_due"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
	SubscriptionEnded     SubscriptionStatus = "ended"
)

// Subscription holds the organization's plan. At most one row per organization.
type Subscription struct {
	BaseModel
	OrganizationID       uuid.UUID          `gorm:"type:char(36);not null;uniqueIndex" json:"organization_id"`
	Plan                 Plan               `gorm:"type:varchar(32);not null;default:'free'" json:"plan"`
	Status               SubscriptionStatus `gorm:"type:varchar(32);not null;default:'active'" json:"status"`
	StripeCustomerID     *string            `gorm:"type:varchar(255)" json:"-"`
	StripeSubscriptionID *string            `gorm:"type:varchar(255);index" json:"-"`
	CurrentPeriodStart   *time.Time         `json:"current_period_start,omitempty"`
	CurrentPeriodEnd     *time.Time         `json:"current_period_end,omitempty"`
	BillingCycleAnchor   *time.Time         `json:"billing_cycle_anchor,omitempty"`
	CancelAtPeriodEnd    bool               `gorm:"not null;default:false" json:"cancel_at_period_end"`
}
