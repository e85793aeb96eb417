package repository

import (
	"time"

	"github.com/armour-nexus/nexus-api/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSubscriptionRepository is a GORM implementation of SubscriptionRepository
type GormSubscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new SubscriptionRepository
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &GormSubscriptionRepository{db: db}
}

// FindByOrganizationID finds the subscription of an organization
func (r *GormSubscriptionRepository) FindByOrganizationID(organizationID uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.Where("organization_id = ?", organizationID).First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

// Upsert writes the subscription keyed by organization. The organization keeps one row.
func (r *GormSubscriptionRepository) Upsert(sub *models.Subscription) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "organization_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"plan":                   sub.Plan,
			"status":                 sub.Status,
			"stripe_customer_id":     sub.StripeCustomerID,
			"stripe_subscription_id": sub.StripeSubscriptionID,
			"current_period_start":   sub.CurrentPeriodStart,
			"current_period_end":     sub.CurrentPeriodEnd,
			"billing_cycle_anchor":   sub.BillingCycleAnchor,
			"cancel_at_period_end":   sub.CancelAtPeriodEnd,
			"deleted_at":             nil,
			"updated_at":             time.Now(),
		}),
	}).Create(sub).Error
}

// UpdateByOrganizationID applies field updates to the organization's subscription
func (r *GormSubscriptionRepository) UpdateByOrganizationID(organizationID uuid.UUID, fields map[string]interface{}) (bool, error) {
	res := r.db.Model(&models.Subscription{}).Where("organization_id = ?", organizationID).Updates(fields)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
