package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/armour-nexus/nexus-api/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrCreateOrganization is returned when the organization insert fails inside the create transaction.
	ErrCreateOrganization = errors.New("organization repository: create organization failed")
	// ErrCreateMembership is returned when the owner membership insert fails inside the create transaction.
	ErrCreateMembership = errors.New("organization repository: create owner membership failed")
	// ErrCreateSubscription is returned when the free subscription insert fails inside the create transaction.
	ErrCreateSubscription = errors.New("organization repository: create subscription failed")
	// ErrActiveMembershipExists is returned when a user already holds an active membership.
	ErrActiveMembershipExists = errors.New("organization repository: active membership exists")
	// ErrInvitationNotPending is returned when an invitation was accepted or revoked concurrently.
	ErrInvitationNotPending = errors.New("organization repository: invitation is not pending")
)

// GormOrganizationRepository is a GORM implementation of OrganizationRepository
type GormOrganizationRepository struct {
	db *gorm.DB
}

// NewOrganizationRepository creates a new OrganizationRepository
func NewOrganizationRepository(db *gorm.DB) OrganizationRepository {
	return &GormOrganizationRepository{db: db}
}

// CreateWithOwner creates the organization, the owner membership and the free subscription atomically.
func (r *GormOrganizationRepository) CreateWithOwner(org *models.Organization, owner *models.Membership, sub *models.Subscription) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(org).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateOrganization, err)
		}

		owner.OrganizationID = org.ID
		if err := tx.Create(owner).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateMembership, err)
		}

		sub.OrganizationID = org.ID
		if err := tx.Create(sub).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateSubscription, err)
		}

		return nil
	})
}

// FindByID finds an organization by ID
func (r *GormOrganizationRepository) FindByID(id uuid.UUID) (*models.Organization, error) {
	var org models.Organization
	if err := r.db.Where("id = ?", id).First(&org).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

// SlugExists reports whether a slug is taken, including by deleted organizations
func (r *GormOrganizationRepository) SlugExists(slug string) (bool, error) {
	var count int64
	if err := r.db.Unscoped().Model(&models.Organization{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// SetStripeCustomerID stores the payment processor customer ID
func (r *GormOrganizationRepository) SetStripeCustomerID(id uuid.UUID, customerID string) error {
	return r.db.Model(&models.Organization{}).Where("id = ?", id).
		Update("stripe_customer_id", customerID).Error
}

// FindActiveMembership finds the user's active membership
func (r *GormOrganizationRepository) FindActiveMembership(organizationID, userID uuid.UUID) (*models.Membership, error) {
	var m models.Membership
	if err := r.db.Where("organization_id = ? AND user_id = ? AND status = ?", organizationID, userID, models.MembershipActive).
		First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// FindMembership finds a membership by ID within an organization
func (r *GormOrganizationRepository) FindMembership(organizationID, membershipID uuid.UUID) (*models.Membership, error) {
	var m models.Membership
	if err := r.db.Where("organization_id = ? AND id = ?", organizationID, membershipID).
		First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// ListActiveMembershipsByUserID lists all organizations a user is an active member of
func (r *GormOrganizationRepository) ListActiveMembershipsByUserID(userID uuid.UUID) ([]models.Membership, error) {
	var memberships []models.Membership
	if err := r.db.Preload("Organization").
		Where("user_id = ? AND status = ?", userID, models.MembershipActive).
		Order("created_at ASC").
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}

// ListMembers lists active and invited members of an organization
func (r *GormOrganizationRepository) ListMembers(organizationID uuid.UUID) ([]models.Membership, error) {
	var members []models.Membership
	if err := r.db.Preload("User").
		Where("organization_id = ? AND status IN ?", organizationID,
			[]models.MembershipStatus{models.MembershipActive, models.MembershipInvited}).
		Order("created_at ASC").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// CountSeats counts active and pending memberships
func (r *GormOrganizationRepository) CountSeats(organizationID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Model(&models.Membership{}).
		Where("organization_id = ? AND status IN ?", organizationID,
			[]models.MembershipStatus{models.MembershipActive, models.MembershipInvited}).
		Count(&count).Error
	return count, err
}

// RemoveMember marks the membership inactive and soft deletes it
func (r *GormOrganizationRepository) RemoveMember(membership *models.Membership) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(membership).Update("status", models.MembershipInactive).Error; err != nil {
			return err
		}
		return tx.Delete(membership).Error
	})
}

// FindMembershipByEmail finds a live membership row by invited email. Removed
// (soft deleted) rows are not matched, so a removed member can be re-invited.
func (r *GormOrganizationRepository) FindMembershipByEmail(organizationID uuid.UUID, email string) (*models.Membership, error) {
	var m models.Membership
	if err := r.db.Where("organization_id = ? AND invited_email = ?", organizationID, NormalizeEmail(email)).
		First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// UpsertInvitation inserts the invitation or refreshes the existing row for the
// same (organization, invited email). Other pending invitations are untouched.
func (r *GormOrganizationRepository) UpsertInvitation(invite *models.Membership) error {
	email := NormalizeEmail(*invite.InvitedEmail)
	invite.InvitedEmail = &email
	invite.Status = models.MembershipInvited

	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "organization_id"}, {Name: "invited_email"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"role":           invite.Role,
			"status":         models.MembershipInvited,
			"invite_token":   invite.InviteToken,
			"invited_by":     invite.InvitedBy,
			"invite_sent_at": invite.InviteSentAt,
			"user_id":        nil,
			"joined_at":      nil,
			"deleted_at":     nil,
			"updated_at":     time.Now(),
		}),
	}).Create(invite).Error; err != nil {
		return err
	}

	// Reload so callers see the surviving row's ID after a conflict update.
	var stored models.Membership
	if err := r.db.Where("organization_id = ? AND invited_email = ?", invite.OrganizationID, email).
		First(&stored).Error; err != nil {
		return err
	}
	*invite = stored
	return nil
}

// FindInvitationByToken finds a pending invitation
func (r *GormOrganizationRepository) FindInvitationByToken(token string) (*models.Membership, error) {
	var m models.Membership
	if err := r.db.Preload("Organization").
		Where("invite_token = ? AND status = ?", token, models.MembershipInvited).
		First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// AcceptInvitation binds the user to the invitation. It fails when the user
// already has an active membership in the organization.
func (r *GormOrganizationRepository) AcceptInvitation(invite *models.Membership, userID uuid.UUID, joinedAt time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Membership{}).
			Where("organization_id = ? AND user_id = ? AND status = ?", invite.OrganizationID, userID, models.MembershipActive).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrActiveMembershipExists
		}

		res := tx.Model(&models.Membership{}).
			Where("id = ? AND status = ?", invite.ID, models.MembershipInvited).
			Updates(map[string]interface{}{
				"user_id":      userID,
				"status":       models.MembershipActive,
				"joined_at":    joinedAt,
				"invite_token": nil,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvitationNotPending
		}

		invite.UserID = &userID
		invite.Status = models.MembershipActive
		invite.JoinedAt = &joinedAt
		invite.InviteToken = nil
		return nil
	})
}
