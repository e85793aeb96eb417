package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/armour-nexus/nexus-api/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupRepositoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Organization{},
		&models.Membership{},
		&models.Team{},
		&models.TeamMember{},
		&models.Event{},
		&models.Subscription{},
	))
	return db
}

func createOrgWithOwner(t *testing.T, repo OrganizationRepository, db *gorm.DB, slug string) (*models.Organization, *models.User) {
	t.Helper()

	owner := &models.User{Email: slug + "-owner@example.com"}
	require.NoError(t, db.Create(owner).Error)

	now := time.Now()
	org := &models.Organization{Name: slug, Slug: slug, Timezone: "UTC", CreatedBy: &owner.ID}
	require.NoError(t, repo.CreateWithOwner(org,
		&models.Membership{UserID: &owner.ID, Role: models.RoleOwner, Status: models.MembershipActive, JoinedAt: &now},
		&models.Subscription{Plan: models.PlanFree, Status: models.SubscriptionActive},
	))
	return org, owner
}

func invitation(orgID uuid.UUID, email string, role models.Role) *models.Membership {
	token := uuid.NewString()
	sent := time.Now()
	return &models.Membership{
		OrganizationID: orgID,
		Role:           role,
		InvitedEmail:   &email,
		InviteToken:    &token,
		InviteSentAt:   &sent,
	}
}

func TestOrganizationRepository_CreateWithOwner(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewOrganizationRepository(db)

	org, owner := createOrgWithOwner(t, repo, db, "acme")

	membership, err := repo.FindActiveMembership(org.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleOwner, membership.Role)

	var sub models.Subscription
	require.NoError(t, db.Where("organization_id = ?", org.ID).First(&sub).Error)
	assert.Equal(t, models.PlanFree, sub.Plan)

	exists, err := repo.SlugExists("acme")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestOrganizationRepository_CreateWithOwner_RollsBackOnDuplicateSlug(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewOrganizationRepository(db)
	createOrgWithOwner(t, repo, db, "acme")

	user := &models.User{Email: "second@example.com"}
	require.NoError(t, db.Create(user).Error)

	err := repo.CreateWithOwner(
		&models.Organization{Name: "Acme 2", Slug: "acme", Timezone: "UTC"},
		&models.Membership{UserID: &user.ID, Role: models.RoleOwner, Status: models.MembershipActive},
		&models.Subscription{Plan: models.PlanFree, Status: models.SubscriptionActive},
	)
	require.ErrorIs(t, err, ErrCreateOrganization)

	var count int64
	require.NoError(t, db.Model(&models.Membership{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestOrganizationRepository_UpsertInvitation_KeyedByEmail(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewOrganizationRepository(db)
	org, _ := createOrgWithOwner(t, repo, db, "acme")

	first := invitation(org.ID, "coach@example.com", models.RoleCoach)
	second := invitation(org.ID, "player@example.com", models.RolePlayer)
	require.NoError(t, repo.UpsertInvitation(first))
	require.NoError(t, repo.UpsertInvitation(second))

	// A second pending invitation must not clobber the first.
	found, err := repo.FindInvitationByToken(*first.InviteToken)
	require.NoError(t, err)
	assert.Equal(t, "coach@example.com", *found.InvitedEmail)
	assert.Equal(t, models.RoleCoach, found.Role)

	seats, err := repo.CountSeats(org.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), seats)

	// Re-inviting the same email refreshes the existing row.
	again := invitation(org.ID, "COACH@example.com", models.RoleManager)
	require.NoError(t, repo.UpsertInvitation(again))
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, models.RoleManager, again.Role)

	_, err = repo.FindInvitationByToken(*first.InviteToken)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	seats, err = repo.CountSeats(org.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), seats)
}

func TestOrganizationRepository_UpsertInvitation_RestoresRemovedMember(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewOrganizationRepository(db)
	org, _ := createOrgWithOwner(t, repo, db, "acme")

	invite := invitation(org.ID, "player@example.com", models.RolePlayer)
	require.NoError(t, repo.UpsertInvitation(invite))
	require.NoError(t, repo.RemoveMember(invite))

	_, err := repo.FindMembershipByEmail(org.ID, "player@example.com")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	again := invitation(org.ID, "player@example.com", models.RoleCoach)
	require.NoError(t, repo.UpsertInvitation(again))
	assert.Equal(t, models.MembershipInvited, again.Status)
	assert.Equal(t, models.RoleCoach, again.Role)
}

func TestOrganizationRepository_AcceptInvitation(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewOrganizationRepository(db)
	org, owner := createOrgWithOwner(t, repo, db, "acme")

	player := &models.User{Email: "player@example.com"}
	require.NoError(t, db.Create(player).Error)

	invite := invitation(org.ID, player.Email, models.RolePlayer)
	require.NoError(t, repo.UpsertInvitation(invite))

	require.NoError(t, repo.AcceptInvitation(invite, player.ID, time.Now()))
	membership, err := repo.FindActiveMembership(org.ID, player.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RolePlayer, membership.Role)
	assert.Nil(t, membership.InviteToken)

	// The invitation cannot be accepted twice.
	err = repo.AcceptInvitation(invite, player.ID, time.Now())
	assert.ErrorIs(t, err, ErrActiveMembershipExists)

	// An existing active member cannot accept another invitation to the same organization.
	ownerInvite := invitation(org.ID, "owner-alias@example.com", models.RoleCoach)
	require.NoError(t, repo.UpsertInvitation(ownerInvite))
	err = repo.AcceptInvitation(ownerInvite, owner.ID, time.Now())
	assert.ErrorIs(t, err, ErrActiveMembershipExists)
}

func TestOrganizationRepository_ListMembersSkipsRemoved(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewOrganizationRepository(db)
	org, _ := createOrgWithOwner(t, repo, db, "acme")

	invite := invitation(org.ID, "gone@example.com", models.RolePlayer)
	require.NoError(t, repo.UpsertInvitation(invite))
	require.NoError(t, repo.RemoveMember(invite))

	members, err := repo.ListMembers(org.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, models.RoleOwner, members[0].Role)

	// Soft deleted rows are kept.
	var removed models.Membership
	require.NoError(t, db.Unscoped().Where("id = ?", invite.ID).First(&removed).Error)
	assert.Equal(t, models.MembershipInactive, removed.Status)
	assert.True(t, removed.DeletedAt.Valid)
}
