package repository

import (
	"github.com/armour-nexus/nexus-api/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormTeamRepository is a GORM implementation of TeamRepository
type GormTeamRepository struct {
	db *gorm.DB
}

// NewTeamRepository creates a new TeamRepository
func NewTeamRepository(db *gorm.DB) TeamRepository {
	return &GormTeamRepository{db: db}
}

// Create creates a new team
func (r *GormTeamRepository) Create(team *models.Team) error {
	return r.db.Create(team).Error
}

// FindByID finds a team within an organization
func (r *GormTeamRepository) FindByID(organizationID, teamID uuid.UUID) (*models.Team, error) {
	var team models.Team
	if err := r.db.Where("id = ? AND organization_id = ?", teamID, organizationID).First(&team).Error; err != nil {
		return nil, err
	}
	return &team, nil
}

// ListByOrganization lists teams ordered by name
func (r *GormTeamRepository) ListByOrganization(organizationID uuid.UUID) ([]models.Team, error) {
	var teams []models.Team
	if err := r.db.Where("organization_id = ?", organizationID).Order("name ASC").Find(&teams).Error; err != nil {
		return nil, err
	}
	return teams, nil
}

// CountByOrganization counts teams of an organization
func (r *GormTeamRepository) CountByOrganization(organizationID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Model(&models.Team{}).Where("organization_id = ?", organizationID).Count(&count).Error
	return count, err
}

// AddMember adds a roster entry
func (r *GormTeamRepository) AddMember(member *models.TeamMember) error {
	return r.db.Create(member).Error
}

// ListActiveMembers lists active roster entries, limited when limit > 0
func (r *GormTeamRepository) ListActiveMembers(teamID uuid.UUID, limit int) ([]models.TeamMember, error) {
	var members []models.TeamMember
	query := r.db.Where("team_id = ? AND status = ?", teamID, models.TeamMemberActive).Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}
