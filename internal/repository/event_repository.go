package repository

import (
	"github.com/armour-nexus/nexus-api/internal/database"
	"github.com/armour-nexus/nexus-api/internal/models"
	"gorm.io/gorm"
)

// GormEventRepository is a GORM implementation of EventRepository
type GormEventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates a new EventRepository
func NewEventRepository(db *gorm.DB) EventRepository {
	return &GormEventRepository{db: db}
}

// Create creates a new event
func (r *GormEventRepository) Create(event *models.Event) error {
	return r.db.Create(event).Error
}

// List retrieves events ordered by start time with filtering and pagination
func (r *GormEventRepository) List(filter EventFilter) ([]models.Event, int64, error) {
	var events []models.Event

	query := r.db.Model(&models.Event{}).Where("events.organization_id = ?", filter.OrganizationID)

	if filter.TeamID != nil {
		query = query.Where("events.team_id = ?", *filter.TeamID)
	}
	if filter.Status != nil {
		query = query.Where("events.status = ?", *filter.Status)
	}
	if filter.StartsAfter != nil {
		query = query.Where("events.start_time >= ?", *filter.StartsAfter)
	}
	if filter.Viewer != nil {
		query = query.Where(r.visibleTo(*filter.Viewer))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("events.start_time ASC").
		Scopes(database.Paginate(filter.Page, filter.PageSize)).
		Preload("Team").
		Find(&events).Error
	if err != nil {
		return nil, 0, err
	}

	return events, total, nil
}

// visibleTo groups the visibility rules into one OR condition.
func (r *GormEventRepository) visibleTo(v EventViewer) *gorm.DB {
	cond := r.db.Where("events.visibility = ?", models.VisibilityOrg).
		Or("events.created_by = ?", v.UserID)

	if v.AllTeams {
		cond = cond.Or("events.visibility = ?", models.VisibilityTeam)
	} else {
		rosters := r.db.Model(&models.TeamMember{}).
			Select("team_id").
			Where("user_id = ? AND status = ?", v.UserID, models.TeamMemberActive)
		cond = cond.Or("events.visibility = ? AND events.team_id IN (?)", models.VisibilityTeam, rosters)
	}

	if v.Private {
		cond = cond.Or("events.visibility = ?", models.VisibilityPrivate)
	}
	return cond
}
