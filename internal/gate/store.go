package gate

import (
	"context"
	"errors"
	"time"

	"github.com/armour-nexus/nexus-api/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned by Store lookups that match no row.
var ErrNotFound = errors.New("gate store: not found")

// UsageKey identifies one usage accumulator row.
type UsageKey struct {
	OrganizationID uuid.UUID
	UserID         uuid.UUID
	Category       models.UsageCategory
	Period         string
	PeriodStart    time.Time
}

// Store is the relational state the gate reads. The only writes it performs are
// to usage records.
type Store interface {
	FindOrganization(ctx context.Context, orgID uuid.UUID) (*models.Organization, error)
	FindActiveMembership(ctx context.Context, orgID, userID uuid.UUID) (*models.Membership, error)
	TeamInOrganization(ctx context.Context, teamID, orgID uuid.UUID) (bool, error)
	FindSubscription(ctx context.Context, orgID uuid.UUID) (*models.Subscription, error)
	FindPlanLimit(ctx context.Context, plan models.Plan) (*models.PlanLimit, error)

	GetUsage(ctx context.Context, key UsageKey) (int64, error)
	// AddUsage atomically upserts count and cost increments.
	AddUsage(ctx context.Context, key UsageKey, amount, costUnits int64) error
	// EnsureUsageRow creates the zero row for key if it does not exist.
	EnsureUsageRow(ctx context.Context, key UsageKey) error
	// TryReserve increments the count only while the result stays within limit.
	// It reports false when the increment would exceed the limit.
	TryReserve(ctx context.Context, key UsageKey, amount, limit int64) (bool, error)
	// ReleaseUsage undoes an earlier reservation.
	ReleaseUsage(ctx context.Context, key UsageKey, amount int64) error
}

// GormStore implements Store on gorm.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GormStore
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *GormStore) FindOrganization(ctx context.Context, orgID uuid.UUID) (*models.Organization, error) {
	var org models.Organization
	if err := s.db.WithContext(ctx).Where("id = ?", orgID).First(&org).Error; err != nil {
		return nil, notFound(err)
	}
	return &org, nil
}

func (s *GormStore) FindActiveMembership(ctx context.Context, orgID, userID uuid.UUID) (*models.Membership, error) {
	var m models.Membership
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND user_id = ? AND status = ?", orgID, userID, models.MembershipActive).
		First(&m).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

func (s *GormStore) TeamInOrganization(ctx context.Context, teamID, orgID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Team{}).
		Where("id = ? AND organization_id = ?", teamID, orgID).
		Count(&count).Error
	return count > 0, err
}

func (s *GormStore) FindSubscription(ctx context.Context, orgID uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	if err := s.db.WithContext(ctx).Where("organization_id = ?", orgID).First(&sub).Error; err != nil {
		return nil, notFound(err)
	}
	return &sub, nil
}

func (s *GormStore) FindPlanLimit(ctx context.Context, plan models.Plan) (*models.PlanLimit, error) {
	var pl models.PlanLimit
	if err := s.db.WithContext(ctx).Where("plan = ?", plan).First(&pl).Error; err != nil {
		return nil, notFound(err)
	}
	return &pl, nil
}

func (s *GormStore) keyQuery(ctx context.Context, key UsageKey) *gorm.DB {
	return s.db.WithContext(ctx).Model(&models.UsageRecord{}).
		Where("organization_id = ? AND user_id = ? AND category = ? AND period = ?",
			key.OrganizationID, key.UserID, key.Category, key.Period)
}

var usageConflictColumns = []clause.Column{
	{Name: "organization_id"}, {Name: "user_id"}, {Name: "category"}, {Name: "period"},
}

func (s *GormStore) GetUsage(ctx context.Context, key UsageKey) (int64, error) {
	var records []models.UsageRecord
	if err := s.keyQuery(ctx, key).Limit(1).Find(&records).Error; err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}
	return records[0].UsageCount, nil
}

func (s *GormStore) AddUsage(ctx context.Context, key UsageKey, amount, costUnits int64) error {
	record := models.UsageRecord{
		ID:             uuid.New(),
		OrganizationID: key.OrganizationID,
		UserID:         key.UserID,
		Category:       key.Category,
		Period:         key.Period,
		PeriodStart:    key.PeriodStart,
		UsageCount:     amount,
		CostUnits:      costUnits,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: usageConflictColumns,
		DoUpdates: clause.Assignments(map[string]interface{}{
			"usage_count": gorm.Expr("usage_records.usage_count + ?", amount),
			"cost_units":  gorm.Expr("usage_records.cost_units + ?", costUnits),
			"updated_at":  time.Now(),
		}),
	}).Create(&record).Error
}

func (s *GormStore) EnsureUsageRow(ctx context.Context, key UsageKey) error {
	record := models.UsageRecord{
		ID:             uuid.New(),
		OrganizationID: key.OrganizationID,
		UserID:         key.UserID,
		Category:       key.Category,
		Period:         key.Period,
		PeriodStart:    key.PeriodStart,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   usageConflictColumns,
		DoNothing: true,
	}).Create(&record).Error
}

func (s *GormStore) TryReserve(ctx context.Context, key UsageKey, amount, limit int64) (bool, error) {
	res := s.keyQuery(ctx, key).
		Where("usage_count + ? <= ?", amount, limit).
		Updates(map[string]interface{}{
			"usage_count": gorm.Expr("usage_count + ?", amount),
			"updated_at":  time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *GormStore) ReleaseUsage(ctx context.Context, key UsageKey, amount int64) error {
	return s.keyQuery(ctx, key).
		Where("usage_count >= ?", amount).
		Updates(map[string]interface{}{
			"usage_count": gorm.Expr("usage_count - ?", amount),
			"updated_at":  time.Now(),
		}).Error
}
