package database

import (
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// postgresIndexes cover constraints and lookups AutoMigrate cannot express.
var postgresIndexes = []struct {
	table string
	name  string
	def   string
}{
	// one active membership per user and organization
	{"memberships", "idx_memberships_active_user", "CREATE UNIQUE INDEX idx_memberships_active_user ON memberships (organization_id, user_id) WHERE status = 'active' AND deleted_at IS NULL"},
	{"memberships", "idx_memberships_user_status", "CREATE INDEX idx_memberships_user_status ON memberships (user_id, status)"},
	{"events", "idx_events_org_start", "CREATE INDEX idx_events_org_start ON events (organization_id, status, start_time)"},
	{"team_members", "idx_team_members_team_status", "CREATE INDEX idx_team_members_team_status ON team_members (team_id, status)"},
	{"usage_records", "idx_usage_records_period_start", "CREATE INDEX idx_usage_records_period_start ON usage_records (period_start)"},
}

// AddIndexes adds partial and composite indexes on postgres. Other dialects are skipped.
func AddIndexes(db *gorm.DB, log zerolog.Logger) error {
	if db.Dialector.Name() != "postgres" {
		log.Debug().Str("dialect", db.Dialector.Name()).Msg("skipping postgres indexes")
		return nil
	}

	for _, idx := range postgresIndexes {
		var count int64
		err := db.Raw(`
			SELECT COUNT(*)
			FROM pg_indexes
			WHERE tablename = ? AND indexname = ?
		`, idx.table, idx.name).Scan(&count).Error
		if err != nil {
			return fmt.Errorf("failed to check index %s: %w", idx.name, err)
		}

		if count > 0 {
			log.Debug().Str("index", idx.name).Msg("index already exists")
			continue
		}

		if err := db.Exec(idx.def).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
		log.Info().Str("index", idx.name).Str("table", idx.table).Msg("created index")
	}

	return nil
}

// MigrateDatabase runs migrations, indexes and plan seeding in order.
func MigrateDatabase(db *gorm.DB, log zerolog.Logger) error {
	if err := Migrate(db); err != nil {
		return err
	}
	if err := AddIndexes(db, log); err != nil {
		return fmt.Errorf("failed to add indexes: %w", err)
	}
	if err := SeedPlanLimits(db); err != nil {
		return err
	}
	log.Info().Msg("database migrations completed")
	return nil
}
