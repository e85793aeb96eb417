package database

import (
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/armour-nexus/nexus-api/internal/config"
	"github.com/armour-nexus/nexus-api/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})
	return db
}

func TestDSN(t *testing.T) {
	cfg := &config.Config{
		DBDriver:   "postgres",
		DBHost:     "db",
		DBPort:     "5432",
		DBUser:     "nexus",
		DBPassword: "pw",
		DBName:     "armour_nexus",
	}

	dsn, err := DSN(cfg)
	require.NoError(t, err)
	assert.Equal(t, "host=db port=5432 user=nexus password=pw dbname=armour_nexus sslmode=disable TimeZone=UTC", dsn)

	cfg.DBDriver = "mysql"
	cfg.DBPort = "3306"
	dsn, err = DSN(cfg)
	require.NoError(t, err)
	assert.Equal(t, "nexus:pw@tcp(db:3306)/armour_nexus?charset=utf8mb4&parseTime=True&loc=UTC", dsn)

	cfg.DBDriver = "oracle"
	_, err = DSN(cfg)
	assert.Error(t, err)
}

func TestMigrateDatabase_SeedsPlansIdempotently(t *testing.T) {
	db := openSQLite(t)

	require.NoError(t, MigrateDatabase(db, zerolog.Nop()))

	// a stale row is overwritten by the next run
	require.NoError(t, db.Model(&models.PlanLimit{}).
		Where("plan = ?", models.PlanFree).
		Update("display_name", "Legacy").Error)
	require.NoError(t, MigrateDatabase(db, zerolog.Nop()))

	var plans []models.PlanLimit
	require.NoError(t, db.Order("price_cents").Find(&plans).Error)
	require.Len(t, plans, 3)
	assert.Equal(t, "Free", plans[0].DisplayName)
	require.NotNil(t, plans[0].AIChatMessages)
	assert.Equal(t, int64(50), *plans[0].AIChatMessages)
	assert.Equal(t, models.PlanArmouredElite, plans[2].Plan)
	assert.Nil(t, plans[2].TeamsAllowed)
}

func TestAddIndexes_Postgres(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	for i, idx := range postgresIndexes {
		existing := 0
		if i == 0 {
			existing = 1
		}
		mock.ExpectQuery(`SELECT COUNT\(\*\)\s+FROM pg_indexes`).
			WithArgs(idx.table, idx.name).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(existing))
		if existing == 0 {
			mock.ExpectExec(`CREATE (UNIQUE )?INDEX ` + idx.name).
				WillReturnResult(sqlmock.NewResult(0, 0))
		}
	}

	require.NoError(t, AddIndexes(db, zerolog.Nop()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddIndexes_SkipsOtherDialects(t *testing.T) {
	db := openSQLite(t)
	assert.NoError(t, AddIndexes(db, zerolog.Nop()))
}

func TestPaginate(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, Migrate(db))

	org := models.Organization{Name: "Acme", Slug: "acme", Timezone: "UTC"}
	require.NoError(t, db.Create(&org).Error)
	for i := 0; i < 5; i++ {
		require.NoError(t, db.Create(&models.Team{OrganizationID: org.ID, Name: fmt.Sprintf("Team %d", i)}).Error)
	}

	var page []models.Team
	require.NoError(t, db.Order("name").Scopes(Paginate(2, 2)).Find(&page).Error)
	require.Len(t, page, 2)
	assert.Equal(t, "Team 2", page[0].Name)

	var all []models.Team
	require.NoError(t, db.Scopes(Paginate(0, 0)).Find(&all).Error)
	assert.Len(t, all, 5)
}
