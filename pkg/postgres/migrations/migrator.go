package migrations

import (
	"database/sql"
	"fmt"
	"time"

	_202508041200_participants "github.com/steakhouse-fi/sizzle/pkg/postgres/migrations/202508041200_participants"
	_202508041215_phaseMemberships "github.com/steakhouse-fi/sizzle/pkg/postgres/migrations/202508041215_phaseMemberships"
	_202508041230_allocationRecords "github.com/steakhouse-fi/sizzle/pkg/postgres/migrations/202508041230_allocationRecords"
	_202508041245_phaseSettlements "github.com/steakhouse-fi/sizzle/pkg/postgres/migrations/202508041245_phaseSettlements"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Migration interface {
	Up(db *sql.DB, grm *gorm.DB) error
	GetName() string
}

type Migrator struct {
	Db     *sql.DB
	GDb    *gorm.DB
	Logger *zap.Logger
}

func NewMigrator(db *sql.DB, gDb *gorm.DB, l *zap.Logger) *Migrator {
	initializeMigrationTable(gDb)
	return &Migrator{
		Db:     db,
		GDb:    gDb,
		Logger: l,
	}
}

func initializeMigrationTable(db *gorm.DB) error {
	query := `
		create table if not exists migrations (
			name text primary key,
			created_at timestamp with time zone default current_timestamp,
			updated_at timestamp with time zone default null
		)`
	result := db.Exec(query)
	return result.Error
}

func (m *Migrator) MigrateAll() error {
	migrations := []Migration{
		&_202508041200_participants.Migration{},
		&_202508041215_phaseMemberships.Migration{},
		&_202508041230_allocationRecords.Migration{},
		&_202508041245_phaseSettlements.Migration{},
	}

	for _, migration := range migrations {
		if err := m.Migrate(migration); err != nil {
			return err
		}
	}
	return nil
}

func (m *Migrator) Migrate(migration Migration) error {
	name := migration.GetName()

	// Check if migration has already been run
	var count int
	result := m.GDb.Raw("select count(*) from migrations where name = ?", name).Scan(&count)
	if result.Error != nil {
		return fmt.Errorf("failed to check migration status for '%s': %w", name, result.Error)
	}

	if count == 0 {
		m.Logger.Sugar().Debugf("Running migration '%s'", name)
		if err := migration.Up(m.Db, m.GDb); err != nil {
			m.Logger.Sugar().Errorw("Failed to run migration", zap.String("name", name), zap.Error(err))
			return err
		}

		state := &Migrations{
			Name:      name,
			CreatedAt: time.Now(),
		}
		result = m.GDb.Model(&Migrations{}).Clauses().Create(&state)
		if result.Error != nil {
			m.Logger.Sugar().Errorw("Failed to record migration", zap.String("name", name), zap.Error(result.Error))
			return result.Error
		}
	}
	return nil
}

type Migrations struct {
	Name      string `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
