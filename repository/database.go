package repository

import (
	"fmt"

	"youth-sports-gamification/models"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the configured store. "postgres" is the production driver;
// "sqlite" is a pure-Go file store for local runs.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "", "postgres":
		if dsn == "" {
			return nil, fmt.Errorf("storage dsn is required for postgres")
		}
		dialector = postgres.Open(dsn)
	case "sqlite":
		if dsn == "" {
			dsn = "gamification.db"
		}
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if driver == "sqlite" {
		// one writer at a time, or sqlite answers "database is locked"
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("sqlite handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// Models lists every table the engine owns.
func Models() []interface{} {
	return []interface{}{
		&models.UserProgress{},
		&models.ActionEvent{},
		&models.XPAward{},
		&models.StreakState{},
		&models.UserBadge{},
		&models.GameRecord{},
		&models.SeasonGoal{},
		&models.SuspiciousActivity{},
	}
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
