package database

import (
	"fmt"
	"log"

	"github.com/gdg-garage/checkin-api/internal/config"
	"github.com/gdg-garage/checkin-api/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Connect(cfg *config.Config) *gorm.DB {
	db, err := Open(cfg.DatabaseDriver, dsn(cfg))
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := Migrate(db); err != nil {
		log.Fatalf("Failed to auto migrate: %v", err)
	}

	return db
}

// Open connects without migrating. TranslateError is always on so that
// unique violations surface as gorm.ErrDuplicatedKey on both drivers.
func Open(driver, dsn string) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	}

	var dialector gorm.Dialector
	switch driver {
	case config.DriverSQLite:
		dialector = sqlite.Open(dsn)
	case config.DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, err
	}

	if driver == config.DriverSQLite {
		// sqlite serialises writers; a single connection avoids SQLITE_BUSY
		// and keeps ":memory:" databases shared across the pool.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.Event{}, &models.Registration{}, &models.RegistrationHistory{}, &models.APIKey{})
}

// NewInMemory returns a migrated sqlite database living in process memory.
func NewInMemory() (*gorm.DB, error) {
	db, err := Open(config.DriverSQLite, ":memory:")
	if err != nil {
		return nil, err
	}
	db.Logger = logger.Default.LogMode(logger.Silent)
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// SeedAPIKey makes sure the bootstrap staff key exists.
func SeedAPIKey(db *gorm.DB, key string) error {
	if key == "" {
		return nil
	}
	apiKey := models.APIKey{Key: key, Name: "bootstrap", CreatedBy: "config"}
	return db.Where(models.APIKey{Key: key}).FirstOrCreate(&apiKey).Error
}

func dsn(cfg *config.Config) string {
	if cfg.DatabaseDriver == config.DriverPostgres {
		return cfg.DatabaseURL
	}
	return cfg.DatabasePath
}
