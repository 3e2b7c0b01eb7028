package db

import (
	"fmt"

	"cityideas/internal/models"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

const defaultPostgresDSN = "host=localhost user=postgres password=postgres dbname=cityideas port=5432 sslmode=disable TimeZone=UTC"

// Open connects with the named driver ("postgres" or "sqlite") and migrates
// the schema.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "", "postgres":
		if dsn == "" {
			// Fallback for local dev if not set
			dsn = defaultPostgresDSN
		}
		dialector = postgres.Open(dsn)
	case "sqlite":
		if dsn == "" {
			dsn = "cityideas.db"
		}
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}

	if driver == "sqlite" {
		// sqlite allows one writer; funnel everything through one connection.
		sqlDB, err := conn.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		if err := conn.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
	}

	if err := Migrate(conn); err != nil {
		return nil, err
	}
	return conn, nil
}

// Migrate creates or updates all tables.
func Migrate(conn *gorm.DB) error {
	err := conn.AutoMigrate(
		&models.User{},
		&models.City{},
		&models.Idea{},
		&models.Vote{},
		&models.Comment{},
		&models.Notification{},
	)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Init opens the process-wide connection and seeds default data.
func Init(driver, dsn string) {
	var err error
	DB, err = Open(driver, dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	log.Info().Str("driver", driver).Msg("Database connection established")

	if err := SeedCities(DB); err != nil {
		log.Error().Err(err).Msg("Failed to seed cities")
	}
}

// SeedCities inserts the default cities when the table is empty.
func SeedCities(conn *gorm.DB) error {
	var count int64
	if err := conn.Model(&models.City{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Debug().Msg("Cities already seeded, skipping")
		return nil
	}

	cities := []models.City{
		{Name: "Киселевск", Description: "Промышленный центр Кемеровской области", Latitude: 54.0000, Longitude: 86.5833, Zoom: models.DefaultZoom, IsActive: true},
		{Name: "Кемерово", Description: "Столица Кузбасса", Latitude: 55.3544, Longitude: 86.0878, Zoom: models.DefaultZoom, IsActive: true},
		{Name: "Новокузнецк", Description: "Крупнейший город Кузбасса", Latitude: 53.7557, Longitude: 87.1094, Zoom: models.DefaultZoom, IsActive: true},
	}
	if err := conn.Create(&cities).Error; err != nil {
		return err
	}
	log.Info().Int("count", len(cities)).Msg("Initial cities created")
	return nil
}
