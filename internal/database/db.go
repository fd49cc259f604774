package database

import (
	"fmt"
	"log"
	"strings"

	"github.com/campuswatch/campuswatch/internal/campus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the global database instance
var DB *gorm.DB

// Connect establishes the database connection. PostgreSQL is the production
// store; a DSN of the form "sqlite://path" (or ":memory:") selects the
// embedded sqlite driver for local development.
func Connect(dsn string, logLevel logger.LogLevel) error {
	var (
		dialector gorm.Dialector
		err       error
	)

	switch {
	case strings.HasPrefix(dsn, "sqlite://"):
		dialector = sqlite.Open(strings.TrimPrefix(dsn, "sqlite://"))
	case dsn == ":memory:":
		dialector = sqlite.Open(dsn)
	default:
		dialector = postgres.Open(dsn)
	}

	DB, err = gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Println("Database connection established")
	return nil
}

// AutoMigrate runs database migrations
func AutoMigrate() error {
	log.Println("Running database migrations...")

	err := DB.AutoMigrate(
		&User{},
		&Incident{},
		&SlackSettings{},
		&AggregationSettings{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

// InitializeDefaults creates default records if they don't exist
func InitializeDefaults(adminName, adminEmail, adminPasswordHash string) error {
	log.Println("Initializing default database records...")

	// Seed the admin account so a fresh deployment has at least one
	// authority user able to approve registrations.
	var count int64
	DB.Model(&User{}).Where("role = ?", campus.RoleAdmin).Count(&count)
	if count == 0 {
		admin := &User{
			Name:         adminName,
			Email:        adminEmail,
			PasswordHash: adminPasswordHash,
			Role:         campus.RoleAdmin,
			Status:       campus.UserStatusApproved,
		}
		if err := DB.Create(admin).Error; err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}
		log.Printf("Created default admin user: %s", adminEmail)
	}

	// Create default Slack settings if they don't exist
	DB.Model(&SlackSettings{}).Count(&count)
	if count == 0 {
		defaultSlackSettings := &SlackSettings{
			Enabled: false, // Disabled by default until configured
		}
		if err := DB.Create(defaultSlackSettings).Error; err != nil {
			return fmt.Errorf("failed to create default slack settings: %w", err)
		}
		log.Println("Created default Slack settings (disabled)")
	}

	// Ensure the aggregation settings singleton exists
	if _, err := GetOrCreateAggregationSettings(DB); err != nil {
		return fmt.Errorf("failed to initialize aggregation settings: %w", err)
	}

	return nil
}

// GetSlackSettings retrieves Slack settings from the database
func GetSlackSettings() (*SlackSettings, error) {
	var settings SlackSettings
	if err := DB.First(&settings).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}

// UpdateSlackSettings updates Slack settings in the database. Save writes
// every field, so clearing the token or disabling delivery persists.
func UpdateSlackSettings(settings *SlackSettings) error {
	return DB.Save(settings).Error
}

// GetOrCreateAggregationSettings retrieves or creates aggregation settings
// (singleton). Accepts a db parameter rather than using the global DB to
// support transaction contexts and easier testing.
func GetOrCreateAggregationSettings(db *gorm.DB) (*AggregationSettings, error) {
	var settings AggregationSettings
	result := db.First(&settings)
	if result.Error == gorm.ErrRecordNotFound {
		settings = *NewDefaultAggregationSettings()
		if err := db.Create(&settings).Error; err != nil {
			return nil, err
		}
	} else if result.Error != nil {
		return nil, result.Error
	}
	return &settings, nil
}

// UpdateAggregationSettings updates aggregation settings.
// Uses Save() which handles both insert and update operations.
func UpdateAggregationSettings(db *gorm.DB, settings *AggregationSettings) error {
	return db.Save(settings).Error
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}

// Close closes the database connection
func Close() error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
