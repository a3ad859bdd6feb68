package database

import (
	"downtime/models"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to Postgres, migrates the schema and seeds the default
// admin account. The returned handle is passed to each store constructor;
// there is no package-level singleton.
func Open(dsn string, log zerolog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	if err := seedDefaultAdmin(db, log); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate creates or updates the schema. Exported so tests can run it
// against an in-memory database.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Facility{},
		&models.ProductionLine{},
		&models.DowntimeCategory{},
		&models.Shift{},
		&models.User{},
		&models.Downtime{},
		&models.AuditEntry{},
	)
}

func seedDefaultAdmin(db *gorm.DB, log zerolog.Logger) error {
	var count int64
	db.Model(&models.User{}).Where("username = ?", "admin").Count(&count)
	if count > 0 {
		return nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := models.User{
		Username:           "admin",
		FullName:           "Administrator",
		PasswordHash:       string(hashedPassword),
		Role:               models.RoleAdmin,
		MustChangePassword: true,
	}

	if result := db.Create(&admin); result.Error != nil {
		return result.Error
	}

	log.Info().Msg("default admin user created (username: admin, password: admin)")
	return nil
}
