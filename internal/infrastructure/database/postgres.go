package database

import (
	"fmt"

	"wellness-appointments/config"
	"wellness-appointments/internal/domain/entity"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

func NewPostgresConnection(cfg config.DBConfig, timezone string, env string) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=%s",
		cfg.Host, cfg.User, cfg.Password, cfg.Name, cfg.Port, timezone,
	)

	logLevel := logger.Warn
	if env == "development" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	// Set connection pool settings
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	logrus.Info("Successfully connected to PostgreSQL database")

	return db, nil
}

// Migrate creates or updates the tables and makes sure the fixed roles exist
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&entity.Role{},
		&entity.User{},
		&entity.Appointment{},
		&entity.AppointmentType{},
		&entity.Doctor{},
		&entity.AuditLog{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	roles := []entity.Role{
		{ID: entity.RoleIDEmployee, RoleName: entity.RoleEmployee, Description: "Employee booking their own appointments"},
		{ID: entity.RoleIDEmployer, RoleName: entity.RoleEmployer, Description: "Employer administrator with audit access"},
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&roles).Error; err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}

	logrus.Info("Database migration completed")
	return nil
}
