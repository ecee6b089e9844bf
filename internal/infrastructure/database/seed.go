package database

import (
	"context"
	"fmt"

	"wellness-appointments/internal/domain/entity"
	"wellness-appointments/internal/domain/repository"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// DefaultAppointmentTypes is the wellness catalog installed on an empty database
func DefaultAppointmentTypes() []entity.AppointmentType {
	return []entity.AppointmentType{
		{Name: "Annual Physical", Category: "preventive", Description: "Yearly full-body checkup with your primary care physician", DurationMinutes: 45, RecommendedIntervalMonths: 12, Copay: decimal.Zero},
		{Name: "Dental Cleaning", Category: "dental", Description: "Routine cleaning and exam", DurationMinutes: 60, RecommendedIntervalMonths: 6, Copay: decimal.NewFromInt(15)},
		{Name: "Eye Exam", Category: "vision", Description: "Comprehensive vision and eye health exam", DurationMinutes: 30, RecommendedIntervalMonths: 12, Copay: decimal.NewFromInt(10)},
		{Name: "Skin Check", Category: "dermatology", Description: "Full-body skin screening", DurationMinutes: 30, RecommendedIntervalMonths: 12, Copay: decimal.NewFromInt(25)},
		{Name: "Mental Health Consultation", Category: "mental_health", Description: "Session with a licensed counselor", DurationMinutes: 50, RecommendedIntervalMonths: 0, Copay: decimal.Zero},
		{Name: "Flu Shot", Category: "preventive", Description: "Seasonal influenza vaccination", DurationMinutes: 15, RecommendedIntervalMonths: 12, Copay: decimal.Zero},
	}
}

// DefaultDoctors is the provider directory installed on an empty database
func DefaultDoctors() []entity.Doctor {
	return []entity.Doctor{
		{Name: "Dr. Emily Chen", Specialty: "Primary Care", Location: "Downtown Medical Center", Rating: decimal.RequireFromString("4.80")},
		{Name: "Dr. Sarah Wilson", Specialty: "Dentist", Location: "Bright Smile Dental", Rating: decimal.RequireFromString("4.90")},
		{Name: "Dr. Michael Ross", Specialty: "Optometrist", Location: "ClearView Eye Care", Rating: decimal.RequireFromString("4.60")},
		{Name: "Dr. Aisha Patel", Specialty: "Dermatologist", Location: "Riverside Dermatology", Rating: decimal.RequireFromString("4.70")},
		{Name: "Dr. James Miller", Specialty: "Psychologist", Location: "Mindful Health Clinic", Rating: decimal.RequireFromString("4.85")},
	}
}

// SeedCatalog installs the default catalog when no appointment types exist yet
func SeedCatalog(ctx context.Context, catalogRepo repository.CatalogRepository) error {
	count, err := catalogRepo.CountAppointmentTypes(ctx)
	if err != nil {
		return fmt.Errorf("count appointment types: %w", err)
	}
	if count > 0 {
		logrus.Debugf("Catalog already seeded with %d appointment types", count)
		return nil
	}

	if err := catalogRepo.CreateAppointmentTypes(ctx, DefaultAppointmentTypes()); err != nil {
		return fmt.Errorf("seed appointment types: %w", err)
	}
	if err := catalogRepo.CreateDoctors(ctx, DefaultDoctors()); err != nil {
		return fmt.Errorf("seed doctors: %w", err)
	}

	logrus.Info("Seeded default appointment catalog")
	return nil
}
