package repository

import (
	"context"

	"wellness-appointments/internal/domain/entity"
)

type CatalogRepository interface {
	FindAllAppointmentTypes(ctx context.Context) ([]entity.AppointmentType, error)
	FindAllDoctors(ctx context.Context) ([]entity.Doctor, error)
	CountAppointmentTypes(ctx context.Context) (int64, error)
	CreateAppointmentTypes(ctx context.Context, types []entity.AppointmentType) error
	CreateDoctors(ctx context.Context, doctors []entity.Doctor) error
}
