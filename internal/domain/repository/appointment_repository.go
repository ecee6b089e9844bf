package repository

import (
	"context"

	"wellness-appointments/internal/domain/entity"

	"github.com/google/uuid"
)

type AppointmentRepository interface {
	Create(ctx context.Context, appointment *entity.Appointment) error
	Update(ctx context.Context, appointment *entity.Appointment) error
	FindByID(ctx context.Context, id string) (*entity.Appointment, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]entity.Appointment, error)
}
