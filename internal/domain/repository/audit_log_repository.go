package repository

import (
	"context"

	"wellness-appointments/internal/domain/entity"

	"github.com/google/uuid"
)

// AuditLogFilter narrows FindAll. Zero fields match everything.
type AuditLogFilter struct {
	Action   string
	UserID   *uuid.UUID
	EntityID string // e.g. an appointment id, matched against metadata
	Limit    int
}

type AuditLogRepository interface {
	Create(ctx context.Context, log *entity.AuditLog) error
	FindAll(ctx context.Context, filter AuditLogFilter) ([]entity.AuditLog, error)
	FindByID(ctx context.Context, id int64) (*entity.AuditLog, error)
}
