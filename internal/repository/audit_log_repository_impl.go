package repository

import (
	"context"
	"errors"

	"wellness-appointments/internal/domain/entity"
	domainRepo "wellness-appointments/internal/domain/repository"

	"gorm.io/gorm"
)

const maxAuditLogPage = 500

type auditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) domainRepo.AuditLogRepository {
	return &auditLogRepository{db: db}
}

func (r *auditLogRepository) Create(ctx context.Context, log *entity.AuditLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// FindAll returns the newest entries first, at most maxAuditLogPage of them
func (r *auditLogRepository) FindAll(ctx context.Context, filter domainRepo.AuditLogFilter) ([]entity.AuditLog, error) {
	query := r.db.WithContext(ctx).Preload("User")

	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.EntityID != "" {
		query = query.Where("metadata->>'entity_id' = ?", filter.EntityID)
	}

	limit := filter.Limit
	if limit <= 0 || limit > maxAuditLogPage {
		limit = maxAuditLogPage
	}

	var logs []entity.AuditLog
	if err := query.Order("created_at DESC").Limit(limit).Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *auditLogRepository) FindByID(ctx context.Context, id int64) (*entity.AuditLog, error) {
	var log entity.AuditLog
	err := r.db.WithContext(ctx).Preload("User").Where("id = ?", id).First(&log).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &log, nil
}
