package service

import (
	"context"
	"time"

	"wellness-appointments/internal/domain/entity"
	"wellness-appointments/internal/domain/repository"

	"github.com/sirupsen/logrus"
)

const auditWriteTimeout = 5 * time.Second

type AuditService interface {
	Record(ctx context.Context, entry entity.AuditEntry) error
}

type auditService struct {
	log       *logrus.Logger
	auditRepo repository.AuditLogRepository
}

func NewAuditService(log *logrus.Logger, auditRepo repository.AuditLogRepository) AuditService {
	return &auditService{
		log:       log,
		auditRepo: auditRepo,
	}
}

// Record stores an audit trail entry. The audited entity is kept in metadata so
// employers can filter by appointment id. The write survives cancellation of ctx,
// since the audited change has already happened.
func (s *auditService) Record(ctx context.Context, entry entity.AuditEntry) error {
	metadata := entity.JSON{
		"entity":    entry.Entity,
		"entity_id": entry.EntityID,
	}
	if entry.OldValue != nil {
		metadata["old_value"] = entry.OldValue
	}
	if entry.NewValue != nil {
		metadata["new_value"] = entry.NewValue
	}

	auditLog := &entity.AuditLog{
		UserID:   entry.UserID,
		Action:   entry.Action,
		Metadata: metadata,
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditWriteTimeout)
	defer cancel()

	if err := s.auditRepo.Create(writeCtx, auditLog); err != nil {
		s.log.WithFields(logrus.Fields{
			"action":    entry.Action,
			"entity":    entry.Entity,
			"entity_id": entry.EntityID,
		}).Warnf("Failed to create audit log: %+v", err)
		return err
	}

	return nil
}
