package usecase

import (
	"context"
	"errors"

	"wellness-appointments/internal/converter"
	"wellness-appointments/internal/delivery/dto"
	"wellness-appointments/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrAuditLogNotFound = errors.New("audit log not found")
)

// AuditLogUsecase is the read side of the audit trail, for employers
type AuditLogUsecase interface {
	GetAllAuditLogs(ctx context.Context, query *dto.AuditLogQuery) (*dto.AuditLogListResponse, error)
	GetAuditLog(ctx context.Context, id int64) (*dto.AuditLogResponse, error)
}

type auditLogUsecase struct {
	log          *logrus.Logger
	auditLogRepo repository.AuditLogRepository
}

func NewAuditLogUsecase(log *logrus.Logger, auditLogRepo repository.AuditLogRepository) AuditLogUsecase {
	return &auditLogUsecase{
		log:          log,
		auditLogRepo: auditLogRepo,
	}
}

// GetAllAuditLogs lists entries newest first. A nil query lists everything.
func (u *auditLogUsecase) GetAllAuditLogs(ctx context.Context, query *dto.AuditLogQuery) (*dto.AuditLogListResponse, error) {
	filter := repository.AuditLogFilter{}
	if query != nil {
		filter.Action = query.Action
		filter.EntityID = query.AppointmentID
		filter.Limit = query.Limit
		if query.UserID != "" {
			userID, err := uuid.Parse(query.UserID)
			if err != nil {
				return nil, &ValidationError{Fields: map[string]string{"user_id": "user_id must be a valid UUID"}}
			}
			filter.UserID = &userID
		}
	}

	logs, err := u.auditLogRepo.FindAll(ctx, filter)
	if err != nil {
		u.log.Warnf("Failed to find audit logs: %+v", err)
		return nil, err
	}

	return &dto.AuditLogListResponse{
		Logs:  converter.AuditLogsToResponses(logs),
		Total: len(logs),
	}, nil
}

func (u *auditLogUsecase) GetAuditLog(ctx context.Context, id int64) (*dto.AuditLogResponse, error) {
	auditLog, err := u.auditLogRepo.FindByID(ctx, id)
	if err != nil {
		u.log.Warnf("Failed to find audit log %d: %+v", id, err)
		return nil, err
	}
	if auditLog == nil {
		return nil, ErrAuditLogNotFound
	}

	return converter.AuditLogToResponse(auditLog), nil
}
