package converter

import (
	"wellness-appointments/internal/delivery/dto"
	"wellness-appointments/internal/domain/entity"
)

// AuditLogToResponse converts an AuditLog entity to AuditLogResponse DTO. The audited
// entity and its id are lifted out of the metadata.
func AuditLogToResponse(log *entity.AuditLog) *dto.AuditLogResponse {
	if log == nil {
		return nil
	}

	resp := &dto.AuditLogResponse{
		ID:        log.ID,
		User:      UserToResponse(log.User),
		Action:    log.Action,
		Metadata:  log.Metadata,
		CreatedAt: log.CreatedAt,
	}
	if name, ok := log.Metadata["entity"].(string); ok {
		resp.Entity = name
	}
	if id, ok := log.Metadata["entity_id"].(string); ok {
		resp.EntityID = id
	}
	return resp
}

func AuditLogsToResponses(logs []entity.AuditLog) []dto.AuditLogResponse {
	responses := make([]dto.AuditLogResponse, len(logs))
	for i := range logs {
		responses[i] = *AuditLogToResponse(&logs[i])
	}
	return responses
}
