package dto

import (
	"time"

	"wellness-appointments/internal/domain/entity"
)

// Request DTOs

// AuditLogQuery is read from the query string of the audit log listing
type AuditLogQuery struct {
	Action        string `json:"action" validate:"omitempty,max=100"`
	UserID        string `json:"user_id" validate:"omitempty,uuid"`
	AppointmentID string `json:"appointment_id" validate:"omitempty,max=64"`
	Limit         int    `json:"limit" validate:"omitempty,min=1,max=500"`
}

// Response DTOs

type AuditLogResponse struct {
	ID        int64         `json:"id"`
	User      *UserResponse `json:"user,omitempty"`
	Action    string        `json:"action"`
	Entity    string        `json:"entity,omitempty"`
	EntityID  string        `json:"entity_id,omitempty"`
	Metadata  entity.JSON   `json:"metadata"`
	CreatedAt time.Time     `json:"created_at"`
}

type AuditLogListResponse struct {
	Logs  []AuditLogResponse `json:"logs"`
	Total int                `json:"total"`
}
