package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type ScheduleAppointmentRequest struct {
	TypeName          string `json:"type_name" validate:"required,max=150"`
	TypeCategory      string `json:"type_category" validate:"omitempty,max=100"`
	ProviderName      string `json:"provider_name" validate:"omitempty,max=150"`
	ProviderSpecialty string `json:"provider_specialty" validate:"omitempty,max=100"`
	Date              string `json:"date" validate:"required,isodate"` // Format: YYYY-MM-DD
	Time              string `json:"time" validate:"required,clock"`   // Format: h:mm AM/PM
	Location          string `json:"location" validate:"omitempty,max=255"`
	Notes             string `json:"notes" validate:"omitempty,max=2000"`
}

// UpdateAppointmentRequest is a partial update; nil fields are left unchanged
type UpdateAppointmentRequest struct {
	TypeName           *string `json:"type_name,omitempty" validate:"omitempty,min=1,max=150"`
	TypeCategory       *string `json:"type_category,omitempty" validate:"omitempty,max=100"`
	ProviderName       *string `json:"provider_name,omitempty" validate:"omitempty,max=150"`
	ProviderSpecialty  *string `json:"provider_specialty,omitempty" validate:"omitempty,max=100"`
	Date               *string `json:"date,omitempty" validate:"omitempty,isodate"`
	Time               *string `json:"time,omitempty" validate:"omitempty,clock"`
	Status             *string `json:"status,omitempty" validate:"omitempty,oneof=scheduled confirmed completed cancelled checked_in no_show rescheduled"`
	Location           *string `json:"location,omitempty" validate:"omitempty,max=255"`
	Notes              *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
	CancellationReason *string `json:"cancellation_reason,omitempty" validate:"omitempty,max=500"`
}

type CancelAppointmentRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

type RescheduleAppointmentRequest struct {
	Date string `json:"date" validate:"required,isodate"`
	Time string `json:"time" validate:"required,clock"`
}

// Response DTOs

type AppointmentTypeRefResponse struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

type ProviderRefResponse struct {
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
	Location  string `json:"location"`
}

type AppointmentResponse struct {
	ID                 string                     `json:"id"`
	UserID             uuid.UUID                  `json:"user_id"`
	Type               AppointmentTypeRefResponse `json:"type"`
	Provider           ProviderRefResponse        `json:"provider"`
	Date               string                     `json:"date"`
	Time               string                     `json:"time"`
	Status             string                     `json:"status"`
	Location           string                     `json:"location"`
	Notes              string                     `json:"notes"`
	CancellationReason string                     `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time                  `json:"created_at"`
	UpdatedAt          time.Time                  `json:"updated_at"`
}

type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
	Total        int                   `json:"total"`
}

type StoreStatusResponse struct {
	IsLoading bool   `json:"is_loading"`
	Error     string `json:"error,omitempty"`
}
