package entity

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentStatus represents the lifecycle state of an appointment
type AppointmentStatus string

const (
	AppointmentStatusScheduled   AppointmentStatus = "scheduled"
	AppointmentStatusConfirmed   AppointmentStatus = "confirmed"
	AppointmentStatusCompleted   AppointmentStatus = "completed"
	AppointmentStatusCancelled   AppointmentStatus = "cancelled"
	AppointmentStatusCheckedIn   AppointmentStatus = "checked_in"
	AppointmentStatusNoShow      AppointmentStatus = "no_show"
	AppointmentStatusRescheduled AppointmentStatus = "rescheduled"
)

// DefaultCancellationReason is recorded when a cancel request carries no reason
const DefaultCancellationReason = "Cancelled by user"

var appointmentTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentStatusScheduled: {
		AppointmentStatusConfirmed,
		AppointmentStatusCancelled,
		AppointmentStatusCheckedIn,
		AppointmentStatusRescheduled,
	},
	AppointmentStatusConfirmed: {
		AppointmentStatusCompleted,
		AppointmentStatusCancelled,
		AppointmentStatusCheckedIn,
		AppointmentStatusRescheduled,
		AppointmentStatusNoShow,
	},
	AppointmentStatusRescheduled: {
		AppointmentStatusConfirmed,
		AppointmentStatusCancelled,
	},
	AppointmentStatusCheckedIn: {
		AppointmentStatusCompleted,
		AppointmentStatusNoShow,
	},
}

// IsValid reports whether s is a known status
func (s AppointmentStatus) IsValid() bool {
	switch s {
	case AppointmentStatusScheduled, AppointmentStatusConfirmed, AppointmentStatusCompleted,
		AppointmentStatusCancelled, AppointmentStatusCheckedIn, AppointmentStatusNoShow,
		AppointmentStatusRescheduled:
		return true
	}
	return false
}

// IsTerminal reports whether no transition leaves s
func (s AppointmentStatus) IsTerminal() bool {
	return s == AppointmentStatusCancelled || s == AppointmentStatusCompleted || s == AppointmentStatusNoShow
}

// IsActive reports whether s keeps an appointment upcoming regardless of its date
func (s AppointmentStatus) IsActive() bool {
	return s == AppointmentStatusScheduled || s == AppointmentStatusConfirmed
}

// CanTransitionTo reports whether moving from s to next is allowed.
// Staying in the same state is always allowed.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range appointmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// AppointmentTypeRef is the appointment type as recorded on an appointment
type AppointmentTypeRef struct {
	Name     string `gorm:"type:varchar(150);not null" json:"name"`
	Category string `gorm:"type:varchar(100)" json:"category"`
}

// ProviderRef is the provider as recorded on an appointment
type ProviderRef struct {
	Name      string `gorm:"type:varchar(150)" json:"name"`
	Specialty string `gorm:"type:varchar(100)" json:"specialty"`
	Location  string `gorm:"type:varchar(255)" json:"location"`
}

// Appointment is a scheduled visit owned by a single user
type Appointment struct {
	ID                 string             `gorm:"type:varchar(64);primaryKey" json:"id"`
	UserID             uuid.UUID          `gorm:"type:uuid;not null;index" json:"user_id"`
	Type               AppointmentTypeRef `gorm:"embedded;embeddedPrefix:type_" json:"type"`
	Provider           ProviderRef        `gorm:"embedded;embeddedPrefix:provider_" json:"provider"`
	Date               string             `gorm:"type:varchar(10);not null;index" json:"date"`
	Time               string             `gorm:"type:varchar(8);not null" json:"time"`
	Status             AppointmentStatus  `gorm:"type:varchar(20);not null;default:'scheduled';index" json:"status"`
	Location           string             `gorm:"type:varchar(255)" json:"location"`
	Notes              string             `gorm:"type:text" json:"notes"`
	CancellationReason string             `gorm:"type:text" json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

func (Appointment) TableName() string {
	return "appointments"
}

// IsConfirmed checks if appointment is confirmed
func (a *Appointment) IsConfirmed() bool {
	return a.Status == AppointmentStatusConfirmed
}

// IsCancelled checks if appointment is cancelled
func (a *Appointment) IsCancelled() bool {
	return a.Status == AppointmentStatusCancelled
}

// Confirm changes appointment status to confirmed
func (a *Appointment) Confirm() {
	a.Status = AppointmentStatusConfirmed
}

// Cancel changes appointment status to cancelled and records why.
// An empty reason is replaced with DefaultCancellationReason.
func (a *Appointment) Cancel(reason string) {
	if reason == "" {
		reason = DefaultCancellationReason
	}
	a.Status = AppointmentStatusCancelled
	a.CancellationReason = reason
}

// IsUpcoming reports whether the appointment belongs to the upcoming partition on the
// calendar day today (midnight in the store location). Cancelled appointments are always past.
func (a *Appointment) IsUpcoming(day time.Time, today time.Time) bool {
	if a.IsCancelled() {
		return false
	}
	if a.Status.IsActive() {
		return true
	}
	return !day.Before(today)
}
