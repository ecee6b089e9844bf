package entity

import (
	"fmt"
	"time"
)

// ReminderKind identifies which of the two reminders of an appointment this is
type ReminderKind string

const (
	ReminderKindDayBefore      ReminderKind = "day_before"
	ReminderKindTwoHoursBefore ReminderKind = "two_hours_before"
)

// Reminder is computed from an appointment on every evaluation and never persisted
type Reminder struct {
	AppointmentID string       `json:"appointment_id"`
	UserID        string       `json:"user_id"`
	Kind          ReminderKind `json:"kind"`
	Title         string       `json:"title"`
	Body          string       `json:"body"`
	FireAt        time.Time    `json:"fire_at"`

	// Unclaimed is set when the ledger could not record the claim. Such reminders are
	// scheduled without their key, so delivery does not depend on the claim.
	Unclaimed bool `json:"-"`
}

// Key is the idempotency key of the reminder. It includes the fire time so a rescheduled
// appointment produces fresh reminders.
func (r Reminder) Key() string {
	return fmt.Sprintf("%s:%s:%d", r.AppointmentID, r.Kind, r.FireAt.Unix())
}
