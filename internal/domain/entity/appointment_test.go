package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppointmentStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to AppointmentStatus
		allowed  bool
	}{
		{AppointmentStatusScheduled, AppointmentStatusConfirmed, true},
		{AppointmentStatusScheduled, AppointmentStatusCancelled, true},
		{AppointmentStatusConfirmed, AppointmentStatusCompleted, true},
		{AppointmentStatusConfirmed, AppointmentStatusCancelled, true},
		{AppointmentStatusScheduled, AppointmentStatusScheduled, true},
		{AppointmentStatusScheduled, AppointmentStatusCompleted, false},
		{AppointmentStatusCancelled, AppointmentStatusConfirmed, false},
		{AppointmentStatusCancelled, AppointmentStatusScheduled, false},
		{AppointmentStatusCompleted, AppointmentStatusCancelled, false},
		{AppointmentStatusNoShow, AppointmentStatusConfirmed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestAppointmentStatus_Terminal(t *testing.T) {
	assert.True(t, AppointmentStatusCancelled.IsTerminal())
	assert.True(t, AppointmentStatusCompleted.IsTerminal())
	assert.False(t, AppointmentStatusScheduled.IsTerminal())
	assert.False(t, AppointmentStatus("unknown").IsValid())
}

func TestAppointment_Cancel(t *testing.T) {
	apt := &Appointment{Status: AppointmentStatusConfirmed}
	apt.Cancel("")
	assert.True(t, apt.IsCancelled())
	assert.Equal(t, DefaultCancellationReason, apt.CancellationReason)

	apt = &Appointment{Status: AppointmentStatusScheduled}
	apt.Cancel("schedule conflict")
	assert.Equal(t, "schedule conflict", apt.CancellationReason)
}

func TestAppointment_IsUpcoming(t *testing.T) {
	today := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	yesterday := today.AddDate(0, 0, -1)
	tomorrow := today.AddDate(0, 0, 1)

	scheduledPast := &Appointment{Status: AppointmentStatusScheduled}
	assert.True(t, scheduledPast.IsUpcoming(yesterday, today))

	completedPast := &Appointment{Status: AppointmentStatusCompleted}
	assert.False(t, completedPast.IsUpcoming(yesterday, today))

	completedToday := &Appointment{Status: AppointmentStatusCompleted}
	assert.True(t, completedToday.IsUpcoming(today, today))

	cancelledFuture := &Appointment{Status: AppointmentStatusCancelled}
	assert.False(t, cancelledFuture.IsUpcoming(tomorrow, today))
}

func TestReminder_Key(t *testing.T) {
	fireAt := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	r := Reminder{AppointmentID: "apt-1", Kind: ReminderKindDayBefore, FireAt: fireAt}
	assert.Equal(t, "apt-1:day_before:1792141200", r.Key())

	moved := r
	moved.FireAt = fireAt.Add(time.Hour)
	assert.NotEqual(t, r.Key(), moved.Key())
}

func TestJSON_ValueScan(t *testing.T) {
	j := JSON{"entity": "appointment", "entity_id": "apt-1"}
	v, err := j.Value()
	require.NoError(t, err)

	var out JSON
	require.NoError(t, out.Scan(v))
	assert.Equal(t, "appointment", out["entity"])

	assert.Error(t, out.Scan(42))

	empty, err := JSON{}.Value()
	require.NoError(t, err)
	assert.Nil(t, empty)
}
