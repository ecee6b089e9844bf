package service

import (
	"context"
	"fmt"
	"time"

	"wellness-appointments/internal/domain/entity"
	"wellness-appointments/internal/infrastructure/metrics"
	"wellness-appointments/pkg/timeparse"

	"github.com/sirupsen/logrus"
)

const (
	DayBeforeTitle      = "Appointment Reminder"
	TwoHoursBeforeTitle = "Appointment Soon"
)

// ReminderLedger remembers which reminders were already handed to the dispatcher, per owner
type ReminderLedger interface {
	// Claim returns false when the reminder key was already claimed
	Claim(ctx context.Context, reminder entity.Reminder) (bool, error)
	Release(ctx context.Context, owner, key string) error
	// Outstanding lists the claimed keys of owner that fire after the given time
	Outstanding(ctx context.Context, owner string, after time.Time) ([]string, error)
}

// ReminderRetractor withdraws a scheduled push by its reminder key
type ReminderRetractor interface {
	Retract(ctx context.Context, key string) error
}

// ReminderQueue accepts reminder intents without blocking
type ReminderQueue interface {
	Enqueue(reminder entity.Reminder) bool
}

// ReminderScheduler derives the outstanding reminders from the upcoming appointments
// and hands new ones to the dispatch queue.
type ReminderScheduler struct {
	log         *logrus.Logger
	ledger      ReminderLedger
	queue       ReminderQueue
	retractor   ReminderRetractor
	metrics     *metrics.Metrics
	loc         *time.Location
	morningHour int
	now         func() time.Time
}

func NewReminderScheduler(
	log *logrus.Logger,
	ledger ReminderLedger,
	queue ReminderQueue,
	retractor ReminderRetractor,
	m *metrics.Metrics,
	loc *time.Location,
	morningHour int,
	now func() time.Time,
) *ReminderScheduler {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &ReminderScheduler{
		log:         log,
		ledger:      ledger,
		queue:       queue,
		retractor:   retractor,
		metrics:     m,
		loc:         loc,
		morningHour: morningHour,
		now:         now,
	}
}

// ComputeReminders returns the reminders of a single appointment that are still in the
// future at now. It returns an error only when the appointment date or time cannot be parsed.
func (s *ReminderScheduler) ComputeReminders(apt entity.Appointment, now time.Time) ([]entity.Reminder, error) {
	at, err := timeparse.Combine(apt.Date, apt.Time, s.loc)
	if err != nil {
		return nil, err
	}

	body := reminderBody(apt, at)
	reminders := make([]entity.Reminder, 0, 2)

	// 24 hours earlier, not the previous calendar day; they differ across DST changes
	y, m, d := at.Add(-24 * time.Hour).In(s.loc).Date()
	dayBefore := time.Date(y, m, d, s.morningHour, 0, 0, 0, s.loc)
	if dayBefore.After(now) {
		reminders = append(reminders, entity.Reminder{
			AppointmentID: apt.ID,
			UserID:        apt.UserID.String(),
			Kind:          entity.ReminderKindDayBefore,
			Title:         DayBeforeTitle,
			Body:          body,
			FireAt:        dayBefore,
		})
	}

	twoHoursBefore := at.Add(-2 * time.Hour)
	if twoHoursBefore.After(now) {
		reminders = append(reminders, entity.Reminder{
			AppointmentID: apt.ID,
			UserID:        apt.UserID.String(),
			Kind:          entity.ReminderKindTwoHoursBefore,
			Title:         TwoHoursBeforeTitle,
			Body:          body,
			FireAt:        twoHoursBefore,
		})
	}

	return reminders, nil
}

// Evaluate re-derives the outstanding reminders of owner from its upcoming appointments.
// New reminders are enqueued; reminders claimed earlier that are no longer derived (the
// appointment moved, was cancelled or left confirmed) are retracted. It never fails;
// problems are logged and the appointment or reminder is skipped. Returns the number of
// reminders enqueued.
func (s *ReminderScheduler) Evaluate(ctx context.Context, owner string, upcoming []entity.Appointment) int {
	now := s.now()
	enqueued := 0
	wanted := make(map[string]struct{})

	for _, apt := range upcoming {
		if !apt.IsConfirmed() {
			continue
		}

		reminders, err := s.ComputeReminders(apt, now)
		if err != nil {
			s.log.Warnf("Skipping reminders for appointment %s: %+v", apt.ID, err)
			s.metrics.ReminderSkipped("unparsable")
			continue
		}

		for _, reminder := range reminders {
			wanted[reminder.Key()] = struct{}{}
			if s.submit(ctx, reminder) {
				enqueued++
			}
		}
	}

	retracted := s.retractStale(ctx, owner, wanted, now)

	if enqueued > 0 || retracted > 0 {
		s.log.Debugf("Reminder evaluation for %s enqueued %d and retracted %d reminders", owner, enqueued, retracted)
	}
	return enqueued
}

// retractStale withdraws the owner's future reminders that are not in wanted
func (s *ReminderScheduler) retractStale(ctx context.Context, owner string, wanted map[string]struct{}, now time.Time) int {
	if s.ledger == nil || owner == "" {
		return 0
	}

	keys, err := s.ledger.Outstanding(ctx, owner, now)
	if err != nil {
		s.log.Warnf("Failed to list outstanding reminders of %s: %+v", owner, err)
		return 0
	}

	retracted := 0
	for _, key := range keys {
		if _, ok := wanted[key]; ok {
			continue
		}
		if s.retractor != nil {
			if err := s.retractor.Retract(ctx, key); err != nil {
				// The released claim still stops delivery
				s.log.Warnf("Failed to retract reminder %s: %+v", key, err)
			}
		}
		if err := s.ledger.Release(ctx, owner, key); err != nil {
			s.log.Warnf("Failed to release reminder claim %s: %+v", key, err)
			continue
		}
		s.metrics.ReminderRetracted()
		retracted++
	}
	return retracted
}

func (s *ReminderScheduler) submit(ctx context.Context, reminder entity.Reminder) bool {
	key := reminder.Key()
	claimed := false

	if s.ledger != nil {
		ok, err := s.ledger.Claim(ctx, reminder)
		switch {
		case err != nil:
			// Fall through unclaimed; the dispatcher tolerates duplicates
			s.log.Warnf("Failed to claim reminder %s, enqueueing unclaimed: %+v", key, err)
			reminder.Unclaimed = true
		case !ok:
			s.metrics.ReminderSkipped("duplicate")
			return false
		default:
			claimed = true
		}
	}

	if !s.queue.Enqueue(reminder) {
		s.log.Warnf("Reminder queue full, dropping reminder %s", key)
		s.metrics.ReminderSkipped("queue_full")
		if claimed {
			if err := s.ledger.Release(ctx, reminder.UserID, key); err != nil {
				s.log.Warnf("Failed to release reminder claim %s: %+v", key, err)
			}
		}
		return false
	}

	s.metrics.ReminderEnqueued()
	return true
}

func reminderBody(apt entity.Appointment, at time.Time) string {
	typeName := apt.Type.Name
	if typeName == "" {
		typeName = "upcoming"
	}
	if apt.Provider.Name == "" {
		return fmt.Sprintf("Your %s appointment is on %s at %s.", typeName, at.Format("Mon, Jan 2"), timeparse.FormatClock(at))
	}
	return fmt.Sprintf("Your %s appointment with %s is on %s at %s.", typeName, apt.Provider.Name, at.Format("Mon, Jan 2"), timeparse.FormatClock(at))
}
