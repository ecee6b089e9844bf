package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"wellness-appointments/internal/domain/entity"
	"wellness-appointments/internal/infrastructure/metrics"

	"github.com/sirupsen/logrus"
)

// Notifier is the push notification collaborator reminders are handed to
type Notifier interface {
	SchedulePushNotification(ctx context.Context, recipient, title, body string, fireAt time.Time) error
}

// KeyedNotifier is a Notifier that files the push under the reminder key, so a reminder
// withdrawn later can be retracted and is not delivered.
type KeyedNotifier interface {
	ScheduleReminderPush(ctx context.Context, key, recipient, title, body string, fireAt time.Time) error
}

// DispatchError wraps a notifier failure for a single reminder. It is logged, never returned
// to appointment callers.
type DispatchError struct {
	Key string
	Err error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch reminder %s: %v", e.Key, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// ReminderDispatcher drains reminder intents from a buffered channel and submits them to
// the notifier from a fixed set of worker goroutines.
//
// Call Start() once, and Stop() during graceful shutdown.
type ReminderDispatcher struct {
	notifier Notifier
	ledger   ReminderLedger
	log      *logrus.Logger
	metrics  *metrics.Metrics
	timeout  time.Duration
	workers  int

	queue chan entity.Reminder

	stopChan chan struct{}
	wg       sync.WaitGroup
	started  atomic.Bool
	stopped  atomic.Bool
}

func NewReminderDispatcher(
	notifier Notifier,
	ledger ReminderLedger,
	log *logrus.Logger,
	m *metrics.Metrics,
	queueSize int,
	workers int,
	timeout time.Duration,
) *ReminderDispatcher {
	if queueSize <= 0 {
		queueSize = 1
	}
	if workers <= 0 {
		workers = 1
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ReminderDispatcher{
		notifier: notifier,
		ledger:   ledger,
		log:      log,
		metrics:  m,
		timeout:  timeout,
		workers:  workers,
		queue:    make(chan entity.Reminder, queueSize),
		stopChan: make(chan struct{}),
	}
}

// Start launches the worker goroutines. Calls after the first are no-ops.
func (d *ReminderDispatcher) Start() {
	if !d.started.CompareAndSwap(false, true) {
		return
	}
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
	d.log.Infof("Reminder dispatcher started with %d workers", d.workers)
}

// Stop stops accepting reminders, lets the workers drain what is buffered and waits for them.
// Safe to call multiple times.
func (d *ReminderDispatcher) Stop() {
	if d.stopped.CompareAndSwap(false, true) {
		close(d.stopChan)
		d.wg.Wait()
		d.log.Info("Reminder dispatcher stopped")
	}
}

// Enqueue places a reminder on the queue. Returns false when the queue is full or the
// dispatcher is stopped.
func (d *ReminderDispatcher) Enqueue(reminder entity.Reminder) bool {
	if d.stopped.Load() {
		return false
	}
	select {
	case d.queue <- reminder:
		return true
	default:
		return false
	}
}

// Pending returns the number of buffered reminders
func (d *ReminderDispatcher) Pending() int {
	return len(d.queue)
}

func (d *ReminderDispatcher) worker(id int) {
	defer d.wg.Done()

	for {
		select {
		case <-d.stopChan:
			d.drain()
			d.log.Debugf("Reminder worker %d stopping", id)
			return
		case reminder := <-d.queue:
			d.dispatch(reminder)
		}
	}
}

func (d *ReminderDispatcher) drain() {
	for {
		select {
		case reminder := <-d.queue:
			d.dispatch(reminder)
		default:
			return
		}
	}
}

func (d *ReminderDispatcher) dispatch(reminder entity.Reminder) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	err := d.schedule(ctx, reminder)
	d.metrics.ReminderDispatched(err)
	if err == nil {
		d.log.Debugf("Reminder %s scheduled for %s", reminder.Key(), reminder.FireAt.Format(time.RFC3339))
		return
	}

	dispatchErr := &DispatchError{Key: reminder.Key(), Err: err}
	d.log.Warnf("Failed to dispatch reminder (non-fatal): %+v", dispatchErr)

	// Let the next evaluation resubmit it
	if d.ledger != nil {
		releaseCtx, releaseCancel := context.WithTimeout(context.Background(), d.timeout)
		defer releaseCancel()
		if releaseErr := d.ledger.Release(releaseCtx, reminder.UserID, reminder.Key()); releaseErr != nil {
			d.log.Warnf("Failed to release reminder claim %s: %+v", reminder.Key(), releaseErr)
		}
	}
}

func (d *ReminderDispatcher) schedule(ctx context.Context, reminder entity.Reminder) error {
	if keyed, ok := d.notifier.(KeyedNotifier); ok && !reminder.Unclaimed {
		return keyed.ScheduleReminderPush(ctx, reminder.Key(), reminder.UserID, reminder.Title, reminder.Body, reminder.FireAt)
	}
	return d.notifier.SchedulePushNotification(ctx, reminder.UserID, reminder.Title, reminder.Body, reminder.FireAt)
}
