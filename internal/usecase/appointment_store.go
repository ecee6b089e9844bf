package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"wellness-appointments/internal/delivery/dto"
	"wellness-appointments/internal/domain/entity"
	"wellness-appointments/internal/domain/repository"
	"wellness-appointments/internal/infrastructure/metrics"
	"wellness-appointments/pkg/timeparse"
	"wellness-appointments/pkg/validator"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrInvalidTransition   = errors.New("invalid appointment status transition")
	ErrSessionRequired     = errors.New("authenticated session is required")
)

const (
	DefaultProviderName = "Any available provider"
	DefaultLocation     = "To be confirmed"
)

// ValidationError lists the rejected request fields
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = e.Fields[k]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// StoreStatus is the loading flag and the last error of a store
type StoreStatus struct {
	IsLoading bool
	Error     error
}

// ReminderEvaluator receives the owner's upcoming appointments after every change. An
// empty list is meaningful: it withdraws the owner's outstanding reminders.
type ReminderEvaluator interface {
	Evaluate(ctx context.Context, owner string, upcoming []entity.Appointment) int
}

type AuditRecorder interface {
	Record(ctx context.Context, entry entity.AuditEntry) error
}

// StoreDependencies are the collaborators shared by every session store
type StoreDependencies struct {
	Log             *logrus.Logger
	Validator       *validator.CustomValidator
	AppointmentRepo repository.AppointmentRepository
	CatalogRepo     repository.CatalogRepository
	Reminders       ReminderEvaluator
	Audit           AuditRecorder
	Metrics         *metrics.Metrics
	Location        *time.Location
	Now             func() time.Time
}

// AppointmentStore is the canonical appointment list of one authenticated session.
// Upcoming and past are computed from the list on every read.
//
// Writes go to the repository first; the in-memory list only changes after the
// repository accepted them.
type AppointmentStore struct {
	session         entity.Session
	log             *logrus.Logger
	validator       *validator.CustomValidator
	appointmentRepo repository.AppointmentRepository
	catalogRepo     repository.CatalogRepository
	reminders       ReminderEvaluator
	audit           AuditRecorder
	metrics         *metrics.Metrics
	loc             *time.Location
	now             func() time.Time

	mu               sync.RWMutex
	appointments     []entity.Appointment
	appointmentTypes []entity.AppointmentType
	doctors          []entity.Doctor
	isLoading        bool
	lastErr          error
}

func NewAppointmentStore(session *entity.Session, deps StoreDependencies) (*AppointmentStore, error) {
	if !session.Valid() {
		return nil, ErrSessionRequired
	}
	if deps.Location == nil {
		deps.Location = time.Local
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Validator == nil {
		deps.Validator = validator.NewValidator()
	}

	return &AppointmentStore{
		session:         *session,
		log:             deps.Log,
		validator:       deps.Validator,
		appointmentRepo: deps.AppointmentRepo,
		catalogRepo:     deps.CatalogRepo,
		reminders:       deps.Reminders,
		audit:           deps.Audit,
		metrics:         deps.Metrics,
		loc:             deps.Location,
		now:             deps.Now,
	}, nil
}

// Session returns the session the store is bound to
func (s *AppointmentStore) Session() entity.Session {
	return s.session
}

// Load replaces the in-memory state with the user's appointments and the catalog
func (s *AppointmentStore) Load(ctx context.Context) error {
	s.mu.Lock()
	s.isLoading = true
	s.mu.Unlock()

	var (
		appointments []entity.Appointment
		types        []entity.AppointmentType
		doctors      []entity.Doctor
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		appointments, err = s.appointmentRepo.FindByUserID(gctx, s.session.UserID)
		return err
	})
	g.Go(func() error {
		var err error
		types, err = s.catalogRepo.FindAllAppointmentTypes(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		doctors, err = s.catalogRepo.FindAllDoctors(gctx)
		return err
	})
	err := g.Wait()

	s.mu.Lock()
	s.isLoading = false
	if err != nil {
		s.lastErr = err
		s.mu.Unlock()
		s.log.Warnf("Failed to load appointments for user %s: %+v", s.session.UserID, err)
		return fmt.Errorf("load appointment store: %w", err)
	}
	s.appointments = appointments
	s.appointmentTypes = types
	s.doctors = doctors
	s.lastErr = nil
	upcoming := s.upcomingLocked()
	s.mu.Unlock()

	s.log.Debugf("Loaded %d appointments for user %s", len(appointments), s.session.UserID)
	s.evaluateReminders(ctx, upcoming)
	return nil
}

// ScheduleAppointment creates a new scheduled appointment
func (s *AppointmentStore) ScheduleAppointment(ctx context.Context, req *dto.ScheduleAppointmentRequest) (*entity.Appointment, error) {
	var created entity.Appointment

	err := s.mutate(ctx, "schedule", func() error {
		if req == nil {
			return &ValidationError{Fields: map[string]string{"request": "request body is required"}}
		}
		if err := s.validate(req); err != nil {
			return err
		}
		if strings.TrimSpace(req.TypeName) == "" {
			return &ValidationError{Fields: map[string]string{"type_name": "type_name is required"}}
		}

		at, err := timeparse.Combine(req.Date, req.Time, s.loc)
		if err != nil {
			return parseValidationError(err)
		}

		now := s.now()
		apt := entity.Appointment{
			ID:     uuid.NewString(),
			UserID: s.session.UserID,
			Type: entity.AppointmentTypeRef{
				Name:     strings.TrimSpace(req.TypeName),
				Category: strings.TrimSpace(req.TypeCategory),
			},
			Provider: entity.ProviderRef{
				Name:      strings.TrimSpace(req.ProviderName),
				Specialty: strings.TrimSpace(req.ProviderSpecialty),
			},
			Date:      timeparse.FormatDate(at),
			Time:      timeparse.FormatClock(at),
			Status:    entity.AppointmentStatusScheduled,
			Location:  strings.TrimSpace(req.Location),
			Notes:     req.Notes,
			CreatedAt: now,
			UpdatedAt: now,
		}
		s.applyCatalogDefaultsLocked(&apt)

		if err := s.appointmentRepo.Create(ctx, &apt); err != nil {
			s.log.Warnf("Failed to create appointment for user %s: %+v", s.session.UserID, err)
			return err
		}

		s.appointments = append(s.appointments, apt)
		created = apt
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Infof("Appointment %s scheduled for %s %s", created.ID, created.Date, created.Time)
	s.recordAudit(ctx, entity.AuditActionAppointmentSchedule, created.ID, nil, created)
	return &created, nil
}

// UpdateAppointment merges the non-nil fields of patch into the appointment
func (s *AppointmentStore) UpdateAppointment(ctx context.Context, id string, patch *dto.UpdateAppointmentRequest) (*entity.Appointment, error) {
	var before, after entity.Appointment

	err := s.mutate(ctx, "update", func() error {
		if patch == nil {
			return &ValidationError{Fields: map[string]string{"request": "request body is required"}}
		}
		if err := s.validate(patch); err != nil {
			return err
		}

		i, ok := s.indexLocked(id)
		if !ok {
			return ErrAppointmentNotFound
		}
		before = s.appointments[i]

		updated, err := s.applyPatchLocked(before, patch)
		if err != nil {
			return err
		}
		updated.UpdatedAt = s.now()

		if err := s.appointmentRepo.Update(ctx, &updated); err != nil {
			s.log.Warnf("Failed to update appointment %s: %+v", id, err)
			return err
		}

		s.appointments[i] = updated
		after = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, entity.AuditActionAppointmentUpdate, id, before, after)
	return &after, nil
}

// CancelAppointment cancels the appointment with reason, or DefaultCancellationReason when
// reason is blank. Cancelling a cancelled appointment changes nothing.
func (s *AppointmentStore) CancelAppointment(ctx context.Context, id string, reason string) error {
	var before, after entity.Appointment
	changed := false

	err := s.mutate(ctx, "cancel", func() error {
		i, ok := s.indexLocked(id)
		if !ok {
			return ErrAppointmentNotFound
		}
		before = s.appointments[i]

		if before.IsCancelled() {
			return nil
		}
		if !before.Status.CanTransitionTo(entity.AppointmentStatusCancelled) {
			return transitionError(before.Status, entity.AppointmentStatusCancelled)
		}

		updated := before
		updated.Cancel(strings.TrimSpace(reason))
		updated.UpdatedAt = s.now()

		if err := s.appointmentRepo.Update(ctx, &updated); err != nil {
			s.log.Warnf("Failed to cancel appointment %s: %+v", id, err)
			return err
		}

		s.appointments[i] = updated
		after = updated
		changed = true
		return nil
	})
	if err != nil || !changed {
		return err
	}

	s.log.Infof("Appointment %s cancelled: %s", id, after.CancellationReason)
	s.recordAudit(ctx, entity.AuditActionAppointmentCancel, id, before, after)
	return nil
}

// ConfirmAppointment moves a scheduled appointment to confirmed
func (s *AppointmentStore) ConfirmAppointment(ctx context.Context, id string) error {
	var before, after entity.Appointment
	changed := false

	err := s.mutate(ctx, "confirm", func() error {
		i, ok := s.indexLocked(id)
		if !ok {
			return ErrAppointmentNotFound
		}
		before = s.appointments[i]

		if before.IsConfirmed() {
			return nil
		}
		if !before.Status.CanTransitionTo(entity.AppointmentStatusConfirmed) {
			return transitionError(before.Status, entity.AppointmentStatusConfirmed)
		}

		updated := before
		updated.Confirm()
		updated.UpdatedAt = s.now()

		if err := s.appointmentRepo.Update(ctx, &updated); err != nil {
			s.log.Warnf("Failed to confirm appointment %s: %+v", id, err)
			return err
		}

		s.appointments[i] = updated
		after = updated
		changed = true
		return nil
	})
	if err != nil || !changed {
		return err
	}

	s.log.Infof("Appointment %s confirmed", id)
	s.recordAudit(ctx, entity.AuditActionAppointmentConfirm, id, before, after)
	return nil
}

// RescheduleAppointment moves the appointment to a new date and time. Only the date,
// time and update timestamp change.
func (s *AppointmentStore) RescheduleAppointment(ctx context.Context, id string, newDate string, newTime string) (*entity.Appointment, error) {
	var before, after entity.Appointment

	err := s.mutate(ctx, "reschedule", func() error {
		fields := make(map[string]string)
		if err := s.validator.ValidateVar(newDate, "required,isodate"); err != nil {
			fields["date"] = "date must be a date like 2006-01-02"
		}
		if err := s.validator.ValidateVar(newTime, "required,clock"); err != nil {
			fields["time"] = "time must be a time like 2:30 PM"
		}
		if len(fields) > 0 {
			return &ValidationError{Fields: fields}
		}

		at, err := timeparse.Combine(newDate, newTime, s.loc)
		if err != nil {
			return parseValidationError(err)
		}

		i, ok := s.indexLocked(id)
		if !ok {
			return ErrAppointmentNotFound
		}
		before = s.appointments[i]

		if before.Status.IsTerminal() {
			return fmt.Errorf("%w: cannot reschedule a %s appointment", ErrInvalidTransition, before.Status)
		}

		updated := before
		updated.Date = timeparse.FormatDate(at)
		updated.Time = timeparse.FormatClock(at)
		updated.UpdatedAt = s.now()

		if err := s.appointmentRepo.Update(ctx, &updated); err != nil {
			s.log.Warnf("Failed to reschedule appointment %s: %+v", id, err)
			return err
		}

		s.appointments[i] = updated
		after = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Infof("Appointment %s rescheduled to %s %s", id, after.Date, after.Time)
	s.recordAudit(ctx, entity.AuditActionAppointmentReschedule, id, before, after)
	return &after, nil
}

// GetAppointmentByID returns a copy of the appointment with id
func (s *AppointmentStore) GetAppointmentByID(id string) (*entity.Appointment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.indexLocked(id)
	if !ok {
		return nil, false
	}
	apt := s.appointments[i]
	return &apt, true
}

// Appointments returns every appointment of the session
func (s *AppointmentStore) Appointments() []entity.Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entity.Appointment, len(s.appointments))
	copy(out, s.appointments)
	return out
}

// UpcomingAppointments returns the upcoming partition, soonest first
func (s *AppointmentStore) UpcomingAppointments() []entity.Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.upcomingLocked()
}

// PastAppointments returns the past partition, most recent first
func (s *AppointmentStore) PastAppointments() []entity.Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	today := s.today()
	past := make([]entity.Appointment, 0)
	for _, apt := range s.appointments {
		if !s.isUpcoming(apt, today) {
			past = append(past, apt)
		}
	}

	sort.SliceStable(past, func(i, j int) bool {
		return s.sortKey(past[i]).After(s.sortKey(past[j]))
	})
	return past
}

func (s *AppointmentStore) AppointmentTypes() []entity.AppointmentType {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entity.AppointmentType, len(s.appointmentTypes))
	copy(out, s.appointmentTypes)
	return out
}

// Doctors returns the provider directory, filtered by specialty when one is given
func (s *AppointmentStore) Doctors(specialty string) []entity.Doctor {
	s.mu.RLock()
	defer s.mu.RUnlock()

	specialty = strings.ToLower(strings.TrimSpace(specialty))
	out := make([]entity.Doctor, 0, len(s.doctors))
	for _, d := range s.doctors {
		if specialty == "" || strings.Contains(strings.ToLower(d.Specialty), specialty) {
			out = append(out, d)
		}
	}
	return out
}

// RecommendedAppointments lists the catalog types with a recommended interval that the
// user has no upcoming appointment for and has not completed within the interval.
func (s *AppointmentStore) RecommendedAppointments() []entity.Recommendation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	today := s.today()
	recommendations := make([]entity.Recommendation, 0)

	for _, at := range s.appointmentTypes {
		if at.RecommendedIntervalMonths <= 0 {
			continue
		}

		booked := false
		var lastVisit time.Time
		for _, apt := range s.appointments {
			if !strings.EqualFold(apt.Type.Name, at.Name) {
				continue
			}
			if s.isUpcoming(apt, today) {
				booked = true
				break
			}
			if apt.Status != entity.AppointmentStatusCompleted {
				continue
			}
			if day, err := timeparse.ParseDate(apt.Date, s.loc); err == nil && day.After(lastVisit) {
				lastVisit = day
			}
		}
		if booked {
			continue
		}

		if lastVisit.IsZero() {
			recommendations = append(recommendations, entity.Recommendation{
				Type:   at,
				Reason: fmt.Sprintf("Recommended every %d months. No previous visit on record.", at.RecommendedIntervalMonths),
				DueBy:  timeparse.FormatDate(today),
			})
			continue
		}

		due := lastVisit.AddDate(0, at.RecommendedIntervalMonths, 0)
		if due.After(today) {
			continue
		}
		recommendations = append(recommendations, entity.Recommendation{
			Type:   at,
			Reason: fmt.Sprintf("Recommended every %d months. Last visit on %s.", at.RecommendedIntervalMonths, timeparse.FormatDate(lastVisit)),
			DueBy:  timeparse.FormatDate(due),
		})
	}

	return recommendations
}

func (s *AppointmentStore) Status() StoreStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StoreStatus{IsLoading: s.isLoading, Error: s.lastErr}
}

// mutate runs fn under the write lock, mirrors its error into Status and re-evaluates
// reminders after a success.
func (s *AppointmentStore) mutate(ctx context.Context, operation string, fn func() error) error {
	s.mu.Lock()
	err := fn()
	s.metrics.AppointmentMutation(operation, err)
	if err != nil {
		s.lastErr = err
		s.mu.Unlock()
		return err
	}
	s.lastErr = nil
	upcoming := s.upcomingLocked()
	s.mu.Unlock()

	s.evaluateReminders(ctx, upcoming)
	return nil
}

func (s *AppointmentStore) evaluateReminders(ctx context.Context, upcoming []entity.Appointment) {
	if s.reminders == nil {
		return
	}
	s.reminders.Evaluate(ctx, s.session.UserID.String(), upcoming)
}

func (s *AppointmentStore) recordAudit(ctx context.Context, action, id string, oldValue, newValue interface{}) {
	if s.audit == nil {
		return
	}
	userID := s.session.UserID
	entry := entity.AuditEntry{
		UserID:   &userID,
		Action:   action,
		Entity:   "appointment",
		EntityID: id,
		OldValue: oldValue,
		NewValue: newValue,
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.log.Warnf("Failed to record %s for appointment %s: %+v", action, id, err)
	}
}

func (s *AppointmentStore) validate(req interface{}) error {
	if err := s.validator.Validate(req); err != nil {
		fields := s.validator.FormatValidationErrors(err)
		if len(fields) == 0 {
			fields = map[string]string{"request": err.Error()}
		}
		return &ValidationError{Fields: fields}
	}
	return nil
}

func (s *AppointmentStore) applyPatchLocked(apt entity.Appointment, patch *dto.UpdateAppointmentRequest) (entity.Appointment, error) {
	if patch.TypeName != nil {
		name := strings.TrimSpace(*patch.TypeName)
		if name == "" {
			return apt, &ValidationError{Fields: map[string]string{"type_name": "type_name is required"}}
		}
		apt.Type.Name = name
	}
	if patch.TypeCategory != nil {
		apt.Type.Category = strings.TrimSpace(*patch.TypeCategory)
	}
	if patch.ProviderName != nil {
		apt.Provider.Name = strings.TrimSpace(*patch.ProviderName)
	}
	if patch.ProviderSpecialty != nil {
		apt.Provider.Specialty = strings.TrimSpace(*patch.ProviderSpecialty)
	}
	if patch.Location != nil {
		apt.Location = strings.TrimSpace(*patch.Location)
	}
	if patch.Notes != nil {
		apt.Notes = *patch.Notes
	}

	if patch.Date != nil || patch.Time != nil {
		date, clock := apt.Date, apt.Time
		if patch.Date != nil {
			date = *patch.Date
		}
		if patch.Time != nil {
			clock = *patch.Time
		}
		at, err := timeparse.Combine(date, clock, s.loc)
		if err != nil {
			return apt, parseValidationError(err)
		}
		newDate, newClock := timeparse.FormatDate(at), timeparse.FormatClock(at)
		// Echoing the current date and time is allowed; moving a final appointment is not
		if apt.Status.IsTerminal() && (newDate != apt.Date || newClock != apt.Time) {
			return apt, fmt.Errorf("%w: cannot reschedule a %s appointment", ErrInvalidTransition, apt.Status)
		}
		apt.Date, apt.Time = newDate, newClock
	}

	reason := ""
	if patch.CancellationReason != nil {
		reason = strings.TrimSpace(*patch.CancellationReason)
	}

	if patch.Status != nil {
		next := entity.AppointmentStatus(*patch.Status)
		if !apt.Status.CanTransitionTo(next) {
			return apt, transitionError(apt.Status, next)
		}
		switch {
		case next == entity.AppointmentStatusCancelled && !apt.IsCancelled():
			apt.Cancel(reason)
			return apt, nil
		case next != entity.AppointmentStatusCancelled:
			apt.Status = next
			apt.CancellationReason = ""
		}
	}

	if patch.CancellationReason != nil {
		if !apt.IsCancelled() {
			return apt, &ValidationError{Fields: map[string]string{
				"cancellation_reason": "cancellation_reason is only allowed on cancelled appointments",
			}}
		}
		if reason != "" {
			apt.CancellationReason = reason
		}
	}

	return apt, nil
}

// applyCatalogDefaultsLocked fills what the request left out from the catalog
func (s *AppointmentStore) applyCatalogDefaultsLocked(apt *entity.Appointment) {
	if apt.Type.Category == "" {
		for _, at := range s.appointmentTypes {
			if strings.EqualFold(at.Name, apt.Type.Name) {
				apt.Type.Category = at.Category
				break
			}
		}
	}

	if apt.Provider.Name == "" {
		apt.Provider.Name = DefaultProviderName
	} else {
		for _, d := range s.doctors {
			if strings.EqualFold(d.Name, apt.Provider.Name) {
				if apt.Provider.Specialty == "" {
					apt.Provider.Specialty = d.Specialty
				}
				apt.Provider.Location = d.Location
				break
			}
		}
	}

	if apt.Location == "" {
		apt.Location = apt.Provider.Location
	}
	if apt.Location == "" {
		apt.Location = DefaultLocation
	}
}

func (s *AppointmentStore) indexLocked(id string) (int, bool) {
	for i := range s.appointments {
		if s.appointments[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

func (s *AppointmentStore) upcomingLocked() []entity.Appointment {
	today := s.today()
	upcoming := make([]entity.Appointment, 0)
	for _, apt := range s.appointments {
		if s.isUpcoming(apt, today) {
			upcoming = append(upcoming, apt)
		}
	}

	sort.SliceStable(upcoming, func(i, j int) bool {
		return s.sortKey(upcoming[i]).Before(s.sortKey(upcoming[j]))
	})
	return upcoming
}

// isUpcoming places apt in exactly one partition. An unreadable date only keeps
// active appointments upcoming.
func (s *AppointmentStore) isUpcoming(apt entity.Appointment, today time.Time) bool {
	day, err := timeparse.ParseDate(apt.Date, s.loc)
	if err != nil {
		return !apt.IsCancelled() && apt.Status.IsActive()
	}
	return apt.IsUpcoming(day, today)
}

// sortKey orders by date and time; an unreadable time sorts at the end of its day
func (s *AppointmentStore) sortKey(apt entity.Appointment) time.Time {
	if at, err := timeparse.Combine(apt.Date, apt.Time, s.loc); err == nil {
		return at
	}
	if day, err := timeparse.ParseDate(apt.Date, s.loc); err == nil {
		return day.Add(24*time.Hour - time.Nanosecond)
	}
	return time.Time{}
}

func (s *AppointmentStore) today() time.Time {
	y, m, d := s.now().In(s.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.loc)
}

func transitionError(from, to entity.AppointmentStatus) error {
	return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, from, to)
}

func parseValidationError(err error) error {
	field := "time"
	if errors.Is(err, timeparse.ErrInvalidDate) {
		field = "date"
	}
	return &ValidationError{Fields: map[string]string{field: err.Error()}}
}
