package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"wellness-appointments/internal/converter"
	"wellness-appointments/internal/delivery/dto"
	"wellness-appointments/internal/delivery/http/middleware"
	"wellness-appointments/internal/domain/entity"
	"wellness-appointments/internal/usecase"
	"wellness-appointments/pkg/response"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// StoreProvider hands out the appointment store of an authenticated session
type StoreProvider interface {
	ForSession(ctx context.Context, session *entity.Session) (*usecase.AppointmentStore, error)
}

type AppointmentHandler struct {
	stores StoreProvider
	log    *logrus.Logger
}

func NewAppointmentHandler(stores StoreProvider, log *logrus.Logger) *AppointmentHandler {
	return &AppointmentHandler{
		stores: stores,
		log:    log,
	}
}

// ListAppointments handles listing every appointment of the caller
// @Summary List appointments
// @Tags Appointments
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response
// @Router /appointments [get]
func (h *AppointmentHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	store, ok := h.storeFor(w, r)
	if !ok {
		return
	}

	response.Success(w, http.StatusOK, "Appointments retrieved successfully", converter.AppointmentsToListResponse(store.Appointments()))
}

// ListUpcomingAppointments handles listing the upcoming appointments, soonest first
// @Summary List upcoming appointments
// @Tags Appointments
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response
// @Router /appointments/upcoming [get]
func (h *AppointmentHandler) ListUpcomingAppointments(w http.ResponseWriter, r *http.Request) {
	store, ok := h.storeFor(w, r)
	if !ok {
		return
	}

	response.Success(w, http.StatusOK, "Upcoming appointments retrieved successfully", converter.AppointmentsToListResponse(store.UpcomingAppointments()))
}

// ListPastAppointments handles listing the past appointments, most recent first
// @Summary List past appointments
// @Tags Appointments
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response
// @Router /appointments/past [get]
func (h *AppointmentHandler) ListPastAppointments(w http.ResponseWriter, r *http.Request) {
	store, ok := h.storeFor(w, r)
	if !ok {
		return
	}

	response.Success(w, http.StatusOK, "Past appointments retrieved successfully", converter.AppointmentsToListResponse(store.PastAppointments()))
}

func (h *AppointmentHandler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	store, ok := h.storeFor(w, r)
	if !ok {
		return
	}

	apt, found := store.GetAppointmentByID(mux.Vars(r)["id"])
	if !found {
		response.NotFound(w, "Appointment not found")
		return
	}

	response.Success(w, http.StatusOK, "Appointment retrieved successfully", converter.AppointmentToResponse(apt))
}

// GetStatus reports the loading flag and the last error of the caller's store
func (h *AppointmentHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	store, ok := h.storeFor(w, r)
	if !ok {
		return
	}

	status := store.Status()
	resp := dto.StoreStatusResponse{IsLoading: status.IsLoading}
	if status.Error != nil {
		resp.Error = status.Error.Error()
	}

	response.Success(w, http.StatusOK, "Store status retrieved successfully", resp)
}

// ScheduleAppointment handles booking a new appointment
// @Summary Schedule an appointment
// @Tags Appointments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.ScheduleAppointmentRequest true "Schedule Request"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /appointments [post]
func (h *AppointmentHandler) ScheduleAppointment(w http.ResponseWriter, r *http.Request) {
	var req dto.ScheduleAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	store, ok := h.storeFor(w, r)
	if !ok {
		return
	}

	apt, err := store.ScheduleAppointment(r.Context(), &req)
	if err != nil {
		h.writeStoreError(w, err, "Failed to schedule appointment")
		return
	}

	response.Success(w, http.StatusCreated, "Appointment scheduled successfully", converter.AppointmentToResponse(apt))
}

// UpdateAppointment handles a partial update of an appointment
// @Summary Update an appointment
// @Tags Appointments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Appointment ID"
// @Param request body dto.UpdateAppointmentRequest true "Update Request"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /appointments/{id} [patch]
func (h *AppointmentHandler) UpdateAppointment(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	store, ok := h.storeFor(w, r)
	if !ok {
		return
	}

	apt, err := store.UpdateAppointment(r.Context(), mux.Vars(r)["id"], &req)
	if err != nil {
		h.writeStoreError(w, err, "Failed to update appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment updated successfully", converter.AppointmentToResponse(apt))
}

func (h *AppointmentHandler) ConfirmAppointment(w http.ResponseWriter, r *http.Request) {
	store, ok := h.storeFor(w, r)
	if !ok {
		return
	}

	id := mux.Vars(r)["id"]
	if err := store.ConfirmAppointment(r.Context(), id); err != nil {
		h.writeStoreError(w, err, "Failed to confirm appointment")
		return
	}

	apt, _ := store.GetAppointmentByID(id)
	response.Success(w, http.StatusOK, "Appointment confirmed successfully", converter.AppointmentToResponse(apt))
}

// CancelAppointment handles cancelling an appointment. The body is optional.
// @Summary Cancel an appointment
// @Tags Appointments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Appointment ID"
// @Param request body dto.CancelAppointmentRequest false "Cancel Request"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /appointments/{id}/cancel [post]
func (h *AppointmentHandler) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	var req dto.CancelAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(w, "Invalid request body")
		return
	}

	store, ok := h.storeFor(w, r)
	if !ok {
		return
	}

	id := mux.Vars(r)["id"]
	if err := store.CancelAppointment(r.Context(), id, req.Reason); err != nil {
		h.writeStoreError(w, err, "Failed to cancel appointment")
		return
	}

	apt, _ := store.GetAppointmentByID(id)
	response.Success(w, http.StatusOK, "Appointment cancelled successfully", converter.AppointmentToResponse(apt))
}

// RescheduleAppointment handles moving an appointment to a new date and time
// @Summary Reschedule an appointment
// @Tags Appointments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Appointment ID"
// @Param request body dto.RescheduleAppointmentRequest true "Reschedule Request"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /appointments/{id}/reschedule [post]
func (h *AppointmentHandler) RescheduleAppointment(w http.ResponseWriter, r *http.Request) {
	var req dto.RescheduleAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	store, ok := h.storeFor(w, r)
	if !ok {
		return
	}

	apt, err := store.RescheduleAppointment(r.Context(), mux.Vars(r)["id"], req.Date, req.Time)
	if err != nil {
		h.writeStoreError(w, err, "Failed to reschedule appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment rescheduled successfully", converter.AppointmentToResponse(apt))
}

// storeFor resolves the caller's store and writes the error response when it cannot
func (h *AppointmentHandler) storeFor(w http.ResponseWriter, r *http.Request) (*usecase.AppointmentStore, bool) {
	return resolveStore(w, r, h.stores, h.log)
}

func (h *AppointmentHandler) writeStoreError(w http.ResponseWriter, err error, fallback string) {
	writeStoreError(w, err, fallback, h.log)
}

func resolveStore(w http.ResponseWriter, r *http.Request, stores StoreProvider, log *logrus.Logger) (*usecase.AppointmentStore, bool) {
	session, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return nil, false
	}

	store, err := stores.ForSession(r.Context(), session)
	if err != nil {
		writeStoreError(w, err, "Failed to load appointments", log)
		return nil, false
	}
	return store, true
}

func writeStoreError(w http.ResponseWriter, err error, fallback string, log *logrus.Logger) {
	var validationErr *usecase.ValidationError
	switch {
	case errors.As(err, &validationErr):
		response.ValidationError(w, validationErr.Fields)
	case errors.Is(err, usecase.ErrAppointmentNotFound):
		response.NotFound(w, "Appointment not found")
	case errors.Is(err, usecase.ErrInvalidTransition):
		response.Conflict(w, err.Error())
	case errors.Is(err, usecase.ErrSessionRequired):
		response.Unauthorized(w, "Invalid token")
	default:
		log.Errorf("%s: %+v", fallback, err)
		response.InternalServerError(w, fallback)
	}
}
