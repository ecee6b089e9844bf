package handler

import (
	"errors"
	"net/http"
	"strconv"

	"wellness-appointments/internal/delivery/dto"
	"wellness-appointments/internal/usecase"
	"wellness-appointments/pkg/response"
	"wellness-appointments/pkg/validator"

	"github.com/gorilla/mux"
)

// AuditLogHandler serves the appointment and account history to employers
type AuditLogHandler struct {
	auditLogUsecase usecase.AuditLogUsecase
	validator       *validator.CustomValidator
}

func NewAuditLogHandler(auditLogUsecase usecase.AuditLogUsecase, validator *validator.CustomValidator) *AuditLogHandler {
	return &AuditLogHandler{
		auditLogUsecase: auditLogUsecase,
		validator:       validator,
	}
}

// GetAuditLog handles fetching a single audit entry
// @Summary Get audit log
// @Tags Employer
// @Security BearerAuth
// @Produce json
// @Param id path int true "Audit log ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /employer/audit-logs/{id} [get]
func (h *AuditLogHandler) GetAuditLog(w http.ResponseWriter, r *http.Request) {
	auditLogID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || auditLogID <= 0 {
		response.BadRequest(w, "Invalid audit log ID")
		return
	}

	auditLog, err := h.auditLogUsecase.GetAuditLog(r.Context(), auditLogID)
	if err != nil {
		if errors.Is(err, usecase.ErrAuditLogNotFound) {
			response.NotFound(w, "Audit log not found")
			return
		}
		response.InternalServerError(w, "Failed to get audit log")
		return
	}

	response.Success(w, http.StatusOK, "Audit log retrieved successfully", auditLog)
}

// GetAllAuditLogs handles listing the audit trail, newest first
// @Summary List audit logs
// @Tags Employer
// @Security BearerAuth
// @Produce json
// @Param action query string false "Audit action, e.g. appointment.cancel"
// @Param user_id query string false "Acting user ID"
// @Param appointment_id query string false "Appointment ID"
// @Param limit query int false "Maximum entries (1-500)"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /employer/audit-logs [get]
func (h *AuditLogHandler) GetAllAuditLogs(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	query := dto.AuditLogQuery{
		Action:        params.Get("action"),
		UserID:        params.Get("user_id"),
		AppointmentID: params.Get("appointment_id"),
	}
	if raw := params.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			response.BadRequest(w, "Invalid limit")
			return
		}
		query.Limit = limit
	}

	if err := h.validator.Validate(&query); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	auditLogs, err := h.auditLogUsecase.GetAllAuditLogs(r.Context(), &query)
	if err != nil {
		var validationErr *usecase.ValidationError
		if errors.As(err, &validationErr) {
			response.ValidationError(w, validationErr.Fields)
			return
		}
		response.InternalServerError(w, "Failed to get audit logs")
		return
	}

	response.Success(w, http.StatusOK, "Audit logs retrieved successfully", auditLogs)
}
