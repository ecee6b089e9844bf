package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"wellness-appointments/internal/delivery/dto"
	"wellness-appointments/internal/delivery/http/middleware"
	"wellness-appointments/internal/usecase"
	"wellness-appointments/pkg/response"
	"wellness-appointments/pkg/validator"

	"github.com/google/uuid"
)

// StoreEvictor drops the cached appointment store of a user
type StoreEvictor interface {
	Evict(userID uuid.UUID)
}

type AuthHandler struct {
	authUsecase usecase.AuthUsecase
	validator   *validator.CustomValidator
	stores      StoreEvictor
}

func NewAuthHandler(authUsecase usecase.AuthUsecase, validator *validator.CustomValidator, stores StoreEvictor) *AuthHandler {
	return &AuthHandler{
		authUsecase: authUsecase,
		validator:   validator,
		stores:      stores,
	}
}

// Register handles employee registration
// @Summary Register a new employee
// @Description Register a new employee with email, password, full name and department
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Register Request"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !decodeValid(w, r, h.validator, &req) {
		return
	}

	user, err := h.authUsecase.Register(r.Context(), &req)
	if errors.Is(err, usecase.ErrEmailAlreadyExists) {
		response.Conflict(w, "An account with this email already exists")
		return
	}
	if err != nil {
		response.InternalServerError(w, "Failed to register user")
		return
	}

	response.Success(w, http.StatusCreated, "User registered successfully", user)
}

// Login handles user login
// @Summary Login user
// @Description Login with email and password
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login Request"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decodeValid(w, r, h.validator, &req) {
		return
	}

	tokens, err := h.authUsecase.Login(r.Context(), &req)
	if errors.Is(err, usecase.ErrInvalidCredentials) {
		response.Unauthorized(w, "Invalid email or password")
		return
	}
	if err != nil {
		response.InternalServerError(w, "Failed to login")
		return
	}

	response.Success(w, http.StatusOK, "Login successful", tokens)
}

// Logout handles user logout
// @Summary Logout user
// @Description Revoke the access token and drop the cached appointments
// @Tags Auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	if err := h.authUsecase.Logout(r.Context(), session); err != nil {
		response.InternalServerError(w, "Failed to logout")
		return
	}

	if h.stores != nil {
		h.stores.Evict(session.UserID)
	}

	response.Success(w, http.StatusOK, "Logout successful", nil)
}

// GetCurrentUser handles getting current user info
// @Summary Get current user
// @Description Get authenticated user information
// @Tags Auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/me [get]
func (h *AuthHandler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	user, err := h.authUsecase.GetCurrentUser(r.Context(), userID)
	if errors.Is(err, usecase.ErrUserNotFound) {
		response.NotFound(w, "User not found")
		return
	}
	if err != nil {
		response.InternalServerError(w, "Failed to get user info")
		return
	}

	response.Success(w, http.StatusOK, "User retrieved successfully", user)
}

// decodeValid decodes the JSON body into req and validates it, writing the 400
// response itself when either step fails.
func decodeValid(w http.ResponseWriter, r *http.Request, v *validator.CustomValidator, req interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return false
	}
	if err := v.Validate(req); err != nil {
		response.ValidationError(w, v.FormatValidationErrors(err))
		return false
	}
	return true
}
