package response

import (
	"encoding/json"
	"net/http"
)

// Response is the envelope of every API reply
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   any    `json:"error,omitempty"`
}

func JSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func Success(w http.ResponseWriter, statusCode int, message string, data any) {
	JSON(w, statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func Error(w http.ResponseWriter, statusCode int, message string, err any) {
	JSON(w, statusCode, Response{
		Success: false,
		Message: message,
		Error:   err,
	})
}

// ValidationError replies 400 with a field -> message map
func ValidationError(w http.ResponseWriter, fields map[string]string) {
	Error(w, http.StatusBadRequest, "Validation failed", fields)
}

func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, orDefault(message, "Bad request"), nil)
}

func Unauthorized(w http.ResponseWriter, message string) {
	Error(w, http.StatusUnauthorized, orDefault(message, "Unauthorized"), nil)
}

func Forbidden(w http.ResponseWriter, message string) {
	Error(w, http.StatusForbidden, orDefault(message, "Forbidden"), nil)
}

func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, orDefault(message, "Resource not found"), nil)
}

// Conflict replies 409, used when the resource state forbids the change
func Conflict(w http.ResponseWriter, message string) {
	Error(w, http.StatusConflict, orDefault(message, "Conflict"), nil)
}

func TooManyRequests(w http.ResponseWriter, message string) {
	Error(w, http.StatusTooManyRequests, orDefault(message, "Too many requests"), nil)
}

func InternalServerError(w http.ResponseWriter, message string) {
	Error(w, http.StatusInternalServerError, orDefault(message, "Internal server error"), nil)
}

func orDefault(message, fallback string) string {
	if message == "" {
		return fallback
	}
	return message
}
