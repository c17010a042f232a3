package response

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/diagnosis/heritage-portal/internal/domain"
	"github.com/diagnosis/heritage-portal/pkg/logger"
)

// ErrorResponse represents a structured JSON error response
type ErrorResponse struct {
	Error  string             `json:"error"`
	Code   string             `json:"code,omitempty"`
	Fields domain.FieldErrors `json:"fields,omitempty"`
}

// Common error codes
const (
	CodeInvalidInput  = "INVALID_INPUT"
	CodeValidation    = "VALIDATION_FAILED"
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeNotFound      = "NOT_FOUND"
	CodeConflict      = "CONFLICT"
	CodeRateLimit     = "RATE_LIMIT_EXCEEDED"
	CodeUpstream      = "UPSTREAM_UNAVAILABLE"
	CodeInternalError = "INTERNAL_ERROR"
)

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

// WriteError writes a structured JSON error response
func WriteError(w http.ResponseWriter, statusCode int, message string, code string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message, Code: code})
}

// FromError maps a service error onto its status code. Unknown errors are
// logged and reported as a 500 without their text.
func FromError(ctx context.Context, w http.ResponseWriter, err error) {
	if fe, ok := domain.AsFieldErrors(err); ok {
		WriteJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:  "Please review the highlighted fields",
			Code:   CodeValidation,
			Fields: fe,
		})
		return
	}

	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		Unauthorized(w, "Authentication required")
	case errors.Is(err, domain.ErrNotFound):
		NotFound(w, "Not found")
	case errors.Is(err, domain.ErrConflict):
		Conflict(w, "Request conflicts with an existing resource")
	case errors.Is(err, domain.ErrRateLimited):
		RateLimit(w, "Too many requests. Try again later.")
	case errors.Is(err, domain.ErrUpstream):
		logger.WarnContext(ctx, "Upstream failure", "error", err)
		WriteError(w, http.StatusBadGateway, "A service we depend on is unavailable. Please try again.", CodeUpstream)
	default:
		logger.ErrorContext(ctx, "Unhandled error", "error", err)
		InternalError(w, "Internal server error")
	}
}

// Convenience functions for common errors
func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message, CodeInvalidInput)
}

func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, message, CodeUnauthorized)
}

func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message, CodeNotFound)
}

func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, message, CodeInternalError)
}

func RateLimit(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusTooManyRequests, message, CodeRateLimit)
}

func Conflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, message, CodeConflict)
}
