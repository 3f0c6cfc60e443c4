package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"financepro/internal/core"
	applog "financepro/internal/log"
	"financepro/internal/ocr"
	"financepro/internal/services"
	"financepro/internal/session"
	"financepro/internal/store"
)

// ErrorBody is the JSON body of every error response.
type ErrorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorBody{Error: msg})
}

// statusFor maps an error to its HTTP status, the message shown to the
// client and the log category.
func statusFor(err error) (status int, msg, errorType string) {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "malformed request", applog.ErrorTypeValidation
	case core.IsValidationError(err):
		return http.StatusUnprocessableEntity, validationMessage(err), applog.ErrorTypeValidation
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "record not found", applog.ErrorTypeNotFound
	case errors.Is(err, services.ErrConfirmationRequired):
		return http.StatusPreconditionRequired, "delete must be confirmed with confirm=true", applog.ErrorTypeValidation
	case errors.Is(err, session.ErrNoSession), errors.Is(err, session.ErrInvalidState):
		return http.StatusUnauthorized, "authentication required", applog.ErrorTypeAuth
	case errors.Is(err, services.ErrFeatureDisabled), errors.Is(err, session.ErrSignInDisabled):
		return http.StatusNotFound, "feature not available", applog.ErrorTypeConfiguration
	case errors.Is(err, ocr.ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge, "image too large", applog.ErrorTypeValidation
	case errors.Is(err, ocr.ErrUnsupportedImage):
		return http.StatusUnsupportedMediaType, "unsupported image type", applog.ErrorTypeValidation
	default:
		return http.StatusInternalServerError, "internal error", applog.ErrorTypeInternal
	}
}

// validationMessage returns the innermost sentinel text, which never
// contains user input beyond the rejected amount.
func validationMessage(err error) string {
	var pe *core.ParseError
	if errors.As(err, &pe) {
		return pe.Error()
	}
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}

// writeError logs server-side failures and writes the mapped response.
func writeError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	status, msg, errorType := statusFor(err)
	if status >= 500 {
		applog.NewStructuredLogger(applog.FromContext(r.Context())).
			LogError(r.Context(), "Request failed", err, operation, errorType, nil)
	} else {
		applog.FromContext(r.Context()).DebugContext(r.Context(), "Request rejected",
			applog.FieldOperation, operation,
			applog.FieldErrorType, errorType,
			applog.FieldError, err)
	}
	writeMessage(w, status, msg)
}
