package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"

	apperr "github.com/kislikjeka/handygo/internal/shared/errors"
	"github.com/kislikjeka/handygo/internal/transport/httpapi/middleware"
	"github.com/kislikjeka/handygo/pkg/logger"
)

// Response is the envelope of every API response
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// maxBodyBytes caps a request body
const maxBodyBytes = 1 << 20

// respondJSON sends a success envelope
func respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeEnvelope(w, Response{Success: true, Data: data})
}

func writeEnvelope(w http.ResponseWriter, resp Response) {
	json.NewEncoder(w).Encode(resp)
}

// respondWithError sends a failure envelope with an explicit status
func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeEnvelope(w, Response{Success: false, Error: message})
}

// respondError maps an application error to its HTTP status. Errors that
// carry no application code are logged and reported as 500.
func respondError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	appErr := apperr.GetAppError(err)
	if appErr == nil || appErr.Code == apperr.ErrCodeUpstream {
		log.WithContext(r.Context()).Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err)
		respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respondWithError(w, statusFor(appErr.Code), appErr.Message)
}

// statusFor maps an error code to an HTTP status
func statusFor(code string) int {
	switch code {
	case apperr.ErrCodeValidation, apperr.ErrCodeInvalidTransition, apperr.ErrCodeInsufficientBalance:
		return http.StatusBadRequest
	case apperr.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case apperr.ErrCodeForbidden:
		return http.StatusForbidden
	case apperr.ErrCodeNotFound:
		return http.StatusNotFound
	case apperr.ErrCodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

var (
	errInvalidBody  = apperr.Validation("invalid request body")
	errUnauthorized = apperr.Unauthorized("unauthorized")
)

// decodeJSON reads a JSON request body into v. An empty body leaves v zero.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return errInvalidBody
	}
	return nil
}

// callerID returns the authenticated account ID
func callerID(r *http.Request) (uuid.UUID, error) {
	id, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok || id == uuid.Nil {
		return uuid.Nil, errUnauthorized
	}
	return id, nil
}

// parseUUID parses a path parameter as a UUID
func parseUUID(value, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, apperr.Validationf("invalid %s", name)
	}
	return id, nil
}
