package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/partyhub/internal/model"
	"github.com/mcoot/partyhub/internal/services/credential"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeGameNotFound       = "GAME_NOT_FOUND"
	CodePartyNotFound      = "PARTY_NOT_FOUND"
	CodeInvalidJoinToken   = "INVALID_JOIN_TOKEN"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeInternalError      = "INTERNAL_ERROR"
)

// ErrUnavailable marks a dependency that is shutting down or unreachable
var ErrUnavailable = errors.New("service unavailable")

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	var ve *model.ValidationError
	if errors.As(err, &ve) {
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, ve.Error()}}
	}

	switch {
	case errors.Is(err, model.ErrGameNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeGameNotFound, "Game not found"}}
	case errors.Is(err, model.ErrPartyNotFound):
		return &httpError{http.StatusNotFound, APIError{CodePartyNotFound, "Party not found"}}

	// Credential failures all look the same to the caller
	case credential.IsAuthError(err):
		return &httpError{http.StatusUnauthorized, APIError{CodeInvalidJoinToken, "Invalid or expired join token"}}

	case errors.Is(err, ErrUnavailable):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeServiceUnavailable, "Service unavailable"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
