package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/mcoot/partyhub/internal/api/apierr"
	"github.com/mcoot/partyhub/internal/realtime"
)

// Re-export from apierr for convenience
type APIError = apierr.APIError
type ErrorResponse = apierr.ErrorResponse

// Re-export error codes
const (
	CodeInvalidRequest     = apierr.CodeInvalidRequest
	CodeGameNotFound       = apierr.CodeGameNotFound
	CodeInvalidJoinToken   = apierr.CodeInvalidJoinToken
	CodeServiceUnavailable = apierr.CodeServiceUnavailable
	CodeInternalError      = apierr.CodeInternalError
)

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	if errors.Is(err, realtime.ErrRouterStopped) {
		err = fmt.Errorf("%w: %w", apierr.ErrUnavailable, err)
	}
	apierr.WriteError(w, err)
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return apierr.NewInvalidRequestError(message)
}
