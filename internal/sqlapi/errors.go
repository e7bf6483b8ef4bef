package sqlapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"

	"github.com/odyssey-erp/entityadmin/internal/platform/httpx"
)

// DefaultSaveError is the message used when the backend reports an error
// without details.
const DefaultSaveError = "Failed to save data"

const statusOK = "Ok"

// ServerError is an application-level failure reported with status "Error" in
// an otherwise successful response.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return DefaultSaveError
	}
	return e.Message
}

// PublicMessage returns the backend message, which is safe to show to clients.
func (e *ServerError) PublicMessage() string {
	return e.Error()
}

func (e *ServerError) Unwrap() error {
	return httpx.ErrUpstream
}

// StatusError is returned for HTTP responses with status >= 400.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("sqlapi: unexpected status %d", e.Code)
	}
	return fmt.Sprintf("sqlapi: unexpected status %d: %s", e.Code, e.Body)
}

func (e *StatusError) Unwrap() error {
	return httpx.ErrUpstream
}

// checkStatus converts any status other than the exact "Ok" into a *ServerError.
func checkStatus(status, message string) error {
	if status != statusOK {
		return &ServerError{Message: message}
	}
	return nil
}

// IsServerError reports whether err carries a backend "Error" status.
func IsServerError(err error) bool {
	var se *ServerError
	return errors.As(err, &se)
}

// unavailable reports connection refused, aborted and timeout failures.
func unavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNABORTED) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
