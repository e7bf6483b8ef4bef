// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors for domain layer.
var (
	ErrNotFound   = errors.New("resource not found")
	ErrValidation = errors.New("validation failed")
	ErrBadRequest = errors.New("malformed request")
	ErrConflict   = errors.New("conflicting request")
	ErrUpstream   = errors.New("upstream failure")
)

// publicMessager is implemented by upstream errors whose message may be shown
// to clients.
type publicMessager interface {
	PublicMessage() string
}

// RespondError maps domain errors to HTTP responses using RFC7807. detail
// replaces the message of upstream and internal failures.
func RespondError(w http.ResponseWriter, err error, detail string) {
	switch {
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrBadRequest):
		Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrConflict):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrUpstream):
		var pub publicMessager
		if errors.As(err, &pub) {
			detail = pub.PublicMessage()
		}
		Problem(w, http.StatusBadGateway, "Upstream Error", detail)
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", detail)
	}
}
