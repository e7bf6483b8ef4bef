package entity

import "github.com/odyssey-erp/entityadmin/internal/platform/httpx"

var (
	// ErrValidation marks client-side validation failures raised before any remote call.
	ErrValidation error = &kindError{msg: "validation failed", kind: httpx.ErrValidation}
	// ErrNotFound indicates the entity does not exist remotely.
	ErrNotFound error = &kindError{msg: "entity not found", kind: httpx.ErrNotFound}
	// ErrIDRequired is returned when an update or delete row lacks its identifier.
	ErrIDRequired error = &ValidationError{Msg: "id is required for update/delete operations"}
)

// kindError is a domain sentinel classified under an httpx sentinel.
type kindError struct {
	msg  string
	kind error
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

// ValidationError carries a user-facing validation message and matches
// ErrValidation under errors.Is.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
