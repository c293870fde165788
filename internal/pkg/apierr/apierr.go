package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is the transport-facing error carrier. Services return it (possibly
// wrapping a cause); handlers map Status onto the HTTP response and Code into
// the error envelope.
type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// As unwraps err into an *Error if one is anywhere in its chain.
func As(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// Attendance error taxonomy. Codes are stable identifiers for clients;
// messages travel in the wrapped cause.
const (
	CodeUnauthorizedNetwork = "UNAUTHORIZED_NETWORK"
	CodeNetworkUnresolved   = "NETWORK_UNRESOLVED"
	CodeInvalidTransition   = "INVALID_TRANSITION"
	CodeDuplicateAction     = "DUPLICATE_ACTION"
	CodeStorageUnavailable  = "STORAGE_UNAVAILABLE"
	CodeValidation          = "VALIDATION_ERROR"
)

func UnauthorizedNetwork(err error) *Error {
	return New(http.StatusForbidden, CodeUnauthorizedNetwork, err)
}

func NetworkUnresolved(err error) *Error {
	return New(http.StatusBadRequest, CodeNetworkUnresolved, err)
}

func InvalidTransition(err error) *Error {
	return New(http.StatusConflict, CodeInvalidTransition, err)
}

func DuplicateAction(err error) *Error {
	return New(http.StatusConflict, CodeDuplicateAction, err)
}

func StorageUnavailable(err error) *Error {
	return New(http.StatusServiceUnavailable, CodeStorageUnavailable, err)
}

func Validation(err error) *Error {
	return New(http.StatusBadRequest, CodeValidation, err)
}
