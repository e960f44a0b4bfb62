package app

import (
	"errors"

	"github.com/johnlangs/cashcanvas/internal/plaidclient"
)

// ErrUpstream matches every error produced when Plaid answered but rejected a request.
var ErrUpstream = errors.New("plaid API error")

// ErrItemNotFound is returned when a linked item does not exist or belongs to another user.
var ErrItemNotFound = errors.New("linked item not found")

// APIError carries the details of a rejected Plaid call.
type APIError struct {
	Operation  string
	StatusCode int
	Type       string
	Code       string
	Message    string
	RequestID  string
}

func newAPIError(operation string, statusCode int, payload plaidclient.ErrorPayload) *APIError {
	return &APIError{
		Operation:  operation,
		StatusCode: statusCode,
		Type:       payload.Type,
		Code:       payload.Code,
		Message:    payload.Message,
		RequestID:  payload.RequestID,
	}
}

func (e *APIError) Error() string {
	return "plaid API error: " + e.Message
}

// Is makes errors.Is(err, ErrUpstream) hold for any *APIError.
func (e *APIError) Is(target error) bool {
	return target == ErrUpstream
}
