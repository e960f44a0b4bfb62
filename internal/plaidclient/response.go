package plaidclient

import "net/http"

// ErrorPayload is the structured error Plaid returns with a non-2xx status.
type ErrorPayload struct {
	Type           string `json:"error_type"`
	Code           string `json:"error_code"`
	Message        string `json:"error_message"`
	DisplayMessage string `json:"display_message,omitempty"`
	RequestID      string `json:"request_id,omitempty"`
}

// Response is the outcome of a Plaid call that produced an HTTP answer.
// Build one with Success or Failure.
type Response[T any] struct {
	StatusCode int
	Body       T
	Error      *ErrorPayload
}

// Success wraps a decoded response body.
func Success[T any](statusCode int, body T) Response[T] {
	return Response[T]{StatusCode: statusCode, Body: body}
}

// Failure wraps the error payload of a rejected call.
func Failure[T any](statusCode int, payload ErrorPayload) Response[T] {
	return Response[T]{StatusCode: statusCode, Error: &payload}
}

// IsSuccess reports whether Plaid accepted the request.
func (r Response[T]) IsSuccess() bool {
	return r.Error == nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Payload returns the error payload, falling back to the status text when Plaid sent none.
func (r Response[T]) Payload() ErrorPayload {
	var p ErrorPayload
	if r.Error != nil {
		p = *r.Error
	}
	if p.Message == "" {
		p.Message = http.StatusText(r.StatusCode)
	}
	return p
}
