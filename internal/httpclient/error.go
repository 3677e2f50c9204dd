package httpclient

import (
	stderrors "errors"

	"github.com/rai-abhi24/cgpey/internal/errors"
)

// Error is returned by Client.Send for responses with a 4xx or 5xx
// status. The raw response body is kept so gateway adapters can decode
// provider error envelopes.
type Error struct {
	*errors.InternalError
	StatusCode int
	Response   []byte
}

// NewError wraps a failed HTTP exchange.
func NewError(statusCode int, response []byte) *Error {
	return &Error{
		InternalError: errors.New(errors.ErrCodeHTTPClient, "http client error"),
		StatusCode:    statusCode,
		Response:      response,
	}
}

func (e *Error) Error() string {
	return e.InternalError.Error()
}

func (e *Error) Unwrap() error {
	return e.InternalError.Unwrap()
}

// IsHTTPError extracts the transport error from an error chain.
func IsHTTPError(err error) (*Error, bool) {
	var httpErr *Error
	if stderrors.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}
