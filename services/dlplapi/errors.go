package dlplapi

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
)

// APIError is a non-2xx response from the DLPL API. It carries the HTTP
// status and the server-supplied message, which is displayed verbatim.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.Status, e.Message)
}

// ConnectionError means no response was obtained at all (DNS, timeout,
// connection refused). It is displayed with the underlying transport error.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return "connection error: " + e.Err.Error()
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// AsAPIError unwraps err down to an *APIError, if that is what it is.
func AsAPIError(err error) (*APIError, bool) {
	apiErr, ok := errors.Cause(err).(*APIError)
	return apiErr, ok
}

// IsConnectionError reports whether err is a transport failure.
func IsConnectionError(err error) bool {
	_, ok := errors.Cause(err).(*ConnectionError)
	return ok
}

// serverMessage digs the human-readable message out of an error body.
// The API answers either {"detail": "..."} or {"error": "..."}; anything
// else is surfaced as-is.
func serverMessage(body []byte) string {
	var payload struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Detail != "" {
			return payload.Detail
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return string(body)
}
