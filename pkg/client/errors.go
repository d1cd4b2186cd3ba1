package client

import (
	"errors"
	"fmt"
	"net/http"
)

// TransportError reports any failure to perform or complete a request:
// network errors, timeouts, non-2xx responses and undecodable bodies.
type TransportError struct {
	Op         string // list, create, replaceAll, updateStatus, remove
	Method     string
	URL        string
	StatusCode int    // zero when no response was received
	Body       string // response body excerpt for non-2xx responses
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Body != "":
		return fmt.Sprintf("%s: %s %s returned status %d: %s", e.Op, e.Method, e.URL, e.StatusCode, e.Body)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: %s %s returned status %d", e.Op, e.Method, e.URL, e.StatusCode)
	default:
		return fmt.Sprintf("%s: %s %s: %v", e.Op, e.Method, e.URL, e.Err)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a TransportError for a 404 response
func IsNotFound(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.StatusCode == http.StatusNotFound
}

// IsTransportError reports whether err wraps a TransportError
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
