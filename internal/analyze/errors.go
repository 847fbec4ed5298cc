package analyze

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse is returned when the body parses but carries
// neither text, audio nor an error.
var ErrMalformedResponse = errors.New("malformed analyze response")

// HTTPError is a non-2xx response from the analyze endpoint.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("Server error: %d", e.Status)
}

// ServiceError is an explicit error reported by the service in the response body.
type ServiceError struct {
	Message string
}

func (e *ServiceError) Error() string {
	if e == nil || e.Message == "" {
		return "analyze service error"
	}
	return e.Message
}

func IsHTTPError(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr)
}

func IsServiceError(err error) bool {
	var svcErr *ServiceError
	return errors.As(err, &svcErr)
}
