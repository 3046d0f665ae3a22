package api

import "fmt"

// APIError is a non-2xx response from the server, carrying the HTTP status
// and the error message from the response body.
type APIError struct {
	Message string
	Status  int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}
