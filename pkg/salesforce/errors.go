package salesforce

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-2xx response from the REST API.
type APIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("salesforce %s: HTTP %d: %s", e.Op, e.StatusCode, e.Body)
}

// IsUnauthorized reports whether err is a 401 from the API.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}
