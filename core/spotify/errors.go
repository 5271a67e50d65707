package spotify

import (
	"errors"
	"fmt"
)

// ErrNotConfigured is returned when no client credentials are configured;
// the service can then only answer from cache.
var ErrNotConfigured = errors.New("spotify credentials not configured")

// StatusError is a non-2xx answer from the provider.
type StatusError struct {
	StatusCode int
	Status     string
	Path       string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("spotify %s: %s", e.Path, e.Status)
	}
	return fmt.Sprintf("spotify %s: %s: %s", e.Path, e.Status, e.Body)
}

// IsStatusError reports whether err carries a provider status code.
func IsStatusError(err error) bool {
	var se *StatusError
	return errors.As(err, &se)
}
