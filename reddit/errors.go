package reddit

import (
	"fmt"
	"net"
	"net/http"

	"github.com/pkg/errors"
)

// APIError is a non-2xx response from the Reddit API.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("reddit returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("reddit returned status %d: %s", e.StatusCode, e.Detail)
}

// Transient reports whether the failure is worth retrying: rate limiting or a
// server-side outage. 4xx responses other than 429 indicate a request the API
// will never accept.
func (e *APIError) Transient() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// IsTransient classifies an error from any client call. Network-level
// failures (timeouts, resets) count as transient alongside retryable API
// statuses.
func IsTransient(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Transient()
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
