package agent

import "errors"

var (
	// ErrToolNotFound indicates the model requested a tool that is not registered.
	ErrToolNotFound = errors.New("tool not found")

	// ErrInvalidInput indicates tool input failed validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyMessage indicates a turn was requested without user text.
	ErrEmptyMessage = errors.New("empty message")

	// ErrNetworkError indicates a network-related failure.
	ErrNetworkError = errors.New("network error")

	// ErrServiceUnavailable indicates the service is temporarily unavailable.
	ErrServiceUnavailable = errors.New("service unavailable")
)

// IsTransientError checks if the error is transient and might succeed on retry.
func IsTransientError(err error) bool {
	return errors.Is(err, ErrNetworkError) ||
		errors.Is(err, ErrServiceUnavailable)
}
