// Package syncerr defines the sync failure taxonomy. Callers branch on
// these sentinels with errors.Is; everything else is a structural failure
// that aborts the round.
package syncerr

import "errors"

var (
	// ErrDisabled: sync is turned off in configuration.
	ErrDisabled = errors.New("sync is disabled")

	// ErrInvalidConfiguration: server URL, token or user id is missing.
	ErrInvalidConfiguration = errors.New("sync configuration is incomplete")

	// ErrRemoteUnavailable: no response from the server at all.
	ErrRemoteUnavailable = errors.New("sync server unreachable")

	// ErrUnauthorized: 401/403, the bearer token was rejected. Handled by
	// a session re-check one layer up, never by blind retry.
	ErrUnauthorized = errors.New("sync authorization rejected")

	// ErrServerError: any other non-2xx response.
	ErrServerError = errors.New("sync server error")

	// ErrCancelled: the round's context was cancelled before completion.
	ErrCancelled = errors.New("sync cancelled")
)

// Retryable reports whether a later attempt with unchanged configuration
// and credentials can succeed.
func Retryable(err error) bool {
	switch {
	case errors.Is(err, ErrDisabled), errors.Is(err, ErrInvalidConfiguration), errors.Is(err, ErrUnauthorized):
		return false
	}
	return true
}
