package syncerr

import (
	"fmt"
	"testing"
)

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "disabled", err: ErrDisabled, want: false},
		{name: "invalid configuration", err: ErrInvalidConfiguration, want: false},
		{name: "unauthorized", err: ErrUnauthorized, want: false},
		{name: "remote unavailable", err: ErrRemoteUnavailable, want: true},
		{name: "server error", err: ErrServerError, want: true},
		{name: "cancelled", err: ErrCancelled, want: true},
		{name: "wrapped sentinel", err: fmt.Errorf("round failed: %w", ErrUnauthorized), want: false},
		{name: "unknown error", err: fmt.Errorf("disk full"), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Retryable(tt.err); got != tt.want {
				t.Errorf("Retryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
