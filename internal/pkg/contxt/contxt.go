package contxt

import (
	"context"
	"time"
)

// RequestTimeout bounds every outbound network call.
const RequestTimeout = 30 * time.Second

// WithTimeout derives a context from parent bounded by timeout.
// A non-positive timeout falls back to RequestTimeout.
func WithTimeout(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = RequestTimeout
	}
	return context.WithTimeout(parent, timeout)
}
