package sanitizer

import (
	"errors"
	"net"
	"time"
)

// RetryPolicy decides whether a failed MX lookup attempt is retried and how
// long to wait before the next one. Backoff grows linearly because MX checks
// are interactive; a user is waiting on the batch.
type RetryPolicy struct {
	// MaxRetries is the number of extra attempts after the first one.
	MaxRetries int
	// BackoffStep scales the delay: attempt n sleeps n * BackoffStep.
	BackoffStep time.Duration
}

// DefaultRetryPolicy allows 2 retries (3 attempts total) with a 300ms step.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 2, BackoffStep: 300 * time.Millisecond}
}

// ShouldRetry reports whether another attempt is allowed after the given
// 1-based attempt failed transiently.
func (p RetryPolicy) ShouldRetry(attempt int) bool {
	return attempt <= p.MaxRetries
}

// Backoff returns the delay to wait after the given failed attempt.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	return time.Duration(attempt) * p.BackoffStep
}

// permanentDNSError reports whether err is an authoritative negative answer
// (no such domain, or no records of the queried type) that retrying cannot
// change. Timeouts, refused connections and server failures are transient.
func permanentDNSError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsNotFound
	}
	return false
}
