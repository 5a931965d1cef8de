package sanitizer

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryPolicyShouldRetry(t *testing.T) {
	p := RetryPolicy{MaxRetries: 2, BackoffStep: 300 * time.Millisecond}

	assert.True(t, p.ShouldRetry(1))
	assert.True(t, p.ShouldRetry(2))
	assert.False(t, p.ShouldRetry(3))
}

func TestRetryPolicyBackoffIsLinear(t *testing.T) {
	p := DefaultRetryPolicy()

	assert.Equal(t, 300*time.Millisecond, p.Backoff(1))
	assert.Equal(t, 600*time.Millisecond, p.Backoff(2))
	assert.Equal(t, 900*time.Millisecond, p.Backoff(3))
}

func TestRetryPolicyNoRetries(t *testing.T) {
	p := RetryPolicy{MaxRetries: 0}
	assert.False(t, p.ShouldRetry(1))
}

func TestPermanentDNSError(t *testing.T) {
	notFound := &net.DNSError{Err: "no such host", Name: "gone.example", IsNotFound: true}
	timeout := &net.DNSError{Err: "i/o timeout", Name: "slow.example", IsTimeout: true, IsTemporary: true}
	serverFailure := &net.DNSError{Err: "server misbehaving", Name: "flaky.example", IsTemporary: true}

	assert.True(t, permanentDNSError(notFound))
	assert.False(t, permanentDNSError(timeout))
	assert.False(t, permanentDNSError(serverFailure))
	assert.False(t, permanentDNSError(errors.New("connection refused")))
	assert.False(t, permanentDNSError(context.DeadlineExceeded))
}

func TestPermanentDNSErrorWrapped(t *testing.T) {
	inner := &net.DNSError{Err: "no such host", Name: "gone.example", IsNotFound: true}
	wrapped := errors.Join(errors.New("lookup failed"), inner)

	assert.True(t, permanentDNSError(wrapped))
}
