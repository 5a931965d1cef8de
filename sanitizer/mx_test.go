package sanitizer

import (
	"context"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingResolver wraps a ResolverFunc and counts lookups.
type countingResolver struct {
	calls int32
	fn    func(ctx context.Context, domain string) ([]*net.MX, error)
}

func (c *countingResolver) LookupMX(ctx context.Context, domain string) ([]*net.MX, error) {
	atomic.AddInt32(&c.calls, 1)
	return c.fn(ctx, domain)
}

func (c *countingResolver) count() int {
	return int(atomic.LoadInt32(&c.calls))
}

func mxRecords(hosts ...string) []*net.MX {
	records := make([]*net.MX, len(hosts))
	for i, h := range hosts {
		records[i] = &net.MX{Host: h, Pref: uint16(10 * (i + 1))}
	}
	return records
}

func notFoundErr(domain string) error {
	return &net.DNSError{Err: "no such host", Name: domain, IsNotFound: true}
}

func timeoutErr(domain string) error {
	return &net.DNSError{Err: "i/o timeout", Name: domain, IsTimeout: true, IsTemporary: true}
}

func fastPolicy(retries int) RetryPolicy {
	return RetryPolicy{MaxRetries: retries, BackoffStep: time.Millisecond}
}

func TestCheckPresent(t *testing.T) {
	r := &countingResolver{fn: func(ctx context.Context, domain string) ([]*net.MX, error) {
		return mxRecords("mx1.example.com", "mx2.example.com"), nil
	}}
	m := NewMXChecker(r, fastPolicy(2), time.Second, time.Minute, nil)

	assert.Equal(t, MXPresent, m.Check(context.Background(), "example.com"))
	assert.Equal(t, 1, r.count())
}

func TestCheckEmptyAnswerIsAbsent(t *testing.T) {
	r := &countingResolver{fn: func(ctx context.Context, domain string) ([]*net.MX, error) {
		return nil, nil
	}}
	m := NewMXChecker(r, fastPolicy(2), time.Second, time.Minute, nil)

	assert.Equal(t, MXAbsent, m.Check(context.Background(), "example.com"))
}

func TestCheckNotFoundIsAbsentWithoutRetry(t *testing.T) {
	r := &countingResolver{fn: func(ctx context.Context, domain string) ([]*net.MX, error) {
		return nil, notFoundErr(domain)
	}}
	m := NewMXChecker(r, fastPolicy(2), time.Second, time.Minute, nil)

	assert.Equal(t, MXAbsent, m.Check(context.Background(), "gone.example"))
	// Authoritative negative answers are never retried.
	assert.Equal(t, 1, r.count())
}

func TestCheckTransientExhaustionIsUnknown(t *testing.T) {
	r := &countingResolver{fn: func(ctx context.Context, domain string) ([]*net.MX, error) {
		return nil, timeoutErr(domain)
	}}
	m := NewMXChecker(r, fastPolicy(2), time.Second, time.Minute, nil)

	assert.Equal(t, MXUnknown, m.Check(context.Background(), "flaky.example"))
	// 1 initial attempt + 2 retries.
	assert.Equal(t, 3, r.count())
}

func TestCheckRecoversAfterTransientFailure(t *testing.T) {
	r := &countingResolver{}
	r.fn = func(ctx context.Context, domain string) ([]*net.MX, error) {
		if r.count() == 1 {
			return nil, timeoutErr(domain)
		}
		return mxRecords("mx.example.com"), nil
	}
	m := NewMXChecker(r, fastPolicy(2), time.Second, time.Minute, nil)

	assert.Equal(t, MXPresent, m.Check(context.Background(), "example.com"))
	assert.Equal(t, 2, r.count())
}

func TestCheckCachesDefinitiveOutcomes(t *testing.T) {
	r := &countingResolver{fn: func(ctx context.Context, domain string) ([]*net.MX, error) {
		return mxRecords("mx.example.com"), nil
	}}
	m := NewMXChecker(r, fastPolicy(2), time.Second, time.Minute, nil)

	require.Equal(t, MXPresent, m.Check(context.Background(), "example.com"))
	require.Equal(t, MXPresent, m.Check(context.Background(), "example.com"))
	assert.Equal(t, 1, r.count())
}

func TestCheckDoesNotCacheUnknown(t *testing.T) {
	r := &countingResolver{fn: func(ctx context.Context, domain string) ([]*net.MX, error) {
		return nil, timeoutErr(domain)
	}}
	m := NewMXChecker(r, fastPolicy(0), time.Second, time.Minute, nil)

	require.Equal(t, MXUnknown, m.Check(context.Background(), "flaky.example"))
	require.Equal(t, MXUnknown, m.Check(context.Background(), "flaky.example"))
	// A second check retries the lookup instead of reusing the unknown.
	assert.Equal(t, 2, r.count())
}

func TestCheckCanceledContextIsUnknown(t *testing.T) {
	r := &countingResolver{fn: func(ctx context.Context, domain string) ([]*net.MX, error) {
		return mxRecords("mx.example.com"), nil
	}}
	m := NewMXChecker(r, fastPolicy(2), time.Second, time.Minute, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Equal(t, MXUnknown, m.Check(ctx, "example.com"))
	assert.Equal(t, 0, r.count())
}

func TestMXOutcomeString(t *testing.T) {
	assert.Equal(t, "present", MXPresent.String())
	assert.Equal(t, "absent", MXAbsent.String())
	assert.Equal(t, "unknown", MXUnknown.String())
}
