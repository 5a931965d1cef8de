package sanitizer

import (
	"context"
	"fmt"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// knownDomains resolves a fixed set of domains to a single MX record and
// answers authoritatively-not-found for everything else.
func knownDomains(domains ...string) Resolver {
	known := make(map[string]struct{}, len(domains))
	for _, d := range domains {
		known[d] = struct{}{}
	}
	return ResolverFunc(func(ctx context.Context, domain string) ([]*net.MX, error) {
		if _, ok := known[domain]; ok {
			return mxRecords("mx." + domain), nil
		}
		return nil, notFoundErr(domain)
	})
}

func testConfig() Config {
	return Config{
		MaxWorkers: 4,
		MXTimeout:  time.Second,
		MXRetries:  1,
		MXBackoff:  time.Millisecond,
		MXCacheTTL: time.Minute,
	}
}

func testDenylist() Denylist {
	return NewDenylist([]string{"mailinator.com"})
}

func TestSanitizeScenario(t *testing.T) {
	s := New(testConfig(), testDenylist(), knownDomains("b.com", "mailinator.com"), nil)

	report, err := s.Sanitize(context.Background(),
		[]string{"a@b.com, A@B.com ,bad-email, user@mailinator.com"}, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"a@b.com"}, report.ValidEmails)
	assert.Equal(t, 4, report.Stats.Total)
	assert.Equal(t, 1, report.Stats.Duplicates)
	assert.Equal(t, 1, report.Stats.Valid)
	assert.Equal(t, 2, report.Stats.Invalid)

	reasons := make(map[string]string, len(report.InvalidEmails))
	for _, r := range report.InvalidEmails {
		require.False(t, r.IsValid)
		reasons[r.Email] = r.Reason
	}
	assert.Equal(t, ReasonInvalidFormat, reasons["bad-email"])
	assert.Equal(t, ReasonDisposableDomain, reasons["user@mailinator.com"])
}

func TestSanitizeEmptyInput(t *testing.T) {
	s := New(testConfig(), testDenylist(), knownDomains(), nil)

	report, err := s.Sanitize(context.Background(), []string{""}, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, Stats{}, report.Stats)
	assert.Empty(t, report.ValidEmails)
	assert.Empty(t, report.InvalidEmails)
}

func TestSanitizeStatsInvariants(t *testing.T) {
	s := New(testConfig(), testDenylist(), knownDomains("b.com", "d.org"), nil)

	raw := []string{"a@b.com", "x@d.org", "a@b.com", "bad", "no-mx@nowhere.test", "user@mailinator.com"}
	report, err := s.Sanitize(context.Background(), raw, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, len(report.ValidEmails), report.Stats.Valid)
	assert.Equal(t, len(report.InvalidEmails), report.Stats.Invalid)
	assert.Equal(t, 6, report.Stats.Total)
	assert.Equal(t, 1, report.Stats.Duplicates)
	// The partition covers the deduplicated set exactly once.
	assert.Equal(t, report.Stats.Total-report.Stats.Duplicates,
		report.Stats.Valid+report.Stats.Invalid)
}

func TestSanitizeAllChecksDisabled(t *testing.T) {
	s := New(testConfig(), testDenylist(), nil, nil)

	opts := Options{RemoveDuplicates: true}
	report, err := s.Sanitize(context.Background(),
		[]string{"anything-goes, even this, user@mailinator.com"}, opts)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Stats.Valid)
	assert.Equal(t, 0, report.Stats.Invalid)
	assert.Equal(t, []string{"anything-goes", "even this", "user@mailinator.com"}, report.ValidEmails)
}

func TestSanitizeDedupDisabled(t *testing.T) {
	s := New(testConfig(), testDenylist(), knownDomains("b.com"), nil)

	opts := DefaultOptions()
	opts.RemoveDuplicates = false
	report, err := s.Sanitize(context.Background(), []string{"a@b.com", "A@B.com"}, opts)
	require.NoError(t, err)

	assert.Equal(t, 0, report.Stats.Duplicates)
	assert.Equal(t, 2, report.Stats.Valid)
	assert.Equal(t, []string{"a@b.com", "a@b.com"}, report.ValidEmails)
}

func TestSanitizeDNSUncertainStaysValid(t *testing.T) {
	alwaysTimeout := ResolverFunc(func(ctx context.Context, domain string) ([]*net.MX, error) {
		return nil, timeoutErr(domain)
	})
	s := New(testConfig(), testDenylist(), alwaysTimeout, nil)

	report, err := s.Sanitize(context.Background(), []string{"user@flaky.example"}, DefaultOptions())
	require.NoError(t, err)

	require.Equal(t, []string{"user@flaky.example"}, report.ValidEmails)
	assert.Empty(t, report.InvalidEmails)
	assert.Equal(t, 1, report.Stats.Valid)
}

func TestClassifyDNSUncertainCarriesReason(t *testing.T) {
	alwaysTimeout := ResolverFunc(func(ctx context.Context, domain string) ([]*net.MX, error) {
		return nil, timeoutErr(domain)
	})
	s := New(testConfig(), testDenylist(), alwaysTimeout, nil)

	result, err := s.Classify(context.Background(), "user@flaky.example", DefaultOptions())
	require.NoError(t, err)

	assert.True(t, result.IsValid)
	assert.Equal(t, ReasonMXInconclusive, result.Reason)
}

func TestSanitizeNoMXLandsInvalid(t *testing.T) {
	s := New(testConfig(), testDenylist(), knownDomains(), nil)

	report, err := s.Sanitize(context.Background(), []string{"user@gone.example"}, DefaultOptions())
	require.NoError(t, err)

	require.Len(t, report.InvalidEmails, 1)
	assert.Equal(t, ReasonNoMXRecords, report.InvalidEmails[0].Reason)
	assert.Empty(t, report.ValidEmails)
}

func TestSanitizeIdempotent(t *testing.T) {
	s := New(testConfig(), testDenylist(), knownDomains("b.com", "d.org"), nil)
	opts := DefaultOptions()

	first, err := s.Sanitize(context.Background(),
		[]string{"a@b.com, x@d.org, bad-email, A@B.COM"}, opts)
	require.NoError(t, err)
	require.NotEmpty(t, first.ValidEmails)

	second, err := s.Sanitize(context.Background(), first.ValidEmails, opts)
	require.NoError(t, err)

	assert.Equal(t, 0, second.Stats.Invalid)
	assert.Equal(t, first.ValidEmails, second.ValidEmails)
}

func TestSanitizeBatchDeadline(t *testing.T) {
	s := New(testConfig(), testDenylist(), knownDomains("b.com"), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := s.Sanitize(ctx, []string{"a@b.com", "bad-email"}, DefaultOptions())
	require.NoError(t, err)

	// The report is complete: format failures still classified, MX-bound
	// addresses resolved as valid-with-caveat.
	assert.Equal(t, 1, report.Stats.Valid)
	assert.Equal(t, 1, report.Stats.Invalid)
	assert.Equal(t, []string{"a@b.com"}, report.ValidEmails)
}

func TestSanitizeNoResolverConfigured(t *testing.T) {
	s := New(testConfig(), testDenylist(), nil, nil)

	_, err := s.Sanitize(context.Background(), []string{"a@b.com"}, DefaultOptions())
	assert.ErrorIs(t, err, ErrNoResolver)
}

func TestSanitizeBoundsConcurrentLookups(t *testing.T) {
	var inFlight, peak int32
	slow := ResolverFunc(func(ctx context.Context, domain string) ([]*net.MX, error) {
		cur := atomic.AddInt32(&inFlight, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if cur <= old || atomic.CompareAndSwapInt32(&peak, old, cur) {
				break
			}
		}
		// Hold the slot long enough for the whole batch to queue up.
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return mxRecords("mx." + domain), nil
	})

	cfg := testConfig()
	cfg.MaxWorkers = 3
	s := New(cfg, testDenylist(), slow, nil)

	raw := make([]string, 24)
	for i := range raw {
		raw[i] = fmt.Sprintf("user@host%d.example", i)
	}

	report, err := s.Sanitize(context.Background(), raw, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 24, report.Stats.Valid)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
	assert.Greater(t, atomic.LoadInt32(&peak), int32(0))
}

func TestSanitizeZeroRetriesMakesOneAttempt(t *testing.T) {
	r := &countingResolver{fn: func(ctx context.Context, domain string) ([]*net.MX, error) {
		return nil, timeoutErr(domain)
	}}
	cfg := testConfig()
	cfg.MXRetries = 0
	s := New(cfg, testDenylist(), r, nil)

	report, err := s.Sanitize(context.Background(), []string{"user@flaky.example"}, DefaultOptions())
	require.NoError(t, err)

	// Retries disabled: a single transient failure resolves to
	// valid-with-caveat after exactly one lookup.
	assert.Equal(t, []string{"user@flaky.example"}, report.ValidEmails)
	assert.Equal(t, 1, r.count())
}

func TestValidateKeepsCaveatReasons(t *testing.T) {
	alwaysTimeout := ResolverFunc(func(ctx context.Context, domain string) ([]*net.MX, error) {
		return nil, timeoutErr(domain)
	})
	s := New(testConfig(), testDenylist(), alwaysTimeout, nil)

	results, err := s.Validate(context.Background(),
		[]string{"user@flaky.example", "bad-email"}, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.True(t, results[0].IsValid)
	assert.Equal(t, ReasonMXInconclusive, results[0].Reason)
	assert.False(t, results[1].IsValid)
	assert.Equal(t, ReasonInvalidFormat, results[1].Reason)
}

func TestCheckDomain(t *testing.T) {
	s := New(testConfig(), testDenylist(), knownDomains("b.com"), nil)

	outcome, err := s.CheckDomain(context.Background(), "b.com")
	require.NoError(t, err)
	assert.Equal(t, MXPresent, outcome)

	outcome, err = s.CheckDomain(context.Background(), "gone.example")
	require.NoError(t, err)
	assert.Equal(t, MXAbsent, outcome)

	noResolver := New(testConfig(), testDenylist(), nil, nil)
	_, err = noResolver.CheckDomain(context.Background(), "b.com")
	assert.ErrorIs(t, err, ErrNoResolver)
}

func TestSanitizeStableOrdering(t *testing.T) {
	s := New(testConfig(), testDenylist(), knownDomains("a.com", "b.com", "c.com", "d.com"), nil)
	raw := []string{"u1@a.com, u2@b.com, u3@c.com, u4@d.com, bad1, bad2"}

	first, err := s.Sanitize(context.Background(), raw, DefaultOptions())
	require.NoError(t, err)
	second, err := s.Sanitize(context.Background(), raw, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, first.ValidEmails, second.ValidEmails)
	assert.Equal(t, first.InvalidEmails, second.InvalidEmails)
	assert.Equal(t, []string{"u1@a.com", "u2@b.com", "u3@c.com", "u4@d.com"}, first.ValidEmails)
}
