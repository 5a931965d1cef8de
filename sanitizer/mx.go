package sanitizer

import (
	"context"
	"net"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

// MXOutcome is the tri-state result of an MX lookup for a domain.
type MXOutcome int

const (
	// MXPresent means the domain has at least one MX record.
	MXPresent MXOutcome = iota
	// MXAbsent means an authoritative answer showed no mail exchangers.
	MXAbsent
	// MXUnknown means every attempt failed transiently; absence of mail
	// service could not be proven.
	MXUnknown
)

func (o MXOutcome) String() string {
	switch o {
	case MXPresent:
		return "present"
	case MXAbsent:
		return "absent"
	default:
		return "unknown"
	}
}

// Resolver is the DNS capability the checker depends on. *net.Resolver
// satisfies it.
type Resolver interface {
	LookupMX(ctx context.Context, domain string) ([]*net.MX, error)
}

// ResolverFunc adapts a plain function to the Resolver interface.
type ResolverFunc func(ctx context.Context, domain string) ([]*net.MX, error)

func (f ResolverFunc) LookupMX(ctx context.Context, domain string) ([]*net.MX, error) {
	return f(ctx, domain)
}

// MXChecker performs MX lookups with bounded retry and per-domain caching.
// Only definitive outcomes are cached so a flaky window does not stick to a
// domain for the cache TTL.
type MXChecker struct {
	resolver Resolver
	retry    RetryPolicy
	timeout  time.Duration
	outcomes *cache.Cache
	logger   logrus.FieldLogger
}

// NewMXChecker builds a checker over the given resolver. timeout bounds each
// attempt; cacheTTL bounds how long definitive outcomes are reused.
func NewMXChecker(resolver Resolver, retry RetryPolicy, timeout, cacheTTL time.Duration, logger logrus.FieldLogger) *MXChecker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &MXChecker{
		resolver: resolver,
		retry:    retry,
		timeout:  timeout,
		outcomes: cache.New(cacheTTL, 2*cacheTTL),
		logger:   logger,
	}
}

// Check resolves the domain's mail-exchanger capability. It never returns an
// error for expected DNS outcomes; flaky paths collapse to MXUnknown.
func (m *MXChecker) Check(ctx context.Context, domain string) MXOutcome {
	if cached, ok := m.outcomes.Get(domain); ok {
		return cached.(MXOutcome)
	}

	for attempt := 1; ; attempt++ {
		if ctx.Err() != nil {
			// Batch deadline fired; unproven rather than failed.
			return MXUnknown
		}

		lookupCtx, cancel := context.WithTimeout(ctx, m.timeout)
		records, err := m.resolver.LookupMX(lookupCtx, domain)
		cancel()

		switch {
		case err == nil && len(records) > 0:
			m.outcomes.SetDefault(domain, MXPresent)
			return MXPresent
		case err == nil, permanentDNSError(err):
			m.outcomes.SetDefault(domain, MXAbsent)
			return MXAbsent
		}

		if !m.retry.ShouldRetry(attempt) {
			m.logger.WithFields(logrus.Fields{
				"domain":   domain,
				"attempts": attempt,
			}).WithError(err).Debug("MX lookup exhausted retries")
			return MXUnknown
		}

		select {
		case <-time.After(m.retry.Backoff(attempt)):
		case <-ctx.Done():
			return MXUnknown
		}
	}
}
