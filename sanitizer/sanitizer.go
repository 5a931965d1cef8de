package sanitizer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

// ErrNoResolver is returned when MX checking is requested but the Sanitizer
// was built without a DNS resolver.
var ErrNoResolver = errors.New("sanitizer: MX check enabled but no resolver configured")

// Config sizes the pipeline. Unset values fall back to DefaultConfig;
// MXRetries is the exception, where zero is meaningful.
type Config struct {
	// MaxWorkers bounds concurrent MX resolutions. DNS against external
	// nameservers is a shared, rate-limitable resource; an unbounded fan-out
	// over a large list looks like a flood.
	MaxWorkers int
	// MXTimeout bounds a single lookup attempt.
	MXTimeout time.Duration
	// MXRetries is the number of extra attempts after a transient failure.
	// Zero disables retries; negative falls back to the default.
	MXRetries int
	// MXBackoff is the linear backoff step between attempts.
	MXBackoff time.Duration
	// MXCacheTTL is how long definitive per-domain outcomes are reused.
	MXCacheTTL time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxWorkers: 25,
		MXTimeout:  5 * time.Second,
		MXRetries:  2,
		MXBackoff:  300 * time.Millisecond,
		MXCacheTTL: 10 * time.Minute,
	}
}

// Sanitizer runs the full pipeline: normalize, dedupe, then per-address
// format, disposable and MX stages with a bounded concurrent fan-out.
type Sanitizer struct {
	denylist Denylist
	mx       *MXChecker
	sem      *semaphore.Weighted
	logger   logrus.FieldLogger
}

// New builds a Sanitizer. A nil denylist selects the built-in disposable
// set; a nil resolver disables the MX stage entirely.
func New(cfg Config, denylist Denylist, resolver Resolver, logger logrus.FieldLogger) *Sanitizer {
	def := DefaultConfig()
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = def.MaxWorkers
	}
	if cfg.MXTimeout <= 0 {
		cfg.MXTimeout = def.MXTimeout
	}
	if cfg.MXRetries < 0 {
		cfg.MXRetries = def.MXRetries
	}
	if cfg.MXBackoff <= 0 {
		cfg.MXBackoff = def.MXBackoff
	}
	if cfg.MXCacheTTL <= 0 {
		cfg.MXCacheTTL = def.MXCacheTTL
	}
	if denylist == nil {
		denylist = DefaultDenylist()
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	s := &Sanitizer{
		denylist: denylist,
		sem:      semaphore.NewWeighted(int64(cfg.MaxWorkers)),
		logger:   logger,
	}
	if resolver != nil {
		retry := RetryPolicy{MaxRetries: cfg.MXRetries, BackoffStep: cfg.MXBackoff}
		s.mx = NewMXChecker(resolver, retry, cfg.MXTimeout, cfg.MXCacheTTL, logger)
	}
	return s
}

// Sanitize classifies a raw batch of addresses into a partitioned report.
// Individual address failures never abort the batch; the report is always
// complete. The error return is reserved for systemic misconfiguration.
// If the ctx deadline fires mid-batch, unresolved MX checks are reported as
// inconclusive rather than left unresolved.
func (s *Sanitizer) Sanitize(ctx context.Context, raw []string, opts Options) (*Report, error) {
	if opts.CheckMX && s.mx == nil {
		return nil, ErrNoResolver
	}

	normalized := Normalize(raw)
	unique, duplicates := Deduplicate(normalized, opts.RemoveDuplicates)

	results, err := s.Validate(ctx, unique, opts)
	if err != nil {
		return nil, err
	}

	report := &Report{
		ValidEmails:   make([]string, 0, len(unique)),
		InvalidEmails: make([]Result, 0),
		Stats:         Stats{Total: len(normalized), Duplicates: duplicates},
	}
	for _, r := range results {
		if r.IsValid {
			report.Stats.Valid++
			report.ValidEmails = append(report.ValidEmails, r.Email)
		} else {
			report.Stats.Invalid++
			report.InvalidEmails = append(report.InvalidEmails, r)
		}
	}
	return report, nil
}

// Validate classifies each already-normalized address, preserving input
// order. It is the concurrent middle of Sanitize; callers that need the
// per-address caveat reasons (the report keeps valid addresses as bare
// strings) use it directly.
func (s *Sanitizer) Validate(ctx context.Context, addrs []string, opts Options) ([]Result, error) {
	if opts.CheckMX && s.mx == nil {
		return nil, ErrNoResolver
	}

	results := make([]Result, len(addrs))
	var wg sync.WaitGroup
	for i, email := range addrs {
		if r, done := s.checkLocal(email, opts); done {
			results[i] = r
			continue
		}
		wg.Add(1)
		go func(i int, email string) {
			defer wg.Done()
			results[i] = s.checkMX(ctx, email)
		}(i, email)
	}
	wg.Wait()
	return results, nil
}

// CheckDomain reports the MX outcome for a bare domain.
func (s *Sanitizer) CheckDomain(ctx context.Context, domain string) (MXOutcome, error) {
	if s.mx == nil {
		return MXUnknown, ErrNoResolver
	}
	return s.mx.Check(ctx, domain), nil
}

// Disposable reports whether the domain is on the configured denylist.
func (s *Sanitizer) Disposable(domain string) bool {
	return s.denylist.Contains(domain)
}

// Classify runs the per-address pipeline for a single address and returns
// its full result, including the inconclusive-MX caveat when present.
func (s *Sanitizer) Classify(ctx context.Context, email string, opts Options) (Result, error) {
	if opts.CheckMX && s.mx == nil {
		return Result{}, ErrNoResolver
	}
	normalized := Normalize([]string{email})
	if len(normalized) == 0 {
		return Result{Email: email, Reason: ReasonInvalidFormat}, nil
	}
	if r, done := s.checkLocal(normalized[0], opts); done {
		return r, nil
	}
	return s.checkMX(ctx, normalized[0]), nil
}

// checkLocal runs the pure, non-blocking stages, short-circuiting on the
// first failure. done is false when the address still needs the MX stage.
func (s *Sanitizer) checkLocal(email string, opts Options) (Result, bool) {
	if opts.CheckFormat && !ValidFormat(email) {
		return Result{Email: email, Reason: ReasonInvalidFormat}, true
	}
	if opts.CheckDisposable {
		if domain, ok := Domain(email); ok && s.denylist.Contains(domain) {
			return Result{Email: email, Reason: ReasonDisposableDomain}, true
		}
	}
	if !opts.CheckMX {
		return Result{Email: email, IsValid: true}, true
	}
	return Result{}, false
}

func (s *Sanitizer) checkMX(ctx context.Context, email string) Result {
	domain, ok := Domain(email)
	if !ok {
		// Format stage was disabled and there is no resolvable domain.
		return Result{Email: email, Reason: ReasonNoMXRecords}
	}
	if err := s.sem.Acquire(ctx, 1); err != nil {
		// Batch deadline fired while queued; same policy as exhausted
		// retries, the address is not punished for an unreliable DNS path.
		return Result{Email: email, IsValid: true, Reason: ReasonMXInconclusive}
	}
	outcome := s.mx.Check(ctx, domain)
	s.sem.Release(1)

	switch outcome {
	case MXPresent:
		return Result{Email: email, IsValid: true}
	case MXAbsent:
		return Result{Email: email, Reason: ReasonNoMXRecords}
	default:
		return Result{Email: email, IsValid: true, Reason: ReasonMXInconclusive}
	}
}
