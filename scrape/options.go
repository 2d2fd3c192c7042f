package scrape

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hupe1980/xrdgo/resource"
)

// DefaultSources are the radiation sources queried when none are configured.
var DefaultSources = []string{"xrd.Cu", "xrd.Mo", "xrd.Fe", "xrd.Ag"}

// FailurePolicy decides what happens when a query for an entry fails.
type FailurePolicy int

const (
	// FailFast aborts the whole run on the first failed query.
	FailFast FailurePolicy = iota
	// SkipEntry drops the failing entry and continues.
	SkipEntry
)

func (p FailurePolicy) String() string {
	switch p {
	case FailFast:
		return "fail_fast"
	case SkipEntry:
		return "skip_entry"
	default:
		return fmt.Sprintf("FailurePolicy(%d)", int(p))
	}
}

// ParseFailurePolicy parses "fail_fast" or "skip_entry".
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fail_fast", "failfast":
		return FailFast, nil
	case "skip_entry", "skip":
		return SkipEntry, nil
	default:
		return 0, fmt.Errorf("scrape: unknown failure policy %q", s)
	}
}

// Observer receives per-query and per-entry measurements.
type Observer interface {
	RecordQuery(d time.Duration, err error)
	RecordEntry(sources int, err error)
}

type noopObserver struct{}

func (noopObserver) RecordQuery(time.Duration, error) {}
func (noopObserver) RecordEntry(int, error)           {}

type options struct {
	sources     []string
	policy      FailurePolicy
	retries     int
	backoff     time.Duration
	concurrency int
	controller  *resource.Controller
	logger      *slog.Logger
	observer    Observer
}

// Option configures an Assembler.
type Option func(*options)

// WithSources sets the radiation sources, e.g. "xrd.Cu".
func WithSources(sources ...string) Option {
	return func(o *options) { o.sources = sources }
}

// WithFailurePolicy sets the failure policy. The default is FailFast.
func WithFailurePolicy(p FailurePolicy) Option {
	return func(o *options) { o.policy = p }
}

// WithRetries retries every failed query up to n times, waiting backoff*attempt in between.
func WithRetries(n int, backoff time.Duration) Option {
	return func(o *options) {
		o.retries = n
		o.backoff = backoff
	}
}

// WithConcurrency sets the number of entries fetched in parallel. The default is 1.
func WithConcurrency(n int) Option {
	return func(o *options) { o.concurrency = n }
}

// WithController throttles entries. Queries should be throttled by the Source itself.
func WithController(c *resource.Controller) Option {
	return func(o *options) { o.controller = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithObserver sets the metrics observer.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}
