// Package resource throttles queries against remote services.
//
// A nil *Controller is valid and imposes no limits.
package resource

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds query limits. Zero values mean unlimited.
type Config struct {
	// MaxConcurrentQueries caps the number of queries in flight.
	MaxConcurrentQueries int64

	// QueriesPerSecond caps the rate at which queries start.
	QueriesPerSecond float64

	// Burst is the number of queries allowed to start at once.
	// Defaults to 1 when QueriesPerSecond is set.
	Burst int

	// BytesPerSecond caps the throughput of response bodies read through NewReader.
	BytesPerSecond int64
}

// Controller limits concurrency and rate of outgoing queries.
type Controller struct {
	cfg Config

	sem       *semaphore.Weighted // nil if unlimited
	qps       *rate.Limiter       // nil if unlimited
	bandwidth *rate.Limiter       // nil if unlimited

	inFlight atomic.Int64
	total    atomic.Int64
}

// NewController creates a new controller.
func NewController(cfg Config) *Controller {
	c := &Controller{cfg: cfg}

	if cfg.MaxConcurrentQueries > 0 {
		c.sem = semaphore.NewWeighted(cfg.MaxConcurrentQueries)
	}
	if cfg.QueriesPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.qps = rate.NewLimiter(rate.Limit(cfg.QueriesPerSecond), burst)
	}
	if cfg.BytesPerSecond > 0 {
		c.bandwidth = rate.NewLimiter(rate.Limit(cfg.BytesPerSecond), int(cfg.BytesPerSecond))
	}
	return c
}

// Acquire blocks until a query may start or ctx is done.
// Every successful Acquire must be paired with Release.
func (c *Controller) Acquire(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if c.qps != nil {
		if err := c.qps.Wait(ctx); err != nil {
			return err
		}
	}
	if c.sem != nil {
		if err := c.sem.Acquire(ctx, 1); err != nil {
			return err
		}
	}
	c.inFlight.Add(1)
	c.total.Add(1)
	return nil
}

// Release ends a query started with Acquire.
func (c *Controller) Release() {
	if c == nil {
		return
	}
	if c.sem != nil {
		c.sem.Release(1)
	}
	c.inFlight.Add(-1)
}

// Do runs fn between Acquire and Release.
func (c *Controller) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := c.Acquire(ctx); err != nil {
		return err
	}
	defer c.Release()
	return fn(ctx)
}

// InFlight returns the number of queries currently running.
func (c *Controller) InFlight() int64 {
	if c == nil {
		return 0
	}
	return c.inFlight.Load()
}

// Total returns the number of queries started so far.
func (c *Controller) Total() int64 {
	if c == nil {
		return 0
	}
	return c.total.Load()
}

// waitBytes blocks until n bytes may be consumed.
func (c *Controller) waitBytes(ctx context.Context, n int) error {
	if c == nil || c.bandwidth == nil || n <= 0 {
		return nil
	}
	burst := c.bandwidth.Burst()
	for n > 0 {
		chunk := min(n, burst)
		if err := c.bandwidth.WaitN(ctx, chunk); err != nil {
			return err
		}
		n -= chunk
	}
	return nil
}
