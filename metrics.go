package xrdgo

import (
	"sync"
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// A MetricsCollector satisfies both scrape.Observer and dataset.Observer.
type MetricsCollector interface {
	// RecordQuery is called after each remote query attempt.
	RecordQuery(duration time.Duration, err error)

	// RecordEntry is called once per entry with the number of sources that
	// produced a vector. err is nil if the entry was assembled.
	RecordEntry(sources int, err error)

	// RecordStage is called after each dataset builder stage.
	RecordStage(stage string, samples int, duration time.Duration)

	// RecordSnapshot is called after every snapshot save or load attempt,
	// failed ones included.
	RecordSnapshot(bytes int64, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordQuery(time.Duration, error)           {}
func (NoopMetricsCollector) RecordEntry(int, error)                     {}
func (NoopMetricsCollector) RecordStage(string, int, time.Duration)     {}
func (NoopMetricsCollector) RecordSnapshot(int64, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	QueryCount      atomic.Int64
	QueryErrors     atomic.Int64
	QueryTotalNanos atomic.Int64
	EntryCount      atomic.Int64
	EntryErrors     atomic.Int64
	VectorCount     atomic.Int64
	SnapshotCount   atomic.Int64
	SnapshotErrors  atomic.Int64
	SnapshotBytes   atomic.Int64

	mu     sync.Mutex
	stages map[string]int
}

// RecordQuery implements MetricsCollector.
func (b *BasicMetricsCollector) RecordQuery(duration time.Duration, err error) {
	b.QueryCount.Add(1)
	b.QueryTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.QueryErrors.Add(1)
	}
}

// RecordEntry implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEntry(sources int, err error) {
	b.EntryCount.Add(1)
	if err != nil {
		b.EntryErrors.Add(1)
		return
	}
	b.VectorCount.Add(int64(sources))
}

// RecordStage implements MetricsCollector. Only the last sample count per
// stage is kept.
func (b *BasicMetricsCollector) RecordStage(stage string, samples int, _ time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stages == nil {
		b.stages = make(map[string]int)
	}
	b.stages[stage] = samples
}

// RecordSnapshot implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSnapshot(bytes int64, _ time.Duration, err error) {
	b.SnapshotCount.Add(1)
	if err != nil {
		b.SnapshotErrors.Add(1)
		return
	}
	b.SnapshotBytes.Add(bytes)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	b.mu.Lock()
	stages := make(map[string]int, len(b.stages))
	for k, v := range b.stages {
		stages[k] = v
	}
	b.mu.Unlock()

	return BasicMetricsStats{
		QueryCount:     b.QueryCount.Load(),
		QueryErrors:    b.QueryErrors.Load(),
		QueryAvgNanos:  b.getAvgQueryNanos(),
		EntryCount:     b.EntryCount.Load(),
		EntryErrors:    b.EntryErrors.Load(),
		VectorCount:    b.VectorCount.Load(),
		SnapshotCount:  b.SnapshotCount.Load(),
		SnapshotErrors: b.SnapshotErrors.Load(),
		SnapshotBytes:  b.SnapshotBytes.Load(),
		StageSamples:   stages,
	}
}

func (b *BasicMetricsCollector) getAvgQueryNanos() int64 {
	count := b.QueryCount.Load()
	if count == 0 {
		return 0
	}
	return b.QueryTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	QueryCount     int64
	QueryErrors    int64
	QueryAvgNanos  int64
	EntryCount     int64
	EntryErrors    int64
	VectorCount    int64
	SnapshotCount  int64
	SnapshotErrors int64
	SnapshotBytes  int64
	// StageSamples maps a dataset stage to its last sample count.
	StageSamples map[string]int
}
