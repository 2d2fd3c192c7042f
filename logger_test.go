package xrdgo

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/xrdgo/dataset"
	"github.com/hupe1980/xrdgo/scrape"
	"github.com/hupe1980/xrdgo/snapshot"
)

func bufferLogger(level slog.Level) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewLogger(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: level})), &buf
}

func TestLogger(t *testing.T) {
	ctx := context.Background()

	t.Run("LogScrape", func(t *testing.T) {
		l, buf := bufferLogger(slog.LevelInfo)
		l.LogScrape(ctx, scrape.Report{Requested: 3, Assembled: 3}, nil)
		assert.Contains(t, buf.String(), "scrape completed")
		assert.Contains(t, buf.String(), "assembled=3")

		buf.Reset()
		l.LogScrape(ctx, scrape.Report{Requested: 3, Assembled: 2, Skipped: []string{"mp-1"}}, nil)
		assert.Contains(t, buf.String(), "level=WARN")

		buf.Reset()
		l.LogScrape(ctx, scrape.Report{}, errors.New("boom"))
		assert.Contains(t, buf.String(), "level=ERROR")
		assert.Contains(t, buf.String(), "error=boom")
	})

	t.Run("LogStageIsDebug", func(t *testing.T) {
		l, buf := bufferLogger(slog.LevelInfo)
		l.LogStage(ctx, dataset.Summary{Stage: dataset.StageFilter, Samples: 10, Duration: time.Millisecond})
		assert.Empty(t, buf.String())

		l, buf = bufferLogger(slog.LevelDebug)
		l.LogStage(ctx, dataset.Summary{Stage: dataset.StageFilter, Samples: 10})
		assert.Contains(t, buf.String(), "stage=filter")
	})

	t.Run("LogSnapshot", func(t *testing.T) {
		l, buf := bufferLogger(slog.LevelInfo)
		l.WithSnapshot("s1").LogSnapshot(ctx, "publish", "s1", &snapshot.Manifest{Entries: 5, Compression: snapshot.CompressionLZ4}, nil)
		assert.Contains(t, buf.String(), "snapshot publish completed")
		assert.Contains(t, buf.String(), "compression=lz4")
		assert.Contains(t, buf.String(), "entries=5")
	})

	t.Run("Noop", func(t *testing.T) {
		l := NoopLogger()
		assert.False(t, l.Enabled(ctx, slog.LevelError))
		l.LogDataset(ctx, nil, errors.New("ignored"))
	})
}

func TestBasicMetricsCollector(t *testing.T) {
	var m BasicMetricsCollector
	var _ scrape.Observer = &m
	var _ dataset.Observer = &m

	m.RecordQuery(2*time.Millisecond, nil)
	m.RecordQuery(4*time.Millisecond, errors.New("x"))
	m.RecordEntry(3, nil)
	m.RecordEntry(0, errors.New("x"))
	m.RecordStage("filter", 10, time.Millisecond)
	m.RecordStage("filter", 12, time.Millisecond)
	m.RecordSnapshot(100, time.Millisecond, nil)
	m.RecordSnapshot(0, time.Millisecond, errors.New("x"))

	s := m.GetStats()
	assert.Equal(t, int64(2), s.QueryCount)
	assert.Equal(t, int64(1), s.QueryErrors)
	assert.Equal(t, (3 * time.Millisecond).Nanoseconds(), s.QueryAvgNanos)
	assert.Equal(t, int64(2), s.EntryCount)
	assert.Equal(t, int64(3), s.VectorCount)
	assert.Equal(t, 12, s.StageSamples["filter"])
	assert.Equal(t, int64(2), s.SnapshotCount)
	assert.Equal(t, int64(1), s.SnapshotErrors)
	assert.Equal(t, int64(100), s.SnapshotBytes)
}
