package main

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/xrdgo/resource"
)

// prometheusCollector implements xrdgo.MetricsCollector.
type prometheusCollector struct {
	queryLatency    *prometheus.HistogramVec
	entries         *prometheus.CounterVec
	vectors         prometheus.Counter
	stageSamples    *prometheus.GaugeVec
	stageLatency    *prometheus.HistogramVec
	snapshotBytes   prometheus.Gauge
	snapshotLatency *prometheus.HistogramVec
}

func newPrometheusCollector(reg prometheus.Registerer) *prometheusCollector {
	c := &prometheusCollector{
		queryLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "xrdgo_query_latency_seconds",
			Help:    "Latency of Materials Project queries",
			Buckets: prometheus.DefBuckets,
		}, []string{"status"}),
		entries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "xrdgo_entries_total",
			Help: "Entries processed by the scraper",
		}, []string{"status"}),
		vectors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "xrdgo_vectors_total",
			Help: "Discretized (entry, source) vectors",
		}),
		stageSamples: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "xrdgo_dataset_stage_samples",
			Help: "Samples after each dataset stage",
		}, []string{"stage"}),
		stageLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "xrdgo_dataset_stage_seconds",
			Help:    "Duration of dataset stages",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
		snapshotBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "xrdgo_snapshot_size_bytes",
			Help: "Stored size of the last snapshot",
		}),
		snapshotLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "xrdgo_snapshot_latency_seconds",
			Help:    "Latency of snapshot saves and loads",
			Buckets: prometheus.DefBuckets,
		}, []string{"status"}),
	}
	reg.MustRegister(
		c.queryLatency,
		c.entries,
		c.vectors,
		c.stageSamples,
		c.stageLatency,
		c.snapshotBytes,
		c.snapshotLatency,
	)
	return c
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func (c *prometheusCollector) RecordQuery(d time.Duration, err error) {
	c.queryLatency.WithLabelValues(status(err)).Observe(d.Seconds())
}

func (c *prometheusCollector) RecordEntry(sources int, err error) {
	c.entries.WithLabelValues(status(err)).Inc()
	if err == nil {
		c.vectors.Add(float64(sources))
	}
}

func (c *prometheusCollector) RecordStage(stage string, samples int, d time.Duration) {
	c.stageSamples.WithLabelValues(stage).Set(float64(samples))
	c.stageLatency.WithLabelValues(stage).Observe(d.Seconds())
}

func (c *prometheusCollector) RecordSnapshot(bytes int64, d time.Duration, err error) {
	c.snapshotLatency.WithLabelValues(status(err)).Observe(d.Seconds())
	if err == nil {
		c.snapshotBytes.Set(float64(bytes))
	}
}

// controllerCollectors exposes the query throttle state.
func controllerCollectors(c *resource.Controller) (inFlight prometheus.GaugeFunc, started prometheus.CounterFunc) {
	inFlight = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "xrdgo_queries_in_flight",
		Help: "Materials Project queries currently running",
	}, func() float64 { return float64(c.InFlight()) })
	started = prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name: "xrdgo_queries_started_total",
		Help: "Materials Project queries admitted by the throttle",
	}, func() float64 { return float64(c.Total()) })
	return inFlight, started
}
