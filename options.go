package xrdgo

import (
	"net/http"

	"github.com/hupe1980/xrdgo/blobstore"
)

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	blobStore        blobstore.BlobStore
	httpClient       *http.Client
}

// Option configures New.
type Option func(*options)

// WithLogger sets the logger. If nil is passed, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsCollector sets the metrics collector.
//
// If nil is passed, NoopMetricsCollector is used.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithBlobStore uses bs instead of opening the store described by the
// storage section. The pipeline does not take ownership of bs.
func WithBlobStore(bs blobstore.BlobStore) Option {
	return func(o *options) { o.blobStore = bs }
}

// WithHTTPClient sets the HTTP client of Materials Project sessions.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}
