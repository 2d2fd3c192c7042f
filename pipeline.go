package xrdgo

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hupe1980/xrdgo/blobstore"
	"github.com/hupe1980/xrdgo/codec"
	"github.com/hupe1980/xrdgo/dataset"
	"github.com/hupe1980/xrdgo/model"
	"github.com/hupe1980/xrdgo/mp"
	"github.com/hupe1980/xrdgo/record"
	"github.com/hupe1980/xrdgo/resource"
	"github.com/hupe1980/xrdgo/scrape"
	"github.com/hupe1980/xrdgo/snapshot"
)

// snapshotTimeFormat names snapshots written without a configured name.
const snapshotTimeFormat = "records-20060102T150405Z"

// Pipeline runs scrape, dataset and model steps against one blob store.
// It is safe for concurrent use.
type Pipeline struct {
	cfg        Config
	opts       options
	store      blobstore.BlobStore
	controller *resource.Controller
	closed     atomic.Bool
	now        func() time.Time
}

// New validates cfg and opens its blob store.
func New(ctx context.Context, cfg Config, optFns ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts := options{
		metricsCollector: NoopMetricsCollector{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.logger == nil {
		l, err := NewLoggerFromConfig(cfg.Logging)
		if err != nil {
			return nil, err
		}
		opts.logger = l
	}

	store := opts.blobStore
	if store == nil {
		var err error
		store, err = OpenBlobStore(ctx, cfg.Storage)
		if err != nil {
			return nil, err
		}
	}
	m := cfg.MaterialsProject
	controller := resource.NewController(resource.Config{
		MaxConcurrentQueries: int64(m.MaxConcurrency),
		QueriesPerSecond:     m.QueriesPerSecond,
		BytesPerSecond:       m.BytesPerSecond,
	})
	return &Pipeline{cfg: cfg, opts: opts, store: store, controller: controller, now: time.Now}, nil
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// BlobStore returns the underlying blob store.
func (p *Pipeline) BlobStore() blobstore.BlobStore { return p.store }

// Controller returns the query throttle shared by every session of the
// pipeline.
func (p *Pipeline) Controller() *resource.Controller { return p.controller }

// Logger returns the pipeline logger.
func (p *Pipeline) Logger() *Logger { return p.opts.logger }

// Close marks the pipeline closed. Further calls fail with ErrClosed.
func (p *Pipeline) Close() error {
	p.closed.Store(true)
	return nil
}

func (p *Pipeline) checkOpen() error {
	if p.closed.Load() {
		return ErrClosed
	}
	return nil
}

// Source opens a Materials Project session with the configured endpoint and
// timeout. Sessions share the pipeline controller, so query and bandwidth
// limits hold across sessions. The caller must close it.
func (p *Pipeline) Source(ctx context.Context) (*mp.Session, error) {
	if err := p.checkOpen(); err != nil {
		return nil, err
	}
	m := p.cfg.MaterialsProject
	opts := []mp.Option{
		mp.WithEndpoint(m.Endpoint),
		mp.WithTimeout(m.Timeout),
		mp.WithLogger(p.opts.logger.Logger),
		mp.WithController(p.controller),
	}
	if p.opts.httpClient != nil {
		opts = append(opts, mp.WithHTTPClient(p.opts.httpClient))
	}
	client, err := mp.NewClient(m.APIKey, opts...)
	if err != nil {
		return nil, err
	}
	return client.Open(ctx)
}

// Scrape assembles the records of the configured element pool from src and
// publishes them as the current snapshot.
func (p *Pipeline) Scrape(ctx context.Context, src scrape.Source) (*snapshot.Manifest, scrape.Report, error) {
	if err := p.checkOpen(); err != nil {
		return nil, scrape.Report{}, err
	}
	m := p.cfg.MaterialsProject
	if len(m.Pool) == 0 {
		return nil, scrape.Report{}, ErrEmptyPool
	}
	policy, err := scrape.ParseFailurePolicy(m.FailurePolicy)
	if err != nil {
		return nil, scrape.Report{}, err
	}

	a := scrape.NewAssembler(src,
		scrape.WithSources(m.Sources...),
		scrape.WithFailurePolicy(policy),
		scrape.WithRetries(m.Retries, m.RetryBackoff),
		scrape.WithConcurrency(m.MaxConcurrency),
		scrape.WithLogger(p.opts.logger.Logger),
		scrape.WithObserver(p.opts.metricsCollector),
	)
	store, report, err := a.Run(ctx, m.Pool)
	p.opts.logger.LogScrape(ctx, report, err)
	if err != nil {
		return nil, report, err
	}

	manifest, err := p.publish(ctx, store)
	if err != nil {
		return nil, report, err
	}
	return manifest, report, nil
}

func (p *Pipeline) publish(ctx context.Context, store *record.Store) (*snapshot.Manifest, error) {
	name := p.cfg.Storage.Snapshot
	if name == "" {
		name = p.now().UTC().Format(snapshotTimeFormat)
	}
	opts, err := p.snapshotOptions()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	m, err := snapshot.Publish(ctx, p.store, name, store, opts...)
	var size int64
	if m != nil {
		size = m.Size
	}
	p.opts.metricsCollector.RecordSnapshot(size, time.Since(start), err)
	p.opts.logger.LogSnapshot(ctx, "publish", name, m, err)
	return m, err
}

func (p *Pipeline) snapshotOptions() ([]snapshot.Option, error) {
	c := codec.MustByName(p.cfg.Storage.Codec)
	comp, err := snapshot.ParseCompression(p.cfg.Storage.Compression)
	if err != nil {
		return nil, err
	}
	return []snapshot.Option{snapshot.WithCodec(c), snapshot.WithCompression(comp)}, nil
}

// Records loads the current snapshot. It returns ErrNoSnapshot before the
// first publish.
func (p *Pipeline) Records(ctx context.Context) (*record.Store, *snapshot.Manifest, error) {
	if err := p.checkOpen(); err != nil {
		return nil, nil, err
	}
	start := time.Now()
	store, m, err := snapshot.LoadCurrent(ctx, p.store)
	var size int64
	name := ""
	if m != nil {
		size, name = m.Size, m.Name
	}
	p.opts.metricsCollector.RecordSnapshot(size, time.Since(start), err)
	p.opts.logger.LogSnapshot(ctx, "load", name, m, err)
	return store, m, err
}

// BuildDataset loads the current snapshot and derives the train/test dataset.
// When dataset.output is set the dataset is also written there as a bundle.
func (p *Pipeline) BuildDataset(ctx context.Context) (*dataset.Dataset, error) {
	store, _, err := p.Records(ctx)
	if err != nil {
		return nil, err
	}
	cfg, err := p.cfg.DatasetConfig()
	if err != nil {
		return nil, err
	}

	ds, err := dataset.Build(ctx, store, cfg, dataset.WithObserver(p.opts.metricsCollector))
	p.opts.logger.LogDataset(ctx, ds, err)
	if err != nil {
		return nil, err
	}
	for _, s := range ds.Stages {
		p.opts.logger.LogStage(ctx, s)
	}

	if out := p.cfg.Dataset.Output; out != "" {
		if err := dataset.WriteBundle(ctx, p.store, out, ds, codec.MustByName(p.cfg.Storage.Codec)); err != nil {
			return nil, err
		}
		p.opts.logger.InfoContext(ctx, "dataset bundle written", "prefix", out)
	}
	return ds, nil
}

// ModelSpec builds the configured topology for classes output classes.
func (p *Pipeline) ModelSpec(classes int) (*model.Spec, error) {
	m := p.cfg.Model
	arch, err := model.ParseArchitecture(m.Architecture)
	if err != nil {
		return nil, err
	}
	var opts []model.Option
	if len(m.Kernels) > 0 {
		opts = append(opts, model.WithKernels(m.Kernels...))
	}
	if len(m.Strides) > 0 {
		opts = append(opts, model.WithStrides(m.Strides...))
	}
	if m.PoolPadding != "" {
		opts = append(opts, model.WithPoolPadding(model.Padding(m.PoolPadding)))
	}
	return model.New(arch, classes, opts...)
}

// TrainConfig returns the configured training settings for enc.
func (p *Pipeline) TrainConfig(enc dataset.Encoding) model.TrainConfig {
	tc := model.DefaultTrainConfig(enc)
	if p.cfg.Model.LearningRate > 0 {
		tc.LearningRate = p.cfg.Model.LearningRate
	}
	if p.cfg.Model.BatchSize > 0 {
		tc.BatchSize = p.cfg.Model.BatchSize
	}
	if p.cfg.Model.Epochs > 0 {
		tc.Epochs = p.cfg.Model.Epochs
	}
	return tc
}
