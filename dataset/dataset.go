package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/xrdgo/peak"
	"github.com/hupe1980/xrdgo/record"
)

// Partition is a set of (vector, label) samples. Feature vectors may be
// shared with the record store and must be treated as read-only.
type Partition struct {
	Features [][]float64
	Labels   Labels
}

// Len returns the number of samples.
func (p Partition) Len() int { return len(p.Features) }

// Matrix copies the features into an n x 1800 matrix. It returns nil for an
// empty partition.
func (p Partition) Matrix() *mat.Dense {
	if len(p.Features) == 0 {
		return nil
	}
	m := mat.NewDense(len(p.Features), len(p.Features[0]), nil)
	for i, f := range p.Features {
		m.SetRow(i, f)
	}
	return m
}

// Summary describes the output of one stage.
type Summary struct {
	Stage    Stage
	Samples  int
	Classes  int
	Duration time.Duration
}

// Dataset is the output of Build.
type Dataset struct {
	// Classes are the space group symbols; class i is Classes[i].
	Classes  []string
	Encoding Encoding
	Source   string
	Train    Partition
	Test     Partition
	// Stages holds one summary per executed stage.
	Stages []Summary
}

// Observer receives stage measurements.
type Observer interface {
	RecordStage(stage string, samples int, d time.Duration)
}

type options struct {
	logger   *slog.Logger
	observer Observer
}

// Option configures Build.
type Option func(*options)

// WithLogger sets the logger for stage summaries.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithObserver sets the stage observer.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

type builder struct {
	ctx    context.Context
	opts   options
	stages []Summary
	start  time.Time
}

func (b *builder) done(stage Stage, samples, classes int) {
	s := Summary{Stage: stage, Samples: samples, Classes: classes, Duration: time.Since(b.start)}
	b.stages = append(b.stages, s)
	b.opts.logger.DebugContext(b.ctx, "dataset stage",
		slog.String("stage", string(stage)),
		slog.Int("samples", samples),
		slog.Int("classes", classes),
		slog.Duration("duration", s.Duration),
	)
	if b.opts.observer != nil {
		b.opts.observer.RecordStage(string(stage), samples, s.Duration)
	}
	b.start = time.Now()
}

// Build derives a dataset from store.
func Build(ctx context.Context, store *record.Store, cfg Config, optFns ...Option) (*Dataset, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts := options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.logger == nil {
		opts.logger = slog.New(slog.DiscardHandler)
	}
	b := &builder{ctx: ctx, opts: opts, start: time.Now()}
	source := SourceName(cfg.Source)

	// filter
	keep, labelsKept := filter(store, cfg.Threshold)
	if keep.IsEmpty() {
		return nil, &StageError{Stage: StageFilter, Err: fmt.Errorf("%w: no space group reaches %d instances", ErrEmptyDataset, cfg.Threshold)}
	}
	b.done(StageFilter, int(keep.GetCardinality()), len(labelsKept))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// select
	features, names := selectSamples(store, keep, source)
	if err := checkShape(StageSelect, len(features), len(names)); err != nil {
		return nil, err
	}
	if len(features) == 0 {
		return nil, &StageError{Stage: StageSelect, Err: fmt.Errorf("%w: no entry has source %s", ErrEmptyDataset, source)}
	}
	for i, f := range features {
		if len(f) != peak.GridSize {
			return nil, &StageError{Stage: StageSelect, Err: fmt.Errorf("%w: sample %d has %d features", ErrShapeMismatch, i, len(f))}
		}
	}
	b.done(StageSelect, len(features), len(labelsKept))

	// encode
	ordinal, classes := encode(names)
	if err := checkShape(StageEncode, len(features), len(ordinal)); err != nil {
		return nil, err
	}
	b.done(StageEncode, len(features), len(classes))

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed))

	// balance
	if cfg.Balance {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		features, ordinal = smote(features, ordinal, len(classes), cfg.Neighbors, rng)
		if err := checkShape(StageBalance, len(features), len(ordinal)); err != nil {
			return nil, err
		}
		b.done(StageBalance, len(features), len(classes))
	}

	// split
	splitRNG := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	test, train, err := split(len(features), cfg.TestFraction, splitRNG)
	if err != nil {
		return nil, &StageError{Stage: StageSplit, Err: err}
	}
	ds := &Dataset{
		Classes:  classes,
		Encoding: cfg.Encoding,
		Source:   source,
		Train:    partition(features, ordinal, train, cfg.Encoding, len(classes)),
		Test:     partition(features, ordinal, test, cfg.Encoding, len(classes)),
	}
	if err := checkShape(StageSplit, ds.Train.Len()+ds.Test.Len(), ds.Train.Labels.Len()+ds.Test.Labels.Len()); err != nil {
		return nil, err
	}
	b.done(StageSplit, len(features), len(classes))

	ds.Stages = b.stages
	return ds, nil
}

func partition(features [][]float64, ordinal []int, positions []int, enc Encoding, classes int) Partition {
	f := make([][]float64, len(positions))
	o := make([]int, len(positions))
	for i, p := range positions {
		f[i] = features[p]
		o[i] = ordinal[p]
	}
	return Partition{Features: f, Labels: newLabels(enc, o, classes)}
}
