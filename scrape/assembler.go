package scrape

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/xrdgo/peak"
	"github.com/hupe1980/xrdgo/record"
)

// Source is the remote query collaborator.
type Source interface {
	// EntryIDs returns the ids of all entries in the chemical systems spanned by pool.
	EntryIDs(ctx context.Context, pool []string) ([]string, error)
	// PeakList returns the peak list of an entry for a source. ok is false
	// when the entry has no pattern for that source.
	PeakList(ctx context.Context, id, source string) (list peak.List, ok bool, err error)
	// SpaceGroup returns the space group symbol of an entry.
	SpaceGroup(ctx context.Context, id string) (string, error)
	// Lattice returns the lattice parameters of an entry.
	Lattice(ctx context.Context, id string) (record.Lattice, error)
}

// Report summarizes an assembly run.
type Report struct {
	// Requested is the number of entry ids handed to Assemble.
	Requested int
	// Assembled is the number of records in the store.
	Assembled int
	// Vectors is the number of (entry, source) vectors in the store.
	Vectors int
	// MissingSources counts (entry, source) pairs without a peak list.
	MissingSources int
	// Skipped lists the ids dropped under SkipEntry, sorted.
	Skipped []string
	// Retries counts repeated queries.
	Retries int
	// Duration is the wall time of the run.
	Duration time.Duration
}

// Assembler builds a record store from a Source.
type Assembler struct {
	src  Source
	opts options
}

// NewAssembler creates an assembler reading from src.
func NewAssembler(src Source, optFns ...Option) *Assembler {
	opts := options{
		sources:     DefaultSources,
		policy:      FailFast,
		concurrency: 1,
		backoff:     time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.concurrency < 1 {
		opts.concurrency = 1
	}
	if opts.retries < 0 {
		opts.retries = 0
	}
	if opts.logger == nil {
		opts.logger = slog.New(slog.DiscardHandler)
	}
	if opts.observer == nil {
		opts.observer = noopObserver{}
	}
	opts.sources = slices.Clone(opts.sources)
	return &Assembler{src: src, opts: opts}
}

// Sources returns the configured radiation sources.
func (a *Assembler) Sources() []string {
	return slices.Clone(a.opts.sources)
}

// Run resolves the entries of pool and assembles them.
func (a *Assembler) Run(ctx context.Context, pool []string) (*record.Store, Report, error) {
	var ids []string
	err := a.retry(ctx, nil, func(ctx context.Context) error {
		var err error
		ids, err = a.src.EntryIDs(ctx, pool)
		return err
	})
	if err != nil {
		return nil, Report{}, &QueryError{Field: "entries", Err: err}
	}
	a.opts.logger.InfoContext(ctx, "resolved entries", slog.Int("entries", len(ids)), slog.Any("pool", pool))
	return a.Assemble(ctx, ids)
}

// Assemble fetches every entry in ids. The resulting store does not depend on
// the concurrency setting.
func (a *Assembler) Assemble(ctx context.Context, ids []string) (*record.Store, Report, error) {
	start := time.Now()
	b := record.NewBuilder()

	var (
		mu     sync.Mutex
		report = Report{Requested: len(ids)}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.concurrency)

	for _, id := range ids {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := a.opts.controller.Acquire(gctx); err != nil {
				return err
			}
			defer a.opts.controller.Release()

			var st entryStats
			rec, err := a.fetch(gctx, id, &st)
			if err == nil {
				if addErr := b.Add(id, rec); addErr != nil {
					err = &QueryError{EntryID: id, Field: "record", Err: addErr}
				}
			}
			a.opts.observer.RecordEntry(len(rec.X), err)

			mu.Lock()
			report.Retries += st.retries
			if err == nil {
				report.Vectors += len(rec.X)
				report.MissingSources += st.missing
			}
			mu.Unlock()

			if err == nil {
				a.opts.logger.DebugContext(gctx, "assembled entry",
					slog.String("entry_id", id),
					slog.Int("sources", len(rec.X)),
					slog.String("spacegroup", rec.Y.SpaceGroup),
				)
				return nil
			}

			var qe *QueryError
			if a.opts.policy == SkipEntry && errors.As(err, &qe) {
				a.opts.logger.WarnContext(gctx, "skipping entry",
					slog.String("entry_id", id),
					slog.String("field", qe.Field),
					slog.String("error", qe.Err.Error()),
				)
				mu.Lock()
				report.Skipped = append(report.Skipped, id)
				mu.Unlock()
				return nil
			}
			return err
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	report.Duration = time.Since(start)
	if err != nil {
		return nil, report, err
	}

	store := b.Build()
	slices.Sort(report.Skipped)
	report.Assembled = store.Len()

	a.opts.logger.DebugContext(ctx, "assembled record store",
		slog.Int("requested", report.Requested),
		slog.Int("assembled", report.Assembled),
		slog.Int("vectors", report.Vectors),
		slog.Int("missing_sources", report.MissingSources),
		slog.Int("skipped", len(report.Skipped)),
		slog.Duration("duration", report.Duration),
	)
	return store, report, nil
}

type entryStats struct {
	missing int
	retries int
}

func (a *Assembler) fetch(ctx context.Context, id string, st *entryStats) (record.Record, error) {
	rec := record.Record{X: make(map[string]peak.Vector, len(a.opts.sources))}

	for _, src := range a.opts.sources {
		var (
			list peak.List
			ok   bool
		)
		err := a.retry(ctx, st, func(ctx context.Context) error {
			var err error
			list, ok, err = a.src.PeakList(ctx, id, src)
			return err
		})
		if err != nil {
			return rec, &QueryError{EntryID: id, Field: src, Err: err}
		}
		if !ok {
			st.missing++
			continue
		}
		rec.X[src] = peak.Discretize(list)
	}

	err := a.retry(ctx, st, func(ctx context.Context) error {
		var err error
		rec.Y.SpaceGroup, err = a.src.SpaceGroup(ctx, id)
		return err
	})
	if err != nil {
		return rec, &QueryError{EntryID: id, Field: "spacegroup", Err: err}
	}

	err = a.retry(ctx, st, func(ctx context.Context) error {
		var err error
		rec.Y.Lattice, err = a.src.Lattice(ctx, id)
		return err
	})
	if err != nil {
		return rec, &QueryError{EntryID: id, Field: "lattice", Err: err}
	}
	return rec, nil
}

// retry runs fn up to 1+retries times. Context errors are never retried.
func (a *Assembler) retry(ctx context.Context, st *entryStats, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt <= a.opts.retries; attempt++ {
		if attempt > 0 {
			if st != nil {
				st.retries++
			}
			t := time.NewTimer(a.opts.backoff * time.Duration(attempt))
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
		}

		start := time.Now()
		err = fn(ctx)
		a.opts.observer.RecordQuery(time.Since(start), err)
		if err == nil || ctx.Err() != nil {
			return err
		}
	}
	return err
}
