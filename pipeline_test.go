package xrdgo_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/xrdgo"
	"github.com/hupe1980/xrdgo/blobstore"
	"github.com/hupe1980/xrdgo/codec"
	"github.com/hupe1980/xrdgo/dataset"
	"github.com/hupe1980/xrdgo/model"
	"github.com/hupe1980/xrdgo/peak"
	"github.com/hupe1980/xrdgo/record"
	"github.com/hupe1980/xrdgo/snapshot"
)

// staticSource serves n cubic entries and n/2 triclinic ones with Cu patterns.
type staticSource struct {
	n int
}

func (s staticSource) EntryIDs(_ context.Context, pool []string) ([]string, error) {
	ids := make([]string, 0, s.n+s.n/2)
	for i := 0; i < s.n+s.n/2; i++ {
		ids = append(ids, fmt.Sprintf("mp-%d", i))
	}
	return ids, nil
}

func (s staticSource) index(id string) int {
	var i int
	_, _ = fmt.Sscanf(id, "mp-%d", &i)
	return i
}

func (s staticSource) PeakList(_ context.Context, id, source string) (peak.List, bool, error) {
	if source != "xrd.Cu" {
		return nil, false, nil
	}
	i := s.index(id)
	return peak.List{{Angle: 20 + float64(i%50)*0.1, Intensity: 100}, {Angle: 45, Intensity: float64(i)}}, true, nil
}

func (s staticSource) SpaceGroup(_ context.Context, id string) (string, error) {
	if s.index(id) < s.n {
		return "Fm-3m", nil
	}
	return "P1", nil
}

func (s staticSource) Lattice(context.Context, string) (record.Lattice, error) {
	return record.Lattice{4, 4, 4, 90, 90, 90}, nil
}

func testConfig() xrdgo.Config {
	cfg := xrdgo.DefaultConfig()
	cfg.Storage.Backend = "memory"
	cfg.Storage.Snapshot = "records-test"
	cfg.MaterialsProject.Pool = []string{"Na", "Cl"}
	cfg.Dataset.Threshold = 5
	cfg.Dataset.Seed = 7
	return cfg
}

func TestPipeline(t *testing.T) {
	ctx := context.Background()
	metrics := &xrdgo.BasicMetricsCollector{}
	bs := blobstore.NewMemoryStore()

	cfg := testConfig()
	cfg.Dataset.Output = "bundle"
	cfg.Storage.Codec = codec.NameGoJSON
	p, err := xrdgo.New(ctx, cfg,
		xrdgo.WithBlobStore(bs),
		xrdgo.WithLogger(xrdgo.NoopLogger()),
		xrdgo.WithMetricsCollector(metrics),
	)
	require.NoError(t, err)
	defer p.Close()

	t.Run("BuildBeforeScrape", func(t *testing.T) {
		_, err := p.BuildDataset(ctx)
		assert.ErrorIs(t, err, xrdgo.ErrNoSnapshot)
	})

	m, report, err := p.Scrape(ctx, staticSource{n: 20})
	require.NoError(t, err)
	assert.Equal(t, 30, report.Assembled)
	assert.Equal(t, 30, report.Vectors)
	assert.Equal(t, 90, report.MissingSources)
	assert.Equal(t, "records-test", m.Name)
	assert.Equal(t, snapshot.CompressionZstd, m.Compression)
	assert.Equal(t, codec.NameGoJSON, m.Codec)

	current, err := snapshot.Current(ctx, bs)
	require.NoError(t, err)
	assert.Equal(t, "records-test", current)

	stats := metrics.GetStats()
	assert.Equal(t, int64(30), stats.EntryCount)
	assert.Equal(t, int64(30), stats.VectorCount)
	assert.Equal(t, int64(1+30*6), stats.QueryCount)
	// The failed load before the first scrape counts as an attempt, like a failed query.
	assert.Equal(t, int64(2), stats.SnapshotCount)
	assert.Equal(t, int64(1), stats.SnapshotErrors)

	ds, err := p.BuildDataset(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Fm-3m", "P1"}, ds.Classes)
	// 20 + 10 samples, balanced to 20 + 20, 10% test.
	assert.Equal(t, 4, ds.Test.Len())
	assert.Equal(t, 36, ds.Train.Len())
	assert.Equal(t, 40, metrics.GetStats().StageSamples["split"])

	names, err := bs.List(ctx, "bundle/")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"bundle/" + dataset.TrainBlob, "bundle/" + dataset.TestBlob, "bundle/" + dataset.ClassesBlob}, names)

	spec, err := p.ModelSpec(len(ds.Classes))
	require.NoError(t, err)
	assert.Equal(t, model.DeepXRD, spec.Architecture)
	assert.Equal(t, []int{2}, spec.OutputShape())

	tc := p.TrainConfig(ds.Encoding)
	assert.Equal(t, model.SparseCategoricalCrossEntropy, tc.Loss)
	assert.Equal(t, 128, tc.BatchSize)

	t.Run("Records", func(t *testing.T) {
		store, m, err := p.Records(ctx)
		require.NoError(t, err)
		assert.Equal(t, 30, store.Len())
		assert.Equal(t, []string{"xrd.Cu"}, m.Sources)
	})
}

func TestPipelineScrapeErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("EmptyPool", func(t *testing.T) {
		cfg := testConfig()
		cfg.MaterialsProject.Pool = nil
		p, err := xrdgo.New(ctx, cfg, xrdgo.WithLogger(xrdgo.NoopLogger()))
		require.NoError(t, err)
		_, _, err = p.Scrape(ctx, staticSource{n: 1})
		assert.ErrorIs(t, err, xrdgo.ErrEmptyPool)
	})

	t.Run("Closed", func(t *testing.T) {
		p, err := xrdgo.New(ctx, testConfig(), xrdgo.WithLogger(xrdgo.NoopLogger()))
		require.NoError(t, err)
		require.NoError(t, p.Close())
		_, _, err = p.Scrape(ctx, staticSource{n: 1})
		assert.ErrorIs(t, err, xrdgo.ErrClosed)
		_, err = p.BuildDataset(ctx)
		assert.ErrorIs(t, err, xrdgo.ErrClosed)
	})

	t.Run("MissingAPIKey", func(t *testing.T) {
		t.Setenv(xrdgo.APIKeyEnv, "")
		p, err := xrdgo.New(ctx, testConfig(), xrdgo.WithLogger(xrdgo.NoopLogger()))
		require.NoError(t, err)
		_, err = p.Source(ctx)
		assert.ErrorIs(t, err, xrdgo.ErrMissingAPIKey)
	})

	t.Run("EmptyDataset", func(t *testing.T) {
		cfg := testConfig()
		cfg.Dataset.Threshold = 1000
		p, err := xrdgo.New(ctx, cfg, xrdgo.WithLogger(xrdgo.NoopLogger()))
		require.NoError(t, err)
		_, _, err = p.Scrape(ctx, staticSource{n: 4})
		require.NoError(t, err)
		_, err = p.BuildDataset(ctx)
		assert.ErrorIs(t, err, xrdgo.ErrEmptyDataset)
		var se *xrdgo.StageError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, dataset.StageFilter, se.Stage)
	})
}

func TestPipelineModelSpec(t *testing.T) {
	cfg := testConfig()
	cfg.Model.Architecture = "seqXRD"
	cfg.Model.Epochs = 10
	p, err := xrdgo.New(context.Background(), cfg, xrdgo.WithLogger(xrdgo.NoopLogger()))
	require.NoError(t, err)

	spec, err := p.ModelSpec(3)
	require.NoError(t, err)
	assert.Equal(t, model.ChannelsFirst, spec.Layout)
	assert.Equal(t, 10, p.TrainConfig(dataset.OneHot).Epochs)
	assert.Equal(t, model.CategoricalCrossEntropy, p.TrainConfig(dataset.OneHot).Loss)
}

// entryAPI answers every query with n task ids.
func entryAPI(t *testing.T, n int) *httptest.Server {
	t.Helper()
	docs := make([]map[string]string, n)
	for i := range docs {
		docs[i] = map[string]string{"task_id": fmt.Sprintf("mp-%d", i)}
	}
	body, err := json.Marshal(map[string]any{"valid_response": true, "response": docs})
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPipelineSource(t *testing.T) {
	ctx := context.Background()
	srv := entryAPI(t, 200)

	newPipeline := func(t *testing.T, bytesPerSecond int64) *xrdgo.Pipeline {
		cfg := testConfig()
		cfg.MaterialsProject.APIKey = "key"
		cfg.MaterialsProject.Endpoint = srv.URL
		cfg.MaterialsProject.BytesPerSecond = bytesPerSecond
		p, err := xrdgo.New(ctx, cfg, xrdgo.WithLogger(xrdgo.NoopLogger()), xrdgo.WithHTTPClient(srv.Client()))
		require.NoError(t, err)
		t.Cleanup(func() { _ = p.Close() })
		return p
	}

	t.Run("SharedController", func(t *testing.T) {
		p := newPipeline(t, 0)
		for range 2 {
			src, err := p.Source(ctx)
			require.NoError(t, err)
			ids, err := src.EntryIDs(ctx, []string{"Na", "Cl"})
			require.NoError(t, err)
			assert.Len(t, ids, 200)
			require.NoError(t, src.Close())
		}
		assert.Equal(t, int64(2), p.Controller().Total())
		assert.Zero(t, p.Controller().InFlight())
	})

	t.Run("BandwidthLimit", func(t *testing.T) {
		// A 64 B/s budget cannot read a multi-kilobyte response in time.
		p := newPipeline(t, 64)
		src, err := p.Source(ctx)
		require.NoError(t, err)
		defer src.Close()

		tctx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
		defer cancel()
		_, err = src.EntryIDs(tctx, []string{"Na", "Cl"})
		require.Error(t, err)
	})
}
