package snapshot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/xrdgo/blobstore"
	"github.com/hupe1980/xrdgo/codec"
	"github.com/hupe1980/xrdgo/peak"
	"github.com/hupe1980/xrdgo/record"
	"github.com/hupe1980/xrdgo/testutil"
)

func testStore(t *testing.T) *record.Store {
	t.Helper()
	b := record.NewBuilder()
	lattice := record.Lattice{3.9, 3.9, 3.9, 90, 90, 90}
	require.NoError(t, b.Add("mp-1", record.Record{
		X: map[string]peak.Vector{
			"xrd.Cu": peak.Discretize(peak.List{{Angle: 28.44, Intensity: 100}, {Angle: 47.3, Intensity: 55}}),
			"xrd.Mo": peak.Discretize(peak.List{{Angle: 12.6, Intensity: 100}}),
		},
		Y: record.Target{SpaceGroup: "Fm-3m", Lattice: lattice},
	}))
	require.NoError(t, b.Add("mp-2", record.Record{
		X: map[string]peak.Vector{
			"xrd.Cu": peak.Discretize(peak.List{{Angle: 31.7, Intensity: 80}}),
		},
		Y: record.Target{SpaceGroup: "P1", Lattice: lattice},
	}))
	return b.Build()
}

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	for _, c := range []Compression{CompressionNone, CompressionZstd, CompressionLZ4} {
		for _, cd := range []codec.Codec{codec.JSON{}, codec.GoJSON{}} {
			t.Run(c.String()+"/"+cd.Name(), func(t *testing.T) {
				bs := blobstore.NewMemoryStore()
				store := testStore(t)

				m, err := Save(ctx, bs, "records", store, WithCompression(c), WithCodec(cd))
				require.NoError(t, err)
				assert.Equal(t, 2, m.Entries)
				assert.Equal(t, []string{"xrd.Cu", "xrd.Mo"}, m.Sources)
				assert.Equal(t, c, m.Compression)
				assert.Equal(t, cd.Name(), m.Codec)
				if c != CompressionNone {
					assert.Less(t, m.Size, m.RawSize)
				}

				got, gm, err := Load(ctx, bs, "records")
				require.NoError(t, err)
				require.NotNil(t, gm)
				assert.Equal(t, m.Checksum, gm.Checksum)
				assert.Equal(t, store.IDs(), got.IDs())
				assert.Equal(t, store.Map(), got.Map())
			})
		}
	}
}

func TestSaveLoad_SyntheticStore(t *testing.T) {
	ctx := context.Background()
	store, err := testutil.NewRNG(99).Store(
		testutil.Class{SpaceGroup: "Fm-3m", Entries: 150, Sources: []string{"xrd.Cu", "xrd.Mo", "xrd.Ag"}},
		testutil.Class{SpaceGroup: "P2_1/c", Entries: 50, Sources: []string{"xrd.Fe"}, Peaks: 20},
	)
	require.NoError(t, err)

	bs := blobstore.NewMemoryStore()
	m, err := Save(ctx, bs, "synthetic", store, WithCompression(CompressionLZ4), WithCodec(codec.GoJSON{}))
	require.NoError(t, err)
	assert.Equal(t, 200, m.Entries)
	assert.Equal(t, []string{"xrd.Ag", "xrd.Cu", "xrd.Fe", "xrd.Mo"}, m.Sources)

	got, _, err := Load(ctx, bs, "synthetic")
	require.NoError(t, err)
	assert.Equal(t, store.Map(), got.Map())
}

func TestLoad_ChecksumMismatch(t *testing.T) {
	ctx := context.Background()
	bs := blobstore.NewMemoryStore()

	_, err := Save(ctx, bs, "records", testStore(t), WithCompression(CompressionZstd))
	require.NoError(t, err)

	data, err := blobstore.Get(ctx, bs, "records")
	require.NoError(t, err)
	data[len(data)/2] ^= 0xff
	require.NoError(t, bs.Put(ctx, "records", data))

	_, _, err = Load(ctx, bs, "records")
	var mismatch *ChecksumMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "records", mismatch.Name)
}

func TestLoad_PlainJSON(t *testing.T) {
	ctx := context.Background()
	bs := blobstore.NewMemoryStore()
	store := testStore(t)

	data, err := store.MarshalJSON()
	require.NoError(t, err)
	require.NoError(t, bs.Put(ctx, "XRD_dataset.json", data))

	got, m, err := Load(ctx, bs, "XRD_dataset.json")
	require.NoError(t, err)
	assert.Nil(t, m)
	assert.Equal(t, store.Map(), got.Map())
}

func TestLoad_Missing(t *testing.T) {
	_, _, err := Load(context.Background(), blobstore.NewMemoryStore(), "nope")
	require.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestPublish(t *testing.T) {
	ctx := context.Background()
	bs := blobstore.NewMemoryStore()

	_, _, err := LoadCurrent(ctx, bs)
	require.ErrorIs(t, err, ErrNoCurrent)

	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	withClock := func(o *options) { o.now = func() time.Time { return clock } }

	_, err = Publish(ctx, bs, "records-1", testStore(t), withClock)
	require.NoError(t, err)
	_, err = Publish(ctx, bs, "records-2", testStore(t), WithCompression(CompressionLZ4), withClock)
	require.NoError(t, err)

	name, err := Current(ctx, bs)
	require.NoError(t, err)
	assert.Equal(t, "records-2", name)

	store, m, err := LoadCurrent(ctx, bs)
	require.NoError(t, err)
	assert.Equal(t, 2, store.Len())
	assert.Equal(t, CompressionLZ4, m.Compression)
	assert.True(t, clock.Equal(m.CreatedAt))

	manifests, err := List(ctx, bs)
	require.NoError(t, err)
	require.Len(t, manifests, 2)
	assert.Equal(t, "records-1", manifests[0].Name)
	assert.Equal(t, "records-2", manifests[1].Name)

	require.Error(t, Delete(ctx, bs, "records-2"))
	require.NoError(t, Delete(ctx, bs, "records-1"))
	manifests, err = List(ctx, bs)
	require.NoError(t, err)
	assert.Len(t, manifests, 1)

	// records-2, its manifest and CURRENT remain.
	assert.Equal(t, 3, bs.Len())
	assert.Equal(t, m.Size+int64(len("records-2")), bs.Bytes()-manifestSize(t, bs, "records-2"))
}

func manifestSize(t *testing.T, bs blobstore.BlobStore, name string) int64 {
	t.Helper()
	data, err := blobstore.Get(context.Background(), bs, manifestName(name))
	require.NoError(t, err)
	return int64(len(data))
}

func TestSave_InvalidName(t *testing.T) {
	bs := blobstore.NewMemoryStore()
	for _, name := range []string{"", CurrentName, "x" + ManifestSuffix} {
		_, err := Save(context.Background(), bs, name, testStore(t))
		require.Error(t, err, name)
	}
}

func TestParseCompression(t *testing.T) {
	for in, want := range map[string]Compression{"": CompressionNone, "none": CompressionNone, "ZSTD": CompressionZstd, "lz4": CompressionLZ4} {
		got, err := ParseCompression(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseCompression("gzip")
	require.Error(t, err)
}
