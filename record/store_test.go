package record

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/xrdgo/peak"
)

var cubic = Lattice{4.05, 4.05, 4.05, 90, 90, 90}

func vec(bin int, intensity float64) peak.Vector {
	v := make(peak.Vector, peak.GridSize)
	v[bin] = intensity
	return v
}

func TestBuilder(t *testing.T) {
	t.Run("AddAndBuild", func(t *testing.T) {
		b := NewBuilder()
		require.NoError(t, b.Add("mp-2", Record{
			X: map[string]peak.Vector{"xrd.Mo": vec(10, 1), "xrd.Cu": vec(20, 2)},
			Y: Target{SpaceGroup: "Fm-3m", Lattice: cubic},
		}))
		require.NoError(t, b.Add("mp-1", Record{Y: Target{SpaceGroup: "P1", Lattice: cubic}}))
		assert.Equal(t, 2, b.Len())

		s := b.Build()
		assert.Equal(t, 2, s.Len())
		assert.Equal(t, []string{"mp-1", "mp-2"}, s.IDs())
		assert.Equal(t, []string{"xrd.Cu", "xrd.Mo"}, s.Sources())

		r, ok := s.Get("mp-2")
		require.True(t, ok)
		assert.Equal(t, []string{"xrd.Cu", "xrd.Mo"}, r.Sources())
		assert.Equal(t, 2.0, r.X["xrd.Cu"][20])

		r, ok = s.Get("mp-1")
		require.True(t, ok)
		assert.Empty(t, r.Sources())
	})

	t.Run("Duplicate", func(t *testing.T) {
		b := NewBuilder()
		rec := Record{Y: Target{SpaceGroup: "P1", Lattice: cubic}}
		require.NoError(t, b.Add("mp-1", rec))
		err := b.Add("mp-1", rec)
		assert.ErrorIs(t, err, ErrDuplicateEntry)
	})

	t.Run("InvalidVector", func(t *testing.T) {
		b := NewBuilder()
		err := b.Add("mp-1", Record{
			X: map[string]peak.Vector{"xrd.Cu": make(peak.Vector, 10)},
			Y: Target{SpaceGroup: "P1", Lattice: cubic},
		})
		var iv *ErrInvalidVector
		require.True(t, errors.As(err, &iv))
		assert.Equal(t, "xrd.Cu", iv.Source)
		assert.Equal(t, 10, iv.Length)
	})

	t.Run("InvalidLattice", func(t *testing.T) {
		b := NewBuilder()
		err := b.Add("mp-1", Record{Y: Target{SpaceGroup: "P1", Lattice: Lattice{1, 1, 0, 90, 90, 90}}})
		var il *ErrInvalidLattice
		assert.True(t, errors.As(err, &il))
	})

	t.Run("ClosedAfterBuild", func(t *testing.T) {
		b := NewBuilder()
		b.Build()
		err := b.Add("mp-1", Record{Y: Target{SpaceGroup: "P1", Lattice: cubic}})
		assert.ErrorIs(t, err, ErrBuilderClosed)
	})

	t.Run("CopiesInput", func(t *testing.T) {
		b := NewBuilder()
		v := vec(5, 1)
		require.NoError(t, b.Add("mp-1", Record{
			X: map[string]peak.Vector{"xrd.Cu": v},
			Y: Target{SpaceGroup: "P1", Lattice: cubic},
		}))
		v[5] = 99

		r, _ := b.Build().Get("mp-1")
		assert.Equal(t, 1.0, r.X["xrd.Cu"][5])
	})

	t.Run("Concurrent", func(t *testing.T) {
		b := NewBuilder()
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				id := "mp-" + string(rune('a'+i%26)) + string(rune('a'+i/26))
				assert.NoError(t, b.Add(id, Record{Y: Target{SpaceGroup: "P1", Lattice: cubic}}))
			}(i)
		}
		wg.Wait()
		assert.Equal(t, 50, b.Build().Len())
	})
}

func TestStoreJSON(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Add("mp-7", Record{
		X: map[string]peak.Vector{"xrd.Cu": vec(383, 100)},
		Y: Target{SpaceGroup: "Fm-3m", Lattice: cubic},
	}))
	s := b.Build()

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var shape map[string]struct {
		X map[string][]float64 `json:"X"`
		Y struct {
			SpaceGroup string    `json:"spacegroup"`
			Lattice    []float64 `json:"lattice"`
		} `json:"Y"`
	}
	require.NoError(t, json.Unmarshal(data, &shape))
	require.Contains(t, shape, "mp-7")
	assert.Len(t, shape["mp-7"].X["xrd.Cu"], peak.GridSize)
	assert.Equal(t, "Fm-3m", shape["mp-7"].Y.SpaceGroup)
	assert.Len(t, shape["mp-7"].Y.Lattice, 6)

	var decoded Store
	require.NoError(t, json.Unmarshal(data, &decoded))
	r, ok := decoded.Get("mp-7")
	require.True(t, ok)
	assert.Equal(t, 100.0, r.X["xrd.Cu"][383])
	assert.Equal(t, cubic, r.Y.Lattice)
}

func TestStoreJSON_NullX(t *testing.T) {
	data := []byte(`{"mp-1": {"X": null, "Y": {"spacegroup": "P1", "lattice": [1, 2, 3, 90, 90, 90]}}}`)

	var s Store
	require.NoError(t, json.Unmarshal(data, &s))
	r, ok := s.Get("mp-1")
	require.True(t, ok)
	assert.Empty(t, r.Sources())
}

func TestStoreJSON_Invalid(t *testing.T) {
	data := []byte(`{"mp-1": {"X": {"xrd.Cu": [1, 2]}, "Y": {"spacegroup": "P1", "lattice": [1, 2, 3, 90, 90, 90]}}}`)

	var s Store
	var iv *ErrInvalidVector
	assert.True(t, errors.As(json.Unmarshal(data, &s), &iv))
}
