package testutil

import (
	"cmp"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/hupe1980/xrdgo/peak"
	"github.com/hupe1980/xrdgo/record"
)

// DefaultPeaks is the number of peaks generated per source when a Class
// leaves Peaks unset.
const DefaultPeaks = 8

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed uint64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed uint64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewPCG(seed, seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand = rand.New(rand.NewPCG(r.seed, r.seed))
}

// Seed returns the initial seed.
func (r *RNG) Seed() uint64 {
	return r.seed
}

// IntN returns a non-negative pseudo-random number in [0,n).
func (r *RNG) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.IntN(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// Peaks returns n peaks sorted by angle, with angles in [5, 90) degrees
// and intensities in (0, 100].
func (r *RNG) Peaks(n int) peak.List {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(peak.List, n)
	for i := range out {
		out[i] = peak.Peak{
			Angle:     5 + r.rand.Float64()*85,
			Intensity: 100 * (1 - r.rand.Float64()),
		}
	}
	slices.SortFunc(out, func(a, b peak.Peak) int { return cmp.Compare(a.Angle, b.Angle) })
	return out
}

// Vector returns the discretized form of n random peaks.
func (r *RNG) Vector(n int) peak.Vector {
	return peak.Discretize(r.Peaks(n))
}

// Features returns num dense random vectors of the given dimension in [0, 1).
// Uses a single backing array.
func (r *RNG) Features(num, dimensions int) [][]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float64, num*dimensions)
	out := make([][]float64, num)
	for i := range num {
		vec := data[i*dimensions : (i+1)*dimensions : (i+1)*dimensions]
		for j := range vec {
			vec[j] = r.rand.Float64()
		}
		out[i] = vec
	}
	return out
}

// Lattice returns lengths in [2, 12) Å and angles in [60, 120) degrees.
func (r *RNG) Lattice() record.Lattice {
	r.mu.Lock()
	defer r.mu.Unlock()

	var l record.Lattice
	for i := 0; i < 3; i++ {
		l[i] = 2 + r.rand.Float64()*10
		l[i+3] = 60 + r.rand.Float64()*60
	}
	return l
}

// Class describes a block of synthetic entries sharing one space group.
type Class struct {
	SpaceGroup string
	Entries    int
	Sources    []string
	Peaks      int
}

// Store generates a record store with the given classes. Entry IDs are
// "mp-1", "mp-2", ... in class order.
func (r *RNG) Store(classes ...Class) (*record.Store, error) {
	b := record.NewBuilder()
	id := 0
	for _, c := range classes {
		n := c.Peaks
		if n <= 0 {
			n = DefaultPeaks
		}
		for range c.Entries {
			id++
			x := make(map[string]peak.Vector, len(c.Sources))
			for _, src := range c.Sources {
				x[src] = r.Vector(n)
			}
			rec := record.Record{X: x, Y: record.Target{SpaceGroup: c.SpaceGroup, Lattice: r.Lattice()}}
			if err := b.Add(fmt.Sprintf("mp-%d", id), rec); err != nil {
				return nil, err
			}
		}
	}
	return b.Build(), nil
}

// ExactNeighbours returns the indices of the k rows of features closest to
// row i in Euclidean distance, excluding i itself. Ties keep index order.
// It serves as ground truth for neighbour searches.
func ExactNeighbours(features [][]float64, i, k int) []int {
	type candidate struct {
		idx  int
		dist float64
	}

	cands := make([]candidate, 0, len(features)-1)
	for j, f := range features {
		if j == i {
			continue
		}
		var d float64
		for x := range f {
			diff := f[x] - features[i][x]
			d += diff * diff
		}
		cands = append(cands, candidate{idx: j, dist: d})
	}
	slices.SortStableFunc(cands, func(a, b candidate) int { return cmp.Compare(a.dist, b.dist) })

	k = min(k, len(cands))
	out := make([]int, k)
	for n := range out {
		out[n] = cands[n].idx
	}
	return out
}
