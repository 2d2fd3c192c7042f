package dataset

import (
	"math/rand/v2"
	"slices"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
	"gonum.org/v1/gonum/floats"
)

// smote oversamples every class up to the majority count. For a base sample x
// of the class and one of its k nearest same-class neighbours nn (Euclidean),
// a synthetic sample is x + u*(nn - x) with u drawn from [0, 1). A class with
// a single sample has no neighbours; it is grown by duplication.
//
// Original samples keep their positions; synthetic samples are appended class
// by class in class order.
func smote(features [][]float64, labels []int, classes, k int, rng *rand.Rand) ([][]float64, []int) {
	members := make([]*roaring.Bitmap, classes)
	for c := range members {
		members[c] = roaring.New()
	}
	for i, l := range labels {
		members[l].Add(uint32(i))
	}

	majority := 0
	for _, m := range members {
		majority = max(majority, int(m.GetCardinality()))
	}

	outF := slices.Clone(features)
	outL := slices.Clone(labels)
	for c, m := range members {
		n := int(m.GetCardinality())
		need := majority - n
		if n == 0 || need == 0 {
			continue
		}
		idx := m.ToArray()

		if n == 1 {
			for range need {
				outF = append(outF, slices.Clone(features[idx[0]]))
				outL = append(outL, c)
			}
			continue
		}

		nn := newNeighbourIndex(features, idx, min(k, n-1))
		dim := len(features[idx[0]])
		diff := make([]float64, dim)
		for range need {
			base := rng.IntN(n)
			near := nn.of(base)
			other := near[rng.IntN(len(near))]
			x, y := features[idx[base]], features[idx[other]]

			floats.SubTo(diff, y, x)
			s := make([]float64, dim)
			floats.AddScaledTo(s, x, rng.Float64(), diff)

			outF = append(outF, s)
			outL = append(outL, c)
		}
	}
	return outF, outL
}

// neighbourIndex finds the k nearest other members of a class on demand.
// Results are memoised per member, so only drawn base samples pay for a
// search.
type neighbourIndex struct {
	features [][]float64
	idx      []uint32
	k        int
	cache    map[int][]int
}

func newNeighbourIndex(features [][]float64, idx []uint32, k int) *neighbourIndex {
	return &neighbourIndex{features: features, idx: idx, k: k, cache: make(map[int][]int)}
}

// of returns the positions of the k members nearest to member i in ascending
// distance. Ties are broken by position.
func (ni *neighbourIndex) of(i int) []int {
	if nn, ok := ni.cache[i]; ok {
		return nn
	}

	x := ni.features[ni.idx[i]]
	best := make([]int, 0, ni.k+1)
	dist := make([]float64, 0, ni.k+1)
	for j := range ni.idx {
		if j == i {
			continue
		}
		d := floats.Distance(x, ni.features[ni.idx[j]], 2)
		if len(best) == ni.k && d >= dist[len(dist)-1] {
			continue
		}
		// Insert after equal distances so earlier positions win ties.
		pos := sort.Search(len(dist), func(n int) bool { return dist[n] > d })
		best = slices.Insert(best, pos, j)
		dist = slices.Insert(dist, pos, d)
		if len(best) > ni.k {
			best, dist = best[:ni.k], dist[:ni.k]
		}
	}

	ni.cache[i] = best
	return best
}
