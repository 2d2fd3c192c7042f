package dataset

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/bits-and-blooms/bitset"
)

// testSize returns ceil(fraction*n), capped at n.
func testSize(n int, fraction float64) int {
	t := int(math.Ceil(fraction * float64(n)))
	return min(max(t, 0), n)
}

// split shuffles 0..n-1 with rng. The first testSize positions of the
// permutation form the test set, the rest the train set.
func split(n int, fraction float64, rng *rand.Rand) (test, train []int, err error) {
	perm := rng.Perm(n)
	nTest := testSize(n, fraction)
	test, train = perm[:nTest], perm[nTest:]
	if err := checkPartition(n, test, train); err != nil {
		return nil, nil, err
	}
	return test, train, nil
}

// checkPartition verifies that test and train are disjoint and cover 0..n-1.
func checkPartition(n int, test, train []int) error {
	seen := bitset.New(uint(n))
	for _, part := range [][]int{test, train} {
		for _, i := range part {
			if i < 0 || i >= n || seen.Test(uint(i)) {
				return fmt.Errorf("%w: sample %d assigned twice or out of range", ErrShapeMismatch, i)
			}
			seen.Set(uint(i))
		}
	}
	if c := seen.Count(); c != uint(n) {
		return fmt.Errorf("%w: %d of %d samples assigned", ErrShapeMismatch, c, n)
	}
	return nil
}
