package mp

import (
	"fmt"
	"slices"
	"strings"
)

// maxPoolSize bounds the number of elements; a pool of n elements expands to
// 2^n - 1 chemical systems.
const maxPoolSize = 16

// ChemicalSystems expands a pool of elements into every chemical system it
// spans: "Li", "Mn", "Li-Mn", ... Elements are sorted within each system and
// systems are returned in sorted order.
func ChemicalSystems(pool []string) ([]string, error) {
	elems := make([]string, 0, len(pool))
	for _, e := range pool {
		if e = strings.TrimSpace(e); e != "" {
			elems = append(elems, e)
		}
	}
	slices.Sort(elems)
	elems = slices.Compact(elems)

	if len(elems) == 0 {
		return nil, fmt.Errorf("mp: empty element pool")
	}
	if len(elems) > maxPoolSize {
		return nil, fmt.Errorf("mp: pool of %d elements exceeds %d", len(elems), maxPoolSize)
	}

	systems := make([]string, 0, 1<<len(elems)-1)
	parts := make([]string, 0, len(elems))
	for mask := 1; mask < 1<<len(elems); mask++ {
		parts = parts[:0]
		for i, e := range elems {
			if mask&(1<<i) != 0 {
				parts = append(parts, e)
			}
		}
		systems = append(systems, strings.Join(parts, "-"))
	}
	slices.Sort(systems)
	return systems, nil
}
