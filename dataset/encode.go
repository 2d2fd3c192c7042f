package dataset

import (
	"slices"

	"gonum.org/v1/gonum/mat"
)

// encode maps labels to indices into the sorted class list.
func encode(labels []string) ([]int, []string) {
	classes := slices.Clone(labels)
	slices.Sort(classes)
	classes = slices.Compact(classes)

	index := make(map[string]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	ordinal := make([]int, len(labels))
	for i, l := range labels {
		ordinal[i] = index[l]
	}
	return ordinal, classes
}

// Labels holds partition labels in the configured encoding. Ordinal is always
// set; OneHot is set for the OneHot encoding and nil for empty partitions.
type Labels struct {
	Encoding Encoding
	Ordinal  []int
	OneHot   *mat.Dense
}

// Len returns the number of labels.
func (l Labels) Len() int { return len(l.Ordinal) }

func newLabels(enc Encoding, ordinal []int, classes int) Labels {
	l := Labels{Encoding: enc, Ordinal: ordinal}
	if enc == OneHot && len(ordinal) > 0 && classes > 0 {
		l.OneHot = mat.NewDense(len(ordinal), classes, nil)
		for i, c := range ordinal {
			l.OneHot.Set(i, c, 1)
		}
	}
	return l
}
