package dataset

import (
	"maps"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/xrdgo/record"
)

// LabelCounts counts every space group over all (entry, available source)
// instances of the store.
func LabelCounts(store *record.Store) map[string]int {
	counts := make(map[string]int)
	store.Range(func(_ string, r record.Record) bool {
		counts[r.Y.SpaceGroup] += len(r.X)
		return true
	})
	return counts
}

// SelectedLabels returns the sorted space groups whose count reaches threshold.
// Raising the threshold never adds a label.
func SelectedLabels(counts map[string]int, threshold int) []string {
	var out []string
	for _, label := range slices.Sorted(maps.Keys(counts)) {
		if counts[label] > 0 && counts[label] >= threshold {
			out = append(out, label)
		}
	}
	return out
}

// filter returns the positions (in store.IDs order) of entries whose label
// qualifies, together with the qualifying labels.
func filter(store *record.Store, threshold int) (*roaring.Bitmap, []string) {
	byLabel := make(map[string]*roaring.Bitmap)
	for i, id := range store.IDs() {
		r, _ := store.Get(id)
		if len(r.X) == 0 {
			continue
		}
		bm, ok := byLabel[r.Y.SpaceGroup]
		if !ok {
			bm = roaring.New()
			byLabel[r.Y.SpaceGroup] = bm
		}
		bm.Add(uint32(i))
	}

	labels := SelectedLabels(LabelCounts(store), threshold)
	sets := make([]*roaring.Bitmap, 0, len(labels))
	for _, l := range labels {
		sets = append(sets, byLabel[l])
	}
	return roaring.FastOr(sets...), labels
}
