package dataset

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/xrdgo/record"
)

// selectSamples emits (vector, label) pairs for the entries in keep. With
// SourceAll an entry with k sources contributes k samples in source order,
// otherwise it contributes one sample if it has the source.
func selectSamples(store *record.Store, keep *roaring.Bitmap, source string) ([][]float64, []string) {
	ids := store.IDs()
	var (
		features [][]float64
		labels   []string
	)

	it := keep.Iterator()
	for it.HasNext() {
		r, _ := store.Get(ids[it.Next()])
		if source == SourceAll {
			for _, src := range r.Sources() {
				features = append(features, r.X[src])
				labels = append(labels, r.Y.SpaceGroup)
			}
			continue
		}
		if v, ok := r.X[source]; ok {
			features = append(features, v)
			labels = append(labels, r.Y.SpaceGroup)
		}
	}
	return features, labels
}
