package dataset

import (
	"context"
	"fmt"
	"path"

	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/xrdgo/blobstore"
	"github.com/hupe1980/xrdgo/codec"
)

// Bundle blob names written by WriteBundle.
const (
	TrainBlob   = "train.json"
	TestBlob    = "test.json"
	ClassesBlob = "classes.json"
)

type partitionDoc struct {
	Features [][]float64 `json:"features"`
	// Labels holds class indices for ordinal encoding and rows of 0/1 for one-hot.
	Labels any `json:"labels"`
}

type classesDoc struct {
	Classes  []string `json:"classes"`
	Encoding string   `json:"encoding"`
	Source   string   `json:"source"`
}

// WriteBundle writes the dataset under prefix for an external trainer.
// A nil codec means codec.Default.
func WriteBundle(ctx context.Context, bs blobstore.BlobStore, prefix string, ds *Dataset, c codec.Codec) error {
	if c == nil {
		c = codec.Default
	}
	blobs := []struct {
		name   string
		doc    any
		pretty bool
	}{
		{TrainBlob, toDoc(ds.Train), false},
		{TestBlob, toDoc(ds.Test), false},
		{ClassesBlob, classesDoc{Classes: ds.Classes, Encoding: ds.Encoding.String(), Source: ds.Source}, true},
	}
	for _, b := range blobs {
		var (
			data []byte
			err  error
		)
		if b.pretty {
			data, err = codec.Pretty(c, b.doc)
		} else {
			data, err = c.Marshal(b.doc)
		}
		if err != nil {
			return fmt.Errorf("dataset: encode %s: %w", b.name, err)
		}
		if err := bs.Put(ctx, path.Join(prefix, b.name), data); err != nil {
			return fmt.Errorf("dataset: write %s: %w", b.name, err)
		}
	}
	return nil
}

func toDoc(p Partition) partitionDoc {
	doc := partitionDoc{Features: p.Features}
	if doc.Features == nil {
		doc.Features = [][]float64{}
	}
	switch {
	case p.Labels.Encoding == OneHot:
		rows := make([][]float64, p.Labels.Len())
		for i := range rows {
			rows[i] = mat.Row(nil, i, p.Labels.OneHot)
		}
		doc.Labels = rows
	case p.Labels.Ordinal == nil:
		doc.Labels = []int{}
	default:
		doc.Labels = p.Labels.Ordinal
	}
	return doc
}
