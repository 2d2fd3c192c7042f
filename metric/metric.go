// Package metric computes classification metrics over class indices.
package metric

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ErrLengthMismatch is returned when true and predicted labels differ in length.
var ErrLengthMismatch = errors.New("metric: label lengths differ")

// Argmax returns the column of the maximum of every row. Ties resolve to the
// lowest column.
func Argmax(scores mat.Matrix) []int {
	rows, cols := scores.Dims()
	out := make([]int, rows)
	row := make([]float64, cols)
	for i := range out {
		mat.Row(row, i, scores)
		out[i] = floats.MaxIdx(row)
	}
	return out
}

// Accuracy returns the share of positions where pred equals truth.
func Accuracy(truth, pred []int) (float64, error) {
	if len(truth) != len(pred) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(truth), len(pred))
	}
	if len(truth) == 0 {
		return 0, nil
	}
	hits := 0
	for i := range truth {
		if truth[i] == pred[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(truth)), nil
}

// ConfusionMatrix counts (true, predicted) pairs into a classes x classes
// matrix; rows are true classes. With normalize every non-empty row sums to 1.
func ConfusionMatrix(truth, pred []int, classes int, normalize bool) (*mat.Dense, error) {
	if len(truth) != len(pred) {
		return nil, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(truth), len(pred))
	}
	if classes < 1 {
		return nil, fmt.Errorf("metric: invalid class count %d", classes)
	}
	cm := mat.NewDense(classes, classes, nil)
	for i := range truth {
		t, p := truth[i], pred[i]
		if t < 0 || t >= classes || p < 0 || p >= classes {
			return nil, fmt.Errorf("metric: label out of range at %d: true %d, predicted %d", i, t, p)
		}
		cm.Set(t, p, cm.At(t, p)+1)
	}
	if normalize {
		for i := 0; i < classes; i++ {
			row := cm.RawRowView(i)
			if s := floats.Sum(row); s > 0 {
				floats.Scale(1/s, row)
			}
		}
	}
	return cm, nil
}

// Recall returns the per-class recall, the diagonal of the row-normalized
// confusion matrix. Classes without samples get 0.
func Recall(cm mat.Matrix) []float64 {
	n, _ := cm.Dims()
	out := make([]float64, n)
	row := make([]float64, n)
	for i := range out {
		mat.Row(row, i, cm)
		if s := floats.Sum(row); s > 0 {
			out[i] = row[i] / s
		}
	}
	return out
}
