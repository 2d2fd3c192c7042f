package model

import (
	"context"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/xrdgo/dataset"
	"github.com/hupe1980/xrdgo/metric"
)

// Loss is the training objective.
type Loss string

const (
	// SparseCategoricalCrossEntropy expects ordinal labels.
	SparseCategoricalCrossEntropy Loss = "sparse_categorical_crossentropy"
	// CategoricalCrossEntropy expects one-hot labels.
	CategoricalCrossEntropy Loss = "categorical_crossentropy"
)

// TrainConfig holds the optimizer settings handed to a Trainer.
type TrainConfig struct {
	Optimizer    string  `json:"optimizer" yaml:"optimizer"`
	LearningRate float64 `json:"learning_rate" yaml:"learning_rate"`
	BatchSize    int     `json:"batch_size" yaml:"batch_size"`
	Epochs       int     `json:"epochs" yaml:"epochs"`
	Loss         Loss    `json:"loss" yaml:"loss"`
}

// DefaultTrainConfig returns Adam with lr 0.001, batch 128 and 500 epochs,
// with the loss matching the label encoding.
func DefaultTrainConfig(enc dataset.Encoding) TrainConfig {
	cfg := TrainConfig{
		Optimizer:    "adam",
		LearningRate: 0.001,
		BatchSize:    128,
		Epochs:       500,
		Loss:         SparseCategoricalCrossEntropy,
	}
	if enc == dataset.OneHot {
		cfg.Loss = CategoricalCrossEntropy
	}
	return cfg
}

// Validate checks the configuration.
func (c TrainConfig) Validate() error {
	switch {
	case c.LearningRate <= 0:
		return fmt.Errorf("model: learning rate must be positive, got %g", c.LearningRate)
	case c.BatchSize < 1:
		return fmt.Errorf("model: batch size must be positive, got %d", c.BatchSize)
	case c.Epochs < 1:
		return fmt.Errorf("model: epochs must be positive, got %d", c.Epochs)
	case c.Loss != SparseCategoricalCrossEntropy && c.Loss != CategoricalCrossEntropy:
		return fmt.Errorf("model: unknown loss %q", c.Loss)
	}
	return nil
}

// Tensor is a dense row-major float32 batch.
type Tensor struct {
	Shape []int
	Data  []float32
}

// Reshape packs the partition features into a [n, size, 1] (ChannelsLast) or
// [n, 1, size] (ChannelsFirst) tensor.
func Reshape(p dataset.Partition, layout Layout) (Tensor, error) {
	n := p.Len()
	if n == 0 {
		return Tensor{}, dataset.ErrEmptyDataset
	}
	size := len(p.Features[0])
	data := make([]float32, 0, n*size)
	for i, f := range p.Features {
		if len(f) != size {
			return Tensor{}, fmt.Errorf("model: sample %d has %d features, want %d", i, len(f), size)
		}
		for _, v := range f {
			data = append(data, float32(v))
		}
	}
	shape := []int{n, size, 1}
	if layout == ChannelsFirst {
		shape = []int{n, 1, size}
	}
	return Tensor{Shape: shape, Data: data}, nil
}

// Predictor returns class scores, one row per sample and one column per class.
type Predictor interface {
	Predict(ctx context.Context, spec *Spec, x Tensor) (mat.Matrix, error)
}

// Trainer fits a model to spec. Training runs outside this module.
type Trainer interface {
	Predictor
	Train(ctx context.Context, spec *Spec, cfg TrainConfig, train, validation dataset.Partition) error
}

// Evaluation is the outcome of Evaluate.
type Evaluation struct {
	Predictions []int
	Accuracy    float64
	// Confusion is row-normalized; rows are true classes.
	Confusion *mat.Dense
}

// Evaluate predicts test, takes the argmax of each row and scores it against
// the ordinal test labels.
func Evaluate(ctx context.Context, p Predictor, spec *Spec, test dataset.Partition) (*Evaluation, error) {
	if p == nil {
		return nil, errors.New("model: nil predictor")
	}
	x, err := Reshape(test, spec.Layout)
	if err != nil {
		return nil, err
	}
	if got := len(test.Features[0]); got != spec.InputSize {
		return nil, fmt.Errorf("model: samples have %d features, spec expects %d", got, spec.InputSize)
	}
	scores, err := p.Predict(ctx, spec, x)
	if err != nil {
		return nil, fmt.Errorf("model: predict: %w", err)
	}
	rows, cols := scores.Dims()
	if rows != test.Len() || cols != spec.Classes {
		return nil, fmt.Errorf("model: predictor returned %dx%d scores, want %dx%d", rows, cols, test.Len(), spec.Classes)
	}

	pred := metric.Argmax(scores)
	acc, err := metric.Accuracy(test.Labels.Ordinal, pred)
	if err != nil {
		return nil, err
	}
	cm, err := metric.ConfusionMatrix(test.Labels.Ordinal, pred, spec.Classes, true)
	if err != nil {
		return nil, err
	}
	return &Evaluation{Predictions: pred, Accuracy: acc, Confusion: cm}, nil
}
