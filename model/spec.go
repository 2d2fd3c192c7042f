package model

import (
	"errors"
	"fmt"

	"github.com/hupe1980/xrdgo/peak"
)

// Default topology knobs.
var (
	DefaultKernels = []int{7, 5, 3, 3, 2}
	DefaultStrides = []int{4, 3, 2, 2, 1}
)

// Spec is a fully shaped network description.
type Spec struct {
	Architecture Architecture `json:"architecture"`
	Layout       Layout       `json:"layout"`
	InputSize    int          `json:"input_size"`
	Classes      int          `json:"classes"`
	Layers       []Layer      `json:"layers"`
}

// InputShape returns the per-sample input shape.
func (s *Spec) InputShape() []int {
	if s.Layout == ChannelsFirst {
		return []int{1, s.InputSize}
	}
	return []int{s.InputSize, 1}
}

// OutputShape returns the per-sample output shape of the last layer.
func (s *Spec) OutputShape() []int {
	if len(s.Layers) == 0 {
		return s.InputShape()
	}
	return s.Layers[len(s.Layers)-1].Output
}

// Params returns the total number of weights.
func (s *Spec) Params() int {
	n := 0
	for _, l := range s.Layers {
		n += l.Params
	}
	return n
}

// Validate re-runs shape inference and checks the head matches Classes.
func (s *Spec) Validate() error {
	if s.Classes < 2 {
		return fmt.Errorf("model: need at least 2 classes, got %d", s.Classes)
	}
	if s.InputSize < 1 {
		return fmt.Errorf("model: invalid input size %d", s.InputSize)
	}
	if len(s.Layers) == 0 {
		return errors.New("model: no layers")
	}
	shape := s.InputShape()
	for i := range s.Layers {
		l := s.Layers[i]
		if err := l.infer(shape); err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
		shape = l.Output
	}
	head := s.Layers[len(s.Layers)-1]
	if head.Kind != Dense || head.Activation != "softmax" || head.Units != s.Classes {
		return fmt.Errorf("model: head must be a %d unit softmax dense layer", s.Classes)
	}
	return nil
}

// Option configures New.
type Option func(*options)

type options struct {
	kernels     []int
	strides     []int
	poolPadding Padding
	inputSize   int
}

// WithKernels sets the five DeepXRD kernel sizes.
func WithKernels(k ...int) Option {
	return func(o *options) { o.kernels = k }
}

// WithStrides sets the DeepXRD stride lengths. Only the first three are used.
func WithStrides(s ...int) Option {
	return func(o *options) { o.strides = s }
}

// WithPoolPadding sets the DeepXRD max-pooling padding.
func WithPoolPadding(p Padding) Option {
	return func(o *options) { o.poolPadding = p }
}

// WithInputSize overrides the pattern length. Defaults to peak.GridSize.
func WithInputSize(n int) Option {
	return func(o *options) { o.inputSize = n }
}

// New builds the topology of arch with a softmax head of classes units.
func New(arch Architecture, classes int, opts ...Option) (*Spec, error) {
	o := options{
		kernels:     DefaultKernels,
		strides:     DefaultStrides,
		poolPadding: PaddingSame,
		inputSize:   peak.GridSize,
	}
	for _, opt := range opts {
		opt(&o)
	}

	var layers []Layer
	switch arch {
	case DeepXRD:
		if len(o.kernels) < 5 || len(o.strides) < 3 {
			return nil, fmt.Errorf("model: DeepXRD needs 5 kernels and 3 strides, got %d and %d", len(o.kernels), len(o.strides))
		}
		if o.poolPadding != PaddingSame && o.poolPadding != PaddingValid {
			return nil, fmt.Errorf("model: invalid pool padding %q", o.poolPadding)
		}
		k, st := o.kernels, o.strides
		layers = []Layer{
			conv(16, k[0], 1, ""),
			conv(16, k[1], st[0], ""),
			{Kind: BatchNormalization, Momentum: 0.99},
			pool(2, o.poolPadding),
			conv(32, k[2], 1, ""),
			conv(32, k[2], st[1], ""),
			{Kind: BatchNormalization, Momentum: 0.99},
			pool(2, o.poolPadding),
			conv(64, k[3], 1, ""),
			conv(64, k[4], st[2], "last_conv_layer"),
			{Kind: Flatten},
			dense(512, "relu"),
			dropout(0.2),
			dense(256, "relu"),
			dropout(0.2),
			dense(128, "relu"),
			dense(32, ""),
		}
	case ACNN:
		layers = []Layer{
			conv(32, 8, 8, ""),
			conv(32, 5, 5, ""),
			dropout(0.2),
			conv(32, 3, 3, ""),
			dropout(0.2),
			{Kind: GlobalAveragePooling1D},
		}
	case SeqXRD:
		layers = []Layer{
			{Kind: LSTM, Units: 16, ReturnSequences: true, Activation: "tanh"},
			dropout(0.4),
			{Kind: LSTM, Units: 16, Activation: "tanh"},
		}
	default:
		return nil, fmt.Errorf("model: invalid architecture %d", int(arch))
	}
	layers = append(layers, dense(classes, "softmax"))

	s := &Spec{
		Architecture: arch,
		Layout:       arch.Layout(),
		InputSize:    o.inputSize,
		Classes:      classes,
		Layers:       layers,
	}
	if err := s.shape(); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Spec) shape() error {
	if s.InputSize < 1 {
		return fmt.Errorf("model: invalid input size %d", s.InputSize)
	}
	in := s.InputShape()
	for i := range s.Layers {
		if err := s.Layers[i].infer(in); err != nil {
			return fmt.Errorf("%s layer %d: %w", s.Architecture, i, err)
		}
		in = s.Layers[i].Output
	}
	return nil
}
