package model

import "fmt"

// Kind is the type of a layer.
type Kind string

const (
	Conv1D                 Kind = "Conv1D"
	MaxPool1D              Kind = "MaxPool1D"
	BatchNormalization     Kind = "BatchNormalization"
	Dropout                Kind = "Dropout"
	Flatten                Kind = "Flatten"
	Dense                  Kind = "Dense"
	GlobalAveragePooling1D Kind = "GlobalAveragePooling1D"
	LSTM                   Kind = "LSTM"
)

// Padding of convolution and pooling layers.
type Padding string

const (
	PaddingSame  Padding = "same"
	PaddingValid Padding = "valid"
)

// Layer is one declared layer. Only the fields relevant to Kind are set.
type Layer struct {
	Kind Kind   `json:"kind"`
	Name string `json:"name,omitempty"`

	// Conv1D: Filters, Kernel, Stride. MaxPool1D: Kernel (pool size), Stride.
	Filters int     `json:"filters,omitempty"`
	Kernel  int     `json:"kernel,omitempty"`
	Stride  int     `json:"stride,omitempty"`
	Padding Padding `json:"padding,omitempty"`

	// Dense and LSTM.
	Units           int  `json:"units,omitempty"`
	ReturnSequences bool `json:"return_sequences,omitempty"`

	// Activation of Conv1D, Dense and LSTM. Empty means linear.
	Activation string `json:"activation,omitempty"`

	// Rate is the dropout rate; Momentum the batch normalization momentum.
	Rate     float64 `json:"rate,omitempty"`
	Momentum float64 `json:"momentum,omitempty"`

	// Output is the per-sample output shape, filled in by New.
	Output []int `json:"output"`
	// Params is the number of trainable and non-trainable weights.
	Params int `json:"params"`
}

func conv(filters, kernel, stride int, name string) Layer {
	return Layer{Kind: Conv1D, Name: name, Filters: filters, Kernel: kernel, Stride: stride, Padding: PaddingSame, Activation: "relu"}
}

func pool(size int, padding Padding) Layer {
	return Layer{Kind: MaxPool1D, Kernel: size, Stride: size, Padding: padding}
}

func dense(units int, activation string) Layer {
	return Layer{Kind: Dense, Units: units, Activation: activation}
}

func dropout(rate float64) Layer {
	return Layer{Kind: Dropout, Rate: rate}
}

func outLen(n, kernel, stride int, p Padding) int {
	if p == PaddingValid {
		if n < kernel {
			return 0
		}
		return (n-kernel)/stride + 1
	}
	return (n + stride - 1) / stride
}

// infer computes the output shape and weight count of l for input shape in.
func (l *Layer) infer(in []int) error {
	switch l.Kind {
	case Conv1D, MaxPool1D:
		if len(in) != 2 {
			return fmt.Errorf("model: %s needs a [steps, channels] input, got %v", l.Kind, in)
		}
		if l.Kernel < 1 || l.Stride < 1 {
			return fmt.Errorf("model: %s kernel %d stride %d", l.Kind, l.Kernel, l.Stride)
		}
		steps := outLen(in[0], l.Kernel, l.Stride, l.Padding)
		if steps < 1 {
			return fmt.Errorf("model: %s reduces %v to nothing", l.Kind, in)
		}
		if l.Kind == MaxPool1D {
			l.Output = []int{steps, in[1]}
			return nil
		}
		l.Output = []int{steps, l.Filters}
		l.Params = l.Kernel*in[1]*l.Filters + l.Filters
	case BatchNormalization:
		l.Output = clone(in)
		l.Params = 4 * in[len(in)-1]
	case Dropout:
		l.Output = clone(in)
	case Flatten:
		n := 1
		for _, d := range in {
			n *= d
		}
		l.Output = []int{n}
	case GlobalAveragePooling1D:
		if len(in) != 2 {
			return fmt.Errorf("model: %s needs a [steps, channels] input, got %v", l.Kind, in)
		}
		l.Output = []int{in[1]}
	case Dense:
		l.Output = append(clone(in[:len(in)-1]), l.Units)
		l.Params = in[len(in)-1]*l.Units + l.Units
	case LSTM:
		if len(in) != 2 {
			return fmt.Errorf("model: %s needs a [steps, features] input, got %v", l.Kind, in)
		}
		if l.ReturnSequences {
			l.Output = []int{in[0], l.Units}
		} else {
			l.Output = []int{l.Units}
		}
		l.Params = 4 * (l.Units*(in[1]+l.Units) + l.Units)
	default:
		return fmt.Errorf("model: unknown layer kind %q", l.Kind)
	}
	return nil
}

func clone(s []int) []int {
	return append([]int(nil), s...)
}
