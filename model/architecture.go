package model

import (
	"fmt"
	"strings"
)

// Architecture selects one of the fixed topologies.
type Architecture int

const (
	// DeepXRD is a VGG-style CNN with batch normalization and shrinking kernels.
	DeepXRD Architecture = iota
	// ACNN is the all-convolutional network of Oviedo et al.
	ACNN
	// SeqXRD is a two-layer LSTM reading the pattern as one time step.
	SeqXRD
)

// Architectures lists every architecture.
var Architectures = []Architecture{DeepXRD, ACNN, SeqXRD}

func (a Architecture) String() string {
	switch a {
	case DeepXRD:
		return "DeepXRD"
	case ACNN:
		return "aCNN"
	case SeqXRD:
		return "seqXRD"
	default:
		return fmt.Sprintf("Architecture(%d)", int(a))
	}
}

// ParseArchitecture parses an architecture name, case-insensitively.
func ParseArchitecture(s string) (Architecture, error) {
	for _, a := range Architectures {
		if strings.EqualFold(strings.TrimSpace(s), a.String()) {
			return a, nil
		}
	}
	return 0, fmt.Errorf("model: unknown architecture %q", s)
}

func (a Architecture) MarshalText() ([]byte, error) {
	if a < DeepXRD || a > SeqXRD {
		return nil, fmt.Errorf("model: invalid architecture %d", int(a))
	}
	return []byte(a.String()), nil
}

func (a *Architecture) UnmarshalText(text []byte) error {
	v, err := ParseArchitecture(string(text))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Layout is the arrangement of a sample tensor.
type Layout int

const (
	// ChannelsLast shapes samples as [n, 1800, 1].
	ChannelsLast Layout = iota
	// ChannelsFirst shapes samples as [n, 1, 1800].
	ChannelsFirst
)

func (l Layout) String() string {
	if l == ChannelsFirst {
		return "channels_first"
	}
	return "channels_last"
}

func (l Layout) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

// Layout returns the input layout the architecture expects.
func (a Architecture) Layout() Layout {
	switch a {
	case SeqXRD:
		return ChannelsFirst
	default:
		return ChannelsLast
	}
}
