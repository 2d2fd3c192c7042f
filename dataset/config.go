package dataset

import (
	"fmt"
	"strings"
)

// SourceAll selects every available source of an entry.
const SourceAll = "all"

// Encoding selects the label representation.
type Encoding int

const (
	// Ordinal encodes a label as its class index.
	Ordinal Encoding = iota
	// OneHot encodes a label as a row with a single 1 at its class index.
	OneHot
)

func (e Encoding) String() string {
	switch e {
	case Ordinal:
		return "ordinal"
	case OneHot:
		return "onehot"
	default:
		return fmt.Sprintf("Encoding(%d)", int(e))
	}
}

// ParseEncoding parses "ordinal" (alias "label") or "onehot".
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ordinal", "label":
		return Ordinal, nil
	case "onehot", "one_hot", "one-hot":
		return OneHot, nil
	default:
		return 0, fmt.Errorf("dataset: unknown encoding %q", s)
	}
}

// Config controls Build.
type Config struct {
	// Source is SourceAll or a source name; "Cu" and "xrd.Cu" are equivalent.
	Source string
	// Threshold is the minimum instance count of a space group.
	Threshold int
	Encoding  Encoding
	// Balance enables SMOTE oversampling.
	Balance bool
	// Neighbors is the SMOTE neighbourhood size.
	Neighbors int
	// TestFraction is the share of samples in the test partition.
	TestFraction float64
	// Seed drives balancing and shuffling.
	Seed uint64
}

// DefaultConfig returns the defaults: all sources, threshold 400, ordinal
// labels, SMOTE with 5 neighbours, 10% test split, seed 42.
func DefaultConfig() Config {
	return Config{
		Source:       SourceAll,
		Threshold:    400,
		Encoding:     Ordinal,
		Balance:      true,
		Neighbors:    5,
		TestFraction: 0.1,
		Seed:         42,
	}
}

// Validate rejects impossible values.
func (c Config) Validate() error {
	if c.Source == "" {
		return fmt.Errorf("dataset: empty source")
	}
	if c.Threshold < 0 {
		return fmt.Errorf("dataset: negative threshold %d", c.Threshold)
	}
	if c.Encoding != Ordinal && c.Encoding != OneHot {
		return fmt.Errorf("dataset: invalid encoding %d", int(c.Encoding))
	}
	if c.Balance && c.Neighbors < 1 {
		return fmt.Errorf("dataset: neighbors must be positive, got %d", c.Neighbors)
	}
	if !(c.TestFraction >= 0 && c.TestFraction < 1) {
		return fmt.Errorf("dataset: test fraction %v outside [0, 1)", c.TestFraction)
	}
	return nil
}

// SourceName normalizes a configured source: "Cu" becomes "xrd.Cu", "all" and
// already qualified names are returned unchanged.
func SourceName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, SourceAll) {
		return SourceAll
	}
	if strings.HasPrefix(s, "xrd.") {
		return s
	}
	return "xrd." + s
}
