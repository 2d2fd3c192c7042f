package record

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/hupe1980/xrdgo/peak"
)

var (
	// ErrDuplicateEntry is returned when an entry id is added twice.
	ErrDuplicateEntry = errors.New("duplicate entry")

	// ErrBuilderClosed is returned when a Builder is used after Build.
	ErrBuilderClosed = errors.New("builder already built")
)

// ErrInvalidVector indicates a discretized vector of the wrong length.
type ErrInvalidVector struct {
	EntryID string
	Source  string
	Length  int
}

func (e *ErrInvalidVector) Error() string {
	return fmt.Sprintf("entry %s: vector for %s has %d bins, want %d", e.EntryID, e.Source, e.Length, peak.GridSize)
}

// ErrInvalidLattice indicates a lattice that does not have six positive parameters.
type ErrInvalidLattice struct {
	EntryID string
	Lattice Lattice
}

func (e *ErrInvalidLattice) Error() string {
	return fmt.Sprintf("entry %s: invalid lattice %v", e.EntryID, e.Lattice)
}

// Lattice holds the six lattice parameters a, b, c (Å) and alpha, beta, gamma (degrees).
type Lattice [6]float64

// Valid reports whether all parameters are positive.
func (l Lattice) Valid() bool {
	for _, p := range l {
		if !(p > 0) {
			return false
		}
	}
	return true
}

// Target is the prediction target of an entry.
type Target struct {
	SpaceGroup string  `json:"spacegroup"`
	Lattice    Lattice `json:"lattice"`
}

// Record is one entry of the store.
// X maps a radiation source name (e.g. "xrd.Cu") to its discretized vector.
// Sources without a peak list are absent from X.
type Record struct {
	X map[string]peak.Vector `json:"X"`
	Y Target                 `json:"Y"`
}

// Sources returns the available source names in sorted order.
func (r Record) Sources() []string {
	return slices.Sorted(maps.Keys(r.X))
}

func (r Record) validate(id string) error {
	for src, v := range r.X {
		if !v.Valid() {
			return &ErrInvalidVector{EntryID: id, Source: src, Length: len(v)}
		}
	}
	if !r.Y.Lattice.Valid() {
		return &ErrInvalidLattice{EntryID: id, Lattice: r.Y.Lattice}
	}
	return nil
}

func (r Record) clone() Record {
	x := make(map[string]peak.Vector, len(r.X))
	for src, v := range r.X {
		x[src] = slices.Clone(v)
	}
	return Record{X: x, Y: r.Y}
}
