package peak

import (
	"math"
)

const (
	// GridSize is the number of bins of a discretized vector.
	GridSize = 1800
	// Resolution is the angular width of a bin in degrees.
	Resolution = 0.1
	// MaxAngle is the exclusive upper bound of the grid in degrees.
	MaxAngle = 180.0

	binsPerDegree = 10
)

// Peak is a single diffraction peak.
type Peak struct {
	Angle     float64 // two-theta in degrees
	Intensity float64
}

// List is an ordered peak list as reported for one radiation source.
type List []Peak

// Vector is a dense intensity vector on the fixed angular grid.
// Index i holds the intensity at i*Resolution degrees.
type Vector []float64

// Valid reports whether v has exactly GridSize bins.
func (v Vector) Valid() bool {
	return len(v) == GridSize
}

// Angle returns the angle in degrees represented by bin i.
func Angle(i int) float64 {
	return float64(i) / binsPerDegree
}

// Bin maps an angle to its grid bin.
// It returns false if the rounded angle falls outside [0, MaxAngle).
func Bin(angle float64) (int, bool) {
	if math.IsNaN(angle) || math.IsInf(angle, 0) {
		return 0, false
	}
	r := math.RoundToEven(angle * binsPerDegree)
	if r < 0 || r >= GridSize {
		return 0, false
	}
	return int(r), true
}

// Discretize resamples a peak list onto the fixed grid.
//
// Bins without a peak are 0. Peaks whose rounded angle is off-grid are
// dropped. Later peaks overwrite earlier ones that share a bin.
func Discretize(peaks List) Vector {
	sparse := make(map[int]float64, len(peaks))
	for _, p := range peaks {
		bin, ok := Bin(p.Angle)
		if !ok {
			continue
		}
		sparse[bin] = p.Intensity
	}

	v := make(Vector, GridSize)
	for i := range v {
		if intensity, ok := sparse[i]; ok {
			v[i] = intensity
		}
	}
	return v
}
