// Package peak converts sparse XRD peak lists into dense intensity vectors.
//
// A peak list is an ordered sequence of (two-theta, intensity) pairs. The
// discretized form is a fixed grid of GridSize bins covering [0, MaxAngle)
// degrees at Resolution degree steps:
//
//	v := peak.Discretize(peak.List{{Angle: 38.26, Intensity: 100}})
//	_ = v[383] // 100
//
// # Rounding
//
// Angles are mapped to bins by rounding angle/Resolution to the nearest
// integer with round-half-to-even. 0.25° therefore lands in bin 2 and 0.35°
// in bin 4.
//
// # Collisions
//
// When two peaks round to the same bin the later one in input order wins.
// Intensities are overwritten, never summed.
package peak
