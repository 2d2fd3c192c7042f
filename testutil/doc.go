// Package testutil provides testing utilities for xrdgo.
//
// This package is intended for use in tests only. It generates
// deterministic synthetic diffraction data and computes exact
// nearest neighbours as ground truth.
//
// # Synthetic Records
//
//	rng := testutil.NewRNG(seed)
//	peaks := rng.Peaks(8)          // sorted peak list
//	vec := rng.Vector(8)           // discretized onto the angular grid
//	store, err := rng.Store(testutil.Class{
//		SpaceGroup: "Fm-3m",
//		Entries:    100,
//		Sources:    []string{"xrd.Cu"},
//	})
//
// # Exact Neighbours
//
//	nn := testutil.ExactNeighbours(features, i, k)
package testutil
