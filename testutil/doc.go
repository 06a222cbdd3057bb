// Package testutil provides fixtures for soundalike tests.
//
// It is intended for use in tests only: a seeded, thread-safe RNG,
// random and clustered feature matrices, genre-prefixed track ids, ready
// made feature stores and bundles, and an exact reference ranking to
// check ranked output against.
//
//	rng := testutil.NewRNG(4711)
//	st := rng.Store(500, 16, 8)
//	want := testutil.ExactRank(st, st.ByIndex(0), candidates, distance.MetricCosine, 10)
package testutil
