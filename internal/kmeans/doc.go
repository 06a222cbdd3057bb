// Package kmeans implements Lloyd's k-means with k-means++ seeding.
//
// All randomness comes from the caller's *rand.Rand, so a run is fully
// determined by its inputs and seed.
package kmeans
