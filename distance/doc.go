// Package distance provides vector scoring kernels for feature vectors.
//
// # Supported Metrics
//
//   - MetricCosine: cosine similarity, higher is more similar
//   - MetricEuclidean: L2 distance, lower is closer
//
// Accumulation is done in float64 so that scores of identical vectors are
// exact (a distance of 0, a similarity of 1 within float32 rounding).
//
// # Usage
//
//	sim := distance.Cosine(a, b)
//	dist := distance.Euclidean(a, b)
//	fn, _ := distance.Provider(distance.MetricCosine)
package distance
