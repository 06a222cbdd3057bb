package testutil

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/hupe1980/soundalike/artifact"
	"github.com/hupe1980/soundalike/distance"
	"github.com/hupe1980/soundalike/featurestore"
)

// Genres are the category prefixes used by generated track ids.
var Genres = []string{"blues", "classical", "country", "disco", "hiphop", "jazz", "metal", "pop", "reggae", "rock"}

// RNG wraps a seeded random source. It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n). RNG can be
// handed to soundalike.WithRand.
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float32 returns, as a float32, a pseudo-random number in [0.0,1.0).
func (r *RNG) Float32() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float32()
}

// FillUniform fills dst with random values in range [0, 1).
func (r *RNG) FillUniform(dst []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = r.rand.Float32()
	}
}

// UniformVectors generates random vectors with values in range [0, 1).
// All rows share one backing array.
func (r *RNG) UniformVectors(num int, dimensions int) [][]float32 {
	return r.vectors(num, dimensions, func(rnd *rand.Rand) float32 { return rnd.Float32() })
}

// UniformRangeVectors generates random vectors with values in range [-1, 1).
func (r *RNG) UniformRangeVectors(num int, dimensions int) [][]float32 {
	return r.vectors(num, dimensions, func(rnd *rand.Rand) float32 { return rnd.Float32()*2 - 1 })
}

// GaussianVectors generates vectors from a standard normal distribution,
// the shape of standard-scaled features.
func (r *RNG) GaussianVectors(num int, dimensions int) [][]float32 {
	return r.vectors(num, dimensions, func(rnd *rand.Rand) float32 { return float32(rnd.NormFloat64()) })
}

func (r *RNG) vectors(num, dim int, next func(*rand.Rand) float32) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dim)
	vectors := make([][]float32, num)
	for i := range num {
		vec := data[i*dim : (i+1)*dim : (i+1)*dim]
		for j := range vec {
			vec[j] = next(r.rand)
		}
		vectors[i] = vec
	}
	return vectors
}

// UnitVectors generates L2-normalized random vectors.
func (r *RNG) UnitVectors(num int, dimensions int) [][]float32 {
	vectors := r.GaussianVectors(num, dimensions)
	for _, vec := range vectors {
		norm := distance.Norm(vec)
		if norm == 0 {
			continue
		}
		for j := range vec {
			vec[j] /= norm
		}
	}
	return vectors
}

// ClusteredVectors generates vectors around clusters random unit
// centroids. Row i belongs to centroid i % clusters. spread is the
// standard deviation of the Gaussian noise.
func (r *RNG) ClusteredVectors(num, dim, clusters int, spread float32) [][]float32 {
	centroids := r.UnitVectors(clusters, dim)
	noise := r.GaussianVectors(num, dim)

	for i, vec := range noise {
		centroid := centroids[i%clusters]
		for j := range vec {
			vec[j] = centroid[j] + vec[j]*spread
		}
	}
	return noise
}

// Zipf returns a Zipfian-distributed value in [0, n): P(k) ∝ 1/k^s.
func (r *RNG) Zipf(n int, s float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.zipfLocked(n, s)
}

func (r *RNG) zipfLocked(n int, s float64) int {
	if n <= 1 {
		return 0
	}

	var hns float64
	for i := 1; i <= n; i++ {
		hns += 1.0 / math.Pow(float64(i), s)
	}

	u := r.rand.Float64() * hns
	var cumulative float64
	for k := 1; k <= n; k++ {
		cumulative += 1.0 / math.Pow(float64(k), s)
		if u <= cumulative {
			return k - 1
		}
	}
	return n - 1
}

// TrackIDs returns n unique ids of the form "<genre>.<index>.wav". Genres
// are drawn from Genres with Zipf skew s; s == 0 draws them uniformly.
func (r *RNG) TrackIDs(n int, s float64) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, n)
	for i := range ids {
		var g int
		if s > 0 {
			g = r.zipfLocked(len(Genres), s)
		} else {
			g = r.rand.Intn(len(Genres))
		}
		ids[i] = fmt.Sprintf("%s.%05d.wav", Genres[g], i)
	}
	return ids
}

// Assignments returns n cluster ids drawn uniformly from [0, k).
func (r *RNG) Assignments(n, k int) []int {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]int, n)
	for i := range out {
		out[i] = r.rand.Intn(k)
	}
	return out
}

// Store returns a feature store of n Gaussian tracks of dimension dim with
// uniform assignments in [0, k). It panics on failure.
func (r *RNG) Store(n, dim, k int) *featurestore.Store {
	st, err := featurestore.New(r.GaussianVectors(n, dim), r.TrackIDs(n, 0), r.Assignments(n, k))
	if err != nil {
		panic(err)
	}
	return st
}

// Bundle returns a bundle of n tracks around k well separated centroids.
// Fitted bundles carry the generating centroid of each track as its
// assignment; raw bundles carry none.
func (r *RNG) Bundle(kind artifact.Kind, n, dim, k int) *artifact.Bundle {
	vectors := r.ClusteredVectors(n, dim, k, 0.05)

	b := &artifact.Bundle{
		Kind:    kind,
		Dim:     dim,
		Vectors: make([]float32, 0, n*dim),
		IDs:     r.TrackIDs(n, 0),
	}
	for _, v := range vectors {
		b.Vectors = append(b.Vectors, v...)
	}
	if kind == artifact.KindFitted {
		b.Clusters = make([]int, n)
		for i := range b.Clusters {
			b.Clusters[i] = i % k
		}
	}
	return b
}

// ExactRank ranks candidates against query by sorting every score, the
// reference the bounded-heap ranker is checked against. It returns the
// best topN indices.
func ExactRank(st *featurestore.Store, query []float32, candidates []int, metric distance.Metric, topN int) []int {
	fn, err := distance.Provider(metric)
	if err != nil {
		panic(err)
	}

	type scored struct {
		index int
		score float32
	}
	all := make([]scored, len(candidates))
	for i, c := range candidates {
		all[i] = scored{index: c, score: fn(query, st.ByIndex(c))}
	}

	sort.SliceStable(all, func(i, j int) bool {
		if metric.HigherIsBetter() {
			return all[i].score > all[j].score
		}
		return all[i].score < all[j].score
	})

	out := make([]int, 0, min(topN, len(all)))
	for _, s := range all[:cap(out)] {
		out = append(out, s.index)
	}
	return out
}
