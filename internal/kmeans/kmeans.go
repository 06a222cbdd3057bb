package kmeans

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/hupe1980/soundalike/distance"
)

// ErrInvalidK is returned when k is outside [1, n].
var ErrInvalidK = errors.New("kmeans: k must be in [1, n]")

// Result is one converged (or iteration-capped) run.
type Result struct {
	// Centroids is the row-major k x dim centroid matrix.
	Centroids   []float32
	Assignments []int
	// Inertia is the sum of squared distances of points to their centroid.
	Inertia    float64
	Iterations int
}

// Config controls a single run.
type Config struct {
	K       int
	MaxIter int
	// Tol stops the run once the total squared centroid shift drops to or
	// below it. Zero runs until assignments stop changing.
	Tol float64
}

// Train clusters the row-major n x dim matrix vectors.
func Train(ctx context.Context, vectors []float32, dim int, cfg Config, rng *rand.Rand) (*Result, error) {
	if dim <= 0 || len(vectors)%dim != 0 {
		return nil, fmt.Errorf("kmeans: %d values do not form rows of %d", len(vectors), dim)
	}
	n := len(vectors) / dim
	if cfg.K < 1 || cfg.K > n {
		return nil, fmt.Errorf("%w: k=%d n=%d", ErrInvalidK, cfg.K, n)
	}
	if cfg.MaxIter < 1 {
		cfg.MaxIter = 300
	}

	row := func(i int) []float32 { return vectors[i*dim : (i+1)*dim] }

	centroids := seedPlusPlus(vectors, dim, cfg.K, rng)
	assignments := make([]int, n)
	for i := range assignments {
		assignments[i] = -1
	}
	counts := make([]int, cfg.K)
	sums := make([]float64, cfg.K*dim)
	dists := make([]float32, n)

	iter := 0
	for iter < cfg.MaxIter {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		iter++

		changed := false
		for i := 0; i < n; i++ {
			c, d := nearest(row(i), centroids, dim)
			dists[i] = d
			if assignments[i] != c {
				assignments[i] = c
				changed = true
			}
		}
		if !changed {
			break
		}

		clear(sums)
		clear(counts)
		for i := 0; i < n; i++ {
			c := assignments[i]
			for d, v := range row(i) {
				sums[c*dim+d] += float64(v)
			}
			counts[c]++
		}

		shift := 0.0
		for j := 0; j < cfg.K; j++ {
			center := centroids[j*dim : (j+1)*dim]
			if counts[j] == 0 {
				// Relocate an empty cluster to the point farthest from its
				// centroid and take it out of the running.
				far := farthest(dists)
				copy(center, row(far))
				dists[far] = 0
				shift += math.Inf(1)
				continue
			}
			for d := range center {
				v := float32(sums[j*dim+d] / float64(counts[j]))
				delta := float64(v - center[d])
				shift += delta * delta
				center[d] = v
			}
		}
		if shift <= cfg.Tol {
			break
		}
	}

	res := &Result{
		Centroids:   centroids,
		Assignments: make([]int, n),
		Iterations:  iter,
	}
	for i := 0; i < n; i++ {
		c, d := nearest(row(i), centroids, dim)
		res.Assignments[i] = c
		res.Inertia += float64(d)
	}
	return res, nil
}

// seedPlusPlus picks k initial centroids: the first uniformly, each next
// one with probability proportional to its squared distance to the
// closest centroid chosen so far.
func seedPlusPlus(vectors []float32, dim, k int, rng *rand.Rand) []float32 {
	n := len(vectors) / dim
	centroids := make([]float32, 0, k*dim)

	first := rng.Intn(n)
	centroids = append(centroids, vectors[first*dim:(first+1)*dim]...)

	closest := make([]float64, n)
	for i := range closest {
		closest[i] = float64(distance.SquaredL2(vectors[i*dim:(i+1)*dim], centroids[:dim]))
	}

	for c := 1; c < k; c++ {
		total := 0.0
		for _, d := range closest {
			total += d
		}

		next := -1
		if total > 0 {
			target := rng.Float64() * total
			for i, d := range closest {
				target -= d
				if target < 0 {
					next = i
					break
				}
			}
		}
		if next < 0 {
			// Fewer distinct points than k, or rounding left target >= 0.
			next = lastPositive(closest)
			if next < 0 {
				next = rng.Intn(n)
			}
		}

		center := vectors[next*dim : (next+1)*dim]
		centroids = append(centroids, center...)
		for i := range closest {
			if d := float64(distance.SquaredL2(vectors[i*dim:(i+1)*dim], center)); d < closest[i] {
				closest[i] = d
			}
		}
	}
	return centroids
}

func lastPositive(xs []float64) int {
	for i := len(xs) - 1; i >= 0; i-- {
		if xs[i] > 0 {
			return i
		}
	}
	return -1
}

func farthest(dists []float32) int {
	best := 0
	for i, d := range dists {
		if d > dists[best] {
			best = i
		}
	}
	return best
}

// nearest returns the closest centroid to vec and its squared distance.
// Ties go to the lower centroid id.
func nearest(vec, centroids []float32, dim int) (int, float32) {
	best := -1
	minDist := float32(math.MaxFloat32)

	for j := 0; j*dim < len(centroids); j++ {
		d := distance.SquaredL2(vec, centroids[j*dim:(j+1)*dim])
		if d < minDist {
			minDist = d
			best = j
		}
	}
	return best, minDist
}

// Assign returns the id of the centroid closest to vec.
func Assign(vec, centroids []float32, dim int) int {
	c, _ := nearest(vec, centroids, dim)
	return c
}
