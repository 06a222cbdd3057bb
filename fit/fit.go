package fit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/soundalike/artifact"
	"github.com/hupe1980/soundalike/internal/kmeans"
)

// ErrInvalidClusters is returned when the cluster count is outside [1, n].
var ErrInvalidClusters = errors.New("fit: clusters must be in [1, tracks]")

// Config controls training.
type Config struct {
	// Clusters is k. Default 10.
	Clusters int `koanf:"clusters" validate:"gte=1"`
	// NInit is the number of k-means restarts; the lowest inertia wins.
	NInit int `koanf:"n_init" validate:"gte=1"`
	// MaxIter caps Lloyd iterations per restart.
	MaxIter int `koanf:"max_iter" validate:"gte=1"`
	// Tol is the convergence threshold relative to the mean column
	// variance of the scaled data.
	Tol  float64 `koanf:"tol" validate:"gte=0"`
	Seed int64   `koanf:"seed"`
	// Parallelism bounds concurrent restarts. Zero uses GOMAXPROCS.
	Parallelism int `koanf:"parallelism" validate:"gte=0"`
}

// DefaultConfig returns k=10, 10 restarts, 300 iterations and seed 42.
func DefaultConfig() Config {
	return Config{
		Clusters: 10,
		NInit:    10,
		MaxIter:  300,
		Tol:      1e-4,
		Seed:     42,
	}
}

// Result is the outcome of Fit.
type Result struct {
	Model *Model
	// Vectors is the scaled row-major matrix.
	Vectors     []float32
	Assignments []int
}

// Fit scales the raw row-major n x dim matrix and clusters it.
func Fit(ctx context.Context, vectors []float32, dim int, cfg Config) (*Result, error) {
	for i, v := range vectors {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return nil, fmt.Errorf("fit: non-finite value at track %d feature %d", i/max(dim, 1), i%max(dim, 1))
		}
	}

	scaler, err := FitScaler(vectors, dim)
	if err != nil {
		return nil, err
	}
	n := len(vectors) / dim
	if cfg.Clusters < 1 || cfg.Clusters > n {
		return nil, fmt.Errorf("%w: clusters=%d tracks=%d", ErrInvalidClusters, cfg.Clusters, n)
	}
	if cfg.NInit < 1 {
		cfg.NInit = 1
	}

	scaled, err := scaler.TransformMatrix(vectors)
	if err != nil {
		return nil, err
	}

	kcfg := kmeans.Config{
		K:       cfg.Clusters,
		MaxIter: cfg.MaxIter,
		Tol:     cfg.Tol * meanVariance(scaled, dim),
	}

	// Seeds are drawn before any restart runs so the outcome does not
	// depend on scheduling.
	master := rand.New(rand.NewSource(cfg.Seed))
	seeds := make([]int64, cfg.NInit)
	for i := range seeds {
		seeds[i] = master.Int63()
	}

	runs := make([]*kmeans.Result, cfg.NInit)

	g, gctx := errgroup.WithContext(ctx)
	limit := cfg.Parallelism
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(limit)

	for i, seed := range seeds {
		g.Go(func() error {
			res, err := kmeans.Train(gctx, scaled, dim, kcfg, rand.New(rand.NewSource(seed)))
			if err != nil {
				return fmt.Errorf("fit: restart %d: %w", i, err)
			}
			runs[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	best := runs[0]
	for _, r := range runs[1:] {
		if r.Inertia < best.Inertia {
			best = r
		}
	}

	return &Result{
		Model: &Model{
			Scaler:    scaler,
			K:         cfg.Clusters,
			Centroids: best.Centroids,
			Inertia:   best.Inertia,
			Config:    cfg,
		},
		Vectors:     scaled,
		Assignments: best.Assignments,
	}, nil
}

func meanVariance(vectors []float32, dim int) float64 {
	n := len(vectors) / dim
	total := 0.0
	for j := 0; j < dim; j++ {
		var sum, sq float64
		for i := 0; i < n; i++ {
			v := float64(vectors[i*dim+j])
			sum += v
			sq += v * v
		}
		mean := sum / float64(n)
		total += sq/float64(n) - mean*mean
	}
	return total / float64(dim)
}

// Bundle fits a raw bundle and returns the fitted bundle, with model
// params attached, and the model.
func Bundle(ctx context.Context, raw *artifact.Bundle, cfg Config) (*artifact.Bundle, *Model, error) {
	if raw.Kind != artifact.KindRaw {
		return nil, nil, fmt.Errorf("fit: bundle kind is %q, want %q", raw.Kind, artifact.KindRaw)
	}

	res, err := Fit(ctx, raw.Vectors, raw.Dim, cfg)
	if err != nil {
		return nil, nil, err
	}

	return &artifact.Bundle{
		Kind:     artifact.KindFitted,
		Dim:      raw.Dim,
		Vectors:  res.Vectors,
		IDs:      slices.Clone(raw.IDs),
		Clusters: res.Assignments,
		Features: slices.Clone(raw.Features),
		Model:    res.Model.Params(),
	}, res.Model, nil
}
