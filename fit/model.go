package fit

import (
	"fmt"

	"github.com/hupe1980/soundalike/artifact"
	"github.com/hupe1980/soundalike/internal/kmeans"
)

// Model is a fitted scaler plus k-means centroids in scaled space.
type Model struct {
	Scaler *Scaler
	K      int
	// Centroids is the row-major K x dim matrix.
	Centroids []float32
	Inertia   float64
	Config    Config
}

// Dim returns the feature dimension.
func (m *Model) Dim() int { return m.Scaler.Dim() }

// Predict scales a raw feature vector and returns its nearest centroid.
func (m *Model) Predict(raw []float32) (int, error) {
	scaled, err := m.Scaler.Transform(raw)
	if err != nil {
		return -1, err
	}
	return kmeans.Assign(scaled, m.Centroids, m.Dim()), nil
}

// Params returns the serializable form of the model.
func (m *Model) Params() *artifact.Model {
	return &artifact.Model{
		Mean:      m.Scaler.Mean,
		Scale:     m.Scaler.Scale,
		K:         m.K,
		Centroids: m.Centroids,
		Inertia:   m.Inertia,
		Seed:      m.Config.Seed,
		NInit:     m.Config.NInit,
		MaxIter:   m.Config.MaxIter,
	}
}

// FromParams restores a model read from a bundle.
func FromParams(p *artifact.Model) (*Model, error) {
	dim := len(p.Mean)
	if dim == 0 || len(p.Scale) != dim {
		return nil, fmt.Errorf("fit: scaler has %d means and %d scales", len(p.Mean), len(p.Scale))
	}
	if p.K < 1 || len(p.Centroids) != p.K*dim {
		return nil, fmt.Errorf("fit: %d centroid values for k=%d dim=%d", len(p.Centroids), p.K, dim)
	}
	for j, s := range p.Scale {
		if s == 0 {
			return nil, fmt.Errorf("fit: zero scale in column %d", j)
		}
	}

	cfg := DefaultConfig()
	cfg.Clusters = p.K
	cfg.Seed = p.Seed
	cfg.NInit = p.NInit
	cfg.MaxIter = p.MaxIter

	return &Model{
		Scaler:    &Scaler{Mean: p.Mean, Scale: p.Scale},
		K:         p.K,
		Centroids: p.Centroids,
		Inertia:   p.Inertia,
		Config:    cfg,
	}, nil
}
