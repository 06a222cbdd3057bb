package fit

import (
	"fmt"
	"math"
)

// Scaler standardizes each column to zero mean and unit variance.
type Scaler struct {
	Mean  []float64
	Scale []float64
}

// FitScaler computes column means and population standard deviations of
// the row-major n x dim matrix. Columns with zero variance get scale 1.
func FitScaler(vectors []float32, dim int) (*Scaler, error) {
	if dim <= 0 || len(vectors) == 0 || len(vectors)%dim != 0 {
		return nil, fmt.Errorf("fit: %d values do not form rows of %d", len(vectors), dim)
	}
	n := len(vectors) / dim

	s := &Scaler{
		Mean:  make([]float64, dim),
		Scale: make([]float64, dim),
	}
	for i := 0; i < n; i++ {
		for j, v := range vectors[i*dim : (i+1)*dim] {
			s.Mean[j] += float64(v)
		}
	}
	for j := range s.Mean {
		s.Mean[j] /= float64(n)
	}

	for i := 0; i < n; i++ {
		for j, v := range vectors[i*dim : (i+1)*dim] {
			d := float64(v) - s.Mean[j]
			s.Scale[j] += d * d
		}
	}
	for j := range s.Scale {
		s.Scale[j] = math.Sqrt(s.Scale[j] / float64(n))
		if s.Scale[j] == 0 {
			s.Scale[j] = 1
		}
	}
	return s, nil
}

// Dim returns the number of columns the scaler was fitted on.
func (s *Scaler) Dim() int { return len(s.Mean) }

// Transform returns the scaled copy of a single vector.
func (s *Scaler) Transform(v []float32) ([]float32, error) {
	if len(v) != s.Dim() {
		return nil, fmt.Errorf("fit: vector has dimension %d, scaler %d", len(v), s.Dim())
	}
	out := make([]float32, len(v))
	s.transform(out, v)
	return out, nil
}

// TransformMatrix returns the scaled copy of a row-major matrix.
func (s *Scaler) TransformMatrix(vectors []float32) ([]float32, error) {
	dim := s.Dim()
	if len(vectors)%dim != 0 {
		return nil, fmt.Errorf("fit: %d values do not form rows of %d", len(vectors), dim)
	}
	out := make([]float32, len(vectors))
	for i := 0; i < len(vectors); i += dim {
		s.transform(out[i:i+dim], vectors[i:i+dim])
	}
	return out, nil
}

func (s *Scaler) transform(dst, src []float32) {
	for j, v := range src {
		dst[j] = float32((float64(v) - s.Mean[j]) / s.Scale[j])
	}
}
