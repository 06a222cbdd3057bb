// Package featurestore holds the immutable per-track feature matrix that
// recommendations are computed against.
//
// A Store is built once from externally fitted artifacts (scaled feature
// vectors, track identifiers and cluster assignments) and never mutated
// afterwards. A changed dataset means building a new Store.
package featurestore

import (
	"math"
	"slices"
	"sort"
	"strings"
)

// DefaultSeparator splits a track identifier into its category prefix and
// the rest, e.g. "rock.00050.wav" belongs to category "rock".
const DefaultSeparator = "."

type options struct {
	separator string
}

// Option configures store construction.
type Option func(*options)

// WithSeparator sets the separator that ends the category prefix of a
// track identifier. An empty separator keeps DefaultSeparator.
func WithSeparator(sep string) Option {
	return func(o *options) {
		if sep != "" {
			o.separator = sep
		}
	}
}

// Store is a read-only view over N feature vectors of dimension D, their
// unique track identifiers and their cluster assignments.
//
// Store is safe for concurrent use: nothing is written after New returns.
type Store struct {
	data       []float32 // row-major, N*dim
	dim        int
	ids        []string
	clusters   []int
	categories []string
	byID       map[string]int
	byCategory map[string][]int
	separator  string
}

// New builds a Store from one vector per track.
//
// The input slices are copied. New fails with a *SchemaError when the
// lengths differ, there are no tracks, the vectors do not share one
// positive dimension, an identifier is empty or duplicated, a cluster id
// is negative, or a feature value is NaN or infinite.
func New(vectors [][]float32, ids []string, clusters []int, optFns ...Option) (*Store, error) {
	if len(vectors) == 0 {
		return nil, schemaErrorf("store has no tracks")
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil, schemaErrorf("feature dimension must be positive")
	}

	data := make([]float32, 0, len(vectors)*dim)
	for i, v := range vectors {
		if len(v) != dim {
			return nil, schemaErrorf("track %d has dimension %d, want %d", i, len(v), dim)
		}
		data = append(data, v...)
	}

	return newStore(data, dim, ids, clusters, optFns)
}

// NewFlat builds a Store from a row-major matrix of len(ids) rows of dim
// columns. The input slices are copied.
func NewFlat(data []float32, dim int, ids []string, clusters []int, optFns ...Option) (*Store, error) {
	if dim <= 0 {
		return nil, schemaErrorf("feature dimension must be positive, got %d", dim)
	}
	if len(data)%dim != 0 {
		return nil, schemaErrorf("matrix of %d values is not a multiple of dimension %d", len(data), dim)
	}
	if len(data) == 0 {
		return nil, schemaErrorf("store has no tracks")
	}
	return newStore(slices.Clone(data), dim, ids, clusters, optFns)
}

func newStore(data []float32, dim int, ids []string, clusters []int, optFns []Option) (*Store, error) {
	opts := options{separator: DefaultSeparator}
	for _, fn := range optFns {
		fn(&opts)
	}

	n := len(data) / dim
	if len(ids) != n {
		return nil, schemaErrorf("%d track ids for %d vectors", len(ids), n)
	}
	if len(clusters) != n {
		return nil, schemaErrorf("%d cluster assignments for %d vectors", len(clusters), n)
	}

	for i, x := range data {
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return nil, schemaErrorf("track %d has a non-finite value at column %d", i/dim, i%dim)
		}
	}

	s := &Store{
		data:       data,
		dim:        dim,
		ids:        slices.Clone(ids),
		clusters:   slices.Clone(clusters),
		categories: make([]string, n),
		byID:       make(map[string]int, n),
		byCategory: make(map[string][]int),
		separator:  opts.separator,
	}

	for i, id := range s.ids {
		if id == "" {
			return nil, schemaErrorf("track %d has an empty id", i)
		}
		if prev, dup := s.byID[id]; dup {
			return nil, schemaErrorf("duplicate track id %q at %d and %d", id, prev, i)
		}
		if s.clusters[i] < 0 {
			return nil, schemaErrorf("track %q has negative cluster %d", id, s.clusters[i])
		}
		s.byID[id] = i

		cat := categoryOf(id, s.separator)
		s.categories[i] = cat
		s.byCategory[cat] = append(s.byCategory[cat], i)
	}

	return s, nil
}

func categoryOf(id, sep string) string {
	if before, _, found := strings.Cut(id, sep); found {
		return before
	}
	return id
}

// Size returns the number of tracks N.
func (s *Store) Size() int { return len(s.ids) }

// Dim returns the feature dimension D.
func (s *Store) Dim() int { return s.dim }

// ByIndex returns the feature vector of track i.
// The returned slice aliases the store and must not be modified.
func (s *Store) ByIndex(i int) []float32 {
	off := i * s.dim
	return s.data[off : off+s.dim : off+s.dim]
}

// ByID returns the feature vector and index of the track with the given
// identifier, or a *NotFoundError.
func (s *Store) ByID(id string) ([]float32, int, error) {
	i, ok := s.byID[id]
	if !ok {
		return nil, -1, &NotFoundError{ID: id}
	}
	return s.ByIndex(i), i, nil
}

// TrackID returns the identifier of track i.
func (s *Store) TrackID(i int) string { return s.ids[i] }

// Cluster returns the cluster assigned to track i.
func (s *Store) Cluster(i int) int { return s.clusters[i] }

// Category returns the category prefix of track i's identifier.
func (s *Store) Category(i int) string { return s.categories[i] }

// Separator returns the separator used to derive categories.
func (s *Store) Separator() string { return s.separator }

// IDs returns a copy of all track identifiers in index order.
func (s *Store) IDs() []string { return slices.Clone(s.ids) }

// Assignments returns a copy of the cluster assignment vector.
func (s *Store) Assignments() []int { return slices.Clone(s.clusters) }

// IndicesOfCategory returns the indices of the tracks in category, in
// ascending order. The result is nil when the category is unknown.
func (s *Store) IndicesOfCategory(category string) []int {
	return slices.Clone(s.byCategory[category])
}

// Categories returns the distinct categories in sorted order.
func (s *Store) Categories() []string {
	cats := make([]string, 0, len(s.byCategory))
	for c := range s.byCategory {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	return cats
}
