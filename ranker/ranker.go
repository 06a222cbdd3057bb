// Package ranker scores candidate tracks against a query vector and
// returns a deterministic top-N ordering.
package ranker

import (
	"errors"
	"fmt"

	"github.com/hupe1980/soundalike/distance"
)

// ErrNegativeTopN is returned when a negative result count is requested.
var ErrNegativeTopN = errors.New("topN must not be negative")

// Vectors resolves a candidate index to its feature vector.
type Vectors interface {
	ByIndex(i int) []float32
}

// Scored is a ranked candidate.
type Scored struct {
	Index int
	Score float32
}

// Rank scores every candidate against query with metric and returns the
// best topN, best first: descending for cosine similarity, ascending for
// euclidean distance. Equal scores keep the candidates' input order.
// A topN larger than the candidate set returns all candidates.
func Rank(query []float32, candidates []int, vecs Vectors, metric distance.Metric, topN int) ([]Scored, error) {
	if topN < 0 {
		return nil, ErrNegativeTopN
	}

	score, err := distance.Provider(metric)
	if err != nil {
		return nil, fmt.Errorf("ranker: %w", err)
	}

	k := min(topN, len(candidates))
	if k == 0 {
		return []Scored{}, nil
	}

	q := newBoundedQueue(k, metric.HigherIsBetter())
	for pos, idx := range candidates {
		q.push(item{index: idx, score: score(query, vecs.ByIndex(idx)), pos: pos})
	}

	items := q.drain()
	out := make([]Scored, len(items))
	for i, it := range items {
		out[i] = Scored{Index: it.index, Score: it.score}
	}
	return out, nil
}
