package soundalike

import (
	"fmt"

	"github.com/hupe1980/soundalike/distance"
)

// Strategy identifies how a recommendation was seeded.
type Strategy int

const (
	// StrategyCategory picks a random seed from a category and ranks the
	// whole store by cosine similarity.
	StrategyCategory Strategy = iota
	// StrategyTrack ranks the seed's cluster by euclidean distance.
	StrategyTrack
)

func (s Strategy) String() string {
	switch s {
	case StrategyCategory:
		return "category"
	case StrategyTrack:
		return "track"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Strategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Metric returns the metric the strategy ranks with.
func (s Strategy) Metric() distance.Metric {
	if s == StrategyTrack {
		return distance.MetricEuclidean
	}
	return distance.MetricCosine
}

// Recommendation is one ranked track.
type Recommendation struct {
	TrackID  string  `json:"track_id"`
	Index    int     `json:"index"`
	Score    float32 `json:"score"`
	Cluster  int     `json:"cluster"`
	Category string  `json:"category"`
}

// RecommendationResult is the outcome of one recommendation call. Items
// are best first and never contain the seed track.
type RecommendationResult struct {
	RequestID   string           `json:"request_id,omitempty"`
	Strategy    Strategy         `json:"strategy"`
	Metric      string           `json:"metric"`
	SeedID      string           `json:"seed_id"`
	SeedIndex   int              `json:"seed_index"`
	SeedCluster int              `json:"seed_cluster"`
	Items       []Recommendation `json:"items"`
	// Indices are the store indices of Items, in the same order.
	Indices []int `json:"indices"`
}

// TrackIDs returns the recommended track ids in rank order.
func (r *RecommendationResult) TrackIDs() []string {
	ids := make([]string, len(r.Items))
	for i, it := range r.Items {
		ids[i] = it.TrackID
	}
	return ids
}
