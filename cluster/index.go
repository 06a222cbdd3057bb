// Package cluster derives the cluster membership sets and the
// dominant-category labels of a feature store.
package cluster

import (
	"fmt"
	"iter"
	"slices"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
)

// Source is the part of a feature store the index is derived from.
type Source interface {
	Size() int
	Cluster(i int) int
	Category(i int) string
}

// Summary describes one cluster for presentation.
type Summary struct {
	ID       int    `json:"id"`
	Label    string `json:"label"`
	Category string `json:"category"`
	Count    int    `json:"count"` // members in Category
	Size     int    `json:"size"`
}

// Index maps cluster ids to member track indices and display labels.
//
// An Index is immutable once built and safe for concurrent use.
type Index struct {
	members   map[int]*roaring.Bitmap
	summaries map[int]Summary
	ids       []int
	total     int
}

// Build derives the index from src. Every track index in [0, src.Size())
// ends up in exactly one membership set.
func Build(src Source) *Index {
	n := src.Size()
	x := &Index{
		members:   make(map[int]*roaring.Bitmap),
		summaries: make(map[int]Summary),
		total:     n,
	}

	counts := make(map[int]map[string]int)
	for i := 0; i < n; i++ {
		c := src.Cluster(i)
		rb, ok := x.members[c]
		if !ok {
			rb = roaring.New()
			x.members[c] = rb
			counts[c] = make(map[string]int)
			x.ids = append(x.ids, c)
		}
		rb.Add(uint32(i))
		counts[c][src.Category(i)]++
	}
	sort.Ints(x.ids)

	for _, c := range x.ids {
		cat, count := dominant(counts[c])
		x.summaries[c] = Summary{
			ID:       c,
			Label:    formatLabel(cat, count),
			Category: cat,
			Count:    count,
			Size:     int(x.members[c].GetCardinality()),
		}
	}

	return x
}

// dominant returns the most frequent category. Ties go to the category
// that sorts first.
func dominant(counts map[string]int) (string, int) {
	cats := make([]string, 0, len(counts))
	for c := range counts {
		cats = append(cats, c)
	}
	sort.Strings(cats)

	best, bestCount := "", 0
	for _, c := range cats {
		if counts[c] > bestCount {
			best, bestCount = c, counts[c]
		}
	}
	return best, bestCount
}

func formatLabel(category string, count int) string {
	return fmt.Sprintf("%s (%d songs)", category, count)
}

// Len returns the number of distinct clusters.
func (x *Index) Len() int { return len(x.ids) }

// Total returns the number of indexed tracks.
func (x *Index) Total() int { return x.total }

// IDs returns the cluster ids in ascending order.
func (x *Index) IDs() []int { return slices.Clone(x.ids) }

// Size returns the number of members of a cluster, 0 if it is unknown.
func (x *Index) Size(clusterID int) int {
	rb, ok := x.members[clusterID]
	if !ok {
		return 0
	}
	return int(rb.GetCardinality())
}

// Contains reports whether track i belongs to the cluster.
func (x *Index) Contains(clusterID, i int) bool {
	rb, ok := x.members[clusterID]
	return ok && i >= 0 && rb.Contains(uint32(i))
}

// Members iterates the member indices of a cluster in ascending order.
func (x *Index) Members(clusterID int) iter.Seq[int] {
	return func(yield func(int) bool) {
		rb, ok := x.members[clusterID]
		if !ok {
			return
		}
		it := rb.Iterator()
		for it.HasNext() {
			if !yield(int(it.Next())) {
				return
			}
		}
	}
}

// MembersExcluding returns the members of a cluster other than exclude,
// in ascending index order. It returns an empty slice for unknown clusters
// and for singletons.
func (x *Index) MembersExcluding(clusterID, exclude int) []int {
	rb, ok := x.members[clusterID]
	if !ok {
		return []int{}
	}

	out := make([]int, 0, rb.GetCardinality())
	for i := range x.Members(clusterID) {
		if i != exclude {
			out = append(out, i)
		}
	}
	return out
}

// Label returns the "<category> (<count> songs)" label of a cluster.
func (x *Index) Label(clusterID int) (string, bool) {
	s, ok := x.summaries[clusterID]
	return s.Label, ok
}

// Labels returns a copy of the label of every cluster.
func (x *Index) Labels() map[int]string {
	out := make(map[int]string, len(x.summaries))
	for id, s := range x.summaries {
		out[id] = s.Label
	}
	return out
}

// Summaries returns one Summary per cluster in ascending id order.
func (x *Index) Summaries() []Summary {
	out := make([]Summary, 0, len(x.ids))
	for _, id := range x.ids {
		out = append(out, x.summaries[id])
	}
	return out
}
