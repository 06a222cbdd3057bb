package soundalike

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/soundalike/cluster"
	"github.com/hupe1980/soundalike/featurestore"
	"github.com/hupe1980/soundalike/ranker"
)

// snapshot pairs a store with the cluster index derived from it. Readers
// load the pointer once per call and never see a partial update.
type snapshot struct {
	store    *featurestore.Store
	index    *cluster.Index
	version  uint64
	loadedAt time.Time
}

// Engine serves recommendations from an immutable feature store.
//
// All methods are safe for concurrent use. Reload swaps the store
// atomically: calls in flight finish against the store they started with.
type Engine struct {
	snap atomic.Pointer[snapshot]

	// reloadMu orders installs so versions only grow.
	reloadMu sync.Mutex
	version  uint64

	randMu sync.Mutex
	rand   Rand

	logger    *Logger
	metrics   MetricsCollector
	separator string
}

// New creates an engine over store.
func New(store *featurestore.Store, optFns ...Option) (*Engine, error) {
	o := applyOptions(optFns)

	e := &Engine{
		rand:      o.rand,
		logger:    o.logger,
		metrics:   o.metricsCollector,
		separator: o.separator,
	}
	if err := e.Reload(context.Background(), store); err != nil {
		return nil, err
	}
	return e, nil
}

// Reload derives the cluster index of store and installs both in one
// atomic swap.
func (e *Engine) Reload(ctx context.Context, store *featurestore.Store) error {
	start := time.Now()

	if store == nil {
		e.metrics.RecordReload(0, time.Since(start), ErrNoStore)
		e.logger.LogReload(ctx, 0, 0, 0, 0, ErrNoStore)
		return ErrNoStore
	}

	index := cluster.Build(store)

	e.reloadMu.Lock()
	e.version++
	s := &snapshot{
		store:    store,
		index:    index,
		version:  e.version,
		loadedAt: time.Now(),
	}
	e.snap.Store(s)
	e.reloadMu.Unlock()

	e.metrics.RecordReload(store.Size(), time.Since(start), nil)
	e.logger.LogReload(ctx, store.Size(), store.Dim(), s.index.Len(), s.version, nil)
	return nil
}

func (e *Engine) intn(n int) int {
	e.randMu.Lock()
	defer e.randMu.Unlock()
	return e.rand.Intn(n)
}

// RecommendByCategory picks a seed track uniformly at random among the
// tracks whose category is exactly category, then ranks every other
// track in the store by cosine similarity to it.
//
// It fails with *CategoryNotFoundError when no track has the category and
// with ErrInvalidTopN when topN is negative. topN == 0 yields no items.
func (e *Engine) RecommendByCategory(ctx context.Context, category string, topN int) (*RecommendationResult, error) {
	start := time.Now()

	res, err := e.recommendByCategory(category, topN)
	e.observe(ctx, StrategyCategory, category, res, start, err)

	return res, err
}

func (e *Engine) recommendByCategory(category string, topN int) (*RecommendationResult, error) {
	if topN < 0 {
		return nil, ErrInvalidTopN
	}

	s := e.snap.Load()

	members := s.store.IndicesOfCategory(category)
	if len(members) == 0 {
		return nil, &CategoryNotFoundError{Category: category}
	}
	seed := members[e.intn(len(members))]

	candidates := make([]int, 0, s.store.Size()-1)
	for i := 0; i < s.store.Size(); i++ {
		if i != seed {
			candidates = append(candidates, i)
		}
	}

	return s.rank(StrategyCategory, seed, candidates, topN)
}

// RecommendByTrack ranks the other members of trackID's cluster by
// euclidean distance to it.
//
// It fails with *NotFoundError for unknown ids and with ErrInvalidTopN
// when topN is negative. A track alone in its cluster yields no items.
func (e *Engine) RecommendByTrack(ctx context.Context, trackID string, topN int) (*RecommendationResult, error) {
	start := time.Now()

	res, err := e.recommendByTrack(trackID, topN)
	e.observe(ctx, StrategyTrack, trackID, res, start, err)

	return res, err
}

func (e *Engine) recommendByTrack(trackID string, topN int) (*RecommendationResult, error) {
	if topN < 0 {
		return nil, ErrInvalidTopN
	}

	s := e.snap.Load()

	_, seed, err := s.store.ByID(trackID)
	if err != nil {
		return nil, translateError(err)
	}

	candidates := s.index.MembersExcluding(s.store.Cluster(seed), seed)

	return s.rank(StrategyTrack, seed, candidates, topN)
}

func (s *snapshot) rank(strategy Strategy, seed int, candidates []int, topN int) (*RecommendationResult, error) {
	metric := strategy.Metric()

	scored, err := ranker.Rank(s.store.ByIndex(seed), candidates, s.store, metric, topN)
	if err != nil {
		return nil, translateError(err)
	}

	res := &RecommendationResult{
		Strategy:    strategy,
		Metric:      metric.String(),
		SeedID:      s.store.TrackID(seed),
		SeedIndex:   seed,
		SeedCluster: s.store.Cluster(seed),
		Items:       make([]Recommendation, len(scored)),
		Indices:     make([]int, len(scored)),
	}
	for i, sc := range scored {
		res.Items[i] = Recommendation{
			TrackID:  s.store.TrackID(sc.Index),
			Index:    sc.Index,
			Score:    sc.Score,
			Cluster:  s.store.Cluster(sc.Index),
			Category: s.store.Category(sc.Index),
		}
		res.Indices[i] = sc.Index
	}
	return res, nil
}

func (e *Engine) observe(ctx context.Context, strategy Strategy, seed string, res *RecommendationResult, start time.Time, err error) {
	elapsed := time.Since(start)

	returned := 0
	if res != nil {
		returned = len(res.Items)
	}

	e.metrics.RecordRecommend(strategy, returned, elapsed, err)
	e.logger.WithStrategy(strategy).LogRecommend(ctx, seed, returned, elapsed, err)
}

// Store returns the feature store currently served.
func (e *Engine) Store() *featurestore.Store {
	return e.snap.Load().store
}

// Labels returns the "<category> (<count> songs)" label of every cluster.
func (e *Engine) Labels() map[int]string {
	return e.snap.Load().index.Labels()
}

// Clusters returns a summary of every cluster in ascending id order.
func (e *Engine) Clusters() []cluster.Summary {
	return e.snap.Load().index.Summaries()
}

// Assignment is the cluster of one track.
type Assignment struct {
	TrackID string `json:"track_id"`
	Cluster int    `json:"cluster"`
}

// Assignments returns the cluster of every track in store order.
func (e *Engine) Assignments() []Assignment {
	st := e.snap.Load().store

	out := make([]Assignment, st.Size())
	for i := range out {
		out[i] = Assignment{TrackID: st.TrackID(i), Cluster: st.Cluster(i)}
	}
	return out
}

// Categories returns the distinct categories in sorted order.
func (e *Engine) Categories() []string {
	return e.snap.Load().store.Categories()
}

// Stats describes the store currently served.
type Stats struct {
	Tracks     int       `json:"tracks"`
	Dimension  int       `json:"dimension"`
	Clusters   int       `json:"clusters"`
	Categories int       `json:"categories"`
	Version    uint64    `json:"version"`
	LoadedAt   time.Time `json:"loaded_at"`
}

// Stats returns a description of the store currently served.
func (e *Engine) Stats() Stats {
	s := e.snap.Load()
	return Stats{
		Tracks:     s.store.Size(),
		Dimension:  s.store.Dim(),
		Clusters:   s.index.Len(),
		Categories: len(s.store.Categories()),
		Version:    s.version,
		LoadedAt:   s.loadedAt,
	}
}

// ClusterIDs returns the cluster ids in ascending order.
func (e *Engine) ClusterIDs() []int {
	return e.snap.Load().index.IDs()
}
