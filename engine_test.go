package soundalike

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/soundalike/distance"
	"github.com/hupe1980/soundalike/featurestore"
	"github.com/hupe1980/soundalike/testutil"
)

// fixedRand always picks the same position (modulo n).
type fixedRand int

func (f fixedRand) Intn(n int) int { return int(f) % n }

func scenarioStore(t *testing.T) *featurestore.Store {
	t.Helper()

	st, err := featurestore.New(
		[][]float32{{1, 0}, {0, 1}, {1, 0}},
		[]string{"a.1", "b.1", "a.2"},
		[]int{0, 1, 0},
	)
	require.NoError(t, err)
	return st
}

func randomStore(t *testing.T, rng *rand.Rand, n, dim, k int) *featurestore.Store {
	t.Helper()

	genres := []string{"blues", "jazz", "metal", "pop", "rock"}
	vectors := make([][]float32, n)
	ids := make([]string, n)
	clusters := make([]int, n)
	for i := range vectors {
		vectors[i] = make([]float32, dim)
		for j := range vectors[i] {
			vectors[i][j] = rng.Float32()*2 - 1
		}
		ids[i] = fmt.Sprintf("%s.%05d.wav", genres[rng.Intn(len(genres))], i)
		clusters[i] = rng.Intn(k)
	}

	st, err := featurestore.New(vectors, ids, clusters)
	require.NoError(t, err)
	return st
}

func TestEngine(t *testing.T) {
	ctx := context.Background()

	t.Run("TrackScenario", func(t *testing.T) {
		eng, err := New(scenarioStore(t))
		require.NoError(t, err)

		res, err := eng.RecommendByTrack(ctx, "a.1", 5)
		require.NoError(t, err)

		require.Len(t, res.Items, 1)
		assert.Equal(t, "a.2", res.Items[0].TrackID)
		assert.Equal(t, float32(0), res.Items[0].Score)
		assert.Equal(t, 0, res.Items[0].Cluster)
		assert.Equal(t, "a", res.Items[0].Category)

		assert.Equal(t, StrategyTrack, res.Strategy)
		assert.Equal(t, "euclidean", res.Metric)
		assert.Equal(t, "a.1", res.SeedID)
		assert.Equal(t, 0, res.SeedIndex)
		assert.Equal(t, 0, res.SeedCluster)
		assert.Equal(t, []int{2}, res.Indices)
	})

	t.Run("CategoryScenario", func(t *testing.T) {
		eng, err := New(scenarioStore(t), WithRand(fixedRand(1)))
		require.NoError(t, err)

		res, err := eng.RecommendByCategory(ctx, "a", 5)
		require.NoError(t, err)

		assert.Equal(t, "a.2", res.SeedID)
		assert.Equal(t, 2, res.SeedIndex)
		assert.Equal(t, []string{"a.1", "b.1"}, res.TrackIDs())
		assert.Equal(t, []int{0, 1}, res.Indices)
		assert.InDelta(t, 1.0, res.Items[0].Score, 1e-6)
		assert.InDelta(t, 0.0, res.Items[1].Score, 1e-6)
		assert.Equal(t, "cosine", res.Metric)
	})

	t.Run("SingletonCluster", func(t *testing.T) {
		eng, err := New(scenarioStore(t))
		require.NoError(t, err)

		res, err := eng.RecommendByTrack(ctx, "b.1", 5)
		require.NoError(t, err)
		assert.NotNil(t, res.Items)
		assert.Empty(t, res.Items)
		assert.Empty(t, res.Indices)
	})

	t.Run("MissingCategory", func(t *testing.T) {
		eng, err := New(scenarioStore(t))
		require.NoError(t, err)

		_, err = eng.RecommendByCategory(ctx, "missing", 3)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrCategoryNotFound)

		var cnf *CategoryNotFoundError
		require.ErrorAs(t, err, &cnf)
		assert.Equal(t, "missing", cnf.Category)
	})

	t.Run("CategoryIsCaseSensitive", func(t *testing.T) {
		eng, err := New(scenarioStore(t))
		require.NoError(t, err)

		_, err = eng.RecommendByCategory(ctx, "A", 3)
		assert.ErrorIs(t, err, ErrCategoryNotFound)
	})

	t.Run("MissingTrack", func(t *testing.T) {
		eng, err := New(scenarioStore(t))
		require.NoError(t, err)

		_, err = eng.RecommendByTrack(ctx, "c.9", 3)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, err, featurestore.ErrNotFound)

		var nf *NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "c.9", nf.TrackID)
	})

	t.Run("TopNZero", func(t *testing.T) {
		eng, err := New(scenarioStore(t))
		require.NoError(t, err)

		res, err := eng.RecommendByTrack(ctx, "a.1", 0)
		require.NoError(t, err)
		assert.Empty(t, res.Items)

		res, err = eng.RecommendByCategory(ctx, "a", 0)
		require.NoError(t, err)
		assert.Empty(t, res.Items)
	})

	t.Run("NegativeTopN", func(t *testing.T) {
		eng, err := New(scenarioStore(t))
		require.NoError(t, err)

		_, err = eng.RecommendByTrack(ctx, "a.1", -1)
		assert.ErrorIs(t, err, ErrInvalidTopN)

		_, err = eng.RecommendByCategory(ctx, "a", -1)
		assert.ErrorIs(t, err, ErrInvalidTopN)
	})

	t.Run("TopNTruncates", func(t *testing.T) {
		eng, err := New(scenarioStore(t), WithRand(fixedRand(0)))
		require.NoError(t, err)

		res, err := eng.RecommendByCategory(ctx, "a", 1)
		require.NoError(t, err)
		assert.Equal(t, []string{"a.2"}, res.TrackIDs())
	})

	t.Run("ZeroVector", func(t *testing.T) {
		st, err := featurestore.New(
			[][]float32{{0, 0}, {0, 0}, {1, 0}},
			[]string{"z.1", "z.2", "a.1"},
			[]int{0, 0, 0},
		)
		require.NoError(t, err)

		eng, err := New(st, WithRand(fixedRand(0)))
		require.NoError(t, err)

		res, err := eng.RecommendByCategory(ctx, "z", 5)
		require.NoError(t, err)

		require.Len(t, res.Items, 2)
		assert.Equal(t, []string{"z.2", "a.1"}, res.TrackIDs())
		for _, it := range res.Items {
			assert.Equal(t, float32(0), it.Score)
		}
	})

	t.Run("NilStore", func(t *testing.T) {
		_, err := New(nil)
		assert.ErrorIs(t, err, ErrNoStore)
	})
}

func TestEngineProperties(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(7))
	st := randomStore(t, rng, 300, 12, 6)

	eng, err := New(st, WithSeed(99))
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		topN := rng.Intn(20)

		category := st.Categories()[rng.Intn(len(st.Categories()))]
		res, err := eng.RecommendByCategory(ctx, category, topN)
		require.NoError(t, err)

		assert.Equal(t, category, st.Category(res.SeedIndex))
		assert.LessOrEqual(t, len(res.Items), topN)
		assert.LessOrEqual(t, len(res.Items), st.Size()-1)
		assert.NotContains(t, res.Indices, res.SeedIndex)
		for j := 1; j < len(res.Items); j++ {
			assert.GreaterOrEqual(t, res.Items[j-1].Score, res.Items[j].Score)
		}

		id := st.TrackID(rng.Intn(st.Size()))
		res, err = eng.RecommendByTrack(ctx, id, topN)
		require.NoError(t, err)

		assert.LessOrEqual(t, len(res.Items), topN)
		assert.NotContains(t, res.Indices, res.SeedIndex)
		for _, it := range res.Items {
			assert.Equal(t, res.SeedCluster, it.Cluster)
		}
		for j := 1; j < len(res.Items); j++ {
			assert.LessOrEqual(t, res.Items[j-1].Score, res.Items[j].Score)
		}
	}
}

func TestEngineIdempotent(t *testing.T) {
	ctx := context.Background()
	st := randomStore(t, rand.New(rand.NewSource(3)), 120, 8, 4)

	eng, err := New(st, WithRand(fixedRand(5)))
	require.NoError(t, err)

	first, err := eng.RecommendByCategory(ctx, "jazz", 10)
	require.NoError(t, err)
	second, err := eng.RecommendByCategory(ctx, "jazz", 10)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	id := st.TrackID(17)
	first, err = eng.RecommendByTrack(ctx, id, 10)
	require.NoError(t, err)
	second, err = eng.RecommendByTrack(ctx, id, 10)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEngineSeededRandIsReproducible(t *testing.T) {
	ctx := context.Background()
	st := randomStore(t, rand.New(rand.NewSource(11)), 80, 4, 3)

	seeds := func() []string {
		eng, err := New(st, WithSeed(42))
		require.NoError(t, err)

		var out []string
		for i := 0; i < 10; i++ {
			res, err := eng.RecommendByCategory(ctx, "rock", 3)
			require.NoError(t, err)
			out = append(out, res.SeedID)
		}
		return out
	}

	assert.Equal(t, seeds(), seeds())
}

func TestEngineReload(t *testing.T) {
	ctx := context.Background()

	eng, err := New(scenarioStore(t))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), eng.Stats().Version)

	next, err := featurestore.New(
		[][]float32{{1, 0}, {0.9, 0.1}, {0, 1}, {0.8, 0.2}},
		[]string{"a.1", "a.3", "c.1", "a.4"},
		[]int{0, 0, 1, 0},
	)
	require.NoError(t, err)
	require.NoError(t, eng.Reload(ctx, next))

	stats := eng.Stats()
	assert.Equal(t, uint64(2), stats.Version)
	assert.Equal(t, 4, stats.Tracks)
	assert.Same(t, next, eng.Store())

	res, err := eng.RecommendByTrack(ctx, "a.1", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.3", "a.4"}, res.TrackIDs())

	err = eng.Reload(ctx, nil)
	assert.ErrorIs(t, err, ErrNoStore)
	assert.Same(t, next, eng.Store())
	assert.Equal(t, uint64(2), eng.Stats().Version)
}

func TestEngineConcurrentReload(t *testing.T) {
	ctx := context.Background()

	alt, err := featurestore.New(
		[][]float32{{1, 0}, {0, 1}, {0.5, 0.5}},
		[]string{"a.1", "z.1", "a.9"},
		[]int{0, 0, 1},
	)
	require.NoError(t, err)
	stores := []*featurestore.Store{scenarioStore(t), alt}

	eng, err := New(stores[0], WithSeed(1))
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 64)

	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				res, err := eng.RecommendByTrack(ctx, "a.1", 3)
				if err != nil {
					errs <- err
					return
				}
				if res.SeedID != "a.1" {
					errs <- fmt.Errorf("seed %q", res.SeedID)
					return
				}
				if _, err := eng.RecommendByCategory(ctx, "a", 3); err != nil {
					errs <- err
					return
				}
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			if err := eng.Reload(ctx, stores[i%2]); err != nil {
				errs <- err
				return
			}
		}
	}()

	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestEngineReloadVersionIsMonotonic(t *testing.T) {
	ctx := context.Background()

	st := scenarioStore(t)
	eng, err := New(st)
	require.NoError(t, err)

	const writers, reloads = 8, 50

	stop := make(chan struct{})
	regressed := make(chan [2]uint64, 1)
	go func() {
		var last uint64
		for {
			select {
			case <-stop:
				return
			default:
			}
			v := eng.Stats().Version
			if v < last {
				select {
				case regressed <- [2]uint64{last, v}:
				default:
				}
				return
			}
			last = v
		}
	}()

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < reloads; i++ {
				assert.NoError(t, eng.Reload(ctx, st))
			}
		}()
	}
	wg.Wait()
	close(stop)

	select {
	case r := <-regressed:
		t.Fatalf("version went from %d to %d", r[0], r[1])
	default:
	}

	// The last install carries the highest version.
	assert.Equal(t, uint64(1+writers*reloads), eng.Stats().Version)
}

func TestEnginePresentation(t *testing.T) {
	st, err := featurestore.New(
		[][]float32{{1}, {2}, {3}, {4}, {5}},
		[]string{"rock.1", "jazz.1", "rock.2", "jazz.2", "pop.1"},
		[]int{1, 1, 1, 0, 0},
	)
	require.NoError(t, err)

	eng, err := New(st)
	require.NoError(t, err)

	assert.Equal(t, map[int]string{
		0: "jazz (1 songs)",
		1: "rock (2 songs)",
	}, eng.Labels())

	assert.Equal(t, []int{0, 1}, eng.ClusterIDs())
	assert.Equal(t, []string{"jazz", "pop", "rock"}, eng.Categories())

	assert.Equal(t, []Assignment{
		{TrackID: "rock.1", Cluster: 1},
		{TrackID: "jazz.1", Cluster: 1},
		{TrackID: "rock.2", Cluster: 1},
		{TrackID: "jazz.2", Cluster: 0},
		{TrackID: "pop.1", Cluster: 0},
	}, eng.Assignments())

	clusters := eng.Clusters()
	require.Len(t, clusters, 2)
	assert.Equal(t, 1, clusters[1].ID)
	assert.Equal(t, "rock", clusters[1].Category)
	assert.Equal(t, 2, clusters[1].Count)
	assert.Equal(t, 3, clusters[1].Size)

	stats := eng.Stats()
	assert.Equal(t, 5, stats.Tracks)
	assert.Equal(t, 1, stats.Dimension)
	assert.Equal(t, 2, stats.Clusters)
	assert.Equal(t, 3, stats.Categories)
	assert.False(t, stats.LoadedAt.IsZero())
}

func TestEngineSeparator(t *testing.T) {
	st, err := featurestore.New(
		[][]float32{{1, 0}, {0, 1}},
		[]string{"jazz_001.wav", "jazz_002.wav"},
		[]int{0, 0},
		featurestore.WithSeparator("_"),
	)
	require.NoError(t, err)

	eng, err := New(st, WithRand(fixedRand(0)))
	require.NoError(t, err)

	res, err := eng.RecommendByCategory(context.Background(), "jazz", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"jazz_002.wav"}, res.TrackIDs())
}

func TestTranslateError(t *testing.T) {
	assert.NoError(t, translateError(nil))

	other := errors.New("boom")
	assert.Equal(t, other, translateError(other))

	_, err := featurestore.New([][]float32{{1}}, []string{"a"}, []int{-1})
	require.Error(t, err)

	err = translateError(err)
	assert.ErrorIs(t, err, ErrSchema)
	assert.ErrorIs(t, err, featurestore.ErrSchema)

	var se *SchemaError
	require.ErrorAs(t, err, &se)
	assert.NotEmpty(t, se.Reason)
}

func TestSentinelsShareFeaturestoreValues(t *testing.T) {
	_, err := featurestore.New([][]float32{{1}, {2}}, []string{"a.1", "a.1"}, []int{0, 0})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSchema)

	st := scenarioStore(t)
	_, _, err = st.ByID("zz.9")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)

	eng, err := New(st)
	require.NoError(t, err)
	_, err = eng.RecommendByTrack(context.Background(), "zz.9", 1)
	assert.ErrorIs(t, err, featurestore.ErrNotFound)

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "zz.9", nf.TrackID)
}

func TestStrategy(t *testing.T) {
	assert.Equal(t, "category", StrategyCategory.String())
	assert.Equal(t, "track", StrategyTrack.String())
	assert.Equal(t, "Unknown(7)", Strategy(7).String())

	text, err := StrategyTrack.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "track", string(text))
}

func TestEngineMatchesExactRank(t *testing.T) {
	ctx := context.Background()
	rng := testutil.NewRNG(4711)
	st := rng.Store(400, 16, 5)

	eng, err := New(st, WithRand(rng))
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		res, err := eng.RecommendByCategory(ctx, st.Category(i), 15)
		require.NoError(t, err)

		var candidates []int
		for j := 0; j < st.Size(); j++ {
			if j != res.SeedIndex {
				candidates = append(candidates, j)
			}
		}
		want := testutil.ExactRank(st, st.ByIndex(res.SeedIndex), candidates, distance.MetricCosine, 15)
		assert.Equal(t, want, res.Indices)

		res, err = eng.RecommendByTrack(ctx, st.TrackID(i), 15)
		require.NoError(t, err)

		candidates = candidates[:0]
		for j := 0; j < st.Size(); j++ {
			if j != i && st.Cluster(j) == st.Cluster(i) {
				candidates = append(candidates, j)
			}
		}
		want = testutil.ExactRank(st, st.ByIndex(i), candidates, distance.MetricEuclidean, 15)
		assert.Equal(t, want, res.Indices)
	}
}
