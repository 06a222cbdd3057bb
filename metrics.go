package soundalike

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordRecommend is called after each recommendation call.
	// returned is the number of recommendations, err is nil if successful.
	RecordRecommend(strategy Strategy, returned int, duration time.Duration, err error)

	// RecordReload is called after a feature store is installed.
	// tracks is the size of the new store.
	RecordReload(tracks int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordRecommend(Strategy, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordReload(int, time.Duration, error)              {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	CategoryCount    atomic.Int64
	CategoryErrors   atomic.Int64
	TrackCount       atomic.Int64
	TrackErrors      atomic.Int64
	RecommendNanos   atomic.Int64
	RecommendResults atomic.Int64
	ReloadCount      atomic.Int64
	ReloadErrors     atomic.Int64
	Tracks           atomic.Int64
}

// RecordRecommend implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRecommend(strategy Strategy, returned int, duration time.Duration, err error) {
	switch strategy {
	case StrategyCategory:
		b.CategoryCount.Add(1)
		if err != nil {
			b.CategoryErrors.Add(1)
		}
	case StrategyTrack:
		b.TrackCount.Add(1)
		if err != nil {
			b.TrackErrors.Add(1)
		}
	}
	b.RecommendNanos.Add(duration.Nanoseconds())
	b.RecommendResults.Add(int64(returned))
}

// RecordReload implements MetricsCollector.
func (b *BasicMetricsCollector) RecordReload(tracks int, _ time.Duration, err error) {
	b.ReloadCount.Add(1)
	if err != nil {
		b.ReloadErrors.Add(1)
		return
	}
	b.Tracks.Store(int64(tracks))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	calls := b.CategoryCount.Load() + b.TrackCount.Load()

	var avg int64
	if calls > 0 {
		avg = b.RecommendNanos.Load() / calls
	}

	return BasicMetricsStats{
		CategoryCount:     b.CategoryCount.Load(),
		CategoryErrors:    b.CategoryErrors.Load(),
		TrackCount:        b.TrackCount.Load(),
		TrackErrors:       b.TrackErrors.Load(),
		RecommendAvgNanos: avg,
		RecommendResults:  b.RecommendResults.Load(),
		ReloadCount:       b.ReloadCount.Load(),
		ReloadErrors:      b.ReloadErrors.Load(),
		Tracks:            b.Tracks.Load(),
	}
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	CategoryCount     int64
	CategoryErrors    int64
	TrackCount        int64
	TrackErrors       int64
	RecommendAvgNanos int64
	RecommendResults  int64
	ReloadCount       int64
	ReloadErrors      int64
	Tracks            int64
}
