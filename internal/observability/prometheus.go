package observability

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/soundalike"
)

const namespace = "soundalike"

// PrometheusCollector implements soundalike.MetricsCollector.
type PrometheusCollector struct {
	recommends    *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	results       *prometheus.CounterVec
	reloads       *prometheus.CounterVec
	reloadLatency prometheus.Histogram
	tracks        prometheus.Gauge
}

var _ soundalike.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheusCollector creates the collector and registers its metrics
// with reg.
func NewPrometheusCollector(reg prometheus.Registerer) (*PrometheusCollector, error) {
	c := &PrometheusCollector{
		recommends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendations_total",
			Help:      "Recommendation calls by strategy and outcome.",
		}, []string{"strategy", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommendation_duration_seconds",
			Help:      "Latency of recommendation calls.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"strategy"}),
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommended_tracks_total",
			Help:      "Tracks returned by recommendation calls.",
		}, []string{"strategy"}),
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reloads_total",
			Help:      "Feature store loads by outcome.",
		}, []string{"status"}),
		reloadLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reload_duration_seconds",
			Help:      "Time to build and install a feature store.",
			Buckets:   prometheus.DefBuckets,
		}),
		tracks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tracks",
			Help:      "Tracks in the feature store being served.",
		}),
	}

	for _, m := range []prometheus.Collector{c.recommends, c.latency, c.results, c.reloads, c.reloadLatency, c.tracks} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// RecordRecommend implements soundalike.MetricsCollector.
func (c *PrometheusCollector) RecordRecommend(strategy soundalike.Strategy, returned int, d time.Duration, err error) {
	s := strategy.String()
	c.recommends.WithLabelValues(s, status(err)).Inc()
	c.latency.WithLabelValues(s).Observe(d.Seconds())
	c.results.WithLabelValues(s).Add(float64(returned))
}

// RecordReload implements soundalike.MetricsCollector.
func (c *PrometheusCollector) RecordReload(tracks int, d time.Duration, err error) {
	c.reloads.WithLabelValues(status(err)).Inc()
	if err != nil {
		return
	}
	c.reloadLatency.Observe(d.Seconds())
	c.tracks.Set(float64(tracks))
}

func status(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, soundalike.ErrNotFound), errors.Is(err, soundalike.ErrCategoryNotFound):
		return "not_found"
	case errors.Is(err, soundalike.ErrInvalidTopN):
		return "invalid"
	default:
		return "error"
	}
}
