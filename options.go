package soundalike

import (
	"log/slog"
	"math/rand"
	"time"

	"github.com/hupe1980/soundalike/featurestore"
)

// Rand is the random source used to pick the seed track of a category.
// *rand.Rand satisfies it. The engine serializes calls, so the source
// does not need to be safe for concurrent use.
type Rand interface {
	Intn(n int) int
}

type options struct {
	metricsCollector MetricsCollector
	logger           *Logger
	rand             Rand
	separator        string
}

// Option configures Engine constructor/load behavior.
type Option func(*options)

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &soundalike.BasicMetricsCollector{}
//	eng, _ := soundalike.New(store, soundalike.WithMetricsCollector(metrics))
//	// ... use eng ...
//	stats := metrics.GetStats()
//	fmt.Printf("Calls: %d, Avg latency: %dns\n", stats.TrackCount, stats.RecommendAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := soundalike.NewJSONLogger(slog.LevelInfo)
//	eng, _ := soundalike.New(store, soundalike.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithRand sets the random source used by RecommendByCategory.
// Tests pin the selected seed track with it.
func WithRand(r Rand) Option {
	return func(o *options) {
		if r != nil {
			o.rand = r
		}
	}
}

// WithSeed is shorthand for WithRand(rand.New(rand.NewSource(seed))).
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.rand = rand.New(rand.NewSource(seed))
	}
}

// WithSeparator sets the separator between the category prefix and the
// rest of a track id for stores built by Load. Default ".".
func WithSeparator(sep string) Option {
	return func(o *options) {
		o.separator = sep
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		separator:        featurestore.DefaultSeparator,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.rand == nil {
		o.rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return o
}
