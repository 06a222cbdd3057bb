package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/hupe1980/soundalike"
	"github.com/hupe1980/soundalike/blobstore"
)

// Config configures the API.
type Config struct {
	// RequestTimeout bounds every request. Zero disables the timeout.
	RequestTimeout time.Duration
	// RateLimit is requests per second across all clients. Zero disables
	// limiting.
	RateLimit float64
	RateBurst int
	// TopN is used when a request has no n parameter.
	TopN int
}

// Server serves one engine.
type Server struct {
	engine   *soundalike.Engine
	source   blobstore.BlobStore
	gatherer prometheus.Gatherer
	logger   zerolog.Logger
	cfg      Config
}

// Option configures a Server.
type Option func(*Server)

// WithReloadSource enables POST /v1/reload, which rereads the bundle in bs.
func WithReloadSource(bs blobstore.BlobStore) Option {
	return func(s *Server) { s.source = bs }
}

// WithGatherer enables GET /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithLogger sets the access logger. The default discards.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New creates a server for eng.
func New(eng *soundalike.Engine, cfg Config, optFns ...Option) *Server {
	if cfg.TopN <= 0 {
		cfg.TopN = 5
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = 1
	}

	s := &Server{
		engine: eng,
		cfg:    cfg,
		logger: zerolog.Nop(),
	}
	for _, fn := range optFns {
		fn(s)
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(accessLog(s.logger))
	if s.cfg.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(s.cfg.RequestTimeout))
	}

	r.Get("/healthz", s.health)

	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		if s.cfg.RateLimit > 0 {
			r.Use(rateLimit(s.cfg.RateLimit, s.cfg.RateBurst))
		}

		r.Get("/categories", s.categories)
		r.Get("/clusters", s.clusters)
		r.Get("/assignments", s.assignments)
		r.Get("/recommendations/track/{id}", s.recommendTrack)
		r.Get("/recommendations/category/{name}", s.recommendCategory)

		if s.source != nil {
			r.Post("/reload", s.reload)
		}
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusNotFound, "route_not_found", "no such route")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	return r
}
