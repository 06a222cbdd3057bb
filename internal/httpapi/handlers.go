package httpapi

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/hupe1980/soundalike"
)

// MaxTopN caps the n query parameter.
const MaxTopN = 1000

var validate = validator.New()

type topNQuery struct {
	N int `validate:"gte=0,lte=1000"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status  string `json:"status"`
	Tracks  int    `json:"tracks"`
	Version uint64 `json:"version"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	st := s.engine.Stats()
	respondJSON(w, http.StatusOK, HealthResponse{Status: "ok", Tracks: st.Tracks, Version: st.Version})
}

func (s *Server) categories(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.engine.Categories())
}

func (s *Server) clusters(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.engine.Clusters())
}

func (s *Server) assignments(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.engine.Assignments())
}

func (s *Server) recommendTrack(w http.ResponseWriter, r *http.Request) {
	n, ok := s.topN(w, r)
	if !ok {
		return
	}

	id, ok := pathParam(w, r, "id")
	if !ok {
		return
	}

	res, err := s.engine.RecommendByTrack(r.Context(), id, n)
	s.respondResult(w, r, res, err)
}

func (s *Server) recommendCategory(w http.ResponseWriter, r *http.Request) {
	n, ok := s.topN(w, r)
	if !ok {
		return
	}

	name, ok := pathParam(w, r, "name")
	if !ok {
		return
	}

	res, err := s.engine.RecommendByCategory(r.Context(), name, n)
	s.respondResult(w, r, res, err)
}

func (s *Server) respondResult(w http.ResponseWriter, r *http.Request, res *soundalike.RecommendationResult, err error) {
	if err != nil {
		respondEngineError(w, err)
		return
	}
	res.RequestID = chimiddleware.GetReqID(r.Context())
	respondJSON(w, http.StatusOK, res)
}

// pathParam returns the decoded path parameter key. chi matches on the
// escaped path, so ids containing "/" arrive as "%2F" and are decoded
// here. A malformed escape writes a 400 response.
func pathParam(w http.ResponseWriter, r *http.Request, key string) (string, bool) {
	raw := chi.URLParam(r, key)
	v, err := url.PathUnescape(raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_id", fmt.Sprintf("malformed %s %q: %v", key, raw, err))
		return "", false
	}
	return v, true
}

// topN reads n, writing a 400 response when it is malformed.
func (s *Server) topN(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("n")
	if raw == "" {
		return s.cfg.TopN, true
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_n", fmt.Sprintf("n must be an integer, got %q", raw))
		return 0, false
	}
	if err := validate.Struct(topNQuery{N: n}); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_n", fmt.Sprintf("n must be between 0 and %d, got %d", MaxTopN, n))
		return 0, false
	}
	return n, true
}

func (s *Server) reload(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.ReloadFrom(r.Context(), s.source); err != nil {
		respondError(w, http.StatusInternalServerError, "reload_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, s.engine.Stats())
}
