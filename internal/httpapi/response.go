package httpapi

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/hupe1980/soundalike"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"encode response","code":"internal"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func respondError(w http.ResponseWriter, status int, code, msg string) {
	respondJSON(w, status, ErrorResponse{Error: msg, Code: code})
}

// respondEngineError maps engine errors to status codes.
func respondEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, soundalike.ErrNotFound):
		respondError(w, http.StatusNotFound, "track_not_found", err.Error())
	case errors.Is(err, soundalike.ErrCategoryNotFound):
		respondError(w, http.StatusNotFound, "category_not_found", err.Error())
	case errors.Is(err, soundalike.ErrInvalidTopN):
		respondError(w, http.StatusBadRequest, "invalid_n", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal", err.Error())
	}
}
