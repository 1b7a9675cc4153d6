package api

import (
	"net/http"
	"strconv"

	"github.com/ayusman/vitruvius/internal/store"
)

// RecognitionHandler serves the log of recognized gestures.
type RecognitionHandler struct {
	store *store.Store
}

// NewRecognitionHandler creates a new RecognitionHandler with the given store.
func NewRecognitionHandler(s *store.Store) *RecognitionHandler {
	return &RecognitionHandler{store: s}
}

type listRecognitionsResponse struct {
	Recognitions []*store.Recognition `json:"recognitions"`
}

type recognitionStatsResponse struct {
	Counts map[string]int `json:"counts"`
}

// ServeHTTP handles GET /api/recognitions?limit=N and GET /api/recognitions/stats.
func (h *RecognitionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch r.URL.Path {
	case "/api/recognitions":
		h.list(w, r)
	case "/api/recognitions/stats":
		h.stats(w, r)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

func (h *RecognitionHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	recs, err := h.store.Recognitions().ListRecent(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list recognitions")
		return
	}
	if recs == nil {
		recs = []*store.Recognition{}
	}

	writeJSON(w, http.StatusOK, listRecognitionsResponse{Recognitions: recs})
}

func (h *RecognitionHandler) stats(w http.ResponseWriter, r *http.Request) {
	counts, err := h.store.Recognitions().CountByGesture()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count recognitions")
		return
	}

	writeJSON(w, http.StatusOK, recognitionStatsResponse{Counts: counts})
}
