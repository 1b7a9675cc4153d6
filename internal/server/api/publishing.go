package api

import (
	"encoding/json"
	"net/http"
)

// Toggle switches gesture publishing on and off.
type Toggle interface {
	IsEnabled() bool
	SetEnabled(enabled bool)
}

// PublishingHandler reads and sets whether gestures are published.
type PublishingHandler struct {
	toggle Toggle
}

// NewPublishingHandler creates a new PublishingHandler.
func NewPublishingHandler(t Toggle) *PublishingHandler {
	return &PublishingHandler{toggle: t}
}

type publishingState struct {
	Enabled bool `json:"enabled"`
}

// ServeHTTP handles GET and PUT /api/publishing.
func (h *PublishingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, publishingState{Enabled: h.toggle.IsEnabled()})
	case http.MethodPut:
		var req publishingState
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		h.toggle.SetEnabled(req.Enabled)
		writeJSON(w, http.StatusOK, publishingState{Enabled: h.toggle.IsEnabled()})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
