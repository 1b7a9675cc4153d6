package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/vitruvius/internal/gesture"
	"github.com/ayusman/vitruvius/internal/store"
)

// SamplesHandler handles HTTP requests for template training samples.
type SamplesHandler struct {
	store   *store.Store
	trainer *gesture.Trainer
	loader  TemplateLoader
}

// NewSamplesHandler creates a new SamplesHandler. loader may be nil.
func NewSamplesHandler(s *store.Store, loader TemplateLoader) *SamplesHandler {
	return &SamplesHandler{store: s, trainer: gesture.NewTrainer(), loader: loader}
}

// ServeHTTP implements the http.Handler interface.
// Expected paths: /api/templates/{id}/samples
func (h *SamplesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/templates/")
	parts := strings.Split(path, "/")

	if len(parts) != 2 || parts[1] != "samples" {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	templateID := parts[0]

	switch r.Method {
	case http.MethodGet:
		h.list(w, r, templateID)
	case http.MethodPost:
		h.create(w, r, templateID)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Request types

type createSamplesRequest struct {
	Samples []json.RawMessage `json:"samples" validate:"required,min=1"`
}

// Response types

type sampleResponse struct {
	ID          int64           `json:"id"`
	TemplateID  string          `json:"template_id"`
	SampleIndex int             `json:"sample_index"`
	Data        json.RawMessage `json:"data"`
	CreatedAt   string          `json:"created_at"`
}

type listSamplesResponse struct {
	Samples []sampleResponse `json:"samples"`
}

// list handles GET /api/templates/{id}/samples
func (h *SamplesHandler) list(w http.ResponseWriter, r *http.Request, templateID string) {
	samples, err := h.store.Samples().GetByTemplateID(templateID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list samples")
		return
	}

	response := listSamplesResponse{
		Samples: make([]sampleResponse, 0, len(samples)),
	}
	for _, s := range samples {
		response.Samples = append(response.Samples, sampleResponse{
			ID:          s.ID,
			TemplateID:  s.TemplateID,
			SampleIndex: s.SampleIndex,
			Data:        s.Data,
			CreatedAt:   s.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	writeJSON(w, http.StatusOK, response)
}

// create handles POST /api/templates/{id}/samples. The samples replace any
// earlier ones and are averaged into the template path.
func (h *SamplesHandler) create(w http.ResponseWriter, r *http.Request, templateID string) {
	t, err := h.store.Templates().GetByID(templateID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Template not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to verify template")
		return
	}

	var req createSamplesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	signal, path, err := h.trainer.Train(req.Samples)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.Samples().Create(templateID, req.Samples); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save samples")
		return
	}

	stored := make([]store.PathPoint, len(path))
	for i, p := range path {
		stored[i] = store.PathPoint{X: p.X, Y: p.Y, TimestampMs: p.Timestamp}
	}
	if err := h.store.Templates().SavePath(templateID, stored); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save template path")
		return
	}

	t.Signal = string(signal)
	t.Samples = len(req.Samples)
	if err := h.store.Templates().Update(t); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update template")
		return
	}

	if h.loader != nil {
		if err := h.loader.LoadTemplate(templateID); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to load template")
			return
		}
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"status": "ok",
		"signal": signal,
		"points": len(path),
	})
}
