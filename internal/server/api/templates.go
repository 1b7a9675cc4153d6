// Package api provides HTTP API handlers for the Vitruvius gesture service.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ayusman/vitruvius/internal/gesture"
	"github.com/ayusman/vitruvius/internal/store"
)

// TemplateLoader keeps the live gesture controller in sync with stored templates.
type TemplateLoader interface {
	LoadTemplate(id string) error
	RemoveTemplate(id string)
}

// TemplateHandler handles HTTP requests for gesture template resources.
type TemplateHandler struct {
	store  *store.Store
	loader TemplateLoader
}

// NewTemplateHandler creates a new TemplateHandler. loader may be nil.
func NewTemplateHandler(s *store.Store, loader TemplateLoader) *TemplateHandler {
	return &TemplateHandler{store: s, loader: loader}
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *TemplateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/templates or /api/templates/{id}
	path := strings.TrimPrefix(r.URL.Path, "/api/templates")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Request and response types

type templateRequest struct {
	Name      string  `json:"name" validate:"required,max=64"`
	Gesture   string  `json:"gesture" validate:"required,gesture"`
	Signal    string  `json:"signal" validate:"omitempty,signal"`
	Tolerance float64 `json:"tolerance" validate:"gte=0"`
	MinExtent float64 `json:"min_extent" validate:"gte=0"`
}

// templateUpdate only changes the fields that are set.
type templateUpdate struct {
	Name      string  `json:"name" validate:"omitempty,max=64"`
	Gesture   string  `json:"gesture" validate:"omitempty,gesture"`
	Signal    string  `json:"signal" validate:"omitempty,signal"`
	Tolerance float64 `json:"tolerance" validate:"gte=0"`
	MinExtent float64 `json:"min_extent" validate:"gte=0"`
}

type pathPointResponse struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Timestamp int64   `json:"timestamp"`
}

type templateResponse struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Gesture   string              `json:"gesture"`
	Signal    string              `json:"signal"`
	Tolerance float64             `json:"tolerance"`
	MinExtent float64             `json:"min_extent"`
	Samples   int                 `json:"samples"`
	Path      []pathPointResponse `json:"path,omitempty"`
	CreatedAt string              `json:"created_at"`
	UpdatedAt string              `json:"updated_at"`
}

type listTemplatesResponse struct {
	Templates []templateResponse `json:"templates"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// toResponse converts a store.Template to a templateResponse.
func toResponse(t *store.Template) templateResponse {
	return templateResponse{
		ID:        t.ID,
		Name:      t.Name,
		Gesture:   t.Gesture,
		Signal:    t.Signal,
		Tolerance: t.Tolerance,
		MinExtent: t.MinExtent,
		Samples:   t.Samples,
		CreatedAt: t.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt: t.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// list handles GET /api/templates and returns all templates.
func (h *TemplateHandler) list(w http.ResponseWriter, r *http.Request) {
	templates, err := h.store.Templates().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list templates")
		return
	}

	response := listTemplatesResponse{
		Templates: make([]templateResponse, 0, len(templates)),
	}
	for _, t := range templates {
		response.Templates = append(response.Templates, toResponse(t))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/templates/{id} and returns a template with its path.
func (h *TemplateHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	t, err := h.store.Templates().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Template not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get template")
		return
	}

	path, err := h.store.Templates().GetPath(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get template path")
		return
	}

	response := toResponse(t)
	for _, p := range path {
		response.Path = append(response.Path, pathPointResponse{X: p.X, Y: p.Y, Timestamp: p.TimestampMs})
	}

	writeJSON(w, http.StatusOK, response)
}

// create handles POST /api/templates and creates a new template without a path.
// The path is trained later from samples.
func (h *TemplateHandler) create(w http.ResponseWriter, r *http.Request) {
	var req templateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	signal := req.Signal
	if signal == "" {
		signal = string(gesture.SignalHandRight)
	}

	tolerance := req.Tolerance
	if tolerance == 0 {
		tolerance = gesture.DefaultTolerance
	}

	t := &store.Template{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Gesture:   req.Gesture,
		Signal:    signal,
		Tolerance: tolerance,
		MinExtent: req.MinExtent,
	}

	if _, err := h.store.Templates().GetByName(req.Name); err == nil {
		writeError(w, http.StatusConflict, "Template name already exists")
		return
	}

	if err := h.store.Templates().Create(t); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create template")
		return
	}

	writeJSON(w, http.StatusCreated, toResponse(t))
}

// update handles PUT /api/templates/{id} and updates an existing template.
func (h *TemplateHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	t, err := h.store.Templates().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Template not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get template")
		return
	}

	var req templateUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	// Update fields if provided
	if req.Name != "" {
		t.Name = req.Name
	}
	if req.Gesture != "" {
		t.Gesture = req.Gesture
	}
	if req.Signal != "" {
		t.Signal = req.Signal
	}
	if req.Tolerance != 0 {
		t.Tolerance = req.Tolerance
	}
	if req.MinExtent != 0 {
		t.MinExtent = req.MinExtent
	}

	if err := h.store.Templates().Update(t); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update template")
		return
	}

	h.reload(id)
	writeJSON(w, http.StatusOK, toResponse(t))
}

// delete handles DELETE /api/templates/{id} and removes a template.
func (h *TemplateHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Templates().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Template not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete template")
		return
	}

	if h.loader != nil {
		h.loader.RemoveTemplate(id)
	}
	w.WriteHeader(http.StatusNoContent)
}

// reload pushes a changed template to the controller. Templates without
// a trained path are skipped.
func (h *TemplateHandler) reload(id string) {
	if h.loader == nil {
		return
	}
	if err := h.loader.LoadTemplate(id); err != nil {
		h.loader.RemoveTemplate(id)
	}
}
