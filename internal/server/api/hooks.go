package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/vitruvius/internal/hook"
)

// HookHandler lists discovered gesture hooks and rescans the hooks directory.
type HookHandler struct {
	manager *hook.Manager
}

// NewHookHandler creates a new HookHandler.
func NewHookHandler(m *hook.Manager) *HookHandler {
	return &HookHandler{manager: m}
}

type hookResponse struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Gestures    []string `json:"gestures"`
}

type listHooksResponse struct {
	Dir   string         `json:"dir"`
	Hooks []hookResponse `json:"hooks"`
}

// ServeHTTP handles GET /api/hooks, POST /api/hooks (rescan) and
// GET /api/hooks/{name}.
func (h *HookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/hooks"), "/")
	if name != "" {
		h.get(w, r, name)
		return
	}

	switch r.Method {
	case http.MethodGet:
	case http.MethodPost:
		if err := h.manager.Discover(); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to scan hooks")
			return
		}
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	hooks := h.manager.List()
	resp := listHooksResponse{
		Dir:   h.manager.Dir(),
		Hooks: make([]hookResponse, len(hooks)),
	}
	for i, hk := range hooks {
		resp.Hooks[i] = toHookResponse(hk)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HookHandler) get(w http.ResponseWriter, r *http.Request, name string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	hk, err := h.manager.Get(name)
	if errors.Is(err, hook.ErrHookNotFound) {
		writeError(w, http.StatusNotFound, "Hook not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get hook")
		return
	}
	writeJSON(w, http.StatusOK, toHookResponse(hk))
}

func toHookResponse(hk *hook.Hook) hookResponse {
	gestures := hk.Manifest.Gestures
	if gestures == nil {
		gestures = []string{}
	}
	return hookResponse{
		Name:        hk.Manifest.Name,
		Version:     hk.Manifest.Version,
		Description: hk.Manifest.Description,
		Gestures:    gestures,
	}
}
