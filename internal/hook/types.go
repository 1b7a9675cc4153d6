// Package hook runs external programs when a gesture is recognized.
//
// Each hook lives in its own directory under the hooks directory and is
// described by a hook.json manifest. The executable receives one Request as
// JSON on stdin and must answer with one Response as JSON on stdout.
package hook

import (
	"encoding/json"
	"time"
)

// ManifestFile is the manifest name looked up in each hook directory.
const ManifestFile = "hook.json"

// Manifest describes a hook's metadata and the gestures it handles.
type Manifest struct {
	Name        string          `json:"name"`
	Version     string          `json:"version"`
	Description string          `json:"description"`
	Executable  string          `json:"executable"`
	Gestures    []string        `json:"gestures"`
	Config      json.RawMessage `json:"config,omitempty"`
}

// Request is sent to a hook for each recognized gesture.
type Request struct {
	Gesture   string          `json:"gesture"`
	Score     float64         `json:"score"`
	Timestamp time.Time       `json:"timestamp"`
	Config    json.RawMessage `json:"config,omitempty"`
}

// Response is the answer of a hook.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Hook is a discovered hook with its manifest and location.
type Hook struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Handles reports whether the hook subscribed to the gesture. A manifest
// without gestures handles all of them.
func (h *Hook) Handles(gesture string) bool {
	if len(h.Manifest.Gestures) == 0 {
		return true
	}
	for _, g := range h.Manifest.Gestures {
		if g == gesture {
			return true
		}
	}
	return false
}
