// Package server provides the HTTP server for the Vitruvius gesture service.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ayusman/vitruvius/internal/app"
	"github.com/ayusman/vitruvius/internal/hook"
	"github.com/ayusman/vitruvius/internal/server/api"
	"github.com/ayusman/vitruvius/internal/store"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	App       *app.App
	Images    ImageSource
	Hooks     *hook.Manager
}

// Server represents the HTTP server for the Vitruvius application.
type Server struct {
	config   Config
	mux      *http.ServeMux
	start    time.Time
	skeleton *SkeletonHandler
	httpSrv  *http.Server
	mu       sync.Mutex
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	// A nil *app.App must not end up inside a non-nil interface
	var loader api.TemplateLoader
	if s.config.App != nil {
		loader = s.config.App
	}

	if s.config.Store != nil {
		templateHandler := api.NewTemplateHandler(s.config.Store, loader)
		samplesHandler := api.NewSamplesHandler(s.config.Store, loader)

		// Route between templates and samples handlers
		templateRouter := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.URL.Path, "/samples") {
				samplesHandler.ServeHTTP(w, r)
				return
			}
			templateHandler.ServeHTTP(w, r)
		})

		s.mux.Handle("/api/templates", templateRouter)
		s.mux.Handle("/api/templates/", templateRouter)

		recognitionHandler := api.NewRecognitionHandler(s.config.Store)
		s.mux.Handle("/api/recognitions", recognitionHandler)
		s.mux.Handle("/api/recognitions/", recognitionHandler)
	}

	if s.config.App != nil {
		s.mux.Handle("/api/publishing", api.NewPublishingHandler(s.config.App))

		s.skeleton = NewSkeletonHandler(s.config.App)
		s.config.App.OnRecognized(s.skeleton.BroadcastEvent)
		s.mux.Handle("/api/skeleton", s.skeleton)
	}

	if s.config.Hooks != nil {
		hookHandler := api.NewHookHandler(s.config.Hooks)
		s.mux.Handle("/api/hooks", hookHandler)
		s.mux.Handle("/api/hooks/", hookHandler)
	}

	if s.config.Images != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Images))
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.App != nil {
		_, tracking := s.config.App.LatestBody()
		response["tracking"] = tracking
		response["publishing"] = s.config.App.IsEnabled()
		if e, ok := s.config.App.LastEvent(); ok {
			response["last_gesture"] = e.Gesture
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address. It returns
// nil after Shutdown.
func (s *Server) ListenAndServe(addr string) error {
	s.mu.Lock()
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.httpSrv
	s.mu.Unlock()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the skeleton broadcaster and gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.skeleton != nil {
		s.skeleton.Close()
	}

	s.mu.Lock()
	srv := s.httpSrv
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
