// Package server provides the HTTP surface of JaJanken: capture control,
// the annotated MJPEG preview, the fingertip websocket feed and round history.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ayusman/jajanken/internal/app"
	"github.com/ayusman/jajanken/internal/log"
	"github.com/ayusman/jajanken/internal/overlay"
	"github.com/ayusman/jajanken/internal/server/api"
	"github.com/ayusman/jajanken/internal/store"
)

// Pipeline is the part of the app the server drives.
type Pipeline interface {
	Start() error
	Stop()
	Status() app.Status
	Subscribe() (<-chan overlay.Update, func())
	Preview() *overlay.Preview
}

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	Pipeline  Pipeline
}

// Server represents the HTTP server for the JaJanken application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
	http   *http.Server
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

	if s.config.Store != nil {
		rounds := api.NewRoundHandler(s.config.Store)
		s.mux.Handle("/api/rounds", rounds)
		s.mux.Handle("/api/rounds/", rounds)
	}

	if p := s.config.Pipeline; p != nil {
		s.mux.HandleFunc("/api/status", s.handleStatus)
		s.mux.HandleFunc("/api/capture/start", s.handleCaptureStart)
		s.mux.HandleFunc("/api/capture/stop", s.handleCaptureStop)
		s.mux.Handle("/api/stream", NewStreamHandler(p.Preview()))
		s.mux.Handle("/api/fingertips", NewFingertipsHandler(p))
	}

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

	api.WriteJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	})
}

// handleStatus handles GET /api/status.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	api.WriteJSON(w, http.StatusOK, s.config.Pipeline.Status())
}

// handleCaptureStart handles POST /api/capture/start. Setup failures answer
// 503 with the failure kind so clients can offer a retry.
func (s *Server) handleCaptureStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := s.config.Pipeline.Start(); err != nil {
		status := http.StatusServiceUnavailable
		if errors.Is(err, app.ErrClosed) {
			status = http.StatusConflict
		}
		api.WriteKindError(w, status, err.Error(), app.ErrorKind(err))
		return
	}
	api.WriteJSON(w, http.StatusOK, s.config.Pipeline.Status())
}

// handleCaptureStop handles POST /api/capture/stop.
func (s *Server) handleCaptureStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.config.Pipeline.Stop()
	api.WriteJSON(w, http.StatusOK, s.config.Pipeline.Status())
}

// ListenAndServe starts the HTTP server on the given address and blocks
// until it fails or Shutdown is called.
func (s *Server) ListenAndServe(addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Info("http server listening", "addr", addr)

	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops a server started with ListenAndServe.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
