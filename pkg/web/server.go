// Package web serves the analysis report over a JSON API, live updates
// over Server-Sent Events, and the bundled single-page UI.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/ritzau/scc-analyzer/pkg/logging"
	"github.com/ritzau/scc-analyzer/pkg/model"
	"github.com/ritzau/scc-analyzer/pkg/pubsub"
)

//go:embed static/*
var staticFiles embed.FS

// Server holds the latest report and the event bus feeding SSE clients.
// It implements analysis.Sink.
type Server struct {
	router *mux.Router
	bus    *pubsub.Bus
	log    *slog.Logger

	mu     sync.RWMutex
	report *model.Report

	httpServer *http.Server
}

// NewServer wires the routes and the event topics.
func NewServer() *Server {
	bus := pubsub.NewBus()
	bus.ConfigureTopic(pubsub.TopicStatus, pubsub.TopicConfig{BufferSize: 10, ReplayAll: false})
	bus.ConfigureTopic(pubsub.TopicReport, pubsub.TopicConfig{BufferSize: 1, ReplayAll: false})

	s := &Server{
		router: mux.NewRouter(),
		bus:    bus,
		log:    logging.New("web"),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	api.HandleFunc("/report", s.handleReport).Methods(http.MethodGet)
	api.HandleFunc("/components", s.handleComponents).Methods(http.MethodGet)
	api.HandleFunc("/components/{index}", s.handleComponent).Methods(http.MethodGet)
	api.HandleFunc("/stages", s.handleStages).Methods(http.MethodGet)
	api.HandleFunc("/cycles", s.handleCycles).Methods(http.MethodGet)

	s.router.HandleFunc("/events/{topic}", s.handleEvents).Methods(http.MethodGet)

	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		logging.Fatal("embedded static assets missing", "error", err)
	}
	s.router.PathPrefix("/").Handler(http.FileServer(http.FS(staticFS)))

	s.router.Use(logging.RequestLogger)
}

// SetReport stores the report and announces it on the report topic.
func (s *Server) SetReport(rep *model.Report) {
	s.mu.Lock()
	s.report = rep
	s.mu.Unlock()
	s.PublishReport()
}

// PublishReport re-announces the current report, if any.
func (s *Server) PublishReport() {
	rep := s.currentReport()
	if rep == nil {
		return
	}
	if err := s.bus.Publish(pubsub.TopicReport, "report", rep); err != nil && !errors.Is(err, pubsub.ErrClosed) {
		s.log.Warn("failed to publish report", "error", err)
	}
}

// PublishStatus announces run progress on the status topic.
func (s *Server) PublishStatus(state, message string, step, total int) {
	update := pubsub.StatusUpdate{State: state, Message: message, Step: step, Total: total}
	if err := s.bus.Publish(pubsub.TopicStatus, state, update); err != nil && !errors.Is(err, pubsub.ErrClosed) {
		s.log.Warn("failed to publish status", "state", state, "error", err)
	}
}

func (s *Server) currentReport() *model.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("failed to encode response", "error", err)
	}
}

// apiError keeps error responses JSON so clients never have to sniff.
func (s *Server) apiError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	rep := s.currentReport()
	if rep == nil {
		s.writeJSON(w, http.StatusOK, map[string]any{"ready": false})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"ready":       true,
		"source":      rep.Source,
		"nodeCount":   rep.NodeCount,
		"edgeCount":   rep.EdgeCount,
		"components":  rep.ComponentCount,
		"cycles":      rep.CycleCount,
		"generatedAt": rep.GeneratedAt,
	})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rep := s.currentReport()
	if rep == nil {
		s.apiError(w, http.StatusServiceUnavailable, "no report yet")
		return
	}
	s.writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleComponents(w http.ResponseWriter, r *http.Request) {
	rep := s.currentReport()
	if rep == nil {
		s.apiError(w, http.StatusServiceUnavailable, "no report yet")
		return
	}
	s.writeJSON(w, http.StatusOK, rep.Components)
}

func (s *Server) handleComponent(w http.ResponseWriter, r *http.Request) {
	rep := s.currentReport()
	if rep == nil {
		s.apiError(w, http.StatusServiceUnavailable, "no report yet")
		return
	}
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		s.apiError(w, http.StatusBadRequest, "component index must be an integer")
		return
	}
	if index < 0 || index >= len(rep.Components) {
		s.apiError(w, http.StatusNotFound, fmt.Sprintf("no component %d", index))
		return
	}
	s.writeJSON(w, http.StatusOK, rep.Components[index])
}

func (s *Server) handleStages(w http.ResponseWriter, r *http.Request) {
	rep := s.currentReport()
	if rep == nil {
		s.apiError(w, http.StatusServiceUnavailable, "no report yet")
		return
	}
	s.writeJSON(w, http.StatusOK, rep.Stages)
}

func (s *Server) handleCycles(w http.ResponseWriter, r *http.Request) {
	rep := s.currentReport()
	if rep == nil {
		s.apiError(w, http.StatusServiceUnavailable, "no report yet")
		return
	}
	s.writeJSON(w, http.StatusOK, rep.Cycles)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	topic := mux.Vars(r)["topic"]
	if topic != pubsub.TopicStatus && topic != pubsub.TopicReport {
		s.apiError(w, http.StatusNotFound, fmt.Sprintf("unknown topic %q", topic))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.apiError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	// Open the stream right away so proxies and Safari see a live
	// connection before the first event arrives.
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	sub, err := s.bus.Subscribe(r.Context(), topic)
	if err != nil {
		// Bus closed, the server is shutting down.
		return
	}
	defer sub.Close()

	for ev := range sub.Events() {
		if err := pubsub.WriteSSE(w, ev); err != nil {
			s.log.Debug("event stream dropped", "topic", topic, "error", err)
			return
		}
		flusher.Flush()
	}
}

// Start serves HTTP on the given port until ctx is canceled, then closes
// the event bus to end SSE streams and drains remaining connections.
func (s *Server) Start(ctx context.Context, port int) error {
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("web server listening", "url", fmt.Sprintf("http://localhost:%d", port))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.bus.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}
