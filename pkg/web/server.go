// Package web serves pipeline results, status streams and metrics over HTTP.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ritzau/ic-analyzer/pkg/ic"
	"github.com/ritzau/ic-analyzer/pkg/logging"
	"github.com/ritzau/ic-analyzer/pkg/pipeline"
	"github.com/ritzau/ic-analyzer/pkg/pubsub"
)

// Results gives access to the latest pipeline state
type Results interface {
	Last() *pipeline.Result
	Status() pubsub.PipelineStatus
}

// StatusResponse is returned by /api/status
type StatusResponse struct {
	Status      pubsub.PipelineStatus `json:"status"`
	Source      string                `json:"source,omitempty"`
	Finished    *time.Time            `json:"finished,omitempty"`
	Terms       int                   `json:"terms"`
	Diseases    int                   `json:"diseases"`
	Components  int                   `json:"components"`
	Unannotated []string              `json:"unannotated"`
	Summary     ic.Summary            `json:"summary"`
}

// Server represents the web server
type Server struct {
	router    *mux.Router
	results   Results
	publisher pubsub.Publisher
	topics    map[string]bool
}

// NewServer creates a new web server
func NewServer(results Results, publisher pubsub.Publisher) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		results:   results,
		publisher: publisher,
		topics: map[string]bool{
			pubsub.TopicPipelineStatus: true,
			pubsub.TopicScores:         true,
		},
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/api/subscribe/{topic}", s.handleSubscribe).Methods("GET")

	s.router.HandleFunc("/api/status", s.handleStatus).Methods("GET")
	s.router.HandleFunc("/api/scores", s.handleScores).Methods("GET")
	s.router.HandleFunc("/api/scores/{term:.+}", s.handleScore).Methods("GET")

	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")
}

// Handler returns the routes wrapped with request logging
func (s *Server) Handler() http.Handler {
	return logging.RequestIDMiddleware(s.router)
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	topic := mux.Vars(r)["topic"]
	if !s.topics[topic] {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown topic %q", topic))
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	sub, err := s.publisher.Subscribe(r.Context(), topic)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	defer sub.Close()

	// Send initial comment to establish connection
	fmt.Fprintf(w, ": connected\n\n")
	flush(w)

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := pubsub.WriteSSE(w, event); err != nil {
				logging.WarnContext(r.Context(), "Error writing SSE event", "topic", topic, "error", err)
				return
			}
			flush(w)
		}
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	response := StatusResponse{
		Status:      s.results.Status(),
		Unannotated: []string{},
	}

	if last := s.results.Last(); last != nil {
		finished := last.Finished
		response.Source = last.Source
		response.Finished = &finished
		response.Terms = len(last.Scores)
		response.Diseases = last.Diseases
		response.Components = last.Components
		response.Summary = last.Summary
		if last.Unannotated != nil {
			response.Unannotated = last.Unannotated
		}
	}

	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleScores(w http.ResponseWriter, r *http.Request) {
	last := s.results.Last()
	if last == nil {
		writeError(w, http.StatusServiceUnavailable, "no scores available yet")
		return
	}

	top := 0
	if param := r.URL.Query().Get("top"); param != "" {
		n, err := strconv.Atoi(param)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid top %q", param))
			return
		}
		top = n
	}

	scores := last.Top(top)
	if scores == nil {
		scores = []pipeline.Score{}
	}
	writeJSON(w, http.StatusOK, scores)
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	last := s.results.Last()
	if last == nil {
		writeError(w, http.StatusServiceUnavailable, "no scores available yet")
		return
	}

	term := mux.Vars(r)["term"]
	score, ok := last.Score(term)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("term %q not found", term))
		return
	}
	writeJSON(w, http.StatusOK, score)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("Error encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func flush(w http.ResponseWriter) {
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Start serves on the given port until ctx is cancelled
func (s *Server) Start(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("Starting web server", "url", fmt.Sprintf("http://localhost:%d", port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		// Closing the publisher ends open SSE streams
		_ = s.publisher.Close()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
