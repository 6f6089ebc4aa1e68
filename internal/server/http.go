// Package server exposes the search orchestrator over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/spigell/hire-labor/internal/registry"
	"github.com/spigell/hire-labor/internal/search"
	"github.com/spigell/hire-labor/internal/taxonomy"
)

const (
	maxQueryLength = 500
	// A JSON-escaped rune takes up to six bytes ("\uXXXX"); the rest is the envelope.
	maxBodyBytes = 8 * maxQueryLength
)

// Searcher is the part of search.Orchestrator the HTTP surface drives.
type Searcher interface {
	Search(query string) uint64
	Clear() uint64
	Refresh(ctx context.Context) error
	State() search.State
	Wait(ctx context.Context) error
	Subscribe() (<-chan search.State, func())
	Ready() bool
}

type searchRequest struct {
	Query string `json:"query" validate:"max=500"`
}

type issuedResponse struct {
	Generation uint64 `json:"generation"`
}

type stateResponse struct {
	search.State
	Counts map[string]int `json:"counts"`
}

type Server struct {
	searcher Searcher
	logger   *zap.Logger
	validate *validator.Validate
}

// NewServer creates the router.
func NewServer(searcher Searcher, logger *zap.Logger) *chi.Mux {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	srv := &Server{
		searcher: searcher,
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}

	r.Post("/search", srv.handleSearch)
	r.Post("/clear", srv.handleClear)
	r.Post("/refresh", srv.handleRefresh)
	r.Get("/state", srv.handleState)
	r.Get("/events", srv.handleEvents)
	r.Get("/taxonomy", srv.handleTaxonomy)
	r.Get("/health", srv.handleHealth)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	if !s.searcher.Ready() {
		http.Error(w, "registry not loaded", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "query is too long", http.StatusBadRequest)
			return
		}
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		http.Error(w, "query is too long", http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusAccepted, issuedResponse{Generation: s.searcher.Search(req.Query)})
}

func (s *Server) handleClear(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusAccepted, issuedResponse{Generation: s.searcher.Clear()})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.searcher.Refresh(r.Context()); err != nil {
		s.logger.Warn("refresh failed", zap.Error(err))
		if errors.Is(err, registry.ErrStoreUnavailable) {
			http.Error(w, "registry store unavailable", http.StatusServiceUnavailable)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.writeState(w)
}

// handleState returns the current state. With ?wait=true it first waits for
// in-flight classification, bounded by the request context.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); wait {
		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()
		if err := s.searcher.Wait(ctx); err != nil {
			s.logger.Debug("state returned before search settled", zap.Error(err))
		}
	}

	s.writeState(w)
}

// handleEvents streams the state as server-sent events: the current state first,
// then one event per applied search until the client goes away.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	updates, unsubscribe := s.searcher.Subscribe()
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, s.searcher.State()); err != nil {
		return
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case state, ok := <-updates:
			if !ok {
				return
			}
			if err := writeEvent(w, state); err != nil {
				s.logger.Debug("event stream closed", zap.Error(err))
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, state search.State) error {
	data, err := json.Marshal(stateResponse{State: state, Counts: state.CountBySkill()})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: state\ndata: %s\n\n", data)
	return err
}

func (s *Server) handleTaxonomy(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, taxonomy.All())
}

func (s *Server) writeState(w http.ResponseWriter) {
	state := s.searcher.State()
	writeJSON(w, http.StatusOK, stateResponse{State: state, Counts: state.CountBySkill()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("took", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
