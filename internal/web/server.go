// Package web exposes the upload, dashboard, and export surfaces over
// HTTP. Claim mutation endpoints are intentionally absent.
package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/gyeh/claimstats/internal/stats"
	"github.com/gyeh/claimstats/internal/store"
)

// Server wires the record store into HTTP handlers.
type Server struct {
	store store.Store
	aggr  *stats.Aggregator
	log   zerolog.Logger
	mux   *chi.Mux
}

// New builds the router with all routes registered.
func New(st store.Store, log zerolog.Logger) *Server {
	s := &Server{
		store: st,
		aggr:  stats.New(st),
		log:   log,
		mux:   chi.NewRouter(),
	}

	s.mux.Use(s.requestLogger)
	s.mux.Get("/healthz", s.handleHealth)
	s.mux.Get("/dashboard", s.handleDashboard)
	s.mux.Get("/export", s.handleExport)
	s.mux.Post("/upload", s.handleUpload)

	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.mux }

// ListenAndServe blocks serving HTTP on addr.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info().Str("addr", addr).Msg("http server listening")
	return srv.ListenAndServe()
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok\n"))
}
