// Package server exposes the semantic memory core over HTTP.
//
// Routing and wire framing live here; cancellation and timeouts are the
// transport's concern and are carried through request contexts. The core
// itself performs no retries and holds no cross-request state.
package server

import (
	"fmt"
	"net/http"

	"github.com/hubenschmidt/go-recall/memory"
	"github.com/hubenschmidt/go-recall/query"
)

// Config configures a new Server instance.
type Config struct {
	Service  *memory.Service
	Executor query.Executor
}

// Server is the HTTP boundary for the memory service.
type Server struct {
	svc  *memory.Service
	exec query.Executor
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Service == nil {
		return nil, fmt.Errorf("memory service is required")
	}
	if cfg.Executor == nil {
		return nil, fmt.Errorf("query executor is required")
	}
	return &Server{svc: cfg.Service, exec: cfg.Executor}, nil
}

// Handler returns an http.Handler for the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /embed", s.handleEmbed)
	mux.HandleFunc("POST /db_query", s.handleQuery)
	mux.HandleFunc("POST /mem_similarity", s.handleSimilarity)
	mux.HandleFunc("POST /mem_crud", s.handleUpsert)

	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
