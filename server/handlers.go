package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hubenschmidt/go-recall/core"
	"github.com/hubenschmidt/go-recall/query"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:      "ok",
		ModelLoaded: true,
		ModelName:   s.svc.ModelName(),
	})
}

func (s *Server) handleEmbed(w http.ResponseWriter, r *http.Request) {
	var req EmbedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	emb, err := s.svc.GenerateEmbedding(r.Context(), req.Text)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, EmbedResponse{
		Embedding: emb.Vector,
		Dimension: emb.Dimension,
		Model:     emb.Model,
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := s.exec.Execute(r.Context(), req.Query)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	switch res := result.(type) {
	case query.RowSet:
		writeJSON(w, http.StatusOK, res.Rows)
	case query.WriteResult:
		writeJSON(w, http.StatusOK, WriteResponse{
			Status:       "success",
			RowsAffected: res.RowsAffected,
		})
	}
}

func (s *Server) handleSimilarity(w http.ResponseWriter, r *http.Request) {
	var req SimilarityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	topK := 5
	if req.TopK != nil {
		topK = *req.TopK
	}

	results, err := s.svc.Search(r.Context(), req.QueryText, topK)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	hits := make([]SearchHit, 0, len(results))
	for _, res := range results {
		hits = append(hits, SearchHit{MemoryRecord: res.Record, Similarity: res.Similarity})
	}
	writeJSON(w, http.StatusOK, hits)
}

func (s *Server) handleUpsert(w http.ResponseWriter, r *http.Request) {
	var rec MemoryRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := s.svc.Upsert(r.Context(), rec)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, UpsertResponse{
		Status:       "success",
		ID:           result.ID,
		Operation:    result.Operation,
		RowsAffected: result.RowsAffected,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeServiceError maps the core error taxonomy onto HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, core.ErrModelUnavailable):
		writeError(w, http.StatusServiceUnavailable, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}
