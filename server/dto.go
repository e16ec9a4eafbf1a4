package server

import "github.com/hubenschmidt/go-recall/store"

// Re-export the record type so transport callers only import server.
type MemoryRecord = store.MemoryRecord

type EmbedRequest struct {
	Text string `json:"text"`
}

type EmbedResponse struct {
	Embedding []float64 `json:"embedding"`
	Dimension int       `json:"dimension"`
	Model     string    `json:"model"`
}

type QueryRequest struct {
	Query string `json:"query"`
}

// WriteResponse is returned for statements that produced no row set.
type WriteResponse struct {
	Status       string `json:"status"`
	RowsAffected int64  `json:"rows_affected"`
}

type SimilarityRequest struct {
	QueryText string `json:"query_text"`
	// TopK defaults to 5 when omitted; zero or negative values are
	// rejected.
	TopK *int `json:"top_k,omitempty"`
}

// SearchHit flattens a record's fields next to its raw cosine distance.
type SearchHit struct {
	store.MemoryRecord
	Similarity float64 `json:"similarity"`
}

type UpsertResponse struct {
	Status       string `json:"status"`
	ID           int64  `json:"id"`
	Operation    string `json:"operation"`
	RowsAffected *int64 `json:"rows_affected,omitempty"`
}

type HealthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	ModelName   string `json:"model_name"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
