package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/hubenschmidt/go-recall/embedder/mock"
	"github.com/hubenschmidt/go-recall/memory"
	"github.com/hubenschmidt/go-recall/server"
	"github.com/hubenschmidt/go-recall/store"
)

const testDims = 16

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()

	st, exec, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "recall.db"), testDims)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	svc, err := memory.NewService(mock.New(testDims), st)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	srv, err := server.New(server.Config{Service: svc, Executor: exec})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return srv.Handler()
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHealth(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	body := decode[server.HealthResponse](t, rec)
	if body.Status != "ok" || !body.ModelLoaded {
		t.Fatalf("health body = %+v", body)
	}
	if body.ModelName == "" {
		t.Error("model_name missing from health response")
	}
}

func TestEmbedEndpoint(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/embed", server.EmbedRequest{Text: "hello"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	body := decode[server.EmbedResponse](t, rec)
	if body.Dimension != testDims || len(body.Embedding) != testDims {
		t.Fatalf("dimension = %d (len %d), want %d", body.Dimension, len(body.Embedding), testDims)
	}
	if body.Model == "" {
		t.Error("model missing from embed response")
	}
}

func TestEmbedRejectsEmptyText(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/embed", server.EmbedRequest{Text: ""})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	body := decode[server.ErrorResponse](t, rec)
	if body.Error == "" {
		t.Error("error body missing diagnostic")
	}
}

func TestUpsertAndSimilarity(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/mem_crud", server.MemoryRecord{
		Title:   "A",
		Content: "hello world",
		Scope:   "personal",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("upsert status = %d: %s", rec.Code, rec.Body.String())
	}
	up := decode[server.UpsertResponse](t, rec)
	if up.Status != "success" || up.Operation != "insert" || up.ID <= 0 {
		t.Fatalf("upsert body = %+v", up)
	}

	topK := 1
	rec = doJSON(t, h, http.MethodPost, "/mem_similarity", server.SimilarityRequest{
		QueryText: "hello",
		TopK:      &topK,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("similarity status = %d: %s", rec.Code, rec.Body.String())
	}
	hits := decode[[]map[string]any](t, rec)
	if len(hits) != 1 {
		t.Fatalf("hit count = %d, want 1", len(hits))
	}
	if hits[0]["title"] != "A" {
		t.Fatalf("hit title = %v, want A", hits[0]["title"])
	}
	if _, ok := hits[0]["similarity"].(float64); !ok {
		t.Fatalf("similarity = %v (%T), want a number", hits[0]["similarity"], hits[0]["similarity"])
	}
}

func TestSimilarityTopKHandling(t *testing.T) {
	h := newTestHandler(t)

	doJSON(t, h, http.MethodPost, "/mem_crud", server.MemoryRecord{Title: "A", Content: "only record"})

	// Explicit zero is invalid; an omitted top_k falls back to the default.
	zero := 0
	rec := doJSON(t, h, http.MethodPost, "/mem_similarity", server.SimilarityRequest{QueryText: "q", TopK: &zero})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("top_k=0 status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/mem_similarity", server.SimilarityRequest{QueryText: "q"})
	if rec.Code != http.StatusOK {
		t.Fatalf("default top_k status = %d: %s", rec.Code, rec.Body.String())
	}
	hits := decode[[]map[string]any](t, rec)
	if len(hits) != 1 {
		t.Fatalf("hit count = %d, want 1", len(hits))
	}
}

func TestUpsertValidationError(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/mem_crud", server.MemoryRecord{Content: "no title"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
	}
}

func TestQueryEndpoint(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/db_query", server.QueryRequest{Query: "SELECT 1 AS n"})
	if rec.Code != http.StatusOK {
		t.Fatalf("select status = %d: %s", rec.Code, rec.Body.String())
	}
	rows := decode[[]map[string]any](t, rec)
	if len(rows) != 1 || rows[0]["n"] != float64(1) {
		t.Fatalf("select body = %v", rows)
	}

	rec = doJSON(t, h, http.MethodPost, "/db_query", server.QueryRequest{Query: "DELETE FROM memory WHERE id = -1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d: %s", rec.Code, rec.Body.String())
	}
	wr := decode[server.WriteResponse](t, rec)
	if wr.Status != "success" || wr.RowsAffected != 0 {
		t.Fatalf("delete body = %+v", wr)
	}
}

func TestQueryEndpointSurfacesStatementErrors(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/db_query", server.QueryRequest{Query: "SELEKT nonsense"})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	body := decode[server.ErrorResponse](t, rec)
	if body.Error == "" {
		t.Error("error body missing backend diagnostic")
	}
}
