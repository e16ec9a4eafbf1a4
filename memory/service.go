// Package memory orchestrates embedding generation, record persistence and
// similarity retrieval behind one service type.
//
// The Service owns the process-wide embedding model handle and the record
// store; nothing else touches the model directly. Every request embeds
// synchronously, then performs at most one store operation, so no partial
// multi-step state ever becomes visible.
package memory

import (
	"context"
	"fmt"
	"log"
	"slices"
	"strings"

	"github.com/hubenschmidt/go-recall/core"
	"github.com/hubenschmidt/go-recall/embedder"
	"github.com/hubenschmidt/go-recall/store"
)

// Operation tags reported by Upsert.
const (
	OpInsert = "insert"
	OpUpdate = "update"
)

// Service exposes the semantic memory core: embedding generation, upsert
// and similarity search.
type Service struct {
	embedder embedder.Embedder
	store    store.Store
}

// NewService wires the embedder and store together. The store's schema
// dimension must match the model's output dimension exactly; a mismatch is
// a fatal configuration error, not a per-record condition.
func NewService(e embedder.Embedder, s store.Store) (*Service, error) {
	if e.Dimensions() != s.Dimensions() {
		return nil, fmt.Errorf("embedding dimension mismatch: model %s produces %d, store schema expects %d",
			e.ModelName(), e.Dimensions(), s.Dimensions())
	}
	log.Printf("[memory] Service ready (model=%s, dimension=%d)", e.ModelName(), e.Dimensions())
	return &Service{embedder: e, store: s}, nil
}

// Embedding is the result of GenerateEmbedding.
type Embedding struct {
	Vector    []float64 `json:"embedding"`
	Dimension int       `json:"dimension"`
	Model     string    `json:"model"`
}

// GenerateEmbedding converts text into a fixed-dimension vector. Empty or
// whitespace-only input is rejected rather than embedded.
func (s *Service) GenerateEmbedding(ctx context.Context, text string) (Embedding, error) {
	if strings.TrimSpace(text) == "" {
		return Embedding{}, fmt.Errorf("%w: text must not be empty", core.ErrInvalidInput)
	}

	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return Embedding{}, fmt.Errorf("embed text: %w", err)
	}
	return Embedding{
		Vector:    vec,
		Dimension: len(vec),
		Model:     s.embedder.ModelName(),
	}, nil
}

// UpsertResult reports the outcome of an Upsert.
type UpsertResult struct {
	ID           int64
	Operation    string
	RowsAffected *int64
}

// Upsert writes a record, dispatching on id presence: absent id inserts,
// present id updates. The embedding is always recomputed from the current
// content before the write, so a caller can never set it directly.
//
// An update targeting a nonexistent id is not an error; it reports zero
// rows affected and lets the caller decide how to react.
func (s *Service) Upsert(ctx context.Context, rec store.MemoryRecord) (UpsertResult, error) {
	if err := validateRecord(&rec); err != nil {
		return UpsertResult{}, err
	}

	embedding, err := s.embedder.Embed(ctx, rec.Content)
	if err != nil {
		return UpsertResult{}, fmt.Errorf("embed content: %w", err)
	}

	if rec.ID == nil {
		return s.insertRecord(ctx, rec, embedding)
	}
	return s.updateRecord(ctx, rec, embedding)
}

func (s *Service) insertRecord(ctx context.Context, rec store.MemoryRecord, embedding []float64) (UpsertResult, error) {
	id, err := s.store.Insert(ctx, rec, embedding)
	if err != nil {
		return UpsertResult{}, err
	}
	log.Printf("[memory] Inserted record %d (%q)", id, rec.Title)
	return UpsertResult{ID: id, Operation: OpInsert}, nil
}

func (s *Service) updateRecord(ctx context.Context, rec store.MemoryRecord, embedding []float64) (UpsertResult, error) {
	affected, err := s.store.Update(ctx, rec, embedding)
	if err != nil {
		return UpsertResult{}, err
	}
	log.Printf("[memory] Updated record %d (%d rows)", *rec.ID, affected)
	return UpsertResult{ID: *rec.ID, Operation: OpUpdate, RowsAffected: &affected}, nil
}

// Search embeds the query text and returns the topK nearest records by
// cosine distance, ascending. Callers must not depend on tie order.
func (s *Service) Search(ctx context.Context, queryText string, topK int) ([]store.SearchResult, error) {
	if strings.TrimSpace(queryText) == "" {
		return nil, fmt.Errorf("%w: query_text must not be empty", core.ErrInvalidInput)
	}
	if topK <= 0 {
		return nil, fmt.Errorf("%w: top_k must be positive, got %d", core.ErrInvalidInput, topK)
	}

	embedding, err := s.embedder.Embed(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return s.store.Search(ctx, embedding, topK)
}

// ModelName identifies the loaded embedding model.
func (s *Service) ModelName() string {
	return s.embedder.ModelName()
}

// Dimensions returns the embedding dimension of the loaded model.
func (s *Service) Dimensions() int {
	return s.embedder.Dimensions()
}

// validateRecord checks required fields, applies defaults and enforces the
// closed enum sets.
func validateRecord(rec *store.MemoryRecord) error {
	if strings.TrimSpace(rec.Title) == "" {
		return fmt.Errorf("%w: title is required", core.ErrInvalidInput)
	}
	if strings.TrimSpace(rec.Content) == "" {
		return fmt.Errorf("%w: content is required", core.ErrInvalidInput)
	}

	if rec.Scope == "" {
		rec.Scope = store.ScopePersonal
	} else if !slices.Contains(store.Scopes, rec.Scope) {
		return fmt.Errorf("%w: scope must be one of %v", core.ErrInvalidInput, store.Scopes)
	}

	if rec.Status == "" {
		rec.Status = store.StatusActive
	} else if !slices.Contains(store.Statuses, rec.Status) {
		return fmt.Errorf("%w: status must be one of %v", core.ErrInvalidInput, store.Statuses)
	}

	if rec.Category != nil && !slices.Contains(store.Categories, *rec.Category) {
		return fmt.Errorf("%w: category must be one of %v", core.ErrInvalidInput, store.Categories)
	}

	return nil
}
