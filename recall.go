// Package recall provides a semantic memory store: text is converted into
// fixed-dimension embeddings, persisted as structured records in a
// relational+vector backend, and retrieved by cosine distance rather than
// exact match.
//
// Example usage:
//
//	emb := embedder.NewOllama("http://localhost:11434", "nomic-embed-text", 768)
//	st, exec, err := store.Open(ctx, os.Getenv("RECALL_DSN"), emb.Dimensions())
//	svc, err := memory.NewService(emb, st)
//
//	result, err := svc.Upsert(ctx, store.MemoryRecord{
//	    Title:   "pgvector operators",
//	    Content: "<=> is cosine distance, <-> is L2",
//	    Scope:   store.ScopeProject,
//	})
//	hits, err := svc.Search(ctx, "how do I rank by cosine distance?", 5)
//
// The query executor runs arbitrary SQL against the same handle:
//
//	res, err := exec.Execute(ctx, "SELECT count(*) AS n FROM memory")
package recall

import (
	"github.com/hubenschmidt/go-recall/memory"
	"github.com/hubenschmidt/go-recall/query"
	"github.com/hubenschmidt/go-recall/store"
)

// Re-export the core types for convenience.
type (
	MemoryRecord = store.MemoryRecord
	SearchResult = store.SearchResult
	UpsertResult = memory.UpsertResult
	Embedding    = memory.Embedding
	RowSet       = query.RowSet
	WriteResult  = query.WriteResult
)

// Re-export scope and lifecycle values.
const (
	ScopePersonal = store.ScopePersonal
	ScopeProject  = store.ScopeProject
	ScopeGlobal   = store.ScopeGlobal

	StatusActive   = store.StatusActive
	StatusArchived = store.StatusArchived
)
