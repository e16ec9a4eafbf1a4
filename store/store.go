// Package store persists memory records alongside their embeddings and
// ranks them by vector distance.
package store

import (
	"context"
	"time"
)

// Scope values accepted for a memory record.
const (
	ScopePersonal = "personal"
	ScopeProject  = "project"
	ScopeGlobal   = "global"
)

// Status values for the record lifecycle.
const (
	StatusActive   = "active"
	StatusArchived = "archived"
)

// Scopes lists the accepted scope values.
var Scopes = []string{ScopePersonal, ScopeProject, ScopeGlobal}

// Statuses lists the accepted lifecycle values.
var Statuses = []string{StatusActive, StatusArchived}

// Categories lists the accepted optional category values.
var Categories = []string{"Code", "Idea", "Instruction", "Fix", "Doc", "Other"}

// MemoryRecord is the persisted entity. The embedding is derived from
// Content at write time and never supplied by a caller, so it does not
// appear here.
type MemoryRecord struct {
	ID         *int64     `json:"id,omitempty"`
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	Scope      string     `json:"scope,omitempty"`
	Project    *string    `json:"project,omitempty"`
	Category   *string    `json:"category,omitempty"`
	Tags       []string   `json:"tags,omitempty"`
	Source     *string    `json:"source,omitempty"`
	Priority   int        `json:"priority"`
	Status     string     `json:"status,omitempty"`
	UsageCount int        `json:"usage_count"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

// SearchResult pairs a record with its raw cosine distance from the query
// embedding. Lower means more similar; scores are not normalized to [0,1].
type SearchResult struct {
	Record     MemoryRecord
	Similarity float64
}

// Store persists memory records keyed by a store-assigned integer id.
//
// Writes always carry the embedding derived from the record's current
// content; the store overwrites the embedding column unconditionally so
// content and embedding cannot drift. Concurrent writes to the same id are
// last-write-wins at the row level; there is no optimistic-concurrency
// check.
type Store interface {
	// Insert assigns a new id, stamps created_at/updated_at and writes the
	// row. Returns the assigned id.
	Insert(ctx context.Context, rec MemoryRecord, embedding []float64) (int64, error)

	// Update rewrites all supplied fields for rec.ID and stamps updated_at.
	// Returns the number of rows affected; zero means no row had that id,
	// which is a reported outcome rather than an error.
	Update(ctx context.Context, rec MemoryRecord, embedding []float64) (int64, error)

	// Search ranks all records by cosine distance to the query embedding,
	// ascending, truncated to topK. An empty store yields an empty slice.
	Search(ctx context.Context, embedding []float64, topK int) ([]SearchResult, error)

	// Dimensions returns the embedding dimension the schema was built for.
	Dimensions() int

	// Close releases the underlying database handle.
	Close() error
}
