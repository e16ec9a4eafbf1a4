package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hubenschmidt/go-recall/store/migrations"
	"github.com/hubenschmidt/go-recall/vector"
)

// SQLiteStore is the embedded fallback backend. Embeddings and tags are
// stored as JSON text and similarity is computed in-process, so it behaves
// like the postgres backend without needing a server. Intended for
// development and tests, not large stores.
type SQLiteStore struct {
	db  *sql.DB
	dim int
}

// NewSQLite opens (and creates if needed) a database at path and applies
// the init schema. The handle is shared with the query executor.
func NewSQLite(path string, dim int) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	data, err := migrations.SQLite.ReadFile("sqlite/001_init.sql")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("read migration: %w", err)
	}
	if _, err := db.Exec(string(data)); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec migration: %w", err)
	}

	return &SQLiteStore{db: db, dim: dim}, nil
}

// DB exposes the shared database handle for the query executor.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// Insert writes a new row and returns the assigned id.
func (s *SQLiteStore) Insert(ctx context.Context, rec MemoryRecord, embedding []float64) (int64, error) {
	embJSON, err := json.Marshal(embedding)
	if err != nil {
		return 0, fmt.Errorf("marshal embedding: %w", err)
	}
	tagsJSON, err := marshalTags(rec.Tags)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC().UnixMilli()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO memory (
			title, content, embedding, scope, project, category, tags,
			source, priority, status, usage_count, created_at, updated_at,
			last_used_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Title, rec.Content, string(embJSON), rec.Scope, rec.Project,
		rec.Category, tagsJSON, rec.Source, rec.Priority, rec.Status,
		rec.UsageCount, now, now, toMillis(rec.LastUsedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("insert record: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// Update rewrites all supplied fields for rec.ID. The embedding column is
// overwritten unconditionally from the freshly derived embedding.
func (s *SQLiteStore) Update(ctx context.Context, rec MemoryRecord, embedding []float64) (int64, error) {
	embJSON, err := json.Marshal(embedding)
	if err != nil {
		return 0, fmt.Errorf("marshal embedding: %w", err)
	}
	tagsJSON, err := marshalTags(rec.Tags)
	if err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE memory SET
			title = ?, content = ?, embedding = ?, scope = ?, project = ?,
			category = ?, tags = ?, source = ?, priority = ?, status = ?,
			usage_count = ?, updated_at = ?, last_used_at = ?
		WHERE id = ?`,
		rec.Title, rec.Content, string(embJSON), rec.Scope, rec.Project,
		rec.Category, tagsJSON, rec.Source, rec.Priority, rec.Status,
		rec.UsageCount, time.Now().UTC().UnixMilli(), toMillis(rec.LastUsedAt),
		*rec.ID,
	)
	if err != nil {
		return 0, fmt.Errorf("update record: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// Search brute-forces cosine distance over every stored embedding, sorts
// ascending and truncates to topK.
func (s *SQLiteStore) Search(ctx context.Context, embedding []float64, topK int) ([]SearchResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, content, embedding, scope, project, category,
			   tags, source, priority, status, usage_count, created_at,
			   updated_at, last_used_at
		FROM memory`)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	results := []SearchResult{}
	for rows.Next() {
		var (
			rec                  MemoryRecord
			id                   int64
			embJSON              string
			tagsJSON             sql.NullString
			createdAt, updatedAt int64
			lastUsedAt           sql.NullInt64
		)
		if err := rows.Scan(
			&id, &rec.Title, &rec.Content, &embJSON, &rec.Scope,
			&rec.Project, &rec.Category, &tagsJSON, &rec.Source,
			&rec.Priority, &rec.Status, &rec.UsageCount, &createdAt,
			&updatedAt, &lastUsedAt,
		); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		stored, err := vector.Parse(embJSON)
		if err != nil {
			return nil, fmt.Errorf("parse embedding for id %d: %w", id, err)
		}

		rec.ID = &id
		rec.CreatedAt = fromMillis(createdAt)
		rec.UpdatedAt = fromMillis(updatedAt)
		if lastUsedAt.Valid {
			rec.LastUsedAt = fromMillis(lastUsedAt.Int64)
		}
		if tagsJSON.Valid && tagsJSON.String != "" {
			if err := json.Unmarshal([]byte(tagsJSON.String), &rec.Tags); err != nil {
				return nil, fmt.Errorf("unmarshal tags for id %d: %w", id, err)
			}
		}

		results = append(results, SearchResult{
			Record:     rec,
			Similarity: vector.CosineDistance(embedding, stored),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity < results[j].Similarity
	})
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// Dimensions returns the embedding dimension the store was opened with.
func (s *SQLiteStore) Dimensions() int {
	return s.dim
}

// Close closes the shared database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func marshalTags(tags []string) (*string, error) {
	if tags == nil {
		return nil, nil
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("marshal tags: %w", err)
	}
	out := string(data)
	return &out, nil
}

func toMillis(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	ms := t.UTC().UnixMilli()
	return &ms
}

func fromMillis(ms int64) *time.Time {
	t := time.UnixMilli(ms).UTC()
	return &t
}
