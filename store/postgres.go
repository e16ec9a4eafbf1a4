package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/hubenschmidt/go-recall/store/migrations"
)

// PostgresStore is a pgvector-backed record store. The embedding column is
// declared with the dimension fixed at construction; swapping models to a
// different dimension requires a schema and index rebuild.
type PostgresStore struct {
	pool *pgxpool.Pool
	dim  int
}

// NewPostgres connects, registers the pgvector types and applies the init
// schema. The pool is shared with the query executor.
func NewPostgres(ctx context.Context, dsn string, dim int) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}
	cfg.MaxConnLifetime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &PostgresStore{pool: pool, dim: dim}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	data, err := migrations.Postgres.ReadFile("postgres/001_init.sql")
	if err != nil {
		return fmt.Errorf("read migration: %w", err)
	}
	if _, err := s.pool.Exec(ctx, fmt.Sprintf(string(data), s.dim)); err != nil {
		return fmt.Errorf("exec migration: %w", err)
	}
	return nil
}

// Pool exposes the shared connection pool for the query executor.
func (s *PostgresStore) Pool() *pgxpool.Pool {
	return s.pool
}

// Insert writes a new row and returns the assigned id.
func (s *PostgresStore) Insert(ctx context.Context, rec MemoryRecord, embedding []float64) (int64, error) {
	now := time.Now().UTC()
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO memory (
			title, content, embedding, scope, project, category, tags,
			source, priority, status, usage_count, created_at, updated_at,
			last_used_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id`,
		rec.Title, rec.Content, toVector(embedding), rec.Scope, rec.Project,
		rec.Category, rec.Tags, rec.Source, rec.Priority, rec.Status,
		rec.UsageCount, now, now, rec.LastUsedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert record: %w", err)
	}
	return id, nil
}

// Update rewrites all supplied fields for rec.ID. The embedding column is
// overwritten unconditionally from the freshly derived embedding.
func (s *PostgresStore) Update(ctx context.Context, rec MemoryRecord, embedding []float64) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE memory SET
			title = $1, content = $2, embedding = $3, scope = $4,
			project = $5, category = $6, tags = $7, source = $8,
			priority = $9, status = $10, usage_count = $11,
			updated_at = $12, last_used_at = $13
		WHERE id = $14`,
		rec.Title, rec.Content, toVector(embedding), rec.Scope, rec.Project,
		rec.Category, rec.Tags, rec.Source, rec.Priority, rec.Status,
		rec.UsageCount, time.Now().UTC(), rec.LastUsedAt, *rec.ID,
	)
	if err != nil {
		return 0, fmt.Errorf("update record: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Search ranks records by the <=> cosine distance operator, served by the
// HNSW index. The embedding column is excluded from the result set.
func (s *PostgresStore) Search(ctx context.Context, embedding []float64, topK int) ([]SearchResult, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, title, content, scope, project, category, tags, source,
			   priority, status, usage_count, created_at, updated_at,
			   last_used_at, embedding <=> $1 AS similarity
		FROM memory
		ORDER BY similarity
		LIMIT $2`,
		toVector(embedding), topK,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	results := []SearchResult{}
	for rows.Next() {
		var (
			rec                  MemoryRecord
			id                   int64
			createdAt, updatedAt time.Time
			similarity           float64
		)
		if err := rows.Scan(
			&id, &rec.Title, &rec.Content, &rec.Scope, &rec.Project,
			&rec.Category, &rec.Tags, &rec.Source, &rec.Priority,
			&rec.Status, &rec.UsageCount, &createdAt, &updatedAt,
			&rec.LastUsedAt, &similarity,
		); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		rec.ID = &id
		rec.CreatedAt = &createdAt
		rec.UpdatedAt = &updatedAt
		results = append(results, SearchResult{Record: rec, Similarity: similarity})
	}
	return results, rows.Err()
}

// Dimensions returns the embedding dimension the schema was built for.
func (s *PostgresStore) Dimensions() int {
	return s.dim
}

// Close closes the shared pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func toVector(embedding []float64) pgvector.Vector {
	out := make([]float32, len(embedding))
	for i, v := range embedding {
		out[i] = float32(v)
	}
	return pgvector.NewVector(out)
}
