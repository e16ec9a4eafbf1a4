package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/hubenschmidt/go-recall/query"
)

// Open creates a record store and a query executor sharing one database
// handle, based on the DSN:
//   - Empty DSN: SQLite at data/recall.db
//   - postgres:// or postgresql://: PostgreSQL with pgvector
//   - Anything else: SQLite at the specified path
func Open(ctx context.Context, dsn string, dim int) (Store, query.Executor, error) {
	if dsn == "" {
		dsn = "data/recall.db"
	}

	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		s, err := NewPostgres(ctx, dsn, dim)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres: %w", err)
		}
		return s, query.NewPg(s.Pool()), nil
	}

	s, err := NewSQLite(dsn, dim)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite: %w", err)
	}
	return s, query.NewSQLite(s.DB()), nil
}
