package query

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hubenschmidt/go-recall/core"
)

// PgExecutor runs statements against a shared pgx pool. Postgres reports a
// row description for reads and a command tag with the affected count for
// writes, so no statement inspection is needed.
type PgExecutor struct {
	pool *pgxpool.Pool
}

// NewPg creates an executor over an existing pool. The pool is shared with
// the record store; the executor never closes it.
func NewPg(pool *pgxpool.Pool) *PgExecutor {
	return &PgExecutor{pool: pool}
}

// Execute runs one statement in implicit autocommit.
func (e *PgExecutor) Execute(ctx context.Context, stmt string) (Result, error) {
	rows, err := e.pool.Query(ctx, stmt)
	if err != nil {
		return nil, core.NewStatementError(err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	if len(fields) == 0 {
		// A write: drain so the command completes, then read the tag.
		for rows.Next() {
		}
		if err := rows.Err(); err != nil {
			return nil, core.NewStatementError(err)
		}
		return WriteResult{RowsAffected: rows.CommandTag().RowsAffected()}, nil
	}

	out := []Row{}
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, core.NewStatementError(err)
		}
		row := make(Row, len(fields))
		for i, f := range fields {
			row[f.Name] = normalizeValue(vals[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, core.NewStatementError(err)
	}
	return RowSet{Rows: out}, nil
}
