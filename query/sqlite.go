package query

import (
	"context"
	"database/sql"

	"github.com/hubenschmidt/go-recall/core"
)

// SQLiteExecutor runs statements against a shared sqlite handle. sqlite
// reports zero result columns for writes; the affected count is read from
// changes() on the same pinned connection.
type SQLiteExecutor struct {
	db *sql.DB
}

// NewSQLite creates an executor over an existing database handle. The
// handle is shared with the record store; the executor never closes it.
func NewSQLite(db *sql.DB) *SQLiteExecutor {
	return &SQLiteExecutor{db: db}
}

// Execute runs one statement in implicit autocommit.
func (e *SQLiteExecutor) Execute(ctx context.Context, stmt string) (Result, error) {
	conn, err := e.db.Conn(ctx)
	if err != nil {
		return nil, core.NewStatementError(err)
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, stmt)
	if err != nil {
		return nil, core.NewStatementError(err)
	}

	cols, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, core.NewStatementError(err)
	}

	if len(cols) == 0 {
		// A write: drain so the statement runs to completion, then ask
		// the same connection how many rows it changed.
		for rows.Next() {
		}
		err := rows.Err()
		rows.Close()
		if err != nil {
			return nil, core.NewStatementError(err)
		}

		var n int64
		if err := conn.QueryRowContext(ctx, "SELECT changes()").Scan(&n); err != nil {
			return nil, core.NewStatementError(err)
		}
		return WriteResult{RowsAffected: n}, nil
	}

	defer rows.Close()

	out := []Row{}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, core.NewStatementError(err)
		}
		row := make(Row, len(cols))
		for i, name := range cols {
			row[name] = normalizeValue(vals[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, core.NewStatementError(err)
	}
	return RowSet{Rows: out}, nil
}
