// Package query executes arbitrary SQL statements against the memory
// database and normalizes the outcome into a transport-safe shape.
//
// The executor never parses or restricts statement text. A statement is
// classified as a read or a write by what the backend reports: a row
// description yields a RowSet, anything else yields a WriteResult with the
// backend's affected-row count. Each call is its own implicit transaction;
// no cross-call transaction state is retained and failed statements are
// never retried.
package query

import "context"

// Row maps column names to transport-safe values: nil, bool, int64,
// float64, string, []any, or map[string]any for json columns. Vector-typed
// columns are always converted to []any of float64, never returned as an
// opaque handle.
type Row map[string]any

// Result is either a RowSet or a WriteResult.
type Result interface {
	result()
}

// RowSet holds the rows produced by a statement.
type RowSet struct {
	Rows []Row
}

func (RowSet) result() {}

// WriteResult reports the affected-row count of a statement that produced
// no row set.
type WriteResult struct {
	RowsAffected int64
}

func (WriteResult) result() {}

// Executor runs one statement per call against the shared database handle.
type Executor interface {
	Execute(ctx context.Context, stmt string) (Result, error)
}
