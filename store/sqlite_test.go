package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hubenschmidt/go-recall/embedder/mock"
	"github.com/hubenschmidt/go-recall/store"
)

const testDims = 16

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "recall.db"), testDims)
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func embedText(t *testing.T, text string) []float64 {
	t.Helper()
	v, err := mock.New(testDims).Embed(context.Background(), text)
	if err != nil {
		t.Fatalf("embed %q: %v", text, err)
	}
	return v
}

func TestInsertAssignsNewIDs(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rec := store.MemoryRecord{Title: "A", Content: "first", Scope: store.ScopePersonal, Status: store.StatusActive}
	id1, err := s.Insert(ctx, rec, embedText(t, rec.Content))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if id1 <= 0 {
		t.Fatalf("assigned id = %d, want > 0", id1)
	}

	rec2 := store.MemoryRecord{Title: "B", Content: "second", Scope: store.ScopePersonal, Status: store.StatusActive}
	id2, err := s.Insert(ctx, rec2, embedText(t, rec2.Content))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if id2 == id1 {
		t.Fatalf("second insert reused id %d", id1)
	}
}

func TestUpdateExistingRow(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rec := store.MemoryRecord{Title: "A", Content: "original", Scope: store.ScopePersonal, Status: store.StatusActive}
	id, err := s.Insert(ctx, rec, embedText(t, rec.Content))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	rec.ID = &id
	rec.Content = "rewritten"
	rec.Title = "A2"
	affected, err := s.Update(ctx, rec, embedText(t, rec.Content))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if affected != 1 {
		t.Fatalf("rows affected = %d, want 1", affected)
	}

	results, err := s.Search(ctx, embedText(t, "rewritten"), 1)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].Record.Title != "A2" || results[0].Record.Content != "rewritten" {
		t.Fatalf("updated row not visible in search: %+v", results)
	}
}

func TestUpdateMissingIDReportsZero(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	missing := int64(9999)
	rec := store.MemoryRecord{ID: &missing, Title: "ghost", Content: "nothing", Scope: store.ScopePersonal, Status: store.StatusActive}
	affected, err := s.Update(ctx, rec, embedText(t, rec.Content))
	if err != nil {
		t.Fatalf("update of missing id should not error: %v", err)
	}
	if affected != 0 {
		t.Fatalf("rows affected = %d, want 0", affected)
	}
}

func TestSearchRankingAndTruncation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	contents := []string{"alpha notes", "beta notes", "gamma notes"}
	for i, c := range contents {
		rec := store.MemoryRecord{Title: c, Content: c, Scope: store.ScopePersonal, Status: store.StatusActive, Priority: i}
		if _, err := s.Insert(ctx, rec, embedText(t, c)); err != nil {
			t.Fatalf("insert %q: %v", c, err)
		}
	}

	// Querying with an exact stored embedding must rank that record first
	// at (near) zero distance.
	results, err := s.Search(ctx, embedText(t, "beta notes"), 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != len(contents) {
		t.Fatalf("result count = %d, want %d", len(results), len(contents))
	}
	if results[0].Record.Title != "beta notes" {
		t.Fatalf("closest record = %q, want %q", results[0].Record.Title, "beta notes")
	}
	if results[0].Similarity > 1e-9 {
		t.Errorf("distance to identical embedding = %v, want ~0", results[0].Similarity)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Similarity < results[i-1].Similarity {
			t.Fatalf("results not in non-decreasing distance order: %v then %v",
				results[i-1].Similarity, results[i].Similarity)
		}
	}

	// topK truncates.
	truncated, err := s.Search(ctx, embedText(t, "beta notes"), 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(truncated) != 2 {
		t.Fatalf("truncated result count = %d, want 2", len(truncated))
	}
}

func TestSearchEmptyStore(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	results, err := s.Search(ctx, embedText(t, "anything"), 5)
	if err != nil {
		t.Fatalf("search on empty store: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("empty store returned %d results", len(results))
	}
}

func TestOptionalFieldsRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	project := "recall"
	category := "Doc"
	rec := store.MemoryRecord{
		Title:    "tagged",
		Content:  "tagged content",
		Scope:    store.ScopeProject,
		Status:   store.StatusActive,
		Project:  &project,
		Category: &category,
		Tags:     []string{"go", "vectors"},
	}
	if _, err := s.Insert(ctx, rec, embedText(t, rec.Content)); err != nil {
		t.Fatalf("insert: %v", err)
	}

	results, err := s.Search(ctx, embedText(t, rec.Content), 1)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	got := results[0].Record
	if got.Project == nil || *got.Project != project {
		t.Errorf("project = %v, want %q", got.Project, project)
	}
	if got.Category == nil || *got.Category != category {
		t.Errorf("category = %v, want %q", got.Category, category)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "go" || got.Tags[1] != "vectors" {
		t.Errorf("tags = %v, want [go vectors]", got.Tags)
	}
	if got.CreatedAt == nil || got.UpdatedAt == nil {
		t.Error("timestamps not set on insert")
	}
	if got.LastUsedAt != nil {
		t.Errorf("last_used_at = %v, want nil", got.LastUsedAt)
	}
}
