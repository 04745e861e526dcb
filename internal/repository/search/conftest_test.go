package search

import (
	"context"
	"testing"

	"github.com/kailas-cloud/vecsync/internal/db"
	"github.com/kailas-cloud/vecsync/internal/domain/search/query"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	searchFn func(ctx context.Context, index string, expr *query.Expression) (*db.SearchResult, error)
	countFn  func(ctx context.Context, index string, expr *query.CountExpression) (int, error)
}

func (m *mockStore) Search(ctx context.Context, index string, expr *query.Expression) (*db.SearchResult, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, index, expr)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) Count(ctx context.Context, index string, expr *query.CountExpression) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx, index, expr)
	}
	return 0, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, "datasets"), ms
}
