package search

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/vecsync/internal/db"
	"github.com/kailas-cloud/vecsync/internal/domain"
	"github.com/kailas-cloud/vecsync/internal/domain/search/query"
	"github.com/kailas-cloud/vecsync/internal/domain/search/result"
)

// store is the consumer interface for search operations (ISP).
type store interface {
	Search(ctx context.Context, index string, expr *query.Expression) (*db.SearchResult, error)
	Count(ctx context.Context, index string, expr *query.CountExpression) (int, error)
}

// Repo implements usecase/search.Repository against one index.
type Repo struct {
	store store
	index string
}

// New creates a search repository.
func New(s store, index string) *Repo {
	return &Repo{store: s, index: index}
}

// Find runs the windowed search and the exact count. Engine failures wrap
// domain.ErrEngineQueryFailed.
func (r *Repo) Find(ctx context.Context, expr *query.Expression, count *query.CountExpression) (result.Page, error) {
	sr, err := r.store.Search(ctx, r.index, expr)
	if err != nil {
		return result.Page{}, fmt.Errorf("%w: search %s: %w", domain.ErrEngineQueryFailed, r.index, err)
	}

	total, err := r.store.Count(ctx, r.index, count)
	if err != nil {
		return result.Page{}, fmt.Errorf("%w: count %s: %w", domain.ErrEngineQueryFailed, r.index, err)
	}

	ids := make([]string, len(sr.Entries))
	for i := range sr.Entries {
		ids[i] = sr.Entries[i].ID
	}
	return result.Page{IDs: ids, Total: total}, nil
}

// Rank runs a scored query and returns hits in engine order.
func (r *Repo) Rank(ctx context.Context, expr *query.Expression) ([]result.Hit, error) {
	sr, err := r.store.Search(ctx, r.index, expr)
	if err != nil {
		return nil, fmt.Errorf("%w: search %s: %w", domain.ErrEngineQueryFailed, r.index, err)
	}

	hits := make([]result.Hit, len(sr.Entries))
	for i := range sr.Entries {
		hits[i] = result.Hit{ID: sr.Entries[i].ID, Score: sr.Entries[i].Score}
	}
	return hits, nil
}
